package httpserver

import (
	"time"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

// BuildSessionEnvelope renders an interview session. The stored resume text
// is never echoed back.
func BuildSessionEnvelope(s domain.InterviewSession) map[string]any {
	turns := s.Turns
	if turns == nil {
		turns = []domain.InterviewTurn{}
	}
	m := map[string]any{
		"id":         s.ID,
		"domain":     string(s.Domain),
		"difficulty": s.Difficulty,
		"status":     string(s.Status),
		"turns":      turns,
		"created_at": s.CreatedAt,
		"updated_at": s.UpdatedAt,
		"has_resume": s.ResumeText != "",
	}
	if s.EndedAt != nil {
		m["ended_at"] = *s.EndedAt
	}
	if s.Feedback != nil {
		m["feedback"] = s.Feedback
		m["overall_score"] = s.Feedback.OverallScore
	}
	return m
}

// BuildSessionSummary is the list form of a session, without turns.
func BuildSessionSummary(s domain.InterviewSession) map[string]any {
	m := map[string]any{
		"id":         s.ID,
		"domain":     string(s.Domain),
		"difficulty": s.Difficulty,
		"status":     string(s.Status),
		"questions":  len(s.Answered()),
		"created_at": s.CreatedAt,
	}
	if score := s.Score(); score != nil {
		m["overall_score"] = *score
	}
	return m
}

func sessionSummaries(in []domain.InterviewSession) []map[string]any {
	out := make([]map[string]any, 0, len(in))
	for _, s := range in {
		out = append(out, BuildSessionSummary(s))
	}
	return out
}

type chatView struct {
	ID        string            `json:"id"`
	Subject   string            `json:"subject"`
	Turns     []domain.ChatTurn `json:"turns"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func newChatView(s domain.ChatSession) chatView {
	turns := s.Turns
	if turns == nil {
		turns = []domain.ChatTurn{}
	}
	return chatView{ID: s.ID, Subject: s.Subject, Turns: turns, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt}
}

func chatViews(in []domain.ChatSession) []chatView {
	out := make([]chatView, 0, len(in))
	for _, s := range in {
		out = append(out, newChatView(s))
	}
	return out
}

type questionView struct {
	ID       string `json:"id,omitempty"`
	Subject  string `json:"subject"`
	Question string `json:"question"`
	Option1  string `json:"option1"`
	Option2  string `json:"option2"`
	Option3  string `json:"option3"`
	Option4  string `json:"option4"`
	Date     string `json:"date"`
}

func questionViews(in []domain.DailyQuestion) []questionView {
	out := make([]questionView, 0, len(in))
	for _, q := range in {
		out = append(out, questionView{
			ID:       q.ID,
			Subject:  q.Subject,
			Question: q.Question,
			Option1:  q.Options[0],
			Option2:  q.Options[1],
			Option3:  q.Options[2],
			Option4:  q.Options[3],
			Date:     q.Date,
		})
	}
	return out
}

type reviewView struct {
	ID                  string    `json:"id"`
	Filename            string    `json:"filename,omitempty"`
	GrammaticalMistakes string    `json:"grammatical_mistakes"`
	Suggestions         string    `json:"suggestions"`
	ATSScore            float64   `json:"ats_score"`
	CreatedAt           time.Time `json:"created_at"`
}

func newReviewView(r domain.ResumeReview) reviewView {
	return reviewView{
		ID:                  r.ID,
		Filename:            r.Filename,
		GrammaticalMistakes: r.GrammaticalMistakes,
		Suggestions:         r.Suggestions,
		ATSScore:            r.ATSScore,
		CreatedAt:           r.CreatedAt,
	}
}

// quizAttemptView is the stored attempt; correct answers are only revealed
// after the caller has submitted.
type quizAttemptView struct {
	ID               string                  `json:"id"`
	Subject          string                  `json:"subject"`
	Score            int                     `json:"score"`
	CorrectAnswers   int                     `json:"correct_answers"`
	TotalQuestions   int                     `json:"total_questions"`
	Grade            string                  `json:"grade"`
	Performance      string                  `json:"performance"`
	TimeTakenSeconds int                     `json:"time_taken_seconds"`
	Results          []domain.QuizResultItem `json:"results"`
	CreatedAt        time.Time               `json:"created_at"`
}

func newQuizAttemptView(a domain.QuizAttempt) quizAttemptView {
	results := a.Results
	if results == nil {
		results = []domain.QuizResultItem{}
	}
	return quizAttemptView{
		ID:               a.ID,
		Subject:          a.Subject,
		Score:            a.Score,
		CorrectAnswers:   a.CorrectAnswers,
		TotalQuestions:   a.TotalQuestions,
		Grade:            a.Grade,
		Performance:      a.Performance,
		TimeTakenSeconds: a.TimeTakenSeconds,
		Results:          results,
		CreatedAt:        a.CreatedAt,
	}
}

func quizAttemptViews(in []domain.QuizAttempt) []quizAttemptView {
	out := make([]quizAttemptView, 0, len(in))
	for _, a := range in {
		out = append(out, newQuizAttemptView(a))
	}
	return out
}
