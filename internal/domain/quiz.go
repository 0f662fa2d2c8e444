package domain

import (
	"strconv"
	"strings"
	"time"
)

// QuizOptionCount is the number of choices on every daily question.
const QuizOptionCount = 4

// CorrectOption resolves the stored answer to a zero-based option index.
// Answers are stored as "option1".."option4"; older rows may hold the
// option text or a bare number. It returns -1 when nothing matches.
func (q DailyQuestion) CorrectOption() int {
	a := strings.ToLower(strings.TrimSpace(q.Answer))
	if a == "" {
		return -1
	}
	if n, err := strconv.Atoi(strings.TrimPrefix(a, "option")); err == nil && n >= 1 && n <= QuizOptionCount {
		return n - 1
	}
	for i, opt := range q.Options {
		if strings.EqualFold(strings.TrimSpace(opt), a) {
			return i
		}
	}
	return -1
}

// OptionKey returns the stored answer key for a zero-based index.
func OptionKey(i int) string { return "option" + strconv.Itoa(i+1) }

// QuizAnswer is one submitted choice. SelectedOption is zero-based.
type QuizAnswer struct {
	QuestionID     string
	SelectedOption int
}

// QuizResultItem is the graded outcome of one answer.
type QuizResultItem struct {
	QuestionID     string `json:"question_id"`
	Question       string `json:"question"`
	SelectedOption int    `json:"selected_option"`
	SelectedText   string `json:"selected_text"`
	CorrectOption  int    `json:"correct_option"`
	CorrectText    string `json:"correct_text"`
	IsCorrect      bool   `json:"is_correct"`
}

// QuizAttempt is a scored quiz submission kept as history.
type QuizAttempt struct {
	ID               string
	UserID           string
	Subject          string
	Score            int // percentage, 0..100
	CorrectAnswers   int
	TotalQuestions   int
	Grade            string
	Performance      string
	TimeTakenSeconds int
	Results          []QuizResultItem
	CreatedAt        time.Time
}

// QuizGrade maps a percentage to a letter grade and a short verdict.
func QuizGrade(score int) (grade, performance string) {
	switch {
	case score >= 90:
		return "A+", "Excellent"
	case score >= 80:
		return "A", "Very Good"
	case score >= 70:
		return "B", "Good"
	case score >= 60:
		return "C", "Average"
	case score >= 50:
		return "D", "Below Average"
	default:
		return "F", "Needs Improvement"
	}
}

// SubjectQuizStats aggregates attempts for one subject.
type SubjectQuizStats struct {
	Subject      string  `json:"subject"`
	Quizzes      int     `json:"quizzes"`
	AverageScore float64 `json:"average_score"`
	BestScore    int     `json:"best_score"`
}

// QuizStats aggregates a user's quiz history.
type QuizStats struct {
	TotalQuizzes   int                `json:"total_quizzes"`
	AverageScore   float64            `json:"average_score"`
	BestScore      int                `json:"best_score"`
	TotalCorrect   int                `json:"total_correct"`
	TotalQuestions int                `json:"total_questions"`
	Subjects       []SubjectQuizStats `json:"subjects"`
}

// Streak counts consecutive active days.
type Streak struct {
	Current      int        `json:"current_streak"`
	Max          int        `json:"max_streak"`
	LastActivity *time.Time `json:"last_activity"`
}

// Record registers activity at now. Activity on the calendar day after the
// last one extends the streak, a longer gap restarts it at 1 and a second
// activity on the same day changes nothing.
func (s Streak) Record(now time.Time) Streak {
	now = now.UTC()
	if s.LastActivity == nil {
		s.Current = 1
	} else {
		switch days := daysBetween(s.LastActivity.UTC(), now); {
		case days == 1:
			s.Current++
		case days > 1:
			s.Current = 1
		case s.Current == 0:
			s.Current = 1
		}
	}
	if s.Current > s.Max {
		s.Max = s.Current
	}
	s.LastActivity = &now
	return s
}

func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
