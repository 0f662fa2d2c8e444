package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	obs "github.com/fairyhunter13/ai-interview-coach/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
	"github.com/fairyhunter13/ai-interview-coach/internal/observability"
	"github.com/fairyhunter13/ai-interview-coach/internal/service/ratelimiter"
	"github.com/fairyhunter13/ai-interview-coach/pkg/llmjson"
	"github.com/fairyhunter13/ai-interview-coach/pkg/textx"
)

// RecentInterviewsLimit is how many sessions Recent returns.
const RecentInterviewsLimit = 5

// InterviewService runs mock interviews and scores them.
type InterviewService struct {
	Interviews domain.InterviewRepository
	AI         domain.AIClient
	Limiter    domain.RateLimiter
	Policy     HistoryPolicy

	validate *validator.Validate
	now      func() time.Time
}

// NewInterviewService constructs an InterviewService.
func NewInterviewService(repo domain.InterviewRepository, ai domain.AIClient, lim domain.RateLimiter, history HistoryPolicy) *InterviewService {
	return &InterviewService{
		Interviews: repo,
		AI:         ai,
		Limiter:    lim,
		Policy:     history,
		validate:   validator.New(),
		now:        nowUTC,
	}
}

// StartInterviewInput opens a session. UserResponse answers the welcome question.
type StartInterviewInput struct {
	Domain       string
	Difficulty   string
	UserResponse string
	ResumeText   string
}

// RespondInput continues a session. Domain and Difficulty are used only when
// SessionID is a client placeholder and a new session has to be started.
type RespondInput struct {
	SessionID  string
	Answer     string
	Domain     string
	Difficulty string
}

// TurnResult is the next interviewer question.
type TurnResult struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
	Started   bool   `json:"started"`
}

// Start creates a session and asks the first real question.
func (s *InterviewService) Start(ctx domain.Context, user domain.User, in StartInterviewInput) (TurnResult, error) {
	answer := strings.TrimSpace(in.UserResponse)
	if answer == "" {
		return TurnResult{}, fmt.Errorf("op=interview.start: %w: user_response required", domain.ErrInvalidArgument)
	}
	if err := throttle(ctx, s.Limiter, ratelimiter.FamilyInterview, user.ID); err != nil {
		return TurnResult{}, fmt.Errorf("op=interview.start: %w", err)
	}
	resume := strings.TrimSpace(in.ResumeText)
	if resume == "" {
		resume = strings.TrimSpace(user.ResumeText)
	}
	resume = textx.Truncate(resume, maxPromptResumeRunes)
	now := s.now()
	sess := domain.InterviewSession{
		UserID:     user.ID,
		Domain:     domain.NormalizeDomain(in.Domain),
		Difficulty: domain.NormalizeDifficulty(in.Difficulty),
		ResumeText: resume,
		Status:     domain.SessionActive,
		Turns:      []domain.InterviewTurn{{Question: domain.WelcomeQuestion, Answer: answer, CreatedAt: now}},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	question, err := s.nextQuestion(ctx, user, sess, answer)
	if err != nil {
		return TurnResult{}, fmt.Errorf("op=interview.start: %w", err)
	}
	sess.Ask(question, s.now())
	id, err := s.Interviews.Create(ctx, sess)
	if err != nil {
		return TurnResult{}, fmt.Errorf("op=interview.start: %w", err)
	}
	obs.InterviewStarted(string(sess.Domain))
	observability.LoggerFromContext(ctx).Info("interview started",
		"session_id", id, "domain", sess.Domain, "difficulty", sess.Difficulty, "resume_based", resume != "")
	return TurnResult{SessionID: id, Question: question, Started: true}, nil
}

// Respond records the answer to the pending question and asks the next one.
// A placeholder session id starts a new session with the answer as the
// introduction.
func (s *InterviewService) Respond(ctx domain.Context, user domain.User, in RespondInput) (TurnResult, error) {
	if in.SessionID == "" || isFallbackID(in.SessionID) {
		return s.Start(ctx, user, StartInterviewInput{Domain: in.Domain, Difficulty: in.Difficulty, UserResponse: in.Answer})
	}
	if err := parseSessionID(in.SessionID); err != nil {
		return TurnResult{}, fmt.Errorf("op=interview.respond: %w", err)
	}
	answer := strings.TrimSpace(in.Answer)
	if answer == "" {
		return TurnResult{}, fmt.Errorf("op=interview.respond: %w: answer required", domain.ErrInvalidArgument)
	}
	sess, err := s.owned(ctx, "interview.respond", user.ID, in.SessionID)
	if err != nil {
		return TurnResult{}, err
	}
	if err := checkActive(sess); err != nil {
		return TurnResult{}, fmt.Errorf("op=interview.respond: %w", err)
	}
	if err := throttle(ctx, s.Limiter, ratelimiter.FamilyInterview, user.ID); err != nil {
		return TurnResult{}, fmt.Errorf("op=interview.respond: %w", err)
	}

	// The model sees the answer in context before it is stored.
	preview := sess
	preview.Turns = append([]domain.InterviewTurn(nil), sess.Turns...)
	preview.AnswerPending(answer)
	question, err := s.nextQuestion(ctx, user, preview, answer)
	if err != nil {
		return TurnResult{}, fmt.Errorf("op=interview.respond: %w", err)
	}

	_, err = s.Interviews.Update(ctx, in.SessionID, func(cur *domain.InterviewSession) error {
		if err := checkActive(*cur); err != nil {
			return err
		}
		if !cur.AnswerPending(answer) {
			return fmt.Errorf("%w: question already answered", domain.ErrConflict)
		}
		cur.Ask(question, s.now())
		return nil
	})
	if err != nil {
		return TurnResult{}, fmt.Errorf("op=interview.respond: %w", err)
	}
	return TurnResult{SessionID: in.SessionID, Question: question}, nil
}

func (s *InterviewService) nextQuestion(ctx domain.Context, user domain.User, sess domain.InterviewSession, answer string) (string, error) {
	history := s.Policy.render(renderInterviewHistory(sess.Recent(s.Policy.Turns)))
	msgs := []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: interviewerPrompt(sess.Domain, sess.Difficulty, user.Name, sess.ResumeText, history)},
		{Role: domain.RoleUser, Content: answer},
	}
	out, err := s.AI.Chat(ctx, msgs)
	if err != nil {
		return "", err
	}
	return completionText("interview.question", out)
}

// Get returns the caller's session.
func (s *InterviewService) Get(ctx domain.Context, user domain.User, id string) (domain.InterviewSession, error) {
	if err := parseSessionID(id); err != nil {
		return domain.InterviewSession{}, fmt.Errorf("op=interview.get: %w", err)
	}
	return s.owned(ctx, "interview.get", user.ID, id)
}

// Conversation returns the session's turns in order.
func (s *InterviewService) Conversation(ctx domain.Context, user domain.User, id string) ([]domain.InterviewTurn, error) {
	sess, err := s.Get(ctx, user, id)
	if err != nil {
		return nil, err
	}
	if sess.Turns == nil {
		return []domain.InterviewTurn{}, nil
	}
	return sess.Turns, nil
}

// List returns the caller's sessions, newest first.
func (s *InterviewService) List(ctx domain.Context, user domain.User, limit, offset int) ([]domain.InterviewSession, error) {
	out, err := s.Interviews.ListByUser(ctx, user.ID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("op=interview.list: %w", err)
	}
	return out, nil
}

// Recent returns the caller's latest few sessions.
func (s *InterviewService) Recent(ctx domain.Context, user domain.User) ([]domain.InterviewSession, error) {
	return s.List(ctx, user, RecentInterviewsLimit, 0)
}

// Delete removes the caller's session.
func (s *InterviewService) Delete(ctx domain.Context, user domain.User, id string) error {
	if err := parseSessionID(id); err != nil {
		return fmt.Errorf("op=interview.delete: %w", err)
	}
	if _, err := s.owned(ctx, "interview.delete", user.ID, id); err != nil {
		return err
	}
	if err := s.Interviews.Delete(ctx, id); err != nil {
		return fmt.Errorf("op=interview.delete: %w", err)
	}
	return nil
}

// Stats aggregates the caller's interview history.
func (s *InterviewService) Stats(ctx domain.Context, user domain.User) (domain.InterviewStats, error) {
	st, err := s.Interviews.Stats(ctx, user.ID)
	if err != nil {
		return domain.InterviewStats{}, fmt.Errorf("op=interview.stats: %w", err)
	}
	return st, nil
}

// Feedback returns the stored feedback, generating it first when absent.
func (s *InterviewService) Feedback(ctx domain.Context, user domain.User, id string) (domain.InterviewFeedback, error) {
	sess, err := s.Get(ctx, user, id)
	if err != nil {
		return domain.InterviewFeedback{}, err
	}
	if sess.Feedback != nil {
		return *sess.Feedback, nil
	}
	fb, err := s.generateFeedback(ctx, user, sess)
	if err != nil {
		return domain.InterviewFeedback{}, err
	}
	stored, err := s.Interviews.Update(ctx, id, func(cur *domain.InterviewSession) error {
		if cur.Feedback == nil {
			cur.Feedback = &fb
		}
		return nil
	})
	if err != nil {
		return domain.InterviewFeedback{}, fmt.Errorf("op=interview.feedback: %w", err)
	}
	return *stored.Feedback, nil
}

// End closes the session and stores feedback if there is none yet.
// Ending an already ended session is a no-op.
func (s *InterviewService) End(ctx domain.Context, user domain.User, id string) (domain.InterviewSession, error) {
	sess, err := s.Get(ctx, user, id)
	if err != nil {
		return domain.InterviewSession{}, err
	}
	if sess.Status == domain.SessionEnded && sess.Feedback != nil {
		return sess, nil
	}

	var fb *domain.InterviewFeedback
	if sess.Feedback == nil && len(sess.Answered()) > 0 {
		generated, err := s.generateFeedback(ctx, user, sess)
		if err != nil {
			return domain.InterviewSession{}, err
		}
		fb = &generated
	}

	justEnded := false
	out, err := s.Interviews.Update(ctx, id, func(cur *domain.InterviewSession) error {
		if cur.Status != domain.SessionEnded {
			at := s.now()
			cur.Status = domain.SessionEnded
			cur.EndedAt = &at
			justEnded = true
		}
		if cur.Feedback == nil && fb != nil {
			cur.Feedback = fb
		}
		return nil
	})
	if err != nil {
		return domain.InterviewSession{}, fmt.Errorf("op=interview.end: %w", err)
	}
	if justEnded {
		obs.InterviewCompleted(string(out.Domain), out.Score())
		observability.LoggerFromContext(ctx).Info("interview ended",
			"session_id", id, "turns", len(out.Turns), "has_feedback", out.Feedback != nil)
	}
	return out, nil
}

// UpdateFeedback replaces the stored feedback with a user-edited version.
func (s *InterviewService) UpdateFeedback(ctx domain.Context, user domain.User, id string, fb domain.InterviewFeedback) (domain.InterviewFeedback, error) {
	if err := s.validate.Struct(fb); err != nil {
		return domain.InterviewFeedback{}, fmt.Errorf("op=interview.update_feedback: %w: %v", domain.ErrInvalidArgument, err)
	}
	if _, err := s.Get(ctx, user, id); err != nil {
		return domain.InterviewFeedback{}, err
	}
	out, err := s.Interviews.Update(ctx, id, func(cur *domain.InterviewSession) error {
		cur.Feedback = &fb
		return nil
	})
	if err != nil {
		return domain.InterviewFeedback{}, fmt.Errorf("op=interview.update_feedback: %w", err)
	}
	return *out.Feedback, nil
}

// feedbackRecord is the shape the feedback prompt asks for.
type feedbackRecord struct {
	Feedback struct {
		domain.FeedbackAreas
		Suggestions domain.FeedbackAreas `json:"suggestions"`
	} `json:"feedback"`
	OverallScore float64 `json:"overall_score"`
}

func (s *InterviewService) generateFeedback(ctx domain.Context, user domain.User, sess domain.InterviewSession) (domain.InterviewFeedback, error) {
	answered := sess.Answered()
	if len(answered) == 0 {
		return domain.InterviewFeedback{}, fmt.Errorf("op=interview.feedback: %w: no interview questions found", domain.ErrNotFound)
	}
	if err := throttle(ctx, s.Limiter, ratelimiter.FamilyInterview, user.ID); err != nil {
		return domain.InterviewFeedback{}, fmt.Errorf("op=interview.feedback: %w", err)
	}
	msgs := []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: feedbackSystemPrompt},
		{Role: domain.RoleUser, Content: feedbackPrompt(sess.Domain, sess.Difficulty, transcript(answered))},
	}
	out, err := s.AI.Chat(ctx, msgs)
	if err != nil {
		return domain.InterviewFeedback{}, fmt.Errorf("op=interview.feedback: %w", err)
	}
	ex := extract("feedback", out)
	if !ex.Found() {
		return domain.InterviewFeedback{}, fmt.Errorf("op=interview.feedback: %w: no feedback object in completion", domain.ErrSchemaInvalid)
	}
	rec := ex.Records[0]
	if err := validateRecord(feedbackSchema, rec); err != nil {
		return domain.InterviewFeedback{}, fmt.Errorf("op=interview.feedback: %w: %v", domain.ErrSchemaInvalid, err)
	}
	var fr feedbackRecord
	if err := llmjson.Decode(rec, &fr); err != nil {
		return domain.InterviewFeedback{}, fmt.Errorf("op=interview.feedback: %w: %v", domain.ErrSchemaInvalid, err)
	}
	return domain.InterviewFeedback{
		FeedbackAreas: fr.Feedback.FeedbackAreas,
		Suggestions:   fr.Feedback.Suggestions,
		OverallScore:  clampScore(fr.OverallScore),
	}, nil
}

func (s *InterviewService) owned(ctx domain.Context, op, userID, id string) (domain.InterviewSession, error) {
	sess, err := s.Interviews.Get(ctx, id)
	if err != nil {
		return domain.InterviewSession{}, fmt.Errorf("op=%s: %w", op, err)
	}
	if err := notOwned(op, sess.UserID, userID); err != nil {
		return domain.InterviewSession{}, err
	}
	return sess, nil
}

func checkActive(s domain.InterviewSession) error {
	if s.Status == domain.SessionEnded {
		return fmt.Errorf("%w: interview has ended", domain.ErrConflict)
	}
	return nil
}
