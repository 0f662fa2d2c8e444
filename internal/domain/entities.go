package domain

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrRateLimited       = errors.New("rate limited")
	ErrUpstreamTimeout   = errors.New("upstream timeout")
	ErrUpstreamRateLimit = errors.New("upstream rate limit")
	ErrSchemaInvalid     = errors.New("schema invalid")
	ErrInternal          = errors.New("internal error")
)

// RateLimitError is returned when a caller exhausted its bucket.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return "rate limited: retry after " + e.RetryAfter.String()
}

// Unwrap lets errors.Is match ErrRateLimited.
func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// SchemaVersion is stamped on every stored JSON document.
const SchemaVersion = 1

// FallbackSessionPrefix marks client-generated placeholder session ids.
const FallbackSessionPrefix = "fallback_"

// WelcomeQuestion opens every interview.
const WelcomeQuestion = "Welcome to the AI interview. Please introduce yourself."

// User mirrors the account owned by the external auth service.
type User struct {
	ID         string
	Name       string
	Email      string
	ResumeText string
}

// InterviewDomain selects the interviewer persona.
type InterviewDomain string

const (
	DomainHR            InterviewDomain = "hr"
	DomainDataScience   InterviewDomain = "data-science"
	DomainWebDev        InterviewDomain = "webdev"
	DomainFullTechnical InterviewDomain = "full-technical"
	DomainGeneral       InterviewDomain = "general"
)

// NormalizeDomain maps loose client labels ("Data Science", "data_science")
// onto a known domain. Unknown labels become DomainGeneral.
func NormalizeDomain(s string) InterviewDomain {
	k := strings.ToLower(strings.TrimSpace(s))
	k = strings.NewReplacer("_", "-", " ", "-").Replace(k)
	switch k {
	case "hr", "behavioral", "behavioural":
		return DomainHR
	case "data-science", "datascience", "ds", "ml":
		return DomainDataScience
	case "webdev", "web-dev", "web-development", "web":
		return DomainWebDev
	case "full-technical", "fulltechnical", "technical", "full-stack", "fullstack":
		return DomainFullTechnical
	default:
		return DomainGeneral
	}
}

// Difficulty levels
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// NormalizeDifficulty lowercases and defaults to medium.
func NormalizeDifficulty(s string) string {
	switch d := strings.ToLower(strings.TrimSpace(s)); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d
	default:
		return DifficultyMedium
	}
}

// SessionStatus of an interview.
type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionEnded  SessionStatus = "ended"
)

// InterviewTurn is one question asked by the interviewer and the
// candidate's answer to it. Answer is empty while the question is pending.
type InterviewTurn struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedbackAreas holds one assessment per rubric area.
type FeedbackAreas struct {
	TechnicalKnowledge  string `json:"technical_knowledge" validate:"required"`
	CommunicationSkills string `json:"communication_skills" validate:"required"`
	Confidence          string `json:"confidence" validate:"required"`
	ProblemSolving      string `json:"problem_solving" validate:"required"`
}

// InterviewFeedback is the scored evaluation of a finished interview.
type InterviewFeedback struct {
	FeedbackAreas
	Suggestions  FeedbackAreas `json:"suggestions"`
	OverallScore float64       `json:"overall_score" validate:"gte=0,lte=100"`
}

// InterviewSession is the persisted state of one mock interview.
// Invariants: Turns is append-only; only the last turn may have an empty Answer.
type InterviewSession struct {
	ID         string
	UserID     string
	Domain     InterviewDomain
	Difficulty string
	ResumeText string
	Status     SessionStatus
	Turns      []InterviewTurn
	Feedback   *InterviewFeedback
	CreatedAt  time.Time
	UpdatedAt  time.Time
	EndedAt    *time.Time
}

// Pending reports whether the last question still awaits an answer.
func (s *InterviewSession) Pending() bool {
	return len(s.Turns) > 0 && s.Turns[len(s.Turns)-1].Answer == ""
}

// AnswerPending fills the pending question with answer. It returns false
// when nothing is pending.
func (s *InterviewSession) AnswerPending(answer string) bool {
	if !s.Pending() {
		return false
	}
	s.Turns[len(s.Turns)-1].Answer = answer
	return true
}

// Ask appends a new pending question.
func (s *InterviewSession) Ask(question string, at time.Time) {
	s.Turns = append(s.Turns, InterviewTurn{Question: question, CreatedAt: at})
}

// Answered returns the turns that carry an answer.
func (s *InterviewSession) Answered() []InterviewTurn {
	out := make([]InterviewTurn, 0, len(s.Turns))
	for _, t := range s.Turns {
		if strings.TrimSpace(t.Answer) != "" {
			out = append(out, t)
		}
	}
	return out
}

// Recent returns at most n of the latest answered turns, oldest first.
func (s *InterviewSession) Recent(n int) []InterviewTurn {
	answered := s.Answered()
	if n <= 0 || len(answered) <= n {
		return answered
	}
	return answered[len(answered)-n:]
}

// Score returns the overall feedback score or nil when no feedback exists.
func (s *InterviewSession) Score() *float64 {
	if s.Feedback == nil {
		return nil
	}
	v := s.Feedback.OverallScore
	return &v
}

// InterviewStats aggregates a user's interview history.
type InterviewStats struct {
	Total        int     `json:"total"`
	Completed    int     `json:"completed"`
	Active       int     `json:"active"`
	AverageScore float64 `json:"average_score"`
	BestScore    float64 `json:"best_score"`
}

// ChatTurn is one study-assistant exchange.
type ChatTurn struct {
	UserQuery string    `json:"user_query"`
	Reply     string    `json:"reply"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatSession is a persisted study-assistant conversation.
type ChatSession struct {
	ID        string
	UserID    string
	Subject   string
	Turns     []ChatTurn
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Recent returns at most n of the latest turns, oldest first.
func (s *ChatSession) Recent(n int) []ChatTurn {
	if n <= 0 || len(s.Turns) <= n {
		return s.Turns
	}
	return s.Turns[len(s.Turns)-n:]
}

// DailyQuestion is one multiple-choice quiz question.
type DailyQuestion struct {
	ID        string
	Subject   string
	Question  string
	Options   [4]string
	Answer    string
	Date      string // YYYY-MM-DD
	CreatedAt time.Time
}

// ResumeReview is the LLM assessment of an uploaded resume.
type ResumeReview struct {
	ID                  string
	UserID              string
	Filename            string
	GrammaticalMistakes string
	Suggestions         string
	ATSScore            float64
	CreatedAt           time.Time
}

// ChatRole of a prompt message.
type ChatRole string

const (
	RoleSystem    ChatRole = "system"
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one prompt message sent to the LLM.
type ChatMessage struct {
	Role    ChatRole
	Content string
}

// Speech is synthesized audio.
type Speech struct {
	Audio       []byte
	ContentType string
}

// Repositories (ports)

type UserRepository interface {
	Get(ctx Context, id string) (User, error)
	UpdateResume(ctx Context, id, text string) error
	GetStreak(ctx Context, id string) (Streak, error)
	// RecordActivity applies Streak.Record under a row lock and returns the result.
	RecordActivity(ctx Context, id string, at time.Time) (Streak, error)
}

type InterviewRepository interface {
	Create(ctx Context, s InterviewSession) (string, error)
	Get(ctx Context, id string) (InterviewSession, error)
	// Update loads the session under a row lock, applies fn and persists the result.
	Update(ctx Context, id string, fn func(*InterviewSession) error) (InterviewSession, error)
	ListByUser(ctx Context, userID string, limit, offset int) ([]InterviewSession, error)
	Delete(ctx Context, id string) error
	Stats(ctx Context, userID string) (InterviewStats, error)
}

type ChatRepository interface {
	Create(ctx Context, s ChatSession) (string, error)
	Get(ctx Context, id string) (ChatSession, error)
	Update(ctx Context, id string, fn func(*ChatSession) error) (ChatSession, error)
	ListByUser(ctx Context, userID string, limit int) ([]ChatSession, error)
	Delete(ctx Context, id string) error
}

type QuestionRepository interface {
	InsertMany(ctx Context, qs []DailyQuestion) (int, error)
	ListByDate(ctx Context, date, subject string) ([]DailyQuestion, error)
	ListBySubject(ctx Context, subject string, limit int) ([]DailyQuestion, error)
	RecentTexts(ctx Context, subject string, limit int) ([]string, error)
	// GetMany returns the questions found for ids in no particular order.
	GetMany(ctx Context, ids []string) ([]DailyQuestion, error)
}

type QuizRepository interface {
	Create(ctx Context, a QuizAttempt) (string, error)
	// ListByUser returns attempts newest first. An empty subject matches all.
	ListByUser(ctx Context, userID, subject string, limit int) ([]QuizAttempt, error)
	Stats(ctx Context, userID string) (QuizStats, error)
}

type ResumeRepository interface {
	Create(ctx Context, r ResumeReview) (string, error)
	LatestByUser(ctx Context, userID string) (ResumeReview, error)
}

// AIClient (port)

type AIClient interface {
	// Chat returns the raw completion text for messages.
	Chat(ctx Context, messages []ChatMessage) (string, error)
}

// AudioClient (port)

type AudioClient interface {
	Transcribe(ctx Context, filename, contentType string, data []byte) (string, error)
	Speak(ctx Context, text, voice string) (Speech, error)
}

// TextExtractor (port)
// Extract converts an uploaded document to plain text.
type TextExtractor interface {
	Extract(ctx Context, fileName string, data []byte) (string, error)
}

// RateLimiter (port)
// Allow consumes one token from the bucket for key.
type RateLimiter interface {
	Allow(ctx Context, family, key string) (allowed bool, retryAfter time.Duration, err error)
}

// Context is an alias to allow decoupling from std context in domain.
// Adapters and usecases pass context.Context through.
type Context = context.Context
