package usecase

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
	"github.com/fairyhunter13/ai-interview-coach/internal/observability"
	"github.com/fairyhunter13/ai-interview-coach/pkg/llmjson"
)

const (
	// QuestionsPerSubject is how many questions one generation asks for.
	QuestionsPerSubject  = 10
	recentQuestionWindow = 30
)

// QuestionService generates and serves the daily multiple-choice quiz.
type QuestionService struct {
	Questions domain.QuestionRepository
	AI        domain.AIClient

	now func() time.Time
}

// NewQuestionService constructs a QuestionService.
func NewQuestionService(repo domain.QuestionRepository, ai domain.AIClient) *QuestionService {
	return &QuestionService{Questions: repo, AI: ai, now: nowUTC}
}

// GenerateResult summarises one generation run.
type GenerateResult struct {
	Date      string                 `json:"date"`
	Generated int                    `json:"generated"`
	Inserted  int                    `json:"inserted"`
	Questions []domain.DailyQuestion `json:"questions"`
}

type questionRecord struct {
	Question string `json:"question"`
	Option1  string `json:"option1"`
	Option2  string `json:"option2"`
	Option3  string `json:"option3"`
	Option4  string `json:"option4"`
	Answer   string `json:"answer"`
}

// Generate asks the model for a fresh batch per subject and stores the
// valid questions. A subject that fails is logged and skipped.
func (s *QuestionService) Generate(ctx domain.Context, subjects []string) (GenerateResult, error) {
	lg := observability.LoggerFromContext(ctx)
	res := GenerateResult{Date: s.now().Format(time.DateOnly)}
	var lastErr error
	for _, subject := range subjects {
		subject = strings.TrimSpace(subject)
		if subject == "" {
			continue
		}
		qs, err := s.generateFor(ctx, subject, res.Date)
		if err != nil {
			lg.Error("daily question generation failed", slog.String("subject", subject), slog.Any("error", err))
			lastErr = err
			continue
		}
		n, err := s.Questions.InsertMany(ctx, qs)
		if err != nil {
			return res, fmt.Errorf("op=questions.generate: %w", err)
		}
		res.Generated += len(qs)
		res.Inserted += n
		res.Questions = append(res.Questions, qs...)
	}
	if res.Generated == 0 {
		if lastErr != nil {
			return res, fmt.Errorf("op=questions.generate: %w", lastErr)
		}
		return res, fmt.Errorf("op=questions.generate: %w: no daily questions generated", domain.ErrSchemaInvalid)
	}
	lg.Info("daily questions generated", slog.Int("generated", res.Generated), slog.Int("inserted", res.Inserted))
	return res, nil
}

func (s *QuestionService) generateFor(ctx domain.Context, subject, date string) ([]domain.DailyQuestion, error) {
	recent, err := s.Questions.RecentTexts(ctx, subject, recentQuestionWindow)
	if err != nil {
		return nil, err
	}
	out, err := s.AI.Chat(ctx, []domain.ChatMessage{
		{Role: domain.RoleUser, Content: dailyQuestionsPrompt(subject, recent, QuestionsPerSubject)},
	})
	if err != nil {
		return nil, err
	}
	ex := extract("daily_questions", out)

	seen := make(map[string]struct{}, len(recent)+len(ex.Records))
	for _, q := range recent {
		seen[normalizeQuestion(q)] = struct{}{}
	}
	qs := make([]domain.DailyQuestion, 0, len(ex.Records))
	invalid := 0
	for _, rec := range ex.Records {
		if validateRecord(questionSchema, rec) != nil {
			invalid++
			continue
		}
		var qr questionRecord
		if llmjson.Decode(rec, &qr) != nil {
			invalid++
			continue
		}
		q := domain.DailyQuestion{
			Subject:  subject,
			Question: strings.TrimSpace(qr.Question),
			Options:  [4]string{qr.Option1, qr.Option2, qr.Option3, qr.Option4},
			Answer:   qr.Answer,
			Date:     date,
		}
		correct := q.CorrectOption()
		if correct < 0 {
			invalid++
			continue
		}
		q.Answer = domain.OptionKey(correct)
		key := normalizeQuestion(qr.Question)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		qs = append(qs, q)
	}
	if invalid > 0 {
		observability.LoggerFromContext(ctx).Warn("dropped invalid daily questions",
			slog.String("subject", subject), slog.Int("invalid", invalid))
	}
	if len(qs) == 0 {
		return nil, fmt.Errorf("%w: no daily questions generated for %s", domain.ErrSchemaInvalid, subject)
	}
	return qs, nil
}

// Today returns today's questions, optionally for one subject.
func (s *QuestionService) Today(ctx domain.Context, subject string) ([]domain.DailyQuestion, error) {
	out, err := s.Questions.ListByDate(ctx, s.now().Format(time.DateOnly), strings.TrimSpace(subject))
	if err != nil {
		return nil, fmt.Errorf("op=questions.today: %w", err)
	}
	return out, nil
}

// BySubject returns the newest questions for subject.
func (s *QuestionService) BySubject(ctx domain.Context, subject string, limit int) ([]domain.DailyQuestion, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, fmt.Errorf("op=questions.by_subject: %w: subject required", domain.ErrInvalidArgument)
	}
	out, err := s.Questions.ListBySubject(ctx, subject, limit)
	if err != nil {
		return nil, fmt.Errorf("op=questions.by_subject: %w", err)
	}
	return out, nil
}

func normalizeQuestion(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}
