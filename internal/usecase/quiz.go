package usecase

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	obs "github.com/fairyhunter13/ai-interview-coach/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
	"github.com/fairyhunter13/ai-interview-coach/internal/observability"
)

// MaxQuizAnswers caps one submission.
const MaxQuizAnswers = 50

// QuizService grades daily quiz submissions and tracks activity streaks.
type QuizService struct {
	Questions domain.QuestionRepository
	Quizzes   domain.QuizRepository
	Users     domain.UserRepository

	now func() time.Time
}

// NewQuizService constructs a QuizService.
func NewQuizService(questions domain.QuestionRepository, quizzes domain.QuizRepository, users domain.UserRepository) *QuizService {
	return &QuizService{Questions: questions, Quizzes: quizzes, Users: users, now: nowUTC}
}

// SubmitQuizInput is one quiz submission.
type SubmitQuizInput struct {
	Subject          string
	Answers          []domain.QuizAnswer
	TimeTakenSeconds int
}

// SubmitResult is the graded attempt and the streak after it.
type SubmitResult struct {
	Attempt domain.QuizAttempt
	Streak  domain.Streak
}

// Submit grades the answers against the stored questions, keeps the attempt
// as history and advances the user's streak. Unknown question ids count as
// wrong answers.
func (s *QuizService) Submit(ctx domain.Context, user domain.User, in SubmitQuizInput) (SubmitResult, error) {
	subject := strings.TrimSpace(in.Subject)
	if err := validateSubmission(subject, in.Answers); err != nil {
		return SubmitResult{}, fmt.Errorf("op=quiz.submit: %w", err)
	}
	ids := make([]string, len(in.Answers))
	for i, a := range in.Answers {
		ids[i] = a.QuestionID
	}
	qs, err := s.Questions.GetMany(ctx, ids)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("op=quiz.submit: %w", err)
	}
	byID := make(map[string]domain.DailyQuestion, len(qs))
	for _, q := range qs {
		byID[q.ID] = q
	}

	att := domain.QuizAttempt{
		UserID:           user.ID,
		Subject:          subject,
		TotalQuestions:   len(in.Answers),
		TimeTakenSeconds: max(in.TimeTakenSeconds, 0),
		Results:          make([]domain.QuizResultItem, 0, len(in.Answers)),
		CreatedAt:        s.now(),
	}
	for _, a := range in.Answers {
		item := domain.QuizResultItem{QuestionID: a.QuestionID, SelectedOption: a.SelectedOption, CorrectOption: -1}
		if q, ok := byID[a.QuestionID]; ok {
			item.Question = q.Question
			item.SelectedText = q.Options[a.SelectedOption]
			item.CorrectOption = q.CorrectOption()
			if item.CorrectOption >= 0 {
				item.CorrectText = q.Options[item.CorrectOption]
			}
			item.IsCorrect = item.CorrectOption == a.SelectedOption
		}
		if item.IsCorrect {
			att.CorrectAnswers++
		}
		att.Results = append(att.Results, item)
	}
	att.Score = int(math.Round(float64(att.CorrectAnswers) / float64(att.TotalQuestions) * 100))
	att.Grade, att.Performance = domain.QuizGrade(att.Score)

	id, err := s.Quizzes.Create(ctx, att)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("op=quiz.submit: %w", err)
	}
	att.ID = id
	obs.QuizSubmitted(subject, att.Grade)

	lg := observability.LoggerFromContext(ctx)
	res := SubmitResult{Attempt: att}
	if st, err := s.Users.RecordActivity(ctx, user.ID, att.CreatedAt); err != nil {
		lg.Warn("failed to update streak", slog.String("user_id", user.ID), slog.Any("error", err))
	} else {
		res.Streak = st
	}
	lg.Info("quiz graded", slog.String("attempt_id", id), slog.String("subject", subject),
		slog.Int("score", att.Score), slog.Int("total", att.TotalQuestions))
	return res, nil
}

func validateSubmission(subject string, answers []domain.QuizAnswer) error {
	if subject == "" {
		return fmt.Errorf("%w: subject required", domain.ErrInvalidArgument)
	}
	if len(answers) == 0 {
		return fmt.Errorf("%w: answers required", domain.ErrInvalidArgument)
	}
	if len(answers) > MaxQuizAnswers {
		return fmt.Errorf("%w: at most %d answers", domain.ErrInvalidArgument, MaxQuizAnswers)
	}
	seen := make(map[string]struct{}, len(answers))
	for _, a := range answers {
		if strings.TrimSpace(a.QuestionID) == "" {
			return fmt.Errorf("%w: question_id required", domain.ErrInvalidArgument)
		}
		if a.SelectedOption < 0 || a.SelectedOption >= domain.QuizOptionCount {
			return fmt.Errorf("%w: selected_option must be 0..%d", domain.ErrInvalidArgument, domain.QuizOptionCount-1)
		}
		if _, dup := seen[a.QuestionID]; dup {
			return fmt.Errorf("%w: duplicate answer for %s", domain.ErrInvalidArgument, a.QuestionID)
		}
		seen[a.QuestionID] = struct{}{}
	}
	return nil
}

// History lists the user's attempts newest first.
func (s *QuizService) History(ctx domain.Context, user domain.User, subject string, limit int) ([]domain.QuizAttempt, error) {
	out, err := s.Quizzes.ListByUser(ctx, user.ID, strings.TrimSpace(subject), limit)
	if err != nil {
		return nil, fmt.Errorf("op=quiz.history: %w", err)
	}
	return out, nil
}

// Stats aggregates the user's quiz history.
func (s *QuizService) Stats(ctx domain.Context, user domain.User) (domain.QuizStats, error) {
	st, err := s.Quizzes.Stats(ctx, user.ID)
	if err != nil {
		return domain.QuizStats{}, fmt.Errorf("op=quiz.stats: %w", err)
	}
	return st, nil
}

// Streak returns the user's activity streak.
func (s *QuizService) Streak(ctx domain.Context, user domain.User) (domain.Streak, error) {
	st, err := s.Users.GetStreak(ctx, user.ID)
	if err != nil {
		return domain.Streak{}, fmt.Errorf("op=quiz.streak: %w", err)
	}
	return st, nil
}

// RecordActivity marks the user active now.
func (s *QuizService) RecordActivity(ctx domain.Context, user domain.User) (domain.Streak, error) {
	st, err := s.Users.RecordActivity(ctx, user.ID, s.now())
	if err != nil {
		return domain.Streak{}, fmt.Errorf("op=quiz.record_activity: %w", err)
	}
	return st, nil
}
