package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

// QuizRepo stores graded quiz attempts with per-answer results as JSONB.
type QuizRepo struct{ Pool PgxPool }

var _ domain.QuizRepository = (*QuizRepo)(nil)

// NewQuizRepo constructs a QuizRepo with the given pool.
func NewQuizRepo(p PgxPool) *QuizRepo { return &QuizRepo{Pool: p} }

const (
	quizColumns      = `id, user_id, subject, score, correct_answers, total_questions, grade, performance, time_taken_seconds, results, created_at`
	defaultQuizLimit = 20
)

// Create inserts an attempt and returns its id (generated when empty).
func (r *QuizRepo) Create(ctx domain.Context, a domain.QuizAttempt) (string, error) {
	ctx, span := startSpan(ctx, "quiz_attempts", "Create", "INSERT")
	defer span.End()
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	results, err := json.Marshal(a.Results)
	if err != nil {
		return "", fmt.Errorf("op=quiz.create: encode results: %w", err)
	}
	q := `INSERT INTO quiz_attempts (id, user_id, subject, score, correct_answers, total_questions, grade, performance, time_taken_seconds, schema_version, results, created_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`
	_, err = r.Pool.Exec(ctx, q, a.ID, a.UserID, a.Subject, a.Score, a.CorrectAnswers, a.TotalQuestions,
		a.Grade, a.Performance, a.TimeTakenSeconds, domain.SchemaVersion, results, a.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("op=quiz.create: %w", err)
	}
	return a.ID, nil
}

// ListByUser returns the user's attempts newest first, optionally for one subject.
func (r *QuizRepo) ListByUser(ctx domain.Context, userID, subject string, limit int) ([]domain.QuizAttempt, error) {
	ctx, span := startSpan(ctx, "quiz_attempts", "ListByUser", "SELECT")
	defer span.End()
	if limit <= 0 {
		limit = defaultQuizLimit
	}
	q := `SELECT ` + quizColumns + ` FROM quiz_attempts
	WHERE user_id=$1 AND ($2 = '' OR subject=$2) ORDER BY created_at DESC LIMIT $3`
	rows, err := r.Pool.Query(ctx, q, userID, subject, limit)
	if err != nil {
		return nil, fmt.Errorf("op=quiz.list: %w", err)
	}
	defer rows.Close()
	var out []domain.QuizAttempt
	for rows.Next() {
		a, err := scanQuiz(rows)
		if err != nil {
			return nil, fmt.Errorf("op=quiz.list: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=quiz.list: %w", err)
	}
	return out, nil
}

// Stats aggregates the user's attempts overall and per subject.
func (r *QuizRepo) Stats(ctx domain.Context, userID string) (domain.QuizStats, error) {
	ctx, span := startSpan(ctx, "quiz_attempts", "Stats", "SELECT")
	defer span.End()
	st := domain.QuizStats{Subjects: []domain.SubjectQuizStats{}}
	q := `SELECT COUNT(*), COALESCE(AVG(score),0)::float8, COALESCE(MAX(score),0),
	COALESCE(SUM(correct_answers),0), COALESCE(SUM(total_questions),0)
	FROM quiz_attempts WHERE user_id=$1`
	err := r.Pool.QueryRow(ctx, q, userID).Scan(&st.TotalQuizzes, &st.AverageScore, &st.BestScore, &st.TotalCorrect, &st.TotalQuestions)
	if err != nil {
		return domain.QuizStats{}, fmt.Errorf("op=quiz.stats: %w", err)
	}
	if st.TotalQuizzes == 0 {
		return st, nil
	}
	rows, err := r.Pool.Query(ctx, `SELECT subject, COUNT(*), AVG(score)::float8, MAX(score)
	FROM quiz_attempts WHERE user_id=$1 GROUP BY subject ORDER BY subject`, userID)
	if err != nil {
		return domain.QuizStats{}, fmt.Errorf("op=quiz.stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s domain.SubjectQuizStats
		if err := rows.Scan(&s.Subject, &s.Quizzes, &s.AverageScore, &s.BestScore); err != nil {
			return domain.QuizStats{}, fmt.Errorf("op=quiz.stats: %w", err)
		}
		st.Subjects = append(st.Subjects, s)
	}
	if err := rows.Err(); err != nil {
		return domain.QuizStats{}, fmt.Errorf("op=quiz.stats: %w", err)
	}
	return st, nil
}

func scanQuiz(row pgx.Row) (domain.QuizAttempt, error) {
	var (
		a       domain.QuizAttempt
		results []byte
	)
	err := row.Scan(&a.ID, &a.UserID, &a.Subject, &a.Score, &a.CorrectAnswers, &a.TotalQuestions,
		&a.Grade, &a.Performance, &a.TimeTakenSeconds, &results, &a.CreatedAt)
	if err != nil {
		return domain.QuizAttempt{}, err
	}
	if len(results) > 0 {
		if err := json.Unmarshal(results, &a.Results); err != nil {
			return domain.QuizAttempt{}, fmt.Errorf("decode results: %w", err)
		}
	}
	return a, nil
}
