package postgres

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

// QuestionRepo stores generated daily quiz questions.
type QuestionRepo struct{ Pool PgxPool }

var _ domain.QuestionRepository = (*QuestionRepo)(nil)

// NewQuestionRepo constructs a QuestionRepo with the given pool.
func NewQuestionRepo(p PgxPool) *QuestionRepo { return &QuestionRepo{Pool: p} }

const questionColumns = `id, subject, question, option1, option2, option3, option4, answer, to_char(qdate, 'YYYY-MM-DD'), created_at`

// InsertMany inserts questions in one transaction, skipping any whose text
// already exists for the subject. It returns the number inserted.
func (r *QuestionRepo) InsertMany(ctx domain.Context, qs []domain.DailyQuestion) (int, error) {
	ctx, span := startSpan(ctx, "daily_questions", "InsertMany", "INSERT")
	defer span.End()
	if len(qs) == 0 {
		return 0, nil
	}
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("op=question.insert_many: begin: %w", err)
	}
	defer rollback(ctx, tx)

	now := time.Now().UTC()
	q := `INSERT INTO daily_questions (id, subject, question, option1, option2, option3, option4, answer, qdate, created_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9::date,$10) ON CONFLICT (subject, question) DO NOTHING`
	inserted := 0
	for _, dq := range qs {
		id := dq.ID
		if id == "" {
			id = uuid.New().String()
		}
		tag, err := tx.Exec(ctx, q, id, dq.Subject, dq.Question, dq.Options[0], dq.Options[1], dq.Options[2], dq.Options[3], dq.Answer, dq.Date, now)
		if err != nil {
			return 0, fmt.Errorf("op=question.insert_many: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("op=question.insert_many: commit: %w", err)
	}
	return inserted, nil
}

// ListByDate returns the questions generated on date (YYYY-MM-DD). An empty
// subject matches all subjects.
func (r *QuestionRepo) ListByDate(ctx domain.Context, date, subject string) ([]domain.DailyQuestion, error) {
	ctx, span := startSpan(ctx, "daily_questions", "ListByDate", "SELECT")
	defer span.End()
	rows, err := r.Pool.Query(ctx, `SELECT `+questionColumns+` FROM daily_questions
	WHERE qdate=$1::date AND ($2 = '' OR subject=$2) ORDER BY created_at, id`, date, subject)
	if err != nil {
		return nil, fmt.Errorf("op=question.list_by_date: %w", err)
	}
	return collectQuestions(rows, "op=question.list_by_date")
}

// ListBySubject returns the newest questions for subject.
func (r *QuestionRepo) ListBySubject(ctx domain.Context, subject string, limit int) ([]domain.DailyQuestion, error) {
	ctx, span := startSpan(ctx, "daily_questions", "ListBySubject", "SELECT")
	defer span.End()
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.Pool.Query(ctx, `SELECT `+questionColumns+` FROM daily_questions
	WHERE subject=$1 ORDER BY qdate DESC, created_at DESC LIMIT $2`, subject, limit)
	if err != nil {
		return nil, fmt.Errorf("op=question.list_by_subject: %w", err)
	}
	return collectQuestions(rows, "op=question.list_by_subject")
}

// RecentTexts returns the text of the newest questions for subject so the
// generator can avoid repeating them.
func (r *QuestionRepo) RecentTexts(ctx domain.Context, subject string, limit int) ([]string, error) {
	ctx, span := startSpan(ctx, "daily_questions", "RecentTexts", "SELECT")
	defer span.End()
	rows, err := r.Pool.Query(ctx, `SELECT question FROM daily_questions WHERE subject=$1 ORDER BY created_at DESC LIMIT $2`, subject, limit)
	if err != nil {
		return nil, fmt.Errorf("op=question.recent_texts: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("op=question.recent_texts: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=question.recent_texts: %w", err)
	}
	return out, nil
}

// GetMany loads the questions with the given ids.
func (r *QuestionRepo) GetMany(ctx domain.Context, ids []string) ([]domain.DailyQuestion, error) {
	ctx, span := startSpan(ctx, "daily_questions", "GetMany", "SELECT")
	defer span.End()
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.Pool.Query(ctx, `SELECT `+questionColumns+` FROM daily_questions WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("op=question.get_many: %w", err)
	}
	return collectQuestions(rows, "op=question.get_many")
}

func collectQuestions(rows pgx.Rows, op string) ([]domain.DailyQuestion, error) {
	defer rows.Close()
	var out []domain.DailyQuestion
	for rows.Next() {
		var q domain.DailyQuestion
		if err := rows.Scan(&q.ID, &q.Subject, &q.Question, &q.Options[0], &q.Options[1], &q.Options[2], &q.Options[3], &q.Answer, &q.Date, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}
