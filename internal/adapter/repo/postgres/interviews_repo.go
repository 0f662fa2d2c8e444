package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

// InterviewRepo persists interview sessions with turns and feedback as JSONB.
type InterviewRepo struct{ Pool PgxPool }

var _ domain.InterviewRepository = (*InterviewRepo)(nil)

// NewInterviewRepo constructs an InterviewRepo with the given pool.
func NewInterviewRepo(p PgxPool) *InterviewRepo { return &InterviewRepo{Pool: p} }

const interviewColumns = `id, user_id, domain, difficulty, resume_text, status, turns, feedback, created_at, updated_at, ended_at`

// Create inserts a session and returns its id (generated when empty).
func (r *InterviewRepo) Create(ctx domain.Context, s domain.InterviewSession) (string, error) {
	ctx, span := startSpan(ctx, "interview_sessions", "Create", "INSERT")
	defer span.End()
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.Status == "" {
		s.Status = domain.SessionActive
	}
	now := time.Now().UTC()
	turns, feedback, err := encodeInterview(s)
	if err != nil {
		return "", fmt.Errorf("op=interview.create: %w", err)
	}
	q := `INSERT INTO interview_sessions (id, user_id, domain, difficulty, resume_text, status, schema_version, turns, feedback, created_at, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)`
	_, err = r.Pool.Exec(ctx, q, s.ID, s.UserID, string(s.Domain), s.Difficulty, s.ResumeText, string(s.Status), domain.SchemaVersion, turns, feedback, now)
	if err != nil {
		return "", fmt.Errorf("op=interview.create: %w", err)
	}
	return s.ID, nil
}

// Get loads a session by id.
func (r *InterviewRepo) Get(ctx domain.Context, id string) (domain.InterviewSession, error) {
	ctx, span := startSpan(ctx, "interview_sessions", "Get", "SELECT")
	defer span.End()
	s, err := scanInterview(r.Pool.QueryRow(ctx, `SELECT `+interviewColumns+` FROM interview_sessions WHERE id=$1`, id))
	if err != nil {
		return domain.InterviewSession{}, fmt.Errorf("op=interview.get: %w", err)
	}
	return s, nil
}

// Update runs fn on the row-locked session inside a transaction and writes
// the result back. An error from fn aborts without writing.
func (r *InterviewRepo) Update(ctx domain.Context, id string, fn func(*domain.InterviewSession) error) (domain.InterviewSession, error) {
	ctx, span := startSpan(ctx, "interview_sessions", "Update", "UPDATE")
	defer span.End()

	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.InterviewSession{}, fmt.Errorf("op=interview.update: begin: %w", err)
	}
	defer rollback(ctx, tx)

	s, err := scanInterview(tx.QueryRow(ctx, `SELECT `+interviewColumns+` FROM interview_sessions WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return domain.InterviewSession{}, fmt.Errorf("op=interview.update: %w", err)
	}
	if err := fn(&s); err != nil {
		return domain.InterviewSession{}, err
	}
	s.UpdatedAt = time.Now().UTC()
	turns, feedback, err := encodeInterview(s)
	if err != nil {
		return domain.InterviewSession{}, fmt.Errorf("op=interview.update: %w", err)
	}
	q := `UPDATE interview_sessions SET status=$2, turns=$3, feedback=$4, updated_at=$5, ended_at=$6, schema_version=$7 WHERE id=$1`
	if _, err := tx.Exec(ctx, q, s.ID, string(s.Status), turns, feedback, s.UpdatedAt, s.EndedAt, domain.SchemaVersion); err != nil {
		return domain.InterviewSession{}, fmt.Errorf("op=interview.update: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.InterviewSession{}, fmt.Errorf("op=interview.update: commit: %w", err)
	}
	return s, nil
}

// ListByUser returns a user's sessions, newest first.
func (r *InterviewRepo) ListByUser(ctx domain.Context, userID string, limit, offset int) ([]domain.InterviewSession, error) {
	ctx, span := startSpan(ctx, "interview_sessions", "ListByUser", "SELECT")
	defer span.End()
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.Pool.Query(ctx, `SELECT `+interviewColumns+` FROM interview_sessions WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("op=interview.list: %w", err)
	}
	defer rows.Close()
	out := make([]domain.InterviewSession, 0, limit)
	for rows.Next() {
		s, err := scanInterview(rows)
		if err != nil {
			return nil, fmt.Errorf("op=interview.list: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=interview.list: %w", err)
	}
	return out, nil
}

// Delete removes a session.
func (r *InterviewRepo) Delete(ctx domain.Context, id string) error {
	ctx, span := startSpan(ctx, "interview_sessions", "Delete", "DELETE")
	defer span.End()
	tag, err := r.Pool.Exec(ctx, `DELETE FROM interview_sessions WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("op=interview.delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=interview.delete: %w", domain.ErrNotFound)
	}
	return nil
}

// Stats aggregates a user's sessions and feedback scores.
func (r *InterviewRepo) Stats(ctx domain.Context, userID string) (domain.InterviewStats, error) {
	ctx, span := startSpan(ctx, "interview_sessions", "Stats", "SELECT")
	defer span.End()
	q := `SELECT COUNT(*),
		COUNT(*) FILTER (WHERE status='ended'),
		COUNT(*) FILTER (WHERE status='active'),
		COALESCE(AVG((feedback->>'overall_score')::float8), 0),
		COALESCE(MAX((feedback->>'overall_score')::float8), 0)
	FROM interview_sessions WHERE user_id=$1`
	var st domain.InterviewStats
	if err := r.Pool.QueryRow(ctx, q, userID).Scan(&st.Total, &st.Completed, &st.Active, &st.AverageScore, &st.BestScore); err != nil {
		return domain.InterviewStats{}, fmt.Errorf("op=interview.stats: %w", err)
	}
	return st, nil
}

func encodeInterview(s domain.InterviewSession) (turns, feedback []byte, err error) {
	if s.Turns == nil {
		s.Turns = []domain.InterviewTurn{}
	}
	if turns, err = json.Marshal(s.Turns); err != nil {
		return nil, nil, err
	}
	if s.Feedback != nil {
		if feedback, err = json.Marshal(s.Feedback); err != nil {
			return nil, nil, err
		}
	}
	return turns, feedback, nil
}

func scanInterview(row pgx.Row) (domain.InterviewSession, error) {
	var (
		s               domain.InterviewSession
		dom, status     string
		turns, feedback []byte
		endedAt         *time.Time
	)
	err := row.Scan(&s.ID, &s.UserID, &dom, &s.Difficulty, &s.ResumeText, &status, &turns, &feedback, &s.CreatedAt, &s.UpdatedAt, &endedAt)
	if err != nil {
		if isNoRows(err) {
			return domain.InterviewSession{}, domain.ErrNotFound
		}
		return domain.InterviewSession{}, err
	}
	s.Domain = domain.InterviewDomain(dom)
	s.Status = domain.SessionStatus(status)
	s.EndedAt = endedAt
	if len(turns) > 0 {
		if err := json.Unmarshal(turns, &s.Turns); err != nil {
			return domain.InterviewSession{}, fmt.Errorf("decode turns: %w", err)
		}
	}
	if len(feedback) > 0 && string(feedback) != "null" {
		var fb domain.InterviewFeedback
		if err := json.Unmarshal(feedback, &fb); err != nil {
			return domain.InterviewSession{}, fmt.Errorf("decode feedback: %w", err)
		}
		s.Feedback = &fb
	}
	return s, nil
}
