package postgres

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

// UserRepo reads the user mirror maintained by the account service.
type UserRepo struct{ Pool PgxPool }

var _ domain.UserRepository = (*UserRepo)(nil)

// NewUserRepo constructs a UserRepo with the given pool.
func NewUserRepo(p PgxPool) *UserRepo { return &UserRepo{Pool: p} }

// Get loads a user by id.
func (r *UserRepo) Get(ctx domain.Context, id string) (domain.User, error) {
	ctx, span := startSpan(ctx, "users", "Get", "SELECT")
	defer span.End()
	var u domain.User
	err := r.Pool.QueryRow(ctx, `SELECT id, name, email, resume_text FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.ResumeText)
	if err != nil {
		if isNoRows(err) {
			return domain.User{}, fmt.Errorf("op=user.get: %w", domain.ErrNotFound)
		}
		return domain.User{}, fmt.Errorf("op=user.get: %w", err)
	}
	return u, nil
}

// UpdateResume stores the latest extracted resume text on the user.
func (r *UserRepo) UpdateResume(ctx domain.Context, id, text string) error {
	ctx, span := startSpan(ctx, "users", "UpdateResume", "UPDATE")
	defer span.End()
	tag, err := r.Pool.Exec(ctx, `UPDATE users SET resume_text=$2, updated_at=now() WHERE id=$1`, id, text)
	if err != nil {
		return fmt.Errorf("op=user.update_resume: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=user.update_resume: %w", domain.ErrNotFound)
	}
	return nil
}

// Upsert writes a user row; used by mirror sync and local seeding.
func (r *UserRepo) Upsert(ctx domain.Context, u domain.User) error {
	ctx, span := startSpan(ctx, "users", "Upsert", "INSERT")
	defer span.End()
	q := `INSERT INTO users (id, name, email, resume_text) VALUES ($1,$2,$3,$4)
	ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, email=EXCLUDED.email, updated_at=now()`
	if _, err := r.Pool.Exec(ctx, q, u.ID, u.Name, u.Email, u.ResumeText); err != nil {
		return fmt.Errorf("op=user.upsert: %w", err)
	}
	return nil
}

// GetStreak reads the user's activity streak.
func (r *UserRepo) GetStreak(ctx domain.Context, id string) (domain.Streak, error) {
	ctx, span := startSpan(ctx, "users", "GetStreak", "SELECT")
	defer span.End()
	st, err := scanStreak(r.Pool.QueryRow(ctx, `SELECT current_streak, max_streak, last_activity FROM users WHERE id=$1`, id))
	if err != nil {
		return domain.Streak{}, fmt.Errorf("op=user.get_streak: %w", err)
	}
	return st, nil
}

// RecordActivity advances the streak for activity at the given time.
func (r *UserRepo) RecordActivity(ctx domain.Context, id string, at time.Time) (domain.Streak, error) {
	ctx, span := startSpan(ctx, "users", "RecordActivity", "UPDATE")
	defer span.End()

	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Streak{}, fmt.Errorf("op=user.record_activity: begin: %w", err)
	}
	defer rollback(ctx, tx)

	st, err := scanStreak(tx.QueryRow(ctx, `SELECT current_streak, max_streak, last_activity FROM users WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return domain.Streak{}, fmt.Errorf("op=user.record_activity: %w", err)
	}
	st = st.Record(at)
	q := `UPDATE users SET current_streak=$2, max_streak=$3, last_activity=$4, updated_at=now() WHERE id=$1`
	if _, err := tx.Exec(ctx, q, id, st.Current, st.Max, st.LastActivity); err != nil {
		return domain.Streak{}, fmt.Errorf("op=user.record_activity: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Streak{}, fmt.Errorf("op=user.record_activity: commit: %w", err)
	}
	return st, nil
}

func scanStreak(row pgx.Row) (domain.Streak, error) {
	var st domain.Streak
	if err := row.Scan(&st.Current, &st.Max, &st.LastActivity); err != nil {
		if isNoRows(err) {
			return domain.Streak{}, domain.ErrNotFound
		}
		return domain.Streak{}, err
	}
	return st, nil
}
