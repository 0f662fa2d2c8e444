package postgres

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

// ResumeRepo stores resume review results.
type ResumeRepo struct{ Pool PgxPool }

var _ domain.ResumeRepository = (*ResumeRepo)(nil)

// NewResumeRepo constructs a ResumeRepo with the given pool.
func NewResumeRepo(p PgxPool) *ResumeRepo { return &ResumeRepo{Pool: p} }

// Create inserts a review and returns its id.
func (r *ResumeRepo) Create(ctx domain.Context, rv domain.ResumeReview) (string, error) {
	ctx, span := startSpan(ctx, "resume_reviews", "Create", "INSERT")
	defer span.End()
	if rv.ID == "" {
		rv.ID = uuid.New().String()
	}
	created := rv.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	q := `INSERT INTO resume_reviews (id, user_id, filename, grammatical_mistakes, suggestions, ats_score, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`
	if _, err := r.Pool.Exec(ctx, q, rv.ID, rv.UserID, rv.Filename, rv.GrammaticalMistakes, rv.Suggestions, rv.ATSScore, created); err != nil {
		return "", fmt.Errorf("op=resume.create: %w", err)
	}
	return rv.ID, nil
}

// LatestByUser returns the user's most recent review.
func (r *ResumeRepo) LatestByUser(ctx domain.Context, userID string) (domain.ResumeReview, error) {
	ctx, span := startSpan(ctx, "resume_reviews", "LatestByUser", "SELECT")
	defer span.End()
	q := `SELECT id, user_id, filename, grammatical_mistakes, suggestions, ats_score, created_at
	FROM resume_reviews WHERE user_id=$1 ORDER BY created_at DESC LIMIT 1`
	var rv domain.ResumeReview
	err := r.Pool.QueryRow(ctx, q, userID).Scan(&rv.ID, &rv.UserID, &rv.Filename, &rv.GrammaticalMistakes, &rv.Suggestions, &rv.ATSScore, &rv.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return domain.ResumeReview{}, fmt.Errorf("op=resume.latest: %w", domain.ErrNotFound)
		}
		return domain.ResumeReview{}, fmt.Errorf("op=resume.latest: %w", err)
	}
	return rv, nil
}
