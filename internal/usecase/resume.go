package usecase

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
	"github.com/fairyhunter13/ai-interview-coach/internal/observability"
	"github.com/fairyhunter13/ai-interview-coach/internal/service/ratelimiter"
	"github.com/fairyhunter13/ai-interview-coach/pkg/textx"
)

// ResumeService reviews uploaded resumes.
type ResumeService struct {
	Reviews   domain.ResumeRepository
	Users     domain.UserRepository
	AI        domain.AIClient
	Limiter   domain.RateLimiter
	Documents *DocumentReader
}

// NewResumeService constructs a ResumeService.
func NewResumeService(reviews domain.ResumeRepository, users domain.UserRepository, ai domain.AIClient, lim domain.RateLimiter, docs *DocumentReader) *ResumeService {
	return &ResumeService{Reviews: reviews, Users: users, AI: ai, Limiter: lim, Documents: docs}
}

// ReviewUpload extracts the document text and reviews it.
func (s *ResumeService) ReviewUpload(ctx domain.Context, user domain.User, filename string, data []byte) (domain.ResumeReview, error) {
	text, err := s.Documents.Text(ctx, filename, data)
	if err != nil {
		return domain.ResumeReview{}, fmt.Errorf("op=resume.review: %w", err)
	}
	return s.Review(ctx, user, filename, text)
}

// Review scores resume text, stores the review and remembers the text on
// the user for resume-based interviews.
func (s *ResumeService) Review(ctx domain.Context, user domain.User, filename, text string) (domain.ResumeReview, error) {
	text = textx.Truncate(strings.TrimSpace(text), maxPromptResumeRunes)
	if text == "" {
		return domain.ResumeReview{}, fmt.Errorf("op=resume.review: %w: empty resume", domain.ErrInvalidArgument)
	}
	if err := throttle(ctx, s.Limiter, ratelimiter.FamilyResume, user.ID); err != nil {
		return domain.ResumeReview{}, fmt.Errorf("op=resume.review: %w", err)
	}
	out, err := s.AI.Chat(ctx, []domain.ChatMessage{
		{Role: domain.RoleUser, Content: resumePrompt(text)},
	})
	if err != nil {
		return domain.ResumeReview{}, fmt.Errorf("op=resume.review: %w", err)
	}
	ex := extract("resume", out)
	if !ex.Found() {
		return domain.ResumeReview{}, fmt.Errorf("op=resume.review: %w: no review object in completion", domain.ErrSchemaInvalid)
	}
	rec := ex.Records[0]
	if err := validateRecord(resumeSchema, rec); err != nil {
		return domain.ResumeReview{}, fmt.Errorf("op=resume.review: %w: %v", domain.ErrSchemaInvalid, err)
	}
	score, _ := rec["ats_score"].(float64)
	rv := domain.ResumeReview{
		UserID:              user.ID,
		Filename:            filename,
		GrammaticalMistakes: markdownList(rec["grammatical_mistakes"]),
		Suggestions:         markdownList(rec["suggestions"]),
		ATSScore:            clampScore(score),
		CreatedAt:           nowUTC(),
	}
	id, err := s.Reviews.Create(ctx, rv)
	if err != nil {
		return domain.ResumeReview{}, fmt.Errorf("op=resume.review: %w", err)
	}
	rv.ID = id
	if s.Users != nil {
		if err := s.Users.UpdateResume(ctx, user.ID, text); err != nil {
			observability.LoggerFromContext(ctx).Warn("failed to store resume text on user",
				slog.String("user_id", user.ID), slog.Any("error", err))
		}
	}
	return rv, nil
}

// Latest returns the caller's most recent review.
func (s *ResumeService) Latest(ctx domain.Context, user domain.User) (domain.ResumeReview, error) {
	rv, err := s.Reviews.LatestByUser(ctx, user.ID)
	if err != nil {
		return domain.ResumeReview{}, fmt.Errorf("op=resume.latest: %w", err)
	}
	return rv, nil
}

// StoredText returns the resume text remembered on the user.
func (s *ResumeService) StoredText(ctx domain.Context, user domain.User) (string, error) {
	u, err := s.Users.Get(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("op=resume.stored: %w", err)
	}
	if strings.TrimSpace(u.ResumeText) == "" {
		return "", fmt.Errorf("op=resume.stored: %w: no resume stored", domain.ErrNotFound)
	}
	return u.ResumeText, nil
}

// ClearText forgets the stored resume text. Past reviews are kept.
func (s *ResumeService) ClearText(ctx domain.Context, user domain.User) error {
	if err := s.Users.UpdateResume(ctx, user.ID, ""); err != nil {
		return fmt.Errorf("op=resume.clear: %w", err)
	}
	return nil
}

// markdownList renders a string-or-list field as markdown. Lists become
// "- " bullets; strings are kept with literal "\n" sequences unescaped.
func markdownList(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(strings.ReplaceAll(t, `\n`, "\n"))
	case []any:
		lines := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				continue
			}
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if !strings.HasPrefix(s, "- ") {
				s = "- " + s
			}
			lines = append(lines, s)
		}
		return strings.Join(lines, "\n")
	default:
		return ""
	}
}
