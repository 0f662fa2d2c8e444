// Package usecase contains the application services behind the HTTP API:
// interviews, the study assistant, daily questions, resume review and audio.
package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fairyhunter13/ai-interview-coach/internal/adapter/ai/tokencount"
	obs "github.com/fairyhunter13/ai-interview-coach/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
	"github.com/fairyhunter13/ai-interview-coach/internal/observability"
	"github.com/fairyhunter13/ai-interview-coach/pkg/llmjson"
)

// HistoryPolicy bounds the conversation history threaded into prompts:
// at most Turns entries, then at most TokenBudget tokens of them.
type HistoryPolicy struct {
	Turns       int
	TokenBudget int
	Model       string
	Counter     *tokencount.Counter
}

// DefaultHistoryPolicy keeps the last five exchanges.
func DefaultHistoryPolicy() HistoryPolicy {
	return HistoryPolicy{Turns: 5, Counter: tokencount.DefaultCounter}
}

func (p HistoryPolicy) render(parts []string) string {
	if p.Turns > 0 && len(parts) > p.Turns {
		parts = parts[len(parts)-p.Turns:]
	}
	if p.TokenBudget > 0 && p.Counter != nil {
		parts = p.Counter.TrimToBudget(parts, p.TokenBudget, p.Model)
	}
	return strings.Join(parts, "\n\n")
}

// throttle consumes one token for the user. Limiter failures let the call through.
func throttle(ctx domain.Context, lim domain.RateLimiter, family, userID string) error {
	if lim == nil {
		return nil
	}
	allowed, retry, err := lim.Allow(ctx, family, userID)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("rate limiter unavailable",
			"family", family, "error", err)
		return nil
	}
	if !allowed {
		return &domain.RateLimitError{RetryAfter: retry}
	}
	return nil
}

// parseSessionID accepts only ids this service issued.
func parseSessionID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: malformed session id", domain.ErrInvalidArgument)
	}
	return nil
}

// isFallbackID reports whether id is a client-side placeholder.
func isFallbackID(id string) bool {
	return strings.HasPrefix(id, domain.FallbackSessionPrefix)
}

// extract parses a completion and records how the records were found.
func extract(operation, completion string) llmjson.Extraction {
	ex := llmjson.Extract(completion)
	obs.RecordExtraction(operation, ex.Phase.String(), len(ex.Records))
	return ex
}

// completionText normalises a plain-text completion.
func completionText(op, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("op=%s: %w: empty completion", op, domain.ErrSchemaInvalid)
	}
	return s, nil
}

func clampScore(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// notOwned hides other users' records behind ErrNotFound.
func notOwned(op, ownerID, userID string) error {
	if ownerID != userID {
		return fmt.Errorf("op=%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

func nowUTC() time.Time { return time.Now().UTC() }
