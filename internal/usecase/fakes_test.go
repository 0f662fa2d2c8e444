package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

// scriptedAI returns replies in order and records every prompt.
type scriptedAI struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   [][]domain.ChatMessage
}

func (a *scriptedAI) Chat(_ domain.Context, msgs []domain.ChatMessage) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, msgs)
	if a.err != nil {
		return "", a.err
	}
	if len(a.replies) == 0 {
		return "Next question?", nil
	}
	r := a.replies[0]
	a.replies = a.replies[1:]
	return r, nil
}

func (a *scriptedAI) lastSystem() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.calls) == 0 {
		return ""
	}
	for _, m := range a.calls[len(a.calls)-1] {
		if m.Role == domain.RoleSystem {
			return m.Content
		}
	}
	return ""
}

type denyLimiter struct {
	retry time.Duration
	err   error
}

func (l denyLimiter) Allow(context.Context, string, string) (bool, time.Duration, error) {
	if l.err != nil {
		return true, 0, l.err
	}
	return false, l.retry, nil
}

type fakeExtractor struct {
	text string
	err  error
}

func (f fakeExtractor) Extract(context.Context, string, []byte) (string, error) {
	return f.text, f.err
}
