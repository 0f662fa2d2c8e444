package stub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
	"github.com/fairyhunter13/ai-interview-coach/pkg/llmjson"
)

func TestChat_ShapesParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		prompt  string
		records int
		phase   llmjson.Phase
	}{
		{"feedback", "return overall_score", 1, llmjson.PhaseFenced},
		{"questions", "fields option1..option4", 10, llmjson.PhaseScan},
		{"resume", "include ats_score", 1, llmjson.PhaseScan},
		{"question", "ask the next question", 0, llmjson.PhaseNone},
	}
	c := New()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out, err := c.Chat(t.Context(), []domain.ChatMessage{{Role: domain.RoleSystem, Content: tt.prompt}})
			require.NoError(t, err)
			ex := llmjson.Extract(out)
			assert.Len(t, ex.Records, tt.records)
			assert.Equal(t, tt.phase, ex.Phase)
		})
	}
}

func TestAudio(t *testing.T) {
	t.Parallel()

	c := New()
	_, err := c.Transcribe(t.Context(), "a.webm", "audio/webm", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	text, err := c.Transcribe(t.Context(), "a.webm", "audio/webm", []byte{1})
	require.NoError(t, err)
	assert.NotEmpty(t, text)

	_, err = c.Speak(t.Context(), " ", "")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	sp, err := c.Speak(t.Context(), "hello", "")
	require.NoError(t, err)
	assert.Equal(t, "audio/wav", sp.ContentType)
}
