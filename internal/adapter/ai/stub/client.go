// Package stub is a deterministic offline AI client for local runs and tests.
package stub

import (
	"fmt"
	"strings"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

// Client answers every prompt with a canned completion shaped like the
// real model's. The shape is chosen from keys the prompt asks for.
type Client struct{}

var (
	_ domain.AIClient    = (*Client)(nil)
	_ domain.AudioClient = (*Client)(nil)
)

func New() *Client { return &Client{} }

// Chat returns a completion wrapped in prose and a code fence, the way
// hosted models usually answer.
func (c *Client) Chat(_ domain.Context, messages []domain.ChatMessage) (string, error) {
	var prompt strings.Builder
	for _, m := range messages {
		prompt.WriteString(m.Content)
		prompt.WriteByte('\n')
	}
	p := prompt.String()
	switch {
	case strings.Contains(p, "overall_score"):
		return "Here is the evaluation:\n```json\n" + feedbackJSON + "\n```", nil
	case strings.Contains(p, "option1"):
		var b strings.Builder
		for i := 1; i <= 10; i++ {
			fmt.Fprintf(&b, `{"question": "Sample question %d?", "option1": "A", "option2": "B", "option3": "C", "option4": "D", "answer": "A", "subject": "Data Structures"}`+"\n", i)
		}
		return b.String(), nil
	case strings.Contains(p, "ats_score"):
		return `{"grammatical_mistakes": "None found.", "suggestions": "Quantify your impact.", "ats_score": 78}`, nil
	case strings.Contains(p, "study assistant"):
		return "Stub explanation: review the core definitions and practice one example.", nil
	default:
		return "Can you walk me through a recent project you are proud of?", nil
	}
}

const feedbackJSON = `{
  "feedback": {
    "technical_knowledge": "Solid fundamentals.",
    "communication_skills": "Clear and structured.",
    "confidence": "Composed throughout.",
    "problem_solving": "Methodical.",
    "suggestions": {
      "technical_knowledge": "Go deeper on trade-offs.",
      "communication_skills": "Summarize before details.",
      "confidence": "Commit to an answer sooner.",
      "problem_solving": "State assumptions up front."
    }
  },
  "overall_score": 74
}`

// Transcribe returns a fixed sentence for any non-empty audio.
func (c *Client) Transcribe(_ domain.Context, _, _ string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty audio", domain.ErrInvalidArgument)
	}
	return "This is a transcribed answer.", nil
}

// Speak returns a minimal WAV header.
func (c *Client) Speak(_ domain.Context, text, _ string) (domain.Speech, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Speech{}, fmt.Errorf("%w: empty text", domain.ErrInvalidArgument)
	}
	return domain.Speech{Audio: []byte("RIFF\x24\x00\x00\x00WAVEfmt "), ContentType: "audio/wav"}, nil
}
