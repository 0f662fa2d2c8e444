// Package tokencount counts prompt tokens and trims conversation history to
// a token budget.
//
// Encodings come from the offline BPE loader so counting never reaches the
// network.
package tokencount

import (
	"log/slog"
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

const fallbackEncoding = "cl100k_base"

// Counter provides thread-safe token counting for LLM models.
type Counter struct {
	encodingCache map[string]*tiktoken.Tiktoken
	mu            sync.RWMutex
}

// NewCounter creates a new token counter instance.
func NewCounter() *Counter {
	return &Counter{encodingCache: make(map[string]*tiktoken.Tiktoken)}
}

// DefaultCounter is a global token counter instance.
var DefaultCounter = NewCounter()

func (c *Counter) encodingFor(model string) (*tiktoken.Tiktoken, error) {
	name := normalizeModelName(model)

	c.mu.RLock()
	if enc, ok := c.encodingCache[name]; ok {
		c.mu.RUnlock()
		return enc, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if enc, ok := c.encodingCache[name]; ok {
		return enc, nil
	}

	enc, err := tiktoken.EncodingForModel(name)
	if err != nil {
		slog.Debug("falling back to cl100k_base encoding", slog.String("model", model), slog.Any("error", err))
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, err
		}
	}
	c.encodingCache[name] = enc
	return enc, nil
}

// normalizeModelName maps provider model ids onto tiktoken model names.
// Open-weight families (llama, mistral, gemma, qwen) are approximated with
// the gpt-4 encoding.
func normalizeModelName(model string) string {
	model = strings.ToLower(model)
	if i := strings.LastIndex(model, "/"); i >= 0 {
		model = model[i+1:]
	}
	if strings.Contains(model, "gpt-3.5") {
		return "gpt-3.5-turbo"
	}
	return "gpt-4"
}

// CountTokens counts the tokens in text. When no encoding is available it
// estimates four characters per token.
func (c *Counter) CountTokens(text, model string) int {
	enc, err := c.encodingFor(model)
	if err != nil {
		return (len(text) + 3) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

// CountMessages counts a chat prompt including the per-message overhead of
// OpenAI-compatible APIs: 3 tokens per message, the role, and 3 tokens to
// prime the reply.
func (c *Counter) CountMessages(messages []domain.ChatMessage, model string) int {
	const tokensPerMessage = 3
	n := 3
	for _, m := range messages {
		n += tokensPerMessage
		n += c.CountTokens(string(m.Role), model)
		n += c.CountTokens(m.Content, model)
	}
	return n
}

// TrimToBudget keeps the newest parts whose combined size fits within
// budget tokens and returns them oldest first. A budget <= 0 keeps everything.
func (c *Counter) TrimToBudget(parts []string, budget int, model string) []string {
	if budget <= 0 || len(parts) == 0 {
		return parts
	}
	used := 0
	start := len(parts)
	for i := len(parts) - 1; i >= 0; i-- {
		n := c.CountTokens(parts[i], model)
		if used+n > budget {
			break
		}
		used += n
		start = i
	}
	return parts[start:]
}

// CountTokensDefault uses the default counter to count tokens.
func CountTokensDefault(text, model string) int {
	return DefaultCounter.CountTokens(text, model)
}
