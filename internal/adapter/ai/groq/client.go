// Package groq implements the chat, transcription and speech ports against
// Groq's OpenAI-compatible API.
package groq

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"

	backoff "github.com/cenkalti/backoff/v4"
	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/ai-interview-coach/internal/adapter/ai"
	"github.com/fairyhunter13/ai-interview-coach/internal/config"
	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
	"github.com/fairyhunter13/ai-interview-coach/internal/observability"
)

const provider = "groq"

// Client implements domain.AIClient and domain.AudioClient.
type Client struct {
	cfg      config.Config
	chat     openai.Client
	audio    openai.Client
	breakers *ai.CircuitBreakerManager
	call     *observability.ExternalCall

	newBackOff func() backoff.BackOff
}

var (
	_ domain.AIClient    = (*Client)(nil)
	_ domain.AudioClient = (*Client)(nil)
)

// New constructs a Groq client. SDK retries are disabled; retries are
// driven by the configured exponential backoff instead.
func New(cfg config.Config) *Client {
	hc := &http.Client{
		Timeout:   cfg.AIRequestTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	base := cfg.GroqBaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	newSDK := func(key string) openai.Client {
		return openai.NewClient(
			option.WithAPIKey(key),
			option.WithBaseURL(base),
			option.WithHTTPClient(hc),
			option.WithMaxRetries(0),
		)
	}
	c := &Client{
		cfg:      cfg,
		chat:     newSDK(cfg.GroqAPIKey),
		audio:    newSDK(cfg.AudioAPIKey()),
		breakers: ai.NewCircuitBreakerManager(),
		call:     observability.NewExternalCall(observability.KindAI, provider, cfg.AIRequestTimeout),
	}
	c.newBackOff = c.backoffConfig
	return c
}

func (c *Client) backoffConfig() backoff.BackOff {
	expo := backoff.NewExponentialBackOff()
	maxElapsed, initial, maxInterval, multiplier := c.cfg.GetAIBackoffConfig()
	expo.MaxElapsedTime = maxElapsed
	expo.InitialInterval = initial
	expo.MaxInterval = maxInterval
	expo.Multiplier = multiplier
	return expo
}

// Chat sends messages to the chat completions API and returns the content
// of the first choice.
func (c *Client) Chat(ctx domain.Context, messages []domain.ChatMessage) (string, error) {
	if c.cfg.GroqAPIKey == "" {
		return "", fmt.Errorf("%w: GROQ_API_KEY missing", domain.ErrInternal)
	}
	if len(messages) == 0 {
		return "", fmt.Errorf("%w: no messages", domain.ErrInvalidArgument)
	}
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.cfg.ChatModel),
		Messages: toParams(messages),
	}

	var out string
	err := c.retry(ctx, "chat", c.cfg.ChatModel, func(ctx context.Context) error {
		resp, err := c.chat.Chat.Completions.New(ctx, params)
		if err != nil {
			return classify(err)
		}
		if len(resp.Choices) == 0 {
			return backoff.Permanent(errors.New("empty choices"))
		}
		out = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// Transcribe converts recorded speech to English text.
func (c *Client) Transcribe(ctx domain.Context, filename, contentType string, data []byte) (string, error) {
	if c.cfg.AudioAPIKey() == "" {
		return "", fmt.Errorf("%w: GROQ_AUDIO_API_KEY missing", domain.ErrInternal)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty audio", domain.ErrInvalidArgument)
	}

	var text string
	err := c.retry(ctx, "transcribe", c.cfg.TranscribeModel, func(ctx context.Context) error {
		// the reader is consumed per attempt
		resp, err := c.audio.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
			File:        openai.File(bytes.NewReader(data), filename, contentType),
			Model:       openai.AudioModel(c.cfg.TranscribeModel),
			Language:    openai.String("en"),
			Temperature: openai.Float(1.0),
		})
		if err != nil {
			return classify(err)
		}
		text = strings.TrimSpace(resp.Text)
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// Speak synthesizes text as WAV audio. An empty voice uses the configured default.
func (c *Client) Speak(ctx domain.Context, text, voice string) (domain.Speech, error) {
	if c.cfg.AudioAPIKey() == "" {
		return domain.Speech{}, fmt.Errorf("%w: GROQ_AUDIO_API_KEY missing", domain.ErrInternal)
	}
	if strings.TrimSpace(voice) == "" {
		voice = c.cfg.TTSVoice
	}
	params := openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(c.cfg.TTSModel),
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatWAV,
	}

	var sp domain.Speech
	err := c.retry(ctx, "speech", c.cfg.TTSModel, func(ctx context.Context) error {
		resp, err := c.audio.Audio.Speech.New(ctx, params)
		if err != nil {
			return classify(err)
		}
		defer func() { _ = resp.Body.Close() }()
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read audio: %w", err)
		}
		ct := resp.Header.Get("Content-Type")
		if ct == "" || strings.HasPrefix(ct, "application/octet-stream") {
			ct = "audio/wav"
		}
		sp = domain.Speech{Audio: b, ContentType: ct}
		return nil
	})
	if err != nil {
		return domain.Speech{}, err
	}
	return sp, nil
}

// retry runs attempt under the model's circuit breaker with exponential
// backoff, recording metrics and a span for every attempt.
func (c *Client) retry(ctx context.Context, op, model string, attempt func(context.Context) error) error {
	br := c.breakers.GetBreaker(model)
	if !br.ShouldAttempt() {
		return fmt.Errorf("%w: circuit open for model %s", domain.ErrUpstreamRateLimit, model)
	}

	bo := backoff.WithContext(c.newBackOff(), ctx)
	err := backoff.Retry(func() error {
		return c.call.Do(ctx, op, attempt)
	}, bo)
	if err == nil {
		br.RecordSuccess()
		return nil
	}

	var se *statusError
	if !errors.As(err, &se) || se.retryable() {
		br.RecordFailure()
	}
	mapped := mapError(op, err)
	observability.LoggerFromContext(ctx).Warn("groq call failed",
		slog.String("op", op),
		slog.String("model", model),
		slog.Any("error", err))
	return mapped
}

// statusError is a non-2xx response from the API.
type statusError struct {
	Status  int
	Message string
}

func (e *statusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d", e.Status)
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

func (e *statusError) retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// classify turns an SDK error into a retryable or permanent backoff error.
func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		se := &statusError{Status: apiErr.StatusCode, Message: apiErr.Message}
		if se.retryable() {
			return se
		}
		return backoff.Permanent(se)
	}
	return err
}

func mapError(op string, err error) error {
	var se *statusError
	var ne net.Error
	switch {
	case errors.As(err, &se) && se.Status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: op=groq.%s: %v", domain.ErrUpstreamRateLimit, op, err)
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &ne) && ne.Timeout():
		return fmt.Errorf("%w: op=groq.%s: %v", domain.ErrUpstreamTimeout, op, err)
	default:
		return fmt.Errorf("op=groq.%s: %w", op, err)
	}
}

func toParams(messages []domain.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case domain.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case domain.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
