package usecase

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
	"github.com/fairyhunter13/ai-interview-coach/internal/service/ratelimiter"
	"github.com/fairyhunter13/ai-interview-coach/pkg/textx"
)

// MaxSpeechRunes caps text sent to speech synthesis.
const MaxSpeechRunes = 4000

// AudioService converts between interview answers and audio.
type AudioService struct {
	Audio    domain.AudioClient
	Limiter  domain.RateLimiter
	MaxBytes int64
	Voice    string
}

// NewAudioService constructs an AudioService.
func NewAudioService(audio domain.AudioClient, lim domain.RateLimiter, maxBytes int64, voice string) *AudioService {
	return &AudioService{Audio: audio, Limiter: lim, MaxBytes: maxBytes, Voice: voice}
}

// allowedAudio accepts audio/* and browser webm recordings, which sniff as video/webm.
func allowedAudio(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		s := m.String()
		if strings.HasPrefix(s, "audio/") || s == "video/webm" {
			return true
		}
	}
	return false
}

// Transcribe turns a recorded answer into text.
func (s *AudioService) Transcribe(ctx domain.Context, user domain.User, filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("op=audio.transcribe: %w: empty audio", domain.ErrInvalidArgument)
	}
	if s.MaxBytes > 0 && int64(len(data)) > s.MaxBytes {
		return "", fmt.Errorf("op=audio.transcribe: %w: audio exceeds %d bytes", domain.ErrInvalidArgument, s.MaxBytes)
	}
	m := mimetype.Detect(data)
	if !allowedAudio(m) {
		return "", fmt.Errorf("op=audio.transcribe: %w: unsupported media type %s", domain.ErrInvalidArgument, m.String())
	}
	if err := throttle(ctx, s.Limiter, ratelimiter.FamilyAudio, user.ID); err != nil {
		return "", fmt.Errorf("op=audio.transcribe: %w", err)
	}
	if filename == "" {
		filename = "recording" + m.Extension()
	}
	text, err := s.Audio.Transcribe(ctx, filename, m.String(), data)
	if err != nil {
		return "", fmt.Errorf("op=audio.transcribe: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// Speak synthesises text as WAV audio. An empty voice uses the default.
func (s *AudioService) Speak(ctx domain.Context, user domain.User, text, voice string) (domain.Speech, error) {
	text = textx.CollapseSpace(text)
	if text == "" {
		return domain.Speech{}, fmt.Errorf("op=audio.speak: %w: text required", domain.ErrInvalidArgument)
	}
	if err := throttle(ctx, s.Limiter, ratelimiter.FamilyAudio, user.ID); err != nil {
		return domain.Speech{}, fmt.Errorf("op=audio.speak: %w", err)
	}
	if voice == "" {
		voice = s.Voice
	}
	sp, err := s.Audio.Speak(ctx, textx.Truncate(text, MaxSpeechRunes), voice)
	if err != nil {
		return domain.Speech{}, fmt.Errorf("op=audio.speak: %w", err)
	}
	if sp.ContentType == "" {
		sp.ContentType = "audio/wav"
	}
	return sp, nil
}
