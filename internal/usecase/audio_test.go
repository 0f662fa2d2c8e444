package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-coach/internal/adapter/ai/stub"
	"github.com/fairyhunter13/ai-interview-coach/internal/domain"
)

var (
	sampleWAV  = []byte("RIFF\x24\x00\x00\x00WAVEfmt \x10\x00\x00\x00\x01\x00\x01\x00")
	sampleWebM = []byte("\x1a\x45\xdf\xa3\x9f\x42\x86\x81\x01\x42\xf7\x81\x01\x42\xf2\x81\x04\x42\xf3\x81\x08\x42\x82\x84webm\x42\x87\x81\x04\x42\x85\x81\x02")
)

// recordingAudio captures what the service forwards to the provider.
type recordingAudio struct {
	filename    string
	contentType string
	text        string
	voice       string
}

func (r *recordingAudio) Transcribe(_ domain.Context, filename, contentType string, _ []byte) (string, error) {
	r.filename, r.contentType = filename, contentType
	return "  I would shard by tenant.  ", nil
}

func (r *recordingAudio) Speak(_ domain.Context, text, voice string) (domain.Speech, error) {
	r.text, r.voice = text, voice
	return domain.Speech{Audio: []byte("RIFF")}, nil
}

func TestAudio_Transcribe(t *testing.T) {
	t.Parallel()

	rec := &recordingAudio{}
	svc := NewAudioService(rec, nil, 0, "Aaliyah-PlayAI")

	text, err := svc.Transcribe(context.Background(), ana, "", sampleWAV)
	require.NoError(t, err)
	assert.Equal(t, "I would shard by tenant.", text)
	assert.Equal(t, "recording.wav", rec.filename)
	assert.Equal(t, "audio/wav", rec.contentType)

	_, err = svc.Transcribe(context.Background(), ana, "answer.webm", sampleWebM)
	require.NoError(t, err)
	assert.Equal(t, "answer.webm", rec.filename)
	assert.Equal(t, "video/webm", rec.contentType)
}

func TestAudio_Transcribe_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		svc     *AudioService
		data    []byte
		wantErr error
	}{
		{name: "empty", svc: NewAudioService(stub.New(), nil, 0, ""), wantErr: domain.ErrInvalidArgument},
		{name: "too large", svc: NewAudioService(stub.New(), nil, 8, ""), data: sampleWAV, wantErr: domain.ErrInvalidArgument},
		{name: "not audio", svc: NewAudioService(stub.New(), nil, 0, ""), data: []byte("just some text"), wantErr: domain.ErrInvalidArgument},
		{name: "pdf", svc: NewAudioService(stub.New(), nil, 0, ""), data: samplePDF, wantErr: domain.ErrInvalidArgument},
		{name: "rate limited", svc: NewAudioService(stub.New(), denyLimiter{retry: time.Second}, 0, ""), data: sampleWAV, wantErr: domain.ErrRateLimited},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := tt.svc.Transcribe(context.Background(), ana, "a.wav", tt.data)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAudio_Speak(t *testing.T) {
	t.Parallel()

	rec := &recordingAudio{}
	svc := NewAudioService(rec, nil, 0, "Aaliyah-PlayAI")

	sp, err := svc.Speak(context.Background(), ana, "  Tell me\n about   yourself. ", "")
	require.NoError(t, err)
	assert.Equal(t, "audio/wav", sp.ContentType)
	assert.Equal(t, "Tell me about yourself.", rec.text)
	assert.Equal(t, "Aaliyah-PlayAI", rec.voice)

	_, err = svc.Speak(context.Background(), ana, strings.Repeat("x", MaxSpeechRunes+10), "Fritz-PlayAI")
	require.NoError(t, err)
	assert.Len(t, rec.text, MaxSpeechRunes)
	assert.Equal(t, "Fritz-PlayAI", rec.voice)

	_, err = svc.Speak(context.Background(), ana, " \n ", "")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	limited := NewAudioService(rec, denyLimiter{retry: time.Second}, 0, "")
	_, err = limited.Speak(context.Background(), ana, "hi", "")
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}
