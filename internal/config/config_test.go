package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnvVars(t *testing.T) {
	t.Helper()
	envVars := []string{
		"APP_ENV", "PORT", "DB_URL", "REDIS_URL", "RUN_MIGRATIONS",
		"JWT_SECRET", "JWT_COOKIE_NAME", "AI_PROVIDER", "GROQ_API_KEY",
		"GROQ_AUDIO_API_KEY", "GROQ_BASE_URL", "LLM_CHAT_MODEL",
		"LLM_TRANSCRIBE_MODEL", "LLM_TTS_MODEL", "LLM_TTS_VOICE",
		"PROMPT_HISTORY_TURNS", "PROMPT_HISTORY_TOKEN_BUDGET",
		"LLM_USER_RATE_PER_MIN", "TIKA_URL", "OTEL_EXPORTER_OTLP_ENDPOINT",
		"OTEL_SERVICE_NAME", "SUBJECTS_FILE", "DAILY_SUBJECTS", "MAX_UPLOAD_MB",
		"MAX_AUDIO_MB", "CORS_ALLOW_ORIGINS", "RATE_LIMIT_PER_MIN",
		"SERVER_SHUTDOWN_TIMEOUT", "HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT",
		"HTTP_IDLE_TIMEOUT", "REQUEST_TIMEOUT", "DATA_RETENTION_DAYS",
		"CLEANUP_INTERVAL", "SEED_USERS_FILE",
	}
	for _, envVar := range envVars {
		// Setenv registers the restore; Unsetenv then clears it for this test.
		t.Setenv(envVar, "")
		require.NoError(t, os.Unsetenv(envVar))
	}
}

func TestConfig_Load_DefaultValues(t *testing.T) {
	clearEnvVars(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.True(t, cfg.RunMigrations)
	assert.Equal(t, "jwt", cfg.JWTCookieName)
	assert.Equal(t, "groq", cfg.AIProvider)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.GroqBaseURL)
	assert.Equal(t, "whisper-large-v3", cfg.TranscribeModel)
	assert.Equal(t, "playai-tts", cfg.TTSModel)
	assert.Equal(t, "Aaliyah-PlayAI", cfg.TTSVoice)
	assert.Equal(t, 5, cfg.PromptHistoryTurns)
	assert.Equal(t, []string{"Data Structures"}, cfg.DailySubjects)
	assert.Equal(t, int64(5), cfg.MaxUploadMB)
	assert.Equal(t, int64(10), cfg.MaxAudioMB)
	assert.Equal(t, 90, cfg.DataRetentionDays)
	assert.Equal(t, 24*time.Hour, cfg.CleanupInterval)
	assert.Empty(t, cfg.SeedUsersFile)
	assert.Equal(t, "ai-interview-coach", cfg.OTELServiceName)
	assert.Equal(t, 30*time.Second, cfg.ServerShutdownTimeout)
	assert.False(t, cfg.AuthEnabled())
}

func TestConfig_Load_CustomValues(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("GROQ_API_KEY", "chat-key")
	t.Setenv("DAILY_SUBJECTS", "DBMS,OS")
	t.Setenv("LLM_USER_RATE_PER_MIN", "0")
	t.Setenv("HTTP_WRITE_TIMEOUT", "2m")
	t.Setenv("DATA_RETENTION_DAYS", "0")
	t.Setenv("CLEANUP_INTERVAL", "6h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProd())
	assert.False(t, cfg.IsDev())
	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.AuthEnabled())
	assert.Equal(t, []string{"DBMS", "OS"}, cfg.DailySubjects)
	assert.Equal(t, 0, cfg.LLMUserRatePerMin)
	assert.Equal(t, 2*time.Minute, cfg.HTTPWriteTimeout)
	assert.Zero(t, cfg.DataRetentionDays)
	assert.Equal(t, 6*time.Hour, cfg.CleanupInterval)
	assert.Equal(t, "chat-key", cfg.AudioAPIKey())

	t.Setenv("GROQ_AUDIO_API_KEY", "audio-key")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "audio-key", cfg.AudioAPIKey())
}

func TestConfig_EnvHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		env              string
		dev, prod, isTst bool
	}{
		{"dev", true, false, false},
		{"DEV", true, false, false},
		{"prod", false, true, false},
		{"test", false, false, true},
		{"staging", false, false, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.env, func(t *testing.T) {
			t.Parallel()
			c := Config{AppEnv: tt.env}
			assert.Equal(t, tt.dev, c.IsDev())
			assert.Equal(t, tt.prod, c.IsProd())
			assert.Equal(t, tt.isTst, c.IsTest())
		})
	}
}

func TestConfig_GetAIBackoffConfig(t *testing.T) {
	t.Parallel()

	c := Config{AppEnv: "test", AIBackoffMaxElapsedTime: time.Hour}
	maxElapsed, initial, _, mult := c.GetAIBackoffConfig()
	assert.Equal(t, 2*time.Second, maxElapsed)
	assert.Equal(t, 10*time.Millisecond, initial)
	assert.InDelta(t, 2.0, mult, 1e-9)

	c.AppEnv = "prod"
	maxElapsed, _, _, _ = c.GetAIBackoffConfig()
	assert.Equal(t, time.Hour, maxElapsed)
}
