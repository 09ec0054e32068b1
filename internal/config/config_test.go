package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("GEMINI_API_KEY", "key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.TelegramToken)
	assert.Equal(t, "key", cfg.GeminiAPIKey)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.Debug)
	assert.True(t, cfg.PreferIPv4)
	assert.Equal(t, 1200*time.Millisecond, cfg.MediaGroupDebounce)
	assert.Equal(t, 4, cfg.MaxConcurrent)
	assert.Equal(t, 8, cfg.MaxPendingFiles)
	assert.Equal(t, 240*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 180*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "https://generativelanguage.googleapis.com", cfg.GeminiBaseURL)
	assert.Equal(t, "v1beta", cfg.GeminiAPIVersion)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("DEBUG", "true")
	t.Setenv("PREFER_IPV4", "false")
	t.Setenv("MEDIA_GROUP_DEBOUNCE_MS", "500")
	t.Setenv("MAX_CONCURRENT", "2")
	t.Setenv("MAX_PENDING_FILES", "3")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "60")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "30")
	t.Setenv("GEMINI_BASE_URL", "http://localhost:9090")
	t.Setenv("GEMINI_API_VERSION", "v1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Debug)
	assert.False(t, cfg.PreferIPv4)
	assert.Equal(t, 500*time.Millisecond, cfg.MediaGroupDebounce)
	assert.Equal(t, 2, cfg.MaxConcurrent)
	assert.Equal(t, 3, cfg.MaxPendingFiles)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "http://localhost:9090", cfg.GeminiBaseURL)
	assert.Equal(t, "v1", cfg.GeminiAPIVersion)
}

func TestLoadMissingToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("GEMINI_API_KEY", "key")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_BOT_TOKEN")
}

func TestLoadMissingAPIKey(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("GEMINI_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestLoadClampsInvalidValues(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("MAX_CONCURRENT", "0")
	t.Setenv("MAX_PENDING_FILES", "-1")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.MaxConcurrent)
	assert.Equal(t, 1, cfg.MaxPendingFiles)
	assert.Equal(t, 240*time.Second, cfg.RequestTimeout)
}
