package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("UPSTREAM_TIMEOUT", "90s")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")

	cfg := Load()
	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.Equal(t, 90*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, 60, cfg.RateLimitPerMinute)
	assert.False(t, cfg.IsProduction())
}

func TestValidateProduction(t *testing.T) {
	cfg := &Config{Environment: "production"}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROXY_ANON_KEY")
	assert.Contains(t, err.Error(), "SESSION_JWT_SECRET")

	cfg.AnonKey = "anon"
	cfg.SessionJWTSecret = "secret"
	assert.NoError(t, cfg.Validate())

	assert.NoError(t, (&Config{Environment: "development"}).Validate())
}

func TestLoadClient(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("PROXY_ANON_KEY", "anon")
	t.Setenv("STORE_BACKEND", "SQLite")
	t.Setenv("STORE_PATH", "")
	t.Setenv("REQUEST_TIMEOUT", "30")

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.StoreBackend)
	assert.Equal(t, "iakadir.sqlite", cfg.StorePath)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}

func TestLoadClientRejectsUnknownBackend(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("PROXY_ANON_KEY", "anon")
	t.Setenv("STORE_BACKEND", "redis")

	_, err := LoadClient()
	assert.Error(t, err)
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("SOME_DURATION", "bogus")
	assert.Equal(t, time.Minute, getEnvAsDuration("SOME_DURATION", time.Minute))
	t.Setenv("SOME_DURATION", "2m")
	assert.Equal(t, 2*time.Minute, getEnvAsDuration("SOME_DURATION", time.Minute))
}
