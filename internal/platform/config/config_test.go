package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("FOODBRIDGE_ADDR", "")
	t.Setenv("FOODBRIDGE_API_URL", "")
	t.Setenv("FOODBRIDGE_CREDENTIALS_FILE", "")
	t.Setenv("FOODBRIDGE_REDIS_URL", "")
	t.Setenv("FOODBRIDGE_HTTP_TIMEOUT_SECONDS", "")

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "http://localhost:8000/api", cfg.APIBaseURL)
	assert.NotEmpty(t, cfg.CredentialsPath)
	assert.Empty(t, cfg.RedisURL)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("FOODBRIDGE_ADDR", ":9090")
	t.Setenv("FOODBRIDGE_API_URL", "https://api.example.org/api")
	t.Setenv("FOODBRIDGE_CREDENTIALS_FILE", "/tmp/creds.json")
	t.Setenv("FOODBRIDGE_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("FOODBRIDGE_HTTP_TIMEOUT_SECONDS", "30")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "https://api.example.org/api", cfg.APIBaseURL)
	assert.Equal(t, "/tmp/creds.json", cfg.CredentialsPath)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
}

func TestFromEnvIgnoresBadTimeout(t *testing.T) {
	t.Setenv("FOODBRIDGE_HTTP_TIMEOUT_SECONDS", "not-a-number")
	assert.Equal(t, 15*time.Second, FromEnv().HTTPTimeout)

	t.Setenv("FOODBRIDGE_HTTP_TIMEOUT_SECONDS", "-3")
	assert.Equal(t, 15*time.Second, FromEnv().HTTPTimeout)
}
