package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("LMS_API_URL", "")
	os.Unsetenv("LMS_API_URL")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, 30, cfg.API.TimeoutSeconds)
	assert.Equal(t, "file", cfg.Session.Store)
	assert.Equal(t, "default", cfg.Session.Profile)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("LMS_API_URL", "https://lms.example.com/api/v1")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "https://lms.example.com/api/v1", cfg.API.BaseURL)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
api:
  base_url: http://api.internal:9000/api/v1
  timeout_seconds: 5
session:
  store: redis
  profile: teacher
rate_limit:
  max_requests: 10
  window_seconds: 1
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "http://api.internal:9000/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 5, int(cfg.API.Timeout().Seconds()))
	assert.Equal(t, "redis", cfg.Session.Store)
	assert.Equal(t, "teacher", cfg.Session.Profile)
	assert.Equal(t, 10, cfg.RateLimit.MaxRequests)
	assert.NotEmpty(t, cfg.ConfigFile)
}

func TestLoadConfigRejectsUnknownStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("session:\n  store: cookie\n"), 0o644))

	_, err := LoadConfig(dir)
	assert.Error(t, err)
}
