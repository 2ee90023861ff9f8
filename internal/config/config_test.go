package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 0.7, cfg.Generation.Temperature)
	assert.Equal(t, 16000, cfg.Generation.MaxTokens)
	assert.Equal(t, 50, cfg.Generation.DiagnosticMaxTokens)
	assert.Equal(t, 180*time.Second, cfg.Generation.Timeout)
	assert.Equal(t, 1, cfg.Generation.MaxRetries)
	assert.Equal(t, "openai", cfg.LLM.DefaultProvider)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
database:
  driver: sqlite
  sqlite_path: /tmp/test.db
generation:
  max_retries: 3
  timeout: 45s
publish:
  public_base_url: https://coach.example.com
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/test.db", cfg.Database.SQLitePath)
	assert.Equal(t, 3, cfg.Generation.MaxRetries)
	assert.Equal(t, 45*time.Second, cfg.Generation.Timeout)
	assert.Equal(t, "https://coach.example.com", cfg.Publish.PublicBaseURL)
	assert.Equal(t, "sk-test", cfg.LLM.OpenAI.APIKey)
	assert.Equal(t, "secret", cfg.Auth.JWTSecret)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Database:   DatabaseConfig{Driver: "sqlite"},
			Generation: GenerationConfig{Timeout: time.Minute, MaxRetries: 1},
		}
	}

	assert.NoError(t, base().Validate())

	cfg := base()
	cfg.Database.Driver = "mysql"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Environment = "production"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Generation.MaxRetries = -1
	assert.Error(t, cfg.Validate())
}
