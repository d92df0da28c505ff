package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/real-rm/livechat/internal/constants"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                8080,
			MaxConnectionsPerIP: 10,
		},
		Log: LogConfig{Level: "info"},
		Database: DatabaseConfig{
			URI:           "mongodb://localhost:27017",
			Database:      "livechat",
			RetryAttempts: 3,
		},
		Auth: AuthConfig{
			JWTSecret: "kJ8fQ2xN4vR7wY1mP5sD9gH3bL6cT0zA",
			TokenTTL:  24 * time.Hour,
		},
		Completion: CompletionConfig{
			Endpoint:  "https://api.openai.com/v1",
			APIKey:    "sk-live-abc123",
			Model:     "gpt-3.5-turbo",
			MaxTokens: 150,
			Timeout:   30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			MessagesPerMinute: 100,
			AdminPerMinute:    20,
			PublicPerMinute:   60,
			Window:            time.Minute,
		},
	}
}

func TestLoadDefaults(t *testing.T) {
	// Required secrets come from the environment in deployment; defaults
	// cover everything else
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultPort, cfg.Server.Port)
	assert.Equal(t, constants.DefaultMongoURI, cfg.Database.URI)
	assert.Equal(t, constants.DefaultDatabase, cfg.Database.Database)
	assert.Equal(t, constants.DefaultModel, cfg.Completion.Model)
	assert.Equal(t, constants.DefaultCompletionLimit, cfg.Completion.MaxTokens)
	assert.Equal(t, constants.DefaultRateLimit, cfg.RateLimit.MessagesPerMinute)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "livechat.yaml")
	content := `
server:
  port: 9090
database:
  uri: mongodb://db.internal:27017
  database: support
completion:
  model: gpt-4o-mini
  max_tokens: 200
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "mongodb://db.internal:27017", cfg.Database.URI)
	assert.Equal(t, "support", cfg.Database.Database)
	assert.Equal(t, "gpt-4o-mini", cfg.Completion.Model)
	assert.Equal(t, 200, cfg.Completion.MaxTokens)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "livechat.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600))

	t.Setenv("LIVECHAT_SERVER_PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load("/nonexistent/livechat.yaml")
	assert.Error(t, err)
}

func TestValidateAcceptsGoodConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Auth.JWTSecret = ""
	cfg.Completion.APIKey = ""

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "port")
	assert.Contains(t, msg, "JWT secret")
	assert.Contains(t, msg, "API key")
}

func TestValidateRejectsWeakJWTSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.JWTSecret = "password-padded-to-32-characters!!"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weak")
}

func TestValidateRejectsShortJWTSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.JWTSecret = "xK9q"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32")
}

func TestValidateRejectsPlaceholderAPIKey(t *testing.T) {
	for _, key := range []string{
		"YOUR_API_KEY_HERE",
		"${OPENAI_API_KEY}",
		"<api-key>",
		"changeme",
	} {
		cfg := validConfig()
		cfg.Completion.APIKey = key
		err := cfg.Validate()
		require.Error(t, err, "key %q should be rejected", key)
		assert.Contains(t, err.Error(), "placeholder", "key %q", key)
	}
}

func TestContainsPlaceholder(t *testing.T) {
	assert.True(t, containsPlaceholder("YOUR_KEY_HERE"))
	assert.True(t, containsPlaceholder("${SECRET}"))
	assert.True(t, containsPlaceholder("<token>"))
	assert.False(t, containsPlaceholder("sk-live-"+strings.Repeat("a", 20)))
}
