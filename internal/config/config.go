// Package config loads and validates service configuration. Values come
// from an optional config file plus environment variables, with the
// environment taking precedence (LIVECHAT_SERVER_PORT overrides
// server.port, and so on).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/real-rm/livechat/internal/constants"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Completion CompletionConfig `mapstructure:"completion"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
}

// ServerConfig holds HTTP/WebSocket server configuration
type ServerConfig struct {
	Port                   int    `mapstructure:"port"`
	TrustedProxies         string `mapstructure:"trusted_proxies"`
	CORSAllowedOrigins     string `mapstructure:"cors_allowed_origins"`
	MetricsAllowedNetworks string `mapstructure:"metrics_allowed_networks"`
	MaxConnectionsPerIP    int    `mapstructure:"max_connections_per_ip"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

// DatabaseConfig holds MongoDB configuration
type DatabaseConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	RetryAttempts  int           `mapstructure:"retry_attempts"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	RetryMaxDelay  time.Duration `mapstructure:"retry_max_delay"`
}

// AuthConfig holds operator authentication configuration
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// CompletionConfig holds completion provider configuration
type CompletionConfig struct {
	Endpoint  string        `mapstructure:"endpoint"`
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	MessagesPerMinute int           `mapstructure:"messages_per_minute"`
	AdminPerMinute    int           `mapstructure:"admin_per_minute"`
	PublicPerMinute   int           `mapstructure:"public_per_minute"`
	Window            time.Duration `mapstructure:"window"`
}

// Load reads configuration from the given file (optional, may be empty)
// and the environment. Environment variables use the LIVECHAT_ prefix
// with underscores for nesting: LIVECHAT_AUTH_JWT_SECRET, LIVECHAT_DATABASE_URI.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("livechat")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", constants.DefaultPort)
	v.SetDefault("server.trusted_proxies", constants.DefaultTrustedProxies)
	v.SetDefault("server.cors_allowed_origins", "")
	v.SetDefault("server.metrics_allowed_networks", constants.DefaultMetricsAllowedNetworks)
	v.SetDefault("server.max_connections_per_ip", constants.MaxConnectionsPerIP)

	v.SetDefault("log.level", constants.DefaultLogLevel)
	v.SetDefault("log.console", false)

	v.SetDefault("database.uri", constants.DefaultMongoURI)
	v.SetDefault("database.database", constants.DefaultDatabase)
	v.SetDefault("database.connect_timeout", constants.DefaultContextTimeout)
	v.SetDefault("database.retry_attempts", constants.MaxRetryAttempts)
	v.SetDefault("database.retry_delay", constants.InitialRetryDelay)
	v.SetDefault("database.retry_max_delay", constants.MaxRetryDelay)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("completion.endpoint", constants.DefaultProviderEndpoint)
	v.SetDefault("completion.api_key", "")
	v.SetDefault("completion.model", constants.DefaultModel)
	v.SetDefault("completion.max_tokens", constants.DefaultCompletionLimit)
	v.SetDefault("completion.timeout", constants.CompletionTimeout)

	v.SetDefault("ratelimit.messages_per_minute", constants.DefaultRateLimit)
	v.SetDefault("ratelimit.admin_per_minute", constants.DefaultAdminRateLimit)
	v.SetDefault("ratelimit.public_per_minute", constants.PublicEndpointRate)
	v.SetDefault("ratelimit.window", constants.DefaultRateWindow)
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, errors.New("server port must be between 1 and 65535"))
	}
	if c.Server.MaxConnectionsPerIP <= 0 {
		errs = append(errs, errors.New("max connections per IP must be positive"))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT secret is required"))
	} else {
		if len(c.Auth.JWTSecret) < constants.MinJWTSecretLength {
			errs = append(errs, fmt.Errorf(
				"JWT secret must be at least %d characters (got %d). "+
					"Generate a strong secret with: openssl rand -base64 32",
				constants.MinJWTSecretLength, len(c.Auth.JWTSecret)))
		}

		lowerSecret := strings.ToLower(c.Auth.JWTSecret)
		for _, weak := range constants.WeakSecrets {
			if strings.Contains(lowerSecret, weak) {
				errs = append(errs, fmt.Errorf(
					"JWT secret appears to be weak (contains '%s'). "+
						"Use a cryptographically random secret generated with: openssl rand -base64 32",
					weak))
				break
			}
		}
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("token TTL must be positive"))
	}

	if c.Database.URI == "" {
		errs = append(errs, errors.New("database URI is required"))
	}
	if c.Database.Database == "" {
		errs = append(errs, errors.New("database name is required"))
	}
	if c.Database.RetryAttempts < 0 {
		errs = append(errs, errors.New("database retry attempts must not be negative"))
	}

	if c.Completion.Endpoint == "" {
		errs = append(errs, errors.New("completion endpoint is required"))
	}
	if c.Completion.APIKey == "" {
		errs = append(errs, errors.New("completion API key is required"))
	} else if containsPlaceholder(c.Completion.APIKey) {
		errs = append(errs, fmt.Errorf(
			"completion API key contains placeholder value %q — set the real key before deploying",
			c.Completion.APIKey))
	}
	if c.Completion.Model == "" {
		errs = append(errs, errors.New("completion model is required"))
	}
	if c.Completion.MaxTokens <= 0 {
		errs = append(errs, errors.New("completion max tokens must be positive"))
	}
	if c.Completion.Timeout <= 0 {
		errs = append(errs, errors.New("completion timeout must be positive"))
	}

	if c.RateLimit.MessagesPerMinute <= 0 {
		errs = append(errs, errors.New("message rate limit must be positive"))
	}
	if c.RateLimit.AdminPerMinute <= 0 {
		errs = append(errs, errors.New("admin rate limit must be positive"))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate limit window must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// containsPlaceholder detects template values that were never substituted
// (YOUR_KEY_HERE, ${API_KEY}, <api-key>, changeme, ...).
func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	markers := []string{
		"YOUR_", "_HERE", "CHANGEME", "REPLACE", "PLACEHOLDER", "EXAMPLE",
	}
	for _, marker := range markers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return strings.Contains(value, "${") ||
		(strings.HasPrefix(value, "<") && strings.HasSuffix(value, ">"))
}
