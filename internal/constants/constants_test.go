package constants

import (
	"strings"
	"testing"
)

func TestTimeoutInvariants(t *testing.T) {
	timeouts := map[string]int64{
		"DefaultContextTimeout": int64(DefaultContextTimeout),
		"LongContextTimeout":    int64(LongContextTimeout),
		"CompletionTimeout":     int64(CompletionTimeout),
		"MongoIndexTimeout":     int64(MongoIndexTimeout),
		"ShortTimeout":          int64(ShortTimeout),
		"MessageAddTimeout":     int64(MessageAddTimeout),
		"HealthCheckTimeout":    int64(HealthCheckTimeout),
		"StatsTimeout":          int64(StatsTimeout),
		"ShutdownTimeout":       int64(ShutdownTimeout),
		"HTTPReadTimeout":       int64(HTTPReadTimeout),
		"HTTPWriteTimeout":      int64(HTTPWriteTimeout),
		"HTTPIdleTimeout":       int64(HTTPIdleTimeout),
	}

	for name, val := range timeouts {
		if val <= 0 {
			t.Errorf("timeout %s must be positive, got %d", name, val)
		}
	}
}

func TestWebSocketTimingInvariants(t *testing.T) {
	if WriteWait <= 0 {
		t.Error("WriteWait must be positive")
	}
	if PongWait <= 0 {
		t.Error("PongWait must be positive")
	}
	if PingPeriod >= PongWait {
		t.Errorf("PingPeriod (%v) must be shorter than PongWait (%v) or pongs arrive too late", PingPeriod, PongWait)
	}
}

func TestKeyLengthInvariants(t *testing.T) {
	if MinJWTSecretLength < 32 {
		t.Errorf("MinJWTSecretLength must be >= 32 for 256-bit security, got %d", MinJWTSecretLength)
	}
	if MinPasswordLength < 8 {
		t.Errorf("MinPasswordLength must be >= 8, got %d", MinPasswordLength)
	}
}

func TestWeakSecretsNonEmpty(t *testing.T) {
	if len(WeakSecrets) == 0 {
		t.Error("WeakSecrets list must not be empty")
	}
}

func TestLimitsInvariants(t *testing.T) {
	limits := map[string]int{
		"DefaultMaxMessageSize": DefaultMaxMessageSize,
		"MaxMessageBodyLength":  MaxMessageBodyLength,
		"SendBufferSize":        SendBufferSize,
		"DefaultChatListLimit":  DefaultChatListLimit,
		"MaxChatListLimit":      MaxChatListLimit,
		"DefaultRateLimit":      DefaultRateLimit,
		"DefaultAdminRateLimit": DefaultAdminRateLimit,
		"MaxRetryAttempts":      MaxRetryAttempts,
		"PublicEndpointRate":    PublicEndpointRate,
		"MaxConnectionsPerIP":   MaxConnectionsPerIP,
	}

	for name, val := range limits {
		if val <= 0 {
			t.Errorf("limit %s must be positive, got %d", name, val)
		}
	}

	if MaxChatListLimit < DefaultChatListLimit {
		t.Errorf("MaxChatListLimit (%d) must be >= DefaultChatListLimit (%d)", MaxChatListLimit, DefaultChatListLimit)
	}
}

func TestDurationInvariants(t *testing.T) {
	if DefaultRateWindow <= 0 {
		t.Error("DefaultRateWindow must be positive")
	}
	if DefaultCleanupInterval <= 0 {
		t.Error("DefaultCleanupInterval must be positive")
	}
	if ActiveChatWindow <= 0 {
		t.Error("ActiveChatWindow must be positive")
	}
	if InitialRetryDelay <= 0 {
		t.Error("InitialRetryDelay must be positive")
	}
	if MaxRetryDelay < InitialRetryDelay {
		t.Errorf("MaxRetryDelay (%v) must be >= InitialRetryDelay (%v)", MaxRetryDelay, InitialRetryDelay)
	}
	if DefaultRetryAfter <= 0 {
		t.Error("DefaultRetryAfter must be positive")
	}
}

func TestFallbackTextsMentionHumanFollowUp(t *testing.T) {
	// Every provider-failure wording must promise a human follow-up so the
	// visitor is never left without a path forward
	for name, text := range map[string]string{
		"FallbackRateLimitedFormat": FallbackRateLimitedFormat,
		"FallbackUnavailableText":   FallbackUnavailableText,
		"FallbackAuthFailureText":   FallbackAuthFailureText,
	} {
		if !strings.Contains(text, "human agent") {
			t.Errorf("%s must mention a human agent, got %q", name, text)
		}
	}
}

func TestGreetingTextNonEmpty(t *testing.T) {
	if GreetingText == "" {
		t.Error("GreetingText must not be empty")
	}
	if CompletionSystemPrompt == "" {
		t.Error("CompletionSystemPrompt must not be empty")
	}
}
