// Package constants provides centralized constant definitions for the livechat service.
// This eliminates magic numbers and strings throughout the codebase.
package constants

import "time"

// Timeouts for various operations
const (
	DefaultContextTimeout = 10 * time.Second // Standard database operations
	LongContextTimeout    = 30 * time.Second // Complex queries and index creation
	CompletionTimeout     = 30 * time.Second // Completion provider requests
	MongoIndexTimeout     = 30 * time.Second // MongoDB index creation
	ShortTimeout          = 2 * time.Second  // Quick operations like health checks
	MessageAddTimeout     = 5 * time.Second  // Persisting a single message
	HealthCheckTimeout    = 2 * time.Second  // Health check operations
	StatsTimeout          = 30 * time.Second // Stats aggregation
	ShutdownTimeout       = 15 * time.Second // Graceful shutdown budget
)

// WebSocket timing (write deadline, pong deadline, ping cadence)
const (
	WriteWait  = 10 * time.Second
	PongWait   = 60 * time.Second
	PingPeriod = (PongWait * 9) / 10
)

// Sizes and Limits
const (
	DefaultMaxMessageSize  = 65536  // Max WebSocket frame we accept (bytes)
	MaxMessageBodyLength   = 4000   // Max characters in a chat message body
	SendBufferSize         = 256    // Per-connection outbound channel capacity
	DefaultChatListLimit   = 100    // Default number of sessions to return
	MaxChatListLimit       = 1000   // Maximum sessions per query (performance cap)
	DefaultRateLimit       = 100    // Default messages per minute per connection
	DefaultAdminRateLimit  = 20     // Default admin requests per minute
	MaxRetryAttempts       = 3      // Maximum retry attempts for transient store errors
	MaxEventsPerClient     = 1000   // Maximum rate limit events tracked per client
	MaxClientsTracked      = 100000 // Maximum distinct clients in rate limiter map
	PublicEndpointRate     = 60     // Requests per minute for public endpoints
	MaxProviderErrorBody   = 1024   // Max bytes to read from provider error responses
	MaxConnectionsPerIP    = 10     // Simultaneous sockets allowed per remote address
	DefaultCompletionLimit = 150    // Max tokens requested from the completion provider
)

// HTTP Server Timeouts (for standalone server mode)
const (
	HTTPReadTimeout  = 15 * time.Second  // Maximum time to read the entire request
	HTTPWriteTimeout = 60 * time.Second  // Maximum time to write the response
	HTTPIdleTimeout  = 120 * time.Second // Maximum time to keep idle connections alive
)

// Durations for background operations
const (
	DefaultRateWindow      = 1 * time.Minute // Rate limiting window
	DefaultCleanupInterval = 5 * time.Minute // Cleanup goroutine interval
	ActiveChatWindow       = 1 * time.Hour   // A chat counts as active within this window
	InitialRetryDelay      = 100 * time.Millisecond
	MaxRetryDelay          = 2 * time.Second
	RetryMultiplier        = 2.0
)

// DefaultRetryAfter applies when the provider reports a rate limit without
// a Retry-After value.
const DefaultRetryAfter = 3600 * time.Second

// Sender roles for messages
const (
	SenderVisitor  = "visitor"
	SenderAI       = "ai"
	SenderOperator = "operator"
	SenderSystem   = "system"
)

// Role names for authorization
const (
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)

// GreetingText is emitted to a freshly joined visitor and never persisted.
const GreetingText = "Hello! How can I assist you today?"

// CompletionSystemPrompt frames every provider call.
const CompletionSystemPrompt = "You are a helpful customer service assistant. Keep responses concise and helpful."

// Fallback bodies sent as system notices when the completion provider fails.
// Each wording is distinct per failure kind and always tells the visitor a
// human will follow up.
const (
	FallbackRateLimitedFormat = "AI is temporarily unavailable due to high demand (rate limit reached). Please wait approximately %d hour(s) or a human agent will assist you shortly."
	FallbackUnavailableText   = "AI service is temporarily down. A human agent will help you shortly."
	FallbackAuthFailureText   = "AI service authentication issue. A human agent will assist you."
	FallbackEmptyResponseText = "I apologize, but I'm having trouble processing your request right now."
)

// Default Configuration Values
const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultDatabase          = "livechat"
	DefaultModel             = "gpt-3.5-turbo"
	DefaultPort              = 8080
	DefaultLogLevel          = "info"
	DefaultProviderEndpoint  = "https://api.openai.com/v1"
	DefaultCompletionTimeout = 30 // seconds, config-facing
)

// HTTP Headers
const (
	HeaderAuthorization = "Authorization"
	HeaderRetryAfter    = "Retry-After"
	HeaderRequestID     = "X-Request-ID"
	BearerPrefix        = "Bearer "
	BearerPrefixLength  = 7
)

// Error Messages
const (
	ErrMsgInvalidAuthHeader = "Invalid or missing Authorization header"
	ErrMsgInvalidToken      = "Invalid or expired token"
	ErrMsgForbidden         = "Insufficient permissions"
	ErrMsgInternalError     = "Internal server error"
	ErrMsgRateLimitExceeded = "Too many requests. Please try again later."
	ErrMsgSessionIDRequired = "Session ID is required"
	ErrMsgSessionNotFound   = "Session not found"
	ErrMsgEmptyMessage      = "Message body must not be empty"
)

// MongoDB collection names
const (
	CollectionVisitors  = "visitors"
	CollectionMessages  = "messages"
	CollectionOperators = "operators"
)

// MongoDB field names (BSON tags shared between documents and queries)
const (
	MongoFieldID         = "_id"
	MongoFieldToken      = "token"
	MongoFieldVisitorID  = "visitorId"
	MongoFieldCreatedAt  = "createdAt"
	MongoFieldLastSeenAt = "lastSeenAt"
	MongoFieldAIEnabled  = "aiEnabled"
	MongoFieldOperatorID = "operatorId"
	MongoFieldSender     = "sender"
	MongoFieldUsername   = "username"
)

// MongoDB index names
const (
	IndexVisitorToken     = "idx_visitor_token"
	IndexVisitorLastSeen  = "idx_visitor_last_seen"
	IndexMessageVisitorTs = "idx_message_visitor_ts"
	IndexOperatorUsername = "idx_operator_username"
)

// Weak secrets rejected during configuration validation
var WeakSecrets = []string{
	"secret", "test", "test123", "password", "admin",
	"changeme", "default", "example", "demo", "12345",
	"placeholder",
}

// Minimum Security Requirements
const (
	MinJWTSecretLength = 32 // Minimum length for JWT secret (256 bits)
	MinPasswordLength  = 8  // Minimum password length
)

// Retry After Calculation
const (
	MinRetryAfterSeconds  = 1 // Minimum retry-after value in seconds
	SecondsPerHour        = 3600
	MillisecondsPerSecond = 1000
)

// Network configuration defaults
const (
	DefaultTrustedProxies         = "10.0.0.0/8,172.16.0.0/12,192.168.0.0/16"
	DefaultMetricsAllowedNetworks = "10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8"
)
