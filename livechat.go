// Package livechat wires the chat routing service: WebSocket endpoints for
// visitors and operators, the operator HTTP API, and the health and metrics
// surfaces.
package livechat

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/real-rm/livechat/internal/auth"
	"github.com/real-rm/livechat/internal/completion"
	"github.com/real-rm/livechat/internal/config"
	"github.com/real-rm/livechat/internal/constants"
	chaterrors "github.com/real-rm/livechat/internal/errors"
	"github.com/real-rm/livechat/internal/httperrors"
	"github.com/real-rm/livechat/internal/hub"
	"github.com/real-rm/livechat/internal/logging"
	"github.com/real-rm/livechat/internal/message"
	"github.com/real-rm/livechat/internal/metrics"
	"github.com/real-rm/livechat/internal/ratelimit"
	"github.com/real-rm/livechat/internal/router"
	"github.com/real-rm/livechat/internal/session"
	"github.com/real-rm/livechat/internal/store"
	"github.com/real-rm/livechat/internal/util"
	"github.com/real-rm/livechat/internal/websocket"
)

var (
	// Global references for graceful shutdown
	globalWSHandler     *websocket.Handler
	globalRouter        *router.Router
	globalAdminLimiter  *ratelimit.MessageLimiter
	globalPublicLimiter *ratelimit.MessageLimiter
	globalLogger        *logging.Logger
	shutdownMu          sync.Mutex
)

// Register registers all chat service routes on the given engine.
func Register(r *gin.Engine, cfg *config.Config, logger *logging.Logger, client *mongo.Client) error {
	serviceLogger := logger.Sub("livechat")
	serviceLogger.Info("Initializing chat service")

	// No else needed: early return pattern (guard clause)
	if err := cfg.Validate(); err != nil {
		serviceLogger.Error("Configuration validation failed", "error", err)
		return err
	}

	st := store.New(client, cfg.Database.Database, serviceLogger)

	// Index creation is non-fatal: operators can create them manually
	indexCtx, indexCancel := util.NewTimeoutContext(constants.MongoIndexTimeout)
	defer indexCancel()
	// No else needed: optional operation (non-critical index creation)
	if err := st.EnsureIndexes(indexCtx); err != nil {
		serviceLogger.Warn("Failed to create MongoDB indexes", "error", err)
	}

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	eventHub := hub.New(serviceLogger)
	registry := session.NewRegistry(st, eventHub, serviceLogger)

	tracker := ratelimit.NewTracker()
	gateway := completion.NewGateway(cfg.Completion, tracker, serviceLogger)

	messageRouter := router.New(registry, st, gateway, eventHub,
		cfg.RateLimit.Window, cfg.RateLimit.MessagesPerMinute, serviceLogger)

	wsHandler := websocket.NewHandler(messageRouter, eventHub, jwtManager, serviceLogger,
		cfg.Server.MaxConnectionsPerIP, constants.DefaultMaxMessageSize)

	// SECURITY: when no origins are configured, all origins are accepted.
	// Acceptable only in development; production deployments must set
	// server.cors_allowed_origins.
	origins := splitAndTrim(cfg.Server.CORSAllowedOrigins)
	if len(origins) > 0 {
		wsHandler.SetAllowedOrigins(origins)

		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", constants.HeaderRetryAfter},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))

		serviceLogger.Info("CORS middleware configured", "allowed_origins", origins)
	} else {
		serviceLogger.Warn("No origins configured, allowing all origins (development mode)")
	}

	// Trusted proxies keep c.ClientIP() honest behind the load balancer
	// No else needed: optional operation (proxy configuration)
	if proxies := splitAndTrim(cfg.Server.TrustedProxies); len(proxies) > 0 {
		// No else needed: optional operation (logging based on result)
		if err := r.SetTrustedProxies(proxies); err != nil {
			serviceLogger.Warn("Failed to set trusted proxies", "error", err)
		} else {
			serviceLogger.Info("Trusted proxies configured", "proxies", proxies)
		}
	}

	r.Use(requestTraceMiddleware())
	r.Use(securityHeadersMiddleware())
	r.Use(metricsMiddleware())

	adminLimiter := ratelimit.NewMessageLimiter(cfg.RateLimit.Window, cfg.RateLimit.AdminPerMinute)
	publicLimiter := ratelimit.NewMessageLimiter(cfg.RateLimit.Window, cfg.RateLimit.PublicPerMinute)
	adminLimiter.StartCleanup()
	publicLimiter.StartCleanup()

	// Stop any previously-registered instances to prevent goroutine leaks
	// when Register is called multiple times (tests, hot-reload)
	shutdownMu.Lock()
	if globalRouter != nil {
		globalRouter.Shutdown()
	}
	if globalAdminLimiter != nil {
		globalAdminLimiter.StopCleanup()
	}
	if globalPublicLimiter != nil {
		globalPublicLimiter.StopCleanup()
	}
	if globalWSHandler != nil {
		_ = globalWSHandler.Shutdown(context.Background())
	}
	globalWSHandler = wsHandler
	globalRouter = messageRouter
	globalAdminLimiter = adminLimiter
	globalPublicLimiter = publicLimiter
	globalLogger = serviceLogger
	shutdownMu.Unlock()

	// Visitor WebSocket endpoint: anonymous, identity arrives as a join event
	r.GET("/ws", func(c *gin.Context) {
		wsHandler.HandleVisitor(c.Writer, c.Request, c.ClientIP())
	})

	// Operator WebSocket endpoint: JWT required before upgrade
	r.GET("/ws/operator", func(c *gin.Context) {
		wsHandler.HandleOperator(c.Writer, c.Request)
	})

	// Operator HTTP API
	adminGroup := r.Group("/api/admin")
	adminGroup.POST("/login", publicRateLimitMiddleware(publicLimiter, serviceLogger),
		handleLogin(st, jwtManager, serviceLogger))

	authed := adminGroup.Group("")
	authed.Use(authMiddleware(jwtManager, serviceLogger))
	authed.Use(adminRateLimitMiddleware(adminLimiter, serviceLogger))
	{
		authed.GET("/chats", handleListChats(st, serviceLogger))
		authed.GET("/chat/:id", handleGetChat(st, serviceLogger))
		authed.POST("/reply", handleReply(messageRouter, serviceLogger))
		authed.POST("/assign-chat", handleAssignChat(st, eventHub, serviceLogger))
		authed.PATCH("/toggle-ai", handleToggleAI(st, eventHub, serviceLogger))
		authed.GET("/stats", handleStats(st, serviceLogger))
		authed.GET("/ai-status", handleAIStatus(tracker))
	}

	// Health check endpoints (rate limited to prevent abuse)
	r.GET("/healthz", publicRateLimitMiddleware(publicLimiter, serviceLogger), handleHealthCheck)
	r.GET("/readyz", publicRateLimitMiddleware(publicLimiter, serviceLogger), handleReadyCheck(st, serviceLogger))

	// Prometheus metrics endpoint, restricted to configured networks
	metricsNets := parseNetworks(cfg.Server.MetricsAllowedNetworks, serviceLogger)
	r.GET("/metrics",
		metricsNetworkMiddleware(metricsNets, serviceLogger),
		publicRateLimitMiddleware(publicLimiter, serviceLogger),
		gin.WrapH(promhttp.Handler()),
	)

	serviceLogger.Info("Chat service registered",
		"visitor_endpoint", "/ws",
		"operator_endpoint", "/ws/operator",
		"admin_api", "/api/admin/*",
		"metrics_endpoint", "/metrics",
	)

	return nil
}

// Shutdown gracefully shuts down the chat service: background goroutines
// stop first, then all WebSocket connections close within the context
// deadline.
func Shutdown(ctx context.Context) error {
	shutdownMu.Lock()
	defer shutdownMu.Unlock()

	// No else needed: optional operation (logging during shutdown)
	if globalLogger != nil {
		globalLogger.Info("Starting graceful shutdown of chat service")
	}

	// No else needed: optional operation (cleanup stop)
	if globalRouter != nil {
		globalRouter.Shutdown()
	}
	if globalAdminLimiter != nil {
		globalAdminLimiter.StopCleanup()
	}
	if globalPublicLimiter != nil {
		globalPublicLimiter.StopCleanup()
	}

	// No else needed: optional operation (WebSocket shutdown with error handling)
	if globalWSHandler != nil {
		// No else needed: early return pattern (guard clause)
		if err := globalWSHandler.Shutdown(ctx); err != nil {
			// No else needed: optional operation (error logging)
			if globalLogger != nil {
				globalLogger.Warn("WebSocket handler shutdown error", "error", err)
			}
			return err
		}
	}

	// No else needed: optional operation (final logging)
	if globalLogger != nil {
		globalLogger.Info("Chat service shutdown complete")
	}

	return nil
}

// requestTraceMiddleware stamps every request context with a trace ID and
// echoes it back in the response so clients and logs can correlate. An
// inbound X-Request-ID is honored; otherwise one is generated.
func requestTraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		// No else needed: conditional assignment (caller-supplied ID wins)
		if incoming := c.GetHeader(constants.HeaderRequestID); incoming != "" {
			ctx = util.ContextWithTraceID(ctx, incoming)
		} else {
			ctx = util.NewContextWithTraceID(ctx)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Header(constants.HeaderRequestID, util.TraceIDFromContext(ctx))
		c.Next()
	}
}

// securityHeadersMiddleware adds standard HTTP security headers to all responses.
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Next()
	}
}

// metricsMiddleware counts HTTP requests by path, method and status
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		metrics.HTTPRequests.WithLabelValues(
			c.FullPath(),
			c.Request.Method,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
	}
}

// publicRateLimitMiddleware limits public endpoints (login, healthz, readyz,
// metrics) by client IP.
func publicRateLimitMiddleware(limiter *ratelimit.MessageLimiter, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		// No else needed: early return pattern (guard clause)
		if !limiter.Allow(clientIP) {
			respondRateLimited(c, limiter.GetRetryAfter(clientIP))
			return
		}

		c.Next()
	}
}

// authMiddleware validates the operator JWT on HTTP API requests
func authMiddleware(jwtManager *auth.JWTManager, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := util.ExtractBearerToken(c.GetHeader(constants.HeaderAuthorization))
		// No else needed: early return pattern (guard clause)
		if err != nil {
			httperrors.RespondUnauthorized(c, httperrors.MsgInvalidAuthHeader)
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateToken(token)
		// No else needed: early return pattern (guard clause)
		if err != nil {
			logger.Warn("Token validation failed",
				"error", err,
				"component", "auth")
			httperrors.RespondInvalidToken(c)
			c.Abort()
			return
		}

		// No else needed: early return pattern (guard clause)
		if !util.HasRole(claims.Roles, constants.RoleOperator, constants.RoleAdmin) {
			logger.Warn("Insufficient permissions for operator endpoint",
				"operator_id", claims.OperatorID,
				"roles", claims.Roles,
				"component", "auth")
			httperrors.RespondForbidden(c)
			c.Abort()
			return
		}

		c.Set("claims", claims)
		c.Next()
	}
}

// adminRateLimitMiddleware limits authenticated API requests per operator
func adminRateLimitMiddleware(limiter *ratelimit.MessageLimiter, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := claimsFromContext(c)
		// No else needed: early return pattern (authMiddleware handles missing claims)
		if claims == nil {
			c.Next()
			return
		}

		// No else needed: early return pattern (guard clause)
		if !limiter.Allow(claims.OperatorID) {
			retryAfter := limiter.GetRetryAfter(claims.OperatorID)
			logger.Warn("Operator rate limit exceeded",
				"operator_id", claims.OperatorID,
				"endpoint", c.Request.URL.Path,
				"retry_after_ms", retryAfter,
				"component", "admin_rate_limit")
			respondRateLimited(c, retryAfter)
			return
		}

		c.Next()
	}
}

func respondRateLimited(c *gin.Context, retryAfterMillis int) {
	retryAfterSeconds := (retryAfterMillis + constants.MillisecondsPerSecond - 1) / constants.MillisecondsPerSecond
	// No else needed: optional operation (minimum retry after enforcement)
	if retryAfterSeconds < constants.MinRetryAfterSeconds {
		retryAfterSeconds = constants.MinRetryAfterSeconds
	}
	c.Header(constants.HeaderRetryAfter, strconv.Itoa(retryAfterSeconds))
	c.JSON(http.StatusTooManyRequests, gin.H{
		"error":   "rate_limit_exceeded",
		"message": constants.ErrMsgRateLimitExceeded,
	})
	c.Abort()
}

func claimsFromContext(c *gin.Context) *auth.Claims {
	claimsInterface, exists := c.Get("claims")
	// No else needed: early return pattern (guard clause)
	if !exists {
		return nil
	}
	claims, ok := claimsInterface.(*auth.Claims)
	// No else needed: early return pattern (guard clause)
	if !ok {
		return nil
	}
	return claims
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleLogin authenticates an operator and issues a JWT. Failed lookups and
// bad passwords produce the same response so usernames cannot be probed.
func handleLogin(st *store.Store, jwtManager *auth.JWTManager, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		// No else needed: early return pattern (guard clause)
		if err := c.ShouldBindJSON(&req); err != nil {
			httperrors.RespondBadRequest(c, "username and password are required")
			return
		}
		if util.IsBlank(req.Username) || req.Password == "" {
			httperrors.RespondBadRequest(c, "username and password are required")
			return
		}

		operator, err := st.GetOperatorByUsername(c.Request.Context(), req.Username)
		// No else needed: early return pattern (guard clause)
		if err != nil {
			// No else needed: specific error handling (unknown user vs store failure)
			if errors.Is(err, store.ErrOperatorNotFound) {
				httperrors.RespondUnauthorized(c, httperrors.MsgInvalidCredentials)
				return
			}
			util.LogError(logger, "http", "look up operator", err, "username", req.Username)
			httperrors.RespondInternalError(c)
			return
		}

		// No else needed: early return pattern (guard clause)
		if err := auth.CheckPassword(operator.PasswordHash, req.Password); err != nil {
			logger.Warn("Login failed", "username", req.Username, "component", "auth")
			httperrors.RespondUnauthorized(c, httperrors.MsgInvalidCredentials)
			return
		}

		token, err := jwtManager.IssueToken(operator.ID, operator.DisplayName, operator.Roles)
		// No else needed: early return pattern (guard clause)
		if err != nil {
			util.LogError(logger, "http", "issue token", err, "operator_id", operator.ID)
			httperrors.RespondInternalError(c)
			return
		}

		logger.Info("Operator logged in", "operator_id", operator.ID, "username", operator.Username)

		c.JSON(http.StatusOK, gin.H{
			"token": token,
			"operator": gin.H{
				"id":          operator.ID,
				"username":    operator.Username,
				"displayName": operator.DisplayName,
				"roles":       operator.Roles,
			},
		})
	}
}

// handleListChats lists visitor sessions, most recently active first
func handleListChats(st *store.Store, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := constants.DefaultChatListLimit
		// No else needed: optional operation (limit parsing with validation)
		if l, err := strconv.Atoi(c.DefaultQuery("limit", "")); err == nil && l > 0 {
			limit = l
		}

		sessions, err := st.ListSessions(c.Request.Context(), limit)
		// No else needed: early return pattern (guard clause)
		if err != nil {
			util.LogError(logger, "http", "list sessions", err)
			httperrors.RespondInternalError(c)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"chats": sessions,
			"count": len(sessions),
		})
	}
}

// handleGetChat returns one session with its full message history
func handleGetChat(st *store.Store, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("id")
		// No else needed: early return pattern (guard clause)
		if util.IsBlank(sessionID) {
			httperrors.RespondBadRequest(c, "session id is required")
			return
		}

		sess, err := st.GetSession(c.Request.Context(), sessionID)
		// No else needed: early return pattern (guard clause)
		if err != nil {
			if errors.Is(err, store.ErrSessionNotFound) {
				httperrors.RespondNotFound(c, httperrors.MsgSessionNotFound)
				return
			}
			util.LogError(logger, "http", "get session", err, "session_id", sessionID)
			httperrors.RespondInternalError(c)
			return
		}

		messages, err := st.ListMessages(c.Request.Context(), sess.ID)
		// No else needed: early return pattern (guard clause)
		if err != nil {
			util.LogError(logger, "http", "list messages", err, "session_id", sessionID)
			httperrors.RespondInternalError(c)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"chat":     sess,
			"messages": messages,
		})
	}
}

type replyRequest struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// handleReply sends an operator message into a session over HTTP. It runs
// the same path as the WebSocket operator endpoint, so the visitor and the
// operator room both see the message.
func handleReply(messageRouter *router.Router, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := claimsFromContext(c)
		// No else needed: early return pattern (guard clause)
		if claims == nil {
			httperrors.RespondUnauthorized(c, "")
			return
		}

		var req replyRequest
		// No else needed: early return pattern (guard clause)
		if err := c.ShouldBindJSON(&req); err != nil {
			httperrors.RespondBadRequest(c, "id and message are required")
			return
		}

		err := messageRouter.HandleOperatorMessage(c.Request.Context(), claims.OperatorID,
			&message.OperatorMessagePayload{
				TargetSessionRef: req.ID,
				Body:             req.Message,
			})
		// No else needed: early return pattern (guard clause)
		if err != nil {
			respondChatError(c, logger, "send operator reply", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "sent"})
	}
}

type assignChatRequest struct {
	ID         string `json:"id"`
	OperatorID string `json:"operatorId"`
}

// handleAssignChat assigns a session to an operator. Omitting operatorId
// assigns it to the caller.
func handleAssignChat(st *store.Store, eventHub *hub.Hub, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := claimsFromContext(c)
		// No else needed: early return pattern (guard clause)
		if claims == nil {
			httperrors.RespondUnauthorized(c, "")
			return
		}

		var req assignChatRequest
		// No else needed: early return pattern (guard clause)
		if err := c.ShouldBindJSON(&req); err != nil || util.IsBlank(req.ID) {
			httperrors.RespondBadRequest(c, "id is required")
			return
		}

		operatorID := req.OperatorID
		if operatorID == "" {
			operatorID = claims.OperatorID
		}

		// No else needed: early return pattern (guard clause)
		if err := st.AssignOperator(c.Request.Context(), req.ID, operatorID); err != nil {
			if errors.Is(err, store.ErrSessionNotFound) {
				httperrors.RespondNotFound(c, httperrors.MsgSessionNotFound)
				return
			}
			util.LogError(logger, "http", "assign operator", err, "session_id", req.ID)
			httperrors.RespondInternalError(c)
			return
		}

		logger.Info("Chat assigned",
			"session_id", req.ID,
			"operator_id", operatorID,
			"assigned_by", claims.OperatorID)

		eventHub.PublishOperators(message.EventChatAssigned, gin.H{
			"id":         req.ID,
			"operatorId": operatorID,
		})

		c.JSON(http.StatusOK, gin.H{"status": "assigned"})
	}
}

type toggleAIRequest struct {
	ID      string `json:"id"`
	Enabled *bool  `json:"enabled"`
}

// handleToggleAI flips AI responding for one session. The setting only
// affects whether completions are attempted; recorded provider rate limits
// are advisory and never block a toggle.
func handleToggleAI(st *store.Store, eventHub *hub.Hub, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req toggleAIRequest
		// No else needed: early return pattern (guard clause)
		if err := c.ShouldBindJSON(&req); err != nil || util.IsBlank(req.ID) || req.Enabled == nil {
			httperrors.RespondBadRequest(c, "id and enabled are required")
			return
		}

		// No else needed: early return pattern (guard clause)
		if err := st.SetAIEnabled(c.Request.Context(), req.ID, *req.Enabled); err != nil {
			if errors.Is(err, store.ErrSessionNotFound) {
				httperrors.RespondNotFound(c, httperrors.MsgSessionNotFound)
				return
			}
			util.LogError(logger, "http", "toggle AI", err, "session_id", req.ID)
			httperrors.RespondInternalError(c)
			return
		}

		logger.Info("AI toggled", "session_id", req.ID, "enabled", *req.Enabled)

		eventHub.PublishOperators(message.EventAIToggled, gin.H{
			"id":      req.ID,
			"enabled": *req.Enabled,
		})

		c.JSON(http.StatusOK, gin.H{
			"id":      req.ID,
			"enabled": *req.Enabled,
		})
	}
}

// handleStats returns aggregate chat counters for the operator dashboard
func handleStats(st *store.Store, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := st.GetStats(c.Request.Context())
		// No else needed: early return pattern (guard clause)
		if err != nil {
			util.LogError(logger, "http", "get stats", err)
			httperrors.RespondInternalError(c)
			return
		}

		c.JSON(http.StatusOK, stats)
	}
}

// handleAIStatus reports the advisory provider rate-limit state
func handleAIStatus(tracker *ratelimit.Tracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, tracker.CurrentStatus())
	}
}

// handleHealthCheck is the liveness probe: responding at all means alive
func handleHealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReadyCheck is the readiness probe: the service is ready when the
// database responds.
func handleReadyCheck(st *store.Store, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := util.NewTimeoutContext(constants.HealthCheckTimeout)
		defer cancel()

		// No else needed: early return pattern (guard clause)
		if err := st.Ping(ctx); err != nil {
			logger.Warn("MongoDB health check failed",
				"error", err,
				"component", "health")
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "not ready",
				"timestamp": time.Now().UTC().Format(time.RFC3339),
				"checks": gin.H{
					"mongodb": gin.H{"status": "not ready", "reason": "Database connectivity check failed"},
				},
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"checks": gin.H{
				"mongodb": gin.H{"status": "ready"},
			},
		})
	}
}

// respondChatError maps a routing error to an HTTP status without leaking
// internal detail.
func respondChatError(c *gin.Context, logger *logging.Logger, operation string, err error) {
	util.LogError(logger, "http", operation, err)

	var chatErr *chaterrors.ChatError
	// No else needed: specific error handling (typed errors get precise status)
	if errors.As(err, &chatErr) {
		switch chatErr.Code {
		case chaterrors.ErrCodeSessionNotFound:
			httperrors.RespondNotFound(c, httperrors.MsgSessionNotFound)
		case chaterrors.ErrCodeInvalidFormat, chaterrors.ErrCodeEmptyMessage, chaterrors.ErrCodeMissingField:
			httperrors.RespondBadRequest(c, chatErr.Message)
		default:
			httperrors.RespondInternalError(c)
		}
		return
	}

	httperrors.RespondInternalError(c)
}

// parseNetworks parses a comma-separated list of CIDR network strings.
func parseNetworks(networksStr string, logger *logging.Logger) []*net.IPNet {
	var nets []*net.IPNet
	for _, cidr := range strings.Split(networksStr, ",") {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			logger.Warn("Invalid CIDR in metrics_allowed_networks", "cidr", cidr, "error", err)
			continue
		}
		nets = append(nets, ipNet)
	}
	return nets
}

// metricsNetworkMiddleware restricts the metrics endpoint to configured networks.
func metricsNetworkMiddleware(allowedNets []*net.IPNet, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// No else needed: early return pattern (empty list allows all, development mode)
		if len(allowedNets) == 0 {
			c.Next()
			return
		}

		clientIP := net.ParseIP(c.ClientIP())
		// No else needed: early return pattern (guard clause)
		if clientIP == nil {
			logger.Warn("Could not parse client IP for metrics access", "ip", c.ClientIP())
			httperrors.RespondForbidden(c)
			c.Abort()
			return
		}

		for _, ipNet := range allowedNets {
			if ipNet.Contains(clientIP) {
				c.Next()
				return
			}
		}

		logger.Warn("Metrics access denied from unauthorized network",
			"client_ip", c.ClientIP(),
			"component", "metrics")
		httperrors.RespondForbidden(c)
		c.Abort()
	}
}

// splitAndTrim turns a comma-separated config value into a cleaned slice.
func splitAndTrim(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		// No else needed: optional operation (skip empty entries)
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
