// Package websocket upgrades HTTP connections for the two chat surfaces:
// the anonymous visitor endpoint and the JWT-authenticated operator endpoint.
package websocket

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/real-rm/livechat/internal/auth"
	"github.com/real-rm/livechat/internal/constants"
	chaterrors "github.com/real-rm/livechat/internal/errors"
	"github.com/real-rm/livechat/internal/hub"
	"github.com/real-rm/livechat/internal/logging"
	"github.com/real-rm/livechat/internal/message"
	"github.com/real-rm/livechat/internal/metrics"
	"github.com/real-rm/livechat/internal/ratelimit"
	"github.com/real-rm/livechat/internal/router"
	"github.com/real-rm/livechat/internal/store"
	"github.com/real-rm/livechat/internal/util"
)

// upgrader configures the WebSocket upgrade.
// TLS termination is the reverse proxy's job; CheckOrigin is set per-handler.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Handler upgrades and services WebSocket connections.
type Handler struct {
	router         *router.Router
	hub            *hub.Hub
	jwt            *auth.JWTManager
	logger         *logging.Logger
	connLimiter    *ratelimit.ConnectionLimiter
	allowedOrigins map[string]bool
	maxMessageSize int64

	clients map[string]*Client
	mu      sync.RWMutex
}

// NewHandler creates a Handler.
func NewHandler(rt *router.Router, h *hub.Hub, jwt *auth.JWTManager, logger *logging.Logger, maxConnsPerIP int, maxMessageSize int64) *Handler {
	if maxConnsPerIP <= 0 {
		maxConnsPerIP = constants.MaxConnectionsPerIP
	}
	if maxMessageSize <= 0 {
		maxMessageSize = constants.DefaultMaxMessageSize
	}

	return &Handler{
		router:         rt,
		hub:            h,
		jwt:            jwt,
		logger:         logger.Sub("websocket"),
		connLimiter:    ratelimit.NewConnectionLimiter(maxConnsPerIP),
		allowedOrigins: make(map[string]bool),
		maxMessageSize: maxMessageSize,
		clients:        make(map[string]*Client),
	}
}

// SetAllowedOrigins configures the origins accepted for upgrades.
// An empty list allows all origins (development mode).
func (h *Handler) SetAllowedOrigins(origins []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.allowedOrigins = make(map[string]bool)
	for _, origin := range origins {
		h.allowedOrigins[origin] = true
	}

	h.logger.Info("Configured allowed origins",
		"count", len(origins),
		"origins", origins)
}

// checkOrigin validates the Origin header of an upgrade request
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	h.mu.RLock()
	defer h.mu.RUnlock()

	// No else needed: early return pattern (empty list allows all)
	if len(h.allowedOrigins) == 0 {
		return true
	}

	if h.allowedOrigins[origin] {
		return true
	}

	h.logger.Warn("Origin not allowed", "origin", origin)
	return false
}

// HandleVisitor upgrades an anonymous visitor connection. Identity arrives
// later over the socket as a join event; the only gate here is the per-IP
// connection limit.
func (h *Handler) HandleVisitor(w http.ResponseWriter, r *http.Request, clientIP string) {
	// No else needed: early return pattern (guard clause)
	if !h.connLimiter.Allow(clientIP) {
		h.logger.Warn("Connection limit exceeded", "network_origin", clientIP)
		chatErr := chaterrors.ErrConnectionLimitExceeded(5 * time.Second)
		http.Error(w, chatErr.Message, http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrade(w, r)
	// No else needed: early return pattern (guard clause)
	if err != nil {
		h.connLimiter.Release(clientIP)
		return
	}

	client := newClient(conn, h.newConnectionID("v"), KindVisitor)
	client.networkOrigin = clientIP
	h.register(client)

	h.logger.Info("Visitor connection established",
		"connection_id", client.ID(),
		"network_origin", clientIP)

	util.SafeGo(h.logger, "visitorReadPump", func() { h.visitorReadPump(client, clientIP) })
	util.SafeGo(h.logger, "writePump", func() { client.writePump() })
}

// HandleOperator upgrades an operator connection. The JWT is validated
// before the upgrade; a bad token never reaches the socket layer.
func (h *Handler) HandleOperator(w http.ResponseWriter, r *http.Request) {
	token, err := util.ExtractBearerToken(r.Header.Get(constants.HeaderAuthorization))
	if err != nil {
		token = r.URL.Query().Get("token")
		// No else needed: optional operation (deprecation warning only)
		if token != "" {
			h.logger.Warn("JWT provided via query parameter (deprecated, use Authorization header)")
		}
	}

	// No else needed: early return pattern (guard clause)
	if token == "" {
		http.Error(w, "Missing authentication token", http.StatusUnauthorized)
		return
	}

	claims, err := h.jwt.ValidateToken(token)
	// No else needed: early return pattern (guard clause)
	if err != nil {
		h.logger.Warn("JWT validation failed", "error", err)
		http.Error(w, "Authentication failed", http.StatusUnauthorized)
		return
	}

	// No else needed: early return pattern (guard clause)
	if !h.connLimiter.Allow(claims.OperatorID) {
		h.logger.Warn("Operator connection limit exceeded", "operator_id", claims.OperatorID)
		http.Error(w, "Too many connections", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrade(w, r)
	// No else needed: early return pattern (guard clause)
	if err != nil {
		h.connLimiter.Release(claims.OperatorID)
		return
	}

	client := newClient(conn, h.newConnectionID("o"), KindOperator)
	client.OperatorID = claims.OperatorID
	client.OperatorName = claims.Name
	client.Roles = claims.Roles
	h.register(client)

	// Operators implicitly join the shared room and see all session traffic
	h.hub.Join(hub.OperatorRoom, client)

	h.logger.Info("Operator connection established",
		"connection_id", client.ID(),
		"operator_id", claims.OperatorID)

	util.SafeGo(h.logger, "operatorReadPump", func() { h.operatorReadPump(client) })
	util.SafeGo(h.logger, "writePump", func() { client.writePump() })
}

func (h *Handler) upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	localUpgrader := upgrader
	localUpgrader.CheckOrigin = h.checkOrigin

	conn, err := localUpgrader.Upgrade(w, r, nil)
	// No else needed: early return pattern (guard clause)
	if err != nil {
		util.LogError(h.logger, "websocket", "upgrade connection", err)
		return nil, err
	}

	conn.SetReadLimit(h.maxMessageSize)
	return conn, nil
}

// newConnectionID generates a unique connection identifier
func (h *Handler) newConnectionID(prefix string) string {
	randomBytes := make([]byte, 8)
	// No else needed: fallback logic for rare error case
	if _, err := rand.Read(randomBytes); err != nil {
		util.LogError(h.logger, "websocket", "generate connection ID", err)
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixNano(), hex.EncodeToString(randomBytes))
}

func (h *Handler) register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID()] = client
	h.mu.Unlock()

	client.trackOpen()
}

func (h *Handler) unregister(client *Client, limiterKey string) {
	h.mu.Lock()
	_, exists := h.clients[client.ID()]
	// No else needed: early return pattern (guard clause)
	if !exists {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.ID())
	h.mu.Unlock()

	client.SetClosing()
	close(client.send)
	client.trackClosed()
	h.hub.LeaveAll(client)
	h.connLimiter.Release(limiterKey)
}

// visitorReadPump reads envelopes from a visitor connection. Until the join
// event resolves a session, every other event is rejected with an error
// frame.
func (h *Handler) visitorReadPump(client *Client, clientIP string) {
	defer func() {
		h.logger.Info("Visitor connection closed",
			"connection_id", client.ID(),
			"network_origin", clientIP)
		h.unregister(client, clientIP)
		client.Close()
	}()

	h.configureRead(client)

	for {
		_, frame, err := client.conn.ReadMessage()
		// No else needed: error handling with break (exits loop)
		if err != nil {
			h.logReadError(client, err)
			break
		}

		var env message.Envelope
		// No else needed: error handling with continue (skips to next iteration)
		if err := json.Unmarshal(frame, &env); err != nil {
			metrics.MessageErrors.Inc()
			h.sendError(client, chaterrors.ErrInvalidMessageFormat("malformed envelope", err))
			continue
		}

		h.dispatchVisitorEvent(client, clientIP, &env)
	}
}

// dispatchVisitorEvent routes one visitor envelope to its handler.
func (h *Handler) dispatchVisitorEvent(client *Client, clientIP string, env *message.Envelope) {
	ctx, cancel := util.NewTimeoutContext(constants.DefaultContextTimeout)
	defer cancel()

	switch env.Event {
	case message.EventJoin:
		var payload message.JoinPayload
		// No else needed: error handling with early return
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			h.sendError(client, chaterrors.ErrInvalidMessageFormat("malformed join payload", err))
			return
		}

		sess, err := h.router.HandleJoin(ctx, client, &payload, clientIP)
		// No else needed: error handling with early return
		if err != nil {
			h.sendError(client, err)
			return
		}

		client.SetSession(sess)
		h.hub.Join(sess.ID, client)

	case message.EventMessage:
		var payload message.VisitorMessagePayload
		// No else needed: error handling with early return
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			metrics.MessageErrors.Inc()
			h.sendError(client, chaterrors.ErrInvalidMessageFormat("malformed message payload", err))
			return
		}

		sess, err := h.resolveMessageSession(ctx, client, clientIP, &payload)
		// No else needed: error handling with early return
		if err != nil {
			h.sendError(client, err)
			return
		}

		// No else needed: error handling (reported to client)
		if err := h.router.HandleVisitorMessage(ctx, sess, &payload); err != nil {
			h.sendError(client, err)
		}

	case message.EventGetChatHistory:
		sess := client.Session()
		// No else needed: early return pattern (guard clause)
		if sess == nil {
			h.sendError(client, chaterrors.ErrSessionNotFound(""))
			return
		}

		// No else needed: error handling (reported to client)
		if err := h.router.HandleChatHistory(ctx, client, sess); err != nil {
			h.sendError(client, err)
		}

	case message.EventTypingState:
		var payload message.TypingState
		// No else needed: error handling with early return
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return
		}
		h.router.HandleVisitorTyping(client.Session(), payload.Typing)

	default:
		h.sendError(client, chaterrors.ErrInvalidMessageFormat(
			fmt.Sprintf("unknown event %q", env.Event), nil))
	}
}

// resolveMessageSession finds the session a visitor message belongs to. The
// session established at join time wins; a structured payload carrying its
// own token can establish one on the fly, which the legacy bare-string form
// cannot.
func (h *Handler) resolveMessageSession(ctx context.Context, client *Client, clientIP string, payload *message.VisitorMessagePayload) (*store.VisitorSession, error) {
	// No else needed: early return pattern (session already resolved)
	if sess := client.Session(); sess != nil {
		return sess, nil
	}

	// No else needed: early return pattern (guard clause)
	if util.IsBlank(payload.Token) {
		return nil, chaterrors.ErrSessionNotFound("")
	}

	sess, err := h.router.ResolveSession(ctx, payload.Token, clientIP, "")
	// No else needed: early return pattern (guard clause)
	if err != nil {
		return nil, err
	}

	client.SetSession(sess)
	h.hub.Join(sess.ID, client)
	return sess, nil
}

// operatorReadPump reads envelopes from an operator connection.
func (h *Handler) operatorReadPump(client *Client) {
	defer func() {
		h.logger.Info("Operator connection closed",
			"connection_id", client.ID(),
			"operator_id", client.OperatorID)
		h.unregister(client, client.OperatorID)
		client.Close()
	}()

	h.configureRead(client)

	for {
		_, frame, err := client.conn.ReadMessage()
		// No else needed: error handling with break (exits loop)
		if err != nil {
			h.logReadError(client, err)
			break
		}

		var env message.Envelope
		// No else needed: error handling with continue (skips to next iteration)
		if err := json.Unmarshal(frame, &env); err != nil {
			metrics.MessageErrors.Inc()
			h.sendError(client, chaterrors.ErrInvalidMessageFormat("malformed envelope", err))
			continue
		}

		h.dispatchOperatorEvent(client, &env)
	}
}

// dispatchOperatorEvent routes one operator envelope to its handler. The
// acting operator identity always comes from the validated JWT claims, never
// from the payload.
func (h *Handler) dispatchOperatorEvent(client *Client, env *message.Envelope) {
	ctx, cancel := util.NewTimeoutContext(constants.DefaultContextTimeout)
	defer cancel()

	switch env.Event {
	case message.EventOperatorMessage:
		var payload message.OperatorMessagePayload
		// No else needed: error handling with early return
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			metrics.MessageErrors.Inc()
			h.sendError(client, chaterrors.ErrInvalidMessageFormat("malformed operator payload", err))
			return
		}

		// No else needed: error handling (reported to client)
		if err := h.router.HandleOperatorMessage(ctx, client.OperatorID, &payload); err != nil {
			h.sendError(client, err)
		}

	case message.EventGetChatHistory:
		var payload struct {
			ID string `json:"id"`
		}
		// No else needed: error handling with early return
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			h.sendError(client, chaterrors.ErrInvalidMessageFormat("malformed history request", err))
			return
		}

		sess, err := h.router.LookupSessionRef(ctx, payload.ID)
		// No else needed: error handling with early return
		if err != nil {
			h.sendError(client, err)
			return
		}

		// No else needed: error handling (reported to client)
		if err := h.router.HandleChatHistory(ctx, client, sess); err != nil {
			h.sendError(client, err)
		}

	case message.EventTypingState:
		var payload message.TypingState
		// No else needed: error handling with early return
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return
		}
		// No else needed: optional operation (relay failure reported to client)
		if err := h.router.HandleOperatorTyping(ctx, payload.SessionRef, payload.Typing); err != nil {
			h.sendError(client, err)
		}

	default:
		h.sendError(client, chaterrors.ErrInvalidMessageFormat(
			fmt.Sprintf("unknown event %q", env.Event), nil))
	}
}

// configureRead sets the read deadline and pong handler
func (h *Handler) configureRead(client *Client) {
	client.conn.SetReadDeadline(time.Now().Add(constants.PongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(constants.PongWait))
		return nil
	})
}

func (h *Handler) logReadError(client *Client, err error) {
	// No else needed: specific error handling (logs and continues)
	if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
		util.LogError(h.logger, "websocket", "handle unexpected close", err,
			"connection_id", client.ID())
	} else {
		h.logger.Debug("Connection closing",
			"connection_id", client.ID(),
			"error", err)
	}
}

func (h *Handler) sendError(client *Client, err error) {
	h.router.HandleError(client, err)
}

// Shutdown closes all active connections, respecting the context deadline.
func (h *Handler) Shutdown(ctx context.Context) error {
	h.logger.Info("Shutting down WebSocket handler, closing all connections")

	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	var wg sync.WaitGroup
	for _, c := range clients {
		wg.Add(1)
		go func(client *Client) {
			defer wg.Done()

			client.mu.Lock()
			if client.conn != nil {
				client.conn.SetWriteDeadline(time.Now().Add(constants.WriteWait))
				client.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down"))
			}
			client.mu.Unlock()

			client.Close()
		}(c)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.logger.Info("All WebSocket connections closed gracefully")
		return nil
	case <-ctx.Done():
		h.logger.Warn("Shutdown deadline exceeded, forcing closure",
			"remaining_connections", len(clients))
		return ctx.Err()
	}
}
