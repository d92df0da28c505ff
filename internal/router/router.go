// Package router carries each inbound chat event through its full path:
// persist, fan out, and, for visitor messages, the conditional AI completion
// with per-kind fallback.
package router

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/real-rm/livechat/internal/completion"
	"github.com/real-rm/livechat/internal/constants"
	chaterrors "github.com/real-rm/livechat/internal/errors"
	"github.com/real-rm/livechat/internal/hub"
	"github.com/real-rm/livechat/internal/logging"
	"github.com/real-rm/livechat/internal/message"
	"github.com/real-rm/livechat/internal/metrics"
	"github.com/real-rm/livechat/internal/ratelimit"
	"github.com/real-rm/livechat/internal/store"
	"github.com/real-rm/livechat/internal/util"
)

var (
	// ErrNilClient is returned when a nil client is provided
	ErrNilClient = errors.New("client cannot be nil")
	// ErrNilPayload is returned when a nil payload is provided
	ErrNilPayload = errors.New("payload cannot be nil")
)

// Registry resolves visitor identity (to avoid a hard dependency on the
// session package in tests)
type Registry interface {
	Resolve(ctx context.Context, token, networkOrigin, clientDescriptor string) (*store.VisitorSession, bool, error)
	LookupRef(ctx context.Context, ref string) (*store.VisitorSession, error)
}

// MessageStore persists and lists chat messages
type MessageStore interface {
	InsertMessage(ctx context.Context, msg *store.StoredMessage) error
	ListMessages(ctx context.Context, visitorID string) ([]store.StoredMessage, error)
}

// Completer produces AI replies
type Completer interface {
	Complete(ctx context.Context, turns []completion.Message) (string, error)
}

// Fanout delivers events to rooms and individual clients
type Fanout interface {
	Publish(room string, event message.EventType, payload interface{}) int
	PublishOperators(event message.EventType, payload interface{}) int
	SendTo(client hub.Client, event message.EventType, payload interface{}) bool
}

// Router routes chat events between visitors, the completion provider, and
// the operator room.
type Router struct {
	registry          Registry
	store             MessageStore
	completer         Completer
	fanout            Fanout
	messageLimiter    *ratelimit.MessageLimiter
	completionTimeout time.Duration
	logger            *logging.Logger
	ctx               context.Context
	cancel            context.CancelFunc
}

// New creates a Router. rateWindow and rateLimit bound per-session visitor
// message throughput; non-positive values fall back to the defaults.
func New(registry Registry, st MessageStore, completer Completer, fanout Fanout, rateWindow time.Duration, rateLimit int, logger *logging.Logger) *Router {
	// No else needed: optional operation (only default if unset)
	if rateWindow <= 0 {
		rateWindow = constants.DefaultRateWindow
	}
	if rateLimit <= 0 {
		rateLimit = constants.DefaultRateLimit
	}

	messageLimiter := ratelimit.NewMessageLimiter(rateWindow, rateLimit)
	messageLimiter.StartCleanup()

	ctx, cancel := context.WithCancel(context.Background())

	return &Router{
		registry:          registry,
		store:             st,
		completer:         completer,
		fanout:            fanout,
		messageLimiter:    messageLimiter,
		completionTimeout: constants.CompletionTimeout,
		logger:            logger.Sub("router"),
		ctx:               ctx,
		cancel:            cancel,
	}
}

// HandleJoin resolves the connection's visitor session and sends the
// greeting. The greeting is ephemeral: it never reaches the store, so a
// rejoining visitor sees it again without it polluting history.
func (r *Router) HandleJoin(ctx context.Context, client hub.Client, payload *message.JoinPayload, networkOrigin string) (*store.VisitorSession, error) {
	// No else needed: early return pattern (guard clause)
	if client == nil {
		return nil, ErrNilClient
	}
	if payload == nil {
		return nil, ErrNilPayload
	}

	payload.Sanitize()
	if err := payload.Validate(); err != nil {
		return nil, chaterrors.ErrInvalidMessageFormat(err.Error(), err)
	}

	session, created, err := r.registry.Resolve(ctx, payload.Token, networkOrigin, payload.ClientDescriptor)
	// No else needed: early return pattern (guard clause)
	if err != nil {
		return nil, err
	}

	r.logger.Info("Visitor joined",
		"session_id", session.ID,
		"created", created)

	greeting := &message.ChatMessage{
		ID:        uuid.NewString(),
		Body:      constants.GreetingText,
		Timestamp: time.Now().UTC(),
		Sender:    message.SenderAI,
	}
	// No else needed: optional operation (fire-and-forget), failure is logged but not fatal
	if !r.fanout.SendTo(client, message.EventMessage, greeting) {
		r.logger.Warn("Failed to deliver greeting", "session_id", session.ID)
	}

	return session, nil
}

// ResolveSession upserts the session identified by token. Used by the
// transport when a message carries its own token instead of arriving after
// an explicit join.
func (r *Router) ResolveSession(ctx context.Context, token, networkOrigin, clientDescriptor string) (*store.VisitorSession, error) {
	session, _, err := r.registry.Resolve(ctx, token, networkOrigin, clientDescriptor)
	return session, err
}

// LookupSessionRef finds an existing session by ID or token without
// creating one.
func (r *Router) LookupSessionRef(ctx context.Context, ref string) (*store.VisitorSession, error) {
	return r.registry.LookupRef(ctx, ref)
}

// HandleVisitorMessage runs the full visitor message path: persist, fan out
// to operators, then attempt the AI completion when the session has AI
// enabled. The completion is always attempted regardless of any recorded
// provider rate limit; the provider is the authority on its own state.
func (r *Router) HandleVisitorMessage(ctx context.Context, sess *store.VisitorSession, payload *message.VisitorMessagePayload) error {
	// No else needed: early return pattern (guard clause)
	if sess == nil {
		return chaterrors.ErrSessionNotFound("")
	}
	if payload == nil {
		return ErrNilPayload
	}

	// No else needed: early return pattern (guard clause)
	if !r.messageLimiter.Allow(sess.ID) {
		retryAfter := r.messageLimiter.GetRetryAfter(sess.ID)
		r.logger.Warn("Message rate limit exceeded",
			"session_id", sess.ID,
			"retry_after_ms", retryAfter)
		return chaterrors.ErrTooManyRequests(time.Duration(retryAfter) * time.Millisecond)
	}

	payload.Sanitize()
	if err := payload.Validate(); err != nil {
		// No else needed: early return pattern (guard clause)
		if util.IsBlank(payload.Body) {
			return chaterrors.ErrEmptyMessage()
		}
		return chaterrors.ErrInvalidMessageFormat(err.Error(), err)
	}

	// Persist before any fanout: a delivered-but-lost message is worse than
	// a stored-but-dropped delivery.
	visitorMsg := &store.StoredMessage{
		VisitorID: sess.ID,
		Body:      payload.Body,
		Sender:    constants.SenderVisitor,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.store.InsertMessage(ctx, visitorMsg); err != nil {
		util.LogError(r.logger, "router", "persist visitor message", err, "session_id", sess.ID)
		return chaterrors.ErrDatabaseError(err)
	}
	metrics.MessagesPersisted.WithLabelValues(constants.SenderVisitor).Inc()

	r.publishToOperators(sess.ID, visitorMsg, nil)

	// No else needed: optional operation (AI disabled sessions stop here)
	if sess.AIEnabled {
		r.completeAndRespond(ctx, sess, payload.Body)
	}

	return nil
}

// completeAndRespond calls the completion provider and delivers either the
// AI reply or the classified fallback. Both outcomes persist and fan out the
// same way; the failure path additionally alerts the operator room.
func (r *Router) completeAndRespond(ctx context.Context, sess *store.VisitorSession, visitorBody string) {
	completionCtx, cancel := context.WithTimeout(ctx, r.completionTimeout)
	defer cancel()

	content, err := r.completer.Complete(completionCtx, []completion.Message{
		{Role: completion.RoleUser, Content: visitorBody},
	})

	// No else needed: early return pattern (success case handled below)
	if err != nil {
		r.respondWithFallback(ctx, sess, err)
		return
	}

	aiMsg := &store.StoredMessage{
		VisitorID: sess.ID,
		Body:      content,
		Sender:    constants.SenderAI,
		FromAI:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.store.InsertMessage(ctx, aiMsg); err != nil {
		util.LogError(r.logger, "router", "persist AI reply", err, "session_id", sess.ID)
		r.publishError(sess.ID, chaterrors.ErrDatabaseError(err))
		return
	}
	metrics.MessagesPersisted.WithLabelValues(constants.SenderAI).Inc()

	r.fanout.Publish(sess.ID, message.EventMessage, toChatMessage(aiMsg))
	r.publishToOperators(sess.ID, aiMsg, nil)
}

// respondWithFallback persists and delivers the per-kind fallback notice,
// then alerts the operator room. The raw provider error stays in the
// operator notice; visitors only see the curated wording.
func (r *Router) respondWithFallback(ctx context.Context, sess *store.VisitorSession, cause error) {
	kind := completion.Classify(cause)

	var retryAfter time.Duration
	var chatErr *chaterrors.ChatError
	// No else needed: optional operation (retry-after only exists for rate limits)
	if errors.As(cause, &chatErr) {
		retryAfter = chatErr.RetryAfter
	}

	r.logger.Warn("Completion failed, sending fallback",
		"session_id", sess.ID,
		"failure_kind", string(kind),
		"error", cause)

	fallbackMsg := &store.StoredMessage{
		VisitorID: sess.ID,
		Body:      completion.FallbackBody(kind, retryAfter),
		Sender:    constants.SenderSystem,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.store.InsertMessage(ctx, fallbackMsg); err != nil {
		util.LogError(r.logger, "router", "persist fallback notice", err, "session_id", sess.ID)
		r.publishError(sess.ID, chaterrors.ErrDatabaseError(err))
		return
	}
	metrics.MessagesPersisted.WithLabelValues(constants.SenderSystem).Inc()

	r.fanout.Publish(sess.ID, message.EventMessage, toChatMessage(fallbackMsg))
	r.publishToOperators(sess.ID, fallbackMsg, nil)

	r.fanout.PublishOperators(message.EventAIFailureNotice, &message.AIFailureNotice{
		SessionRef:  sess.ID,
		FailureKind: string(kind),
		Detail:      cause.Error(),
		Timestamp:   time.Now().UTC(),
	})
}

// HandleOperatorMessage persists an operator reply and delivers it to the
// visitor's private room and the operator room. The acting operator ID on
// the operator-room copy comes from the validated connection identity, so
// the sender's own client can suppress the echo.
func (r *Router) HandleOperatorMessage(ctx context.Context, operatorID string, payload *message.OperatorMessagePayload) error {
	// No else needed: early return pattern (guard clause)
	if payload == nil {
		return ErrNilPayload
	}
	if operatorID == "" {
		return chaterrors.ErrMissingField("operatorId")
	}

	payload.Sanitize()
	if err := payload.Validate(); err != nil {
		return chaterrors.ErrInvalidMessageFormat(err.Error(), err)
	}

	sess, err := r.registry.LookupRef(ctx, payload.TargetSessionRef)
	// No else needed: early return pattern (guard clause)
	if err != nil {
		return err
	}

	operatorMsg := &store.StoredMessage{
		VisitorID: sess.ID,
		Body:      payload.Body,
		Sender:    constants.SenderOperator,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.store.InsertMessage(ctx, operatorMsg); err != nil {
		util.LogError(r.logger, "router", "persist operator message", err,
			"session_id", sess.ID,
			"operator_id", operatorID)
		return chaterrors.ErrDatabaseError(err)
	}
	metrics.MessagesPersisted.WithLabelValues(constants.SenderOperator).Inc()

	r.fanout.Publish(sess.ID, message.EventMessage, toChatMessage(operatorMsg))
	r.publishToOperators(sess.ID, operatorMsg, &operatorID)

	r.logger.Info("Operator message delivered",
		"session_id", sess.ID,
		"operator_id", operatorID)

	return nil
}

// HandleChatHistory sends a session's full message history to one client in
// ascending timestamp order.
func (r *Router) HandleChatHistory(ctx context.Context, client hub.Client, sess *store.VisitorSession) error {
	// No else needed: early return pattern (guard clause)
	if client == nil {
		return ErrNilClient
	}
	if sess == nil {
		return chaterrors.ErrSessionNotFound("")
	}

	stored, err := r.store.ListMessages(ctx, sess.ID)
	// No else needed: early return pattern (guard clause)
	if err != nil {
		util.LogError(r.logger, "router", "list chat history", err, "session_id", sess.ID)
		return chaterrors.ErrDatabaseError(err)
	}

	history := &message.ChatHistory{
		SessionRef: sess.ID,
		Messages:   make([]message.ChatMessage, 0, len(stored)),
	}
	for i := range stored {
		history.Messages = append(history.Messages, *toChatMessage(&stored[i]))
	}

	// No else needed: optional operation (fire-and-forget), failure is logged but not fatal
	if !r.fanout.SendTo(client, message.EventChatHistory, history) {
		r.logger.Warn("Failed to deliver chat history", "session_id", sess.ID)
	}

	return nil
}

// HandleVisitorTyping relays a visitor's typing state to the operator room.
// Typing signals are ephemeral: never persisted, never retried.
func (r *Router) HandleVisitorTyping(sess *store.VisitorSession, typing bool) {
	// No else needed: early return pattern (guard clause)
	if sess == nil {
		return
	}

	r.fanout.PublishOperators(message.EventTypingState, &message.TypingState{
		SessionRef: sess.ID,
		Typing:     typing,
	})
}

// HandleOperatorTyping relays an operator's typing state to one visitor room.
func (r *Router) HandleOperatorTyping(ctx context.Context, sessionRef string, typing bool) error {
	sess, err := r.registry.LookupRef(ctx, sessionRef)
	// No else needed: early return pattern (guard clause)
	if err != nil {
		return err
	}

	r.fanout.Publish(sess.ID, message.EventTypingState, &message.TypingState{
		SessionRef: sess.ID,
		Typing:     typing,
	})
	return nil
}

// HandleError converts an error to its wire form and sends it to one client.
func (r *Router) HandleError(client hub.Client, err error) {
	// No else needed: early return pattern (guard clause)
	if client == nil || err == nil {
		return
	}

	var chatErr *chaterrors.ChatError
	// No else needed: conditional assignment (generic wrapper for unclassified errors)
	if !errors.As(err, &chatErr) {
		chatErr = chaterrors.ErrDatabaseError(err)
	}

	metrics.MessageErrors.Inc()
	r.fanout.SendTo(client, message.EventError, chatErr.ToErrorInfo())
}

// publishError delivers a wire-safe error event to a visitor's room.
// Silence after a failed persist would leave the visitor waiting on a reply
// that is never coming.
func (r *Router) publishError(sessionID string, chatErr *chaterrors.ChatError) {
	metrics.MessageErrors.Inc()
	r.fanout.Publish(sessionID, message.EventError, chatErr.ToErrorInfo())
}

// Shutdown stops the router's background work.
func (r *Router) Shutdown() {
	r.logger.Info("Shutting down message router")
	if r.cancel != nil {
		r.cancel()
	}
	if r.messageLimiter != nil {
		r.messageLimiter.StopCleanup()
	}
}

// publishToOperators fans a persisted message out to the operator room.
// actingOperatorID is nil for every non-operator message; the wire form
// keeps the field present as an explicit null.
func (r *Router) publishToOperators(sessionRef string, msg *store.StoredMessage, actingOperatorID *string) {
	r.fanout.PublishOperators(message.EventOperatorMessage, &message.OperatorRoomMessage{
		SessionRef:       sessionRef,
		Message:          *toChatMessage(msg),
		Timestamp:        time.Now().UTC(),
		ActingOperatorID: actingOperatorID,
	})
}

func toChatMessage(msg *store.StoredMessage) *message.ChatMessage {
	return &message.ChatMessage{
		ID:        msg.ID,
		Body:      msg.Body,
		Timestamp: msg.CreatedAt,
		Sender:    message.SenderType(msg.Sender),
		FromAI:    msg.FromAI,
	}
}
