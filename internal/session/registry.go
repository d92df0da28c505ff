// Package session resolves visitor identity. Every connection presents a
// client-held token; the registry maps it to a durable session, creating one
// atomically on first contact.
package session

import (
	"context"
	"errors"
	"time"

	chaterrors "github.com/real-rm/livechat/internal/errors"
	"github.com/real-rm/livechat/internal/logging"
	"github.com/real-rm/livechat/internal/message"
	"github.com/real-rm/livechat/internal/metrics"
	"github.com/real-rm/livechat/internal/store"
	"github.com/real-rm/livechat/internal/util"
)

// Store is the persistence surface the registry needs.
type Store interface {
	UpsertVisitorSession(ctx context.Context, token, networkOrigin, clientDescriptor string) (*store.VisitorSession, bool, error)
	GetSessionByToken(ctx context.Context, token string) (*store.VisitorSession, error)
	ResolveSessionRef(ctx context.Context, ref string) (*store.VisitorSession, error)
}

// Announcer publishes events to the operator room.
type Announcer interface {
	PublishOperators(event message.EventType, payload interface{}) int
}

// Registry is the single entry point for visitor identity resolution.
type Registry struct {
	store     Store
	announcer Announcer
	logger    *logging.Logger
}

// NewRegistry creates a Registry.
func NewRegistry(st Store, announcer Announcer, logger *logging.Logger) *Registry {
	return &Registry{
		store:     st,
		announcer: announcer,
		logger:    logger.Sub("session"),
	}
}

// Resolve maps a token to its session, creating the session atomically when
// the token is unseen. The new-session announcement fires exactly when this
// call created the session, so concurrent first contacts with the same token
// produce one session and one announcement.
func (r *Registry) Resolve(ctx context.Context, token, networkOrigin, clientDescriptor string) (*store.VisitorSession, bool, error) {
	// No else needed: early return pattern (guard clause)
	if util.IsBlank(token) {
		return nil, false, chaterrors.ErrMissingField("token")
	}

	session, created, err := r.store.UpsertVisitorSession(ctx, token, networkOrigin, clientDescriptor)
	// No else needed: early return pattern (guard clause)
	if err != nil {
		return nil, false, chaterrors.ErrDatabaseError(err)
	}

	if created {
		metrics.SessionsCreated.Inc()
		r.logger.Info("Visitor session created",
			"session_id", session.ID,
			"network_origin", networkOrigin)

		r.announcer.PublishOperators(message.EventNewSession, &message.NewSessionNotice{
			SessionRef:    session.ID,
			NetworkOrigin: networkOrigin,
			Timestamp:     time.Now().UTC(),
		})
	} else {
		metrics.SessionsResumed.Inc()
		r.logger.Debug("Visitor session resumed",
			"session_id", session.ID)
	}

	return session, created, nil
}

// Lookup fetches a session by token without creating one.
func (r *Registry) Lookup(ctx context.Context, token string) (*store.VisitorSession, error) {
	session, err := r.store.GetSessionByToken(ctx, token)
	// No else needed: early return pattern (guard clause)
	if errors.Is(err, store.ErrSessionNotFound) {
		return nil, chaterrors.ErrSessionNotFound(token)
	}
	if err != nil {
		return nil, chaterrors.ErrDatabaseError(err)
	}
	return session, nil
}

// LookupRef fetches a session addressed by ID or token. Operators reference
// sessions both ways.
func (r *Registry) LookupRef(ctx context.Context, ref string) (*store.VisitorSession, error) {
	session, err := r.store.ResolveSessionRef(ctx, ref)
	// No else needed: early return pattern (guard clause)
	if errors.Is(err, store.ErrSessionNotFound) {
		return nil, chaterrors.ErrSessionNotFound(ref)
	}
	if err != nil {
		return nil, chaterrors.ErrDatabaseError(err)
	}
	return session, nil
}
