// Package metrics provides Prometheus metrics collection for the livechat service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveConnections tracks the current number of open WebSocket connections by kind
	ActiveConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "livechat_active_connections",
		Help: "Current number of open WebSocket connections by kind (visitor, operator)",
	}, []string{"kind"})

	// MessagesPersisted tracks the total number of messages persisted by sender role
	MessagesPersisted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livechat_messages_total",
		Help: "Total number of messages persisted by sender role",
	}, []string{"sender"})

	// MessagesDelivered tracks the total number of events fanned out to sockets
	MessagesDelivered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livechat_messages_delivered_total",
		Help: "Total number of events delivered to connected sockets",
	})

	// CompletionRequests tracks completion provider calls by outcome
	CompletionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livechat_completion_requests_total",
		Help: "Total number of completion provider requests by outcome (success, rate_limited, unavailable, auth_failure)",
	}, []string{"outcome"})

	// CompletionLatency tracks the latency of completion provider calls
	CompletionLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "livechat_completion_latency_seconds",
		Help:    "Latency of completion provider requests in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// SessionsCreated tracks the total number of visitor sessions created
	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livechat_sessions_created_total",
		Help: "Total number of visitor sessions created",
	})

	// SessionsResumed tracks reconnections resolving to an existing session
	SessionsResumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livechat_sessions_resumed_total",
		Help: "Total number of reconnections resolved to an existing visitor session",
	})

	// MessageErrors tracks the total number of message processing errors
	MessageErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livechat_message_errors_total",
		Help: "Total number of message processing errors",
	})

	// DroppedEvents tracks fanout events dropped because a send buffer was full
	DroppedEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livechat_dropped_events_total",
		Help: "Total number of fanout events dropped due to slow consumers",
	})

	// HTTPRequests tracks HTTP requests by path, method and status
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livechat_http_requests_total",
		Help: "Total number of HTTP requests by path, method and status",
	}, []string{"path", "method", "status"})
)
