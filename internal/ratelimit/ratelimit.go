// Package ratelimit provides per-client limits for WebSocket connections and
// inbound messages, plus tracking of upstream completion-provider rate limits.
package ratelimit

import (
	"sync"
	"time"
)

// ConnectionLimiter limits the number of concurrent connections per client key.
// Visitor connections are keyed by network origin, operator connections by
// operator ID.
type ConnectionLimiter struct {
	connections map[string]int // client key -> connection count
	maxPerKey   int
	mu          sync.RWMutex
}

// NewConnectionLimiter creates a new connection limiter
func NewConnectionLimiter(maxPerKey int) *ConnectionLimiter {
	return &ConnectionLimiter{
		connections: make(map[string]int),
		maxPerKey:   maxPerKey,
	}
}

// Allow checks if a new connection is allowed for the client key
func (cl *ConnectionLimiter) Allow(key string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	count := cl.connections[key]
	if count >= cl.maxPerKey {
		return false
	}

	cl.connections[key] = count + 1
	return true
}

// Release decrements the connection count for a client key
func (cl *ConnectionLimiter) Release(key string) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if count, ok := cl.connections[key]; ok {
		if count <= 1 {
			delete(cl.connections, key)
		} else {
			cl.connections[key] = count - 1
		}
	}
}

// GetCount returns the current connection count for a client key
func (cl *ConnectionLimiter) GetCount(key string) int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return cl.connections[key]
}

// MessageLimiter limits the rate of messages per client key using a sliding window
type MessageLimiter struct {
	events map[string][]time.Time // client key -> timestamps
	window time.Duration
	limit  int
	mu     sync.RWMutex

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	cleanupWg       sync.WaitGroup
}

// NewMessageLimiter creates a new message rate limiter
// window: time window for rate limiting (e.g., 1 minute)
// limit: maximum number of messages allowed in the window
func NewMessageLimiter(window time.Duration, limit int) *MessageLimiter {
	return &MessageLimiter{
		events:          make(map[string][]time.Time),
		window:          window,
		limit:           limit,
		cleanupInterval: 5 * time.Minute,
		stopCleanup:     make(chan struct{}),
	}
}

// Allow checks if a message is allowed based on rate limiting
// Returns true if allowed, false if rate limit exceeded
func (ml *MessageLimiter) Allow(key string) bool {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-ml.window)

	events := ml.events[key]

	// Filter out old events outside the window
	var recentEvents []time.Time
	for _, t := range events {
		if t.After(cutoff) {
			recentEvents = append(recentEvents, t)
		}
	}

	if len(recentEvents) >= ml.limit {
		return false
	}

	recentEvents = append(recentEvents, now)
	ml.events[key] = recentEvents

	return true
}

// GetRetryAfter returns the time in milliseconds until the next message is allowed
func (ml *MessageLimiter) GetRetryAfter(key string) int {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	events := ml.events[key]
	if len(events) < ml.limit {
		return 0
	}

	now := time.Now()
	cutoff := now.Add(-ml.window)

	var oldestInWindow time.Time
	for _, t := range events {
		if t.After(cutoff) {
			if oldestInWindow.IsZero() || t.Before(oldestInWindow) {
				oldestInWindow = t
			}
		}
	}

	if oldestInWindow.IsZero() {
		return 0
	}

	// The limit frees up when the oldest event leaves the window
	expiresAt := oldestInWindow.Add(ml.window)
	retryAfter := expiresAt.Sub(now)

	if retryAfter < 0 {
		return 0
	}

	return int(retryAfter.Milliseconds())
}

// Reset clears the rate limit history for a client key
func (ml *MessageLimiter) Reset(key string) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	delete(ml.events, key)
}

// Cleanup removes expired events to prevent memory leaks
// Should be called periodically
func (ml *MessageLimiter) Cleanup() {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-ml.window)

	for key, events := range ml.events {
		var recentEvents []time.Time
		for _, t := range events {
			if t.After(cutoff) {
				recentEvents = append(recentEvents, t)
			}
		}

		if len(recentEvents) == 0 {
			delete(ml.events, key)
		} else {
			ml.events[key] = recentEvents
		}
	}
}

// StartCleanup starts a background goroutine that periodically cleans up expired events
func (ml *MessageLimiter) StartCleanup() {
	ml.cleanupWg.Add(1)
	go func() {
		defer ml.cleanupWg.Done()
		ticker := time.NewTicker(ml.cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ml.Cleanup()
			case <-ml.stopCleanup:
				return
			}
		}
	}()
}

// StopCleanup stops the cleanup goroutine and waits for it to finish
func (ml *MessageLimiter) StopCleanup() {
	ml.mu.Lock()
	if ml.stopCleanup != nil {
		select {
		case <-ml.stopCleanup:
			// Already closed, do nothing
		default:
			close(ml.stopCleanup)
		}
	}
	ml.mu.Unlock()

	ml.cleanupWg.Wait()
}
