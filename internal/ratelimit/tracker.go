package ratelimit

import (
	"sync"
	"time"
)

// Status is a point-in-time view of the upstream completion provider's
// rate-limit state.
type Status struct {
	Available         bool   `json:"available"`
	RateLimited       bool   `json:"rateLimited"`
	RetryAfterSeconds int    `json:"retryAfterSeconds"`
	Message           string `json:"message,omitempty"`
}

// Tracker records rate-limit responses from the upstream completion provider
// so operators can see when AI assistance is degraded. It is purely advisory:
// nothing consults it before attempting a completion call, and the recorded
// state expires on its own once the retry-after window passes.
type Tracker struct {
	mu         sync.RWMutex
	limitedAt  time.Time
	retryAfter time.Duration
	message    string
}

// NewTracker creates an empty tracker reporting the provider as available.
func NewTracker() *Tracker {
	return &Tracker{}
}

// RecordFailure notes a rate-limit response from the provider. Last write
// wins: a later failure overwrites an earlier one regardless of which window
// would expire first.
func (t *Tracker) RecordFailure(retryAfter time.Duration, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.limitedAt = time.Now()
	t.retryAfter = retryAfter
	t.message = message
}

// Clear resets the tracker to the available state.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.limitedAt = time.Time{}
	t.retryAfter = 0
	t.message = ""
}

// CurrentStatus reports the provider state. Expiry is lazy: no background
// timer runs, the recorded window is simply compared against the clock on
// each read.
func (t *Tracker) CurrentStatus() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	// No else needed: early return pattern (guard clause)
	if t.limitedAt.IsZero() {
		return Status{Available: true}
	}

	remaining := time.Until(t.limitedAt.Add(t.retryAfter))
	if remaining <= 0 {
		return Status{Available: true}
	}

	return Status{
		Available:         false,
		RateLimited:       true,
		RetryAfterSeconds: int(remaining.Round(time.Second).Seconds()),
		Message:           t.message,
	}
}
