package ratelimit

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Feature: client-rate-limiting
// Property 1: Sliding Window Enforcement
//
// For any client key and limit, the message limiter allows at most 'limit'
// messages inside one window and denies the rest.
func TestProperty_SlidingWindowEnforcement(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("message limiter enforces the window limit", prop.ForAll(
		func(key string, limit int, numRequests int) bool {
			// Skip invalid inputs
			if key == "" || limit <= 0 || limit > 1000 || numRequests <= 0 || numRequests > 2000 {
				return true
			}

			ml := NewMessageLimiter(100*time.Millisecond, limit)

			allowed := 0
			denied := 0
			for i := 0; i < numRequests; i++ {
				if ml.Allow(key) {
					allowed++
				} else {
					denied++
				}
			}

			if numRequests <= limit {
				return allowed == numRequests && denied == 0
			}

			return allowed == limit && denied == numRequests-limit
		},
		gen.AlphaString(),
		gen.IntRange(1, 100),
		gen.IntRange(1, 200),
	))

	properties.Property("connection limiter enforces the per-key cap", prop.ForAll(
		func(key string, maxConnections int, numAttempts int) bool {
			// Skip invalid inputs
			if key == "" || maxConnections <= 0 || maxConnections > 100 || numAttempts <= 0 || numAttempts > 200 {
				return true
			}

			cl := NewConnectionLimiter(maxConnections)

			allowed := 0
			denied := 0
			for i := 0; i < numAttempts; i++ {
				if cl.Allow(key) {
					allowed++
				} else {
					denied++
				}
			}

			if numAttempts <= maxConnections {
				return allowed == numAttempts && denied == 0
			}

			return allowed == maxConnections && denied == numAttempts-maxConnections
		},
		gen.AlphaString(),
		gen.IntRange(1, 50),
		gen.IntRange(1, 100),
	))

	properties.Property("limiters isolate client keys", prop.ForAll(
		func(key1 string, key2 string, limit int) bool {
			// Skip invalid inputs
			if key1 == "" || key2 == "" || key1 == key2 || limit <= 0 || limit > 100 {
				return true
			}

			ml := NewMessageLimiter(1*time.Second, limit)

			// Exhaust the first key's allowance
			for i := 0; i < limit; i++ {
				if !ml.Allow(key1) {
					return false
				}
			}
			if ml.Allow(key1) {
				return false
			}

			// The second key must be unaffected
			return ml.Allow(key2)
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.IntRange(1, 50),
	))

	properties.TestingRun(t)
}

// Feature: provider-rate-limit-tracking
// Property 2: Advisory Status Consistency
//
// For any recorded retry-after window, the tracker reports rate-limited with
// a remaining duration no larger than what was recorded, and an overwrite
// always reflects the most recent record.
func TestProperty_TrackerStatusConsistency(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("reported retry-after never exceeds the recorded window", prop.ForAll(
		func(retrySeconds int, message string) bool {
			// Skip invalid inputs
			if retrySeconds <= 0 || retrySeconds > 86400 {
				return true
			}

			tr := NewTracker()
			tr.RecordFailure(time.Duration(retrySeconds)*time.Second, message)

			status := tr.CurrentStatus()
			if !status.RateLimited || status.Available {
				return false
			}

			return status.RetryAfterSeconds > 0 && status.RetryAfterSeconds <= retrySeconds
		},
		gen.IntRange(1, 86400),
		gen.AlphaString(),
	))

	properties.Property("last write wins regardless of window length", prop.ForAll(
		func(firstSeconds int, secondSeconds int) bool {
			// Skip invalid inputs
			if firstSeconds <= 0 || firstSeconds > 86400 || secondSeconds <= 0 || secondSeconds > 86400 {
				return true
			}

			tr := NewTracker()
			tr.RecordFailure(time.Duration(firstSeconds)*time.Second, "first")
			tr.RecordFailure(time.Duration(secondSeconds)*time.Second, "second")

			status := tr.CurrentStatus()
			if status.Message != "second" {
				return false
			}

			return status.RetryAfterSeconds <= secondSeconds
		},
		gen.IntRange(1, 86400),
		gen.IntRange(1, 86400),
	))

	properties.TestingRun(t)
}
