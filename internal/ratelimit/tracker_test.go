package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTracker_InitiallyAvailable(t *testing.T) {
	tr := NewTracker()

	status := tr.CurrentStatus()

	assert.True(t, status.Available)
	assert.False(t, status.RateLimited)
	assert.Equal(t, 0, status.RetryAfterSeconds)
	assert.Empty(t, status.Message)
}

func TestTracker_RecordFailure(t *testing.T) {
	tr := NewTracker()

	tr.RecordFailure(1*time.Hour, "quota exceeded")

	status := tr.CurrentStatus()
	assert.False(t, status.Available)
	assert.True(t, status.RateLimited)
	assert.Greater(t, status.RetryAfterSeconds, 3500)
	assert.LessOrEqual(t, status.RetryAfterSeconds, 3600)
	assert.Equal(t, "quota exceeded", status.Message)
}

func TestTracker_LazyExpiry(t *testing.T) {
	tr := NewTracker()

	tr.RecordFailure(20*time.Millisecond, "quota exceeded")
	assert.False(t, tr.CurrentStatus().Available)

	time.Sleep(50 * time.Millisecond)

	// No background timer: the window is compared to the clock on read
	status := tr.CurrentStatus()
	assert.True(t, status.Available)
	assert.False(t, status.RateLimited)
	assert.Equal(t, 0, status.RetryAfterSeconds)
}

func TestTracker_LastWriteWins(t *testing.T) {
	tr := NewTracker()

	tr.RecordFailure(2*time.Hour, "first")
	tr.RecordFailure(30*time.Second, "second")

	// The later, shorter window overwrites the earlier, longer one
	status := tr.CurrentStatus()
	assert.True(t, status.RateLimited)
	assert.LessOrEqual(t, status.RetryAfterSeconds, 30)
	assert.Equal(t, "second", status.Message)
}

func TestTracker_Clear(t *testing.T) {
	tr := NewTracker()

	tr.RecordFailure(1*time.Hour, "quota exceeded")
	tr.Clear()

	assert.True(t, tr.CurrentStatus().Available)
}

func TestTracker_ConcurrentAccess(t *testing.T) {
	tr := NewTracker()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				tr.RecordFailure(1*time.Hour, "quota exceeded")
				_ = tr.CurrentStatus()
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	assert.True(t, tr.CurrentStatus().RateLimited)
}
