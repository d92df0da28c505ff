package util

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/real-rm/livechat/internal/logging"
)

func TestSafeGo_NormalExecution(t *testing.T) {
	logger := logging.Nop()

	var wg sync.WaitGroup
	wg.Add(1)

	executed := false
	SafeGo(logger, "test", func() {
		defer wg.Done()
		executed = true
	})

	wg.Wait()
	if !executed {
		t.Error("expected goroutine to execute")
	}
}

func TestSafeGo_PanicRecovery(t *testing.T) {
	var buf bytes.Buffer
	var mu sync.Mutex
	logger := logging.New(&syncWriter{buf: &buf, mu: &mu}, "error")

	done := make(chan struct{})

	SafeGo(logger, "test-panic", func() {
		defer close(done)
		panic("test panic")
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("goroutine did not finish")
	}

	// The deferred close runs before the recover handler; give the log a moment
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		logged := strings.Contains(buf.String(), "Panic recovered in goroutine")
		mu.Unlock()
		if logged {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("expected panic to be logged")
}

func TestSafeGo_DoesNotCrashProcess(t *testing.T) {
	logger := logging.Nop()

	for i := 0; i < 10; i++ {
		SafeGo(logger, "burst", func() {
			panic("repeated panic")
		})
	}

	// Reaching this point means no panic escaped
	time.Sleep(50 * time.Millisecond)
}

type syncWriter struct {
	buf *bytes.Buffer
	mu  *sync.Mutex
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}
