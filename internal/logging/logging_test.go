package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info")

	logger.Info("server started", "port", 8080, "env", "test")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "server started", entry["message"])
	assert.Equal(t, float64(8080), entry["port"])
	assert.Equal(t, "test", entry["env"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn")

	logger.Debug("debug line")
	logger.Info("info line")
	logger.Warn("warn line")

	out := buf.String()
	assert.NotContains(t, out, "debug line")
	assert.NotContains(t, out, "info line")
	assert.Contains(t, out, "warn line")
}

func TestSubTagsSubsystem(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info").Sub("router")

	logger.Info("message routed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "router", entry["subsystem"])
}

func TestErrorFieldSerialization(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info")

	logger.Error("operation failed", "error", errors.New("connection refused"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "connection refused", entry["error"])
}

func TestOddFieldCountDoesNotPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info")

	assert.NotPanics(t, func() {
		logger.Info("dangling key", "orphan")
	})
	assert.Contains(t, buf.String(), "EXTRA_VALUE")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"  INFO  ", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, parseLevel(tt.input), "level %q", tt.input)
	}
}

func TestNopDiscards(t *testing.T) {
	logger := Nop()
	assert.NotPanics(t, func() {
		logger.Info("into the void")
		logger.Error("also dropped", "error", errors.New("ignored"))
	})
}

func TestNonStringKeyStringified(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info")

	logger.Info("odd key", 42, "value")

	assert.True(t, strings.Contains(buf.String(), `"42":"value"`), "got: %s", buf.String())
}
