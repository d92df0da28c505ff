package main

import (
	"net/http"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/real-rm/livechat/internal/config"
	"github.com/real-rm/livechat/internal/constants"
)

// Feature: HTTP server carries production timeout defaults
func TestNewHTTPServer_Timeouts(t *testing.T) {
	srv := newHTTPServer(":8080", http.NewServeMux())

	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, constants.HTTPReadTimeout, srv.ReadTimeout)
	assert.Equal(t, constants.HTTPIdleTimeout, srv.IdleTimeout)
	// WebSocket connections share this server, so no write timeout
	assert.Zero(t, srv.WriteTimeout)
}

// Feature: signal handler reacts to SIGINT and SIGTERM
func TestSetupSignalHandler(t *testing.T) {
	sigChan := setupSignalHandler()
	require.NotNil(t, sigChan)
	assert.Equal(t, 1, cap(sigChan))
}

// Feature: startup fails fast on a bad config file
func TestRunWithSignalChannel_MissingConfigFile(t *testing.T) {
	err := runWithSignalChannel("/nonexistent/config.toml", make(chan os.Signal, 1))
	require.Error(t, err)
}

// Feature: console logger selection follows configuration
func TestInitializeLogger(t *testing.T) {
	old := os.Stdout
	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	require.NoError(t, err)
	os.Stdout = devNull
	defer func() {
		os.Stdout = old
		devNull.Close()
	}()

	cfg := &config.Config{}
	cfg.Log.Level = "info"

	cfg.Log.Console = false
	assert.NotNil(t, initializeLogger(cfg))

	cfg.Log.Console = true
	assert.NotNil(t, initializeLogger(cfg))
}

// Feature: a signal received before startup errors still unblocks the run loop
func TestSignalChannel_BufferedDelivery(t *testing.T) {
	sigChan := make(chan os.Signal, 1)
	sigChan <- syscall.SIGTERM

	select {
	case sig := <-sigChan:
		assert.Equal(t, syscall.SIGTERM, sig)
	case <-time.After(time.Second):
		t.Fatal("buffered signal was not delivered")
	}
}
