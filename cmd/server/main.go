// Command server runs the livechat service as a standalone HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/real-rm/livechat"
	"github.com/real-rm/livechat/internal/config"
	"github.com/real-rm/livechat/internal/constants"
	"github.com/real-rm/livechat/internal/logging"
)

// initializeLogger builds the process logger from configuration
func initializeLogger(cfg *config.Config) *logging.Logger {
	// No else needed: optional operation (console format for local development)
	if cfg.Log.Console {
		return logging.NewConsole(os.Stdout, cfg.Log.Level)
	}
	return logging.New(os.Stdout, cfg.Log.Level)
}

// connectMongo establishes the MongoDB connection and verifies it with a ping
func connectMongo(cfg *config.Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Database.URI))
	// No else needed: early return pattern (guard clause)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// No else needed: early return pattern (guard clause)
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client, nil
}

// newHTTPServer creates an HTTP server with production-safe timeout defaults.
// WriteTimeout stays generous because WebSocket upgrades share this server.
func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: constants.HTTPReadTimeout,
		IdleTimeout: constants.HTTPIdleTimeout,
	}
}

// setupSignalHandler sets up signal handling for graceful shutdown
func setupSignalHandler() chan os.Signal {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	return sigChan
}

// runWithSignalChannel is a testable version of run that accepts a signal channel
func runWithSignalChannel(configFile string, sigChan chan os.Signal) error {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load(configFile)
	// No else needed: early return pattern (guard clause)
	if err != nil {
		return err
	}

	logger := initializeLogger(cfg)

	mongoClient, err := connectMongo(cfg)
	// No else needed: early return pattern (guard clause)
	if err != nil {
		return err
	}
	defer func() {
		_ = mongoClient.Disconnect(context.Background())
	}()

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	// No else needed: early return pattern (guard clause)
	if err := livechat.Register(engine, cfg, logger, mongoClient); err != nil {
		return fmt.Errorf("failed to register chat service: %w", err)
	}

	srv := newHTTPServer(fmt.Sprintf(":%d", cfg.Server.Port), engine)

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "port", cfg.Server.Port)
		// No else needed: specific error handling (closed server is normal)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-sigChan:
		logger.Info("Shutting down gracefully", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	// Service shutdown closes WebSocket connections before the HTTP listener
	// stops accepting, so in-flight frames drain first
	// No else needed: optional operation (error logging)
	if err := livechat.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Service shutdown error", "error", err)
	}

	// No else needed: early return pattern (guard clause)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

func main() {
	configFile := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	if err := runWithSignalChannel(*configFile, setupSignalHandler()); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
