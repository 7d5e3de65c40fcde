// Package main provides the digestd API server.
//
// The server exposes the digest HTTP API, registers the daily cron digest
// on the Temporal cluster, and serves Prometheus metrics.
//
// Usage:
//
//	digestd -config ~/.config/digestd/config.yaml
//
// Every config field can also come from the environment, e.g.
// SERVER_PORT=8090 TEMPORAL_HOST_PORT=localhost:7233 ./digestd
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/digestd/internal/config"
	httpapi "github.com/fyrsmithlabs/digestd/internal/http"
	"github.com/fyrsmithlabs/digestd/internal/logging"
	"github.com/fyrsmithlabs/digestd/internal/store"
	"github.com/fyrsmithlabs/digestd/internal/telemetry"
	"github.com/fyrsmithlabs/digestd/internal/workflows"
)

const serviceVersion = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file (default ~/.config/digestd/config.yaml)")
	flag.Parse()

	// Create root context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize logging
	logCfg := logging.NewDefaultConfig()
	logger, err := logging.NewLogger(logCfg)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	// Load configuration
	cfg, err := config.LoadWithFile(*configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger.Info(ctx, "digestd starting",
		zap.String("version", serviceVersion),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("temporal_host", cfg.Temporal.HostPort),
	)

	// Metrics pipeline
	tp, err := telemetry.NewProvider("digestd", serviceVersion)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	// Open the digest store
	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	logger.Info(ctx, "database ready", zap.String("path", db.Path()))

	// Create Temporal client
	tc, err := workflows.Dial(cfg.Temporal)
	if err != nil {
		return fmt.Errorf("unable to create Temporal client: %w", err)
	}
	defer tc.Close()

	logger.Info(ctx, "temporal client connected", zap.String("host", cfg.Temporal.HostPort))

	// Register the daily cron digest
	runner := workflows.NewRunner(tc, cfg.Temporal, logger)
	if err := runner.ScheduleDaily(ctx); err != nil {
		return fmt.Errorf("registering cron digest: %w", err)
	}

	// Create HTTP server
	server, err := httpapi.NewServer(runner, db, tp.Registry(), logger, &httpapi.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	// Start server in background
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info(ctx, "shutdown signal received")
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "server shutdown error", zap.Error(err))
		return err
	}

	logger.Info(ctx, "server stopped gracefully")
	return nil
}
