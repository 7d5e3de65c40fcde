// Package main provides the Temporal worker hosting the digest pipeline.
//
// The worker executes DailyDigestWorkflow runs started by the API server,
// whether triggered manually or by the cron schedule.
//
// Usage:
//
//	digest-worker -config ~/.config/digestd/config.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/digestd/internal/config"
	"github.com/fyrsmithlabs/digestd/internal/digest"
	"github.com/fyrsmithlabs/digestd/internal/llm"
	"github.com/fyrsmithlabs/digestd/internal/logging"
	"github.com/fyrsmithlabs/digestd/internal/notify"
	"github.com/fyrsmithlabs/digestd/internal/store"
	"github.com/fyrsmithlabs/digestd/internal/workflows"
)

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

	logger.Info(ctx, "digest worker starting",
		zap.String("temporal_host", cfg.Temporal.HostPort),
		zap.String("task_queue", cfg.Temporal.TaskQueue),
		zap.String("model", cfg.LLM.Model),
	)

	// Open the feedback store
	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	// Wire the pipeline dependencies
	provider, err := llm.NewClient(cfg.LLM)
	if err != nil {
		return fmt.Errorf("creating llm client: %w", err)
	}

	builder := digest.NewBuilder(provider, cfg.LLM.MaxTokens, logger)
	notifier := notify.NewWebhookClient(cfg.Slack.WebhookURL, logger)
	if !notifier.Enabled() {
		logger.Warn(ctx, "slack webhook unset, digests will not be delivered")
	}

	activities := workflows.NewActivities(db, builder, notifier, logger)

	// Create Temporal client
	c, err := workflows.Dial(cfg.Temporal)
	if err != nil {
		return fmt.Errorf("unable to create Temporal client: %w", err)
	}
	defer c.Close()

	logger.Info(ctx, "temporal client connected", zap.String("host", cfg.Temporal.HostPort))

	// Create worker
	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow and activities
	w.RegisterWorkflow(workflows.DailyDigestWorkflow)
	w.RegisterActivity(activities)

	logger.Info(ctx, "worker configured",
		zap.String("task_queue", cfg.Temporal.TaskQueue),
	)

	// Start worker in background
	workerErrors := make(chan error, 1)
	go func() {
		logger.Info(ctx, "worker starting")
		workerErrors <- w.Run(worker.InterruptCh())
	}()

	// Wait for shutdown signal or worker error
	select {
	case err := <-workerErrors:
		if err != nil {
			return fmt.Errorf("worker error: %w", err)
		}
	case <-ctx.Done():
		logger.Info(ctx, "shutdown signal received")
	}

	// Worker stops automatically on interrupt signal
	logger.Info(ctx, "worker stopped gracefully")
	return nil
}
