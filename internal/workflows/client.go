package workflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/digestd/internal/config"
	"github.com/fyrsmithlabs/digestd/internal/logging"
)

// cronWorkflowID is the fixed ID for the scheduled digest run. Reusing one
// ID lets repeated schedule registrations dedupe against a live cron.
const cronWorkflowID = "daily-digest-cron"

// triggerTimeout bounds a synchronous manual run end to end.
const triggerTimeout = 5 * time.Minute

// Dial connects to the Temporal frontend.
func Dial(cfg config.TemporalConfig) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  cfg.HostPort,
		Namespace: cfg.Namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to temporal at %s: %w", cfg.HostPort, err)
	}
	return c, nil
}

// Runner starts digest workflows on a Temporal cluster.
type Runner struct {
	tc        client.Client
	taskQueue string
	cron      string
	logger    *logging.Logger
}

// NewRunner wraps a Temporal client for the digest task queue.
func NewRunner(tc client.Client, cfg config.TemporalConfig, logger *logging.Logger) *Runner {
	return &Runner{
		tc:        tc,
		taskQueue: cfg.TaskQueue,
		cron:      cfg.CronSchedule,
		logger:    logger.Named("runner"),
	}
}

// TriggerRun starts one digest workflow and blocks until it finishes.
// Every manual trigger gets a fresh workflow ID.
func (r *Runner) TriggerRun(ctx context.Context) (*DailyDigestResult, error) {
	runID := uuid.NewString()
	options := client.StartWorkflowOptions{
		ID:        "daily-digest-manual-" + runID,
		TaskQueue: r.taskQueue,
	}

	ctx, cancel := context.WithTimeout(ctx, triggerTimeout)
	defer cancel()

	we, err := r.tc.ExecuteWorkflow(ctx, options, DailyDigestWorkflow, DailyDigestConfig{RunID: runID})
	if err != nil {
		return nil, fmt.Errorf("starting digest workflow: %w", err)
	}

	r.logger.Info(ctx, "digest workflow started",
		zap.String("workflow_id", we.GetID()),
		zap.String("run_id", we.GetRunID()))

	var result DailyDigestResult
	if err := we.Get(ctx, &result); err != nil {
		return nil, fmt.Errorf("digest workflow failed: %w", err)
	}
	return &result, nil
}

// ScheduleDaily registers the cron digest run. Registration is idempotent:
// if a cron workflow with the fixed ID is already live, the existing
// schedule wins and no error is returned.
func (r *Runner) ScheduleDaily(ctx context.Context) error {
	if r.cron == "" {
		r.logger.Info(ctx, "cron schedule unset, skipping registration")
		return nil
	}

	options := client.StartWorkflowOptions{
		ID:           cronWorkflowID,
		TaskQueue:    r.taskQueue,
		CronSchedule: r.cron,
	}

	_, err := r.tc.ExecuteWorkflow(ctx, options, DailyDigestWorkflow, DailyDigestConfig{RunID: cronWorkflowID})
	if err != nil {
		var already *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &already) {
			r.logger.Info(ctx, "cron digest already scheduled",
				zap.String("workflow_id", cronWorkflowID))
			return nil
		}
		return fmt.Errorf("scheduling cron digest: %w", err)
	}

	r.logger.Info(ctx, "cron digest scheduled",
		zap.String("workflow_id", cronWorkflowID),
		zap.String("cron", r.cron))
	return nil
}
