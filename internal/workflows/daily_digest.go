// Package workflows provides Temporal workflow definitions for the digest
// pipeline.
package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// Run statuses recorded in DailyDigestResult.
const (
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// SkipReasonNoFeedback is the reason attached to a skipped run.
const SkipReasonNoFeedback = "No feedback to analyze"

// DailyDigestConfig configures one digest run.
type DailyDigestConfig struct {
	RunID string // Correlation ID for logs, not the Temporal run ID
}

// DailyDigestResult describes the outcome of one digest run.
type DailyDigestResult struct {
	Status        string // completed, skipped, or failed
	Reason        string // Populated for skipped runs
	FeedbackCount int    // Size of the analyzed window
	Summary       string // Serialized digest payload, as stored
	Delivered     bool   // Whether the channel post succeeded
}

// DailyDigestWorkflow runs one feedback digest pass.
//
// This workflow:
// 1. Fetches the recent feedback window
// 2. Analyzes it into a structured digest
// 3. Stores the digest
// 4. Posts the digest to the notification channel (best-effort)
//
// An empty window skips steps 2-4 and completes with StatusSkipped. A
// failure in fetch, analyze, or store after retries are exhausted returns
// StatusFailed alongside the error. Delivery failures never fail the run.
func DailyDigestWorkflow(ctx workflow.Context, config DailyDigestConfig) (*DailyDigestResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting daily digest run", "run_id", config.RunID)

	retryPolicy := &temporal.RetryPolicy{
		InitialInterval:    time.Second,
		BackoffCoefficient: 2.0,
		MaximumInterval:    time.Minute,
		MaximumAttempts:    5,
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy:         retryPolicy,
	})

	var a *Activities
	result := &DailyDigestResult{}

	// Step 1: Fetch the feedback window
	var window FeedbackWindow
	err := workflow.ExecuteActivity(ctx, a.FetchRecentFeedback).Get(ctx, &window)
	if err != nil {
		result.Status = StatusFailed
		return result, err
	}
	result.FeedbackCount = len(window.Items)

	if len(window.Items) == 0 {
		logger.Info("No feedback in window, skipping run")
		result.Status = StatusSkipped
		result.Reason = SkipReasonNoFeedback
		return result, nil
	}

	// Step 2: Analyze. Inference calls are slow, so this step gets a wider
	// timeout than the storage steps.
	analyzeCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 3 * time.Minute,
		RetryPolicy:         retryPolicy,
	})

	var analysis AnalysisResult
	err = workflow.ExecuteActivity(analyzeCtx, a.AnalyzeFeedback, window).Get(ctx, &analysis)
	if err != nil {
		result.Status = StatusFailed
		return result, err
	}

	// Step 3: Store the digest
	var stored StoreDigestResult
	err = workflow.ExecuteActivity(ctx, a.StoreDigest, analysis).Get(ctx, &stored)
	if err != nil {
		result.Status = StatusFailed
		return result, err
	}
	result.Summary = stored.Summary

	// Step 4: Deliver. One retry only, and errors are logged rather than
	// returned: the digest is already stored.
	notifyCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: 2,
		},
	})

	err = workflow.ExecuteActivity(notifyCtx, a.PublishDigest, analysis).Get(ctx, nil)
	if err != nil {
		logger.Warn("Digest delivery failed", "error", err)
	} else {
		result.Delivered = true
	}

	logger.Info("Daily digest run complete",
		"feedback_count", result.FeedbackCount,
		"delivered", result.Delivered)

	result.Status = StatusCompleted
	return result, nil
}
