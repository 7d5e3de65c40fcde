package workflows

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/digestd/internal/digest"
	"github.com/fyrsmithlabs/digestd/internal/logging"
	"github.com/fyrsmithlabs/digestd/internal/notify"
	"github.com/fyrsmithlabs/digestd/internal/store"
)

// FeedbackStore is the persistence surface the activities need.
type FeedbackStore interface {
	SelectRecentFeedback(ctx context.Context, limit int) ([]store.FeedbackItem, error)
	InsertDigest(ctx context.Context, summary string, feedbackCount int) error
}

// DigestBuilder turns a feedback window into a digest payload.
type DigestBuilder interface {
	Build(ctx context.Context, items []store.FeedbackItem) (*digest.Payload, error)
}

// Notifier posts a rendered digest to the delivery channel.
type Notifier interface {
	Deliver(ctx context.Context, msg *notify.Message) error
}

// Activities holds the pipeline dependencies. Method activities let the
// worker inject real implementations while tests substitute fakes.
type Activities struct {
	store    FeedbackStore
	builder  DigestBuilder
	notifier Notifier
	logger   *logging.Logger
}

// NewActivities wires the pipeline activities.
func NewActivities(fs FeedbackStore, builder DigestBuilder, notifier Notifier, logger *logging.Logger) *Activities {
	return &Activities{
		store:    fs,
		builder:  builder,
		notifier: notifier,
		logger:   logger.Named("activities"),
	}
}

// Activity I/O types

// FeedbackWindow carries the fetched feedback rows between activities.
type FeedbackWindow struct {
	Items []store.FeedbackItem
}

// AnalysisResult carries the structured digest between activities.
type AnalysisResult struct {
	Payload *digest.Payload
}

// StoreDigestResult reports what was persisted.
type StoreDigestResult struct {
	Summary string // Serialized payload, exactly as stored
}

// FetchRecentFeedback loads the most recent feedback window.
func (a *Activities) FetchRecentFeedback(ctx context.Context) (*FeedbackWindow, error) {
	items, err := a.store.SelectRecentFeedback(ctx, digest.WindowSize)
	if err != nil {
		return nil, fmt.Errorf("fetching feedback window: %w", err)
	}

	a.logger.Debug(ctx, "feedback window fetched", zap.Int("count", len(items)))
	return &FeedbackWindow{Items: items}, nil
}

// AnalyzeFeedback runs inference over the window and returns the digest
// payload. Transport errors are retryable; an empty window is not, since
// retrying cannot make feedback appear.
func (a *Activities) AnalyzeFeedback(ctx context.Context, window FeedbackWindow) (*AnalysisResult, error) {
	payload, err := a.builder.Build(ctx, window.Items)
	if err != nil {
		if errors.Is(err, digest.ErrNoFeedback) {
			return nil, temporal.NewNonRetryableApplicationError(
				"empty feedback window", "EmptyWindow", err)
		}
		return nil, fmt.Errorf("analyzing feedback: %w", err)
	}

	a.logger.Info(ctx, "feedback analyzed",
		zap.Int("themes", len(payload.TopThemes)),
		zap.Bool("fallback", payload.IsFallback()))
	return &AnalysisResult{Payload: payload}, nil
}

// StoreDigest serializes the payload and persists it.
func (a *Activities) StoreDigest(ctx context.Context, analysis AnalysisResult) (*StoreDigestResult, error) {
	if analysis.Payload == nil {
		return nil, temporal.NewNonRetryableApplicationError(
			"nil digest payload", "NilPayload", nil)
	}

	data, err := json.Marshal(analysis.Payload)
	if err != nil {
		return nil, fmt.Errorf("serializing digest: %w", err)
	}

	count := analysis.Payload.Metadata.FeedbackCount
	if err := a.store.InsertDigest(ctx, string(data), count); err != nil {
		return nil, fmt.Errorf("storing digest: %w", err)
	}

	a.logger.Info(ctx, "digest stored",
		zap.Int("feedback_count", count),
		zap.Int("summary_bytes", len(data)))
	return &StoreDigestResult{Summary: string(data)}, nil
}

// PublishDigest renders the payload and posts it to the channel.
func (a *Activities) PublishDigest(ctx context.Context, analysis AnalysisResult) error {
	if analysis.Payload == nil {
		return temporal.NewNonRetryableApplicationError(
			"nil digest payload", "NilPayload", nil)
	}

	msg := notify.BuildMessage(analysis.Payload)
	if err := a.notifier.Deliver(ctx, msg); err != nil {
		return fmt.Errorf("delivering digest: %w", err)
	}
	return nil
}
