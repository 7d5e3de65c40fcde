package digest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/digestd/internal/llm"
	"github.com/fyrsmithlabs/digestd/internal/logging"
	"github.com/fyrsmithlabs/digestd/internal/store"
)

// ErrNoFeedback indicates an empty feedback window: the builder performs no
// inference call and nothing should be stored.
var ErrNoFeedback = errors.New("no feedback to analyze")

// WindowSize is the maximum number of feedback rows one digest covers.
const WindowSize = 50

// Builder produces one validated Payload per feedback window.
type Builder struct {
	provider  llm.Provider
	maxTokens int
	logger    *logging.Logger

	// now is swappable in tests for deterministic metadata dates
	now func() time.Time
}

// NewBuilder creates a digest builder. maxTokens bounds the completion; the
// full-feature prompt needs around 1500.
func NewBuilder(provider llm.Provider, maxTokens int, logger *logging.Logger) *Builder {
	return &Builder{
		provider:  provider,
		maxTokens: maxTokens,
		logger:    logger.Named("digest"),
		now:       time.Now,
	}
}

// Build turns a feedback window (most-recent-first, at most WindowSize
// items) into one digest payload.
//
// Inference transport failures propagate to the caller so the retry
// machinery can handle them. Parse and schema failures do not: those take
// the fallback payload, and the build still succeeds. The returned payload
// is always structurally valid and never nil on a nil error.
func (b *Builder) Build(ctx context.Context, items []store.FeedbackItem) (*Payload, error) {
	if len(items) == 0 {
		return nil, ErrNoFeedback
	}
	if len(items) > WindowSize {
		items = items[:WindowSize]
	}

	prompt := buildPrompt(items)

	completion, err := b.provider.Complete(ctx, prompt, b.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("inference call: %w", err)
	}

	payload := b.parseCompletion(ctx, completion)
	payload.Metadata = buildMetadata(items, b.now())
	payload.ensureDefaults()

	return payload, nil
}

// parseCompletion extracts and validates the JSON object inside the
// completion text, falling back to the sentinel payload when the model
// produced nothing usable.
func (b *Builder) parseCompletion(ctx context.Context, completion string) *Payload {
	raw, ok := ExtractJSONObject(completion)
	if !ok {
		b.logger.Warn(ctx, "no JSON object in completion",
			zap.Int("completion_len", len(completion)))
		return fallbackPayload()
	}

	var payload Payload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		b.logger.Warn(ctx, "completion JSON failed to parse", zap.Error(err))
		return fallbackPayload()
	}

	if err := payload.validate(); err != nil {
		b.logger.Warn(ctx, "completion JSON failed schema validation", zap.Error(err))
		return fallbackPayload()
	}

	payload.Sentiment = normalizeSentiment(payload.Sentiment)
	return &payload
}

// normalizeSentiment rescales the three sentiment counts to percentages of
// their sum, rounded to the nearest integer. Rounding drift away from an
// exact 100 total is accepted. A zero sum takes the neutral default.
func normalizeSentiment(s Sentiment) Sentiment {
	total := s.Frustrated + s.Neutral + s.Positive
	if total <= 0 {
		return defaultSentiment()
	}

	pct := func(n int) int {
		return int(math.Round(float64(n) * 100 / float64(total)))
	}

	return Sentiment{
		Frustrated: pct(s.Frustrated),
		Neutral:    pct(s.Neutral),
		Positive:   pct(s.Positive),
		Trend:      s.Trend,
	}
}

// buildMetadata computes the distinct non-empty sources, the display date,
// and the window size. Unlabeled feedback counts toward feedbackCount but
// contributes no source entry.
func buildMetadata(items []store.FeedbackItem, now time.Time) Metadata {
	seen := make(map[string]bool)
	sources := make([]string, 0, 4)
	for _, item := range items {
		if item.Source == nil || *item.Source == "" {
			continue
		}
		if !seen[*item.Source] {
			seen[*item.Source] = true
			sources = append(sources, *item.Source)
		}
	}

	return Metadata{
		Date:          now.Format("January 2, 2006"),
		Sources:       sources,
		FeedbackCount: len(items),
	}
}
