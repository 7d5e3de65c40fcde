package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		logger, err := NewLogger(NewDefaultConfig())
		require.NoError(t, err)
		require.NotNil(t, logger)
		assert.True(t, logger.Enabled(zapcore.InfoLevel))
		assert.False(t, logger.Enabled(zapcore.DebugLevel))
	})

	t.Run("invalid format rejected", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Format = "xml"
		_, err := NewLogger(cfg)
		require.Error(t, err)
	})

	t.Run("invalid sampling tick rejected", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Sampling.Enabled = true
		cfg.Sampling.Tick = 0
		_, err := NewLogger(cfg)
		require.Error(t, err)
	})

	t.Run("empty field value rejected", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Fields = map[string]string{"service": ""}
		_, err := NewLogger(cfg)
		require.Error(t, err)
	})
}

func TestLoggerContextFields(t *testing.T) {
	tl := NewTestLogger()

	ctx := WithRequestID(context.Background(), "req-123")
	ctx = WithRunID(ctx, "run-abc")

	tl.Info(ctx, "digest stored", zap.Int("feedback_count", 3))

	entries := tl.FilterMessage("digest stored").All()
	require.Len(t, entries, 1)

	keys := map[string]bool{}
	for _, f := range entries[0].Context {
		keys[f.Key] = true
	}
	assert.True(t, keys["request.id"])
	assert.True(t, keys["run.id"])
	assert.True(t, keys["feedback_count"])
}

func TestContextIDValidation(t *testing.T) {
	assert.Panics(t, func() { WithRequestID(context.Background(), "") })
	assert.Panics(t, func() { WithRequestID(context.Background(), "bad id with spaces") })
	assert.Panics(t, func() { WithRunID(context.Background(), "") })

	assert.NotPanics(t, func() { WithRunID(context.Background(), "daily-digest_01") })
}

func TestFromContext(t *testing.T) {
	// Without a logger, FromContext returns a usable nop logger
	l := FromContext(context.Background())
	require.NotNil(t, l)
	assert.NotPanics(t, func() { l.Info(context.Background(), "noop") })

	tl := NewTestLogger()
	ctx := WithLogger(context.Background(), tl.Logger)
	assert.Same(t, tl.Logger, FromContext(ctx))
}

func TestNamedAndWith(t *testing.T) {
	tl := NewTestLogger()
	child := tl.Named("store").With(zap.String("component", "sqlite"))
	child.Info(context.Background(), "opened")

	entries := tl.FilterMessage("opened").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "store", entries[0].LoggerName)
}
