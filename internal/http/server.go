// Package http provides the HTTP API for digestd.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/digestd/internal/logging"
	"github.com/fyrsmithlabs/digestd/internal/store"
	"github.com/fyrsmithlabs/digestd/internal/workflows"
)

// PipelineRunner starts a digest run and blocks for its result.
type PipelineRunner interface {
	TriggerRun(ctx context.Context) (*workflows.DailyDigestResult, error)
}

// DigestReader reads stored digests.
type DigestReader interface {
	SelectLatestDigest(ctx context.Context) (*store.DigestRecord, error)
}

// Server provides HTTP endpoints for digestd.
type Server struct {
	echo     *echo.Echo
	runner   PipelineRunner
	digests  DigestReader
	registry *prometheus.Registry
	logger   *logging.Logger
	config   *Config
	limiters *ipLimiters
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// NewServer creates a new HTTP server.
func NewServer(runner PipelineRunner, digests DigestReader, registry *prometheus.Registry, logger *logging.Logger, cfg *Config) (*Server, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner cannot be nil")
	}
	if digests == nil {
		return nil, fmt.Errorf("digest reader cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 8090,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			ctx := c.Request().Context()
			err := next(c)
			duration := time.Since(start)

			logger.Info(ctx, "http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	metrics := NewHTTPMetrics(logger)
	e.Use(metrics.MetricsMiddleware())

	s := &Server{
		echo:     e,
		runner:   runner,
		digests:  digests,
		registry: registry,
		logger:   logger.Named("http"),
		config:   cfg,
		limiters: newIPLimiters(),
	}

	// Register routes
	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	// Health check
	s.echo.GET("/health", s.handleHealth)

	// Prometheus exposition
	if s.registry != nil {
		s.echo.GET("/metrics", echo.WrapHandler(
			promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	}

	// API v1 routes
	v1 := s.echo.Group("/api/v1")
	v1.POST("/digests/run", s.handleRunDigest, s.rateLimitMiddleware())
	v1.GET("/digests/latest", s.handleLatestDigest)
}

// RunResponse is the response body for POST /api/v1/digests/run.
type RunResponse struct {
	Status        string          `json:"status"`
	Reason        string          `json:"reason,omitempty"`
	FeedbackCount int             `json:"feedback_count"`
	Delivered     bool            `json:"delivered"`
	Digest        json.RawMessage `json:"digest,omitempty"`
}

// LatestDigestResponse is the response body for GET /api/v1/digests/latest.
type LatestDigestResponse struct {
	ID            int64           `json:"id"`
	Digest        json.RawMessage `json:"digest"`
	FeedbackCount int             `json:"feedback_count"`
	CreatedAt     time.Time       `json:"created_at"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleRunDigest starts one pipeline run and blocks until it finishes.
func (s *Server) handleRunDigest(c echo.Context) error {
	ctx := c.Request().Context()

	result, err := s.runner.TriggerRun(ctx)
	if err != nil {
		s.logger.Error(ctx, "digest run failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, RunResponse{
			Status: workflows.StatusFailed,
			Reason: err.Error(),
		})
	}

	resp := RunResponse{
		Status:        result.Status,
		Reason:        result.Reason,
		FeedbackCount: result.FeedbackCount,
		Delivered:     result.Delivered,
	}
	if result.Summary != "" {
		resp.Digest = json.RawMessage(result.Summary)
	}

	if result.Status == workflows.StatusSkipped {
		return c.JSON(http.StatusNotFound, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// handleLatestDigest returns the most recent stored digest. The stored
// summary is passed through verbatim so repeated reads stay byte-identical.
func (s *Server) handleLatestDigest(c echo.Context) error {
	ctx := c.Request().Context()

	rec, err := s.digests.SelectLatestDigest(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNoDigest) {
			return echo.NewHTTPError(http.StatusNotFound, "no digest available")
		}
		s.logger.Error(ctx, "reading latest digest", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read digest")
	}

	return c.JSON(http.StatusOK, LatestDigestResponse{
		ID:            rec.ID,
		Digest:        json.RawMessage(rec.Summary),
		FeedbackCount: rec.FeedbackCount,
		CreatedAt:     rec.CreatedAt,
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
