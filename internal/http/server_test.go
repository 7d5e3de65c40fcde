package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/digestd/internal/logging"
	"github.com/fyrsmithlabs/digestd/internal/store"
	"github.com/fyrsmithlabs/digestd/internal/workflows"
)

type fakeRunner struct {
	result *workflows.DailyDigestResult
	err    error
	calls  int
}

func (f *fakeRunner) TriggerRun(_ context.Context) (*workflows.DailyDigestResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeDigests struct {
	rec *store.DigestRecord
	err error
}

func (f *fakeDigests) SelectLatestDigest(_ context.Context) (*store.DigestRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rec, nil
}

func newTestServer(t *testing.T, runner PipelineRunner, digests DigestReader) *Server {
	t.Helper()
	s, err := NewServer(runner, digests, prometheus.NewRegistry(), logging.NewTestLogger().Logger, nil)
	require.NoError(t, err)
	return s
}

func TestNewServerValidation(t *testing.T) {
	logger := logging.NewTestLogger().Logger

	_, err := NewServer(nil, &fakeDigests{}, nil, logger, nil)
	assert.Error(t, err)

	_, err = NewServer(&fakeRunner{}, nil, nil, logger, nil)
	assert.Error(t, err)

	_, err = NewServer(&fakeRunner{}, &fakeDigests{}, nil, nil, nil)
	assert.Error(t, err)
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, &fakeRunner{}, &fakeDigests{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestHandleRunDigest(t *testing.T) {
	t.Run("completed run", func(t *testing.T) {
		runner := &fakeRunner{result: &workflows.DailyDigestResult{
			Status:        workflows.StatusCompleted,
			FeedbackCount: 3,
			Summary:       `{"topThemes":[]}`,
			Delivered:     true,
		}}
		s := newTestServer(t, runner, &fakeDigests{})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/digests/run", nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp RunResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, workflows.StatusCompleted, resp.Status)
		assert.Equal(t, 3, resp.FeedbackCount)
		assert.True(t, resp.Delivered)
		assert.JSONEq(t, `{"topThemes":[]}`, string(resp.Digest))
	})

	t.Run("skipped run", func(t *testing.T) {
		runner := &fakeRunner{result: &workflows.DailyDigestResult{
			Status: workflows.StatusSkipped,
			Reason: workflows.SkipReasonNoFeedback,
		}}
		s := newTestServer(t, runner, &fakeDigests{})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/digests/run", nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusNotFound, rec.Code)

		var resp RunResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, workflows.StatusSkipped, resp.Status)
		assert.Equal(t, workflows.SkipReasonNoFeedback, resp.Reason)
		assert.Empty(t, resp.Digest)
	})

	t.Run("failed run", func(t *testing.T) {
		runner := &fakeRunner{err: errors.New("digest workflow failed: inference call: connection refused")}
		s := newTestServer(t, runner, &fakeDigests{})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/digests/run", nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadGateway, rec.Code)

		var resp RunResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, workflows.StatusFailed, resp.Status)
		assert.Contains(t, resp.Reason, "connection refused")
	})
}

func TestHandleLatestDigest(t *testing.T) {
	t.Run("returns stored digest verbatim", func(t *testing.T) {
		summary := `{"topThemes":[{"theme":"Search quality","mentions":4,"quotes":[],"impact":"High","confidence":"High"}]}`
		digests := &fakeDigests{rec: &store.DigestRecord{
			ID:            7,
			Summary:       summary,
			FeedbackCount: 4,
			CreatedAt:     time.Date(2026, time.August, 30, 9, 0, 0, 0, time.UTC),
		}}
		s := newTestServer(t, &fakeRunner{}, digests)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/digests/latest", nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp LatestDigestResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, int64(7), resp.ID)
		assert.Equal(t, 4, resp.FeedbackCount)
		assert.JSONEq(t, summary, string(resp.Digest))
	})

	t.Run("404 when no digest exists", func(t *testing.T) {
		digests := &fakeDigests{err: store.ErrNoDigest}
		s := newTestServer(t, &fakeRunner{}, digests)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/digests/latest", nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("500 on store errors", func(t *testing.T) {
		digests := &fakeDigests{err: errors.New("disk I/O error")}
		s := newTestServer(t, &fakeRunner{}, digests)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/digests/latest", nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, &fakeRunner{}, &fakeDigests{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRunRateLimit(t *testing.T) {
	runner := &fakeRunner{result: &workflows.DailyDigestResult{Status: workflows.StatusCompleted}}
	s := newTestServer(t, runner, &fakeDigests{})

	// Burst of 2 per IP, then throttled
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/digests/run", nil)
		req.RemoteAddr = "203.0.113.9:1234"
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 2, runner.calls)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(r *http.Request)
		expect string
	}{
		{
			name:   "remote addr",
			setup:  func(r *http.Request) { r.RemoteAddr = "192.0.2.1:5000" },
			expect: "192.0.2.1",
		},
		{
			name:   "x-forwarded-for single",
			setup:  func(r *http.Request) { r.Header.Set("X-Forwarded-For", "198.51.100.2") },
			expect: "198.51.100.2",
		},
		{
			name:   "x-forwarded-for chain takes first",
			setup:  func(r *http.Request) { r.Header.Set("X-Forwarded-For", "198.51.100.2, 10.0.0.1") },
			expect: "198.51.100.2",
		},
		{
			name:   "x-real-ip",
			setup:  func(r *http.Request) { r.Header.Set("X-Real-IP", "198.51.100.3") },
			expect: "198.51.100.3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			assert.Equal(t, tt.expect, clientIP(req))
		})
	}
}
