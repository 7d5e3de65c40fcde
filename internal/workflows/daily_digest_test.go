package workflows

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/fyrsmithlabs/digestd/internal/digest"
	"github.com/fyrsmithlabs/digestd/internal/store"
)

func testWindow() *FeedbackWindow {
	src := "github"
	return &FeedbackWindow{Items: []store.FeedbackItem{
		{ID: 1, Content: "search never finds my files", Source: &src},
		{ID: 2, Content: "the new editor is great"},
	}}
}

func testAnalysis() *AnalysisResult {
	return &AnalysisResult{Payload: &digest.Payload{
		TopThemes: []digest.Theme{
			{Theme: "Search quality", Mentions: 1, Impact: digest.LevelHigh, Confidence: digest.LevelHigh},
		},
		Sentiment: digest.Sentiment{Frustrated: 50, Neutral: 0, Positive: 50, Trend: digest.TrendStable},
		Metadata:  digest.Metadata{Date: "August 30, 2026", Sources: []string{"github"}, FeedbackCount: 2},
	}}
}

// TestDailyDigestWorkflow tests the main digest pipeline workflow.
func TestDailyDigestWorkflow(t *testing.T) {
	t.Run("completes full pipeline", func(t *testing.T) {
		testSuite := &testsuite.WorkflowTestSuite{}
		env := testSuite.NewTestWorkflowEnvironment()

		env.RegisterWorkflow(DailyDigestWorkflow)

		var a *Activities
		env.OnActivity(a.FetchRecentFeedback, mock.Anything).Return(testWindow(), nil)
		env.OnActivity(a.AnalyzeFeedback, mock.Anything, mock.Anything).Return(testAnalysis(), nil)
		env.OnActivity(a.StoreDigest, mock.Anything, mock.Anything).Return(&StoreDigestResult{Summary: `{"topThemes":[]}`}, nil)
		env.OnActivity(a.PublishDigest, mock.Anything, mock.Anything).Return(nil)

		env.ExecuteWorkflow(DailyDigestWorkflow, DailyDigestConfig{RunID: "test-run"})

		require.True(t, env.IsWorkflowCompleted())
		require.NoError(t, env.GetWorkflowError())

		var result DailyDigestResult
		require.NoError(t, env.GetWorkflowResult(&result))
		assert.Equal(t, StatusCompleted, result.Status)
		assert.Equal(t, 2, result.FeedbackCount)
		assert.Equal(t, `{"topThemes":[]}`, result.Summary)
		assert.True(t, result.Delivered)
		assert.Empty(t, result.Reason)
	})

	t.Run("skips empty window without analyzing", func(t *testing.T) {
		testSuite := &testsuite.WorkflowTestSuite{}
		env := testSuite.NewTestWorkflowEnvironment()

		env.RegisterWorkflow(DailyDigestWorkflow)

		var a *Activities
		env.OnActivity(a.FetchRecentFeedback, mock.Anything).Return(&FeedbackWindow{}, nil)

		env.ExecuteWorkflow(DailyDigestWorkflow, DailyDigestConfig{RunID: "test-run"})

		require.True(t, env.IsWorkflowCompleted())
		require.NoError(t, env.GetWorkflowError())

		var result DailyDigestResult
		require.NoError(t, env.GetWorkflowResult(&result))
		assert.Equal(t, StatusSkipped, result.Status)
		assert.Equal(t, SkipReasonNoFeedback, result.Reason)
		assert.Zero(t, result.FeedbackCount)
		assert.False(t, result.Delivered)
	})

	t.Run("fails when analysis exhausts retries", func(t *testing.T) {
		testSuite := &testsuite.WorkflowTestSuite{}
		env := testSuite.NewTestWorkflowEnvironment()

		env.RegisterWorkflow(DailyDigestWorkflow)

		var a *Activities
		env.OnActivity(a.FetchRecentFeedback, mock.Anything).Return(testWindow(), nil)
		env.OnActivity(a.AnalyzeFeedback, mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

		env.ExecuteWorkflow(DailyDigestWorkflow, DailyDigestConfig{RunID: "test-run"})

		require.True(t, env.IsWorkflowCompleted())
		err := env.GetWorkflowError()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("fails when storage errors", func(t *testing.T) {
		testSuite := &testsuite.WorkflowTestSuite{}
		env := testSuite.NewTestWorkflowEnvironment()

		env.RegisterWorkflow(DailyDigestWorkflow)

		var a *Activities
		env.OnActivity(a.FetchRecentFeedback, mock.Anything).Return(testWindow(), nil)
		env.OnActivity(a.AnalyzeFeedback, mock.Anything, mock.Anything).Return(testAnalysis(), nil)
		env.OnActivity(a.StoreDigest, mock.Anything, mock.Anything).Return(nil, errors.New("database is locked"))

		env.ExecuteWorkflow(DailyDigestWorkflow, DailyDigestConfig{RunID: "test-run"})

		require.True(t, env.IsWorkflowCompleted())
		err := env.GetWorkflowError()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database is locked")
	})

	t.Run("delivery failure still completes the run", func(t *testing.T) {
		testSuite := &testsuite.WorkflowTestSuite{}
		env := testSuite.NewTestWorkflowEnvironment()

		env.RegisterWorkflow(DailyDigestWorkflow)

		var a *Activities
		env.OnActivity(a.FetchRecentFeedback, mock.Anything).Return(testWindow(), nil)
		env.OnActivity(a.AnalyzeFeedback, mock.Anything, mock.Anything).Return(testAnalysis(), nil)
		env.OnActivity(a.StoreDigest, mock.Anything, mock.Anything).Return(&StoreDigestResult{Summary: `{}`}, nil)
		env.OnActivity(a.PublishDigest, mock.Anything, mock.Anything).Return(errors.New("webhook returned 500"))

		env.ExecuteWorkflow(DailyDigestWorkflow, DailyDigestConfig{RunID: "test-run"})

		require.True(t, env.IsWorkflowCompleted())
		require.NoError(t, env.GetWorkflowError())

		var result DailyDigestResult
		require.NoError(t, env.GetWorkflowResult(&result))
		assert.Equal(t, StatusCompleted, result.Status)
		assert.False(t, result.Delivered)
		assert.Equal(t, `{}`, result.Summary)
	})
}
