package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workspacekit/manifest-eval/internal/model"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func sampleTrial(scenarioID string, variant model.Variant, runIndex int, accuracy float64) model.TrialResult {
	return model.TrialResult{
		ScenarioID:      scenarioID,
		Variant:         variant,
		RunIndex:        runIndex,
		Status:          model.TrialCompleted,
		SelectedEntries: []string{"level1-core.mdc"},
		ExpectedEntries: []string{"level1-core.mdc"},
		Accuracy:        accuracy,
		Precision:       100,
		Confidence:      90,
		Timestamp:       time.Now().UTC().Truncate(time.Second),
	}
}

func TestSQLite_RunLifecycle(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "llm", "claude-sonnet-4-5-20250929")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "llm", got.Selector)
	assert.Equal(t, "claude-sonnet-4-5-20250929", got.Model)

	require.NoError(t, st.UpdateRunStatus(ctx, run.ID, model.RunStatusComplete))
	got, err = st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
}

func TestSQLite_GetRun_NotFound(t *testing.T) {
	st := newTestSQLite(t)
	_, err := st.GetRun(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_UpdateRunStatus_NotFound(t *testing.T) {
	st := newTestSQLite(t)
	err := st.UpdateRunStatus(context.Background(), "nonexistent", model.RunStatusFailed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_ListRuns_StatusFilter(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	r1, err := st.CreateRun(ctx, "rules", "")
	require.NoError(t, err)
	_, err = st.CreateRun(ctx, "llm", "claude-sonnet-4-5-20250929")
	require.NoError(t, err)
	require.NoError(t, st.UpdateRunStatus(ctx, r1.ID, model.RunStatusComplete))

	complete, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, complete, 1)
	assert.Equal(t, r1.ID, complete[0].ID)

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSQLite_AppendAndListTrials(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "rules", "")
	require.NoError(t, err)

	// Append out of canonical order; listing must sort.
	trials := []model.TrialResult{
		sampleTrial("beta", model.VariantEnhanced, 2, 100),
		sampleTrial("alpha", model.VariantBaseline, 1, 50),
		sampleTrial("beta", model.VariantEnhanced, 1, 75),
		sampleTrial("alpha", model.VariantEnhanced, 1, 100),
	}
	require.NoError(t, st.AppendTrials(ctx, run.ID, trials))

	got, err := st.ListTrials(ctx, TrialFilter{RunID: run.ID})
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, "alpha", got[0].ScenarioID)
	assert.Equal(t, model.VariantBaseline, got[0].Variant)
	assert.Equal(t, "alpha", got[1].ScenarioID)
	assert.Equal(t, model.VariantEnhanced, got[1].Variant)
	assert.Equal(t, "beta", got[2].ScenarioID)
	assert.Equal(t, 1, got[2].RunIndex)
	assert.Equal(t, 2, got[3].RunIndex)

	// The JSON payload round-trips the full trial.
	assert.Equal(t, []string{"level1-core.mdc"}, got[0].SelectedEntries)
	assert.Equal(t, 50.0, got[0].Accuracy)
}

func TestSQLite_ListTrials_Filters(t *testing.T) {
	st := newTestSQLite(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, "rules", "")
	require.NoError(t, err)
	require.NoError(t, st.AppendTrials(ctx, run.ID, []model.TrialResult{
		sampleTrial("alpha", model.VariantBaseline, 1, 50),
		sampleTrial("alpha", model.VariantEnhanced, 1, 100),
		sampleTrial("beta", model.VariantBaseline, 1, 75),
	}))

	byScenario, err := st.ListTrials(ctx, TrialFilter{RunID: run.ID, ScenarioID: "alpha"})
	require.NoError(t, err)
	assert.Len(t, byScenario, 2)

	byVariant, err := st.ListTrials(ctx, TrialFilter{RunID: run.ID, Variant: model.VariantBaseline})
	require.NoError(t, err)
	assert.Len(t, byVariant, 2)

	limited, err := st.ListTrials(ctx, TrialFilter{RunID: run.ID, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, model.VariantEnhanced, limited[0].Variant)
}

func TestSQLite_AppendTrials_Empty(t *testing.T) {
	st := newTestSQLite(t)
	require.NoError(t, st.AppendTrials(context.Background(), "any", nil))
}
