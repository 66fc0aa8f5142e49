// Package store persists evaluation runs and their trial results. Trials are
// append-only: a recorded trial is never updated or overwritten, matching the
// immutability of TrialResult.
package store

import (
	"context"

	"github.com/workspacekit/manifest-eval/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// TrialFilter specifies criteria for listing trials. Results are always
// ordered by scenario, variant, then run index so per-scenario statistics
// read reproducibly.
type TrialFilter struct {
	RunID      string        `json:"run_id,omitempty"`
	ScenarioID string        `json:"scenario_id,omitempty"`
	Variant    model.Variant `json:"variant,omitempty"`
	Limit      int           `json:"limit,omitempty"`
	Offset     int           `json:"offset,omitempty"`
}

// Store defines the persistence interface for the evaluation harness.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, selectorName, modelID string) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Trials (append-only)
	AppendTrials(ctx context.Context, runID string, trials []model.TrialResult) error
	ListTrials(ctx context.Context, filter TrialFilter) ([]model.TrialResult, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
