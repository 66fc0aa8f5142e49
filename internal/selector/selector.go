// Package selector defines the decision contract of the evaluation harness:
// given a manifest and a project context, return the subset of entries an
// agent should load, with a confidence figure and optional reasoning. Two
// implementations exist: a deterministic rule evaluator used as the oracle,
// and an adapter to the Anthropic completion API.
package selector

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/workspacekit/manifest-eval/internal/model"
)

var (
	// ErrSelectorTimeout marks a selection that did not return within the
	// caller-supplied timeout.
	ErrSelectorTimeout = eris.New("selector timeout")

	// ErrResponseParse marks an external response that could not be parsed
	// into the expected shape. The runner records it as an accuracy-0 trial.
	ErrResponseParse = eris.New("response parse")
)

// Outcome is one selection decision.
type Outcome struct {
	SelectedEntries []string
	// Confidence is the selector's 0-100 self-report.
	Confidence float64
	Reasoning  string
	// ClarificationRequested is true when the selector declined to decide
	// and asked for more context instead.
	ClarificationRequested bool
	// RawOutput is the unparsed response, retained for audit. Also populated
	// on ErrResponseParse so the failed trial keeps the evidence.
	RawOutput string
}

// Selector decides which manifest entries to load for a context. Select must
// honor ctx cancellation/deadline and must not mutate the manifest.
type Selector interface {
	Name() string
	Select(ctx context.Context, m *model.Manifest, scenarioCtx model.Context) (*Outcome, error)
}
