// Package runner orchestrates scenarios × variants × runs through a Selector
// and collects the resulting trials. Each (scenario, variant, run) cell moves
// Pending → Dispatched → {Completed | Failed | TimedOut}; a failed cell is
// recorded with accuracy 0 and the run continues.
package runner

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/workspacekit/manifest-eval/internal/fixture"
	"github.com/workspacekit/manifest-eval/internal/model"
	"github.com/workspacekit/manifest-eval/internal/resilience"
	"github.com/workspacekit/manifest-eval/internal/scorer"
	"github.com/workspacekit/manifest-eval/internal/selector"
)

// FlushFunc receives the completed trials of one (scenario, variant) group so
// long runs can persist incrementally. Flush failures are logged, not fatal:
// losing a checkpoint must not lose the in-memory run.
type FlushFunc func(ctx context.Context, trials []model.TrialResult) error

// Options configures a run.
type Options struct {
	// Variants to evaluate. Defaults to both.
	Variants []model.Variant
	// RunsPerScenario is the trial count per (scenario, variant). Default 1.
	RunsPerScenario int
	// Concurrency bounds parallel (scenario, variant) groups. Runs within a
	// group always execute sequentially so run_index ordering is preserved.
	// Default 1 (fully sequential).
	Concurrency int
	// Flush, when set, is called after each group completes.
	Flush FlushFunc
}

// Runner dispatches trials through a selector.
type Runner struct {
	sel selector.Selector
}

// New builds a Runner around an already-constructed Selector; provider
// selection and credentials are the caller's concern.
func New(sel selector.Selector) *Runner {
	return &Runner{sel: sel}
}

// group is one (scenario, variant) cell column: RunsPerScenario sequential
// trials.
type group struct {
	scenario model.Scenario
	variant  model.Variant
	manifest *model.Manifest
}

// Run executes every trial and returns results ordered by variant, scenario,
// then run index, regardless of dispatch interleaving. Cancellation between
// dispatches returns the trials collected so far along with ctx.Err().
func (r *Runner) Run(ctx context.Context, suite *fixture.Suite, opts Options) ([]model.TrialResult, error) {
	if opts.RunsPerScenario <= 0 {
		opts.RunsPerScenario = 1
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	variants := opts.Variants
	if len(variants) == 0 {
		variants = model.Variants
	}

	var groups []group
	for _, variant := range variants {
		for _, sc := range suite.Scenarios {
			groups = append(groups, group{
				scenario: sc,
				variant:  variant,
				manifest: suite.Manifest(sc.ScenarioID, variant),
			})
		}
	}

	zap.L().Info("starting evaluation run",
		zap.String("selector", r.sel.Name()),
		zap.Int("scenarios", len(suite.Scenarios)),
		zap.Int("variants", len(variants)),
		zap.Int("runs_per_scenario", opts.RunsPerScenario),
		zap.Int("concurrency", opts.Concurrency),
	)

	results := make([][]model.TrialResult, len(groups))

	if opts.Concurrency == 1 {
		for i, grp := range groups {
			if err := ctx.Err(); err != nil {
				return flatten(results), err
			}
			results[i] = r.runGroup(ctx, grp, opts)
			r.flush(ctx, opts.Flush, results[i])
		}
		return flatten(results), nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, grp := range groups {
		if err := ctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			trials := r.runGroup(gctx, grp, opts)
			mu.Lock()
			results[i] = trials
			mu.Unlock()
			r.flush(gctx, opts.Flush, trials)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return flatten(results), err
	}
	return flatten(results), ctx.Err()
}

// runGroup executes the sequential run column for one (scenario, variant).
func (r *Runner) runGroup(ctx context.Context, grp group, opts Options) []model.TrialResult {
	trials := make([]model.TrialResult, 0, opts.RunsPerScenario)
	for runIdx := 1; runIdx <= opts.RunsPerScenario; runIdx++ {
		if ctx.Err() != nil {
			return trials
		}
		trial := r.runTrial(ctx, grp, runIdx)
		trials = append(trials, trial)

		if trial.Failed() {
			zap.L().Warn("trial failed",
				zap.String("scenario", grp.scenario.ScenarioID),
				zap.String("variant", string(grp.variant)),
				zap.Int("run_index", runIdx),
				zap.String("error_kind", trial.ErrorKind),
			)
		}
	}

	zap.L().Info("scenario complete",
		zap.String("scenario", grp.scenario.ScenarioID),
		zap.String("variant", string(grp.variant)),
		zap.Int("trials", len(trials)),
	)
	return trials
}

// runTrial dispatches one selector invocation and scores the outcome. A
// selector error becomes a recorded zero-accuracy trial, never a panic or an
// aborted run.
func (r *Runner) runTrial(ctx context.Context, grp group, runIdx int) model.TrialResult {
	expected := grp.scenario.ExpectedFor(grp.variant)

	trial := model.TrialResult{
		ScenarioID:      grp.scenario.ScenarioID,
		Complexity:      grp.scenario.Complexity,
		Variant:         grp.variant,
		RunIndex:        runIdx,
		Status:          model.TrialDispatched,
		ExpectedEntries: expected,
		Timestamp:       time.Now().UTC(),
	}

	start := time.Now()
	outcome, err := r.sel.Select(ctx, grp.manifest, grp.scenario.Context)
	trial.DecisionLatencyMS = time.Since(start).Milliseconds()

	if err != nil {
		trial.Status = model.TrialFailed
		if errors.Is(err, selector.ErrSelectorTimeout) {
			trial.Status = model.TrialTimedOut
		}
		trial.ErrorKind = errorKind(err)
		trial.RawOutput = err.Error()
		// A parse failure still carries the response for audit.
		if outcome != nil && outcome.RawOutput != "" {
			trial.RawOutput = outcome.RawOutput
		}
		trial.Accuracy = 0
		trial.Precision = 0
		return trial
	}

	trial.Status = model.TrialCompleted
	trial.SelectedEntries = outcome.SelectedEntries
	trial.Confidence = outcome.Confidence
	trial.Reasoning = outcome.Reasoning
	trial.ClarificationRequested = outcome.ClarificationRequested
	trial.RawOutput = outcome.RawOutput

	trial.Accuracy = scorer.Accuracy(outcome.SelectedEntries, expected)
	trial.Precision = scorer.Precision(outcome.SelectedEntries, expected)
	trial.CorrectEntries, trial.ExtraEntries, trial.MissingEntries = scorer.Partition(outcome.SelectedEntries, expected)
	return trial
}

func (r *Runner) flush(ctx context.Context, fn FlushFunc, trials []model.TrialResult) {
	if fn == nil || len(trials) == 0 {
		return
	}
	if err := fn(ctx, trials); err != nil {
		zap.L().Error("partial-results flush failed",
			zap.String("scenario", trials[0].ScenarioID),
			zap.String("variant", string(trials[0].Variant)),
			zap.Error(err),
		)
	}
}

// errorKind maps a trial error to the recorded taxonomy name.
func errorKind(err error) string {
	switch {
	case errors.Is(err, selector.ErrSelectorTimeout):
		return "selector_timeout"
	case errors.Is(err, selector.ErrResponseParse):
		return "response_parse"
	case resilience.IsTransient(err):
		return "transient_communication"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "selector_error"
	}
}

func flatten(groups [][]model.TrialResult) []model.TrialResult {
	var out []model.TrialResult
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// SplitByVariant partitions trials for the analyzer.
func SplitByVariant(trials []model.TrialResult) (baseline, enhanced []model.TrialResult) {
	for _, t := range trials {
		if t.Variant == model.VariantEnhanced {
			enhanced = append(enhanced, t)
		} else {
			baseline = append(baseline, t)
		}
	}
	return baseline, enhanced
}
