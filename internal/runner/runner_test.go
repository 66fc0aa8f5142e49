package runner

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rotisserie/eris"

	"github.com/workspacekit/manifest-eval/internal/fixture"
	"github.com/workspacekit/manifest-eval/internal/model"
	"github.com/workspacekit/manifest-eval/internal/selector"
)

const testScenarios = `{
  "scenarios": [
    {
      "scenario_id": "alpha",
      "complexity": "simple",
      "context": {"project_type": "cli", "primary_language": "go"},
      "expected_entries": ["level1-core.mdc", "level2-architecture.mdc", "level3-project-type.mdc", "level4-language.mdc"]
    },
    {
      "scenario_id": "beta",
      "complexity": "edge_case",
      "context": {},
      "expected_entries": ["level1-core.mdc", "level2-architecture.mdc"]
    }
  ]
}`

func testSuite(t *testing.T) *fixture.Suite {
	t.Helper()
	dir := t.TempDir()
	scenariosPath := filepath.Join(dir, "scenarios.json")
	if err := os.WriteFile(scenariosPath, []byte(testScenarios), 0o644); err != nil {
		t.Fatal(err)
	}

	manifestDir := filepath.Join(dir, "manifests")
	scenarios, err := fixture.LoadScenarios(scenariosPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fixture.GenerateAll(scenarios, manifestDir); err != nil {
		t.Fatal(err)
	}

	suite, err := fixture.LoadSuite(scenariosPath, manifestDir)
	if err != nil {
		t.Fatal(err)
	}
	return suite
}

// scriptedSelector echoes the manifest's entry set, fails on demand, and
// records call counts. The "*" key fails every manifest.
type scriptedSelector struct {
	mu      sync.Mutex
	calls   int
	failFor map[string]error
}

func (s *scriptedSelector) Name() string { return "scripted" }

func (s *scriptedSelector) Select(ctx context.Context, m *model.Manifest, scenarioCtx model.Context) (*selector.Outcome, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	for id, err := range s.failFor {
		if m.HasIdentifier(id) || id == "*" {
			if err != nil {
				return nil, err
			}
		}
	}

	return &selector.Outcome{
		SelectedEntries: m.Identifiers(),
		Confidence:      90,
	}, nil
}

func (s *scriptedSelector) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestRun_OrderingAndScoring(t *testing.T) {
	suite := testSuite(t)
	sel := &scriptedSelector{}

	trials, err := New(sel).Run(context.Background(), suite, Options{
		RunsPerScenario: 3,
		Concurrency:     4,
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	// 2 scenarios x 2 variants x 3 runs.
	if len(trials) != 12 {
		t.Fatalf("got %d trials", len(trials))
	}
	if sel.callCount() != 12 {
		t.Errorf("selector called %d times", sel.callCount())
	}

	// Canonical order: variant, then scenario in suite order, then run_index.
	wantOrder := []struct {
		variant  model.Variant
		scenario string
	}{
		{model.VariantBaseline, "alpha"},
		{model.VariantBaseline, "beta"},
		{model.VariantEnhanced, "alpha"},
		{model.VariantEnhanced, "beta"},
	}
	for g, want := range wantOrder {
		for r := 0; r < 3; r++ {
			trial := trials[g*3+r]
			if trial.Variant != want.variant || trial.ScenarioID != want.scenario {
				t.Errorf("trial %d = %s/%s, want %s/%s",
					g*3+r, trial.ScenarioID, trial.Variant, want.scenario, want.variant)
			}
			if trial.RunIndex != r+1 {
				t.Errorf("trial %d run_index = %d, want %d", g*3+r, trial.RunIndex, r+1)
			}
		}
	}

	// The scripted selector returns exactly the manifest entries, which match
	// the ground truth for these scenarios.
	for _, trial := range trials {
		if trial.Status != model.TrialCompleted {
			t.Errorf("trial %s/%s status = %s", trial.ScenarioID, trial.Variant, trial.Status)
		}
		if trial.Accuracy != 100 {
			t.Errorf("trial %s/%s accuracy = %v", trial.ScenarioID, trial.Variant, trial.Accuracy)
		}
	}
}

func TestRun_TrialsCarryComplexity(t *testing.T) {
	suite := testSuite(t)

	trials, err := New(&scriptedSelector{}).Run(context.Background(), suite, Options{RunsPerScenario: 1})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	// Stored trials must stand on their own for later analysis: each carries
	// its scenario's tier.
	want := map[string]model.Complexity{
		"alpha": model.ComplexitySimple,
		"beta":  model.ComplexityEdgeCase,
	}
	for _, trial := range trials {
		if trial.Complexity != want[trial.ScenarioID] {
			t.Errorf("trial %s/%s complexity = %q, want %q",
				trial.ScenarioID, trial.Variant, trial.Complexity, want[trial.ScenarioID])
		}
	}
}

func TestRun_FailedTrialRecordedAndRunContinues(t *testing.T) {
	suite := testSuite(t)
	sel := &scriptedSelector{
		failFor: map[string]error{
			"level3-project-type.mdc": eris.New("selector exploded"),
		},
	}

	trials, err := New(sel).Run(context.Background(), suite, Options{RunsPerScenario: 1})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(trials) != 4 {
		t.Fatalf("got %d trials", len(trials))
	}

	var failed, completed int
	for _, trial := range trials {
		if trial.Failed() {
			failed++
			if trial.Accuracy != 0 || trial.Precision != 0 {
				t.Errorf("failed trial has nonzero score: %v/%v", trial.Accuracy, trial.Precision)
			}
			if trial.ErrorKind != "selector_error" {
				t.Errorf("ErrorKind = %q", trial.ErrorKind)
			}
			if trial.RawOutput == "" {
				t.Error("failed trial lost its error detail")
			}
		} else {
			completed++
		}
	}
	// The alpha scenario's manifests carry level3; beta's do not.
	if failed != 2 || completed != 2 {
		t.Errorf("failed=%d completed=%d, want 2/2", failed, completed)
	}
}

func TestRun_TimeoutRecordedAsTimedOut(t *testing.T) {
	suite := testSuite(t)
	sel := &scriptedSelector{
		failFor: map[string]error{
			"*": eris.Wrap(selector.ErrSelectorTimeout, "after 50ms"),
		},
	}

	trials, err := New(sel).Run(context.Background(), suite, Options{RunsPerScenario: 1})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	for _, trial := range trials {
		if trial.Status != model.TrialTimedOut {
			t.Errorf("status = %s, want timed_out", trial.Status)
		}
		if trial.ErrorKind != "selector_timeout" {
			t.Errorf("ErrorKind = %q", trial.ErrorKind)
		}
	}
}

func TestRun_ParseFailureKind(t *testing.T) {
	suite := testSuite(t)
	sel := &scriptedSelector{
		failFor: map[string]error{
			"*": eris.Wrap(selector.ErrResponseParse, "no selection"),
		},
	}

	trials, err := New(sel).Run(context.Background(), suite, Options{RunsPerScenario: 1})
	if err != nil {
		t.Fatal(err)
	}
	for _, trial := range trials {
		if trial.ErrorKind != "response_parse" {
			t.Errorf("ErrorKind = %q", trial.ErrorKind)
		}
		if trial.Accuracy != 0 {
			t.Errorf("accuracy = %v", trial.Accuracy)
		}
	}
}

func TestRun_FlushCalledPerGroup(t *testing.T) {
	suite := testSuite(t)
	sel := &scriptedSelector{}

	var mu sync.Mutex
	var batches [][]model.TrialResult
	flush := func(ctx context.Context, trials []model.TrialResult) error {
		mu.Lock()
		defer mu.Unlock()
		batches = append(batches, trials)
		return nil
	}

	_, err := New(sel).Run(context.Background(), suite, Options{
		RunsPerScenario: 2,
		Concurrency:     2,
		Flush:           flush,
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(batches) != 4 {
		t.Fatalf("flush called %d times, want 4", len(batches))
	}
	for _, b := range batches {
		if len(b) != 2 {
			t.Errorf("batch size = %d, want 2", len(b))
		}
	}
}

func TestRun_FlushFailureIsNotFatal(t *testing.T) {
	suite := testSuite(t)
	sel := &scriptedSelector{}

	flush := func(ctx context.Context, trials []model.TrialResult) error {
		return eris.New("disk full")
	}

	trials, err := New(sel).Run(context.Background(), suite, Options{
		RunsPerScenario: 1,
		Flush:           flush,
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(trials) != 4 {
		t.Errorf("got %d trials", len(trials))
	}
}

func TestRun_CancellationReturnsPartialResults(t *testing.T) {
	suite := testSuite(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	trials, err := New(&scriptedSelector{}).Run(ctx, suite, Options{RunsPerScenario: 1})
	if err == nil {
		t.Fatal("expected a context error")
	}
	if len(trials) != 0 {
		t.Errorf("pre-canceled run produced %d trials", len(trials))
	}
}

func TestSplitByVariant(t *testing.T) {
	trials := []model.TrialResult{
		{Variant: model.VariantBaseline},
		{Variant: model.VariantEnhanced},
		{Variant: model.VariantBaseline},
	}
	baseline, enhanced := SplitByVariant(trials)
	if len(baseline) != 2 || len(enhanced) != 1 {
		t.Errorf("split = %d/%d", len(baseline), len(enhanced))
	}
}
