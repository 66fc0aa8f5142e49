package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/workspacekit/manifest-eval/internal/model"
)

func f(v float64) *float64 { return &v }

func sampleReport() *model.ComparisonReport {
	return &model.ComparisonReport{
		Baseline: model.AggregateMetrics{AccuracyMean: 62.5, LatencyMeanMS: 800},
		Enhanced: model.AggregateMetrics{
			AccuracyMean:      91.7,
			ConfidenceMean:    88,
			ClarificationRate: 5,
			LatencyMeanMS:     950,
		},
		AccuracyDelta:  29.2,
		LatencyDeltaMS: 150,
		Significance:   model.Significance{Computed: true, PValue: 0.01, Significant: true},
	}
}

func TestEvaluateSuccess_AllPass(t *testing.T) {
	results := EvaluateSuccess(sampleReport(), Thresholds{
		MinAccuracy:          f(90),
		MinConfidence:        f(80),
		MaxClarificationRate: f(10),
		MinAccuracyDelta:     f(20),
		MaxLatencyDeltaMS:    f(500),
		RequireSignificance:  true,
	})

	if len(results) != 6 {
		t.Fatalf("got %d criteria", len(results))
	}
	if !AllPassed(results) {
		for _, r := range results {
			if !r.Passed {
				t.Errorf("criterion %s failed: actual %v vs threshold %v", r.Name, r.Actual, r.Threshold)
			}
		}
	}
}

func TestEvaluateSuccess_FailingCriteria(t *testing.T) {
	report := sampleReport()
	report.Significance.Significant = false

	results := EvaluateSuccess(report, Thresholds{
		MinAccuracy:         f(95),
		RequireSignificance: true,
	})

	if AllPassed(results) {
		t.Fatal("expected failures")
	}
	for _, r := range results {
		if r.Passed {
			t.Errorf("criterion %s unexpectedly passed", r.Name)
		}
	}
}

func TestEvaluateSuccess_NilFieldsSkipped(t *testing.T) {
	results := EvaluateSuccess(sampleReport(), Thresholds{})
	if len(results) != 0 {
		t.Errorf("got %d criteria, want 0", len(results))
	}
	if !AllPassed(results) {
		t.Error("empty criteria set should pass vacuously")
	}
}

func TestLoadThresholds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.yaml")
	content := `min_accuracy: 90
min_accuracy_delta: 15.5
max_clarification_rate: 10
require_significance: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	th, err := LoadThresholds(path)
	if err != nil {
		t.Fatalf("LoadThresholds() error: %v", err)
	}
	if th.MinAccuracy == nil || *th.MinAccuracy != 90 {
		t.Errorf("MinAccuracy = %v", th.MinAccuracy)
	}
	if th.MinAccuracyDelta == nil || *th.MinAccuracyDelta != 15.5 {
		t.Errorf("MinAccuracyDelta = %v", th.MinAccuracyDelta)
	}
	if th.MinConfidence != nil {
		t.Error("unset field should stay nil")
	}
	if !th.RequireSignificance {
		t.Error("RequireSignificance not read")
	}
}

func TestLoadThresholds_Missing(t *testing.T) {
	if _, err := LoadThresholds("/nonexistent/thresholds.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
