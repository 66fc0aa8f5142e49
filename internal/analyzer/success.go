package analyzer

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/workspacekit/manifest-eval/internal/model"
)

// Thresholds are the caller-supplied success criteria. Nil fields are not
// evaluated; the analyzer never hardcodes what "success" means. Accuracy,
// confidence, and clarification criteria are checked against the enhanced
// variant's metrics, since the experiment asks whether the enhanced format
// reaches the target bar.
type Thresholds struct {
	// MinAccuracy is the minimum enhanced mean accuracy (percent).
	MinAccuracy *float64 `yaml:"min_accuracy"`
	// MinConfidence is the minimum enhanced mean confidence (percent).
	MinConfidence *float64 `yaml:"min_confidence"`
	// MaxClarificationRate is the maximum enhanced clarification rate
	// (percent of trials).
	MaxClarificationRate *float64 `yaml:"max_clarification_rate"`
	// MinAccuracyDelta is the minimum enhanced-minus-baseline accuracy gain.
	MinAccuracyDelta *float64 `yaml:"min_accuracy_delta"`
	// MaxLatencyDeltaMS is the maximum acceptable slowdown of the enhanced
	// format, in milliseconds of mean decision latency.
	MaxLatencyDeltaMS *float64 `yaml:"max_latency_delta_ms"`
	// RequireSignificance demands a computed, significant accuracy test.
	RequireSignificance bool `yaml:"require_significance"`
}

// LoadThresholds reads a thresholds YAML file.
func LoadThresholds(path string) (Thresholds, error) {
	var t Thresholds
	data, err := os.ReadFile(path)
	if err != nil {
		return t, eris.Wrapf(err, "analyzer: read thresholds %s", path)
	}
	if err := yaml.Unmarshal(data, &t); err != nil {
		return t, eris.Wrapf(err, "analyzer: unmarshal thresholds %s", path)
	}
	return t, nil
}

// EvaluateSuccess checks each supplied criterion against the report and
// returns one result per evaluated criterion, in a stable order.
func EvaluateSuccess(report *model.ComparisonReport, t Thresholds) []model.CriterionResult {
	var out []model.CriterionResult

	if t.MinAccuracy != nil {
		out = append(out, model.CriterionResult{
			Name:      "min_accuracy",
			Passed:    report.Enhanced.AccuracyMean >= *t.MinAccuracy,
			Actual:    report.Enhanced.AccuracyMean,
			Threshold: *t.MinAccuracy,
		})
	}
	if t.MinConfidence != nil {
		out = append(out, model.CriterionResult{
			Name:      "min_confidence",
			Passed:    report.Enhanced.ConfidenceMean >= *t.MinConfidence,
			Actual:    report.Enhanced.ConfidenceMean,
			Threshold: *t.MinConfidence,
		})
	}
	if t.MaxClarificationRate != nil {
		out = append(out, model.CriterionResult{
			Name:      "max_clarification_rate",
			Passed:    report.Enhanced.ClarificationRate <= *t.MaxClarificationRate,
			Actual:    report.Enhanced.ClarificationRate,
			Threshold: *t.MaxClarificationRate,
		})
	}
	if t.MinAccuracyDelta != nil {
		out = append(out, model.CriterionResult{
			Name:      "min_accuracy_delta",
			Passed:    report.AccuracyDelta >= *t.MinAccuracyDelta,
			Actual:    report.AccuracyDelta,
			Threshold: *t.MinAccuracyDelta,
		})
	}
	if t.MaxLatencyDeltaMS != nil {
		out = append(out, model.CriterionResult{
			Name:      "max_latency_delta_ms",
			Passed:    report.LatencyDeltaMS <= *t.MaxLatencyDeltaMS,
			Actual:    report.LatencyDeltaMS,
			Threshold: *t.MaxLatencyDeltaMS,
		})
	}
	if t.RequireSignificance {
		out = append(out, model.CriterionResult{
			Name:      "significance",
			Passed:    report.Significance.Computed && report.Significance.Significant,
			Actual:    report.Significance.PValue,
			Threshold: significanceLevel,
		})
	}

	return out
}

// AllPassed reports whether every evaluated criterion passed. An empty
// criteria set passes vacuously.
func AllPassed(results []model.CriterionResult) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
