package scorer

import (
	"github.com/montanaflynn/stats"
	"github.com/rotisserie/eris"

	"github.com/workspacekit/manifest-eval/internal/model"
)

// ErrEmptyResultSet marks aggregation over zero trials: the statistics are
// undefined, not zero, so callers must not swallow this.
var ErrEmptyResultSet = eris.New("empty result set")

// Aggregate computes summary statistics over a non-empty trial collection.
// Standard deviations are sample deviations; a single trial yields 0.
func Aggregate(trials []model.TrialResult) (model.AggregateMetrics, error) {
	if len(trials) == 0 {
		return model.AggregateMetrics{}, eris.Wrap(ErrEmptyResultSet, "scorer: aggregate")
	}

	accuracies := make([]float64, len(trials))
	precisions := make([]float64, len(trials))
	confidences := make([]float64, len(trials))
	latencies := make([]float64, len(trials))
	clarifications := 0
	failed := 0

	for i, t := range trials {
		accuracies[i] = t.Accuracy
		precisions[i] = t.Precision
		confidences[i] = t.Confidence
		latencies[i] = float64(t.DecisionLatencyMS)
		if t.ClarificationRequested {
			clarifications++
		}
		if t.Failed() {
			failed++
		}
	}

	m := model.AggregateMetrics{
		TotalTrials:           len(trials),
		AccuracyMean:          mean(accuracies),
		AccuracyStdDev:        stddev(accuracies),
		AccuracyMin:           min(accuracies),
		AccuracyMax:           max(accuracies),
		PrecisionMean:         mean(precisions),
		ConfidenceMean:        mean(confidences),
		ConfidenceStdDev:      stddev(confidences),
		LatencyMeanMS:         mean(latencies),
		LatencyStdDevMS:       stddev(latencies),
		ClarificationRequests: clarifications,
		ClarificationRate:     float64(clarifications) / float64(len(trials)) * 100,
		FailedTrials:          failed,
	}
	return m, nil
}

// Accuracies extracts the per-trial accuracy series, preserving order.
func Accuracies(trials []model.TrialResult) []float64 {
	out := make([]float64, len(trials))
	for i, t := range trials {
		out[i] = t.Accuracy
	}
	return out
}

// The stats helpers only error on empty input, which Aggregate guards
// against, so the errors are dropped here.

func mean(xs []float64) float64 {
	v, _ := stats.Mean(xs)
	return v
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	v, _ := stats.StandardDeviationSample(xs)
	return v
}

func min(xs []float64) float64 {
	v, _ := stats.Min(xs)
	return v
}

func max(xs []float64) float64 {
	v, _ := stats.Max(xs)
	return v
}
