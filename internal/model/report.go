package model

import "time"

// AggregateMetrics summarizes a non-empty set of trials for one variant.
type AggregateMetrics struct {
	TotalTrials int `json:"total_trials"`

	AccuracyMean   float64 `json:"accuracy_mean"`
	AccuracyStdDev float64 `json:"accuracy_std"`
	AccuracyMin    float64 `json:"accuracy_min"`
	AccuracyMax    float64 `json:"accuracy_max"`

	PrecisionMean float64 `json:"precision_mean"`

	ConfidenceMean   float64 `json:"confidence_mean"`
	ConfidenceStdDev float64 `json:"confidence_std"`

	LatencyMeanMS   float64 `json:"latency_mean_ms"`
	LatencyStdDevMS float64 `json:"latency_std_ms"`

	ClarificationRequests int     `json:"clarification_requests"`
	ClarificationRate     float64 `json:"clarification_rate"`

	FailedTrials int `json:"failed_trials"`
}

// Significance holds the outcome of the two-sample test on accuracy
// distributions. Computed is false when the sample size cannot support the
// test; in that case the remaining fields are meaningless and Note says why.
type Significance struct {
	Computed    bool    `json:"computed"`
	TStatistic  float64 `json:"t_statistic,omitempty"`
	PValue      float64 `json:"p_value,omitempty"`
	Significant bool    `json:"significant"`
	Note        string  `json:"note,omitempty"`
}

// ComplexityComparison pairs baseline and enhanced metrics for one
// complexity tier.
type ComplexityComparison struct {
	Baseline AggregateMetrics `json:"baseline"`
	Enhanced AggregateMetrics `json:"enhanced"`
}

// ComparisonReport is the immutable output of the analyzer: baseline vs
// enhanced metrics, their deltas, a per-complexity breakdown, and the
// significance test outcome.
type ComparisonReport struct {
	Baseline AggregateMetrics `json:"baseline"`
	Enhanced AggregateMetrics `json:"enhanced"`

	AccuracyDelta      float64 `json:"accuracy_delta"`
	ConfidenceDelta    float64 `json:"confidence_delta"`
	LatencyDeltaMS     float64 `json:"latency_delta_ms"`
	ClarificationDelta float64 `json:"clarification_delta"`

	PerComplexity map[Complexity]ComplexityComparison `json:"per_complexity"`
	Significance  Significance                        `json:"significance"`

	GeneratedAt time.Time `json:"generated_at"`
}

// CriterionResult is one evaluated success criterion.
type CriterionResult struct {
	Name      string  `json:"name"`
	Passed    bool    `json:"passed"`
	Actual    float64 `json:"actual"`
	Threshold float64 `json:"threshold"`
}
