// Package analyzer turns collected trials into a baseline-vs-enhanced
// comparison with significance testing, and evaluates caller-supplied
// success criteria against the measured report.
package analyzer

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/workspacekit/manifest-eval/internal/model"
	"github.com/workspacekit/manifest-eval/internal/scorer"
)

// minSamplesForTest is the floor below which the two-sample test is marked
// not-computed rather than defaulted to a false verdict.
const minSamplesForTest = 2

// significanceLevel is the two-sided alpha for the accuracy comparison.
const significanceLevel = 0.05

// Compare aggregates both trial sets and builds the full comparison report.
// Scenarios backfill the complexity classification for trials recorded
// without one; they may be nil when every trial carries its tier. Either side
// being empty is an ErrEmptyResultSet: a one-sided comparison is meaningless.
func Compare(scenarios []model.Scenario, baseline, enhanced []model.TrialResult) (*model.ComparisonReport, error) {
	baseMetrics, err := scorer.Aggregate(baseline)
	if err != nil {
		return nil, eris.Wrap(err, "analyzer: baseline")
	}
	enhMetrics, err := scorer.Aggregate(enhanced)
	if err != nil {
		return nil, eris.Wrap(err, "analyzer: enhanced")
	}

	report := &model.ComparisonReport{
		Baseline:           baseMetrics,
		Enhanced:           enhMetrics,
		AccuracyDelta:      enhMetrics.AccuracyMean - baseMetrics.AccuracyMean,
		ConfidenceDelta:    enhMetrics.ConfidenceMean - baseMetrics.ConfidenceMean,
		LatencyDeltaMS:     enhMetrics.LatencyMeanMS - baseMetrics.LatencyMeanMS,
		ClarificationDelta: enhMetrics.ClarificationRate - baseMetrics.ClarificationRate,
		PerComplexity:      complexityBreakdown(scenarios, baseline, enhanced),
		Significance:       significance(scorer.Accuracies(baseline), scorer.Accuracies(enhanced)),
		GeneratedAt:        time.Now().UTC(),
	}
	return report, nil
}

// complexityBreakdown groups both trial sets by complexity tier. The tier
// recorded on the trial itself wins; the scenario list only backfills trials
// persisted before the tier was recorded. Tiers with no trials on either side
// are omitted; a tier with trials on only one side keeps zero-valued metrics
// for the other so the asymmetry is visible.
func complexityBreakdown(scenarios []model.Scenario, baseline, enhanced []model.TrialResult) map[model.Complexity]model.ComplexityComparison {
	tierOf := make(map[string]model.Complexity, len(scenarios))
	for _, sc := range scenarios {
		tierOf[sc.ScenarioID] = sc.Complexity
	}

	groupByTier := func(trials []model.TrialResult) map[model.Complexity][]model.TrialResult {
		grouped := make(map[model.Complexity][]model.TrialResult)
		for _, t := range trials {
			tier := t.Complexity
			if tier == "" {
				tier = tierOf[t.ScenarioID]
			}
			if tier == "" {
				continue
			}
			grouped[tier] = append(grouped[tier], t)
		}
		return grouped
	}

	baseGroups := groupByTier(baseline)
	enhGroups := groupByTier(enhanced)

	out := make(map[model.Complexity]model.ComplexityComparison)
	for _, tier := range model.Complexities {
		bTrials, bOK := baseGroups[tier]
		eTrials, eOK := enhGroups[tier]
		if !bOK && !eOK {
			continue
		}
		var cmp model.ComplexityComparison
		if bOK {
			cmp.Baseline, _ = scorer.Aggregate(bTrials)
		}
		if eOK {
			cmp.Enhanced, _ = scorer.Aggregate(eTrials)
		}
		out[tier] = cmp
	}
	return out
}

// significance runs Welch's two-sample t-test on the accuracy distributions
// when both sides carry enough samples; otherwise it reports not-computed.
func significance(baseline, enhanced []float64) model.Significance {
	if len(baseline) < minSamplesForTest || len(enhanced) < minSamplesForTest {
		return model.Significance{
			Computed: false,
			Note:     "insufficient sample size for two-sample test",
		}
	}

	t, p, ok := welchTTest(baseline, enhanced)
	if !ok {
		// Zero variance on both sides with equal means, or another
		// degenerate distribution.
		return model.Significance{
			Computed: false,
			Note:     "degenerate accuracy distributions",
		}
	}

	return model.Significance{
		Computed:    true,
		TStatistic:  t,
		PValue:      p,
		Significant: p < significanceLevel,
	}
}
