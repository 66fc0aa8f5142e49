package analyzer

import (
	"fmt"
	"strings"

	"github.com/workspacekit/manifest-eval/internal/model"
)

// RenderText renders the comparison report for humans. The machine-readable
// form is the JSON serialization of model.ComparisonReport itself.
func RenderText(report *model.ComparisonReport, criteria []model.CriterionResult) string {
	var b strings.Builder

	b.WriteString("Manifest Format Comparison\n")
	b.WriteString(strings.Repeat("=", 72) + "\n\n")

	writeMetrics(&b, "BASELINE", report.Baseline)
	b.WriteString("\n")
	writeMetrics(&b, "ENHANCED", report.Enhanced)

	fmt.Fprintf(&b, "\nDELTAS (enhanced - baseline):\n")
	fmt.Fprintf(&b, "  Accuracy:       %+.2f%%\n", report.AccuracyDelta)
	fmt.Fprintf(&b, "  Confidence:     %+.2f%%\n", report.ConfidenceDelta)
	fmt.Fprintf(&b, "  Latency:        %+.1fms\n", report.LatencyDeltaMS)
	fmt.Fprintf(&b, "  Clarifications: %+.2f%%\n", report.ClarificationDelta)

	b.WriteString("\nSIGNIFICANCE:\n")
	if report.Significance.Computed {
		fmt.Fprintf(&b, "  t = %.4f, p = %.4f (%s)\n",
			report.Significance.TStatistic,
			report.Significance.PValue,
			interpret(report.Significance.Significant))
	} else {
		fmt.Fprintf(&b, "  not computed: %s\n", report.Significance.Note)
	}

	if len(report.PerComplexity) > 0 {
		b.WriteString("\nBY COMPLEXITY:\n")
		for _, tier := range model.Complexities {
			cmp, ok := report.PerComplexity[tier]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "  %-10s baseline %6.2f%% (n=%d)  enhanced %6.2f%% (n=%d)\n",
				tier,
				cmp.Baseline.AccuracyMean, cmp.Baseline.TotalTrials,
				cmp.Enhanced.AccuracyMean, cmp.Enhanced.TotalTrials)
		}
	}

	if len(criteria) > 0 {
		b.WriteString("\nSUCCESS CRITERIA:\n")
		for _, c := range criteria {
			fmt.Fprintf(&b, "  [%s] %-24s actual %.2f vs threshold %.2f\n",
				passFail(c.Passed), c.Name, c.Actual, c.Threshold)
		}
		fmt.Fprintf(&b, "\nVERDICT: %s\n", passFail(AllPassed(criteria)))
	}

	return b.String()
}

func writeMetrics(b *strings.Builder, label string, m model.AggregateMetrics) {
	fmt.Fprintf(b, "%s (%d trials, %d failed):\n", label, m.TotalTrials, m.FailedTrials)
	fmt.Fprintf(b, "  Accuracy:       %.2f%% (±%.2f, min %.2f, max %.2f)\n",
		m.AccuracyMean, m.AccuracyStdDev, m.AccuracyMin, m.AccuracyMax)
	fmt.Fprintf(b, "  Precision:      %.2f%%\n", m.PrecisionMean)
	fmt.Fprintf(b, "  Confidence:     %.2f%% (±%.2f)\n", m.ConfidenceMean, m.ConfidenceStdDev)
	fmt.Fprintf(b, "  Latency:        %.1fms (±%.1f)\n", m.LatencyMeanMS, m.LatencyStdDevMS)
	fmt.Fprintf(b, "  Clarifications: %d (%.2f%%)\n", m.ClarificationRequests, m.ClarificationRate)
}

func interpret(significant bool) string {
	if significant {
		return "statistically significant"
	}
	return "not statistically significant"
}

func passFail(ok bool) string {
	if ok {
		return "PASS"
	}
	return "FAIL"
}
