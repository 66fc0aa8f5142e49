// Package scorer computes per-trial accuracy/precision and aggregate
// statistics over trial collections. All functions are pure.
package scorer

import "sort"

// Accuracy is |selected ∩ expected| / |expected| as a percentage. Both sides
// are treated as sets, so duplicated identifiers never skew the ratio.
// Two conventions for the empty-expected edge:
//   - empty expected, empty selected: 100 (correct rejection)
//   - empty expected, non-empty selected: 0 (over-selection against an
//     empty ground truth; precision makes the extras visible separately)
func Accuracy(selected, expected []string) float64 {
	expectedSet := toSet(expected)
	if len(expectedSet) == 0 {
		if len(selected) == 0 {
			return 100
		}
		return 0
	}
	correct := intersectionSize(selected, expected)
	return float64(correct) / float64(len(expectedSet)) * 100
}

// Precision is |selected ∩ expected| / |selected| as a percentage, over sets,
// so selecting beyond the expected set stays visible even when accuracy is
// 100. An empty selection scores 100 against an empty expectation, 0
// otherwise.
func Precision(selected, expected []string) float64 {
	selectedSet := toSet(selected)
	if len(selectedSet) == 0 {
		if len(expected) == 0 {
			return 100
		}
		return 0
	}
	correct := intersectionSize(selected, expected)
	return float64(correct) / float64(len(selectedSet)) * 100
}

// Partition splits a selection into correct, extra, and missing identifiers
// relative to the expected set. Outputs are sorted for stable persistence.
func Partition(selected, expected []string) (correct, extra, missing []string) {
	expectedSet := toSet(expected)
	selectedSet := toSet(selected)

	for id := range selectedSet {
		if expectedSet[id] {
			correct = append(correct, id)
		} else {
			extra = append(extra, id)
		}
	}
	for id := range expectedSet {
		if !selectedSet[id] {
			missing = append(missing, id)
		}
	}

	sort.Strings(correct)
	sort.Strings(extra)
	sort.Strings(missing)
	return correct, extra, missing
}

func intersectionSize(a, b []string) int {
	bSet := toSet(b)
	n := 0
	for id := range toSet(a) {
		if bSet[id] {
			n++
		}
	}
	return n
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
