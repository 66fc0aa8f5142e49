package model

import "encoding/json"

// Complexity classifies a scenario for reporting breakdowns. It is never used
// in scoring.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityMedium   Complexity = "medium"
	ComplexityComplex  Complexity = "complex"
	ComplexityEdgeCase Complexity = "edge_case"
)

// Complexities lists the known tiers in display order.
var Complexities = []Complexity{ComplexitySimple, ComplexityMedium, ComplexityComplex, ComplexityEdgeCase}

// Scenario is one fixed test case: a project context plus the ground-truth
// entry set a correct selector must return. Scenarios are authored once and
// immutable during a run.
type Scenario struct {
	ScenarioID string          `json:"scenario_id"`
	Complexity Complexity      `json:"complexity"`
	Context    Context         `json:"context"`
	Expected   ExpectedEntries `json:"expected_entries"`
}

// ExpectedFor returns the ground truth for a manifest variant.
func (s *Scenario) ExpectedFor(v Variant) []string {
	return s.Expected.For(v)
}

// ExpectedEntries holds per-variant ground truth. Baseline and enhanced
// expectations may legitimately differ when the enhanced manifest's explicit
// conditions exclude an entry the baseline's free-text description does not.
type ExpectedEntries struct {
	Baseline []string
	Enhanced []string
}

// For returns the expectation for one variant.
func (e ExpectedEntries) For(v Variant) []string {
	if v == VariantEnhanced {
		return e.Enhanced
	}
	return e.Baseline
}

// UnmarshalJSON accepts either a plain list (shared by both variants) or a
// per-variant object {"baseline": [...], "enhanced": [...]}.
func (e *ExpectedEntries) UnmarshalJSON(data []byte) error {
	var shared []string
	if err := json.Unmarshal(data, &shared); err == nil {
		e.Baseline = shared
		e.Enhanced = shared
		return nil
	}

	var perVariant struct {
		Baseline []string `json:"baseline"`
		Enhanced []string `json:"enhanced"`
	}
	if err := json.Unmarshal(data, &perVariant); err != nil {
		return err
	}
	e.Baseline = perVariant.Baseline
	e.Enhanced = perVariant.Enhanced
	return nil
}

// MarshalJSON writes the compact list form when both variants agree, the
// per-variant object otherwise.
func (e ExpectedEntries) MarshalJSON() ([]byte, error) {
	if equalStrings(e.Baseline, e.Enhanced) {
		return json.Marshal(e.Baseline)
	}
	return json.Marshal(struct {
		Baseline []string `json:"baseline"`
		Enhanced []string `json:"enhanced"`
	}{e.Baseline, e.Enhanced})
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
