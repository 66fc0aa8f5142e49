package model

import (
	"encoding/json"
	"testing"
)

func TestExpectedEntriesUnmarshal_SharedList(t *testing.T) {
	var sc Scenario
	raw := `{
		"scenario_id": "simple-cli",
		"complexity": "simple",
		"context": {"project_type": "cli"},
		"expected_entries": ["level1-core.mdc", "level2-architecture.mdc"]
	}`
	if err := json.Unmarshal([]byte(raw), &sc); err != nil {
		t.Fatal(err)
	}

	for _, v := range Variants {
		got := sc.ExpectedFor(v)
		if len(got) != 2 {
			t.Errorf("ExpectedFor(%s) = %v, want 2 entries", v, got)
		}
	}
}

func TestExpectedEntriesUnmarshal_PerVariant(t *testing.T) {
	var sc Scenario
	raw := `{
		"scenario_id": "diverging",
		"complexity": "edge_case",
		"context": {},
		"expected_entries": {
			"baseline": ["level1-core.mdc"],
			"enhanced": ["level1-core.mdc", "level2-architecture.mdc"]
		}
	}`
	if err := json.Unmarshal([]byte(raw), &sc); err != nil {
		t.Fatal(err)
	}

	if got := sc.ExpectedFor(VariantBaseline); len(got) != 1 {
		t.Errorf("baseline = %v, want 1 entry", got)
	}
	if got := sc.ExpectedFor(VariantEnhanced); len(got) != 2 {
		t.Errorf("enhanced = %v, want 2 entries", got)
	}
}

func TestExpectedEntriesMarshal_CompactWhenEqual(t *testing.T) {
	e := ExpectedEntries{
		Baseline: []string{"level1-core.mdc"},
		Enhanced: []string{"level1-core.mdc"},
	}
	data, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `["level1-core.mdc"]` {
		t.Errorf("compact form = %s", data)
	}
}

func TestExpectedEntriesMarshal_ObjectWhenDiverging(t *testing.T) {
	e := ExpectedEntries{
		Baseline: []string{"level1-core.mdc"},
		Enhanced: []string{"level1-core.mdc", "level4-language.mdc"},
	}
	data, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}

	var back ExpectedEntries
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if len(back.Baseline) != 1 || len(back.Enhanced) != 2 {
		t.Errorf("round trip = %+v", back)
	}
}
