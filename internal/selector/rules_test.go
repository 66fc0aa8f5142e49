package selector

import (
	"context"
	"reflect"
	"testing"

	"github.com/workspacekit/manifest-eval/internal/model"
)

func enhancedManifest() *model.Manifest {
	return &model.Manifest{
		Variant: model.VariantEnhanced,
		Entries: []model.ManifestEntry{
			{
				Level: 1, Identifier: "level1-core.mdc", AlwaysLoad: true,
				Applicability: &model.Applicability{Kind: model.PredicateAlways},
			},
			{
				Level: 3, Identifier: "level3-project-type.mdc",
				Applicability: &model.Applicability{
					Kind:  model.PredicateFieldPresent,
					Field: "project_type",
				},
			},
		},
	}
}

func TestRuleEvaluator_SelectsConditionalWhenFieldPresent(t *testing.T) {
	sel := NewRuleEvaluator()

	out, err := sel.Select(context.Background(), enhancedManifest(),
		model.Context{"project_type": "cli"})
	if err != nil {
		t.Fatalf("Select() error: %v", err)
	}

	want := []string{"level1-core.mdc", "level3-project-type.mdc"}
	if !reflect.DeepEqual(out.SelectedEntries, want) {
		t.Errorf("SelectedEntries = %v, want %v", out.SelectedEntries, want)
	}
	if out.Confidence != 100 {
		t.Errorf("Confidence = %v, want 100", out.Confidence)
	}
	if out.ClarificationRequested {
		t.Error("rule evaluator must never request clarification")
	}
}

func TestRuleEvaluator_SkipsConditionalWhenFieldAbsent(t *testing.T) {
	sel := NewRuleEvaluator()

	out, err := sel.Select(context.Background(), enhancedManifest(), model.Context{})
	if err != nil {
		t.Fatalf("Select() error: %v", err)
	}

	want := []string{"level1-core.mdc"}
	if !reflect.DeepEqual(out.SelectedEntries, want) {
		t.Errorf("SelectedEntries = %v, want %v", out.SelectedEntries, want)
	}
}

func TestRuleEvaluator_BaselineSelectsOnlyAlwaysLoad(t *testing.T) {
	m := &model.Manifest{
		Variant: model.VariantBaseline,
		Entries: []model.ManifestEntry{
			{Level: 1, Identifier: "level1-core.mdc", AlwaysLoad: true},
			{Level: 3, Identifier: "level3-project-type.mdc", Description: "Load for known project types"},
		},
	}

	out, err := NewRuleEvaluator().Select(context.Background(), m,
		model.Context{"project_type": "cli"})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"level1-core.mdc"}
	if !reflect.DeepEqual(out.SelectedEntries, want) {
		t.Errorf("SelectedEntries = %v, want %v", out.SelectedEntries, want)
	}
}

func TestRuleEvaluator_Deterministic(t *testing.T) {
	sel := NewRuleEvaluator()
	ctx := model.Context{"project_type": "web"}
	m := enhancedManifest()

	first, err := sel.Select(context.Background(), m, ctx)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		out, err := sel.Select(context.Background(), m, ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(out.SelectedEntries, first.SelectedEntries) {
			t.Fatalf("run %d diverged: %v vs %v", i, out.SelectedEntries, first.SelectedEntries)
		}
	}
}

func TestRuleEvaluator_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRuleEvaluator().Select(ctx, enhancedManifest(), model.Context{})
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
}
