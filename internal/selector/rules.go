package selector

import (
	"context"
	"fmt"
	"strings"

	"github.com/workspacekit/manifest-eval/internal/model"
)

// RuleEvaluator applies each entry's applicability predicate directly against
// the context. It is deterministic, never requests clarification, and serves
// as the oracle for enhanced manifests. Baseline entries carry no predicate,
// so on a baseline manifest it selects only always_load entries.
type RuleEvaluator struct{}

// NewRuleEvaluator returns the deterministic rule-based selector.
func NewRuleEvaluator() *RuleEvaluator {
	return &RuleEvaluator{}
}

func (r *RuleEvaluator) Name() string { return "rules" }

func (r *RuleEvaluator) Select(ctx context.Context, m *model.Manifest, scenarioCtx model.Context) (*Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var selected []string
	var reasons []string
	for _, e := range m.Entries {
		switch {
		case e.AlwaysLoad:
			selected = append(selected, e.Identifier)
			reasons = append(reasons, fmt.Sprintf("%s: always_load", e.Identifier))
		case e.Applicability != nil && e.Applicability.Matches(scenarioCtx):
			selected = append(selected, e.Identifier)
			reasons = append(reasons, fmt.Sprintf("%s: %s(%s) matched", e.Identifier, e.Applicability.Kind, e.Applicability.Field))
		}
	}

	return &Outcome{
		SelectedEntries: selected,
		Confidence:      100,
		Reasoning:       strings.Join(reasons, "; "),
	}, nil
}
