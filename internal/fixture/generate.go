package fixture

import (
	"go.uber.org/zap"

	"github.com/workspacekit/manifest-eval/internal/model"
)

// Manifest generation derives per-scenario fixtures from the scenario
// context. The entry set follows the progressive-loading hierarchy used by
// the workspace generator: two unconditional core levels, then a
// project-type level and a language level that only exist when the context
// carries a usable value for them.

const (
	entryCore         = "level1-core.mdc"
	entryArchitecture = "level2-architecture.mdc"
	entryProjectType  = "level3-project-type.mdc"
	entryLanguage     = "level4-language.mdc"

	fieldProjectType = "project_type"
	fieldLanguage    = "primary_language"

	// unknownValue marks analyzer output that detected nothing useful.
	unknownValue = "unknown"

	manifestVersion = "1.0"
)

// GenerateBaseline builds the minimal-shape manifest for a context: level and
// identifier only, applicability left to the free-text description.
func GenerateBaseline(ctx model.Context) *model.Manifest {
	m := &model.Manifest{
		Variant: model.VariantBaseline,
		Version: manifestVersion,
		Entries: []model.ManifestEntry{
			{Level: 1, Identifier: entryCore, Description: "Core rules and principles", AlwaysLoad: true},
			{Level: 2, Identifier: entryArchitecture, Description: "Architecture and design patterns", AlwaysLoad: true},
		},
	}
	if usable(ctx, fieldProjectType) {
		m.Entries = append(m.Entries, model.ManifestEntry{
			Level:       3,
			Identifier:  entryProjectType,
			Description: "Project type-specific rules",
		})
	}
	if usable(ctx, fieldLanguage) {
		m.Entries = append(m.Entries, model.ManifestEntry{
			Level:       4,
			Identifier:  entryLanguage,
			Description: "Language-specific rules",
		})
	}
	return m
}

// GenerateEnhanced builds the enhanced-shape manifest: same entry set as the
// baseline but every conditional entry carries a structured applicability
// predicate the rule evaluator can execute.
func GenerateEnhanced(ctx model.Context) *model.Manifest {
	m := &model.Manifest{
		Variant: model.VariantEnhanced,
		Version: manifestVersion,
		Entries: []model.ManifestEntry{
			{
				Level:         1,
				Identifier:    entryCore,
				Description:   "Core rules and principles, loaded first for every project",
				AlwaysLoad:    true,
				Applicability: &model.Applicability{Kind: model.PredicateAlways},
			},
			{
				Level:         2,
				Identifier:    entryArchitecture,
				Description:   "Architecture and design patterns, loaded for every project",
				AlwaysLoad:    true,
				Applicability: &model.Applicability{Kind: model.PredicateAlways},
			},
		},
	}
	if usable(ctx, fieldProjectType) {
		m.Entries = append(m.Entries, model.ManifestEntry{
			Level:       3,
			Identifier:  entryProjectType,
			Description: "Project type-specific rules, loaded when the project type is known",
			Applicability: &model.Applicability{
				Kind:  model.PredicateFieldNotEquals,
				Field: fieldProjectType,
				Value: unknownValue,
			},
		})
	}
	if usable(ctx, fieldLanguage) {
		m.Entries = append(m.Entries, model.ManifestEntry{
			Level:       4,
			Identifier:  entryLanguage,
			Description: "Language-specific rules, loaded when the primary language is known",
			Applicability: &model.Applicability{
				Kind:  model.PredicateFieldNotEquals,
				Field: fieldLanguage,
				Value: unknownValue,
			},
		})
	}
	return m
}

func usable(ctx model.Context, field string) bool {
	v, ok := ctx.Get(field)
	return ok && v != "" && v != unknownValue
}

// GenerateAll writes both manifest variants for every scenario into
// manifestDir and returns the number of files written.
func GenerateAll(scenarios []model.Scenario, manifestDir string) (int, error) {
	written := 0
	for _, sc := range scenarios {
		for _, m := range []*model.Manifest{GenerateBaseline(sc.Context), GenerateEnhanced(sc.Context)} {
			if err := WriteManifest(manifestDir, sc.ScenarioID, m); err != nil {
				return written, err
			}
			written++
		}
		zap.L().Debug("generated manifests",
			zap.String("scenario", sc.ScenarioID),
			zap.Int("context_fields", len(sc.Context)),
		)
	}
	return written, nil
}
