// Package fixture loads and generates the JSON fixtures the evaluation runs
// on: per-scenario manifests in two variants, and the scenario suite with its
// ground-truth expectations. All cross-checks between scenarios and manifests
// happen eagerly at load time so a broken fixture aborts the run instead of
// silently producing a zero score.
package fixture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/workspacekit/manifest-eval/internal/model"
)

// ManifestPath returns the fixture path for one scenario and variant:
// <dir>/<variant>/<scenario_id>.json.
func ManifestPath(dir, scenarioID string, variant model.Variant) string {
	return filepath.Join(dir, string(variant), scenarioID+".json")
}

// LoadManifest reads and validates a single manifest fixture.
func LoadManifest(dir, scenarioID string, variant model.Variant) (*model.Manifest, error) {
	path := ManifestPath(dir, scenarioID, variant)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fixture: read manifest %s", path)
	}

	var m model.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrapf(model.ErrMalformedManifest, "fixture: unmarshal %s: %v", path, err)
	}
	if m.Variant == "" {
		m.Variant = variant
	}
	if err := m.Validate(); err != nil {
		return nil, eris.Wrapf(err, "fixture: validate %s", path)
	}
	return &m, nil
}

// LoadScenarios reads the scenario suite file: {"scenarios": [...]}.
// Duplicate scenario IDs are a fixture defect.
func LoadScenarios(path string) ([]model.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fixture: read scenarios %s", path)
	}

	var doc struct {
		Scenarios []model.Scenario `json:"scenarios"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrapf(model.ErrMalformedScenario, "fixture: unmarshal %s: %v", path, err)
	}

	seen := make(map[string]bool, len(doc.Scenarios))
	for _, s := range doc.Scenarios {
		if s.ScenarioID == "" {
			return nil, eris.Wrap(model.ErrMalformedScenario, "fixture: scenario with empty scenario_id")
		}
		if seen[s.ScenarioID] {
			return nil, eris.Wrapf(model.ErrMalformedScenario, "fixture: duplicate scenario_id %q", s.ScenarioID)
		}
		seen[s.ScenarioID] = true
	}
	return doc.Scenarios, nil
}

// Suite is a fully loaded, cross-validated fixture set: every scenario plus
// both manifest variants for each.
type Suite struct {
	Scenarios []model.Scenario
	manifests map[string]*model.Manifest
}

// Manifest returns the loaded manifest for a scenario and variant.
func (s *Suite) Manifest(scenarioID string, variant model.Variant) *model.Manifest {
	return s.manifests[manifestKey(scenarioID, variant)]
}

func manifestKey(scenarioID string, variant model.Variant) string {
	return scenarioID + "/" + string(variant)
}

// LoadSuite loads scenarios and all referenced manifests, then cross-checks:
// every expected identifier must exist in the corresponding manifest variant,
// and every always_load entry must appear in the scenario's ground truth.
func LoadSuite(scenariosPath, manifestDir string) (*Suite, error) {
	scenarios, err := LoadScenarios(scenariosPath)
	if err != nil {
		return nil, err
	}

	suite := &Suite{
		Scenarios: scenarios,
		manifests: make(map[string]*model.Manifest, len(scenarios)*2),
	}

	for _, sc := range scenarios {
		for _, variant := range model.Variants {
			m, err := LoadManifest(manifestDir, sc.ScenarioID, variant)
			if err != nil {
				return nil, err
			}
			if err := crossCheck(&sc, variant, m); err != nil {
				return nil, err
			}
			suite.manifests[manifestKey(sc.ScenarioID, variant)] = m
		}
	}
	return suite, nil
}

func crossCheck(sc *model.Scenario, variant model.Variant, m *model.Manifest) error {
	expected := sc.ExpectedFor(variant)
	expectedSet := make(map[string]bool, len(expected))
	for _, id := range expected {
		if !m.HasIdentifier(id) {
			return eris.Wrapf(model.ErrMalformedScenario,
				"scenario %s/%s expects %q which is not in the manifest",
				sc.ScenarioID, variant, id)
		}
		expectedSet[id] = true
	}
	for _, e := range m.Entries {
		if e.AlwaysLoad && !expectedSet[e.Identifier] {
			return eris.Wrapf(model.ErrMalformedScenario,
				"scenario %s/%s omits always_load entry %q from expected_entries",
				sc.ScenarioID, variant, e.Identifier)
		}
	}
	return nil
}

// WriteManifest serializes a manifest to its fixture path, creating the
// variant directory if needed.
func WriteManifest(dir, scenarioID string, m *model.Manifest) error {
	if err := m.Validate(); err != nil {
		return err
	}
	path := ManifestPath(dir, scenarioID, m.Variant)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "fixture: mkdir %s", filepath.Dir(path))
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return eris.Wrap(err, "fixture: marshal manifest")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return eris.Wrapf(err, "fixture: write %s", path)
	}
	return nil
}

// String renders a short suite summary for logs.
func (s *Suite) String() string {
	return fmt.Sprintf("suite(%d scenarios, %d manifests)", len(s.Scenarios), len(s.manifests))
}
