package model

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// Variant identifies which manifest shape a fixture, trial, or report refers to.
type Variant string

const (
	VariantBaseline Variant = "baseline"
	VariantEnhanced Variant = "enhanced"
)

// Variants lists both manifest variants in comparison order.
var Variants = []Variant{VariantBaseline, VariantEnhanced}

// PredicateKind enumerates the closed set of applicability predicate kinds.
// Keeping the set closed keeps the rule evaluator deterministic and auditable.
type PredicateKind string

const (
	PredicateAlways         PredicateKind = "always"
	PredicateNever          PredicateKind = "never"
	PredicateFieldPresent   PredicateKind = "field_present"
	PredicateFieldEquals    PredicateKind = "field_equals"
	PredicateFieldNotEquals PredicateKind = "field_not_equals"
)

// Applicability is a structured predicate over context fields. Only enhanced
// manifests carry one; baseline entries leave it nil and rely on free-text
// description.
type Applicability struct {
	Kind  PredicateKind `json:"kind"`
	Field string        `json:"field,omitempty"`
	Value string        `json:"value,omitempty"`
}

// Matches evaluates the predicate against a context. An absent field never
// matches field_present, field_equals, or field_not_equals: missing
// information is not evidence either way, so conditional entries stay
// unloaded.
func (a *Applicability) Matches(ctx Context) bool {
	switch a.Kind {
	case PredicateAlways:
		return true
	case PredicateNever:
		return false
	case PredicateFieldPresent:
		v, ok := ctx.Get(a.Field)
		return ok && v != ""
	case PredicateFieldEquals:
		v, ok := ctx.Get(a.Field)
		return ok && v == a.Value
	case PredicateFieldNotEquals:
		v, ok := ctx.Get(a.Field)
		return ok && v != a.Value
	default:
		return false
	}
}

// ManifestEntry is one candidate configuration unit in a manifest.
type ManifestEntry struct {
	Level         int            `json:"level"`
	Identifier    string         `json:"identifier"`
	Description   string         `json:"description,omitempty"`
	AlwaysLoad    bool           `json:"always_load,omitempty"`
	Applicability *Applicability `json:"applicability,omitempty"`
}

// Manifest is the full ordered entry list for one scenario and variant.
// Level values need not be unique or contiguous; ordering matters only for
// display.
type Manifest struct {
	Variant Variant         `json:"variant"`
	Version string          `json:"manifest_version,omitempty"`
	Entries []ManifestEntry `json:"entries"`
}

// Validate checks structural invariants: every entry must carry a level and a
// unique identifier. Violations wrap ErrMalformedManifest.
func (m *Manifest) Validate() error {
	seen := make(map[string]bool, len(m.Entries))
	for i, e := range m.Entries {
		if e.Identifier == "" {
			return eris.Wrapf(ErrMalformedManifest, "entry %d has no identifier", i)
		}
		if e.Level <= 0 {
			return eris.Wrapf(ErrMalformedManifest, "entry %q has no level", e.Identifier)
		}
		if seen[e.Identifier] {
			return eris.Wrapf(ErrMalformedManifest, "duplicate identifier %q", e.Identifier)
		}
		seen[e.Identifier] = true
	}
	return nil
}

// Identifiers returns the entry identifiers in manifest order.
func (m *Manifest) Identifiers() []string {
	ids := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		ids[i] = e.Identifier
	}
	return ids
}

// HasIdentifier reports whether the manifest contains the given entry.
func (m *Manifest) HasIdentifier(id string) bool {
	for _, e := range m.Entries {
		if e.Identifier == id {
			return true
		}
	}
	return false
}

// Context maps context-field names to values. A missing key models missing
// information and is distinct from an empty string value.
type Context map[string]string

// Get returns the value for a field and whether the field is present at all.
func (c Context) Get(field string) (string, bool) {
	v, ok := c[field]
	return v, ok
}

// UnmarshalJSON drops JSON null values instead of coercing them to empty
// strings, so an authored `"field": null` reads back as field-omitted.
func (c *Context) UnmarshalJSON(data []byte) error {
	var raw map[string]*string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Context, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		out[k] = *v
	}
	*c = out
	return nil
}
