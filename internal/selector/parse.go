package selector

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

var (
	identifierRe = regexp.MustCompile(`level\d+[-\w]*\.mdc`)
	confidenceRe = regexp.MustCompile(`(?i)confidence["\s:]+(\d+)`)
)

// ParseOutcome extracts a selection decision from raw response text.
// It first looks for an embedded JSON object with the expected fields; if the
// text carries no usable JSON it falls back to harvesting identifiers and a
// confidence figure from prose. Text that yields neither a selection nor a
// clarification request fails with ErrResponseParse; the returned outcome is
// still non-nil and carries the raw text.
func ParseOutcome(text string) (*Outcome, error) {
	if out, ok := parseJSON(text); ok {
		out.RawOutput = text
		return out, nil
	}

	// Fallback: the model answered in prose around or instead of JSON. A
	// question mark in prose counts as asking for more context.
	ids := dedupe(identifierRe.FindAllString(text, -1))
	clarification := strings.Contains(strings.ToLower(text), "clarification") ||
		strings.Contains(text, "?")

	if len(ids) == 0 && !clarification {
		return &Outcome{RawOutput: text},
			eris.Wrapf(ErrResponseParse, "no selection in %d bytes of response", len(text))
	}

	reasoning := text
	if len(reasoning) > 500 {
		reasoning = reasoning[:500]
	}
	return &Outcome{
		SelectedEntries:        ids,
		Confidence:             extractConfidence(text),
		Reasoning:              reasoning,
		ClarificationRequested: clarification,
		RawOutput:              text,
	}, nil
}

// parseJSON attempts to decode the first-to-last brace span as the expected
// response object. The selected_files key must be present (even if empty);
// a JSON object of some other shape is not a valid selection.
func parseJSON(text string) (*Outcome, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, false
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, false
	}
	filesRaw, ok := raw["selected_files"]
	if !ok {
		return nil, false
	}

	var files []string
	if err := json.Unmarshal(filesRaw, &files); err != nil {
		return nil, false
	}

	out := &Outcome{SelectedEntries: files}
	if v, ok := raw["confidence"]; ok {
		var conf float64
		if err := json.Unmarshal(v, &conf); err == nil {
			out.Confidence = clampConfidence(conf)
		}
	}
	if v, ok := raw["reasoning"]; ok {
		_ = json.Unmarshal(v, &out.Reasoning)
	}
	if v, ok := raw["clarification_needed"]; ok {
		_ = json.Unmarshal(v, &out.ClarificationRequested)
	}
	return out, true
}

func extractConfidence(text string) float64 {
	m := confidenceRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return clampConfidence(float64(n))
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
