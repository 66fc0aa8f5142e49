package model

import "time"

// TrialStatus tracks a trial cell through its lifecycle.
type TrialStatus string

const (
	TrialPending    TrialStatus = "pending"
	TrialDispatched TrialStatus = "dispatched"
	TrialCompleted  TrialStatus = "completed"
	TrialFailed     TrialStatus = "failed"
	TrialTimedOut   TrialStatus = "timed_out"
)

// TrialResult records one selector invocation's outcome. It is created once
// and never mutated; the results collection is append-only.
type TrialResult struct {
	ScenarioID string      `json:"scenario_id"`
	Complexity Complexity  `json:"complexity,omitempty"`
	Variant    Variant     `json:"manifest_variant"`
	RunIndex   int         `json:"run_index"`
	Status     TrialStatus `json:"status"`

	SelectedEntries []string `json:"selected_entries"`
	ExpectedEntries []string `json:"expected_entries"`
	CorrectEntries  []string `json:"correct_entries,omitempty"`
	ExtraEntries    []string `json:"extra_entries,omitempty"`
	MissingEntries  []string `json:"missing_entries,omitempty"`

	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`

	// Confidence is the selector's 0-100 self-report, recorded as-is and
	// never verified against accuracy.
	Confidence             float64 `json:"confidence"`
	ClarificationRequested bool    `json:"clarification_requested"`
	Reasoning              string  `json:"reasoning,omitempty"`

	DecisionLatencyMS int64  `json:"decision_latency_ms"`
	ErrorKind         string `json:"error_kind,omitempty"`

	// RawOutput retains the unparsed selector response for audit. On failed
	// trials it carries the error kind and message instead.
	RawOutput string `json:"raw_output,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Failed reports whether the trial ended in a failure state.
func (t *TrialResult) Failed() bool {
	return t.Status == TrialFailed || t.Status == TrialTimedOut
}

// Run groups the trials of one evaluation invocation.
type Run struct {
	ID        string     `json:"id"`
	Selector  string     `json:"selector"`
	Model     string     `json:"model,omitempty"`
	Status    RunStatus  `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunStatus tracks an evaluation run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
	RunStatusCanceled RunStatus = "canceled"
)
