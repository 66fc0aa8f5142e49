package scorer

import (
	"math"
	"testing"

	"github.com/rotisserie/eris"

	"github.com/workspacekit/manifest-eval/internal/model"
)

func TestAggregate(t *testing.T) {
	trials := []model.TrialResult{
		{Status: model.TrialCompleted, Accuracy: 100, Precision: 100, Confidence: 90, DecisionLatencyMS: 200},
		{Status: model.TrialCompleted, Accuracy: 50, Precision: 100, Confidence: 70, DecisionLatencyMS: 400, ClarificationRequested: true},
		{Status: model.TrialFailed, Accuracy: 0, Precision: 0, Confidence: 0, DecisionLatencyMS: 100},
	}

	m, err := Aggregate(trials)
	if err != nil {
		t.Fatalf("Aggregate() error: %v", err)
	}

	if m.TotalTrials != 3 {
		t.Errorf("TotalTrials = %d", m.TotalTrials)
	}
	if m.FailedTrials != 1 {
		t.Errorf("FailedTrials = %d", m.FailedTrials)
	}
	if got := m.AccuracyMean; math.Abs(got-50) > 1e-9 {
		t.Errorf("AccuracyMean = %v", got)
	}
	if m.AccuracyMin != 0 || m.AccuracyMax != 100 {
		t.Errorf("accuracy range = [%v, %v]", m.AccuracyMin, m.AccuracyMax)
	}
	if m.ClarificationRequests != 1 {
		t.Errorf("ClarificationRequests = %d", m.ClarificationRequests)
	}
	if got := m.ClarificationRate; math.Abs(got-float64(1)/3*100) > 1e-9 {
		t.Errorf("ClarificationRate = %v", got)
	}
	if m.AccuracyStdDev <= 0 {
		t.Errorf("AccuracyStdDev = %v, want > 0", m.AccuracyStdDev)
	}
}

func TestAggregate_SingleTrialStdDevIsZero(t *testing.T) {
	m, err := Aggregate([]model.TrialResult{
		{Status: model.TrialCompleted, Accuracy: 75, Confidence: 80, DecisionLatencyMS: 150},
	})
	if err != nil {
		t.Fatal(err)
	}
	if m.AccuracyStdDev != 0 || m.ConfidenceStdDev != 0 || m.LatencyStdDevMS != 0 {
		t.Errorf("single-trial stddevs = %v/%v/%v, want 0",
			m.AccuracyStdDev, m.ConfidenceStdDev, m.LatencyStdDevMS)
	}
}

func TestAggregate_Empty(t *testing.T) {
	_, err := Aggregate(nil)
	if !eris.Is(err, ErrEmptyResultSet) {
		t.Fatalf("expected ErrEmptyResultSet, got %v", err)
	}
}

func TestAccuracies(t *testing.T) {
	trials := []model.TrialResult{{Accuracy: 10}, {Accuracy: 20}, {Accuracy: 30}}
	got := Accuracies(trials)
	if len(got) != 3 || got[0] != 10 || got[2] != 30 {
		t.Errorf("Accuracies() = %v", got)
	}
}
