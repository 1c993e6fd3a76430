package feedback

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLearningTracker_ResponseRate(t *testing.T) {
	tracker := NewLearningTracker()
	tracker.RecordInteraction(0, 1.0, true, nil)
	tracker.RecordInteraction(1, 0.0, false, nil)

	assert.InDelta(t, 0.5, tracker.ResponseRate(), 1e-9)
}

func TestLearningTracker_PrecisionRecallF1(t *testing.T) {
	tracker := NewLearningTracker()
	tracker.RecordInteraction(0, 1.0, true, nil)  // true positive
	tracker.RecordInteraction(1, 1.0, false, nil) // false positive
	tracker.RecordInteraction(2, 0.0, true, nil)  // false negative

	assert.InDelta(t, 0.5, tracker.Precision(), 1e-9)
	assert.InDelta(t, 0.5, tracker.Recall(), 1e-9)
	assert.InDelta(t, 0.5, tracker.F1Score(), 1e-9)
}

func TestLearningTracker_CumulativeRegretAccumulatesOnMissedOptimal(t *testing.T) {
	tracker := NewLearningTracker()
	tracker.RecordInteraction(0, 0.0, true, nil)
	tracker.RecordInteraction(1, 0.0, false, nil)

	assert.InDelta(t, 1.0, tracker.CumulativeRegret(), 1e-9)
}

func TestLearningTracker_EmptyTrackerHasZeroMetrics(t *testing.T) {
	tracker := NewLearningTracker()
	summary := tracker.GetSummary()

	assert.Zero(t, summary.TotalInteractions)
	assert.Zero(t, summary.Precision)
	assert.Zero(t, summary.Recall)
	assert.Zero(t, summary.F1Score)
}

func TestLearningTracker_HistoryGrowsWithEachInteraction(t *testing.T) {
	tracker := NewLearningTracker()
	for i := 0; i < 5; i++ {
		tracker.RecordInteraction(0, 1.0, true, nil)
	}
	assert.Len(t, tracker.History(), 5)
}
