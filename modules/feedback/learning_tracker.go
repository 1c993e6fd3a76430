// Package feedback wires recruiter feedback into bandit updates and tracks
// the resulting learning curve (Component I).
package feedback

import (
	"sync"
	"time"
)

// InteractionRecord is one entry in a tracker's history.
type InteractionRecord struct {
	Timestamp        time.Time
	Interaction      int
	SelectedArm      int
	Reward           float64
	IsOptimal        bool
	ResponseRate     float64
	Precision        float64
	Recall           float64
	F1Score          float64
	CumulativeRegret float64
	Context          map[string]string
}

// Summary is the snapshot returned by GetSummary and embedded in feedback
// responses.
type Summary struct {
	TotalInteractions int
	TotalRewards      float64
	ResponseRate      float64
	Precision         float64
	Recall            float64
	F1Score           float64
	CumulativeRegret  float64
	TruePositives     int
	FalsePositives    int
	FalseNegatives    int
}

// LearningTracker accumulates online-learning metrics: response rate,
// precision/recall/F1, and cumulative regret, for either a single bandit or
// a warm-vs-cold comparison pair.
type LearningTracker struct {
	mu sync.Mutex

	history []InteractionRecord

	totalInteractions     int
	totalRewards          float64
	totalPositiveRewards  int
	totalNegativeRewards  int

	truePositives  int
	falsePositives int
	falseNegatives int

	cumulativeRegret float64
}

// NewLearningTracker returns an empty tracker.
func NewLearningTracker() *LearningTracker {
	return &LearningTracker{}
}

// RecordInteraction logs one bandit selection/reward pair. reward is
// expected in [0, 1]; isOptimal marks whether the selected arm was the
// best available one, driving the precision/recall/regret bookkeeping.
func (t *LearningTracker) RecordInteraction(selectedArm int, reward float64, isOptimal bool, ctx map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.totalInteractions++
	t.totalRewards += reward

	if reward > 0 {
		t.totalPositiveRewards++
		if isOptimal {
			t.truePositives++
		} else {
			t.falsePositives++
		}
	} else {
		t.totalNegativeRewards++
		if isOptimal {
			t.falseNegatives++
		}
	}

	if isOptimal && reward == 0 {
		t.cumulativeRegret += 1.0
	}

	t.history = append(t.history, InteractionRecord{
		Timestamp:        time.Now(),
		Interaction:      t.totalInteractions,
		SelectedArm:      selectedArm,
		Reward:           reward,
		IsOptimal:        isOptimal,
		ResponseRate:     t.responseRateLocked(),
		Precision:        t.precisionLocked(),
		Recall:           t.recallLocked(),
		F1Score:          f1Score(t.precisionLocked(), t.recallLocked()),
		CumulativeRegret: t.cumulativeRegret,
		Context:          ctx,
	})
}

// ResponseRate returns positive rewards over total interactions.
func (t *LearningTracker) ResponseRate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.responseRateLocked()
}

func (t *LearningTracker) responseRateLocked() float64 {
	if t.totalInteractions == 0 {
		return 0
	}
	return float64(t.totalPositiveRewards) / float64(t.totalInteractions)
}

// Precision returns true positives over (true positives + false positives).
func (t *LearningTracker) Precision() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.precisionLocked()
}

func (t *LearningTracker) precisionLocked() float64 {
	denom := t.truePositives + t.falsePositives
	if denom == 0 {
		return 0
	}
	return float64(t.truePositives) / float64(denom)
}

// Recall returns true positives over (true positives + false negatives).
func (t *LearningTracker) Recall() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.recallLocked()
}

func (t *LearningTracker) recallLocked() float64 {
	denom := t.truePositives + t.falseNegatives
	if denom == 0 {
		return 0
	}
	return float64(t.truePositives) / float64(denom)
}

// F1Score is the harmonic mean of precision and recall.
func (t *LearningTracker) F1Score() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return f1Score(t.precisionLocked(), t.recallLocked())
}

func f1Score(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}

// CumulativeRegret returns the running regret total.
func (t *LearningTracker) CumulativeRegret() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cumulativeRegret
}

// History returns a copy of the full interaction history.
func (t *LearningTracker) History() []InteractionRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]InteractionRecord, len(t.history))
	copy(out, t.history)
	return out
}

// GetSummary returns the current learning metrics snapshot.
func (t *LearningTracker) GetSummary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Summary{
		TotalInteractions: t.totalInteractions,
		TotalRewards:      t.totalRewards,
		ResponseRate:      t.responseRateLocked(),
		Precision:         t.precisionLocked(),
		Recall:            t.recallLocked(),
		F1Score:           f1Score(t.precisionLocked(), t.recallLocked()),
		CumulativeRegret:  t.cumulativeRegret,
		TruePositives:     t.truePositives,
		FalsePositives:    t.falsePositives,
		FalseNegatives:    t.falseNegatives,
	}
}

// AverageReward is total rewards over total interactions.
func (t *LearningTracker) AverageReward() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.totalInteractions == 0 {
		return 0
	}
	return t.totalRewards / float64(t.totalInteractions)
}
