package feedback

import (
	"context"
	"fmt"
	"time"

	"github.com/andreypavlenko/talentgraph/internal/kgerrors"
	"github.com/andreypavlenko/talentgraph/internal/platform/logger"
	"github.com/andreypavlenko/talentgraph/modules/bandit"
	candidateModel "github.com/andreypavlenko/talentgraph/modules/candidates/model"
	"github.com/andreypavlenko/talentgraph/internal/platform/llm"
	kgservice "github.com/andreypavlenko/talentgraph/modules/knowledgegraph/service"
)

const optimalRewardThreshold = 0.7

// Result is process_feedback's return value.
type Result struct {
	Success   bool
	Error     string
	Reward    float64
	Sentiment llm.Sentiment
	Metrics   Summary
	Message   string
}

// Loop connects recruiter feedback to bandit updates and learning-curve
// tracking, the "self-improving agent" link between Components D, G, and
// the LLM feedback parser.
type Loop struct {
	kg      *kgservice.KnowledgeGraph
	bandits *bandit.Registry
	tracker *LearningTracker
	parser  llm.FeedbackParser
	log     *logger.Logger
	deadline time.Duration
}

// NewLoop wires a feedback loop over an existing knowledge graph, bandit
// registry, and feedback parser. deadline bounds the parser call per §6.
func NewLoop(kg *kgservice.KnowledgeGraph, bandits *bandit.Registry, tracker *LearningTracker, parser llm.FeedbackParser, log *logger.Logger, deadline time.Duration) *Loop {
	return &Loop{kg: kg, bandits: bandits, tracker: tracker, parser: parser, log: log, deadline: deadline}
}

// RegisterPositionBandit pre-registers a warm-started bandit for a position
// with caller-supplied per-candidate similarities, so ProcessFeedback does
// not have to fall back to uniform priors on first use. Mirrors the
// original's explicit registration path used when candidates are selected
// ahead of any feedback.
func (l *Loop) RegisterPositionBandit(positionID string, candidateIDs []string, similarities []float64) {
	l.bandits.GetOrCreateWarmStarted(positionID, candidateIDs, similarities)
}

// ProcessFeedback parses feedback_text via the LLM adapter, updates the
// position's bandit, records the interaction in the learning tracker, and
// appends a history entry to the candidate's record. A parse failure or
// timeout degrades to the neutral fallback rather than propagating an
// error, so a malformed or slow LLM response never aborts the call.
func (l *Loop) ProcessFeedback(ctx context.Context, tenantID, candidateID, positionID, feedbackText string) Result {
	parseCtx, cancel := context.WithTimeout(ctx, l.deadline)
	defer cancel()

	parsed, err := l.parser.ParseFeedback(parseCtx, feedbackText)
	if err != nil {
		l.log.Sugar().Warnw("feedback parse degraded to neutral fallback", "error", err, "candidate_id", candidateID, "position_id", positionID)
	}

	position, err := l.kg.GetPosition(ctx, tenantID, positionID)
	if err != nil {
		return Result{Success: false, Error: fmt.Sprintf("position %s not found", positionID), Reward: parsed.Reward, Sentiment: parsed.Sentiment}
	}

	candidateIDs := position.SelectedCandidates
	if len(candidateIDs) == 0 {
		l.storeFeedbackHistory(ctx, tenantID, candidateID, positionID, feedbackText, parsed)
		return Result{Success: false, Error: fmt.Sprintf("position %s has no candidate list", positionID), Reward: parsed.Reward, Sentiment: parsed.Sentiment}
	}

	index := indexOf(candidateIDs, candidateID)
	if index < 0 {
		l.storeFeedbackHistory(ctx, tenantID, candidateID, positionID, feedbackText, parsed)
		return Result{Success: false, Error: fmt.Sprintf("candidate %s not in position candidate list", candidateID), Reward: parsed.Reward, Sentiment: parsed.Sentiment}
	}

	b := l.bandits.Get(positionID)
	if b == nil {
		similarities := make([]float64, len(candidateIDs))
		for i := range similarities {
			similarities[i] = 0.5
		}
		b = l.bandits.GetOrCreateWarmStarted(positionID, candidateIDs, similarities)
	}

	if err := b.Update(index, parsed.Reward); err != nil {
		return Result{Success: false, Error: err.Error(), Reward: parsed.Reward, Sentiment: parsed.Sentiment}
	}

	isOptimal := parsed.Reward >= optimalRewardThreshold
	l.tracker.RecordInteraction(index, parsed.Reward, isOptimal, map[string]string{
		"candidate_id": candidateID,
		"position_id":  positionID,
		"feedback_text": feedbackText,
		"sentiment":    string(parsed.Sentiment),
	})

	l.storeFeedbackHistory(ctx, tenantID, candidateID, positionID, feedbackText, parsed)

	metrics := l.tracker.GetSummary()
	return Result{
		Success:   true,
		Reward:    parsed.Reward,
		Sentiment: parsed.Sentiment,
		Metrics:   metrics,
		Message: fmt.Sprintf("feedback recorded; current precision %.0f%%, response rate %.0f%%",
			metrics.Precision*100, metrics.ResponseRate*100),
	}
}

// UpdateBanditFromFeedback bypasses LLM parsing and updates a position's
// bandit directly with an already-known reward, for structured feedback
// paths that skip free text entirely.
func (l *Loop) UpdateBanditFromFeedback(candidateID, positionID string, reward float64) error {
	b := l.bandits.Get(positionID)
	if b == nil {
		return kgerrors.New(kgerrors.NotFound, fmt.Sprintf("no bandit registered for position %s", positionID))
	}
	index := indexOf(b.ArmIDs, candidateID)
	if index < 0 {
		return kgerrors.New(kgerrors.NotFound, fmt.Sprintf("candidate %s not found in position bandit arms", candidateID))
	}
	if err := b.Update(index, reward); err != nil {
		return err
	}
	l.tracker.RecordInteraction(index, reward, reward >= optimalRewardThreshold, nil)
	return nil
}

// GetLearningMetrics returns the tracker's current summary.
func (l *Loop) GetLearningMetrics() Summary {
	return l.tracker.GetSummary()
}

func (l *Loop) storeFeedbackHistory(ctx context.Context, tenantID, candidateID, positionID, feedbackText string, parsed llm.ParsedFeedback) {
	_, err := l.kg.UpdateCandidate(ctx, tenantID, candidateID, func(c *candidateModel.Candidate) {
		c.FeedbackHistory = append(c.FeedbackHistory, candidateModel.FeedbackRecord{
			PositionID:   positionID,
			FeedbackText: feedbackText,
			Reward:       parsed.Reward,
			FeedbackType: string(parsed.Sentiment),
			Timestamp:    time.Now(),
		})
	})
	if err != nil {
		l.log.Sugar().Warnw("failed to store feedback history", "error", err, "candidate_id", candidateID)
	}
}

func indexOf(ids []string, target string) int {
	for i, id := range ids {
		if id == target {
			return i
		}
	}
	return -1
}
