package feedback

import (
	"math"

	"github.com/andreypavlenko/talentgraph/internal/kgerrors"
	"github.com/andreypavlenko/talentgraph/internal/rng"
	"github.com/andreypavlenko/talentgraph/modules/bandit"
)

// SimulationConfig controls RunLearningSimulation.
type SimulationConfig struct {
	NumFeedbackEvents  int
	FeedbackProbability float64
	Kappa              float64
	LambdaFG           float64
}

// LearningCurvePoint is one (warm, cold) sample along the simulated
// interaction sequence, taken every curveSampleEvery interactions.
type LearningCurvePoint struct {
	Interaction   int
	WarmPrecision float64
	ColdPrecision float64
	WarmRegret    float64
	ColdRegret    float64
}

// ImprovementMetrics compares the warm-start and cold-start runs.
type ImprovementMetrics struct {
	RegretReduction      float64
	PrecisionImprovement float64
	EventsToEightyPctWarm int
	EventsToEightyPctCold int
}

// SimulationResult is RunLearningSimulation's full output.
type SimulationResult struct {
	WarmStartMetrics  Summary
	ColdStartMetrics  Summary
	LearningCurves    []LearningCurvePoint
	Improvement       ImprovementMetrics
	OptimalCandidate  int
}

const curveSampleEvery = 5

// RunLearningSimulation compares warm-start (embedding-informed Beta
// priors) against cold-start (uniform Beta(1,1) priors) bandits over the
// same simulated feedback stream, demonstrating that warm-start reaches
// high precision in fewer interactions. similarities must have one entry
// per candidateID, each in [0,1]; the candidate with the highest
// similarity is treated as the ground-truth optimal arm for regret and
// precision bookkeeping.
func RunLearningSimulation(candidateIDs []string, similarities []float64, cfg SimulationConfig, source *rng.Source) (*SimulationResult, error) {
	if len(candidateIDs) == 0 {
		return nil, kgerrors.New(kgerrors.ValidationError, "candidate list cannot be empty")
	}
	if len(similarities) != len(candidateIDs) {
		return nil, kgerrors.New(kgerrors.ValidationError, "similarities must have one entry per candidate")
	}

	warmBandit := bandit.NewWarmStarted(candidateIDs, similarities, cfg.Kappa, cfg.LambdaFG, source)
	coldBandit := bandit.NewColdStarted(candidateIDs, cfg.LambdaFG, source)
	warmTracker := NewLearningTracker()
	coldTracker := NewLearningTracker()

	optimalIdx := argmax(similarities)

	var curves []LearningCurvePoint
	eventsToEightyWarm, eventsToEightyCold := -1, -1

	for event := 0; event < cfg.NumFeedbackEvents; event++ {
		warmSelected := warmBandit.Select()
		coldSelected := coldBandit.Select()

		warmReward := simulateReward(similarities[warmSelected], cfg.FeedbackProbability, source)
		coldReward := simulateReward(similarities[coldSelected], cfg.FeedbackProbability, source)

		if err := warmBandit.Update(warmSelected, warmReward); err != nil {
			return nil, err
		}
		if err := coldBandit.Update(coldSelected, coldReward); err != nil {
			return nil, err
		}

		warmTracker.RecordInteraction(warmSelected, warmReward, warmSelected == optimalIdx, nil)
		coldTracker.RecordInteraction(coldSelected, coldReward, coldSelected == optimalIdx, nil)

		if eventsToEightyWarm < 0 && warmTracker.Precision() >= 0.8 {
			eventsToEightyWarm = event + 1
		}
		if eventsToEightyCold < 0 && coldTracker.Precision() >= 0.8 {
			eventsToEightyCold = event + 1
		}

		if (event+1)%curveSampleEvery == 0 {
			curves = append(curves, LearningCurvePoint{
				Interaction:   event + 1,
				WarmPrecision: warmTracker.Precision(),
				ColdPrecision: coldTracker.Precision(),
				WarmRegret:    warmTracker.CumulativeRegret(),
				ColdRegret:    coldTracker.CumulativeRegret(),
			})
		}
	}

	warmSummary := warmTracker.GetSummary()
	coldSummary := coldTracker.GetSummary()

	return &SimulationResult{
		WarmStartMetrics: warmSummary,
		ColdStartMetrics: coldSummary,
		LearningCurves:   curves,
		Improvement: ImprovementMetrics{
			RegretReduction:       coldSummary.CumulativeRegret - warmSummary.CumulativeRegret,
			PrecisionImprovement:  warmSummary.Precision - coldSummary.Precision,
			EventsToEightyPctWarm: eventsToEightyWarm,
			EventsToEightyPctCold: eventsToEightyCold,
		},
		OptimalCandidate: optimalIdx,
	}, nil
}

// simulateReward draws a synthetic pass/fail reward: higher similarity
// raises the chance of a positive outcome, mirroring recruiter feedback
// correlating with actual fit.
func simulateReward(similarity, feedbackProbability float64, source *rng.Source) float64 {
	if source.Float64() < feedbackProbability*similarity {
		return 1.0
	}
	return 0.0
}

func argmax(values []float64) int {
	best := 0
	bestVal := math.Inf(-1)
	for i, v := range values {
		if v > bestVal {
			bestVal = v
			best = i
		}
	}
	return best
}
