package matching

import (
	"fmt"
	"strings"

	"github.com/andreypavlenko/talentgraph/internal/kgerrors"
	"github.com/andreypavlenko/talentgraph/internal/rng"
	"github.com/andreypavlenko/talentgraph/modules/bandit"
	candidateModel "github.com/andreypavlenko/talentgraph/modules/candidates/model"
	interviewerModel "github.com/andreypavlenko/talentgraph/modules/interviewers/model"
)

const (
	interviewerWeightSimilarity  = 0.30
	interviewerWeightExpertise   = 0.20
	interviewerWeightArxiv       = 0.25
	interviewerWeightSuccessRate = 0.15
	interviewerWeightCluster     = 0.10

	defaultClusterSuccessRate = 0.5
)

// InterviewerScoreComponents holds the weighted signals behind one
// candidate-interviewer composite score.
type InterviewerScoreComponents struct {
	Similarity    float64
	Expertise     float64
	ArxivBoost    float64
	SuccessRate   float64
	ClusterSucces float64
	Composite     float64
}

// InterviewerMatchResult is the outcome of MatchToPerson.
type InterviewerMatchResult struct {
	InterviewerID string
	Score         float64
	Components    InterviewerScoreComponents
	Reasoning     string
}

func scoreInterviewer(c *candidateModel.Candidate, candidateVec []float32, i *interviewerModel.Interviewer, interviewerVec []float32) InterviewerScoreComponents {
	similarity := clip01(cosineSimilarity(candidateVec, interviewerVec))
	expertiseMatch := intersectionOverB(c.Domains, i.Expertise)
	arxiv := arxivBoost(c)

	clusterSuccess := defaultClusterSuccessRate
	if c.AbilityCluster != nil {
		clusterSuccess = i.ClusterSuccessRate(*c.AbilityCluster)
	}

	composite := interviewerWeightSimilarity*similarity +
		interviewerWeightExpertise*expertiseMatch +
		interviewerWeightArxiv*arxiv +
		interviewerWeightSuccessRate*i.SuccessRate +
		interviewerWeightCluster*clusterSuccess

	return InterviewerScoreComponents{
		Similarity:    similarity,
		Expertise:     expertiseMatch,
		ArxivBoost:    arxiv,
		SuccessRate:   i.SuccessRate,
		ClusterSucces: clusterSuccess,
		Composite:     composite,
	}
}

// MatchToPerson scores a candidate against every interviewer on a team and
// selects one via a freshly initialized bandit, mirroring MatchToTeam's
// warm-start pattern.
func MatchToPerson(
	candidate *candidateModel.Candidate,
	candidateVec []float32,
	interviewers []*interviewerModel.Interviewer,
	interviewerVectors map[string][]float32,
	kappa, lambdaFG float64,
	source *rng.Source,
) (*InterviewerMatchResult, error) {
	if len(interviewers) == 0 {
		return nil, kgerrors.New(kgerrors.ValidationError, "no interviewers available to match against")
	}

	armIDs := make([]string, len(interviewers))
	composites := make([]float64, len(interviewers))
	components := make(map[string]InterviewerScoreComponents, len(interviewers))
	for idx, i := range interviewers {
		comp := scoreInterviewer(candidate, candidateVec, i, interviewerVectors[i.ID])
		armIDs[idx] = i.ID
		composites[idx] = comp.Composite
		components[i.ID] = comp
	}

	b := bandit.NewWarmStarted(armIDs, composites, kappa, lambdaFG, source)
	selected := b.Select()
	interviewerID := armIDs[selected]
	comp := components[interviewerID]

	return &InterviewerMatchResult{
		InterviewerID: interviewerID,
		Score:         comp.Composite,
		Components:    comp,
		Reasoning:     buildInterviewerReasoning(comp),
	}, nil
}

func buildInterviewerReasoning(c InterviewerScoreComponents) string {
	var parts []string
	if c.Similarity >= reasoningDisplayThreshold {
		parts = append(parts, fmt.Sprintf("strong profile similarity (%.2f)", c.Similarity))
	}
	if c.Expertise >= reasoningDisplayThreshold {
		parts = append(parts, "shared expertise domains")
	}
	if c.ArxivBoost >= reasoningDisplayThreshold {
		parts = append(parts, "notable research record")
	}
	if c.SuccessRate >= reasoningDisplayThreshold {
		parts = append(parts, fmt.Sprintf("historical success rate %.0f%%", c.SuccessRate*100))
	}
	if c.ClusterSucces >= reasoningDisplayThreshold {
		parts = append(parts, "strong track record with this ability cluster")
	}
	if len(parts) == 0 {
		return fmt.Sprintf("selected with composite score %.2f", c.Composite)
	}
	return strings.Join(parts, "; ")
}
