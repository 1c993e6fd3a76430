package matching

import (
	"fmt"
	"math"
	"strings"

	"github.com/andreypavlenko/talentgraph/internal/kgerrors"
	"github.com/andreypavlenko/talentgraph/internal/rng"
	"github.com/andreypavlenko/talentgraph/modules/bandit"
	candidateModel "github.com/andreypavlenko/talentgraph/modules/candidates/model"
	teamModel "github.com/andreypavlenko/talentgraph/modules/teams/model"
)

const (
	teamWeightSimilarity = 0.30
	teamWeightNeeds      = 0.25
	teamWeightExpertise  = 0.15
	teamWeightArxiv      = 0.25
	teamWeightCapacity   = 0.05

	reasoningDisplayThreshold = 0.5
)

// TeamScoreComponents holds the individual weighted signals behind a
// composite team-match score, exposed for display and for seeding the
// selection bandit's warm priors.
type TeamScoreComponents struct {
	Similarity float64
	NeedsMatch float64
	Expertise  float64
	ArxivBoost float64
	Capacity   float64
	Composite  float64
}

// TeamMatchResult is the outcome of MatchToTeam.
type TeamMatchResult struct {
	TeamID     string
	Score      float64
	Components TeamScoreComponents
	Reasoning  string
}

// scoreTeam computes the composite §4.H team-match score for one team.
func scoreTeam(c *candidateModel.Candidate, candidateVec []float32, t *teamModel.Team, teamVec []float32) TeamScoreComponents {
	similarity := clip01(cosineSimilarity(candidateVec, teamVec))
	needsMatch := intersectionOverB(c.Skills, t.Needs)
	expertiseMatch := intersectionOverB(c.Domains, t.Expertise)
	arxiv := arxivBoost(c)

	var capacity float64
	if len(t.OpenPositions) == 0 {
		capacity = 0.5
	} else {
		capacity = math.Min(float64(len(t.OpenPositions))/3.0, 1.0)
	}

	composite := teamWeightSimilarity*similarity +
		teamWeightNeeds*needsMatch +
		teamWeightExpertise*expertiseMatch +
		teamWeightArxiv*arxiv +
		teamWeightCapacity*capacity

	return TeamScoreComponents{
		Similarity: similarity,
		NeedsMatch: needsMatch,
		Expertise:  expertiseMatch,
		ArxivBoost: arxiv,
		Capacity:   capacity,
		Composite:  composite,
	}
}

// MatchToTeam scores a candidate against every team, then selects one via a
// bandit freshly initialized per request, warm-started from the composite
// scores acting as a similarity-like signal. Requires at least one team.
func MatchToTeam(
	candidate *candidateModel.Candidate,
	candidateVec []float32,
	teams []*teamModel.Team,
	teamVectors map[string][]float32,
	kappa, lambdaFG float64,
	source *rng.Source,
) (*TeamMatchResult, error) {
	if len(teams) == 0 {
		return nil, kgerrors.New(kgerrors.ValidationError, "no teams available to match against")
	}

	armIDs := make([]string, len(teams))
	composites := make([]float64, len(teams))
	components := make(map[string]TeamScoreComponents, len(teams))
	for i, t := range teams {
		comp := scoreTeam(candidate, candidateVec, t, teamVectors[t.ID])
		armIDs[i] = t.ID
		composites[i] = comp.Composite
		components[t.ID] = comp
	}

	b := bandit.NewWarmStarted(armIDs, composites, kappa, lambdaFG, source)
	selected := b.Select()
	teamID := armIDs[selected]
	comp := components[teamID]

	return &TeamMatchResult{
		TeamID:     teamID,
		Score:      comp.Composite,
		Components: comp,
		Reasoning:  buildTeamReasoning(comp),
	}, nil
}

func buildTeamReasoning(c TeamScoreComponents) string {
	var parts []string
	if c.Similarity >= reasoningDisplayThreshold {
		parts = append(parts, fmt.Sprintf("strong profile similarity (%.2f)", c.Similarity))
	}
	if c.NeedsMatch >= reasoningDisplayThreshold {
		parts = append(parts, fmt.Sprintf("covers %.0f%% of team needs", c.NeedsMatch*100))
	}
	if c.Expertise >= reasoningDisplayThreshold {
		parts = append(parts, fmt.Sprintf("shares %.0f%% of team expertise domains", c.Expertise*100))
	}
	if c.ArxivBoost >= reasoningDisplayThreshold {
		parts = append(parts, "notable research record")
	}
	if c.Capacity >= reasoningDisplayThreshold {
		parts = append(parts, "team has open capacity")
	}
	if len(parts) == 0 {
		return fmt.Sprintf("selected with composite score %.2f", c.Composite)
	}
	return strings.Join(parts, "; ")
}
