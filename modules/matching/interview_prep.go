package matching

import (
	"fmt"

	candidateModel "github.com/andreypavlenko/talentgraph/modules/candidates/model"
	interviewerModel "github.com/andreypavlenko/talentgraph/modules/interviewers/model"
	positionModel "github.com/andreypavlenko/talentgraph/modules/positions/model"
	teamModel "github.com/andreypavlenko/talentgraph/modules/teams/model"
)

// InterviewPrep is the supplemented interview-preparation artifact: a
// deterministic, rule-based stand-in for the free-text generator the
// feature was distilled from, built entirely from data already on hand
// (skills, domains, success rates) so it needs no extra external call.
type InterviewPrep struct {
	ProfileOverview   string
	CandidateSummary  string
	PositionSummary   string
	TeamContext       string
	InterviewerContext string
	Questions         []string
	FocusAreas        []string
}

// GenerateInterviewPrep builds prep materials for one candidate/team/
// interviewer/position combination.
func GenerateInterviewPrep(
	c *candidateModel.Candidate,
	p *positionModel.Position,
	t *teamModel.Team,
	i *interviewerModel.Interviewer,
) InterviewPrep {
	candidateSummary := fmt.Sprintf("%s: %s, %.0f years experience, skills: %v", c.Name, c.ExpertiseLevel, c.ExperienceYears, c.Skills)
	positionSummary := fmt.Sprintf("%s requires %v (must-have) at %s level", p.Title, p.MustHaves, p.ExperienceLevel)
	teamContext := fmt.Sprintf("Team %s (%s domain) needs %v", t.Name, t.Domain, t.Needs)
	interviewerContext := fmt.Sprintf("Interviewer expertise: %v, historical success rate %.0f%%", i.Expertise, i.SuccessRate*100)

	overview := fmt.Sprintf("%s is being evaluated for %s on team %s, interviewed by someone with expertise in %v.",
		c.Name, p.Title, t.Name, i.Expertise)

	var questions []string
	missing := missingMustHaves(c, p, 1.0)
	for _, mh := range missing {
		questions = append(questions, fmt.Sprintf("Candidate profile does not list %q; probe depth of experience here.", mh))
	}
	for _, skill := range p.RequiredSkills {
		if c.HasSkill(skill) {
			questions = append(questions, fmt.Sprintf("Walk through a project where you applied %s in production.", skill))
		}
	}
	if len(c.ResearchAreas) > 0 {
		questions = append(questions, fmt.Sprintf("Discuss your research in %v and how it transfers to this role.", c.ResearchAreas))
	}
	questions = append(questions, "Describe a disagreement with a teammate and how it was resolved.")

	var focusAreas []string
	if len(missing) > 0 {
		focusAreas = append(focusAreas, fmt.Sprintf("gaps: missing %v", missing))
	}
	overlap := intersectionOverB(c.Skills, p.RequiredSkills)
	if overlap >= 0.8 {
		focusAreas = append(focusAreas, "strength: strong required-skill coverage")
	}
	if c.AbilityCluster != nil {
		rate := i.ClusterSuccessRate(*c.AbilityCluster)
		if rate >= 0.7 {
			focusAreas = append(focusAreas, fmt.Sprintf("strength: interviewer has a %.0f%% success rate with this candidate's ability cluster", rate*100))
		} else if rate < 0.4 {
			focusAreas = append(focusAreas, "concern: interviewer has limited success history with this ability cluster")
		}
	}

	return InterviewPrep{
		ProfileOverview:    overview,
		CandidateSummary:   candidateSummary,
		PositionSummary:    positionSummary,
		TeamContext:        teamContext,
		InterviewerContext: interviewerContext,
		Questions:          questions,
		FocusAreas:         focusAreas,
	}
}
