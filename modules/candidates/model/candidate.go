// Package model defines the Candidate entity. Candidates are authoritative
// in the knowledge graph's in-memory store (§4.D) rather than the
// relational store: there is no candidates table, only a vector record and
// an in-process "tenant_id:id" map entry. Candidate is the only class kept
// this way; teams, interviewers and positions are relational rows.
package model

import (
	"strings"
	"time"
)

// ExpertiseLevel is an ordered enum: junior < mid < senior < staff < principal.
type ExpertiseLevel int

const (
	Junior ExpertiseLevel = iota
	Mid
	Senior
	Staff
	Principal
)

var expertiseLevelNames = map[ExpertiseLevel]string{
	Junior:    "junior",
	Mid:       "mid",
	Senior:    "senior",
	Staff:     "staff",
	Principal: "principal",
}

func (e ExpertiseLevel) String() string {
	if name, ok := expertiseLevelNames[e]; ok {
		return name
	}
	return "unknown"
}

// ParseExpertiseLevel maps a lowercase level name to its ordinal, defaulting
// to Mid for unrecognized input so ordinal comparisons never panic.
func ParseExpertiseLevel(s string) ExpertiseLevel {
	for level, name := range expertiseLevelNames {
		if name == s {
			return level
		}
	}
	return Mid
}

// GitHubStats holds platform signals used by the exceptional-talent scorer.
type GitHubStats struct {
	TotalStars int      `json:"total_stars"`
	TotalRepos int      `json:"total_repos"`
	Languages  []string `json:"languages"`
}

// XAnalytics holds social-platform signals used by the exceptional-talent scorer.
type XAnalytics struct {
	FollowersCount       int     `json:"followers_count"`
	AvgEngagementRate    float64 `json:"avg_engagement_rate"`
	ContentQualityScore  float64 `json:"content_quality_score"`
}

// PhoneScreenResults holds the four sub-signals the decision engine and
// exceptional-talent scorer both read, each in [0, 1].
type PhoneScreenResults struct {
	TechnicalDepth  float64 `json:"technical_depth"`
	ProblemSolving  float64 `json:"problem_solving"`
	Communication   float64 `json:"communication"`
	Implementation  float64 `json:"implementation"`
}

// FeedbackRecord is one append-only entry in a candidate's feedback history.
type FeedbackRecord struct {
	PositionID   string    `json:"position_id"`
	FeedbackText string    `json:"feedback_text"`
	Reward       float64   `json:"reward"`
	FeedbackType string    `json:"feedback_type"`
	Timestamp    time.Time `json:"timestamp"`
	Note         string    `json:"note,omitempty"`
}

// Candidate is the full candidate record.
type Candidate struct {
	ID              string   `json:"id"`
	TenantID        string   `json:"tenant_id"`
	Name            string   `json:"name"`
	Skills          []string `json:"skills"`
	Domains         []string `json:"domains"`
	ExperienceYears float64  `json:"experience_years"`
	ExpertiseLevel  ExpertiseLevel `json:"expertise_level"`

	Papers               []string `json:"papers"`
	ArxivAuthorID        string   `json:"arxiv_author_id,omitempty"`
	OrcidID              string   `json:"orcid_id,omitempty"`
	ResearchContributions []string `json:"research_contributions,omitempty"`
	ResearchAreas        []string `json:"research_areas,omitempty"`

	GitHubStats GitHubStats `json:"github_stats"`
	XAnalytics  XAnalytics  `json:"x_analytics"`

	PhoneScreenResults *PhoneScreenResults `json:"phone_screen_results,omitempty"`

	AbilityCluster *string `json:"ability_cluster,omitempty"`

	FeedbackHistory []FeedbackRecord `json:"feedback_history"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasSkill reports whether the candidate's skill set contains skill,
// case-insensitively.
func (c *Candidate) HasSkill(skill string) bool {
	for _, s := range c.Skills {
		if strings.EqualFold(s, skill) {
			return true
		}
	}
	return false
}

// HasDomain reports whether the candidate's domain set contains domain,
// case-insensitively.
func (c *Candidate) HasDomain(domain string) bool {
	for _, d := range c.Domains {
		if strings.EqualFold(d, domain) {
			return true
		}
	}
	return false
}
