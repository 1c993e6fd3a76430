package model

import (
	"time"

	candidateModel "github.com/andreypavlenko/talentgraph/modules/candidates/model"
)

// Position is the relational-store row for a position. SelectedCandidates
// is the frozen bandit arm order for this position: its index is the arm
// index for the position's bandit lifetime, even if the slice is later
// reassigned to a different list of candidates.
type Position struct {
	ID                string                       `json:"id"`
	TenantID          string                       `json:"tenant_id"`
	Title             string                       `json:"title"`
	MustHaves         []string                     `json:"must_haves"`
	RequiredSkills    []string                     `json:"required_skills"`
	OptionalSkills    []string                     `json:"optional_skills"`
	Domains           []string                     `json:"domains"`
	ExperienceLevel   candidateModel.ExpertiseLevel `json:"experience_level"`
	SelectedCandidates []string                    `json:"selected_candidates"`
	CreatedAt         time.Time                    `json:"created_at"`
	UpdatedAt         time.Time                    `json:"updated_at"`
}

// FromUntyped builds a Position's SelectedCandidates field from untyped
// input that may use either of the two historically-coexisting field
// names. selected_candidates takes precedence when both are present.
func FromUntyped(selectedCandidates, candidateIDs []string) []string {
	if len(selectedCandidates) > 0 {
		return selectedCandidates
	}
	return candidateIDs
}

// Patch carries partial-update fields for UpdatePosition.
type Patch struct {
	Title              *string
	MustHaves          []string
	RequiredSkills     []string
	OptionalSkills     []string
	Domains            []string
	ExperienceLevel    *candidateModel.ExpertiseLevel
	SelectedCandidates []string
}
