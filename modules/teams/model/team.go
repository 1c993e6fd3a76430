package model

import "time"

// Team is the relational-store row for a team.
type Team struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenant_id"`
	Name           string    `json:"name"`
	Domain         string    `json:"domain"`
	Needs          []string  `json:"needs"`
	Expertise      []string  `json:"expertise"`
	MemberIDs      []string  `json:"member_ids"`
	OpenPositions  []string  `json:"open_positions"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MemberCount is derived, never stored independently: member_count == len(member_ids).
func (t *Team) MemberCount() int {
	return len(t.MemberIDs)
}

// Patch carries partial-update fields for UpdateTeam; nil fields are left
// unchanged.
type Patch struct {
	Name          *string
	Domain        *string
	Needs         []string
	Expertise     []string
	OpenPositions []string
}
