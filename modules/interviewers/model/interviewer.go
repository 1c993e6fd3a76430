package model

import "time"

// InterviewRecord is one entry in an interviewer's interview_history.
type InterviewRecord struct {
	CandidateID string `json:"candidate_id"`
	Result      string `json:"result"`
}

// Interviewer is the relational-store row for an interviewer.
type Interviewer struct {
	ID                  string             `json:"id"`
	TenantID            string             `json:"tenant_id"`
	Expertise           []string           `json:"expertise"`
	SuccessRate         float64            `json:"success_rate"`
	ClusterSuccessRates map[string]float64 `json:"cluster_success_rates"`
	InterviewHistory    []InterviewRecord  `json:"interview_history"`
	TeamID              *string            `json:"team_id,omitempty"`
	CreatedAt           time.Time          `json:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at"`
}

// ClusterSuccessRate returns the interviewer's recorded success rate for
// cluster, defaulting to 0.5 when there is no data for that cluster.
func (i *Interviewer) ClusterSuccessRate(cluster string) float64 {
	if rate, ok := i.ClusterSuccessRates[cluster]; ok {
		return rate
	}
	return 0.5
}

// Patch carries partial-update fields for UpdateInterviewer.
type Patch struct {
	Expertise           []string
	SuccessRate         *float64
	ClusterSuccessRates map[string]float64
	TeamID              *string
}
