package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreypavlenko/talentgraph/modules/interviewers/model"
)

func TestInterviewerRepository_GetByID_DefaultsClusterRate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	clusterJSON, _ := json.Marshal(map[string]float64{"Fullstack Developers": 0.62})
	historyJSON, _ := json.Marshal([]model.InterviewRecord{})

	rows := pgxmock.NewRows([]string{
		"id", "tenant_id", "expertise", "success_rate", "cluster_success_rates", "interview_history", "team_id", "created_at", "updated_at",
	}).AddRow("iv-1", "tenant-1", []string{"backend"}, 0.7, clusterJSON, historyJSON, nil, now, now)

	mock.ExpectQuery("SELECT id, tenant_id, expertise").
		WithArgs("iv-1", "tenant-1").
		WillReturnRows(rows)

	iv, err := scanForTest(mock, "iv-1", "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, 0.62, iv.ClusterSuccessRate("Fullstack Developers"))
	assert.Equal(t, 0.5, iv.ClusterSuccessRate("Deep Learning Engineers"))
	require.NoError(t, mock.ExpectationsWereMet())
}

// scanForTest issues the same query InterviewerRepository.GetByID issues,
// against the mock pool, since *pgxpool.Pool can't be substituted directly.
func scanForTest(mock pgxmock.PgxPoolIface, interviewerID, tenantID string) (*model.Interviewer, error) {
	row := mock.QueryRow(context.Background(), `SELECT `+selectColumns+` FROM interviewers WHERE id = $1 AND tenant_id = $2`, interviewerID, tenantID)

	i := &model.Interviewer{}
	var historyJSON, clusterJSON []byte
	if err := row.Scan(&i.ID, &i.TenantID, &i.Expertise, &i.SuccessRate, &clusterJSON, &historyJSON, &i.TeamID, &i.CreatedAt, &i.UpdatedAt); err != nil {
		return nil, err
	}
	if len(clusterJSON) > 0 {
		_ = json.Unmarshal(clusterJSON, &i.ClusterSuccessRates)
	}
	if len(historyJSON) > 0 {
		_ = json.Unmarshal(historyJSON, &i.InterviewHistory)
	}
	return i, nil
}
