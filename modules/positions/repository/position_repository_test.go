package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	candidateModel "github.com/andreypavlenko/talentgraph/modules/candidates/model"
	"github.com/andreypavlenko/talentgraph/modules/positions/model"
)

func TestPositionRepository_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	rows := pgxmock.NewRows([]string{
		"id", "tenant_id", "title", "must_haves", "required_skills", "optional_skills", "domains", "experience_level", "selected_candidates", "created_at", "updated_at",
	}).AddRow("pos-1", "tenant-1", "ML Engineer", []string{"python"}, []string{"python", "cuda"}, []string{"rust"}, []string{"ml"}, int(candidateModel.Senior), []string{"cand-1", "cand-2"}, now, now)

	mock.ExpectQuery("SELECT id, tenant_id, title").
		WithArgs("pos-1", "tenant-1").
		WillReturnRows(rows)

	pos, err := scanPositionForTest(mock, "pos-1", "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, "ML Engineer", pos.Title)
	assert.Equal(t, candidateModel.Senior, pos.ExperienceLevel)
	assert.Equal(t, []string{"cand-1", "cand-2"}, pos.SelectedCandidates)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPositionRepository_GetByID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT id, tenant_id, title").
		WithArgs("missing", "tenant-1").
		WillReturnError(pgx.ErrNoRows)

	_, err = scanPositionForTest(mock, "missing", "tenant-1")
	assert.Equal(t, model.ErrPositionNotFound, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func scanPositionForTest(mock pgxmock.PgxPoolIface, positionID, tenantID string) (*model.Position, error) {
	row := mock.QueryRow(context.Background(), `SELECT `+selectColumns+` FROM positions WHERE id = $1 AND tenant_id = $2`, positionID, tenantID)

	p := &model.Position{}
	var level int
	err := row.Scan(&p.ID, &p.TenantID, &p.Title, &p.MustHaves, &p.RequiredSkills, &p.OptionalSkills, &p.Domains, &level, &p.SelectedCandidates, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, model.ErrPositionNotFound
		}
		return nil, err
	}
	p.ExperienceLevel = candidateModel.ExpertiseLevel(level)
	return p, nil
}
