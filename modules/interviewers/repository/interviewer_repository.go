package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andreypavlenko/talentgraph/modules/interviewers/model"
	"github.com/google/uuid"
)

// InterviewerRepository implements ports.InterviewerRepository against
// Postgres. interview_history and cluster_success_rates are stored as jsonb
// since they're append-only/variable-shape structures, not relational rows.
type InterviewerRepository struct {
	pool *pgxpool.Pool
}

func NewInterviewerRepository(pool *pgxpool.Pool) *InterviewerRepository {
	return &InterviewerRepository{pool: pool}
}

func (r *InterviewerRepository) Create(ctx context.Context, interviewer *model.Interviewer) error {
	interviewer.ID = uuid.New().String()
	now := time.Now().UTC()
	interviewer.CreatedAt = now
	interviewer.UpdatedAt = now
	if interviewer.ClusterSuccessRates == nil {
		interviewer.ClusterSuccessRates = map[string]float64{}
	}

	historyJSON, err := json.Marshal(interviewer.InterviewHistory)
	if err != nil {
		return err
	}
	clusterJSON, err := json.Marshal(interviewer.ClusterSuccessRates)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO interviewers (id, tenant_id, expertise, success_rate, cluster_success_rates, interview_history, team_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, interviewer.ID, interviewer.TenantID, interviewer.Expertise, interviewer.SuccessRate, clusterJSON, historyJSON, interviewer.TeamID, interviewer.CreatedAt, interviewer.UpdatedAt)
	return err
}

func (r *InterviewerRepository) scanRow(row pgx.Row) (*model.Interviewer, error) {
	i := &model.Interviewer{}
	var historyJSON, clusterJSON []byte
	err := row.Scan(&i.ID, &i.TenantID, &i.Expertise, &i.SuccessRate, &clusterJSON, &historyJSON, &i.TeamID, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrInterviewerNotFound
		}
		return nil, err
	}
	if len(clusterJSON) > 0 {
		if err := json.Unmarshal(clusterJSON, &i.ClusterSuccessRates); err != nil {
			return nil, err
		}
	}
	if len(historyJSON) > 0 {
		if err := json.Unmarshal(historyJSON, &i.InterviewHistory); err != nil {
			return nil, err
		}
	}
	return i, nil
}

const selectColumns = `id, tenant_id, expertise, success_rate, cluster_success_rates, interview_history, team_id, created_at, updated_at`

func (r *InterviewerRepository) GetByID(ctx context.Context, tenantID, interviewerID string) (*model.Interviewer, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM interviewers WHERE id = $1 AND tenant_id = $2`, interviewerID, tenantID)
	return r.scanRow(row)
}

func (r *InterviewerRepository) Update(ctx context.Context, tenantID, interviewerID string, patch model.Patch) (*model.Interviewer, error) {
	existing, err := r.GetByID(ctx, tenantID, interviewerID)
	if err != nil {
		return nil, err
	}

	if patch.Expertise != nil {
		existing.Expertise = patch.Expertise
	}
	if patch.SuccessRate != nil {
		existing.SuccessRate = *patch.SuccessRate
	}
	if patch.ClusterSuccessRates != nil {
		existing.ClusterSuccessRates = patch.ClusterSuccessRates
	}
	if patch.TeamID != nil {
		existing.TeamID = patch.TeamID
	}
	existing.UpdatedAt = time.Now().UTC()

	clusterJSON, err := json.Marshal(existing.ClusterSuccessRates)
	if err != nil {
		return nil, err
	}

	result, err := r.pool.Exec(ctx, `
		UPDATE interviewers SET expertise = $3, success_rate = $4, cluster_success_rates = $5, team_id = $6, updated_at = $7
		WHERE id = $1 AND tenant_id = $2
	`, existing.ID, existing.TenantID, existing.Expertise, existing.SuccessRate, clusterJSON, existing.TeamID, existing.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected() == 0 {
		return nil, model.ErrInterviewerNotFound
	}
	return existing, nil
}

func (r *InterviewerRepository) List(ctx context.Context, tenantID string) ([]*model.Interviewer, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectColumns+` FROM interviewers WHERE tenant_id = $1 ORDER BY created_at ASC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *InterviewerRepository) ListByTeam(ctx context.Context, tenantID, teamID string) ([]*model.Interviewer, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectColumns+` FROM interviewers WHERE tenant_id = $1 AND team_id = $2 ORDER BY created_at ASC`, tenantID, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanAll(rows)
}

func (r *InterviewerRepository) scanAll(rows pgx.Rows) ([]*model.Interviewer, error) {
	var out []*model.Interviewer
	for rows.Next() {
		i, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// AppendInterview appends a completed interview to interview_history.
func (r *InterviewerRepository) AppendInterview(ctx context.Context, tenantID, interviewerID string, record model.InterviewRecord) error {
	existing, err := r.GetByID(ctx, tenantID, interviewerID)
	if err != nil {
		return err
	}
	existing.InterviewHistory = append(existing.InterviewHistory, record)
	historyJSON, err := json.Marshal(existing.InterviewHistory)
	if err != nil {
		return err
	}

	result, err := r.pool.Exec(ctx, `
		UPDATE interviewers SET interview_history = $3, updated_at = $4 WHERE id = $1 AND tenant_id = $2
	`, existing.ID, existing.TenantID, historyJSON, time.Now().UTC())
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return model.ErrInterviewerNotFound
	}
	return nil
}

// SetTeam atomically sets team_id on the interviewer side of
// link_interviewer_to_team; idempotent for repeated identical calls.
func (r *InterviewerRepository) SetTeam(ctx context.Context, tenantID, interviewerID, teamID string) (*model.Interviewer, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE interviewers SET team_id = $3, updated_at = $4 WHERE id = $1 AND tenant_id = $2
	`, interviewerID, tenantID, teamID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if result.RowsAffected() == 0 {
		return nil, model.ErrInterviewerNotFound
	}
	return r.GetByID(ctx, tenantID, interviewerID)
}
