package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/andreypavlenko/talentgraph/modules/teams/model"
	"github.com/google/uuid"
)

// TeamRepository implements ports.TeamRepository against Postgres. Every
// query binds tenant_id explicitly so a row from another tenant can never
// be read, updated or deleted.
type TeamRepository struct {
	pool *pgxpool.Pool
}

func NewTeamRepository(pool *pgxpool.Pool) *TeamRepository {
	return &TeamRepository{pool: pool}
}

func (r *TeamRepository) Create(ctx context.Context, team *model.Team) error {
	if team.Name == "" {
		return model.ErrTeamNameRequired
	}

	team.ID = uuid.New().String()
	now := time.Now().UTC()
	team.CreatedAt = now
	team.UpdatedAt = now

	_, err := r.pool.Exec(ctx, `
		INSERT INTO teams (id, tenant_id, name, domain, needs, expertise, member_ids, open_positions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		team.ID, team.TenantID, team.Name, team.Domain,
		team.Needs, team.Expertise, team.MemberIDs, team.OpenPositions,
		team.CreatedAt, team.UpdatedAt,
	)
	return err
}

func (r *TeamRepository) GetByID(ctx context.Context, tenantID, teamID string) (*model.Team, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, tenant_id, name, domain, needs, expertise, member_ids, open_positions, created_at, updated_at
		FROM teams WHERE id = $1 AND tenant_id = $2
	`, teamID, tenantID)

	t := &model.Team{}
	err := row.Scan(&t.ID, &t.TenantID, &t.Name, &t.Domain, &t.Needs, &t.Expertise, &t.MemberIDs, &t.OpenPositions, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrTeamNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *TeamRepository) Update(ctx context.Context, tenantID, teamID string, patch model.Patch) (*model.Team, error) {
	existing, err := r.GetByID(ctx, tenantID, teamID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		existing.Name = *patch.Name
	}
	if patch.Domain != nil {
		existing.Domain = *patch.Domain
	}
	if patch.Needs != nil {
		existing.Needs = patch.Needs
	}
	if patch.Expertise != nil {
		existing.Expertise = patch.Expertise
	}
	if patch.OpenPositions != nil {
		existing.OpenPositions = patch.OpenPositions
	}
	existing.UpdatedAt = time.Now().UTC()

	result, err := r.pool.Exec(ctx, `
		UPDATE teams SET name = $3, domain = $4, needs = $5, expertise = $6, open_positions = $7, updated_at = $8
		WHERE id = $1 AND tenant_id = $2
	`, existing.ID, existing.TenantID, existing.Name, existing.Domain, existing.Needs, existing.Expertise, existing.OpenPositions, existing.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected() == 0 {
		return nil, model.ErrTeamNotFound
	}
	return existing, nil
}

func (r *TeamRepository) Delete(ctx context.Context, tenantID, teamID string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM teams WHERE id = $1 AND tenant_id = $2`, teamID, tenantID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return model.ErrTeamNotFound
	}
	return nil
}

func (r *TeamRepository) List(ctx context.Context, tenantID string) ([]*model.Team, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, tenant_id, name, domain, needs, expertise, member_ids, open_positions, created_at, updated_at
		FROM teams WHERE tenant_id = $1 ORDER BY created_at ASC
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []*model.Team
	for rows.Next() {
		t := &model.Team{}
		if err := rows.Scan(&t.ID, &t.TenantID, &t.Name, &t.Domain, &t.Needs, &t.Expertise, &t.MemberIDs, &t.OpenPositions, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// AddMember appends memberID to member_ids idempotently (no duplicate
// entries), backing link_interviewer_to_team's symmetric linking.
func (r *TeamRepository) AddMember(ctx context.Context, tenantID, teamID, memberID string) (*model.Team, error) {
	team, err := r.GetByID(ctx, tenantID, teamID)
	if err != nil {
		return nil, err
	}

	found := false
	for _, m := range team.MemberIDs {
		if m == memberID {
			found = true
			break
		}
	}
	if !found {
		team.MemberIDs = append(team.MemberIDs, memberID)
	}
	team.UpdatedAt = time.Now().UTC()

	_, err = r.pool.Exec(ctx, `
		UPDATE teams SET member_ids = $3, updated_at = $4 WHERE id = $1 AND tenant_id = $2
	`, team.ID, team.TenantID, team.MemberIDs, team.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return team, nil
}
