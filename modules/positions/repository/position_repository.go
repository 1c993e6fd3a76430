package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	candidateModel "github.com/andreypavlenko/talentgraph/modules/candidates/model"
	"github.com/andreypavlenko/talentgraph/modules/positions/model"
	"github.com/google/uuid"
)

// PositionRepository implements ports.PositionRepository against Postgres.
// experience_level is stored as its integer ordinal so comparisons in SQL
// (if ever needed) stay consistent with the in-process ordered enum.
type PositionRepository struct {
	pool *pgxpool.Pool
}

func NewPositionRepository(pool *pgxpool.Pool) *PositionRepository {
	return &PositionRepository{pool: pool}
}

func (r *PositionRepository) Create(ctx context.Context, position *model.Position) error {
	if position.Title == "" {
		return model.ErrPositionTitleRequired
	}

	position.ID = uuid.New().String()
	now := time.Now().UTC()
	position.CreatedAt = now
	position.UpdatedAt = now

	_, err := r.pool.Exec(ctx, `
		INSERT INTO positions (id, tenant_id, title, must_haves, required_skills, optional_skills, domains, experience_level, selected_candidates, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		position.ID, position.TenantID, position.Title,
		position.MustHaves, position.RequiredSkills, position.OptionalSkills, position.Domains,
		int(position.ExperienceLevel), position.SelectedCandidates,
		position.CreatedAt, position.UpdatedAt,
	)
	return err
}

const selectColumns = `id, tenant_id, title, must_haves, required_skills, optional_skills, domains, experience_level, selected_candidates, created_at, updated_at`

func (r *PositionRepository) scanRow(row pgx.Row) (*model.Position, error) {
	p := &model.Position{}
	var level int
	err := row.Scan(&p.ID, &p.TenantID, &p.Title, &p.MustHaves, &p.RequiredSkills, &p.OptionalSkills, &p.Domains, &level, &p.SelectedCandidates, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrPositionNotFound
		}
		return nil, err
	}
	p.ExperienceLevel = candidateModel.ExpertiseLevel(level)
	return p, nil
}

func (r *PositionRepository) GetByID(ctx context.Context, tenantID, positionID string) (*model.Position, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM positions WHERE id = $1 AND tenant_id = $2`, positionID, tenantID)
	return r.scanRow(row)
}

func (r *PositionRepository) Update(ctx context.Context, tenantID, positionID string, patch model.Patch) (*model.Position, error) {
	existing, err := r.GetByID(ctx, tenantID, positionID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		existing.Title = *patch.Title
	}
	if patch.MustHaves != nil {
		existing.MustHaves = patch.MustHaves
	}
	if patch.RequiredSkills != nil {
		existing.RequiredSkills = patch.RequiredSkills
	}
	if patch.OptionalSkills != nil {
		existing.OptionalSkills = patch.OptionalSkills
	}
	if patch.Domains != nil {
		existing.Domains = patch.Domains
	}
	if patch.ExperienceLevel != nil {
		existing.ExperienceLevel = *patch.ExperienceLevel
	}
	if patch.SelectedCandidates != nil {
		existing.SelectedCandidates = patch.SelectedCandidates
	}
	existing.UpdatedAt = time.Now().UTC()

	result, err := r.pool.Exec(ctx, `
		UPDATE positions SET title = $3, must_haves = $4, required_skills = $5, optional_skills = $6,
			domains = $7, experience_level = $8, selected_candidates = $9, updated_at = $10
		WHERE id = $1 AND tenant_id = $2
	`, existing.ID, existing.TenantID, existing.Title, existing.MustHaves, existing.RequiredSkills,
		existing.OptionalSkills, existing.Domains, int(existing.ExperienceLevel), existing.SelectedCandidates, existing.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected() == 0 {
		return nil, model.ErrPositionNotFound
	}
	return existing, nil
}

func (r *PositionRepository) List(ctx context.Context, tenantID string) ([]*model.Position, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectColumns+` FROM positions WHERE tenant_id = $1 ORDER BY created_at ASC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Position
	for rows.Next() {
		p, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
