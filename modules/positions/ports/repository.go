package ports

import (
	"context"

	"github.com/andreypavlenko/talentgraph/modules/positions/model"
)

// PositionRepository is the Component C contract for positions.
type PositionRepository interface {
	Create(ctx context.Context, position *model.Position) error
	GetByID(ctx context.Context, tenantID, positionID string) (*model.Position, error)
	Update(ctx context.Context, tenantID, positionID string, patch model.Patch) (*model.Position, error)
	List(ctx context.Context, tenantID string) ([]*model.Position, error)
}
