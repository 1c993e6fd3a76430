package ports

import (
	"context"

	"github.com/andreypavlenko/talentgraph/modules/teams/model"
)

// TeamRepository is the Component C contract for teams: every method is
// tenant-scoped.
type TeamRepository interface {
	Create(ctx context.Context, team *model.Team) error
	GetByID(ctx context.Context, tenantID, teamID string) (*model.Team, error)
	Update(ctx context.Context, tenantID, teamID string, patch model.Patch) (*model.Team, error)
	Delete(ctx context.Context, tenantID, teamID string) error
	List(ctx context.Context, tenantID string) ([]*model.Team, error)

	// AddMember backs link_interviewer_to_team; open positions are set
	// through Update.
	AddMember(ctx context.Context, tenantID, teamID, memberID string) (*model.Team, error)
}
