package ports

import (
	"context"

	"github.com/andreypavlenko/talentgraph/modules/interviewers/model"
)

// InterviewerRepository is the Component C contract for interviewers.
type InterviewerRepository interface {
	Create(ctx context.Context, interviewer *model.Interviewer) error
	GetByID(ctx context.Context, tenantID, interviewerID string) (*model.Interviewer, error)
	Update(ctx context.Context, tenantID, interviewerID string, patch model.Patch) (*model.Interviewer, error)
	List(ctx context.Context, tenantID string) ([]*model.Interviewer, error)
	ListByTeam(ctx context.Context, tenantID, teamID string) ([]*model.Interviewer, error)
	AppendInterview(ctx context.Context, tenantID, interviewerID string, record model.InterviewRecord) error
	SetTeam(ctx context.Context, tenantID, interviewerID, teamID string) (*model.Interviewer, error)
}
