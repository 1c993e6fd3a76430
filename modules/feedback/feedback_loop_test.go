package feedback

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreypavlenko/talentgraph/internal/kgerrors"
	"github.com/andreypavlenko/talentgraph/internal/platform/llm"
	"github.com/andreypavlenko/talentgraph/internal/platform/logger"
	"github.com/andreypavlenko/talentgraph/internal/rng"
	"github.com/andreypavlenko/talentgraph/modules/bandit"
	candidateModel "github.com/andreypavlenko/talentgraph/modules/candidates/model"
	interviewerModel "github.com/andreypavlenko/talentgraph/modules/interviewers/model"
	kgports "github.com/andreypavlenko/talentgraph/modules/knowledgegraph/ports"
	kgservice "github.com/andreypavlenko/talentgraph/modules/knowledgegraph/service"
	positionModel "github.com/andreypavlenko/talentgraph/modules/positions/model"
	teamModel "github.com/andreypavlenko/talentgraph/modules/teams/model"
)

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(class string, record json.RawMessage) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}
func (fakeEmbedder) Dim() int { return 3 }

type fakeVectorIndexAdapter struct{}

func (fakeVectorIndexAdapter) Upsert(ctx context.Context, class, profileID, tenantID string, vector []float32, metadata json.RawMessage) error {
	return nil
}
func (fakeVectorIndexAdapter) Replace(ctx context.Context, class, profileID, tenantID string, vector []float32, metadata json.RawMessage) error {
	return nil
}
func (fakeVectorIndexAdapter) FetchByID(ctx context.Context, class, profileID string, withVector bool) (*kgports.VectorRecord, error) {
	return nil, kgerrors.New(kgerrors.NotFound, "not found")
}
func (fakeVectorIndexAdapter) Search(ctx context.Context, class string, queryVector []float32, k int) ([]kgports.SearchResult, error) {
	return nil, nil
}
func (fakeVectorIndexAdapter) Scan(ctx context.Context, class string, limit int) ([]kgports.VectorRecord, error) {
	return nil, nil
}
func (fakeVectorIndexAdapter) Delete(ctx context.Context, class, profileID string) error { return nil }
func (fakeVectorIndexAdapter) SimilarAcrossTypes(ctx context.Context, class, profileID string, kPerClass int) (map[string][]kgports.SearchResult, error) {
	return nil, nil
}

type fakeTeamRepo struct{}

func (fakeTeamRepo) Create(ctx context.Context, t *teamModel.Team) error { return nil }
func (fakeTeamRepo) GetByID(ctx context.Context, tenantID, teamID string) (*teamModel.Team, error) {
	return nil, kgerrors.New(kgerrors.NotFound, "not found")
}
func (fakeTeamRepo) Update(ctx context.Context, tenantID, teamID string, patch teamModel.Patch) (*teamModel.Team, error) {
	return nil, kgerrors.New(kgerrors.NotFound, "not found")
}
func (fakeTeamRepo) Delete(ctx context.Context, tenantID, teamID string) error { return nil }
func (fakeTeamRepo) List(ctx context.Context, tenantID string) ([]*teamModel.Team, error) {
	return nil, nil
}
func (fakeTeamRepo) AddMember(ctx context.Context, tenantID, teamID, memberID string) (*teamModel.Team, error) {
	return nil, kgerrors.New(kgerrors.NotFound, "not found")
}

type fakeInterviewerRepo struct{}

func (fakeInterviewerRepo) Create(ctx context.Context, i *interviewerModel.Interviewer) error {
	return nil
}
func (fakeInterviewerRepo) GetByID(ctx context.Context, tenantID, interviewerID string) (*interviewerModel.Interviewer, error) {
	return nil, kgerrors.New(kgerrors.NotFound, "not found")
}
func (fakeInterviewerRepo) Update(ctx context.Context, tenantID, interviewerID string, patch interviewerModel.Patch) (*interviewerModel.Interviewer, error) {
	return nil, kgerrors.New(kgerrors.NotFound, "not found")
}
func (fakeInterviewerRepo) List(ctx context.Context, tenantID string) ([]*interviewerModel.Interviewer, error) {
	return nil, nil
}
func (fakeInterviewerRepo) ListByTeam(ctx context.Context, tenantID, teamID string) ([]*interviewerModel.Interviewer, error) {
	return nil, nil
}
func (fakeInterviewerRepo) AppendInterview(ctx context.Context, tenantID, interviewerID string, record interviewerModel.InterviewRecord) error {
	return nil
}
func (fakeInterviewerRepo) SetTeam(ctx context.Context, tenantID, interviewerID, teamID string) (*interviewerModel.Interviewer, error) {
	return nil, kgerrors.New(kgerrors.NotFound, "not found")
}

type fakePositionRepo struct {
	position *positionModel.Position
}

func (r *fakePositionRepo) Create(ctx context.Context, p *positionModel.Position) error { return nil }
func (r *fakePositionRepo) GetByID(ctx context.Context, tenantID, positionID string) (*positionModel.Position, error) {
	if r.position == nil || r.position.ID != positionID || r.position.TenantID != tenantID {
		return nil, positionModel.ErrPositionNotFound
	}
	return r.position, nil
}
func (r *fakePositionRepo) Update(ctx context.Context, tenantID, positionID string, patch positionModel.Patch) (*positionModel.Position, error) {
	return r.position, nil
}
func (r *fakePositionRepo) List(ctx context.Context, tenantID string) ([]*positionModel.Position, error) {
	return nil, nil
}

type neutralParser struct{ fail bool }

func (p neutralParser) ParseFeedback(ctx context.Context, text string) (llm.ParsedFeedback, error) {
	if p.fail {
		return llm.Neutral(), kgerrors.New(kgerrors.TransportError, "boom")
	}
	return llm.ParsedFeedback{Sentiment: llm.SentimentPositive, Reward: 0.9, Confidence: 0.8}, nil
}

func newTestLoop(t *testing.T, position *positionModel.Position, parser llm.FeedbackParser) (*Loop, *kgservice.KnowledgeGraph) {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)

	kg := kgservice.New(fakeEmbedder{}, fakeVectorIndexAdapter{}, fakeTeamRepo{}, fakeInterviewerRepo{}, &fakePositionRepo{position: position}, log)
	registry := bandit.NewRegistry(0.05, 4.0, rng.New(1))
	tracker := NewLearningTracker()
	return NewLoop(kg, registry, tracker, parser, log, time.Second), kg
}

func TestProcessFeedback_PositionNotFound(t *testing.T) {
	loop, _ := newTestLoop(t, nil, neutralParser{})
	result := loop.ProcessFeedback(context.Background(), "tenant-1", "cand-1", "missing-position", "great candidate")
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "not found")
}

func TestProcessFeedback_NoCandidateList(t *testing.T) {
	position := &positionModel.Position{ID: "pos-1", TenantID: "tenant-1"}
	loop, kg := newTestLoop(t, position, neutralParser{})
	_, _ = kg.AddCandidate(context.Background(), &candidateModel.Candidate{ID: "cand-1", TenantID: "tenant-1"})

	result := loop.ProcessFeedback(context.Background(), "tenant-1", "cand-1", "pos-1", "great candidate")
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "no candidate list")
}

func TestProcessFeedback_CandidateNotInList(t *testing.T) {
	position := &positionModel.Position{ID: "pos-1", TenantID: "tenant-1", SelectedCandidates: []string{"cand-2"}}
	loop, kg := newTestLoop(t, position, neutralParser{})
	_, _ = kg.AddCandidate(context.Background(), &candidateModel.Candidate{ID: "cand-1", TenantID: "tenant-1"})

	result := loop.ProcessFeedback(context.Background(), "tenant-1", "cand-1", "pos-1", "great candidate")
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "not in position candidate list")
}

func TestProcessFeedback_SuccessUpdatesBanditAndTracker(t *testing.T) {
	position := &positionModel.Position{ID: "pos-1", TenantID: "tenant-1", SelectedCandidates: []string{"cand-1", "cand-2"}}
	loop, kg := newTestLoop(t, position, neutralParser{})
	_, _ = kg.AddCandidate(context.Background(), &candidateModel.Candidate{ID: "cand-1", TenantID: "tenant-1"})
	_, _ = kg.AddCandidate(context.Background(), &candidateModel.Candidate{ID: "cand-2", TenantID: "tenant-1"})

	result := loop.ProcessFeedback(context.Background(), "tenant-1", "cand-1", "pos-1", "this candidate is excellent")
	require.True(t, result.Success)
	assert.Equal(t, 0.9, result.Reward)
	assert.Equal(t, 1, result.Metrics.TotalInteractions)

	updated, err := kg.GetCandidate(context.Background(), "tenant-1", "cand-1")
	require.NoError(t, err)
	require.Len(t, updated.FeedbackHistory, 1)
	assert.Equal(t, "pos-1", updated.FeedbackHistory[0].PositionID)
}

func TestProcessFeedback_LLMFailureDegradesToNeutralWithoutCrashing(t *testing.T) {
	position := &positionModel.Position{ID: "pos-1", TenantID: "tenant-1", SelectedCandidates: []string{"cand-1"}}
	loop, kg := newTestLoop(t, position, neutralParser{fail: true})
	_, _ = kg.AddCandidate(context.Background(), &candidateModel.Candidate{ID: "cand-1", TenantID: "tenant-1"})

	result := loop.ProcessFeedback(context.Background(), "tenant-1", "cand-1", "pos-1", "???")
	require.True(t, result.Success)
	assert.Equal(t, 0.5, result.Reward)
	assert.Equal(t, llm.SentimentNeutral, result.Sentiment)
}
