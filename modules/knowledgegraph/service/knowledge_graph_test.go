package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreypavlenko/talentgraph/internal/kgerrors"
	"github.com/andreypavlenko/talentgraph/internal/platform/logger"
	candidateModel "github.com/andreypavlenko/talentgraph/modules/candidates/model"
	interviewerModel "github.com/andreypavlenko/talentgraph/modules/interviewers/model"
	"github.com/andreypavlenko/talentgraph/modules/knowledgegraph/ports"
	positionModel "github.com/andreypavlenko/talentgraph/modules/positions/model"
	teamModel "github.com/andreypavlenko/talentgraph/modules/teams/model"
)

type memEmbedder struct{ failOnClass string }

func (e memEmbedder) Embed(class string, record json.RawMessage) ([]float32, error) {
	if class == e.failOnClass {
		return nil, kgerrors.New(kgerrors.TransportError, "embedding backend unavailable")
	}
	return []float32{1, 0, 0}, nil
}
func (e memEmbedder) Dim() int { return 3 }

type memVectorIndex struct {
	records     map[string]ports.VectorRecord
	upsertFails bool
}

func newMemVectorIndex() *memVectorIndex {
	return &memVectorIndex{records: make(map[string]ports.VectorRecord)}
}

func (v *memVectorIndex) key(class, profileID string) string { return class + ":" + profileID }

func (v *memVectorIndex) Upsert(ctx context.Context, class, profileID, tenantID string, vector []float32, metadata json.RawMessage) error {
	if v.upsertFails {
		return kgerrors.New(kgerrors.TransportError, "vector backend unavailable")
	}
	v.records[v.key(class, profileID)] = ports.VectorRecord{Class: class, ProfileID: profileID, TenantID: tenantID, Vector: vector, MetadataJSON: metadata}
	return nil
}
func (v *memVectorIndex) Replace(ctx context.Context, class, profileID, tenantID string, vector []float32, metadata json.RawMessage) error {
	return v.Upsert(ctx, class, profileID, tenantID, vector, metadata)
}
func (v *memVectorIndex) FetchByID(ctx context.Context, class, profileID string, withVector bool) (*ports.VectorRecord, error) {
	r, ok := v.records[v.key(class, profileID)]
	if !ok {
		return nil, kgerrors.New(kgerrors.NotFound, "vector not found")
	}
	return &r, nil
}
func (v *memVectorIndex) Search(ctx context.Context, class string, queryVector []float32, k int) ([]ports.SearchResult, error) {
	return nil, nil
}
func (v *memVectorIndex) Scan(ctx context.Context, class string, limit int) ([]ports.VectorRecord, error) {
	return nil, nil
}
func (v *memVectorIndex) Delete(ctx context.Context, class, profileID string) error {
	delete(v.records, v.key(class, profileID))
	return nil
}
func (v *memVectorIndex) SimilarAcrossTypes(ctx context.Context, class, profileID string, kPerClass int) (map[string][]ports.SearchResult, error) {
	return nil, nil
}

type memTeamRepo struct{ rows map[string]*teamModel.Team }

func newMemTeamRepo() *memTeamRepo { return &memTeamRepo{rows: make(map[string]*teamModel.Team)} }

func (r *memTeamRepo) Create(ctx context.Context, t *teamModel.Team) error {
	t.ID = uuid.New().String()
	r.rows[t.TenantID+":"+t.ID] = t
	return nil
}
func (r *memTeamRepo) GetByID(ctx context.Context, tenantID, teamID string) (*teamModel.Team, error) {
	t, ok := r.rows[tenantID+":"+teamID]
	if !ok {
		return nil, teamModel.ErrTeamNotFound
	}
	return t, nil
}
func (r *memTeamRepo) Update(ctx context.Context, tenantID, teamID string, patch teamModel.Patch) (*teamModel.Team, error) {
	t, err := r.GetByID(ctx, tenantID, teamID)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		t.Name = *patch.Name
	}
	return t, nil
}
func (r *memTeamRepo) Delete(ctx context.Context, tenantID, teamID string) error {
	delete(r.rows, tenantID+":"+teamID)
	return nil
}
func (r *memTeamRepo) List(ctx context.Context, tenantID string) ([]*teamModel.Team, error) {
	var out []*teamModel.Team
	for _, t := range r.rows {
		if t.TenantID == tenantID {
			out = append(out, t)
		}
	}
	return out, nil
}
func (r *memTeamRepo) AddMember(ctx context.Context, tenantID, teamID, memberID string) (*teamModel.Team, error) {
	t, err := r.GetByID(ctx, tenantID, teamID)
	if err != nil {
		return nil, err
	}
	t.MemberIDs = append(t.MemberIDs, memberID)
	return t, nil
}

type memInterviewerRepo struct{ rows map[string]*interviewerModel.Interviewer }

func newMemInterviewerRepo() *memInterviewerRepo {
	return &memInterviewerRepo{rows: make(map[string]*interviewerModel.Interviewer)}
}

func (r *memInterviewerRepo) Create(ctx context.Context, i *interviewerModel.Interviewer) error {
	i.ID = uuid.New().String()
	r.rows[i.TenantID+":"+i.ID] = i
	return nil
}
func (r *memInterviewerRepo) GetByID(ctx context.Context, tenantID, interviewerID string) (*interviewerModel.Interviewer, error) {
	i, ok := r.rows[tenantID+":"+interviewerID]
	if !ok {
		return nil, interviewerModel.ErrInterviewerNotFound
	}
	return i, nil
}
func (r *memInterviewerRepo) Update(ctx context.Context, tenantID, interviewerID string, patch interviewerModel.Patch) (*interviewerModel.Interviewer, error) {
	i, err := r.GetByID(ctx, tenantID, interviewerID)
	if err != nil {
		return nil, err
	}
	if patch.SuccessRate != nil {
		i.SuccessRate = *patch.SuccessRate
	}
	return i, nil
}
func (r *memInterviewerRepo) List(ctx context.Context, tenantID string) ([]*interviewerModel.Interviewer, error) {
	var out []*interviewerModel.Interviewer
	for _, i := range r.rows {
		if i.TenantID == tenantID {
			out = append(out, i)
		}
	}
	return out, nil
}
func (r *memInterviewerRepo) ListByTeam(ctx context.Context, tenantID, teamID string) ([]*interviewerModel.Interviewer, error) {
	var out []*interviewerModel.Interviewer
	for _, i := range r.rows {
		if i.TenantID == tenantID && i.TeamID != nil && *i.TeamID == teamID {
			out = append(out, i)
		}
	}
	return out, nil
}
func (r *memInterviewerRepo) AppendInterview(ctx context.Context, tenantID, interviewerID string, record interviewerModel.InterviewRecord) error {
	i, err := r.GetByID(ctx, tenantID, interviewerID)
	if err != nil {
		return err
	}
	i.InterviewHistory = append(i.InterviewHistory, record)
	return nil
}
func (r *memInterviewerRepo) SetTeam(ctx context.Context, tenantID, interviewerID, teamID string) (*interviewerModel.Interviewer, error) {
	i, err := r.GetByID(ctx, tenantID, interviewerID)
	if err != nil {
		return nil, err
	}
	i.TeamID = &teamID
	return i, nil
}

type memPositionRepo struct{ rows map[string]*positionModel.Position }

func newMemPositionRepo() *memPositionRepo {
	return &memPositionRepo{rows: make(map[string]*positionModel.Position)}
}

func (r *memPositionRepo) Create(ctx context.Context, p *positionModel.Position) error {
	p.ID = uuid.New().String()
	r.rows[p.TenantID+":"+p.ID] = p
	return nil
}
func (r *memPositionRepo) GetByID(ctx context.Context, tenantID, positionID string) (*positionModel.Position, error) {
	p, ok := r.rows[tenantID+":"+positionID]
	if !ok {
		return nil, positionModel.ErrPositionNotFound
	}
	return p, nil
}
func (r *memPositionRepo) Update(ctx context.Context, tenantID, positionID string, patch positionModel.Patch) (*positionModel.Position, error) {
	p, err := r.GetByID(ctx, tenantID, positionID)
	if err != nil {
		return nil, err
	}
	if patch.SelectedCandidates != nil {
		p.SelectedCandidates = patch.SelectedCandidates
	}
	return p, nil
}
func (r *memPositionRepo) List(ctx context.Context, tenantID string) ([]*positionModel.Position, error) {
	var out []*positionModel.Position
	for _, p := range r.rows {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	return out, nil
}

func newTestKnowledgeGraph(t *testing.T, embedder ports.EmbeddingAdapter, vectors ports.VectorIndex) *KnowledgeGraph {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	return New(embedder, vectors, newMemTeamRepo(), newMemInterviewerRepo(), newMemPositionRepo(), log)
}

func TestAddCandidate_AssignsIDAndStoresInMemory(t *testing.T) {
	kg := newTestKnowledgeGraph(t, memEmbedder{}, newMemVectorIndex())

	added, err := kg.AddCandidate(context.Background(), &candidateModel.Candidate{TenantID: "t1", Name: "Sam"})
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)

	fetched, err := kg.GetCandidate(context.Background(), "t1", added.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sam", fetched.Name)
}

func TestGetCandidate_TenantMismatchIsNotFound(t *testing.T) {
	kg := newTestKnowledgeGraph(t, memEmbedder{}, newMemVectorIndex())
	added, err := kg.AddCandidate(context.Background(), &candidateModel.Candidate{TenantID: "t1", Name: "Sam"})
	require.NoError(t, err)

	_, err = kg.GetCandidate(context.Background(), "t2", added.ID)
	require.Error(t, err)
	assert.Equal(t, kgerrors.NotFound, kgerrors.GetKind(err))
}

func TestUpdateCandidate_AppliesPatchAndReembeds(t *testing.T) {
	vectors := newMemVectorIndex()
	kg := newTestKnowledgeGraph(t, memEmbedder{}, vectors)
	added, err := kg.AddCandidate(context.Background(), &candidateModel.Candidate{TenantID: "t1", Name: "Sam", Skills: []string{"go"}})
	require.NoError(t, err)

	updated, err := kg.UpdateCandidate(context.Background(), "t1", added.ID, func(c *candidateModel.Candidate) {
		c.Skills = append(c.Skills, "kubernetes")
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "kubernetes"}, updated.Skills)

	rec, err := vectors.FetchByID(context.Background(), "candidate", added.ID, true)
	require.NoError(t, err)
	assert.NotNil(t, rec)
}

func TestAddCandidate_VectorUpsertFailureStillSucceeds(t *testing.T) {
	vectors := newMemVectorIndex()
	vectors.upsertFails = true
	kg := newTestKnowledgeGraph(t, memEmbedder{}, vectors)

	added, err := kg.AddCandidate(context.Background(), &candidateModel.Candidate{TenantID: "t1", Name: "Sam"})
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)

	_, err = vectors.FetchByID(context.Background(), "candidate", added.ID, true)
	assert.Error(t, err)
}

func TestAddCandidate_EmbeddingFailureStillSucceeds(t *testing.T) {
	kg := newTestKnowledgeGraph(t, memEmbedder{failOnClass: "candidate"}, newMemVectorIndex())

	added, err := kg.AddCandidate(context.Background(), &candidateModel.Candidate{TenantID: "t1", Name: "Sam"})
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)
}

func TestListCandidates_ScopedToTenant(t *testing.T) {
	kg := newTestKnowledgeGraph(t, memEmbedder{}, newMemVectorIndex())
	_, _ = kg.AddCandidate(context.Background(), &candidateModel.Candidate{TenantID: "t1", Name: "A"})
	_, _ = kg.AddCandidate(context.Background(), &candidateModel.Candidate{TenantID: "t2", Name: "B"})

	assert.Len(t, kg.ListCandidates("t1"), 1)
	assert.Len(t, kg.ListCandidates("t2"), 1)
}

func TestListCandidates_DoesNotLeakAcrossTenantIDPrefix(t *testing.T) {
	kg := newTestKnowledgeGraph(t, memEmbedder{}, newMemVectorIndex())
	_, _ = kg.AddCandidate(context.Background(), &candidateModel.Candidate{TenantID: "t1", Name: "A"})
	_, _ = kg.AddCandidate(context.Background(), &candidateModel.Candidate{TenantID: "t12", Name: "B"})

	assert.Len(t, kg.ListCandidates("t1"), 1)
	assert.Len(t, kg.ListCandidates("t12"), 1)
}

func TestLinkInterviewerToTeam_UpdatesBothSides(t *testing.T) {
	kg := newTestKnowledgeGraph(t, memEmbedder{}, newMemVectorIndex())
	team, err := kg.AddTeam(context.Background(), &teamModel.Team{TenantID: "t1", Name: "Infra"})
	require.NoError(t, err)
	interviewer, err := kg.AddInterviewer(context.Background(), &interviewerModel.Interviewer{TenantID: "t1"})
	require.NoError(t, err)

	require.NoError(t, kg.LinkInterviewerToTeam(context.Background(), "t1", interviewer.ID, team.ID))

	members, err := kg.GetTeamMembers(context.Background(), "t1", team.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, interviewer.ID, members[0].ID)
}

func TestGetTeamPositions_SkipsMissingWithoutFailing(t *testing.T) {
	kg := newTestKnowledgeGraph(t, memEmbedder{}, newMemVectorIndex())
	team, err := kg.AddTeam(context.Background(), &teamModel.Team{TenantID: "t1", Name: "Infra", OpenPositions: []string{"missing-position"}})
	require.NoError(t, err)

	positions, err := kg.GetTeamPositions(context.Background(), "t1", team.ID)
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestFetchVector_ReturnsStoredEmbedding(t *testing.T) {
	kg := newTestKnowledgeGraph(t, memEmbedder{}, newMemVectorIndex())
	added, err := kg.AddCandidate(context.Background(), &candidateModel.Candidate{TenantID: "t1", Name: "Sam"})
	require.NoError(t, err)

	vec, err := kg.FetchVector(context.Background(), "candidate", added.ID)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0}, vec)
}

func TestReconcile_ReembedsEveryRelationalRow(t *testing.T) {
	kg := newTestKnowledgeGraph(t, memEmbedder{}, newMemVectorIndex())
	_, err := kg.AddTeam(context.Background(), &teamModel.Team{TenantID: "t1", Name: "Infra"})
	require.NoError(t, err)
	_, err = kg.AddInterviewer(context.Background(), &interviewerModel.Interviewer{TenantID: "t1"})
	require.NoError(t, err)
	_, err = kg.AddPosition(context.Background(), &positionModel.Position{TenantID: "t1", Title: "Eng"})
	require.NoError(t, err)

	count, err := kg.Reconcile(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
