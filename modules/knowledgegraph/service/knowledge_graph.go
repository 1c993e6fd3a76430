// Package service implements the Component D knowledge graph: the single
// place that keeps the relational store (teams/interviewers/positions),
// the in-memory candidate records, and the vector index (B) in
// lockstep. Writes go relational-first, vector-best-effort (§5): a vector
// upsert failure is logged and the call still reports success, since the
// relational row (or in-memory record) is already durable and a
// reconciliation pass can repair the vector side later.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/andreypavlenko/talentgraph/internal/kgerrors"
	"github.com/andreypavlenko/talentgraph/internal/platform/logger"
	candidateModel "github.com/andreypavlenko/talentgraph/modules/candidates/model"
	interviewerModel "github.com/andreypavlenko/talentgraph/modules/interviewers/model"
	interviewerPorts "github.com/andreypavlenko/talentgraph/modules/interviewers/ports"
	"github.com/andreypavlenko/talentgraph/modules/knowledgegraph/ports"
	positionModel "github.com/andreypavlenko/talentgraph/modules/positions/model"
	positionPorts "github.com/andreypavlenko/talentgraph/modules/positions/ports"
	teamModel "github.com/andreypavlenko/talentgraph/modules/teams/model"
	teamPorts "github.com/andreypavlenko/talentgraph/modules/teams/ports"
)

const (
	classCandidate   = "candidate"
	classTeam        = "team"
	classInterviewer = "interviewer"
	classPosition    = "position"
)

// KnowledgeGraph is the Component D service.
type KnowledgeGraph struct {
	embedder ports.EmbeddingAdapter
	vectors  ports.VectorIndex

	teamRepo        teamPorts.TeamRepository
	interviewerRepo interviewerPorts.InterviewerRepository
	positionRepo    positionPorts.PositionRepository

	log *logger.Logger

	mu         sync.RWMutex
	candidates map[string]*candidateModel.Candidate // keyed "tenant_id:id"
}

func New(
	embedder ports.EmbeddingAdapter,
	vectors ports.VectorIndex,
	teamRepo teamPorts.TeamRepository,
	interviewerRepo interviewerPorts.InterviewerRepository,
	positionRepo positionPorts.PositionRepository,
	log *logger.Logger,
) *KnowledgeGraph {
	return &KnowledgeGraph{
		embedder:        embedder,
		vectors:         vectors,
		teamRepo:        teamRepo,
		interviewerRepo: interviewerRepo,
		positionRepo:    positionRepo,
		log:             log,
		candidates:      make(map[string]*candidateModel.Candidate),
	}
}

func candidateKey(tenantID, id string) string {
	return tenantID + ":" + id
}

func (kg *KnowledgeGraph) embedAndUpsert(ctx context.Context, class, id, tenantID string, record any) {
	blob, err := json.Marshal(record)
	if err != nil {
		kg.log.WithComponent("knowledge_graph").Sugar().Warnw("failed to marshal record for embedding", "class", class, "id", id, "error", err)
		return
	}
	vec, err := kg.embedder.Embed(class, blob)
	if err != nil {
		kg.log.WithComponent("knowledge_graph").Sugar().Warnw("failed to embed record", "class", class, "id", id, "error", err)
		return
	}
	if err := kg.vectors.Upsert(ctx, class, id, tenantID, vec, blob); err != nil {
		kg.log.WithComponent("knowledge_graph").WithErrorKind(string(kgerrors.GetKind(err))).Sugar().Warnw(
			"vector upsert failed; relational/in-memory write still succeeded, needs reconciliation", "class", class, "id", id,
		)
	}
}

func (kg *KnowledgeGraph) reembedAndReplace(ctx context.Context, class, id, tenantID string, record any) {
	blob, err := json.Marshal(record)
	if err != nil {
		kg.log.WithComponent("knowledge_graph").Sugar().Warnw("failed to marshal record for re-embedding", "class", class, "id", id, "error", err)
		return
	}
	vec, err := kg.embedder.Embed(class, blob)
	if err != nil {
		kg.log.WithComponent("knowledge_graph").Sugar().Warnw("failed to re-embed record", "class", class, "id", id, "error", err)
		return
	}
	if err := kg.vectors.Replace(ctx, class, id, tenantID, vec, blob); err != nil {
		kg.log.WithComponent("knowledge_graph").WithErrorKind(string(kgerrors.GetKind(err))).Sugar().Warnw(
			"vector replace failed; relational/in-memory write still succeeded, needs reconciliation", "class", class, "id", id,
		)
	}
}

// --- Candidate ---------------------------------------------------------

// AddCandidate embeds and stores a candidate. Candidates have no
// relational table: the in-memory map is the source of truth, matching
// §4.D's "for candidate... stores full record in-memory" rule.
func (kg *KnowledgeGraph) AddCandidate(ctx context.Context, c *candidateModel.Candidate) (*candidateModel.Candidate, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	kg.mu.Lock()
	kg.candidates[candidateKey(c.TenantID, c.ID)] = c
	kg.mu.Unlock()

	kg.embedAndUpsert(ctx, classCandidate, c.ID, c.TenantID, c)
	return c, nil
}

// GetCandidate reads the in-memory record, tenant-scoped.
func (kg *KnowledgeGraph) GetCandidate(ctx context.Context, tenantID, id string) (*candidateModel.Candidate, error) {
	kg.mu.RLock()
	defer kg.mu.RUnlock()
	c, ok := kg.candidates[candidateKey(tenantID, id)]
	if !ok {
		return nil, kgerrors.New(kgerrors.NotFound, "candidate not found")
	}
	return c, nil
}

// CandidatePatch is a function-style patch applied under the knowledge
// graph's lock before re-embedding, mirroring the "merge patch, re-embed on
// every update" policy from §4.D.
type CandidatePatch func(*candidateModel.Candidate)

func (kg *KnowledgeGraph) UpdateCandidate(ctx context.Context, tenantID, id string, patch CandidatePatch) (*candidateModel.Candidate, error) {
	kg.mu.Lock()
	c, ok := kg.candidates[candidateKey(tenantID, id)]
	if !ok {
		kg.mu.Unlock()
		return nil, kgerrors.New(kgerrors.NotFound, "candidate not found")
	}
	patch(c)
	c.UpdatedAt = time.Now().UTC()
	kg.mu.Unlock()

	kg.reembedAndReplace(ctx, classCandidate, id, tenantID, c)
	return c, nil
}

// ListCandidates returns all candidates for a tenant, insertion order not
// guaranteed (map-backed); callers that need a stable order should sort.
func (kg *KnowledgeGraph) ListCandidates(tenantID string) []*candidateModel.Candidate {
	kg.mu.RLock()
	defer kg.mu.RUnlock()
	prefix := tenantID + ":"
	var out []*candidateModel.Candidate
	for key, c := range kg.candidates {
		if strings.HasPrefix(key, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// --- Team ----------------------------------------------------------------

func (kg *KnowledgeGraph) AddTeam(ctx context.Context, t *teamModel.Team) (*teamModel.Team, error) {
	if err := kg.teamRepo.Create(ctx, t); err != nil {
		return nil, kgerrors.Wrap(kgerrors.TransportError, "failed to create team", err)
	}
	kg.embedAndUpsert(ctx, classTeam, t.ID, t.TenantID, t)
	return t, nil
}

func (kg *KnowledgeGraph) GetTeam(ctx context.Context, tenantID, id string) (*teamModel.Team, error) {
	t, err := kg.teamRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, mapNotFound(err, teamModel.ErrTeamNotFound)
	}
	return t, nil
}

func (kg *KnowledgeGraph) UpdateTeam(ctx context.Context, tenantID, id string, patch teamModel.Patch) (*teamModel.Team, error) {
	t, err := kg.teamRepo.Update(ctx, tenantID, id, patch)
	if err != nil {
		return nil, mapNotFound(err, teamModel.ErrTeamNotFound)
	}
	kg.reembedAndReplace(ctx, classTeam, id, tenantID, t)
	return t, nil
}

// --- Interviewer -----------------------------------------------------------

func (kg *KnowledgeGraph) AddInterviewer(ctx context.Context, i *interviewerModel.Interviewer) (*interviewerModel.Interviewer, error) {
	if err := kg.interviewerRepo.Create(ctx, i); err != nil {
		return nil, kgerrors.Wrap(kgerrors.TransportError, "failed to create interviewer", err)
	}
	kg.embedAndUpsert(ctx, classInterviewer, i.ID, i.TenantID, i)
	return i, nil
}

func (kg *KnowledgeGraph) GetInterviewer(ctx context.Context, tenantID, id string) (*interviewerModel.Interviewer, error) {
	i, err := kg.interviewerRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, mapNotFound(err, interviewerModel.ErrInterviewerNotFound)
	}
	return i, nil
}

func (kg *KnowledgeGraph) UpdateInterviewer(ctx context.Context, tenantID, id string, patch interviewerModel.Patch) (*interviewerModel.Interviewer, error) {
	i, err := kg.interviewerRepo.Update(ctx, tenantID, id, patch)
	if err != nil {
		return nil, mapNotFound(err, interviewerModel.ErrInterviewerNotFound)
	}
	kg.reembedAndReplace(ctx, classInterviewer, id, tenantID, i)
	return i, nil
}

// --- Position --------------------------------------------------------------

func (kg *KnowledgeGraph) AddPosition(ctx context.Context, p *positionModel.Position) (*positionModel.Position, error) {
	if err := kg.positionRepo.Create(ctx, p); err != nil {
		return nil, kgerrors.Wrap(kgerrors.TransportError, "failed to create position", err)
	}
	kg.embedAndUpsert(ctx, classPosition, p.ID, p.TenantID, p)
	return p, nil
}

func (kg *KnowledgeGraph) GetPosition(ctx context.Context, tenantID, id string) (*positionModel.Position, error) {
	p, err := kg.positionRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, mapNotFound(err, positionModel.ErrPositionNotFound)
	}
	return p, nil
}

func (kg *KnowledgeGraph) UpdatePosition(ctx context.Context, tenantID, id string, patch positionModel.Patch) (*positionModel.Position, error) {
	p, err := kg.positionRepo.Update(ctx, tenantID, id, patch)
	if err != nil {
		return nil, mapNotFound(err, positionModel.ErrPositionNotFound)
	}
	kg.reembedAndReplace(ctx, classPosition, id, tenantID, p)
	return p, nil
}

// --- Relationships -----------------------------------------------------------

// LinkInterviewerToTeam atomically sets interviewer.team_id, adds the
// interviewer to team.member_ids, and re-embeds both. Idempotent: repeated
// identical calls converge to the same state.
func (kg *KnowledgeGraph) LinkInterviewerToTeam(ctx context.Context, tenantID, interviewerID, teamID string) error {
	team, err := kg.teamRepo.AddMember(ctx, tenantID, teamID, interviewerID)
	if err != nil {
		return mapNotFound(err, teamModel.ErrTeamNotFound)
	}
	interviewer, err := kg.interviewerRepo.SetTeam(ctx, tenantID, interviewerID, teamID)
	if err != nil {
		return mapNotFound(err, interviewerModel.ErrInterviewerNotFound)
	}

	kg.reembedAndReplace(ctx, classTeam, team.ID, tenantID, team)
	kg.reembedAndReplace(ctx, classInterviewer, interviewer.ID, tenantID, interviewer)
	return nil
}

// FetchVector returns the stored embedding for a class/profileID pair, for
// callers (matching, the demo wiring) that need the raw
// vector rather than the record it was derived from.
func (kg *KnowledgeGraph) FetchVector(ctx context.Context, class, profileID string) ([]float32, error) {
	record, err := kg.vectors.FetchByID(ctx, class, profileID, true)
	if err != nil {
		return nil, err
	}
	return record.Vector, nil
}

func (kg *KnowledgeGraph) GetTeamMembers(ctx context.Context, tenantID, teamID string) ([]*interviewerModel.Interviewer, error) {
	return kg.interviewerRepo.ListByTeam(ctx, tenantID, teamID)
}

func (kg *KnowledgeGraph) GetTeamPositions(ctx context.Context, tenantID, teamID string) ([]*positionModel.Position, error) {
	team, err := kg.GetTeam(ctx, tenantID, teamID)
	if err != nil {
		return nil, err
	}
	var out []*positionModel.Position
	for _, posID := range team.OpenPositions {
		p, err := kg.GetPosition(ctx, tenantID, posID)
		if err != nil {
			if kgerrors.Is(err, kgerrors.NotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Reconcile walks every relational row for team/interviewer/position and
// every in-memory candidate of the tenant, re-embeds each, and idempotently
// re-upserts into the vector index. This is
// the offline invariant-restoration job referenced by §5: it never runs on
// the request path, only as explicit maintenance.
func (kg *KnowledgeGraph) Reconcile(ctx context.Context, tenantID string) (reconciled int, err error) {
	teams, err := kg.teamRepo.List(ctx, tenantID)
	if err != nil {
		return 0, kgerrors.Wrap(kgerrors.TransportError, "reconcile: list teams failed", err)
	}
	for _, t := range teams {
		kg.reembedAndReplace(ctx, classTeam, t.ID, tenantID, t)
		reconciled++
	}

	interviewers, err := kg.interviewerRepo.List(ctx, tenantID)
	if err != nil {
		return reconciled, kgerrors.Wrap(kgerrors.TransportError, "reconcile: list interviewers failed", err)
	}
	for _, i := range interviewers {
		kg.reembedAndReplace(ctx, classInterviewer, i.ID, tenantID, i)
		reconciled++
	}

	positions, err := kg.positionRepo.List(ctx, tenantID)
	if err != nil {
		return reconciled, kgerrors.Wrap(kgerrors.TransportError, "reconcile: list positions failed", err)
	}
	for _, p := range positions {
		kg.reembedAndReplace(ctx, classPosition, p.ID, tenantID, p)
		reconciled++
	}

	for _, c := range kg.ListCandidates(tenantID) {
		kg.reembedAndReplace(ctx, classCandidate, c.ID, tenantID, c)
		reconciled++
	}

	return reconciled, nil
}

func mapNotFound(err, sentinel error) error {
	if err == sentinel {
		return kgerrors.New(kgerrors.NotFound, fmt.Sprintf("%v", sentinel))
	}
	return kgerrors.Wrap(kgerrors.TransportError, "relational store call failed", err)
}
