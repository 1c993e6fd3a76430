package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreypavlenko/talentgraph/internal/kgerrors"
	"github.com/andreypavlenko/talentgraph/internal/platform/logger"
	candidateModel "github.com/andreypavlenko/talentgraph/modules/candidates/model"
	"github.com/andreypavlenko/talentgraph/modules/knowledgegraph/ports"
)

func newTestEngine(t *testing.T, vectors ports.VectorIndex) *Engine {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	return New(fakeQueryEmbedder{}, vectors, 3*time.Second, log)
}

type fakeQueryEmbedder struct{ err error }

func (f fakeQueryEmbedder) Embed(class string, record json.RawMessage) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0, 0}, nil
}
func (f fakeQueryEmbedder) Dim() int { return 3 }

type stubVectorIndex struct {
	results []ports.SearchResult
	err     error
}

func (s stubVectorIndex) Upsert(ctx context.Context, class, profileID, tenantID string, vector []float32, metadata json.RawMessage) error {
	return nil
}
func (s stubVectorIndex) Replace(ctx context.Context, class, profileID, tenantID string, vector []float32, metadata json.RawMessage) error {
	return nil
}
func (s stubVectorIndex) FetchByID(ctx context.Context, class, profileID string, withVector bool) (*ports.VectorRecord, error) {
	return nil, kgerrors.New(kgerrors.NotFound, "not found")
}
func (s stubVectorIndex) Search(ctx context.Context, class string, queryVector []float32, k int) ([]ports.SearchResult, error) {
	return s.results, s.err
}
func (s stubVectorIndex) Scan(ctx context.Context, class string, limit int) ([]ports.VectorRecord, error) {
	return nil, nil
}
func (s stubVectorIndex) Delete(ctx context.Context, class, profileID string) error { return nil }
func (s stubVectorIndex) SimilarAcrossTypes(ctx context.Context, class, profileID string, kPerClass int) (map[string][]ports.SearchResult, error) {
	return nil, nil
}

func candidate(id string, skills ...string) *candidateModel.Candidate {
	return &candidateModel.Candidate{ID: id, TenantID: "tenant-1", Name: id, Skills: skills}
}

func TestQueryCandidates_FiltersBySkill(t *testing.T) {
	engine := newTestEngine(t, stubVectorIndex{})
	candidates := []*candidateModel.Candidate{
		candidate("c1", "go", "kubernetes"),
		candidate("c2", "python"),
	}

	results := engine.QueryCandidates(context.Background(), "tenant-1", candidates, Filters{Skills: &SkillFilter{Required: []string{"go"}}}, "", 10)

	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].Candidate.ID)
}

func TestQueryCandidates_ExcludedSkillWins(t *testing.T) {
	engine := newTestEngine(t, stubVectorIndex{})
	candidates := []*candidateModel.Candidate{candidate("c1", "go", "legacy-cobol")}

	results := engine.QueryCandidates(context.Background(), "tenant-1", candidates, Filters{Skills: &SkillFilter{Excluded: []string{"cobol"}}}, "", 10)

	assert.Empty(t, results)
}

func TestQueryCandidates_FilterCacheHitSkipsRecompute(t *testing.T) {
	engine := newTestEngine(t, stubVectorIndex{})
	cache := newFakeFilterCache()
	engine.WithCache(cache)

	candidates := []*candidateModel.Candidate{candidate("c1", "go"), candidate("c2", "python")}
	filters := Filters{Skills: &SkillFilter{Required: []string{"go"}}}

	first := engine.QueryCandidates(context.Background(), "tenant-1", candidates, filters, "", 10)
	require.Len(t, first, 1)
	assert.Equal(t, 1, cache.sets)

	second := engine.QueryCandidates(context.Background(), "tenant-1", candidates, filters, "", 10)
	require.Len(t, second, 1)
	assert.Equal(t, "c1", second[0].Candidate.ID)
	assert.Equal(t, 1, cache.hits)
}

func TestQueryCandidates_HybridFallsBackOnVectorError(t *testing.T) {
	engine := newTestEngine(t, stubVectorIndex{err: assertErr})
	candidates := []*candidateModel.Candidate{candidate("c1", "go")}

	results := engine.QueryCandidates(context.Background(), "tenant-1", candidates, Filters{}, "strong go engineer", 10)

	require.Len(t, results, 1)
	assert.Equal(t, 0.0, results[0].SimilarityScore)
}

func TestQueryCandidates_HybridMergesSimilarityScores(t *testing.T) {
	engine := newTestEngine(t, stubVectorIndex{results: []ports.SearchResult{{ProfileID: "c1", Similarity: 0.42}}})
	candidates := []*candidateModel.Candidate{candidate("c1", "go"), candidate("c2", "go")}

	results := engine.QueryCandidates(context.Background(), "tenant-1", candidates, Filters{}, "strong go engineer", 10)

	require.Len(t, results, 1)
	assert.Equal(t, "c1", results[0].Candidate.ID)
	assert.Equal(t, 0.42, results[0].SimilarityScore)
}

var assertErr = kgerrors.New(kgerrors.TransportError, "search unavailable")

type fakeFilterCache struct {
	store map[string][]string
	hits  int
	sets  int
}

func newFakeFilterCache() *fakeFilterCache {
	return &fakeFilterCache{store: make(map[string][]string)}
}

func (c *fakeFilterCache) Get(ctx context.Context, tenantID, filterHash string) ([]string, bool) {
	ids, ok := c.store[tenantID+":"+filterHash]
	if ok {
		c.hits++
	}
	return ids, ok
}

func (c *fakeFilterCache) Set(ctx context.Context, tenantID, filterHash string, candidateIDs []string) {
	c.store[tenantID+":"+filterHash] = candidateIDs
	c.sets++
}
