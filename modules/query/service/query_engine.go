// Package service implements the Component F query engine: boolean,
// range, and cluster filters over an in-memory candidate set, plus a
// hybrid filter+similarity mode with a hard timeout fallback to
// filter-only results.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/andreypavlenko/talentgraph/internal/platform/logger"
	candidateModel "github.com/andreypavlenko/talentgraph/modules/candidates/model"
	"github.com/andreypavlenko/talentgraph/modules/knowledgegraph/ports"
)

// SkillFilter is the required/optional/excluded skill clause, all
// case-insensitive substring matches.
type SkillFilter struct {
	Required []string
	Optional []string
	Excluded []string
}

// DomainFilter mirrors SkillFilter for domains.
type DomainFilter struct {
	Required []string
	Excluded []string
}

// RangeFilter bounds an integer metric; Max of 0 means unbounded.
type RangeFilter struct {
	Min int
	Max int
}

// Filters is the composable, AND-joined filter language of §4.F. Zero
// values mean "no constraint" for that dimension.
type Filters struct {
	Skills          *SkillFilter
	Domains         *DomainFilter
	ArxivPapersMin  int
	GithubStarsMin  int
	ExperienceYears *RangeFilter
	AbilityCluster  string
}

// Result is one ranked candidate, with SimilarityScore populated only for
// hybrid queries.
type Result struct {
	Candidate       *candidateModel.Candidate
	SimilarityScore float64
}

// Engine is the Component F service.
type Engine struct {
	embedder       ports.EmbeddingAdapter
	vectors        ports.VectorIndex
	hybridDeadline time.Duration
	cache          FilterCache
	log            *logger.Logger
}

// New builds an Engine with no filter cache; every QueryCandidates call
// recomputes the filtered set live. Use WithCache to front it with Redis.
func New(embedder ports.EmbeddingAdapter, vectors ports.VectorIndex, hybridDeadline time.Duration, log *logger.Logger) *Engine {
	return &Engine{embedder: embedder, vectors: vectors, hybridDeadline: hybridDeadline, cache: noopFilterCache{}, log: log}
}

// WithCache attaches a FilterCache to the engine, returning the same
// instance for chaining at construction time.
func (e *Engine) WithCache(cache FilterCache) *Engine {
	if cache != nil {
		e.cache = cache
	}
	return e
}

// QueryCandidates applies Filters to candidates, then, if similarityQuery
// is non-empty, re-ranks the survivors by hybrid vector similarity. The
// hybrid path never fails the caller: any timeout, transport error, or
// empty vector result falls back to the filtered set truncated to topK.
// The filtered-candidate-id set for (tenantID, filters) is cached for a
// short TTL; a cache miss or a disabled cache both just re-filter.
func (e *Engine) QueryCandidates(ctx context.Context, tenantID string, candidates []*candidateModel.Candidate, filters Filters, similarityQuery string, topK int) []Result {
	filtered := e.filterWithCache(ctx, tenantID, candidates, filters)

	if similarityQuery == "" {
		return toResults(truncate(filtered, topK))
	}

	return e.combineWithSimilarity(ctx, filtered, similarityQuery, topK)
}

func (e *Engine) filterWithCache(ctx context.Context, tenantID string, candidates []*candidateModel.Candidate, f Filters) []*candidateModel.Candidate {
	hash := hashFilters(f)
	if ids, hit := e.cache.Get(ctx, tenantID, hash); hit {
		byID := make(map[string]*candidateModel.Candidate, len(candidates))
		for _, c := range candidates {
			byID[c.ID] = c
		}
		filtered := make([]*candidateModel.Candidate, 0, len(ids))
		for _, id := range ids {
			if c, ok := byID[id]; ok {
				filtered = append(filtered, c)
			}
		}
		return filtered
	}

	filtered := applyFilters(candidates, f)
	ids := make([]string, len(filtered))
	for i, c := range filtered {
		ids[i] = c.ID
	}
	e.cache.Set(ctx, tenantID, hash, ids)
	return filtered
}

func applyFilters(candidates []*candidateModel.Candidate, f Filters) []*candidateModel.Candidate {
	out := make([]*candidateModel.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !matchesFilters(c, f) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func matchesFilters(c *candidateModel.Candidate, f Filters) bool {
	if f.Skills != nil {
		if !matchesSkills(c.Skills, *f.Skills) {
			return false
		}
	}
	if f.Domains != nil {
		if !matchesDomains(c.Domains, *f.Domains) {
			return false
		}
	}
	if f.ArxivPapersMin > 0 && len(c.Papers) < f.ArxivPapersMin {
		return false
	}
	if f.GithubStarsMin > 0 && c.GitHubStats.TotalStars < f.GithubStarsMin {
		return false
	}
	if f.ExperienceYears != nil {
		years := int(c.ExperienceYears)
		if years < f.ExperienceYears.Min {
			return false
		}
		if f.ExperienceYears.Max > 0 && years > f.ExperienceYears.Max {
			return false
		}
	}
	if f.AbilityCluster != "" {
		if c.AbilityCluster == nil || *c.AbilityCluster != f.AbilityCluster {
			return false
		}
	}
	return true
}

func matchesSkills(skills []string, f SkillFilter) bool {
	lower := lowerAll(skills)
	for _, req := range f.Required {
		if !anySubstring(lower, strings.ToLower(req)) {
			return false
		}
	}
	for _, exc := range f.Excluded {
		if anySubstring(lower, strings.ToLower(exc)) {
			return false
		}
	}
	if len(f.Optional) > 0 {
		found := false
		for _, opt := range f.Optional {
			if anySubstring(lower, strings.ToLower(opt)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func matchesDomains(domains []string, f DomainFilter) bool {
	lower := lowerAll(domains)
	for _, req := range f.Required {
		if !anySubstring(lower, strings.ToLower(req)) {
			return false
		}
	}
	for _, exc := range f.Excluded {
		if anySubstring(lower, strings.ToLower(exc)) {
			return false
		}
	}
	return true
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}

func anySubstring(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.Contains(h, needle) {
			return true
		}
	}
	return false
}

func truncate(candidates []*candidateModel.Candidate, topK int) []*candidateModel.Candidate {
	if topK > 0 && len(candidates) > topK {
		return candidates[:topK]
	}
	return candidates
}

func toResults(candidates []*candidateModel.Candidate) []Result {
	out := make([]Result, len(candidates))
	for i, c := range candidates {
		out[i] = Result{Candidate: c}
	}
	return out
}

// combineWithSimilarity dispatches the vector search on a cooperative
// goroutine bounded by e.hybridDeadline. The calling goroutine never
// blocks past that deadline regardless of what the vector index does.
func (e *Engine) combineWithSimilarity(ctx context.Context, filtered []*candidateModel.Candidate, queryText string, topK int) []Result {
	log := e.log.WithComponent("query_engine")

	queryVec, err := e.embedder.Embed("candidate", []byte(`{"skills":[],"experience":["`+queryText+`"],"domains":[]}`))
	if err != nil {
		log.Sugar().Warnw("failed to embed similarity query, falling back to filtered results", "error", err)
		return toResults(truncate(filtered, topK))
	}

	searchCtx, cancel := context.WithTimeout(ctx, e.hybridDeadline)
	defer cancel()

	k := topK * 2
	if k > 100 {
		k = 100
	}
	if k <= 0 {
		k = 100
	}

	type searchOutcome struct {
		results []ports.SearchResult
		err     error
	}
	done := make(chan searchOutcome, 1)
	go func() {
		results, err := e.vectors.Search(searchCtx, "candidate", queryVec, k)
		done <- searchOutcome{results: results, err: err}
	}()

	select {
	case <-searchCtx.Done():
		log.Sugar().Warnw("hybrid vector search deadline elapsed, falling back to filtered results")
		return toResults(truncate(filtered, topK))
	case outcome := <-done:
		if outcome.err != nil {
			log.Sugar().Warnw("hybrid vector search failed, falling back to filtered results", "error", outcome.err)
			return toResults(truncate(filtered, topK))
		}
		if len(outcome.results) == 0 {
			log.Sugar().Warnw("hybrid vector search returned no results, falling back to filtered results")
			return toResults(truncate(filtered, topK))
		}
		return mergeWithFiltered(filtered, outcome.results, topK)
	}
}

func mergeWithFiltered(filtered []*candidateModel.Candidate, searchResults []ports.SearchResult, topK int) []Result {
	byID := make(map[string]*candidateModel.Candidate, len(filtered))
	for _, c := range filtered {
		byID[c.ID] = c
	}

	var out []Result
	for _, r := range searchResults {
		c, ok := byID[r.ProfileID]
		if !ok {
			continue
		}
		out = append(out, Result{Candidate: c, SimilarityScore: r.Similarity})
	}

	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}
