// Package matching implements Component H: team/interviewer matching, the
// exceptional-talent scorer, and the phone-screen decision engine.
package matching

import (
	"math"
	"strings"

	candidateModel "github.com/andreypavlenko/talentgraph/modules/candidates/model"
)

// cosineSimilarity assumes both vectors are already unit-norm (the
// embedding adapter's contract), so dot product is cosine similarity.
func cosineSimilarity(a, b []float32) float64 {
	var dot float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// setContainsFold reports whether value is present in set, case-insensitively.
func setContainsFold(set []string, value string) bool {
	for _, s := range set {
		if strings.EqualFold(s, value) {
			return true
		}
	}
	return false
}

// intersectionOverB returns |a ∩ b| / |b|, or 0.5 if b is empty (no
// requirement to compare against).
func intersectionOverB(a, b []string) float64 {
	if len(b) == 0 {
		return 0.5
	}
	var matched int
	for _, v := range b {
		if setContainsFold(a, v) {
			matched++
		}
	}
	return float64(matched) / float64(len(b))
}

func clip01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// arxivBoost implements §4.H's piecewise research-signal boost used by the
// team/interviewer matchers (distinct from the exceptional-talent scorer's
// logarithmic arxiv_signal).
func arxivBoost(c *candidateModel.Candidate) float64 {
	hasResearchSignal := len(c.Papers) > 0 || c.ArxivAuthorID != "" || c.OrcidID != ""
	if !hasResearchSignal {
		return 0
	}

	boost := 0.3
	n := len(c.Papers)
	switch {
	case n >= 20:
		boost += 0.4
	case n >= 10:
		boost += 0.3
	case n >= 5:
		boost += 0.2
	case n >= 1:
		boost += 0.1
	}

	if len(c.ResearchContributions) > 0 {
		boost += 0.2
	}
	if len(c.ResearchAreas) > 0 {
		boost += 0.1
	}

	return math.Min(boost, 1.0)
}
