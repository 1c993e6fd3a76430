package matching

import (
	"fmt"
	"math"
	"sort"
	"strings"

	candidateModel "github.com/andreypavlenko/talentgraph/modules/candidates/model"
	positionModel "github.com/andreypavlenko/talentgraph/modules/positions/model"
)

// Exceptional-talent thresholds (§4.H / §9 "exceptional_thresholds").
const (
	arxivMinPapers         = 25
	arxivMaxPapers         = 100
	arxivMinContributions  = 5
	arxivMinAreasForFull   = 5

	githubMinStars   = 20000
	githubMaxStars   = 200000
	githubMinRepos   = 30
	githubReposFull  = 50
	githubMinLanguages = 5

	xMinFollowers       = 50000
	xMaxFollowers       = 2000000
	xMinEngagementRate  = 0.08
	xEngagementFull     = 0.10

	phoneMinTechnicalDepth = 0.92
	phoneMaxTechnicalDepth = 0.99
	phoneMinProblemSolving = 0.90
	phoneMinCommunication  = 0.90
	phoneImplementationMin = 0.85

	strongSignalThreshold = 0.75
	weakSignalThreshold   = 0.4
)

// SignalBreakdown is the four core signals plus the cross-platform
// composite, each in [0, 1].
type SignalBreakdown struct {
	Arxiv      float64
	GitHub     float64
	X          float64
	PhoneScreen float64
	Composite  float64
}

// Evidence carries the raw counts behind a score, for display.
type Evidence struct {
	ArxivPapers                int
	GithubStars                int
	XFollowers                 int
	PhoneScreenTechnicalDepth  *float64
}

// PositionFitBreakdown is the weighted components of §4.H's position_fit.
type PositionFitBreakdown struct {
	Similarity           float64
	SkillsMatch          float64
	RequiredSkillsMatch  float64
	OptionalSkillsMatch  float64
	DomainMatch          float64
	LevelMatch           float64
}

// ExceptionalScore is the full result of ScoreCandidate.
type ExceptionalScore struct {
	CandidateID          string
	ExceptionalScore     float64
	Signals              SignalBreakdown
	Evidence             Evidence
	WhyExceptional       string
	PositionID           string
	PositionFit          *float64
	PositionFitBreakdown *PositionFitBreakdown
	CombinedScore        float64
}

// ScoreCandidate computes the exceptional-talent score, and — when position
// is non-nil — the position-fit and multiplicatively combined score.
func ScoreCandidate(c *candidateModel.Candidate, candidateVec []float32, position *positionModel.Position, positionVec []float32) ExceptionalScore {
	arxiv := arxivSignal(c)
	github := githubSignal(c)
	x := xSignal(c)
	phone := phoneScreenSignal(c)
	composite := compositeSignal(arxiv, github, x, phone)

	base := 0.30*arxiv + 0.25*github + 0.15*x + 0.20*phone + 0.10*composite

	strongCount := 0
	weakCount := 0
	for _, s := range []float64{arxiv, github, x, phone} {
		if s >= strongSignalThreshold {
			strongCount++
		}
		if s < weakSignalThreshold {
			weakCount++
		}
	}

	score := base
	switch strongCount {
	case 4:
		// no penalty
	case 3:
		score *= 0.8
	default:
		score *= 0.3
	}
	if weakCount > 0 {
		score *= 0.5
	}
	if arxiv < 0.5 || github < 0.5 {
		score *= 0.6
	}

	result := ExceptionalScore{
		CandidateID:      c.ID,
		ExceptionalScore: score,
		Signals: SignalBreakdown{
			Arxiv: arxiv, GitHub: github, X: x, PhoneScreen: phone, Composite: composite,
		},
		Evidence:       buildEvidence(c),
		WhyExceptional: buildWhyExceptional(score, arxiv, github, x, phone, c),
		CombinedScore:  score,
	}

	if position != nil {
		fit := positionFit(c, candidateVec, position, positionVec)
		combined := score * fit.fitScore
		if score < 0.85 || fit.fitScore < 0.85 {
			combined *= 0.7
		}
		result.PositionID = position.ID
		pf := fit.fitScore
		result.PositionFit = &pf
		result.PositionFitBreakdown = &fit.breakdown
		result.CombinedScore = combined
	}

	return result
}

// FindExceptionalTalent scores every candidate in the tenant's candidate
// set (§6 find_exceptional_talent), keeps the ones whose combined score
// clears minScore, and returns them ranked descending by combined score,
// truncated to topK. position/positionVec may be nil, in which case
// CombinedScore falls back to the plain exceptional-talent score, exactly
// as ScoreCandidate does for a candidate scored without a position.
func FindExceptionalTalent(candidates []*candidateModel.Candidate, candidateVectors map[string][]float32, position *positionModel.Position, positionVec []float32, minScore float64, topK int) []ExceptionalScore {
	scored := make([]ExceptionalScore, 0, len(candidates))
	for _, c := range candidates {
		score := ScoreCandidate(c, candidateVectors[c.ID], position, positionVec)
		if score.CombinedScore >= minScore {
			scored = append(scored, score)
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].CombinedScore > scored[j].CombinedScore
	})

	if topK >= 0 && len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}

func arxivSignal(c *candidateModel.Candidate) float64 {
	paperCount := len(c.Papers)
	if paperCount == 0 {
		return 0
	}

	var paperSignal float64
	if paperCount < arxivMinPapers {
		paperSignal = 0
	} else {
		paperSignal = math.Min(1.0, math.Log(float64(paperCount)/arxivMinPapers+1)/math.Log(float64(arxivMaxPapers)/arxivMinPapers+1))
	}

	contributionsSignal := math.Min(1.0, float64(len(c.ResearchContributions))/arxivMinContributions)
	areasSignal := math.Min(1.0, float64(len(c.ResearchAreas))/arxivMinAreasForFull)

	return math.Min(1.0, paperSignal*0.50+contributionsSignal*0.30+areasSignal*0.20)
}

func githubSignal(c *candidateModel.Candidate) float64 {
	stars := c.GitHubStats.TotalStars
	repos := c.GitHubStats.TotalRepos
	if stars == 0 && repos == 0 {
		return 0
	}

	var starsSignal float64
	if stars < githubMinStars {
		starsSignal = 0
	} else {
		starsSignal = math.Min(1.0, math.Log(float64(stars)/githubMinStars+1)/math.Log(float64(githubMaxStars)/githubMinStars+1))
	}

	var reposSignal float64
	if repos < githubMinRepos {
		reposSignal = 0
	} else {
		reposSignal = math.Min(1.0, float64(repos)/githubReposFull)
	}

	languagesSignal := math.Min(1.0, float64(len(c.GitHubStats.Languages))/githubMinLanguages)

	return math.Min(1.0, starsSignal*0.60+reposSignal*0.25+languagesSignal*0.15)
}

func xSignal(c *candidateModel.Candidate) float64 {
	followers := c.XAnalytics.FollowersCount
	if followers == 0 {
		return 0
	}

	var followersSignal float64
	if followers < xMinFollowers {
		followersSignal = 0
	} else {
		followersSignal = math.Min(1.0, math.Log(float64(followers)/xMinFollowers+1)/math.Log(float64(xMaxFollowers)/xMinFollowers+1))
	}

	var engagementSignal float64
	if c.XAnalytics.AvgEngagementRate < xMinEngagementRate {
		engagementSignal = 0
	} else {
		engagementSignal = math.Min(1.0, c.XAnalytics.AvgEngagementRate/xEngagementFull)
	}

	contentSignal := math.Max(0.0, (c.XAnalytics.ContentQualityScore-0.5)*2.0)

	return math.Min(1.0, followersSignal*0.50+engagementSignal*0.30+contentSignal*0.20)
}

func phoneScreenSignal(c *candidateModel.Candidate) float64 {
	if c.PhoneScreenResults == nil {
		return 0
	}
	r := c.PhoneScreenResults

	var depthSignal float64
	if r.TechnicalDepth < phoneMinTechnicalDepth {
		depthSignal = 0
	} else {
		depthSignal = clip01((r.TechnicalDepth - phoneMinTechnicalDepth) / (phoneMaxTechnicalDepth - phoneMinTechnicalDepth))
	}

	problemSignal := math.Max(0.0, (r.ProblemSolving-phoneMinProblemSolving)/(1.0-phoneMinProblemSolving))
	commSignal := math.Max(0.0, (r.Communication-phoneMinCommunication)/(1.0-phoneMinCommunication))
	implSignal := math.Max(0.0, r.Implementation-phoneImplementationMin) / (1.0 - phoneImplementationMin)

	return math.Min(1.0, depthSignal*0.40+problemSignal*0.25+commSignal*0.20+implSignal*0.15)
}

func compositeSignal(arxiv, github, x, phone float64) float64 {
	researchProduction := 0.0
	if arxiv > 0.5 && github > 0.5 {
		researchProduction = (arxiv + github) / 2.0
	}
	crossInfluence := 0.0
	if x > 0.5 && github > 0.5 {
		crossInfluence = (x + github) / 2.0
	}
	technicalValidation := 0.0
	if phone > 0.5 && arxiv > 0.5 {
		technicalValidation = (phone + arxiv) / 2.0
	}

	strongCount := 0
	for _, s := range []float64{arxiv, github, x, phone} {
		if s > 0.8 {
			strongCount++
		}
	}
	allPlatform := 0.0
	if strongCount >= 4 {
		allPlatform = 1.0
	}

	return math.Min(1.0, researchProduction*0.30+crossInfluence*0.25+technicalValidation*0.25+allPlatform*0.20)
}

func buildEvidence(c *candidateModel.Candidate) Evidence {
	e := Evidence{
		ArxivPapers:  len(c.Papers),
		GithubStars:  c.GitHubStats.TotalStars,
		XFollowers:   c.XAnalytics.FollowersCount,
	}
	if c.PhoneScreenResults != nil {
		depth := c.PhoneScreenResults.TechnicalDepth
		e.PhoneScreenTechnicalDepth = &depth
	}
	return e
}

func buildWhyExceptional(score, arxiv, github, x, phone float64, c *candidateModel.Candidate) string {
	var reasons []string
	if arxiv > 0.7 {
		reasons = append(reasons, fmt.Sprintf("strong research background (%d papers)", len(c.Papers)))
	}
	if github > 0.7 {
		reasons = append(reasons, fmt.Sprintf("high GitHub activity (%d stars)", c.GitHubStats.TotalStars))
	}
	if x > 0.7 {
		reasons = append(reasons, fmt.Sprintf("significant X influence (%d followers)", c.XAnalytics.FollowersCount))
	}
	if phone > 0.7 {
		reasons = append(reasons, "validated technical depth in phone screen")
	}
	if len(reasons) == 0 {
		return fmt.Sprintf("exceptional score: %.2f (multiple moderate signals)", score)
	}
	return strings.Join(reasons, ", ")
}

type positionFitResult struct {
	fitScore  float64
	breakdown PositionFitBreakdown
}

func positionFit(c *candidateModel.Candidate, candidateVec []float32, p *positionModel.Position, positionVec []float32) positionFitResult {
	similarity := cosineSimilarity(candidateVec, positionVec)

	requiredMatch := intersectionOverBExact(c.Skills, p.RequiredSkills)
	optionalMatch := 1.0
	if len(p.OptionalSkills) > 0 {
		optionalMatch = intersectionOverBExact(c.Skills, p.OptionalSkills)
	}
	skillsMatch := requiredMatch*0.7 + optionalMatch*0.3

	domainMatch := 0.5
	if len(p.Domains) > 0 {
		domainMatch = intersectionOverBExact(c.Domains, p.Domains)
	}

	levelMatch := experienceLevelMatch(p.ExperienceLevel, c.ExperienceYears)

	fit := similarity*0.40 + skillsMatch*0.30 + domainMatch*0.20 + levelMatch*0.10

	return positionFitResult{
		fitScore: clip01(fit),
		breakdown: PositionFitBreakdown{
			Similarity:          similarity,
			SkillsMatch:         skillsMatch,
			RequiredSkillsMatch: requiredMatch,
			OptionalSkillsMatch: optionalMatch,
			DomainMatch:         domainMatch,
			LevelMatch:          levelMatch,
		},
	}
}

// intersectionOverBExact mirrors the original's set-intersection semantics
// (exact membership, not substring), used only for the position-fit
// calculation: |a ∩ b| / max(1, |b|).
func intersectionOverBExact(a, b []string) float64 {
	if len(b) == 0 {
		return 0
	}
	var matched int
	for _, v := range b {
		if setContainsFold(a, v) {
			matched++
		}
	}
	return float64(matched) / float64(len(b))
}

func experienceLevelMatch(level candidateModel.ExpertiseLevel, candidateYears float64) float64 {
	switch level {
	case candidateModel.Junior:
		if candidateYears > 5 {
			return 0.7
		}
	case candidateModel.Senior:
		if candidateYears < 5 {
			return 0.6
		}
	case candidateModel.Staff:
		if candidateYears < 10 {
			return 0.5
		}
	case candidateModel.Principal:
		if candidateYears < 15 {
			return 0.6
		}
	}
	return 1.0
}
