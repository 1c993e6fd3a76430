package matching

import (
	"fmt"
	"math"
	"strings"

	"github.com/andreypavlenko/talentgraph/internal/rng"
	"github.com/andreypavlenko/talentgraph/modules/bandit"
	candidateModel "github.com/andreypavlenko/talentgraph/modules/candidates/model"
	positionModel "github.com/andreypavlenko/talentgraph/modules/positions/model"
)

const (
	outlierPenaltyPerFlag = 0.05
	outlierPenaltyCap     = 0.20

	fewSkillsThreshold = 3
	broadSkillsThreshold = 20
	experienceMismatchCriticalYears = 2.0
	skillsOverlapNonCriticalMin     = 0.5
)

// ExtractedInfo is caller-supplied phone-screen metadata; any absent field
// scores a neutral 0.5 and raises a flag rather than failing the call.
type ExtractedInfo struct {
	Motivation      *float64
	Communication   *float64
	TechnicalDepth  *float64
	CulturalFit     *float64
	ExperienceYears *float64
	ClaimedDomains  []string
}

// DecisionConfig holds the decision engine's configurable thresholds.
type DecisionConfig struct {
	SimilarityThreshold  float64
	ConfidenceThreshold  float64
	MustHaveStrictness   float64
	BanditWarmScale      float64
	BanditLambdaFG       float64
}

// DecisionBreakdown is the numeric contribution of each layer to the final
// score.
type DecisionBreakdown struct {
	Similarity      float64
	BanditConfidence float64
	Extracted       float64
	OutlierPenalty  float64
}

// Decision is the full phone-screen decision record.
type Decision struct {
	Decision          string // "pass" or "fail"
	Confidence        float64
	MustHaveMatch     bool
	MissingMustHaves  []string
	Breakdown         DecisionBreakdown
	Flags             []string
	Reasoning         string
}

// MakePhoneScreenDecision runs the layered decision pipeline of §4.H: must
// have gate, similarity gate, outlier detection, extracted-info scoring,
// bandit confidence, and the final weighted score.
func MakePhoneScreenDecision(
	c *candidateModel.Candidate,
	candidateVec []float32,
	p *positionModel.Position,
	positionVec []float32,
	extracted *ExtractedInfo,
	cfg DecisionConfig,
	source *rng.Source,
) Decision {
	missing := missingMustHaves(c, p, cfg.MustHaveStrictness)
	levelOK := c.ExpertiseLevel >= p.ExperienceLevel

	if len(missing) > 0 || !levelOK {
		return Decision{
			Decision:         "fail",
			Confidence:       0,
			MustHaveMatch:    false,
			MissingMustHaves: missing,
			Reasoning:        "failed must-have requirements",
		}
	}

	similarity := clip01(cosineSimilarity(candidateVec, positionVec))
	if similarity < cfg.SimilarityThreshold {
		return Decision{
			Decision:      "fail",
			Confidence:    0,
			MustHaveMatch: true,
			Breakdown:     DecisionBreakdown{Similarity: similarity},
			Reasoning:     fmt.Sprintf("similarity %.2f below threshold %.2f", similarity, cfg.SimilarityThreshold),
		}
	}

	var flags []string

	if c.ExpertiseLevel >= candidateModel.Senior && len(c.Skills) < fewSkillsThreshold {
		flags = append(flags, "senior experience claimed with very few skills")
	}
	if extracted != nil {
		for _, domain := range extracted.ClaimedDomains {
			if !c.HasDomain(domain) && intersectionOverB(c.Skills, []string{domain}) == 0 {
				flags = append(flags, fmt.Sprintf("claimed domain %q lacks supporting skills", domain))
			}
		}
		if extracted.ExperienceYears != nil {
			mismatch := math.Abs(*extracted.ExperienceYears - c.ExperienceYears)
			if mismatch > experienceMismatchCriticalYears {
				return Decision{
					Decision:      "fail",
					Confidence:    0,
					MustHaveMatch: true,
					Breakdown:     DecisionBreakdown{Similarity: similarity},
					Flags:         []string{"critical: extracted experience inconsistent with profile"},
					Reasoning:     "extracted-info validation failed: experience mismatch exceeds 2 years",
				}
			}
		}
	}
	if len(p.RequiredSkills) > 0 {
		overlap := intersectionOverB(c.Skills, p.RequiredSkills)
		if overlap < skillsOverlapNonCriticalMin {
			flags = append(flags, "skills overlap with required skills below 50%")
		}
	}
	if len(c.Skills) > broadSkillsThreshold && len(missingMustHaves(c, p, cfg.MustHaveStrictness)) == 0 {
		flags = append(flags, "unusually broad skill list matching all must-haves")
	}

	extractedScore, extractedFlags := scoreExtractedInfo(extracted)
	flags = append(flags, extractedFlags...)

	armIDs := []string{c.ID}
	b := bandit.NewWarmStarted(armIDs, []float64{similarity}, cfg.BanditWarmScale, cfg.BanditLambdaFG, source)
	banditConfidence := b.PosteriorMean(0)

	outlierPenalty := math.Min(float64(len(flags))*outlierPenaltyPerFlag, outlierPenaltyCap)

	finalScore := 0.40*similarity + 0.30*banditConfidence + 0.20*extractedScore - outlierPenalty
	finalScore = clip01(finalScore)

	decision := "fail"
	if finalScore >= cfg.ConfidenceThreshold {
		decision = "pass"
	}

	return Decision{
		Decision:      decision,
		Confidence:    finalScore,
		MustHaveMatch: true,
		Breakdown: DecisionBreakdown{
			Similarity:       similarity,
			BanditConfidence: banditConfidence,
			Extracted:        extractedScore,
			OutlierPenalty:   outlierPenalty,
		},
		Flags:     flags,
		Reasoning: buildDecisionReasoning(decision, finalScore, flags),
	}
}

func missingMustHaves(c *candidateModel.Candidate, p *positionModel.Position, strictness float64) []string {
	var missing []string
	for _, mh := range p.MustHaves {
		var present bool
		if strictness < 1.0 {
			present = anySubstringFold(c.Skills, mh)
		} else {
			present = c.HasSkill(mh)
		}
		if !present {
			missing = append(missing, mh)
		}
	}
	return missing
}

func anySubstringFold(skills []string, needle string) bool {
	lowerNeedle := strings.ToLower(needle)
	for _, s := range skills {
		if strings.Contains(strings.ToLower(s), lowerNeedle) {
			return true
		}
	}
	return false
}

func scoreExtractedInfo(extracted *ExtractedInfo) (float64, []string) {
	var flags []string
	motivation := neutralOrValue(extracted, func(e *ExtractedInfo) *float64 { return e.Motivation }, "motivation", &flags)
	communication := neutralOrValue(extracted, func(e *ExtractedInfo) *float64 { return e.Communication }, "communication", &flags)
	technicalDepth := neutralOrValue(extracted, func(e *ExtractedInfo) *float64 { return e.TechnicalDepth }, "technical depth", &flags)
	culturalFit := neutralOrValue(extracted, func(e *ExtractedInfo) *float64 { return e.CulturalFit }, "cultural fit", &flags)

	score := motivation*0.3 + communication*0.2 + technicalDepth*0.4 + culturalFit*0.1
	return clip01(score), flags
}

func neutralOrValue(extracted *ExtractedInfo, get func(*ExtractedInfo) *float64, label string, flags *[]string) float64 {
	if extracted == nil {
		*flags = append(*flags, fmt.Sprintf("missing extracted %s, using neutral score", label))
		return 0.5
	}
	v := get(extracted)
	if v == nil {
		*flags = append(*flags, fmt.Sprintf("missing extracted %s, using neutral score", label))
		return 0.5
	}
	return clip01(*v)
}

func buildDecisionReasoning(decision string, score float64, flags []string) string {
	base := fmt.Sprintf("%s with confidence %.2f", decision, score)
	if len(flags) == 0 {
		return base
	}
	return base + " (flags: " + strings.Join(flags, "; ") + ")"
}
