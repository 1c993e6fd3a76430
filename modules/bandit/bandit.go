// Package bandit implements the Component G warm-started Feel-Good
// Thompson Sampling bandit: a per-position Beta(alpha, beta) posterior per
// arm, a frozen arm order captured at initialization, and a single mutex
// serializing select/update per instance.
package bandit

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/andreypavlenko/talentgraph/internal/kgerrors"
	"github.com/andreypavlenko/talentgraph/internal/rng"
)

// Bandit is one position's FG-TS instance. Arm i always refers to the i-th
// id in ArmIDs, frozen for the bandit's lifetime even if the position's
// selected_candidates later changes.
type Bandit struct {
	mu sync.Mutex

	ArmIDs []string
	alpha  []float64
	beta   []float64

	lambdaFG float64
	source   *rng.Source
}

// NewWarmStarted seeds priors from embedding similarity: alpha_i = 1 +
// kappa*s_i, beta_i = 1 + kappa*(1-s_i), after clipping each similarity to
// [0,1]. similarities must be the same length as armIDs.
func NewWarmStarted(armIDs []string, similarities []float64, kappa, lambdaFG float64, source *rng.Source) *Bandit {
	n := len(armIDs)
	alpha := make([]float64, n)
	beta := make([]float64, n)
	for i := 0; i < n; i++ {
		s := clip01(similarities[i])
		alpha[i] = 1 + kappa*s
		beta[i] = 1 + kappa*(1-s)
	}
	return &Bandit{
		ArmIDs:   append([]string(nil), armIDs...),
		alpha:    alpha,
		beta:     beta,
		lambdaFG: lambdaFG,
		source:   source,
	}
}

// NewColdStarted initializes every arm to Beta(1,1), used only for the
// warm-vs-cold comparison in the learning demo.
func NewColdStarted(armIDs []string, lambdaFG float64, source *rng.Source) *Bandit {
	n := len(armIDs)
	alpha := make([]float64, n)
	beta := make([]float64, n)
	for i := range alpha {
		alpha[i] = 1
		beta[i] = 1
	}
	return &Bandit{
		ArmIDs:   append([]string(nil), armIDs...),
		alpha:    alpha,
		beta:     beta,
		lambdaFG: lambdaFG,
		source:   source,
	}
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

// Select draws theta_i ~ Beta(alpha_i, beta_i) for every arm, applies the FG
// boost, and returns the argmax index. Ties (after the FG adjustment) break
// to the lowest index. This is the bandit's only randomized operation.
//
// FG boost: the Feel-Good objective rewards optimism about the current
// empirical mean; here that is realized as an additive bonus proportional
// to the posterior mean that fades as an arm accumulates pulls
// (lambdaFG * mean_i / (alpha_i + beta_i)), so a thin prior gets a larger
// nudge than a well-observed arm.
func (b *Bandit) Select() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	best := 0
	bestVal := math.Inf(-1)
	for i := range b.ArmIDs {
		dist := distuv.Beta{Alpha: b.alpha[i], Beta: b.beta[i], Src: b.source}
		theta := dist.Rand()
		mean := b.alpha[i] / (b.alpha[i] + b.beta[i])
		boost := b.lambdaFG * mean / (b.alpha[i] + b.beta[i])
		adjusted := theta + boost
		if adjusted > bestVal {
			bestVal = adjusted
			best = i
		}
	}
	return best
}

// Update applies the conjugate Beta update for arm i with reward r in
// [0,1]: alpha_i += r, beta_i += 1-r. Fractional rewards behave correctly
// under Bayes' rule.
func (b *Bandit) Update(arm int, reward float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if arm < 0 || arm >= len(b.ArmIDs) {
		return kgerrors.New(kgerrors.InvariantViolation, "arm index out of range")
	}
	r := clip01(reward)
	b.alpha[arm] += r
	b.beta[arm] += 1 - r
	return nil
}

// PosteriorMean returns alpha_i / (alpha_i + beta_i) without sampling, used
// by the decision engine's bandit-confidence step.
func (b *Bandit) PosteriorMean(arm int) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.alpha[arm] / (b.alpha[arm] + b.beta[arm])
}

// ConfidenceInterval returns (lower, upper, mean) for arm i at the given
// confidence level, using the normal approximation to the beta
// distribution (accurate once alpha+beta is not tiny).
func (b *Bandit) ConfidenceInterval(arm int, confidence float64) (lower, upper, mean float64) {
	b.mu.Lock()
	alpha, beta := b.alpha[arm], b.beta[arm]
	b.mu.Unlock()

	mean = alpha / (alpha + beta)
	variance := (alpha * beta) / (math.Pow(alpha+beta, 2) * (alpha + beta + 1))
	std := math.Sqrt(variance)

	z := math.Sqrt2 * mathext.Erfinv(confidence)
	lower = math.Max(0.0, mean-z*std)
	upper = math.Min(1.0, mean+z*std)
	return lower, upper, mean
}

// ArmCount returns the number of frozen arms.
func (b *Bandit) ArmCount() int {
	return len(b.ArmIDs)
}

// Registry is the per-position bandit registry referenced by §4.D/§9: a
// typed map with explicit lock discipline, replacing an ad-hoc mutable
// dict keyed by position id.
type Registry struct {
	mu       sync.RWMutex
	bandits  map[string]*Bandit
	lambdaFG float64
	kappa    float64
	source   *rng.Source
}

func NewRegistry(lambdaFG, kappa float64, source *rng.Source) *Registry {
	return &Registry{
		bandits:  make(map[string]*Bandit),
		lambdaFG: lambdaFG,
		kappa:    kappa,
		source:   source,
	}
}

// Get returns the bandit for positionID, or nil if none exists yet.
func (r *Registry) Get(positionID string) *Bandit {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bandits[positionID]
}

// GetOrCreateWarmStarted returns the existing bandit for positionID, or
// creates and stores a warm-started one from the given arm ids and
// similarities if none exists. The arm order is frozen at this point.
func (r *Registry) GetOrCreateWarmStarted(positionID string, armIDs []string, similarities []float64) *Bandit {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.bandits[positionID]; ok {
		return b
	}
	b := NewWarmStarted(armIDs, similarities, r.kappa, r.lambdaFG, r.source)
	r.bandits[positionID] = b
	return b
}

// Delete drops a position's bandit, e.g. when a position is retired.
func (r *Registry) Delete(positionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bandits, positionID)
}
