package bandit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreypavlenko/talentgraph/internal/kgerrors"
	"github.com/andreypavlenko/talentgraph/internal/rng"
)

func TestNewWarmStarted_PriorsFromSimilarity(t *testing.T) {
	source := rng.New(1)
	b := NewWarmStarted([]string{"a", "b"}, []float64{1.0, 0.0}, 4.0, 0.0, source)

	assert.InDelta(t, 5.0, b.alpha[0], 1e-9)
	assert.InDelta(t, 1.0, b.beta[0], 1e-9)
	assert.InDelta(t, 1.0, b.alpha[1], 1e-9)
	assert.InDelta(t, 5.0, b.beta[1], 1e-9)
}

func TestNewColdStarted_UniformPriors(t *testing.T) {
	source := rng.New(1)
	b := NewColdStarted([]string{"a", "b", "c"}, 0.0, source)
	for i := range b.ArmIDs {
		assert.Equal(t, 1.0, b.alpha[i])
		assert.Equal(t, 1.0, b.beta[i])
	}
}

func TestUpdate_ConservesAlphaBetaMass(t *testing.T) {
	source := rng.New(42)
	b := NewColdStarted([]string{"a", "b"}, 0.0, source)

	before := b.alpha[0] + b.beta[0]
	require.NoError(t, b.Update(0, 0.7))
	after := b.alpha[0] + b.beta[0]

	assert.InDelta(t, before+1.0, after, 1e-9)
}

func TestUpdate_OutOfRangeArm(t *testing.T) {
	source := rng.New(1)
	b := NewColdStarted([]string{"a"}, 0.0, source)

	err := b.Update(5, 0.5)
	require.Error(t, err)
	assert.Equal(t, kgerrors.InvariantViolation, kgerrors.GetKind(err))
}

func TestSelect_AlwaysReturnsValidIndex(t *testing.T) {
	source := rng.New(7)
	b := NewWarmStarted([]string{"a", "b", "c"}, []float64{0.9, 0.1, 0.5}, 2.0, 0.1, source)

	for i := 0; i < 50; i++ {
		idx := b.Select()
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 3)
	}
}

func TestPosteriorMean_MatchesAlphaOverAlphaPlusBeta(t *testing.T) {
	source := rng.New(1)
	b := NewWarmStarted([]string{"a"}, []float64{1.0}, 4.0, 0.0, source)

	mean := b.PosteriorMean(0)
	assert.InDelta(t, b.alpha[0]/(b.alpha[0]+b.beta[0]), mean, 1e-12)
}

func TestConfidenceInterval_BoundsContainMean(t *testing.T) {
	source := rng.New(1)
	b := NewWarmStarted([]string{"a"}, []float64{0.5}, 4.0, 0.0, source)

	lower, upper, mean := b.ConfidenceInterval(0, 0.95)
	assert.LessOrEqual(t, lower, mean)
	assert.GreaterOrEqual(t, upper, mean)
	assert.GreaterOrEqual(t, lower, 0.0)
	assert.LessOrEqual(t, upper, 1.0)
}

func TestRegistry_GetOrCreateWarmStarted_IsIdempotent(t *testing.T) {
	source := rng.New(1)
	registry := NewRegistry(0.1, 4.0, source)

	first := registry.GetOrCreateWarmStarted("pos-1", []string{"a", "b"}, []float64{0.8, 0.2})
	second := registry.GetOrCreateWarmStarted("pos-1", []string{"a", "b"}, []float64{0.1, 0.9})

	assert.Same(t, first, second)
}

func TestRegistry_Delete(t *testing.T) {
	source := rng.New(1)
	registry := NewRegistry(0.1, 4.0, source)
	registry.GetOrCreateWarmStarted("pos-1", []string{"a"}, []float64{0.5})

	registry.Delete("pos-1")
	assert.Nil(t, registry.Get("pos-1"))
}
