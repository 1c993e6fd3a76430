// Package rng provides the single seedable randomness source shared by the
// bandit core's Thompson sampling and the clusterer's K-means restarts, so
// both are reproducible given a configured seed.
package rng

import (
	"gonum.org/v1/gonum/mathext/prng"
)

// Source wraps gonum's MT19937 to satisfy both math/rand's Source64
// interface (Uint64/Int63/Seed) and gonum/stat/distuv's Src interface
// (Uint64), so the same generator drives distuv.Beta sampling and any
// direct uniform draws a component needs.
type Source struct {
	mt *prng.MT19937
}

// New creates a new Source seeded deterministically.
func New(seed int64) *Source {
	s := &Source{mt: prng.NewMT19937()}
	s.Seed(seed)
	return s
}

// Seed reseeds the generator.
func (s *Source) Seed(seed int64) {
	s.mt.Seed(uint64(seed))
}

// Uint64 returns the next raw 64-bit draw.
func (s *Source) Uint64() uint64 {
	return s.mt.Uint64()
}

// Int63 returns the next draw in [0, 1<<63), satisfying math/rand.Source.
func (s *Source) Int63() int64 {
	return int64(s.Uint64() >> 1)
}

// Float64 returns a draw uniform in [0, 1).
func (s *Source) Float64() float64 {
	return float64(s.Uint64()>>11) / (1 << 53)
}
