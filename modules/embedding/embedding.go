// Package embedding implements the Component A embedding adapter: a
// deterministic, model-free projection from a tagged entity record to a
// fixed-dimension unit vector. The real production embedding model is an
// external collaborator (see the vector contract in the knowledge graph's
// ports package); this adapter is the in-repo stand-in that satisfies the
// same contract so every other component can be built and tested against
// it without a network call.
package embedding

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/andreypavlenko/talentgraph/internal/kgerrors"
)

// Adapter is a deterministic feature-hashing embedder: each canonical
// "field:value" token is hashed into a pseudo-random unit contribution, the
// contributions are summed and renormalized. Identical normalized input
// always yields an identical vector, and the adapter carries no state
// shared across calls or classes.
type Adapter struct {
	dim int
}

// New returns an Adapter producing vectors of the given fixed dimension.
func New(dim int) *Adapter {
	return &Adapter{dim: dim}
}

func (a *Adapter) Dim() int {
	return a.dim
}

// Embed converts a JSON-encoded entity record into a unit vector. class
// selects the field-extraction rules below; record must decode into a
// map[string]any (the caller is expected to pass the entity's canonical
// JSON view).
func (a *Adapter) Embed(class string, record json.RawMessage) ([]float32, error) {
	var fields map[string]any
	if err := json.Unmarshal(record, &fields); err != nil {
		return nil, kgerrors.Wrap(kgerrors.ValidationError, "embedding record is not a JSON object", err)
	}

	tokens := tokenize(class, fields)
	return a.embedTokens(tokens), nil
}

// tokenize extracts a deterministic, order-independent token set from an
// entity's fields: each scalar value and each list item contributes one
// token, and no field is given extra weight.
func tokenize(class string, fields map[string]any) []string {
	var tokens []string
	tokens = append(tokens, "class:"+class)

	var walk func(prefix string, v any)
	walk = func(prefix string, v any) {
		switch val := v.(type) {
		case string:
			norm := strings.ToLower(strings.TrimSpace(val))
			if norm != "" {
				tokens = append(tokens, prefix+":"+norm)
			}
		case float64:
			tokens = append(tokens, fmt.Sprintf("%s:%g", prefix, val))
		case bool:
			tokens = append(tokens, fmt.Sprintf("%s:%v", prefix, val))
		case []any:
			for _, item := range val {
				walk(prefix, item)
			}
		case map[string]any:
			keys := make([]string, 0, len(val))
			for k := range val {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				walk(prefix+"."+k, val[k])
			}
		}
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		walk(k, fields[k])
	}

	sort.Strings(tokens)
	return tokens
}

// embedTokens hashes each token into a pseudo-random unit-norm direction
// and accumulates them, then renormalizes the sum. Two inputs with the
// same multiset of tokens always produce the same vector.
func (a *Adapter) embedTokens(tokens []string) []float32 {
	acc := make([]float64, a.dim)
	for _, tok := range tokens {
		h := sha256.Sum256([]byte(tok))
		seed := binary.LittleEndian.Uint64(h[:8])
		rng := newSplitMix64(seed)
		for i := 0; i < a.dim; i++ {
			acc[i] += rng.nextUnitNormal()
		}
	}

	if len(tokens) == 0 {
		// No signal: return a fixed, arbitrary unit vector rather than a
		// zero vector, so ‖v‖ == 1 always holds.
		acc[0] = 1
	}

	var norm float64
	for _, x := range acc {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		norm = 1
	}

	out := make([]float32, a.dim)
	for i, x := range acc {
		out[i] = float32(x / norm)
	}
	return out
}

// splitMix64 is a small deterministic PRNG used only to turn a token hash
// into `dim` independent pseudo-random values; it has no relation to the
// seedable MT19937 source used for Thompson sampling and K-means restarts,
// which must stay reproducible given a user-supplied seed.
type splitMix64 struct {
	state uint64
}

func newSplitMix64(seed uint64) *splitMix64 {
	return &splitMix64{state: seed}
}

func (s *splitMix64) nextUint64() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// nextUnitNormal maps two uniform draws to a standard-normal draw via the
// Box-Muller transform, giving the accumulated sum a roughly isotropic
// distribution across dimensions.
func (s *splitMix64) nextUnitNormal() float64 {
	u1 := float64(s.nextUint64()>>11) / (1 << 53)
	u2 := float64(s.nextUint64()>>11) / (1 << 53)
	if u1 <= 0 {
		u1 = 1e-12
	}
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}
