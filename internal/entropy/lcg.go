// Package entropy provides the deterministic random source used by every
// replica. Same seed and same call sequence give the same draws on every
// platform, so reports from two runs can be compared byte for byte.
package entropy

// LCG constants. Only a 15-bit window of the 64-bit state is exposed per draw,
// matching the classic minimal rand() so results line up across languages.
const (
	multiplier = 1103515245
	increment  = 12345
	Modulus    = 32768
)

// LCG is a linear congruential generator. It is not safe for concurrent use;
// each replica owns its own.
type LCG struct {
	seed uint64
}

// NewLCG creates a generator with the given seed.
func NewLCG(seed uint64) *LCG {
	return &LCG{seed: seed}
}

// Seed returns the current internal state.
func (r *LCG) Seed() uint64 {
	return r.seed
}

// Uint advances the state and returns an integer in [0, Modulus).
func (r *LCG) Uint() uint64 {
	r.seed = r.seed*multiplier + increment
	return (r.seed >> 16) % Modulus
}

// Bounded returns Uint() % max. The modulo bias for max not dividing Modulus
// is part of the reference behavior. A zero max returns 0 without a draw.
func (r *LCG) Bounded(max uint64) uint64 {
	if max == 0 {
		return 0
	}
	return r.Uint() % max
}

// Real returns a float64 in [0, 1).
func (r *LCG) Real() float64 {
	return float64(r.Uint()) / Modulus
}

// Shuffle permutes n elements in place with a Fisher-Yates pass from the last
// index down to 1, swapping i with a uniform index in [0, i].
func (r *LCG) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := int(r.Bounded(uint64(i + 1)))
		swap(i, j)
	}
}
