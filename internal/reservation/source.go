package reservation

import (
	"context"
	"math/rand/v2"
	"sync"
)

// SeatSource produces the authoritative booked flags for a fresh seat
// map.  The returned slice must have exactly total entries; entry i is
// the booked flag of seat i+1.
type SeatSource interface {
	Fetch(ctx context.Context, total int) ([]bool, error)
}

// SourceFunc adapts a plain function to SeatSource.
type SourceFunc func(ctx context.Context, total int) ([]bool, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context, total int) ([]bool, error) {
	return f(ctx, total)
}

// DefaultBookedProbability is the chance that a simulated seat comes back
// already booked.
const DefaultBookedProbability = 0.3

// RandomSource simulates a backend by drawing each seat's booked flag
// independently with a fixed probability.
type RandomSource struct {
	probability float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSource returns a RandomSource using probability p.  A zero seed
// picks a random one; any other seed makes the draws reproducible.
// Probabilities outside [0, 1] are clamped.
func NewRandomSource(p float64, seed uint64) *RandomSource {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	s1, s2 := seed, seed^0x9e3779b97f4a7c15
	if seed == 0 {
		s1, s2 = rand.Uint64(), rand.Uint64()
	}
	return &RandomSource{probability: p, rng: rand.New(rand.NewPCG(s1, s2))}
}

// Fetch implements SeatSource.  It never fails.
func (r *RandomSource) Fetch(_ context.Context, total int) ([]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	flags := make([]bool, total)
	for i := range flags {
		flags[i] = r.rng.Float64() < r.probability
	}
	return flags, nil
}

// FixedSource always returns the same seat map: the listed seat numbers
// are booked and every other seat is free.  Numbers outside 1..total are
// ignored.
type FixedSource struct {
	Booked []int
}

// Fetch implements SeatSource.
func (f FixedSource) Fetch(_ context.Context, total int) ([]bool, error) {
	flags := make([]bool, total)
	for _, n := range f.Booked {
		if n >= 1 && n <= total {
			flags[n-1] = true
		}
	}
	return flags, nil
}
