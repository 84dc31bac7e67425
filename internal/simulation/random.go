package simulation

import (
	"errors"
	"math"
	"math/rand/v2"
	"sort"
	"time"
)

// ErrInvalidWeights is returned when a weight vector cannot form a distribution.
var ErrInvalidWeights = errors.New("simulation: weights must be non-negative with a positive sum")

// Source is the single stream of random draws consumed by a generator run.
// Every draw of a run comes from one Source so a seed reproduces the dataset.
type Source interface {
	// Float64 returns a uniform value in [0, 1).
	Float64() float64
	// IntN returns a uniform value in [0, n). It panics when n <= 0.
	IntN(n int) int
}

type pcgSource struct {
	rng *rand.Rand
}

// NewSeededSource returns a deterministic PCG backed Source.
func NewSeededSource(seed uint64) Source {
	return &pcgSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *pcgSource) Float64() float64 { return s.rng.Float64() }

func (s *pcgSource) IntN(n int) int { return s.rng.IntN(n) }

// RandomSeed draws a seed from the runtime generator for runs that were not
// given one. Callers should log it so the run can be replayed.
func RandomSeed() uint64 {
	return rand.Uint64()
}

// Bernoulli consumes one draw and reports whether it fell under p.
func Bernoulli(src Source, p float64) bool {
	return src.Float64() < p
}

// UniformDuration consumes one draw and returns a value in [min, max).
func UniformDuration(src Source, min, max time.Duration) time.Duration {
	return min + time.Duration(src.Float64()*float64(max-min))
}

// WeightedPicker samples indices proportionally to a fixed weight vector.
// Lookups use the cumulative distribution and a binary search.
type WeightedPicker struct {
	cumulative []float64
	total      float64
}

// NewWeightedPicker builds a picker over weights.
func NewWeightedPicker(weights []float64) (*WeightedPicker, error) {
	if len(weights) == 0 {
		return nil, ErrInvalidWeights
	}
	cumulative := make([]float64, len(weights))
	total := 0.0
	for i, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, ErrInvalidWeights
		}
		total += w
		cumulative[i] = total
	}
	if total <= 0 {
		return nil, ErrInvalidWeights
	}
	return &WeightedPicker{cumulative: cumulative, total: total}, nil
}

// Len returns the number of weighted items.
func (p *WeightedPicker) Len() int {
	return len(p.cumulative)
}

// Pick consumes one draw and returns the selected index.
func (p *WeightedPicker) Pick(src Source) int {
	target := src.Float64() * p.total
	idx := sort.Search(len(p.cumulative), func(i int) bool {
		return p.cumulative[i] > target
	})
	if idx >= len(p.cumulative) {
		idx = len(p.cumulative) - 1
	}
	return idx
}
