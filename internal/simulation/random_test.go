package simulation

import (
	"errors"
	"testing"
	"time"
)

// scriptedSource replays fixed draws and panics once a script is exhausted.
type scriptedSource struct {
	floats []float64
	ints   []int
}

func (s *scriptedSource) Float64() float64 {
	if len(s.floats) == 0 {
		panic("scriptedSource: float script exhausted")
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func (s *scriptedSource) IntN(n int) int {
	if len(s.ints) == 0 {
		panic("scriptedSource: int script exhausted")
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	if v >= n {
		panic("scriptedSource: scripted int out of range")
	}
	return v
}

func (s *scriptedSource) exhausted() bool {
	return len(s.floats) == 0 && len(s.ints) == 0
}

func TestWeightedPickerPick(t *testing.T) {
	picker, err := NewWeightedPicker([]float64{1, 0, 3})
	if err != nil {
		t.Fatalf("NewWeightedPicker failed: %v", err)
	}

	cases := []struct {
		draw float64
		want int
	}{
		{draw: 0, want: 0},
		{draw: 0.2499, want: 0},
		{draw: 0.25, want: 2},
		{draw: 0.9999, want: 2},
	}
	for _, tc := range cases {
		src := &scriptedSource{floats: []float64{tc.draw}}
		if got := picker.Pick(src); got != tc.want {
			t.Errorf("Pick(%v) = %d, want %d", tc.draw, got, tc.want)
		}
	}
}

func TestNewWeightedPickerRejectsInvalidWeights(t *testing.T) {
	for _, weights := range [][]float64{nil, {0, 0}, {1, -1}} {
		if _, err := NewWeightedPicker(weights); !errors.Is(err, ErrInvalidWeights) {
			t.Errorf("NewWeightedPicker(%v) error = %v, want ErrInvalidWeights", weights, err)
		}
	}
}

func TestWeightedPickerFrequencies(t *testing.T) {
	picker, err := NewWeightedPicker([]float64{1, 15})
	if err != nil {
		t.Fatalf("NewWeightedPicker failed: %v", err)
	}
	src := NewSeededSource(7)
	counts := make([]int, 2)
	const draws = 160000
	for i := 0; i < draws; i++ {
		counts[picker.Pick(src)]++
	}
	share := float64(counts[1]) / draws
	if share < 0.93 || share > 0.945 {
		t.Fatalf("heavy item share = %.4f, want about 0.9375", share)
	}
}

func TestSeededSourceIsDeterministic(t *testing.T) {
	a := NewSeededSource(42)
	b := NewSeededSource(42)
	for i := 0; i < 100; i++ {
		if a.Float64() != b.Float64() {
			t.Fatalf("float draw %d diverged", i)
		}
		if a.IntN(10) != b.IntN(10) {
			t.Fatalf("int draw %d diverged", i)
		}
	}
}

func TestUniformDuration(t *testing.T) {
	src := &scriptedSource{floats: []float64{0, 0.5}}
	if got := UniformDuration(src, -time.Hour, 8*time.Hour); got != -time.Hour {
		t.Fatalf("UniformDuration(0) = %v", got)
	}
	if got := UniformDuration(src, -time.Hour, 8*time.Hour); got != 3*time.Hour+30*time.Minute {
		t.Fatalf("UniformDuration(0.5) = %v", got)
	}
}
