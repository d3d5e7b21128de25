// Package rng provides the deterministic pseudo-random source used for all
// stochastic choices during grid generation. Every run owns exactly one
// Source, so a fixed seed and fixed input configuration always reproduce the
// same output grid.
package rng

import (
	"errors"
	"time"
)

var ErrEmptySelection = errors.New("rng: cannot pick from an empty selection")

// Linear-congruential parameters (Numerical Recipes).
const (
	multiplier = 1664525
	increment  = 1013904223
)

// Source is a seeded linear-congruential generator with 32-bit state.
type Source struct {
	state uint32
}

// New creates a Source seeded with the given value.
func New(seed uint32) *Source {
	return &Source{state: seed}
}

// NewFromTime creates a Source seeded from the wall clock. Runs seeded this
// way are deterministic once started but vary run to run.
func NewFromTime() *Source {
	return New(uint32(time.Now().UnixNano()))
}

// Next advances the generator and returns a value in [0, 1).
func (s *Source) Next() float64 {
	s.state = s.state*multiplier + increment // wraps mod 2^32
	return float64(s.state) / (1 << 32)
}

// PickUniform returns a uniformly chosen element of seq.
func PickUniform[T any](s *Source, seq []T) (T, error) {
	var zero T
	if len(seq) == 0 {
		return zero, ErrEmptySelection
	}
	return seq[int(s.Next()*float64(len(seq)))], nil
}

// PickWeighted expands each candidate into weight copies, preserving input
// order, then picks uniformly over the expansion. Candidates absent from
// weights count as weight 1. Weights of zero or less are not validated here;
// a candidate with such a weight simply contributes no copies, and if no
// candidate contributes any the pick fails with ErrEmptySelection.
func PickWeighted[T comparable](s *Source, candidates []T, weights map[T]int) (T, error) {
	var zero T
	if len(candidates) == 0 {
		return zero, ErrEmptySelection
	}

	expanded := make([]T, 0, len(candidates))
	for _, c := range candidates {
		w, ok := weights[c]
		if !ok {
			w = 1
		}
		for i := 0; i < w; i++ {
			expanded = append(expanded, c)
		}
	}

	return PickUniform(s, expanded)
}
