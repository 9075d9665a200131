// Package randtest provides deterministic random sources for tests.
package randtest

import (
	"math/rand/v2"

	"github.com/boristopalov/bandits/pkg/core"
)

// Seeded returns the generator the CLI would build for seed.
func Seeded(seed uint64) *rand.Rand {
	return core.NewRand(seed)
}

// Scripted replays queued values and falls back to a seeded generator once a
// queue is exhausted.
type Scripted struct {
	Floats  []float64
	Ints    []int
	Normals []float64

	fallback *rand.Rand
}

func NewScripted(seed uint64) *Scripted {
	return &Scripted{fallback: Seeded(seed)}
}

func (s *Scripted) Float64() float64 {
	if len(s.Floats) > 0 {
		v := s.Floats[0]
		s.Floats = s.Floats[1:]
		return v
	}
	return s.fallback.Float64()
}

// IntN returns the next queued int. Queued values must be below n.
func (s *Scripted) IntN(n int) int {
	if len(s.Ints) > 0 {
		v := s.Ints[0]
		s.Ints = s.Ints[1:]
		return v
	}
	return s.fallback.IntN(n)
}

func (s *Scripted) NormFloat64() float64 {
	if len(s.Normals) > 0 {
		v := s.Normals[0]
		s.Normals = s.Normals[1:]
		return v
	}
	return s.fallback.NormFloat64()
}
