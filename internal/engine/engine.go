// Package engine implements a domain-agnostic generational evolution
// engine. A problem domain plugs in by satisfying the Individual and
// Generator capabilities and supplying a Fitness callback; the engine
// never inspects what an individual actually is.
package engine

import "math"

// Individual is one candidate solution. Mutate returns a variant copy
// and must not observe or depend on population state.
type Individual[I any] interface {
	Mutate() I
}

// Generator creates fresh random individuals and combines two parents
// into one offspring. Implementations may consult their own random
// source but must be safe for concurrent use.
type Generator[I Individual[I]] interface {
	Generate() I
	Evolve(a, b I) I
}

// Fitness scores one individual; higher is better. It is invoked
// concurrently from many workers and must not mutate shared state.
type Fitness[I Individual[I]] func(individual I) float32

// Graded pairs an individual with its fitness score. Immutable after
// creation.
type Graded[I Individual[I]] struct {
	Individual I
	Fitness    float32
}

// EliteCount is the number of top-ranked members carried verbatim into
// the next generation for a population of n members.
func EliteCount(n int) int {
	return int(float32(n) * 0.1)
}

// rankedBefore orders descending by fitness under a total order: NaN
// sorts below every real value, so a hostile fitness function can
// degrade ranking but never break the sort.
func rankedBefore(a, b float32) bool {
	aNaN := math.IsNaN(float64(a))
	bNaN := math.IsNaN(float64(b))
	switch {
	case aNaN:
		return false
	case bNaN:
		return true
	default:
		return a > b
	}
}
