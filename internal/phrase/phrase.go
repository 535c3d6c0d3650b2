// Package phrase evolves fixed-length lowercase strings toward a
// target phrase.
package phrase

import (
	"fmt"
	"math/rand/v2"

	"progenitor/internal/engine"
)

// Length is the fixed candidate size in letters.
const Length = 10

// Candidate is a fixed-length string of lowercase letters.
type Candidate struct {
	Genes [Length]byte
}

func randomLetter() byte {
	return 'a' + byte(rand.IntN(26))
}

// Mutate re-rolls one uniformly chosen position. The fresh letter may
// coincide with the old one.
func (c Candidate) Mutate() Candidate {
	mutant := c
	mutant.Genes[rand.IntN(Length)] = randomLetter()
	return mutant
}

func (c Candidate) String() string {
	return string(c.Genes[:])
}

// Generator produces random candidates and splices parents at a random
// point: the offspring keeps the head of a and takes the tail of b.
type Generator struct{}

func (Generator) Generate() Candidate {
	var c Candidate
	for i := range c.Genes {
		c.Genes[i] = randomLetter()
	}
	return c
}

func (Generator) Evolve(a, b Candidate) Candidate {
	child := a
	mid := rand.IntN(Length - 1)
	for i := mid; i < Length; i++ {
		child.Genes[i] = b.Genes[i]
	}
	return child
}

// NewFitness builds the scoring function for target: each letter
// contributes one minus its absolute distance from the target letter,
// so an exact match scores Length and every unit of per-letter
// distance costs exactly one point.
func NewFitness(target string) (engine.Fitness[Candidate], error) {
	if len(target) != Length {
		return nil, fmt.Errorf("target phrase must be exactly %d letters, got %d", Length, len(target))
	}
	var want [Length]byte
	for i := 0; i < Length; i++ {
		if target[i] < 'a' || target[i] > 'z' {
			return nil, fmt.Errorf("target phrase must use only a-z, got %q", target[i])
		}
		want[i] = target[i]
	}

	return func(candidate Candidate) float32 {
		var score float32
		for i := 0; i < Length; i++ {
			delta := int(want[i]) - int(candidate.Genes[i])
			if delta < 0 {
				delta = -delta
			}
			score += 1.0 - float32(delta)
		}
		return score
	}, nil
}

// PerfectScore is the fitness of an exact target match.
const PerfectScore = float32(Length)
