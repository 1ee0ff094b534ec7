package eva

import (
	"fmt"
	"math"
)

// Fitness is a score where higher is better, plus a validity flag.
// The zero value is an invalid fitness.
type Fitness struct {
	score float64
	ok    bool
}

// NewFitness returns a valid fitness with the given score. NaN scores are
// treated as invalid and negative zero is stored as zero.
func NewFitness(score float64) Fitness {
	if math.IsNaN(score) {
		return Fitness{}
	}
	if score == 0 {
		score = 0
	}
	return Fitness{score: score, ok: true}
}

// InvalidFitness returns a fitness that has not been computed or could not be.
func InvalidFitness() Fitness {
	return Fitness{}
}

// Score returns the raw score. It is meaningless when Ok is false.
func (f Fitness) Score() float64 {
	return f.score
}

// Ok reports whether the fitness is valid.
func (f Fitness) Ok() bool {
	return f.ok
}

// Compare returns 1 if f is better than other, -1 if worse and 0 otherwise.
// A valid fitness is always better than an invalid one; two invalid
// fitnesses compare equal.
func (f Fitness) Compare(other Fitness) int {
	switch {
	case f.ok && !other.ok:
		return 1
	case !f.ok && other.ok:
		return -1
	case !f.ok && !other.ok:
		return 0
	case f.score > other.score:
		return 1
	case f.score < other.score:
		return -1
	default:
		return 0
	}
}

// Better reports whether f is strictly better than other.
func (f Fitness) Better(other Fitness) bool {
	return f.Compare(other) > 0
}

func (f Fitness) String() string {
	if !f.ok {
		return "invalid"
	}
	return fmt.Sprintf("%g", f.score)
}
