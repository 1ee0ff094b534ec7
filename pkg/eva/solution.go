package eva

import "fmt"

// Genome is the caller's candidate representation. Both operations must
// return new values and leave the receiver unchanged.
type Genome[G any] interface {
	// Crossover combines the receiver with partner into a child.
	Crossover(partner G) G
	// Mutate returns a randomly altered copy of the receiver.
	Mutate() G
}

// Solution pairs a candidate with its fitness.
type Solution[G any] struct {
	Genome  G
	Fitness Fitness
}

func (s Solution[G]) String() string {
	return fmt.Sprintf("%v (fitness %s)", s.Genome, s.Fitness)
}
