package eva

import (
	"fmt"

	"github.com/GoSim-25-26J-441/evolution-core/pkg/utils"
	"gonum.org/v1/gonum/stat"
)

// Population is one generation of candidate solutions.
// It is not safe for concurrent use.
type Population[G any] struct {
	individuals []Solution[G]
	chance      *utils.RandSource
}

// Stats summarises the valid fitness scores of a population.
type Stats struct {
	Size   int
	Valid  int
	Mean   float64
	StdDev float64
	Max    float64
}

// NewPopulation creates a population with no individuals. A nil rng uses a
// clock-seeded source.
func NewPopulation[G any](rng *utils.RandSource) *Population[G] {
	if rng == nil {
		rng = utils.NewRandSource(0)
	}
	return &Population[G]{
		individuals: make([]Solution[G], 0),
		chance:      rng,
	}
}

// GeneratePopulation creates a population of exactly size individuals, each
// produced by one call to generator and carrying an invalid fitness.
func GeneratePopulation[G any](generator SolutionsGenerator[G], size int, rng *utils.RandSource) (*Population[G], error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: population size must be at least 1, got %d", ErrInvalidOperation, size)
	}
	if generator == nil {
		return nil, fmt.Errorf("%w: solutions generator is required", ErrInvalidOperation)
	}

	p := NewPopulation[G](rng)
	p.individuals = make([]Solution[G], 0, size)
	for i := 0; i < size; i++ {
		p.AddIndividual(Solution[G]{
			Genome:  generator.Generate(),
			Fitness: InvalidFitness(),
		})
	}
	return p, nil
}

// SelectIndividual runs a two-way tournament: two individuals are drawn
// uniformly with replacement and the first one wins only when its fitness is
// strictly better, so ties go to the second draw.
func (p *Population[G]) SelectIndividual() (Solution[G], error) {
	if len(p.individuals) == 0 {
		var zero Solution[G]
		return zero, fmt.Errorf("%w: cannot select from an empty population", ErrInvalidOperation)
	}

	candidate1 := p.individuals[p.chance.Intn(len(p.individuals))]
	candidate2 := p.individuals[p.chance.Intn(len(p.individuals))]
	if candidate1.Fitness.Better(candidate2.Fitness) {
		return candidate1, nil
	}
	return candidate2, nil
}

// BestIndividual returns the individual with the highest valid fitness.
// The scan is seeded with individual 0 whatever its validity, so a population
// with no valid fitness at all yields its first individual.
func (p *Population[G]) BestIndividual() (Solution[G], error) {
	if len(p.individuals) == 0 {
		var zero Solution[G]
		return zero, fmt.Errorf("%w: cannot find the best of an empty population", ErrInvalidOperation)
	}

	best := p.individuals[0]
	for _, candidate := range p.individuals[1:] {
		if candidate.Fitness.Ok() && candidate.Fitness.Better(best.Fitness) {
			best = candidate
		}
	}
	return best, nil
}

// AddIndividual appends a solution.
func (p *Population[G]) AddIndividual(individual Solution[G]) {
	p.individuals = append(p.individuals, individual)
}

// Size returns the number of individuals.
func (p *Population[G]) Size() int {
	return len(p.individuals)
}

// Individuals returns a copy of the individuals in insertion order.
func (p *Population[G]) Individuals() []Solution[G] {
	out := make([]Solution[G], len(p.individuals))
	copy(out, p.individuals)
	return out
}

// Stats computes fitness statistics over the valid individuals.
func (p *Population[G]) Stats() Stats {
	s := Stats{Size: len(p.individuals)}

	scores := make([]float64, 0, len(p.individuals))
	for _, ind := range p.individuals {
		if !ind.Fitness.Ok() {
			continue
		}
		score := ind.Fitness.Score()
		if len(scores) == 0 || score > s.Max {
			s.Max = score
		}
		scores = append(scores, score)
	}

	s.Valid = len(scores)
	switch len(scores) {
	case 0:
	case 1:
		s.Mean = scores[0]
	default:
		s.Mean, s.StdDev = stat.MeanStdDev(scores, nil)
	}
	return s
}

// evaluate assigns a fitness to every individual in place.
func (p *Population[G]) evaluate(evaluator FitnessEvaluator[G]) {
	for i := range p.individuals {
		p.individuals[i].Fitness = evaluator.Evaluate(p.individuals[i].Genome)
	}
}
