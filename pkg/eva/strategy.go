package eva

import "sort"

// SolutionsGenerator produces one random candidate per call.
type SolutionsGenerator[G any] interface {
	Generate() G
}

// FitnessEvaluator scores a candidate. It must be pure with respect to the
// candidate value.
type FitnessEvaluator[G any] interface {
	Evaluate(genome G) Fitness
}

// Selection picks one parent from a population.
type Selection[G any] interface {
	Select(population *Population[G]) (Solution[G], error)
}

// BestSelection picks the best individual of a population.
type BestSelection[G any] interface {
	Best(population *Population[G]) (Solution[G], error)
}

// GenerationReplacement builds the population for the next iteration from
// the current one and its offspring.
type GenerationReplacement[G any] interface {
	Replace(current, offspring *Population[G]) *Population[G]
}

// GeneratorFunc adapts a function to SolutionsGenerator.
type GeneratorFunc[G any] func() G

func (f GeneratorFunc[G]) Generate() G { return f() }

// EvaluatorFunc adapts a function to FitnessEvaluator.
type EvaluatorFunc[G any] func(genome G) Fitness

func (f EvaluatorFunc[G]) Evaluate(genome G) Fitness { return f(genome) }

// SelectionFunc adapts a function to Selection.
type SelectionFunc[G any] func(population *Population[G]) (Solution[G], error)

func (f SelectionFunc[G]) Select(population *Population[G]) (Solution[G], error) {
	return f(population)
}

// BestSelectionFunc adapts a function to BestSelection.
type BestSelectionFunc[G any] func(population *Population[G]) (Solution[G], error)

func (f BestSelectionFunc[G]) Best(population *Population[G]) (Solution[G], error) {
	return f(population)
}

// ReplacementFunc adapts a function to GenerationReplacement.
type ReplacementFunc[G any] func(current, offspring *Population[G]) *Population[G]

func (f ReplacementFunc[G]) Replace(current, offspring *Population[G]) *Population[G] {
	return f(current, offspring)
}

// TournamentSelection is the default Selection, see Population.SelectIndividual.
type TournamentSelection[G any] struct{}

func (TournamentSelection[G]) Select(population *Population[G]) (Solution[G], error) {
	return population.SelectIndividual()
}

// HighestFitness is the default BestSelection, see Population.BestIndividual.
type HighestFitness[G any] struct{}

func (HighestFitness[G]) Best(population *Population[G]) (Solution[G], error) {
	return population.BestIndividual()
}

// FullReplacement is the default GenerationReplacement: the offspring
// replace the current generation entirely.
type FullReplacement[G any] struct{}

func (FullReplacement[G]) Replace(_, offspring *Population[G]) *Population[G] {
	return offspring
}

// ElitistReplacement carries the Elites best individuals of the current
// generation over and fills the rest with offspring in production order.
// The next generation has the offspring's size.
type ElitistReplacement[G any] struct {
	Elites int
}

func (r ElitistReplacement[G]) Replace(current, offspring *Population[G]) *Population[G] {
	size := offspring.Size()
	elites := r.Elites
	if elites <= 0 || current.Size() == 0 {
		return offspring
	}
	if elites > current.Size() {
		elites = current.Size()
	}
	if elites > size {
		elites = size
	}

	ranked := current.Individuals()
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Fitness.Better(ranked[j].Fitness)
	})

	next := NewPopulation[G](offspring.chance)
	for _, ind := range ranked[:elites] {
		next.AddIndividual(ind)
	}
	for _, ind := range offspring.individuals[:size-elites] {
		next.AddIndividual(ind)
	}
	return next
}
