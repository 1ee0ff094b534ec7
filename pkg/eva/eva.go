package eva

import (
	"context"
	"fmt"

	"github.com/GoSim-25-26J-441/evolution-core/pkg/logger"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/utils"
)

// DefaultPopulationSize is the population size used when none is configured.
const DefaultPopulationSize = 100

// ProgressReporter is called once per generation, before the stopping
// condition is checked.
type ProgressReporter[G any] func(generation int, best Solution[G], stats Stats)

// Algorithm is the capability set shared by Eva and its decorators. Every
// With* method returns a new instance and never mutates the receiver.
type Algorithm[G any] interface {
	// Calculate runs the algorithm and returns the best solution found.
	Calculate(ctx context.Context) (Solution[G], error)
	// Name identifies the algorithm in errors and logs.
	Name() string
	// Conditions returns the configured stopping condition.
	Conditions() Condition[G]

	WithEvaluator(evaluator FitnessEvaluator[G]) Algorithm[G]
	WithGenerator(generator SolutionsGenerator[G]) Algorithm[G]
	WithConditions(conditions Condition[G]) Algorithm[G]
	WithSelection(selection Selection[G]) Algorithm[G]
	WithBestSelection(best BestSelection[G]) Algorithm[G]
	WithReplacement(replacement GenerationReplacement[G]) Algorithm[G]
	WithPopulationSize(size int) Algorithm[G]
	WithSeed(seed int64) Algorithm[G]
	WithProgress(reporter ProgressReporter[G]) Algorithm[G]
}

// Eva is the generational evolutionary algorithm. Start from New; a zero
// Eva falls back to the default strategies but has a population size of 0.
type Eva[G Genome[G]] struct {
	generator   SolutionsGenerator[G]
	evaluator   FitnessEvaluator[G]
	conditions  Condition[G]
	selection   Selection[G]
	best        BestSelection[G]
	replacement GenerationReplacement[G]
	size        int
	seed        int64
	progress    ProgressReporter[G]
}

// New returns an Eva with the default strategies and no generator or
// evaluator. Both are mandatory and must be set before Calculate.
func New[G Genome[G]]() Eva[G] {
	return Eva[G]{
		selection:   TournamentSelection[G]{},
		best:        HighestFitness[G]{},
		replacement: FullReplacement[G]{},
		size:        DefaultPopulationSize,
	}
}

// Name returns "eva".
func (e Eva[G]) Name() string {
	return "eva"
}

// Conditions returns the configured stopping condition, or Never.
func (e Eva[G]) Conditions() Condition[G] {
	if e.conditions == nil {
		return Never[G]()
	}
	return e.conditions
}

// WithEvaluator sets the mandatory fitness evaluator.
func (e Eva[G]) WithEvaluator(evaluator FitnessEvaluator[G]) Algorithm[G] {
	e.evaluator = evaluator
	return e
}

// WithGenerator sets the mandatory solutions generator.
func (e Eva[G]) WithGenerator(generator SolutionsGenerator[G]) Algorithm[G] {
	e.generator = generator
	return e
}

// WithConditions sets the stopping condition; combine several with All or
// Any. Without a condition Calculate only returns when ctx is done, so
// either set one or bound the run with a deadline.
func (e Eva[G]) WithConditions(conditions Condition[G]) Algorithm[G] {
	e.conditions = conditions
	return e
}

// WithSelection sets how parents are picked. Defaults to TournamentSelection.
func (e Eva[G]) WithSelection(selection Selection[G]) Algorithm[G] {
	if selection == nil {
		selection = TournamentSelection[G]{}
	}
	e.selection = selection
	return e
}

// WithBestSelection sets how the best individual is picked. Defaults to
// HighestFitness.
func (e Eva[G]) WithBestSelection(best BestSelection[G]) Algorithm[G] {
	if best == nil {
		best = HighestFitness[G]{}
	}
	e.best = best
	return e
}

// WithReplacement sets how a generation is replaced. Defaults to
// FullReplacement.
func (e Eva[G]) WithReplacement(replacement GenerationReplacement[G]) Algorithm[G] {
	if replacement == nil {
		replacement = FullReplacement[G]{}
	}
	e.replacement = replacement
	return e
}

// WithPopulationSize sets the number of individuals per generation.
func (e Eva[G]) WithPopulationSize(size int) Algorithm[G] {
	e.size = size
	return e
}

// WithSeed fixes the seed of the selection chance source. Zero, the
// default, seeds every Calculate from the clock.
func (e Eva[G]) WithSeed(seed int64) Algorithm[G] {
	e.seed = seed
	return e
}

// WithProgress sets a per-generation progress callback.
func (e Eva[G]) WithProgress(reporter ProgressReporter[G]) Algorithm[G] {
	e.progress = reporter
	return e
}

// Calculate evolves a population until the stopping condition passes or ctx
// is done. Each call works on its own population, so concurrent calls on the
// same Eva are safe as long as the strategies are.
func (e Eva[G]) Calculate(ctx context.Context) (Solution[G], error) {
	var zero Solution[G]

	if e.generator == nil {
		return zero, fmt.Errorf("%w: solutions generator is required", ErrConfiguration)
	}
	if e.evaluator == nil {
		return zero, fmt.Errorf("%w: fitness evaluator is required", ErrConfiguration)
	}
	if e.size < 1 {
		return zero, fmt.Errorf("%w: population size must be at least 1, got %d", ErrConfiguration, e.size)
	}

	e = e.withDefaults()
	conditions := e.Conditions()
	rng := utils.NewRandSource(e.seed)

	population, err := GeneratePopulation(e.generator, e.size, rng)
	if err != nil {
		return zero, err
	}
	population.evaluate(e.evaluator)

	for generation := 0; ; generation++ {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("stopped at generation %d: %w", generation, err)
		}

		best, err := e.best.Best(population)
		if err != nil {
			return zero, fmt.Errorf("failed to select best individual: %w", err)
		}

		stats := population.Stats()
		logger.Debug("generation evaluated",
			"generation", generation,
			"best_fitness", best.Fitness.String(),
			"mean_fitness", stats.Mean,
			"valid", stats.Valid,
			"size", stats.Size)
		if e.progress != nil {
			e.progress(generation, best, stats)
		}

		if conditions.Passed(best, generation) {
			logger.Info("stopping condition passed", "generation", generation, "best_fitness", best.Fitness.String())
			return best, nil
		}

		offspring, err := e.breed(population, rng)
		if err != nil {
			return zero, err
		}

		population = e.replacement.Replace(population, offspring)
		if population == nil {
			return zero, fmt.Errorf("%w: generation replacement returned no population", ErrInvalidOperation)
		}
	}
}

func (e Eva[G]) withDefaults() Eva[G] {
	if e.selection == nil {
		e.selection = TournamentSelection[G]{}
	}
	if e.best == nil {
		e.best = HighestFitness[G]{}
	}
	if e.replacement == nil {
		e.replacement = FullReplacement[G]{}
	}
	return e
}

// breed produces a full generation of evaluated children.
func (e Eva[G]) breed(population *Population[G], rng *utils.RandSource) (*Population[G], error) {
	offspring := NewPopulation[G](rng)
	for offspring.Size() < e.size {
		parent1, err := e.selection.Select(population)
		if err != nil {
			return nil, fmt.Errorf("failed to select parent: %w", err)
		}
		parent2, err := e.selection.Select(population)
		if err != nil {
			return nil, fmt.Errorf("failed to select parent: %w", err)
		}

		child := parent1.Genome.Crossover(parent2.Genome).Mutate()
		offspring.AddIndividual(Solution[G]{
			Genome:  child,
			Fitness: e.evaluator.Evaluate(child),
		})
	}
	return offspring, nil
}
