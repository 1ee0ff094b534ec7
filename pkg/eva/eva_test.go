package eva

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaImplementsAlgorithm(t *testing.T) {
	var alg Algorithm[point] = New[point]()
	assert.Equal(t, "eva", alg.Name())
}

func TestCalculateRequiresGeneratorAndEvaluator(t *testing.T) {
	tests := []struct {
		name string
		alg  func(*countingGenerator, *countingEvaluator) Algorithm[point]
	}{
		{"nothing configured", func(*countingGenerator, *countingEvaluator) Algorithm[point] {
			return New[point]()
		}},
		{"missing evaluator", func(g *countingGenerator, _ *countingEvaluator) Algorithm[point] {
			return New[point]().WithGenerator(g)
		}},
		{"missing generator", func(_ *countingGenerator, e *countingEvaluator) Algorithm[point] {
			return New[point]().WithEvaluator(e)
		}},
		{"empty population", func(g *countingGenerator, e *countingEvaluator) Algorithm[point] {
			return New[point]().WithGenerator(g).WithEvaluator(e).WithPopulationSize(0)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, eval := &countingGenerator{}, &countingEvaluator{}
			_, err := tt.alg(gen, eval).Calculate(context.Background())

			require.ErrorIs(t, err, ErrConfiguration)
			assert.Zero(t, gen.calls.Load(), "no population may be built")
			assert.Zero(t, eval.calls.Load())
		})
	}
}

func TestCalculateFindsTarget(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sol, err := New[point]().
		WithGenerator(&countingGenerator{}).
		WithEvaluator(&countingEvaluator{}).
		WithConditions(ConditionFunc[point](func(best Solution[point], _ int) bool {
			return best.Fitness.Ok() && best.Fitness.Score() == 0
		})).
		WithPopulationSize(50).
		Calculate(ctx)

	require.NoError(t, err)
	assert.Equal(t, point(42), sol.Genome)
	assert.Equal(t, 0.0, sol.Fitness.Score())
}

func TestCalculateEvaluatesEveryIndividual(t *testing.T) {
	gen, eval := &countingGenerator{}, &countingEvaluator{}
	generations := 0

	_, err := New[point]().
		WithGenerator(gen).
		WithEvaluator(eval).
		WithPopulationSize(20).
		WithConditions(MaxGenerations[point](3)).
		WithProgress(func(generation int, best Solution[point], stats Stats) {
			generations++
			assert.Equal(t, 20, stats.Size)
			assert.Equal(t, 20, stats.Valid)
			assert.True(t, best.Fitness.Ok())
		}).
		Calculate(context.Background())
	require.NoError(t, err)

	// Initial population plus three bred generations.
	assert.Equal(t, 4, generations)
	assert.EqualValues(t, 20, gen.calls.Load())
	assert.EqualValues(t, 80, eval.calls.Load())
}

func TestCalculateUsesConfiguredStrategies(t *testing.T) {
	selections, bests, replacements := 0, 0, 0

	_, err := New[point]().
		WithGenerator(&countingGenerator{}).
		WithEvaluator(&countingEvaluator{}).
		WithPopulationSize(5).
		WithConditions(MaxGenerations[point](2)).
		WithSelection(SelectionFunc[point](func(p *Population[point]) (Solution[point], error) {
			selections++
			return p.SelectIndividual()
		})).
		WithBestSelection(BestSelectionFunc[point](func(p *Population[point]) (Solution[point], error) {
			bests++
			return p.BestIndividual()
		})).
		WithReplacement(ReplacementFunc[point](func(_, offspring *Population[point]) *Population[point] {
			replacements++
			return offspring
		})).
		Calculate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2*5*2, selections, "two parents per child, five children, two generations")
	assert.Equal(t, 3, bests)
	assert.Equal(t, 2, replacements)
}

func TestCalculateSurfacesSelectionErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := New[point]().
		WithGenerator(&countingGenerator{}).
		WithEvaluator(&countingEvaluator{}).
		WithPopulationSize(3).
		WithSelection(SelectionFunc[point](func(*Population[point]) (Solution[point], error) {
			return Solution[point]{}, boom
		})).
		Calculate(context.Background())

	assert.ErrorIs(t, err, boom)
}

func TestCalculateRejectsEmptyReplacement(t *testing.T) {
	_, err := New[point]().
		WithGenerator(&countingGenerator{}).
		WithEvaluator(&countingEvaluator{}).
		WithPopulationSize(3).
		WithReplacement(ReplacementFunc[point](func(_, _ *Population[point]) *Population[point] {
			return NewPopulation[point](nil)
		})).
		Calculate(context.Background())

	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestCalculateStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// No stopping condition: only the context ends the run.
	_, err := New[point]().
		WithGenerator(&countingGenerator{}).
		WithEvaluator(&countingEvaluator{}).
		WithPopulationSize(10).
		Calculate(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithDoesNotMutateReceiver(t *testing.T) {
	base := New[point]().WithGenerator(&countingGenerator{}).WithPopulationSize(4)

	evalA, evalB := &countingEvaluator{}, &countingEvaluator{}
	a := base.WithEvaluator(evalA).WithConditions(MaxGenerations[point](0))
	b := base.WithEvaluator(evalB).WithConditions(MaxGenerations[point](1))

	_, err := base.Calculate(context.Background())
	require.ErrorIs(t, err, ErrConfiguration, "base must still lack an evaluator")
	assert.False(t, base.Conditions().Passed(best(0), 1000), "base must still have no condition")

	_, err = a.Calculate(context.Background())
	require.NoError(t, err)
	_, err = b.Calculate(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 4, evalA.calls.Load())
	assert.EqualValues(t, 8, evalB.calls.Load())
}

func TestConditionsDefaultsToNever(t *testing.T) {
	c := New[point]().Conditions()
	require.NotNil(t, c)
	assert.False(t, c.Passed(best(1e9), 1e9))

	limit := MaxGenerations[point](1)
	assert.True(t, New[point]().WithConditions(limit).Conditions().Passed(best(0), 1))
}

func TestZeroEvaFallsBackToDefaultStrategies(t *testing.T) {
	var e Eva[point]
	sol, err := e.WithGenerator(&countingGenerator{}).
		WithEvaluator(&countingEvaluator{}).
		WithPopulationSize(5).
		WithConditions(MaxGenerations[point](1)).
		Calculate(context.Background())

	require.NoError(t, err)
	assert.True(t, sol.Fitness.Ok())
}

func TestConcurrentCalculateOnSharedEva(t *testing.T) {
	alg := New[point]().
		WithGenerator(&countingGenerator{}).
		WithEvaluator(&countingEvaluator{}).
		WithPopulationSize(30).
		WithConditions(MaxGenerations[point](10))

	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func() {
			_, err := alg.Calculate(context.Background())
			errs <- err
		}()
	}
	for i := 0; i < 4; i++ {
		assert.NoError(t, <-errs)
	}
}
