package eva

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func best(score float64) Solution[point] {
	return Solution[point]{Genome: point(score), Fitness: NewFitness(score)}
}

func TestNever(t *testing.T) {
	c := Never[point]()
	for g := 0; g < 10; g++ {
		assert.False(t, c.Passed(best(1e9), g))
	}
}

func TestCompositeConditions(t *testing.T) {
	yes := ConditionFunc[point](func(Solution[point], int) bool { return true })
	no := Never[point]()

	assert.True(t, All[point](yes, yes).Passed(best(0), 0))
	assert.False(t, All[point](yes, no).Passed(best(0), 0))
	assert.False(t, All[point]().Passed(best(0), 0), "empty conjunction never stops the loop")

	assert.True(t, Any[point](no, yes).Passed(best(0), 0))
	assert.False(t, Any[point](no, no).Passed(best(0), 0))
	assert.False(t, Any[point]().Passed(best(0), 0))
}

func TestAnyShortCircuits(t *testing.T) {
	calls := 0
	counting := ConditionFunc[point](func(Solution[point], int) bool {
		calls++
		return false
	})
	yes := ConditionFunc[point](func(Solution[point], int) bool { return true })

	assert.True(t, Any[point](yes, counting).Passed(best(0), 0))
	assert.Zero(t, calls)
}

func TestFitnessAtLeast(t *testing.T) {
	c := FitnessAtLeast[point](0)

	assert.True(t, c.Passed(best(0), 0))
	assert.True(t, c.Passed(best(3), 0))
	assert.False(t, c.Passed(best(-1), 0))
	assert.False(t, c.Passed(Solution[point]{Fitness: InvalidFitness()}, 0))
}

func TestMaxGenerations(t *testing.T) {
	c := MaxGenerations[point](3)

	assert.False(t, c.Passed(best(0), 0))
	assert.False(t, c.Passed(best(0), 2))
	assert.True(t, c.Passed(best(0), 3))
	assert.True(t, c.Passed(best(0), 4))
}

func TestStagnation(t *testing.T) {
	c := Stagnation[point](3, 0)

	assert.False(t, c.Passed(best(-4), 0))
	assert.False(t, c.Passed(best(-1), 1))
	assert.False(t, c.Passed(best(-1), 2), "window still contains an improvement")
	assert.True(t, c.Passed(best(-1), 3))
	assert.False(t, c.Passed(best(0), 4))

	// Invalid bests are not recorded.
	assert.False(t, c.Passed(Solution[point]{Fitness: InvalidFitness()}, 5))

	// Generation 0 starts a new run.
	assert.False(t, c.Passed(best(-1), 0))
	assert.False(t, c.Passed(best(-1), 1))
	assert.True(t, c.Passed(best(-1), 2))
}

func TestStagnationTolerance(t *testing.T) {
	c := Stagnation[point](2, 1)

	assert.False(t, c.Passed(best(10), 0))
	assert.True(t, c.Passed(best(11), 1), "stddev of {10, 11} is within tolerance")
	assert.False(t, c.Passed(best(20), 2))
}

func TestStagnationMinimumWindow(t *testing.T) {
	c := Stagnation[point](0, 0)
	assert.Equal(t, 2, c.Window)
}
