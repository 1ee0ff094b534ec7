package eva

import (
	"sync"

	"gonum.org/v1/gonum/stat"
)

// Condition decides whether the generational loop should stop, given the
// best solution of the current generation and its index (0 for the initial
// population).
type Condition[G any] interface {
	Passed(best Solution[G], generation int) bool
}

// ConditionFunc adapts a function to Condition.
type ConditionFunc[G any] func(best Solution[G], generation int) bool

func (f ConditionFunc[G]) Passed(best Solution[G], generation int) bool {
	return f(best, generation)
}

// Never is a Condition that is never satisfied.
func Never[G any]() Condition[G] {
	return ConditionFunc[G](func(Solution[G], int) bool { return false })
}

// All is satisfied when every condition is. With no conditions it is never
// satisfied.
func All[G any](conditions ...Condition[G]) Condition[G] {
	if len(conditions) == 0 {
		return Never[G]()
	}
	return ConditionFunc[G](func(best Solution[G], generation int) bool {
		for _, c := range conditions {
			if !c.Passed(best, generation) {
				return false
			}
		}
		return true
	})
}

// Any is satisfied as soon as one condition is. Conditions are evaluated in
// order and evaluation stops at the first satisfied one.
func Any[G any](conditions ...Condition[G]) Condition[G] {
	return ConditionFunc[G](func(best Solution[G], generation int) bool {
		for _, c := range conditions {
			if c.Passed(best, generation) {
				return true
			}
		}
		return false
	})
}

// FitnessAtLeast is satisfied when the best fitness is valid and reaches score.
func FitnessAtLeast[G any](score float64) Condition[G] {
	return ConditionFunc[G](func(best Solution[G], _ int) bool {
		return best.Fitness.Ok() && best.Fitness.Score() >= score
	})
}

// MaxGenerations is satisfied once n generations have been bred.
func MaxGenerations[G any](n int) Condition[G] {
	return ConditionFunc[G](func(_ Solution[G], generation int) bool {
		return generation >= n
	})
}

// StagnationCondition is satisfied when the standard deviation of the best
// valid score over the last Window generations is at most Tolerance.
//
// It keeps a history and resets it whenever generation 0 is observed, so one
// instance must not be shared by concurrently running algorithms.
type StagnationCondition[G any] struct {
	Window    int
	Tolerance float64

	mu      sync.Mutex
	history []float64
}

// Stagnation returns a StagnationCondition. A window below 2 is raised to 2.
func Stagnation[G any](window int, tolerance float64) *StagnationCondition[G] {
	if window < 2 {
		window = 2
	}
	return &StagnationCondition[G]{Window: window, Tolerance: tolerance}
}

func (s *StagnationCondition[G]) Passed(best Solution[G], generation int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation == 0 {
		s.history = s.history[:0]
	}
	if !best.Fitness.Ok() {
		return false
	}

	s.history = append(s.history, best.Fitness.Score())
	if len(s.history) > s.Window {
		s.history = s.history[len(s.history)-s.Window:]
	}
	if len(s.history) < s.Window {
		return false
	}
	return stat.StdDev(s.history, nil) <= s.Tolerance
}
