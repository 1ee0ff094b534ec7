package eva

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GoSim-25-26J-441/evolution-core/pkg/logger"
)

// Timed bounds the wall-clock time of a wrapped Algorithm.
type Timed[G any] struct {
	algorithm Algorithm[G]
	deadline  time.Duration
}

// NewTimed wraps a default Eva with the given deadline.
func NewTimed[G Genome[G]](deadline time.Duration) Timed[G] {
	return NewTimedAlgorithm[G](New[G](), deadline)
}

// NewTimedAlgorithm wraps algorithm with the given deadline.
func NewTimedAlgorithm[G any](algorithm Algorithm[G], deadline time.Duration) Timed[G] {
	return Timed[G]{algorithm: algorithm, deadline: deadline}
}

// Deadline returns the configured bound.
func (t Timed[G]) Deadline() time.Duration {
	return t.deadline
}

// Name returns the wrapped algorithm's name decorated with the deadline.
func (t Timed[G]) Name() string {
	return fmt.Sprintf("timed(%s, %s)", t.algorithmName(), t.deadline)
}

func (t Timed[G]) algorithmName() string {
	if t.algorithm == nil {
		return "<nil>"
	}
	return t.algorithm.Name()
}

// Conditions returns the wrapped algorithm's stopping condition.
func (t Timed[G]) Conditions() Condition[G] {
	if t.algorithm == nil {
		return Never[G]()
	}
	return t.algorithm.Conditions()
}

type calculation[G any] struct {
	solution Solution[G]
	err      error
}

// Calculate runs the wrapped algorithm and fails with a
// *DeadlineExceededError if it has not returned within the deadline.
//
// The wrapped run gets a context that is cancelled at the deadline, but it is
// not interrupted: it stops whenever it next checks the context and its late
// result is discarded. When the deadline fires, a successful result that was
// already delivered still wins.
func (t Timed[G]) Calculate(ctx context.Context) (Solution[G], error) {
	var zero Solution[G]

	if t.algorithm == nil {
		return zero, fmt.Errorf("%w: timed algorithm has nothing to wrap", ErrConfiguration)
	}
	if t.deadline <= 0 {
		return zero, fmt.Errorf("%w: deadline must be positive, got %s", ErrConfiguration, t.deadline)
	}

	runCtx, cancel := context.WithTimeout(ctx, t.deadline)
	defer cancel()

	// Buffered so an abandoned run never blocks on send.
	done := make(chan calculation[G], 1)
	go func() {
		solution, err := t.algorithm.Calculate(runCtx)
		done <- calculation[G]{solution: solution, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && t.expired(ctx, runCtx) {
			return zero, t.deadlineExceeded()
		}
		return res.solution, res.err
	case <-runCtx.Done():
		return t.timedOut(ctx, done)
	}
}

// timedOut settles a run whose context is done. A successful result that is
// already waiting in done wins over the deadline.
func (t Timed[G]) timedOut(ctx context.Context, done <-chan calculation[G]) (Solution[G], error) {
	var zero Solution[G]

	select {
	case res := <-done:
		if res.err == nil {
			return res.solution, nil
		}
	default:
	}

	if ctx.Err() != nil {
		return zero, ctx.Err()
	}
	return zero, t.deadlineExceeded()
}

// expired reports whether our own deadline, not the caller's context, ended
// the run.
func (t Timed[G]) expired(parent, run context.Context) bool {
	return parent.Err() == nil && errors.Is(run.Err(), context.DeadlineExceeded)
}

func (t Timed[G]) deadlineExceeded() error {
	logger.Warn("algorithm deadline exceeded", "algorithm", t.algorithmName(), "deadline", t.deadline.String())
	return &DeadlineExceededError{Algorithm: t.algorithmName(), Deadline: t.deadline}
}

// with applies a With* call to the wrapped algorithm. Without one the
// receiver is returned as is and Calculate reports the missing algorithm.
func (t Timed[G]) with(apply func(Algorithm[G]) Algorithm[G]) Algorithm[G] {
	if t.algorithm == nil {
		return t
	}
	return Timed[G]{algorithm: apply(t.algorithm), deadline: t.deadline}
}

func (t Timed[G]) WithEvaluator(evaluator FitnessEvaluator[G]) Algorithm[G] {
	return t.with(func(a Algorithm[G]) Algorithm[G] { return a.WithEvaluator(evaluator) })
}

func (t Timed[G]) WithGenerator(generator SolutionsGenerator[G]) Algorithm[G] {
	return t.with(func(a Algorithm[G]) Algorithm[G] { return a.WithGenerator(generator) })
}

func (t Timed[G]) WithConditions(conditions Condition[G]) Algorithm[G] {
	return t.with(func(a Algorithm[G]) Algorithm[G] { return a.WithConditions(conditions) })
}

func (t Timed[G]) WithSelection(selection Selection[G]) Algorithm[G] {
	return t.with(func(a Algorithm[G]) Algorithm[G] { return a.WithSelection(selection) })
}

func (t Timed[G]) WithBestSelection(best BestSelection[G]) Algorithm[G] {
	return t.with(func(a Algorithm[G]) Algorithm[G] { return a.WithBestSelection(best) })
}

func (t Timed[G]) WithReplacement(replacement GenerationReplacement[G]) Algorithm[G] {
	return t.with(func(a Algorithm[G]) Algorithm[G] { return a.WithReplacement(replacement) })
}

func (t Timed[G]) WithPopulationSize(size int) Algorithm[G] {
	return t.with(func(a Algorithm[G]) Algorithm[G] { return a.WithPopulationSize(size) })
}

func (t Timed[G]) WithSeed(seed int64) Algorithm[G] {
	return t.with(func(a Algorithm[G]) Algorithm[G] { return a.WithSeed(seed) })
}

func (t Timed[G]) WithProgress(reporter ProgressReporter[G]) Algorithm[G] {
	return t.with(func(a Algorithm[G]) Algorithm[G] { return a.WithProgress(reporter) })
}
