package evad

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GoSim-25-26J-441/evolution-core/internal/metrics"
	"github.com/GoSim-25-26J-441/evolution-core/internal/problems"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/config"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/eva"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutorSubmitCompletes(t *testing.T) {
	store := NewRunStore()
	exec := NewRunExecutor(store)

	run, err := exec.Submit("run-1", quickConfig)
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, RunStatusRunning, run.Status)

	done := waitForStatus(t, store, "run-1", RunStatusCompleted)
	require.NotNil(t, done.Result)
	assert.Equal(t, "5", done.Result.Best)
	assert.Equal(t, "5", done.Best)
	assert.True(t, done.BestValid)
	assert.False(t, done.EndedAt.IsZero())

	require.NoError(t, exec.Shutdown(context.Background()))
}

func TestExecutorSubmitInvalidConfig(t *testing.T) {
	exec := NewRunExecutor(NewRunStore())

	_, err := exec.Submit("", "problem: [")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = exec.Submit("", "problem: {name: tsp}\nstop: {max_generations: 1}\n")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestExecutorSubmitDuplicate(t *testing.T) {
	store := NewRunStore()
	exec := NewRunExecutor(store)
	solver := newBlockingSolver()
	exec.SetSolver(solver)

	_, err := exec.Submit("run-1", quickConfig)
	require.NoError(t, err)
	_, err = exec.Submit("run-1", quickConfig)
	assert.ErrorIs(t, err, ErrRunExists)

	close(solver.release)
	waitForStatus(t, store, "run-1", RunStatusCompleted)
}

func TestExecutorRecordsProgress(t *testing.T) {
	store := NewRunStore()
	exec := NewRunExecutor(store)
	solver := newBlockingSolver()
	exec.SetSolver(solver)

	_, err := exec.Submit("run-1", quickConfig)
	require.NoError(t, err)
	<-solver.started

	run, _ := store.Get("run-1")
	assert.Equal(t, RunStatusRunning, run.Status)
	assert.Equal(t, "7", run.Best)
	assert.Equal(t, -4.0, run.BestScore)
	assert.Equal(t, -20.0, run.MeanFitness)

	close(solver.release)
	done := waitForStatus(t, store, "run-1", RunStatusCompleted)
	assert.Equal(t, 3, done.Generation)
}

func TestExecutorStop(t *testing.T) {
	store := NewRunStore()
	exec := NewRunExecutor(store)
	solver := newBlockingSolver()
	exec.SetSolver(solver)

	_, err := exec.Submit("run-1", quickConfig)
	require.NoError(t, err)
	<-solver.started

	stopped, err := exec.Stop("run-1")
	require.NoError(t, err)
	assert.Equal(t, RunStatusCancelled, stopped.Status)

	require.NoError(t, exec.Shutdown(context.Background()))
	run, _ := store.Get("run-1")
	assert.Equal(t, RunStatusCancelled, run.Status)
	assert.Nil(t, run.Result)

	_, err = exec.Stop("run-1")
	assert.ErrorIs(t, err, ErrRunTerminal)
	_, err = exec.Start("run-1")
	assert.ErrorIs(t, err, ErrRunTerminal)
}

func TestExecutorStartAndStopErrors(t *testing.T) {
	exec := NewRunExecutor(NewRunStore())

	_, err := exec.Start("")
	assert.ErrorIs(t, err, ErrRunIDMissing)
	_, err = exec.Start("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
	_, err = exec.Stop("")
	assert.ErrorIs(t, err, ErrRunIDMissing)
	_, err = exec.Stop("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestExecutorStartIsIdempotentWhileRunning(t *testing.T) {
	store := NewRunStore()
	exec := NewRunExecutor(store)
	solver := newBlockingSolver()
	exec.SetSolver(solver)

	_, err := exec.Submit("run-1", quickConfig)
	require.NoError(t, err)
	<-solver.started

	run, err := exec.Start("run-1")
	require.NoError(t, err)
	assert.Equal(t, RunStatusRunning, run.Status)

	close(solver.release)
	waitForStatus(t, store, "run-1", RunStatusCompleted)
	assert.Len(t, solver.started, 0, "solver ran once")
}

func TestExecutorSolverFailure(t *testing.T) {
	store := NewRunStore()
	exec := NewRunExecutor(store)
	exec.SetSolver(SolverFunc(func(ctx context.Context, cfg *config.Config, report problems.Reporter) (*problems.Result, error) {
		return nil, errors.New("evaluator exploded")
	}))

	_, err := exec.Submit("run-1", quickConfig)
	require.NoError(t, err)

	run := waitForStatus(t, store, "run-1", RunStatusFailed)
	assert.Equal(t, "evaluator exploded", run.Error)
}

func TestExecutorDeadlineFailsRun(t *testing.T) {
	store := NewRunStore()
	exec := NewRunExecutor(store)

	_, err := exec.Submit("run-1", `
population_size: 10
deadline: 20ms
problem: {name: onemax}
stop: {target_fitness: 1000}
`)
	require.NoError(t, err)

	run := waitForStatus(t, store, "run-1", RunStatusFailed)
	assert.Contains(t, run.Error, "deadline exceeded")
}

func TestExecutorShutdownCancelsRuns(t *testing.T) {
	store := NewRunStore()
	exec := NewRunExecutor(store)
	solver := newBlockingSolver()
	exec.SetSolver(solver)

	for _, id := range []string{"run-1", "run-2"} {
		_, err := exec.Submit(id, quickConfig)
		require.NoError(t, err)
		<-solver.started
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, exec.Shutdown(ctx))

	for _, id := range []string{"run-1", "run-2"} {
		run, _ := store.Get(id)
		assert.Equal(t, RunStatusCancelled, run.Status, id)
	}
}

func TestExecutorDiscardsReportsAfterStop(t *testing.T) {
	store := NewRunStore()
	exec := NewRunExecutor(store)

	started := make(chan struct{})
	done := make(chan struct{})
	exec.SetSolver(SolverFunc(func(ctx context.Context, cfg *config.Config, report problems.Reporter) (*problems.Result, error) {
		defer close(done)
		report(problems.Progress{Generation: 0, Best: "7", Fitness: eva.NewFitness(-4), Stats: eva.Stats{Size: 10, Valid: 10}})
		close(started)
		<-ctx.Done()
		// An abandoned computation keeps going and reports once more.
		report(problems.Progress{Generation: 99, Best: "late", Fitness: eva.NewFitness(0), Stats: eva.Stats{Size: 10, Valid: 10}})
		return &problems.Result{Best: "late", Fitness: eva.NewFitness(0), Generations: 99}, nil
	}))

	events, cancel := exec.Events().Subscribe("run-1", 16)
	defer cancel()

	_, err := exec.Submit("run-1", quickConfig)
	require.NoError(t, err)
	<-started

	_, err = exec.Stop("run-1")
	require.NoError(t, err)
	<-done
	require.NoError(t, exec.Shutdown(context.Background()))

	run, ok := store.Get("run-1")
	require.True(t, ok)
	assert.Equal(t, RunStatusCancelled, run.Status)
	assert.Equal(t, 0, run.Generation)
	assert.Equal(t, "7", run.Best)
	assert.Nil(t, run.Result)

	history, ok := store.History("run-1")
	require.True(t, ok)
	assert.Len(t, history.Series(metrics.BestFitness), 1)

	var seen []string
	for len(events) > 0 {
		ev := <-events
		seen = append(seen, string(ev.Type)+":"+string(ev.Run.Status))
	}
	assert.Equal(t, []string{"status:running", "progress:running", "status:cancelled"}, seen)
}
