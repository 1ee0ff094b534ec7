package evad

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/GoSim-25-26J-441/evolution-core/internal/problems"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/config"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/logger"
	"github.com/dustin/go-humanize"
)

// Solver runs one evolution. problems.Solve is the production implementation;
// tests inject their own.
type Solver interface {
	Solve(ctx context.Context, cfg *config.Config, report problems.Reporter) (*problems.Result, error)
}

// SolverFunc adapts a function to Solver.
type SolverFunc func(ctx context.Context, cfg *config.Config, report problems.Reporter) (*problems.Result, error)

func (f SolverFunc) Solve(ctx context.Context, cfg *config.Config, report problems.Reporter) (*problems.Result, error) {
	return f(ctx, cfg, report)
}

// RunExecutor manages asynchronous run execution and per-run cancellation.
type RunExecutor struct {
	store    *RunStore
	solver   Solver
	notifier *Notifier
	events   *EventHub
	metrics  *ServiceMetrics

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup

	// emitMu orders store updates with the events announcing them, so no
	// progress event follows a run's terminal status event.
	emitMu sync.Mutex
}

func NewRunExecutor(store *RunStore) *RunExecutor {
	e := &RunExecutor{
		store:    store,
		solver:   SolverFunc(problems.Solve),
		notifier: NewNotifier(),
		events:   NewEventHub(),
		metrics:  NewServiceMetrics(),
		cancels:  make(map[string]context.CancelFunc),
	}
	e.events.Forward(e.metrics.Observe)
	return e
}

// Events returns the hub run events are published on.
func (e *RunExecutor) Events() *EventHub {
	return e.events
}

// Metrics returns the service metrics fed by the executor's events.
func (e *RunExecutor) Metrics() *ServiceMetrics {
	return e.metrics
}

// SetSolver replaces the solver used by runs started afterwards.
func (e *RunExecutor) SetSolver(solver Solver) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.solver = solver
}

// SetNotifier replaces the notifier used for run callbacks.
func (e *RunExecutor) SetNotifier(n *Notifier) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notifier = n
}

// Submit parses configYAML, registers a run and starts it.
func (e *RunExecutor) Submit(runID, configYAML string) (Run, error) {
	return e.SubmitWithCallback(runID, configYAML, Callback{})
}

// SubmitWithCallback is Submit with a callback notified once the run reaches
// a terminal status.
func (e *RunExecutor) SubmitWithCallback(runID, configYAML string, cb Callback) (Run, error) {
	if err := ValidateCallbackURL(cb.URL); err != nil {
		return Run{}, err
	}
	cfg, err := config.ParseConfigYAMLString(configYAML)
	if err != nil {
		return Run{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := problems.NewProblem(cfg.Problem.Name); err != nil {
		return Run{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	run, err := e.store.Create(runID, configYAML, cfg)
	if err != nil {
		return Run{}, err
	}
	if err := e.store.setCallback(run.ID, cb); err != nil {
		return Run{}, err
	}
	logger.Info("run created", "run_id", run.ID, "problem", run.Problem)
	return e.Start(run.ID)
}

// Start begins executing a pending run asynchronously and returns its
// RUNNING snapshot. Starting a running run is a no-op.
func (e *RunExecutor) Start(runID string) (Run, error) {
	if runID == "" {
		return Run{}, ErrRunIDMissing
	}

	run, ok := e.store.Get(runID)
	if !ok {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	switch {
	case run.Status == RunStatusRunning:
		return run, nil
	case run.Status.Terminal():
		return Run{}, fmt.Errorf("%w: %s", ErrRunTerminal, runID)
	}

	cfg, _ := e.store.config(runID)
	updated, err := e.transition(runID, RunStatusRunning, "")
	if err != nil {
		return Run{}, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	if old, exists := e.cancels[runID]; exists {
		old()
	}
	e.cancels[runID] = cancel
	solver := e.solver
	e.mu.Unlock()

	e.wg.Add(1)
	go e.runEvolution(ctx, runID, cfg, solver)
	return updated, nil
}

// Stop requests cancellation of a run and marks it cancelled.
func (e *RunExecutor) Stop(runID string) (Run, error) {
	if runID == "" {
		return Run{}, ErrRunIDMissing
	}

	e.mu.Lock()
	cancel, ok := e.cancels[runID]
	e.mu.Unlock()

	if ok {
		cancel()
	}

	run, err := e.transition(runID, RunStatusCancelled, "")
	if err != nil {
		return run, err
	}
	e.finished(run)
	return run, nil
}

// transition moves a run to status and publishes the status event.
func (e *RunExecutor) transition(runID string, status RunStatus, errMsg string) (Run, error) {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()
	return e.transitionLocked(runID, status, errMsg)
}

func (e *RunExecutor) transitionLocked(runID string, status RunStatus, errMsg string) (Run, error) {
	run, err := e.store.SetStatus(runID, status, errMsg)
	if err != nil {
		return run, err
	}
	e.events.Publish(Event{Type: EventStatus, Run: run})
	return run, nil
}

// progress records a generation and publishes it unless the run has already
// ended.
func (e *RunExecutor) progress(runID string, p problems.Progress) error {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()

	if err := e.store.SetProgress(runID, p); err != nil {
		return err
	}
	if run, ok := e.store.Get(runID); ok {
		e.events.Publish(Event{Type: EventProgress, Run: run})
	}
	return nil
}

// complete stores the result and marks the run completed in one step, so a
// concurrent Stop either wins entirely or not at all.
func (e *RunExecutor) complete(runID string, res *problems.Result) (Run, error) {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()

	if err := e.store.SetResult(runID, res); err != nil {
		return Run{}, err
	}
	return e.transitionLocked(runID, RunStatusCompleted, "")
}

// finished hands a terminal run to its callback.
func (e *RunExecutor) finished(run Run) {
	e.mu.Lock()
	n := e.notifier
	e.mu.Unlock()
	if n != nil {
		n.Notify(e.store.callback(run.ID), run)
	}
}

// Shutdown cancels every active run and waits for them to return or for ctx
// to be done.
func (e *RunExecutor) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	ids := make([]string, 0, len(e.cancels))
	for id := range e.cancels {
		ids = append(ids, id)
	}
	e.mu.Unlock()

	for _, id := range ids {
		if _, err := e.Stop(id); err != nil && !errors.Is(err, ErrRunTerminal) {
			logger.Warn("failed to stop run during shutdown", "run_id", id, "error", err)
		}
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	e.mu.Lock()
	n := e.notifier
	e.mu.Unlock()
	if n != nil {
		return n.Close(ctx)
	}
	return nil
}

func (e *RunExecutor) cleanup(runID string) {
	e.mu.Lock()
	if cancel, ok := e.cancels[runID]; ok {
		cancel()
		delete(e.cancels, runID)
	}
	e.mu.Unlock()
}

func (e *RunExecutor) runEvolution(ctx context.Context, runID string, cfg *config.Config, solver Solver) {
	defer e.wg.Done()
	defer e.cleanup(runID)

	log := logger.With("run_id", runID, "problem", cfg.Problem.Name)
	log.Info("starting evolution")

	res, err := solver.Solve(ctx, cfg, func(p problems.Progress) {
		if err := e.progress(runID, p); err != nil {
			if errors.Is(err, ErrRunTerminal) {
				log.Debug("discarding progress of a finished run", "generation", p.Generation)
				return
			}
			log.Error("failed to record progress", "error", err)
		}
	})
	if err != nil {
		if ctx.Err() != nil {
			log.Info("evolution cancelled")
			return
		}
		log.Error("evolution failed", "error", err)
		run, setErr := e.transition(runID, RunStatusFailed, err.Error())
		if setErr != nil {
			log.Error("failed to set failed status", "error", setErr)
			return
		}
		e.finished(run)
		return
	}

	run, err := e.complete(runID, res)
	if err != nil {
		if errors.Is(err, ErrRunTerminal) {
			log.Debug("run finished after reaching a terminal status", "error", err)
			return
		}
		log.Error("failed to set completed status", "error", err)
		return
	}
	e.finished(run)

	log.Info("run completed",
		"best", res.Best,
		"fitness", res.Fitness.String(),
		"generations", humanize.Comma(int64(res.Generations)),
		"evaluations", humanize.Comma(int64(res.Evaluations)),
		"elapsed", res.Elapsed.String())
}
