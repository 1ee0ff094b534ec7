package evad

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/evolution-core/internal/metrics"
	"github.com/GoSim-25-26J-441/evolution-core/internal/problems"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/config"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/utils"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Terminal reports whether no further transition is possible.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled:
		return true
	}
	return false
}

// Run is a snapshot of one evolution run. Snapshots are copies and never
// change after they are returned.
type Run struct {
	ID         string
	Status     RunStatus
	Problem    string
	ConfigYAML string
	CreatedAt  time.Time
	StartedAt  time.Time
	EndedAt    time.Time
	Error      string

	// Latest progress, updated once per generation while running.
	Generation  int
	Best        string
	BestScore   float64
	BestValid   bool
	MeanFitness float64

	Result *problems.Result
}

type runRecord struct {
	run      Run
	cfg      *config.Config
	history  *metrics.Collector
	callback Callback
}

func (r *runRecord) snapshot() Run {
	out := r.run
	if r.run.Result != nil {
		res := *r.run.Result
		out.Result = &res
	}
	return out
}

// RunStore keeps runs in memory. It is safe for concurrent use.
type RunStore struct {
	mu   sync.RWMutex
	runs map[string]*runRecord
}

func NewRunStore() *RunStore {
	return &RunStore{
		runs: make(map[string]*runRecord),
	}
}

// Create registers a pending run. An empty runID gets a generated one.
func (s *RunStore) Create(runID, configYAML string, cfg *config.Config) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if runID == "" {
		runID = utils.GenerateRunID()
	}
	if _, exists := s.runs[runID]; exists {
		return Run{}, fmt.Errorf("%w: %s", ErrRunExists, runID)
	}

	rec := &runRecord{
		run: Run{
			ID:         runID,
			Status:     RunStatusPending,
			Problem:    cfg.Problem.Name,
			ConfigYAML: configYAML,
			CreatedAt:  time.Now().UTC(),
		},
		cfg:     cfg,
		history: metrics.NewCollector(0),
	}
	s.runs[runID] = rec
	return rec.snapshot(), nil
}

func (s *RunStore) Get(runID string) (Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.runs[runID]
	if !ok {
		return Run{}, false
	}
	return rec.snapshot(), true
}

func (s *RunStore) config(runID string) (*config.Config, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.runs[runID]
	if !ok {
		return nil, false
	}
	return rec.cfg, true
}

func (s *RunStore) setCallback(runID string, cb Callback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	rec.callback = cb
	return nil
}

func (s *RunStore) callback(runID string) Callback {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.runs[runID]; ok {
		return rec.callback
	}
	return Callback{}
}

// History returns the per-generation fitness history of a run.
func (s *RunStore) History(runID string) (*metrics.Collector, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.runs[runID]
	if !ok {
		return nil, false
	}
	return rec.history, true
}

// List returns up to limit runs, newest first. A limit of 0 or less means 50.
func (s *RunStore) List(limit int) []Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	out := make([]Run, 0, len(s.runs))
	for _, rec := range s.runs {
		out = append(out, rec.snapshot())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// SetStatus moves a run to status. A terminal run cannot change status.
func (s *RunStore) SetStatus(runID string, status RunStatus, errMsg string) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[runID]
	if !ok {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if rec.run.Status.Terminal() {
		return rec.snapshot(), fmt.Errorf("%w: %s is %s", ErrRunTerminal, runID, rec.run.Status)
	}

	rec.run.Status = status
	if errMsg != "" {
		rec.run.Error = errMsg
	}

	switch {
	case status == RunStatusRunning:
		if rec.run.StartedAt.IsZero() {
			rec.run.StartedAt = time.Now().UTC()
		}
	case status.Terminal():
		rec.run.EndedAt = time.Now().UTC()
	}

	return rec.snapshot(), nil
}

// SetProgress records the latest generation snapshot of a run and appends it
// to the run history. Reports for a terminal run fail with ErrRunTerminal.
func (s *RunStore) SetProgress(runID string, p problems.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if rec.run.Status.Terminal() {
		return fmt.Errorf("%w: %s is %s", ErrRunTerminal, runID, rec.run.Status)
	}
	rec.run.Generation = p.Generation
	rec.run.Best = p.Best
	rec.run.BestScore = p.Fitness.Score()
	rec.run.BestValid = p.Fitness.Ok()
	rec.run.MeanFitness = p.Stats.Mean
	rec.history.RecordGeneration(p.Generation, p.Fitness, p.Stats)
	return nil
}

// SetResult records the outcome of a finished run. Like SetProgress it
// rejects runs that are already terminal.
func (s *RunStore) SetResult(runID string, res *problems.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if rec.run.Status.Terminal() {
		return fmt.Errorf("%w: %s is %s", ErrRunTerminal, runID, rec.run.Status)
	}
	rec.run.Result = res
	rec.run.Generation = res.Generations
	rec.run.Best = res.Best
	rec.run.BestScore = res.Fitness.Score()
	rec.run.BestValid = res.Fitness.Ok()
	return nil
}
