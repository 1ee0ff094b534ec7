package evad

import (
	"context"
	"testing"
	"time"

	"github.com/GoSim-25-26J-441/evolution-core/internal/problems"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/config"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/eva"
	"github.com/stretchr/testify/require"
)

const quickConfig = `
seed: 1
population_size: 10
problem: {name: target, params: {target: 5, min: 0, max: 10}}
stop: {target_fitness: 0, max_generations: 200}
`

func mustParse(t *testing.T, yamlText string) *config.Config {
	t.Helper()
	cfg, err := config.ParseConfigYAMLString(yamlText)
	require.NoError(t, err)
	return cfg
}

// blockingSolver reports one generation and then waits for release or
// cancellation.
type blockingSolver struct {
	release chan struct{}
	started chan struct{}
}

func newBlockingSolver() *blockingSolver {
	return &blockingSolver{
		release: make(chan struct{}),
		started: make(chan struct{}, 16),
	}
}

func (b *blockingSolver) Solve(ctx context.Context, cfg *config.Config, report problems.Reporter) (*problems.Result, error) {
	report(problems.Progress{Generation: 0, Best: "7", Fitness: eva.NewFitness(-4), Stats: eva.Stats{Size: 10, Valid: 10, Mean: -20}})
	b.started <- struct{}{}
	select {
	case <-b.release:
		return &problems.Result{
			Problem:     cfg.Problem.Name,
			Algorithm:   "eva",
			Best:        "5",
			Fitness:     eva.NewFitness(0),
			Generations: 3,
			Evaluations: 40,
		}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func waitForStatus(t *testing.T, store *RunStore, runID string, want RunStatus) Run {
	t.Helper()
	var run Run
	require.Eventually(t, func() bool {
		var ok bool
		run, ok = store.Get(runID)
		return ok && run.Status == want
	}, 5*time.Second, 5*time.Millisecond, "run %s never reached %s", runID, want)
	return run
}
