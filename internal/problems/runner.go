package problems

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/GoSim-25-26J-441/evolution-core/pkg/config"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/eva"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/logger"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/utils"
)

// setup is what a problem contributes to a run; everything else comes from
// the config.
type setup[G eva.Genome[G]] struct {
	generator eva.SolutionsGenerator[G]
	evaluator eva.FitnessEvaluator[G]
	key       func(G) string
	render    func(G) string
}

type countingEvaluator[G any] struct {
	inner eva.FitnessEvaluator[G]
	calls atomic.Uint64
}

func (c *countingEvaluator[G]) Evaluate(genome G) eva.Fitness {
	c.calls.Add(1)
	return c.inner.Evaluate(genome)
}

// genomeSource returns the chance source used by generators and genomes.
// It is derived from the run seed so a seeded run is reproducible.
func genomeSource(cfg *config.Config) *utils.RandSource {
	if cfg.Seed == 0 {
		return utils.NewRandSource(0)
	}
	return utils.NewRandSource(cfg.Seed*31 + 17)
}

// conditions combines the configured stopping conditions with Any.
func conditions[G any](stop *config.Stop) eva.Condition[G] {
	var cs []eva.Condition[G]
	if stop.TargetFitness != nil {
		cs = append(cs, eva.FitnessAtLeast[G](*stop.TargetFitness))
	}
	if stop.MaxGenerations > 0 {
		cs = append(cs, eva.MaxGenerations[G](stop.MaxGenerations))
	}
	if stop.Stagnation != nil {
		cs = append(cs, eva.Stagnation[G](stop.Stagnation.Window, stop.Stagnation.Tolerance))
	}
	if len(cs) == 0 {
		return eva.Never[G]()
	}
	return eva.Any(cs...)
}

func solve[G eva.Genome[G]](ctx context.Context, name string, cfg *config.Config, s setup[G], report Reporter) (*Result, error) {
	deadline, err := cfg.GetDeadline()
	if err != nil {
		return nil, fmt.Errorf("%s: invalid deadline: %w", name, err)
	}
	ttl, err := cfg.Cache.GetTTL()
	if err != nil {
		return nil, fmt.Errorf("%s: invalid cache ttl: %w", name, err)
	}

	counter := &countingEvaluator[G]{inner: s.evaluator}
	var evaluator eva.FitnessEvaluator[G] = counter
	var cached *eva.CachedEvaluator[G]
	if cfg.Cache.Enabled {
		cached = eva.NewCachedEvaluator[G](counter, s.key, ttl)
		evaluator = cached
	}

	var generations atomic.Int64
	alg := eva.New[G]().
		WithGenerator(s.generator).
		WithEvaluator(evaluator).
		WithConditions(conditions[G](&cfg.Stop)).
		WithReplacement(eva.ElitistReplacement[G]{Elites: cfg.Replacement.Elites}).
		WithPopulationSize(cfg.PopulationSize).
		WithSeed(cfg.Seed).
		WithProgress(func(generation int, best eva.Solution[G], stats eva.Stats) {
			generations.Store(int64(generation))
			if report != nil {
				report(Progress{
					Generation: generation,
					Best:       s.render(best.Genome),
					Fitness:    best.Fitness,
					Stats:      stats,
				})
			}
		})
	if deadline > 0 {
		alg = eva.NewTimedAlgorithm(alg, deadline)
	}

	log := logger.With("problem", name, "algorithm", alg.Name())
	log.Info("run started", "population_size", cfg.PopulationSize, "seed", cfg.Seed, "cache", cfg.Cache.Enabled)

	start := time.Now()
	best, err := alg.Calculate(ctx)
	elapsed := time.Since(start)
	if err != nil {
		log.Warn("run failed", "error", err, "elapsed", elapsed)
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	res := &Result{
		Problem:     name,
		Algorithm:   alg.Name(),
		Best:        s.render(best.Genome),
		Fitness:     best.Fitness,
		Generations: int(generations.Load()),
		Evaluations: counter.calls.Load(),
		Elapsed:     elapsed,
	}
	if cached != nil {
		res.CacheHits = cached.Hits()
	}

	log.Info("run finished",
		"best", res.Best,
		"fitness", res.Fitness.String(),
		"generations", res.Generations,
		"evaluations", res.Evaluations,
		"cache_hits", res.CacheHits,
		"elapsed", elapsed)
	return res, nil
}
