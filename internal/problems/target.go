package problems

import (
	"context"
	"fmt"
	"strconv"

	"github.com/GoSim-25-26J-441/evolution-core/pkg/config"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/eva"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/utils"
)

// TargetParams are the params of the target problem.
type TargetParams struct {
	Target int `yaml:"target"`
	Min    int `yaml:"min"`
	Max    int `yaml:"max"`
	Step   int `yaml:"step"` // largest mutation step
}

// DefaultTargetParams returns the params used when none are configured.
func DefaultTargetParams() TargetParams {
	return TargetParams{Target: 42, Min: 0, Max: 100, Step: 1}
}

func (p TargetParams) validate() error {
	if p.Min >= p.Max {
		return fmt.Errorf("%w: min (%d) must be less than max (%d)", ErrInvalidParams, p.Min, p.Max)
	}
	if p.Target < p.Min || p.Target > p.Max {
		return fmt.Errorf("%w: target %d is outside [%d, %d]", ErrInvalidParams, p.Target, p.Min, p.Max)
	}
	if p.Step < 1 {
		return fmt.Errorf("%w: step must be at least 1, got %d", ErrInvalidParams, p.Step)
	}
	return nil
}

// integer is a bounded integer genome.
type integer struct {
	value int
	min   int
	max   int
	step  int
	rng   *utils.RandSource
}

// Crossover picks a value between both parents.
func (g integer) Crossover(partner integer) integer {
	lo, hi := g.value, partner.value
	if lo > hi {
		lo, hi = hi, lo
	}
	g.value = g.rng.IntRange(lo, hi)
	return g
}

// Mutate moves the value by at most step, staying within bounds.
func (g integer) Mutate() integer {
	g.value = utils.Clamp(g.value+g.rng.IntRange(-g.step, g.step), g.min, g.max)
	return g
}

func (g integer) String() string {
	return strconv.Itoa(g.value)
}

// Target searches [min, max] for an integer equal to target. Fitness is
// -(x-target)^2, so the optimum scores 0.
type Target struct{}

func (t *Target) Name() string {
	return string(ProblemTarget)
}

func (t *Target) Description() string {
	return "find an integer equal to a target value"
}

func (t *Target) Solve(ctx context.Context, cfg *config.Config, report Reporter) (*Result, error) {
	params := DefaultTargetParams()
	if err := cfg.Problem.DecodeParams(&params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	rng := genomeSource(cfg)
	return solve(ctx, t.Name(), cfg, setup[integer]{
		generator: eva.GeneratorFunc[integer](func() integer {
			return integer{
				value: rng.IntRange(params.Min, params.Max),
				min:   params.Min,
				max:   params.Max,
				step:  params.Step,
				rng:   rng,
			}
		}),
		evaluator: targetEvaluator(params.Target),
		key:       integer.String,
		render:    integer.String,
	}, report)
}

func targetEvaluator(target int) eva.EvaluatorFunc[integer] {
	return func(g integer) eva.Fitness {
		d := float64(g.value - target)
		return eva.NewFitness(-d * d)
	}
}
