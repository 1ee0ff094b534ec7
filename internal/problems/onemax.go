package problems

import (
	"context"
	"fmt"

	"github.com/GoSim-25-26J-441/evolution-core/pkg/config"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/eva"
)

// OneMaxParams are the params of the onemax problem. A zero MutationRate
// means 1/Length.
type OneMaxParams struct {
	Length       int     `yaml:"length"`
	MutationRate float64 `yaml:"mutation_rate"`
}

func (p OneMaxParams) validate() error {
	if p.Length < 1 {
		return fmt.Errorf("%w: length must be at least 1, got %d", ErrInvalidParams, p.Length)
	}
	if p.MutationRate < 0 || p.MutationRate > 1 {
		return fmt.Errorf("%w: mutation_rate must be between 0 and 1, got %f", ErrInvalidParams, p.MutationRate)
	}
	return nil
}

// OneMax maximises the number of ones in a bit string. The optimum scores
// Length.
type OneMax struct{}

func (o *OneMax) Name() string {
	return string(ProblemOneMax)
}

func (o *OneMax) Description() string {
	return "maximise the number of ones in a bit string"
}

func (o *OneMax) Solve(ctx context.Context, cfg *config.Config, report Reporter) (*Result, error) {
	params := OneMaxParams{Length: 32}
	if err := cfg.Problem.DecodeParams(&params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	if params.MutationRate == 0 {
		params.MutationRate = 1 / float64(params.Length)
	}

	rng := genomeSource(cfg)
	return solve(ctx, o.Name(), cfg, setup[bitString]{
		generator: eva.GeneratorFunc[bitString](func() bitString {
			return randomBitString(params.Length, params.MutationRate, rng)
		}),
		evaluator: eva.EvaluatorFunc[bitString](func(g bitString) eva.Fitness {
			return eva.NewFitness(float64(g.ones()))
		}),
		key:    bitString.String,
		render: bitString.String,
	}, report)
}
