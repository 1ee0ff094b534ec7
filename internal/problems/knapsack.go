package problems

import (
	"context"
	"fmt"

	"github.com/GoSim-25-26J-441/evolution-core/pkg/config"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/eva"
)

// Item is a knapsack item.
type Item struct {
	Weight float64 `yaml:"weight"`
	Value  float64 `yaml:"value"`
}

// KnapsackParams are the params of the knapsack problem. A zero
// MutationRate means 1/len(Items).
type KnapsackParams struct {
	Capacity     float64 `yaml:"capacity"`
	Items        []Item  `yaml:"items"`
	MutationRate float64 `yaml:"mutation_rate"`
}

func (p KnapsackParams) validate() error {
	if p.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive, got %g", ErrInvalidParams, p.Capacity)
	}
	if len(p.Items) == 0 {
		return fmt.Errorf("%w: at least one item must be defined", ErrInvalidParams)
	}
	for i, it := range p.Items {
		if it.Weight <= 0 {
			return fmt.Errorf("%w: item %d: weight must be positive, got %g", ErrInvalidParams, i, it.Weight)
		}
		if it.Value < 0 {
			return fmt.Errorf("%w: item %d: value cannot be negative, got %g", ErrInvalidParams, i, it.Value)
		}
	}
	if p.MutationRate < 0 || p.MutationRate > 1 {
		return fmt.Errorf("%w: mutation_rate must be between 0 and 1, got %f", ErrInvalidParams, p.MutationRate)
	}
	return nil
}

// packing returns the total weight and value of the selected items.
func (p KnapsackParams) packing(g bitString) (weight, value float64) {
	for i, in := range g.bits {
		if in {
			weight += p.Items[i].Weight
			value += p.Items[i].Value
		}
	}
	return weight, value
}

// evaluate scores a selection by its total value. An overweight selection
// has no valid fitness.
func (p KnapsackParams) evaluate(g bitString) eva.Fitness {
	weight, value := p.packing(g)
	if weight > p.Capacity {
		return eva.InvalidFitness()
	}
	return eva.NewFitness(value)
}

func (p KnapsackParams) render(g bitString) string {
	var picked []int
	for i, in := range g.bits {
		if in {
			picked = append(picked, i)
		}
	}
	weight, value := p.packing(g)
	return fmt.Sprintf("items=%v weight=%g value=%g", picked, weight, value)
}

// Knapsack packs the most valuable subset of items whose total weight stays
// within capacity.
type Knapsack struct{}

func (k *Knapsack) Name() string {
	return string(ProblemKnapsack)
}

func (k *Knapsack) Description() string {
	return "pack the most valuable items under a weight limit"
}

func (k *Knapsack) Solve(ctx context.Context, cfg *config.Config, report Reporter) (*Result, error) {
	var params KnapsackParams
	if err := cfg.Problem.DecodeParams(&params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if err := params.validate(); err != nil {
		return nil, err
	}
	if params.MutationRate == 0 {
		params.MutationRate = 1 / float64(len(params.Items))
	}

	rng := genomeSource(cfg)
	return solve(ctx, k.Name(), cfg, setup[bitString]{
		generator: eva.GeneratorFunc[bitString](func() bitString {
			return randomBitString(len(params.Items), params.MutationRate, rng)
		}),
		evaluator: eva.EvaluatorFunc[bitString](params.evaluate),
		key:       bitString.String,
		render:    params.render,
	}, report)
}
