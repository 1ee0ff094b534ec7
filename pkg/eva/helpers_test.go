package eva

import (
	"sync/atomic"

	"github.com/GoSim-25-26J-441/evolution-core/pkg/utils"
)

// point is an integer genome: crossover averages, mutation nudges by one.
type point int

func (p point) Crossover(partner point) point {
	return (p + partner) / 2
}

func (p point) Mutate() point {
	switch utils.Intn(4) {
	case 0:
		return p - 1
	case 1:
		return p + 1
	default:
		return p
	}
}

// countingGenerator yields 0..100 uniformly and counts its calls.
type countingGenerator struct {
	calls atomic.Int64
}

func (g *countingGenerator) Generate() point {
	g.calls.Add(1)
	return point(utils.IntRange(0, 100))
}

// countingEvaluator scores -(x-42)^2 and counts its calls.
type countingEvaluator struct {
	calls atomic.Int64
}

func (e *countingEvaluator) Evaluate(p point) Fitness {
	e.calls.Add(1)
	d := float64(p - 42)
	return NewFitness(-d * d)
}

func populationOf(rng *utils.RandSource, fitness ...Fitness) *Population[point] {
	p := NewPopulation[point](rng)
	for i, f := range fitness {
		p.AddIndividual(Solution[point]{Genome: point(i), Fitness: f})
	}
	return p
}
