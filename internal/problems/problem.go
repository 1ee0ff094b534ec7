package problems

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/GoSim-25-26J-441/evolution-core/pkg/config"
	"github.com/GoSim-25-26J-441/evolution-core/pkg/eva"
)

// ErrInvalidParams is returned when a problem's params cannot be used.
var ErrInvalidParams = errors.New("invalid problem params")

// Problem is a benchmark that can be solved by the evolutionary algorithm.
type Problem interface {
	// Name returns the registry name of the problem.
	Name() string

	// Description returns a one-line summary for listings.
	Description() string

	// Solve runs the algorithm configured by cfg. report, if not nil, is
	// called once per generation.
	Solve(ctx context.Context, cfg *config.Config, report Reporter) (*Result, error)
}

// ProblemType represents the registry name of a problem
type ProblemType string

const (
	// ProblemTarget searches an integer range for a target value
	ProblemTarget ProblemType = "target"
	// ProblemOneMax maximises the number of ones in a bit string
	ProblemOneMax ProblemType = "onemax"
	// ProblemKnapsack packs the most valuable items under a weight limit
	ProblemKnapsack ProblemType = "knapsack"
)

// Progress is a per-generation snapshot handed to a Reporter.
type Progress struct {
	Generation int
	Best       string
	Fitness    eva.Fitness
	Stats      eva.Stats
}

// Reporter receives progress snapshots.
type Reporter func(Progress)

// Result is the outcome of a successful Solve.
type Result struct {
	Problem     string
	Algorithm   string
	Best        string
	Fitness     eva.Fitness
	Generations int
	Evaluations uint64
	CacheHits   uint64
	Elapsed     time.Duration
}

// NewProblem creates a problem from its registry name
func NewProblem(name string) (Problem, error) {
	switch ProblemType(name) {
	case ProblemTarget:
		return &Target{}, nil
	case ProblemOneMax:
		return &OneMax{}, nil
	case ProblemKnapsack:
		return &Knapsack{}, nil
	default:
		return nil, &UnknownProblemError{Name: name}
	}
}

// Names returns the registered problem names in sorted order.
func Names() []string {
	names := []string{string(ProblemTarget), string(ProblemOneMax), string(ProblemKnapsack)}
	sort.Strings(names)
	return names
}

// Solve looks up cfg.Problem.Name and solves it.
func Solve(ctx context.Context, cfg *config.Config, report Reporter) (*Result, error) {
	p, err := NewProblem(cfg.Problem.Name)
	if err != nil {
		return nil, err
	}
	return p.Solve(ctx, cfg, report)
}

// UnknownProblemError indicates an unknown problem name
type UnknownProblemError struct {
	Name string
}

func (e *UnknownProblemError) Error() string {
	return "unknown problem: " + e.Name
}
