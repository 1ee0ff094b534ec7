// Package eva implements a generic, representation-agnostic evolutionary
// algorithm.
//
// Callers supply a SolutionsGenerator and a FitnessEvaluator for their own
// Genome type and get back the best Solution found. Stopping conditions,
// parent selection, best-of-population selection and generation replacement
// are pluggable strategies with sensible defaults: two-way tournament
// selection, highest valid fitness, and full generational replacement.
//
// Configuration is an immutable value. Every With* method returns a new,
// independently configured algorithm and leaves the receiver untouched, so a
// shared base configuration can be branched freely:
//
//	base := eva.New[Route]().
//		WithGenerator(randomRoutes).
//		WithEvaluator(routeLength)
//	quick := base.WithConditions(eva.MaxGenerations[Route](50))
//	thorough := base.WithPopulationSize(500)
//
// Timed wraps any Algorithm with a wall-clock deadline and fails with a
// *DeadlineExceededError when the wrapped computation does not finish in time.
package eva
