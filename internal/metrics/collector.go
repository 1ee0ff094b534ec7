package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/evolution-core/pkg/eva"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Series recorded once per generation.
const (
	BestFitness   = "best_fitness"
	MeanFitness   = "mean_fitness"
	FitnessStdDev = "fitness_stddev"
	ValidRatio    = "valid_ratio"
)

// DefaultMaxPoints bounds each series when NewCollector gets no limit.
const DefaultMaxPoints = 10000

// Point is one value of a series.
type Point struct {
	Generation int       `json:"generation"`
	Timestamp  time.Time `json:"timestamp"`
	Value      float64   `json:"value"`
}

// Aggregation summarises the values of a series.
type Aggregation struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	P50    float64 `json:"p50"`
	P95    float64 `json:"p95"`
}

// Collector collects per-generation history of one run. It is safe for
// concurrent use.
type Collector struct {
	mu sync.RWMutex

	startTime time.Time
	maxPoints int

	// metric name -> points in recording order
	series map[string][]Point
}

// NewCollector creates a collector keeping at most maxPoints per series;
// older points are dropped first. maxPoints <= 0 means DefaultMaxPoints.
func NewCollector(maxPoints int) *Collector {
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	return &Collector{
		startTime: time.Now(),
		maxPoints: maxPoints,
		series:    make(map[string][]Point),
	}
}

// StartTime returns when the collector was created.
func (c *Collector) StartTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.startTime
}

// Record appends a value to the named series.
func (c *Collector) Record(name string, generation int, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recordUnsafe(name, generation, value, time.Now())
}

// RecordGeneration records the standard series for one generation. Series
// that are undefined for the generation (no valid individual) are skipped.
func (c *Collector) RecordGeneration(generation int, best eva.Fitness, stats eva.Stats) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if best.Ok() {
		c.recordUnsafe(BestFitness, generation, best.Score(), now)
	}
	if stats.Valid > 0 {
		c.recordUnsafe(MeanFitness, generation, stats.Mean, now)
		c.recordUnsafe(FitnessStdDev, generation, stats.StdDev, now)
	}
	if stats.Size > 0 {
		c.recordUnsafe(ValidRatio, generation, float64(stats.Valid)/float64(stats.Size), now)
	}
}

func (c *Collector) recordUnsafe(name string, generation int, value float64, at time.Time) {
	points := append(c.series[name], Point{Generation: generation, Timestamp: at, Value: value})
	if len(points) > c.maxPoints {
		points = append(points[:0:0], points[len(points)-c.maxPoints:]...)
	}
	c.series[name] = points
}

// Series returns a copy of the named series, or nil if nothing was recorded.
func (c *Collector) Series(name string) []Point {
	c.mu.RLock()
	defer c.mu.RUnlock()

	points := c.series[name]
	if points == nil {
		return nil
	}
	out := make([]Point, len(points))
	copy(out, points)
	return out
}

// Names returns the recorded series names in sorted order.
func (c *Collector) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.series))
	for name := range c.series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Aggregate summarises the named series. ok is false for an empty series.
func (c *Collector) Aggregate(name string) (agg Aggregation, ok bool) {
	c.mu.RLock()
	points := c.series[name]
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}
	c.mu.RUnlock()

	if len(values) == 0 {
		return Aggregation{}, false
	}
	return calculateAggregation(values), true
}

// calculateAggregation summarises values; it sorts values in place.
func calculateAggregation(values []float64) Aggregation {
	sort.Float64s(values)

	agg := Aggregation{
		Count: len(values),
		Min:   floats.Min(values),
		Max:   floats.Max(values),
		P50:   percentile(values, 0.50),
		P95:   percentile(values, 0.95),
	}
	if len(values) == 1 {
		agg.Mean = values[0]
		return agg
	}
	agg.Mean, agg.StdDev = stat.MeanStdDev(values, nil)
	return agg
}

// percentile interpolates linearly between the closest ranks of a sorted
// slice, so the median of an odd-length series is its middle value.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
