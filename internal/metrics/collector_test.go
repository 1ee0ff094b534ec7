package metrics

import (
	"sync"
	"testing"

	"github.com/GoSim-25-26J-441/evolution-core/pkg/eva"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecordAndSeries(t *testing.T) {
	c := NewCollector(0)

	assert.Nil(t, c.Series(BestFitness))

	c.Record(BestFitness, 0, -9)
	c.Record(BestFitness, 1, -4)
	c.Record(BestFitness, 2, 0)

	points := c.Series(BestFitness)
	require.Len(t, points, 3)
	assert.Equal(t, 1, points[1].Generation)
	assert.Equal(t, -4.0, points[1].Value)
	assert.False(t, points[0].Timestamp.IsZero())

	points[0].Value = 100
	assert.Equal(t, -9.0, c.Series(BestFitness)[0].Value, "Series returns a copy")
}

func TestCollectorRecordGeneration(t *testing.T) {
	c := NewCollector(0)

	c.RecordGeneration(0, eva.InvalidFitness(), eva.Stats{Size: 4})
	c.RecordGeneration(1, eva.NewFitness(3), eva.Stats{Size: 4, Valid: 2, Mean: 2, StdDev: 1.5})

	assert.Len(t, c.Series(BestFitness), 1)
	assert.Len(t, c.Series(MeanFitness), 1)
	assert.Len(t, c.Series(FitnessStdDev), 1)

	ratios := c.Series(ValidRatio)
	require.Len(t, ratios, 2)
	assert.Equal(t, 0.0, ratios[0].Value)
	assert.Equal(t, 0.5, ratios[1].Value)

	assert.Equal(t, []string{BestFitness, FitnessStdDev, MeanFitness, ValidRatio}, c.Names())
}

func TestCollectorMaxPoints(t *testing.T) {
	c := NewCollector(3)
	for g := 0; g < 10; g++ {
		c.Record(BestFitness, g, float64(g))
	}

	points := c.Series(BestFitness)
	require.Len(t, points, 3)
	assert.Equal(t, 7, points[0].Generation)
	assert.Equal(t, 9, points[2].Generation)
}

func TestCollectorAggregate(t *testing.T) {
	c := NewCollector(0)

	_, ok := c.Aggregate(BestFitness)
	assert.False(t, ok)

	for g, v := range []float64{5, 1, 3, 2, 4} {
		c.Record(BestFitness, g, v)
	}

	agg, ok := c.Aggregate(BestFitness)
	require.True(t, ok)
	assert.Equal(t, 5, agg.Count)
	assert.Equal(t, 1.0, agg.Min)
	assert.Equal(t, 5.0, agg.Max)
	assert.Equal(t, 3.0, agg.Mean)
	assert.InDelta(t, 1.5811, agg.StdDev, 1e-4)
	assert.Equal(t, 3.0, agg.P50)
	assert.InDelta(t, 4.8, agg.P95, 1e-9)

	// Aggregation must not reorder the stored series.
	assert.Equal(t, 5.0, c.Series(BestFitness)[0].Value)
}

func TestCollectorAggregateEvenCount(t *testing.T) {
	c := NewCollector(0)
	for g, v := range []float64{40, 10, 30, 20} {
		c.Record(BestFitness, g, v)
	}

	agg, ok := c.Aggregate(BestFitness)
	require.True(t, ok)
	assert.InDelta(t, 25.0, agg.P50, 1e-9)
	assert.InDelta(t, 38.5, agg.P95, 1e-9)
}

func TestCollectorAggregateSinglePoint(t *testing.T) {
	c := NewCollector(0)
	c.Record(MeanFitness, 0, 7)

	agg, ok := c.Aggregate(MeanFitness)
	require.True(t, ok)
	assert.Equal(t, Aggregation{Count: 1, Min: 7, Max: 7, Mean: 7, P50: 7, P95: 7}, agg)
}

func TestCollectorConcurrentRecord(t *testing.T) {
	c := NewCollector(0)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for g := 0; g < 100; g++ {
				c.RecordGeneration(g, eva.NewFitness(float64(g)), eva.Stats{Size: 1, Valid: 1, Mean: float64(g)})
				_, _ = c.Aggregate(BestFitness)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, c.Series(BestFitness), 800)
}
