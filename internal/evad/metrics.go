package evad

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServiceMetrics exports run counters in the Prometheus format. It observes
// the executor's EventHub.
type ServiceMetrics struct {
	registry *prometheus.Registry

	runsStarted  prometheus.Counter
	runsFinished *prometheus.CounterVec
	activeRuns   prometheus.Gauge
	generations  *prometheus.CounterVec
	evaluations  *prometheus.CounterVec
	bestFitness  *prometheus.GaugeVec

	mu     sync.Mutex
	active map[string]bool
}

func NewServiceMetrics() *ServiceMetrics {
	m := &ServiceMetrics{
		registry: prometheus.NewRegistry(),
		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "evolution_runs_started_total",
			Help: "Runs that entered the running status.",
		}),
		runsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evolution_runs_finished_total",
			Help: "Runs that reached a terminal status.",
		}, []string{"status"}),
		activeRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "evolution_runs_active",
			Help: "Runs currently running.",
		}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evolution_generations_total",
			Help: "Generations evaluated across all runs.",
		}, []string{"problem"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evolution_evaluations_total",
			Help: "Fitness evaluations of completed runs.",
		}, []string{"problem"}),
		bestFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "evolution_best_fitness",
			Help: "Latest valid best fitness per run.",
		}, []string{"run_id", "problem"}),
		active: make(map[string]bool),
	}

	m.registry.MustRegister(
		m.runsStarted,
		m.runsFinished,
		m.activeRuns,
		m.generations,
		m.evaluations,
		m.bestFitness,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the metrics are registered with.
func (m *ServiceMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics.
func (m *ServiceMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Observe updates the metrics from one run event.
func (m *ServiceMetrics) Observe(ev Event) {
	run := ev.Run
	switch ev.Type {
	case EventProgress:
		m.generations.WithLabelValues(run.Problem).Inc()
		if run.BestValid {
			m.bestFitness.WithLabelValues(run.ID, run.Problem).Set(run.BestScore)
		}

	case EventStatus:
		m.mu.Lock()
		defer m.mu.Unlock()

		switch {
		case run.Status == RunStatusRunning:
			if !m.active[run.ID] {
				m.active[run.ID] = true
				m.runsStarted.Inc()
				m.activeRuns.Inc()
			}
		case run.Status.Terminal():
			if m.active[run.ID] {
				delete(m.active, run.ID)
				m.activeRuns.Dec()
			}
			m.runsFinished.WithLabelValues(string(run.Status)).Inc()
			if run.Result != nil {
				m.evaluations.WithLabelValues(run.Problem).Add(float64(run.Result.Evaluations))
			}
		}
	}
}
