package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the executor's Prometheus collectors.
type Metrics struct {
	registry     *prometheus.Registry
	nodeVisits   *prometheus.CounterVec
	nodeDuration *prometheus.HistogramVec
	walks        *prometheus.CounterVec
	walkSteps    prometheus.Histogram
}

// NewMetrics creates the collectors on a dedicated registry, together with
// the Go runtime and process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		nodeVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatflow_node_visits_total",
				Help: "Total number of node invocations.",
			},
			[]string{"node"},
		),
		nodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chatflow_node_duration_seconds",
				Help:    "Duration of node invocations, completion calls included.",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
			[]string{"node"},
		),
		walks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chatflow_walks_total",
				Help: "Finished walks by final status.",
			},
			[]string{"status"},
		),
		walkSteps: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "chatflow_walk_steps",
				Help:    "Node invocations per finished walk.",
				Buckets: prometheus.LinearBuckets(1, 2, 13),
			},
		),
	}
	m.registry.MustRegister(
		m.nodeVisits,
		m.nodeDuration,
		m.walks,
		m.walkSteps,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the registry, e.g. for tests or extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.nodeVisits.WithLabelValues(e.Node).Inc()
		},
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) {
			m.nodeDuration.WithLabelValues(e.Node).Observe(e.Duration.Seconds())
		},
		OnWalkEnd: func(_ context.Context, e *domain.WalkEvent) {
			m.walks.WithLabelValues(string(e.Status)).Inc()
			m.walkSteps.Observe(float64(e.Steps))
		},
	}
}
