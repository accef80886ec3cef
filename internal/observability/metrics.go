// Package observability groups the Prometheus instruments for the bridge.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the bridge.
type Metrics struct {
	registry *prometheus.Registry

	Writes          *prometheus.CounterVec
	Recalls         prometheus.Counter
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics builds instruments on a private registry so repeated
// construction (tests, embedded use) cannot collide.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		Writes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_writes_total",
			Help:      "Memory write attempts by outcome.",
		}, []string{"outcome"}),
		Recalls: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_recalls_total",
			Help:      "Memory recall queries served.",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Bridge request latency by route.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"route"}),
	}
}

// Handler exposes the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
