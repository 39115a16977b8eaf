package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	conditionBuildsTotal  *prometheus.CounterVec
	conditionBuildSeconds prometheus.Histogram
	warningsTotal         *prometheus.CounterVec
	modelsLoaded          prometheus.Gauge
}

// NewMetrics creates the server metrics on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		conditionBuildsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ratemod_condition_builds_total",
			Help: "Number of condition model builds by outcome.",
		}, []string{"outcome"}),
		conditionBuildSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ratemod_condition_build_duration_seconds",
			Help:    "Time spent building condition models.",
			Buckets: prometheus.DefBuckets,
		}),
		warningsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ratemod_warnings_total",
			Help: "Number of warning events emitted by kind.",
		}, []string{"kind"}),
		modelsLoaded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ratemod_models_loaded",
			Help: "Number of models currently registered.",
		}),
	}
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeBuild(outcome string, seconds float64) {
	m.conditionBuildsTotal.WithLabelValues(outcome).Inc()
	m.conditionBuildSeconds.Observe(seconds)
}

func (m *Metrics) countWarning(kind string) {
	m.warningsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) setModelsLoaded(n int) {
	m.modelsLoaded.Set(float64(n))
}
