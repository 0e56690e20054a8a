// Package metrics holds the Prometheus collectors for the screener backend.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns its registry so several servers (and tests) can coexist in
// one process.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec   // labels: route, code
	HTTPDuration *prometheus.HistogramVec // labels: route

	UpstreamRequests *prometheus.CounterVec   // labels: provider, endpoint, outcome
	UpstreamDuration *prometheus.HistogramVec // labels: provider, endpoint

	IndicatorsAbsent *prometheus.CounterVec // labels: indicator

	RecorderErrors prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_http_requests_total",
			Help: "HTTP requests served, by route pattern and status code",
		}, []string{"route", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "screener_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),

		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_upstream_requests_total",
			Help: "Calls to data providers, by outcome (ok or error)",
		}, []string{"provider", "endpoint", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "screener_upstream_duration_seconds",
			Help:    "Data provider call latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider", "endpoint"}),

		IndicatorsAbsent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "screener_indicators_absent_total",
			Help: "Chart responses where an indicator lacked history",
		}, []string{"indicator"}),

		RecorderErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "screener_recorder_errors_total",
			Help: "Chart snapshots that failed to persist",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.IndicatorsAbsent,
		m.RecorderErrors,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveUpstream records one provider call that started at start.
func (m *Metrics) ObserveUpstream(provider, endpoint string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.UpstreamRequests.WithLabelValues(provider, endpoint, outcome).Inc()
	m.UpstreamDuration.WithLabelValues(provider, endpoint).Observe(time.Since(start).Seconds())
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route, code string, d time.Duration) {
	m.HTTPRequests.WithLabelValues(route, code).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(d.Seconds())
}
