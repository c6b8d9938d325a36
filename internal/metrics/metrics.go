// Package metrics holds the Prometheus instrumentation for the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// HTTPRequestsTotal counts HTTP requests by pattern, method and status.
	HTTPRequestsTotal *prometheus.CounterVec
	// RequestLatency tracks HTTP request latency by pattern and method.
	RequestLatency *prometheus.HistogramVec
	// HTTPRequestsInFlight is the number of requests currently being served.
	HTTPRequestsInFlight prometheus.Gauge
	// ReportGenerations counts report generation attempts by outcome.
	ReportGenerations *prometheus.CounterVec
	// ReportGenerationDuration tracks end-to-end report generation time,
	// including the commit fetch and the model call.
	ReportGenerationDuration prometheus.Histogram
	// LoginsTotal counts completed OAuth logins by outcome.
	LoginsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics on a private registry.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"pattern", "method", "status"},
		),
		RequestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_latency_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"pattern", "method"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		ReportGenerations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "report_generations_total",
				Help:      "Total number of report generation attempts",
			},
			[]string{"outcome"},
		),
		ReportGenerationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "report_generation_duration_seconds",
				Help:      "Time to fetch commits and produce a report",
				Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
			},
		),
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logins_total",
				Help:      "Total number of completed OAuth logins",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.RequestLatency,
		m.HTTPRequestsInFlight,
		m.ReportGenerations,
		m.ReportGenerationDuration,
		m.LoginsTotal,
	)

	return m
}

// Handler returns the scrape endpoint handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one completed HTTP request.
func (m *Metrics) RecordHTTPRequest(pattern, method, status string, durationSeconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(pattern, method, status).Inc()
	m.RequestLatency.WithLabelValues(pattern, method).Observe(durationSeconds)
}

// RecordReportGeneration records a report generation attempt.
func (m *Metrics) RecordReportGeneration(outcome string, durationSeconds float64) {
	m.ReportGenerations.WithLabelValues(outcome).Inc()
	if outcome == "success" {
		m.ReportGenerationDuration.Observe(durationSeconds)
	}
}

// RecordLogin records a completed OAuth login attempt.
func (m *Metrics) RecordLogin(outcome string) {
	m.LoginsTotal.WithLabelValues(outcome).Inc()
}
