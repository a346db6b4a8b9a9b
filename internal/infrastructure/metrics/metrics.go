// Package metrics exposes Prometheus instrumentation for the engagement
// pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the service registers.
type Metrics struct {
	registry *prometheus.Registry

	// Event bus
	EventsPublished *prometheus.CounterVec
	HandlerDuration *prometheus.HistogramVec
	HandlerFailures *prometheus.CounterVec

	// Evaluation queue
	EvalQueueDepth   prometheus.Gauge
	EvalQueueDropped prometheus.Counter
	Evaluations      *prometheus.CounterVec

	// HTTP
	HTTPRequestDuration *prometheus.HistogramVec

	// External dependencies
	GeneratorRequests *prometheus.CounterVec
	MailerSends       *prometheus.CounterVec

	// Notifications
	NotificationsCreated *prometheus.CounterVec

	// Scheduled jobs
	JobRuns     *prometheus.CounterVec
	JobDuration *prometheus.HistogramVec
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "engagement",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Domain events published, by event type.",
		}, []string{"event_type"}),

		HandlerDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "engagement",
			Subsystem: "events",
			Name:      "handler_duration_seconds",
			Help:      "Event handler execution time, by event type.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"event_type"}),

		HandlerFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "engagement",
			Subsystem: "events",
			Name:      "handler_failures_total",
			Help:      "Event handler failures after retries, by event type.",
		}, []string{"event_type"}),

		EvalQueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "engagement",
			Subsystem: "evaluation",
			Name:      "queue_depth",
			Help:      "Users currently waiting for flag and achievement evaluation.",
		}),

		EvalQueueDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "engagement",
			Subsystem: "evaluation",
			Name:      "queue_dropped_total",
			Help:      "Evaluation requests dropped because the queue was full.",
		}),

		Evaluations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "engagement",
			Subsystem: "evaluation",
			Name:      "runs_total",
			Help:      "Evaluation runs, by result.",
		}, []string{"result"}),

		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "engagement",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency, by method, route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),

		GeneratorRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "engagement",
			Subsystem: "generator",
			Name:      "requests_total",
			Help:      "Content generator calls, by outcome.",
		}, []string{"outcome"}),

		MailerSends: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "engagement",
			Subsystem: "mailer",
			Name:      "sends_total",
			Help:      "Report emails sent, by outcome.",
		}, []string{"outcome"}),

		NotificationsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "engagement",
			Subsystem: "notifications",
			Name:      "created_total",
			Help:      "Notifications created, by kind.",
		}, []string{"kind"}),

		JobRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "engagement",
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Scheduled job runs, by job and result.",
		}, []string{"job", "result"}),

		JobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "engagement",
			Subsystem: "scheduler",
			Name:      "job_duration_seconds",
			Help:      "Scheduled job execution time, by job.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
	}
}

// Handler returns the /metrics HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry for additional collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
