package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Upstream request outcomes recorded by the adapter clients.
const (
	OutcomeSuccess   = "success"
	OutcomeError     = "error"
	OutcomeMalformed = "malformed"
	OutcomeRelayed   = "relayed"
)

// Metrics holds the Prometheus counters and histograms for the gateway.
type Metrics struct {
	UpstreamRequests *prometheus.CounterVec   // labels: stage={nearest,occupancy}, outcome={success,error,malformed}
	UpstreamDuration *prometheus.HistogramVec // labels: stage={nearest,occupancy}

	Assessments         prometheus.Counter
	AssessmentsDegraded prometheus.Counter

	ProxyRequests *prometheus.CounterVec // labels: route, outcome={relayed,error}

	EventsPublished    prometheus.Counter
	EventPublishErrors prometheus.Counter
}

// NewMetrics creates and registers all gateway metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parkpulse",
			Name:      "upstream_requests_total",
			Help:      "Upstream requests by stage and outcome.",
		}, []string{"stage", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "parkpulse",
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"stage"}),
		Assessments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parkpulse",
			Name:      "assessments_total",
			Help:      "Completed locate-and-assess lookups.",
		}),
		AssessmentsDegraded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parkpulse",
			Name:      "assessments_degraded_total",
			Help:      "Lookups returned without an occupancy estimate.",
		}),
		ProxyRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "parkpulse",
			Name:      "proxy_requests_total",
			Help:      "Raw passthrough requests by route and outcome.",
		}, []string{"route", "outcome"}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parkpulse",
			Name:      "events_published_total",
			Help:      "Assessment events written to the sink topic.",
		}),
		EventPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parkpulse",
			Name:      "event_publish_errors_total",
			Help:      "Assessment events that failed to publish.",
		}),
	}

	prometheus.MustRegister(
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.Assessments,
		m.AssessmentsDegraded,
		m.ProxyRequests,
		m.EventsPublished,
		m.EventPublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		UpstreamRequests:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "parkpulse", Name: "upstream_requests_total"}, []string{"stage", "outcome"}),
		UpstreamDuration:    prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "parkpulse", Name: "upstream_request_duration_seconds"}, []string{"stage"}),
		Assessments:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "parkpulse", Name: "assessments_total"}),
		AssessmentsDegraded: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "parkpulse", Name: "assessments_degraded_total"}),
		ProxyRequests:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "parkpulse", Name: "proxy_requests_total"}, []string{"route", "outcome"}),
		EventsPublished:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "parkpulse", Name: "events_published_total"}),
		EventPublishErrors:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "parkpulse", Name: "event_publish_errors_total"}),
	}
}
