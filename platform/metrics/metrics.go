// Package metrics provides Prometheus metrics for the application.
// This is part of the platform layer and contains no business logic.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	LeadsCreated       prometheus.Counter
	DuplicatesDetected prometheus.Counter
	StatusTransitions  *prometheus.CounterVec
	LeadsArchived      prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		LeadsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "leads_created_total",
			Help: "Total number of leads created in the system",
		}),
		DuplicatesDetected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "leads_duplicates_detected_total",
			Help: "Total number of create calls answered with an existing lead",
		}),
		StatusTransitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "leads_status_transitions_total",
				Help: "Total number of lead status transitions",
			},
			[]string{"from", "to"},
		),
		LeadsArchived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "leads_archived_total",
			Help: "Total number of leads archived",
		}),
	}
}

// IncLeadsCreated increments the leads created counter by 1.
// All increment helpers are nil-safe so services can run without metrics in tests.
func (m *Metrics) IncLeadsCreated() {
	if m == nil {
		return
	}
	m.LeadsCreated.Inc()
}

// IncDuplicatesDetected increments the duplicate detection counter by 1.
func (m *Metrics) IncDuplicatesDetected() {
	if m == nil {
		return
	}
	m.DuplicatesDetected.Inc()
}

// IncStatusTransition records a status transition from one status to another.
func (m *Metrics) IncStatusTransition(from, to string) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(from, to).Inc()
}

// IncLeadsArchived increments the archived leads counter by 1.
func (m *Metrics) IncLeadsArchived() {
	if m == nil {
		return
	}
	m.LeadsArchived.Inc()
}
