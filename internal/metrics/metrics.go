// Package metrics exposes Prometheus collectors for the enrollment workflow.
// All methods are nil-safe so services can run without metrics in tests.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	DocumentDecisions     *prometheus.CounterVec
	DocumentUploads       *prometheus.CounterVec
	EnrollmentTransitions *prometheus.CounterVec
	RolePromotions        *prometheus.CounterVec
	ConsistencyViolations *prometheus.CounterVec
	EventsPublished       *prometheus.CounterVec
	DecisionLatency       prometheus.Histogram
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests
// to avoid duplicate registration against the default registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DocumentDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "enrollment_document_decisions_total",
			Help: "Manager decisions on documents, by type and decision.",
		}, []string{"document_type", "decision"}),
		DocumentUploads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "enrollment_document_uploads_total",
			Help: "Uploaded documents, by type.",
		}, []string{"document_type"}),
		EnrollmentTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "enrollment_status_transitions_total",
			Help: "Applied enrollment status transitions.",
		}, []string{"from", "to"}),
		RolePromotions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "enrollment_role_promotions_total",
			Help: "User role promotions, by resulting role.",
		}, []string{"from", "to"}),
		ConsistencyViolations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "enrollment_consistency_violations_total",
			Help: "Stored state found disagreeing with the document ledger.",
		}, []string{"kind"}),
		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "enrollment_events_published_total",
			Help: "Workflow events handed to the notification bus, by outcome.",
		}, []string{"type", "outcome"}),
		DecisionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "enrollment_document_decision_seconds",
			Help:    "Time spent in the document decision transaction.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) ObserveDecision(documentType, decision string, seconds float64) {
	if m == nil {
		return
	}
	m.DocumentDecisions.WithLabelValues(documentType, decision).Inc()
	m.DecisionLatency.Observe(seconds)
}

func (m *Metrics) IncUpload(documentType string) {
	if m == nil {
		return
	}
	m.DocumentUploads.WithLabelValues(documentType).Inc()
}

func (m *Metrics) IncTransition(from, to string) {
	if m == nil {
		return
	}
	m.EnrollmentTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) IncPromotion(from, to string) {
	if m == nil {
		return
	}
	m.RolePromotions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) IncViolation(kind string) {
	if m == nil {
		return
	}
	m.ConsistencyViolations.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncEvent(eventType, outcome string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(eventType, outcome).Inc()
}
