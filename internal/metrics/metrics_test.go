package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveDecision("id_card", "accept", 0.01)
	m.ObserveDecision("id_card", "accept", 0.02)
	m.IncTransition("pending_documents", "pending_approval")
	m.IncViolation("incomplete_after_review")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DocumentDecisions.WithLabelValues("id_card", "accept")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EnrollmentTransitions.WithLabelValues("pending_documents", "pending_approval")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConsistencyViolations.WithLabelValues("incomplete_after_review")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveDecision("id_card", "refuse", 0)
		m.IncUpload("id_card")
		m.IncTransition("a", "b")
		m.IncPromotion("guest", "student")
		m.IncViolation("x")
		m.IncEvent("t", "ok")
	})
}
