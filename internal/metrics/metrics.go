// Package metrics exposes Prometheus instrumentation for generation,
// enrichment and verification. Every method is safe on a nil *Metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the leadmail collectors.
type Metrics struct {
	// Candidate generation results by source
	Generations *prometheus.CounterVec

	// Audits created by initial status
	AuditsCreated *prometheus.CounterVec

	// Apply pass outcomes by final status and reason
	ApplyOutcomes *prometheus.CounterVec

	// Verification outcomes by outcome and method
	Verifications *prometheus.CounterVec

	// SMTP handshake duration
	ProbeDuration prometheus.Histogram
}

// New registers the collectors with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Generations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leadmail_generations_total",
			Help: "Candidate email generation results by source",
		}, []string{"source"}),

		AuditsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leadmail_audits_created_total",
			Help: "Enrichment audits created by initial status",
		}, []string{"status"}),

		ApplyOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leadmail_apply_outcomes_total",
			Help: "Audit apply outcomes by status and reason",
		}, []string{"status", "reason"}),

		Verifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leadmail_verifications_total",
			Help: "Deliverability verification outcomes",
		}, []string{"outcome", "method"}),

		ProbeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "leadmail_smtp_probe_duration_seconds",
			Help:    "Duration of SMTP handshakes",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 10},
		}),
	}
}

// IncGeneration records a generation result.
func (m *Metrics) IncGeneration(source string) {
	if m != nil {
		m.Generations.WithLabelValues(source).Inc()
	}
}

// IncAuditCreated records a new audit.
func (m *Metrics) IncAuditCreated(status string) {
	if m != nil {
		m.AuditsCreated.WithLabelValues(status).Inc()
	}
}

// IncApplyOutcome records the result of applying one audit.
func (m *Metrics) IncApplyOutcome(status, reason string) {
	if m != nil {
		m.ApplyOutcomes.WithLabelValues(status, reason).Inc()
	}
}

// IncVerification records a verification outcome.
func (m *Metrics) IncVerification(outcome, method string) {
	if m != nil {
		m.Verifications.WithLabelValues(outcome, method).Inc()
	}
}

// ObserveProbe records the duration of one SMTP handshake.
func (m *Metrics) ObserveProbe(d time.Duration) {
	if m != nil {
		m.ProbeDuration.Observe(d.Seconds())
	}
}
