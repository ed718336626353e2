// Package metrics provides Prometheus metrics for certificate issuance and
// verification.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Verification outcomes.
const (
	OutcomeVerified     = "verified"
	OutcomeRevoked      = "revoked"
	OutcomeNotFound     = "not_found"
	OutcomeUnrecognized = "unrecognized"
	OutcomeError        = "error"
)

type Metrics struct {
	CertificatesIssued  prometheus.Counter
	CertificatesRevoked prometheus.Counter
	Verifications       *prometheus.CounterVec // by outcome

	CacheHitsTotal             prometheus.Counter
	CacheMissesTotal           prometheus.Counter
	CacheInvalidationsTotal    prometheus.Counter
	CacheLookupDurationSeconds prometheus.Histogram

	EventsPublished *prometheus.CounterVec // by event type
	EventsFailed    *prometheus.CounterVec // by event type
}

// New registers the metrics on reg. A nil reg creates unregistered
// collectors, which is what unit tests want.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CertificatesIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "registry_certificates_issued_total",
			Help: "Total number of marriage certificates issued",
		}),
		CertificatesRevoked: f.NewCounter(prometheus.CounterOpts{
			Name: "registry_certificates_revoked_total",
			Help: "Total number of marriage certificates revoked",
		}),
		Verifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_certificate_verifications_total",
			Help: "Certificate verification lookups by outcome",
		}, []string{"outcome"}),
		CacheHitsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "registry_verify_cache_hits_total",
			Help: "Verification cache hits",
		}),
		CacheMissesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "registry_verify_cache_misses_total",
			Help: "Verification cache misses",
		}),
		CacheInvalidationsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "registry_verify_cache_invalidations_total",
			Help: "Verification cache entries invalidated",
		}),
		CacheLookupDurationSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "registry_verify_cache_lookup_duration_seconds",
			Help:    "Duration of verification cache lookups",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05},
		}),
		EventsPublished: f.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_certificate_events_published_total",
			Help: "Certificate events delivered to the broker",
		}, []string{"type"}),
		EventsFailed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_certificate_events_failed_total",
			Help: "Certificate events that could not be delivered",
		}, []string{"type"}),
	}
}

// Every method is nil-safe so callers can run without metrics.

func (m *Metrics) IncrementIssued() {
	if m != nil {
		m.CertificatesIssued.Inc()
	}
}

func (m *Metrics) IncrementRevoked() {
	if m != nil {
		m.CertificatesRevoked.Inc()
	}
}

func (m *Metrics) RecordVerification(outcome string) {
	if m != nil {
		m.Verifications.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) RecordCacheHit(durationSeconds float64) {
	if m != nil {
		m.CacheHitsTotal.Inc()
		m.CacheLookupDurationSeconds.Observe(durationSeconds)
	}
}

func (m *Metrics) RecordCacheMiss(durationSeconds float64) {
	if m != nil {
		m.CacheMissesTotal.Inc()
		m.CacheLookupDurationSeconds.Observe(durationSeconds)
	}
}

func (m *Metrics) IncrementInvalidations() {
	if m != nil {
		m.CacheInvalidationsTotal.Inc()
	}
}

func (m *Metrics) RecordEventPublished(eventType string) {
	if m != nil {
		m.EventsPublished.WithLabelValues(eventType).Inc()
	}
}

func (m *Metrics) RecordEventFailed(eventType string) {
	if m != nil {
		m.EventsFailed.WithLabelValues(eventType).Inc()
	}
}

