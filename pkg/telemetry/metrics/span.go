package metrics

import (
	"mercator-hq/callisto/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// SpanMetrics tracks the control-span lifecycle.
//
// Metrics:
//   - callisto_evidence_spans_started_total: Spans opened, by framework
//   - callisto_evidence_spans_ended_total: Spans ended, by framework and status
//   - callisto_evidence_spans_open: Currently open spans, by framework
//   - callisto_evidence_span_duration_seconds: Span duration histogram
type SpanMetrics struct {
	startedTotal *prometheus.CounterVec
	endedTotal   *prometheus.CounterVec
	openSpans    *prometheus.GaugeVec
	duration     *prometheus.HistogramVec
}

// NewSpanMetrics creates and registers span metrics with the provided registry.
func NewSpanMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *SpanMetrics {
	sm := &SpanMetrics{
		startedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "spans_started_total",
				Help:      "Total number of control spans opened",
			},
			[]string{"framework"},
		),

		endedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "spans_ended_total",
				Help:      "Total number of control spans ended",
			},
			[]string{"framework", "status"},
		),

		openSpans: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "spans_open",
				Help:      "Number of control spans currently open",
			},
			[]string{"framework"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "span_duration_seconds",
				Help:      "Duration of control spans in seconds",
				Buckets:   cfg.SpanDurationBuckets,
			},
			[]string{"framework", "control_id"},
		),
	}

	registry.MustRegister(
		sm.startedTotal,
		sm.endedTotal,
		sm.openSpans,
		sm.duration,
	)

	return sm
}

// RecordStarted records a span opening.
func (sm *SpanMetrics) RecordStarted(framework string) {
	sm.startedTotal.WithLabelValues(framework).Inc()
	sm.openSpans.WithLabelValues(framework).Inc()
}

// RecordEnded records a span reaching a terminal status.
func (sm *SpanMetrics) RecordEnded(framework, status string) {
	sm.endedTotal.WithLabelValues(framework, status).Inc()
	sm.openSpans.WithLabelValues(framework).Dec()
}

// RecordDuration records the wall-clock duration of an ended span.
func (sm *SpanMetrics) RecordDuration(framework, controlID string, seconds float64) {
	sm.duration.WithLabelValues(framework, controlID).Observe(seconds)
}
