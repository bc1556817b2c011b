package metrics

import (
	"mercator-hq/callisto/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ExporterMetrics tracks the export pipeline.
//
// Metrics:
//   - callisto_evidence_exporter_queue_depth: Records waiting in the queue
//   - callisto_evidence_exporter_enqueued_total: Records accepted for export
//   - callisto_evidence_exporter_delivered_total: Records delivered to the sink
//   - callisto_evidence_exporter_dropped_total: Records dropped, by reason
//   - callisto_evidence_exporter_retries_total: Delivery retry attempts
//   - callisto_evidence_exporter_batch_size: Delivered batch size histogram
type ExporterMetrics struct {
	queueDepth     prometheus.Gauge
	enqueuedTotal  prometheus.Gauge
	deliveredTotal prometheus.Gauge
	droppedTotal   *prometheus.GaugeVec
	retriesTotal   prometheus.Gauge
	batchesTotal   *prometheus.CounterVec
	batchSize      *prometheus.HistogramVec
}

// NewExporterMetrics creates and registers exporter metrics with the
// provided registry. The enqueue/deliver/drop/retry series are gauges set
// from the exporter's own monotonic counters rather than counters
// incremented here, so a restart of the collector cannot double count.
func NewExporterMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ExporterMetrics {
	em := &ExporterMetrics{
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "exporter_queue_depth",
			Help:      "Number of evidence records waiting in the export queue",
		}),

		enqueuedTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "exporter_enqueued_total",
			Help:      "Total number of evidence records accepted for export",
		}),

		deliveredTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "exporter_delivered_total",
			Help:      "Total number of evidence records delivered to the sink",
		}),

		droppedTotal: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "exporter_dropped_total",
				Help:      "Total number of evidence records dropped",
			},
			[]string{"reason"},
		),

		retriesTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "exporter_retries_total",
			Help:      "Total number of delivery retry attempts",
		}),

		batchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "exporter_batches_total",
				Help:      "Total number of batches delivered, by sink",
			},
			[]string{"sink"},
		),

		batchSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "exporter_batch_size",
				Help:      "Number of records per delivered batch",
				Buckets:   cfg.BatchSizeBuckets,
			},
			[]string{"sink"},
		),
	}

	registry.MustRegister(
		em.queueDepth,
		em.enqueuedTotal,
		em.deliveredTotal,
		em.droppedTotal,
		em.retriesTotal,
		em.batchesTotal,
		em.batchSize,
	)

	return em
}

// Observe sets the exporter gauges from a statistics snapshot.
func (em *ExporterMetrics) Observe(queueDepth int, enqueued, delivered, droppedQueue, droppedRetries, retries uint64) {
	em.queueDepth.Set(float64(queueDepth))
	em.enqueuedTotal.Set(float64(enqueued))
	em.deliveredTotal.Set(float64(delivered))
	em.droppedTotal.WithLabelValues("queue_full").Set(float64(droppedQueue))
	em.droppedTotal.WithLabelValues("retries_exhausted").Set(float64(droppedRetries))
	em.retriesTotal.Set(float64(retries))
}

// RecordBatch records a delivered batch and its size.
func (em *ExporterMetrics) RecordBatch(sink string, size int) {
	em.batchesTotal.WithLabelValues(sink).Inc()
	em.batchSize.WithLabelValues(sink).Observe(float64(size))
}
