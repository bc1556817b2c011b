package metrics

import (
	"mercator-hq/callisto/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ArchiveMetrics tracks the local evidence archive.
//
// Metrics:
//   - callisto_evidence_archive_writes_total: Store attempts, by status
//   - callisto_evidence_archive_pruned_total: Records removed by retention
type ArchiveMetrics struct {
	writesTotal *prometheus.CounterVec
	prunedTotal prometheus.Counter
}

// NewArchiveMetrics creates and registers archive metrics with the
// provided registry.
func NewArchiveMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ArchiveMetrics {
	am := &ArchiveMetrics{
		writesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "archive_writes_total",
				Help:      "Total number of archive store attempts",
			},
			[]string{"status"},
		),

		prunedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "archive_pruned_total",
			Help:      "Total number of archived records removed by retention",
		}),
	}

	registry.MustRegister(am.writesTotal, am.prunedTotal)

	return am
}

// RecordWrite records an archive store attempt ("ok" or "error").
func (am *ArchiveMetrics) RecordWrite(status string) {
	am.writesTotal.WithLabelValues(status).Inc()
}

// RecordPruned records records removed by a retention pass.
func (am *ArchiveMetrics) RecordPruned(count int) {
	if count > 0 {
		am.prunedTotal.Add(float64(count))
	}
}
