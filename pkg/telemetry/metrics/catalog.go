package metrics

import (
	"mercator-hq/callisto/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// CatalogMetrics tracks the control registry and its catalog source.
//
// Metrics:
//   - callisto_evidence_catalog_controls: Registered controls, by framework
//   - callisto_evidence_catalog_reloads_total: Catalog reload attempts
//   - callisto_evidence_catalog_drift_total: Detected catalog divergences
type CatalogMetrics struct {
	controls     *prometheus.GaugeVec
	reloadsTotal *prometheus.CounterVec
	driftTotal   prometheus.Counter
}

// NewCatalogMetrics creates and registers catalog metrics with the
// provided registry.
func NewCatalogMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CatalogMetrics {
	cm := &CatalogMetrics{
		controls: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "catalog_controls",
				Help:      "Number of registered controls per framework",
			},
			[]string{"framework"},
		),

		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "catalog_reloads_total",
				Help:      "Total number of catalog reload attempts",
			},
			[]string{"status"},
		),

		driftTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "catalog_drift_total",
			Help:      "Total number of detected divergences from the catalog source",
		}),
	}

	registry.MustRegister(cm.controls, cm.reloadsTotal, cm.driftTotal)

	return cm
}

// SetControlCount sets the registered control count for a framework.
func (cm *CatalogMetrics) SetControlCount(framework string, count int) {
	cm.controls.WithLabelValues(framework).Set(float64(count))
}

// RecordReload records a catalog reload attempt ("ok" or "error").
func (cm *CatalogMetrics) RecordReload(status string) {
	cm.reloadsTotal.WithLabelValues(status).Inc()
}

// RecordDrift records a detected catalog divergence.
func (cm *CatalogMetrics) RecordDrift() {
	cm.driftTotal.Inc()
}
