package metrics

import (
	"fmt"
	"sync"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/evidence"
	"mercator-hq/callisto/pkg/evidence/span"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the main orchestrator for all Prometheus metrics in Callisto.
// It manages metric registration and provides a unified interface for
// recording metrics across the span pipeline.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	spanMetrics     *SpanMetrics
	exporterMetrics *ExporterMetrics
	archiveMetrics  *ArchiveMetrics
	catalogMetrics  *CatalogMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a fresh
// registry is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = "callisto"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "evidence"
	}
	if len(cfg.SpanDurationBuckets) == 0 {
		// Control spans wrap request handlers, so latencies cluster well
		// under a second with a long tail for batch operations.
		cfg.SpanDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0}
	}
	if len(cfg.BatchSizeBuckets) == 0 {
		cfg.BatchSizeBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500}
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(10000),
	}

	c.spanMetrics = NewSpanMetrics(cfg, registry)
	c.exporterMetrics = NewExporterMetrics(cfg, registry)
	c.archiveMetrics = NewArchiveMetrics(cfg, registry)
	c.catalogMetrics = NewCatalogMetrics(cfg, registry)

	return c
}

// SpanHooks returns span lifecycle hooks that feed this collector. Wire
// them into the engine so every Begin/End updates the span counters and
// the open-span gauge without the instrumented code knowing about metrics.
func (c *Collector) SpanHooks() span.Hooks {
	return span.Hooks{
		OnBegin: func(framework string) {
			c.RecordSpanStarted(framework)
		},
		OnEnd: func(framework string, status evidence.SpanStatus) {
			c.RecordSpanEnded(framework, status)
		},
	}
}

// RecordSpanStarted records a span opening for the given framework.
func (c *Collector) RecordSpanStarted(framework string) {
	if !c.config.Enabled {
		return
	}
	if !c.cardinalityLimiter.Allow("span:" + framework) {
		framework = "other"
	}
	c.spanMetrics.RecordStarted(framework)
}

// RecordSpanEnded records a span reaching a terminal status.
func (c *Collector) RecordSpanEnded(framework string, status evidence.SpanStatus) {
	if !c.config.Enabled {
		return
	}
	labelSet := fmt.Sprintf("span:%s:%s", framework, status)
	if !c.cardinalityLimiter.Allow(labelSet) {
		framework = "other"
	}
	c.spanMetrics.RecordEnded(framework, string(status))
}

// RecordSpanDuration records the wall-clock duration of an ended span.
func (c *Collector) RecordSpanDuration(framework, controlID string, seconds float64) {
	if !c.config.Enabled {
		return
	}
	labelSet := fmt.Sprintf("duration:%s:%s", framework, controlID)
	if !c.cardinalityLimiter.Allow(labelSet) {
		controlID = "other"
	}
	c.spanMetrics.RecordDuration(framework, controlID, seconds)
}

// ObserveExporter copies a queue-depth reading and delivery statistics
// into the exporter gauges and counters. Call it periodically or from a
// flush path; counters are set to the absolute values the exporter
// reports.
func (c *Collector) ObserveExporter(queueDepth int, enqueued, delivered, droppedQueue, droppedRetries, retries uint64) {
	if !c.config.Enabled {
		return
	}
	c.exporterMetrics.Observe(queueDepth, enqueued, delivered, droppedQueue, droppedRetries, retries)
}

// RecordBatchDelivered records a successfully delivered export batch.
func (c *Collector) RecordBatchDelivered(sink string, size int) {
	if !c.config.Enabled {
		return
	}
	c.exporterMetrics.RecordBatch(sink, size)
}

// RecordArchiveWrite records an archive store attempt.
func (c *Collector) RecordArchiveWrite(status string) {
	if !c.config.Enabled {
		return
	}
	c.archiveMetrics.RecordWrite(status)
}

// RecordPruned records records removed by a retention pass.
func (c *Collector) RecordPruned(count int) {
	if !c.config.Enabled {
		return
	}
	c.archiveMetrics.RecordPruned(count)
}

// SetControlCount sets the number of registered controls for a framework.
func (c *Collector) SetControlCount(framework string, count int) {
	if !c.config.Enabled {
		return
	}
	c.catalogMetrics.SetControlCount(framework, count)
}

// RecordCatalogReload records a catalog reload attempt.
func (c *Collector) RecordCatalogReload(status string) {
	if !c.config.Enabled {
		return
	}
	c.catalogMetrics.RecordReload(status)
}

// RecordCatalogDrift records a detected divergence between the running
// registry and the catalog source.
func (c *Collector) RecordCatalogDrift() {
	if !c.config.Enabled {
		return
	}
	c.catalogMetrics.RecordDrift()
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric. Framework and
// control names come from operator-supplied catalogs, so they are not
// bounded by the code.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the
// specified maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or the limit has not been reached yet.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
