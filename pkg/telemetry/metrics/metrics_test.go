package metrics

import (
	"fmt"
	"testing"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/evidence"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:             true,
		Namespace:           "test",
		Subsystem:           "evidence",
		SpanDurationBuckets: []float64{0.01, 0.1, 1.0, 10.0},
		BatchSizeBuckets:    []float64{1, 10, 100},
	}
}

func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector == nil {
		t.Fatal("Expected non-nil collector")
	}
	if collector.registry != registry {
		t.Error("Collector registry not set correctly")
	}
}

func TestCollector_SpanLifecycle(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordSpanStarted("gdpr")
	collector.RecordSpanStarted("gdpr")
	collector.RecordSpanStarted("soc2")

	if got := testutil.ToFloat64(collector.spanMetrics.startedTotal.WithLabelValues("gdpr")); got != 2 {
		t.Errorf("spans_started_total{gdpr} = %f, want 2", got)
	}
	if got := testutil.ToFloat64(collector.spanMetrics.openSpans.WithLabelValues("gdpr")); got != 2 {
		t.Errorf("spans_open{gdpr} = %f, want 2", got)
	}

	collector.RecordSpanEnded("gdpr", evidence.StatusEndedOK)
	collector.RecordSpanEnded("gdpr", evidence.StatusEndedError)

	if got := testutil.ToFloat64(collector.spanMetrics.endedTotal.WithLabelValues("gdpr", "ended_ok")); got != 1 {
		t.Errorf("spans_ended_total{gdpr,ended_ok} = %f, want 1", got)
	}
	if got := testutil.ToFloat64(collector.spanMetrics.endedTotal.WithLabelValues("gdpr", "ended_error")); got != 1 {
		t.Errorf("spans_ended_total{gdpr,ended_error} = %f, want 1", got)
	}
	if got := testutil.ToFloat64(collector.spanMetrics.openSpans.WithLabelValues("gdpr")); got != 0 {
		t.Errorf("spans_open{gdpr} = %f after both spans ended, want 0", got)
	}
	if got := testutil.ToFloat64(collector.spanMetrics.openSpans.WithLabelValues("soc2")); got != 1 {
		t.Errorf("spans_open{soc2} = %f, want 1", got)
	}
}

func TestCollector_SpanHooks(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	hooks := collector.SpanHooks()
	hooks.OnBegin("gdpr")
	hooks.OnEnd("gdpr", evidence.StatusEndedOK)

	if got := testutil.ToFloat64(collector.spanMetrics.startedTotal.WithLabelValues("gdpr")); got != 1 {
		t.Errorf("spans_started_total{gdpr} via hooks = %f, want 1", got)
	}
	if got := testutil.ToFloat64(collector.spanMetrics.openSpans.WithLabelValues("gdpr")); got != 0 {
		t.Errorf("spans_open{gdpr} via hooks = %f, want 0", got)
	}
}

func TestCollector_ExporterObservation(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.ObserveExporter(7, 100, 90, 3, 2, 5)

	if got := testutil.ToFloat64(collector.exporterMetrics.queueDepth); got != 7 {
		t.Errorf("queue_depth = %f, want 7", got)
	}
	if got := testutil.ToFloat64(collector.exporterMetrics.deliveredTotal); got != 90 {
		t.Errorf("delivered_total = %f, want 90", got)
	}
	if got := testutil.ToFloat64(collector.exporterMetrics.droppedTotal.WithLabelValues("queue_full")); got != 3 {
		t.Errorf("dropped_total{queue_full} = %f, want 3", got)
	}
	if got := testutil.ToFloat64(collector.exporterMetrics.droppedTotal.WithLabelValues("retries_exhausted")); got != 2 {
		t.Errorf("dropped_total{retries_exhausted} = %f, want 2", got)
	}

	// Gauges track the latest snapshot, not a running sum.
	collector.ObserveExporter(0, 110, 105, 3, 2, 5)
	if got := testutil.ToFloat64(collector.exporterMetrics.deliveredTotal); got != 105 {
		t.Errorf("delivered_total after second snapshot = %f, want 105", got)
	}
}

func TestCollector_BatchDelivered(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordBatchDelivered("otlp", 25)
	collector.RecordBatchDelivered("otlp", 50)

	if got := testutil.ToFloat64(collector.exporterMetrics.batchesTotal.WithLabelValues("otlp")); got != 2 {
		t.Errorf("batches_total{otlp} = %f, want 2", got)
	}
}

func TestCollector_ArchiveMetrics(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.RecordArchiveWrite("ok")
	collector.RecordArchiveWrite("ok")
	collector.RecordArchiveWrite("error")
	collector.RecordPruned(12)
	collector.RecordPruned(0)

	if got := testutil.ToFloat64(collector.archiveMetrics.writesTotal.WithLabelValues("ok")); got != 2 {
		t.Errorf("archive_writes_total{ok} = %f, want 2", got)
	}
	if got := testutil.ToFloat64(collector.archiveMetrics.writesTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("archive_writes_total{error} = %f, want 1", got)
	}
	if got := testutil.ToFloat64(collector.archiveMetrics.prunedTotal); got != 12 {
		t.Errorf("archive_pruned_total = %f, want 12", got)
	}
}

func TestCollector_CatalogMetrics(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())

	collector.SetControlCount("gdpr", 4)
	collector.SetControlCount("soc2", 4)
	collector.RecordCatalogReload("ok")
	collector.RecordCatalogDrift()

	if got := testutil.ToFloat64(collector.catalogMetrics.controls.WithLabelValues("gdpr")); got != 4 {
		t.Errorf("catalog_controls{gdpr} = %f, want 4", got)
	}
	if got := testutil.ToFloat64(collector.catalogMetrics.reloadsTotal.WithLabelValues("ok")); got != 1 {
		t.Errorf("catalog_reloads_total{ok} = %f, want 1", got)
	}
	if got := testutil.ToFloat64(collector.catalogMetrics.driftTotal); got != 1 {
		t.Errorf("catalog_drift_total = %f, want 1", got)
	}
}

func TestCollector_DisabledRecordsNothing(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, prometheus.NewRegistry())

	collector.RecordSpanStarted("gdpr")
	collector.RecordSpanEnded("gdpr", evidence.StatusEndedOK)
	collector.RecordArchiveWrite("ok")

	if got := testutil.ToFloat64(collector.spanMetrics.startedTotal.WithLabelValues("gdpr")); got != 0 {
		t.Errorf("disabled collector recorded spans_started_total = %f", got)
	}
}

func TestCardinalityLimiter(t *testing.T) {
	limiter := NewCardinalityLimiter(3)

	for i := 0; i < 3; i++ {
		if !limiter.Allow(fmt.Sprintf("set-%d", i)) {
			t.Errorf("Allow(set-%d) = false under the limit", i)
		}
	}
	if limiter.Allow("set-overflow") {
		t.Error("Allow() = true past the cardinality limit")
	}
	// Existing label sets stay allowed.
	if !limiter.Allow("set-0") {
		t.Error("Allow() = false for an already-tracked label set")
	}
	if limiter.Count() != 3 {
		t.Errorf("Count() = %d, want 3", limiter.Count())
	}
}

func TestCollector_CardinalityOverflowAggregates(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.cardinalityLimiter = NewCardinalityLimiter(1)

	collector.RecordSpanStarted("gdpr")
	collector.RecordSpanStarted("iso27001")

	if got := testutil.ToFloat64(collector.spanMetrics.startedTotal.WithLabelValues("other")); got != 1 {
		t.Errorf("overflow framework not aggregated into other: %f", got)
	}
}
