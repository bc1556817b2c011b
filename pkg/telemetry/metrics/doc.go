// Package metrics provides Prometheus metrics collection for Callisto.
//
// # Overview
//
// The metrics package covers the full evidence pipeline: span lifecycle,
// export queue and delivery, the local archive, and the control catalog.
//
// # Metrics Categories
//
//   - Span Metrics: Spans started/ended, open-span gauge, durations
//   - Exporter Metrics: Queue depth, delivered/dropped records, retries
//   - Archive Metrics: Store attempts and retention pruning
//   - Catalog Metrics: Registered controls, reloads, drift events
//
// # Usage
//
//	collector := metrics.NewCollector(cfg, nil)
//
//	// Span lifecycle via engine hooks
//	eng, _ := engine.New(reg, exp, &engine.Config{Hooks: collector.SpanHooks()})
//
//	// Exporter snapshot on each scrape or flush
//	stats := eng.ExporterStats()
//	collector.ObserveExporter(eng.QueueDepth(), stats.Enqueued, stats.Exported,
//		stats.DroppedQueue, stats.DroppedRetries, stats.Retries)
//
// # Prometheus Endpoint
//
// All metrics are exposed in standard Prometheus exposition format:
//
//	# HELP callisto_evidence_spans_ended_total Total number of control spans ended
//	# TYPE callisto_evidence_spans_ended_total counter
//	callisto_evidence_spans_ended_total{framework="gdpr",status="ended_ok"} 1234
//
// # Cardinality Management
//
// Framework and control identifiers come from operator-supplied catalogs,
// so the collector caps unique label combinations at 10,000 and
// aggregates overflow into "other".
package metrics
