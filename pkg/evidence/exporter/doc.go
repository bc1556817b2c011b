// Package exporter delivers finished evidence records to sinks.
//
// The exporter sits between the span lifecycle and the destinations.
// Enqueue is the hot-path entry point: it is non-blocking, and when the
// bounded queue is full it drops the record and counts the loss rather
// than stalling the instrumented caller. A single worker drains the queue
// into micro-batches, shipping a batch when it reaches the configured size
// or when the flush interval elapses with records waiting.
//
// Delivery failures are retried with exponential backoff up to a bounded
// attempt count; an exhausted batch is dropped and counted. Neither
// failures nor drops ever propagate to business logic: the evidence
// pipeline degrades, the instrumented application does not.
//
// Sinks:
//
//   - OTLPSink ships records as trace spans to any OTLP-compatible
//     collector over gRPC. The trace id is derived from the correlation
//     key, so spans of one logical operation share a trace.
//   - ArchiveSink stores records in a local storage backend.
//   - MultiSink fans batches out to several destinations.
//   - MemorySink captures records for tests.
//
// Records are snapshotted before they reach the exporter and are treated
// as immutable from Enqueue on.
package exporter
