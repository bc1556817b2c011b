// Package evidence defines the core data model for compliance evidence
// spans: control descriptors, span status, the immutable EvidenceRecord
// wire form, and the Sink/Storage interfaces the export pipeline is built
// on. The engine itself knows nothing about HTTP, storage drivers, or
// business logic; callers are instrumented once per regulated operation.
//
// # Architecture
//
// The evidence system consists of five layers:
//
//  1. Control Registry (registry) - immutable catalog of regulatory controls
//  2. Span engine (span) - span lifecycle, factories, correlation contexts
//  3. Engine (engine) - composition root wiring the pieces together
//  4. Exporter (exporter) - batching, retry, OTLP delivery to a collector
//  5. Archive (archive, export, query, retention) - optional local copy of
//     exported records for operator queries and auditor handoff
//
// # Evidence flow
//
//	caller obtains a Span from a per-framework Factory
//	     ↓
//	SetInput / business logic / SetOutput
//	     ↓
//	End or EndWithError (terminal transition, exactly once)
//	     ↓
//	immutable EvidenceRecord snapshot, enqueued on the Exporter
//	     ↓
//	micro-batched, retried, delivered to the configured Sink(s)
//
// # Guarantees
//
//   - No evidence is silently dropped: every loss on the export path is
//     counted and logged.
//   - Errors are always recorded: EndWithError captures the business error
//     verbatim, and the scoped helper routes panics through it.
//   - Multi-framework operations are atomically linked: sibling spans join
//     one correlation context under a single lock, so partial registration
//     is impossible.
//   - Export failures never fail the instrumented operation.
//
// # Basic usage
//
//	eng, err := engine.New(reg, exp, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	gdpr, _ := eng.Factory("gdpr")
//
//	span, err := gdpr.Begin(registry.GDPRArt15)
//	if err != nil {
//	    return err // UnknownControl: do not proceed as if evidence exists
//	}
//	span.SetInput("user_id", userID)
//	records, err := store.FetchUserData(ctx, userID)
//	if err != nil {
//	    span.EndWithError(err)
//	    return err
//	}
//	span.SetOutput("records_returned", len(records))
//	span.End()
//
// # Thread safety
//
// A Span is owned by the call stack that created it and is not safe for
// concurrent use; the engine-wide structures (registry lookups, correlation
// membership, exporter queue) are safe for concurrent access from many
// spans simultaneously.
package evidence
