// Package span implements the evidence span lifecycle: the OPEN →
// ENDED_OK | ENDED_ERROR state machine, per-framework span factories,
// correlation contexts linking sibling spans of one logical operation, and
// the open-span tracker behind the shutdown audit sweep.
//
// # Lifecycle
//
// A span is created OPEN by a Factory, accumulates input/output attributes
// while open, and is ended exactly once. The terminal transition snapshots
// an immutable EvidenceRecord and hands it to the exporter before
// End/EndWithError returns, so callers may assume evidence is durably
// queued once the call completes. Attribute writes and re-ends after the
// terminal transition fail with SpanClosed / SpanAlreadyEnded; these are
// caller programming errors and are never silently ignored.
//
// # Correlation
//
// Spans opened with the same correlation key, by any factory, are members
// of one correlation context. The factory joins the context and registers
// the member under a single lock, so the span and its membership appear
// atomically. Contexts are reclaimed when the last member has ended and
// been handed off.
//
// # Ownership
//
// A span belongs to the call stack that created it; concurrent calls to
// one span instance are not part of the contract. The factory, correlation
// tracker, and open tracker are safe for concurrent use from many spans.
package span
