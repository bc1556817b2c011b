// Package export writes archived evidence records to audit handoff formats.
//
// This is the operator-facing export surface, distinct from the live sink
// pipeline: it reads from the archive on demand (CLI commands, audit
// requests) rather than receiving records as spans end.
//
// Two formats are supported:
//
//   - JSON: a record array preserving full structure, including the
//     insertion-ordered input/output attributes.
//   - CSV: one row per record with attribute lists flattened to JSON
//     cells, for spreadsheet-based audit review.
//
// Both exporters offer a streaming variant fed from a storage QueryStream
// channel, so exports of large archives hold one record in memory at a
// time.
package export
