// Package archive provides local storage backends for evidence records.
//
// The archive holds exported evidence for operator queries, audit export,
// and retention enforcement. It is fed by the exporter's archive sink and
// read by the query/export surfaces; the live span pipeline never reads it.
//
// Two backends implement evidence.Storage:
//
//   - SQLiteArchive persists records in a single-file SQLite database with
//     WAL mode. The driver is selectable: the cgo driver ("sqlite3") or the
//     pure Go driver ("sqlite") for cgo-free builds.
//   - MemoryArchive keeps records in a map, for tests and local runs.
//
// Every archived row carries a SHA-256 content hash of the record's
// canonical JSON form, so later tampering is detectable. Store is
// idempotent per span id, which lets the exporter redeliver a partially
// failed batch without duplicating rows.
package archive
