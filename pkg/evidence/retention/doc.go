// Package retention enforces retention policies on archived evidence.
//
// The pruner deletes archived records in two phases: age-based (records
// whose span started before the retention cutoff) and count-based (oldest
// records beyond a maximum archive size). Either phase can be disabled by
// zeroing its limit. With ArchiveBeforeDelete set, records are exported to
// timestamped JSON files before deletion, so pruning reduces the queryable
// archive without destroying the audit trail.
//
// A cron-based scheduler runs the pruner unattended; the schedule is a
// standard five-field cron expression.
//
// Retention only ever touches the local archive. Records already shipped
// to remote sinks are outside its reach.
package retention
