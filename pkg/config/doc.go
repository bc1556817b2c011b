// Package config provides configuration loading, defaults, and
// validation for Callisto.
//
// Configuration is read from a YAML file, unmarshaled over built-in
// defaults, optionally overridden by CALLISTO_* environment variables,
// and validated as a whole so the operator sees every problem at once.
//
// Sections:
//
//   - catalog: where control descriptors come from (builtin, file, git)
//   - engine: span recording behavior
//   - exporter: batching, retry, and sink selection
//   - archive: the local queryable evidence store
//   - retention: pruning policy and schedule
//   - telemetry: logging and metrics
//   - server: the operational HTTP server
//
// A process-wide singleton is available through Initialize/GetConfig for
// application wiring; tests should pass Config values explicitly.
package config
