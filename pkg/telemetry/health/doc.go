// Package health provides health checks and operational introspection
// for the evidence pipeline.
//
// The Checker aggregates named component checks (archive, exporter,
// catalog source) into liveness and readiness probes suitable for
// Kubernetes. The introspection endpoint reports which frameworks and
// controls the engine can produce evidence for, the catalog version
// behind them, the number of open spans, and the exporter's queue depth
// and delivery counters.
//
// Endpoints:
//
//   - /health: liveness, never touches components
//   - /ready: readiness, runs all registered checks concurrently
//   - /version: build information
//   - /introspect: registry and exporter state
package health
