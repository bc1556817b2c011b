// Package server hosts Callisto's operational HTTP endpoints.
//
// The server exposes liveness and readiness probes, build information,
// the registry and exporter introspection report, and the Prometheus
// scrape endpoint. It never carries evidence records; those flow from
// the engine to its configured sinks.
package server
