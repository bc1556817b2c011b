// Package telemetry provides observability for the Callisto evidence
// pipeline.
//
// # Components
//
//   - logging: structured slog logging with PII redaction
//   - metrics: Prometheus metrics for spans, exporter, archive, catalog
//   - health: liveness/readiness checks and engine introspection
//
// # Usage
//
//	// Logging
//	logger, _ := logging.Setup(logging.Config{Level: "info", Format: "json"})
//	logger.Info("catalog loaded", "controls", reg.Size())
//
//	// Metrics: hand the span hooks to the engine, mount the handler
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	eng, _ := engine.New(reg, exp, &engine.Config{Hooks: collector.SpanHooks()})
//	mux.Handle("/metrics", collector.Handler())
//
//	// Health
//	checker := health.New(0)
//	checker.RegisterCheck("archive", archivePing)
//	health.RegisterEndpoints(mux, checker, eng, version, commit, buildTime)
//
// # PII Protection
//
// Evidence pipelines log identifiers adjacent to personal data, so log
// values pass through a redactor by default: emails, API keys, SSNs, and
// IP addresses are masked, and custom patterns can be configured. The
// redactor applies to log output only; evidence record payloads are the
// caller's responsibility.
package telemetry
