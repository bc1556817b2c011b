// Package logging provides structured logging with PII redaction.
//
// The logger wraps log/slog and supports JSON and text output, level
// filtering, and redaction of sensitive values before they reach the
// handler. Setup installs the configured logger as the slog default so
// component loggers built with slog.Default() inherit it.
//
// Context-aware methods pull the correlation key out of the context and
// attach it as a field, which keeps log lines joinable with the evidence
// records produced under the same key.
package logging
