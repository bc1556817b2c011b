package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/robfig/cron/v3"
)

// ValidationError describes a single invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration field %q: %s", e.Field, e.Message)
}

// ValidationErrors aggregates all validation failures so the operator
// sees every problem in one pass.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for invalid values. It returns a
// ValidationErrors aggregating every failure, or nil.
func Validate(cfg *Config) error {
	var errs ValidationErrors

	errs = append(errs, validateCatalog(&cfg.Catalog)...)
	errs = append(errs, validateExporter(&cfg.Exporter)...)
	errs = append(errs, validateArchive(&cfg.Archive)...)
	errs = append(errs, validateRetention(&cfg.Retention)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)
	errs = append(errs, validateServer(&cfg.Server)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateCatalog(c *CatalogConfig) ValidationErrors {
	var errs ValidationErrors

	switch c.Mode {
	case CatalogModeBuiltin, CatalogModeFile, CatalogModeGit:
	default:
		errs = append(errs, &ValidationError{
			Field:   "catalog.mode",
			Message: fmt.Sprintf("must be %q, %q, or %q, got %q", CatalogModeBuiltin, CatalogModeFile, CatalogModeGit, c.Mode),
		})
	}

	if c.Mode == CatalogModeFile && len(c.Paths) == 0 {
		errs = append(errs, &ValidationError{
			Field:   "catalog.paths",
			Message: "at least one catalog path is required in file mode",
		})
	}

	if c.Mode == CatalogModeGit && c.Git.Repository == "" {
		errs = append(errs, &ValidationError{
			Field:   "catalog.git.repository",
			Message: "repository URL is required in git mode",
		})
	}

	return errs
}

func validateExporter(c *ExporterConfig) ValidationErrors {
	var errs ValidationErrors

	switch c.Sink {
	case SinkOTLP, SinkArchive, SinkMemory:
	default:
		errs = append(errs, &ValidationError{
			Field:   "exporter.sink",
			Message: fmt.Sprintf("must be %q, %q, or %q, got %q", SinkOTLP, SinkArchive, SinkMemory, c.Sink),
		})
	}

	if c.Sink == SinkOTLP {
		if _, _, err := net.SplitHostPort(c.OTLP.Endpoint); err != nil {
			errs = append(errs, &ValidationError{
				Field:   "exporter.otlp.endpoint",
				Message: fmt.Sprintf("must be host:port, got %q", c.OTLP.Endpoint),
			})
		}
	}

	if c.BatchSize > c.QueueSize {
		errs = append(errs, &ValidationError{
			Field:   "exporter.batch_size",
			Message: fmt.Sprintf("batch size %d exceeds queue size %d", c.BatchSize, c.QueueSize),
		})
	}

	if c.InitialBackoff > c.MaxBackoff {
		errs = append(errs, &ValidationError{
			Field:   "exporter.initial_backoff",
			Message: "initial backoff exceeds max backoff",
		})
	}

	return errs
}

func validateArchive(c *ArchiveConfig) ValidationErrors {
	var errs ValidationErrors

	switch c.Backend {
	case BackendSQLite, BackendMemory:
	default:
		errs = append(errs, &ValidationError{
			Field:   "archive.backend",
			Message: fmt.Sprintf("must be %q or %q, got %q", BackendSQLite, BackendMemory, c.Backend),
		})
	}

	if c.Backend == BackendSQLite {
		switch c.SQLite.Driver {
		case "sqlite3", "sqlite":
		default:
			errs = append(errs, &ValidationError{
				Field:   "archive.sqlite.driver",
				Message: fmt.Sprintf("must be \"sqlite3\" or \"sqlite\", got %q", c.SQLite.Driver),
			})
		}
	}

	return errs
}

func validateRetention(c *RetentionConfig) ValidationErrors {
	var errs ValidationErrors

	if c.Days < 0 {
		errs = append(errs, &ValidationError{
			Field:   "retention.days",
			Message: "must not be negative",
		})
	}
	if c.MaxRecords < 0 {
		errs = append(errs, &ValidationError{
			Field:   "retention.max_records",
			Message: "must not be negative",
		})
	}

	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			errs = append(errs, &ValidationError{
				Field:   "retention.schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	if c.ArchiveBeforeDelete && c.ArchivePath == "" {
		errs = append(errs, &ValidationError{
			Field:   "retention.archive_path",
			Message: "required when archive_before_delete is set",
		})
	}

	return errs
}

func validateTelemetry(c *TelemetryConfig) ValidationErrors {
	var errs ValidationErrors

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, &ValidationError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("must be debug, info, warn, or error, got %q", c.Logging.Level),
		})
	}

	switch c.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, &ValidationError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("must be json or text, got %q", c.Logging.Format),
		})
	}

	for i, b := range c.Metrics.SpanDurationBuckets {
		if i > 0 && b <= c.Metrics.SpanDurationBuckets[i-1] {
			errs = append(errs, &ValidationError{
				Field:   "telemetry.metrics.span_duration_buckets",
				Message: "buckets must be strictly increasing",
			})
			break
		}
	}

	return errs
}

func validateServer(c *ServerConfig) ValidationErrors {
	var errs ValidationErrors

	if _, _, err := net.SplitHostPort(c.ListenAddress); err != nil {
		errs = append(errs, &ValidationError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("must be host:port, got %q", c.ListenAddress),
		})
	}

	if c.MetricsPath != "" && !strings.HasPrefix(c.MetricsPath, "/") {
		errs = append(errs, &ValidationError{
			Field:   "server.metrics_path",
			Message: "must start with /",
		})
	}

	return errs
}
