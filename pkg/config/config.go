package config

import (
	"time"

	"mercator-hq/callisto/pkg/telemetry/logging"
)

// Config is the root configuration structure for Callisto. It contains
// all configuration sections for the control catalog, the span engine,
// the export pipeline, the local archive, retention, telemetry, and the
// operational server.
type Config struct {
	// Catalog configures where control descriptors are loaded from.
	Catalog CatalogConfig `yaml:"catalog"`

	// Engine configures span recording behavior.
	Engine EngineConfig `yaml:"engine"`

	// Exporter configures the batching export pipeline and its sink.
	Exporter ExporterConfig `yaml:"exporter"`

	// Archive configures the local queryable evidence store.
	Archive ArchiveConfig `yaml:"archive"`

	// Retention configures pruning of the local archive.
	Retention RetentionConfig `yaml:"retention"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Server configures the operational HTTP server.
	Server ServerConfig `yaml:"server"`
}

// CatalogConfig configures the control catalog source.
type CatalogConfig struct {
	// Mode specifies how control descriptors are loaded.
	// Options: "builtin" (compiled-in GDPR and SOC 2 controls),
	// "file" (local YAML catalogs), "git" (catalog repository).
	// Default: "builtin"
	Mode string `yaml:"mode"`

	// Paths are the catalog files or directories when Mode is "file".
	Paths []string `yaml:"paths"`

	// Watch enables drift detection on local catalog files. A changed
	// catalog is reported, never hot-swapped; the registry stays sealed
	// for the process lifetime.
	// Default: false
	Watch bool `yaml:"watch"`

	// Git configures the catalog repository when Mode is "git".
	Git GitCatalogConfig `yaml:"git"`
}

// GitCatalogConfig configures git-based catalog loading.
type GitCatalogConfig struct {
	// Repository is the catalog repository URL (HTTPS or SSH).
	Repository string `yaml:"repository"`

	// Branch to load catalogs from.
	// Default: "main"
	Branch string `yaml:"branch"`

	// Path within the repository holding catalog files.
	// Default: "." (repository root)
	Path string `yaml:"path"`

	// LocalPath is where the repository is cloned.
	LocalPath string `yaml:"local_path"`

	// Depth limits clone depth. 0 means full history.
	// Default: 1
	Depth int `yaml:"depth"`

	// Timeout bounds the clone operation.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`
}

// EngineConfig configures span recording behavior.
type EngineConfig struct {
	// MaxValueLength caps string attribute values captured on spans.
	// Longer values are truncated with a marker.
	// Default: 500
	MaxValueLength int `yaml:"max_value_length"`
}

// ExporterConfig configures the batching export pipeline.
type ExporterConfig struct {
	// Sink selects the delivery target.
	// Options: "otlp" (OTLP/gRPC collector), "archive" (local store only),
	// "memory" (in-process, for tests).
	// Default: "archive"
	Sink string `yaml:"sink"`

	// QueueSize is the capacity of the export queue. Enqueue never
	// blocks: when the queue is full the record is dropped and counted.
	// Default: 1000
	QueueSize int `yaml:"queue_size"`

	// BatchSize is the maximum number of records per delivery.
	// Default: 50
	BatchSize int `yaml:"batch_size"`

	// FlushInterval bounds how long a partial batch waits before delivery.
	// Default: 2s
	FlushInterval time.Duration `yaml:"flush_interval"`

	// MaxAttempts is the number of delivery attempts per batch,
	// including the first.
	// Default: 5
	MaxAttempts int `yaml:"max_attempts"`

	// InitialBackoff is the delay before the first retry.
	// Default: 200ms
	InitialBackoff time.Duration `yaml:"initial_backoff"`

	// MaxBackoff caps the retry delay.
	// Default: 10s
	MaxBackoff time.Duration `yaml:"max_backoff"`

	// DeliveryTimeout bounds a single delivery attempt.
	// Default: 10s
	DeliveryTimeout time.Duration `yaml:"delivery_timeout"`

	// DrainTimeout bounds the shutdown drain.
	// Default: 15s
	DrainTimeout time.Duration `yaml:"drain_timeout"`

	// OTLP configures the OTLP sink when Sink is "otlp".
	OTLP OTLPSinkConfig `yaml:"otlp"`
}

// OTLPSinkConfig configures the OTLP/gRPC sink.
type OTLPSinkConfig struct {
	// Endpoint is the collector address ("host:port").
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables transport security. Use only for local
	// collectors or sidecars.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Timeout bounds the export call.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// ServiceName identifies this process in exported spans.
	// Default: "callisto"
	ServiceName string `yaml:"service_name"`
}

// ArchiveConfig configures the local evidence archive.
type ArchiveConfig struct {
	// Enabled controls whether finished records are stored locally.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend selects the storage backend.
	// Options: "sqlite", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite configures the SQLite backend.
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// SQLiteConfig configures SQLite-based archive storage.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/evidence.db"
	Path string `yaml:"path"`

	// Driver selects the SQLite driver: "sqlite3" (cgo) or "sqlite"
	// (pure Go).
	// Default: "sqlite3"
	Driver string `yaml:"driver"`

	// MaxOpenConns is the maximum number of open database connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging for better concurrency.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RetentionConfig configures pruning of the local archive.
type RetentionConfig struct {
	// Days is the retention window in days. Records whose span started
	// before the cutoff are pruned. 0 disables age-based pruning.
	// Default: 90
	Days int `yaml:"days"`

	// MaxRecords caps the archive size; the oldest records beyond the
	// cap are pruned. 0 disables count-based pruning.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`

	// Schedule is a five-field cron expression for unattended pruning.
	// Empty disables the scheduler.
	// Default: "0 3 * * *"
	Schedule string `yaml:"schedule"`

	// ArchiveBeforeDelete exports pruned records to JSON files before
	// deletion.
	// Default: false
	ArchiveBeforeDelete bool `yaml:"archive_before_delete"`

	// ArchivePath is the directory for pre-deletion exports.
	ArchivePath string `yaml:"archive_path"`
}

// TelemetryConfig configures observability.
type TelemetryConfig struct {
	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures Prometheus metrics.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum log level.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in logs.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactPII enables automatic redaction of sensitive log values.
	// Default: true
	RedactPII bool `yaml:"redact_pii"`

	// RedactPatterns contains custom redaction patterns applied in
	// addition to the built-in ones.
	RedactPatterns []logging.RedactPattern `yaml:"redact_patterns"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the metric name prefix.
	// Default: "callisto"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric name subsystem segment.
	// Default: "evidence"
	Subsystem string `yaml:"subsystem"`

	// SpanDurationBuckets are histogram buckets for span durations in
	// seconds.
	SpanDurationBuckets []float64 `yaml:"span_duration_buckets"`

	// BatchSizeBuckets are histogram buckets for export batch sizes.
	BatchSizeBuckets []float64 `yaml:"batch_size_buckets"`
}

// ServerConfig configures the operational HTTP server.
type ServerConfig struct {
	// Enabled controls whether the operational server is started.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:9465"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	// Default: 10s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out a response.
	// Default: 10s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration for graceful shutdown.
	// Default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MetricsPath is where the Prometheus handler is mounted.
	// Default: "/metrics"
	MetricsPath string `yaml:"metrics_path"`
}
