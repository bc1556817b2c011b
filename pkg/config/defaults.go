package config

import "time"

// Catalog modes.
const (
	CatalogModeBuiltin = "builtin"
	CatalogModeFile    = "file"
	CatalogModeGit     = "git"
)

// Exporter sinks.
const (
	SinkOTLP    = "otlp"
	SinkArchive = "archive"
	SinkMemory  = "memory"
)

// Archive backends.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// DefaultConfig returns a Config populated with all default values.
// Booleans that default to true (archive, metrics, redaction, server)
// are set here; Load unmarshals YAML over this baseline so an explicit
// false in the file survives.
func DefaultConfig() *Config {
	cfg := &Config{
		Archive: ArchiveConfig{Enabled: true},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{RedactPII: true},
			Metrics: MetricsConfig{Enabled: true},
		},
		Server: ServerConfig{Enabled: true},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in default values for any unset fields.
func ApplyDefaults(cfg *Config) {
	applyCatalogDefaults(&cfg.Catalog)
	applyEngineDefaults(&cfg.Engine)
	applyExporterDefaults(&cfg.Exporter)
	applyArchiveDefaults(&cfg.Archive)
	applyRetentionDefaults(&cfg.Retention)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyServerDefaults(&cfg.Server)
}

func applyCatalogDefaults(c *CatalogConfig) {
	if c.Mode == "" {
		c.Mode = CatalogModeBuiltin
	}
	if c.Git.Branch == "" {
		c.Git.Branch = "main"
	}
	if c.Git.Path == "" {
		c.Git.Path = "."
	}
	if c.Git.Depth == 0 {
		c.Git.Depth = 1
	}
	if c.Git.Timeout <= 0 {
		c.Git.Timeout = 60 * time.Second
	}
}

func applyEngineDefaults(c *EngineConfig) {
	if c.MaxValueLength <= 0 {
		c.MaxValueLength = 500
	}
}

func applyExporterDefaults(c *ExporterConfig) {
	if c.Sink == "" {
		c.Sink = SinkArchive
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 1000
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 50
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = 2 * time.Second
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 200 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 10 * time.Second
	}
	if c.DeliveryTimeout <= 0 {
		c.DeliveryTimeout = 10 * time.Second
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = 15 * time.Second
	}
	if c.OTLP.Endpoint == "" {
		c.OTLP.Endpoint = "localhost:4317"
	}
	if c.OTLP.Timeout <= 0 {
		c.OTLP.Timeout = 10 * time.Second
	}
	if c.OTLP.ServiceName == "" {
		c.OTLP.ServiceName = "callisto"
	}
}

func applyArchiveDefaults(c *ArchiveConfig) {
	if c.Backend == "" {
		c.Backend = BackendSQLite
	}
	if c.SQLite.Path == "" {
		c.SQLite.Path = "data/evidence.db"
	}
	if c.SQLite.Driver == "" {
		c.SQLite.Driver = "sqlite3"
	}
	if c.SQLite.MaxOpenConns <= 0 {
		c.SQLite.MaxOpenConns = 10
	}
	if c.SQLite.MaxIdleConns <= 0 {
		c.SQLite.MaxIdleConns = 5
	}
	if c.SQLite.BusyTimeout <= 0 {
		c.SQLite.BusyTimeout = 5 * time.Second
	}
}

func applyRetentionDefaults(c *RetentionConfig) {
	if c.Days == 0 {
		c.Days = 90
	}
	if c.Schedule == "" {
		c.Schedule = "0 3 * * *"
	}
}

func applyTelemetryDefaults(c *TelemetryConfig) {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "callisto"
	}
	if c.Metrics.Subsystem == "" {
		c.Metrics.Subsystem = "evidence"
	}
}

func applyServerDefaults(c *ServerConfig) {
	if c.ListenAddress == "" {
		c.ListenAddress = "127.0.0.1:9465"
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 120 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 15 * time.Second
	}
	if c.MetricsPath == "" {
		c.MetricsPath = "/metrics"
	}
}
