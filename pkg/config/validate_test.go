package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return DefaultConfig()
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("Validate() rejected the default configuration: %v", err)
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "unknown catalog mode",
			mutate: func(c *Config) { c.Catalog.Mode = "ftp" },
			field:  "catalog.mode",
		},
		{
			name:   "file mode without paths",
			mutate: func(c *Config) { c.Catalog.Mode = CatalogModeFile },
			field:  "catalog.paths",
		},
		{
			name:   "git mode without repository",
			mutate: func(c *Config) { c.Catalog.Mode = CatalogModeGit },
			field:  "catalog.git.repository",
		},
		{
			name:   "unknown sink",
			mutate: func(c *Config) { c.Exporter.Sink = "kafka" },
			field:  "exporter.sink",
		},
		{
			name: "otlp endpoint without port",
			mutate: func(c *Config) {
				c.Exporter.Sink = SinkOTLP
				c.Exporter.OTLP.Endpoint = "collector"
			},
			field: "exporter.otlp.endpoint",
		},
		{
			name: "batch larger than queue",
			mutate: func(c *Config) {
				c.Exporter.QueueSize = 10
				c.Exporter.BatchSize = 20
			},
			field: "exporter.batch_size",
		},
		{
			name: "initial backoff above max",
			mutate: func(c *Config) {
				c.Exporter.InitialBackoff = c.Exporter.MaxBackoff * 2
			},
			field: "exporter.initial_backoff",
		},
		{
			name:   "unknown archive backend",
			mutate: func(c *Config) { c.Archive.Backend = "postgres" },
			field:  "archive.backend",
		},
		{
			name:   "unknown sqlite driver",
			mutate: func(c *Config) { c.Archive.SQLite.Driver = "duckdb" },
			field:  "archive.sqlite.driver",
		},
		{
			name:   "negative retention days",
			mutate: func(c *Config) { c.Retention.Days = -1 },
			field:  "retention.days",
		},
		{
			name:   "invalid cron schedule",
			mutate: func(c *Config) { c.Retention.Schedule = "every tuesday" },
			field:  "retention.schedule",
		},
		{
			name: "archive before delete without path",
			mutate: func(c *Config) {
				c.Retention.ArchiveBeforeDelete = true
				c.Retention.ArchivePath = ""
			},
			field: "retention.archive_path",
		},
		{
			name:   "unknown log level",
			mutate: func(c *Config) { c.Telemetry.Logging.Level = "shouty" },
			field:  "telemetry.logging.level",
		},
		{
			name:   "unknown log format",
			mutate: func(c *Config) { c.Telemetry.Logging.Format = "xml" },
			field:  "telemetry.logging.format",
		},
		{
			name: "non-increasing buckets",
			mutate: func(c *Config) {
				c.Telemetry.Metrics.SpanDurationBuckets = []float64{0.1, 0.1, 1}
			},
			field: "telemetry.metrics.span_duration_buckets",
		},
		{
			name:   "bad listen address",
			mutate: func(c *Config) { c.Server.ListenAddress = "nine-four-six-five" },
			field:  "server.listen_address",
		},
		{
			name:   "metrics path without slash",
			mutate: func(c *Config) { c.Server.MetricsPath = "metrics" },
			field:  "server.metrics_path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("Validate() accepted an invalid configuration")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not mention field %q", err.Error(), tt.field)
			}
		})
	}
}

func TestValidate_AggregatesAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Catalog.Mode = "ftp"
	cfg.Exporter.Sink = "kafka"
	cfg.Retention.Days = -1

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate() accepted an invalid configuration")
	}

	var errs ValidationErrors
	if !asValidationErrors(err, &errs) {
		t.Fatalf("error is %T, want ValidationErrors", err)
	}
	if len(errs) != 3 {
		t.Errorf("got %d validation errors, want 3: %v", len(errs), errs)
	}
}

func asValidationErrors(err error, target *ValidationErrors) bool {
	ve, ok := err.(ValidationErrors)
	if ok {
		*target = ve
	}
	return ok
}
