package config

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Catalog.Mode != CatalogModeBuiltin {
		t.Errorf("catalog.mode = %q, want %q", cfg.Catalog.Mode, CatalogModeBuiltin)
	}
	if cfg.Catalog.Git.Branch != "main" {
		t.Errorf("catalog.git.branch = %q, want main", cfg.Catalog.Git.Branch)
	}
	if cfg.Engine.MaxValueLength != 500 {
		t.Errorf("engine.max_value_length = %d, want 500", cfg.Engine.MaxValueLength)
	}
	if cfg.Exporter.Sink != SinkArchive {
		t.Errorf("exporter.sink = %q, want %q", cfg.Exporter.Sink, SinkArchive)
	}
	if cfg.Exporter.FlushInterval != 2*time.Second {
		t.Errorf("exporter.flush_interval = %v, want 2s", cfg.Exporter.FlushInterval)
	}
	if cfg.Exporter.OTLP.Endpoint != "localhost:4317" {
		t.Errorf("exporter.otlp.endpoint = %q", cfg.Exporter.OTLP.Endpoint)
	}
	if !cfg.Archive.Enabled || cfg.Archive.Backend != BackendSQLite {
		t.Errorf("archive = %+v", cfg.Archive)
	}
	if cfg.Retention.Days != 90 || cfg.Retention.Schedule != "0 3 * * *" {
		t.Errorf("retention = %+v", cfg.Retention)
	}
	if !cfg.Telemetry.Metrics.Enabled || cfg.Telemetry.Metrics.Namespace != "callisto" {
		t.Errorf("metrics = %+v", cfg.Telemetry.Metrics)
	}
	if !cfg.Server.Enabled || cfg.Server.ListenAddress != "127.0.0.1:9465" {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Server.MetricsPath != "/metrics" {
		t.Errorf("server.metrics_path = %q, want /metrics", cfg.Server.MetricsPath)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Exporter.QueueSize = 42
	cfg.Retention.Days = 7
	cfg.Telemetry.Logging.Level = "debug"

	ApplyDefaults(cfg)

	if cfg.Exporter.QueueSize != 42 {
		t.Errorf("queue_size = %d, explicit value lost", cfg.Exporter.QueueSize)
	}
	if cfg.Retention.Days != 7 {
		t.Errorf("retention.days = %d, explicit value lost", cfg.Retention.Days)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("logging.level = %q, explicit value lost", cfg.Telemetry.Logging.Level)
	}
	// Unset fields still got defaults.
	if cfg.Exporter.BatchSize != 50 {
		t.Errorf("batch_size = %d, want default 50", cfg.Exporter.BatchSize)
	}
}
