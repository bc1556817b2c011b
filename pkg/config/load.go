package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// YAML is unmarshaled over the default configuration, then validated.
// Environment variables are not consulted; use LoadConfigWithEnvOverrides
// for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Variables follow the naming
// convention CALLISTO_SECTION_FIELD (e.g. CALLISTO_EXPORTER_ENDPOINT)
// and always take precedence over file-based configuration.
//
// The loading sequence is:
//  1. Load YAML over defaults
//  2. Apply environment variable overrides
//  3. Validate the final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration.
func applyEnvOverrides(cfg *Config) {
	// Catalog overrides
	if val := os.Getenv("CALLISTO_CATALOG_MODE"); val != "" {
		cfg.Catalog.Mode = val
	}
	if val := os.Getenv("CALLISTO_CATALOG_GIT_REPOSITORY"); val != "" {
		cfg.Catalog.Git.Repository = val
	}
	if val := os.Getenv("CALLISTO_CATALOG_GIT_BRANCH"); val != "" {
		cfg.Catalog.Git.Branch = val
	}
	if val := os.Getenv("CALLISTO_CATALOG_GIT_PATH"); val != "" {
		cfg.Catalog.Git.Path = val
	}
	if val := os.Getenv("CALLISTO_CATALOG_WATCH"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Catalog.Watch = b
		}
	}

	// Exporter overrides
	if val := os.Getenv("CALLISTO_EXPORTER_SINK"); val != "" {
		cfg.Exporter.Sink = val
	}
	if val := os.Getenv("CALLISTO_EXPORTER_ENDPOINT"); val != "" {
		cfg.Exporter.OTLP.Endpoint = val
	}
	if val := os.Getenv("CALLISTO_EXPORTER_INSECURE"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Exporter.OTLP.Insecure = b
		}
	}
	if val := os.Getenv("CALLISTO_EXPORTER_QUEUE_SIZE"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Exporter.QueueSize = i
		}
	}
	if val := os.Getenv("CALLISTO_EXPORTER_BATCH_SIZE"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Exporter.BatchSize = i
		}
	}
	if val := os.Getenv("CALLISTO_EXPORTER_FLUSH_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Exporter.FlushInterval = d
		}
	}
	if val := os.Getenv("CALLISTO_EXPORTER_MAX_ATTEMPTS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Exporter.MaxAttempts = i
		}
	}

	// Archive overrides
	if val := os.Getenv("CALLISTO_ARCHIVE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Archive.Enabled = b
		}
	}
	if val := os.Getenv("CALLISTO_ARCHIVE_BACKEND"); val != "" {
		cfg.Archive.Backend = val
	}
	if val := os.Getenv("CALLISTO_ARCHIVE_SQLITE_PATH"); val != "" {
		cfg.Archive.SQLite.Path = val
	}
	if val := os.Getenv("CALLISTO_ARCHIVE_SQLITE_DRIVER"); val != "" {
		cfg.Archive.SQLite.Driver = val
	}

	// Retention overrides
	if val := os.Getenv("CALLISTO_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Retention.Days = i
		}
	}
	if val := os.Getenv("CALLISTO_RETENTION_MAX_RECORDS"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Retention.MaxRecords = i
		}
	}
	if val := os.Getenv("CALLISTO_RETENTION_SCHEDULE"); val != "" {
		cfg.Retention.Schedule = val
	}

	// Telemetry overrides
	if val := os.Getenv("CALLISTO_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("CALLISTO_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("CALLISTO_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}

	// Server overrides
	if val := os.Getenv("CALLISTO_SERVER_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Server.Enabled = b
		}
	}
	if val := os.Getenv("CALLISTO_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
}
