package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/evidence"
	"mercator-hq/callisto/pkg/evidence/archive"
	"mercator-hq/callisto/pkg/evidence/engine"
	"mercator-hq/callisto/pkg/evidence/exporter"
	"mercator-hq/callisto/pkg/evidence/registry"
	"mercator-hq/callisto/pkg/evidence/retention"
	"mercator-hq/callisto/pkg/server"
	"mercator-hq/callisto/pkg/telemetry/health"
	"mercator-hq/callisto/pkg/telemetry/logging"
	"mercator-hq/callisto/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Callisto evidence engine",
	Long: `Start the Callisto evidence engine with the specified configuration.

The engine loads the control catalog, opens the evidence archive, starts
the export pipeline, and serves the operational endpoints (health,
readiness, version, introspection, metrics).

Examples:
  # Start with default config
  callisto run

  # Start with custom config
  callisto run --config /etc/callisto/config.yaml

  # Override the operational listen address
  callisto run --listen 0.0.0.0:9465

  # Validate config without starting the engine
  callisto run --dry-run`,
	RunE: runEngine,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override operational listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the engine")
}

func runEngine(cmd *cobra.Command, args []string) error {
	// Load configuration
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}

	// Initialize logging based on config
	if _, err := logging.Setup(logging.Config{
		Level:          cfg.Telemetry.Logging.Level,
		Format:         cfg.Telemetry.Logging.Format,
		AddSource:      cfg.Telemetry.Logging.AddSource,
		RedactPII:      cfg.Telemetry.Logging.RedactPII,
		RedactPatterns: cfg.Telemetry.Logging.RedactPatterns,
	}); err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	printBanner(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Build the control registry from the configured catalog source
	reg, err := buildRegistry(ctx, cfg)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	fmt.Printf("✓ Control catalog loaded (%d controls, %d frameworks)\n", reg.Size(), len(reg.Frameworks()))

	// Open the evidence archive
	var store evidence.Storage
	if cfg.Archive.Enabled {
		store, err = buildStorage(cfg)
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		fmt.Println("✓ Evidence archive opened")
	}

	// Build the delivery sink and the export pipeline. The exporter owns
	// the sink and closes it on shutdown; when the sink wraps the archive
	// that close reaches the storage too, so only a sink that leaves the
	// archive unwrapped needs a separate close here.
	sink, sinkName, err := buildSink(ctx, cfg, store)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	if store != nil && cfg.Exporter.Sink == config.SinkMemory {
		defer store.Close()
	}

	exp := exporter.New(sink, &exporter.Config{
		QueueSize:       cfg.Exporter.QueueSize,
		BatchSize:       cfg.Exporter.BatchSize,
		FlushInterval:   cfg.Exporter.FlushInterval,
		MaxAttempts:     cfg.Exporter.MaxAttempts,
		InitialBackoff:  cfg.Exporter.InitialBackoff,
		MaxBackoff:      cfg.Exporter.MaxBackoff,
		DeliveryTimeout: cfg.Exporter.DeliveryTimeout,
		DrainTimeout:    cfg.Exporter.DrainTimeout,
	})
	fmt.Printf("✓ Export pipeline started (sink=%s)\n", sinkName)

	// Metrics collector feeds span lifecycle hooks into the engine
	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	eng, err := engine.New(reg, exp, &engine.Config{
		MaxValueLength: cfg.Engine.MaxValueLength,
		Hooks:          collector.SpanHooks(),
	})
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	for _, framework := range reg.Frameworks() {
		collector.SetControlCount(framework, len(reg.Controls(framework)))
	}

	// Periodically snapshot exporter state into the metrics registry
	go observeExporter(ctx, collector, eng)

	// Health checks: archive reachability and exporter queue headroom
	checker := health.New(0)
	if store != nil {
		checker.RegisterCheck("archive", func(ctx context.Context) error {
			_, err := store.Count(ctx, &evidence.Query{})
			return err
		})
	}
	checker.RegisterCheck("exporter", func(ctx context.Context) error {
		if depth := eng.QueueDepth(); depth >= cfg.Exporter.QueueSize {
			return fmt.Errorf("export queue full (%d records)", depth)
		}
		return nil
	})

	// Catalog drift watcher
	var watcher *registry.DriftWatcher
	if cfg.Catalog.Mode == config.CatalogModeFile && cfg.Catalog.Watch {
		watcher, err = registry.NewDriftWatcher(&registry.DriftWatcherConfig{
			Paths: cfg.Catalog.Paths,
		})
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		if err := watcher.Watch(ctx, func(path string) {
			collector.RecordCatalogDrift()
			slog.Warn("catalog drift detected: file changed after registry seal; restart to apply",
				"path", path,
			)
		}); err != nil {
			return cli.NewCommandError("run", err)
		}
		defer watcher.Stop()
		fmt.Println("✓ Catalog drift watcher started")
	}

	// Retention pruner
	var pruner *retention.Pruner
	if store != nil && cfg.Retention.Schedule != "" {
		pruner = retention.NewPruner(store, &retention.Config{
			RetentionDays:       cfg.Retention.Days,
			PruneSchedule:       cfg.Retention.Schedule,
			ArchiveBeforeDelete: cfg.Retention.ArchiveBeforeDelete,
			ArchivePath:         cfg.Retention.ArchivePath,
			MaxRecords:          cfg.Retention.MaxRecords,
		})
		if err := pruner.Start(ctx); err != nil {
			slog.Warn("failed to start retention scheduler", "error", err)
			pruner = nil
		} else {
			defer pruner.Stop()
			if next := pruner.NextPruning(); next != nil {
				slog.Debug("retention scheduler started", "next_pruning", next)
			}
		}
	}

	// Operational HTTP server
	errChan := make(chan error, 1)
	var srv *server.Server
	if cfg.Server.Enabled {
		srv = server.NewServer(&cfg.Server, checker, server.Options{
			Introspector: eng,
			Metrics:      collector.Handler(),
			Version: server.VersionInfo{
				Version:   Version,
				Commit:    GitCommit,
				BuildTime: BuildDate,
			},
		})
		go func() {
			if err := srv.Start(ctx); err != nil {
				errChan <- fmt.Errorf("server error: %w", err)
			}
		}()

		fmt.Println()
		fmt.Printf("✓ Operational server listening on %s\n", cfg.Server.ListenAddress)
		fmt.Printf("✓ Health endpoint: http://%s/health\n", cfg.Server.ListenAddress)
		fmt.Printf("✓ Introspection endpoint: http://%s/introspect\n", cfg.Server.ListenAddress)
		if cfg.Telemetry.Metrics.Enabled {
			fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Server.MetricsPath)
		}
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for shutdown signal or server error
	sigChan := cli.WaitForShutdown()

	select {
	case err := <-errChan:
		return cli.NewCommandError("run", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal %s, shutting down gracefully...\n", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if srv != nil {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("server shutdown failed", "error", err)
			}
		}

		// Drain the export queue before the archive closes
		if err := eng.Shutdown(shutdownCtx); err != nil {
			slog.Error("engine shutdown failed", "error", err)
			return cli.NewCommandError("run", err)
		}

		fmt.Println("✓ Engine stopped")
		return nil
	}
}

// buildRegistry loads control descriptors from the configured catalog
// source and returns the populated (unsealed) registry.
func buildRegistry(ctx context.Context, cfg *config.Config) (*registry.Registry, error) {
	reg := registry.New()

	switch cfg.Catalog.Mode {
	case config.CatalogModeBuiltin:
		if err := reg.RegisterAll(registry.BuiltinControls()); err != nil {
			return nil, fmt.Errorf("failed to register builtin catalog: %w", err)
		}

	case config.CatalogModeFile:
		for _, path := range cfg.Catalog.Paths {
			if err := registry.LoadPath(reg, path); err != nil {
				return nil, fmt.Errorf("failed to load catalog from %q: %w", path, err)
			}
		}

	case config.CatalogModeGit:
		src, err := registry.NewGitSource(&registry.GitSourceConfig{
			Repository: cfg.Catalog.Git.Repository,
			Branch:     cfg.Catalog.Git.Branch,
			Path:       cfg.Catalog.Git.Path,
			LocalPath:  cfg.Catalog.Git.LocalPath,
			Depth:      cfg.Catalog.Git.Depth,
			Timeout:    cfg.Catalog.Git.Timeout,
		})
		if err != nil {
			return nil, err
		}
		if err := src.Load(ctx, reg); err != nil {
			return nil, fmt.Errorf("failed to load catalog from git: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported catalog mode: %s", cfg.Catalog.Mode)
	}

	return reg, nil
}

// buildStorage opens the configured archive backend.
func buildStorage(cfg *config.Config) (evidence.Storage, error) {
	switch cfg.Archive.Backend {
	case config.BackendSQLite:
		store, err := archive.NewSQLiteArchive(&archive.SQLiteConfig{
			Path:         cfg.Archive.SQLite.Path,
			Driver:       cfg.Archive.SQLite.Driver,
			MaxOpenConns: cfg.Archive.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.Archive.SQLite.MaxIdleConns,
			WALMode:      cfg.Archive.SQLite.WALMode,
			BusyTimeout:  cfg.Archive.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open SQLite archive: %w", err)
		}
		return store, nil

	case config.BackendMemory:
		return archive.NewMemoryArchive(), nil

	default:
		return nil, fmt.Errorf("unsupported archive backend: %s", cfg.Archive.Backend)
	}
}

// buildSink constructs the delivery sink for the export pipeline and
// returns it with its display name. With sink "otlp" and the archive
// enabled, records fan out to both the collector and the local archive.
func buildSink(ctx context.Context, cfg *config.Config, store evidence.Storage) (evidence.Sink, string, error) {
	switch cfg.Exporter.Sink {
	case config.SinkOTLP:
		otlp, err := exporter.NewOTLPSink(ctx, &exporter.OTLPConfig{
			Endpoint:    cfg.Exporter.OTLP.Endpoint,
			Insecure:    cfg.Exporter.OTLP.Insecure,
			Timeout:     cfg.Exporter.OTLP.Timeout,
			ServiceName: cfg.Exporter.OTLP.ServiceName,
		})
		if err != nil {
			return nil, "", fmt.Errorf("failed to connect OTLP sink: %w", err)
		}
		if store != nil {
			multi := exporter.NewMultiSink(otlp, exporter.NewArchiveSink(store))
			return multi, "otlp+archive", nil
		}
		return otlp, otlp.Name(), nil

	case config.SinkArchive:
		if store == nil {
			return nil, "", fmt.Errorf("sink %q requires the archive to be enabled", cfg.Exporter.Sink)
		}
		sink := exporter.NewArchiveSink(store)
		return sink, sink.Name(), nil

	case config.SinkMemory:
		sink := exporter.NewMemorySink()
		return sink, sink.Name(), nil

	default:
		return nil, "", fmt.Errorf("unsupported exporter sink: %s", cfg.Exporter.Sink)
	}
}

// observeExporter snapshots exporter counters into the metrics registry
// until the context is canceled.
func observeExporter(ctx context.Context, collector *metrics.Collector, eng *engine.Engine) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := eng.ExporterStats()
			collector.ObserveExporter(eng.QueueDepth(),
				stats.Enqueued, stats.Exported, stats.DroppedQueue, stats.DroppedRetries, stats.Retries)
		}
	}
}

func printBanner(cfg *config.Config) {
	fmt.Printf("Callisto v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	slog.Debug("catalog mode", "mode", cfg.Catalog.Mode)
	if cfg.Archive.Enabled {
		slog.Debug("archive enabled", "backend", cfg.Archive.Backend)
	}
	slog.Debug("exporter sink", "sink", cfg.Exporter.Sink)
}
