// Package server provides the operational HTTP server for Callisto.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/telemetry/health"
)

// Server hosts the operational endpoints: health and readiness probes,
// version and introspection, and the Prometheus scrape endpoint. It
// carries no evidence traffic; the engine is driven in-process by the
// instrumented application.
type Server struct {
	config       *config.ServerConfig
	checker      *health.Checker
	introspector health.Introspector
	metrics      http.Handler
	version      VersionInfo

	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// VersionInfo carries build identification for the /version endpoint.
type VersionInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Options configures optional endpoint wiring.
type Options struct {
	// Introspector backs the /introspect endpoint. Optional.
	Introspector health.Introspector

	// Metrics backs the /metrics endpoint. Optional.
	Metrics http.Handler

	// Version backs the /version endpoint.
	Version VersionInfo
}

// NewServer creates a new operational server.
func NewServer(cfg *config.ServerConfig, checker *health.Checker, opts Options) *Server {
	return &Server{
		config:       cfg,
		checker:      checker,
		introspector: opts.Introspector,
		metrics:      opts.Metrics,
		version:      opts.Version,
		shutdownChan: make(chan struct{}),
	}
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddress,
		Handler:      s.setupRoutes(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting operational server", "address", s.config.ListenAddress)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		slog.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Stop requests a graceful shutdown from another goroutine.
func (s *Server) Stop() {
	select {
	case <-s.shutdownChan:
	default:
		close(s.shutdownChan)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		slog.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("operational server stopped")
	})

	return shutdownErr
}

// setupRoutes configures the endpoint mux.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	health.RegisterEndpoints(mux, s.checker, s.introspector,
		s.version.Version, s.version.Commit, s.version.BuildTime)

	if s.metrics != nil {
		mux.Handle(s.metricsPath(), s.metrics)
	}

	return mux
}

// metricsPath returns the configured metrics path, defaulting to /metrics.
func (s *Server) metricsPath() string {
	if s.config.MetricsPath != "" {
		return s.config.MetricsPath
	}
	return "/metrics"
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the configured HTTP handler. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}
