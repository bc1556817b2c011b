package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/telemetry/health"
	"mercator-hq/callisto/pkg/telemetry/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

func testServerConfig() *config.ServerConfig {
	return &config.ServerConfig{
		ListenAddress:   "127.0.0.1:0",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		IdleTimeout:     30 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

func TestServer_Routes(t *testing.T) {
	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true}, prometheus.NewRegistry())
	srv := NewServer(testServerConfig(), health.New(time.Second), Options{
		Metrics: collector.Handler(),
		Version: VersionInfo{Version: "1.0.0", Commit: "abc", BuildTime: "2026-08-24"},
	})

	handler := srv.Handler()

	for _, path := range []string{"/health", "/ready", "/version", "/metrics"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status code = %d, want 200", path, rec.Code)
		}
	}
}

func TestServer_NoMetricsHandler(t *testing.T) {
	srv := NewServer(testServerConfig(), health.New(time.Second), Options{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /metrics without a collector = %d, want 404", rec.Code)
	}
}

func TestServer_CustomMetricsPath(t *testing.T) {
	cfg := testServerConfig()
	cfg.MetricsPath = "/internal/metrics"

	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true}, prometheus.NewRegistry())
	srv := NewServer(cfg, health.New(time.Second), Options{Metrics: collector.Handler()})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/internal/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("GET /internal/metrics status code = %d, want 200", rec.Code)
	}
}

func TestServer_MetricsExposition(t *testing.T) {
	collector := metrics.NewCollector(&config.MetricsConfig{
		Enabled:   true,
		Namespace: "callisto",
		Subsystem: "evidence",
	}, prometheus.NewRegistry())
	collector.RecordSpanStarted("gdpr")

	srv := NewServer(testServerConfig(), health.New(time.Second), Options{Metrics: collector.Handler()})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "callisto_evidence_spans_started_total") {
		t.Error("metrics exposition missing span counter")
	}
}

func TestServer_IsRunning(t *testing.T) {
	srv := NewServer(testServerConfig(), health.New(time.Second), Options{})
	if srv.IsRunning() {
		t.Error("IsRunning() = true before Start()")
	}
}
