package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/callisto/pkg/evidence/exporter"
	"mercator-hq/callisto/pkg/evidence/registry"
	"mercator-hq/callisto/pkg/evidence/span"
)

// Config contains engine configuration.
type Config struct {
	// MaxValueLength caps string attribute values on spans. Default: 500.
	MaxValueLength int

	// Hooks receives span lifecycle notifications, typically from the
	// metrics collector. Optional.
	Hooks span.Hooks
}

// Engine is the composition root of the evidence pipeline: it seals the
// control registry, owns the correlation and open-span state, and hands out
// per-framework span factories wired to the exporter.
//
// The engine is created once at startup and shared; all methods are safe
// for concurrent use.
type Engine struct {
	registry     *registry.Registry
	exporter     *exporter.Exporter
	correlations *span.Correlations
	tracker      *span.OpenTracker
	factories    map[string]*span.Factory
	logger       *slog.Logger
}

// New seals the registry and builds one span factory per registered
// framework. Controls cannot be added after this point; catalog changes
// require a restart.
func New(reg *registry.Registry, exp *exporter.Exporter, cfg *Config) (*Engine, error) {
	if reg == nil {
		return nil, fmt.Errorf("engine requires a control registry")
	}
	if exp == nil {
		return nil, fmt.Errorf("engine requires an exporter")
	}
	if cfg == nil {
		cfg = &Config{}
	}

	reg.Seal()
	if reg.Size() == 0 {
		return nil, fmt.Errorf("control registry is empty; register a catalog before starting the engine")
	}

	e := &Engine{
		registry:     reg,
		exporter:     exp,
		correlations: span.NewCorrelations(),
		tracker:      span.NewOpenTracker(),
		factories:    make(map[string]*span.Factory),
		logger:       slog.Default().With("component", "evidence.engine"),
	}

	for _, framework := range reg.Frameworks() {
		e.factories[framework] = span.NewFactory(framework, reg, e.correlations, exp, &span.FactoryConfig{
			MaxValueLength: cfg.MaxValueLength,
			Tracker:        e.tracker,
			Hooks:          cfg.Hooks,
		})
	}

	e.logger.Info("evidence engine initialized",
		"frameworks", reg.Frameworks(),
		"controls", reg.Size(),
		"catalog_version", reg.CatalogVersion(),
	)

	return e, nil
}

// Factory returns the span factory for a framework. The set of frameworks
// is frozen at engine construction.
func (e *Engine) Factory(framework string) (*span.Factory, error) {
	f, ok := e.factories[framework]
	if !ok {
		return nil, fmt.Errorf("no controls registered for framework %q", framework)
	}
	return f, nil
}

// Begin is a convenience for Factory(framework).Begin(controlID, opts...).
func (e *Engine) Begin(framework, controlID string, opts ...span.BeginOption) (*span.Span, error) {
	f, err := e.Factory(framework)
	if err != nil {
		return nil, err
	}
	return f.Begin(controlID, opts...)
}

// Registry returns the sealed control registry, for introspection.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Correlation returns the member span ids of a live correlation context,
// or nil if the key is unknown or already reclaimed.
func (e *Engine) Correlation(key string) []string {
	return e.correlations.Get(key)
}

// CorrelationCount returns the number of live correlation contexts.
func (e *Engine) CorrelationCount() int {
	return e.correlations.Size()
}

// OpenSpans returns the spans that have not reached a terminal state,
// oldest first.
func (e *Engine) OpenSpans() []span.OpenSpanInfo {
	return e.tracker.Open()
}

// OpenCount returns the number of currently open spans.
func (e *Engine) OpenCount() int {
	return e.tracker.Count()
}

// QueueDepth returns the exporter's current queue depth.
func (e *Engine) QueueDepth() int {
	return e.exporter.QueueDepth()
}

// ExporterStats returns a snapshot of the exporter's counters.
func (e *Engine) ExporterStats() exporter.Stats {
	return e.exporter.Stats()
}

// Flush delivers everything queued so far.
func (e *Engine) Flush(ctx context.Context) error {
	return e.exporter.Flush(ctx)
}

// Shutdown runs the audit sweep and drains the exporter. Spans still OPEN
// at shutdown are leaked evidence: each is logged with its control,
// correlation key, and age. They are never auto-closed; fabricating a
// terminal status would forge evidence.
func (e *Engine) Shutdown(ctx context.Context) error {
	leaked := e.tracker.Open()
	if len(leaked) > 0 {
		e.logger.Warn("audit sweep found open spans at shutdown", "count", len(leaked))
		for _, info := range leaked {
			e.logger.Warn("span leaked without a terminal transition",
				"span_id", info.SpanID,
				"control", info.Framework+"/"+info.ControlID,
				"correlation_key", info.CorrelationKey,
				"age", time.Since(info.StartedAt).Round(time.Millisecond),
			)
		}
	}

	return e.exporter.Shutdown(ctx)
}
