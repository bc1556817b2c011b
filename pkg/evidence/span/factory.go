package span

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mercator-hq/callisto/pkg/evidence"
)

// ControlResolver resolves control ids against the control registry.
// Implemented by *registry.Registry.
type ControlResolver interface {
	Lookup(framework, id string) (evidence.ControlDescriptor, error)
	CatalogVersion() string
}

// Enqueuer receives finished evidence records. Implemented by
// *exporter.Exporter. Enqueue must not block beyond a bounded, small
// critical section.
type Enqueuer interface {
	Enqueue(record *evidence.EvidenceRecord) error
}

// Hooks receives span lifecycle notifications, typically wired to the
// metrics collector. All fields are optional.
type Hooks struct {
	// OnBegin fires after a span is opened.
	OnBegin func(framework string)

	// OnEnd fires after a span reaches a terminal state and its record has
	// been handed to the exporter.
	OnEnd func(framework string, status evidence.SpanStatus)
}

// Factory constructs spans for a single regulatory framework. Factories are
// explicitly constructed, injectable components with process-wide lifetime;
// callers receive a reference from the engine at startup rather than
// importing an ambient singleton.
//
// Factories are safe for concurrent use.
type Factory struct {
	framework    string
	resolver     ControlResolver
	correlations *Correlations
	tracker      *OpenTracker
	enqueuer     Enqueuer
	hooks        Hooks
	maxValueLen  int
	logger       *slog.Logger
}

// FactoryConfig contains optional factory settings.
type FactoryConfig struct {
	// MaxValueLength caps string attribute values. Default: 500.
	MaxValueLength int

	// Tracker records open spans for the shutdown audit sweep. Optional.
	Tracker *OpenTracker

	// Hooks receives lifecycle notifications. Optional.
	Hooks Hooks
}

// NewFactory creates a span factory for a framework.
// The resolver, correlations and enqueuer must be non-nil; cfg may be nil.
func NewFactory(framework string, resolver ControlResolver, correlations *Correlations, enqueuer Enqueuer, cfg *FactoryConfig) *Factory {
	if cfg == nil {
		cfg = &FactoryConfig{}
	}
	maxLen := cfg.MaxValueLength
	if maxLen <= 0 {
		maxLen = DefaultMaxValueLength
	}

	return &Factory{
		framework:    framework,
		resolver:     resolver,
		correlations: correlations,
		tracker:      cfg.Tracker,
		enqueuer:     enqueuer,
		hooks:        cfg.Hooks,
		maxValueLen:  maxLen,
		logger:       slog.Default().With("component", "span.factory", "framework", framework),
	}
}

// Framework returns the framework this factory creates spans for.
func (f *Factory) Framework() string { return f.framework }

// BeginOption configures a single Begin call.
type BeginOption func(*beginOptions)

type beginOptions struct {
	correlationKey string
}

// WithCorrelationKey joins the new span to an existing correlation context
// instead of minting a fresh key. The context is created lazily if this is
// the first span to reference the key, which supports callers that generate
// their own operation id before any span exists.
func WithCorrelationKey(key string) BeginOption {
	return func(o *beginOptions) {
		o.correlationKey = key
	}
}

// Begin validates controlID against the registry and constructs a new OPEN
// span bound to it. The span is registered as a member of its correlation
// context in the same step; partial registration is impossible.
//
// Returns UnknownControlError unchanged if the control is not registered.
func (f *Factory) Begin(controlID string, opts ...BeginOption) (*Span, error) {
	var o beginOptions
	for _, opt := range opts {
		opt(&o)
	}

	control, err := f.resolver.Lookup(f.framework, controlID)
	if err != nil {
		return nil, err
	}

	key := o.correlationKey
	if key == "" {
		key = uuid.New().String()
	}

	s := &Span{
		id:             uuid.New().String(),
		control:        control,
		correlationKey: key,
		catalogVersion: f.resolver.CatalogVersion(),
		startedAt:      time.Now(),
		maxValueLen:    f.maxValueLen,
		status:         evidence.StatusOpen,
		onEnd:          f.handleEnd,
	}

	f.correlations.join(key, s.id)
	if f.tracker != nil {
		f.tracker.add(OpenSpanInfo{
			SpanID:         s.id,
			Framework:      control.Framework,
			ControlID:      control.ID,
			CorrelationKey: key,
			StartedAt:      s.startedAt,
		})
	}
	if f.hooks.OnBegin != nil {
		f.hooks.OnBegin(f.framework)
	}

	return s, nil
}

// handleEnd runs on the span's terminal transition, before End/EndWithError
// returns to the caller: the record is handed to the exporter first, then
// correlation and leak-tracking state settle.
func (f *Factory) handleEnd(s *Span, record *evidence.EvidenceRecord) {
	if err := f.enqueuer.Enqueue(record); err != nil {
		// Export-path failures are isolated from business logic; the loss
		// has already been counted and logged by the exporter.
		f.logger.Error("evidence record not queued",
			"span_id", s.id,
			"control", s.control.Key(),
			"error", err,
		)
	}

	f.correlations.settle(s.correlationKey, s.id)
	if f.tracker != nil {
		f.tracker.remove(s.id)
	}
	if f.hooks.OnEnd != nil {
		f.hooks.OnEnd(f.framework, record.Status)
	}
}
