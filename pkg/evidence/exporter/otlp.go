package exporter

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/instrumentation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"mercator-hq/callisto/pkg/evidence"
)

// OTLPConfig contains configuration for the OTLP gRPC sink.
type OTLPConfig struct {
	// Endpoint is the collector endpoint, host:port.
	Endpoint string

	// Insecure disables TLS on the collector connection.
	Insecure bool

	// Timeout bounds a single export call.
	// Default: 10 seconds
	Timeout time.Duration

	// ServiceName is the resource service name attached to exported spans.
	// Default: "callisto"
	ServiceName string
}

// OTLPSink delivers evidence records to an OTLP-compatible collector as
// trace spans. Each record becomes one span named "framework.controlID";
// the trace id is derived from the correlation key, so sibling spans of one
// logical operation land in one trace on the collector side.
type OTLPSink struct {
	exporter *otlptrace.Exporter
	resource *resource.Resource
	scope    instrumentation.Scope
}

// NewOTLPSink dials the collector and returns a ready sink.
func NewOTLPSink(ctx context.Context, cfg *OTLPConfig) (*OTLPSink, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("otlp sink requires an endpoint")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "callisto"
	}

	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithTimeout(timeout),
	}
	if cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()))
	}
	opts = append(opts, otlptracegrpc.WithDialOption(grpc.WithBlock()))

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := otlptracegrpc.NewClient(opts...)
	exp, err := otlptrace.New(dialCtx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	return &OTLPSink{
		exporter: exp,
		resource: resource.NewSchemaless(semconv.ServiceName(serviceName)),
		scope:    instrumentation.Scope{Name: "mercator-hq/callisto"},
	}, nil
}

// Name identifies the sink in log lines.
func (s *OTLPSink) Name() string { return "otlp" }

// Deliver converts the batch to span snapshots and exports them.
func (s *OTLPSink) Deliver(ctx context.Context, records []*evidence.EvidenceRecord) error {
	stubs := make(tracetest.SpanStubs, 0, len(records))
	for _, record := range records {
		stubs = append(stubs, s.stub(record))
	}
	return s.exporter.ExportSpans(ctx, stubs.Snapshots())
}

// Close shuts the exporter down.
func (s *OTLPSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.exporter.Shutdown(ctx)
}

// stub maps one evidence record onto an OTLP span.
func (s *OTLPSink) stub(record *evidence.EvidenceRecord) tracetest.SpanStub {
	status := sdktrace.Status{Code: codes.Ok}
	if record.Status == evidence.StatusEndedError {
		status = sdktrace.Status{Code: codes.Error}
		if record.Error != nil {
			status.Description = record.Error.Message
		}
	}

	return tracetest.SpanStub{
		Name: record.Framework + "." + record.ControlID,
		SpanContext: trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    traceIDFor(record.CorrelationKey),
			SpanID:     spanIDFor(record.SpanID),
			TraceFlags: trace.FlagsSampled,
		}),
		SpanKind:             trace.SpanKindInternal,
		StartTime:            record.StartedAt,
		EndTime:              record.EndedAt,
		Attributes:           spanAttributes(record),
		Status:               status,
		Resource:             s.resource,
		InstrumentationScope: s.scope,
	}
}

// traceIDFor derives a stable trace id from the correlation key, so every
// span of one logical operation shares a trace.
func traceIDFor(correlationKey string) trace.TraceID {
	sum := sha256.Sum256([]byte(correlationKey))
	var id trace.TraceID
	copy(id[:], sum[:16])
	return id
}

// spanIDFor derives a stable span id from the evidence span id.
func spanIDFor(spanID string) trace.SpanID {
	sum := sha256.Sum256([]byte(spanID))
	var id trace.SpanID
	copy(id[:], sum[:8])
	return id
}

// spanAttributes flattens the record into OTLP attributes.
func spanAttributes(record *evidence.EvidenceRecord) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("compliance.span_id", record.SpanID),
		attribute.String("compliance.framework", record.Framework),
		attribute.String("compliance.control", record.ControlID),
		attribute.String("compliance.control_title", record.ControlTitle),
		attribute.String("compliance.correlation_key", record.CorrelationKey),
		attribute.String("compliance.result", string(record.Status)),
	}
	if record.Citation != "" {
		attrs = append(attrs, attribute.String("compliance.citation", record.Citation))
	}
	if record.CatalogVersion != "" {
		attrs = append(attrs, attribute.String("compliance.catalog_version", record.CatalogVersion))
	}

	for _, a := range record.Inputs {
		attrs = append(attrs, attributeFor("input."+a.Key, a.Value))
	}
	for _, a := range record.Outputs {
		attrs = append(attrs, attributeFor("output."+a.Key, a.Value))
	}

	if record.Error != nil {
		attrs = append(attrs,
			attribute.String("error.message", record.Error.Message),
			attribute.String("error.kind", record.Error.Kind),
		)
	}

	return attrs
}

// attributeFor converts a normalized evidence value to an OTLP attribute.
func attributeFor(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int32:
		return attribute.Int64(key, int64(v))
	case int64:
		return attribute.Int64(key, v)
	case uint:
		return attribute.Int64(key, int64(v))
	case uint32:
		return attribute.Int64(key, int64(v))
	case uint64:
		return attribute.Int64(key, int64(v))
	case float32:
		return attribute.Float64(key, float64(v))
	case float64:
		return attribute.Float64(key, v)
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
