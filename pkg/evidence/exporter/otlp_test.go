package exporter

import (
	"testing"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/instrumentation"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"mercator-hq/callisto/pkg/evidence"
)

func TestTraceIDDerivation(t *testing.T) {
	a := traceIDFor("op-1")
	b := traceIDFor("op-1")
	c := traceIDFor("op-2")

	if a != b {
		t.Error("same correlation key produced different trace ids")
	}
	if a == c {
		t.Error("different correlation keys collided on one trace id")
	}
	if !a.IsValid() {
		t.Error("derived trace id is invalid")
	}
}

func TestSpanIDDerivation(t *testing.T) {
	a := spanIDFor("span-1")
	b := spanIDFor("span-1")
	c := spanIDFor("span-2")

	if a != b {
		t.Error("same span id hashed to different OTLP span ids")
	}
	if a == c {
		t.Error("different span ids collided")
	}
	if !a.IsValid() {
		t.Error("derived span id is invalid")
	}
}

func TestOTLPStubMapping(t *testing.T) {
	started := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	ended := started.Add(40 * time.Millisecond)

	sink := &OTLPSink{
		resource: resource.NewSchemaless(semconv.ServiceName("callisto")),
		scope:    instrumentation.Scope{Name: "mercator-hq/callisto"},
	}

	record := &evidence.EvidenceRecord{
		SpanID:         "span-9",
		Framework:      "gdpr",
		ControlID:      "Art.15",
		ControlTitle:   "Right of Access",
		Citation:       "Regulation (EU) 2016/679, Article 15",
		CorrelationKey: "op-9",
		Status:         evidence.StatusEndedError,
		StartedAt:      started,
		EndedAt:        ended,
		Inputs:         evidence.Attributes{{Key: "user_id", Value: "123"}},
		Outputs:        evidence.Attributes{{Key: "records_returned", Value: 0}},
		Error:          &evidence.ErrorDetail{Message: "user not found", Kind: "*errors.errorString"},
		CatalogVersion: "abc123",
	}

	stub := sink.stub(record)

	if stub.Name != "gdpr.Art.15" {
		t.Errorf("span name = %q, want gdpr.Art.15", stub.Name)
	}
	if stub.SpanContext.TraceID() != traceIDFor("op-9") {
		t.Error("trace id not derived from the correlation key")
	}
	if !stub.StartTime.Equal(started) || !stub.EndTime.Equal(ended) {
		t.Error("span times do not match the record")
	}
	if stub.Status.Code != codes.Error || stub.Status.Description != "user not found" {
		t.Errorf("status = %+v, want Error with the record's message", stub.Status)
	}

	attrs := make(map[string]any, len(stub.Attributes))
	for _, kv := range stub.Attributes {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}

	want := map[string]any{
		"compliance.framework":       "gdpr",
		"compliance.control":         "Art.15",
		"compliance.correlation_key": "op-9",
		"compliance.result":          "ended_error",
		"compliance.catalog_version": "abc123",
		"input.user_id":              "123",
		"output.records_returned":    int64(0),
		"error.message":              "user not found",
	}
	for k, v := range want {
		if attrs[k] != v {
			t.Errorf("attribute %s = %v, want %v", k, attrs[k], v)
		}
	}
}

func TestOTLPStubOKStatus(t *testing.T) {
	sink := &OTLPSink{
		resource: resource.NewSchemaless(semconv.ServiceName("callisto")),
		scope:    instrumentation.Scope{Name: "mercator-hq/callisto"},
	}

	stub := sink.stub(testRecord("ok-span"))
	if stub.Status.Code != codes.Ok {
		t.Errorf("status code = %v, want Ok", stub.Status.Code)
	}
	if stub.Status.Description != "" {
		t.Errorf("status description = %q, want empty", stub.Status.Description)
	}
}
