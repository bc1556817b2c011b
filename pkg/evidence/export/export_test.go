package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/evidence"
)

func exportRecord(id string, status evidence.SpanStatus) *evidence.EvidenceRecord {
	started := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	record := &evidence.EvidenceRecord{
		SpanID:         id,
		Framework:      "gdpr",
		ControlID:      "Art.15",
		ControlTitle:   "Right of Access",
		Citation:       "Regulation (EU) 2016/679, Article 15",
		CorrelationKey: "op-" + id,
		Status:         status,
		StartedAt:      started,
		EndedAt:        started.Add(30 * time.Millisecond),
		RecordedAt:     started.Add(30 * time.Millisecond),
		Inputs:         evidence.Attributes{{Key: "user_id", Value: "123"}},
		Outputs:        evidence.Attributes{{Key: "records_returned", Value: 2}},
		CatalogVersion: "abc123",
	}
	if status == evidence.StatusEndedError {
		record.Error = &evidence.ErrorDetail{Message: "user not found", Kind: "not_found"}
	}
	return record
}

func TestJSONExporter_Export(t *testing.T) {
	exporter := NewJSONExporter(false)
	records := []*evidence.EvidenceRecord{
		exportRecord("j1", evidence.StatusEndedOK),
		exportRecord("j2", evidence.StatusEndedError),
	}

	var buf bytes.Buffer
	if err := exporter.Export(context.Background(), records, &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	var decoded []*evidence.EvidenceRecord
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("decoded %d records, want 2", len(decoded))
	}
	if decoded[0].SpanID != "j1" || decoded[1].SpanID != "j2" {
		t.Error("record order not preserved")
	}
	if decoded[1].Error == nil || decoded[1].Error.Message != "user not found" {
		t.Error("error detail lost in export")
	}

	// Attribute insertion order survives the round trip.
	if len(decoded[0].Inputs) != 1 || decoded[0].Inputs[0].Key != "user_id" {
		t.Error("input attributes lost or reordered")
	}
}

func TestJSONExporter_EmptyInput(t *testing.T) {
	exporter := NewJSONExporter(false)

	var buf bytes.Buffer
	if err := exporter.Export(context.Background(), nil, &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	if buf.String() != "[]" {
		t.Errorf("empty export = %q, want []", buf.String())
	}
}

func TestJSONExporter_ExportStream(t *testing.T) {
	exporter := NewJSONExporter(false)

	recordsCh := make(chan *evidence.EvidenceRecord, 3)
	for _, id := range []string{"s1", "s2", "s3"} {
		recordsCh <- exportRecord(id, evidence.StatusEndedOK)
	}
	close(recordsCh)

	var buf bytes.Buffer
	if err := exporter.ExportStream(context.Background(), recordsCh, &buf); err != nil {
		t.Fatalf("ExportStream() failed: %v", err)
	}

	var decoded []*evidence.EvidenceRecord
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("streamed output is not valid JSON: %v", err)
	}
	if len(decoded) != 3 {
		t.Errorf("decoded %d records, want 3", len(decoded))
	}
}

func TestJSONExporter_StreamCancellation(t *testing.T) {
	exporter := NewJSONExporter(false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	recordsCh := make(chan *evidence.EvidenceRecord)
	var buf bytes.Buffer
	if err := exporter.ExportStream(ctx, recordsCh, &buf); err != context.Canceled {
		t.Errorf("ExportStream() error = %v, want context.Canceled", err)
	}
}

func TestCSVExporter_Export(t *testing.T) {
	exporter := NewCSVExporter(true)
	records := []*evidence.EvidenceRecord{
		exportRecord("c1", evidence.StatusEndedOK),
		exportRecord("c2", evidence.StatusEndedError),
	}

	var buf bytes.Buffer
	if err := exporter.Export(context.Background(), records, &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("CSV has %d rows, want header + 2 records", len(rows))
	}

	header := rows[0]
	if header[0] != "span_id" || header[6] != "status" {
		t.Errorf("unexpected header layout: %v", header)
	}

	col := func(row []string, name string) string {
		for i, h := range header {
			if h == name {
				return row[i]
			}
		}
		t.Fatalf("column %q not in header", name)
		return ""
	}

	if col(rows[1], "span_id") != "c1" || col(rows[1], "status") != "ended_ok" {
		t.Errorf("row 1 = %v, want c1/ended_ok", rows[1])
	}
	if col(rows[2], "error_message") != "user not found" {
		t.Errorf("error message cell = %q, want 'user not found'", col(rows[2], "error_message"))
	}
	if !strings.Contains(col(rows[1], "inputs"), "user_id") {
		t.Error("inputs cell does not contain the flattened attributes")
	}
	if col(rows[1], "started_at") != "2026-08-24T10:00:00Z" {
		t.Errorf("started_at cell = %q, want RFC3339", col(rows[1], "started_at"))
	}
}

func TestCSVExporter_NoHeader(t *testing.T) {
	exporter := NewCSVExporter(false)

	var buf bytes.Buffer
	if err := exporter.Export(context.Background(), []*evidence.EvidenceRecord{exportRecord("n1", evidence.StatusEndedOK)}, &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("CSV has %d rows, want 1 data row without header", len(rows))
	}
}

func TestCSVExporter_ExportStream(t *testing.T) {
	exporter := NewCSVExporter(true)

	recordsCh := make(chan *evidence.EvidenceRecord, 150)
	for i := 0; i < 150; i++ {
		recordsCh <- exportRecord("row", evidence.StatusEndedOK)
	}
	close(recordsCh)

	var buf bytes.Buffer
	if err := exporter.ExportStream(context.Background(), recordsCh, &buf); err != nil {
		t.Fatalf("ExportStream() failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("streamed output is not valid CSV: %v", err)
	}
	if len(rows) != 151 {
		t.Errorf("CSV has %d rows, want header + 150 records", len(rows))
	}
}
