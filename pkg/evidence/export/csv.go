package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"time"

	"mercator-hq/callisto/pkg/evidence"
)

// CSVExporter exports evidence records to CSV format.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{
		IncludeHeader: includeHeader,
	}
}

// Export writes evidence records to the provided writer in CSV format.
// Nested structures (input/output attributes) are flattened to JSON cells.
func (e *CSVExporter) Export(ctx context.Context, records []*evidence.EvidenceRecord, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(e.getHeaderRow()); err != nil {
			return evidence.NewExportError("csv", len(records), 1, err)
		}
	}

	for _, record := range records {
		if err := writer.Write(e.recordToRow(record)); err != nil {
			return evidence.NewExportError("csv", len(records), 1, err)
		}
	}

	return nil
}

// ExportStream exports evidence records from a channel in CSV format.
// The writer flushes periodically so long-running exports make visible
// progress.
func (e *CSVExporter) ExportStream(ctx context.Context, recordsCh <-chan *evidence.EvidenceRecord, w io.Writer) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(e.getHeaderRow()); err != nil {
			return evidence.NewExportError("csv", 0, 1, err)
		}
	}

	recordCount := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case record, ok := <-recordsCh:
			if !ok {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return evidence.NewExportError("csv", recordCount, 1, err)
				}
				return nil
			}

			if err := writer.Write(e.recordToRow(record)); err != nil {
				return evidence.NewExportError("csv", recordCount, 1, err)
			}

			recordCount++
			if recordCount%100 == 0 {
				writer.Flush()
				if err := writer.Error(); err != nil {
					return evidence.NewExportError("csv", recordCount, 1, err)
				}
			}
		}
	}
}

// getHeaderRow returns the CSV header row.
func (e *CSVExporter) getHeaderRow() []string {
	return []string{
		"span_id",
		"framework", "control_id", "control_title", "citation",
		"correlation_key",
		"status", "started_at", "ended_at", "recorded_at",
		"inputs", "outputs",
		"error_message", "error_kind",
		"catalog_version",
	}
}

// recordToRow converts an evidence record to a CSV row.
func (e *CSVExporter) recordToRow(record *evidence.EvidenceRecord) []string {
	formatTime := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(time.RFC3339)
	}

	formatJSON := func(v interface{}) string {
		if v == nil {
			return ""
		}
		data, _ := json.Marshal(v)
		return string(data)
	}

	errorMessage, errorKind := "", ""
	if record.Error != nil {
		errorMessage = record.Error.Message
		errorKind = record.Error.Kind
	}

	return []string{
		record.SpanID,
		record.Framework,
		record.ControlID,
		record.ControlTitle,
		record.Citation,
		record.CorrelationKey,
		string(record.Status),
		formatTime(record.StartedAt),
		formatTime(record.EndedAt),
		formatTime(record.RecordedAt),
		formatJSON(record.Inputs),
		formatJSON(record.Outputs),
		errorMessage,
		errorKind,
		record.CatalogVersion,
	}
}
