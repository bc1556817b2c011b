package export

import (
	"context"
	"encoding/json"
	"io"

	"mercator-hq/callisto/pkg/evidence"
)

// JSONExporter exports evidence records to JSON format.
type JSONExporter struct {
	// Pretty enables pretty-printing with indentation.
	Pretty bool
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{
		Pretty: pretty,
	}
}

// Export writes evidence records to the provided writer as a JSON array.
// If Pretty is true, the JSON will be indented for readability.
func (e *JSONExporter) Export(ctx context.Context, records []*evidence.EvidenceRecord, w io.Writer) error {
	if len(records) == 0 {
		_, err := w.Write([]byte("[]"))
		return err
	}

	var data []byte
	var err error
	if e.Pretty {
		data, err = json.MarshalIndent(records, "", "  ")
	} else {
		data, err = json.Marshal(records)
	}
	if err != nil {
		return evidence.NewExportError("json", len(records), 1, err)
	}

	if _, err := w.Write(data); err != nil {
		return evidence.NewExportError("json", len(records), 1, err)
	}

	return nil
}

// ExportStream exports evidence records from a channel as a JSON array.
// This is memory-efficient for large result sets as it streams records
// one at a time instead of loading all records in memory.
func (e *JSONExporter) ExportStream(ctx context.Context, recordsCh <-chan *evidence.EvidenceRecord, w io.Writer) error {
	if _, err := w.Write([]byte("[")); err != nil {
		return evidence.NewExportError("json", 0, 1, err)
	}

	first := true
	recordCount := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case record, ok := <-recordsCh:
			if !ok {
				if _, err := w.Write([]byte("]")); err != nil {
					return evidence.NewExportError("json", recordCount, 1, err)
				}
				return nil
			}

			if !first {
				if _, err := w.Write([]byte(",")); err != nil {
					return evidence.NewExportError("json", recordCount, 1, err)
				}
				if e.Pretty {
					if _, err := w.Write([]byte("\n")); err != nil {
						return evidence.NewExportError("json", recordCount, 1, err)
					}
				}
			}
			first = false

			data, err := e.serializeRecord(record)
			if err != nil {
				return evidence.NewExportError("json", recordCount, 1, err)
			}
			if _, err := w.Write(data); err != nil {
				return evidence.NewExportError("json", recordCount, 1, err)
			}

			recordCount++
		}
	}
}

// serializeRecord serializes a single evidence record to JSON.
func (e *JSONExporter) serializeRecord(record *evidence.EvidenceRecord) ([]byte, error) {
	if e.Pretty {
		return json.MarshalIndent(record, "  ", "  ")
	}
	return json.Marshal(record)
}
