package span

import (
	"fmt"
	"sync"
	"time"

	"mercator-hq/callisto/pkg/evidence"
)

// DefaultMaxValueLength is the maximum length of string attribute values
// before truncation. Evidence payloads are scalar or small structured data,
// never business-record bulk data; the cap bounds evidence size.
const DefaultMaxValueLength = 500

// Span is a single evidence record under construction: a control reference,
// input/output attributes, status, and timestamps. A span is exclusively
// owned by the call stack that created it; after the terminal transition its
// snapshot is handed to the exporter and further mutation fails.
type Span struct {
	id             string
	control        evidence.ControlDescriptor
	correlationKey string
	catalogVersion string
	startedAt      time.Time
	maxValueLen    int

	// onEnd is installed by the factory; it hands the snapshot to the
	// exporter and releases correlation/leak-tracking state. Runs exactly
	// once, before End/EndWithError returns.
	onEnd func(*Span, *evidence.EvidenceRecord)

	mu      sync.Mutex
	status  evidence.SpanStatus
	inputs  evidence.Attributes
	outputs evidence.Attributes
	endedAt time.Time
	errInfo *evidence.ErrorDetail
}

// ID returns the unique span identifier.
func (s *Span) ID() string { return s.id }

// Control returns the control descriptor the span is bound to.
func (s *Span) Control() evidence.ControlDescriptor { return s.control }

// CorrelationKey returns the key grouping this span with siblings of the
// same logical operation.
func (s *Span) CorrelationKey() string { return s.correlationKey }

// StartedAt returns when the span was opened.
func (s *Span) StartedAt() time.Time { return s.startedAt }

// Status returns the current lifecycle status.
func (s *Span) Status() evidence.SpanStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SetInput records an input attribute. Allowed only while the span is OPEN;
// returns SpanClosedError after a terminal transition.
func (s *Span) SetInput(key string, value any) error {
	return s.setAttribute("set_input", key, value, true)
}

// SetOutput records an output attribute. Allowed only while the span is
// OPEN; returns SpanClosedError after a terminal transition.
func (s *Span) SetOutput(key string, value any) error {
	return s.setAttribute("set_output", key, value, false)
}

func (s *Span) setAttribute(op, key string, value any, input bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.Terminal() {
		return evidence.NewSpanClosedError(s.id, op, s.status)
	}

	normalized := normalizeValue(value, s.maxValueLen)
	if input {
		s.inputs.Set(key, normalized)
	} else {
		s.outputs.Set(key, normalized)
	}
	return nil
}

// End transitions the span OPEN → ENDED_OK and hands its snapshot to the
// exporter before returning. Calling End (or EndWithError) on an already
// ended span fails with SpanAlreadyEndedError and does not produce a second
// evidence record.
func (s *Span) End() error {
	return s.end(evidence.StatusEndedOK, nil)
}

// EndWithError transitions the span OPEN → ENDED_ERROR, capturing the error
// message and kind verbatim, and hands the snapshot to the exporter before
// returning. Same exactly-once rule as End.
func (s *Span) EndWithError(err error) error {
	detail := &evidence.ErrorDetail{Kind: "error"}
	if err != nil {
		detail.Message = err.Error()
		detail.Kind = errorKind(err)
	}
	return s.end(evidence.StatusEndedError, detail)
}

func (s *Span) end(status evidence.SpanStatus, detail *evidence.ErrorDetail) error {
	s.mu.Lock()
	if s.status.Terminal() {
		terminal := s.status
		s.mu.Unlock()
		return evidence.NewSpanAlreadyEndedError(s.id, terminal)
	}

	s.status = status
	s.endedAt = time.Now()
	s.errInfo = detail

	// Immutable snapshot taken at enqueue time: later mutation (which the
	// terminal status already forbids) cannot corrupt an in-flight record.
	record := s.snapshotLocked()
	onEnd := s.onEnd
	s.mu.Unlock()

	if onEnd != nil {
		onEnd(s, record)
	}
	return nil
}

// snapshotLocked projects the span into its wire form. Caller holds s.mu.
func (s *Span) snapshotLocked() *evidence.EvidenceRecord {
	return &evidence.EvidenceRecord{
		SpanID:         s.id,
		Framework:      s.control.Framework,
		ControlID:      s.control.ID,
		ControlTitle:   s.control.Title,
		Citation:       s.control.Citation,
		CorrelationKey: s.correlationKey,
		Status:         s.status,
		StartedAt:      s.startedAt,
		EndedAt:        s.endedAt,
		Inputs:         s.inputs.Clone(),
		Outputs:        s.outputs.Clone(),
		Error:          s.errInfo,
		CatalogVersion: s.catalogVersion,
		RecordedAt:     s.endedAt,
	}
}

// errorKind derives the evidence "kind" for a recorded error. Errors can
// classify themselves via a Kind() method; anything else is recorded by its
// Go type.
func errorKind(err error) string {
	type kinder interface {
		Kind() string
	}
	if k, ok := err.(kinder); ok {
		return k.Kind()
	}
	return fmt.Sprintf("%T", err)
}

// normalizeValue coerces an attribute value into the small set of evidence
// payload types, truncating strings to maxLen.
func normalizeValue(value any, maxLen int) any {
	switch v := value.(type) {
	case string:
		return truncate(v, maxLen)
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return v
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case time.Duration:
		return v.String()
	case map[string]string:
		out := make(map[string]string, len(v))
		for key, val := range v {
			out[key] = truncate(val, maxLen)
		}
		return out
	case nil:
		return nil
	default:
		return truncate(fmt.Sprintf("%v", v), maxLen)
	}
}

// truncate caps a string at maxLen, appending an ellipsis marker.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
