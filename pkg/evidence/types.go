package evidence

import (
	"context"
	"io"
	"time"
)

// ControlDescriptor identifies a single citable regulatory obligation, such
// as "GDPR Art.15" or "SOC 2 CC6.1". Descriptors are registered once at
// startup and never mutated afterwards, so every exported evidence record
// cites a stable control definition.
type ControlDescriptor struct {
	// Framework is the regulatory framework name (e.g., "gdpr", "soc2").
	Framework string `json:"framework" yaml:"framework"`

	// ID is the control identifier within the framework (e.g., "Art.15").
	ID string `json:"id" yaml:"id"`

	// Title is the human-readable control title (e.g., "Right of Access").
	Title string `json:"title" yaml:"title"`

	// Citation is the citation text for auditors, if the catalog provides one.
	Citation string `json:"citation,omitempty" yaml:"citation,omitempty"`
}

// Key returns the unique "framework/id" key for the descriptor.
func (d ControlDescriptor) Key() string {
	return d.Framework + "/" + d.ID
}

// SpanStatus is the lifecycle state of an evidence span.
type SpanStatus string

const (
	// StatusOpen is the initial state: attributes may still be recorded.
	StatusOpen SpanStatus = "open"

	// StatusEndedOK is the terminal state for a successful operation.
	StatusEndedOK SpanStatus = "ended_ok"

	// StatusEndedError is the terminal state for a failed operation.
	StatusEndedError SpanStatus = "ended_error"
)

// Terminal reports whether the status is a terminal state.
func (s SpanStatus) Terminal() bool {
	return s == StatusEndedOK || s == StatusEndedError
}

// ErrorDetail captures the business error recorded on a failed span.
// The message and kind are recorded verbatim, never reinterpreted.
type ErrorDetail struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

// Attribute is a single key/value evidence entry. Values are scalars or
// small structured payloads (strings, numbers, booleans, short mappings),
// never business-record bulk data.
type Attribute struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Attributes is an insertion-ordered mapping of evidence entries. Setting an
// existing key replaces the value in place, preserving the original position.
type Attributes []Attribute

// Set records a value under key, replacing any existing entry in place.
func (a *Attributes) Set(key string, value any) {
	for i := range *a {
		if (*a)[i].Key == key {
			(*a)[i].Value = value
			return
		}
	}
	*a = append(*a, Attribute{Key: key, Value: value})
}

// Get returns the value recorded under key.
func (a Attributes) Get(key string) (any, bool) {
	for i := range a {
		if a[i].Key == key {
			return a[i].Value, true
		}
	}
	return nil, false
}

// Clone returns a deep copy of the attribute list. Values are copied by
// assignment; callers must not hand mutable values to Set in the first place.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	copy(out, a)
	return out
}

// Map flattens the attributes into a plain map, losing ordering. Intended
// for tests and display, not for the wire form.
func (a Attributes) Map() map[string]any {
	m := make(map[string]any, len(a))
	for i := range a {
		m[a[i].Key] = a[i].Value
	}
	return m
}

// EvidenceRecord is the immutable wire form of a finished span. It is
// snapshotted when the span reaches a terminal state and handed to the
// export pipeline; nothing mutates it afterwards.
type EvidenceRecord struct {
	// SpanID is the unique identifier of the originating span.
	SpanID string `json:"span_id"`

	// Framework and ControlID cite the control the span evidences.
	Framework string `json:"framework"`
	ControlID string `json:"control_id"`

	// ControlTitle and Citation are carried from the control descriptor so
	// each record is independently intelligible to an auditor.
	ControlTitle string `json:"control_title,omitempty"`
	Citation     string `json:"citation,omitempty"`

	// CorrelationKey groups records from sibling spans of one logical
	// operation, possibly across frameworks.
	CorrelationKey string `json:"correlation_key"`

	// Status is the terminal span status ("ended_ok" or "ended_error").
	Status SpanStatus `json:"status"`

	// StartedAt and EndedAt bound the evidenced operation.
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`

	// Inputs and Outputs are the attributes captured while the span was open,
	// in insertion order.
	Inputs  Attributes `json:"inputs,omitempty"`
	Outputs Attributes `json:"outputs,omitempty"`

	// Error holds the business error for ended_error records.
	Error *ErrorDetail `json:"error,omitempty"`

	// CatalogVersion identifies the control catalog revision that defined
	// the cited control (git commit SHA when catalogs are git-sourced).
	CatalogVersion string `json:"catalog_version,omitempty"`

	// RecordedAt is when the snapshot was taken (terminal transition time).
	RecordedAt time.Time `json:"recorded_at"`
}

// Query defines filter parameters for querying archived evidence records.
type Query struct {
	// Time range over StartedAt, inclusive on both ends.
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	// Filters
	Framework      string `json:"framework,omitempty"`
	ControlID      string `json:"control_id,omitempty"`
	CorrelationKey string `json:"correlation_key,omitempty"`
	Status         string `json:"status,omitempty"` // "ended_ok", "ended_error"

	// Pagination
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// Sorting
	SortBy    string `json:"sort_by,omitempty"`    // "started_at", "ended_at", "recorded_at"
	SortOrder string `json:"sort_order,omitempty"` // "asc", "desc"
}

// Sink receives batches of finished evidence records. The exporter treats
// delivery as fire-and-forget from the caller's perspective: a failing sink
// must never surface to the instrumented operation.
//
// Implementations must be safe for concurrent use. A returned error marks
// the whole batch as undelivered; the exporter decides whether to retry.
type Sink interface {
	// Deliver transmits a batch of records. Records within a batch may share
	// correlation keys but each record is independently valid.
	Deliver(ctx context.Context, records []*EvidenceRecord) error

	// Close releases any resources held by the sink.
	Close() error
}

// Storage is the interface for archive storage backends holding evidence
// records locally for operator queries, audit export, and retention.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Store persists an evidence record.
	Store(ctx context.Context, record *EvidenceRecord) error

	// Query retrieves records matching the query filters.
	// Returns an empty slice if no records match.
	Query(ctx context.Context, query *Query) ([]*EvidenceRecord, error)

	// QueryStream returns a channel of records for memory-efficient streaming
	// of large result sets. Both channels are closed when the query completes;
	// callers should drain both.
	QueryStream(ctx context.Context, query *Query) (<-chan *EvidenceRecord, <-chan error, error)

	// Count returns the number of records matching the query filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes records matching the query filters and returns the
	// number deleted. Used for retention enforcement.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases any resources held by the storage backend.
	Close() error
}

// Exporter writes evidence records to an audit handoff format (JSON, CSV).
// This is the operator-facing export, distinct from the live Sink pipeline.
type Exporter interface {
	Export(ctx context.Context, records []*EvidenceRecord, w io.Writer) error
}
