package evidence

import "fmt"

// UnknownControlError is returned when a caller requests a (framework, id)
// pair that is not registered. The operation must not proceed as if evidence
// was recorded.
type UnknownControlError struct {
	Framework string
	ControlID string
}

// Error implements the error interface.
func (e *UnknownControlError) Error() string {
	return fmt.Sprintf("unknown control %s/%s: not present in the control registry", e.Framework, e.ControlID)
}

// NewUnknownControlError creates a new UnknownControlError.
func NewUnknownControlError(framework, controlID string) *UnknownControlError {
	return &UnknownControlError{Framework: framework, ControlID: controlID}
}

// DuplicateControlError is returned when a (framework, id) pair is registered
// twice. Registration happens only at startup, so this is a fatal error.
type DuplicateControlError struct {
	Framework string
	ControlID string
}

// Error implements the error interface.
func (e *DuplicateControlError) Error() string {
	return fmt.Sprintf("duplicate control %s/%s: already registered", e.Framework, e.ControlID)
}

// NewDuplicateControlError creates a new DuplicateControlError.
func NewDuplicateControlError(framework, controlID string) *DuplicateControlError {
	return &DuplicateControlError{Framework: framework, ControlID: controlID}
}

// RegistrySealedError is returned when registration is attempted after the
// registry entered serving state.
type RegistrySealedError struct {
	Framework string
	ControlID string
}

// Error implements the error interface.
func (e *RegistrySealedError) Error() string {
	return fmt.Sprintf("registry sealed: cannot register control %s/%s after startup", e.Framework, e.ControlID)
}

// NewRegistrySealedError creates a new RegistrySealedError.
func NewRegistrySealedError(framework, controlID string) *RegistrySealedError {
	return &RegistrySealedError{Framework: framework, ControlID: controlID}
}

// SpanClosedError is returned when an attribute is recorded on a span that
// has already reached a terminal state. It indicates a caller programming
// error: the evidence for that operation may be incomplete.
type SpanClosedError struct {
	SpanID string
	Op     string // "set_input", "set_output"
	Status SpanStatus
}

// Error implements the error interface.
func (e *SpanClosedError) Error() string {
	return fmt.Sprintf("span %s is closed (status=%s): %s rejected", e.SpanID, e.Status, e.Op)
}

// NewSpanClosedError creates a new SpanClosedError.
func NewSpanClosedError(spanID, op string, status SpanStatus) *SpanClosedError {
	return &SpanClosedError{SpanID: spanID, Op: op, Status: status}
}

// SpanAlreadyEndedError is returned when End or EndWithError is called on a
// span that already reached a terminal state. The second call does not
// produce a second evidence record.
type SpanAlreadyEndedError struct {
	SpanID string
	Status SpanStatus
}

// Error implements the error interface.
func (e *SpanAlreadyEndedError) Error() string {
	return fmt.Sprintf("span %s already ended (status=%s)", e.SpanID, e.Status)
}

// NewSpanAlreadyEndedError creates a new SpanAlreadyEndedError.
func NewSpanAlreadyEndedError(spanID string, status SpanStatus) *SpanAlreadyEndedError {
	return &SpanAlreadyEndedError{SpanID: spanID, Status: status}
}

// ExportError represents a delivery failure on the export path. It is
// recorded as a local observability event and never propagated back to the
// instrumented caller.
type ExportError struct {
	Sink     string // sink name ("otlp", "archive", "memory", ...)
	Records  int    // number of records in the failed batch
	Attempts int    // delivery attempts made
	Cause    error  // underlying error
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [sink=%s, records=%d, attempts=%d]: %v", e.Sink, e.Records, e.Attempts, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ExportError) Unwrap() error {
	return e.Cause
}

// NewExportError creates a new ExportError.
func NewExportError(sink string, records, attempts int, cause error) *ExportError {
	return &ExportError{Sink: sink, Records: records, Attempts: attempts, Cause: cause}
}

// StorageError represents an error from an archive storage backend.
type StorageError struct {
	Backend   string // "sqlite", "memory"
	Operation string // "store", "query", "delete", ...
	Cause     error  // underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}

// QueryError represents an error during query validation or execution.
type QueryError struct {
	Query *Query
	Cause error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("query error: %v", e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *QueryError) Unwrap() error {
	return e.Cause
}

// NewQueryError creates a new QueryError.
func NewQueryError(query *Query, cause error) *QueryError {
	return &QueryError{Query: query, Cause: cause}
}

// RetentionError represents an error during retention enforcement.
type RetentionError struct {
	RetentionDays int
	Cause         error
}

// Error implements the error interface.
func (e *RetentionError) Error() string {
	return fmt.Sprintf("retention error [retention_days=%d]: %v", e.RetentionDays, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *RetentionError) Unwrap() error {
	return e.Cause
}

// NewRetentionError creates a new RetentionError.
func NewRetentionError(retentionDays int, cause error) *RetentionError {
	return &RetentionError{RetentionDays: retentionDays, Cause: cause}
}
