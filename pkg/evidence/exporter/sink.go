package exporter

import (
	"context"
	"errors"
	"sync"

	"mercator-hq/callisto/pkg/evidence"
)

// MemorySink is an in-memory sink for tests and local development. It can
// be told to fail the next n deliveries to exercise the retry path.
type MemorySink struct {
	mu       sync.Mutex
	records  []*evidence.EvidenceRecord
	failNext int
	failErr  error
	delivers int
	closed   bool
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Name identifies the sink in log lines.
func (s *MemorySink) Name() string { return "memory" }

// FailNext makes the next n Deliver calls return err.
func (s *MemorySink) FailNext(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
	s.failErr = err
}

// Deliver appends the batch to the in-memory store.
func (s *MemorySink) Deliver(ctx context.Context, records []*evidence.EvidenceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.delivers++
	if s.closed {
		return errors.New("memory sink closed")
	}
	if s.failNext > 0 {
		s.failNext--
		return s.failErr
	}

	s.records = append(s.records, records...)
	return nil
}

// Close marks the sink closed.
func (s *MemorySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Records returns a copy of everything delivered so far.
func (s *MemorySink) Records() []*evidence.EvidenceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*evidence.EvidenceRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Delivers returns the number of Deliver calls made, including failures.
func (s *MemorySink) Delivers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delivers
}

// MultiSink fans each batch out to several sinks. Every sink sees every
// batch; errors are joined so one failing destination does not starve the
// others of evidence.
type MultiSink struct {
	sinks []evidence.Sink
}

// NewMultiSink creates a sink fanning out to the given sinks.
func NewMultiSink(sinks ...evidence.Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Name identifies the sink in log lines.
func (s *MultiSink) Name() string { return "multi" }

// Deliver forwards the batch to every sink.
func (s *MultiSink) Deliver(ctx context.Context, records []*evidence.EvidenceRecord) error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Deliver(ctx, records); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink.
func (s *MultiSink) Close() error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ArchiveSink delivers records into a storage backend, giving the local
// archive the same at-least-once batching and retry semantics as remote
// destinations.
type ArchiveSink struct {
	storage evidence.Storage
}

// NewArchiveSink wraps a storage backend as a sink.
func NewArchiveSink(storage evidence.Storage) *ArchiveSink {
	return &ArchiveSink{storage: storage}
}

// Name identifies the sink in log lines.
func (s *ArchiveSink) Name() string { return "archive" }

// Deliver stores each record in the batch. The first storage error aborts
// the batch so the retry covers the remainder; Store is idempotent per
// span id, so redelivery of the already-stored prefix is harmless.
func (s *ArchiveSink) Deliver(ctx context.Context, records []*evidence.EvidenceRecord) error {
	for _, record := range records {
		if err := s.storage.Store(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying storage.
func (s *ArchiveSink) Close() error {
	return s.storage.Close()
}
