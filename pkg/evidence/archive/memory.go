package archive

import (
	"context"
	"sort"
	"sync"

	"mercator-hq/callisto/pkg/evidence"
)

// MemoryArchive implements the Storage interface using an in-memory map.
// Intended for testing and local development, not production.
type MemoryArchive struct {
	records map[string]*evidence.EvidenceRecord
	mu      sync.RWMutex
}

// NewMemoryArchive creates a new in-memory archive backend.
func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{
		records: make(map[string]*evidence.EvidenceRecord),
	}
}

// Store persists an evidence record to memory. Idempotent per span id.
func (s *MemoryArchive) Store(ctx context.Context, record *evidence.EvidenceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.SpanID]; exists {
		return nil
	}
	recordCopy := *record
	s.records[record.SpanID] = &recordCopy

	return nil
}

// Query retrieves evidence records matching the query filters.
func (s *MemoryArchive) Query(ctx context.Context, query *evidence.Query) ([]*evidence.EvidenceRecord, error) {
	s.mu.RLock()
	var results []*evidence.EvidenceRecord
	for _, record := range s.records {
		if matchesQuery(record, query) {
			recordCopy := *record
			results = append(results, &recordCopy)
		}
	}
	s.mu.RUnlock()

	sortRecords(results, query)
	return paginate(results, query), nil
}

// QueryStream returns a channel of evidence records. Both channels are
// closed when the stream completes.
func (s *MemoryArchive) QueryStream(ctx context.Context, query *evidence.Query) (<-chan *evidence.EvidenceRecord, <-chan error, error) {
	recordsCh := make(chan *evidence.EvidenceRecord, 100)
	errCh := make(chan error, 1)

	go func() {
		defer close(recordsCh)
		defer close(errCh)

		results, err := s.Query(ctx, query)
		if err != nil {
			errCh <- err
			return
		}

		for _, record := range results {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case recordsCh <- record:
			}
		}
	}()

	return recordsCh, errCh, nil
}

// Count returns the number of evidence records matching the query filters.
func (s *MemoryArchive) Count(ctx context.Context, query *evidence.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.records {
		if matchesQuery(record, query) {
			count++
		}
	}
	return count, nil
}

// Delete removes evidence records matching the query filters.
func (s *MemoryArchive) Delete(ctx context.Context, query *evidence.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, record := range s.records {
		if matchesQuery(record, query) {
			delete(s.records, id)
			deleted++
		}
	}
	return deleted, nil
}

// Close releases resources held by the archive backend.
func (s *MemoryArchive) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]*evidence.EvidenceRecord)
	return nil
}

// GetBySpanID retrieves a single record by span id (for testing).
func (s *MemoryArchive) GetBySpanID(spanID string) *evidence.EvidenceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[spanID]
	if !ok {
		return nil
	}
	recordCopy := *record
	return &recordCopy
}

// Size returns the number of records in the archive (for testing).
func (s *MemoryArchive) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// matchesQuery checks if a record matches the query filters.
func matchesQuery(record *evidence.EvidenceRecord, query *evidence.Query) bool {
	if query.StartTime != nil && record.StartedAt.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && record.StartedAt.After(*query.EndTime) {
		return false
	}
	if query.Framework != "" && record.Framework != query.Framework {
		return false
	}
	if query.ControlID != "" && record.ControlID != query.ControlID {
		return false
	}
	if query.CorrelationKey != "" && record.CorrelationKey != query.CorrelationKey {
		return false
	}
	if query.Status != "" && string(record.Status) != query.Status {
		return false
	}
	return true
}

// sortRecords orders results by the query's sort field and direction,
// defaulting to started_at descending.
func sortRecords(records []*evidence.EvidenceRecord, query *evidence.Query) {
	asc := query.SortOrder == "asc"
	sort.Slice(records, func(i, j int) bool {
		var before bool
		switch query.SortBy {
		case "ended_at":
			before = records[i].EndedAt.Before(records[j].EndedAt)
		case "recorded_at":
			before = records[i].RecordedAt.Before(records[j].RecordedAt)
		default:
			before = records[i].StartedAt.Before(records[j].StartedAt)
		}
		if asc {
			return before
		}
		return !before
	})
}

// paginate applies the query's offset and limit.
func paginate(records []*evidence.EvidenceRecord, query *evidence.Query) []*evidence.EvidenceRecord {
	start := query.Offset
	if start > len(records) {
		return []*evidence.EvidenceRecord{}
	}

	end := len(records)
	if query.Limit > 0 && start+query.Limit < end {
		end = start + query.Limit
	}

	return records[start:end]
}
