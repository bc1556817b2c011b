package archive

import (
	"context"
	"fmt"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/evidence"
)

func TestMemoryArchive_StoreAndQuery(t *testing.T) {
	s := NewMemoryArchive()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	records := []*evidence.EvidenceRecord{
		archivedRecord("m1", "gdpr", "Art.15", evidence.StatusEndedOK, base),
		archivedRecord("m2", "gdpr", "Art.17", evidence.StatusEndedError, base.Add(time.Hour)),
		archivedRecord("m3", "soc2", "CC6.1", evidence.StatusEndedOK, base.Add(2*time.Hour)),
	}
	for _, record := range records {
		if err := s.Store(ctx, record); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}

	got, err := s.Query(ctx, &evidence.Query{Framework: "gdpr"})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Query() returned %d records, want 2", len(got))
	}

	count, err := s.Count(ctx, &evidence.Query{Status: "ended_error"})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
}

func TestMemoryArchive_StoreCopiesRecord(t *testing.T) {
	s := NewMemoryArchive()
	ctx := context.Background()

	record := archivedRecord("copy", "gdpr", "Art.15", evidence.StatusEndedOK, time.Now())
	if err := s.Store(ctx, record); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	record.Framework = "mutated"
	if got := s.GetBySpanID("copy"); got.Framework != "gdpr" {
		t.Error("stored record shares memory with the caller's copy")
	}
}

func TestMemoryArchive_StoreIdempotentPerSpan(t *testing.T) {
	s := NewMemoryArchive()
	ctx := context.Background()

	record := archivedRecord("dup", "gdpr", "Art.15", evidence.StatusEndedOK, time.Now())
	_ = s.Store(ctx, record)
	_ = s.Store(ctx, record)

	if s.Size() != 1 {
		t.Errorf("Size() = %d after redelivery, want 1", s.Size())
	}
}

func TestMemoryArchive_SortAndPagination(t *testing.T) {
	s := NewMemoryArchive()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		record := archivedRecord(fmt.Sprintf("p%d", i), "gdpr", "Art.15", evidence.StatusEndedOK, base.Add(time.Duration(i)*time.Minute))
		if err := s.Store(ctx, record); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}

	got, err := s.Query(ctx, &evidence.Query{SortBy: "started_at", SortOrder: "asc", Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(got) != 2 || got[0].SpanID != "p1" || got[1].SpanID != "p2" {
		t.Errorf("page = %v, want [p1 p2]", spanIDs(got))
	}
}

func TestMemoryArchive_Delete(t *testing.T) {
	s := NewMemoryArchive()
	ctx := context.Background()
	base := time.Now().Add(-48 * time.Hour)

	_ = s.Store(ctx, archivedRecord("old", "gdpr", "Art.15", evidence.StatusEndedOK, base))
	_ = s.Store(ctx, archivedRecord("new", "gdpr", "Art.15", evidence.StatusEndedOK, time.Now()))

	cutoff := time.Now().Add(-24 * time.Hour)
	deleted, err := s.Delete(ctx, &evidence.Query{EndTime: &cutoff})
	if err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Delete() removed %d records, want 1", deleted)
	}
	if s.GetBySpanID("new") == nil {
		t.Error("recent record deleted by age cutoff")
	}
}

func TestMemoryArchive_QueryStream(t *testing.T) {
	s := NewMemoryArchive()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		record := archivedRecord(fmt.Sprintf("st%d", i), "gdpr", "Art.15", evidence.StatusEndedOK, time.Now())
		if err := s.Store(ctx, record); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}

	recordsCh, errCh, err := s.QueryStream(ctx, &evidence.Query{Limit: 10})
	if err != nil {
		t.Fatalf("QueryStream() failed: %v", err)
	}

	streamed := 0
	for range recordsCh {
		streamed++
	}
	if err := <-errCh; err != nil {
		t.Fatalf("stream error: %v", err)
	}
	if streamed != 10 {
		t.Errorf("streamed %d records, want 10", streamed)
	}
}

func spanIDs(records []*evidence.EvidenceRecord) []string {
	ids := make([]string, len(records))
	for i, record := range records {
		ids[i] = record.SpanID
	}
	return ids
}
