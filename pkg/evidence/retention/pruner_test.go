package retention

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/callisto/pkg/evidence"
	"mercator-hq/callisto/pkg/evidence/archive"
)

func seedArchive(t *testing.T, store *archive.MemoryArchive, id string, startedAt time.Time) {
	t.Helper()
	err := store.Store(context.Background(), &evidence.EvidenceRecord{
		SpanID:         id,
		Framework:      "gdpr",
		ControlID:      "Art.15",
		CorrelationKey: "op-" + id,
		Status:         evidence.StatusEndedOK,
		StartedAt:      startedAt,
		EndedAt:        startedAt.Add(time.Millisecond),
		RecordedAt:     startedAt.Add(time.Millisecond),
	})
	if err != nil {
		t.Fatalf("Store() failed: %v", err)
	}
}

func TestPruner_PruneByAge(t *testing.T) {
	store := archive.NewMemoryArchive()
	seedArchive(t, store, "old-1", time.Now().AddDate(0, 0, -100))
	seedArchive(t, store, "old-2", time.Now().AddDate(0, 0, -91))
	seedArchive(t, store, "recent", time.Now().AddDate(0, 0, -10))

	pruner := NewPruner(store, &Config{RetentionDays: 90})

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Prune() deleted %d records, want 2", deleted)
	}
	if store.GetBySpanID("recent") == nil {
		t.Error("record inside the retention window was deleted")
	}
	if store.GetBySpanID("old-1") != nil {
		t.Error("record outside the retention window survived")
	}
}

func TestPruner_PruneByCount(t *testing.T) {
	store := archive.NewMemoryArchive()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 10; i++ {
		seedArchive(t, store, fmt.Sprintf("c%d", i), base.Add(time.Duration(i)*time.Minute))
	}

	pruner := NewPruner(store, &Config{RetentionDays: 0, MaxRecords: 6})

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 4 {
		t.Errorf("Prune() deleted %d records, want 4", deleted)
	}

	// The oldest records went first.
	for i := 0; i < 4; i++ {
		if store.GetBySpanID(fmt.Sprintf("c%d", i)) != nil {
			t.Errorf("oldest record c%d survived count-based pruning", i)
		}
	}
	for i := 4; i < 10; i++ {
		if store.GetBySpanID(fmt.Sprintf("c%d", i)) == nil {
			t.Errorf("newer record c%d was deleted", i)
		}
	}
}

func TestPruner_DisabledByZeroConfig(t *testing.T) {
	store := archive.NewMemoryArchive()
	seedArchive(t, store, "ancient", time.Now().AddDate(-1, 0, 0))

	pruner := NewPruner(store, &Config{RetentionDays: 0, MaxRecords: 0})

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("Prune() deleted %d records with retention disabled, want 0", deleted)
	}
}

func TestPruner_ArchiveBeforeDelete(t *testing.T) {
	store := archive.NewMemoryArchive()
	seedArchive(t, store, "doomed", time.Now().AddDate(0, 0, -100))

	archiveDir := t.TempDir()
	pruner := NewPruner(store, &Config{
		RetentionDays:       90,
		ArchiveBeforeDelete: true,
		ArchivePath:         archiveDir,
	})

	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("Prune() deleted %d records, want 1", deleted)
	}

	files, err := filepath.Glob(filepath.Join(archiveDir, "evidence-*.json"))
	if err != nil || len(files) != 1 {
		t.Fatalf("archive files = %v (err %v), want exactly 1", files, err)
	}

	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("reading archive file failed: %v", err)
	}
	var archived []*evidence.EvidenceRecord
	if err := json.Unmarshal(data, &archived); err != nil {
		t.Fatalf("archive file is not valid JSON: %v", err)
	}
	if len(archived) != 1 || archived[0].SpanID != "doomed" {
		t.Errorf("archive file contents = %v, want the deleted record", archived)
	}
}

func TestScheduler_Lifecycle(t *testing.T) {
	store := archive.NewMemoryArchive()
	pruner := NewPruner(store, &Config{RetentionDays: 90, PruneSchedule: "0 3 * * *"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := pruner.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}
	if !pruner.scheduler.IsRunning() {
		t.Error("scheduler not running after Start()")
	}
	if pruner.NextPruning() == nil {
		t.Error("NextPruning() = nil for an active schedule")
	}

	pruner.Stop()
	if pruner.scheduler.IsRunning() {
		t.Error("scheduler still running after Stop()")
	}
}

func TestScheduler_InvalidCron(t *testing.T) {
	store := archive.NewMemoryArchive()
	pruner := NewPruner(store, &Config{PruneSchedule: "not a cron expression"})

	if err := pruner.Start(context.Background()); err == nil {
		t.Fatal("Start() accepted an invalid cron expression")
	}
}

func TestScheduler_EmptyScheduleIsNoop(t *testing.T) {
	store := archive.NewMemoryArchive()
	pruner := NewPruner(store, &Config{PruneSchedule: ""})

	if err := pruner.Start(context.Background()); err != nil {
		t.Fatalf("Start() with empty schedule failed: %v", err)
	}
	if pruner.scheduler.IsRunning() {
		t.Error("scheduler running despite empty schedule")
	}
}
