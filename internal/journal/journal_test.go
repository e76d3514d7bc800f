package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"dailycast/internal/pipeline"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestJournalRecordsRunLifecycle(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	if err := j.RecordStart(ctx, "run-1", "en", time.Now()); err != nil {
		t.Fatalf("record start: %v", err)
	}
	if err := j.RecordFinish(ctx, "run-1", pipeline.OutcomeIngested, "item-1", ""); err != nil {
		t.Fatalf("record finish: %v", err)
	}

	runs, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected one run, got %d", len(runs))
	}
	run := runs[0]
	if run.RunID != "run-1" || run.Locale != "en" || run.ItemID != "item-1" {
		t.Fatalf("unexpected run: %+v", run)
	}
	if run.Outcome != string(pipeline.OutcomeIngested) {
		t.Fatalf("unexpected outcome: %s", run.Outcome)
	}
	if run.FinishedAt.IsZero() {
		t.Fatal("finish time not recorded")
	}
}

func TestJournalRecentOrdersNewestFirst(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)

	for i, id := range []string{"run-a", "run-b", "run-c"} {
		if err := j.RecordStart(ctx, id, "en", base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("record start %s: %v", id, err)
		}
	}

	runs, err := j.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected two runs, got %d", len(runs))
	}
	if runs[0].RunID != "run-c" || runs[1].RunID != "run-b" {
		t.Fatalf("unexpected order: %s, %s", runs[0].RunID, runs[1].RunID)
	}
	if runs[0].Outcome != "running" {
		t.Fatalf("unfinished run must read as running, got %s", runs[0].Outcome)
	}
}

func TestJournalReopenKeepsSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.db")

	first, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := first.RecordStart(context.Background(), "run-1", "de", time.Now()); err != nil {
		t.Fatalf("record start: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	runs, err := second.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected persisted run, got %d", len(runs))
	}
}
