package journal

import (
	"context"
	"testing"
	"time"
)

func TestRunRoundTrip(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	runID, err := store.BeginRun(ctx, "/library")
	if err != nil {
		t.Fatalf("begin run: %v", err)
	}

	records := []FileRecord{
		{RunID: runID, Path: "/library/a.mkv", Outcome: "processed", Action: "synthesize from 7.1", Duration: 90 * time.Second},
		{RunID: runID, Path: "/library/b.mkv", Outcome: "skipped", Action: "already complete"},
		{RunID: runID, Path: "/library/c.mkv", Outcome: "failed", Action: "synthesize from 7.1", Detail: "merge failure"},
	}
	for _, record := range records {
		if err := store.RecordFile(ctx, record); err != nil {
			t.Fatalf("record file: %v", err)
		}
	}

	if err := store.FinishRun(ctx, runID, 1, 1, 1); err != nil {
		t.Fatalf("finish run: %v", err)
	}

	runs, err := store.RecentRuns(ctx, 5)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	run := runs[0]
	if run.Processed != 1 || run.Skipped != 1 || run.Failed != 1 {
		t.Fatalf("unexpected tallies: %+v", run)
	}
	if run.FinishedAt == nil {
		t.Fatal("finished_at not recorded")
	}

	files, err := store.RunFiles(ctx, runID)
	if err != nil {
		t.Fatalf("run files: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 records, got %d", len(files))
	}
	if files[0].Duration != 90*time.Second {
		t.Fatalf("duration lost: %v", files[0].Duration)
	}
	if files[2].Detail != "merge failure" {
		t.Fatalf("detail lost: %q", files[2].Detail)
	}
}

func TestRecentRunsOrderAndLimit(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	var last int64
	for i := 0; i < 3; i++ {
		last, err = store.BeginRun(ctx, "/library")
		if err != nil {
			t.Fatalf("begin run: %v", err)
		}
	}

	runs, err := store.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != last {
		t.Fatalf("expected newest first, got %d", runs[0].ID)
	}
}
