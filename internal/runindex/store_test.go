package runindex

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"reelpipe/internal/pipeline"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleSummary(runID, projectID, status string) pipeline.Summary {
	started := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	return pipeline.Summary{
		RunID:       runID,
		ProjectID:   projectID,
		ProjectPath: "/projects/" + projectID + ".json",
		StartedAt:   started,
		CompletedAt: started.Add(2 * time.Second),
		Status:      status,
		Stages: []pipeline.StageResult{
			{Stage: 1, Status: pipeline.StageSkipped},
			{Stage: 2, Status: pipeline.StageCompleted},
			{Stage: 3, Status: pipeline.StageCompleted},
		},
	}
}

func TestRecordAndList(t *testing.T) {
	store := openTestStore(t, filepath.Join(t.TempDir(), "runindex.db"))
	ctx := context.Background()

	if err := store.Record(ctx, sampleSummary("run-a", "demo", pipeline.RunCompleted)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Record(ctx, sampleSummary("run-b", "demo", pipeline.RunFailed)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entry count = %d", len(entries))
	}
	// Newest first.
	if entries[0].RunID != "run-b" || entries[1].RunID != "run-a" {
		t.Fatalf("order = %s, %s", entries[0].RunID, entries[1].RunID)
	}

	entry := entries[1]
	if entry.ProjectID != "demo" || entry.Status != pipeline.RunCompleted {
		t.Fatalf("entry = %+v", entry)
	}
	if entry.StagesSkipped != 1 || entry.StagesExecuted != 2 || entry.StagesFailed != 0 {
		t.Fatalf("stage counts = %+v", entry)
	}
	if !entry.StartedAt.Equal(time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("started at = %v", entry.StartedAt)
	}
}

func TestListLimit(t *testing.T) {
	store := openTestStore(t, filepath.Join(t.TempDir(), "runindex.db"))
	ctx := context.Background()

	for _, id := range []string{"r1", "r2", "r3"} {
		if err := store.Record(ctx, sampleSummary(id, "demo", pipeline.RunCompleted)); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	entries, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entry count = %d, want 2", len(entries))
	}
}

func TestListProjectFilters(t *testing.T) {
	store := openTestStore(t, filepath.Join(t.TempDir(), "runindex.db"))
	ctx := context.Background()

	if err := store.Record(ctx, sampleSummary("run-a", "alpha", pipeline.RunCompleted)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Record(ctx, sampleSummary("run-b", "beta", pipeline.RunCompleted)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := store.ListProject(ctx, "alpha", 0)
	if err != nil {
		t.Fatalf("ListProject: %v", err)
	}
	if len(entries) != 1 || entries[0].RunID != "run-a" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runindex.db")
	ctx := context.Background()

	first := openTestStore(t, path)
	if err := first.Record(ctx, sampleSummary("run-a", "demo", pipeline.RunCompleted)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second := openTestStore(t, path)
	entries, err := second.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entry count after reopen = %d", len(entries))
	}
}
