package pipeline

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestContentHashHex_DifferentInputs(t *testing.T) {
	if ContentHashHex([]byte("aaa")) == ContentHashHex([]byte("bbb")) {
		t.Error("expected different hashes for different inputs")
	}
}

func TestNewJob(t *testing.T) {
	job := NewJob("notes.md", "Notes", "parent-1", []byte("# hi"), true)
	if _, err := uuid.Parse(job.ID); err != nil {
		t.Errorf("expected uuid job id, got %q", job.ID)
	}
	if job.Status != StatusQueued || !job.Force || string(job.FileData()) != "# hi" {
		t.Errorf("unexpected job %+v", job.Snapshot())
	}
	if other := NewJob("notes.md", "", "", nil, false); other.ID == job.ID {
		t.Error("job ids must be unique")
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := NewJob("a.md", "", "p", nil, false)

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusParsing, "parsing"},
		{StatusConverting, "converting"},
		{StatusPublishing, "creating page"},
		{StatusPublishing, "appending blocks"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJobStatus_Done(t *testing.T) {
	for _, s := range []JobStatus{StatusCompleted, StatusFailed, StatusPartial, StatusDupSkipped} {
		if !s.Done() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []JobStatus{StatusQueued, StatusParsing, StatusConverting, StatusPublishing} {
		if s.Done() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestJob_ErrorsAndWarnings(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("append failed")
	job.AddError("create failed")
	job.AddWarning("flattened")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 || snap.Progress.Errors[0] != "append failed" {
		t.Errorf("unexpected errors %v", snap.Progress.Errors)
	}
	if len(snap.Progress.Warnings) != 1 {
		t.Errorf("unexpected warnings %v", snap.Progress.Warnings)
	}

	// Snapshots must not alias the job's slices.
	snap.Progress.Errors[0] = "changed"
	if job.Snapshot().Progress.Errors[0] != "append failed" {
		t.Error("snapshot aliases job state")
	}
}

func TestJob_AddPublished(t *testing.T) {
	job := &Job{ID: "pub-test", UpdatedAt: time.Now()}
	job.SetTotalBlocks(150)
	job.AddPublished(100)
	job.AddPublished(50)

	snap := job.Snapshot()
	if snap.Progress.BlocksPublished != 150 || snap.Progress.Requests != 2 || snap.Progress.TotalBlocks != 150 {
		t.Errorf("unexpected progress %+v", snap.Progress)
	}
}

func TestJob_SnapshotSlicesNotNil(t *testing.T) {
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil || snap.Progress.Warnings == nil {
		t.Error("expected non-nil slices in snapshot")
	}
}

func TestJob_SetDuplicate(t *testing.T) {
	job := &Job{ID: "dup"}
	job.SetDuplicate("first", "page-1", "https://notion.so/page-1")
	snap := job.Snapshot()
	if snap.Status != StatusDupSkipped || snap.DuplicateOf != "first" || snap.PageID != "page-1" {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	store.Put(&Job{ID: "store-1", UpdatedAt: time.Now()})

	got := store.Get("store-1")
	if got == nil || got.ID != "store-1" {
		t.Fatalf("expected to get job back, got %v", got)
	}
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_Dedup(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "j1", ParentPageID: "parent", ContentHash: "abc", PageID: "page", PageURL: "url"}
	store.MarkPublished(job)

	jobID, pageID, pageURL, ok := store.FindPublished("abc", "parent")
	if !ok || jobID != "j1" || pageID != "page" || pageURL != "url" {
		t.Errorf("expected dedup hit, got %q %q %q %v", jobID, pageID, pageURL, ok)
	}
	if _, _, _, ok := store.FindPublished("abc", "other-parent"); ok {
		t.Error("dedup must be scoped to the parent page")
	}
	if _, _, _, ok := store.FindPublished("def", "parent"); ok {
		t.Error("different content must not match")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	store.Put(&Job{ID: "old", UpdatedAt: time.Now()})
	store.MarkPublished(&Job{ID: "old", ContentHash: "h", ParentPageID: "p"})

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	store.Put(&Job{ID: "new", UpdatedAt: time.Now()})
	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
	if _, _, _, ok := store.FindPublished("h", "p"); ok {
		t.Error("expected expired dedup entry to be cleaned up")
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	// Should not panic on empty store.
	store.Cleanup()
}
