package journal_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"clapper/internal/journal"
)

func openStore(t *testing.T) *journal.Store {
	t.Helper()
	store, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBeginAndResolve(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	attempt, err := store.Begin(ctx, "run-1", 0, "fold towel")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if attempt.Status != journal.StatusRecording {
		t.Fatalf("new attempt status = %s", attempt.Status)
	}
	if attempt.EpisodeIndex != 0 || attempt.Task != "fold towel" {
		t.Fatalf("attempt fields = %+v", attempt)
	}

	if err := store.MarkCommitted(ctx, attempt.ID, 60); err != nil {
		t.Fatalf("MarkCommitted: %v", err)
	}
	resolved, err := store.GetByID(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if resolved.Status != journal.StatusCommitted || resolved.Frames != 60 {
		t.Fatalf("resolved attempt = %+v", resolved)
	}
	if !resolved.Status.Terminal() {
		t.Fatal("committed status should be terminal")
	}
}

func TestMarkAbortedRecordsCause(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	attempt, err := store.Begin(ctx, "run-1", 3, "fold towel")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := store.MarkAborted(ctx, attempt.ID, "device failure: front"); err != nil {
		t.Fatalf("MarkAborted: %v", err)
	}

	resolved, err := store.GetByID(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if resolved.Status != journal.StatusAborted {
		t.Fatalf("status = %s", resolved.Status)
	}
	if resolved.ErrorMessage != "device failure: front" {
		t.Fatalf("error message = %q", resolved.ErrorMessage)
	}
}

func TestResolveIsSingleShot(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	attempt, err := store.Begin(ctx, "run-1", 0, "probe")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := store.MarkCommitted(ctx, attempt.ID, 10); err != nil {
		t.Fatalf("MarkCommitted: %v", err)
	}
	if err := store.MarkAborted(ctx, attempt.ID, "too late"); !errors.Is(err, journal.ErrNotFound) {
		t.Fatalf("second resolve = %v, want ErrNotFound", err)
	}
}

func TestListOrderingAndLimit(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if _, err := store.Begin(ctx, "run-1", i, "probe"); err != nil {
			t.Fatalf("Begin %d: %v", i, err)
		}
	}

	attempts, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("List returned %d attempts", len(attempts))
	}
	if attempts[0].EpisodeIndex != 3 || attempts[1].EpisodeIndex != 2 {
		t.Fatalf("List order = %d, %d", attempts[0].EpisodeIndex, attempts[1].EpisodeIndex)
	}

	run, err := store.ListRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("ListRun: %v", err)
	}
	if len(run) != 4 || run[0].EpisodeIndex != 0 {
		t.Fatalf("ListRun = %d attempts, first index %d", len(run), run[0].EpisodeIndex)
	}
}

func TestResolveStale(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first, err := store.Begin(ctx, "run-1", 0, "probe")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := store.MarkCommitted(ctx, first.ID, 5); err != nil {
		t.Fatalf("MarkCommitted: %v", err)
	}
	if _, err := store.Begin(ctx, "run-1", 1, "probe"); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	resolved, err := store.ResolveStale(ctx)
	if err != nil {
		t.Fatalf("ResolveStale: %v", err)
	}
	if resolved != 1 {
		t.Fatalf("ResolveStale resolved %d attempts, want 1", resolved)
	}

	committed, err := store.GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if committed.Status != journal.StatusCommitted {
		t.Fatalf("committed attempt was touched: %s", committed.Status)
	}
}

func TestReopenKeepsAttempts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.db")
	ctx := context.Background()

	store, err := journal.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.Begin(ctx, "run-1", 0, "probe"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := journal.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	attempts, err := reopened.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("reopened journal has %d attempts", len(attempts))
	}
}
