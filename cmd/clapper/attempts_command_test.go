package main

import (
	"context"
	"path/filepath"
	"testing"

	"clapper/internal/journal"
)

func seedJournal(t *testing.T, logDir string) {
	t.Helper()
	store, err := journal.Open(filepath.Join(logDir, "journal.db"))
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	first, err := store.Begin(ctx, "run-a", 0, "sort parts")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := store.MarkCommitted(ctx, first.ID, 42); err != nil {
		t.Fatalf("mark committed: %v", err)
	}
	second, err := store.Begin(ctx, "run-a", 1, "sort parts")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := store.MarkAborted(ctx, second.ID, "camera unplugged"); err != nil {
		t.Fatalf("mark aborted: %v", err)
	}
}

func TestAttemptsCommandListsJournal(t *testing.T) {
	cfg := testConfig(t)
	configPath := writeTestConfig(t, cfg)
	seedJournal(t, cfg.Paths.LogDir)

	out, _, err := runCLI(t, []string{"attempts"}, configPath)
	if err != nil {
		t.Fatalf("attempts: %v", err)
	}
	requireContains(t, out, "committed")
	requireContains(t, out, "aborted")
	requireContains(t, out, "camera unplugged")
	requireContains(t, out, "42")
}

func TestAttemptsCommandEmptyJournal(t *testing.T) {
	cfg := testConfig(t)
	configPath := writeTestConfig(t, cfg)

	out, _, err := runCLI(t, []string{"attempts"}, configPath)
	if err != nil {
		t.Fatalf("attempts: %v", err)
	}
	requireContains(t, out, "No recorded attempts")
}
