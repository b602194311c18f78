package main

import (
	"strings"
	"testing"

	"clapper/internal/dataset"
)

func seedDataset(t *testing.T, root string, episodes int) {
	t.Helper()
	writer, err := dataset.Open(root, dataset.Options{
		FPS:        30,
		CameraKeys: []string{"front"},
		ChunkSize:  5,
	}, nil)
	if err != nil {
		t.Fatalf("dataset.Open: %v", err)
	}
	for i := 0; i < episodes; i++ {
		rows := []dataset.Row{{FrameIndex: 0, EpisodeIndex: int64(i)}}
		if _, err := writer.Commit(rows, "sort parts"); err != nil {
			t.Fatalf("commit %d: %v", i, err)
		}
	}
}

func TestEpisodesCommandListsDataset(t *testing.T) {
	cfg := testConfig(t)
	seedDataset(t, cfg.Paths.DatasetDir, 7)

	out, _, err := runCLI(t, []string{"episodes", "--root", cfg.Paths.DatasetDir}, "")
	if err != nil {
		t.Fatalf("episodes: %v", err)
	}
	requireContains(t, out, "episode_000000")
	requireContains(t, out, "episode_000006")
	requireContains(t, out, "chunk-001")
	requireContains(t, out, "7 episode(s)")
}

func TestEpisodesCommandLimit(t *testing.T) {
	cfg := testConfig(t)
	seedDataset(t, cfg.Paths.DatasetDir, 4)

	out, _, err := runCLI(t, []string{"episodes", "--root", cfg.Paths.DatasetDir, "--limit", "2"}, "")
	if err != nil {
		t.Fatalf("episodes: %v", err)
	}
	requireContains(t, out, "episode_000003")
	if strings.Contains(out, "episode_000000") {
		t.Fatal("limit did not trim old episodes")
	}
}

func TestEpisodesCommandEmptyDataset(t *testing.T) {
	out, _, err := runCLI(t, []string{"episodes", "--root", t.TempDir()}, "")
	if err != nil {
		t.Fatalf("episodes: %v", err)
	}
	requireContains(t, out, "No episodes")
}
