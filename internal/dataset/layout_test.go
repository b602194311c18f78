package dataset_test

import (
	"path/filepath"
	"testing"

	"clapper/internal/dataset"
)

func TestEpisodeAndChunkNames(t *testing.T) {
	if got := dataset.EpisodeName(42); got != "episode_000042" {
		t.Fatalf("EpisodeName(42) = %q", got)
	}
	if got := dataset.EpisodeName(0); got != "episode_000000" {
		t.Fatalf("EpisodeName(0) = %q", got)
	}
	if got := dataset.ChunkName(7); got != "chunk-007" {
		t.Fatalf("ChunkName(7) = %q", got)
	}
}

func TestChunkAssignment(t *testing.T) {
	layout := dataset.Layout{Root: "/data/set", ChunkSize: 5}

	tests := []struct {
		episode int
		chunk   int
	}{
		{0, 0},
		{4, 0},
		{5, 1},
		{9, 1},
		{10, 2},
	}
	for _, tt := range tests {
		if got := layout.ChunkFor(tt.episode); got != tt.chunk {
			t.Errorf("ChunkFor(%d) = %d, want %d", tt.episode, got, tt.chunk)
		}
	}
}

func TestLayoutPaths(t *testing.T) {
	layout := dataset.Layout{Root: "/data/set", ChunkSize: 1000}

	if got := layout.InfoPath(); got != filepath.Join("/data/set", "meta", "info.json") {
		t.Fatalf("InfoPath = %q", got)
	}
	if got := layout.TablePath(1001); got != filepath.Join("/data/set", "data", "chunk-001", "episode_001001.parquet") {
		t.Fatalf("TablePath(1001) = %q", got)
	}
	if got := layout.VideoPath("front", 3); got != filepath.Join("/data/set", "videos", "chunk-000", "front", "episode_000003.mp4") {
		t.Fatalf("VideoPath = %q", got)
	}
}

func TestZeroChunkSizeMapsToChunkZero(t *testing.T) {
	layout := dataset.Layout{Root: "/data/set"}
	if got := layout.ChunkFor(123); got != 0 {
		t.Fatalf("ChunkFor(123) with zero chunk size = %d", got)
	}
}
