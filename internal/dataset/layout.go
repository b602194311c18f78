package dataset

import (
	"fmt"
	"path/filepath"
)

// Layout derives artifact paths inside a dataset root. Chunk and episode
// indices render as zero-padded fixed-width decimals; the downstream loader
// depends on these exact names.
type Layout struct {
	Root      string
	ChunkSize int
}

// EpisodeName formats an episode index as episode_000042.
func EpisodeName(episode int) string {
	return fmt.Sprintf("episode_%06d", episode)
}

// ChunkName formats a chunk index as chunk-000.
func ChunkName(chunk int) string {
	return fmt.Sprintf("chunk-%03d", chunk)
}

// ChunkFor returns the chunk an episode index belongs to.
func (l Layout) ChunkFor(episode int) int {
	if l.ChunkSize <= 0 {
		return 0
	}
	return episode / l.ChunkSize
}

// MetaDir returns the metadata directory.
func (l Layout) MetaDir() string { return filepath.Join(l.Root, "meta") }

// InfoPath returns the dataset info file path.
func (l Layout) InfoPath() string { return filepath.Join(l.MetaDir(), "info.json") }

// TasksPath returns the task catalog path.
func (l Layout) TasksPath() string { return filepath.Join(l.MetaDir(), "tasks.jsonl") }

// EpisodesPath returns the episode catalog path.
func (l Layout) EpisodesPath() string { return filepath.Join(l.MetaDir(), "episodes.jsonl") }

// StatsPath returns the per-episode statistics catalog path.
func (l Layout) StatsPath() string { return filepath.Join(l.MetaDir(), "episodes_stats.jsonl") }

// DataDir returns the table directory for a chunk.
func (l Layout) DataDir(chunk int) string {
	return filepath.Join(l.Root, "data", ChunkName(chunk))
}

// TablePath returns the parquet path for an episode.
func (l Layout) TablePath(episode int) string {
	return filepath.Join(l.DataDir(l.ChunkFor(episode)), EpisodeName(episode)+".parquet")
}

// VideoDir returns the video directory for a camera within a chunk.
func (l Layout) VideoDir(chunk int, camera string) string {
	return filepath.Join(l.Root, "videos", ChunkName(chunk), camera)
}

// VideoPath returns the mp4 path for a camera and episode.
func (l Layout) VideoPath(camera string, episode int) string {
	return filepath.Join(l.VideoDir(l.ChunkFor(episode), camera), EpisodeName(episode)+".mp4")
}
