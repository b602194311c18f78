package dataset

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// SchemaVersion identifies the metadata format the writer emits. The
// downstream loader reads it from info.json before touching anything else.
const SchemaVersion = "v2.0"

// Info is the dataset-level metadata written to meta/info.json.
type Info struct {
	CodebaseVersion string   `json:"codebase_version"`
	FPS             int      `json:"fps"`
	Video           bool     `json:"video"`
	CameraKeys      []string `json:"camera_keys"`
	ChunksSize      int      `json:"chunks_size"`
	TotalEpisodes   int      `json:"total_episodes"`
	TotalFrames     int      `json:"total_frames"`
	TotalTasks      int      `json:"total_tasks"`
	TotalChunks     int      `json:"total_chunks"`
}

// TaskRecord is one line of meta/tasks.jsonl.
type TaskRecord struct {
	TaskIndex int    `json:"task_index"`
	Task      string `json:"task"`
}

// EpisodeRecord is one line of meta/episodes.jsonl.
type EpisodeRecord struct {
	EpisodeIndex int `json:"episode_index"`
	Length       int `json:"length"`
	TaskIndex    int `json:"task_index"`
	Chunk        int `json:"chunk"`
}

// EpisodeStats is one line of meta/episodes_stats.jsonl. The loader only
// consumes the length today; the nested block leaves room for richer
// per-episode statistics.
type EpisodeStats struct {
	EpisodeIndex int        `json:"episode_index"`
	Stats        StatsBlock `json:"stats"`
}

// StatsBlock holds the per-episode statistics payload.
type StatsBlock struct {
	Length int `json:"length"`
}

// ReadInfo loads meta/info.json. A missing file yields fs.ErrNotExist.
func ReadInfo(path string) (Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Info{}, err
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return Info{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return info, nil
}

// ReadTasks loads the task catalog in file order. A missing file is an
// empty catalog.
func ReadTasks(path string) ([]TaskRecord, error) {
	var tasks []TaskRecord
	if err := readJSONLines(path, func(line []byte) error {
		var record TaskRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return err
		}
		tasks = append(tasks, record)
		return nil
	}); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ReadEpisodes loads the episode catalog in file order. A missing file is
// an empty catalog.
func ReadEpisodes(path string) ([]EpisodeRecord, error) {
	var episodes []EpisodeRecord
	if err := readJSONLines(path, func(line []byte) error {
		var record EpisodeRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return err
		}
		episodes = append(episodes, record)
		return nil
	}); err != nil {
		return nil, err
	}
	return episodes, nil
}

// ReadEpisodeStats loads the statistics catalog in file order. A missing
// file is an empty catalog.
func ReadEpisodeStats(path string) ([]EpisodeStats, error) {
	var stats []EpisodeStats
	if err := readJSONLines(path, func(line []byte) error {
		var record EpisodeStats
		if err := json.Unmarshal(line, &record); err != nil {
			return err
		}
		stats = append(stats, record)
		return nil
	}); err != nil {
		return nil, err
	}
	return stats, nil
}

func readJSONLines(path string, fn func(line []byte) error) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := fn(line); err != nil {
			return fmt.Errorf("%s line %d: %w", path, lineNo, err)
		}
	}
	return scanner.Err()
}
