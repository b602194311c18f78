package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

// Row is one tick of an episode table. Row order equals tick order.
type Row struct {
	Timestamp    float64 `parquet:"timestamp"`
	FrameIndex   int64   `parquet:"frame_index"`
	EpisodeIndex int64   `parquet:"episode_index"`
	TaskIndex    int64   `parquet:"task_index"`
}

// writeTable serializes rows to a parquet file via a temporary sibling and
// rename, so a failed write leaves no episode table behind.
func writeTable(path string, rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp table: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmpPath != "" {
			_ = os.Remove(tmpPath)
		}
	}()

	writer := parquet.NewGenericWriter[Row](tmp)
	if _, err := writer.Write(rows); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write table rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("flush table: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync table: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close table: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("finalize table: %w", err)
	}
	tmpPath = ""
	return nil
}

// ReadTable loads an episode table. Used by tests and the episodes command.
func ReadTable(path string) ([]Row, error) {
	rows, err := parquet.ReadFile[Row](path)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", path, err)
	}
	return rows, nil
}
