package dataset

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"clapper/internal/logging"
)

// Sweep removes artifacts under data/ and videos/ that reference an episode
// index absent from the episode catalog, along with any leftover .partial
// encoder output. An aborted or interrupted run can leave both behind; the
// catalog is the source of truth, so anything past its length is orphaned.
func (w *Writer) Sweep(logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	committed := len(w.episodes)
	removed := 0

	for _, dir := range []string{filepath.Join(w.layout.Root, "data"), filepath.Join(w.layout.Root, "videos")} {
		if err := filepath.WalkDir(dir, func(path string, entry os.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return err
			}
			if entry.IsDir() {
				return nil
			}
			orphan := strings.HasSuffix(entry.Name(), ".partial")
			if !orphan {
				episode, ok := episodeIndexOf(entry.Name())
				orphan = ok && episode >= committed
			}
			if !orphan {
				return nil
			}
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("remove orphan %s: %w", path, err)
			}
			removed++
			logger.Debug("removed orphaned artifact", logging.String(logging.FieldPath, path))
			return nil
		}); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

// episodeIndexOf parses the episode index out of an artifact file name such
// as episode_000042.parquet or episode_000042.mp4.
func episodeIndexOf(name string) (int, bool) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	rest, ok := strings.CutPrefix(base, "episode_")
	if !ok {
		return 0, false
	}
	index, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return index, true
}
