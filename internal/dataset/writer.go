package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"clapper/internal/fileutil"
	"clapper/internal/logging"
)

// ErrCommitFailure marks a table or metadata write failure during commit.
// The catalog is unchanged when a commit returns this error.
var ErrCommitFailure = errors.New("dataset commit failure")

// Options fixes the dataset shape a Writer records against. An existing
// dataset must have been created with the same shape.
type Options struct {
	FPS        int
	CameraKeys []string
	ChunkSize  int
}

// Writer owns the run-wide dataset counters: the next episode index, the
// task catalog, and the frame totals in info.json. It is not safe for
// concurrent use; commits are strictly sequential by design.
type Writer struct {
	layout      Layout
	opts        Options
	logger      *slog.Logger
	episodes    []EpisodeRecord
	tasks       []TaskRecord
	taskIndex   map[string]int
	totalFrames int
}

// Open prepares a Writer over root, creating the directory skeleton when
// absent and loading the existing catalogs when present. Opening a dataset
// whose info.json disagrees with opts is an error, not a silent overwrite.
func Open(root string, opts Options, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	layout := Layout{Root: root, ChunkSize: opts.ChunkSize}
	if err := os.MkdirAll(layout.MetaDir(), 0o755); err != nil {
		return nil, fmt.Errorf("create dataset directories: %w", err)
	}

	w := &Writer{
		layout:    layout,
		opts:      opts,
		logger:    logger,
		taskIndex: make(map[string]int),
	}

	info, err := ReadInfo(layout.InfoPath())
	switch {
	case err == nil:
		if err := w.checkShape(info); err != nil {
			return nil, err
		}
		w.totalFrames = info.TotalFrames
	case errors.Is(err, fs.ErrNotExist):
		// Fresh dataset; info.json appears with the first commit.
	default:
		return nil, err
	}

	if w.tasks, err = ReadTasks(layout.TasksPath()); err != nil {
		return nil, err
	}
	for _, task := range w.tasks {
		w.taskIndex[task.Task] = task.TaskIndex
	}
	if w.episodes, err = ReadEpisodes(layout.EpisodesPath()); err != nil {
		return nil, err
	}
	for i, episode := range w.episodes {
		if episode.EpisodeIndex != i {
			return nil, fmt.Errorf("episode catalog not contiguous: entry %d has index %d", i, episode.EpisodeIndex)
		}
	}

	logger.Debug("dataset opened",
		logging.String(logging.FieldPath, root),
		logging.Int("episodes", len(w.episodes)),
		logging.Int("tasks", len(w.tasks)))
	return w, nil
}

func (w *Writer) checkShape(info Info) error {
	if info.CodebaseVersion != SchemaVersion {
		return fmt.Errorf("dataset schema version %q, expected %q", info.CodebaseVersion, SchemaVersion)
	}
	if info.FPS != w.opts.FPS {
		return fmt.Errorf("dataset recorded at %d fps, configured for %d", info.FPS, w.opts.FPS)
	}
	if info.ChunksSize != w.opts.ChunkSize {
		return fmt.Errorf("dataset chunk size %d, configured for %d", info.ChunksSize, w.opts.ChunkSize)
	}
	if len(info.CameraKeys) != len(w.opts.CameraKeys) {
		return fmt.Errorf("dataset has %d cameras, configured for %d", len(info.CameraKeys), len(w.opts.CameraKeys))
	}
	for i, key := range info.CameraKeys {
		if key != w.opts.CameraKeys[i] {
			return fmt.Errorf("dataset camera %d is %q, configured as %q", i, key, w.opts.CameraKeys[i])
		}
	}
	return nil
}

// Layout returns the path derivation for this dataset.
func (w *Writer) Layout() Layout { return w.layout }

// NextEpisodeIndex returns the index the next committed episode will take.
// Aborted episodes never advance it.
func (w *Writer) NextEpisodeIndex() int { return len(w.episodes) }

// Episodes returns the committed episode catalog in index order.
func (w *Writer) Episodes() []EpisodeRecord { return w.episodes }

// Tasks returns the task catalog in index order.
func (w *Writer) Tasks() []TaskRecord { return w.tasks }

// ResolveTaskIndex returns the index a task text maps to, assigning the
// next free index for unseen text. The assignment is only persisted when
// an episode using it commits; until then it is provisional, which is safe
// because episodes commit strictly sequentially.
func (w *Writer) ResolveTaskIndex(task string) int {
	if index, ok := w.taskIndex[task]; ok {
		return index
	}
	return len(w.tasks)
}

// Commit persists a completed episode. The parquet table is written first;
// only after it lands does the episode enter the catalogs and info.json.
// A failure at any later step truncates the catalog appends and removes the
// table, so a failed commit leaves the dataset exactly as it was.
func (w *Writer) Commit(rows []Row, task string) (EpisodeRecord, error) {
	episode := EpisodeRecord{
		EpisodeIndex: w.NextEpisodeIndex(),
		Length:       len(rows),
		TaskIndex:    w.ResolveTaskIndex(task),
		Chunk:        w.layout.ChunkFor(w.NextEpisodeIndex()),
	}

	tablePath := w.layout.TablePath(episode.EpisodeIndex)
	if err := writeTable(tablePath, rows); err != nil {
		return EpisodeRecord{}, fmt.Errorf("%w: %v", ErrCommitFailure, err)
	}

	catalogs := []string{w.layout.EpisodesPath(), w.layout.StatsPath(), w.layout.TasksPath()}
	marks := make(map[string]fileMark, len(catalogs))
	for _, path := range catalogs {
		mark, err := markFile(path)
		if err != nil {
			_ = os.Remove(tablePath)
			return EpisodeRecord{}, fmt.Errorf("%w: %v", ErrCommitFailure, err)
		}
		marks[path] = mark
	}
	rollback := func() {
		for path, mark := range marks {
			mark.restore(path)
		}
		_ = os.Remove(tablePath)
	}

	if err := appendRecord(w.layout.EpisodesPath(), episode); err != nil {
		rollback()
		return EpisodeRecord{}, fmt.Errorf("%w: %v", ErrCommitFailure, err)
	}
	stats := EpisodeStats{EpisodeIndex: episode.EpisodeIndex, Stats: StatsBlock{Length: episode.Length}}
	if err := appendRecord(w.layout.StatsPath(), stats); err != nil {
		rollback()
		return EpisodeRecord{}, fmt.Errorf("%w: %v", ErrCommitFailure, err)
	}

	newTask := false
	if _, ok := w.taskIndex[task]; !ok {
		record := TaskRecord{TaskIndex: episode.TaskIndex, Task: task}
		if err := appendRecord(w.layout.TasksPath(), record); err != nil {
			rollback()
			return EpisodeRecord{}, fmt.Errorf("%w: %v", ErrCommitFailure, err)
		}
		newTask = true
	}

	episodes := len(w.episodes) + 1
	tasks := len(w.tasks)
	if newTask {
		tasks++
	}
	info := Info{
		CodebaseVersion: SchemaVersion,
		FPS:             w.opts.FPS,
		Video:           true,
		CameraKeys:      w.opts.CameraKeys,
		ChunksSize:      w.opts.ChunkSize,
		TotalEpisodes:   episodes,
		TotalFrames:     w.totalFrames + len(rows),
		TotalTasks:      tasks,
		TotalChunks:     w.layout.ChunkFor(episode.EpisodeIndex) + 1,
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		rollback()
		return EpisodeRecord{}, fmt.Errorf("%w: encode info: %v", ErrCommitFailure, err)
	}
	if err := fileutil.WriteFileAtomic(w.layout.InfoPath(), data, 0o644); err != nil {
		rollback()
		return EpisodeRecord{}, fmt.Errorf("%w: %v", ErrCommitFailure, err)
	}

	w.episodes = append(w.episodes, episode)
	if newTask {
		w.tasks = append(w.tasks, TaskRecord{TaskIndex: episode.TaskIndex, Task: task})
		w.taskIndex[task] = episode.TaskIndex
	}
	w.totalFrames += len(rows)

	w.logger.Info("episode committed",
		logging.Int(logging.FieldEpisodeIndex, episode.EpisodeIndex),
		logging.Int(logging.FieldFrames, episode.Length),
		logging.Int(logging.FieldChunk, episode.Chunk),
		logging.String(logging.FieldTask, task))
	return episode, nil
}

// fileMark records a catalog file's pre-commit length so a failed commit
// can truncate appends back off.
type fileMark struct {
	size    int64
	existed bool
}

func markFile(path string) (fileMark, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fileMark{}, nil
	}
	if err != nil {
		return fileMark{}, err
	}
	return fileMark{size: info.Size(), existed: true}, nil
}

func (m fileMark) restore(path string) {
	if !m.existed {
		_ = os.Remove(path)
		return
	}
	_ = os.Truncate(path, m.size)
}

func appendRecord(path string, record any) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", path, err)
	}
	return fileutil.AppendLine(path, line)
}
