package dataset_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"clapper/internal/dataset"
	"clapper/internal/logging"
)

func testOptions() dataset.Options {
	return dataset.Options{
		FPS:        30,
		CameraKeys: []string{"front", "wrist"},
		ChunkSize:  1000,
	}
}

func makeRows(episode, task, count int) []dataset.Row {
	rows := make([]dataset.Row, count)
	for i := range rows {
		rows[i] = dataset.Row{
			Timestamp:    float64(i) / 30.0,
			FrameIndex:   int64(i),
			EpisodeIndex: int64(episode),
			TaskIndex:    int64(task),
		}
	}
	return rows
}

func TestCommitWritesTableAndCatalogs(t *testing.T) {
	root := t.TempDir()
	writer, err := dataset.Open(root, testOptions(), logging.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := writer.NextEpisodeIndex(); got != 0 {
		t.Fatalf("fresh dataset NextEpisodeIndex = %d", got)
	}

	episode, err := writer.Commit(makeRows(0, 0, 60), "pick up the cube")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	want := dataset.EpisodeRecord{EpisodeIndex: 0, Length: 60, TaskIndex: 0, Chunk: 0}
	if episode != want {
		t.Fatalf("committed record = %+v, want %+v", episode, want)
	}

	rows, err := dataset.ReadTable(writer.Layout().TablePath(0))
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if len(rows) != 60 {
		t.Fatalf("table has %d rows, want 60", len(rows))
	}
	if rows[0].FrameIndex != 0 || rows[59].FrameIndex != 59 {
		t.Fatalf("table rows out of order: first=%d last=%d", rows[0].FrameIndex, rows[59].FrameIndex)
	}

	info, err := dataset.ReadInfo(writer.Layout().InfoPath())
	if err != nil {
		t.Fatalf("ReadInfo: %v", err)
	}
	if info.CodebaseVersion != dataset.SchemaVersion {
		t.Fatalf("info schema version = %q", info.CodebaseVersion)
	}
	if info.TotalEpisodes != 1 || info.TotalFrames != 60 || info.TotalTasks != 1 {
		t.Fatalf("info counters = %+v", info)
	}

	tasks, err := dataset.ReadTasks(writer.Layout().TasksPath())
	if err != nil {
		t.Fatalf("ReadTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Task != "pick up the cube" || tasks[0].TaskIndex != 0 {
		t.Fatalf("task catalog = %+v", tasks)
	}

	stats, err := dataset.ReadEpisodeStats(writer.Layout().StatsPath())
	if err != nil {
		t.Fatalf("ReadEpisodeStats: %v", err)
	}
	if len(stats) != 1 || stats[0].EpisodeIndex != 0 || stats[0].Stats.Length != 60 {
		t.Fatalf("stats catalog = %+v", stats)
	}
}

func TestCommitDeduplicatesTasks(t *testing.T) {
	root := t.TempDir()
	writer, err := dataset.Open(root, testOptions(), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, err := writer.Commit(makeRows(0, 0, 3), "stack blocks"); err != nil {
		t.Fatalf("commit 0: %v", err)
	}
	if _, err := writer.Commit(makeRows(1, 1, 3), "open drawer"); err != nil {
		t.Fatalf("commit 1: %v", err)
	}
	episode, err := writer.Commit(makeRows(2, 0, 3), "stack blocks")
	if err != nil {
		t.Fatalf("commit 2: %v", err)
	}
	if episode.TaskIndex != 0 {
		t.Fatalf("repeated task resolved to index %d, want 0", episode.TaskIndex)
	}

	tasks, err := dataset.ReadTasks(writer.Layout().TasksPath())
	if err != nil {
		t.Fatalf("ReadTasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("task catalog has %d entries, want 2", len(tasks))
	}
}

func TestChunkBoundaries(t *testing.T) {
	root := t.TempDir()
	opts := testOptions()
	opts.ChunkSize = 5
	writer, err := dataset.Open(root, opts, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	for i := 0; i < 10; i++ {
		if _, err := writer.Commit(makeRows(i, 0, 2), "sort parts"); err != nil {
			t.Fatalf("commit %d: %v", i, err)
		}
	}

	for i := 0; i < 5; i++ {
		path := writer.Layout().TablePath(i)
		if filepath.Base(filepath.Dir(path)) != "chunk-000" {
			t.Fatalf("episode %d table in %s, want chunk-000", i, path)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("episode %d table missing: %v", i, err)
		}
	}
	for i := 5; i < 10; i++ {
		path := writer.Layout().TablePath(i)
		if filepath.Base(filepath.Dir(path)) != "chunk-001" {
			t.Fatalf("episode %d table in %s, want chunk-001", i, path)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("episode %d table missing: %v", i, err)
		}
	}

	episodes, err := dataset.ReadEpisodes(writer.Layout().EpisodesPath())
	if err != nil {
		t.Fatalf("ReadEpisodes: %v", err)
	}
	if len(episodes) != 10 {
		t.Fatalf("episode catalog has %d entries", len(episodes))
	}
	for i, episode := range episodes {
		if episode.EpisodeIndex != i {
			t.Fatalf("entry %d has episode index %d", i, episode.EpisodeIndex)
		}
		wantChunk := i / 5
		if episode.Chunk != wantChunk {
			t.Fatalf("episode %d in chunk %d, want %d", i, episode.Chunk, wantChunk)
		}
	}

	info, err := dataset.ReadInfo(writer.Layout().InfoPath())
	if err != nil {
		t.Fatalf("ReadInfo: %v", err)
	}
	if info.TotalChunks != 2 {
		t.Fatalf("info.TotalChunks = %d, want 2", info.TotalChunks)
	}
}

func TestReopenResumesIndices(t *testing.T) {
	root := t.TempDir()
	writer, err := dataset.Open(root, testOptions(), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := writer.Commit(makeRows(0, 0, 4), "wipe table"); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := writer.Commit(makeRows(1, 0, 4), "wipe table"); err != nil {
		t.Fatalf("commit: %v", err)
	}

	reopened, err := dataset.Open(root, testOptions(), nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := reopened.NextEpisodeIndex(); got != 2 {
		t.Fatalf("reopened NextEpisodeIndex = %d, want 2", got)
	}
	if got := reopened.ResolveTaskIndex("wipe table"); got != 0 {
		t.Fatalf("reopened ResolveTaskIndex = %d, want 0", got)
	}
	if got := reopened.ResolveTaskIndex("new task"); got != 1 {
		t.Fatalf("unseen task resolved to %d, want 1", got)
	}

	info, err := dataset.ReadInfo(reopened.Layout().InfoPath())
	if err != nil {
		t.Fatalf("ReadInfo: %v", err)
	}
	if info.TotalFrames != 8 {
		t.Fatalf("info.TotalFrames = %d, want 8", info.TotalFrames)
	}
}

func TestOpenRejectsShapeMismatch(t *testing.T) {
	root := t.TempDir()
	writer, err := dataset.Open(root, testOptions(), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := writer.Commit(makeRows(0, 0, 1), "press the button"); err != nil {
		t.Fatalf("commit: %v", err)
	}

	opts := testOptions()
	opts.FPS = 60
	if _, err := dataset.Open(root, opts, nil); err == nil {
		t.Fatal("expected fps mismatch error")
	}

	opts = testOptions()
	opts.CameraKeys = []string{"front"}
	if _, err := dataset.Open(root, opts, nil); err == nil {
		t.Fatal("expected camera key mismatch error")
	}
}

func TestCommitFailureLeavesCatalogUnchanged(t *testing.T) {
	root := t.TempDir()
	writer, err := dataset.Open(root, testOptions(), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := writer.Commit(makeRows(0, 0, 2), "press the button"); err != nil {
		t.Fatalf("commit: %v", err)
	}

	// Blocking the chunk directory with a file makes the table write fail.
	dataDir := writer.Layout().DataDir(0)
	tablePath := writer.Layout().TablePath(1)
	if err := os.Rename(dataDir, dataDir+".save"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if err := os.WriteFile(dataDir, []byte("x"), 0o644); err != nil {
		t.Fatalf("block dir: %v", err)
	}

	_, err = writer.Commit(makeRows(1, 0, 2), "press the button")
	if !errors.Is(err, dataset.ErrCommitFailure) {
		t.Fatalf("expected ErrCommitFailure, got %v", err)
	}
	if got := writer.NextEpisodeIndex(); got != 1 {
		t.Fatalf("NextEpisodeIndex after failed commit = %d, want 1", got)
	}

	episodes, err := dataset.ReadEpisodes(writer.Layout().EpisodesPath())
	if err != nil {
		t.Fatalf("ReadEpisodes: %v", err)
	}
	if len(episodes) != 1 {
		t.Fatalf("episode catalog grew to %d entries after failed commit", len(episodes))
	}
	if err := os.Remove(dataDir); err != nil {
		t.Fatalf("unblock dir: %v", err)
	}
	if err := os.Rename(dataDir+".save", dataDir); err != nil {
		t.Fatalf("restore dir: %v", err)
	}
	if _, statErr := os.Stat(tablePath); !os.IsNotExist(statErr) {
		t.Fatalf("failed commit left table at %s", tablePath)
	}
}

func TestCommitRollsBackCatalogAppendsOnTaskFailure(t *testing.T) {
	root := t.TempDir()
	writer, err := dataset.Open(root, testOptions(), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// Blocking the task catalog with a directory fails the commit after the
	// episode and stats lines have already been appended.
	tasksPath := writer.Layout().TasksPath()
	if err := os.Mkdir(tasksPath, 0o755); err != nil {
		t.Fatalf("block tasks catalog: %v", err)
	}

	_, err = writer.Commit(makeRows(0, 0, 2), "pick up the cube")
	if !errors.Is(err, dataset.ErrCommitFailure) {
		t.Fatalf("expected ErrCommitFailure, got %v", err)
	}
	if got := writer.NextEpisodeIndex(); got != 0 {
		t.Fatalf("NextEpisodeIndex after failed commit = %d, want 0", got)
	}

	episodes, err := dataset.ReadEpisodes(writer.Layout().EpisodesPath())
	if err != nil {
		t.Fatalf("ReadEpisodes: %v", err)
	}
	if len(episodes) != 0 {
		t.Fatalf("failed commit left %d episode catalog entries on disk", len(episodes))
	}
	stats, err := dataset.ReadEpisodeStats(writer.Layout().StatsPath())
	if err != nil {
		t.Fatalf("ReadEpisodeStats: %v", err)
	}
	if len(stats) != 0 {
		t.Fatalf("failed commit left %d stats entries on disk", len(stats))
	}
	if _, statErr := os.Stat(writer.Layout().InfoPath()); !os.IsNotExist(statErr) {
		t.Fatal("failed commit wrote info.json")
	}
	if _, statErr := os.Stat(writer.Layout().TablePath(0)); !os.IsNotExist(statErr) {
		t.Fatal("failed commit left the episode table on disk")
	}

	// The same index commits cleanly once the catalog is writable again.
	if err := os.Remove(tasksPath); err != nil {
		t.Fatalf("unblock tasks catalog: %v", err)
	}
	episode, err := writer.Commit(makeRows(0, 0, 2), "pick up the cube")
	if err != nil {
		t.Fatalf("retry commit: %v", err)
	}
	if episode.EpisodeIndex != 0 {
		t.Fatalf("retried commit took index %d, want 0", episode.EpisodeIndex)
	}
}

func TestCommitRollsBackCatalogAppendsOnInfoFailure(t *testing.T) {
	root := t.TempDir()
	writer, err := dataset.Open(root, testOptions(), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := writer.Commit(makeRows(0, 0, 3), "stack blocks"); err != nil {
		t.Fatalf("commit: %v", err)
	}

	// Blocking info.json with a directory fails the final commit step, after
	// every catalog append has landed.
	infoPath := writer.Layout().InfoPath()
	if err := os.Remove(infoPath); err != nil {
		t.Fatalf("remove info: %v", err)
	}
	if err := os.Mkdir(infoPath, 0o755); err != nil {
		t.Fatalf("block info: %v", err)
	}

	_, err = writer.Commit(makeRows(1, 1, 3), "open drawer")
	if !errors.Is(err, dataset.ErrCommitFailure) {
		t.Fatalf("expected ErrCommitFailure, got %v", err)
	}
	if got := writer.NextEpisodeIndex(); got != 1 {
		t.Fatalf("NextEpisodeIndex after failed commit = %d, want 1", got)
	}

	episodes, err := dataset.ReadEpisodes(writer.Layout().EpisodesPath())
	if err != nil {
		t.Fatalf("ReadEpisodes: %v", err)
	}
	if len(episodes) != 1 {
		t.Fatalf("episode catalog grew to %d entries after failed commit", len(episodes))
	}
	tasks, err := dataset.ReadTasks(writer.Layout().TasksPath())
	if err != nil {
		t.Fatalf("ReadTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Task != "stack blocks" {
		t.Fatalf("task catalog changed after failed commit: %+v", tasks)
	}
	stats, err := dataset.ReadEpisodeStats(writer.Layout().StatsPath())
	if err != nil {
		t.Fatalf("ReadEpisodeStats: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("stats catalog grew to %d entries after failed commit", len(stats))
	}
	if _, statErr := os.Stat(writer.Layout().TablePath(1)); !os.IsNotExist(statErr) {
		t.Fatal("failed commit left the episode table on disk")
	}
}
