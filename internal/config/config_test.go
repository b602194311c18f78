package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clapper/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsWhenFileMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")
	cfg, _, exists, err := config.Load(missing)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if cfg.Capture.FPS != 30 {
		t.Fatalf("unexpected default fps: %d", cfg.Capture.FPS)
	}
	if len(cfg.Cameras) != 1 || cfg.Cameras[0].Name != "front" {
		t.Fatalf("unexpected default cameras: %#v", cfg.Cameras)
	}
	if !filepath.IsAbs(cfg.Paths.DatasetDir) {
		t.Fatalf("dataset dir not expanded: %q", cfg.Paths.DatasetDir)
	}
}

func TestLoadParsesCamerasAndOverrides(t *testing.T) {
	path := writeConfig(t, `
[paths]
dataset_dir = "/tmp/clapper-test-dataset"
log_dir = "/tmp/clapper-test-logs"

[capture]
fps = 15
width = 320
height = 240
duration_seconds = 2.0
episodes = 3

[[cameras]]
name = "front"
device = "/dev/video0"

[[cameras]]
name = "wrist"
device = "/dev/video2"

[dataset]
chunk_size = 5
task = "pick up the cube"
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %s to be used, got %s exists=%v", path, resolved, exists)
	}
	if len(cfg.Cameras) != 2 || cfg.Cameras[1].Name != "wrist" {
		t.Fatalf("unexpected cameras: %#v", cfg.Cameras)
	}
	if cfg.Dataset.ChunkSize != 5 {
		t.Fatalf("unexpected chunk size: %d", cfg.Dataset.ChunkSize)
	}
	if cfg.TargetTicks() != 30 {
		t.Fatalf("TargetTicks = %d, want 30", cfg.TargetTicks())
	}
}

func TestLoadRejectsDuplicateCameraNames(t *testing.T) {
	path := writeConfig(t, `
[[cameras]]
name = "front"
device = "/dev/video0"

[[cameras]]
name = "front"
device = "/dev/video2"
`)

	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "duplicate camera name") {
		t.Fatalf("expected duplicate name error, got %v", err)
	}
}

func TestLoadRejectsDuplicateDevices(t *testing.T) {
	path := writeConfig(t, `
[[cameras]]
name = "front"
device = "/dev/video0"

[[cameras]]
name = "wrist"
device = "/dev/video0"
`)

	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "duplicate camera device") {
		t.Fatalf("expected duplicate device error, got %v", err)
	}
}

func TestLoadRejectsExcessiveMinFrames(t *testing.T) {
	path := writeConfig(t, `
[capture]
fps = 10
duration_seconds = 1.0
min_frames = 11
`)

	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "min_frames") {
		t.Fatalf("expected min_frames error, got %v", err)
	}
}

func TestValidateRejectsBadLogging(t *testing.T) {
	path := writeConfig(t, `
[logging]
format = "xml"
`)

	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "logging.format") {
		t.Fatalf("expected logging format error, got %v", err)
	}
}

func TestTickPeriod(t *testing.T) {
	cfg := config.Default()
	cfg.Capture.FPS = 50
	if got := cfg.TickPeriod().Milliseconds(); got != 20 {
		t.Fatalf("TickPeriod = %dms, want 20ms", got)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load of sample failed: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.FFmpeg.Binary != "ffmpeg" {
		t.Fatalf("unexpected ffmpeg binary: %q", cfg.FFmpeg.Binary)
	}
}
