package preflight_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"clapper/internal/config"
	"clapper/internal/preflight"
)

func TestCheckDirectoryAccessCreatesMissing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dataset")
	result := preflight.CheckDirectoryAccess("Dataset directory", dir)
	if !result.Passed {
		t.Fatalf("check failed: %s", result.Detail)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("directory was not created: %v", err)
	}
}

func TestCheckDirectoryAccessRejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	result := preflight.CheckDirectoryAccess("Dataset directory", path)
	if result.Passed {
		t.Fatal("check passed on a regular file")
	}
}

func TestCheckDirectoryAccessEmptyPath(t *testing.T) {
	result := preflight.CheckDirectoryAccess("Dataset directory", "")
	if result.Passed || result.Detail != "not configured" {
		t.Fatalf("result = %+v", result)
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := preflight.CheckFreeSpace(dir, 1); !result.Passed {
		t.Fatalf("trivial space check failed: %s", result.Detail)
	}
	// No filesystem has this much.
	if result := preflight.CheckFreeSpace(dir, 1<<62); result.Passed {
		t.Fatal("impossible space requirement passed")
	}
}

func TestCheckCaptureDeviceMissing(t *testing.T) {
	result := preflight.CheckCaptureDevice("front", filepath.Join(t.TempDir(), "video0"))
	if result.Passed {
		t.Fatal("missing device node passed")
	}
}

func TestCheckCaptureDeviceRejectsRegularFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "video0")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	result := preflight.CheckCaptureDevice("front", path)
	if result.Passed {
		t.Fatal("regular file passed character device check")
	}
}

func TestRunAllReportsDeviceAndBinaryFailures(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DatasetDir = filepath.Join(t.TempDir(), "dataset")
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")
	cfg.FFmpeg.Binary = "definitely-not-a-real-binary-4f29"
	cfg.Cameras = []config.Camera{{Name: "front", Device: filepath.Join(t.TempDir(), "video0")}}

	results := preflight.RunAll(context.Background(), &cfg)
	failed := preflight.Failed(results)
	if len(failed) == 0 {
		t.Fatal("expected required check failures")
	}

	names := make(map[string]bool)
	for _, result := range results {
		names[result.Name] = true
	}
	for _, want := range []string{"FFmpeg", "Dataset directory", "Log directory", "Free space", `Camera "front"`} {
		if !names[want] {
			t.Errorf("RunAll missing check %q", want)
		}
	}
}

func TestFailedIgnoresOptional(t *testing.T) {
	results := []preflight.Result{
		{Name: "v4l2-ctl", Optional: true},
		{Name: "FFmpeg", Passed: true},
	}
	if failed := preflight.Failed(results); len(failed) != 0 {
		t.Fatalf("Failed = %v", failed)
	}
}
