// Package testsupport provides builders and fakes shared by package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"clapper/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test
// and timing values small enough for fast tests.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DatasetDir = filepath.Join(base, "dataset")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Capture.FPS = 100
	cfg.Capture.DurationSeconds = 0.1
	cfg.Capture.Episodes = 1
	cfg.Capture.Width = 4
	cfg.Capture.Height = 4
	cfg.Dataset.ChunkSize = 5

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithCameras replaces the camera list on the test config.
func WithCameras(cameras ...config.Camera) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Cameras = cameras
	}
}

// WithEpisodes overrides the episode count on the test config.
func WithEpisodes(episodes int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Capture.Episodes = episodes
	}
}
