package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DatasetDir string `toml:"dataset_dir"`
	LogDir     string `toml:"log_dir"`
}

// Capture contains frame acquisition and episode timing settings.
type Capture struct {
	FPS             int     `toml:"fps"`
	Width           int     `toml:"width"`
	Height          int     `toml:"height"`
	DurationSeconds float64 `toml:"duration_seconds"`
	Episodes        int     `toml:"episodes"`
	// MinFrames ends an episode early once this many frames were captured.
	// Zero means the episode always runs the configured duration.
	MinFrames          int `toml:"min_frames"`
	ReadTimeoutMillis  int `toml:"read_timeout_millis"`
	TickDeadlineMillis int `toml:"tick_deadline_millis"`
	Lookahead          int `toml:"lookahead"`
}

// Camera defines one capture device.
type Camera struct {
	Name   string `toml:"name"`
	Device string `toml:"device"`
}

// Dataset contains output dataset settings.
type Dataset struct {
	ChunkSize int    `toml:"chunk_size"`
	Task      string `toml:"task"`
}

// FFmpeg contains the external encoder/prober settings.
type FFmpeg struct {
	Binary        string `toml:"binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	Codec         string `toml:"codec"`
	VerifyOutputs bool   `toml:"verify_outputs"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for clapper.
//
// Configuration sections by subsystem:
//   - Paths: dataset root and log directory
//   - Capture: fps, resolution, episode timing, sync deadlines
//   - Cameras: logical name to device mapping, one entry per camera
//   - Dataset: chunk size and default task text
//   - FFmpeg: capture/encode binaries and codec selection
//   - Logging: log format and level
type Config struct {
	Paths   Paths    `toml:"paths"`
	Capture Capture  `toml:"capture"`
	Cameras []Camera `toml:"cameras"`
	Dataset Dataset  `toml:"dataset"`
	FFmpeg  FFmpeg   `toml:"ffmpeg"`
	Logging Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/clapper/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was found.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("clapper.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the recorder writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DatasetDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// TickPeriod returns the duration of one virtual tick at the target rate.
func (c *Config) TickPeriod() time.Duration {
	if c.Capture.FPS <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.Capture.FPS)
}

// ReadTimeout returns the bounded per-read timeout for frame sources.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Capture.ReadTimeoutMillis) * time.Millisecond
}

// TickDeadline returns how long the synchronizer waits for a complete bundle
// past a tick's nominal time before dropping the tick.
func (c *Config) TickDeadline() time.Duration {
	return time.Duration(c.Capture.TickDeadlineMillis) * time.Millisecond
}

// TargetTicks returns the number of ticks in one full-length episode.
func (c *Config) TargetTicks() int {
	return int(math.Ceil(c.Capture.DurationSeconds * float64(c.Capture.FPS)))
}

// CameraNames returns the configured logical camera names in order.
func (c *Config) CameraNames() []string {
	names := make([]string, 0, len(c.Cameras))
	for _, cam := range c.Cameras {
		names = append(names, cam.Name)
	}
	return names
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
