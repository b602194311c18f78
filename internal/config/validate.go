package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateCameras(); err != nil {
		return err
	}
	if err := c.validateDataset(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DatasetDir) == "" {
		return errors.New("paths.dataset_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateCapture() error {
	if c.Capture.FPS <= 0 {
		return errors.New("capture.fps must be positive")
	}
	if c.Capture.Width <= 0 || c.Capture.Height <= 0 {
		return errors.New("capture.width and capture.height must be positive")
	}
	if c.Capture.DurationSeconds <= 0 {
		return errors.New("capture.duration_seconds must be positive")
	}
	if c.Capture.Episodes <= 0 {
		return errors.New("capture.episodes must be positive")
	}
	if c.Capture.MinFrames < 0 {
		return errors.New("capture.min_frames must not be negative")
	}
	if c.Capture.MinFrames > c.TargetTicks() {
		return fmt.Errorf("capture.min_frames (%d) exceeds the episode tick count (%d)",
			c.Capture.MinFrames, c.TargetTicks())
	}
	return nil
}

func (c *Config) validateCameras() error {
	if len(c.Cameras) == 0 {
		return errors.New("at least one [[cameras]] entry is required")
	}
	names := make(map[string]struct{}, len(c.Cameras))
	devices := make(map[string]struct{}, len(c.Cameras))
	for i, cam := range c.Cameras {
		if cam.Name == "" {
			return fmt.Errorf("cameras[%d].name must be set", i)
		}
		if cam.Device == "" {
			return fmt.Errorf("cameras[%d].device must be set", i)
		}
		if _, ok := names[cam.Name]; ok {
			return fmt.Errorf("duplicate camera name %q", cam.Name)
		}
		if _, ok := devices[cam.Device]; ok {
			return fmt.Errorf("duplicate camera device %q", cam.Device)
		}
		names[cam.Name] = struct{}{}
		devices[cam.Device] = struct{}{}
	}
	return nil
}

func (c *Config) validateDataset() error {
	if c.Dataset.ChunkSize <= 0 {
		return errors.New("dataset.chunk_size must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
