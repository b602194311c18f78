package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCapture()
	c.normalizeCameras()
	c.normalizeDataset()
	c.normalizeFFmpeg()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DatasetDir, err = expandPath(c.Paths.DatasetDir); err != nil {
		return fmt.Errorf("paths.dataset_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCapture() {
	if c.Capture.ReadTimeoutMillis <= 0 {
		c.Capture.ReadTimeoutMillis = defaultReadTimeoutMillis
	}
	if c.Capture.TickDeadlineMillis <= 0 {
		c.Capture.TickDeadlineMillis = defaultTickDeadlineMillis
	}
	if c.Capture.Lookahead <= 0 {
		c.Capture.Lookahead = defaultLookahead
	}
	if c.Capture.MinFrames < 0 {
		c.Capture.MinFrames = 0
	}
}

func (c *Config) normalizeCameras() {
	cameras := make([]Camera, 0, len(c.Cameras))
	for _, cam := range c.Cameras {
		cam.Name = strings.TrimSpace(cam.Name)
		cam.Device = strings.TrimSpace(cam.Device)
		if cam.Name == "" && cam.Device == "" {
			continue
		}
		cameras = append(cameras, cam)
	}
	c.Cameras = cameras
}

func (c *Config) normalizeDataset() {
	c.Dataset.Task = strings.TrimSpace(c.Dataset.Task)
	if c.Dataset.Task == "" {
		c.Dataset.Task = defaultTask
	}
	if c.Dataset.ChunkSize <= 0 {
		c.Dataset.ChunkSize = defaultChunkSize
	}
}

func (c *Config) normalizeFFmpeg() {
	c.FFmpeg.Binary = strings.TrimSpace(c.FFmpeg.Binary)
	if c.FFmpeg.Binary == "" {
		c.FFmpeg.Binary = defaultFFmpegBinary
	}
	c.FFmpeg.FFprobeBinary = strings.TrimSpace(c.FFmpeg.FFprobeBinary)
	if c.FFmpeg.FFprobeBinary == "" {
		c.FFmpeg.FFprobeBinary = defaultFFprobeBinary
	}
	c.FFmpeg.Codec = strings.TrimSpace(c.FFmpeg.Codec)
	if c.FFmpeg.Codec == "" {
		c.FFmpeg.Codec = defaultCodec
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
