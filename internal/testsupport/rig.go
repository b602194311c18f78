package testsupport

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"clapper/internal/capture"
	"clapper/internal/video"
)

// MemoryEncoder implements video.Encoder by holding frames in memory and
// writing a marker file on Finish, one byte per frame. Tests use the file
// size as the artifact frame count.
type MemoryEncoder struct {
	mu       sync.Mutex
	path     string
	frames   [][]byte
	next     int
	started  bool
	finished bool

	// FailFinish forces Finish to report an encode failure.
	FailFinish bool
}

func (e *MemoryEncoder) Start(_ context.Context, path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return errors.New("encoder already started")
	}
	e.started = true
	e.path = path
	return nil
}

func (e *MemoryEncoder) Push(data []byte, index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started || e.finished {
		return video.ErrEncodeFailure
	}
	if index != e.next {
		return video.ErrOrderingViolation
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	e.frames = append(e.frames, buf)
	e.next++
	return nil
}

func (e *MemoryEncoder) Finish() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started || e.finished {
		return "", video.ErrEncodeFailure
	}
	e.finished = true
	if e.FailFinish {
		return "", video.ErrEncodeFailure
	}
	if err := os.MkdirAll(filepath.Dir(e.path), 0o755); err != nil {
		return "", err
	}
	marker := make([]byte, len(e.frames))
	if err := os.WriteFile(e.path, marker, 0o644); err != nil {
		return "", err
	}
	return e.path, nil
}

func (e *MemoryEncoder) Abort() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.finished = true
	if e.path != "" {
		_ = os.Remove(e.path + ".partial")
	}
}

// Frames returns the number of frames pushed so far.
func (e *MemoryEncoder) Frames() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.frames)
}

// EncoderSet builds MemoryEncoders on demand and remembers them by camera
// so tests can inspect what each camera received.
type EncoderSet struct {
	mu       sync.Mutex
	encoders map[string]*MemoryEncoder

	// FailFinish applies to every encoder built after it is set.
	FailFinish bool
}

// NewEncoderSet returns an empty set.
func NewEncoderSet() *EncoderSet {
	return &EncoderSet{encoders: make(map[string]*MemoryEncoder)}
}

// Factory returns a video.Factory backed by this set.
func (s *EncoderSet) Factory() video.Factory {
	return func(camera string) video.Encoder {
		s.mu.Lock()
		defer s.mu.Unlock()
		enc := &MemoryEncoder{FailFinish: s.FailFinish}
		s.encoders[camera] = enc
		return enc
	}
}

// Get returns the most recent encoder built for a camera.
func (s *EncoderSet) Get(camera string) *MemoryEncoder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.encoders[camera]
}

// SyntheticFactory returns a capture.Factory producing synthetic sources
// with the given per-camera options. Cameras not present in perCamera get
// the base options.
func SyntheticFactory(base capture.SyntheticOptions, perCamera map[string]capture.SyntheticOptions) capture.Factory {
	return func(name, _ string) capture.Source {
		opts := base
		if override, ok := perCamera[name]; ok {
			opts = override
		}
		return capture.NewSyntheticSource(name, opts)
	}
}

// FastSyntheticOptions returns synthetic source options paced for tests.
func FastSyntheticOptions() capture.SyntheticOptions {
	return capture.SyntheticOptions{
		Interval:  2 * time.Millisecond,
		FrameSize: 48,
	}
}
