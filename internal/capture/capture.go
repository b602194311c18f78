package capture

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrCaptureTimeout marks a device read that stalled past its deadline.
	// The tick is dropped and the episode continues.
	ErrCaptureTimeout = errors.New("capture timeout")

	// ErrDeviceFailure marks an unrecoverable device error. The episode
	// aborts and all handles are released.
	ErrDeviceFailure = errors.New("device failure")

	// ErrSourceClosed is returned by reads on a closed source.
	ErrSourceClosed = errors.New("source closed")
)

// Frame is one raw image buffer captured from a device. The timestamp is
// device-local and monotonic; Seq increases strictly by one per frame.
type Frame struct {
	Data      []byte
	Timestamp time.Time
	Seq       int
}

// Source produces a finite-per-episode, restartable sequence of frames.
//
// Open must be called before the first Read. Close is idempotent and always
// releases the underlying device handle, including when an episode aborts.
type Source interface {
	// Name returns the logical camera name the source captures for.
	Name() string
	// Open acquires the device.
	Open(ctx context.Context) error
	// Read blocks for the next frame, bounded by the source's read timeout.
	Read(ctx context.Context) (Frame, error)
	// Close releases the device handle.
	Close() error
}

// Factory builds a source for one configured camera. The recorder opens a
// fresh set of sources per episode.
type Factory func(name, device string) Source
