package video

import (
	"context"
	"errors"
)

var (
	// ErrOrderingViolation marks frames pushed out of index order. This is
	// a programming error and aborts the episode.
	ErrOrderingViolation = errors.New("ordering violation")

	// ErrEncodeFailure marks a durable-write failure in the encoder. The
	// episode aborts and the partial artifact is discarded.
	ErrEncodeFailure = errors.New("encode failure")
)

// Encoder buffers frames for one camera and writes a single video artifact
// on episode completion.
type Encoder interface {
	// Start prepares the encoder to write the artifact at path.
	Start(ctx context.Context, path string) error
	// Push appends one frame. index must be exactly one past the previous
	// push (starting at 0) or Push fails with ErrOrderingViolation.
	Push(data []byte, index int) error
	// Finish flushes all buffered frames to durable storage and returns
	// the final artifact path.
	Finish() (string, error)
	// Abort discards the partial artifact. Safe after Finish or Start
	// failure, and safe to call multiple times.
	Abort()
}

// Factory builds one encoder per camera per episode.
type Factory func(camera string) Encoder
