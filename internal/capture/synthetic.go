package capture

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// SyntheticOptions configures a SyntheticSource.
type SyntheticOptions struct {
	// Interval between consecutive frames (the simulated device rate).
	Interval time.Duration
	// Jitter shifts each frame timestamp by up to ±Jitter.
	Jitter time.Duration
	// FrameSize is the byte length of generated frame buffers.
	FrameSize int
	// FailAtSeq makes Read fail with ErrDeviceFailure once the sequence
	// number reaches this value. Nil disables failure injection; AtSeq(0)
	// fails the very first frame.
	FailAtSeq *int
	// StallAtSeq delays the frame with this sequence number by StallFor.
	// Nil disables stall injection.
	StallAtSeq *int
	StallFor   time.Duration
	// Seed fixes the jitter sequence; zero seeds from the clock.
	Seed int64
}

// SyntheticSource simulates a camera device for tests and simulate mode.
// Frames are paced in real time at the configured interval.
type SyntheticSource struct {
	name string
	opts SyntheticOptions
	rng  *rand.Rand

	mu     sync.Mutex
	opened bool
	closed bool
	start  time.Time
	seq    int
}

// AtSeq wraps a sequence number for the fault-injection fields in
// SyntheticOptions.
func AtSeq(seq int) *int { return &seq }

// NewSyntheticSource builds a simulated camera. Zero-value options get
// sensible defaults (30fps, 16-byte frames, no fault injection).
func NewSyntheticSource(name string, opts SyntheticOptions) *SyntheticSource {
	if opts.Interval <= 0 {
		opts.Interval = time.Second / 30
	}
	if opts.FrameSize <= 0 {
		opts.FrameSize = 16
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SyntheticSource{
		name: name,
		opts: opts,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// Name returns the logical camera name.
func (s *SyntheticSource) Name() string { return s.name }

// Open marks the source ready and anchors its virtual device clock.
func (s *SyntheticSource) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened = true
	s.closed = false
	s.start = time.Now()
	s.seq = 0
	return nil
}

// Read produces the next frame, sleeping until its simulated capture time.
func (s *SyntheticSource) Read(ctx context.Context) (Frame, error) {
	s.mu.Lock()
	if !s.opened || s.closed {
		s.mu.Unlock()
		return Frame{}, ErrSourceClosed
	}
	seq := s.seq
	s.seq++
	jitter := time.Duration(0)
	if s.opts.Jitter > 0 {
		jitter = time.Duration(s.rng.Int63n(int64(2*s.opts.Jitter))) - s.opts.Jitter
	}
	due := s.start.Add(time.Duration(seq)*s.opts.Interval + jitter)
	s.mu.Unlock()

	if s.opts.FailAtSeq != nil && seq >= *s.opts.FailAtSeq {
		return Frame{}, fmt.Errorf("%w: synthetic %s failed at seq %d", ErrDeviceFailure, s.name, seq)
	}
	if s.opts.StallAtSeq != nil && seq == *s.opts.StallAtSeq {
		due = due.Add(s.opts.StallFor)
	}

	if wait := time.Until(due); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return Frame{}, ctx.Err()
		}
	}

	data := make([]byte, s.opts.FrameSize)
	for i := range data {
		data[i] = byte(seq)
	}
	return Frame{Data: data, Timestamp: due, Seq: seq}, nil
}

// Close releases the simulated device. Safe to call multiple times.
func (s *SyntheticSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
