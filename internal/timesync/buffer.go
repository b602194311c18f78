package timesync

import (
	"sync"
	"time"

	"clapper/internal/capture"
)

// frameBuffer holds a small lookahead of frames for one camera. When full,
// the oldest frame is dropped to keep the buffer tracking the device clock.
type frameBuffer struct {
	mu     sync.Mutex
	frames []capture.Frame
	limit  int
}

func newFrameBuffer(limit int) *frameBuffer {
	if limit <= 0 {
		limit = 1
	}
	return &frameBuffer{limit: limit}
}

func (b *frameBuffer) push(frame capture.Frame) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = append(b.frames, frame)
	if len(b.frames) > b.limit {
		b.frames = b.frames[1:]
	}
}

// take discards frames older than windowStart, then removes and returns the
// remaining frame closest to nominal. ok is false when nothing is eligible.
func (b *frameBuffer) take(nominal, windowStart time.Time) (capture.Frame, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.frames[:0]
	for _, frame := range b.frames {
		if frame.Timestamp.Before(windowStart) {
			continue
		}
		kept = append(kept, frame)
	}
	b.frames = kept

	if len(b.frames) == 0 {
		return capture.Frame{}, false
	}

	best := 0
	bestDelta := absDelta(b.frames[0].Timestamp, nominal)
	for i := 1; i < len(b.frames); i++ {
		if delta := absDelta(b.frames[i].Timestamp, nominal); delta < bestDelta {
			best = i
			bestDelta = delta
		}
	}

	frame := b.frames[best]
	b.frames = append(b.frames[:best], b.frames[best+1:]...)
	return frame, true
}

// putBack reinserts a frame at the front after a failed bundle assembly.
// It bypasses the depth limit so the frame is not lost.
func (b *frameBuffer) putBack(frame capture.Frame) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = append([]capture.Frame{frame}, b.frames...)
}

func (b *frameBuffer) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.frames)
}

func absDelta(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}
