package capture

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FFmpegSource reads raw bgr24 frames from a v4l2 device through an ffmpeg
// subprocess. One process is spawned per episode and torn down on Close.
type FFmpegSource struct {
	name        string
	device      string
	binary      string
	width       int
	height      int
	fps         int
	readTimeout time.Duration

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdout io.ReadCloser
	frames chan Frame
	errs   chan error
	done   chan struct{}
	closed bool
}

// FFmpegOptions configures an FFmpegSource.
type FFmpegOptions struct {
	Binary      string
	Width       int
	Height      int
	FPS         int
	ReadTimeout time.Duration
}

// NewFFmpegSource constructs a source for one camera device.
func NewFFmpegSource(name, device string, opts FFmpegOptions) *FFmpegSource {
	binary := strings.TrimSpace(opts.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	timeout := opts.ReadTimeout
	if timeout <= 0 {
		timeout = time.Second
	}
	return &FFmpegSource{
		name:        name,
		device:      device,
		binary:      binary,
		width:       opts.Width,
		height:      opts.Height,
		fps:         opts.FPS,
		readTimeout: timeout,
	}
}

// Name returns the logical camera name.
func (s *FFmpegSource) Name() string { return s.name }

// FrameSize returns the byte length of one raw bgr24 frame.
func (s *FFmpegSource) FrameSize() int { return s.width * s.height * 3 }

func (s *FFmpegSource) args() []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", "v4l2",
		"-framerate", strconv.Itoa(s.fps),
		"-video_size", fmt.Sprintf("%dx%d", s.width, s.height),
		"-i", s.device,
		"-f", "rawvideo",
		"-pix_fmt", "bgr24",
		"pipe:1",
	}
}

// Open spawns the ffmpeg capture process and starts the frame pump.
func (s *FFmpegSource) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd != nil {
		return fmt.Errorf("%w: %s already open", ErrDeviceFailure, s.device)
	}

	cmd := exec.CommandContext(ctx, s.binary, s.args()...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: stdout pipe for %s: %v", ErrDeviceFailure, s.device, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrDeviceFailure, s.device, err)
	}

	s.cmd = cmd
	s.stdout = stdout
	s.frames = make(chan Frame, 2)
	s.errs = make(chan error, 1)
	s.done = make(chan struct{})
	s.closed = false

	go s.pump()
	return nil
}

// pump reads fixed-size frames from the process until EOF or Close.
func (s *FFmpegSource) pump() {
	size := s.FrameSize()
	seq := 0
	for {
		buf := make([]byte, size)
		if _, err := io.ReadFull(s.stdout, buf); err != nil {
			select {
			case s.errs <- fmt.Errorf("%w: %s: stream ended: %v", ErrDeviceFailure, s.device, err):
			case <-s.done:
			}
			return
		}
		frame := Frame{Data: buf, Timestamp: time.Now(), Seq: seq}
		select {
		case s.frames <- frame:
			seq++
		case <-s.done:
			return
		}
	}
}

// Read blocks for the next frame, up to the configured read timeout.
func (s *FFmpegSource) Read(ctx context.Context) (Frame, error) {
	s.mu.Lock()
	frames, errs, done := s.frames, s.errs, s.done
	closed := s.closed
	s.mu.Unlock()

	if closed || frames == nil {
		return Frame{}, ErrSourceClosed
	}

	timer := time.NewTimer(s.readTimeout)
	defer timer.Stop()

	select {
	case frame := <-frames:
		return frame, nil
	case err := <-errs:
		return Frame{}, err
	case <-done:
		return Frame{}, ErrSourceClosed
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	case <-timer.C:
		return Frame{}, fmt.Errorf("%w: %s: no frame within %s", ErrCaptureTimeout, s.device, s.readTimeout)
	}
}

// Close terminates the capture process. Safe to call multiple times.
func (s *FFmpegSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.done != nil {
		close(s.done)
	}
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
		_ = s.cmd.Wait()
	}
	if s.stdout != nil {
		_ = s.stdout.Close()
	}
	s.cmd = nil
	s.stdout = nil
	return nil
}
