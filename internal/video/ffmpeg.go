package video

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// FFmpegOptions configures an FFmpegEncoder.
type FFmpegOptions struct {
	Binary string
	Codec  string
	Width  int
	Height int
	FPS    int
}

// FFmpegEncoder pipes raw bgr24 frames into an ffmpeg subprocess that writes
// an mp4. The output goes to a temporary path and is renamed into place by
// Finish, so a crash or abort never leaves a final-looking artifact.
type FFmpegEncoder struct {
	opts FFmpegOptions

	mu       sync.Mutex
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	stderr   bytes.Buffer
	path     string
	tmpPath  string
	next     int
	finished bool
}

// NewFFmpegEncoder builds an encoder for one camera and episode.
func NewFFmpegEncoder(opts FFmpegOptions) *FFmpegEncoder {
	if strings.TrimSpace(opts.Binary) == "" {
		opts.Binary = "ffmpeg"
	}
	if strings.TrimSpace(opts.Codec) == "" {
		opts.Codec = "libx264"
	}
	return &FFmpegEncoder{opts: opts}
}

func (e *FFmpegEncoder) args(tmpPath string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "bgr24",
		"-video_size", fmt.Sprintf("%dx%d", e.opts.Width, e.opts.Height),
		"-framerate", strconv.Itoa(e.opts.FPS),
		"-i", "pipe:0",
		"-c:v", e.opts.Codec,
		"-pix_fmt", "yuv420p",
		"-f", "mp4",
		tmpPath,
	}
}

// Start spawns the encoding process targeting a temporary sibling of path.
func (e *FFmpegEncoder) Start(ctx context.Context, path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cmd != nil {
		return fmt.Errorf("%w: encoder already started", ErrEncodeFailure)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: create video directory: %v", ErrEncodeFailure, err)
	}

	tmpPath := path + ".partial"
	cmd := exec.CommandContext(ctx, e.opts.Binary, e.args(tmpPath)...)
	cmd.Stderr = &e.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%w: stdin pipe: %v", ErrEncodeFailure, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: start %s: %v", ErrEncodeFailure, e.opts.Binary, err)
	}

	e.cmd = cmd
	e.stdin = stdin
	e.path = path
	e.tmpPath = tmpPath
	e.next = 0
	e.finished = false
	return nil
}

// Push writes one raw frame to the encoder.
func (e *FFmpegEncoder) Push(data []byte, index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cmd == nil || e.finished {
		return fmt.Errorf("%w: push on inactive encoder", ErrEncodeFailure)
	}
	if index != e.next {
		return fmt.Errorf("%w: frame %d pushed, expected %d", ErrOrderingViolation, index, e.next)
	}
	if _, err := e.stdin.Write(data); err != nil {
		return fmt.Errorf("%w: write frame %d: %v: %s", ErrEncodeFailure, index, err, e.stderrTail())
	}
	e.next++
	return nil
}

// Frames returns the number of frames pushed so far.
func (e *FFmpegEncoder) Frames() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.next
}

// Finish closes the stream, waits for ffmpeg to flush, and moves the
// artifact to its final path.
func (e *FFmpegEncoder) Finish() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cmd == nil {
		return "", fmt.Errorf("%w: finish on unstarted encoder", ErrEncodeFailure)
	}
	if e.finished {
		return e.path, nil
	}
	e.finished = true

	if err := e.stdin.Close(); err != nil {
		_ = e.cmd.Wait()
		e.removeTmpLocked()
		return "", fmt.Errorf("%w: close stream: %v", ErrEncodeFailure, err)
	}
	if err := e.cmd.Wait(); err != nil {
		e.removeTmpLocked()
		return "", fmt.Errorf("%w: %s exited: %v: %s", ErrEncodeFailure, e.opts.Binary, err, e.stderrTail())
	}
	if err := os.Rename(e.tmpPath, e.path); err != nil {
		e.removeTmpLocked()
		return "", fmt.Errorf("%w: finalize artifact: %v", ErrEncodeFailure, err)
	}
	return e.path, nil
}

// Abort kills the encoding process and removes the partial artifact.
func (e *FFmpegEncoder) Abort() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cmd != nil && !e.finished {
		e.finished = true
		_ = e.stdin.Close()
		if e.cmd.Process != nil {
			_ = e.cmd.Process.Kill()
		}
		_ = e.cmd.Wait()
	}
	e.removeTmpLocked()
}

func (e *FFmpegEncoder) removeTmpLocked() {
	if e.tmpPath != "" {
		_ = os.Remove(e.tmpPath)
	}
}

func (e *FFmpegEncoder) stderrTail() string {
	const limit = 256
	s := strings.TrimSpace(e.stderr.String())
	if len(s) > limit {
		s = s[len(s)-limit:]
	}
	return s
}
