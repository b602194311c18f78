package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"clapper/internal/capture"
	"clapper/internal/dataset"
	"clapper/internal/logging"
	"clapper/internal/media/ffprobe"
	"clapper/internal/timesync"
	"clapper/internal/video"
)

// ErrSetup marks a failure while opening cameras or encoders. A setup
// failure aborts the whole run rather than a single episode.
var ErrSetup = errors.New("episode setup failure")

// Camera maps a logical name to its device node.
type Camera struct {
	Name   string
	Device string
}

// Options configures a Recorder.
type Options struct {
	Cameras     []Camera
	TargetTicks int
	// MinFrames ends the episode early once this many rows were recorded.
	// Zero disables early stop.
	MinFrames int
	Task      string
	Sync      timesync.Options

	Sources  capture.Factory
	Encoders video.Factory

	// VerifyOutputs re-counts frames in each finished artifact with
	// ffprobe before commit.
	VerifyOutputs bool
	FFprobeBinary string
}

// Recorder records episodes sequentially against a single dataset writer.
type Recorder struct {
	writer *dataset.Writer
	opts   Options
	logger *slog.Logger
	state  State
}

// New validates opts and builds a Recorder in the Idle state.
func New(writer *dataset.Writer, opts Options, logger *slog.Logger) (*Recorder, error) {
	if writer == nil {
		return nil, errors.New("recorder: nil dataset writer")
	}
	if len(opts.Cameras) == 0 {
		return nil, errors.New("recorder: no cameras configured")
	}
	if opts.TargetTicks <= 0 {
		return nil, errors.New("recorder: target tick count must be positive")
	}
	if opts.Sources == nil || opts.Encoders == nil {
		return nil, errors.New("recorder: source and encoder factories are required")
	}
	if opts.MinFrames < 0 || opts.MinFrames > opts.TargetTicks {
		return nil, fmt.Errorf("recorder: min frames %d outside [0, %d]", opts.MinFrames, opts.TargetTicks)
	}
	return &Recorder{
		writer: writer,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "recorder"),
		state:  StateIdle,
	}, nil
}

// State returns the recorder's current lifecycle state.
func (r *Recorder) State() State { return r.state }

func (r *Recorder) transition(to State) {
	if !r.state.canTransition(to) {
		panic(fmt.Sprintf("recorder: invalid transition %s -> %s", r.state, to))
	}
	r.state = to
	r.logger.Debug("episode state changed", logging.String(logging.FieldState, string(to)))
}

// episode carries the resources of one in-flight recording attempt.
type episode struct {
	index     int
	taskIndex int
	sources   []capture.Source
	encoders  map[string]video.Encoder
	sync      *timesync.Syncer
	rows      []dataset.Row
	finished  []string
}

// Record runs one full episode and returns its catalog record on commit.
// A missed tick is skipped; a fatal error aborts the episode, discards its
// artifacts, and leaves the dataset unchanged. Context cancellation aborts
// exactly like a device failure.
func (r *Recorder) Record(ctx context.Context) (dataset.EpisodeRecord, error) {
	if r.state.Terminal() {
		r.transition(StateIdle)
	}

	ep, err := r.setup(ctx)
	if err != nil {
		return dataset.EpisodeRecord{}, fmt.Errorf("%w: %v", ErrSetup, err)
	}
	r.transition(StateRecording)
	r.logger.Info("episode started",
		logging.Int(logging.FieldEpisodeIndex, ep.index),
		logging.Int("target_ticks", r.opts.TargetTicks),
		logging.String(logging.FieldTask, r.opts.Task))

	if err := r.record(ctx, ep); err != nil {
		r.abort(ep, err)
		return dataset.EpisodeRecord{}, err
	}

	r.transition(StateFinalizing)
	if err := r.finalize(ctx, ep); err != nil {
		r.abort(ep, err)
		return dataset.EpisodeRecord{}, err
	}

	record, err := r.writer.Commit(ep.rows, r.opts.Task)
	if err != nil {
		r.abort(ep, err)
		return dataset.EpisodeRecord{}, err
	}
	r.transition(StateCommitted)
	return record, nil
}

// setup opens every camera and encoder and allocates the episode's index.
// On failure everything opened so far is released.
func (r *Recorder) setup(ctx context.Context) (*episode, error) {
	ep := &episode{
		index:     r.writer.NextEpisodeIndex(),
		taskIndex: r.writer.ResolveTaskIndex(r.opts.Task),
		encoders:  make(map[string]video.Encoder, len(r.opts.Cameras)),
	}

	for _, camera := range r.opts.Cameras {
		src := r.opts.Sources(camera.Name, camera.Device)
		if err := src.Open(ctx); err != nil {
			r.release(ep)
			return nil, fmt.Errorf("open camera %s (%s): %w", camera.Name, camera.Device, err)
		}
		ep.sources = append(ep.sources, src)
	}

	for _, camera := range r.opts.Cameras {
		enc := r.opts.Encoders(camera.Name)
		path := r.writer.Layout().VideoPath(camera.Name, ep.index)
		if err := os.MkdirAll(r.writer.Layout().VideoDir(r.writer.Layout().ChunkFor(ep.index), camera.Name), 0o755); err != nil {
			r.release(ep)
			return nil, fmt.Errorf("create video directory for %s: %w", camera.Name, err)
		}
		if err := enc.Start(ctx, path); err != nil {
			r.release(ep)
			return nil, fmt.Errorf("start encoder for %s: %w", camera.Name, err)
		}
		ep.encoders[camera.Name] = enc
	}

	ep.sync = timesync.New(ep.sources, r.opts.Sync, r.logger)
	if err := ep.sync.Start(ctx); err != nil {
		r.release(ep)
		return nil, fmt.Errorf("start synchronizer: %w", err)
	}
	return ep, nil
}

// record pulls bundles until the tick budget is spent or MinFrames is
// reached. Missed ticks consume budget without producing a row.
func (r *Recorder) record(ctx context.Context, ep *episode) error {
	for tick := 0; tick < r.opts.TargetTicks; tick++ {
		bundle, err := ep.sync.Next(ctx)
		if errors.Is(err, timesync.ErrTickMissed) {
			r.logger.Warn("tick missed",
				logging.Int(logging.FieldEpisodeIndex, ep.index),
				logging.Int(logging.FieldTick, tick))
			continue
		}
		if err != nil {
			return err
		}

		frameIndex := len(ep.rows)
		for name, frame := range bundle.Frames {
			if err := ep.encoders[name].Push(frame.Data, frameIndex); err != nil {
				return fmt.Errorf("camera %s: %w", name, err)
			}
		}
		ep.rows = append(ep.rows, dataset.Row{
			Timestamp:    bundle.Timestamp.Seconds(),
			FrameIndex:   int64(frameIndex),
			EpisodeIndex: int64(ep.index),
			TaskIndex:    int64(ep.taskIndex),
		})

		if r.opts.MinFrames > 0 && len(ep.rows) >= r.opts.MinFrames {
			r.logger.Info("minimum frame count reached, ending episode early",
				logging.Int(logging.FieldEpisodeIndex, ep.index),
				logging.Int(logging.FieldFrames, len(ep.rows)))
			break
		}
	}
	if len(ep.rows) == 0 {
		return fmt.Errorf("episode %d produced no frames", ep.index)
	}
	return nil
}

// finalize releases the capture side and flushes every encoder, then checks
// that each artifact holds exactly one frame per table row.
func (r *Recorder) finalize(ctx context.Context, ep *episode) error {
	ep.sync.Stop()
	ep.sync = nil
	for _, src := range ep.sources {
		if err := src.Close(); err != nil {
			r.logger.Warn("closing camera failed",
				logging.String(logging.FieldCamera, src.Name()),
				logging.Error(err))
		}
	}
	ep.sources = nil

	for name, enc := range ep.encoders {
		path, err := enc.Finish()
		if err != nil {
			return fmt.Errorf("camera %s: %w", name, err)
		}
		ep.finished = append(ep.finished, path)

		if counter, ok := enc.(interface{ Frames() int }); ok {
			if got := counter.Frames(); got != len(ep.rows) {
				return fmt.Errorf("camera %s: %w: encoded %d frames, table has %d rows",
					name, video.ErrEncodeFailure, got, len(ep.rows))
			}
		}
		if r.opts.VerifyOutputs && r.opts.FFprobeBinary != "" {
			if err := r.verifyArtifact(ctx, name, path, len(ep.rows)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Recorder) verifyArtifact(ctx context.Context, camera, path string, want int) error {
	result, err := ffprobe.Inspect(ctx, r.opts.FFprobeBinary, path)
	if err != nil {
		return fmt.Errorf("camera %s: verify artifact: %w", camera, err)
	}
	count, err := result.VideoFrameCount()
	if err != nil {
		return fmt.Errorf("camera %s: verify artifact: %w", camera, err)
	}
	if count != want {
		return fmt.Errorf("camera %s: %w: artifact holds %d frames, table has %d rows",
			camera, video.ErrEncodeFailure, count, want)
	}
	return nil
}

// abort releases every resource and discards all artifacts of the attempt.
func (r *Recorder) abort(ep *episode, cause error) {
	r.release(ep)
	for _, path := range ep.finished {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			r.logger.Warn("removing aborted artifact failed",
				logging.String(logging.FieldPath, path),
				logging.Error(err))
		}
	}
	ep.finished = nil
	r.transition(StateAborted)
	r.logger.Error("episode aborted",
		logging.Int(logging.FieldEpisodeIndex, ep.index),
		logging.Error(cause))
}

// release stops the synchronizer, closes sources, and aborts encoders. It
// is safe on a partially constructed episode.
func (r *Recorder) release(ep *episode) {
	if ep.sync != nil {
		ep.sync.Stop()
		ep.sync = nil
	}
	for _, src := range ep.sources {
		_ = src.Close()
	}
	ep.sources = nil
	for _, enc := range ep.encoders {
		enc.Abort()
	}
}
