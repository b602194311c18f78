// Package run orchestrates a whole recording session: preflight, single
// instance locking, journal bookkeeping, orphan sweep, and the episode
// loop. One Runner produces one run with a unique run ID.
package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"clapper/internal/capture"
	"clapper/internal/config"
	"clapper/internal/dataset"
	"clapper/internal/devices"
	"clapper/internal/journal"
	"clapper/internal/logging"
	"clapper/internal/preflight"
	"clapper/internal/recorder"
	"clapper/internal/timesync"
	"clapper/internal/video"
)

// ErrPreflight marks failed readiness checks before any camera was opened.
var ErrPreflight = errors.New("preflight failed")

// ErrLocked indicates another recorder already holds the dataset lock.
var ErrLocked = errors.New("dataset is locked by another recorder")

// Options configures a Runner beyond what the config file carries.
type Options struct {
	// Simulate replaces every camera with a synthetic source. Encoding
	// and dataset output stay real.
	Simulate bool

	// Sources and Encoders override the default factories. Tests use
	// these; the CLI leaves them nil.
	Sources  capture.Factory
	Encoders video.Factory
}

// EpisodeOutcome summarizes one attempt of the episode loop.
type EpisodeOutcome struct {
	EpisodeIndex int
	Committed    bool
	Length       int
	Err          error
}

// Summary reports what a run achieved.
type Summary struct {
	RunID     string
	Committed int
	Aborted   int
	Outcomes  []EpisodeOutcome
}

// Runner executes recording runs against one configuration.
type Runner struct {
	cfg    *config.Config
	opts   Options
	logger *slog.Logger
}

// New builds a Runner.
func New(cfg *config.Config, opts Options, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:    cfg,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "run"),
	}
}

// Run records the configured number of episodes. An aborted episode does
// not stop the run; a setup failure, failed preflight, or context
// cancellation does. The returned summary is valid even on error.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	runID := uuid.NewString()
	summary := Summary{RunID: runID}
	logger := r.logger.With(logging.String(logging.FieldRunID, runID))

	if err := r.preflight(ctx); err != nil {
		return summary, err
	}
	if err := r.cfg.EnsureDirectories(); err != nil {
		return summary, err
	}

	lock := flock.New(filepath.Join(r.cfg.Paths.DatasetDir, ".clapper.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return summary, fmt.Errorf("acquire dataset lock: %w", err)
	}
	if !locked {
		return summary, ErrLocked
	}
	defer func() { _ = lock.Unlock() }()

	ledger, err := journal.Open(filepath.Join(r.cfg.Paths.LogDir, "journal.db"))
	if err != nil {
		return summary, err
	}
	defer ledger.Close()
	if stale, err := ledger.ResolveStale(ctx); err != nil {
		return summary, err
	} else if stale > 0 {
		logger.Warn("resolved stale attempts from a previous run", logging.Int("attempts", stale))
	}

	writer, err := dataset.Open(r.cfg.Paths.DatasetDir, dataset.Options{
		FPS:        r.cfg.Capture.FPS,
		CameraKeys: r.cfg.CameraNames(),
		ChunkSize:  r.cfg.Dataset.ChunkSize,
	}, logger)
	if err != nil {
		return summary, err
	}
	if removed, err := writer.Sweep(logger); err != nil {
		return summary, err
	} else if removed > 0 {
		logger.Info("swept orphaned artifacts", logging.Int("files", removed))
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	monitor := r.deviceMonitor(logger, cancel)
	if err := monitor.Start(runCtx); err != nil {
		return summary, err
	}
	defer monitor.Stop()

	rec, err := recorder.New(writer, r.recorderOptions(), logger)
	if err != nil {
		return summary, err
	}

	logger.Info("run started",
		logging.Int("episodes", r.cfg.Capture.Episodes),
		logging.String(logging.FieldTask, r.cfg.Dataset.Task),
		logging.Bool("simulate", r.opts.Simulate))

	for attempt := 0; attempt < r.cfg.Capture.Episodes; attempt++ {
		outcome, err := r.recordOne(runCtx, ledger, writer, rec, runID)
		summary.Outcomes = append(summary.Outcomes, outcome)
		if outcome.Committed {
			summary.Committed++
		} else {
			summary.Aborted++
		}

		switch {
		case err == nil:
		case errors.Is(err, recorder.ErrSetup):
			return summary, err
		case runCtx.Err() != nil:
			return summary, runCtx.Err()
		default:
			// Aborted episode: its index is reused by the next attempt.
			logger.Warn("episode aborted, continuing",
				logging.Int(logging.FieldEpisodeIndex, outcome.EpisodeIndex),
				logging.Error(err))
		}
	}

	logger.Info("run finished",
		logging.Int("committed", summary.Committed),
		logging.Int("aborted", summary.Aborted))
	return summary, nil
}

func (r *Runner) recordOne(ctx context.Context, ledger *journal.Store, writer *dataset.Writer, rec *recorder.Recorder, runID string) (EpisodeOutcome, error) {
	outcome := EpisodeOutcome{EpisodeIndex: writer.NextEpisodeIndex()}

	attempt, err := ledger.Begin(ctx, runID, outcome.EpisodeIndex, r.cfg.Dataset.Task)
	if err != nil {
		outcome.Err = err
		return outcome, err
	}

	record, err := rec.Record(ctx)
	if err != nil {
		outcome.Err = err
		if jerr := ledger.MarkAborted(context.WithoutCancel(ctx), attempt.ID, err.Error()); jerr != nil {
			r.logger.Warn("journal update failed", logging.Error(jerr))
		}
		return outcome, err
	}

	outcome.Committed = true
	outcome.Length = record.Length
	if jerr := ledger.MarkCommitted(ctx, attempt.ID, record.Length); jerr != nil {
		r.logger.Warn("journal update failed", logging.Error(jerr))
	}
	return outcome, nil
}

// preflight runs host readiness checks. Simulate mode skips binary and
// device checks since no camera or capture process is involved.
func (r *Runner) preflight(ctx context.Context) error {
	var results []preflight.Result
	if r.opts.Simulate {
		results = []preflight.Result{
			preflight.CheckDirectoryAccess("Dataset directory", r.cfg.Paths.DatasetDir),
			preflight.CheckDirectoryAccess("Log directory", r.cfg.Paths.LogDir),
		}
	} else {
		results = preflight.RunAll(ctx, r.cfg)
	}
	if failed := preflight.Failed(results); len(failed) > 0 {
		return fmt.Errorf("%w: %s", ErrPreflight, strings.Join(failed, "; "))
	}
	return nil
}

// deviceMonitor watches the configured camera nodes. Removing one cancels
// the run context, which the recorder treats as a fatal device error.
func (r *Runner) deviceMonitor(logger *slog.Logger, cancel context.CancelFunc) *devices.Monitor {
	if r.opts.Simulate {
		return nil
	}
	paths := make([]string, 0, len(r.cfg.Cameras))
	for _, camera := range r.cfg.Cameras {
		paths = append(paths, camera.Device)
	}
	return devices.NewMonitor(logger, paths, func(device string) {
		logger.Error("camera unplugged, aborting run",
			logging.String(logging.FieldDevice, device))
		cancel()
	})
}

func (r *Runner) recorderOptions() recorder.Options {
	cameras := make([]recorder.Camera, 0, len(r.cfg.Cameras))
	for _, camera := range r.cfg.Cameras {
		cameras = append(cameras, recorder.Camera{Name: camera.Name, Device: camera.Device})
	}

	sources := r.opts.Sources
	if sources == nil {
		sources = r.sourceFactory()
	}
	encoders := r.opts.Encoders
	if encoders == nil {
		encoders = r.encoderFactory()
	}

	return recorder.Options{
		Cameras:     cameras,
		TargetTicks: r.cfg.TargetTicks(),
		MinFrames:   r.cfg.Capture.MinFrames,
		Task:        r.cfg.Dataset.Task,
		Sync: timesync.Options{
			Period:    r.cfg.TickPeriod(),
			Deadline:  r.cfg.TickDeadline(),
			Lookahead: r.cfg.Capture.Lookahead,
		},
		Sources:       sources,
		Encoders:      encoders,
		VerifyOutputs: r.cfg.FFmpeg.VerifyOutputs && !r.opts.Simulate,
		FFprobeBinary: r.cfg.FFmpeg.FFprobeBinary,
	}
}

func (r *Runner) sourceFactory() capture.Factory {
	if r.opts.Simulate {
		frameSize := r.cfg.Capture.Width * r.cfg.Capture.Height * 3
		period := r.cfg.TickPeriod()
		return func(name, _ string) capture.Source {
			return capture.NewSyntheticSource(name, capture.SyntheticOptions{
				Interval:  period,
				Jitter:    period / 10,
				FrameSize: frameSize,
			})
		}
	}
	opts := capture.FFmpegOptions{
		Binary:      r.cfg.FFmpeg.Binary,
		Width:       r.cfg.Capture.Width,
		Height:      r.cfg.Capture.Height,
		FPS:         r.cfg.Capture.FPS,
		ReadTimeout: r.cfg.ReadTimeout(),
	}
	return func(name, device string) capture.Source {
		return capture.NewFFmpegSource(name, device, opts)
	}
}

func (r *Runner) encoderFactory() video.Factory {
	opts := video.FFmpegOptions{
		Binary: r.cfg.FFmpeg.Binary,
		Codec:  r.cfg.FFmpeg.Codec,
		Width:  r.cfg.Capture.Width,
		Height: r.cfg.Capture.Height,
		FPS:    r.cfg.Capture.FPS,
	}
	return func(string) video.Encoder {
		return video.NewFFmpegEncoder(opts)
	}
}
