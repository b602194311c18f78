package timesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"clapper/internal/capture"
	"clapper/internal/logging"
)

// ErrTickMissed marks a tick whose bundle could not be completed before the
// per-tick deadline. The tick is dropped; the episode continues.
var ErrTickMissed = errors.New("tick missed")

// Bundle is one frame per camera for a single virtual tick. Bundles are
// complete by construction: a tick that cannot be filled is dropped instead.
type Bundle struct {
	Tick      int
	Timestamp time.Duration
	Frames    map[string]capture.Frame
}

// Options configures a Syncer.
type Options struct {
	// Period is the duration of one tick (1/fps).
	Period time.Duration
	// Deadline bounds how long Next blocks past a tick's nominal time.
	Deadline time.Duration
	// Lookahead is the per-camera buffer depth.
	Lookahead int
	// Clock overrides the wall clock for tick scheduling. Nil uses real time.
	Clock Clock
}

// Syncer pulls frames from every source on background pumps and assembles
// tick-aligned bundles for the single control thread.
type Syncer struct {
	opts    Options
	sources []capture.Source
	logger  *slog.Logger

	bufs  map[string]*frameBuffer
	fatal chan error

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	start   time.Time
	tick    int
	started bool
}

// New builds a Syncer over the provided open sources.
func New(sources []capture.Source, opts Options, logger *slog.Logger) *Syncer {
	if opts.Period <= 0 {
		opts.Period = time.Second / 30
	}
	if opts.Deadline <= 0 {
		opts.Deadline = opts.Period
	}
	if opts.Lookahead <= 0 {
		opts.Lookahead = 4
	}
	if opts.Clock == nil {
		opts.Clock = wallClock{}
	}
	bufs := make(map[string]*frameBuffer, len(sources))
	for _, src := range sources {
		bufs[src.Name()] = newFrameBuffer(opts.Lookahead)
	}
	return &Syncer{
		opts:    opts,
		sources: sources,
		logger:  logging.NewComponentLogger(logger, "timesync"),
		bufs:    bufs,
		fatal:   make(chan error, len(sources)),
	}
}

// Start anchors the virtual clock at the current instant and launches one
// pump goroutine per camera. Tick 0's nominal time is the anchor.
func (s *Syncer) Start(ctx context.Context) error {
	if s.started {
		return errors.New("syncer already started")
	}
	pumpCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.start = s.opts.Clock.Now()
	s.started = true

	for _, src := range s.sources {
		s.wg.Add(1)
		go s.pump(pumpCtx, src)
	}
	return nil
}

func (s *Syncer) pump(ctx context.Context, src capture.Source) {
	defer s.wg.Done()
	buf := s.bufs[src.Name()]
	for {
		frame, err := src.Read(ctx)
		switch {
		case err == nil:
			buf.push(frame)
		case errors.Is(err, capture.ErrCaptureTimeout):
			// Recoverable. The control thread observes the gap as a
			// missed tick; the pump keeps reading.
			s.logger.Debug("device read timed out",
				logging.String(logging.FieldCamera, src.Name()),
				logging.Error(err))
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded),
			errors.Is(err, capture.ErrSourceClosed):
			return
		default:
			select {
			case s.fatal <- fmt.Errorf("camera %s: %w", src.Name(), err):
			default:
			}
			return
		}
	}
}

// Next blocks until the next tick's nominal time, then assembles its bundle.
// It returns ErrTickMissed when any camera cannot supply a frame before the
// deadline, and a fatal device error when a pump has died. Tick numbering
// advances on both success and miss; a fatal error consumes no tick.
func (s *Syncer) Next(ctx context.Context) (Bundle, error) {
	if !s.started {
		return Bundle{}, errors.New("syncer not started")
	}
	if err := s.takeFatal(); err != nil {
		return Bundle{}, err
	}

	nominal := s.start.Add(time.Duration(s.tick) * s.opts.Period)
	if err := s.opts.Clock.Sleep(ctx, nominal.Sub(s.opts.Clock.Now())); err != nil {
		return Bundle{}, err
	}

	windowStart := nominal.Add(-s.opts.Period / 2)
	deadline := nominal.Add(s.opts.Deadline)
	poll := s.opts.Period / 8
	if poll < 200*time.Microsecond {
		poll = 200 * time.Microsecond
	}

	for {
		if err := s.takeFatal(); err != nil {
			return Bundle{}, err
		}

		if frames, ok := s.assemble(nominal, windowStart); ok {
			tick := s.tick
			s.tick++
			return Bundle{
				Tick:      tick,
				Timestamp: time.Duration(tick) * s.opts.Period,
				Frames:    frames,
			}, nil
		}

		if s.opts.Clock.Now().After(deadline) {
			tick := s.tick
			s.tick++
			return Bundle{}, fmt.Errorf("%w: tick %d", ErrTickMissed, tick)
		}
		if err := s.opts.Clock.Sleep(ctx, poll); err != nil {
			return Bundle{}, err
		}
	}
}

// assemble pops one aligned frame per camera. When any camera comes up
// empty the frames already popped are put back so no tick consumes a
// partial bundle.
func (s *Syncer) assemble(nominal, windowStart time.Time) (map[string]capture.Frame, bool) {
	frames := make(map[string]capture.Frame, len(s.bufs))
	for name, buf := range s.bufs {
		frame, ok := buf.take(nominal, windowStart)
		if !ok {
			for taken, frame := range frames {
				s.bufs[taken].putBack(frame)
			}
			return nil, false
		}
		frames[name] = frame
	}
	return frames, true
}

func (s *Syncer) takeFatal() error {
	select {
	case err := <-s.fatal:
		return err
	default:
		return nil
	}
}

// Stop cancels the pumps and waits for them to exit. Sources are owned by
// the caller and stay open.
func (s *Syncer) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}
