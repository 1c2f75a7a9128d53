// Package tuner ties a frame source, a pitch estimator and the dispatcher
// into a start/stop tuning session.
package tuner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/0xlemi/semitune/internal/audio"
	"github.com/0xlemi/semitune/internal/dispatch"
	"github.com/0xlemi/semitune/internal/note"
	"github.com/0xlemi/semitune/internal/pitch"
)

// ErrRunning is returned by Start while a session is active.
var ErrRunning = errors.New("tuner: already running")

// Sink is the presentation side of a session.
type Sink interface {
	dispatch.Sink

	// Idle resets the display after the session with the given epoch has
	// stopped. Updates from that epoch arriving later must be ignored.
	Idle(epoch uint64)
}

// Options configures a Session.
type Options struct {
	Resolve   note.ResolveFunc // note.Resolve if nil
	Workers   int
	QueueSize int
	Logger    *slog.Logger
}

// Session runs the capture loop. Each Start opens a new epoch with a fresh
// worker pool.
type Session struct {
	source    audio.Source
	estimator pitch.Estimator
	sink      Sink
	opts      Options
	logger    *slog.Logger

	mu         sync.Mutex
	running    bool
	epoch      uint64
	dispatcher *dispatch.Dispatcher
	cancel     context.CancelFunc
	done       chan struct{}
	last       dispatch.Stats
}

// New creates a stopped session.
func New(source audio.Source, estimator pitch.Estimator, sink Sink, opts Options) *Session {
	if opts.Resolve == nil {
		opts.Resolve = note.Resolve
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		source:    source,
		estimator: estimator,
		sink:      sink,
		opts:      opts,
		logger:    logger,
	}
}

// Start opens the source, starts the worker pool and begins capturing.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrRunning
	}

	if err := s.source.Start(); err != nil {
		return fmt.Errorf("tuner: start source: %w", err)
	}

	s.epoch++
	d := dispatch.New(s.opts.Resolve, s.sink, dispatch.Options{
		Workers:   s.opts.Workers,
		QueueSize: s.opts.QueueSize,
		Epoch:     s.epoch,
		Logger:    s.logger,
	})

	ctx, cancel := context.WithCancel(ctx)
	d.Start(ctx)

	s.dispatcher = d
	s.cancel = cancel
	s.done = make(chan struct{})
	s.running = true

	go s.capture(ctx, d, s.done)

	s.logger.Info("tuner: started", "epoch", s.epoch)
	return nil
}

// capture reads frames until the source stops or ctx is done
func (s *Session) capture(ctx context.Context, d *dispatch.Dispatcher, done chan<- struct{}) {
	defer close(done)

	for {
		frame, err := s.source.ReadFrame(ctx)
		if err != nil {
			if errors.Is(err, audio.ErrNotCapturing) || ctx.Err() != nil {
				return
			}
			s.logger.Warn("tuner: read frame failed", "error", err)
			select {
			case <-time.After(10 * time.Millisecond):
				continue
			case <-ctx.Done():
				return
			}
		}

		est, err := s.estimator.Estimate(frame)
		if err != nil {
			// Any error in pitch detection should clear the display
			s.logger.Debug("tuner: estimate failed", "frame", frame.Index, "error", err)
			est = pitch.Absent
		}

		if err := d.Submit(est); err != nil {
			return
		}
	}
}

// Stop halts capture, then the worker pool, then resets the display.
// Stopping a stopped session is a no-op.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	err := s.source.Stop()
	s.cancel()
	<-s.done

	s.dispatcher.Stop()
	s.last = s.dispatcher.Stats()
	s.dispatcher = nil

	s.sink.Idle(s.epoch)

	s.logger.Info("tuner: stopped", "epoch", s.epoch,
		"submitted", s.last.Submitted, "completed", s.last.Completed,
		"dropped", s.last.Dropped, "failed", s.last.Failed)

	if err != nil {
		return fmt.Errorf("tuner: stop source: %w", err)
	}
	return nil
}

// Toggle starts a stopped session or stops a running one and reports
// whether it is now running.
func (s *Session) Toggle(ctx context.Context) (bool, error) {
	if s.Running() {
		return false, s.Stop()
	}
	if err := s.Start(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Running reports whether the session is capturing.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Epoch returns the generation of the current or most recent session.
func (s *Session) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Stats returns the dispatcher counters of the running session, or of the
// last one once stopped.
func (s *Session) Stats() dispatch.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dispatcher != nil {
		return s.dispatcher.Stats()
	}
	return s.last
}
