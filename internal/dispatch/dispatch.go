// Package dispatch moves note resolution off the capture goroutine onto a
// bounded worker pool and hands the results to a single presentation sink.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/0xlemi/semitune/internal/note"
	"github.com/0xlemi/semitune/internal/pitch"
	"golang.org/x/sync/errgroup"
)

// ErrClosed is returned by Submit once Stop has begun.
var ErrClosed = errors.New("dispatch: closed")

const (
	DefaultWorkers   = 4
	DefaultQueueSize = 64
)

// Stamp orders updates. Epoch identifies the tuning session and Seq the
// frame within it; both only grow.
type Stamp struct {
	Epoch uint64
	Seq   uint64
}

// Before reports whether s was issued before o.
func (s Stamp) Before(o Stamp) bool {
	if s.Epoch != o.Epoch {
		return s.Epoch < o.Epoch
	}
	return s.Seq < o.Seq
}

func (s Stamp) String() string {
	return fmt.Sprintf("%d/%d", s.Epoch, s.Seq)
}

// Sink receives display updates. Implementations must not block and must
// be safe for concurrent use: Result is called from workers, NoSignal from
// the submitting goroutine.
type Sink interface {
	Result(stamp Stamp, r note.Result)
	NoSignal(stamp Stamp)
}

// Options configures a Dispatcher.
type Options struct {
	Workers   int    // Pool size, DefaultWorkers if zero
	QueueSize int    // Pending jobs before the oldest is dropped, DefaultQueueSize if zero
	Epoch     uint64 // Session generation carried in every Stamp
	Logger    *slog.Logger
}

// Stats counts what happened to submitted estimates.
type Stats struct {
	Submitted uint64 // Present estimates accepted by Submit
	Absent    uint64 // Absent estimates forwarded directly
	Completed uint64 // Results delivered to the sink
	Dropped   uint64 // Evicted by overload or discarded by Stop
	Failed    uint64 // Resolution errors and recovered panics
}

// Dispatcher runs resolutions on a fixed worker pool.
type Dispatcher struct {
	resolve note.ResolveFunc
	sink    Sink
	opts    Options
	logger  *slog.Logger
	queue   *queue

	seq       atomic.Uint64
	submitted atomic.Uint64
	absent    atomic.Uint64
	completed atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64

	mu      sync.Mutex
	started bool
	closed  atomic.Bool
	group   *errgroup.Group
	cancel  context.CancelFunc
}

// New creates a dispatcher; call Start to launch its workers.
func New(resolve note.ResolveFunc, sink Sink, opts Options) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		resolve: resolve,
		sink:    sink,
		opts:    opts,
		logger:  logger,
		queue:   newQueue(opts.QueueSize),
	}
}

// Start launches the worker pool. Workers exit when Stop is called or ctx
// is done. Starting twice is a no-op.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started || d.closed.Load() {
		return
	}
	d.started = true

	ctx, d.cancel = context.WithCancel(ctx)
	d.group = &errgroup.Group{}
	for i := 0; i < d.opts.Workers; i++ {
		d.group.Go(func() error {
			for {
				j, ok := d.queue.pop(ctx)
				if !ok {
					return nil
				}
				d.run(j)
			}
		})
	}
	d.logger.Debug("dispatch: started", "workers", d.opts.Workers, "queue", d.opts.QueueSize, "epoch", d.opts.Epoch)
}

// Submit hands one estimate to the pool without blocking. Absent estimates
// skip the pool and reach the sink immediately.
func (d *Dispatcher) Submit(est pitch.Estimate) error {
	if d.closed.Load() {
		return ErrClosed
	}
	stamp := Stamp{Epoch: d.opts.Epoch, Seq: d.seq.Add(1)}

	if !est.Present {
		d.absent.Add(1)
		d.sink.NoSignal(stamp)
		return nil
	}

	evicted, ok := d.queue.push(job{stamp: stamp, hz: est.Hz})
	if !ok {
		return ErrClosed
	}
	d.submitted.Add(1)
	if evicted {
		d.dropped.Add(1)
		d.logger.Debug("dispatch: queue full, dropped oldest frame", "stamp", stamp)
	}
	return nil
}

// run resolves one job. Failures stay inside the task.
func (d *Dispatcher) run(j job) {
	defer func() {
		if r := recover(); r != nil {
			d.failed.Add(1)
			d.logger.Error("dispatch: panic in resolve task", "stamp", j.stamp, "hz", j.hz, "panic", r, "stack", string(debug.Stack()))
		}
	}()

	r, err := d.resolve(j.hz)
	if err != nil {
		d.failed.Add(1)
		d.logger.Warn("dispatch: resolve failed", "stamp", j.stamp, "hz", j.hz, "error", err)
		return
	}
	d.sink.Result(j.stamp, r)
	d.completed.Add(1)
}

// Stop rejects further submissions, discards queued jobs and waits for the
// in-flight ones. It is safe to call more than once.
func (d *Dispatcher) Stop() {
	if d.closed.Swap(true) {
		return
	}

	discarded := d.queue.close()
	d.dropped.Add(uint64(discarded))

	d.mu.Lock()
	group, cancel := d.group, d.cancel
	d.mu.Unlock()

	if group != nil {
		group.Wait()
		cancel()
	}
	d.logger.Debug("dispatch: stopped", "epoch", d.opts.Epoch, "discarded", discarded)
}

// Pending returns the number of queued jobs.
func (d *Dispatcher) Pending() int {
	return d.queue.pending()
}

// Stats returns a snapshot of the counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Submitted: d.submitted.Load(),
		Absent:    d.absent.Load(),
		Completed: d.completed.Load(),
		Dropped:   d.dropped.Load(),
		Failed:    d.failed.Load(),
	}
}
