package dispatch

import (
	"context"
	"sync"
)

type job struct {
	stamp Stamp
	hz    float64
}

// queue is a bounded FIFO that evicts its oldest job when full, so a
// producer never waits on slow consumers.
type queue struct {
	notify chan struct{}

	mu     sync.Mutex
	buf    []job
	head   int
	size   int
	closed bool
}

func newQueue(capacity int) *queue {
	return &queue{
		notify: make(chan struct{}, 1),
		buf:    make([]job, capacity),
	}
}

// push enqueues j and reports whether an older job was evicted to make room.
// It returns false for ok once the queue is closed.
func (q *queue) push(j job) (evicted, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false, false
	}
	if q.size == len(q.buf) {
		q.head = (q.head + 1) % len(q.buf)
		q.size--
		evicted = true
	}
	q.buf[(q.head+q.size)%len(q.buf)] = j
	q.size++
	q.signalLocked()
	return evicted, true
}

// pop blocks until a job is available. It returns false after close or
// when ctx is done.
func (q *queue) pop(ctx context.Context) (job, bool) {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return job{}, false
		}
		if q.size > 0 {
			j := q.buf[q.head]
			q.buf[q.head] = job{}
			q.head = (q.head + 1) % len(q.buf)
			q.size--
			if q.size > 0 {
				q.signalLocked()
			}
			q.mu.Unlock()
			return j, true
		}
		q.mu.Unlock()

		select {
		case <-q.notify:
		case <-ctx.Done():
			return job{}, false
		}
	}
}

func (q *queue) signalLocked() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// close discards pending jobs, wakes every waiting pop and returns the
// number of jobs discarded.
func (q *queue) close() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return 0
	}
	q.closed = true
	discarded := q.size
	q.size = 0
	clear(q.buf)
	close(q.notify)
	return discarded
}

func (q *queue) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}
