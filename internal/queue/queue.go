// FILE: strategic-logger/internal/queue/queue.go
// Bounded producer/consumer buffer decoupling log callers from the
// dispatch engine. Overflow drops the oldest pending entry so that the
// retained window is always the most recent ones; callers never block.
package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Hypn-Tech/strategic-logger/core"

	"github.com/lixenwraith/log"
)

// DefaultCapacity is the queue capacity used when none is configured.
const DefaultCapacity = 1000

// ErrDisposed is returned by Enqueue after the queue has been disposed.
// Use after dispose is a caller bug and must fail loudly, unlike overflow
// which degrades silently.
var ErrDisposed = errors.New("queue: use after dispose")

// Queue is a fixed-capacity buffer with drop-oldest overflow. Any number
// of producers may call Enqueue concurrently; exactly one consumer (the
// dispatch engine) calls Dequeue and Done.
type Queue struct {
	mu       sync.Mutex
	buf      []core.LogEntry
	capacity int
	disposed bool

	// Sequence accounting for the flush barrier. enqueued counts entries
	// accepted; accounted counts entries either fully dispatched (Done)
	// or evicted by overflow. Flush waits for accounted to catch up.
	enqueued  uint64
	accounted uint64

	wake     chan struct{}
	progress chan struct{}
	done     chan struct{}

	logger *log.Logger

	// Statistics
	totalEnqueued atomic.Uint64
	totalDropped  atomic.Uint64
	lastEnqueue   atomic.Value // time.Time
}

// New creates a queue with the given capacity. Non-positive capacities
// fall back to DefaultCapacity.
func New(capacity int, logger *log.Logger) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	q := &Queue{
		buf:      make([]core.LogEntry, 0, capacity),
		capacity: capacity,
		wake:     make(chan struct{}, 1),
		progress: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger,
	}
	q.lastEnqueue.Store(time.Time{})
	return q
}

// Enqueue appends an entry without blocking. At capacity the oldest
// pending entry is evicted first; eviction is a documented trade-off,
// not an error. Returns ErrDisposed after Dispose.
func (q *Queue) Enqueue(entry core.LogEntry) error {
	q.mu.Lock()
	if q.disposed {
		q.mu.Unlock()
		return ErrDisposed
	}

	if len(q.buf) >= q.capacity {
		q.buf = q.buf[1:]
		q.accounted++
		q.totalDropped.Add(1)
		q.notifyProgressLocked()
	}
	q.buf = append(q.buf, entry)
	q.enqueued++
	q.mu.Unlock()

	q.totalEnqueued.Add(1)
	q.lastEnqueue.Store(time.Now())

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

// Dequeue removes and returns the oldest pending entry, blocking until
// one is available, the context is cancelled, or the queue is disposed
// with nothing left to drain. The consumer must call Done once the
// entry has been fully dispatched.
func (q *Queue) Dequeue(ctx context.Context) (core.LogEntry, bool) {
	for {
		q.mu.Lock()
		if len(q.buf) > 0 {
			entry := q.buf[0]
			q.buf = q.buf[1:]
			q.mu.Unlock()
			return entry, true
		}
		disposed := q.disposed
		q.mu.Unlock()

		if disposed {
			return core.LogEntry{}, false
		}

		select {
		case <-q.wake:
		case <-q.done:
		case <-ctx.Done():
			return core.LogEntry{}, false
		}
	}
}

// Done records that the most recently dequeued entry has been fully
// dispatched. Called only by the single consumer, in dequeue order.
func (q *Queue) Done() {
	q.mu.Lock()
	q.accounted++
	q.notifyProgressLocked()
	q.mu.Unlock()
}

// Flush blocks until every entry enqueued before the call has either
// been fully dispatched or evicted by overflow. Entries enqueued after
// Flush begins are not waited for.
func (q *Queue) Flush(ctx context.Context) error {
	q.mu.Lock()
	target := q.enqueued
	for q.accounted < target {
		if q.disposed {
			q.mu.Unlock()
			return ErrDisposed
		}
		ch := q.progress
		q.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
		q.mu.Lock()
	}
	q.mu.Unlock()
	return nil
}

// Dispose closes the queue. Pending entries remain drainable by the
// consumer; new Enqueue calls fail with ErrDisposed. Idempotent.
func (q *Queue) Dispose() {
	q.mu.Lock()
	if q.disposed {
		q.mu.Unlock()
		return
	}
	q.disposed = true
	close(q.done)
	q.notifyProgressLocked()
	q.mu.Unlock()

	if q.logger != nil {
		q.logger.Debug("msg", "Queue disposed",
			"component", "queue",
			"total_enqueued", q.totalEnqueued.Load(),
			"total_dropped", q.totalDropped.Load())
	}
}

// Depth returns the number of entries currently pending.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

// GetStats returns queue statistics.
func (q *Queue) GetStats() map[string]any {
	lastEnq, _ := q.lastEnqueue.Load().(time.Time)
	return map[string]any{
		"capacity":       q.capacity,
		"depth":          q.Depth(),
		"total_enqueued": q.totalEnqueued.Load(),
		"total_dropped":  q.totalDropped.Load(),
		"last_enqueue":   lastEnq,
	}
}

// Wakes any Flush waiters. Caller holds q.mu.
func (q *Queue) notifyProgressLocked() {
	close(q.progress)
	q.progress = make(chan struct{})
}
