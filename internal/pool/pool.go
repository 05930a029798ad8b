// FILE: strategic-logger/internal/pool/pool.go
// Worker pool offloading CPU-bound formatting and serialization work from
// the dispatch path. Tasks cross into workers as value payloads and come
// back on a per-task reply channel; workers share no mutable state with
// callers. The pool is an optimization, never a hard dependency: every
// Submit call site falls back to Run, the identical in-process path.
package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/log"
	"github.com/panjf2000/ants/v2"
)

const (
	// DefaultSize is the number of pre-spawned workers.
	DefaultSize = 4

	// DefaultTaskTimeout bounds how long Submit waits for a worker reply.
	// A hung worker must not hang the caller; timing out routes the
	// caller onto its in-process fallback.
	DefaultTaskTimeout = 5 * time.Second
)

var (
	ErrPoolClosed  = errors.New("pool: disposed")
	ErrUnknownTask = errors.New("pool: unknown task kind")
	ErrTaskTimeout = errors.New("pool: task timed out")
)

// TaskFunc executes one unit of work. It must be a pure function of its
// payload: the same function serves both the worker path and the
// in-process fallback, which keeps the two outputs identical.
type TaskFunc func(payload any) (any, error)

type taskResult struct {
	value any
	err   error
}

// Pool wraps an ants goroutine pool with a string-keyed task registry.
type Pool struct {
	workers *ants.Pool
	timeout time.Duration
	logger  *log.Logger

	mu    sync.RWMutex
	tasks map[string]TaskFunc

	disposed atomic.Bool

	// Statistics
	totalSubmitted atomic.Uint64
	totalCompleted atomic.Uint64
	totalFailed    atomic.Uint64
	totalInProcess atomic.Uint64
}

// New creates a pool with size pre-spawned workers and registers the
// built-in task kinds. Non-positive sizes fall back to DefaultSize.
func New(size int, timeout time.Duration, logger *log.Logger) (*Pool, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if timeout <= 0 {
		timeout = DefaultTaskTimeout
	}

	workers, err := ants.NewPool(size, ants.WithPreAlloc(true))
	if err != nil {
		return nil, fmt.Errorf("pool: failed to create worker pool: %w", err)
	}

	p := &Pool{
		workers: workers,
		timeout: timeout,
		logger:  logger,
		tasks:   make(map[string]TaskFunc),
	}
	p.registerBuiltins()

	logger.Debug("msg", "Worker pool created",
		"component", "pool",
		"size", size,
		"task_timeout", timeout)
	return p, nil
}

// Register adds or replaces a task kind. Strategies register their own
// kinds (e.g. entry rendering bound to a formatter) at construction.
func (p *Pool) Register(kind string, fn TaskFunc) error {
	if kind == "" || fn == nil {
		return fmt.Errorf("pool: invalid task registration for kind %q", kind)
	}
	p.mu.Lock()
	p.tasks[kind] = fn
	p.mu.Unlock()
	return nil
}

// Run executes a task kind synchronously in-process. This is the
// mandatory fallback path for every Submit call site.
func (p *Pool) Run(kind string, payload any) (any, error) {
	fn, ok := p.lookup(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTask, kind)
	}
	return runProtected(fn, payload)
}

// Submit hands a task to a worker and waits for its reply. Any failure
// (pool disposed, worker panic, timeout, cancelled context) is returned
// to the caller, which is expected to fall back to Run.
func (p *Pool) Submit(ctx context.Context, kind string, payload any) (any, error) {
	if p.disposed.Load() {
		return nil, ErrPoolClosed
	}
	fn, ok := p.lookup(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTask, kind)
	}

	p.totalSubmitted.Add(1)

	reply := make(chan taskResult, 1)
	err := p.workers.Submit(func() {
		value, err := runProtected(fn, payload)
		reply <- taskResult{value: value, err: err}
	})
	if err != nil {
		p.totalFailed.Add(1)
		if errors.Is(err, ants.ErrPoolClosed) {
			return nil, ErrPoolClosed
		}
		return nil, fmt.Errorf("pool: submit failed: %w", err)
	}

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case res := <-reply:
		if res.err != nil {
			p.totalFailed.Add(1)
			return nil, res.err
		}
		p.totalCompleted.Add(1)
		return res.value, nil
	case <-timer.C:
		p.totalFailed.Add(1)
		p.logger.Warn("msg", "Worker task timed out",
			"component", "pool",
			"task_kind", kind,
			"timeout", p.timeout)
		return nil, fmt.Errorf("%w: %q after %s", ErrTaskTimeout, kind, p.timeout)
	case <-ctx.Done():
		p.totalFailed.Add(1)
		return nil, ctx.Err()
	}
}

// Execute runs a task on the pool with transparent in-process fallback.
// The returned value is identical between the two paths; the fallback is
// self-logged, never surfaced.
func (p *Pool) Execute(ctx context.Context, kind string, payload any) (any, error) {
	value, err := p.Submit(ctx, kind, payload)
	if err == nil {
		return value, nil
	}

	p.totalInProcess.Add(1)
	p.logger.Debug("msg", "Worker pool unavailable, running task in-process",
		"component", "pool",
		"task_kind", kind,
		"error", err)
	return p.Run(kind, payload)
}

// Dispose releases all workers. Later Submits fail with ErrPoolClosed;
// Run remains usable so the pipeline keeps working without offload.
func (p *Pool) Dispose() {
	if !p.disposed.CompareAndSwap(false, true) {
		return
	}
	p.workers.Release()
	p.logger.Debug("msg", "Worker pool disposed",
		"component", "pool",
		"total_submitted", p.totalSubmitted.Load(),
		"total_completed", p.totalCompleted.Load(),
		"total_failed", p.totalFailed.Load(),
		"total_in_process", p.totalInProcess.Load())
}

// GetStats returns pool statistics.
func (p *Pool) GetStats() map[string]any {
	return map[string]any{
		"capacity":         p.workers.Cap(),
		"running":          p.workers.Running(),
		"free":             p.workers.Free(),
		"disposed":         p.disposed.Load(),
		"total_submitted":  p.totalSubmitted.Load(),
		"total_completed":  p.totalCompleted.Load(),
		"total_failed":     p.totalFailed.Load(),
		"total_in_process": p.totalInProcess.Load(),
	}
}

func (p *Pool) lookup(kind string) (TaskFunc, bool) {
	p.mu.RLock()
	fn, ok := p.tasks[kind]
	p.mu.RUnlock()
	return fn, ok
}

// Converts a panicking task into an error so a crashing work item can
// never take down a worker or the caller.
func runProtected(fn TaskFunc, payload any) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = fmt.Errorf("pool: task panicked: %v", r)
		}
	}()
	return fn(payload)
}
