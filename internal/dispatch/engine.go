// FILE: strategic-logger/internal/dispatch/engine.go
// Dispatch engine: the single consumer of the bounded queue. Each
// dequeued entry fans out to every registered strategy with per-strategy
// fault isolation; the loop does not move to the next entry until the
// current fan-out completes, so effects are ordered at the entry level.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Hypn-Tech/strategic-logger/core"
	"github.com/Hypn-Tech/strategic-logger/internal/queue"
	"github.com/Hypn-Tech/strategic-logger/strategy"

	"github.com/lixenwraith/log"
)

// Engine consumes the queue and fans entries out to strategies.
type Engine struct {
	queue     *queue.Queue
	logger    *log.Logger
	monitor   *Monitor
	broadcast *Broadcaster

	mu         sync.RWMutex
	strategies []strategy.Strategy

	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Statistics
	totalDispatched atomic.Uint64
	totalFaults     atomic.Uint64
}

// New creates an engine over the given queue. Monitoring is optional;
// when disabled, Snapshot returns nil.
func New(q *queue.Queue, logger *log.Logger, enableMonitor bool) *Engine {
	e := &Engine{
		queue:     q,
		logger:    logger,
		broadcast: NewBroadcaster(),
	}
	if enableMonitor {
		e.monitor = NewMonitor()
	}
	return e
}

// Register appends a strategy to the fan-out registry. Dispatch order
// follows registration order.
func (e *Engine) Register(s strategy.Strategy) {
	e.mu.Lock()
	e.strategies = append(e.strategies, s)
	e.mu.Unlock()

	e.logger.Debug("msg", "Strategy registered",
		"component", "dispatch",
		"strategy", s.Name())
}

// Unregister removes a strategy by name and returns it, or nil when not
// found. The caller owns disposing it.
func (e *Engine) Unregister(name string) strategy.Strategy {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, s := range e.strategies {
		if s.Name() == name {
			e.strategies = append(e.strategies[:i], e.strategies[i+1:]...)
			return s
		}
	}
	return nil
}

// Strategies returns the registered strategies in dispatch order.
func (e *Engine) Strategies() []strategy.Strategy {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]strategy.Strategy(nil), e.strategies...)
}

// Start launches the consumer loop.
func (e *Engine) Start(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	e.wg.Add(1)
	go e.consumeLoop(loopCtx)
}

// Stop halts the consumer loop and waits for the in-flight entry to
// finish dispatching. Queued entries are not drained; call the queue's
// Flush first for a graceful shutdown.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
	e.broadcast.Close()
}

// Subscribe registers a passive observer of dispatched entries.
func (e *Engine) Subscribe(buffer int) (<-chan core.LogEntry, func()) {
	return e.broadcast.Subscribe(buffer)
}

// Snapshot returns the monitor's per-operation latency stats, or nil
// when monitoring is disabled.
func (e *Engine) Snapshot() map[string]OperationStats {
	if e.monitor == nil {
		return nil
	}
	return e.monitor.Snapshot()
}

// GetStats returns engine statistics.
func (e *Engine) GetStats() map[string]any {
	e.mu.RLock()
	strategyCount := len(e.strategies)
	e.mu.RUnlock()

	return map[string]any{
		"strategy_count":   strategyCount,
		"observer_count":   e.broadcast.ObserverCount(),
		"total_dispatched": e.totalDispatched.Load(),
		"total_faults":     e.totalFaults.Load(),
	}
}

func (e *Engine) consumeLoop(ctx context.Context) {
	defer e.wg.Done()

	for {
		entry, ok := e.queue.Dequeue(ctx)
		if !ok {
			return
		}
		e.dispatch(ctx, entry)
		e.queue.Done()
	}
}

// dispatch fans one entry out to every accepting strategy. Strategies
// run concurrently with each other but the pass completes before the
// next entry is consumed.
func (e *Engine) dispatch(ctx context.Context, entry core.LogEntry) {
	e.totalDispatched.Add(1)

	e.mu.RLock()
	strategies := append([]strategy.Strategy(nil), e.strategies...)
	e.mu.RUnlock()

	var passStart time.Time
	if e.monitor != nil {
		passStart = time.Now()
	}

	var passFailed atomic.Bool
	var wg sync.WaitGroup
	for _, s := range strategies {
		if !e.shouldHandle(s, entry) {
			continue
		}

		wg.Add(1)
		go func(s strategy.Strategy) {
			defer wg.Done()

			var invokeStart time.Time
			if e.monitor != nil {
				invokeStart = time.Now()
			}

			err := e.invoke(ctx, s, entry)
			if err != nil {
				passFailed.Store(true)
				e.totalFaults.Add(1)
				e.logger.Error("msg", "Strategy failed to handle entry",
					"component", "dispatch",
					"strategy", s.Name(),
					"level", entry.Level.String(),
					"error", err)
			}

			if e.monitor != nil {
				e.monitor.Record("dispatch."+s.Name(), time.Since(invokeStart), err != nil)
			}
		}(s)
	}
	wg.Wait()

	e.broadcast.Publish(entry)

	if e.monitor != nil {
		e.monitor.Record("dispatch", time.Since(passStart), passFailed.Load())
	}
}

// shouldHandle gates on the strategy's threshold and allow-list. A
// panicking ShouldHandle counts as a skip, not a fault of the pipeline.
func (e *Engine) shouldHandle(s strategy.Strategy, entry core.LogEntry) (accepted bool) {
	defer func() {
		if r := recover(); r != nil {
			accepted = false
			e.logger.Error("msg", "Strategy panicked in ShouldHandle",
				"component", "dispatch",
				"strategy", s.Name(),
				"panic", r)
		}
	}()
	return s.ShouldHandle(entry.Level, entry.EventName())
}

// invoke routes the entry to the strategy's handler. The level mapping
// is fixed: debug → HandleLog, info and warning → HandleInfo, error →
// HandleError, fatal → HandleFatal. Panics become errors so one faulty
// strategy can never starve its siblings or stop the consumer loop.
func (e *Engine) invoke(ctx context.Context, s strategy.Strategy, entry core.LogEntry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("strategy panicked: %v", r)
		}
	}()

	lh, ok := s.(strategy.LevelHandler)
	if !ok {
		return s.Handle(ctx, entry)
	}

	switch entry.Level {
	case core.LevelDebug:
		return lh.HandleLog(ctx, entry)
	case core.LevelInfo, core.LevelWarning:
		return lh.HandleInfo(ctx, entry)
	case core.LevelError:
		return lh.HandleError(ctx, entry)
	case core.LevelFatal:
		return lh.HandleFatal(ctx, entry)
	default:
		return s.Handle(ctx, entry)
	}
}
