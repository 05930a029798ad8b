// FILE: strategic-logger/logger/logger.go
// Package logger assembles the dispatch pipeline: a bounded queue fed by
// the emission API, a single-consumer dispatch engine fanning entries out
// to registered strategies, a worker pool for formatting offload, and
// batch delivery for network strategies. Nothing downstream of the queue
// can make a log call fail or block; the only caller-visible error is
// use after dispose.
package logger

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Hypn-Tech/strategic-logger/core"
	"github.com/Hypn-Tech/strategic-logger/internal/config"
	"github.com/Hypn-Tech/strategic-logger/internal/delivery"
	"github.com/Hypn-Tech/strategic-logger/internal/dispatch"
	"github.com/Hypn-Tech/strategic-logger/internal/pool"
	"github.com/Hypn-Tech/strategic-logger/internal/queue"
	"github.com/Hypn-Tech/strategic-logger/strategy"

	"github.com/lixenwraith/log"
)

// ErrDisposed is returned by emission calls after Dispose.
var ErrDisposed = queue.ErrDisposed

const disposeTimeout = 5 * time.Second

// Logger is an explicitly constructed pipeline instance. Independent
// instances share no state; the process-wide default in default.go is a
// convenience wrapper over one of these.
type Logger struct {
	cfg    *config.Config
	diag   *log.Logger
	queue  *queue.Queue
	engine *dispatch.Engine
	pool   *pool.Pool

	cancel   context.CancelFunc
	disposed atomic.Bool
}

// Option customizes pipeline construction.
type Option func(*options)

type options struct {
	diag       *log.Logger
	strategies []strategy.Strategy
}

// WithDiagnostics sets the internal diagnostics logger. The default is
// an uninitialized (silent) logger.
func WithDiagnostics(diag *log.Logger) Option {
	return func(o *options) { o.diag = diag }
}

// WithStrategy registers a programmatically constructed strategy in
// addition to the configured ones.
func WithStrategy(s strategy.Strategy) Option {
	return func(o *options) { o.strategies = append(o.strategies, s) }
}

// New builds and starts a pipeline from the configuration.
func New(cfg *config.Config, opts ...Option) (*Logger, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	diag := o.diag
	if diag == nil {
		diag = log.NewLogger()
	}

	l := &Logger{cfg: cfg, diag: diag}

	// The worker pool exists even when offload is disabled: its
	// in-process Run path serves delivery encoding and render fallback.
	poolSize := cfg.Pool.Size
	workerPool, err := pool.New(poolSize, cfg.Pool.TaskTimeout(), diag)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	l.pool = workerPool
	if !cfg.Pool.Enabled {
		// Capability flag off: release the workers so every Execute
		// call routes through the identical in-process path.
		workerPool.Dispose()
	}

	l.queue = queue.New(cfg.Queue.Capacity, diag)
	l.engine = dispatch.New(l.queue, diag, cfg.Monitor.Enabled)

	for i, strategyCfg := range cfg.Strategies {
		s, err := l.createStrategy(&strategyCfg)
		if err != nil {
			for _, created := range l.engine.Strategies() {
				_ = created.Dispose()
			}
			l.pool.Dispose()
			l.queue.Dispose()
			return nil, fmt.Errorf("logger: failed to create strategy[%d]: %w", i, err)
		}
		l.engine.Register(s)
	}
	for _, s := range o.strategies {
		l.engine.Register(s)
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.engine.Start(ctx)

	diag.Info("msg", "Logger pipeline started",
		"component", "logger",
		"queue_capacity", cfg.Queue.Capacity,
		"pool_enabled", cfg.Pool.Enabled,
		"strategies", len(cfg.Strategies)+len(o.strategies))
	return l, nil
}

// createStrategy is a factory for strategy instances from configuration.
func (l *Logger) createStrategy(cfg *config.StrategyConfig) (strategy.Strategy, error) {
	minLevel, err := core.ParseLevel(cfg.MinLevel)
	if err != nil {
		return nil, err
	}

	switch cfg.Type {
	case "console":
		return strategy.NewConsole(strategy.ConsoleConfig{
			Name:          cfg.Name,
			MinLevel:      minLevel,
			Events:        cfg.Events,
			Format:        cfg.Console.Format,
			FormatOptions: cfg.Console.FormatOptions,
			Split:         cfg.Console.Split,
		}, l.pool, l.diag)

	case "http":
		return strategy.NewHTTP(strategy.HTTPConfig{
			Name:     cfg.Name,
			MinLevel: minLevel,
			Events:   cfg.Events,
			Delivery: delivery.Config{
				URL:           cfg.HTTP.URL,
				BatchSize:     cfg.HTTP.BatchSize,
				FlushInterval: time.Duration(cfg.HTTP.FlushIntervalMS) * time.Millisecond,
				MaxRetries:    cfg.HTTP.MaxRetries,
				RetryDelay:    time.Duration(cfg.HTTP.RetryDelayMS) * time.Millisecond,
				Timeout:       time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
				Compress:      cfg.HTTP.Compress,
				Headers:       cfg.HTTP.Headers,
			},
		}, l.pool, l.diag)

	default:
		return nil, fmt.Errorf("unknown strategy type: %s", cfg.Type)
	}
}

// EntryOption attaches optional data to an emitted entry.
type EntryOption func(*core.LogEntry)

// WithContext attaches a caller-supplied context map.
func WithContext(ctx map[string]any) EntryOption {
	return func(e *core.LogEntry) { e.Context = ctx }
}

// WithEvent attaches a named event with parameters. On key collision the
// event parameters win over the context map in the merged view.
func WithEvent(name string, parameters map[string]any) EntryOption {
	return func(e *core.LogEntry) {
		e.Event = &core.Event{Name: name, Parameters: parameters}
	}
}

// Log emits one entry. It never blocks on downstream work: the entry is
// stamped, queued, and the call returns. Under sustained overload the
// oldest queued entries are dropped; after Dispose the call fails with
// ErrDisposed.
func (l *Logger) Log(level core.Level, message any, opts ...EntryOption) error {
	if level >= core.LevelDisabled {
		return nil
	}
	if l.disposed.Load() {
		return ErrDisposed
	}

	entry := core.NewEntry(level, message)
	for _, opt := range opts {
		opt(&entry)
	}
	return l.queue.Enqueue(entry)
}

// Debug emits a debug entry.
func (l *Logger) Debug(message any, opts ...EntryOption) error {
	return l.Log(core.LevelDebug, message, opts...)
}

// Info emits an info entry.
func (l *Logger) Info(message any, opts ...EntryOption) error {
	return l.Log(core.LevelInfo, message, opts...)
}

// Warning emits a warning entry.
func (l *Logger) Warning(message any, opts ...EntryOption) error {
	return l.Log(core.LevelWarning, message, opts...)
}

// Error emits an error entry with a captured stack trace.
func (l *Logger) Error(message any, opts ...EntryOption) error {
	return l.Log(core.LevelError, message, opts...)
}

// Fatal emits a fatal entry with a captured stack trace. The process is
// not terminated; that decision belongs to the caller.
func (l *Logger) Fatal(message any, opts ...EntryOption) error {
	return l.Log(core.LevelFatal, message, opts...)
}

// Flush drains every queued entry through the dispatch engine and then
// forces pending network batches out, so "make sure everything is sent"
// has one call.
func (l *Logger) Flush(ctx context.Context) error {
	if err := l.queue.Flush(ctx); err != nil {
		return err
	}
	for _, s := range l.engine.Strategies() {
		if f, ok := s.(strategy.Flusher); ok {
			f.Flush()
		}
	}
	return nil
}

// Subscribe registers a passive observer of dispatched entries, e.g. a
// live console. Slow observers drop entries; they never block dispatch.
func (l *Logger) Subscribe(buffer int) (<-chan core.LogEntry, func()) {
	return l.engine.Subscribe(buffer)
}

// Snapshot returns dispatch latency stats, or nil when monitoring is
// disabled.
func (l *Logger) Snapshot() map[string]dispatch.OperationStats {
	return l.engine.Snapshot()
}

// GetStats returns a statistics snapshot of the whole pipeline.
func (l *Logger) GetStats() map[string]any {
	strategyStats := make([]map[string]any, 0)
	for _, s := range l.engine.Strategies() {
		stats := s.GetStats()
		strategyStats = append(strategyStats, map[string]any{
			"name":          s.Name(),
			"type":          stats.Type,
			"total_handled": stats.TotalHandled,
			"total_failed":  stats.TotalFailed,
			"last_handled":  stats.LastHandled,
			"details":       stats.Details,
		})
	}

	return map[string]any{
		"queue":      l.queue.GetStats(),
		"pool":       l.pool.GetStats(),
		"engine":     l.engine.GetStats(),
		"strategies": strategyStats,
	}
}

// Dispose drains the pipeline and releases every resource: the queue
// stops accepting entries, remaining entries are dispatched, strategies
// are flushed and disposed, and the worker pool is released. Emission
// calls after Dispose fail with ErrDisposed. Idempotent.
func (l *Logger) Dispose() {
	if !l.disposed.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), disposeTimeout)
	defer cancel()

	// Drain what is queued, then fail-fast any new producers.
	if err := l.queue.Flush(ctx); err != nil {
		l.diag.Warn("msg", "Queue drain incomplete during dispose",
			"component", "logger",
			"error", err)
	}
	l.queue.Dispose()

	l.engine.Stop()
	l.cancel()

	for _, s := range l.engine.Strategies() {
		if f, ok := s.(strategy.Flusher); ok {
			f.Flush()
		}
		if err := s.Dispose(); err != nil {
			l.diag.Warn("msg", "Strategy dispose failed",
				"component", "logger",
				"strategy", s.Name(),
				"error", err)
		}
	}

	l.pool.Dispose()
	l.diag.Info("msg", "Logger pipeline disposed", "component", "logger")
}
