// FILE: strategic-logger/strategy/console.go
package strategy

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/Hypn-Tech/strategic-logger/core"
	"github.com/Hypn-Tech/strategic-logger/internal/format"
	"github.com/Hypn-Tech/strategic-logger/internal/pool"

	"github.com/lixenwraith/log"
)

// ConsoleConfig configures a console strategy.
type ConsoleConfig struct {
	// Name identifies the strategy; defaults to "console".
	Name string

	// MinLevel and Events feed the acceptance gate.
	MinLevel core.Level
	Events   []string

	// Format selects the formatter ("text" or "json"); FormatOptions are
	// formatter-specific.
	Format        string
	FormatOptions map[string]any

	// Split routes error and fatal entries to stderr instead of stdout.
	Split bool
}

// Console renders entries and writes them to stdout/stderr. Rendering is
// offloaded to the worker pool with a transparent in-process fallback.
type Console struct {
	name      string
	options   Options
	formatter format.Formatter
	pool      *pool.Pool
	taskKind  string
	split     bool
	stdout    io.Writer
	stderr    io.Writer
	logger    *log.Logger

	disposed atomic.Bool

	// Statistics
	totalHandled atomic.Uint64
	totalFailed  atomic.Uint64
	lastHandled  atomic.Value // time.Time
}

// NewConsole creates a console strategy and registers its rendering task
// with the worker pool.
func NewConsole(cfg ConsoleConfig, workerPool *pool.Pool, logger *log.Logger) (*Console, error) {
	if cfg.Name == "" {
		cfg.Name = "console"
	}

	formatter, err := format.New(cfg.Format, cfg.FormatOptions, logger)
	if err != nil {
		return nil, fmt.Errorf("console strategy: %w", err)
	}

	c := &Console{
		name:      cfg.Name,
		options:   Options{MinLevel: cfg.MinLevel, Events: cfg.Events},
		formatter: formatter,
		pool:      workerPool,
		split:     cfg.Split,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		logger:    logger,
	}
	c.lastHandled.Store(time.Time{})

	if workerPool != nil {
		// Task kind is namespaced per instance so two console strategies
		// with different formatters do not clobber each other.
		c.taskKind = pool.KindFormatEntry + ":" + cfg.Name
		if err := workerPool.Register(c.taskKind, func(payload any) (any, error) {
			entry, ok := payload.(core.LogEntry)
			if !ok {
				return nil, fmt.Errorf("format task expects LogEntry, got %T", payload)
			}
			return formatter.Format(entry)
		}); err != nil {
			return nil, fmt.Errorf("console strategy: %w", err)
		}
	}

	return c, nil
}

// Name identifies the strategy.
func (c *Console) Name() string { return c.name }

// ShouldHandle applies the threshold and allow-list gate.
func (c *Console) ShouldHandle(level core.Level, eventName string) bool {
	return c.options.Accepts(level, eventName)
}

// Handle renders the entry and writes it to the configured target.
func (c *Console) Handle(_ context.Context, entry core.LogEntry) error {
	if c.disposed.Load() {
		return nil
	}

	line, err := c.render(entry)
	if err != nil {
		c.totalFailed.Add(1)
		return fmt.Errorf("console strategy: render failed: %w", err)
	}

	target := c.stdout
	if c.split && entry.Level >= core.LevelError {
		target = c.stderr
	}
	if _, err := target.Write(line); err != nil {
		c.totalFailed.Add(1)
		return fmt.Errorf("console strategy: write failed: %w", err)
	}

	c.totalHandled.Add(1)
	c.lastHandled.Store(time.Now())
	return nil
}

// Dispose marks the strategy inactive. Nothing owned to release; the
// process streams stay open. Idempotent.
func (c *Console) Dispose() error {
	c.disposed.Store(true)
	return nil
}

// GetStats returns strategy statistics.
func (c *Console) GetStats() Stats {
	lastHandled, _ := c.lastHandled.Load().(time.Time)
	return Stats{
		Type:         "console",
		TotalHandled: c.totalHandled.Load(),
		TotalFailed:  c.totalFailed.Load(),
		LastHandled:  lastHandled,
		Details: map[string]any{
			"format": c.formatter.Name(),
			"split":  c.split,
		},
	}
}

// render prefers the worker pool; any pool failure falls back to the
// identical in-process path.
func (c *Console) render(entry core.LogEntry) ([]byte, error) {
	if c.pool == nil {
		return c.formatter.Format(entry)
	}

	result, err := c.pool.Execute(context.Background(), c.taskKind, entry)
	if err != nil {
		// Pool and registry both unavailable; render directly
		return c.formatter.Format(entry)
	}
	line, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected render result %T", result)
	}
	return line, nil
}
