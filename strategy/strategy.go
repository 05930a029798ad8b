// FILE: strategic-logger/strategy/strategy.go
// Package strategy defines the collaborator contract that downstream log
// destinations implement, plus the built-in console and HTTP backend
// strategies. The dispatch engine fans every accepted entry out to each
// registered strategy with per-strategy fault isolation.
package strategy

import (
	"context"
	"slices"
	"time"

	"github.com/Hypn-Tech/strategic-logger/core"
)

// Strategy is one dispatch target. Handle errors and panics are isolated
// by the engine: they are self-logged and never affect sibling strategies
// or the caller that produced the entry.
type Strategy interface {
	// Name identifies the strategy in diagnostics and stats.
	Name() string

	// ShouldHandle reports whether this strategy accepts an entry of the
	// given level and event name. Pure function of configuration; the
	// engine calls it before invoking any handler.
	ShouldHandle(level core.Level, eventName string) bool

	// Handle processes one entry.
	Handle(ctx context.Context, entry core.LogEntry) error

	// Dispose releases owned resources (network clients, timers).
	// Idempotent.
	Dispose() error

	// GetStats returns strategy statistics.
	GetStats() Stats
}

// LevelHandler is the optional finer-grained capability set. Strategies
// implementing it are routed per level with a fixed mapping: debug →
// HandleLog, info and warning → HandleInfo, error → HandleError, fatal →
// HandleFatal. The same level always routes to the same method.
type LevelHandler interface {
	HandleLog(ctx context.Context, entry core.LogEntry) error
	HandleInfo(ctx context.Context, entry core.LogEntry) error
	HandleError(ctx context.Context, entry core.LogEntry) error
	HandleFatal(ctx context.Context, entry core.LogEntry) error
}

// Flusher is implemented by strategies that buffer work downstream of
// the dispatch pass (network batches). The pipeline's Flush calls it
// after the queue has drained.
type Flusher interface {
	Flush()
}

// Stats contains statistics about a strategy.
type Stats struct {
	Type         string
	TotalHandled uint64
	TotalFailed  uint64
	LastHandled  time.Time
	Details      map[string]any
}

// Options is the per-strategy acceptance configuration: a minimum level
// threshold and an optional event-name allow-list.
type Options struct {
	MinLevel core.Level
	Events   []string
}

// Accepts implements the threshold and allow-list gate. When an
// allow-list is configured, entries without an event name are skipped:
// the strategy asked for specific events only.
func (o Options) Accepts(level core.Level, eventName string) bool {
	if level < o.MinLevel {
		return false
	}
	if len(o.Events) > 0 {
		return eventName != "" && slices.Contains(o.Events, eventName)
	}
	return true
}
