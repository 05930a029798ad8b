// FILE: strategic-logger/strategy/http.go
package strategy

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Hypn-Tech/strategic-logger/core"
	"github.com/Hypn-Tech/strategic-logger/internal/delivery"
	"github.com/Hypn-Tech/strategic-logger/internal/format"
	"github.com/Hypn-Tech/strategic-logger/internal/pool"

	"github.com/lixenwraith/log"
)

// HTTPConfig configures an HTTP backend strategy.
type HTTPConfig struct {
	// Name identifies the strategy; defaults to "http".
	Name string

	// MinLevel and Events feed the acceptance gate.
	MinLevel core.Level
	Events   []string

	// Delivery configures the batch and retry behaviour.
	Delivery delivery.Config
}

// HTTPBackend ships entries to a remote collector in batches. Each
// instance owns its deliverer exclusively; batches and network clients
// are never shared across strategies.
type HTTPBackend struct {
	name      string
	options   Options
	deliverer *delivery.Deliverer
	logger    *log.Logger

	// Statistics
	totalHandled atomic.Uint64
	lastHandled  atomic.Value // time.Time
}

// NewHTTP creates an HTTP backend strategy with its own deliverer.
func NewHTTP(cfg HTTPConfig, workerPool *pool.Pool, logger *log.Logger) (*HTTPBackend, error) {
	if cfg.Name == "" {
		cfg.Name = "http"
	}

	deliverer, err := delivery.New(cfg.Delivery, workerPool, logger)
	if err != nil {
		return nil, fmt.Errorf("http strategy: %w", err)
	}

	h := &HTTPBackend{
		name:      cfg.Name,
		options:   Options{MinLevel: cfg.MinLevel, Events: cfg.Events},
		deliverer: deliverer,
		logger:    logger,
	}
	h.lastHandled.Store(time.Time{})
	return h, nil
}

// Name identifies the strategy.
func (h *HTTPBackend) Name() string { return h.name }

// ShouldHandle applies the threshold and allow-list gate.
func (h *HTTPBackend) ShouldHandle(level core.Level, eventName string) bool {
	return h.options.Accepts(level, eventName)
}

// Handle maps the entry to a wire record and appends it to the batch.
// The entry itself is not retained; the batch stores the derived record.
func (h *HTTPBackend) Handle(_ context.Context, entry core.LogEntry) error {
	h.deliverer.Append(format.BuildRecord(entry))
	h.totalHandled.Add(1)
	h.lastHandled.Store(time.Now())
	return nil
}

// Flush forces delivery of the pending batch and waits for it.
func (h *HTTPBackend) Flush() {
	h.deliverer.Flush()
}

// Dispose flushes and releases the deliverer. Idempotent.
func (h *HTTPBackend) Dispose() error {
	h.deliverer.Dispose()
	return nil
}

// GetStats returns strategy statistics.
func (h *HTTPBackend) GetStats() Stats {
	lastHandled, _ := h.lastHandled.Load().(time.Time)
	return Stats{
		Type:         "http",
		TotalHandled: h.totalHandled.Load(),
		LastHandled:  lastHandled,
		Details:      h.deliverer.GetStats(),
	}
}
