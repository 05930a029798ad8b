// FILE: strategic-logger/internal/config/config.go
package config

import (
	"time"
)

// Config is the root configuration for a logging pipeline.
type Config struct {
	// Logging configures the pipeline's own diagnostics output
	Logging LoggingConfig `toml:"logging"`

	// Queue configures the bounded entry queue
	Queue QueueConfig `toml:"queue"`

	// Pool configures the formatting worker pool
	Pool PoolConfig `toml:"pool"`

	// Monitor enables dispatch latency measurement
	Monitor MonitorConfig `toml:"monitor"`

	// Strategies are the dispatch targets, in fan-out order
	Strategies []StrategyConfig `toml:"strategies"`
}

// LoggingConfig controls the internal diagnostics logger.
type LoggingConfig struct {
	// Level: debug, info, warn, error
	Level string `toml:"level"`

	// Output: "none", "stdout", or "stderr"
	Output string `toml:"output"`
}

// QueueConfig controls the bounded queue.
type QueueConfig struct {
	Capacity int `toml:"capacity"`
}

// PoolConfig controls the worker pool. Enabled is the platform
// capability flag: disabling it routes all formatting in-process.
type PoolConfig struct {
	Enabled       bool  `toml:"enabled"`
	Size          int   `toml:"size"`
	TaskTimeoutMS int64 `toml:"task_timeout_ms"`
}

// TaskTimeout returns the task timeout as a duration.
func (p PoolConfig) TaskTimeout() time.Duration {
	return time.Duration(p.TaskTimeoutMS) * time.Millisecond
}

// MonitorConfig controls dispatch latency measurement.
type MonitorConfig struct {
	Enabled bool `toml:"enabled"`
}

// StrategyConfig declares one dispatch target.
type StrategyConfig struct {
	// Type: "console" or "http"
	Type string `toml:"type"`

	// Name overrides the default strategy name
	Name string `toml:"name"`

	// MinLevel is the acceptance threshold: debug, info, warn, error,
	// fatal, or none to disable the strategy
	MinLevel string `toml:"min_level"`

	// Events is an optional event-name allow-list
	Events []string `toml:"events"`

	Console *ConsoleOptions `toml:"console"`
	HTTP    *HTTPOptions    `toml:"http"`
}

// ConsoleOptions configures a console strategy.
type ConsoleOptions struct {
	// Format: "text" or "json"
	Format string `toml:"format"`

	// Split routes error/fatal entries to stderr
	Split bool `toml:"split"`

	// FormatOptions are formatter-specific settings
	FormatOptions map[string]any `toml:"format_options"`
}

// HTTPOptions configures an HTTP backend strategy.
type HTTPOptions struct {
	URL             string            `toml:"url"`
	BatchSize       int               `toml:"batch_size"`
	FlushIntervalMS int64             `toml:"flush_interval_ms"`
	MaxRetries      int               `toml:"max_retries"`
	RetryDelayMS    int64             `toml:"retry_delay_ms"`
	TimeoutSeconds  int64             `toml:"timeout_seconds"`
	Compress        bool              `toml:"compress"`
	Headers         map[string]string `toml:"headers"`
}
