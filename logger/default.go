// FILE: strategic-logger/logger/default.go
package logger

import (
	"context"
	"sync"

	"github.com/Hypn-Tech/strategic-logger/core"
	"github.com/Hypn-Tech/strategic-logger/internal/config"
)

// The process-wide default instance is a convenience wrapper over an
// explicitly constructed pipeline; it is never the only access path.
// Tests and libraries should construct their own instances with New.
var (
	defaultMu     sync.Mutex
	defaultLogger *Logger
)

// Default returns the process-wide instance, building it from the
// default configuration on first use.
func Default() *Logger {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultLogger == nil {
		l, err := New(config.Default())
		if err != nil {
			// The default config is static and valid; a failure here is
			// a programming error in this package.
			panic("logger: failed to build default instance: " + err.Error())
		}
		defaultLogger = l
	}
	return defaultLogger
}

// SetDefault replaces the process-wide instance. The previous instance,
// if any, is not disposed; the caller owns both lifecycles.
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

// Debug emits a debug entry on the default instance.
func Debug(message any, opts ...EntryOption) error {
	return Default().Debug(message, opts...)
}

// Info emits an info entry on the default instance.
func Info(message any, opts ...EntryOption) error {
	return Default().Info(message, opts...)
}

// Warning emits a warning entry on the default instance.
func Warning(message any, opts ...EntryOption) error {
	return Default().Warning(message, opts...)
}

// Error emits an error entry on the default instance.
func Error(message any, opts ...EntryOption) error {
	return Default().Error(message, opts...)
}

// Fatal emits a fatal entry on the default instance.
func Fatal(message any, opts ...EntryOption) error {
	return Default().Fatal(message, opts...)
}

// Log emits an entry at an explicit level on the default instance.
func Log(level core.Level, message any, opts ...EntryOption) error {
	return Default().Log(level, message, opts...)
}

// Flush drains the default instance.
func Flush(ctx context.Context) error {
	return Default().Flush(ctx)
}
