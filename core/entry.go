// FILE: strategic-logger/core/entry.go
package core

import (
	"runtime"
	"time"
)

// Event identifies a named application event attached to a log entry,
// with free-form parameters supplied by the caller.
type Event struct {
	Name       string
	Parameters map[string]any
}

// LogEntry represents a single log record flowing through the pipeline.
// The timestamp is assigned when the entry is created and never mutated.
type LogEntry struct {
	Time       time.Time
	Level      Level
	Message    any
	Event      *Event
	Context    map[string]any
	StackTrace []byte
}

// NewEntry creates a log entry stamped with the current time. A stack trace
// is captured for error and fatal entries.
func NewEntry(level Level, message any) LogEntry {
	e := LogEntry{
		Time:    time.Now(),
		Level:   level,
		Message: message,
	}
	if level >= LevelError {
		e.StackTrace = captureStack()
	}
	return e
}

// EventName returns the attached event's name, or "" when none is set.
func (e *LogEntry) EventName() string {
	if e.Event == nil {
		return ""
	}
	return e.Event.Name
}

// MergedContext combines the caller-supplied context with the event's
// parameters into a fresh map. Event parameters win on key collision:
// the event is the more specific description of what happened, so its
// values override ambient context. Returns nil when neither is set.
func (e *LogEntry) MergedContext() map[string]any {
	if e.Context == nil && (e.Event == nil || e.Event.Parameters == nil) {
		return nil
	}

	merged := make(map[string]any, len(e.Context))
	for k, v := range e.Context {
		merged[k] = v
	}
	if e.Event != nil {
		for k, v := range e.Event.Parameters {
			merged[k] = v
		}
	}
	return merged
}

func captureStack() []byte {
	buf := make([]byte, 8192)
	for {
		n := runtime.Stack(buf, false)
		if n < len(buf) {
			return buf[:n]
		}
		buf = make([]byte, len(buf)*2)
	}
}
