// FILE: strategic-logger/core/level.go
package core

import (
	"fmt"
	"strings"
)

// Level is the severity of a log entry. Levels are ordered; an entry is
// dispatched to a strategy only when its level is at or above the strategy's
// minimum level. LevelDisabled sorts above every real level and is only
// meaningful as a threshold.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelFatal
	LevelDisabled
)

// Returns the canonical upper-case name of the level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	case LevelDisabled:
		return "DISABLED"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// ParseLevel converts a level name to a Level. Matching is case-insensitive
// and accepts common aliases ("warning", "none").
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	case "none", "disabled", "off":
		return LevelDisabled, nil
	default:
		return LevelDisabled, fmt.Errorf("unknown log level: %q", s)
	}
}
