// FILE: strategic-logger/internal/format/format.go
package format

import (
	"fmt"

	"github.com/Hypn-Tech/strategic-logger/core"

	"github.com/lixenwraith/log"
)

// Formatter transforms a LogEntry into a display byte slice.
type Formatter interface {
	// Format renders one entry, newline-terminated.
	Format(entry core.LogEntry) ([]byte, error)

	// Name returns the formatter type name
	Name() string
}

// New creates a Formatter by name. Defaults to text.
func New(name string, options map[string]any, logger *log.Logger) (Formatter, error) {
	if name == "" {
		name = "text"
	}

	switch name {
	case "text":
		return NewTextFormatter(options, logger)
	case "json":
		return NewJSONFormatter(options, logger)
	default:
		return nil, fmt.Errorf("unknown formatter type: %s", name)
	}
}
