// FILE: strategic-logger/internal/format/json.go
package format

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Hypn-Tech/strategic-logger/core"

	"github.com/lixenwraith/log"
)

// JSONFormatter produces one structured JSON object per entry.
type JSONFormatter struct {
	timestampField string
	levelField     string
	messageField   string
	pretty         bool
	logger         *log.Logger
}

// NewJSONFormatter creates a JSON formatter. Options: "timestamp_field",
// "level_field", "message_field", "pretty".
func NewJSONFormatter(options map[string]any, logger *log.Logger) (*JSONFormatter, error) {
	f := &JSONFormatter{
		timestampField: "timestamp",
		levelField:     "level",
		messageField:   "message",
		logger:         logger,
	}
	if v, ok := options["timestamp_field"].(string); ok && v != "" {
		f.timestampField = v
	}
	if v, ok := options["level_field"].(string); ok && v != "" {
		f.levelField = v
	}
	if v, ok := options["message_field"].(string); ok && v != "" {
		f.messageField = v
	}
	if v, ok := options["pretty"].(bool); ok {
		f.pretty = v
	}

	return f, nil
}

// Format renders the entry as a JSON object. Merged context keys are
// added at the top level but never shadow the standard fields.
func (f *JSONFormatter) Format(entry core.LogEntry) ([]byte, error) {
	output := make(map[string]any)
	output[f.timestampField] = entry.Time.Format(time.RFC3339Nano)
	output[f.levelField] = entry.Level.String()
	output[f.messageField] = stringifyMessage(entry.Message)

	if name := entry.EventName(); name != "" {
		output["event"] = name
	}
	for k, v := range entry.MergedContext() {
		if k == f.timestampField || k == f.levelField || k == f.messageField {
			continue
		}
		output[k] = v
	}
	if len(entry.StackTrace) > 0 {
		output["stack_trace"] = string(entry.StackTrace)
	}

	var result []byte
	var err error
	if f.pretty {
		result, err = json.MarshalIndent(output, "", "  ")
	} else {
		result, err = json.Marshal(output)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return append(result, '\n'), nil
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}
