// FILE: strategic-logger/internal/format/record.go
package format

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Hypn-Tech/strategic-logger/core"
)

// BuildRecord maps an entry to the flat record shape shipped in network
// batches. Backend-specific field renaming is out of scope; this is the
// generic wire shape.
func BuildRecord(entry core.LogEntry) map[string]any {
	record := map[string]any{
		"timestamp": entry.Time.Format(time.RFC3339Nano),
		"level":     entry.Level.String(),
		"message":   serializableMessage(entry.Message),
	}
	if name := entry.EventName(); name != "" {
		record["event"] = name
	}
	if ctx := entry.MergedContext(); len(ctx) > 0 {
		record["context"] = ctx
	}
	if len(entry.StackTrace) > 0 {
		record["stack_trace"] = string(entry.StackTrace)
	}
	return record
}

// serializableMessage keeps JSON-encodable payloads as-is and stringifies
// everything else, so one odd message value cannot fail a whole batch.
func serializableMessage(message any) any {
	switch message.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return message
	case error:
		return message.(error).Error()
	}
	if _, err := json.Marshal(message); err != nil {
		return fmt.Sprintf("%v", message)
	}
	return message
}
