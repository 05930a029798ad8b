// FILE: strategic-logger/internal/format/json_test.go
package format

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/Hypn-Tech/strategic-logger/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFormatter_Format(t *testing.T) {
	logger := newTestLogger()
	testTime := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	entry := core.LogEntry{
		Time:    testTime,
		Level:   core.LevelInfo,
		Message: "this is a test",
	}

	t.Run("BasicFormatting", func(t *testing.T) {
		formatter, err := NewJSONFormatter(nil, logger)
		require.NoError(t, err)

		output, err := formatter.Format(entry)
		require.NoError(t, err)

		var result map[string]any
		err = json.Unmarshal(output, &result)
		require.NoError(t, err, "Output should be valid JSON")

		assert.Equal(t, testTime.Format(time.RFC3339Nano), result["timestamp"])
		assert.Equal(t, "INFO", result["level"])
		assert.Equal(t, "this is a test", result["message"])
		assert.True(t, strings.HasSuffix(string(output), "\n"), "Output should end with a newline")
	})

	t.Run("PrettyFormatting", func(t *testing.T) {
		formatter, err := NewJSONFormatter(map[string]any{"pretty": true}, logger)
		require.NoError(t, err)

		output, err := formatter.Format(entry)
		require.NoError(t, err)
		assert.Contains(t, string(output), `  "level": "INFO"`)
	})

	t.Run("CustomFieldNames", func(t *testing.T) {
		formatter, err := NewJSONFormatter(map[string]any{"timestamp_field": "@timestamp"}, logger)
		require.NoError(t, err)

		output, err := formatter.Format(entry)
		require.NoError(t, err)

		var result map[string]any
		require.NoError(t, json.Unmarshal(output, &result))

		_, defaultExists := result["timestamp"]
		assert.False(t, defaultExists)
		assert.Equal(t, testTime.Format(time.RFC3339Nano), result["@timestamp"])
	})

	t.Run("ContextCannotShadowStandardFields", func(t *testing.T) {
		formatter, err := NewJSONFormatter(nil, logger)
		require.NoError(t, err)

		shadowed := entry
		shadowed.Context = map[string]any{"level": "DEBUG", "request_id": "abc-123"}

		output, err := formatter.Format(shadowed)
		require.NoError(t, err)

		var result map[string]any
		require.NoError(t, json.Unmarshal(output, &result))
		assert.Equal(t, "INFO", result["level"], "entry level must win over context key")
		assert.Equal(t, "abc-123", result["request_id"])
	})

	t.Run("EventAndStackTrace", func(t *testing.T) {
		formatter, err := NewJSONFormatter(nil, logger)
		require.NoError(t, err)

		failed := core.NewEntry(core.LevelError, "boom")
		failed.Event = &core.Event{Name: "payment_failed", Parameters: map[string]any{"code": 502}}

		output, err := formatter.Format(failed)
		require.NoError(t, err)

		var result map[string]any
		require.NoError(t, json.Unmarshal(output, &result))
		assert.Equal(t, "payment_failed", result["event"])
		assert.Equal(t, float64(502), result["code"])
		assert.Contains(t, result["stack_trace"], "goroutine")
	})
}

func TestBuildRecord(t *testing.T) {
	t.Run("FlatShape", func(t *testing.T) {
		entry := core.LogEntry{
			Time:    time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
			Level:   core.LevelWarning,
			Message: "slow query",
			Context: map[string]any{"duration_ms": 1200},
			Event:   &core.Event{Name: "db_query", Parameters: map[string]any{"table": "users"}},
		}

		record := BuildRecord(entry)
		assert.Equal(t, "WARN", record["level"])
		assert.Equal(t, "slow query", record["message"])
		assert.Equal(t, "db_query", record["event"])

		ctx := record["context"].(map[string]any)
		assert.Equal(t, 1200, ctx["duration_ms"])
		assert.Equal(t, "users", ctx["table"])
	})

	t.Run("UnserializableMessageStringified", func(t *testing.T) {
		entry := core.NewEntry(core.LevelInfo, make(chan int))
		record := BuildRecord(entry)

		_, isString := record["message"].(string)
		assert.True(t, isString, "non-JSON-encodable message must be stringified")
	})

	t.Run("ErrorMessage", func(t *testing.T) {
		entry := core.NewEntry(core.LevelError, assert.AnError)
		record := BuildRecord(entry)
		assert.Equal(t, assert.AnError.Error(), record["message"])
	})
}
