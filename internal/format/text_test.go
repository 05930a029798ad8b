// FILE: strategic-logger/internal/format/text_test.go
package format

import (
	"strings"
	"testing"
	"time"

	"github.com/Hypn-Tech/strategic-logger/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntry() core.LogEntry {
	return core.LogEntry{
		Time:    time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC),
		Level:   core.LevelInfo,
		Message: "this is a test",
	}
}

func TestTextFormatter_Format(t *testing.T) {
	logger := newTestLogger()

	t.Run("DefaultTemplate", func(t *testing.T) {
		formatter, err := NewTextFormatter(nil, logger)
		require.NoError(t, err)

		output, err := formatter.Format(testEntry())
		require.NoError(t, err)

		line := string(output)
		assert.Contains(t, line, "[2026-03-15T12:00:00Z]")
		assert.Contains(t, line, "[INFO]")
		assert.Contains(t, line, "this is a test")
		assert.True(t, strings.HasSuffix(line, "\n"))
	})

	t.Run("CustomTemplate", func(t *testing.T) {
		formatter, err := NewTextFormatter(map[string]any{
			"template": "{{ToLower .Level}}: {{.Message}}",
		}, logger)
		require.NoError(t, err)

		output, err := formatter.Format(testEntry())
		require.NoError(t, err)
		assert.Equal(t, "info: this is a test\n", string(output))
	})

	t.Run("CustomTimestampFormat", func(t *testing.T) {
		formatter, err := NewTextFormatter(map[string]any{
			"timestamp_format": "15:04:05",
		}, logger)
		require.NoError(t, err)

		output, err := formatter.Format(testEntry())
		require.NoError(t, err)
		assert.Contains(t, string(output), "[12:00:00]")
	})

	t.Run("InvalidTemplate", func(t *testing.T) {
		_, err := NewTextFormatter(map[string]any{
			"template": "{{.Unclosed",
		}, logger)
		assert.Error(t, err)
	})

	t.Run("ContextRenderedSorted", func(t *testing.T) {
		formatter, err := NewTextFormatter(nil, logger)
		require.NoError(t, err)

		entry := testEntry()
		entry.Context = map[string]any{"zeta": 1, "alpha": "x"}

		output, err := formatter.Format(entry)
		require.NoError(t, err)
		assert.Contains(t, string(output), "alpha=x zeta=1")
	})

	t.Run("EventNameIncluded", func(t *testing.T) {
		formatter, err := NewTextFormatter(nil, logger)
		require.NoError(t, err)

		entry := testEntry()
		entry.Event = &core.Event{Name: "checkout", Parameters: map[string]any{"cart": 2}}

		output, err := formatter.Format(entry)
		require.NoError(t, err)
		assert.Contains(t, string(output), "(checkout)")
		assert.Contains(t, string(output), "cart=2")
	})

	t.Run("NonStringMessage", func(t *testing.T) {
		formatter, err := NewTextFormatter(nil, logger)
		require.NoError(t, err)

		entry := testEntry()
		entry.Message = map[string]int{"answer": 42}

		output, err := formatter.Format(entry)
		require.NoError(t, err)
		assert.Contains(t, string(output), "map[answer:42]")
	})
}
