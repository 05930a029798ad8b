// FILE: strategic-logger/strategy/http_test.go
package strategy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Hypn-Tech/strategic-logger/core"
	"github.com/Hypn-Tech/strategic-logger/internal/delivery"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHTTP(t *testing.T, batchSize int) (*HTTPBackend, func() []map[string]any) {
	t.Helper()

	var mu sync.Mutex
	var received []map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var records []map[string]any
		if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		mu.Lock()
		received = append(received, records...)
		mu.Unlock()
	}))
	t.Cleanup(server.Close)

	h, err := NewHTTP(HTTPConfig{
		Delivery: delivery.Config{
			URL:           server.URL,
			BatchSize:     batchSize,
			FlushInterval: time.Hour,
			RetryDelay:    time.Millisecond,
		},
	}, newTestPool(t), log.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Dispose() })

	return h, func() []map[string]any {
		mu.Lock()
		defer mu.Unlock()
		return append([]map[string]any(nil), received...)
	}
}

func TestHTTPBackend_BatchesRecords(t *testing.T) {
	h, received := newTestHTTP(t, 2)
	ctx := context.Background()

	entry := core.NewEntry(core.LevelWarning, "first")
	entry.Context = map[string]any{"request_id": "r-1"}
	require.NoError(t, h.Handle(ctx, entry))
	assert.Empty(t, received(), "below threshold, nothing ships yet")

	require.NoError(t, h.Handle(ctx, core.NewEntry(core.LevelInfo, "second")))
	h.Flush()

	records := received()
	require.Len(t, records, 2)
	assert.Equal(t, "WARN", records[0]["level"])
	assert.Equal(t, "first", records[0]["message"])
	assert.Equal(t, "r-1", records[0]["context"].(map[string]any)["request_id"])
	assert.Equal(t, "second", records[1]["message"])
}

func TestHTTPBackend_FlushShipsPartialBatch(t *testing.T) {
	h, received := newTestHTTP(t, 100)

	require.NoError(t, h.Handle(context.Background(), core.NewEntry(core.LevelInfo, "lonely")))
	h.Flush()

	assert.Len(t, received(), 1)
}

func TestHTTPBackend_DisposeFlushes(t *testing.T) {
	h, received := newTestHTTP(t, 100)

	require.NoError(t, h.Handle(context.Background(), core.NewEntry(core.LevelInfo, "pending")))
	require.NoError(t, h.Dispose())

	assert.Len(t, received(), 1)
	assert.NoError(t, h.Dispose(), "dispose is idempotent")
}

func TestHTTPBackend_GateAndStats(t *testing.T) {
	h, _ := newTestHTTP(t, 100)
	h.options = Options{MinLevel: core.LevelError, Events: nil}

	assert.False(t, h.ShouldHandle(core.LevelInfo, ""))
	assert.True(t, h.ShouldHandle(core.LevelFatal, ""))

	require.NoError(t, h.Handle(context.Background(), core.NewEntry(core.LevelError, "x")))
	stats := h.GetStats()
	assert.Equal(t, "http", stats.Type)
	assert.Equal(t, uint64(1), stats.TotalHandled)
	assert.False(t, stats.LastHandled.IsZero())
}

func TestHTTPBackend_RequiresURL(t *testing.T) {
	_, err := NewHTTP(HTTPConfig{}, newTestPool(t), log.NewLogger())
	assert.Error(t, err)
}
