// FILE: strategic-logger/internal/dispatch/engine_test.go
package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Hypn-Tech/strategic-logger/core"
	"github.com/Hypn-Tech/strategic-logger/internal/queue"
	"github.com/Hypn-Tech/strategic-logger/strategy"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingStrategy captures every handled entry in order.
type recordingStrategy struct {
	name    string
	options strategy.Options
	fail    error
	panics  bool

	mu      sync.Mutex
	handled []core.LogEntry
}

func (r *recordingStrategy) Name() string { return r.name }

func (r *recordingStrategy) ShouldHandle(level core.Level, eventName string) bool {
	return r.options.Accepts(level, eventName)
}

func (r *recordingStrategy) Handle(_ context.Context, entry core.LogEntry) error {
	if r.panics {
		panic("strategy blew up")
	}
	if r.fail != nil {
		return r.fail
	}
	r.mu.Lock()
	r.handled = append(r.handled, entry)
	r.mu.Unlock()
	return nil
}

func (r *recordingStrategy) Dispose() error { return nil }

func (r *recordingStrategy) GetStats() strategy.Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strategy.Stats{Type: r.name, TotalHandled: uint64(len(r.handled))}
}

func (r *recordingStrategy) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	msgs := make([]string, 0, len(r.handled))
	for _, e := range r.handled {
		msgs = append(msgs, e.Message.(string))
	}
	return msgs
}

// leveledStrategy records which capability method each level routes to.
type leveledStrategy struct {
	recordingStrategy
	calls []string
}

func (l *leveledStrategy) record(method string, entry core.LogEntry) error {
	l.mu.Lock()
	l.calls = append(l.calls, method)
	l.handled = append(l.handled, entry)
	l.mu.Unlock()
	return nil
}

func (l *leveledStrategy) HandleLog(_ context.Context, e core.LogEntry) error {
	return l.record("log", e)
}

func (l *leveledStrategy) HandleInfo(_ context.Context, e core.LogEntry) error {
	return l.record("info", e)
}

func (l *leveledStrategy) HandleError(_ context.Context, e core.LogEntry) error {
	return l.record("error", e)
}

func (l *leveledStrategy) HandleFatal(_ context.Context, e core.LogEntry) error {
	return l.record("fatal", e)
}

func newTestEngine(t *testing.T, monitor bool) (*Engine, *queue.Queue) {
	t.Helper()
	q := queue.New(100, log.NewLogger())
	e := New(q, log.NewLogger(), monitor)
	e.Start(context.Background())
	t.Cleanup(func() {
		e.Stop()
		q.Dispose()
	})
	return e, q
}

func enqueueAndFlush(t *testing.T, q *queue.Queue, entries ...core.LogEntry) {
	t.Helper()
	for _, e := range entries {
		require.NoError(t, q.Enqueue(e))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Flush(ctx))
}

func infoEntry(msg string) core.LogEntry {
	return core.NewEntry(core.LevelInfo, msg)
}

func TestEngine_FanOutOrder(t *testing.T) {
	e, q := newTestEngine(t, false)

	first := &recordingStrategy{name: "first"}
	second := &recordingStrategy{name: "second"}
	e.Register(first)
	e.Register(second)

	enqueueAndFlush(t, q, infoEntry("A"), infoEntry("B"), infoEntry("C"))

	assert.Equal(t, []string{"A", "B", "C"}, first.messages())
	assert.Equal(t, []string{"A", "B", "C"}, second.messages())
}

func TestEngine_FaultIsolation(t *testing.T) {
	testCases := []struct {
		name   string
		faulty *recordingStrategy
	}{
		{name: "ErrorReturning", faulty: &recordingStrategy{name: "faulty", fail: errors.New("backend down")}},
		{name: "Panicking", faulty: &recordingStrategy{name: "faulty", panics: true}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e, q := newTestEngine(t, false)

			left := &recordingStrategy{name: "left"}
			right := &recordingStrategy{name: "right"}
			e.Register(left)
			e.Register(tc.faulty)
			e.Register(right)

			enqueueAndFlush(t, q, infoEntry("A"), infoEntry("B"))

			assert.Equal(t, []string{"A", "B"}, left.messages(),
				"healthy strategies must receive every entry in order")
			assert.Equal(t, []string{"A", "B"}, right.messages())
			assert.Equal(t, uint64(2), e.GetStats()["total_faults"])
		})
	}
}

func TestEngine_LevelGating(t *testing.T) {
	e, q := newTestEngine(t, false)

	errorsOnly := &recordingStrategy{name: "errors_only", options: strategy.Options{MinLevel: core.LevelError}}
	everything := &recordingStrategy{name: "everything"}
	e.Register(errorsOnly)
	e.Register(everything)

	enqueueAndFlush(t, q,
		core.NewEntry(core.LevelDebug, "d"),
		core.NewEntry(core.LevelInfo, "i"),
		core.NewEntry(core.LevelError, "e"),
	)

	assert.Equal(t, []string{"e"}, errorsOnly.messages(),
		"entries below the threshold must never reach the strategy")
	assert.Equal(t, []string{"d", "i", "e"}, everything.messages())
}

func TestEngine_EventAllowList(t *testing.T) {
	e, q := newTestEngine(t, false)

	checkoutOnly := &recordingStrategy{name: "checkout", options: strategy.Options{Events: []string{"checkout"}}}
	e.Register(checkoutOnly)

	plain := infoEntry("no event")
	tagged := infoEntry("with event")
	tagged.Event = &core.Event{Name: "checkout"}
	other := infoEntry("other event")
	other.Event = &core.Event{Name: "signup"}

	enqueueAndFlush(t, q, plain, tagged, other)

	assert.Equal(t, []string{"with event"}, checkoutOnly.messages())
}

func TestEngine_LevelHandlerRouting(t *testing.T) {
	e, q := newTestEngine(t, false)

	leveled := &leveledStrategy{recordingStrategy: recordingStrategy{name: "leveled"}}
	e.Register(leveled)

	enqueueAndFlush(t, q,
		core.NewEntry(core.LevelDebug, "1"),
		core.NewEntry(core.LevelInfo, "2"),
		core.NewEntry(core.LevelWarning, "3"),
		core.NewEntry(core.LevelError, "4"),
		core.NewEntry(core.LevelFatal, "5"),
	)

	leveled.mu.Lock()
	defer leveled.mu.Unlock()
	assert.Equal(t, []string{"log", "info", "info", "error", "fatal"}, leveled.calls,
		"level routing must be the fixed documented mapping")
}

func TestEngine_Unregister(t *testing.T) {
	e, q := newTestEngine(t, false)

	s := &recordingStrategy{name: "temp"}
	e.Register(s)
	removed := e.Unregister("temp")
	require.NotNil(t, removed)
	assert.Nil(t, e.Unregister("temp"))

	enqueueAndFlush(t, q, infoEntry("after removal"))
	assert.Empty(t, s.messages())
}

func TestEngine_MonitorSnapshot(t *testing.T) {
	e, q := newTestEngine(t, true)

	ok := &recordingStrategy{name: "ok"}
	bad := &recordingStrategy{name: "bad", fail: errors.New("nope")}
	e.Register(ok)
	e.Register(bad)

	enqueueAndFlush(t, q, infoEntry("A"), infoEntry("B"))

	snapshot := e.Snapshot()
	require.NotNil(t, snapshot)

	pass := snapshot["dispatch"]
	assert.Equal(t, uint64(2), pass.Count)
	assert.Equal(t, uint64(2), pass.ErrorCount)
	assert.GreaterOrEqual(t, pass.MaxDuration, pass.MinDuration)
	assert.GreaterOrEqual(t, pass.Average(), time.Duration(0))

	perStrategy := snapshot["dispatch.bad"]
	assert.Equal(t, uint64(2), perStrategy.Count)
	assert.Equal(t, uint64(2), perStrategy.ErrorCount)
}

func TestEngine_MonitorDisabled(t *testing.T) {
	e, _ := newTestEngine(t, false)
	assert.Nil(t, e.Snapshot())
}

func TestEngine_Observers(t *testing.T) {
	e, q := newTestEngine(t, false)

	ch, cancel := e.Subscribe(8)
	defer cancel()

	enqueueAndFlush(t, q, infoEntry("observed"))

	select {
	case entry := <-ch:
		assert.Equal(t, "observed", entry.Message)
	case <-time.After(time.Second):
		t.Fatal("observer did not receive the entry")
	}
}

func TestEngine_SlowObserverDoesNotBlockDispatch(t *testing.T) {
	e, q := newTestEngine(t, false)

	// Tiny buffer, never drained: dispatch must keep flowing
	_, cancel := e.Subscribe(1)
	defer cancel()

	sink := &recordingStrategy{name: "sink"}
	e.Register(sink)

	entries := make([]core.LogEntry, 0, 20)
	for i := 0; i < 20; i++ {
		entries = append(entries, infoEntry("x"))
	}
	enqueueAndFlush(t, q, entries...)

	assert.Len(t, sink.messages(), 20)
}

func TestEngine_UnsubscribedObserverIsTolerated(t *testing.T) {
	e, q := newTestEngine(t, false)

	_, cancel := e.Subscribe(4)
	cancel()
	cancel() // idempotent

	assert.Equal(t, 0, e.GetStats()["observer_count"])
	enqueueAndFlush(t, q, infoEntry("still fine"))
}
