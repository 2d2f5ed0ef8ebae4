package eventbus

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superclaude/superclaude/internal/models"
)

func logEvent(i int) models.AgentEvent {
	return models.NewEvent("exec-1", &models.LogMessage{Level: models.LogInfo, Message: fmt.Sprintf("m%d", i)})
}

func messages(events []models.AgentEvent) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.LogMessage.Message
	}
	return out
}

func drain(t *testing.T, sub *Subscription, n int) []models.AgentEvent {
	t.Helper()
	var out []models.AgentEvent
	timeout := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("timed out after %d of %d events", len(out), n)
		}
	}
	return out
}

func TestSubscribersSeeIdenticalSequence(t *testing.T) {
	bus := New(Options{})
	_, a := bus.Subscribe(false)
	_, b := bus.Subscribe(false)
	_, c := bus.Subscribe(false)

	for i := 0; i < 20; i++ {
		bus.Emit(logEvent(i))
	}

	want := messages(bus.History())
	for _, sub := range []*Subscription{a, b, c} {
		assert.Equal(t, want, messages(drain(t, sub, 20)))
	}
}

func TestHistoryThenLiveExactlyOnce(t *testing.T) {
	bus := New(Options{})
	for i := 0; i < 5; i++ {
		bus.Emit(logEvent(i))
	}

	replay, sub := bus.Subscribe(true)
	require.Len(t, replay, 5)

	for i := 5; i < 10; i++ {
		bus.Emit(logEvent(i))
	}

	all := append(replay, drain(t, sub, 5)...)
	assert.Equal(t, []string{"m0", "m1", "m2", "m3", "m4", "m5", "m6", "m7", "m8", "m9"}, messages(all))
}

func TestConcurrentEmitAndSubscribeNoGapsNoDuplicates(t *testing.T) {
	bus := New(Options{Buffer: 10000})
	const total = 2000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			bus.Emit(logEvent(i))
		}
	}()

	time.Sleep(time.Millisecond)
	replay, sub := bus.Subscribe(true)
	wg.Wait()

	live := drain(t, sub, total-len(replay))
	all := messages(append(replay, live...))
	require.Len(t, all, total)
	for i, m := range all {
		assert.Equal(t, fmt.Sprintf("m%d", i), m)
	}
}

func TestSlowSubscriberDropsOldest(t *testing.T) {
	var drops int
	bus := New(Options{Buffer: 3, OnDrop: func() { drops++ }})
	_, sub := bus.Subscribe(false)

	for i := 0; i < 5; i++ {
		bus.Emit(logEvent(i))
	}

	assert.Equal(t, []string{"m2", "m3", "m4"}, messages(drain(t, sub, 3)))
	assert.Equal(t, uint64(2), sub.Dropped())
	assert.Equal(t, 2, drops)
	assert.Len(t, bus.History(), 5)
}

func TestEmitKeepsTimestampsNonDecreasing(t *testing.T) {
	bus := New(Options{})
	later := logEvent(1)
	earlier := logEvent(2)
	earlier.Timestamp = later.Timestamp.Add(-time.Hour)

	bus.Emit(later)
	rec, ok := bus.Emit(earlier)
	require.True(t, ok)

	assert.Equal(t, later.Timestamp, rec.Timestamp)
	h := bus.History()
	assert.False(t, h[1].Timestamp.Before(h[0].Timestamp))
}

func TestHistoryLimit(t *testing.T) {
	bus := New(Options{HistoryLimit: 3})
	for i := 0; i < 5; i++ {
		bus.Emit(logEvent(i))
	}
	assert.Equal(t, []string{"m2", "m3", "m4"}, messages(bus.History()))
}

func TestCloseEndsSubscriptions(t *testing.T) {
	bus := New(Options{})
	_, sub := bus.Subscribe(false)
	bus.Emit(logEvent(0))
	bus.Close()

	got := drain(t, sub, 2)
	assert.Len(t, got, 1)

	_, ok := bus.Emit(logEvent(1))
	assert.False(t, ok)
	assert.Equal(t, 0, bus.SubscriberCount())

	replay, late := bus.Subscribe(true)
	assert.Len(t, replay, 1)
	_, open := <-late.Events()
	assert.False(t, open)
}

func TestSubscriptionClose(t *testing.T) {
	bus := New(Options{})
	_, sub := bus.Subscribe(false)
	assert.Equal(t, 1, bus.SubscriberCount())

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, bus.SubscriberCount())

	bus.Emit(logEvent(0))
	_, open := <-sub.Events()
	assert.False(t, open)
}
