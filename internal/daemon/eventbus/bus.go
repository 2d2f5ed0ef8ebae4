// Package eventbus is the per-execution broadcast channel with an in-memory
// history for replay.
package eventbus

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/superclaude/superclaude/internal/models"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 1024

// Options configures a Bus.
type Options struct {
	// Buffer is the per-subscriber channel capacity.
	Buffer int
	// HistoryLimit caps retained history; 0 keeps everything.
	HistoryLimit int
	// OnDrop is called once per event dropped for a slow subscriber.
	OnDrop func()
}

// Bus fans events out to any number of subscribers and keeps the full
// history. A subscriber whose channel is full loses its oldest buffered event
// rather than blocking the producer; history is never lossy unless a
// HistoryLimit is set.
type Bus struct {
	opts Options

	mu      sync.Mutex
	history []models.AgentEvent
	subs    map[string]*Subscription
	lastTS  time.Time
	closed  bool
}

// New creates a bus.
func New(opts Options) *Bus {
	if opts.Buffer <= 0 {
		opts.Buffer = DefaultBuffer
	}
	return &Bus{
		opts: opts,
		subs: make(map[string]*Subscription),
	}
}

// Subscription is one attached observer.
type Subscription struct {
	ID string

	bus     *Bus
	ch      chan models.AgentEvent
	dropped atomic.Uint64
	once    sync.Once
}

// Events is the live feed. It is closed when the bus closes or the
// subscription is cancelled.
func (s *Subscription) Events() <-chan models.AgentEvent { return s.ch }

// Dropped reports how many live events this subscriber lost to overflow.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

// Close detaches the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.bus.mu.Lock()
	if _, ok := s.bus.subs[s.ID]; ok {
		delete(s.bus.subs, s.ID)
		s.closeChan()
	}
	s.bus.mu.Unlock()
}

func (s *Subscription) closeChan() {
	s.once.Do(func() { close(s.ch) })
}

// Emit stamps, records and broadcasts ev. Timestamps are forced to be
// non-decreasing in history order. Returns the event as recorded, and false
// if the bus is already closed.
func (b *Bus) Emit(ev models.AgentEvent) (models.AgentEvent, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ev, false
	}

	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	if ev.Timestamp.Before(b.lastTS) {
		ev.Timestamp = b.lastTS
	}
	b.lastTS = ev.Timestamp

	b.history = append(b.history, ev)
	if limit := b.opts.HistoryLimit; limit > 0 && len(b.history) > limit {
		b.history = append(b.history[:0:0], b.history[len(b.history)-limit:]...)
	}

	for _, sub := range b.subs {
		b.deliverLocked(sub, ev)
	}
	return ev, true
}

// deliverLocked never blocks. On overflow the oldest buffered event is
// discarded to make room. The bus lock serialises all senders, so one
// receive always frees a slot.
func (b *Bus) deliverLocked(sub *Subscription, ev models.AgentEvent) {
	select {
	case sub.ch <- ev:
		return
	default:
	}

	select {
	case <-sub.ch:
		sub.dropped.Add(1)
		if b.opts.OnDrop != nil {
			b.opts.OnDrop()
		}
	default:
	}

	select {
	case sub.ch <- ev:
	default:
	}
}

// Subscribe attaches a new observer. When includeHistory is set the returned
// slice holds every event recorded so far; the snapshot and the attach happen
// under one lock, so each event is seen exactly once, either in the replay or
// on the live channel. An event published between a separate snapshot and
// attach would otherwise show up in both.
func (b *Bus) Subscribe(includeHistory bool) ([]models.AgentEvent, *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscription{
		ID:  uuid.NewString(),
		bus: b,
		ch:  make(chan models.AgentEvent, b.opts.Buffer),
	}

	var replay []models.AgentEvent
	if includeHistory {
		replay = make([]models.AgentEvent, len(b.history))
		copy(replay, b.history)
	}

	if b.closed {
		sub.closeChan()
		return replay, sub
	}
	b.subs[sub.ID] = sub
	return replay, sub
}

// History returns a copy of all recorded events.
func (b *Bus) History() []models.AgentEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]models.AgentEvent, len(b.history))
	copy(out, b.history)
	return out
}

// Len is the number of recorded events.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.history)
}

// SubscriberCount is the number of attached live subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Closed reports whether Close has been called.
func (b *Bus) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Close ends every live subscription. History stays readable and later
// subscribers still get the replay followed by an already-closed channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		sub.closeChan()
		delete(b.subs, id)
	}
}
