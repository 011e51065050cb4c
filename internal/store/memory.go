package store

import (
	"container/list"
	"sync"

	"github.com/jpalmerr/feedbackwidget/internal/widget"
)

const (
	// DefaultCapacity bounds the number of live widget instances.
	DefaultCapacity = 10000

	// recentEvents is how many diagnostic events Recent keeps.
	recentEvents = 100

	// subscriberBuffer is the channel buffer of each subscription.
	subscriberBuffer = 100
)

// MemoryStore is an in-memory implementation of [Store].
//
// Widgets are kept in insertion order; once capacity is reached the oldest
// is evicted to make room. Evicted widgets keep working for callers that
// already hold them, their events just can no longer be routed.
//
// Subscribers receive events via buffered channels. Sends are non-blocking;
// a full buffer drops the event for that subscriber.
type MemoryStore struct {
	mu        sync.RWMutex
	capacity  int
	instances map[string]*list.Element
	order     *list.List

	evMu   sync.RWMutex
	events []Event
	next   int
	full   bool

	subscribers map[chan Event]struct{}
	subMu       sync.RWMutex
}

// NewMemoryStore creates a store holding at most capacity widgets.
// A capacity of zero or less selects [DefaultCapacity].
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryStore{
		capacity:    capacity,
		instances:   make(map[string]*list.Element),
		order:       list.New(),
		events:      make([]Event, recentEvents),
		subscribers: make(map[chan Event]struct{}),
	}
}

// Capacity returns the maximum number of widgets retained.
func (m *MemoryStore) Capacity() int {
	return m.capacity
}

// Put registers w, replacing any widget with the same ID.
func (m *MemoryStore) Put(w *widget.Widget) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.instances[w.ID()]; ok {
		el.Value = w
		m.order.MoveToBack(el)
		return
	}

	for m.order.Len() >= m.capacity {
		oldest := m.order.Front()
		m.order.Remove(oldest)
		delete(m.instances, oldest.Value.(*widget.Widget).ID())
	}
	m.instances[w.ID()] = m.order.PushBack(w)
}

// Get returns the widget registered under id.
func (m *MemoryStore) Get(id string) (*widget.Widget, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	el, ok := m.instances[id]
	if !ok {
		return nil, false
	}
	return el.Value.(*widget.Widget), true
}

// Delete removes the widget registered under id.
func (m *MemoryStore) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.instances[id]; ok {
		m.order.Remove(el)
		delete(m.instances, id)
	}
}

// Len returns the number of registered widgets.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.order.Len()
}

// Publish appends ev to the ring of recent events and notifies subscribers.
func (m *MemoryStore) Publish(ev Event) {
	m.evMu.Lock()
	m.events[m.next] = ev
	m.next = (m.next + 1) % len(m.events)
	if m.next == 0 {
		m.full = true
	}
	m.evMu.Unlock()

	m.notifySubscribers(ev)
}

// Recent returns a copy of the retained events, oldest first.
func (m *MemoryStore) Recent() []Event {
	m.evMu.RLock()
	defer m.evMu.RUnlock()

	if !m.full {
		out := make([]Event, m.next)
		copy(out, m.events[:m.next])
		return out
	}
	out := make([]Event, 0, len(m.events))
	out = append(out, m.events[m.next:]...)
	out = append(out, m.events[:m.next]...)
	return out
}

// Subscribe creates a new subscription with a buffer of 100 events.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
// Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan Event) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

func (m *MemoryStore) notifySubscribers(ev Event) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- ev:
		default:
			// slow subscriber, drop
		}
	}
}
