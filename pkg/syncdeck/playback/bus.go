package playback

import "sync"

// EventKind identifies what changed on the transport.
type EventKind int

const (
	// EventSeek carries a new timeline time.
	EventSeek EventKind = iota
	// EventTransport carries the time and play state after play/pause.
	EventTransport
	// EventSpeed carries a new base playback rate.
	EventSpeed
	// EventExporting carries the export flag.
	EventExporting
)

func (k EventKind) String() string {
	switch k {
	case EventSeek:
		return "seek"
	case EventTransport:
		return "transport"
	case EventSpeed:
		return "speed"
	case EventExporting:
		return "exporting"
	}
	return "unknown"
}

// Event is one transport notification. Only the fields relevant to Kind are set.
type Event struct {
	Kind      EventKind
	Time      float64
	Playing   bool
	Rate      float64
	Exporting bool
}

// Handler receives bus events. Handlers run on the publisher's goroutine and
// must not block.
type Handler func(Event)

type subscription struct {
	id int
	fn Handler
}

// Bus is a publish/subscribe channel between the transport and its
// consumers. Each consumer is handed the bus explicitly; there is no
// process-wide instance.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscription
	closed bool
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn and returns a function that removes it. Calling the
// returned function more than once is harmless.
func (b *Bus) Subscribe(fn Handler) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers e to every subscriber in subscription order. The
// subscriber list is copied first, so handlers may subscribe or unsubscribe
// while being called.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	subs := make([]subscription, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(e)
	}
}

// Len returns the number of active subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close drops every subscriber. Later publishes and subscriptions are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = nil
}
