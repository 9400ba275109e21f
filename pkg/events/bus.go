package events

import (
	"sync"
	"time"
)

type handler struct {
	id uint32
	fn func(Event)
}

// Bus dispatches events to handlers registered per event type. Handlers
// run synchronously on the emitting goroutine, in registration order.
type Bus struct {
	mu       sync.Mutex
	nextID   uint32
	handlers [eventTypeCount][]handler
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Handle removes a registered handler.
type Handle struct {
	id    uint32
	bus   *Bus
	event EventType
}

// Remove unregisters the handler. Removing twice, or removing the zero
// Handle, is a no-op.
func (h Handle) Remove() {
	if h.bus == nil {
		return
	}
	h.bus.mu.Lock()
	defer h.bus.mu.Unlock()
	list := h.bus.handlers[h.event]
	for i, e := range list {
		if e.id == h.id {
			h.bus.handlers[h.event] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// On registers fn for events of type t.
func (b *Bus) On(t EventType, fn func(Event)) Handle {
	if t < 0 || t >= eventTypeCount || fn == nil {
		return Handle{}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.handlers[t] = append(b.handlers[t], handler{id: b.nextID, fn: fn})
	return Handle{id: b.nextID, bus: b, event: t}
}

// OnNamed registers fn by event name. Unknown names are ignored and
// reported with ok=false.
func (b *Bus) OnNamed(name string, fn func(Event)) (h Handle, ok bool) {
	t, ok := ParseEventType(name)
	if !ok {
		return Handle{}, false
	}
	return b.On(t, fn), true
}

// Emit delivers e to every handler registered for its type.
func (b *Bus) Emit(e Event) {
	if e == nil {
		return
	}
	t := e.Type()
	if t < 0 || t >= eventTypeCount {
		return
	}
	b.mu.Lock()
	list := make([]handler, len(b.handlers[t]))
	copy(list, b.handlers[t])
	b.mu.Unlock()
	for _, h := range list {
		h.fn(e)
	}
}

// EmitNamed delivers e under an event name. Unknown names, and names that
// do not match e's type, are ignored and reported with false.
func (b *Bus) EmitNamed(name string, e Event) bool {
	t, ok := ParseEventType(name)
	if !ok || e == nil || e.Type() != t {
		return false
	}
	b.Emit(e)
	return true
}

// Count returns the number of handlers registered for t.
func (b *Bus) Count(t EventType) int {
	if t < 0 || t >= eventTypeCount {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[t])
}

// Clear drops every handler.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = [eventTypeCount][]handler{}
}

// SceneUpdateComplete makes the bus usable as a Notifier.
func (b *Bus) SceneUpdateComplete(at time.Time) {
	b.Emit(SceneUpdateCompleteEvent{At: at})
}

var _ Notifier = (*Bus)(nil)

// Multi fans a notification out to several sinks. Nil entries are skipped.
type Multi []Notifier

func (m Multi) SceneUpdateComplete(at time.Time) {
	for _, n := range m {
		if n != nil {
			n.SceneUpdateComplete(at)
		}
	}
}
