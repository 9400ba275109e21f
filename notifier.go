package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/chazu/plantview/pkg/events"
	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// frontend forwards viewer events to the Wails window. Until startup
// hands it the runtime context, events are dropped.
type frontend struct {
	mu  sync.Mutex
	ctx context.Context
	log *slog.Logger

	// emit defaults to runtime.EventsEmit.
	emit func(ctx context.Context, name string, data ...interface{})
}

var _ events.Notifier = (*frontend)(nil)

func (f *frontend) setContext(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ctx = ctx
}

func (f *frontend) send(name string, payload interface{}) {
	f.mu.Lock()
	ctx, emit := f.ctx, f.emit
	f.mu.Unlock()
	if ctx == nil {
		f.log.Debug("frontend not ready, event dropped", "event", name)
		return
	}
	if emit == nil {
		emit = runtime.EventsEmit
	}
	emit(ctx, name, payload)
}

// SceneUpdateComplete sends the completion time in Unix milliseconds.
func (f *frontend) SceneUpdateComplete(at time.Time) {
	f.send(events.SceneUpdateComplete.String(), at.UnixMilli())
}

// forward subscribes to the bus. The completion signal is not forwarded
// from the bus; it arrives through SceneUpdateComplete.
func (f *frontend) forward(b *events.Bus) {
	for _, t := range []events.EventType{
		events.SceneDataUpdated,
		events.ObjectSelected,
		events.TransformUpdate,
		events.TransformModeChanged,
		events.SceneChanged,
	} {
		name := t.String()
		b.On(t, func(e events.Event) { f.send(name, payloadOf(e)) })
	}
}

// selectionPayload is what the window learns about a selection.
type selectionPayload struct {
	UUID string `json:"uuid,omitempty"`
	Name string `json:"name,omitempty"`
}

func payloadOf(e events.Event) interface{} {
	if sel, ok := e.(events.ObjectSelectedEvent); ok {
		if sel.Object == nil {
			return selectionPayload{}
		}
		return selectionPayload{UUID: sel.Object.UUID, Name: sel.Object.Name}
	}
	return e
}
