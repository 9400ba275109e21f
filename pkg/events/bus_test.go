package events

import (
	"testing"
	"time"

	"github.com/chazu/plantview/pkg/transform"
)

func TestParseEventType(t *testing.T) {
	tests := []struct {
		name string
		want EventType
		ok   bool
	}{
		{"sceneDataUpdated", SceneDataUpdated, true},
		{"scene-data-updated", SceneDataUpdated, true},
		{"objectSelected", ObjectSelected, true},
		{"object-selected-for-transform", ObjectSelected, true},
		{"transformUpdate", TransformUpdate, true},
		{"transform-mode-changed", TransformModeChanged, true},
		{"sceneChanged", SceneChanged, true},
		{"sceneUpdateComplete", SceneUpdateComplete, true},
		{"bogus", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseEventType(tt.name)
			if ok != tt.ok || (ok && got != tt.want) {
				t.Errorf("ParseEventType(%q) = (%s, %v), want (%s, %v)", tt.name, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestBusDispatchesByType(t *testing.T) {
	b := NewBus()
	var modes []transform.Mode
	var selections int

	b.On(TransformModeChanged, func(e Event) {
		modes = append(modes, e.(TransformModeChangedEvent).Mode)
	})
	b.On(ObjectSelected, func(Event) { selections++ })

	b.Emit(TransformModeChangedEvent{Mode: transform.Rotate, Previous: transform.Translate})
	b.Emit(SceneChangedEvent{Reason: "nobody listens"})

	if len(modes) != 1 || modes[0] != transform.Rotate {
		t.Errorf("modes = %v, want [rotate]", modes)
	}
	if selections != 0 {
		t.Errorf("selection handler fired %d times", selections)
	}
}

func TestBusOnNamedIgnoresUnknown(t *testing.T) {
	b := NewBus()
	called := false
	if _, ok := b.OnNamed("not-an-event", func(Event) { called = true }); ok {
		t.Error("OnNamed accepted an unknown name")
	}
	h, ok := b.OnNamed("scene-changed", func(Event) { called = true })
	if !ok {
		t.Fatal("OnNamed rejected a kebab-case alias")
	}
	b.Emit(SceneChangedEvent{Reason: "load"})
	if !called {
		t.Error("handler registered by alias did not fire")
	}
	h.Remove()
	h.Remove()
	if n := b.Count(SceneChanged); n != 0 {
		t.Errorf("Count after Remove = %d, want 0", n)
	}
}

func TestBusRemoveDuringEmit(t *testing.T) {
	b := NewBus()
	var order []int
	var h1 Handle
	h1 = b.On(SceneChanged, func(Event) {
		order = append(order, 1)
		h1.Remove()
	})
	b.On(SceneChanged, func(Event) { order = append(order, 2) })

	b.Emit(SceneChangedEvent{})
	b.Emit(SceneChangedEvent{})
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 2 {
		t.Errorf("order = %v, want [1 2 2]", order)
	}
}

func TestBusAsNotifier(t *testing.T) {
	b := NewBus()
	var got time.Time
	b.On(SceneUpdateComplete, func(e Event) {
		got = e.(SceneUpdateCompleteEvent).At
	})
	var other int
	n := Multi{b, nil, NotifierFunc(func(time.Time) { other++ })}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	n.SceneUpdateComplete(at)
	if !got.Equal(at) {
		t.Errorf("bus got %v, want %v", got, at)
	}
	if other != 1 {
		t.Errorf("func notifier called %d times, want 1", other)
	}
}

func TestBusEmitNamed(t *testing.T) {
	b := NewBus()
	var got []string
	b.On(ObjectSelected, func(Event) { got = append(got, "selected") })

	tests := []struct {
		name string
		e    Event
		want bool
	}{
		{"objectSelected", ObjectSelectedEvent{}, true},
		{"object-selected-for-transform", ObjectSelectedEvent{}, true},
		{"transformUpdate", ObjectSelectedEvent{}, false},
		{"no-such-event", ObjectSelectedEvent{}, false},
		{"objectSelected", nil, false},
	}
	for _, tt := range tests {
		if ok := b.EmitNamed(tt.name, tt.e); ok != tt.want {
			t.Errorf("EmitNamed(%q) = %v, want %v", tt.name, ok, tt.want)
		}
	}
	if len(got) != 2 {
		t.Errorf("handler ran %d times, want 2", len(got))
	}
}
