// Package events is the viewer's outward notification surface: a typed
// subscription bus for scene events and a fire-and-forget sink for the
// "scene update complete" signal.
package events

import (
	"fmt"
	"strings"
	"time"

	"github.com/chazu/plantview/pkg/scene"
	"github.com/chazu/plantview/pkg/transform"
)

// EventType identifies a bus event.
type EventType int

const (
	SceneDataUpdated EventType = iota
	ObjectSelected
	TransformUpdate
	TransformModeChanged
	SceneChanged
	SceneUpdateComplete
	eventTypeCount
)

var eventNames = [eventTypeCount]string{
	SceneDataUpdated:     "sceneDataUpdated",
	ObjectSelected:       "objectSelected",
	TransformUpdate:      "transformUpdate",
	TransformModeChanged: "transformModeChanged",
	SceneChanged:         "sceneChanged",
	SceneUpdateComplete:  "sceneUpdateComplete",
}

// aliases maps the kebab-case names the frontend emits to event types.
var aliases = map[string]EventType{
	"scene-data-updated":            SceneDataUpdated,
	"object-selected":               ObjectSelected,
	"object-selected-for-transform": ObjectSelected,
	"transform-update":              TransformUpdate,
	"transform-mode-changed":        TransformModeChanged,
	"scene-changed":                 SceneChanged,
	"scene-update-complete":         SceneUpdateComplete,
}

func (t EventType) String() string {
	if t >= 0 && t < eventTypeCount {
		return eventNames[t]
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// ParseEventType resolves a camelCase or kebab-case event name.
func ParseEventType(name string) (EventType, bool) {
	for i, n := range eventNames {
		if n == name {
			return EventType(i), true
		}
	}
	t, ok := aliases[strings.ToLower(name)]
	return t, ok
}

// Event is implemented by every bus payload.
type Event interface {
	Type() EventType
}

// SceneDataUpdatedEvent reports a change to the shared document.
type SceneDataUpdatedEvent struct {
	Action      string             `json:"action"`
	Connections []scene.Connection `json:"connections,omitempty"`
	SceneData   *scene.SceneData   `json:"sceneData,omitempty"`
}

// ObjectSelectedEvent reports a selection change. Object is nil when the
// selection was cleared.
type ObjectSelectedEvent struct {
	Object *scene.Object `json:"-"`
}

// TransformUpdateEvent carries the live transform during a gesture.
type TransformUpdateEvent struct {
	Data transform.Data `json:"data"`
}

// TransformModeChangedEvent reports a gizmo mode switch.
type TransformModeChangedEvent struct {
	Mode     transform.Mode `json:"mode"`
	Previous transform.Mode `json:"previous"`
}

// SceneChangedEvent reports a structural scene change, such as an object
// removed or a scene loaded.
type SceneChangedEvent struct {
	Reason string `json:"reason"`
	UUID   string `json:"uuid,omitempty"`
}

// SceneUpdateCompleteEvent is the bus form of the completion signal.
type SceneUpdateCompleteEvent struct {
	At time.Time `json:"at"`
}

func (SceneDataUpdatedEvent) Type() EventType { return SceneDataUpdated }
func (ObjectSelectedEvent) Type() EventType { return ObjectSelected }
func (TransformUpdateEvent) Type() EventType { return TransformUpdate }
func (TransformModeChangedEvent) Type() EventType { return TransformModeChanged }
func (SceneChangedEvent) Type() EventType { return SceneChanged }
func (SceneUpdateCompleteEvent) Type() EventType { return SceneUpdateComplete }

// Notifier receives the fire-and-forget "scene update complete" signal.
type Notifier interface {
	SceneUpdateComplete(at time.Time)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(at time.Time)

func (f NotifierFunc) SceneUpdateComplete(at time.Time) { f(at) }
