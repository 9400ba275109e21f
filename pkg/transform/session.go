package transform

import "github.com/chazu/plantview/pkg/scene"

// Session is the state of one gesture: idle, or active with the mode and
// the transform captured at start. The captured values are handed out at
// most once per activation.
type Session struct {
	active   bool
	mode     Mode
	object   *scene.Object
	previous scene.Snapshot
}

// Start activates the session for obj, capturing its transform by value.
// Starting an active session replaces the previous capture.
func (s *Session) Start(obj *scene.Object, mode Mode) {
	s.active = true
	s.mode = mode
	s.object = obj
	s.previous = obj.Snapshot()
}

// SetMode follows a gizmo mode change. Idle sessions remember nothing.
func (s *Session) SetMode(mode Mode) {
	if s.active {
		s.mode = mode
	}
}

// Active reports whether a gesture is in progress.
func (s *Session) Active() bool { return s.active }

// Mode returns the current mode; meaningful only while active.
func (s *Session) Mode() Mode { return s.mode }

// Object returns the object being transformed, or nil when idle.
func (s *Session) Object() *scene.Object { return s.object }

// End returns the mode and captured transform and makes the session idle.
// ok is false if the session was not active, including a second End
// without a new Start.
func (s *Session) End() (mode Mode, previous scene.Snapshot, ok bool) {
	if !s.active {
		return 0, scene.Snapshot{}, false
	}
	mode, previous = s.mode, s.previous
	s.Cancel()
	return mode, previous, true
}

// Cancel makes the session idle without handing anything out.
func (s *Session) Cancel() {
	*s = Session{}
}
