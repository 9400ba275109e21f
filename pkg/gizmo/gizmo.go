// Package gizmo is a headless transform gizmo. It holds the state the
// frontend renders: which object is attached, the active mode, snapping,
// and whether the handles are enabled and visible.
package gizmo

import (
	"math"
	"sync"

	"github.com/chazu/plantview/pkg/scene"
	"github.com/chazu/plantview/pkg/transform"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultSize is the handle scale used by the editor.
const DefaultSize = 0.5

// State is the gizmo. The zero value is usable: disabled, hidden, in
// translate mode with no snapping.
type State struct {
	mu sync.Mutex

	mode           transform.Mode
	snap           transform.Snap
	size           float64
	showPlanes     bool
	enabled        bool
	visible        bool
	forceInvisible bool
	disposed       bool

	selected   *scene.Object
	target     *scene.Object
	selectable func(*scene.Object) bool
}

// New returns a gizmo with the default size.
func New() *State {
	return &State{size: DefaultSize}
}

// SetSelectable installs the predicate SelectObject consults.
func (s *State) SetSelectable(fn func(*scene.Object) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectable = fn
}

// SelectObject attaches the gizmo to obj if the predicate allows it and
// reports whether it did. A picked handle plane attaches to its owner.
func (s *State) SelectObject(obj *scene.Object) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if obj != nil && obj.Kind == scene.KindGizmoPlane {
		obj = obj.Owner
	}
	if s.disposed || obj == nil {
		return false
	}
	if s.selectable != nil && !s.selectable(obj) {
		return false
	}
	s.selected = obj
	s.target = obj
	return true
}

// DeselectObject detaches the gizmo.
func (s *State) DeselectObject() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = nil
	s.target = nil
}

// Selected returns the attached object.
func (s *State) Selected() *scene.Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// SetTarget re-points the handles at obj without changing the selection.
func (s *State) SetTarget(obj *scene.Object) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = obj
}

// Target returns the object the handles follow.
func (s *State) Target() *scene.Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

func (s *State) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled && !s.disposed
}

func (s *State) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

func (s *State) SetVisible(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = visible
}

// Visible reports whether the handles are drawn. Force-invisible wins.
func (s *State) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible && !s.forceInvisible && !s.disposed
}

// SetForceInvisible hides the handles regardless of SetVisible.
func (s *State) SetForceInvisible(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forceInvisible = v
}

func (s *State) ForceInvisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forceInvisible
}

func (s *State) SetSnap(snap transform.Snap) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
}

func (s *State) Snap() transform.Snap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *State) SetSize(size float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.size = size
}

func (s *State) Size() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// SetShowPlanes toggles the two-axis plane handles used for multi-axis
// translation.
func (s *State) SetShowPlanes(show bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showPlanes = show
}

func (s *State) ShowPlanes() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.showPlanes
}

// SetMode switches the handle set.
func (s *State) SetMode(mode transform.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
}

func (s *State) Mode() transform.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// TransformData reads the target's transform. ok is false with no target.
func (s *State) TransformData() (transform.Data, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj := s.target
	if obj == nil {
		return transform.Data{}, false
	}
	return transform.Data{
		UUID:          obj.UUID,
		Mode:          s.mode,
		Position:      obj.Position(),
		Rotation:      obj.Rotation(),
		Scale:         obj.Scale(),
		WorldPosition: obj.WorldPosition(),
	}, true
}

// Snapped rounds v to the snap step of mode. A zero step leaves v as is.
func (s *State) Snapped(mode transform.Mode, v v3.Vec) v3.Vec {
	s.mu.Lock()
	snap := s.snap
	s.mu.Unlock()
	var step float64
	switch mode {
	case transform.Translate:
		step = snap.Translation
	case transform.Rotate:
		step = snap.Rotation
	case transform.Scale:
		step = snap.Scale
	}
	if step <= 0 {
		return v
	}
	round := func(x float64) float64 { return math.Round(x/step) * step }
	return v3.Vec{X: round(v.X), Y: round(v.Y), Z: round(v.Z)}
}

// Dispose detaches and disables the gizmo for good.
func (s *State) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = true
	s.enabled = false
	s.selected = nil
	s.target = nil
	s.selectable = nil
}

// Disposed reports whether Dispose was called.
func (s *State) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}
