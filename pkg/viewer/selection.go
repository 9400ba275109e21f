package viewer

import (
	"fmt"

	"github.com/chazu/plantview/pkg/events"
	"github.com/chazu/plantview/pkg/scene"
	"github.com/chazu/plantview/pkg/tooltip"
)

// Selection is either nothing or one selected object.
type Selection struct {
	obj *scene.Object
}

// Object returns the selected object; ok is false when nothing is selected.
func (s Selection) Object() (obj *scene.Object, ok bool) {
	return s.obj, s.obj != nil
}

// None reports whether nothing is selected.
func (s Selection) None() bool { return s.obj == nil }

// Selection returns the current selection.
func (v *Viewer) Selection() Selection { return v.selection }

// SelectObject attaches the gizmo to obj and runs the selection handler.
func (v *Viewer) SelectObject(obj *scene.Object) error {
	if v.IsDisposed() {
		return ErrDisposed
	}
	if obj == nil || obj.UUID == "" || obj.Parent() == nil {
		return ErrInvalidSelection
	}
	if !v.gizmo.SelectObject(obj) {
		return fmt.Errorf("%w: %s is not selectable", ErrInvalidSelection, obj.UUID)
	}
	v.OnSelect(v.gizmo.Selected())
	return nil
}

// SelectByUUID selects the object with the given UUID.
func (v *Viewer) SelectByUUID(uuid string) error {
	if v.IsDisposed() {
		return ErrDisposed
	}
	obj, ok := v.scene.Lookup(uuid)
	if !ok {
		return fmt.Errorf("select %s: %w", uuid, scene.ErrNotFound)
	}
	return v.SelectObject(obj)
}

// DeselectObject detaches the gizmo and clears the selection.
func (v *Viewer) DeselectObject() {
	if v.IsDisposed() {
		return
	}
	v.gizmo.DeselectObject()
	v.OnSelect(nil)
}

// OnSelect handles a gizmo selection change. A nil object clears the
// selection: the tooltip sees a click on empty space and the gizmo is
// hidden and disabled. Otherwise the gizmo is shown (unless forced
// invisible) and enabled, and the tooltip is placed for the object.
func (v *Viewer) OnSelect(obj *scene.Object) {
	if v.IsDisposed() {
		return
	}
	if obj == nil {
		v.tooltip.HandleSceneClick()
		v.gizmo.SetVisible(false)
		v.gizmo.SetEnabled(false)
		v.selection = Selection{}
		v.session.Cancel()
		v.bus.Emit(events.ObjectSelectedEvent{})
		return
	}

	v.gizmo.SetVisible(!v.gizmo.ForceInvisible())
	v.gizmo.SetEnabled(true)
	if len(obj.Meta.Attributes) == 0 {
		obj.Meta.Attributes = tooltip.DefaultAttributes(obj)
		v.scene.SyncRecord(obj)
	}
	v.tooltip.SetSelected(obj, tooltip.CornerFor(obj, v.camera))
	v.selection = Selection{obj: obj}
	v.bus.Emit(events.ObjectSelectedEvent{Object: obj})
}
