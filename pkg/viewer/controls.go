package viewer

import (
	"github.com/chazu/plantview/pkg/gizmo"
	"github.com/chazu/plantview/pkg/selection"
	"github.com/chazu/plantview/pkg/transform"
)

// InitTransformControls puts the gizmo in its editing defaults: snapping,
// handle size, no plane handles, disabled and hidden, with the
// selectability rules installed.
func (v *Viewer) InitTransformControls() {
	if v.IsDisposed() {
		return
	}
	g := v.gizmo
	g.SetSnap(transform.DefaultSnap)
	g.SetSize(gizmo.DefaultSize)
	g.SetShowPlanes(false)
	g.SetEnabled(false)
	g.SetVisible(false)
	g.SetSelectable(selection.IsSelectable)
	v.log.Debug("transform controls initialized")
}

// EnableTransformControls enables and shows the gizmo, clearing any
// force-invisible state. A scene holding only base scenery is refused.
func (v *Viewer) EnableTransformControls() error {
	if v.IsDisposed() {
		return ErrDisposed
	}
	if !v.scene.HasUserContent() {
		v.log.Debug("no objects to transform, controls stay disabled")
		return ErrNoContent
	}
	v.gizmo.SetForceInvisible(false)
	v.gizmo.SetEnabled(true)
	v.gizmo.SetVisible(true)
	v.log.Info("transform controls enabled")
	return nil
}

// DisableTransformControls deselects, disables and hides the gizmo.
func (v *Viewer) DisableTransformControls() {
	if v.IsDisposed() {
		return
	}
	if v.gizmo.Selected() != nil {
		v.DeselectObject()
	}
	v.gizmo.SetEnabled(false)
	v.gizmo.SetVisible(false)
	v.log.Info("transform controls disabled")
}

// KeepTransformControlsInactive disables the gizmo and forces it
// invisible so that a later selection does not show it.
func (v *Viewer) KeepTransformControlsInactive() {
	if v.IsDisposed() {
		return
	}
	v.gizmo.SetEnabled(false)
	v.gizmo.SetVisible(false)
	v.gizmo.SetForceInvisible(true)
	if v.gizmo.Selected() != nil {
		v.DeselectObject()
	}
}

// SetMultiAxisTranslation shows or hides the plane handles.
func (v *Viewer) SetMultiAxisTranslation(enabled bool) {
	if v.IsDisposed() {
		return
	}
	v.gizmo.SetShowPlanes(enabled)
}
