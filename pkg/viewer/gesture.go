package viewer

import (
	"context"
	"errors"

	"github.com/chazu/plantview/pkg/consistency"
	"github.com/chazu/plantview/pkg/events"
	"github.com/chazu/plantview/pkg/scene"
	"github.com/chazu/plantview/pkg/settings"
	"github.com/chazu/plantview/pkg/tooltip"
	"github.com/chazu/plantview/pkg/transform"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// OnTransformStart opens a session for obj in the gizmo's current mode.
// A nil obj means the gizmo's selection.
func (v *Viewer) OnTransformStart(obj *scene.Object) {
	if v.IsDisposed() {
		return
	}
	if obj == nil {
		obj = v.gizmo.Selected()
	}
	if obj == nil {
		v.log.Warn("transform start without a selected object")
		return
	}
	v.session.Start(obj, v.gizmo.Mode())
}

// OnTransform handles a live update: the tooltip follows the object if it
// describes it, and the current transform is published.
func (v *Viewer) OnTransform() {
	if v.IsDisposed() {
		return
	}
	data, ok := v.gizmo.TransformData()
	if !ok {
		return
	}
	if obj := v.tooltip.Selected(); obj != nil && obj.UUID == data.UUID {
		v.tooltip.Update(tooltip.CornerFor(obj, v.camera))
	}
	v.bus.Emit(events.TransformUpdateEvent{Data: data})
}

// OnTransformEnd runs the consistency engine for the object of the
// finished gesture.
func (v *Viewer) OnTransformEnd(ctx context.Context) consistency.Report {
	if v.IsDisposed() {
		return consistency.Report{}
	}
	obj := v.session.Object()
	if obj == nil {
		obj = v.gizmo.Selected()
	}
	return v.engine.OnTransformEnd(ctx, obj, v.scene.Data, &v.session)
}

// OnModeChange follows a gizmo mode switch.
func (v *Viewer) OnModeChange(mode, previous transform.Mode) {
	if v.IsDisposed() {
		return
	}
	v.session.SetMode(mode)
	v.bus.Emit(events.TransformModeChangedEvent{Mode: mode, Previous: previous})
}

// SetMode switches the gizmo mode and reports the change.
func (v *Viewer) SetMode(mode transform.Mode) {
	if v.IsDisposed() {
		return
	}
	prev := v.gizmo.Mode()
	if prev == mode {
		return
	}
	v.gizmo.SetMode(mode)
	v.OnModeChange(mode, prev)
}

// Transform performs a complete gesture on obj without a pointer: select,
// switch mode, start, set the value, publish the update and end. Rotation
// values are radians.
func (v *Viewer) Transform(ctx context.Context, obj *scene.Object, mode transform.Mode, value v3.Vec) (consistency.Report, error) {
	if v.IsDisposed() {
		return consistency.Report{}, ErrDisposed
	}
	if v.gizmo.Selected() != obj {
		if err := v.SelectObject(obj); err != nil {
			return consistency.Report{}, err
		}
	}
	v.SetMode(mode)
	v.OnTransformStart(obj)
	switch mode {
	case transform.Translate:
		obj.SetPosition(value)
	case transform.Rotate:
		obj.SetRotation(value)
	case transform.Scale:
		obj.SetScale(value)
	}
	v.OnTransform()
	return v.OnTransformEnd(ctx), nil
}

// Commit reconciles derived state after obj changed outside a gesture,
// such as an undo. Nothing is recorded to history.
func (v *Viewer) Commit(ctx context.Context, obj *scene.Object) consistency.Report {
	if v.IsDisposed() {
		return consistency.Report{}
	}
	return v.engine.OnTransformEnd(ctx, obj, v.scene.Data, nil)
}

// InsertGateway splits the connection between from and to through a new
// gateway at p and remembers how to revert it.
func (v *Viewer) InsertGateway(ctx context.Context, from, to string, p v3.Vec) (scene.GatewayInfo, error) {
	if v.IsDisposed() {
		return scene.GatewayInfo{}, ErrDisposed
	}
	ins, ok := v.pathfinder.(GatewayInserter)
	if !ok {
		return scene.GatewayInfo{}, errors.New("viewer: pathfinder cannot insert gateways")
	}
	info, err := ins.InsertGateway(from, to, p)
	if err != nil {
		return scene.GatewayInfo{}, err
	}
	v.RegisterGateway(info)
	v.bus.Emit(events.SceneDataUpdatedEvent{
		Action:      "gateway-inserted",
		Connections: append([]scene.Connection(nil), v.scene.Data.Connections...),
		SceneData:   v.scene.Data,
	})
	v.SchedulePathUpdate(ctx, v.scene.Data)
	return info, nil
}

// RegisterGateway records info so that removing the gateway reverts it.
func (v *Viewer) RegisterGateway(info scene.GatewayInfo) {
	if v.gateways != nil {
		v.gateways[info.UUID] = info
	}
}

// Gateway returns the recorded change for a gateway.
func (v *Viewer) Gateway(uuid string) (scene.GatewayInfo, bool) {
	info, ok := v.gateways[uuid]
	return info, ok
}

// OnObjectRemoved handles deletion of the object with the given UUID. A
// known gateway has its connection change reverted; any other object is
// detached and its connections dropped.
func (v *Viewer) OnObjectRemoved(ctx context.Context, uuid string) error {
	if v.IsDisposed() {
		return ErrDisposed
	}
	if sel, ok := v.selection.Object(); ok && sel.UUID == uuid {
		v.DeselectObject()
	}
	data := v.scene.Data

	if info, ok := v.gateways[uuid]; ok {
		delete(v.gateways, uuid)
		v.reverter.Revert(ctx, info, data)
		v.bus.Emit(events.SceneDataUpdatedEvent{
			Action:      "gateway-reverted",
			Connections: append([]scene.Connection(nil), data.Connections...),
			SceneData:   data,
		})
		v.bus.Emit(events.SceneChangedEvent{Reason: "object-removed", UUID: uuid})
		return nil
	}

	if _, err := v.scene.Detach(uuid); err != nil {
		return err
	}
	dropped := data.RemoveConnectionsTouching(uuid)
	if v.pathfinder != nil {
		if err := v.pathfinder.RecomputeWorldBoundingBoxes(data); err != nil {
			v.log.Error("recomputing world boxes failed", "err", err)
		}
	}
	if dropped > 0 && settings.AutoUpdatePaths(v.settings, v.log) {
		v.SchedulePathUpdate(ctx, data)
	}
	v.bus.Emit(events.SceneChangedEvent{Reason: "object-removed", UUID: uuid})
	return nil
}
