package pathfind

import (
	"errors"
	"fmt"

	"github.com/chazu/plantview/pkg/geometry"
	"github.com/chazu/plantview/pkg/scene"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/google/uuid"
)

// ErrNotSegment is returned for objects that are not pipe segments.
var ErrNotSegment = errors.New("pathfind: not a pipe segment")

// HandleManualSegmentTransformation pins a hand-moved pipe segment. The
// first time, the segment leaves its polyline, a connector is placed at
// each of its ends and the path's connection is split into
// from -> connector and connector -> to. The router then draws two
// shorter paths that meet the pinned segment. Moving an already pinned
// segment only moves its connectors.
func (m *Manager) HandleManualSegmentTransformation(obj *scene.Object, data *scene.SceneData) error {
	if obj == nil || !obj.Meta.IsPipeSegment {
		return ErrNotSegment
	}
	if err := m.bound(data); err != nil {
		return fmt.Errorf("segment %s: %w", obj.UUID, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	a, b := segmentEnds(obj)
	if obj.Meta.SegmentID == "" {
		return m.moveConnectors(obj, a, b)
	}

	from, ok := m.scene.Lookup(obj.Meta.PathFrom)
	if !ok {
		return fmt.Errorf("segment %s path start %s: %w", obj.UUID, obj.Meta.PathFrom, scene.ErrNotFound)
	}
	if _, ok := m.scene.Lookup(obj.Meta.PathTo); !ok {
		return fmt.Errorf("segment %s path end %s: %w", obj.UUID, obj.Meta.PathTo, scene.ErrNotFound)
	}
	fp := from.WorldPosition()
	if b.Sub(fp).Length() < a.Sub(fp).Length() {
		a, b = b, a
	}

	world := obj.WorldPosition()
	if _, err := m.scene.Detach(obj.UUID); err != nil {
		return err
	}
	obj.SetPosition(world)
	c1, err := m.newConnector(a)
	if err != nil {
		return err
	}
	c2, err := m.newConnector(b)
	if err != nil {
		return err
	}

	d := m.scene.Data
	orig := scene.Connection{From: obj.Meta.PathFrom, To: obj.Meta.PathTo}
	d.RemoveConnections(orig)
	d.AddConnection(scene.Connection{From: orig.From, To: c1.UUID})
	d.AddConnection(scene.Connection{From: c2.UUID, To: orig.To})

	obj.Meta.SegmentID = ""
	obj.Meta.SegmentIndex = 0
	obj.Meta.PathFrom = c1.UUID
	obj.Meta.PathTo = c2.UUID
	m.scene.Attach(nil, obj)
	m.scene.SyncRecord(obj)
	m.scene.UpdateWorldBoundingBox(obj)

	m.log.Info("pipe segment pinned", "uuid", obj.UUID, "split", orig.String())
	return nil
}

// moveConnectors follows a pinned segment with its two connectors. Each
// connector keeps to the end it already sits nearest, so the routed halves
// never swap sides.
func (m *Manager) moveConnectors(obj *scene.Object, a, b v3.Vec) error {
	from, ok := m.scene.Lookup(obj.Meta.PathFrom)
	if !ok {
		return fmt.Errorf("connector %s: %w", obj.Meta.PathFrom, scene.ErrNotFound)
	}
	to, ok := m.scene.Lookup(obj.Meta.PathTo)
	if !ok {
		return fmt.Errorf("connector %s: %w", obj.Meta.PathTo, scene.ErrNotFound)
	}
	fp, tp := from.Position(), to.Position()
	if b.Sub(fp).Length()+a.Sub(tp).Length() < a.Sub(fp).Length()+b.Sub(tp).Length() {
		a, b = b, a
	}
	for _, end := range []struct {
		c *scene.Object
		p v3.Vec
	}{{from, a}, {to, b}} {
		end.c.SetPosition(end.p)
		m.scene.SyncRecord(end.c)
		m.scene.UpdateWorldBoundingBox(end.c)
	}
	m.scene.UpdateWorldBoundingBox(obj)
	return nil
}

func (m *Manager) newConnector(p v3.Vec) (*scene.Object, error) {
	shape, err := geometry.Sphere(scene.ConnectorRadius)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	c := scene.NewObject(id, "Connector "+id[:8], scene.KindMesh)
	c.Shape = shape
	c.Meta.ComponentType = scene.ComponentConnector
	c.SetPosition(p)
	m.scene.Attach(nil, c)
	m.scene.UpdateWorldBoundingBox(c)
	return c, nil
}

// segmentEnds returns the world positions of a segment's two ends. The
// segment's axis is its local Y.
func segmentEnds(obj *scene.Object) (v3.Vec, v3.Vec) {
	half := obj.Meta.Length / 2
	if half == 0 && obj.Shape != nil {
		half = obj.Shape.Dimensions()[1] / 2
	}
	w := obj.WorldMatrix()
	return w.MulPosition(v3.Vec{Y: -half}), w.MulPosition(v3.Vec{Y: half})
}
