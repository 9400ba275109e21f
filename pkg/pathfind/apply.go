package pathfind

import (
	"context"
	"fmt"

	"github.com/chazu/plantview/pkg/geometry"
	"github.com/chazu/plantview/pkg/scene"
	"github.com/google/uuid"
)

// Apply replaces every generated polyline with the paths in plan and
// returns the new polylines.
func (m *Manager) Apply(plan Plan) ([]*scene.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, old := range m.polylines() {
		if _, err := m.scene.Detach(old.UUID); err != nil {
			return nil, fmt.Errorf("removing %s: %w", old.Name, err)
		}
	}

	out := make([]*scene.Object, 0, len(plan.Paths))
	for _, p := range plan.Paths {
		poly, err := m.buildPolyline(p)
		if err != nil {
			return out, err
		}
		out = append(out, poly)
	}
	return out, nil
}

func (m *Manager) buildPolyline(p Path) (*scene.Object, error) {
	color := m.GetPathColor(p.Index)
	poly := scene.NewObject(uuid.NewString(), fmt.Sprintf("%s%d", PolylinePrefix, p.Index+1), scene.KindObject3D)
	poly.Meta.PathFrom = p.Conn.From
	poly.Meta.PathTo = p.Conn.To
	poly.Meta.PathIndex = p.Index
	scene.RecordOf(poly).UserData.Color = color
	m.scene.Attach(nil, poly)

	for i, leg := range p.Legs {
		length := leg.Length()
		shape, err := geometry.Cylinder(length, m.radius)
		if err != nil {
			return poly, fmt.Errorf("segment %d of %s: %w", i, poly.Name, err)
		}
		seg := scene.NewObject(uuid.NewString(), fmt.Sprintf("Pipe Segment %d.%d", p.Index+1, i+1), scene.KindMesh)
		seg.Shape = shape
		seg.SetPosition(leg.Midpoint())
		seg.SetRotation(legRotation(leg))
		seg.Meta = scene.Metadata{
			IsPipeSegment: true,
			SegmentID:     poly.UUID,
			SegmentIndex:  i,
			PathFrom:      p.Conn.From,
			PathTo:        p.Conn.To,
			PathIndex:     p.Index,
			Length:        length,
		}
		scene.RecordOf(seg).UserData.Color = color
		m.scene.Attach(poly, seg)
		m.scene.UpdateWorldBoundingBox(seg)
	}
	m.scene.UpdateWorldBoundingBox(poly)
	return poly, nil
}

// UpdatePathfindingAfterTransform reroutes every connection in data.
func (m *Manager) UpdatePathfindingAfterTransform(ctx context.Context, data *scene.SceneData) error {
	reqs, err := m.Requests(data)
	if err != nil {
		return err
	}
	plan, err := Route(ctx, reqs)
	if err != nil {
		return err
	}
	polys, err := m.Apply(plan)
	if err != nil {
		return fmt.Errorf("applying paths: %w", err)
	}
	m.log.Debug("paths updated", "paths", len(polys))
	return nil
}

// UpdatePathfindingWithConnections replaces the document's connections
// with conns, dropping undirected duplicates, and reroutes. It reports
// whether the new paths were applied.
func (m *Manager) UpdatePathfindingWithConnections(ctx context.Context, conns []scene.Connection) (bool, error) {
	m.mu.Lock()
	data := m.scene.Data
	data.Connections = make([]scene.Connection, 0, len(conns))
	for _, c := range conns {
		data.AddConnection(c)
	}
	m.mu.Unlock()

	if err := m.UpdatePathfindingAfterTransform(ctx, data); err != nil {
		return false, err
	}
	return true, nil
}
