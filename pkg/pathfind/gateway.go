package pathfind

import (
	"errors"
	"fmt"

	"github.com/chazu/plantview/pkg/geometry"
	"github.com/chazu/plantview/pkg/scene"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/google/uuid"
)

// ErrNoConnection is returned when a gateway is requested on a connection
// that does not exist.
var ErrNoConnection = errors.New("pathfind: no such connection")

// InsertGateway splits the connection between from and to through a new
// gateway at p. The returned info records the change so that deleting the
// gateway can revert it. Paths are not rerouted.
func (m *Manager) InsertGateway(from, to string, p v3.Vec) (scene.GatewayInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := m.scene.Data
	orig := scene.Connection{From: from, To: to}
	if !d.HasConnection(orig) {
		return scene.GatewayInfo{}, fmt.Errorf("insert gateway on %s: %w", orig, ErrNoConnection)
	}
	shape, err := geometry.Sphere(scene.GatewayRadius)
	if err != nil {
		return scene.GatewayInfo{}, err
	}

	id := uuid.NewString()
	g := scene.NewObject(id, "Gateway "+id[:8], scene.KindMesh)
	g.Shape = shape
	g.Meta.ComponentType = scene.ComponentGateway
	g.Meta.IsPipeJunction = true
	g.SetPosition(p)
	m.scene.Attach(nil, g)
	m.scene.UpdateWorldBoundingBox(g)

	info := scene.GatewayInfo{
		UUID: id,
		Connections: scene.ConnectionDelta{
			Added:   []scene.Connection{{From: from, To: id}, {From: id, To: to}},
			Removed: []scene.Connection{orig},
		},
	}
	d.RemoveConnections(info.Connections.Removed...)
	for _, c := range info.Connections.Added {
		d.AddConnection(c)
	}
	m.log.Info("gateway inserted", "uuid", id, "split", orig.String())
	return info, nil
}
