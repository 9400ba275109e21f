package viewer

import (
	"context"

	"github.com/chazu/plantview/pkg/consistency"
	"github.com/chazu/plantview/pkg/pathfind"
	"github.com/chazu/plantview/pkg/scene"
	"github.com/chazu/plantview/pkg/settings"
	"github.com/chazu/plantview/pkg/transform"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Gizmo is the transform gizmo the viewer drives.
type Gizmo interface {
	SelectObject(obj *scene.Object) bool
	DeselectObject()
	Selected() *scene.Object
	SetEnabled(enabled bool)
	SetVisible(visible bool)
	SetForceInvisible(v bool)
	ForceInvisible() bool
	SetSnap(snap transform.Snap)
	SetSize(size float64)
	SetShowPlanes(show bool)
	SetTarget(obj *scene.Object)
	SetSelectable(fn func(*scene.Object) bool)
	SetMode(mode transform.Mode)
	Mode() transform.Mode
	TransformData() (transform.Data, bool)
	Dispose()
}

// Pathfinder is the routing collaborator.
type Pathfinder interface {
	consistency.Pathfinder
	UpdatePathfindingWithConnections(ctx context.Context, conns []scene.Connection) (bool, error)
	GetPathColor(i int) string
}

// Router is implemented by pathfinders whose routing can run off the
// scene goroutine. Pathfinders without it are run synchronously.
type Router interface {
	Requests(data *scene.SceneData) ([]pathfind.Request, error)
	Apply(plan pathfind.Plan) ([]*scene.Object, error)
}

// GatewayInserter is implemented by pathfinders that can split a
// connection through a new gateway.
type GatewayInserter interface {
	InsertGateway(from, to string, p v3.Vec) (scene.GatewayInfo, error)
}

// PathfinderFactory binds a pathfinder to a freshly loaded scene.
type PathfinderFactory func(s *scene.Scene) Pathfinder

var (
	_ Pathfinder      = (*pathfind.Manager)(nil)
	_ Router          = (*pathfind.Manager)(nil)
	_ GatewayInserter = (*pathfind.Manager)(nil)
)

// autoPaths overlays a toggle on a read-only settings provider.
type autoPaths struct {
	settings.Provider
	auto *bool
}

func (a *autoPaths) AutoUpdatePaths() bool {
	if a.auto != nil {
		return *a.auto
	}
	return a.Provider.AutoUpdatePaths()
}

func (a *autoPaths) SetAutoUpdatePaths(enabled bool) error {
	a.auto = &enabled
	return nil
}
