package consistency

import (
	"context"
	"log/slog"

	"github.com/chazu/plantview/pkg/scene"
)

// Reverter undoes the connectivity change recorded when a gateway was
// inserted into a pipe run.
type Reverter struct {
	Pathfinder Pathfinder
	Scheduler  Scheduler
	// Scene, when set, is the live graph bound to the document; the
	// gateway's node is detached from it as well.
	Scene  *scene.Scene
	Logger *slog.Logger
}

// RevertResult summarizes one reversion.
type RevertResult struct {
	Restored    int  // removed connections put back
	Dropped     int  // connections matching an added entry
	NodeRemoved bool // gateway record found under the root
	Report      Report
}

// Revert restores info's removed connections, drops its added ones,
// removes the gateway from the scene root, then refreshes world boxes and
// paths. Connections are compared undirected. Running it twice for the
// same gateway leaves the connection list unchanged.
func (rv *Reverter) Revert(ctx context.Context, info scene.GatewayInfo, data *scene.SceneData) RevertResult {
	log := rv.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("gateway", info.UUID)

	var res RevertResult
	if data == nil {
		log.Warn("gateway reversion without scene data")
		return res
	}

	runStep(&res.Report, log, StepRestore, func() (string, error) {
		for _, c := range info.Connections.Removed {
			if data.AddConnection(c) {
				res.Restored++
			}
		}
		res.Dropped = data.RemoveConnections(info.Connections.Added...)
		return "", nil
	})

	runStep(&res.Report, log, StepRemoveGateway, func() (string, error) {
		res.NodeRemoved = data.RemoveRootChild(info.UUID)
		if rv.Scene != nil {
			if obj, ok := rv.Scene.Lookup(info.UUID); ok && obj.Parent() == rv.Scene.Root {
				if _, err := rv.Scene.Detach(info.UUID); err != nil {
					return "", err
				}
			}
		}
		if !res.NodeRemoved {
			return "gateway not under root", nil
		}
		return "", nil
	})

	runStep(&res.Report, log, StepBoundingBoxes, func() (string, error) {
		if rv.Pathfinder == nil {
			return missing(log, "pathfinder", StepBoundingBoxes)
		}
		return "", rv.Pathfinder.RecomputeWorldBoundingBoxes(data)
	})

	runStep(&res.Report, log, StepPaths, func() (string, error) {
		return recomputePaths(ctx, log, rv.Scheduler, rv.Pathfinder, data)
	})

	log.Info("gateway reverted", "restored", res.Restored, "dropped", res.Dropped, "removed", res.NodeRemoved)
	return res
}
