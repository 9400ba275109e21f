package viewer

import (
	"context"

	"github.com/chazu/plantview/pkg/consistency"
	"github.com/chazu/plantview/pkg/events"
	"github.com/chazu/plantview/pkg/pathfind"
	"github.com/chazu/plantview/pkg/scene"
	"github.com/chazu/plantview/pkg/settings"
)

// pathResult is a finished background routing run.
type pathResult struct {
	gen  uint64
	plan pathfind.Plan
	err  error
}

var _ consistency.Scheduler = (*Viewer)(nil)

// SchedulePathUpdate starts a routing run. Endpoint positions are read
// now; the route is computed on a goroutine and applied by the next Run
// tick or Flush. A run finishing after Dispose, or after a newer run was
// scheduled, is dropped. Pathfinders that cannot route in the background
// run synchronously.
func (v *Viewer) SchedulePathUpdate(ctx context.Context, data *scene.SceneData) {
	v.mu.Lock()
	if v.destroyed || v.pathfinder == nil {
		v.mu.Unlock()
		v.log.Warn("path update skipped: no pathfinder")
		return
	}
	v.gen++
	gen := v.gen
	v.mu.Unlock()

	router, ok := v.pathfinder.(Router)
	if !ok {
		if err := v.pathfinder.UpdatePathfindingAfterTransform(ctx, data); err != nil {
			v.log.Error("path update failed", "err", err)
		}
		return
	}
	reqs, err := router.Requests(data)
	if err != nil {
		v.log.Error("path update failed", "err", err)
		return
	}

	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		plan, err := pathfind.Route(ctx, reqs)
		v.mu.Lock()
		defer v.mu.Unlock()
		if v.destroyed || gen != v.gen {
			return
		}
		v.pending = &pathResult{gen: gen, plan: plan, err: err}
	}()
}

// ApplyPending applies the newest finished routing run, if any, and
// reports whether one was applied.
func (v *Viewer) ApplyPending() bool {
	v.mu.Lock()
	res := v.pending
	v.pending = nil
	stale := res != nil && (v.destroyed || res.gen != v.gen)
	v.mu.Unlock()
	if res == nil {
		return false
	}
	if stale {
		v.log.Debug("discarding stale path result", "gen", res.gen)
		return false
	}
	if res.err != nil {
		v.log.Error("path routing failed", "err", res.err)
		return false
	}
	router, ok := v.pathfinder.(Router)
	if !ok {
		return false
	}
	polys, err := router.Apply(res.plan)
	if err != nil {
		v.log.Error("applying paths failed", "err", err)
		return false
	}
	v.bus.Emit(events.SceneChangedEvent{Reason: "paths-updated"})
	v.log.Debug("paths applied", "paths", len(polys))
	return true
}

// Flush waits for routing in flight and applies the result.
func (v *Viewer) Flush() bool {
	v.wg.Wait()
	if v.IsDisposed() {
		return false
	}
	return v.ApplyPending()
}

// UpdatePaths reroutes the current document.
func (v *Viewer) UpdatePaths(ctx context.Context) {
	if v.IsDisposed() {
		return
	}
	v.SchedulePathUpdate(ctx, v.scene.Data)
}

// ToggleAutoUpdatePaths flips automatic rerouting after transforms and
// returns the new state. The state is persisted when the settings are
// writable; turning it on reroutes at once.
func (v *Viewer) ToggleAutoUpdatePaths(ctx context.Context) bool {
	next := !settings.AutoUpdatePaths(v.settings, v.log)
	if w, ok := v.settings.(settings.Writer); ok {
		if err := w.SetAutoUpdatePaths(next); err != nil {
			v.log.Warn("saving autoUpdatePaths failed", "err", err)
		}
	}
	if next {
		v.log.Info("paths will be recalculated after transforms")
		v.UpdatePaths(ctx)
	} else {
		v.log.Info("path recalculation disabled")
	}
	return next
}

// UpdatePathfindingWithConnections replaces the document's connections and
// reroutes synchronously. On success a "connections-update" event is
// emitted, unless the viewer was disposed or another routing run was
// scheduled meanwhile.
func (v *Viewer) UpdatePathfindingWithConnections(ctx context.Context, conns []scene.Connection) (bool, error) {
	v.mu.Lock()
	if v.destroyed {
		v.mu.Unlock()
		return false, ErrDisposed
	}
	if v.pathfinder == nil {
		v.mu.Unlock()
		return false, nil
	}
	v.gen++
	gen := v.gen
	v.pending = nil
	v.mu.Unlock()

	ok, err := v.pathfinder.UpdatePathfindingWithConnections(ctx, conns)
	if err != nil {
		v.log.Error("connection update failed", "err", err)
		return false, err
	}

	v.mu.Lock()
	stale := v.destroyed || gen != v.gen
	v.mu.Unlock()
	if stale || !ok {
		return false, nil
	}
	v.bus.Emit(events.SceneDataUpdatedEvent{
		Action:      "connections-update",
		Connections: append([]scene.Connection(nil), conns...),
		SceneData:   v.scene.Data,
	})
	return true, nil
}

// GetPathColor returns the color of path i.
func (v *Viewer) GetPathColor(i int) string {
	if v.pathfinder == nil {
		return pathfind.DefaultColor
	}
	return v.pathfinder.GetPathColor(i)
}
