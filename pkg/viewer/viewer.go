// Package viewer wires the transform subsystem of the plant editor
// together: gizmo events come in, selection and transform sessions are
// tracked, the consistency engine runs when a gesture ends, and outward
// events go to the bus.
//
// A Viewer is not safe for concurrent use. The only background work is
// path routing; its results are applied by Flush, or by Run under
// Options.Lock when the host calls the viewer from several goroutines.
package viewer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/chazu/plantview/pkg/consistency"
	"github.com/chazu/plantview/pkg/events"
	"github.com/chazu/plantview/pkg/gizmo"
	"github.com/chazu/plantview/pkg/history"
	"github.com/chazu/plantview/pkg/pathfind"
	"github.com/chazu/plantview/pkg/scene"
	"github.com/chazu/plantview/pkg/settings"
	"github.com/chazu/plantview/pkg/tooltip"
	"github.com/chazu/plantview/pkg/transform"
)

var (
	// ErrInvalidSelection is returned for objects that cannot be selected:
	// nil, without a UUID, detached from the scene, or rejected by the
	// gizmo.
	ErrInvalidSelection = errors.New("viewer: invalid selection")
	// ErrDisposed is returned by a viewer used after Dispose.
	ErrDisposed = errors.New("viewer: disposed")
	// ErrNoContent is returned when enabling controls on a scene with
	// nothing but base scenery.
	ErrNoContent = errors.New("viewer: no transformable content")
)

// DefaultTick is the Run loop period.
const DefaultTick = 16 * time.Millisecond

// Options configures a Viewer. Zero fields get working defaults.
type Options struct {
	Scene         *scene.Scene
	Gizmo         Gizmo
	Tooltip       tooltip.Overlay
	Camera        tooltip.Projector
	NewPathfinder PathfinderFactory
	Settings      settings.Provider
	Bus           *events.Bus
	Recorder      history.Recorder
	// Notifier receives the completion signal in addition to the bus.
	Notifier     events.Notifier
	Logger       *slog.Logger
	TickInterval time.Duration
	// Lock, if set, is held by Run while it applies routing results. Hosts
	// that call the viewer from several goroutines pass the lock they
	// already serialize those calls with.
	Lock sync.Locker
}

// Viewer is the transform orchestrator.
type Viewer struct {
	log           *slog.Logger
	bus           *events.Bus
	camera        tooltip.Projector
	settings      settings.Provider
	recorder      history.Recorder
	notifier      events.Notifier
	newPathfinder PathfinderFactory
	tick          time.Duration
	lock          sync.Locker

	scene      *scene.Scene
	gizmo      Gizmo
	tooltip    tooltip.Overlay
	pathfinder Pathfinder
	engine     *consistency.Engine
	reverter   *consistency.Reverter

	session   transform.Session
	selection Selection
	gateways  map[string]scene.GatewayInfo

	mu        sync.Mutex
	destroyed bool
	gen       uint64
	pending   *pathResult
	wg        sync.WaitGroup
}

// New returns a viewer over opts.Scene.
func New(opts Options) (*Viewer, error) {
	v := &Viewer{
		log:           opts.Logger,
		bus:           opts.Bus,
		camera:        opts.Camera,
		settings:      opts.Settings,
		recorder:      opts.Recorder,
		newPathfinder: opts.NewPathfinder,
		tick:          opts.TickInterval,
		lock:          opts.Lock,
		scene:         opts.Scene,
		gizmo:         opts.Gizmo,
		tooltip:       opts.Tooltip,
		gateways:      make(map[string]scene.GatewayInfo),
	}
	if v.log == nil {
		v.log = slog.Default()
	}
	if v.bus == nil {
		v.bus = events.NewBus()
	}
	v.notifier = v.bus
	if opts.Notifier != nil {
		v.notifier = events.Multi{v.bus, opts.Notifier}
	}
	switch p := v.settings.(type) {
	case nil:
		v.settings = settings.NewMemory(settings.Default())
	case settings.Writer:
	default:
		v.settings = &autoPaths{Provider: p}
	}
	if v.newPathfinder == nil {
		log := v.log
		v.newPathfinder = func(s *scene.Scene) Pathfinder {
			return pathfind.New(s, pathfind.Options{Logger: log})
		}
	}
	if v.tick <= 0 {
		v.tick = DefaultTick
	}
	if v.scene == nil {
		s, err := scene.Load(nil)
		if err != nil {
			return nil, err
		}
		v.scene = s
	}
	if v.gizmo == nil {
		v.gizmo = gizmo.New()
	}
	if v.tooltip == nil {
		v.tooltip = tooltip.NewPanel()
	}
	v.wire()
	return v, nil
}

// wire binds the scene-dependent collaborators to the current scene.
func (v *Viewer) wire() {
	v.pathfinder = v.newPathfinder(v.scene)
	var pf consistency.Pathfinder
	if v.pathfinder != nil {
		pf = v.pathfinder
	}
	v.engine = consistency.New(consistency.Options{
		Pathfinder: pf,
		SceneOps:   v.scene,
		Recorder:   v.recorder,
		Gizmo:      v.gizmo,
		Settings:   v.settings,
		Notifier:   v.notifier,
		Scheduler:  v,
		Logger:     v.log,
	})
	v.reverter = &consistency.Reverter{
		Pathfinder: pf,
		Scheduler:  v,
		Scene:      v.scene,
		Logger:     v.log,
	}
}

// Scene returns the live scene.
func (v *Viewer) Scene() *scene.Scene { return v.scene }

// Data returns the shared document.
func (v *Viewer) Data() *scene.SceneData { return v.scene.Data }

// Bus returns the outward event bus.
func (v *Viewer) Bus() *events.Bus { return v.bus }

// Gizmo returns the gizmo, or nil after Dispose.
func (v *Viewer) Gizmo() Gizmo { return v.gizmo }

// Tooltip returns the info overlay, or nil after Dispose.
func (v *Viewer) Tooltip() tooltip.Overlay { return v.tooltip }

// Pathfinder returns the routing collaborator, or nil after Dispose.
func (v *Viewer) Pathfinder() Pathfinder { return v.pathfinder }

// Settings returns the provider the viewer reads.
func (v *Viewer) Settings() settings.Provider { return v.settings }

// SetCamera replaces the camera used for tooltip placement.
func (v *Viewer) SetCamera(cam tooltip.Projector) { v.camera = cam }

// Session exposes the transform session, mainly for inspection.
func (v *Viewer) Session() *transform.Session { return &v.session }

// LoadSceneData replaces the scene with one built from d. The selection,
// session and known gateways are dropped and controls are kept inactive
// until EnableTransformControls.
func (v *Viewer) LoadSceneData(d *scene.SceneData) error {
	if v.IsDisposed() {
		return ErrDisposed
	}
	s, err := scene.Load(d)
	if err != nil {
		return err
	}
	v.DeselectObject()
	v.session.Cancel()
	v.scene = s
	v.gateways = make(map[string]scene.GatewayInfo)
	v.mu.Lock()
	v.gen++ // results for the old scene are stale
	v.pending = nil
	v.mu.Unlock()
	v.wire()
	s.RecomputeWorldBoundingBoxes()
	v.KeepTransformControlsInactive()
	v.bus.Emit(events.SceneChangedEvent{Reason: "scene-loaded"})
	v.log.Info("scene loaded", "objects", s.Len(), "connections", len(s.Data.Connections))
	return nil
}

// Run applies finished path routing on every tick until ctx is done or
// the viewer is disposed.
func (v *Viewer) Run(ctx context.Context) error {
	t := time.NewTicker(v.tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if v.IsDisposed() {
				return nil
			}
			if v.lock != nil {
				v.lock.Lock()
			}
			v.ApplyPending()
			if v.lock != nil {
				v.lock.Unlock()
			}
		}
	}
}

// IsDisposed reports whether Dispose was called.
func (v *Viewer) IsDisposed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.destroyed
}

// Dispose stops the viewer. Gizmo, tooltip and routing are released; a
// failure in one step is logged and the rest still run. Routing still in
// flight is discarded when it finishes.
func (v *Viewer) Dispose() {
	v.mu.Lock()
	if v.destroyed {
		v.mu.Unlock()
		return
	}
	v.destroyed = true
	v.pending = nil
	v.mu.Unlock()

	v.guard("gizmo cleanup", func() {
		if v.gizmo == nil {
			return
		}
		v.gizmo.DeselectObject()
		v.gizmo.SetEnabled(false)
		v.gizmo.SetVisible(false)
		v.gizmo.Dispose()
	})
	v.gizmo = nil
	v.guard("tooltip cleanup", func() {
		if v.tooltip != nil {
			v.tooltip.Dispose()
		}
	})
	v.tooltip = nil
	v.session.Cancel()
	v.selection = Selection{}
	v.gateways = nil
	v.engine = nil
	v.reverter = nil
	v.pathfinder = nil
	v.log.Info("viewer disposed")
}

// guard runs fn, logging a panic instead of propagating it.
func (v *Viewer) guard(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			v.log.Error("step failed", "step", what, "panic", r)
		}
	}()
	fn()
}
