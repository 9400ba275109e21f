package viewer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chazu/plantview/pkg/consistency"
	"github.com/chazu/plantview/pkg/events"
	"github.com/chazu/plantview/pkg/history"
	"github.com/chazu/plantview/pkg/pathfind"
	"github.com/chazu/plantview/pkg/scene"
	"github.com/chazu/plantview/pkg/settings"
	"github.com/chazu/plantview/pkg/tooltip"
	"github.com/chazu/plantview/pkg/transform"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// fixture is a viewer over two pumps joined by one connection, standing
// on a ground slab.
type fixture struct {
	v       *Viewer
	a, b    string
	ground  string
	stack   *history.Stack
	events  map[events.EventType][]events.Event
	tooltip *tooltip.Panel
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	b := scene.NewBuilder()
	f := &fixture{
		ground: b.Ground(40, 40),
		a:      b.Equipment("Pump A", v3.Vec{X: 1, Y: 2, Z: 1}, -5, 0),
		b:      b.Equipment("Pump B", v3.Vec{X: 1, Y: 2, Z: 1}, 5, 0),
		stack:  history.NewStack(0),
		events: make(map[events.EventType][]events.Event),
	}
	b.Connect(f.a, f.b)
	d, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	s, err := scene.Load(d)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	f.tooltip = tooltip.NewPanel()
	opts.Scene = s
	opts.Tooltip = f.tooltip
	if opts.Recorder == nil {
		opts.Recorder = f.stack
	}
	v, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, et := range []events.EventType{
		events.SceneDataUpdated, events.ObjectSelected, events.TransformUpdate,
		events.TransformModeChanged, events.SceneChanged, events.SceneUpdateComplete,
	} {
		et := et
		v.Bus().On(et, func(e events.Event) { f.events[et] = append(f.events[et], e) })
	}
	v.InitTransformControls()
	f.v = v
	return f
}

func (f *fixture) obj(t *testing.T, id string) *scene.Object {
	t.Helper()
	obj, ok := f.v.Scene().Lookup(id)
	if !ok {
		t.Fatalf("object %s not in scene", id)
	}
	return obj
}

func polylines(v *Viewer) []*scene.Object {
	return v.Pathfinder().(*pathfind.Manager).Polylines()
}

func TestSelectRejectsInvalid(t *testing.T) {
	f := newFixture(t, Options{})
	orphan := scene.NewObject("orphan", "Orphan", scene.KindMesh)
	noID := scene.NewObject("", "Nameless", scene.KindMesh)

	tests := []struct {
		name string
		obj  *scene.Object
	}{
		{"nil", nil},
		{"no uuid", noID},
		{"detached", orphan},
		{"base ground", f.obj(t, f.ground)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.v.SelectObject(tt.obj)
			if !errors.Is(err, ErrInvalidSelection) {
				t.Errorf("SelectObject = %v, want ErrInvalidSelection", err)
			}
			if !f.v.Selection().None() {
				t.Error("selection changed")
			}
		})
	}
}

func TestSelectShowsControls(t *testing.T) {
	f := newFixture(t, Options{})
	if err := f.v.SelectByUUID(f.a); err != nil {
		t.Fatalf("SelectByUUID: %v", err)
	}
	obj := f.obj(t, f.a)

	if sel, ok := f.v.Selection().Object(); !ok || sel != obj {
		t.Errorf("selection = %v, want pump A", sel)
	}
	g := f.v.Gizmo()
	if g.Selected() != obj {
		t.Error("gizmo not attached to pump A")
	}
	if f.tooltip.Selected() != obj {
		t.Error("tooltip not showing pump A")
	}
	attr, ok := obj.Meta.Attributes["info"]
	if !ok || attr.Key != "Type" || attr.Value != "component" {
		t.Errorf("default attributes = %+v", obj.Meta.Attributes)
	}
	if rec := f.v.Data().FindRecord(f.a); rec == nil || len(rec.UserData.Attributes) == 0 {
		t.Error("default attributes not written back to the document")
	}
	if got := len(f.events[events.ObjectSelected]); got != 1 {
		t.Errorf("objectSelected events = %d, want 1", got)
	}

	f.v.DeselectObject()
	if !f.v.Selection().None() || f.tooltip.Selected() != nil {
		t.Error("deselect left state behind")
	}
	last := f.events[events.ObjectSelected][len(f.events[events.ObjectSelected])-1]
	if last.(events.ObjectSelectedEvent).Object != nil {
		t.Error("deselect event carries an object")
	}
}

func TestSelectUnknownUUID(t *testing.T) {
	f := newFixture(t, Options{})
	if err := f.v.SelectByUUID("nope"); !errors.Is(err, scene.ErrNotFound) {
		t.Errorf("SelectByUUID = %v, want ErrNotFound", err)
	}
}

func TestEnableTransformControls(t *testing.T) {
	f := newFixture(t, Options{})
	if err := f.v.EnableTransformControls(); err != nil {
		t.Fatalf("EnableTransformControls: %v", err)
	}

	b := scene.NewBuilder()
	b.Ground(10, 10)
	d, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := f.v.LoadSceneData(d); err != nil {
		t.Fatalf("LoadSceneData: %v", err)
	}
	if err := f.v.EnableTransformControls(); !errors.Is(err, ErrNoContent) {
		t.Errorf("EnableTransformControls on bare ground = %v, want ErrNoContent", err)
	}
}

func TestForceInvisibleSelection(t *testing.T) {
	f := newFixture(t, Options{})
	f.v.KeepTransformControlsInactive()
	if err := f.v.SelectByUUID(f.a); err != nil {
		t.Fatalf("SelectByUUID: %v", err)
	}
	type visibility interface{ Visible() bool }
	if g, ok := f.v.Gizmo().(visibility); ok && g.Visible() {
		t.Error("gizmo visible while forced invisible")
	}
	if err := f.v.EnableTransformControls(); err != nil {
		t.Fatalf("EnableTransformControls: %v", err)
	}
	if g, ok := f.v.Gizmo().(visibility); ok && !g.Visible() {
		t.Error("gizmo still hidden after enable")
	}
}

func TestTransformGesture(t *testing.T) {
	var completed int
	f := newFixture(t, Options{
		Notifier: events.NotifierFunc(func(time.Time) { completed++ }),
	})
	obj := f.obj(t, f.a)

	r, err := f.v.Transform(context.Background(), obj, transform.Translate, v3.Vec{X: -4, Y: -3, Z: 2})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if fails := r.Failures(); len(fails) > 0 {
		t.Fatalf("failed steps: %v", r)
	}

	if got := obj.Position(); got != (v3.Vec{X: -4, Y: 0, Z: 2}) {
		t.Errorf("position = %v, want clamped to the surface", got)
	}
	if f.stack.Len() != 1 {
		t.Errorf("history = %d records, want 1", f.stack.Len())
	}
	if f.v.Session().Active() {
		t.Error("session still active after the gesture")
	}
	if got := len(f.events[events.TransformUpdate]); got != 1 {
		t.Errorf("transformUpdate events = %d, want 1", got)
	}
	if got := len(f.events[events.SceneUpdateComplete]); got != 1 || completed != 1 {
		t.Errorf("completion signals = %d on bus, %d on notifier, want 1 each", got, completed)
	}
	rec := f.v.Data().FindRecord(f.a)
	if rec.Position != (scene.Triple{-4, 0, 2}) {
		t.Errorf("document position = %v", rec.Position)
	}

	if !f.v.Flush() {
		t.Fatal("Flush applied nothing")
	}
	if got := len(polylines(f.v)); got != 1 {
		t.Errorf("polylines = %d, want 1", got)
	}
}

func TestModeChangeEmits(t *testing.T) {
	f := newFixture(t, Options{})
	obj := f.obj(t, f.b)

	if _, err := f.v.Transform(context.Background(), obj, transform.Rotate, v3.Vec{Y: 0.5}); err != nil {
		t.Fatalf("Transform: %v", err)
	}
	got := f.events[events.TransformModeChanged]
	if len(got) != 1 {
		t.Fatalf("mode events = %d, want 1", len(got))
	}
	e := got[0].(events.TransformModeChangedEvent)
	if e.Mode != transform.Rotate || e.Previous != transform.Translate {
		t.Errorf("mode event = %+v", e)
	}

	f.v.SetMode(transform.Rotate)
	if len(f.events[events.TransformModeChanged]) != 1 {
		t.Error("setting the same mode emitted again")
	}
}

func TestTooltipCornerFollowsObject(t *testing.T) {
	cam := scene.NewPerspectiveCamera(v3.Vec{Y: 5, Z: 20}, v3.Vec{}, 50, 1.5)
	f := newFixture(t, Options{Camera: cam})

	if err := f.v.SelectByUUID(f.a); err != nil {
		t.Fatalf("SelectByUUID: %v", err)
	}
	if got := f.tooltip.Corner(); got != tooltip.TopRight {
		t.Errorf("corner for left-hand pump = %s, want top-right", got)
	}

	f.v.OnTransformStart(nil)
	f.obj(t, f.a).SetPosition(v3.Vec{X: 5, Y: 1})
	f.v.OnTransform()
	if got := f.tooltip.Corner(); got != tooltip.TopLeft {
		t.Errorf("corner after moving right = %s, want top-left", got)
	}
}

func TestGatewayRemovalReverts(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	info, err := f.v.InsertGateway(ctx, f.a, f.b, v3.Vec{Y: 1})
	if err != nil {
		t.Fatalf("InsertGateway: %v", err)
	}
	if got := len(f.v.Data().Connections); got != 2 {
		t.Fatalf("connections after insert = %d, want 2", got)
	}
	var kept events.SceneDataUpdatedEvent
	for _, e := range f.events[events.SceneDataUpdated] {
		if ev := e.(events.SceneDataUpdatedEvent); ev.Action == "gateway-inserted" {
			kept = ev
		}
	}
	f.v.Flush()
	if got := len(polylines(f.v)); got != 2 {
		t.Errorf("polylines after insert = %d, want 2", got)
	}

	if err := f.v.OnObjectRemoved(ctx, info.UUID); err != nil {
		t.Fatalf("OnObjectRemoved: %v", err)
	}
	conns := f.v.Data().Connections
	if len(conns) != 1 || !conns[0].Equal(scene.Connection{From: f.a, To: f.b}) {
		t.Errorf("connections = %v, want [%s-%s]", conns, f.a, f.b)
	}
	if _, ok := f.v.Scene().Lookup(info.UUID); ok {
		t.Error("gateway still in scene")
	}
	if _, ok := f.v.Gateway(info.UUID); ok {
		t.Error("gateway still registered")
	}
	actions := map[string]bool{}
	for _, e := range f.events[events.SceneDataUpdated] {
		actions[e.(events.SceneDataUpdatedEvent).Action] = true
	}
	if !actions["gateway-inserted"] || !actions["gateway-reverted"] {
		t.Errorf("sceneDataUpdated actions = %v", actions)
	}
	// A delivered event keeps the connections it was sent with.
	if len(kept.Connections) != 2 || !kept.Connections[0].Touches(info.UUID) || !kept.Connections[1].Touches(info.UUID) {
		t.Errorf("inserted event connections changed to %v", kept.Connections)
	}
	f.v.Flush()
	if got := len(polylines(f.v)); got != 1 {
		t.Errorf("polylines after revert = %d, want 1", got)
	}
}

func TestRemoveObjectDropsConnections(t *testing.T) {
	f := newFixture(t, Options{})
	if err := f.v.SelectByUUID(f.a); err != nil {
		t.Fatalf("SelectByUUID: %v", err)
	}
	if err := f.v.OnObjectRemoved(context.Background(), f.a); err != nil {
		t.Fatalf("OnObjectRemoved: %v", err)
	}
	if !f.v.Selection().None() {
		t.Error("removed object still selected")
	}
	if got := len(f.v.Data().Connections); got != 0 {
		t.Errorf("connections = %d, want 0", got)
	}
	if err := f.v.OnObjectRemoved(context.Background(), f.a); !errors.Is(err, scene.ErrNotFound) {
		t.Errorf("second removal = %v, want ErrNotFound", err)
	}
}

func TestUpdatePathfindingWithConnections(t *testing.T) {
	f := newFixture(t, Options{})
	conns := []scene.Connection{{From: f.b, To: f.a}}

	ok, err := f.v.UpdatePathfindingWithConnections(context.Background(), conns)
	if err != nil || !ok {
		t.Fatalf("UpdatePathfindingWithConnections = (%v, %v)", ok, err)
	}
	got := f.events[events.SceneDataUpdated]
	if len(got) != 1 || got[0].(events.SceneDataUpdatedEvent).Action != "connections-update" {
		t.Errorf("events = %v", got)
	}
	if n := len(polylines(f.v)); n != 1 {
		t.Errorf("polylines = %d, want 1", n)
	}
}

func TestStaleRoutingDiscarded(t *testing.T) {
	f := newFixture(t, Options{})
	f.v.UpdatePaths(context.Background())
	f.v.wg.Wait()

	f.v.mu.Lock()
	f.v.gen++
	f.v.mu.Unlock()

	if f.v.ApplyPending() {
		t.Error("stale result applied")
	}
	if n := len(polylines(f.v)); n != 0 {
		t.Errorf("polylines = %d, want 0", n)
	}
}

type readOnly struct{}

func (readOnly) CheckUnderground() bool { return true }
func (readOnly) AutoUpdatePaths() bool  { return false }

type brokenSettings struct{}

func (brokenSettings) CheckUnderground() bool { panic("settings unavailable") }
func (brokenSettings) AutoUpdatePaths() bool  { panic("settings unavailable") }

func TestBrokenSettingsFallBackToDefaults(t *testing.T) {
	f := newFixture(t, Options{Settings: brokenSettings{}})
	ctx := context.Background()

	if err := f.v.OnObjectRemoved(ctx, f.b); err != nil {
		t.Fatalf("OnObjectRemoved: %v", err)
	}
	if len(f.v.Data().Connections) != 0 {
		t.Errorf("connections = %v, want none", f.v.Data().Connections)
	}
	// The default is on, so the first toggle turns paths off.
	if got := f.v.ToggleAutoUpdatePaths(ctx); got {
		t.Error("toggle from the default did not turn paths off")
	}
}

func TestToggleAutoUpdatePaths(t *testing.T) {
	tests := []struct {
		name     string
		provider settings.Provider
		first    bool
	}{
		{"memory", settings.NewMemory(settings.Default()), false},
		{"read only", readOnly{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Options{Settings: tt.provider})
			ctx := context.Background()

			if got := f.v.ToggleAutoUpdatePaths(ctx); got != tt.first {
				t.Errorf("first toggle = %v, want %v", got, tt.first)
			}
			if got := f.v.Settings().AutoUpdatePaths(); got != tt.first {
				t.Errorf("setting = %v after toggle", got)
			}
			if got := f.v.ToggleAutoUpdatePaths(ctx); got == tt.first {
				t.Error("second toggle did not flip back")
			}
			f.v.Flush()
			if n := len(polylines(f.v)); n != 1 {
				t.Errorf("polylines = %d, want 1 after enabling", n)
			}
		})
	}
}

func TestAutoUpdateDisabledSkipsRouting(t *testing.T) {
	f := newFixture(t, Options{Settings: settings.NewMemory(settings.Settings{CheckUnderground: true})})
	r, err := f.v.Transform(context.Background(), f.obj(t, f.a), transform.Translate, v3.Vec{X: -6, Y: 1})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if got := r.Outcome(consistency.StepPaths); got != consistency.Skipped {
		t.Errorf("paths outcome = %s, want skipped", got)
	}
	if f.v.Flush() {
		t.Error("routing ran with auto update off")
	}
}

func TestDispose(t *testing.T) {
	f := newFixture(t, Options{TickInterval: time.Millisecond})
	if err := f.v.SelectByUUID(f.a); err != nil {
		t.Fatalf("SelectByUUID: %v", err)
	}
	f.v.UpdatePaths(context.Background())

	f.v.Dispose()
	f.v.Dispose()

	if !f.v.IsDisposed() {
		t.Fatal("not disposed")
	}
	if f.v.Gizmo() != nil || f.v.Tooltip() != nil || f.v.Pathfinder() != nil {
		t.Error("collaborators not released")
	}
	if f.tooltip.Selected() != nil {
		t.Error("tooltip still shows an object")
	}
	if err := f.v.SelectByUUID(f.b); !errors.Is(err, ErrDisposed) {
		t.Errorf("SelectByUUID after dispose = %v, want ErrDisposed", err)
	}
	if _, err := f.v.UpdatePathfindingWithConnections(context.Background(), nil); !errors.Is(err, ErrDisposed) {
		t.Errorf("UpdatePathfindingWithConnections after dispose = %v", err)
	}
	if f.v.Flush() {
		t.Error("routing applied after dispose")
	}
	if f.v.GetPathColor(0) != pathfind.DefaultColor {
		t.Error("path color without pathfinder")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := f.v.Run(ctx); err != nil {
		t.Errorf("Run after dispose = %v, want nil", err)
	}
}
