package pathfind

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/chazu/plantview/pkg/consistency"
	"github.com/chazu/plantview/pkg/scene"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

var _ consistency.Pathfinder = (*Manager)(nil)

const tol = 1e-9

func near(a, b v3.Vec) bool {
	return math.Abs(a.X-b.X) < tol && math.Abs(a.Y-b.Y) < tol && math.Abs(a.Z-b.Z) < tol
}

// station builds two pumps at x = -5 and x = 5 joined directly.
func station(t *testing.T) (*Manager, string, string) {
	t.Helper()
	b := scene.NewBuilder()
	a := b.Equipment("Pump A", v3.Vec{X: 1, Y: 2, Z: 1}, -5, 0)
	c := b.Equipment("Pump B", v3.Vec{X: 1, Y: 2, Z: 1}, 5, 0)
	b.Connect(a, c)
	d, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	s, err := scene.Load(d)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return New(s, Options{}), a, c
}

func emptyScene(t *testing.T) *scene.Scene {
	t.Helper()
	s, err := scene.Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func segments(poly *scene.Object) []*scene.Object {
	var out []*scene.Object
	for _, c := range poly.Children() {
		if c.Meta.IsPipeSegment {
			out = append(out, c)
		}
	}
	return out
}

func TestGetPathColor(t *testing.T) {
	m := New(emptyScene(t), Options{Palette: []string{"#111111", "#222222"}})
	tests := []struct {
		i    int
		want string
	}{
		{0, "#111111"},
		{1, "#222222"},
		{2, "#111111"},
		{-3, "#111111"},
	}
	for _, tt := range tests {
		if got := m.GetPathColor(tt.i); got != tt.want {
			t.Errorf("GetPathColor(%d) = %s, want %s", tt.i, got, tt.want)
		}
	}
	if got := New(emptyScene(t), Options{}).GetPathColor(0); got != DefaultColor {
		t.Errorf("default palette starts with %s, want %s", got, DefaultColor)
	}
}

func TestRouteOrthogonal(t *testing.T) {
	plan, err := Route(context.Background(), []Request{{
		Conn: scene.Connection{From: "a", To: "b"},
		From: v3.Vec{},
		To:   v3.Vec{X: 3, Y: 2, Z: 4},
	}})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	legs := plan.Paths[0].Legs
	want := []float64{2, 3, 4}
	if len(legs) != len(want) {
		t.Fatalf("got %d legs, want %d", len(legs), len(want))
	}
	for i, l := range legs {
		if math.Abs(l.Length()-want[i]) > tol {
			t.Errorf("leg %d length = %f, want %f", i, l.Length(), want[i])
		}
		d := l.End.Sub(l.Start).Abs()
		axes := 0
		for _, c := range []float64{d.X, d.Y, d.Z} {
			if c > tol {
				axes++
			}
		}
		if axes != 1 {
			t.Errorf("leg %d is not axis aligned: %v", i, d)
		}
	}
	if !near(legs[len(legs)-1].End, v3.Vec{X: 3, Y: 2, Z: 4}) {
		t.Errorf("path ends at %v", legs[len(legs)-1].End)
	}
}

func TestRouteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Route(ctx, []Request{{}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestUpdatePathfindingReplacesPolylines(t *testing.T) {
	m, a, b := station(t)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := m.UpdatePathfindingAfterTransform(ctx, m.Scene().Data); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	polys := m.Polylines()
	if len(polys) != 1 {
		t.Fatalf("got %d polylines, want 1", len(polys))
	}
	poly := polys[0]
	if poly.Name != "Polyline-1" {
		t.Errorf("name = %q", poly.Name)
	}
	if poly.Meta.PathFrom != a || poly.Meta.PathTo != b {
		t.Errorf("path = %s -> %s", poly.Meta.PathFrom, poly.Meta.PathTo)
	}
	segs := segments(poly)
	if len(segs) != 1 {
		t.Fatalf("got %d segments, want 1", len(segs))
	}
	seg := segs[0]
	if seg.Meta.Length != 10 || seg.Meta.SegmentID != poly.UUID {
		t.Errorf("segment meta = %+v", seg.Meta)
	}
	box := seg.Meta.Record.UserData.WorldBoundingBox
	if box == nil {
		t.Fatal("segment has no stored world box")
	}
	if math.Abs(box.Min[0]+5) > 1e-6 || math.Abs(box.Max[0]-5) > 1e-6 {
		t.Errorf("segment box x = [%f, %f], want [-5, 5]", box.Min[0], box.Max[0])
	}
	if got := poly.Meta.Record.UserData.Color; got != DefaultColor {
		t.Errorf("color = %s", got)
	}

	// The document holds exactly one polyline record with its segment.
	var polyRecs int
	for _, rec := range m.Scene().Data.Root().Children {
		if strings.HasPrefix(rec.Name, PolylinePrefix) {
			polyRecs++
			if len(rec.Children) != 1 {
				t.Errorf("polyline record has %d children", len(rec.Children))
			}
		}
	}
	if polyRecs != 1 {
		t.Errorf("got %d polyline records, want 1", polyRecs)
	}
}

func TestForeignDocument(t *testing.T) {
	m, _, _ := station(t)
	err := m.UpdatePathfindingAfterTransform(context.Background(), scene.NewSceneData())
	if !errors.Is(err, ErrForeignDocument) {
		t.Errorf("err = %v, want ErrForeignDocument", err)
	}
	if err := m.RecomputeWorldBoundingBoxes(scene.NewSceneData()); !errors.Is(err, ErrForeignDocument) {
		t.Errorf("recompute err = %v, want ErrForeignDocument", err)
	}
}

func TestUpdatePathfindingWithConnections(t *testing.T) {
	m, a, b := station(t)
	ok, err := m.UpdatePathfindingWithConnections(context.Background(), []scene.Connection{
		{From: a, To: b}, {From: b, To: a},
	})
	if err != nil || !ok {
		t.Fatalf("ok = %v, err = %v", ok, err)
	}
	if n := len(m.Scene().Data.Connections); n != 1 {
		t.Errorf("got %d connections, want 1", n)
	}
	if n := len(m.Polylines()); n != 1 {
		t.Errorf("got %d polylines, want 1", n)
	}
}

func TestInsertGatewayThenRevert(t *testing.T) {
	m, a, b := station(t)
	d := m.Scene().Data

	if _, err := m.InsertGateway(a, "nope", v3.Vec{}); !errors.Is(err, ErrNoConnection) {
		t.Errorf("unknown connection err = %v", err)
	}

	info, err := m.InsertGateway(b, a, v3.Vec{Y: 1})
	if err != nil {
		t.Fatalf("InsertGateway: %v", err)
	}
	if len(d.Connections) != 2 || !d.HasConnection(scene.Connection{From: a, To: info.UUID}) {
		t.Fatalf("connections after insert = %v", d.Connections)
	}
	g, ok := m.Scene().Lookup(info.UUID)
	if !ok || !g.Meta.IsPipeJunction || g.Meta.ComponentType != scene.ComponentGateway {
		t.Fatalf("gateway object = %+v", g)
	}

	rv := &consistency.Reverter{Pathfinder: m, Scene: m.Scene()}
	rv.Revert(context.Background(), info, d)

	if len(d.Connections) != 1 || !d.Connections[0].Equal(scene.Connection{From: a, To: b}) {
		t.Errorf("connections after revert = %v", d.Connections)
	}
	if _, ok := m.Scene().Lookup(info.UUID); ok {
		t.Error("gateway still present")
	}
	if n := len(m.Polylines()); n != 1 {
		t.Errorf("got %d polylines after revert, want 1", n)
	}
}

func TestHandleManualSegmentTransformation(t *testing.T) {
	m, a, b := station(t)
	ctx := context.Background()
	d := m.Scene().Data
	if err := m.UpdatePathfindingAfterTransform(ctx, d); err != nil {
		t.Fatal(err)
	}
	seg := segments(m.Polylines()[0])[0]

	if err := m.HandleManualSegmentTransformation(m.Scene().MustLookup(a), d); !errors.Is(err, ErrNotSegment) {
		t.Errorf("non-segment err = %v", err)
	}

	seg.SetPosition(v3.Vec{Y: 1, Z: 3})
	if err := m.HandleManualSegmentTransformation(seg, d); err != nil {
		t.Fatalf("pin: %v", err)
	}
	if seg.Parent() != m.Scene().Root || seg.Meta.SegmentID != "" {
		t.Errorf("segment not pinned: parent %v, segment id %q", seg.Parent(), seg.Meta.SegmentID)
	}
	if len(d.Connections) != 2 {
		t.Fatalf("connections = %v, want two", d.Connections)
	}
	c1 := m.Scene().MustLookup(seg.Meta.PathFrom)
	c2 := m.Scene().MustLookup(seg.Meta.PathTo)
	if !near(c1.Position(), v3.Vec{X: -5, Y: 1, Z: 3}) || !near(c2.Position(), v3.Vec{X: 5, Y: 1, Z: 3}) {
		t.Errorf("connectors at %v and %v", c1.Position(), c2.Position())
	}
	if !d.HasConnection(scene.Connection{From: a, To: c1.UUID}) || !d.HasConnection(scene.Connection{From: c2.UUID, To: b}) {
		t.Errorf("connections = %v", d.Connections)
	}

	if err := m.UpdatePathfindingAfterTransform(ctx, d); err != nil {
		t.Fatal(err)
	}
	if n := len(m.Polylines()); n != 2 {
		t.Errorf("got %d polylines, want 2", n)
	}
	if seg.Parent() != m.Scene().Root {
		t.Error("pinned segment was removed by rerouting")
	}

	// Moving it again drags the connectors along.
	seg.SetPosition(v3.Vec{Y: 2, Z: 3})
	if err := m.HandleManualSegmentTransformation(seg, d); err != nil {
		t.Fatalf("move pinned: %v", err)
	}
	if len(d.Connections) != 2 {
		t.Errorf("connections changed: %v", d.Connections)
	}
	if !near(c1.Position(), v3.Vec{X: -5, Y: 2, Z: 3}) {
		t.Errorf("connector at %v", c1.Position())
	}

	// An unchanged position leaves each connector on its own end.
	for i := 0; i < 2; i++ {
		if err := m.HandleManualSegmentTransformation(seg, d); err != nil {
			t.Fatalf("repeat move %d: %v", i, err)
		}
		if !near(c1.Position(), v3.Vec{X: -5, Y: 2, Z: 3}) || !near(c2.Position(), v3.Vec{X: 5, Y: 2, Z: 3}) {
			t.Errorf("repeat move %d: connectors at %v and %v", i, c1.Position(), c2.Position())
		}
	}
}
