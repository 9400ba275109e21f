package tooltip

import (
	"testing"

	"github.com/chazu/plantview/pkg/scene"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// fixedProjector returns the same NDC point for every input.
type fixedProjector struct{ ndc v3.Vec }

func (f fixedProjector) Project(v3.Vec) v3.Vec { return f.ndc }

func TestCornerForNDC(t *testing.T) {
	tests := []struct {
		x, y float64
		want Corner
	}{
		{0.5, 0.5, TopLeft},
		{-0.5, 0.5, TopRight},
		{0.5, -0.5, TopLeft},
		{-0.5, -0.5, TopRight},
		{0, 0, TopRight},
		{0, 0.5, TopRight},
		{1e-9, 0, TopLeft},
	}
	for _, tt := range tests {
		if got := CornerForNDC(tt.x, tt.y); got != tt.want {
			t.Errorf("CornerForNDC(%g, %g) = %s, want %s", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestCornerForDefaults(t *testing.T) {
	obj := scene.NewObject("a", "pump", scene.KindMesh)
	if got := CornerFor(nil, fixedProjector{}); got != TopRight {
		t.Errorf("nil object: got %s, want top-right", got)
	}
	if got := CornerFor(obj, nil); got != TopRight {
		t.Errorf("nil camera: got %s, want top-right", got)
	}
}

func TestCornerForProjectsWorldPosition(t *testing.T) {
	cam := scene.NewPerspectiveCamera(v3.Vec{Z: 10}, v3.Vec{}, 60, 16.0/9.0)
	obj := scene.NewObject("a", "pump", scene.KindMesh)

	obj.SetPosition(v3.Vec{X: 2, Y: 1})
	if got := CornerFor(obj, cam); got != TopLeft {
		t.Errorf("object right of center: got %s, want top-left", got)
	}
	obj.SetPosition(v3.Vec{X: -2, Y: -1})
	if got := CornerFor(obj, cam); got != TopRight {
		t.Errorf("object left of center: got %s, want top-right", got)
	}
}

func TestDefaultAttributes(t *testing.T) {
	obj := scene.NewObject("g", "Gateway", scene.KindMesh)
	obj.Meta.ComponentType = scene.ComponentGateway
	attrs := DefaultAttributes(obj)
	info, ok := attrs["info"]
	if !ok {
		t.Fatal("missing info attribute")
	}
	want := scene.Attribute{Key: "Type", Value: "gateway", Min: 0, Max: 100, Step: 1}
	if info != want {
		t.Errorf("info = %+v, want %+v", info, want)
	}
}

func TestPanelLifecycle(t *testing.T) {
	p := NewPanel()
	var changes []State
	p.OnChange = func(s State) { changes = append(changes, s) }

	obj := scene.NewObject("a", "pump", scene.KindMesh)
	obj.Meta.Attributes = map[string]scene.Attribute{"info": {Key: "Type", Value: "component"}}

	p.SetSelected(obj, TopLeft)
	if p.Selected() != obj || p.Corner() != TopLeft {
		t.Fatal("SetSelected did not take effect")
	}
	if got := p.Text(); got != "Type: component\n" {
		t.Errorf("Text = %q", got)
	}

	p.Update(TopLeft) // unchanged corner, no notification
	p.Update(TopRight)
	p.HandleSceneClick()
	if p.Selected() != nil {
		t.Error("scene click did not clear the panel")
	}
	if len(changes) != 3 {
		t.Errorf("got %d change notifications, want 3", len(changes))
	}
	if changes[2].Visible {
		t.Error("last state should be hidden")
	}

	p.Dispose()
	p.SetSelected(obj, TopLeft)
	if p.Selected() != nil {
		t.Error("disposed panel accepted a selection")
	}
}
