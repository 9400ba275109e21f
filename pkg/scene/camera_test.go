package scene

import (
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

func TestPerspectiveCameraProject(t *testing.T) {
	cam := NewPerspectiveCamera(v3.Vec{Z: 10}, v3.Vec{}, 90, 1)

	tests := []struct {
		name  string
		p     v3.Vec
		wantX float64
		wantY float64
	}{
		{"center", v3.Vec{}, 0, 0},
		{"right edge", v3.Vec{X: 10}, 1, 0},
		{"upper left", v3.Vec{X: -5, Y: 5}, -0.5, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cam.Project(tt.p)
			if math.Abs(got.X-tt.wantX) > 1e-9 || math.Abs(got.Y-tt.wantY) > 1e-9 {
				t.Errorf("Project(%v) = (%f, %f), want (%f, %f)", tt.p, got.X, got.Y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestPerspectiveCameraRebuildsAfterMove(t *testing.T) {
	cam := NewPerspectiveCamera(v3.Vec{Z: 10}, v3.Vec{}, 90, 1)
	p := v3.Vec{X: 5}
	if got := cam.Project(p); got.X <= 0 {
		t.Fatalf("expected point right of center, got %v", got)
	}
	// Looking from the opposite side mirrors the horizontal axis.
	cam.SetPosition(v3.Vec{Z: -10})
	if got := cam.Project(p); got.X >= 0 {
		t.Errorf("expected point left of center after moving, got %v", got)
	}
}
