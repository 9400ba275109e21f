// Package geometry provides the local-space solids attached to scene
// objects. Shapes are backed by github.com/deadsy/sdfx signed distance
// fields; the scene only ever asks them for their bounds, which it then
// carries into world space with each object's transform.
package geometry

import (
	"fmt"
	"math"
	"strings"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Shape is a solid in its owning object's local coordinates.
type Shape interface {
	// BoundingBox returns the local axis-aligned bounding box.
	BoundingBox() sdf.Box3
	// Kind names the primitive, as stored in persisted records.
	Kind() string
	// Dimensions returns the primitive parameters, as stored in persisted
	// records. Box: size; cylinder: (radius, height, radius); sphere:
	// (radius, radius, radius).
	Dimensions() [3]float64
}

// Primitive kind names.
const (
	KindBox      = "box"
	KindCylinder = "cylinder"
	KindSphere   = "sphere"
)

// sdfShape wraps an sdf.SDF3 to implement Shape.
type sdfShape struct {
	s    sdf.SDF3
	kind string
	dims [3]float64
}

func (s *sdfShape) BoundingBox() sdf.Box3 { return s.s.BoundingBox() }
func (s *sdfShape) Kind() string { return s.kind }
func (s *sdfShape) Dimensions() [3]float64 { return s.dims }
func (s *sdfShape) String() string { return fmt.Sprintf("%s%v", s.kind, s.dims) }

// Box returns a box of the given size centered on the origin, matching
// how the viewer places equipment meshes.
func Box(size v3.Vec) (Shape, error) {
	s, err := sdf.Box3D(size, 0)
	if err != nil {
		return nil, fmt.Errorf("geometry: box %v: %w", size, err)
	}
	return &sdfShape{s: s, kind: KindBox, dims: [3]float64{size.X, size.Y, size.Z}}, nil
}

// Cylinder returns a cylinder centered on the origin with its axis along Y.
// sdfx builds cylinders along Z, so the solid is rotated a quarter turn
// about X.
func Cylinder(height, radius float64) (Shape, error) {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		return nil, fmt.Errorf("geometry: cylinder h=%g r=%g: %w", height, radius, err)
	}
	upright := sdf.Transform3D(s, sdf.RotateX(math.Pi/2))
	return &sdfShape{s: upright, kind: KindCylinder, dims: [3]float64{radius, height, radius}}, nil
}

// Sphere returns a sphere centered on the origin.
func Sphere(radius float64) (Shape, error) {
	s, err := sdf.Sphere3D(radius)
	if err != nil {
		return nil, fmt.Errorf("geometry: sphere r=%g: %w", radius, err)
	}
	return &sdfShape{s: s, kind: KindSphere, dims: [3]float64{radius, radius, radius}}, nil
}

// FromSpec rebuilds a shape from its persisted kind and dimensions.
// An empty kind yields a nil shape and no error: the object has no
// geometry of its own.
func FromSpec(kind string, dims [3]float64) (Shape, error) {
	switch strings.ToLower(kind) {
	case "":
		return nil, nil
	case KindBox:
		return Box(v3.Vec{X: dims[0], Y: dims[1], Z: dims[2]})
	case KindCylinder:
		return Cylinder(dims[1], dims[0])
	case KindSphere:
		return Sphere(dims[0])
	}
	return nil, fmt.Errorf("geometry: unknown shape kind %q", kind)
}

// Union returns the smallest box containing both a and b.
func Union(a, b sdf.Box3) sdf.Box3 {
	return sdf.Box3{Min: a.Min.Min(b.Min), Max: a.Max.Max(b.Max)}
}

// ApproxEqual reports whether two boxes match within tol on every corner
// coordinate.
func ApproxEqual(a, b sdf.Box3, tol float64) bool {
	return vecApprox(a.Min, b.Min, tol) && vecApprox(a.Max, b.Max, tol)
}

func vecApprox(a, b v3.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}
