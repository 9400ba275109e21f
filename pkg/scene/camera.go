package scene

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// PerspectiveCamera projects world points to normalized device
// coordinates. The view basis is cached and rebuilt when any field
// changes through the setters.
type PerspectiveCamera struct {
	position v3.Vec
	target   v3.Vec
	up       v3.Vec
	fovY     float64 // degrees
	aspect   float64

	right, upOrtho, forward v3.Vec
	tanHalf                 float64
	dirty                   bool
}

// NewPerspectiveCamera returns a camera at position looking at target.
func NewPerspectiveCamera(position, target v3.Vec, fovY, aspect float64) *PerspectiveCamera {
	return &PerspectiveCamera{
		position: position,
		target:   target,
		up:       v3.Vec{Y: 1},
		fovY:     fovY,
		aspect:   aspect,
		dirty:    true,
	}
}

// SetPosition moves the camera.
func (c *PerspectiveCamera) SetPosition(p v3.Vec) {
	c.position = p
	c.dirty = true
}

// LookAt re-aims the camera.
func (c *PerspectiveCamera) LookAt(target v3.Vec) {
	c.target = target
	c.dirty = true
}

// SetAspect updates the viewport aspect ratio.
func (c *PerspectiveCamera) SetAspect(aspect float64) {
	c.aspect = aspect
	c.dirty = true
}

func (c *PerspectiveCamera) update() {
	c.forward = c.target.Sub(c.position).Normalize()
	c.right = c.forward.Cross(c.up).Normalize()
	c.upOrtho = c.right.Cross(c.forward)
	c.tanHalf = math.Tan(c.fovY * math.Pi / 360)
	c.dirty = false
}

// Project maps a world point to NDC. X and Y are in [-1, 1] for points
// inside the frustum; Z is the view depth along the camera axis. Points
// behind the camera come out mirrored, as with a homogeneous divide.
func (c *PerspectiveCamera) Project(p v3.Vec) v3.Vec {
	if c.dirty {
		c.update()
	}
	d := p.Sub(c.position)
	depth := d.Dot(c.forward)
	if depth == 0 {
		depth = 1e-9
	}
	x := d.Dot(c.right) / (depth * c.tanHalf * c.aspect)
	y := d.Dot(c.upOrtho) / (depth * c.tanHalf)
	return v3.Vec{X: x, Y: y, Z: depth}
}
