package scene

import (
	"github.com/chazu/plantview/pkg/geometry"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Object is a live node in the scene graph.
//
// Transform fields are private so that every change marks the cached local
// matrix stale; UpdateMatrix forces a recompute.
type Object struct {
	UUID    string
	Name    string
	Kind    Kind
	Visible bool
	Meta    Metadata

	// Shape is the object's own geometry in local space. Nil for pure
	// transform nodes.
	Shape geometry.Shape

	// Owner is set on gizmo helper planes and points at the object the
	// helper manipulates.
	Owner *Object

	position v3.Vec
	rotation v3.Vec // Euler XYZ, radians
	scale    v3.Vec

	parent   *Object
	children []*Object

	matrix      sdf.M44
	matrixDirty bool
}

// NewObject creates a visible object with identity transform.
func NewObject(uuid, name string, kind Kind) *Object {
	return &Object{
		UUID:        uuid,
		Name:        name,
		Kind:        kind,
		Visible:     true,
		scale:       v3.Vec{X: 1, Y: 1, Z: 1},
		matrix:      sdf.Identity3d(),
		matrixDirty: true,
	}
}

// Position returns the local position.
func (o *Object) Position() v3.Vec { return o.position }

// Rotation returns the local Euler rotation in radians.
func (o *Object) Rotation() v3.Vec { return o.rotation }

// Scale returns the local scale.
func (o *Object) Scale() v3.Vec { return o.scale }

// SetPosition sets the local position.
func (o *Object) SetPosition(p v3.Vec) {
	o.position = p
	o.matrixDirty = true
}

// SetRotation sets the local Euler rotation in radians.
func (o *Object) SetRotation(r v3.Vec) {
	o.rotation = r
	o.matrixDirty = true
}

// SetScale sets the local scale.
func (o *Object) SetScale(s v3.Vec) {
	o.scale = s
	o.matrixDirty = true
}

// Snapshot returns a value copy of the current transform.
func (o *Object) Snapshot() Snapshot {
	return Snapshot{Position: o.position, Rotation: o.rotation, Scale: o.scale}
}

// Apply restores a previously captured transform.
func (o *Object) Apply(s Snapshot) {
	o.position = s.Position
	o.rotation = s.Rotation
	o.scale = s.Scale
	o.matrixDirty = true
}

// Parent returns the parent node, or nil for a detached node or the root.
func (o *Object) Parent() *Object { return o.parent }

// Children returns the child list. The slice must not be mutated.
func (o *Object) Children() []*Object { return o.children }

// AddChild appends child, detaching it from any previous parent first.
func (o *Object) AddChild(child *Object) {
	if child == nil {
		panic("scene: cannot add nil child")
	}
	if isAncestor(child, o) {
		panic("scene: cannot add an ancestor as a child")
	}
	if child.parent != nil {
		child.parent.removeChildByPtr(child)
	}
	child.parent = o
	o.children = append(o.children, child)
}

// RemoveChild detaches child. It reports false if child is not a direct
// child of o.
func (o *Object) RemoveChild(child *Object) bool {
	if child == nil || child.parent != o {
		return false
	}
	o.removeChildByPtr(child)
	return true
}

func (o *Object) removeChildByPtr(child *Object) {
	for i, c := range o.children {
		if c == child {
			copy(o.children[i:], o.children[i+1:])
			o.children[len(o.children)-1] = nil
			o.children = o.children[:len(o.children)-1]
			child.parent = nil
			return
		}
	}
}

func isAncestor(candidate, node *Object) bool {
	for p := node; p != nil; p = p.parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// Walk visits o and every descendant depth-first. Returning false from fn
// skips the node's subtree.
func (o *Object) Walk(fn func(*Object) bool) {
	if !fn(o) {
		return
	}
	for _, c := range o.children {
		c.Walk(fn)
	}
}

// UpdateMatrix recomputes the local matrix from position, rotation and
// scale: T * Rx * Ry * Rz * S.
func (o *Object) UpdateMatrix() {
	m := sdf.Translate3d(o.position).
		Mul(sdf.RotateX(o.rotation.X)).
		Mul(sdf.RotateY(o.rotation.Y)).
		Mul(sdf.RotateZ(o.rotation.Z)).
		Mul(sdf.Scale3d(o.scale))
	o.matrix = m
	o.matrixDirty = false
}

// Matrix returns the local matrix, recomputing it if the transform changed.
func (o *Object) Matrix() sdf.M44 {
	if o.matrixDirty {
		o.UpdateMatrix()
	}
	return o.matrix
}

// WorldMatrix returns the accumulated matrix from the root down to o.
func (o *Object) WorldMatrix() sdf.M44 {
	if o.parent == nil {
		return o.Matrix()
	}
	return o.parent.WorldMatrix().Mul(o.Matrix())
}

// WorldPosition returns o's origin in world coordinates.
func (o *Object) WorldPosition() v3.Vec {
	if o.parent == nil {
		return o.position
	}
	return o.parent.WorldMatrix().MulPosition(o.position)
}

// WorldBoundingBox returns the world-space box enclosing the geometry of o
// and all its descendants. ok is false if the subtree has no geometry.
func (o *Object) WorldBoundingBox() (box sdf.Box3, ok bool) {
	var parentWorld sdf.M44
	if o.parent != nil {
		parentWorld = o.parent.WorldMatrix()
	} else {
		parentWorld = sdf.Identity3d()
	}
	o.accumulateBox(parentWorld, &box, &ok)
	return box, ok
}

func (o *Object) accumulateBox(parentWorld sdf.M44, box *sdf.Box3, ok *bool) {
	world := parentWorld.Mul(o.Matrix())
	if o.Shape != nil {
		b := world.MulBox(o.Shape.BoundingBox())
		if *ok {
			*box = geometry.Union(*box, b)
		} else {
			*box = b
			*ok = true
		}
	}
	for _, c := range o.children {
		c.accumulateBox(world, box, ok)
	}
}
