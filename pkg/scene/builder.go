package scene

import (
	"fmt"

	"github.com/chazu/plantview/pkg/geometry"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/google/uuid"
)

// Default sizes for builder-made connection points.
const (
	ConnectorRadius = 0.1
	GatewayRadius   = 0.15
)

// Builder assembles a scene document top-down. Objects are placed under
// the root; UUIDs are generated unless the caller names one.
type Builder struct {
	data *SceneData
	errs []error
}

// NewBuilder returns a builder for an empty document.
func NewBuilder() *Builder {
	return &Builder{data: NewSceneData()}
}

// Spec describes one object for Builder.Add.
type Spec struct {
	UUID      string // generated when empty
	Name      string
	Type      ComponentType
	Shape     string
	Dims      v3.Vec
	Position  v3.Vec
	Rotation  v3.Vec
	Hidden    bool
	Base      bool // marks the object as base ground
	PipeFlags Metadata
}

// Add places an object under the root and returns its UUID.
func (b *Builder) Add(s Spec) string {
	id := s.UUID
	if id == "" {
		id = uuid.NewString()
	}
	kind := "Object3D"
	if s.Shape != "" {
		kind = "Mesh"
		if _, err := geometry.FromSpec(s.Shape, [3]float64{s.Dims.X, s.Dims.Y, s.Dims.Z}); err != nil {
			b.errs = append(b.errs, fmt.Errorf("object %q: %w", s.Name, err))
		}
	}
	dims := TripleOf(s.Dims)
	rec := &Record{
		UUID:     id,
		Name:     s.Name,
		Type:     kind,
		Position: TripleOf(s.Position),
		Rotation: TripleOf(s.Rotation),
		UserData: UserData{
			ComponentType:  s.Type,
			IsPipeSegment:  s.PipeFlags.IsPipeSegment,
			IsPipeJunction: s.PipeFlags.IsPipeJunction,
			IsBaseGround:   s.Base,
			Shape:          s.Shape,
		},
	}
	if s.Shape != "" {
		rec.UserData.Dimensions = &dims
	}
	if s.Hidden {
		v := false
		rec.Visible = &v
	}
	root := b.data.Root()
	root.Children = append(root.Children, rec)
	return id
}

// Equipment adds a box-shaped component resting on the ground at (x, z).
func (b *Builder) Equipment(name string, size v3.Vec, x, z float64) string {
	return b.Add(Spec{
		Name:     name,
		Type:     ComponentComponent,
		Shape:    geometry.KindBox,
		Dims:     size,
		Position: v3.Vec{X: x, Y: size.Y / 2, Z: z},
	})
}

// Connector adds a connection point at p.
func (b *Builder) Connector(name string, p v3.Vec) string {
	r := ConnectorRadius
	return b.Add(Spec{
		Name:     name,
		Type:     ComponentConnector,
		Shape:    geometry.KindSphere,
		Dims:     v3.Vec{X: r, Y: r, Z: r},
		Position: p,
	})
}

// Gateway adds a junction at p.
func (b *Builder) Gateway(name string, p v3.Vec) string {
	r := GatewayRadius
	return b.Add(Spec{
		Name:      name,
		Type:      ComponentGateway,
		Shape:     geometry.KindSphere,
		Dims:      v3.Vec{X: r, Y: r, Z: r},
		Position:  p,
		PipeFlags: Metadata{IsPipeJunction: true},
	})
}

// Ground adds the base ground slab.
func (b *Builder) Ground(width, depth float64) string {
	return b.Add(Spec{
		Name:     "Ground",
		Shape:    geometry.KindBox,
		Dims:     v3.Vec{X: width, Y: 0.01, Z: depth},
		Position: v3.Vec{Y: -0.005},
		Base:     true,
	})
}

// Connect records a connection between two objects.
func (b *Builder) Connect(from, to string) {
	b.data.AddConnection(Connection{From: from, To: to})
}

// Build returns the document, or the first error recorded while adding.
func (b *Builder) Build() (*SceneData, error) {
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("scene: build: %w", b.errs[0])
	}
	return b.data, nil
}
