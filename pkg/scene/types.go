package scene

import (
	"encoding/json"
	"fmt"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ComponentType classifies what an object represents in the plant.
type ComponentType int

const (
	ComponentNone      ComponentType = iota // scenery, helpers, paths
	ComponentComponent                      // equipment (pumps, tanks, valves)
	ComponentConnector                      // pipe connection point
	ComponentGateway                        // generated junction splitting a pipe
)

func (c ComponentType) String() string {
	switch c {
	case ComponentNone:
		return ""
	case ComponentComponent:
		return "component"
	case ComponentConnector:
		return "connector"
	case ComponentGateway:
		return "gateway"
	default:
		return fmt.Sprintf("ComponentType(%d)", int(c))
	}
}

// ParseComponentType converts a persisted componentType string. Unknown
// values map to ComponentNone so foreign objects are never selectable.
func ParseComponentType(s string) ComponentType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "component":
		return ComponentComponent
	case "connector":
		return ComponentConnector
	case "gateway":
		return ComponentGateway
	}
	return ComponentNone
}

// Transformable reports whether the type is one of the kinds an operator
// may move with the gizmo.
func (c ComponentType) Transformable() bool {
	return c == ComponentComponent || c == ComponentConnector || c == ComponentGateway
}

func (c ComponentType) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ComponentType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("componentType: %w", err)
	}
	*c = ParseComponentType(s)
	return nil
}

// Kind is the render-level node kind.
type Kind int

const (
	KindObject3D   Kind = iota // generic transform node
	KindMesh                   // node with geometry
	KindGroup                  // grouping node, never selectable
	KindGizmoPlane             // helper plane owned by the transform gizmo
)

func (k Kind) String() string {
	switch k {
	case KindObject3D:
		return "Object3D"
	case KindMesh:
		return "Mesh"
	case KindGroup:
		return "Group"
	case KindGizmoPlane:
		return "TransformControlsPlane"
	default:
		return "unknown"
	}
}

// ParseKind converts a persisted node type name.
func ParseKind(s string) Kind {
	switch s {
	case "Mesh":
		return KindMesh
	case "Group", "Scene":
		return KindGroup
	case "TransformControlsPlane":
		return KindGizmoPlane
	}
	return KindObject3D
}

// Metadata is the typed per-object metadata. Optional fields use their
// zero value for "absent".
type Metadata struct {
	ComponentType  ComponentType
	IsPipeSegment  bool
	IsPipeJunction bool
	SegmentID      string
	SegmentIndex   int
	PathFrom       string
	PathTo         string
	PathIndex      int
	Length         float64

	// Scenery markers. Objects carrying any of these are never counted as
	// user content.
	IsBaseGround bool
	IsBrickWall  bool
	IsBaseGrid   bool

	// Attributes are the key/value rows shown in the info overlay, keyed
	// by attribute id.
	Attributes map[string]Attribute

	// Record is the persisted form of the object. Non-owning.
	Record *Record
}

// Attribute is one row of component information. Numeric bounds drive
// the overlay's slider when the value is numeric.
type Attribute struct {
	Key   string  `json:"key"`
	Value string  `json:"value"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Step  float64 `json:"step"`
}

// IsBase reports whether the object is part of the base environment.
func (m Metadata) IsBase() bool {
	return m.IsBaseGround || m.IsBrickWall || m.IsBaseGrid
}

// Snapshot is a value copy of an object's transform.
type Snapshot struct {
	Position v3.Vec `json:"position"`
	Rotation v3.Vec `json:"rotation"`
	Scale    v3.Vec `json:"scale"`
}

// Connection links two objects by UUID. Comparison is undirected.
type Connection struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Equal reports whether c and o join the same two endpoints in either
// direction.
func (c Connection) Equal(o Connection) bool {
	return (c.From == o.From && c.To == o.To) || (c.From == o.To && c.To == o.From)
}

// ConnectionKey is the canonical, direction-free form of a connection.
type ConnectionKey struct {
	Lo, Hi string
}

// Key returns the canonical key: endpoints ordered lexically.
func (c Connection) Key() ConnectionKey {
	if c.From <= c.To {
		return ConnectionKey{Lo: c.From, Hi: c.To}
	}
	return ConnectionKey{Lo: c.To, Hi: c.From}
}

// Touches reports whether uuid is either endpoint.
func (c Connection) Touches(uuid string) bool {
	return c.From == uuid || c.To == uuid
}

func (c Connection) String() string {
	return c.From + "<->" + c.To
}

// ConnectionDelta is the net connectivity change a gateway introduced.
type ConnectionDelta struct {
	Added   []Connection `json:"added"`
	Removed []Connection `json:"removed"`
}

// GatewayInfo describes a generated gateway and the connections that exist
// only because it is present.
type GatewayInfo struct {
	UUID        string          `json:"uuid"`
	Connections ConnectionDelta `json:"connections"`
}
