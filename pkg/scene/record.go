package scene

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Triple is a plain numeric (x, y, z) as stored in scene JSON.
type Triple [3]float64

// TripleOf converts a vector to its stored form.
func TripleOf(v v3.Vec) Triple { return Triple{v.X, v.Y, v.Z} }

// Vec converts a stored triple to a vector.
func (t Triple) Vec() v3.Vec { return v3.Vec{X: t[0], Y: t[1], Z: t[2]} }

// BoxRecord is a stored world bounding box.
type BoxRecord struct {
	Min Triple `json:"min"`
	Max Triple `json:"max"`
}

// BoxRecordOf converts a box to its stored form.
func BoxRecordOf(b sdf.Box3) *BoxRecord {
	return &BoxRecord{Min: TripleOf(b.Min), Max: TripleOf(b.Max)}
}

// Box converts the stored form back to a box.
func (b *BoxRecord) Box() sdf.Box3 {
	return sdf.Box3{Min: b.Min.Vec(), Max: b.Max.Vec()}
}

// UserData is the persisted metadata of a record.
type UserData struct {
	ComponentType  ComponentType `json:"componentType,omitempty"`
	IsPipeSegment  bool          `json:"isPipeSegment,omitempty"`
	IsPipeJunction bool          `json:"isPipeJunction,omitempty"`
	SegmentID      string        `json:"segmentId,omitempty"`
	SegmentIndex   int           `json:"segmentIndex,omitempty"`
	PathFrom       string        `json:"pathFrom,omitempty"`
	PathTo         string        `json:"pathTo,omitempty"`
	PathIndex      int           `json:"pathIndex,omitempty"`
	Length         float64       `json:"length,omitempty"`
	IsBaseGround   bool          `json:"isBaseGround,omitempty"`
	IsBrickWall    bool          `json:"isBrickWall,omitempty"`
	IsBaseGrid     bool          `json:"isBaseGrid,omitempty"`
	Shape          string        `json:"shape,omitempty"`
	Dimensions     *Triple       `json:"dimensions,omitempty"`
	Color          string        `json:"color,omitempty"`

	Attributes map[string]Attribute `json:"attributes,omitempty"`

	WorldBoundingBox *BoxRecord `json:"worldBoundingBox,omitempty"`
}

// Record is the persisted form of a scene node.
type Record struct {
	UUID     string    `json:"uuid"`
	Name     string    `json:"name,omitempty"`
	Type     string    `json:"type,omitempty"`
	Position Triple    `json:"position"`
	Rotation Triple    `json:"rotation"`
	Scale    *Triple   `json:"scale,omitempty"`
	Visible  *bool     `json:"visible,omitempty"`
	UserData UserData  `json:"userData"`
	Children []*Record `json:"children,omitempty"`
}

// IsVisible reports the stored visibility; absent means visible.
func (r *Record) IsVisible() bool {
	return r.Visible == nil || *r.Visible
}

// ScaleVec returns the stored scale; absent means unit scale.
func (r *Record) ScaleVec() v3.Vec {
	if r.Scale == nil {
		return v3.Vec{X: 1, Y: 1, Z: 1}
	}
	return r.Scale.Vec()
}

// Walk visits r and every descendant record depth-first.
func (r *Record) Walk(fn func(rec *Record, parent *Record)) {
	var walk func(rec, parent *Record)
	walk = func(rec, parent *Record) {
		fn(rec, parent)
		for _, c := range rec.Children {
			walk(c, rec)
		}
	}
	walk(r, nil)
}

// Graph wraps the root record.
type Graph struct {
	Object *Record `json:"object"`
}

// SceneData is the document shared with the persistence and pathfinding
// collaborators. It is mutated in place.
type SceneData struct {
	Connections []Connection `json:"connections"`
	Scene       Graph        `json:"scene"`
}

// NewSceneData returns an empty document with a root group.
func NewSceneData() *SceneData {
	return &SceneData{
		Connections: []Connection{},
		Scene:       Graph{Object: &Record{UUID: "scene-root", Name: "Scene", Type: "Scene"}},
	}
}

// Root returns the root record, creating one if the document has none.
func (d *SceneData) Root() *Record {
	if d.Scene.Object == nil {
		d.Scene.Object = &Record{UUID: "scene-root", Name: "Scene", Type: "Scene"}
	}
	return d.Scene.Object
}

// FindRecord returns the record with the given UUID anywhere in the tree.
func (d *SceneData) FindRecord(uuid string) *Record {
	var found *Record
	d.Root().Walk(func(rec, _ *Record) {
		if found == nil && rec.UUID == uuid {
			found = rec
		}
	})
	return found
}

// HasConnection reports whether an undirected-equal connection exists.
func (d *SceneData) HasConnection(c Connection) bool {
	for _, e := range d.Connections {
		if e.Equal(c) {
			return true
		}
	}
	return false
}

// AddConnection appends c unless an undirected-equal connection exists.
// It reports whether c was added.
func (d *SceneData) AddConnection(c Connection) bool {
	if d.HasConnection(c) {
		return false
	}
	d.Connections = append(d.Connections, c)
	return true
}

// RemoveConnections drops every connection undirected-equal to any of cs
// and returns how many were dropped. Filtering happens in place.
func (d *SceneData) RemoveConnections(cs ...Connection) int {
	kept := d.Connections[:0]
	removed := 0
	for _, e := range d.Connections {
		match := false
		for _, c := range cs {
			if e.Equal(c) {
				match = true
				break
			}
		}
		if match {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(d.Connections); i++ {
		d.Connections[i] = Connection{}
	}
	d.Connections = kept
	return removed
}

// RemoveConnectionsTouching drops every connection with uuid as an
// endpoint and returns how many were dropped.
func (d *SceneData) RemoveConnectionsTouching(uuid string) int {
	var touching []Connection
	for _, c := range d.Connections {
		if c.Touches(uuid) {
			touching = append(touching, c)
		}
	}
	if len(touching) == 0 {
		return 0
	}
	return d.RemoveConnections(touching...)
}

// RemoveRootChild removes the top-level record with the given UUID. It
// reports whether a record was removed.
func (d *SceneData) RemoveRootChild(uuid string) bool {
	root := d.Root()
	for i, c := range root.Children {
		if c.UUID == uuid {
			root.Children = append(root.Children[:i], root.Children[i+1:]...)
			return true
		}
	}
	return false
}

// Decode reads scene JSON.
func Decode(r io.Reader) (*SceneData, error) {
	var d SceneData
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("scene: decode: %w", err)
	}
	if d.Connections == nil {
		d.Connections = []Connection{}
	}
	d.Root()
	return &d, nil
}

// Encode writes scene JSON, indented.
func Encode(w io.Writer, d *SceneData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("scene: encode: %w", err)
	}
	return nil
}
