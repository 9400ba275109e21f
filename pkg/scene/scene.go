package scene

import (
	"errors"
	"fmt"

	"github.com/chazu/plantview/pkg/geometry"
)

// ErrNotFound is returned when a UUID does not resolve to a scene object.
var ErrNotFound = errors.New("scene: object not found")

// Scene is the live object graph bound to its persisted document. Each
// live object keeps a back-reference to its record in Meta.Record.
type Scene struct {
	Root *Object
	Data *SceneData

	index map[string]*Object
}

// Load builds the live graph for d. Records with duplicate UUIDs keep the
// first occurrence in the index; Validate reports the duplicates.
func Load(d *SceneData) (*Scene, error) {
	if d == nil {
		d = NewSceneData()
	}
	s := &Scene{Data: d, index: make(map[string]*Object)}
	root, err := s.build(d.Root())
	if err != nil {
		return nil, err
	}
	s.Root = root
	return s, nil
}

func (s *Scene) build(rec *Record) (*Object, error) {
	obj, err := ObjectFromRecord(rec)
	if err != nil {
		return nil, err
	}
	if _, dup := s.index[obj.UUID]; !dup && obj.UUID != "" {
		s.index[obj.UUID] = obj
	}
	for _, cr := range rec.Children {
		child, err := s.build(cr)
		if err != nil {
			return nil, err
		}
		obj.AddChild(child)
	}
	return obj, nil
}

// ObjectFromRecord creates a detached live object from rec. Children are
// not followed.
func ObjectFromRecord(rec *Record) (*Object, error) {
	obj := NewObject(rec.UUID, rec.Name, ParseKind(rec.Type))
	obj.Visible = rec.IsVisible()
	obj.SetPosition(rec.Position.Vec())
	obj.SetRotation(rec.Rotation.Vec())
	obj.SetScale(rec.ScaleVec())
	ud := rec.UserData
	obj.Meta = Metadata{
		ComponentType:  ud.ComponentType,
		IsPipeSegment:  ud.IsPipeSegment,
		IsPipeJunction: ud.IsPipeJunction,
		SegmentID:      ud.SegmentID,
		SegmentIndex:   ud.SegmentIndex,
		PathFrom:       ud.PathFrom,
		PathTo:         ud.PathTo,
		PathIndex:      ud.PathIndex,
		Length:         ud.Length,
		IsBaseGround:   ud.IsBaseGround,
		IsBrickWall:    ud.IsBrickWall,
		IsBaseGrid:     ud.IsBaseGrid,
		Attributes:     ud.Attributes,
		Record:         rec,
	}
	if ud.Shape != "" {
		var dims Triple
		if ud.Dimensions != nil {
			dims = *ud.Dimensions
		}
		shape, err := geometry.FromSpec(ud.Shape, dims)
		if err != nil {
			return nil, fmt.Errorf("scene: object %s: %w", rec.UUID, err)
		}
		obj.Shape = shape
	}
	return obj, nil
}

// RecordOf creates a persisted record for a detached object and binds it
// as the object's Meta.Record. Children are not followed.
func RecordOf(obj *Object) *Record {
	rec := &Record{UUID: obj.UUID}
	obj.Meta.Record = rec
	writeRecord(obj, rec)
	return rec
}

func writeRecord(obj *Object, rec *Record) {
	rec.Name = obj.Name
	rec.Type = obj.Kind.String()
	rec.Position = TripleOf(obj.Position())
	rec.Rotation = TripleOf(obj.Rotation())
	sc := TripleOf(obj.Scale())
	rec.Scale = &sc
	if obj.Visible {
		rec.Visible = nil
	} else {
		v := false
		rec.Visible = &v
	}
	m := obj.Meta
	rec.UserData.ComponentType = m.ComponentType
	rec.UserData.IsPipeSegment = m.IsPipeSegment
	rec.UserData.IsPipeJunction = m.IsPipeJunction
	rec.UserData.SegmentID = m.SegmentID
	rec.UserData.SegmentIndex = m.SegmentIndex
	rec.UserData.PathFrom = m.PathFrom
	rec.UserData.PathTo = m.PathTo
	rec.UserData.PathIndex = m.PathIndex
	rec.UserData.Length = m.Length
	rec.UserData.IsBaseGround = m.IsBaseGround
	rec.UserData.IsBrickWall = m.IsBrickWall
	rec.UserData.IsBaseGrid = m.IsBaseGrid
	rec.UserData.Attributes = m.Attributes
	if obj.Shape != nil {
		rec.UserData.Shape = obj.Shape.Kind()
		dims := Triple(obj.Shape.Dimensions())
		rec.UserData.Dimensions = &dims
	}
}

// Lookup returns the live object with the given UUID.
func (s *Scene) Lookup(uuid string) (*Object, bool) {
	obj, ok := s.index[uuid]
	return obj, ok
}

// MustLookup returns the object with the given UUID, or panics.
func (s *Scene) MustLookup(uuid string) *Object {
	obj, ok := s.index[uuid]
	if !ok {
		panic(fmt.Sprintf("scene: no object with uuid %q", uuid))
	}
	return obj
}

// Len returns the number of indexed objects, the root included.
func (s *Scene) Len() int { return len(s.index) }

// Objects returns every object in depth-first tree order.
func (s *Scene) Objects() []*Object {
	var out []*Object
	s.Root.Walk(func(o *Object) bool {
		out = append(out, o)
		return true
	})
	return out
}

// Attach adds obj under parent in both the live graph and the document.
// A nil parent means the root. obj's record is created if it has none.
func (s *Scene) Attach(parent, obj *Object) {
	if parent == nil {
		parent = s.Root
	}
	parent.AddChild(obj)
	rec := obj.Meta.Record
	if rec == nil {
		rec = RecordOf(obj)
	}
	prec := parent.Meta.Record
	if prec == nil && parent == s.Root {
		prec = s.Data.Root()
		parent.Meta.Record = prec
	}
	if prec != nil {
		prec.Children = append(prec.Children, rec)
	}
	obj.Walk(func(o *Object) bool {
		s.index[o.UUID] = o
		return true
	})
}

// Detach removes the object with the given UUID from the live graph, the
// document and the index. It returns the removed object.
func (s *Scene) Detach(uuid string) (*Object, error) {
	obj, ok := s.index[uuid]
	if !ok {
		return nil, fmt.Errorf("detach %s: %w", uuid, ErrNotFound)
	}
	if parent := obj.Parent(); parent != nil {
		if prec := parent.Meta.Record; prec != nil {
			for i, c := range prec.Children {
				if c.UUID == uuid {
					prec.Children = append(prec.Children[:i], prec.Children[i+1:]...)
					break
				}
			}
		}
		parent.RemoveChild(obj)
	}
	obj.Walk(func(o *Object) bool {
		if s.index[o.UUID] == o {
			delete(s.index, o.UUID)
		}
		return true
	})
	return obj, nil
}

// SyncRecord writes obj's current transform and metadata into its record.
func (s *Scene) SyncRecord(obj *Object) {
	if obj.Meta.Record == nil {
		if rec := s.Data.FindRecord(obj.UUID); rec != nil {
			obj.Meta.Record = rec
		} else {
			return
		}
	}
	writeRecord(obj, obj.Meta.Record)
}

// UpdateSceneDataAfterTransform reconciles the document with a manually
// transformed object: the record follows the live transform and, when
// the object is a pipe segment, the record's path bookkeeping is kept.
func (s *Scene) UpdateSceneDataAfterTransform(obj *Object, data *SceneData) error {
	if obj == nil {
		return errors.New("scene: update after transform: nil object")
	}
	if data != nil && data != s.Data {
		return fmt.Errorf("scene: update after transform %s: document is not bound to this scene", obj.UUID)
	}
	if _, ok := s.index[obj.UUID]; !ok {
		return fmt.Errorf("update after transform %s: %w", obj.UUID, ErrNotFound)
	}
	s.SyncRecord(obj)
	return nil
}

// UpdateWorldBoundingBox stores obj's current world box on its record.
// It reports false when obj has no record or no geometry.
func (s *Scene) UpdateWorldBoundingBox(obj *Object) bool {
	rec := obj.Meta.Record
	if rec == nil {
		return false
	}
	box, ok := obj.WorldBoundingBox()
	if !ok {
		return false
	}
	rec.UserData.WorldBoundingBox = BoxRecordOf(box)
	return true
}

// RecomputeWorldBoundingBoxes refreshes the stored box of every record
// bound to geometry and returns how many were written.
func (s *Scene) RecomputeWorldBoundingBoxes() int {
	n := 0
	for _, obj := range s.Objects() {
		if obj == s.Root {
			continue
		}
		if s.UpdateWorldBoundingBox(obj) {
			n++
		}
	}
	return n
}

// HasUserContent reports whether the scene holds at least one mesh that
// is not part of the base environment.
func (s *Scene) HasUserContent() bool {
	found := false
	s.Root.Walk(func(o *Object) bool {
		if found {
			return false
		}
		if o.Kind == KindMesh && !o.Meta.IsBase() {
			found = true
		}
		return !found
	})
	return found
}
