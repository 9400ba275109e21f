// Package tooltip places and tracks the component info overlay shown next
// to the selected object.
package tooltip

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chazu/plantview/pkg/scene"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Corner is the screen corner the overlay is anchored to.
type Corner int

const (
	TopRight Corner = iota
	TopLeft
)

func (c Corner) String() string {
	switch c {
	case TopLeft:
		return "top-left"
	case TopRight:
		return "top-right"
	default:
		return fmt.Sprintf("Corner(%d)", int(c))
	}
}

func (c Corner) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// Projector maps world coordinates to normalized device coordinates.
type Projector interface {
	Project(world v3.Vec) v3.Vec
}

// CornerFor picks the corner that keeps the overlay off the object: an
// object on the right half of the screen gets a top-left overlay, one on
// the left half a top-right overlay. Without a camera or object the
// overlay goes top-right.
func CornerFor(obj *scene.Object, cam Projector) Corner {
	if obj == nil || cam == nil {
		return TopRight
	}
	ndc := cam.Project(obj.WorldPosition())
	return CornerForNDC(ndc.X, ndc.Y)
}

// CornerForNDC classifies a projected point by screen quadrant. The
// vertical half never changes the outcome; all four quadrants are listed
// so each stays an explicit decision.
func CornerForNDC(x, y float64) Corner {
	switch {
	case x > 0 && y > 0:
		return TopLeft
	case x <= 0 && y > 0:
		return TopRight
	case x > 0 && y <= 0:
		return TopLeft
	default:
		return TopRight
	}
}

// DefaultAttributes returns the single "Type" row shown for objects that
// carry a component type but no attributes of their own.
func DefaultAttributes(obj *scene.Object) map[string]scene.Attribute {
	value := obj.Meta.ComponentType.String()
	if value == "" {
		value = "component"
	}
	return map[string]scene.Attribute{
		"info": {Key: "Type", Value: value, Min: 0, Max: 100, Step: 1},
	}
}

// Overlay is the info panel the viewer drives.
type Overlay interface {
	// SetSelected shows the overlay for obj at corner.
	SetSelected(obj *scene.Object, corner Corner)
	// Update moves the overlay to corner, keeping the current object.
	Update(corner Corner)
	// Selected returns the object the overlay describes, or nil.
	Selected() *scene.Object
	// Clear hides the overlay.
	Clear()
	// HandleSceneClick reacts to a click on empty space.
	HandleSceneClick()
	Dispose()
}

// State is a snapshot of the panel for the frontend.
type State struct {
	Visible bool              `json:"visible"`
	UUID    string            `json:"uuid,omitempty"`
	Corner  Corner            `json:"corner"`
	Rows    []scene.Attribute `json:"rows,omitempty"`
}

// Panel is the headless Overlay. The desktop frontend renders its State.
type Panel struct {
	selected *scene.Object
	corner   Corner
	disposed bool

	// OnChange, if set, is called after every visible change.
	OnChange func(State)
}

var _ Overlay = (*Panel)(nil)

// NewPanel returns a hidden panel.
func NewPanel() *Panel {
	return &Panel{corner: TopRight}
}

func (p *Panel) SetSelected(obj *scene.Object, corner Corner) {
	if p.disposed {
		return
	}
	p.selected = obj
	p.corner = corner
	p.changed()
}

func (p *Panel) Update(corner Corner) {
	if p.disposed || p.selected == nil {
		return
	}
	if corner == p.corner {
		return
	}
	p.corner = corner
	p.changed()
}

func (p *Panel) Selected() *scene.Object { return p.selected }

// Corner returns the current anchor corner.
func (p *Panel) Corner() Corner { return p.corner }

func (p *Panel) Clear() {
	if p.disposed || p.selected == nil {
		return
	}
	p.selected = nil
	p.changed()
}

// HandleSceneClick clears the panel; clicking empty space deselects.
func (p *Panel) HandleSceneClick() {
	p.Clear()
}

func (p *Panel) Dispose() {
	p.selected = nil
	p.disposed = true
	p.OnChange = nil
}

// State returns the current panel contents. Rows are ordered by
// attribute id.
func (p *Panel) State() State {
	st := State{Corner: p.corner}
	if p.selected == nil {
		return st
	}
	st.Visible = true
	st.UUID = p.selected.UUID
	ids := make([]string, 0, len(p.selected.Meta.Attributes))
	for id := range p.selected.Meta.Attributes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		st.Rows = append(st.Rows, p.selected.Meta.Attributes[id])
	}
	return st
}

// Text renders the panel as "Key: Value" lines.
func (p *Panel) Text() string {
	var sb strings.Builder
	for _, row := range p.State().Rows {
		fmt.Fprintf(&sb, "%s: %s\n", row.Key, row.Value)
	}
	return sb.String()
}

func (p *Panel) changed() {
	if p.OnChange != nil {
		p.OnChange(p.State())
	}
}
