// Package transform tracks a single manual transform gesture from the
// moment the gizmo grabs an object until it lets go.
package transform

import (
	"fmt"
	"math"
	"strings"

	"github.com/chazu/plantview/pkg/scene"
)

// Mode is the gizmo operation.
type Mode int

const (
	Translate Mode = iota
	Rotate
	Scale
)

func (m Mode) String() string {
	switch m {
	case Translate:
		return "translate"
	case Rotate:
		return "rotate"
	case Scale:
		return "scale"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a mode name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "translate":
		return Translate, nil
	case "rotate":
		return Rotate, nil
	case "scale":
		return Scale, nil
	}
	return 0, fmt.Errorf("transform: unknown mode %q, expected translate, rotate or scale", s)
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Snap holds the gizmo increments per mode. Rotation is in radians.
type Snap struct {
	Translation float64 `json:"translation"`
	Rotation    float64 `json:"rotation"`
	Scale       float64 `json:"scale"`
}

// DefaultSnap is half a unit, a quarter turn and five percent.
var DefaultSnap = Snap{Translation: 0.5, Rotation: math.Pi / 2, Scale: 0.05}

// Record describes one completed transform for the history collaborator.
type Record struct {
	Type           Mode           `json:"type"`
	Object         *scene.Object  `json:"-"`
	UUID           string         `json:"uuid"`
	Values         scene.Snapshot `json:"values"`
	PreviousValues scene.Snapshot `json:"previousValues"`
}

// NewRecord builds the record for obj's completed transform.
func NewRecord(mode Mode, obj *scene.Object, previous scene.Snapshot) Record {
	return Record{
		Type:           mode,
		Object:         obj,
		UUID:           obj.UUID,
		Values:         obj.Snapshot(),
		PreviousValues: previous,
	}
}
