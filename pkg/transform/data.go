package transform

import v3 "github.com/deadsy/sdfx/vec/v3"

// Data is the live transform readout sent to the frontend while a gesture
// is in progress. Rotation is in radians.
type Data struct {
	UUID          string `json:"uuid"`
	Mode          Mode   `json:"mode"`
	Position      v3.Vec `json:"position"`
	Rotation      v3.Vec `json:"rotation"`
	Scale         v3.Vec `json:"scale"`
	WorldPosition v3.Vec `json:"worldPosition"`
}
