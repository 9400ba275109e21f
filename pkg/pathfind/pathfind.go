// Package pathfind is the default pipe router. It draws one orthogonal
// polyline per connection, keeps world boxes current, splits pipe runs
// around hand-moved segments and inserts gateways into existing runs.
//
// Routing is split in three so callers can move the pure part off the
// scene goroutine: Requests reads endpoint positions from the live scene,
// Route computes legs without touching it, and Apply swaps the generated
// polylines. UpdatePathfindingAfterTransform does all three in a row.
package pathfind

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/chazu/plantview/pkg/scene"
)

// DefaultColor is the first palette entry. Callers without a router use it
// for every path.
const DefaultColor = "#468e49"

// DefaultPalette colors successive paths.
var DefaultPalette = []string{DefaultColor, "#3f6fb5", "#c2571a", "#8a4fb0", "#b59b2a", "#2a9fa0"}

// PolylinePrefix names generated path parents: "Polyline-<n>".
const PolylinePrefix = "Polyline-"

// ErrForeignDocument is returned when a document other than the bound
// scene's is passed in.
var ErrForeignDocument = errors.New("pathfind: document is not bound to the scene")

// Options tunes a Manager.
type Options struct {
	PipeRadius float64 // default 0.05
	Palette    []string
	Logger     *slog.Logger
}

// Manager routes pipes through one live scene. It is safe to call from
// several goroutines; calls that touch the scene are serialized.
type Manager struct {
	mu      sync.Mutex
	scene   *scene.Scene
	radius  float64
	palette []string
	log     *slog.Logger
}

// New returns a manager bound to s.
func New(s *scene.Scene, opts Options) *Manager {
	m := &Manager{scene: s, radius: opts.PipeRadius, palette: opts.Palette, log: opts.Logger}
	if m.radius <= 0 {
		m.radius = 0.05
	}
	if len(m.palette) == 0 {
		m.palette = DefaultPalette
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	return m
}

// Scene returns the bound scene.
func (m *Manager) Scene() *scene.Scene { return m.scene }

// GetPathColor returns the color of the path at index i. The palette
// wraps; negative indices get the first color.
func (m *Manager) GetPathColor(i int) string {
	if i < 0 {
		return m.palette[0]
	}
	return m.palette[i%len(m.palette)]
}

func (m *Manager) bound(data *scene.SceneData) error {
	if data != nil && data != m.scene.Data {
		return ErrForeignDocument
	}
	return nil
}

// RecomputeWorldBoundingBoxes refreshes every stored world box.
func (m *Manager) RecomputeWorldBoundingBoxes(data *scene.SceneData) error {
	if err := m.bound(data); err != nil {
		return fmt.Errorf("recompute world boxes: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.scene.RecomputeWorldBoundingBoxes()
	m.log.Debug("world boxes recomputed", "count", n)
	return nil
}

// isPolyline reports whether obj is a generated path parent.
func isPolyline(obj *scene.Object) bool {
	return strings.HasPrefix(obj.Name, PolylinePrefix)
}

// Polylines returns the generated path parents under the root, in order.
func (m *Manager) Polylines() []*scene.Object {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.polylines()
}

func (m *Manager) polylines() []*scene.Object {
	var out []*scene.Object
	for _, c := range m.scene.Root.Children() {
		if isPolyline(c) {
			out = append(out, c)
		}
	}
	return out
}
