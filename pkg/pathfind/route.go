package pathfind

import (
	"context"
	"fmt"
	"math"

	"github.com/chazu/plantview/pkg/scene"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// minLeg is the shortest leg worth a segment.
const minLeg = 1e-6

// Request is one connection with its endpoints resolved to world space.
type Request struct {
	Index    int
	Conn     scene.Connection
	From, To v3.Vec
}

// Leg is a straight run between two points.
type Leg struct {
	Start, End v3.Vec
}

// Length returns the leg length.
func (l Leg) Length() float64 { return l.End.Sub(l.Start).Length() }

// Midpoint returns the center of the leg.
func (l Leg) Midpoint() v3.Vec { return l.Start.Add(l.End).MulScalar(0.5) }

// Path is the routed form of one request.
type Path struct {
	Request
	Legs []Leg
}

// Plan is the output of Route.
type Plan struct {
	Paths []Path
}

// Requests resolves every connection in data to world endpoints.
// Connections with a missing endpoint are logged and left out.
func (m *Manager) Requests(data *scene.SceneData) ([]Request, error) {
	if err := m.bound(data); err != nil {
		return nil, fmt.Errorf("path requests: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data = m.scene.Data

	reqs := make([]Request, 0, len(data.Connections))
	for _, c := range data.Connections {
		from, ok := m.scene.Lookup(c.From)
		if !ok {
			m.log.Warn("connection endpoint missing", "connection", c.String(), "uuid", c.From)
			continue
		}
		to, ok := m.scene.Lookup(c.To)
		if !ok {
			m.log.Warn("connection endpoint missing", "connection", c.String(), "uuid", c.To)
			continue
		}
		reqs = append(reqs, Request{
			Index: len(reqs),
			Conn:  c,
			From:  from.WorldPosition(),
			To:    to.WorldPosition(),
		})
	}
	return reqs, nil
}

// Route computes an orthogonal path for every request: rise to the higher
// endpoint, run along X, then along Z, then drop. It does not touch the
// scene and stops early when ctx is done.
func Route(ctx context.Context, reqs []Request) (Plan, error) {
	plan := Plan{Paths: make([]Path, 0, len(reqs))}
	for _, r := range reqs {
		if err := ctx.Err(); err != nil {
			return Plan{}, fmt.Errorf("routing interrupted: %w", err)
		}
		plan.Paths = append(plan.Paths, Path{Request: r, Legs: orthogonalLegs(r.From, r.To)})
	}
	return plan, nil
}

func orthogonalLegs(from, to v3.Vec) []Leg {
	h := math.Max(from.Y, to.Y)
	pts := []v3.Vec{
		from,
		{X: from.X, Y: h, Z: from.Z},
		{X: to.X, Y: h, Z: from.Z},
		{X: to.X, Y: h, Z: to.Z},
		to,
	}
	var legs []Leg
	for i := 1; i < len(pts); i++ {
		l := Leg{Start: pts[i-1], End: pts[i]}
		if l.Length() > minLeg {
			legs = append(legs, l)
		}
	}
	return legs
}

// legRotation turns a Y-axis cylinder onto the leg's axis.
func legRotation(l Leg) v3.Vec {
	d := l.End.Sub(l.Start).Abs()
	switch {
	case d.X >= d.Y && d.X >= d.Z:
		return v3.Vec{Z: math.Pi / 2}
	case d.Z >= d.Y:
		return v3.Vec{X: math.Pi / 2}
	default:
		return v3.Vec{}
	}
}
