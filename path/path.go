package path

import (
	"context"
	"errors"

	"github.com/sarchlab/tempo/curve"
	"github.com/sarchlab/tempo/fixed"
	"github.com/sarchlab/tempo/timing"
)

var (
	// ErrEmptyPath is returned when applying a path without waypoints.
	ErrEmptyPath = errors.New("path: path has no waypoints")

	// ErrZeroSpeed is returned when applying a path with a speed that is not
	// positive.
	ErrZeroSpeed = errors.New("path: speed must be positive")
)

// Path is a sequence of waypoints, starting at the current position.
type Path struct {
	Waypoints []Vec2
}

// Length returns the Manhattan length of the path.
func (p Path) Length() fixed.Value {
	var l fixed.Value
	for i := 1; i < len(p.Waypoints); i++ {
		l += p.Waypoints[i].Sub(p.Waypoints[i-1]).ManhattanLength()
	}

	return l
}

// Apply writes the path onto a position curve, starting at time start and
// moving at speed units per second. Keyframes after start are replaced. It
// returns the time the last waypoint is reached.
func (p Path) Apply(
	c *curve.Continuous[Vec2],
	start timing.VTime,
	speed fixed.Value,
) (timing.VTime, error) {
	if len(p.Waypoints) == 0 {
		return start, ErrEmptyPath
	}

	if speed <= 0 {
		return start, ErrZeroSpeed
	}

	t := start
	c.SetLast(t, p.Waypoints[0])

	for i := 1; i < len(p.Waypoints); i++ {
		leg := p.Waypoints[i].Sub(p.Waypoints[i-1]).ManhattanLength()
		t = t.Add(timing.FromFixed(leg.Div(speed)))
		c.Set(t, p.Waypoints[i])
	}

	return t, nil
}

// A Finder computes paths. Implementations may be slow and are meant to run
// as jobs.
type Finder interface {
	Find(ctx context.Context, from, to Vec2) (Path, error)
}

// Straight is a Finder that goes from one point to the other without
// obstacles. Axis-aligned legs are used, first along X and then along Y.
type Straight struct{}

// Find returns the path from from to to.
func (Straight) Find(ctx context.Context, from, to Vec2) (Path, error) {
	if err := ctx.Err(); err != nil {
		return Path{}, err
	}

	corner := Vec2{X: to.X, Y: from.Y}
	if corner == from || corner == to {
		return Path{Waypoints: []Vec2{from, to}}, nil
	}

	return Path{Waypoints: []Vec2{from, corner, to}}, nil
}
