package bounce

import (
	"github.com/sarchlab/tempo/curve"
	"github.com/sarchlab/tempo/fixed"
	"github.com/sarchlab/tempo/path"
	"github.com/sarchlab/tempo/timing"
)

// Ball moves in straight lines between walls. Its position curve always
// holds the keyframe of the next wall hit.
type Ball struct {
	Position *curve.Continuous[path.Vec2]
	Velocity *curve.Discrete[path.Vec2]
}

// NewBall creates a resting ball at pos.
func NewBall(pos path.Vec2) *Ball {
	return &Ball{
		Position: curve.NewContinuous(pos, path.LerpVec2),
		Velocity: curve.NewDiscrete(path.Vec2{}),
	}
}

// Score counts the direction changes of the ball.
type Score struct {
	Bounces *curve.Discrete[int64]
}

// Paddle follows the ball along the bottom wall.
type Paddle struct {
	Position *curve.Continuous[path.Vec2]
}

// Box is the area the ball moves in, from the origin to Size.
type Box struct {
	Size path.Vec2
}

// launch sends the ball from pos at t with velocity vel. Keyframes after t
// are replaced by the trajectory up to the next wall.
func (b *Ball) launch(box Box, t timing.VTime, pos, vel path.Vec2) {
	b.Position.SetLast(t, pos)
	b.Velocity.Set(t, vel)

	dt, hit, ok := box.nextHit(pos, vel)
	if !ok {
		return
	}

	b.Position.Set(t.Add(timing.FromFixed(dt)), hit)
}

// nextHit returns how long until the ball reaches a wall and where. It
// reports false for a ball that does not move.
func (box Box) nextHit(pos, vel path.Vec2) (fixed.Value, path.Vec2, bool) {
	tx, okX := axisTime(pos.X, vel.X, box.Size.X)
	ty, okY := axisTime(pos.Y, vel.Y, box.Size.Y)

	var dt fixed.Value

	switch {
	case okX && okY:
		dt = min(tx, ty)
	case okX:
		dt = tx
	case okY:
		dt = ty
	default:
		return 0, path.Vec2{}, false
	}

	if dt <= 0 {
		dt = fixed.FromRaw(1)
	}

	hit := pos.Add(vel.Scale(dt))
	hit.X = clamp(hit.X, box.Size.X)
	hit.Y = clamp(hit.Y, box.Size.Y)

	if okX && tx == dt {
		hit.X = wall(vel.X, box.Size.X)
	}

	if okY && ty == dt {
		hit.Y = wall(vel.Y, box.Size.Y)
	}

	return dt, hit, true
}

// reflect flips the velocity components that point into a wall the ball
// touches.
func (box Box) reflect(pos, vel path.Vec2) path.Vec2 {
	if (pos.X <= 0 && vel.X < 0) || (pos.X >= box.Size.X && vel.X > 0) {
		vel.X = vel.X.Neg()
	}

	if (pos.Y <= 0 && vel.Y < 0) || (pos.Y >= box.Size.Y && vel.Y > 0) {
		vel.Y = vel.Y.Neg()
	}

	return vel
}

func axisTime(p, v, size fixed.Value) (fixed.Value, bool) {
	switch {
	case v > 0:
		return size.Sub(p).Div(v), true
	case v < 0:
		return p.Div(v.Neg()), true
	}

	return 0, false
}

func wall(v, size fixed.Value) fixed.Value {
	if v > 0 {
		return size
	}

	return 0
}

func clamp(v, size fixed.Value) fixed.Value {
	return max(0, min(v, size))
}
