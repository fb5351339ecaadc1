// Package path turns paths computed elsewhere into keyframes on position
// curves.
package path

import (
	"fmt"

	"github.com/sarchlab/tempo/fixed"
)

// Vec2 is a point or displacement on the plane.
type Vec2 struct {
	X, Y fixed.Value
}

// V2 creates a vector from integer coordinates.
func V2(x, y int64) Vec2 {
	return Vec2{X: fixed.FromInt(x), Y: fixed.FromInt(y)}
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

// Scale returns v * s.
func (v Vec2) Scale(s fixed.Value) Vec2 {
	return Vec2{X: v.X.Mul(s), Y: v.Y.Mul(s)}
}

// ManhattanLength returns |X| + |Y|.
func (v Vec2) ManhattanLength() fixed.Value {
	return v.X.Abs() + v.Y.Abs()
}

// Lerp interpolates between v and o componentwise.
func (v Vec2) Lerp(o Vec2, elapsed, span int64) Vec2 {
	return Vec2{
		X: v.X.Lerp(o.X, elapsed, span),
		Y: v.Y.Lerp(o.Y, elapsed, span),
	}
}

func (v Vec2) String() string {
	return fmt.Sprintf("(%s, %s)", v.X, v.Y)
}

// LerpVec2 is the linear curve.Interpolator for Vec2.
func LerpVec2(a, b Vec2, elapsed, span int64) Vec2 {
	return a.Lerp(b, elapsed, span)
}
