package curve

import (
	"github.com/shopspring/decimal"

	"github.com/sarchlab/tempo/fixed"
)

// An Interpolator computes the value between keyframes a and b, when elapsed
// out of span time units have passed since a. Callers guarantee
// 0 <= elapsed < span.
type Interpolator[T any] func(a, b T, elapsed, span int64) T

// LerpInt64 interpolates integers linearly, truncating toward a.
func LerpInt64(a, b int64, elapsed, span int64) int64 {
	return fixed.Lerp(a, b, elapsed, span)
}

// LerpFixed interpolates fixed-point values linearly.
func LerpFixed(a, b fixed.Value, elapsed, span int64) fixed.Value {
	return a.Lerp(b, elapsed, span)
}

// LerpDecimal interpolates decimals linearly. The product is formed before
// dividing, so keyframe values that are integers interpolate to exact
// multiples of 1/span.
func LerpDecimal(a, b decimal.Decimal, elapsed, span int64) decimal.Decimal {
	weighted := b.Sub(a).Mul(decimal.NewFromInt(elapsed))
	return a.Add(weighted.Div(decimal.NewFromInt(span)))
}

// Step holds a until b is reached. A Continuous curve using Step behaves
// like a Discrete curve.
func Step[T any](a, _ T, _, _ int64) T {
	return a
}
