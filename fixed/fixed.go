// Package fixed implements signed 64-bit fixed-point arithmetic with 16
// fractional bits.
//
// All operations are integer-only so that results are bit-identical across
// platforms. Multiplication and division go through a 128-bit intermediate
// and truncate toward zero.
package fixed

import (
	"math"
	"math/bits"
	"strconv"
)

// FracBits is the number of fractional bits of a Value.
const FracBits = 16

const one = int64(1) << FracBits

// Value is a fixed-point number. The raw integer is the value multiplied by
// 2^FracBits.
type Value int64

// Common values.
const (
	Zero = Value(0)
	One  = Value(one)
	Half = Value(one / 2)
	Max  = Value(math.MaxInt64)
	Min  = Value(math.MinInt64)
)

// FromInt converts an integer into a Value.
func FromInt(n int64) Value {
	return Value(n << FracBits)
}

// FromRatio returns num/den as a Value, truncated toward zero.
func FromRatio(num, den int64) Value {
	return Value(MulDiv(num, one, den))
}

// FromFloat converts a float into the nearest Value. It is meant for
// literals and configuration input; simulation arithmetic should not
// round-trip through floats.
func FromFloat(f float64) Value {
	return Value(math.Round(f * float64(one)))
}

// FromRaw wraps a raw fixed-point integer.
func FromRaw(raw int64) Value {
	return Value(raw)
}

// Raw returns the underlying integer.
func (v Value) Raw() int64 {
	return int64(v)
}

// Int returns the integer part, rounding toward negative infinity.
func (v Value) Int() int64 {
	return int64(v) >> FracBits
}

// Float64 converts the value to a float for display.
func (v Value) Float64() float64 {
	return float64(v) / float64(one)
}

// Add returns v + o.
func (v Value) Add(o Value) Value { return v + o }

// Sub returns v - o.
func (v Value) Sub(o Value) Value { return v - o }

// Neg returns -v.
func (v Value) Neg() Value { return -v }

// Abs returns |v|.
func (v Value) Abs() Value {
	if v < 0 {
		return -v
	}
	return v
}

// Mul returns v * o.
func (v Value) Mul(o Value) Value {
	return Value(MulDiv(int64(v), int64(o), one))
}

// MulInt returns v * n.
func (v Value) MulInt(n int64) Value {
	return v * Value(n)
}

// Div returns v / o. It panics if o is zero.
func (v Value) Div(o Value) Value {
	return Value(MulDiv(int64(v), one, int64(o)))
}

// String formats the value as a decimal number.
func (v Value) String() string {
	return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
}

// MulDiv computes x*num/den with a 128-bit intermediate product, truncating
// toward zero. It panics on division by zero or if the quotient does not fit
// into an int64.
func MulDiv(x, num, den int64) int64 {
	if den == 0 {
		panic("fixed: division by zero")
	}

	negative := (x < 0) != (num < 0)
	if den < 0 {
		negative = !negative
	}

	ux, un, ud := abs64(x), abs64(num), abs64(den)

	hi, lo := bits.Mul64(ux, un)
	if hi >= ud {
		panic("fixed: MulDiv overflow")
	}

	q, _ := bits.Div64(hi, lo, ud)

	if negative {
		if q > 1<<63 {
			panic("fixed: MulDiv overflow")
		}
		return int64(-q)
	}

	if q > math.MaxInt64 {
		panic("fixed: MulDiv overflow")
	}

	return int64(q)
}

// Lerp returns a + (b-a)*elapsed/span. The step is truncated toward a, so the
// result is monotonic in elapsed and always lies between a and b. Elapsed is
// clamped into [0, span]; span must be positive.
func Lerp(a, b, elapsed, span int64) int64 {
	if span <= 0 {
		panic("fixed: interpolation span must be positive")
	}

	if elapsed <= 0 {
		return a
	}

	if elapsed >= span {
		return b
	}

	if b >= a {
		d := uint64(b) - uint64(a)
		return int64(uint64(a) + scale(d, elapsed, span))
	}

	d := uint64(a) - uint64(b)

	return int64(uint64(a) - scale(d, elapsed, span))
}

// Lerp interpolates between v and o, see the package-level Lerp.
func (v Value) Lerp(o Value, elapsed, span int64) Value {
	return Value(Lerp(int64(v), int64(o), elapsed, span))
}

// scale returns d*e/s for 0 < e < s. The quotient is below d and cannot
// overflow.
func scale(d uint64, e, s int64) uint64 {
	hi, lo := bits.Mul64(d, uint64(e))
	q, _ := bits.Div64(hi, lo, uint64(s))
	return q
}

func abs64(x int64) uint64 {
	u := uint64(x)
	if x < 0 {
		u = -u
	}
	return u
}
