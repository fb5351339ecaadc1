// Package timing defines simulated time for tempo.
//
// Simulated time is a signed fixed-point number of seconds (see package
// fixed). Only integer arithmetic is used on time values, so the ordering of
// events is identical on every machine.
package timing

import (
	"math"

	"github.com/sarchlab/tempo/fixed"
)

// VTime is a point in simulated time, in seconds, stored as a fixed-point
// number with fixed.FracBits fractional bits.
type VTime int64

const (
	// TimeZero is the start of the simulated timeline.
	TimeZero = VTime(0)

	// TimeMin is the earliest representable time. Predictions returning
	// TimeMin mark an event as obsolete.
	TimeMin = VTime(math.MinInt64)

	// TimeMax is the latest representable time. Predictions returning TimeMax
	// mean that the event never happens under the current state.
	TimeMax = VTime(math.MaxInt64)

	// Epsilon is the smallest positive time step.
	Epsilon = VTime(1)
)

// FromInt returns n whole seconds.
func FromInt(n int64) VTime {
	return VTime(fixed.FromInt(n))
}

// FromRatio returns num/den seconds, truncated toward zero.
func FromRatio(num, den int64) VTime {
	return VTime(fixed.FromRatio(num, den))
}

// FromSeconds converts a float into the nearest VTime. Use it for literals
// and configuration only.
func FromSeconds(sec float64) VTime {
	return VTime(fixed.FromFloat(sec))
}

// FromFixed reinterprets a fixed-point number of seconds as a VTime.
func FromFixed(v fixed.Value) VTime {
	return VTime(v)
}

// Fixed returns the time as a fixed-point number of seconds.
func (t VTime) Fixed() fixed.Value {
	return fixed.Value(t)
}

// Seconds converts the time to float seconds for display.
func (t VTime) Seconds() float64 {
	return fixed.Value(t).Float64()
}

// String renders the time in seconds. The extremes print as -inf and +inf.
func (t VTime) String() string {
	switch t {
	case TimeMin:
		return "-inf"
	case TimeMax:
		return "+inf"
	}

	return fixed.Value(t).String()
}

// Before reports whether t is earlier than o.
func (t VTime) Before(o VTime) bool {
	return t < o
}

// After reports whether t is later than o.
func (t VTime) After(o VTime) bool {
	return t > o
}

// Sub returns t - o.
func (t VTime) Sub(o VTime) VTime {
	return t - o
}

// Add returns t + d, saturating at TimeMin and TimeMax.
func (t VTime) Add(d VTime) VTime {
	sum := t + d
	if d > 0 && sum < t {
		return TimeMax
	}
	if d < 0 && sum > t {
		return TimeMin
	}
	return sum
}

// Max returns the later of a and b.
func Max(a, b VTime) VTime {
	if a > b {
		return a
	}
	return b
}

// Min returns the earlier of a and b.
func Min(a, b VTime) VTime {
	if a < b {
		return a
	}
	return b
}
