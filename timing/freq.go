package timing

import (
	"errors"
	"fmt"
)

// FreqInHz defines frequency in the unit of Hertz (ticks per simulated
// second).
type FreqInHz uint64

// Frequency units.
const (
	Hz  = FreqInHz(1)
	KHz = FreqInHz(1000 * Hz)
)

var (
	// ErrZeroFrequency indicates that a tick grid was requested with a zero
	// frequency, which is not meaningful.
	ErrZeroFrequency = errors.New("timing: frequency must be greater than zero")

	// ErrFrequencyTooHigh indicates that the tick period is shorter than the
	// time resolution.
	ErrFrequencyTooHigh = errors.New("timing: frequency exceeds time resolution")
)

// A Freq aligns times to the ticks of a fixed frequency. Repeating event
// classes use it to fire on a regular grid that does not drift.
type Freq struct {
	freq   FreqInHz
	period VTime
}

// NewFreq creates a grid whose ticks are 1/freq seconds apart, starting
// at TimeZero.
func NewFreq(freq FreqInHz) (Freq, error) {
	if freq == 0 {
		return Freq{}, ErrZeroFrequency
	}

	period := FromRatio(1, int64(freq))
	if period <= 0 {
		return Freq{}, fmt.Errorf("%w: %d Hz", ErrFrequencyTooHigh, freq)
	}

	return Freq{freq: freq, period: period}, nil
}

// MustFreq is like NewFreq but panics on error. It is meant for
// package-level grids with constant frequencies.
func MustFreq(freq FreqInHz) Freq {
	g, err := NewFreq(freq)
	if err != nil {
		panic(err)
	}
	return g
}

// Frequency returns the frequency of the grid.
func (g Freq) Frequency() FreqInHz {
	return g.freq
}

// Period returns the time between two ticks.
func (g Freq) Period() VTime {
	return g.period
}

// ThisTick aligns t to the earliest tick that is not earlier than t.
func (g Freq) ThisTick(t VTime) VTime {
	if g.period == 0 {
		return t
	}

	if t == TimeMax {
		return TimeMax
	}

	q := t / g.period
	tick := q * g.period
	if tick < t {
		tick = tick.Add(g.period)
	}

	return tick
}

// NextTick returns the earliest tick strictly after t.
func (g Freq) NextTick(t VTime) VTime {
	tick := g.ThisTick(t)
	if tick == t {
		return tick.Add(g.period)
	}
	return tick
}

// NTicksLater returns the tick that is n ticks after ThisTick(t).
func (g Freq) NTicksLater(t VTime, n int64) VTime {
	tick := g.ThisTick(t)
	for i := int64(0); i < n && tick != TimeMax; i++ {
		tick = tick.Add(g.period)
	}
	return tick
}
