package event

import "github.com/sirupsen/logrus"

// DefaultMaxSameTimeFirings is the default limit of events that may fire at
// one point in time before RunUntil gives up.
const DefaultMaxSameTimeFirings = 9000

// An Option configures a Loop.
type Option func(l *Loop)

// WithLogger makes the loop log through logger instead of the standard
// logrus logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(l *Loop) {
		l.log = logger
	}
}

// WithStrict makes the loop panic on events whose target was destroyed
// without Loop.DestroyTarget. By default such events are logged and dropped.
func WithStrict(strict bool) Option {
	return func(l *Loop) {
		l.strict = strict
	}
}

// WithMaxSameTimeFirings sets how many events may fire at a single time
// before RunUntil returns ErrNotSettling. Values below one select the
// default.
func WithMaxSameTimeFirings(n int) Option {
	return func(l *Loop) {
		if n < 1 {
			n = DefaultMaxSameTimeFirings
		}
		l.maxSameTime = n
	}
}

// WithTargets makes the loop use an existing target arena.
func WithTargets(targets *Targets) Option {
	return func(l *Loop) {
		l.targets = targets
	}
}
