// Package bounce is a small simulation of a ball in a box. A paddle follows
// the ball along the bottom wall, planning its moves as background jobs.
package bounce

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/sarchlab/tempo/curve"
	"github.com/sarchlab/tempo/event"
	"github.com/sarchlab/tempo/fixed"
	"github.com/sarchlab/tempo/job"
	"github.com/sarchlab/tempo/monitoring"
	"github.com/sarchlab/tempo/path"
	"github.com/sarchlab/tempo/simulation"
	"github.com/sarchlab/tempo/timing"
)

// Class names.
const (
	ClassServe = "bounce.serve"
	ClassWall  = "bounce.wall"
	ClassCount = "bounce.count"
	ClassFrame = "bounce.frame"
	ClassNudge = "bounce.nudge"
)

// ErrInvalidConfig is returned when a Config cannot be simulated.
var ErrInvalidConfig = errors.New("bounce: invalid config")

// Config describes one run.
type Config struct {
	Box      Box
	Start    path.Vec2
	Velocity path.Vec2 // units per second
	ServeAt  timing.VTime
	Duration timing.VTime

	FrameRate   timing.FreqInHz
	PlanEvery   int64 // frames between paddle plans
	PlanLatency int64 // frames between a plan request and its use
	PaddleStart path.Vec2
	PaddleSpeed fixed.Value

	// Nudges turn the ball by a quarter at the given times.
	Nudges []timing.VTime

	Finder path.Finder
}

// DefaultConfig returns a 16 by 9 box with a 30 Hz frame rate.
func DefaultConfig() Config {
	return Config{
		Box:         Box{Size: path.V2(16, 9)},
		Start:       path.V2(8, 4),
		Velocity:    path.V2(3, 2),
		Duration:    timing.FromInt(20),
		FrameRate:   30,
		PlanEvery:   15,
		PlanLatency: 3,
		PaddleSpeed: fixed.FromInt(6),
		Finder:      path.Straight{},
	}
}

func (c Config) validate() error {
	switch {
	case c.Box.Size.X <= 0 || c.Box.Size.Y <= 0:
		return fmt.Errorf("%w: box must have a positive size", ErrInvalidConfig)
	case c.Start.X < 0 || c.Start.X > c.Box.Size.X ||
		c.Start.Y < 0 || c.Start.Y > c.Box.Size.Y:
		return fmt.Errorf("%w: start %s is outside the box",
			ErrInvalidConfig, c.Start)
	case c.Duration <= c.ServeAt:
		return fmt.Errorf("%w: duration must be after the serve",
			ErrInvalidConfig)
	case c.PlanEvery <= 0 || c.PlanLatency < 0:
		return fmt.Errorf("%w: bad plan schedule", ErrInvalidConfig)
	case c.PaddleSpeed <= 0:
		return fmt.Errorf("%w: paddle speed must be positive",
			ErrInvalidConfig)
	}

	return nil
}

// Summary is the outcome of a run.
type Summary struct {
	End     timing.VTime
	Fired   int
	Frames  int64
	Bounces int64
	Nudges  int
	Plans   int
	Ball    path.Vec2
	Paddle  path.Vec2
}

type world struct {
	cfg  Config
	freq timing.Freq
	ctx  context.Context
	jobs *job.Manager
	bar  *monitoring.ProgressBar

	ball   *Ball
	score  *Score
	paddle *Paddle

	ballID   event.TargetID
	scoreID  event.TargetID
	paddleID event.TargetID

	frames  int64
	plans   int
	plan    *job.Future[path.Path]
	planDue timing.VTime
	started bool
}

// Run simulates cfg in session until cfg.Duration.
func Run(
	ctx context.Context,
	session *simulation.Session,
	cfg Config,
) (Summary, error) {
	if cfg.Finder == nil {
		cfg.Finder = path.Straight{}
	}

	if err := cfg.validate(); err != nil {
		return Summary{}, err
	}

	freq, err := timing.NewFreq(cfg.FrameRate)
	if err != nil {
		return Summary{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	w := &world{
		cfg:  cfg,
		freq: freq,
		ctx:  ctx,
		jobs: session.Jobs(),
	}

	loop := session.Loop()
	w.populate(loop)

	if m := session.Monitor(); m != nil {
		total := int64(cfg.Duration / freq.Period())
		w.bar = m.CreateProgressBar("frames", uint64(total))
		defer m.CompleteProgressBar(w.bar)
	}

	if err := w.schedule(loop); err != nil {
		return Summary{}, err
	}

	nudges := slices.Clone(cfg.Nudges)
	slices.Sort(nudges)

	for _, t := range nudges {
		if t < loop.CurrentTime() || t > cfg.Duration {
			continue
		}

		if err := w.advance(loop, t); err != nil {
			return Summary{}, err
		}

		loop.Trigger(w.ballID, t)
	}

	if err := w.advance(loop, cfg.Duration); err != nil {
		return Summary{}, err
	}

	end := loop.CurrentTime()

	return Summary{
		End:     end,
		Fired:   loop.Store().Len(),
		Frames:  w.frames,
		Bounces: w.score.Bounces.Get(end),
		Nudges:  countNudges(loop),
		Plans:   w.plans,
		Ball:    w.ball.Position.Get(end),
		Paddle:  w.paddle.Position.Get(end),
	}, nil
}

// advance runs the loop to until one frame at a time. A paddle plan is
// requested inside a frame and applied at a later one, so stepping by frames
// lets the plan be waited for here, between two RunUntil calls, and never
// inside an effect.
func (w *world) advance(loop *event.Loop, until timing.VTime) error {
	for {
		if err := w.ctx.Err(); err != nil {
			return err
		}

		next := loop.CurrentTime()
		if w.started {
			next = w.freq.NextTick(next)
		}
		w.started = true

		step := timing.Min(next, until)

		// Job errors are reported by the frame that applies the plan.
		if w.plan != nil && w.planDue <= step {
			if _, err := w.plan.Wait(w.ctx); err != nil && w.ctx.Err() != nil {
				return w.ctx.Err()
			}
		}

		if err := loop.RunUntil(step); err != nil {
			return err
		}

		if step >= until {
			return nil
		}
	}
}

func (w *world) populate(loop *event.Loop) {
	w.ball = NewBall(w.cfg.Start)
	w.score = &Score{Bounces: curve.NewDiscrete[int64](0)}
	w.paddle = &Paddle{
		Position: curve.NewContinuous(w.cfg.PaddleStart, path.LerpVec2),
	}

	w.ballID = loop.Targets().Add(w.ball)
	w.scoreID = loop.Targets().Add(w.score)
	w.paddleID = loop.Targets().Add(w.paddle)

	event.Watch(loop, w.ballID, w.ball.Position)
	event.Watch(loop, w.ballID, w.ball.Velocity)
	event.Watch(loop, w.scoreID, w.score.Bounces)
	event.Watch(loop, w.paddleID, w.paddle.Position)
}

func (w *world) schedule(loop *event.Loop) error {
	creations := []struct {
		cls    *event.Class
		target event.TargetID
		ref    timing.VTime
	}{
		{w.serveClass(), w.ballID, w.cfg.ServeAt},
		{w.wallClass(), w.ballID, w.cfg.ServeAt},
		{w.countClass(), w.scoreID, w.cfg.ServeAt},
		{w.frameClass(), w.paddleID, loop.CurrentTime()},
		{w.nudgeClass(), w.ballID, w.cfg.ServeAt},
	}

	for _, c := range creations {
		if _, err := loop.CreateEventFromClass(c.cls, c.target, c.ref, nil); err != nil {
			return fmt.Errorf("bounce: %w", err)
		}
	}

	return nil
}

func countNudges(loop *event.Loop) int {
	n := 0

	it := loop.Store().Iter()
	for it.Next() {
		if it.Record().Class == ClassNudge {
			n++
		}
	}

	return n
}
