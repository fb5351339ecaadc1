package bounce

import (
	"context"
	"fmt"

	"github.com/sarchlab/tempo/event"
	"github.com/sarchlab/tempo/job"
	"github.com/sarchlab/tempo/path"
	"github.com/sarchlab/tempo/timing"
)

// serveClass launches the ball once, at the serve time.
func (w *world) serveClass() *event.Class {
	return &event.Class{
		Name:    ClassServe,
		Trigger: event.Once,
		Effect: func(inv *event.Invocation) error {
			ball := inv.Target.(*Ball)
			ball.launch(w.cfg.Box, inv.At, ball.Position.Get(inv.At), w.cfg.Velocity)

			return nil
		},
	}
}

// wallClass fires when the ball reaches the keyframe of its next wall hit.
func (w *world) wallClass() *event.Class {
	return &event.Class{
		Name:    ClassWall,
		Trigger: event.Dependency,
		Predict: func(inv *event.Invocation) timing.VTime {
			ball := inv.Target.(*Ball)

			t, _, ok := ball.Position.NextFrame(inv.At)
			if !ok {
				return timing.TimeMax
			}

			return t
		},
		Effect: func(inv *event.Invocation) error {
			ball := inv.Target.(*Ball)
			pos := ball.Position.Get(inv.At)
			vel := w.cfg.Box.reflect(pos, ball.Velocity.Get(inv.At))
			ball.launch(w.cfg.Box, inv.At, pos, vel)

			return nil
		},
	}
}

// countClass counts every time a moving ball changes its course.
func (w *world) countClass() *event.Class {
	return &event.Class{
		Name:    ClassCount,
		Trigger: event.DependencyImmediately,
		Setup: func(inv *event.Invocation) {
			inv.Event.DependOn(w.ballID)
		},
		Effect: func(inv *event.Invocation) error {
			before := w.ball.Velocity.Get(inv.At - timing.Epsilon)
			if before == (path.Vec2{}) {
				return nil
			}

			score := inv.Target.(*Score)
			score.Bounces.Set(inv.At, score.Bounces.Get(inv.At)+1)

			return nil
		},
	}
}

// frameClass runs on the frame grid. It asks for a paddle plan every
// PlanEvery frames and applies it PlanLatency frames later.
func (w *world) frameClass() *event.Class {
	return &event.Class{
		Name:    ClassFrame,
		Trigger: event.Repeat,
		Predict: func(inv *event.Invocation) timing.VTime {
			t := w.freq.NextTick(inv.At)
			if t > w.cfg.Duration {
				return timing.TimeMax
			}

			return t
		},
		Effect: func(inv *event.Invocation) error {
			w.frames++
			if w.bar != nil {
				w.bar.IncrementFinished(1)
			}

			paddle := inv.Target.(*Paddle)

			if w.plan != nil && inv.At >= w.planDue {
				if err := w.applyPlan(paddle, inv.At); err != nil {
					return err
				}
			}

			if w.plan == nil && w.frames%w.cfg.PlanEvery == 0 {
				w.requestPlan(paddle, inv.At)
			}

			return nil
		},
	}
}

// requestPlan submits a job that finds the way from where the paddle will be
// at the due frame to the point below the ball at that time.
func (w *world) requestPlan(paddle *Paddle, now timing.VTime) {
	due := w.freq.NTicksLater(now, w.cfg.PlanLatency)
	from := paddle.Position.Get(due)
	to := path.Vec2{X: w.ball.Position.Get(due).X, Y: w.cfg.PaddleStart.Y}
	finder := w.cfg.Finder

	w.planDue = due
	w.plan = job.Submit(w.ctx, w.jobs,
		func(ctx context.Context) (path.Path, error) {
			return finder.Find(ctx, from, to)
		})
}

// applyPlan writes the planned path onto the paddle. Run has waited for the
// plan before stepping onto its due frame, so the result is ready here.
func (w *world) applyPlan(paddle *Paddle, now timing.VTime) error {
	p, ok, err := w.plan.Result()
	if !ok {
		return fmt.Errorf("bounce: paddle plan due at %s is not ready", w.planDue)
	}

	w.plan = nil

	if err != nil {
		return fmt.Errorf("bounce: paddle plan: %w", err)
	}

	if _, err := p.Apply(paddle.Position, now, w.cfg.PaddleSpeed); err != nil {
		return fmt.Errorf("bounce: paddle plan: %w", err)
	}

	w.plans++

	return nil
}

// nudgeClass turns the ball by a quarter when triggered.
func (w *world) nudgeClass() *event.Class {
	return &event.Class{
		Name:    ClassNudge,
		Trigger: event.Trigger,
		Effect: func(inv *event.Invocation) error {
			ball := inv.Target.(*Ball)
			vel := ball.Velocity.Get(inv.At)
			turned := path.Vec2{X: vel.Y.Neg(), Y: vel.X}
			ball.launch(w.cfg.Box, inv.At, ball.Position.Get(inv.At), turned)

			return nil
		},
	}
}
