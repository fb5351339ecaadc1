package event

import (
	"github.com/sarchlab/tempo/curve"
	"github.com/sarchlab/tempo/instrumentation/hooking"
)

// Watch forwards the changes of a curve to the loop as changes of target
// id. It returns the hook registered on the curve.
func Watch(loop *Loop, id TargetID, c hooking.Hookable) hooking.Hook {
	hook := hooking.HookFunc(func(ctx hooking.HookCtx) {
		if ctx.Pos != curve.HookPosChanged {
			return
		}

		change, ok := ctx.Detail.(curve.Change)
		if !ok {
			return
		}

		loop.NotifyChange(id, change.At)
	})

	c.AcceptHook(hook)

	return hook
}
