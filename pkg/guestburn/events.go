package guestburn

import (
	"github.com/stress-labs/guestburn/internal/app"
	"github.com/stress-labs/guestburn/internal/domain"
)

// StateChangeEvent is emitted on every lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// IterationEvent is emitted when a transfer iteration completes cleanly.
type IterationEvent struct {
	Seq       int
	BytesDown int64
	BytesUp   int64
}

// HangEvent is emitted when an iteration is declared hung, before the
// guest is power-cycled. Reason is "no-progress" or "probe-failure".
type HangEvent struct {
	Seq    int
	Reason string
}

// EventHandler receives session events. Calls are synchronous from the
// session goroutine; handlers must return quickly.
type EventHandler interface {
	OnStateChange(StateChangeEvent)
	OnIterationCompleted(IterationEvent)
	OnHang(HangEvent)
}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnIterationCompleted(seq int, result domain.BatchResult) {
	if e.handler == nil {
		return
	}
	e.handler.OnIterationCompleted(IterationEvent{
		Seq:       seq,
		BytesDown: result.BytesDown,
		BytesUp:   result.BytesUp,
	})
}

func (e *eventEmitterWrapper) OnHang(seq int, reason domain.HangReason) {
	if e.handler == nil {
		return
	}
	e.handler.OnHang(HangEvent{
		Seq:    seq,
		Reason: reason.String(),
	})
}

func convertState(s app.State) State {
	switch s {
	case app.StateStopped:
		return StateStopped
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}
