package bridge

import "github.com/justyntemme/clipgrid/pkg/enginelog"

// Garbage is an audio-thread-disposed allocation (a replaced clip's
// old supplier chain, a dropped slot, a finished recording's spare
// buffer) handed back to the control thread so it, not the audio
// thread, does the actual free. The interface carries only an unexported
// marker method: the audio thread can wrap and send a value without knowing or caring
// what drains it; only
// Unwrap, called control-thread-side, can get the value back out.
type Garbage interface {
	isGarbage()
}

type disposable[T any] struct {
	value T
}

func (disposable[T]) isGarbage() {}

// Wrap boxes v as Garbage for a one-way trip across a [DisposalBridge].
func Wrap[T any](v T) Garbage {
	return disposable[T]{value: v}
}

// Unwrap recovers a value of type T from Garbage. ok is false if g
// does not hold a T (a caller asking for the wrong type).
func Unwrap[T any](g Garbage) (v T, ok bool) {
	d, ok := g.(disposable[T])
	if !ok {
		return v, false
	}
	return d.value, true
}

// DisposalBridge carries Garbage from audio-thread producers (columns
// dropping replaced allocations) to the control thread's drain loop.
type DisposalBridge = EventBridge[Garbage]

// NewDisposalBridge creates a disposal bridge of the given capacity.
func NewDisposalBridge(capacity int, overflowLog *enginelog.Limiter) *DisposalBridge {
	return NewEventBridge[Garbage](capacity, overflowLog)
}
