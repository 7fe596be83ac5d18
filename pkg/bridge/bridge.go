// Package bridge implements the engine's control-plane bridges: bounded, lock-free channels carrying commands into the audio
// thread and events back out, built on github.com/hayabusa-cloud/lfq
// the same way the original builds them on crossbeam_channel.
//
// Every send is a try-send: a full queue is an overflow, logged once
// (rate-limited) and dropped — the audio thread never blocks on a
// full outbound queue, and the control thread never blocks handing
// off a command.
package bridge

import (
	"github.com/hayabusa-cloud/lfq"

	"github.com/justyntemme/clipgrid/pkg/enginelog"
)

// CommandBridge is a bounded multi-producer/single-consumer channel:
// any number of control-thread goroutines may send, only the owning
// audio-thread entity (a Column or the Matrix) drains it.
type CommandBridge[T any] struct {
	q        lfq.Queue[T]
	overflow *enginelog.Limiter
}

// NewCommandBridge creates a command bridge of the given capacity
// (rounded up to a power of 2 by lfq). overflowLog is hit once per
// dropped send, already rate-limited by the caller.
func NewCommandBridge[T any](capacity int, overflowLog *enginelog.Limiter) *CommandBridge[T] {
	return &CommandBridge[T]{q: lfq.NewMPSC[T](capacity), overflow: overflowLog}
}

// Send try-enqueues cmd. A full queue is dropped, not retried.
func (b *CommandBridge[T]) Send(cmd T) {
	v := cmd
	if err := b.q.Enqueue(&v); err != nil {
		if lfq.IsWouldBlock(err) && b.overflow != nil {
			b.overflow.Hit("command bridge full")
		}
	}
}

// TryReceive dequeues one command, if any is waiting. Called only
// from the consumer side (audio thread).
func (b *CommandBridge[T]) TryReceive() (T, bool) {
	v, err := b.q.Dequeue()
	if err != nil {
		var zero T
		return zero, false
	}
	return *v, true
}

// EventBridge is a bounded multi-producer/multi-consumer channel: any
// column (and the matrix) may post events, and any number of
// control-thread listeners may drain them.
type EventBridge[T any] struct {
	q        lfq.Queue[T]
	overflow *enginelog.Limiter
}

// NewEventBridge creates an event bridge of the given capacity.
func NewEventBridge[T any](capacity int, overflowLog *enginelog.Limiter) *EventBridge[T] {
	return &EventBridge[T]{q: lfq.NewMPMC[T](capacity), overflow: overflowLog}
}

// Send try-enqueues an outbound event.
func (b *EventBridge[T]) Send(event T) {
	v := event
	if err := b.q.Enqueue(&v); err != nil {
		if lfq.IsWouldBlock(err) && b.overflow != nil {
			b.overflow.Hit("event bridge full")
		}
	}
}

// TryReceive dequeues one event, if any is waiting.
func (b *EventBridge[T]) TryReceive() (T, bool) {
	v, err := b.q.Dequeue()
	if err != nil {
		var zero T
		return zero, false
	}
	return *v, true
}
