// Package enginerr defines the error kinds exposed at the clip engine's
// control-thread boundary. Audio-thread code never returns or
// unwinds on these; it converts them into events or silent no-ops.
package enginerr

import "errors"

var (
	// ErrInvalidAddress means a slot/column/clip/row address did not resolve.
	ErrInvalidAddress = errors.New("clipgrid: invalid address")
	// ErrInvalidState means the requested transition doesn't apply to the
	// current state (e.g. pause while not playing, record while recording).
	ErrInvalidState = errors.New("clipgrid: invalid state")
	// ErrMaterialUnavailable means the addressed clip has no loaded source.
	ErrMaterialUnavailable = errors.New("clipgrid: material unavailable")
	// ErrCapacityExceeded means a bounded command channel was full.
	ErrCapacityExceeded = errors.New("clipgrid: capacity exceeded")
	// ErrRecordingRollback means a stop arrived during count-in and the
	// recording was discarded, restoring the prior source.
	ErrRecordingRollback = errors.New("clipgrid: recording rolled back")
	// ErrContention means the audio thread skipped a block because the
	// column lock was held; exceedingly rare under cooperative scheduling.
	ErrContention = errors.New("clipgrid: lock contention, block skipped")
)
