// Package engine holds the clip engine's top-level, control-thread-set
// configuration: channel capacities, buffer sizing, and the other
// constants the rest of the engine is built against. There is no
// env/file loading here — the core owns no CLI or config-file surface
// (the host process that embeds it is responsible for that).
package engine

import "time"

// Config collects the tunables every other package defaults from.
// DefaultConfig returns one with every field set.
type Config struct {
	// MaxBlockFrames upper-bounds the frame count the host audio
	// callback will ever hand the engine in one call; it sizes every
	// per-column reusable mix buffer and pre-buffer scratch.
	MaxBlockFrames int
	// MaxColumnChannels upper-bounds a column's channel count, sizing
	// its reusable mix buffer alongside MaxBlockFrames.
	MaxColumnChannels int

	// ColumnCommandCapacity is the bounded MPSC command queue capacity
	// per column.
	ColumnCommandCapacity int
	// EventCapacity is the bounded MPMC outbound event queue capacity.
	EventCapacity int
	// MatrixCommandCapacity is the bounded MPSC matrix-level command
	// queue capacity.
	MatrixCommandCapacity int

	// RetirementDuration is how long a retired slot's fade-out is
	// allowed to run before it is dropped unconditionally.
	RetirementDuration time.Duration

	// PreBufferBlockFrames and PreBufferBlockCount size every clip's
	// pre-buffer ring.
	PreBufferBlockFrames int
	PreBufferBlockCount  int

	// OverflowLogEvery rate-limits the "queue full" warning so a sustained
	// overflow doesn't itself become a performance problem.
	OverflowLogEvery uint64
}

// DefaultConfig returns the engine's documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxBlockFrames:        2048,
		MaxColumnChannels:     64,
		ColumnCommandCapacity: 500,
		EventCapacity:         2048,
		MatrixCommandCapacity: 500,
		RetirementDuration:    2 * time.Second,
		PreBufferBlockFrames:  4096,
		PreBufferBlockCount:   2,
		OverflowLogEvery:      200,
	}
}
