// Package host defines the boundary between the clip engine's RT core
// and a host audio callback: a per-block value object plus
// the single interface a host-DAW binding layer (VST3, AU, a test
// harness, anything) implements to drive one column or the whole
// matrix from its own audio thread. Nothing VST3-specific lives here —
// preview-register handling and any extended()-style host RPC belong
// to that outside binding layer, not to this module.
package host

import "github.com/justyntemme/clipgrid/pkg/midi"

// Block is one audio callback's worth of work: the host fills in the
// transport/format fields and a pre-sized Output buffer, then calls
// Source.GetSamples to have it filled in place.
type Block struct {
	SampleRate   float64
	FrameCount   int
	ChannelCount int

	// Output holds ChannelCount channels of FrameCount samples each,
	// owned by the host and reused block to block; GetSamples writes
	// into it rather than allocating.
	Output [][]float32

	// MidiOut receives any MIDI a source wants to hand back to the host
	// this block (e.g. a recorder's monitored-through notes).
	MidiOut *midi.EventQueue

	// TimeSeconds is the host transport position at the start of this
	// block, in the same clock CursorPos/Advance use.
	TimeSeconds float64
}

// Source is the contract a host binding layer implements against: pull
// FrameCount samples starting at TimeSeconds into Output, and report
// whether the source is effectively infinite. A live clip-grid engine
// always reports GetLength() == math.Inf(1), since it never reaches a
// natural end the way a single fixed-length media file would; a real
// binding layer built on this module still needs to implement that
// contract itself; this module only produces Source implementations
// driven directly from Go code (see EngineSource), not over any RPC.
type Source interface {
	// GetSamples fills block.Output (and optionally block.MidiOut) for
	// one block starting at block.TimeSeconds. Never allocates on a
	// compliant implementation.
	GetSamples(block *Block) error
	// GetLength reports the source's length in seconds; always
	// math.Inf(1) for this engine's sources, since clip-grid playback
	// has no fixed end.
	GetLength() float64
}
