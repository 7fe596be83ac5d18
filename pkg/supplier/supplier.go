// Package supplier implements the clip engine's supplier chain: the ordered stack of transformations between a raw source and
// the audio-callback output — Source -> Recorder -> Section -> Looper
// -> Resampler|TimeStretcher -> PreBuffer (audio only).
//
// Every layer is a [Supplier]; layers wrap an inner Supplier, shifting
// the request's start_frame and/or destination sample rate on the way
// in and post-processing the response on the way out, a decorator
// composition like an effect chain's — except a supplier chain is a pull chain (each layer can change what
// position and rate the inner layer is asked to produce), so wrapping
// is expressed as nested decorators rather than a flat slice.
package supplier

import "github.com/justyntemme/clipgrid/pkg/midi"

// Status is what a supply call reports about how far it got.
type Status int

const (
	// Continue means the full destination buffer was filled, including
	// when the material ends exactly at the buffer's last frame.
	Continue Status = iota
	// ReachedEnd means the source ran out partway through the requested
	// buffer: fewer frames than requested were written.
	ReachedEnd
)

// AudioRequest asks a supplier to produce frames starting at a given
// source-frame position, at a given destination sample rate.
type AudioRequest struct {
	// StartFrame is signed: negative values address count-in, before
	// the source's frame 0.
	StartFrame       int64
	DestSampleRate   float64
	ParentStartFrame int64 // the request the caller received, pre-translation
	Info             MaterialInfo
}

// AudioResponse is returned by SupplyAudio.
type AudioResponse struct {
	// NumFramesConsumed is in source frames.
	NumFramesConsumed int64
	Status            Status
	// NumFramesWritten is in destination frames; only meaningful when
	// Status == ReachedEnd.
	NumFramesWritten int
}

// MidiRequest asks a supplier to add events within [0, BlockFrames) at
// the given destination rate, for the block starting at StartFrame
// (signed — a negative start is valid during count-in, unlike audio;
// events falling inside the block get their offset from the block
// start).
type MidiRequest struct {
	StartFrame     int64
	BlockFrames    int
	DestSampleRate float64
	Info           MaterialInfo
}

// MidiResponse mirrors AudioResponse for the MIDI path.
type MidiResponse struct {
	NumFramesConsumed int64
	Status            Status
}

// MaterialInfo describes the material behind a supplier chain.
type MaterialInfo struct {
	Kind         Kind
	FrameRate    float64
	FrameCount   int64 // 0 for MIDI (unbounded until recording commits)
	ChannelCount int
}

// Kind distinguishes audio from MIDI material.
type Kind int

const (
	KindAudio Kind = iota
	KindMidi
)

// AudioBuffer is a destination buffer: one []float32 per channel, all
// the same length. It is always pre-allocated by the caller — no
// supplier may allocate one.
type AudioBuffer [][]float32

// FrameCount returns the number of frames (not channels) the buffer
// holds.
func (b AudioBuffer) FrameCount() int {
	if len(b) == 0 {
		return 0
	}
	return len(b[0])
}

// Clear zeroes every channel of the buffer.
func (b AudioBuffer) Clear() {
	for ch := range b {
		for i := range b[ch] {
			b[ch][i] = 0
		}
	}
}

// Supplier is any layer able to answer supply calls for one clip.
// Implementations must be safe to call only from the audio thread that
// owns the owning column (no internal locking beyond what the
// pre-buffer's producer/consumer ring requires).
type Supplier interface {
	// SupplyAudio must write exactly dest.FrameCount() frames on
	// Continue, or signal ReachedEnd with NumFramesWritten valid
	// frames followed by undefined samples. Audio suppliers return ErrNotAudio if the material is
	// MIDI.
	SupplyAudio(req AudioRequest, dest AudioBuffer) (AudioResponse, error)
	// SupplyMidi adds events into queue at intra-block sample offsets.
	SupplyMidi(req MidiRequest, queue *midi.EventQueue) (MidiResponse, error)
	// MaterialInfo reports the material behind this layer (and
	// everything it wraps).
	MaterialInfo() MaterialInfo
	// TranslatePlayPosToSourcePos is a pure function:
	// no side effects, usable to report a clip's current position
	// without disturbing playback state.
	TranslatePlayPosToSourcePos(playPos int64) int64
}
