package timeline

import (
	"math"
	"sync/atomic"
)

// Fixed is a constant-tempo, constant-signature Timeline. It is the
// timeline used by tests and by simple hosts that don't yet expose a
// tempo map. CursorPos is driven externally via [Fixed.Advance] or
// [Fixed.SetCursorPos], matching how a real host callback reports the
// block's start time.
type Fixed struct {
	tempo     float64
	signature TimeSignature
	state     atomic.Int32
	cursorBit atomic.Uint64 // bits of a float64, advanced per block
}

// NewFixed creates a Fixed timeline at the given tempo and signature,
// stopped, with cursor at 0.
func NewFixed(bpm float64, sig TimeSignature) *Fixed {
	f := &Fixed{tempo: bpm, signature: sig}
	f.state.Store(int32(Stopped))
	return f
}

func (f *Fixed) CursorPos() float64 {
	return math.Float64frombits(f.cursorBit.Load())
}

func (f *Fixed) SetCursorPos(pos float64) {
	f.cursorBit.Store(math.Float64bits(pos))
}

// Advance moves the cursor forward by seconds, as a block boundary
// would. Negative values are rejected (cursor is monotonic except on
// an explicit seek via SetCursorPos).
func (f *Fixed) Advance(seconds float64) {
	if seconds < 0 {
		return
	}
	f.SetCursorPos(f.CursorPos() + seconds)
}

func (f *Fixed) SetPlayState(s PlayState) { f.state.Store(int32(s)) }
func (f *Fixed) PlayState() PlayState     { return PlayState(f.state.Load()) }

func (f *Fixed) TempoAt(float64) float64                    { return f.tempo }
func (f *Fixed) TimeSignatureAt(float64) TimeSignature      { return f.signature }
func (f *Fixed) SetTempo(bpm float64)                       { f.tempo = bpm }

// secondsPerBar is the duration of one bar at the fixed tempo/signature.
func (f *Fixed) secondsPerBar() float64 {
	beatsPerBar := float64(f.signature.Numerator)
	secondsPerBeat := 60.0 / f.tempo
	return beatsPerBar * secondsPerBeat
}

func (f *Fixed) NextQuantizedPos(now float64, quant EvenQuantization) float64 {
	barLen := f.secondsPerBar()
	step := barLen * quant.BarFraction()
	if step <= 0 {
		return now
	}
	bar := math.Ceil(now/step - 1e-9)
	return bar * step
}

func (f *Fixed) PosOfQuantizedPos(qpos float64) float64 {
	return qpos
}

func (f *Fixed) BeatsAt(posSeconds float64) float64 {
	secondsPerBeat := 60.0 / f.tempo
	return posSeconds / secondsPerBeat
}
