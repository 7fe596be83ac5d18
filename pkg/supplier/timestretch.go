package supplier

import (
	"math"

	"github.com/justyntemme/clipgrid/pkg/dsp/interpolation"
	"github.com/justyntemme/clipgrid/pkg/midi"
)

// BaseMidiTempo is the reference tempo MIDI frame-offset
// scaling and beat-based audio stretching are both expressed against.
const BaseMidiTempo = 120.0

// TimeStretch adapts a beat-based audio clip's native tempo to the
// project's current tempo, pulling through cubic interpolation rather
// than linear so the deeper ratio swings typical of tempo stretch
// (vs. the near-1:1 ratios a sample-rate [Resampler] sees) stay
// cleaner. Pitch-preserving stretch (true PSOLA/phase-vocoder
// processing) is not implemented: pitch moves with the rate. A
// VariSpeed clip bypasses the stretch entirely and plays its material
// at the native tempo, without adapting to the project tempo.
type TimeStretch struct {
	inner      Supplier
	nativeTempo float64
	projectTempo float64
	variSpeed  bool
	scratch    AudioBuffer
}

// NewTimeStretch wraps inner, whose beat-based material was recorded
// at nativeTempo BPM.
func NewTimeStretch(inner Supplier, nativeTempo float64, variSpeed bool) *TimeStretch {
	return &TimeStretch{inner: inner, nativeTempo: nativeTempo, projectTempo: nativeTempo, variSpeed: variSpeed}
}

// SetProjectTempo updates the destination tempo the stretch ratio is
// computed against; the control thread calls this on a timeline tempo
// change.
func (ts *TimeStretch) SetProjectTempo(bpm float64) { ts.projectTempo = bpm }

func (ts *TimeStretch) ratio() float64 {
	if ts.projectTempo <= 0 {
		return 1
	}
	return ts.projectTempo / ts.nativeTempo
}

func (ts *TimeStretch) MaterialInfo() MaterialInfo { return ts.inner.MaterialInfo() }

func (ts *TimeStretch) TranslatePlayPosToSourcePos(playPos int64) int64 {
	return ts.inner.TranslatePlayPosToSourcePos(int64(float64(playPos) * ts.ratio()))
}

func (ts *TimeStretch) ensureScratch(numCh, frames int) {
	if cap(ts.scratch) < numCh {
		ts.scratch = make(AudioBuffer, numCh)
	}
	ts.scratch = ts.scratch[:numCh]
	for ch := 0; ch < numCh; ch++ {
		if cap(ts.scratch[ch]) < frames {
			ts.scratch[ch] = make([]float32, frames)
		}
		ts.scratch[ch] = ts.scratch[ch][:frames]
	}
}

func (ts *TimeStretch) SupplyAudio(req AudioRequest, dest AudioBuffer) (AudioResponse, error) {
	ratio := ts.ratio()
	if ts.variSpeed || ratio == 1 {
		return ts.inner.SupplyAudio(req, dest)
	}

	want := dest.FrameCount()
	srcStart := float64(req.StartFrame) * ratio
	srcStartFrame := int64(math.Floor(srcStart)) - 1
	if srcStartFrame < 0 {
		srcStartFrame = 0
	}
	phase := srcStart - float64(srcStartFrame)

	needed := int(math.Ceil(phase+float64(want)*ratio)) + 3
	ts.ensureScratch(len(dest), needed)

	innerReq := req
	innerReq.StartFrame = srcStartFrame
	resp, err := ts.inner.SupplyAudio(innerReq, ts.scratch)
	if err != nil {
		return resp, err
	}

	validSrcFrames := needed
	if resp.Status == ReachedEnd {
		validSrcFrames = resp.NumFramesWritten
	}

	written := 0
	reachedEnd := false
	for i := 0; i < want; i++ {
		srcPos := phase + float64(i)*ratio
		idx := int(srcPos)
		frac := float32(srcPos - float64(idx))
		if idx < 1 || idx+2 >= validSrcFrames {
			reachedEnd = true
			break
		}
		for ch := range dest {
			dest[ch][i] = interpolation.Cubic(ts.scratch[ch][idx-1], ts.scratch[ch][idx], ts.scratch[ch][idx+1], ts.scratch[ch][idx+2], frac)
		}
		written++
	}

	if reachedEnd {
		for ch := range dest {
			for i := written; i < want; i++ {
				dest[ch][i] = 0
			}
		}
		return AudioResponse{NumFramesConsumed: resp.NumFramesConsumed, Status: ReachedEnd, NumFramesWritten: written}, nil
	}
	return AudioResponse{NumFramesConsumed: resp.NumFramesConsumed, Status: Continue}, nil
}

func (ts *TimeStretch) SupplyMidi(req MidiRequest, queue *midi.EventQueue) (MidiResponse, error) {
	ratio := ts.projectTempo / BaseMidiTempo
	innerReq := req
	innerReq.StartFrame = int64(float64(req.StartFrame) * ratio)
	innerReq.BlockFrames = int(math.Ceil(float64(req.BlockFrames) * ratio))
	return ts.inner.SupplyMidi(innerReq, queue)
}
