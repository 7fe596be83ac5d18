package supplier

import (
	"math"

	"github.com/justyntemme/clipgrid/pkg/dsp/interpolation"
	"github.com/justyntemme/clipgrid/pkg/midi"
)

// Resampler adapts its inner supplier's native sample rate to whatever
// destination rate a request asks for. It pulls a small window of
// native-rate frames from the inner supplier and linearly interpolates
// into the destination buffer using the dsp/interpolation package's
// Linear helper.
type Resampler struct {
	inner      Supplier
	nativeRate float64
	scratch    AudioBuffer
}

// NewResampler wraps inner, whose native material plays back at
// nativeRate frames/sec.
func NewResampler(inner Supplier, nativeRate float64) *Resampler {
	return &Resampler{inner: inner, nativeRate: nativeRate}
}

func (r *Resampler) MaterialInfo() MaterialInfo { return r.inner.MaterialInfo() }

func (r *Resampler) TranslatePlayPosToSourcePos(playPos int64) int64 {
	ratio := r.nativeRate / r.effectiveRate()
	return r.inner.TranslatePlayPosToSourcePos(int64(float64(playPos) * ratio))
}

// effectiveRate is overridden by destSampleRate at call time; kept here
// only so TranslatePlayPosToSourcePos (no request available) has a
// sane fallback of 1:1.
func (r *Resampler) effectiveRate() float64 {
	if r.nativeRate <= 0 {
		return 1
	}
	return r.nativeRate
}

func (r *Resampler) ensureScratch(numCh, frames int) {
	if cap(r.scratch) < numCh {
		r.scratch = make(AudioBuffer, numCh)
	}
	r.scratch = r.scratch[:numCh]
	for ch := 0; ch < numCh; ch++ {
		if cap(r.scratch[ch]) < frames {
			r.scratch[ch] = make([]float32, frames)
		}
		r.scratch[ch] = r.scratch[ch][:frames]
	}
}

func (r *Resampler) SupplyAudio(req AudioRequest, dest AudioBuffer) (AudioResponse, error) {
	if req.DestSampleRate <= 0 || r.nativeRate == req.DestSampleRate {
		return r.inner.SupplyAudio(req, dest)
	}

	ratio := r.nativeRate / req.DestSampleRate
	want := dest.FrameCount()
	srcStart := float64(req.StartFrame) * ratio
	srcStartFrame := int64(math.Floor(srcStart))
	phase := srcStart - float64(srcStartFrame)

	needed := int(math.Ceil(phase+float64(want)*ratio)) + 2
	r.ensureScratch(len(dest), needed)

	innerReq := AudioRequest{StartFrame: srcStartFrame, DestSampleRate: r.nativeRate, ParentStartFrame: req.ParentStartFrame, Info: req.Info}
	resp, err := r.inner.SupplyAudio(innerReq, r.scratch)
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
		if idx+1 >= validSrcFrames {
			reachedEnd = true
			break
		}
		for ch := range dest {
			dest[ch][i] = interpolation.Linear(r.scratch[ch][idx], r.scratch[ch][idx+1], frac)
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

func (r *Resampler) SupplyMidi(req MidiRequest, queue *midi.EventQueue) (MidiResponse, error) {
	if req.DestSampleRate <= 0 || r.nativeRate == req.DestSampleRate {
		return r.inner.SupplyMidi(req, queue)
	}
	ratio := r.nativeRate / req.DestSampleRate
	innerReq := req
	innerReq.StartFrame = int64(float64(req.StartFrame) * ratio)
	innerReq.BlockFrames = int(math.Ceil(float64(req.BlockFrames) * ratio))
	innerReq.DestSampleRate = r.nativeRate
	return r.inner.SupplyMidi(innerReq, queue)
}
