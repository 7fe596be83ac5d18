package supplier

import "github.com/justyntemme/clipgrid/pkg/midi"

// Looper wraps a fixed-length inner supplier (ordinarily a [Section])
// and either wraps positions past the section length back to zero
// (looped) or reports ReachedEnd there (not looped).
type Looper struct {
	inner         Supplier
	sectionLength int64
	looped        bool
	window        frameWindow
}

// NewLooper wraps inner, whose material is sectionLength source frames
// long (0 means "use inner's reported frame count").
func NewLooper(inner Supplier, sectionLength int64, looped bool) *Looper {
	return &Looper{inner: inner, sectionLength: sectionLength, looped: looped}
}

func (l *Looper) length() int64 {
	if l.sectionLength > 0 {
		return l.sectionLength
	}
	return l.inner.MaterialInfo().FrameCount
}

func (l *Looper) SetLooped(looped bool) { l.looped = looped }
func (l *Looper) Looped() bool          { return l.looped }

// SetSectionLength updates the loop length in place (0 reverts to
// tracking the inner supplier's reported frame count), used by
// SetClipSection to retarget a clip's section without disturbing its
// play phase.
func (l *Looper) SetSectionLength(length int64) { l.sectionLength = length }

func (l *Looper) MaterialInfo() MaterialInfo {
	info := l.inner.MaterialInfo()
	if l.looped {
		info.FrameCount = 0 // unbounded while looping
	}
	return info
}

func (l *Looper) TranslatePlayPosToSourcePos(playPos int64) int64 {
	length := l.length()
	if l.looped && length > 0 {
		playPos = mod64(playPos, length)
	}
	return l.inner.TranslatePlayPosToSourcePos(playPos)
}

func (l *Looper) SupplyAudio(req AudioRequest, dest AudioBuffer) (AudioResponse, error) {
	length := l.length()
	if !l.looped || length <= 0 {
		return l.inner.SupplyAudio(req, dest)
	}

	want := dest.FrameCount()
	pos := mod64(req.StartFrame, length)
	remaining := length - pos
	if remaining >= int64(want) {
		innerReq := req
		innerReq.StartFrame = pos
		return l.inner.SupplyAudio(innerReq, dest)
	}

	// The request straddles the loop boundary: deliver the tail of this
	// repetition, then wrap and fill the rest from frame 0.
	firstN := int(remaining)
	firstReq := req
	firstReq.StartFrame = pos
	firstView := l.window.view(dest, 0, firstN)
	firstResp, err := l.inner.SupplyAudio(firstReq, firstView)
	if err != nil || firstResp.Status == ReachedEnd {
		// Source ended before the declared loop boundary; don't mask it
		// with a wrap.
		for ch := range dest {
			for i := firstN; i < want; i++ {
				dest[ch][i] = 0
			}
		}
		return AudioResponse{NumFramesConsumed: firstResp.NumFramesConsumed, Status: ReachedEnd, NumFramesWritten: firstResp.NumFramesWritten}, err
	}

	restN := want - firstN
	restReq := req
	restReq.StartFrame = 0
	restView := l.window.view(dest, firstN, restN)
	restResp, err := l.inner.SupplyAudio(restReq, restView)
	if err != nil {
		return restResp, err
	}
	if restResp.Status == ReachedEnd {
		for ch := range dest {
			for i := firstN + restResp.NumFramesWritten; i < want; i++ {
				dest[ch][i] = 0
			}
		}
		return AudioResponse{Status: ReachedEnd, NumFramesWritten: firstN + restResp.NumFramesWritten}, nil
	}
	return AudioResponse{NumFramesConsumed: firstResp.NumFramesConsumed + restResp.NumFramesConsumed, Status: Continue}, nil
}

func (l *Looper) SupplyMidi(req MidiRequest, queue *midi.EventQueue) (MidiResponse, error) {
	length := l.length()
	if l.looped && length > 0 {
		req.StartFrame = mod64(req.StartFrame, length)
	}
	return l.inner.SupplyMidi(req, queue)
}

// mod64 is a floor-mod: unlike Go's %, it keeps negative positions
// (count-in) reported correctly rather than wrapping to a positive
// remainder of the wrong sign.
func mod64(a, m int64) int64 {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}
