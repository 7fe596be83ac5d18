package supplier

import (
	"github.com/justyntemme/clipgrid/pkg/dsp/mix"
	"github.com/justyntemme/clipgrid/pkg/midi"
)

// DefaultFadeFrames is the section fade-in/fade-out length applied at a
// source-fix boundary (start offset into the source, or a length that
// truncates it) unless the clip disables source-fix fades. 64 frames
// at typical project rates keeps the fade inaudible as a click
// suppressor without smearing transients.
const DefaultFadeFrames = 64

// Section clamps an inner supplier's source window to [startPos,
// startPos+length) and applies the start/end fades that boundary
// requires. length == 0 means unbounded: the window
// extends to whatever the inner supplier reports.
type Section struct {
	inner         Supplier
	startPos      int64
	length        int64 // 0 = unbounded
	fadeFrames    int64
	fadesDisabled bool
	window        frameWindow
}

// NewSection wraps inner with a clamped window. fadesDisabled
// corresponds to the clip's "disable source-fix fades" setting.
func NewSection(inner Supplier, startPos, length int64, fadesDisabled bool) *Section {
	return &Section{
		inner:         inner,
		startPos:      startPos,
		length:        length,
		fadeFrames:    DefaultFadeFrames,
		fadesDisabled: fadesDisabled,
	}
}

// SetWindow retargets the clamped source window in place, used by
// SetClipSection to change a clip's section without disturbing its
// play phase or rebuilding the chain.
func (s *Section) SetWindow(startPos, length int64) {
	s.startPos = startPos
	s.length = length
}

func (s *Section) MaterialInfo() MaterialInfo {
	info := s.inner.MaterialInfo()
	if s.length > 0 {
		info.FrameCount = s.length
	} else if info.FrameCount > 0 {
		info.FrameCount -= s.startPos
	}
	return info
}

func (s *Section) TranslatePlayPosToSourcePos(playPos int64) int64 {
	return s.inner.TranslatePlayPosToSourcePos(playPos + s.startPos)
}

func (s *Section) SupplyAudio(req AudioRequest, dest AudioBuffer) (AudioResponse, error) {
	pos := req.StartFrame
	want := dest.FrameCount()

	if s.length > 0 && pos >= s.length {
		dest.Clear()
		return AudioResponse{Status: ReachedEnd, NumFramesWritten: 0}, nil
	}

	n := want
	truncated := false
	if s.length > 0 {
		avail := s.length - pos
		if avail < int64(want) {
			n = int(avail)
			truncated = true
		}
	}

	innerReq := req
	innerReq.StartFrame = pos + s.startPos
	view := dest
	if n != want {
		view = s.window.view(dest, 0, n)
	}
	resp, err := s.inner.SupplyAudio(innerReq, view)
	if err != nil {
		return resp, err
	}

	if truncated {
		if !s.fadesDisabled {
			fadeOut(dest, n, s.fadeFrames)
		}
		for ch := range dest {
			for i := n; i < want; i++ {
				dest[ch][i] = 0
			}
		}
		return AudioResponse{NumFramesConsumed: resp.NumFramesConsumed, Status: ReachedEnd, NumFramesWritten: n}, nil
	}

	if !s.fadesDisabled && s.startPos > 0 && pos < s.fadeFrames {
		fadeIn(dest, pos, s.fadeFrames)
	}

	return resp, nil
}

func (s *Section) SupplyMidi(req MidiRequest, queue *midi.EventQueue) (MidiResponse, error) {
	req.StartFrame += s.startPos
	return s.inner.SupplyMidi(req, queue)
}

// fadeIn ramps from 0 to 1 over the first fadeFrames frames of the
// section, given the block starts at absolute section position pos, by
// crossfading each sample against silence.
func fadeIn(dest AudioBuffer, pos, fadeFrames int64) {
	for i := 0; i < dest.FrameCount(); i++ {
		framePos := pos + int64(i)
		if framePos >= fadeFrames {
			break
		}
		position := float32(framePos) / float32(fadeFrames)
		for ch := range dest {
			dest[ch][i] = mix.CrossfadeLinear(0, dest[ch][i], position)
		}
	}
}

// fadeOut ramps the last fadeFrames valid frames (ending at index n-1)
// down to 0, in place, by crossfading each sample toward silence.
func fadeOut(dest AudioBuffer, n int, fadeFrames int64) {
	start := n - int(fadeFrames)
	if start < 0 {
		start = 0
	}
	span := n - start
	if span <= 0 {
		return
	}
	for i := start; i < n; i++ {
		position := float32(i-start+1) / float32(span)
		for ch := range dest {
			dest[ch][i] = mix.CrossfadeLinear(dest[ch][i], 0, position)
		}
	}
}
