// Package slot implements the clip engine's Slot: an ordered collection
// of clips sharing an address, whose derived play state and mixed
// audio/MIDI output a Column processes one slot at a time.
package slot

import (
	"github.com/justyntemme/clipgrid/pkg/clip"
	"github.com/justyntemme/clipgrid/pkg/dsp/gain"
	"github.com/justyntemme/clipgrid/pkg/dsp/pan"
	"github.com/justyntemme/clipgrid/pkg/ids"
	"github.com/justyntemme/clipgrid/pkg/midi"
	"github.com/justyntemme/clipgrid/pkg/recorder"
	"github.com/justyntemme/clipgrid/pkg/supplier"
	"github.com/justyntemme/clipgrid/pkg/timeline"
)

// Phase is a slot's play state, derived from the clips currently held.
type Phase int

const (
	PhaseStopped Phase = iota
	PhaseScheduledForStart
	PhasePlaying
	PhaseScheduledForStop
	PhasePaused
	PhaseRecording
	PhaseScheduledForRecordingStart
	PhaseScheduledForRecordingStop
)

func (p Phase) String() string {
	switch p {
	case PhaseStopped:
		return "Stopped"
	case PhaseScheduledForStart:
		return "ScheduledForStart"
	case PhasePlaying:
		return "Playing"
	case PhaseScheduledForStop:
		return "ScheduledForStop"
	case PhasePaused:
		return "Paused"
	case PhaseRecording:
		return "Recording"
	case PhaseScheduledForRecordingStart:
		return "ScheduledForRecordingStart"
	case PhaseScheduledForRecordingStop:
		return "ScheduledForRecordingStop"
	default:
		return "Unknown"
	}
}

// LiveClip is one clip living inside a Slot: its timing state machine, its
// supplier chain, and (for clips that can record) the recorder sitting at
// the bottom of that chain.
type LiveClip struct {
	ID     ids.ClipId
	State  *clip.Clip
	Chain  supplier.ChainHandles
	Rec    *recorder.Recorder // nil if this clip can never record
	Volume float32
	// Pan positions a mono clip in a stereo mix: -1 hard left, 0 center,
	// 1 hard right. Ignored for clips whose material is already
	// multi-channel.
	Pan float32

	// RecordCompletionPosted is set by the owning column once it has
	// emitted a RecordCompleted event for this clip's Rec.PersistentSource,
	// so a MIDI commit's promoted mirror source is only announced once.
	RecordCompletionPosted bool

	volSmoother *gain.Smoother
}

// volumeSmoothingSamples is the one-pole time constant applied to clip
// volume changes, short enough to track a live fader without audible
// lag but long enough to keep a mid-playback volume change from
// clicking.
const volumeSmoothingSamples = 64

// smoothedVolume returns this clip's volume smoother, lazily created at
// the clip's current Volume so the first block after a clip starts
// carries no spurious ramp.
func (c *LiveClip) smoothedVolume() *gain.Smoother {
	if c.volSmoother == nil {
		c.volSmoother = gain.NewSmoother(c.Volume, volumeSmoothingSamples)
	}
	c.volSmoother.SetTarget(c.Volume)
	return c.volSmoother
}

// retireState tracks a cleared slot's graceful fade-out.
type retireState struct {
	framesWritten int64
}

// Slot holds clips in insertion order and shares an address with them.
type Slot struct {
	ID    ids.SlotId
	Row   int
	clips []*LiveClip

	retiring *retireState
}

// New creates an empty slot.
func New(id ids.SlotId) *Slot {
	return &Slot{ID: id}
}

// SetRow records which scene row this slot answers to, for PlayRow
// addressing within a column.
func (s *Slot) SetRow(row int) { s.Row = row }

// Clips returns the slot's clips in insertion order; callers must not
// mutate the returned slice.
func (s *Slot) Clips() []*LiveClip { return s.clips }

// TakeClips detaches and returns every clip currently in the slot,
// leaving it empty. Used when a column clears a slot's content but
// wants to keep the slot's address alive for reuse, while the
// detached clips go on to finish fading out elsewhere.
func (s *Slot) TakeClips() []*LiveClip {
	out := s.clips
	s.clips = nil
	return out
}

// AddAll appends clips to insertion order.
func (s *Slot) AddAll(clips []*LiveClip) { s.clips = append(s.clips, clips...) }

// Retiring reports whether Clear has been called and the slot is fading
// out.
func (s *Slot) Retiring() bool { return s.retiring != nil }

// Add appends a clip to insertion order.
func (s *Slot) Add(c *LiveClip) { s.clips = append(s.clips, c) }

// Phase derives the slot's play state from its clips.
func (s *Slot) Phase() Phase {
	if len(s.clips) == 0 {
		return PhaseStopped
	}
	best := PhaseStopped
	for _, c := range s.clips {
		if c.Rec != nil && c.Rec.Phase() == recorder.PhaseRecording {
			return PhaseRecording
		}
		p := phaseFromClip(c.State.Phase())
		if rank(p) > rank(best) {
			best = p
		}
	}
	return best
}

func phaseFromClip(p clip.Phase) Phase {
	switch p {
	case clip.PhaseScheduledOrPlaying, clip.PhaseRetriggering:
		return PhasePlaying
	case clip.PhasePaused, clip.PhaseTransitioningToPause:
		return PhasePaused
	case clip.PhaseScheduledForStop, clip.PhaseTransitioningToStop:
		return PhaseScheduledForStop
	default:
		return PhaseStopped
	}
}

func rank(p Phase) int {
	switch p {
	case PhaseStopped:
		return 0
	case PhasePaused:
		return 1
	case PhaseScheduledForStop:
		return 2
	case PhaseScheduledForStart:
		return 3
	case PhasePlaying:
		return 4
	default:
		return 5
	}
}

// Play schedules every clip in the slot to start at pos").
func (s *Slot) Play(pos, now float64) {
	for _, c := range s.clips {
		c.State.ScheduleStart(pos, now)
	}
}

// Stop schedules every clip in the slot to stop at target").
func (s *Slot) Stop(target clip.StopTarget, now float64) {
	for _, c := range s.clips {
		c.State.ScheduleStop(target, now)
	}
}

// Pause pauses every clip in the slot.
func (s *Slot) Pause(now float64) {
	for _, c := range s.clips {
		c.State.Pause(now)
	}
}

// Seek seeks every clip in the slot to the same clip-relative position.
func (s *Slot) Seek(desired, now float64) {
	for _, c := range s.clips {
		c.State.Seek(desired, now)
	}
}

// RecordClip starts or stops a recording on the clip identified by id,
// delegating to its Recorder.
func (s *Slot) RecordClip(id ids.ClipId, instr recorder.Instruction, sink recorder.AudioSink) {
	for _, c := range s.clips {
		if c.ID == id && c.Rec != nil {
			c.Rec.BeginRecording(instr, sink)
			return
		}
	}
}

// StopRecordClip stops the recording on the clip identified by id.
func (s *Slot) StopRecordClip(id ids.ClipId, immediate bool, now float64, tl timeline.Timeline) {
	for _, c := range s.clips {
		if c.ID == id && c.Rec != nil {
			c.Rec.Stop(immediate, now, tl)
			return
		}
	}
}

// Clear begins a graceful retire: remaining blocks
// keep mixing their current output through a linear fade-out instead of
// cutting silent; ReadyForRemoval reports done once the fade completes.
func (s *Slot) Clear() {
	if s.retiring == nil {
		s.retiring = &retireState{}
	}
}

// ReadyForRemoval reports whether a retiring slot has finished its
// end-fade. fadeFrames is the column's configured
// retirement fade length, in frames at the project rate.
func (s *Slot) ReadyForRemoval(fadeFrames int) bool {
	return s.retiring != nil && (len(s.clips) == 0 || s.retiring.framesWritten >= int64(fadeFrames))
}

// Load replaces the slot's clips with newClips, preserving any clip whose
// ID matches one already present (kept uninterrupted, only its Volume
// re-applied from the incoming value) and returning every unmatched
// current clip for the caller to retire.
func (s *Slot) Load(newClips []*LiveClip) (retired []*LiveClip) {
	byID := make(map[ids.ClipId]*LiveClip, len(s.clips))
	for _, c := range s.clips {
		byID[c.ID] = c
	}
	matched := make(map[ids.ClipId]bool, len(newClips))
	kept := make([]*LiveClip, 0, len(newClips))
	for _, nc := range newClips {
		if existing, ok := byID[nc.ID]; ok {
			existing.Volume = nc.Volume
			existing.Pan = nc.Pan
			kept = append(kept, existing)
			matched[nc.ID] = true
		} else {
			kept = append(kept, nc)
		}
	}
	for _, c := range s.clips {
		if !matched[c.ID] {
			retired = append(retired, c)
		}
	}
	s.clips = kept
	return retired
}

// ProcessOutcome is what Process reports back to the column for this block
//.
type ProcessOutcome struct {
	NumAudioFramesWritten int
	ChangedPlayState      bool
}

// Process advances every clip in the slot by one block, mixing their audio
// additively into dest (which the caller must have already cleared for
// this block) and their MIDI into midiOut. scratch is a reusable
// per-call buffer, at least as large as dest, that each clip's SupplyAudio
// call fills before being scaled and summed into dest. retireFadeFrames
// is only consulted while the slot is retiring.
func (s *Slot) Process(now, destRate float64, dest, scratch supplier.AudioBuffer, midiOut *midi.EventQueue, retireFadeFrames int) ProcessOutcome {
	before := s.Phase()
	var outcome ProcessOutcome

	for _, c := range s.clips {
		if c.Rec != nil {
			c.Rec.PollFinalize()
		}

		kind := c.State.Process(now)
		if kind != midi.ResetNone {
			midi.AppendResetEvents(midiOut, kind, 0)
		}

		phase := c.State.Phase()
		active := phase == clip.PhaseScheduledOrPlaying || phase == clip.PhaseScheduledForStop || phase == clip.PhaseRetriggering
		if !active {
			continue
		}

		posFromStart := c.State.PosFromStart(now)
		info := c.Chain.Supplier.MaterialInfo()

		if info.Kind == supplier.KindMidi {
			startFrame := int64(posFromStart * destRate)
			_, _ = c.Chain.Supplier.SupplyMidi(supplier.MidiRequest{
				StartFrame:     startFrame,
				BlockFrames:    dest.FrameCount(),
				DestSampleRate: destRate,
				Info:           info,
			}, midiOut)
			continue
		}

		if posFromStart < 0 {
			// Still before the scheduled start at this block's start, but
			// output begins as soon as the block's end reaches it, not
			// the block start: a block whose tail crosses the boundary
			// must still produce sub-block-accurate silence-then-material
			// this block, not wait for the next one.
			blockEndPos := now + float64(dest.FrameCount())/destRate
			if !c.State.ShouldBeginOutput(blockEndPos) {
				continue
			}
		}

		startFrame := int64(posFromStart * destRate)
		scratch.Clear()
		resp, err := c.Chain.Supplier.SupplyAudio(supplier.AudioRequest{
			StartFrame:     startFrame,
			DestSampleRate: destRate,
			Info:           info,
		}, scratch)
		if err != nil {
			continue
		}
		n := scratch.FrameCount()
		if resp.Status == supplier.ReachedEnd {
			n = resp.NumFramesWritten
		}
		if info.ChannelCount == 1 && len(dest) == 2 {
			mixAddPannedMono(dest, scratch, c.smoothedVolume(), c.Pan, n)
		} else {
			mixAddSmoothed(dest, scratch, c.smoothedVolume(), n)
		}
		if n > outcome.NumAudioFramesWritten {
			outcome.NumAudioFramesWritten = n
		}
	}

	if s.retiring != nil {
		applyRetireFade(dest, s.retiring.framesWritten, retireFadeFrames)
		s.retiring.framesWritten += int64(dest.FrameCount())
	}

	outcome.ChangedPlayState = before != s.Phase()
	return outcome
}

// mixAddSmoothed scales src by vol's ramped gain, sample by sample, and
// adds it into dest. The same smoother step is reused across channels
// so a stereo clip doesn't drift out of phase while ramping.
func mixAddSmoothed(dest, src supplier.AudioBuffer, vol *gain.Smoother, n int) {
	for i := 0; i < n; i++ {
		g := vol.Next()
		for ch := 0; ch < len(dest) && ch < len(src); ch++ {
			if i >= len(dest[ch]) || i >= len(src[ch]) {
				continue
			}
			dest[ch][i] += gain.Apply(src[ch][i], g)
		}
	}
}

// mixAddPannedMono reads a mono scratch buffer's channel 0 and adds it
// into both channels of a stereo dest, weighted by a constant-power pan
// law so a clip parked anywhere between hard left and hard right never
// loses or gains perceived loudness relative to center.
func mixAddPannedMono(dest, src supplier.AudioBuffer, vol *gain.Smoother, panPos float32, n int) {
	if len(src) == 0 {
		return
	}
	left, right := pan.MonoToStereo(panPos, pan.ConstantPower)
	mono := src[0]
	for i := 0; i < n && i < len(mono); i++ {
		g := vol.Next()
		if len(dest) > 0 && i < len(dest[0]) {
			dest[0][i] += gain.Apply(mono[i], g*left)
		}
		if len(dest) > 1 && i < len(dest[1]) {
			dest[1][i] += gain.Apply(mono[i], g*right)
		}
	}
}

// applyRetireFade scales dest by a linear gain ramping from the current
// retirement progress down to 0 over fadeFrames total frames.
func applyRetireFade(dest supplier.AudioBuffer, framesSoFar int64, fadeFrames int) {
	if fadeFrames <= 0 {
		dest.Clear()
		return
	}
	for ch := range dest {
		for i := range dest[ch] {
			remaining := fadeFrames - int(framesSoFar) - i
			if remaining <= 0 {
				dest[ch][i] = 0
				continue
			}
			dest[ch][i] = gain.Apply(dest[ch][i], float32(remaining)/float32(fadeFrames))
		}
	}
}
