// Package clip implements the clip state machine: the
// quantized scheduling, pause/seek, and position-translation math
// shared by every clip regardless of whether its material is audio or
// MIDI.
package clip

import (
	"math"

	"github.com/justyntemme/clipgrid/pkg/midi"
)

// Epsilon is the tolerance [HasReached] uses so a scheduled boundary
// at the exact edge of a block is treated as reached rather than
// missed to floating-point rounding. Documented as a fixed constant
// rather than derived from sample rate, matching how the quantity
// behaves identically across sample rates.
const Epsilon = 1e-9

// Phase is one state in the clip state machine.
type Phase int

const (
	// PhaseStopped is the initial/idle state: no material is playing
	// and nothing is scheduled.
	PhaseStopped Phase = iota
	PhaseScheduledOrPlaying
	// PhaseRetriggering is transient: it exists for exactly one block
	// so MIDI reset events precede the retrigger taking effect.
	PhaseRetriggering
	// PhaseTransitioningToPause is transient, same reason.
	PhaseTransitioningToPause
	PhasePaused
	PhaseScheduledForStop
	// PhaseTransitioningToStop is transient, same reason.
	PhaseTransitioningToStop
)

func (p Phase) String() string {
	switch p {
	case PhaseStopped:
		return "Stopped"
	case PhaseScheduledOrPlaying:
		return "ScheduledOrPlaying"
	case PhaseRetriggering:
		return "Retriggering"
	case PhaseTransitioningToPause:
		return "TransitioningToPause"
	case PhasePaused:
		return "Paused"
	case PhaseScheduledForStop:
		return "ScheduledForStop"
	case PhaseTransitioningToStop:
		return "TransitioningToStop"
	default:
		return "Unknown"
	}
}

// StopTarget is the position a scheduled stop takes effect at.
type StopTarget struct {
	// AtEndOfClip, when true, ignores Pos and resolves to the end of
	// the clip's current repetition at the moment the stop is
	// scheduled").
	AtEndOfClip bool
	Pos         float64
}

// Clip is the timing state machine for one clip instance. It holds no
// audio/MIDI material itself — that is the supplier chain's job — only
// the scheduling state needed to compute where in that material
// playback currently is.
type Clip struct {
	phase Phase

	scheduledStart float64 // S
	cursorOffset   float64 // O
	sectionLength  float64 // L
	looped         bool

	stopTarget StopTarget

	resetPolicy midi.ResetPolicy

	pendingStart float64 // used while Retriggering
}

// New creates a clip in PhaseStopped, with the given section length
// (used for pos_within_clip/mod arithmetic) and loop flag.
func New(sectionLength float64, looped bool, resetPolicy midi.ResetPolicy) *Clip {
	return &Clip{sectionLength: sectionLength, looped: looped, resetPolicy: resetPolicy}
}

func (c *Clip) Phase() Phase { return c.phase }
func (c *Clip) Looped() bool { return c.looped }
func (c *Clip) SetLooped(looped bool) { c.looped = looped }
func (c *Clip) SetSectionLength(length float64) { c.sectionLength = length }

// HasReached is the shared epsilon contract: true once now is at or
// past p, within Epsilon of p either way.
func HasReached(p, now float64) bool {
	return now > p || math.Abs(p-now) < Epsilon
}

// EffectiveStartPos is S - O: the phantom start position seek and
// resume-after-pause move to land the clip at the right spot.
func (c *Clip) EffectiveStartPos() float64 {
	return c.scheduledStart - c.cursorOffset
}

// PosFromStart is T - effective_start_pos; negative means still in
// count-in.
func (c *Clip) PosFromStart(now float64) float64 {
	return now - c.EffectiveStartPos()
}

// PosWithinClip computes the clip-relative playback position at now,
// per the state machine's case table. ok is false past the end of a
// non-looped clip, or past a scheduled stop.
func (c *Clip) PosWithinClip(now float64) (pos float64, ok bool) {
	switch c.phase {
	case PhasePaused:
		return c.cursorOffset, true
	case PhaseScheduledOrPlaying, PhaseRetriggering, PhaseTransitioningToPause, PhaseScheduledForStop, PhaseTransitioningToStop:
		posFromStart := c.PosFromStart(now)
		if posFromStart < 0 {
			return 0, false // count-in: no material position yet
		}
		if c.looped {
			if c.sectionLength <= 0 {
				return posFromStart, true
			}
			return floorMod(posFromStart, c.sectionLength), true
		}
		if posFromStart < c.sectionLength || c.sectionLength <= 0 {
			return posFromStart, true
		}
		return 0, false
	default:
		return 0, false
	}
}

// CurrentRepetition is floor(pos_from_start / L), valid for looped
// clips only.
func (c *Clip) CurrentRepetition(now float64) int64 {
	if c.sectionLength <= 0 {
		return 0
	}
	return int64(math.Floor(c.PosFromStart(now) / c.sectionLength))
}

// ResolveStopTarget turns a StopTarget requested at now into an
// absolute timeline position.
func (c *Clip) ResolveStopTarget(target StopTarget, now float64) float64 {
	if !target.AtEndOfClip {
		return target.Pos
	}
	rep := c.CurrentRepetition(now)
	return c.EffectiveStartPos() + c.sectionLength*float64(rep+1)
}

// ScheduleStart implements the clip's scheduling rules. now is the
// current timeline position, used to decide which branch applies.
func (c *Clip) ScheduleStart(pos float64, now float64) {
	switch c.phase {
	case PhaseStopped:
		c.phase = PhaseScheduledOrPlaying
		c.scheduledStart = pos
		c.cursorOffset = 0
	case PhaseScheduledOrPlaying:
		if !HasReached(c.scheduledStart, now) {
			// Not yet started: simply reschedule.
			c.scheduledStart = pos
			c.cursorOffset = 0
			return
		}
		c.phase = PhaseRetriggering
		c.pendingStart = pos
	case PhasePaused:
		// Resume: land pos_within_clip back on the paused offset by
		// making now's effective start position pos - O.
		c.phase = PhaseScheduledOrPlaying
		c.scheduledStart = pos
		// cursorOffset (O) is left as-is: pos_from_start(pos) == O.
	case PhaseScheduledForStop:
		c.phase = PhaseScheduledOrPlaying
	default:
		c.phase = PhaseRetriggering
		c.pendingStart = pos
	}
}

// ScheduleStop implements the clip's stop rules.
func (c *Clip) ScheduleStop(target StopTarget, now float64) {
	switch c.phase {
	case PhasePaused:
		c.phase = PhaseStopped
	case PhaseScheduledOrPlaying, PhaseRetriggering:
		if c.PosFromStart(now) < 0 {
			// Still in count-in: nothing ever played, just cancel.
			c.phase = PhaseStopped
			return
		}
		c.phase = PhaseScheduledForStop
		c.stopTarget = StopTarget{Pos: c.ResolveStopTarget(target, now)}
	default:
		c.phase = PhaseStopped
	}
}

// Pause captures the current clip-relative position into O and begins
// the transient pause hand-off. Only valid while playing with a valid
// pos_within_clip; otherwise it is a no-op.
func (c *Clip) Pause(now float64) {
	pos, ok := c.PosWithinClip(now)
	if !ok || (c.phase != PhaseScheduledOrPlaying && c.phase != PhaseScheduledForStop) {
		return
	}
	c.cursorOffset = pos
	c.phase = PhaseTransitioningToPause
}

// Seek moves playback to desired within the clip, without changing
// play/pause state.
func (c *Clip) Seek(desired float64, now float64) {
	if c.phase == PhasePaused {
		c.cursorOffset = desired
		return
	}
	if c.sectionLength > 0 {
		c.cursorOffset = floorMod(c.scheduledStart+desired-now, c.sectionLength)
	} else {
		c.cursorOffset = c.scheduledStart + desired - now
	}
}

// Process advances the transient phases by one block and reports
// which MIDI reset messages the caller must emit before this block's
// first event, if any.
func (c *Clip) Process(now float64) midi.ResetKind {
	switch c.phase {
	case PhaseRetriggering:
		c.phase = PhaseScheduledOrPlaying
		c.scheduledStart = c.pendingStart
		c.cursorOffset = 0
		return c.resetPolicy.OnInteraction
	case PhaseTransitioningToPause:
		c.phase = PhasePaused
		return c.resetPolicy.OnInteraction
	case PhaseTransitioningToStop:
		c.phase = PhaseStopped
		return c.resetPolicy.OnInteraction
	case PhaseScheduledForStop:
		stopAt := c.ResolveStopTarget(c.stopTarget, now)
		if HasReached(stopAt, now) {
			c.phase = PhaseTransitioningToStop
		}
		return midi.ResetNone
	default:
		return midi.ResetNone
	}
}

// ShouldBeginOutput reports whether the block ending at blockEndPos
// has reached the scheduled start, per the quantum-adherence rule:
// output begins as soon as the *end* of the block reaches it, not the
// block start.
func (c *Clip) ShouldBeginOutput(blockEndPos float64) bool {
	return (c.phase == PhaseScheduledOrPlaying || c.phase == PhaseRetriggering) && HasReached(c.scheduledStart, blockEndPos)
}

func floorMod(a, m float64) float64 {
	r := math.Mod(a, m)
	if r < 0 {
		r += m
	}
	return r
}
