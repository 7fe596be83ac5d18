// Package column implements the clip engine's Column: a column of
// Slots sharing a command/event bridge pair, processed one block at a
// time by the audio thread while the control thread mutates it only
// through the command queue.
package column

import (
	"sync"

	"github.com/justyntemme/clipgrid/pkg/bridge"
	"github.com/justyntemme/clipgrid/pkg/clip"
	"github.com/justyntemme/clipgrid/pkg/enginerr"
	"github.com/justyntemme/clipgrid/pkg/ids"
	"github.com/justyntemme/clipgrid/pkg/midi"
	"github.com/justyntemme/clipgrid/pkg/slot"
	"github.com/justyntemme/clipgrid/pkg/supplier"
	"github.com/justyntemme/clipgrid/pkg/timeline"
)

// Column owns a Slots collection (insertion-ordered, keyed by SlotId),
// a bounded command receiver, an event sender, per-column settings, and
// a reusable mix scratch buffer.
type Column struct {
	ID ids.ColumnId

	// mu guards everything below against a concurrent control-thread
	// snapshot read. The audio thread only ever takes it via
	// nonBlockingLock, never Lock — it skips the block rather than
	// stall, returning enginerr.ErrContention instead.
	mu sync.Mutex

	order    []ids.SlotId
	bySlotID map[ids.SlotId]*slot.Slot
	retired  []*slot.Slot

	settings       Settings
	matrixSettings Settings

	commands *bridge.CommandBridge[Command]
	events   *bridge.EventBridge[Event]

	scratch supplier.AudioBuffer

	wasPaused        bool
	retireFadeFrames int
}

// New creates an empty column, wired to commands/events of the given
// capacity (typically engine.Config.ColumnCommandCapacity/EventCapacity)
// and a retirement fade length in destination frames (typically derived
// from engine.Config.RetirementDuration at the project sample rate).
func New(id ids.ColumnId, commands *bridge.CommandBridge[Command], events *bridge.EventBridge[Event], retireFadeFrames int) *Column {
	return &Column{
		ID:               id,
		bySlotID:         make(map[ids.SlotId]*slot.Slot),
		commands:         commands,
		events:           events,
		retireFadeFrames: retireFadeFrames,
	}
}

// SendCommand is the control thread's entry point; it never blocks
// never blocking the caller; a full queue drops the command.
func (c *Column) SendCommand(cmd Command) { c.commands.Send(cmd) }

// nonBlockingLock is the audio thread's try-lock-or-skip helper
// §5 non_blocking_lock): audio-thread callers never wait for the
// control thread's snapshot reads.
func (c *Column) nonBlockingLock() bool { return c.mu.TryLock() }

func (c *Column) ensureScratch(numCh, frames int) {
	if cap(c.scratch) < numCh {
		c.scratch = make(supplier.AudioBuffer, numCh)
	}
	c.scratch = c.scratch[:numCh]
	for ch := 0; ch < numCh; ch++ {
		if cap(c.scratch[ch]) < frames {
			c.scratch[ch] = make([]float32, frames)
		}
		c.scratch[ch] = c.scratch[ch][:frames]
	}
}

// Process advances the column by one block, running the six-step
// algorithm). dest is the host's output buffer for this column's
// channels, already expected to be fully written on return regardless
// of play state (silence counts as fully written). Returns
// ErrContention if the audio thread could not acquire the column's
// lock this block — the caller should treat the block as silent and
// move on, never retry.
func (c *Column) Process(now, destRate float64, dest supplier.AudioBuffer, midiOut *midi.EventQueue, tl timeline.Timeline) error {
	if !c.nonBlockingLock() {
		dest.Clear()
		return enginerr.ErrContention
	}
	defer c.mu.Unlock()

	c.drainCommands(now, tl)

	running := tl.PlayState() == timeline.Playing || tl.PlayState() == timeline.Recording
	if !running {
		dest.Clear()
		c.wasPaused = true
		return nil
	}
	if c.wasPaused {
		c.wasPaused = false
		c.events.Send(TransportResynced{})
	}

	dest.Clear()
	c.ensureScratch(len(dest), dest.FrameCount())

	stillRetired := c.retired[:0]
	for _, s := range c.retired {
		outcome := s.Process(now, destRate, dest, c.scratch, midiOut, c.retireFadeFrames)
		if outcome.NumAudioFramesWritten == 0 {
			c.events.Send(Dispose{Garbage: bridge.Wrap(s)})
			continue
		}
		stillRetired = append(stillRetired, s)
	}
	c.retired = stillRetired

	for _, id := range c.order {
		s := c.bySlotID[id]
		outcome := s.Process(now, destRate, dest, c.scratch, midiOut, c.retireFadeFrames)
		if outcome.ChangedPlayState {
			c.events.Send(SlotPlayStateChanged{SlotID: s.ID, Phase: s.Phase()})
		}
		c.pollRecordCompletions(s)
	}

	return nil
}

// pollRecordCompletions emits RecordCompleted once per clip the first
// time its Recorder exposes a promoted persistent source (MIDI commit;
// audio commits are observed by the caller watching for the clip's
// Chain material to change shape instead, since Recorder swaps `inner`
// for audio rather than exposing a separate PersistentSource).
func (c *Column) pollRecordCompletions(s *slot.Slot) {
	for _, lc := range s.Clips() {
		if lc.Rec == nil || lc.RecordCompletionPosted {
			continue
		}
		if src := lc.Rec.PersistentSource(); src != nil {
			lc.RecordCompletionPosted = true
			c.events.Send(RecordCompleted{SlotID: s.ID, ClipID: lc.ID, Source: src})
		}
	}
}

func (c *Column) drainCommands(now float64, tl timeline.Timeline) {
	for {
		cmd, ok := c.commands.TryReceive()
		if !ok {
			return
		}
		c.apply(cmd, now, tl)
	}
}

func (c *Column) apply(cmd Command, now float64, tl timeline.Timeline) {
	switch v := cmd.(type) {
	case ClearSlots:
		for _, id := range c.order {
			c.removeSlotEntirely(id)
		}
		c.order = nil
	case Load:
		c.applyLoad(v.NewSlots)
	case ClearSlot:
		c.clearSlotKeepAddress(v.SlotID)
	case RemoveSlot:
		c.removeSlotEntirely(v.SlotID)
	case UpdateSettings:
		c.settings = v.Settings
	case UpdateMatrixSettings:
		c.matrixSettings = v.Settings
	case FillSlot:
		c.applyFillSlot(v.Content)
	case ProcessTransportChange:
		c.wasPaused = true
	case PlaySlot:
		c.applyPlaySlot(v.SlotID, v.Pos, now)
	case PlayRow:
		c.applyPlayRow(v.RowIndex, v.Pos, now)
	case StopSlot:
		if s := c.bySlotID[v.SlotID]; s != nil {
			s.Stop(v.Target, now)
		} else {
			c.fail("StopSlot: unknown slot")
		}
	case Stop:
		for _, id := range c.order {
			c.bySlotID[id].Stop(v.Target, now)
		}
	case PauseSlot:
		if s := c.bySlotID[v.SlotID]; s != nil {
			s.Pause(now)
		} else {
			c.fail("PauseSlot: unknown slot")
		}
	case SeekSlot:
		if s := c.bySlotID[v.SlotID]; s != nil {
			s.Seek(v.Desired, now)
		} else {
			c.fail("SeekSlot: unknown slot")
		}
	case SetClipVolume:
		if lc := c.findClip(v.SlotID, v.ClipID); lc != nil {
			lc.Volume = v.Volume
		} else {
			c.fail("SetClipVolume: unknown clip")
		}
	case SetClipLooped:
		if lc := c.findClip(v.SlotID, v.ClipID); lc != nil {
			lc.State.SetLooped(v.Looped)
			if lc.Chain.Looper != nil {
				lc.Chain.Looper.SetLooped(v.Looped)
			}
		} else {
			c.fail("SetClipLooped: unknown clip")
		}
	case SetClipSection:
		if lc := c.findClip(v.SlotID, v.ClipID); lc != nil {
			if lc.Chain.Section != nil {
				lc.Chain.Section.SetWindow(v.FrameStart, v.FrameLength)
			}
			if lc.Chain.Looper != nil {
				lc.Chain.Looper.SetSectionLength(v.FrameLength)
			}
			lc.State.SetSectionLength(v.LengthSeconds)
		} else {
			c.fail("SetClipSection: unknown clip")
		}
	case RecordClip:
		if lc := c.findClip(v.SlotID, v.ClipID); lc != nil && lc.Rec != nil {
			lc.Rec.BeginRecording(v.Instr, v.Sink)
			c.events.Send(RecordRequestAcked{SlotID: v.SlotID, ClipID: v.ClipID})
		} else {
			c.fail("RecordClip: unknown clip or not recordable")
		}
	case StopRecordClip:
		if lc := c.findClip(v.SlotID, v.ClipID); lc != nil && lc.Rec != nil {
			lc.Rec.Stop(v.Immediate, now, tl)
		} else {
			c.fail("StopRecordClip: unknown clip or not recordable")
		}
	}
}

func (c *Column) fail(message string) {
	c.events.Send(InteractionFailed{Message: message})
}

func (c *Column) findClip(slotID ids.SlotId, clipID ids.ClipId) *slot.LiveClip {
	s := c.bySlotID[slotID]
	if s == nil {
		return nil
	}
	for _, lc := range s.Clips() {
		if lc.ID == clipID {
			return lc
		}
	}
	return nil
}

// applyPlaySlot schedules id to start at pos; in an exclusive column
// every other slot is force-stopped in the same command so both
// transitions land in the same block.
func (c *Column) applyPlaySlot(id ids.SlotId, pos, now float64) {
	s := c.bySlotID[id]
	if s == nil {
		c.fail("PlaySlot: unknown slot")
		return
	}
	s.Play(pos, now)
	if c.settings.Exclusive {
		c.enforcePlayStop(id, now)
	}
}

// applyPlayRow implements scene play: columns that ignore
// scenes drop the command; columns that follow scenes always stop
// their other slots afterward, exclusive or not, since scene play
// implies replacement.
func (c *Column) applyPlayRow(rowIndex int, pos, now float64) {
	if c.settings.IgnoresScenes {
		return
	}
	var target ids.SlotId
	var found bool
	for _, id := range c.order {
		if s := c.bySlotID[id]; s.Row == rowIndex {
			target = id
			found = true
			s.Play(pos, now)
			break
		}
	}
	for _, id := range c.order {
		if found && id == target {
			continue
		}
		c.bySlotID[id].Stop(clip.StopTarget{Pos: now}, now)
	}
}

// enforcePlayStop force-stops every slot but except, bypassing any
// "already scheduled for stop" guard by targeting an immediate stop at
// now.
func (c *Column) enforcePlayStop(except ids.SlotId, now float64) {
	for _, id := range c.order {
		if id == except {
			continue
		}
		c.bySlotID[id].Stop(clip.StopTarget{Pos: now}, now)
	}
}

func (c *Column) addSlot(s *slot.Slot) {
	c.order = append(c.order, s.ID)
	c.bySlotID[s.ID] = s
}

// retireClips wraps detached clips in a transient slot so they finish
// fading out through the column's retired-slot processing, then posts
// ownership back to the control thread.
func (c *Column) retireClips(ownerID ids.SlotId, clips []*slot.LiveClip) {
	if len(clips) == 0 {
		return
	}
	retiring := slot.New(ownerID)
	retiring.AddAll(clips)
	retiring.Clear()
	c.retired = append(c.retired, retiring)
	c.events.Send(SlotClearedWithClips{SlotID: ownerID, Clips: clips})
}

// clearSlotKeepAddress empties a slot's clips
// while leaving the slot itself addressable for a future FillSlot/Load.
func (c *Column) clearSlotKeepAddress(id ids.SlotId) {
	s := c.bySlotID[id]
	if s == nil {
		c.fail("ClearSlot: unknown slot")
		return
	}
	c.retireClips(id, s.TakeClips())
}

// removeSlotEntirely drops a slot's address entirely
// RemoveSlot): if it holds clips they move to the retired list with
// an interaction fade, same path as ClearSlot.
func (c *Column) removeSlotEntirely(id ids.SlotId) {
	s := c.bySlotID[id]
	if s == nil {
		c.fail("RemoveSlot: unknown slot")
		return
	}
	delete(c.bySlotID, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	if clips := s.Clips(); len(clips) > 0 {
		s.Clear()
		c.retired = append(c.retired, s)
		c.events.Send(SlotClearedWithClips{SlotID: id, Clips: clips})
	}
}

func (c *Column) applyFillSlot(content SlotContent) {
	if existing, ok := c.bySlotID[content.ID]; ok {
		existing.SetRow(content.Row)
		retired := existing.Load(content.Clips)
		c.retireClips(content.ID, retired)
		return
	}
	s := slot.New(content.ID)
	s.SetRow(content.Row)
	s.AddAll(content.Clips)
	c.addSlot(s)
}

// applyLoad replaces the column's entire slot set
// Load{new_slots}): slots named in newSlots are created or merged
// (matching clip IDs preserved uninterrupted via Slot.Load), and any
// slot not named is removed entirely.
func (c *Column) applyLoad(newSlots []SlotContent) {
	keep := make(map[ids.SlotId]bool, len(newSlots))
	for _, sc := range newSlots {
		keep[sc.ID] = true
		c.applyFillSlot(sc)
	}
	for _, id := range append([]ids.SlotId(nil), c.order...) {
		if !keep[id] {
			c.removeSlotEntirely(id)
		}
	}
}

// SlotSnapshot is a read-only view of one slot for control-thread
// consumers (e.g. a UI refresh) that must not race the audio thread.
type SlotSnapshot struct {
	ID    ids.SlotId
	Row   int
	Phase slot.Phase
}

// Snapshot returns every slot's current phase. Unlike Process, this
// blocks for the column's mutex — the control thread is allowed to
// wait here, since it isn't competing with the audio thread's hard
// real-time deadline.
func (c *Column) Snapshot() []SlotSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]SlotSnapshot, 0, len(c.order))
	for _, id := range c.order {
		s := c.bySlotID[id]
		out = append(out, SlotSnapshot{ID: s.ID, Row: s.Row, Phase: s.Phase()})
	}
	return out
}
