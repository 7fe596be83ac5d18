package column

import (
	"github.com/justyntemme/clipgrid/pkg/bridge"
	"github.com/justyntemme/clipgrid/pkg/ids"
	"github.com/justyntemme/clipgrid/pkg/slot"
	"github.com/justyntemme/clipgrid/pkg/supplier"
)

// Event is the column outbound event set: play-state
// changes, material-info updates, clip ownership handoffs, recording
// acknowledgements, interaction failures, and disposal requests,
// broadcast over a single MPMC queue per column.
type Event interface{ isColumnEvent() }

// SlotPlayStateChanged reports a slot's derived Phase changed this
// block.
type SlotPlayStateChanged struct {
	SlotID ids.SlotId
	Phase  slot.Phase
}

// MaterialInfoUpdated reports a clip's backing material changed shape
// (e.g. a recording committed and its source is no longer open-ended).
type MaterialInfoUpdated struct {
	SlotID ids.SlotId
	ClipID ids.ClipId
	Info   supplier.MaterialInfo
}

// SlotClearedWithClips hands the clips a ClearSlot/RemoveSlot/Load just
// detached back to the control thread, which owns their persistence
// record. The clips themselves keep fading out through the column's
// retired-slot list; this event is not a disposal notice.
type SlotClearedWithClips struct {
	SlotID ids.SlotId
	Clips  []*slot.LiveClip
}

// RecordRequestAcked confirms a RecordClip command was accepted and
// the named clip has entered PhaseRecording.
type RecordRequestAcked struct {
	SlotID ids.SlotId
	ClipID ids.ClipId
}

// RecordCompleted reports a MIDI recording committed, carrying the
// promoted mirror source. Audio commits do not emit it.
type RecordCompleted struct {
	SlotID ids.SlotId
	ClipID ids.ClipId
	Source supplier.Supplier
}

// InteractionFailed reports a command that referenced an address or
// state that didn't resolve,
// converted to an event rather than an audio-thread error return.
type InteractionFailed struct{ Message string }

// TransportResynced reports the column observed a transport
// discontinuity (pause/resume or an explicit ProcessTransportChange)
// this block.
type TransportResynced struct{}

// Dispose carries a boxed allocation the audio thread is done with
// back to the control thread for freeing — the generic drain path
// every command/retired-slot disposal funnels through.
type Dispose struct{ Garbage bridge.Garbage }

func (SlotPlayStateChanged) isColumnEvent()  {}
func (MaterialInfoUpdated) isColumnEvent()   {}
func (SlotClearedWithClips) isColumnEvent()  {}
func (RecordRequestAcked) isColumnEvent()    {}
func (RecordCompleted) isColumnEvent()       {}
func (InteractionFailed) isColumnEvent()     {}
func (TransportResynced) isColumnEvent()     {}
func (Dispose) isColumnEvent()               {}
