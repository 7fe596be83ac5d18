package column

import (
	"github.com/justyntemme/clipgrid/pkg/clip"
	"github.com/justyntemme/clipgrid/pkg/ids"
	"github.com/justyntemme/clipgrid/pkg/recorder"
	"github.com/justyntemme/clipgrid/pkg/slot"
)

// Settings is a column's play-behavior configuration: whether starting
// one slot stops its siblings, and whether the column participates in
// scene (row) play at all.
type Settings struct {
	Exclusive     bool
	IgnoresScenes bool
}

// SlotContent describes one slot's full clip list, used by Load and
// FillSlot to hand the column new material.
type SlotContent struct {
	ID    ids.SlotId
	Row   int
	Clips []*slot.LiveClip
}

// Command is the column command set. Every
// variant is applied atomically with respect to a block's processing,
// in send order, only from inside Process's command-drain step.
type Command interface{ isColumnCommand() }

type ClearSlots struct{}

type Load struct{ NewSlots []SlotContent }

type ClearSlot struct{ SlotID ids.SlotId }

type RemoveSlot struct{ SlotID ids.SlotId }

type UpdateSettings struct{ Settings Settings }

type UpdateMatrixSettings struct{ Settings Settings }

type FillSlot struct{ Content SlotContent }

// ProcessTransportChange notes a host transport discontinuity (a seek,
// or a tempo/signature change already reflected in the timeline). The
// column treats it like a pause/resume: its next running block emits
// TransportResynced. No supplier-chain state is reset.
type ProcessTransportChange struct{}

type PlaySlot struct {
	SlotID ids.SlotId
	Pos    float64
}

type PlayRow struct {
	RowIndex int
	Pos      float64
}

type StopSlot struct {
	SlotID ids.SlotId
	Target clip.StopTarget
}

// Stop stops every slot in the column.
type Stop struct{ Target clip.StopTarget }

type PauseSlot struct{ SlotID ids.SlotId }

type SeekSlot struct {
	SlotID  ids.SlotId
	Desired float64
}

type SetClipVolume struct {
	SlotID ids.SlotId
	ClipID ids.ClipId
	Volume float32
}

type SetClipLooped struct {
	SlotID ids.SlotId
	ClipID ids.ClipId
	Looped bool
}

// SetClipSection retargets a clip's source window. FrameStart/
// FrameLength address the supplier chain's Section/Looper layers
// (source frames); LengthSeconds addresses the clip state machine's
// own section-length bookkeeping (timeline seconds) — the two layers
// measure the same boundary in different units and both must move
// together.
type SetClipSection struct {
	SlotID        ids.SlotId
	ClipID        ids.ClipId
	FrameStart    int64
	FrameLength   int64
	LengthSeconds float64
}

type RecordClip struct {
	SlotID ids.SlotId
	ClipID ids.ClipId
	Instr  recorder.Instruction
	Sink   recorder.AudioSink
}

type StopRecordClip struct {
	SlotID    ids.SlotId
	ClipID    ids.ClipId
	Immediate bool
}

func (ClearSlots) isColumnCommand()             {}
func (Load) isColumnCommand()                   {}
func (ClearSlot) isColumnCommand()              {}
func (RemoveSlot) isColumnCommand()             {}
func (UpdateSettings) isColumnCommand()         {}
func (UpdateMatrixSettings) isColumnCommand()   {}
func (FillSlot) isColumnCommand()               {}
func (ProcessTransportChange) isColumnCommand() {}
func (PlaySlot) isColumnCommand()               {}
func (PlayRow) isColumnCommand()                {}
func (StopSlot) isColumnCommand()               {}
func (Stop) isColumnCommand()                   {}
func (PauseSlot) isColumnCommand()              {}
func (SeekSlot) isColumnCommand()               {}
func (SetClipVolume) isColumnCommand()          {}
func (SetClipLooped) isColumnCommand()          {}
func (SetClipSection) isColumnCommand()         {}
func (RecordClip) isColumnCommand()             {}
func (StopRecordClip) isColumnCommand()         {}
