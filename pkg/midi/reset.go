package midi

import gomidi "gitlab.com/gomidi/midi/v2"

// ResetKind is a bitmask of which reset messages a boundary emits,
// applied independently at loop boundaries vs. interaction boundaries
// via [ResetPolicy].
type ResetKind uint8

const (
	ResetNone     ResetKind = 0
	ResetNotesOff ResetKind = 1 << 0
	ResetSoundOff ResetKind = 1 << 1
)

// ResetAll requests both all-notes-off and all-sound-off.
const ResetAll = ResetNotesOff | ResetSoundOff

// ResetPolicy is the clip's MIDI reset-messages policy: which
// reset messages fire at loop boundaries versus interaction boundaries
// (stop/retrigger/section-change).
type ResetPolicy struct {
	OnLoop        ResetKind
	OnInteraction ResetKind
}

// NumMidiChannels is the number of MIDI channels reset messages are
// emitted across — one all-notes-off (one per
// channel)".
const NumMidiChannels = 16

// AppendResetEvents appends the reset events required by kind, for
// every channel, at the given sample offset, into queue. The slot calls
// it with the kind the clip state machine's Process reports as a
// Transitioning* or Retriggering phase resolves, so the reset precedes
// the block's first event at that destination.
func AppendResetEvents(queue *EventQueue, kind ResetKind, offset int32) {
	if kind == ResetNone {
		return
	}
	events := make([]Event, 0, NumMidiChannels*2)
	for ch := uint8(0); ch < NumMidiChannels; ch++ {
		if kind&ResetNotesOff != 0 {
			events = append(events, ControlChangeEvent{
				BaseEvent:  BaseEvent{EventChannel: ch, Offset: offset},
				Controller: CCAllNotesOff,
				Value:      0,
			})
		}
		if kind&ResetSoundOff != 0 {
			events = append(events, ControlChangeEvent{
				BaseEvent:  BaseEvent{EventChannel: ch, Offset: offset},
				Controller: CCAllSoundOff,
				Value:      0,
			})
		}
	}
	queue.AddMultiple(events)
}

// WireBytes renders an Event to the raw 3-byte (or shorter) channel
// message a real MIDI output port understands, using gomidi/midi's
// message builders so the byte layout matches the wider MIDI ecosystem
// rather than a hand-rolled encoding.
func WireBytes(e Event) []byte {
	ch := gomidi.Channel(e.Channel())
	var msg gomidi.Message
	switch ev := e.(type) {
	case NoteOnEvent:
		msg = ch.NoteOn(ev.NoteNumber, ev.Velocity)
	case NoteOffEvent:
		msg = ch.NoteOff(ev.NoteNumber)
	case ControlChangeEvent:
		msg = ch.ControlChange(ev.Controller, ev.Value)
	case PitchBendEvent:
		msg = ch.Pitchbend(ev.Value)
	case PolyPressureEvent:
		msg = ch.PolyAfterTouch(ev.NoteNumber, ev.Pressure)
	case ChannelPressureEvent:
		msg = ch.AfterTouch(ev.Pressure)
	case ProgramChangeEvent:
		msg = ch.ProgramChange(ev.Program)
	default:
		return nil
	}
	return []byte(msg)
}
