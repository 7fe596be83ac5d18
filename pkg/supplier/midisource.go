package supplier

import (
	"sort"

	"github.com/justyntemme/clipgrid/pkg/midi"
)

// MidiInternalFrameRate is the fixed internal frame rate MIDI sources
// use. Chosen
// high enough that sub-millisecond event timing survives rate
// conversion to any real destination block rate.
const MidiInternalFrameRate = 960000.0

// midiEvent pairs a MIDI event with its absolute source-frame position,
// at MidiInternalFrameRate.
type midiEvent struct {
	frame int64
	event midi.Event
}

// MemoryMidiSource is the innermost MIDI supplier: a growing,
// frame-stamped list of events. Both clip material loaded from a
// descriptor and the recorder's live/mirror sources are one of these.
type MemoryMidiSource struct {
	events []midiEvent
	sorted bool
	length int64 // frame count, 0 while still recording/open-ended
}

// NewMemoryMidiSource creates an empty MIDI source.
func NewMemoryMidiSource() *MemoryMidiSource {
	return &MemoryMidiSource{sorted: true}
}

// AppendEvent appends one event at an absolute source-frame position
// (the recorder calls this with correct intra-block offsets already
// folded into frame.
func (s *MemoryMidiSource) AppendEvent(frame int64, e midi.Event) {
	s.events = append(s.events, midiEvent{frame: frame, event: e})
	s.sorted = false
}

// SetLength fixes the source length once recording commits.
func (s *MemoryMidiSource) SetLength(frames int64) { s.length = frames }

func (s *MemoryMidiSource) ensureSorted() {
	if s.sorted {
		return
	}
	sort.SliceStable(s.events, func(i, j int) bool { return s.events[i].frame < s.events[j].frame })
	s.sorted = true
}

func (s *MemoryMidiSource) MaterialInfo() MaterialInfo {
	return MaterialInfo{Kind: KindMidi, FrameRate: MidiInternalFrameRate, FrameCount: s.length}
}

func (s *MemoryMidiSource) TranslatePlayPosToSourcePos(playPos int64) int64 { return playPos }

func (s *MemoryMidiSource) SupplyAudio(AudioRequest, AudioBuffer) (AudioResponse, error) {
	return AudioResponse{}, ErrNotAudio
}

// SupplyMidi adds events whose source-frame position falls within
// [req.StartFrame, req.StartFrame+blockSourceFrames), offsetting each
// to its sample position in the destination block. req.StartFrame may
// be negative (count-in); events with a negative source position still
// produce a correct, non-negative destination offset as long as they
// fall within the block.
func (s *MemoryMidiSource) SupplyMidi(req MidiRequest, queue *midi.EventQueue) (MidiResponse, error) {
	s.ensureSorted()

	srcRate := MidiInternalFrameRate
	framesPerDestSample := srcRate / req.DestSampleRate
	blockSourceFrames := int64(float64(req.BlockFrames) * framesPerDestSample)
	end := req.StartFrame + blockSourceFrames

	start := sort.Search(len(s.events), func(i int) bool { return s.events[i].frame >= req.StartFrame })
	consumed := int64(0)
	for i := start; i < len(s.events) && s.events[i].frame < end; i++ {
		ev := s.events[i]
		destOffset := int32(float64(ev.frame-req.StartFrame) / framesPerDestSample)
		queue.Add(withOffset(ev.event, destOffset))
		consumed = ev.frame - req.StartFrame + 1
	}

	if s.length > 0 && end >= s.length {
		return MidiResponse{NumFramesConsumed: consumed, Status: ReachedEnd}, nil
	}
	return MidiResponse{NumFramesConsumed: blockSourceFrames, Status: Continue}, nil
}

// withOffset returns a copy of e with its sample offset replaced.
func withOffset(e midi.Event, offset int32) midi.Event {
	switch ev := e.(type) {
	case midi.NoteOnEvent:
		ev.Offset = offset
		return ev
	case midi.NoteOffEvent:
		ev.Offset = offset
		return ev
	case midi.ControlChangeEvent:
		ev.Offset = offset
		return ev
	case midi.PitchBendEvent:
		ev.Offset = offset
		return ev
	case midi.PolyPressureEvent:
		ev.Offset = offset
		return ev
	case midi.ChannelPressureEvent:
		ev.Offset = offset
		return ev
	case midi.ProgramChangeEvent:
		ev.Offset = offset
		return ev
	default:
		return e
	}
}
