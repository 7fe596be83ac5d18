package supplier

import (
	"testing"

	"github.com/justyntemme/clipgrid/pkg/midi"
)

func TestMemoryMidiSourceSupplyInRange(t *testing.T) {
	src := NewMemoryMidiSource()
	src.AppendEvent(100, midi.NoteOnEvent{BaseEvent: midi.BaseEvent{EventChannel: 0}, NoteNumber: 60, Velocity: 100})
	src.AppendEvent(50000, midi.NoteOnEvent{BaseEvent: midi.BaseEvent{EventChannel: 0}, NoteNumber: 64, Velocity: 90})
	src.SetLength(100000)

	queue := midi.NewEventQueue()
	resp, err := src.SupplyMidi(MidiRequest{
		StartFrame:     0,
		BlockFrames:    512,
		DestSampleRate: 48000,
	}, queue)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != Continue {
		t.Fatalf("status = %v, want Continue", resp.Status)
	}

	events := queue.GetAllEvents()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	note, ok := events[0].(midi.NoteOnEvent)
	if !ok {
		t.Fatalf("unexpected event type %T", events[0])
	}
	if note.NoteNumber != 60 {
		t.Errorf("NoteNumber = %d, want 60", note.NoteNumber)
	}
}

func TestMemoryMidiSourceReachedEnd(t *testing.T) {
	src := NewMemoryMidiSource()
	src.SetLength(100)

	queue := midi.NewEventQueue()
	resp, err := src.SupplyMidi(MidiRequest{
		StartFrame:     0,
		BlockFrames:    512,
		DestSampleRate: MidiInternalFrameRate,
	}, queue)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != ReachedEnd {
		t.Fatalf("status = %v, want ReachedEnd", resp.Status)
	}
}

func TestMemoryMidiSourceUnsortedAppend(t *testing.T) {
	src := NewMemoryMidiSource()
	src.AppendEvent(200, midi.NoteOffEvent{BaseEvent: midi.BaseEvent{EventChannel: 0}, NoteNumber: 60})
	src.AppendEvent(50, midi.NoteOnEvent{BaseEvent: midi.BaseEvent{EventChannel: 0}, NoteNumber: 60, Velocity: 100})

	queue := midi.NewEventQueue()
	_, err := src.SupplyMidi(MidiRequest{
		StartFrame:     0,
		BlockFrames:    100,
		DestSampleRate: MidiInternalFrameRate,
	}, queue)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events := queue.GetAllEvents()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1 (earliest)", len(events))
	}
	if _, ok := events[0].(midi.NoteOnEvent); !ok {
		t.Fatalf("expected the earlier NoteOn to be delivered first, got %T", events[0])
	}
}

func TestMemoryMidiSourceSupplyAudioNotSupported(t *testing.T) {
	src := NewMemoryMidiSource()
	_, err := src.SupplyAudio(AudioRequest{}, nil)
	if err != ErrNotAudio {
		t.Fatalf("err = %v, want ErrNotAudio", err)
	}
}
