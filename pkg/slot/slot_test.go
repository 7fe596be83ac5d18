package slot

import (
	"testing"

	"github.com/justyntemme/clipgrid/pkg/clip"
	"github.com/justyntemme/clipgrid/pkg/ids"
	"github.com/justyntemme/clipgrid/pkg/midi"
	"github.com/justyntemme/clipgrid/pkg/supplier"
)

func newTestClip(samples []float32, volume float32) *LiveClip {
	src := supplier.NewMemoryAudioSource([][]float32{samples}, 10.0)
	chain := supplier.BuildAudioChainWithHandles(src, supplier.ChainConfig{NativeFrameRate: 10.0})
	return &LiveClip{
		ID:     ids.NewClipId(),
		State:  clip.New(0, false, midi.ResetPolicy{}),
		Chain:  chain,
		Volume: volume,
	}
}

func TestSlotPlaySingleClipProducesAudio(t *testing.T) {
	c := newTestClip([]float32{1, 1, 1, 1, 1, 1, 1, 1}, 1)
	s := New(ids.NewSlotId())
	s.Add(c)
	s.Play(0, 0)

	dest := supplier.AudioBuffer{make([]float32, 4)}
	scratch := supplier.AudioBuffer{make([]float32, 4)}
	midiOut := midi.NewEventQueue()

	dest.Clear()
	outcome := s.Process(0, 10.0, dest, scratch, midiOut, 100)
	if outcome.NumAudioFramesWritten != 4 {
		t.Fatalf("frames written = %d, want 4", outcome.NumAudioFramesWritten)
	}
	for i, v := range dest[0] {
		if v != 1 {
			t.Errorf("dest[0][%d] = %v, want 1", i, v)
		}
	}

	dest.Clear()
	outcome = s.Process(0.4, 10.0, dest, scratch, midiOut, 100)
	if outcome.NumAudioFramesWritten != 4 {
		t.Fatalf("second block frames written = %d, want 4", outcome.NumAudioFramesWritten)
	}

	dest.Clear()
	outcome = s.Process(0.8, 10.0, dest, scratch, midiOut, 100)
	if outcome.NumAudioFramesWritten != 0 {
		t.Fatalf("past end frames written = %d, want 0", outcome.NumAudioFramesWritten)
	}
	for i, v := range dest[0] {
		if v != 0 {
			t.Errorf("past-end dest[0][%d] = %v, want 0", i, v)
		}
	}
}

// TestSlotCountInCrossesSubBlockBoundary covers a clip scheduled to start
// mid-block at a real project rate: every whole block before the
// scheduled start must be silent, the block whose tail crosses the
// scheduled start must emit silence up to the exact sub-block sample
// offset then real material for the rest of the block, and every block
// after must be fully non-silent.
func TestSlotCountInCrossesSubBlockBoundary(t *testing.T) {
	const rate = 48000.0
	const blockFrames = 1024
	const scheduledStart = 1.0 // seconds

	samples := make([]float32, 4000)
	for i := range samples {
		samples[i] = float32(i + 1) // never zero, so silence is unambiguous
	}
	src := supplier.NewMemoryAudioSource([][]float32{samples}, rate)
	chain := supplier.BuildAudioChainWithHandles(src, supplier.ChainConfig{NativeFrameRate: rate})
	c := &LiveClip{ID: ids.NewClipId(), State: clip.New(2.0, false, midi.ResetPolicy{}), Chain: chain, Volume: 1}

	s := New(ids.NewSlotId())
	s.Add(c)
	s.Play(scheduledStart, 0)

	dest := supplier.AudioBuffer{make([]float32, blockFrames)}
	scratch := supplier.AudioBuffer{make([]float32, blockFrames)}
	midiOut := midi.NewEventQueue()

	crossed := false
	for block := 0; block < 50; block++ {
		now := float64(block) * blockFrames / rate
		blockEnd := now + blockFrames/rate

		dest.Clear()
		outcome := s.Process(now, rate, dest, scratch, midiOut, 100)

		if blockEnd <= scheduledStart+1e-9 {
			if outcome.NumAudioFramesWritten != 0 {
				t.Fatalf("block %d (now=%.6f): expected 0 frames written before scheduled start, got %d", block, now, outcome.NumAudioFramesWritten)
			}
			for i, v := range dest[0] {
				if v != 0 {
					t.Fatalf("block %d: dest[0][%d] = %v, want 0 (silence before scheduled start)", block, i, v)
				}
			}
			continue
		}

		if crossed {
			// A block fully past the scheduled start: fully non-silent.
			if outcome.NumAudioFramesWritten != blockFrames {
				t.Fatalf("block %d: frames written = %d, want %d (fully past scheduled start)", block, outcome.NumAudioFramesWritten, blockFrames)
			}
			if dest[0][0] == 0 {
				t.Fatalf("block %d: dest[0][0] = 0, want nonzero material", block)
			}
			continue
		}

		// This is the crossing block: exactly samples_out == block_length,
		// with silence up to the sub-block offset and material after it.
		crossed = true

		if outcome.NumAudioFramesWritten != blockFrames {
			t.Fatalf("crossing block: frames written = %d, want %d (samples_out == block_length)", outcome.NumAudioFramesWritten, blockFrames)
		}
		wantSilentFrames := int((scheduledStart - now) * rate)
		for i := 0; i < wantSilentFrames; i++ {
			if dest[0][i] != 0 {
				t.Fatalf("crossing block: dest[0][%d] = %v, want 0 (still before scheduled start)", i, dest[0][i])
			}
		}
		if dest[0][wantSilentFrames] != 1 {
			t.Fatalf("crossing block: dest[0][%d] = %v, want 1 (first source sample at the exact sub-block offset)", wantSilentFrames, dest[0][wantSilentFrames])
		}
	}
	if !crossed {
		t.Fatalf("test never reached the block whose end crosses the scheduled start")
	}
}

// TestSlotRetriggerRestartsFromSourcePositionZero covers a looped clip
// retriggered mid-playback: the block immediately following the retrigger
// must fill from source position 0, not from wherever playback had
// reached.
func TestSlotRetriggerRestartsFromSourcePositionZero(t *testing.T) {
	samples := []float32{10, 20, 30, 40, 50, 60, 70, 80}
	src := supplier.NewMemoryAudioSource([][]float32{samples}, 10.0)
	chain := supplier.BuildAudioChainWithHandles(src, supplier.ChainConfig{NativeFrameRate: 10.0, Looped: true})
	c := &LiveClip{ID: ids.NewClipId(), State: clip.New(0.8, true, midi.ResetPolicy{}), Chain: chain, Volume: 1}

	s := New(ids.NewSlotId())
	s.Add(c)
	s.Play(0, 0)

	dest := supplier.AudioBuffer{make([]float32, 3)}
	scratch := supplier.AudioBuffer{make([]float32, 3)}
	midiOut := midi.NewEventQueue()

	dest.Clear()
	s.Process(0, 10.0, dest, scratch, midiOut, 100)
	if dest[0][0] != 10 {
		t.Fatalf("first block dest[0][0] = %v, want 10 (source pos 0)", dest[0][0])
	}

	dest.Clear()
	s.Process(0.3, 10.0, dest, scratch, midiOut, 100)
	if dest[0][0] == 10 {
		t.Fatalf("expected playback to have advanced past source pos 0 before retrigger")
	}

	// Retrigger while playing: ScheduleStart(now, now), i.e. "start now",
	// moves the clip to PhaseRetriggering for one block.
	s.Play(0.6, 0.6)
	if c.State.Phase() != clip.PhaseRetriggering {
		t.Fatalf("phase after retrigger = %v, want Retriggering", c.State.Phase())
	}

	dest.Clear()
	s.Process(0.6, 10.0, dest, scratch, midiOut, 100)
	if c.State.Phase() != clip.PhaseScheduledOrPlaying {
		t.Fatalf("phase after retrigger block = %v, want ScheduledOrPlaying", c.State.Phase())
	}
	if dest[0][0] != 10 {
		t.Fatalf("post-retrigger dest[0][0] = %v, want 10 (refilled from source pos 0)", dest[0][0])
	}
}

// TestSlotVolumeChangeRampsInsteadOfStepping covers a clip volume
// change applied mid-playback: the very next sample must not jump
// straight to the new gain, it must ramp toward it.
func TestSlotVolumeChangeRampsInsteadOfStepping(t *testing.T) {
	samples := make([]float32, 256)
	for i := range samples {
		samples[i] = 1
	}
	c := newTestClip(samples, 1)
	s := New(ids.NewSlotId())
	s.Add(c)
	s.Play(0, 0)

	dest := supplier.AudioBuffer{make([]float32, 8)}
	scratch := supplier.AudioBuffer{make([]float32, 8)}
	midiOut := midi.NewEventQueue()

	dest.Clear()
	s.Process(0, 10.0, dest, scratch, midiOut, 100)
	if dest[0][7] != 1 {
		t.Fatalf("steady-state dest[0][7] = %v, want 1 (volume 1, no pending change)", dest[0][7])
	}

	c.Volume = 0
	dest.Clear()
	outcome := s.Process(0.8, 10.0, dest, scratch, midiOut, 100)
	if dest[0][0] == 0 {
		t.Fatalf("first sample after a volume drop = 0, want a ramped (nonzero) value, not an instant step")
	}
	if dest[0][0] <= dest[0][7] {
		t.Fatalf("dest[0][0]=%v should be greater than dest[0][7]=%v as the ramp descends toward 0", dest[0][0], dest[0][7])
	}
	if outcome.NumAudioFramesWritten != 8 {
		t.Fatalf("frames written = %d, want 8", outcome.NumAudioFramesWritten)
	}
}

func TestSlotMixesMultipleClips(t *testing.T) {
	a := newTestClip([]float32{1, 1, 1, 1}, 1.0)
	b := newTestClip([]float32{2, 2, 2, 2}, 0.5)

	s := New(ids.NewSlotId())
	s.Add(a)
	s.Add(b)
	s.Play(0, 0)

	dest := supplier.AudioBuffer{make([]float32, 4)}
	scratch := supplier.AudioBuffer{make([]float32, 4)}
	midiOut := midi.NewEventQueue()
	dest.Clear()

	s.Process(0, 10.0, dest, scratch, midiOut, 100)
	for i, v := range dest[0] {
		if v != 2 {
			t.Errorf("mixed dest[0][%d] = %v, want 2 (1*1.0 + 2*0.5)", i, v)
		}
	}
}

func TestSlotLoadPreservesMatchingClipAndRetiresRest(t *testing.T) {
	kept := newTestClip([]float32{1}, 1)
	gone := newTestClip([]float32{2}, 1)

	s := New(ids.NewSlotId())
	s.Add(kept)
	s.Add(gone)

	incomingKept := &LiveClip{ID: kept.ID, Volume: 0.25}
	incomingNew := newTestClip([]float32{3}, 1)

	retired := s.Load([]*LiveClip{incomingKept, incomingNew})

	if len(retired) != 1 || retired[0].ID != gone.ID {
		t.Fatalf("retired = %+v, want [gone]", retired)
	}
	if len(s.Clips()) != 2 {
		t.Fatalf("len(clips) = %d, want 2", len(s.Clips()))
	}
	if s.Clips()[0] != kept {
		t.Fatalf("expected matched clip instance kept uninterrupted")
	}
	if kept.Volume != 0.25 {
		t.Fatalf("kept.Volume = %v, want 0.25 (re-applied from incoming)", kept.Volume)
	}
}

func TestSlotClearFadesOutThenReadyForRemoval(t *testing.T) {
	c := newTestClip([]float32{1, 1, 1, 1, 1, 1, 1, 1}, 1)
	s := New(ids.NewSlotId())
	s.Add(c)
	s.Play(0, 0)

	dest := supplier.AudioBuffer{make([]float32, 2)}
	scratch := supplier.AudioBuffer{make([]float32, 2)}
	midiOut := midi.NewEventQueue()

	s.Clear()
	if !s.Retiring() {
		t.Fatalf("expected Retiring() true after Clear")
	}

	const fadeFrames = 4
	dest.Clear()
	s.Process(0, 10.0, dest, scratch, midiOut, fadeFrames)
	if dest[0][1] >= dest[0][0] {
		t.Fatalf("expected gain to decrease within the fading block: %v then %v", dest[0][0], dest[0][1])
	}
	if s.ReadyForRemoval(fadeFrames) {
		t.Fatalf("should not be ready for removal after first retire block")
	}

	dest.Clear()
	s.Process(0.2, 10.0, dest, scratch, midiOut, fadeFrames)
	if !s.ReadyForRemoval(fadeFrames) {
		t.Fatalf("expected ready for removal once fadeFrames elapsed")
	}
}

func TestSlotPhaseReflectsClipState(t *testing.T) {
	c := newTestClip([]float32{1, 1}, 1)
	s := New(ids.NewSlotId())
	if s.Phase() != PhaseStopped {
		t.Fatalf("empty slot phase = %v, want Stopped", s.Phase())
	}
	s.Add(c)
	if s.Phase() != PhaseStopped {
		t.Fatalf("unplayed slot phase = %v, want Stopped", s.Phase())
	}
	s.Play(0, 0)
	if s.Phase() != PhasePlaying {
		t.Fatalf("playing slot phase = %v, want Playing", s.Phase())
	}
	s.Pause(0)
	if s.Phase() != PhasePaused {
		t.Fatalf("paused slot phase = %v, want Paused", s.Phase())
	}
}

func TestSlotMonoClipPannedHardLeftStaysOffRightChannel(t *testing.T) {
	samples := make([]float32, 8)
	for i := range samples {
		samples[i] = 1
	}
	c := newTestClip(samples, 1)
	c.Pan = -1
	s := New(ids.NewSlotId())
	s.Add(c)
	s.Play(0, 0)

	dest := supplier.AudioBuffer{make([]float32, 8), make([]float32, 8)}
	scratch := supplier.AudioBuffer{make([]float32, 8), make([]float32, 8)}
	midiOut := midi.NewEventQueue()

	s.Process(0, 10.0, dest, scratch, midiOut, 100)
	if dest[0][7] <= 0 {
		t.Fatalf("hard-left pan should leave audible signal on the left channel, got %v", dest[0][7])
	}
	if dest[1][7] != 0 {
		t.Fatalf("hard-left pan should leave the right channel silent, got %v", dest[1][7])
	}
}

func TestSlotMonoClipPannedCenterSplitsEquallyBothChannels(t *testing.T) {
	samples := make([]float32, 8)
	for i := range samples {
		samples[i] = 1
	}
	c := newTestClip(samples, 1)
	s := New(ids.NewSlotId())
	s.Add(c)
	s.Play(0, 0)

	dest := supplier.AudioBuffer{make([]float32, 8), make([]float32, 8)}
	scratch := supplier.AudioBuffer{make([]float32, 8), make([]float32, 8)}
	midiOut := midi.NewEventQueue()

	s.Process(0, 10.0, dest, scratch, midiOut, 100)
	if dest[0][7] <= 0 || dest[1][7] <= 0 {
		t.Fatalf("centered pan should leave both channels audible, got left=%v right=%v", dest[0][7], dest[1][7])
	}
	diff := dest[0][7] - dest[1][7]
	if diff < -1e-5 || diff > 1e-5 {
		t.Fatalf("centered pan should split equally, got left=%v right=%v", dest[0][7], dest[1][7])
	}
}
