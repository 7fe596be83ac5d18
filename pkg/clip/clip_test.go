package clip

import (
	"testing"

	"github.com/justyntemme/clipgrid/pkg/midi"
)

func TestHasReached(t *testing.T) {
	tests := []struct {
		name string
		p    float64
		now  float64
		want bool
	}{
		{"before", 2.0, 1.0, false},
		{"exact", 2.0, 2.0, true},
		{"after", 2.0, 2.5, true},
		{"within epsilon", 2.0, 2.0 - 1e-10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasReached(tt.p, tt.now); got != tt.want {
				t.Errorf("HasReached(%v, %v) = %v, want %v", tt.p, tt.now, got, tt.want)
			}
		})
	}
}

func TestScheduleStartFromStopped(t *testing.T) {
	c := New(4.0, false, midi.ResetPolicy{})
	c.ScheduleStart(10.0, 0.0)
	if c.Phase() != PhaseScheduledOrPlaying {
		t.Fatalf("phase = %v, want ScheduledOrPlaying", c.Phase())
	}
	if c.EffectiveStartPos() != 10.0 {
		t.Fatalf("EffectiveStartPos = %v, want 10.0", c.EffectiveStartPos())
	}
}

func TestScheduleStartRetriggerWhilePlaying(t *testing.T) {
	c := New(4.0, false, midi.ResetPolicy{OnInteraction: midi.ResetAll})
	c.ScheduleStart(0.0, 0.0) // now playing from t=0
	c.ScheduleStart(5.0, 2.0) // already started (now=2 >= S=0) -> retrigger
	if c.Phase() != PhaseRetriggering {
		t.Fatalf("phase = %v, want Retriggering", c.Phase())
	}
	kind := c.Process(2.0)
	if kind != midi.ResetAll {
		t.Fatalf("Process reset kind = %v, want ResetAll", kind)
	}
	if c.Phase() != PhaseScheduledOrPlaying {
		t.Fatalf("phase after Process = %v, want ScheduledOrPlaying", c.Phase())
	}
	if c.EffectiveStartPos() != 5.0 {
		t.Fatalf("EffectiveStartPos after retrigger = %v, want 5.0", c.EffectiveStartPos())
	}
}

func TestPosWithinClipLoopedWraps(t *testing.T) {
	c := New(4.0, true, midi.ResetPolicy{})
	c.ScheduleStart(0.0, 0.0)

	pos, ok := c.PosWithinClip(9.0)
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if pos != 1.0 {
		t.Fatalf("pos = %v, want 1.0 (9 mod 4)", pos)
	}
}

func TestPosWithinClipNotLoopedPastEnd(t *testing.T) {
	c := New(4.0, false, midi.ResetPolicy{})
	c.ScheduleStart(0.0, 0.0)

	if _, ok := c.PosWithinClip(5.0); ok {
		t.Fatalf("expected ok=false past non-looped clip end")
	}
}

func TestPosWithinClipCountIn(t *testing.T) {
	c := New(4.0, false, midi.ResetPolicy{})
	c.ScheduleStart(5.0, 0.0)

	if _, ok := c.PosWithinClip(2.0); ok {
		t.Fatalf("expected ok=false during count-in")
	}
}

func TestPauseAndResumeLandsOnSamePosition(t *testing.T) {
	c := New(4.0, true, midi.ResetPolicy{})
	c.ScheduleStart(0.0, 0.0)

	c.Pause(2.5) // pos_within_clip at t=2.5 is 2.5
	if c.Phase() != PhaseTransitioningToPause {
		t.Fatalf("phase = %v, want TransitioningToPause", c.Phase())
	}
	c.Process(2.5)
	if c.Phase() != PhasePaused {
		t.Fatalf("phase = %v, want Paused", c.Phase())
	}
	pos, ok := c.PosWithinClip(2.5)
	if !ok || pos != 2.5 {
		t.Fatalf("paused pos = %v, %v, want 2.5, true", pos, ok)
	}

	// Resume at t=10: pos_within_clip should still read 2.5 right away.
	c.ScheduleStart(10.0, 10.0)
	pos, ok = c.PosWithinClip(10.0)
	if !ok || pos != 2.5 {
		t.Fatalf("resumed pos = %v, %v, want 2.5, true", pos, ok)
	}
}

func TestSeekNotPaused(t *testing.T) {
	c := New(4.0, true, midi.ResetPolicy{})
	c.ScheduleStart(0.0, 0.0)
	c.Seek(1.0, 3.0) // now playing at t=3, want clip position 1.0 to read now

	pos, ok := c.PosWithinClip(3.0)
	if !ok || pos != 1.0 {
		t.Fatalf("pos after seek = %v, %v, want 1.0, true", pos, ok)
	}
}

func TestScheduleStopAtEndOfClip(t *testing.T) {
	c := New(4.0, true, midi.ResetPolicy{})
	c.ScheduleStart(0.0, 0.0)
	c.ScheduleStop(StopTarget{AtEndOfClip: true}, 5.0) // in repetition 1 (5/4=1)

	if c.Phase() != PhaseScheduledForStop {
		t.Fatalf("phase = %v, want ScheduledForStop", c.Phase())
	}
	stopAt := c.ResolveStopTarget(c.stopTarget, 5.0)
	if stopAt != 8.0 {
		t.Fatalf("stopAt = %v, want 8.0 (end of repetition 1)", stopAt)
	}
}

func TestScheduleStopDuringCountInCancels(t *testing.T) {
	c := New(4.0, false, midi.ResetPolicy{})
	c.ScheduleStart(5.0, 0.0) // count-in until t=5
	c.ScheduleStop(StopTarget{Pos: 20.0}, 1.0)
	if c.Phase() != PhaseStopped {
		t.Fatalf("phase = %v, want Stopped (cancelled during count-in)", c.Phase())
	}
}

func TestShouldBeginOutputAtBlockEnd(t *testing.T) {
	c := New(4.0, false, midi.ResetPolicy{})
	c.ScheduleStart(2.0, 0.0)

	if c.ShouldBeginOutput(1.9) {
		t.Fatalf("should not begin before scheduled start")
	}
	if !c.ShouldBeginOutput(2.0) {
		t.Fatalf("should begin exactly at scheduled start")
	}
}
