package timeline

import "testing"

func TestEvenQuantizationValidate(t *testing.T) {
	cases := []struct {
		name string
		q    EvenQuantization
		want bool
	}{
		{"one bar", Bars(1), true},
		{"four bars", Bars(4), true},
		{"eighth of a bar", FractionOfBar(8), true},
		{"both greater than one", EvenQuantization{Numerator: 2, Denominator: 2}, false},
		{"zero numerator", EvenQuantization{Numerator: 0, Denominator: 1}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.q.Validate(); got != c.want {
				t.Errorf("Validate() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestFixedNextQuantizedPos(t *testing.T) {
	// 120 BPM, 4/4 -> 1 bar = 2 seconds.
	tl := NewFixed(120, TimeSignature{Numerator: 4, Denominator: 4})

	got := tl.NextQuantizedPos(0.1, Bars(1))
	want := 2.0
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("NextQuantizedPos(0.1, 1 bar) = %v, want %v", got, want)
	}

	// Exactly on the boundary should return the same boundary, not the next one.
	got = tl.NextQuantizedPos(2.0, Bars(1))
	if diff := got - 2.0; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("NextQuantizedPos(2.0, 1 bar) = %v, want 2.0", got)
	}
}

func TestFixedAdvanceAndCursor(t *testing.T) {
	tl := NewFixed(120, TimeSignature{Numerator: 4, Denominator: 4})
	tl.Advance(1.0)
	tl.Advance(0.5)
	if got := tl.CursorPos(); got != 1.5 {
		t.Errorf("CursorPos() = %v, want 1.5", got)
	}

	tl.Advance(-1.0) // negative advances are rejected
	if got := tl.CursorPos(); got != 1.5 {
		t.Errorf("CursorPos() after negative Advance = %v, want 1.5", got)
	}
}

func TestFixedBeatsAt(t *testing.T) {
	tl := NewFixed(120, TimeSignature{Numerator: 4, Denominator: 4})
	// 120 BPM -> 0.5s per beat -> 2s is 4 beats.
	if got := tl.BeatsAt(2.0); got != 4.0 {
		t.Errorf("BeatsAt(2.0) = %v, want 4.0", got)
	}
}
