package supplier

import "testing"

func TestTimeStretchIdentityWhenTemposMatch(t *testing.T) {
	src := NewMemoryAudioSource([][]float32{{0, 1, 2, 3, 4}}, 48000)
	ts := NewTimeStretch(src, 120, false)
	dest := makeAudioBuffer(1, 3)

	resp, err := ts.SupplyAudio(AudioRequest{StartFrame: 1, DestSampleRate: 48000}, dest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != Continue {
		t.Fatalf("status = %v, want Continue", resp.Status)
	}
	want := []float32{1, 2, 3}
	for i, w := range want {
		if dest[0][i] != w {
			t.Errorf("dest[0][%d] = %v, want %v", i, dest[0][i], w)
		}
	}
}

func TestTimeStretchVariSpeedBypassesStretch(t *testing.T) {
	src := NewMemoryAudioSource([][]float32{{0, 1, 2, 3, 4}}, 48000)
	ts := NewTimeStretch(src, 120, true)
	ts.SetProjectTempo(240) // would normally double playback rate
	dest := makeAudioBuffer(1, 3)

	resp, err := ts.SupplyAudio(AudioRequest{StartFrame: 0, DestSampleRate: 48000}, dest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != Continue {
		t.Fatalf("status = %v, want Continue", resp.Status)
	}
	want := []float32{0, 1, 2}
	for i, w := range want {
		if dest[0][i] != w {
			t.Errorf("VariSpeed clip should pass through unstretched: dest[0][%d] = %v, want %v", i, dest[0][i], w)
		}
	}
}

func TestTimeStretchRatioReflectsTempoChange(t *testing.T) {
	ts := NewTimeStretch(nil, 120, false)
	if got := ts.ratio(); got != 1 {
		t.Fatalf("ratio at matching tempo = %v, want 1", got)
	}
	ts.SetProjectTempo(60)
	if got := ts.ratio(); got != 0.5 {
		t.Fatalf("ratio at half project tempo = %v, want 0.5", got)
	}
}
