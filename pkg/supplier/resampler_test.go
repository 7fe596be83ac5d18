package supplier

import "testing"

func TestResamplerIdentityWhenRatesMatch(t *testing.T) {
	src := NewMemoryAudioSource([][]float32{{0, 1, 2, 3, 4}}, 48000)
	rs := NewResampler(src, 48000)
	dest := makeAudioBuffer(1, 3)

	resp, err := rs.SupplyAudio(AudioRequest{StartFrame: 1, DestSampleRate: 48000}, dest)
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

func TestResamplerDownsamplesToHalfRate(t *testing.T) {
	// Native 48k, destination asks for 24k worth of output: every
	// destination frame advances 2 source frames.
	src := NewMemoryAudioSource([][]float32{{0, 2, 4, 6, 8, 10, 12, 14, 16, 18, 20}}, 48000)
	rs := NewResampler(src, 48000)
	dest := makeAudioBuffer(1, 4)

	resp, err := rs.SupplyAudio(AudioRequest{StartFrame: 0, DestSampleRate: 24000}, dest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != Continue {
		t.Fatalf("status = %v, want Continue", resp.Status)
	}
	// ratio = 2, so dest[i] interpolates source at i*2.
	want := []float32{0, 4, 8, 12}
	for i, w := range want {
		if diff := dest[0][i] - w; diff > 1e-3 || diff < -1e-3 {
			t.Errorf("dest[0][%d] = %v, want %v", i, dest[0][i], w)
		}
	}
}
