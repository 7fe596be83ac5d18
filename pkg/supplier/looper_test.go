package supplier

import "testing"

func TestLooperWrapsAtBoundary(t *testing.T) {
	src := NewMemoryAudioSource([][]float32{{0, 1, 2, 3}}, 48000)
	loop := NewLooper(src, 4, true)
	dest := makeAudioBuffer(1, 4)

	resp, err := loop.SupplyAudio(AudioRequest{StartFrame: 2, DestSampleRate: 48000}, dest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != Continue {
		t.Fatalf("status = %v, want Continue", resp.Status)
	}
	want := []float32{2, 3, 0, 1}
	for i, w := range want {
		if dest[0][i] != w {
			t.Errorf("dest[0][%d] = %v, want %v", i, dest[0][i], w)
		}
	}
}

func TestLooperNotLoopedReachesEnd(t *testing.T) {
	src := NewMemoryAudioSource([][]float32{{0, 1, 2, 3}}, 48000)
	loop := NewLooper(src, 4, false)
	dest := makeAudioBuffer(1, 4)

	resp, err := loop.SupplyAudio(AudioRequest{StartFrame: 2, DestSampleRate: 48000}, dest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != ReachedEnd {
		t.Fatalf("status = %v, want ReachedEnd", resp.Status)
	}
	if resp.NumFramesWritten != 2 {
		t.Fatalf("NumFramesWritten = %d, want 2", resp.NumFramesWritten)
	}
}

func TestLooperTranslatePosition(t *testing.T) {
	src := NewMemoryAudioSource([][]float32{{0, 1, 2, 3}}, 48000)
	loop := NewLooper(src, 4, true)
	if got := loop.TranslatePlayPosToSourcePos(9); got != 1 {
		t.Fatalf("TranslatePlayPosToSourcePos(9) = %d, want 1 (9 mod 4 = 1)", got)
	}
}
