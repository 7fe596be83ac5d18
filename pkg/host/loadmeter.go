package host

import (
	"sync/atomic"
	"time"
)

// loadMeter tracks how much of a block's real-time budget GetSamples
// actually spends mixing, the live-performance equivalent of a DAW's
// CPU meter: a value approaching or exceeding 1.0 means the engine is
// at risk of an audio dropout on the next block.
type loadMeter struct {
	budget      atomic.Int64 // block duration in nanoseconds
	lastElapsed atomic.Int64 // nanoseconds
}

// setBudget records the real-time duration of a block at the given
// sample rate and frame count. Called once per GetSamples, since a
// host can change block size or sample rate between calls.
func (m *loadMeter) setBudget(sampleRate float64, frameCount int) {
	if sampleRate <= 0 {
		return
	}
	m.budget.Store(int64(float64(frameCount) / sampleRate * float64(time.Second)))
}

// measure times fn and records it as the last block's elapsed mix time.
func (m *loadMeter) measure(fn func()) {
	start := time.Now()
	fn()
	m.lastElapsed.Store(int64(time.Since(start)))
}

// Load returns the most recently measured block's mix time as a
// fraction of its real-time budget. 1.0 means the mix took exactly as
// long as the block's playback duration; anything >= 1.0 means this
// engine can no longer keep up in real time.
func (m *loadMeter) Load() float64 {
	budget := m.budget.Load()
	if budget <= 0 {
		return 0
	}
	return float64(m.lastElapsed.Load()) / float64(budget)
}
