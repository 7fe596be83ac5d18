package host

import (
	"math"

	"github.com/justyntemme/clipgrid/pkg/dsp/analysis"
)

// masterBus is the final stage a mixed block passes through before
// reaching the host: a per-channel peak meter gives a live-performance
// UI something to draw a level bar from. It reads the mix without
// altering it, so it never disturbs what the host actually hears.
type masterBus struct {
	sampleRate float64
	peaks      []*analysis.PeakMeter
	scratch    []float64
}

// ensure (re)builds the meters when the channel count or sample rate
// changes, which happens at most once per run.
func (b *masterBus) ensure(channels int, sampleRate float64) {
	if len(b.peaks) == channels && b.sampleRate == sampleRate {
		return
	}
	b.sampleRate = sampleRate
	b.peaks = make([]*analysis.PeakMeter, channels)
	for i := range b.peaks {
		b.peaks[i] = analysis.NewPeakMeter(sampleRate)
	}
}

// process updates each channel's peak meter from the mixed block.
func (b *masterBus) process(buffers [][]float32) {
	if len(buffers) == 0 {
		return
	}
	for ch, buf := range buffers {
		if ch >= len(b.peaks) {
			continue
		}
		if cap(b.scratch) < len(buf) {
			b.scratch = make([]float64, len(buf))
		}
		b.scratch = b.scratch[:len(buf)]
		for i, v := range buf {
			b.scratch[i] = float64(v)
		}
		b.peaks[ch].Process(b.scratch)
	}
}

// PeakDB returns channel's current peak level in decibels, or -Inf if
// no block covering that channel has been processed yet.
func (b *masterBus) PeakDB(channel int) float64 {
	if channel < 0 || channel >= len(b.peaks) {
		return math.Inf(-1)
	}
	return b.peaks[channel].GetPeakDB()
}
