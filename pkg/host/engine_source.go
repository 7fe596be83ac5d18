package host

import (
	"math"

	"github.com/justyntemme/clipgrid/pkg/enginelog"
	"github.com/justyntemme/clipgrid/pkg/matrix"
	"github.com/justyntemme/clipgrid/pkg/supplier"
	"github.com/justyntemme/clipgrid/pkg/timeline"
)

// EngineSource is the concrete [Source] a host binding layer actually
// drives: it advances the matrix's command/event bridges and asks
// every column to mix its slots into a shared per-channel scratch
// buffer, which it then adds into block.Output so columns share one
// output bus the way independent tracks feed a single mixer.
type EngineSource struct {
	Matrix   *matrix.Matrix
	Timeline timeline.Timeline

	scratch supplier.AudioBuffer
	sanity  *outputSanity
	load    loadMeter
	master  masterBus
}

// NewEngineSource wires a matrix façade and the timeline it reads
// transport state from into one pullable source. Mixed output is
// sanity-checked and CPU-load-metered through the package logger.
func NewEngineSource(m *matrix.Matrix, tl timeline.Timeline) *EngineSource {
	return &EngineSource{Matrix: m, Timeline: tl, sanity: newOutputSanity(enginelog.Default)}
}

// Load reports the most recent block's mix time as a fraction of its
// real-time budget; see [loadMeter].
func (e *EngineSource) Load() float64 { return e.load.Load() }

// PeakDB reports channel's current post-mix peak level in decibels,
// for a live-performance level meter.
func (e *EngineSource) PeakDB(channel int) float64 { return e.master.PeakDB(channel) }

func (e *EngineSource) ensureScratch(channels, frames int) {
	if len(e.scratch) != channels {
		e.scratch = make(supplier.AudioBuffer, channels)
	}
	for i := range e.scratch {
		if cap(e.scratch[i]) < frames {
			e.scratch[i] = make([]float32, frames)
		} else {
			e.scratch[i] = e.scratch[i][:frames]
		}
	}
}

// GetSamples implements [Source]: drains any pending matrix command,
// then has every column process and additively mixes each into
// block.Output.
func (e *EngineSource) GetSamples(block *Block) error {
	e.load.setBudget(block.SampleRate, block.FrameCount)

	var err error
	e.load.measure(func() {
		e.Matrix.DrainCommands()

		for _, row := range block.Output {
			for i := range row {
				row[i] = 0
			}
		}

		e.ensureScratch(block.ChannelCount, block.FrameCount)
		for _, h := range e.Matrix.Columns() {
			for i := range e.scratch {
				clear(e.scratch[i])
			}
			if procErr := h.Column.Process(block.TimeSeconds, block.SampleRate, e.scratch, block.MidiOut, e.Timeline); procErr != nil {
				continue
			}
			for ch := range block.Output {
				if ch >= len(e.scratch) {
					continue
				}
				dst := block.Output[ch]
				src := e.scratch[ch]
				n := len(dst)
				if len(src) < n {
					n = len(src)
				}
				for i := 0; i < n; i++ {
					dst[i] += src[i]
				}
			}
		}
	})

	e.master.ensure(block.ChannelCount, block.SampleRate)
	e.master.process(block.Output)
	e.sanity.check(block.Output)
	return err
}

// GetLength reports the engine as having no fixed end.
func (e *EngineSource) GetLength() float64 { return math.Inf(1) }
