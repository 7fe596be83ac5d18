package host

import (
	"fmt"
	"math"

	"github.com/justyntemme/clipgrid/pkg/enginelog"
)

// clipThreshold is the sample magnitude above which mixed output is
// considered clipping.
const clipThreshold = 1.0

// outputSanity scans a mixed block for NaN and out-of-range samples,
// the two failure modes a bad supplier or a runaway gain ramp can
// produce. The scan itself is a plain loop with no allocation; a
// logger is only touched on the rare block that actually has a
// problem, through a pair of [enginelog.Limiter]s so a stuck source
// can't flood the log every block.
type outputSanity struct {
	nan  *enginelog.Limiter
	clip *enginelog.Limiter
}

func newOutputSanity(log *enginelog.Logger) *outputSanity {
	return &outputSanity{
		nan:  enginelog.NewLimiter(log, "mixed output contains NaN", 1),
		clip: enginelog.NewLimiter(log, "mixed output clipping", 200),
	}
}

// check reports any NaN or clipping sample found in buffers. It never
// allocates on the clean path.
func (s *outputSanity) check(buffers [][]float32) {
	for ch, buf := range buffers {
		for i, v := range buf {
			if math.IsNaN(float64(v)) {
				s.nan.Hit(fmt.Sprintf("channel %d frame %d", ch, i))
				continue
			}
			abs := v
			if abs < 0 {
				abs = -abs
			}
			if abs > clipThreshold {
				s.clip.Hit(fmt.Sprintf("channel %d frame %d = %.3f", ch, i, v))
			}
		}
	}
}
