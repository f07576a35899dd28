package link

import (
	"math"
	"sync/atomic"

	"github.com/robotalks/dshot.go/pkg/l0/dshot"
)

// ThrottleCell carries the commanded throttle from a producer (e.g. a
// sampler) to the link. Last write wins.
type ThrottleCell struct {
	value uint32
}

// Store sets the throttle, clamped to the valid range.
func (c *ThrottleCell) Store(t int) {
	atomic.StoreUint32(&c.value, uint32(dshot.ClampThrottle(t)))
}

// Load gets the latest throttle.
func (c *ThrottleCell) Load() dshot.Throttle {
	return dshot.Throttle(atomic.LoadUint32(&c.value))
}

// Smoother applies exponential smoothing to successive reads. Alpha is the
// weight of the new sample, 1 passes values through.
type Smoother struct {
	Alpha float64

	value float64
	init  bool
}

// Next feeds a sample and returns the smoothed throttle.
func (s *Smoother) Next(t dshot.Throttle) dshot.Throttle {
	alpha := s.Alpha
	if alpha <= 0 || alpha > 1 {
		alpha = 1
	}
	if !s.init {
		s.value, s.init = float64(t), true
	} else {
		s.value += alpha * (float64(t) - s.value)
	}
	return dshot.ClampThrottle(int(math.Round(s.value)))
}

// Reset forgets the history, the next sample is taken as is.
func (s *Smoother) Reset() {
	s.value, s.init = 0, false
}
