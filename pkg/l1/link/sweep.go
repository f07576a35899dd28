package link

import (
	"context"
	"time"
)

// Sweep moves the throttle of a cell back and forth between Min and Max.
type Sweep struct {
	Cell   *ThrottleCell `yaml:"-"`
	Min    int           `yaml:"min"`
	Max    int           `yaml:"max"`
	Step   int           `yaml:"step"`
	Period time.Duration `yaml:"period"`

	value int
	desc  bool
	init  bool
}

// Next advances one step and returns the throttle.
func (s *Sweep) Next() int {
	step := s.Step
	if step <= 0 {
		step = 1
	}
	if !s.init || s.Max <= s.Min {
		s.value, s.desc, s.init = s.Min, false, true
		return s.value
	}
	if s.value <= s.Min {
		s.desc = false
	} else if s.value >= s.Max {
		s.desc = true
	}
	if s.desc {
		s.value -= step
	} else {
		s.value += step
	}
	if s.value < s.Min {
		s.value = s.Min
	} else if s.value > s.Max {
		s.value = s.Max
	}
	return s.value
}

// Run implements Runnable.
func (s *Sweep) Run(ctx context.Context) error {
	period := s.Period
	if period <= 0 {
		period = 200 * time.Millisecond
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	s.Cell.Store(s.Next())
	for {
		select {
		case <-ctx.Done():
			s.Cell.Store(0)
			return ctx.Err()
		case <-ticker.C:
			s.Cell.Store(s.Next())
		}
	}
}
