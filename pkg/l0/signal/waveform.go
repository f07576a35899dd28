// Package signal generates and samples the DShot line signal.
package signal

import (
	"errors"

	"github.com/robotalks/dshot.go/pkg/l0/dshot"
)

// Level is the logic level of the line.
type Level bool

// Line levels.
const (
	Low  Level = false
	High Level = true
)

// Direction is the direction of the line.
type Direction int

// Directions.
const (
	Output Direction = iota
	Input
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	if d == Input {
		return "input"
	}
	return "output"
}

// Pulse is a run of a constant level, measured in ticks.
type Pulse struct {
	Level Level
	Ticks uint16
}

// Waveform is the pulse program of one frame.
type Waveform []Pulse

var (
	// ErrMalformedWaveform indicates a waveform which doesn't carry a frame.
	ErrMalformedWaveform = errors.New("malformed waveform")
)

// Ticks returns the total duration.
func (w Waveform) Ticks() (n int) {
	for _, p := range w {
		n += int(p.Ticks)
	}
	return
}

// Encode renders a frame MSB first. Every bit slot starts with the active
// level (the opposite of idle), and the last inactive pulse is stretched
// so that the waveform always lasts dshot.FrameTicks.
func Encode(frame dshot.Frame, idle Level) Waveform {
	active := !idle
	w := make(Waveform, 0, 2*dshot.FrameBits)
	for i := dshot.FrameBits - 1; i >= 0; i-- {
		ticks := dshot.TicksActiveZero
		if frame&(1<<uint(i)) != 0 {
			ticks = dshot.TicksActiveOne
		}
		w = append(w,
			Pulse{Level: active, Ticks: uint16(ticks)},
			Pulse{Level: idle, Ticks: uint16(dshot.TicksPerBit - ticks)})
	}
	w[len(w)-1].Ticks += dshot.FrameTicks - dshot.FrameBits*dshot.TicksPerBit
	return w
}

// Decode recovers a frame from a waveform. A bit is 1 when the active level
// lasts more than half a slot.
func Decode(w Waveform, idle Level) (dshot.Frame, error) {
	var frame dshot.Frame
	var bits, run int
	flush := func() error {
		if run == 0 {
			return nil
		}
		if run >= dshot.TicksPerBit || bits >= dshot.FrameBits {
			return ErrMalformedWaveform
		}
		frame <<= 1
		if run*2 > dshot.TicksPerBit {
			frame |= 1
		}
		bits, run = bits+1, 0
		return nil
	}
	for _, p := range w {
		if p.Level == idle {
			if err := flush(); err != nil {
				return 0, err
			}
			continue
		}
		run += int(p.Ticks)
	}
	if err := flush(); err != nil {
		return 0, err
	}
	if bits != dshot.FrameBits {
		return 0, ErrMalformedWaveform
	}
	return frame, nil
}
