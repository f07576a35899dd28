// Package esc simulates an ESC at the signal level. It implements
// signal.Line by decoding emitted waveforms back into frames.
package esc

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/dshot.go/pkg/l0/dshot"
	"github.com/robotalks/dshot.go/pkg/l0/signal"
)

// Defaults
const (
	DefaultArmFrames = 10
	DefaultTimeout   = 250 * time.Millisecond
)

var (
	// ErrWrongDirection indicates the line is used against its direction.
	ErrWrongDirection = errors.New("wrong line direction")
)

// Config defines the simulated firmware.
type Config struct {
	// ArmFrames is the number of consecutive MotorStop frames to arm.
	ArmFrames int `yaml:"arm-frames"`
	// Timeout disarms the ESC when no valid frame arrives in time,
	// 0 disables the watchdog.
	Timeout time.Duration `yaml:"timeout"`
	// Reply is answered to each capture, nil keeps the line silent.
	Reply []uint8 `yaml:"reply"`
	// Realtime makes Emit take as long as the frame on the wire.
	Realtime bool       `yaml:"realtime"`
	Rate     dshot.Rate `yaml:"rate"`
}

// State is a snapshot of the simulated firmware.
type State struct {
	Armed       bool
	Throttle    dshot.Throttle
	Reversed    bool
	Telemetry   bool
	Beeps       int
	Infos       int
	Leds        [dshot.LedMax + 1]bool
	Frames      uint64
	Malformed   uint64
	BadChecksum uint64
	Disarms     uint64
	Last        dshot.Frame
}

// ESC is a simulated ESC.
type ESC struct {
	Config Config
	// Now is the clock of the watchdog.
	Now func() time.Time

	lock      sync.Mutex
	dir       signal.Direction
	idle      signal.Level
	state     State
	stops     int
	lastValid time.Time
	pending   bool
}

// New creates an ESC.
func New(conf Config) *ESC {
	if conf.ArmFrames <= 0 {
		conf.ArmFrames = DefaultArmFrames
	}
	if !conf.Rate.IsValid() {
		conf.Rate = dshot.DefaultRate
	}
	return &ESC{Config: conf, Now: time.Now}
}

// SetReply changes the reply, nil silences the ESC.
func (e *ESC) SetReply(nibbles []uint8) {
	e.lock.Lock()
	if nibbles == nil {
		e.Config.Reply = nil
	} else {
		e.Config.Reply = append([]uint8(nil), nibbles...)
	}
	e.lock.Unlock()
}

// State returns the current state.
func (e *ESC) State() State {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.watchdog(e.Now())
	return e.state
}

// SetDirection implements signal.Line.
func (e *ESC) SetDirection(dir signal.Direction, idle signal.Level) error {
	e.lock.Lock()
	e.dir, e.idle = dir, idle
	e.lock.Unlock()
	return nil
}

// Emit implements signal.Line.
func (e *ESC) Emit(ctx context.Context, w signal.Waveform) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.Config.Realtime {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.Config.Rate.Duration(w.Ticks())):
		}
	}
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.dir != signal.Output {
		return ErrWrongDirection
	}
	frame, err := signal.Decode(w, e.idle)
	if err != nil {
		e.state.Malformed++
		return nil
	}
	// bidirectional lines idle high and use the inverted checksum.
	if !frame.Valid(bool(e.idle)) {
		e.state.BadChecksum++
		glog.V(4).Infof("sim esc: bad checksum %04x", uint16(frame))
		return nil
	}
	e.receive(frame)
	return nil
}

// Capture implements signal.Line.
func (e *ESC) Capture(ctx context.Context, spec signal.CaptureSpec) ([]uint8, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.lock.Lock()
	defer e.lock.Unlock()
	if e.dir != signal.Input {
		return nil, ErrWrongDirection
	}
	pending := e.pending
	e.pending = false
	if !pending || e.Config.Reply == nil {
		return nil, signal.ErrNoResponse
	}
	reply := e.Config.Reply
	if len(reply) > spec.Groups {
		reply = reply[:spec.Groups]
	}
	return append([]uint8(nil), reply...), nil
}

func (e *ESC) watchdog(now time.Time) {
	if e.state.Armed && e.Config.Timeout > 0 && now.Sub(e.lastValid) > e.Config.Timeout {
		e.state.Armed = false
		e.state.Throttle = 0
		e.state.Disarms++
		e.stops = 0
		glog.V(2).Info("sim esc: command timeout, disarmed")
	}
}

func (e *ESC) receive(frame dshot.Frame) {
	now := e.Now()
	e.watchdog(now)
	e.lastValid = now
	e.pending = true
	e.state.Frames++
	e.state.Last = frame

	code := frame.Code()
	switch {
	case code == dshot.CodeMotorStop:
		e.state.Throttle = 0
		if !e.state.Armed {
			e.stops++
			if e.stops >= e.Config.ArmFrames {
				e.state.Armed = true
				glog.V(2).Info("sim esc: armed")
			}
		}
	case code >= dshot.CodeThrottleBase:
		if e.state.Armed {
			e.state.Throttle = dshot.Throttle(code - dshot.CodeThrottleBase)
		} else {
			e.stops = 0
		}
	case !frame.Telemetry():
		// special commands are ignored without the telemetry bit.
	case code >= dshot.BeepMin && code <= dshot.BeepMax:
		e.state.Beeps++
	case code == dshot.CodeEscInfo:
		e.state.Infos++
	case code == dshot.CodeExtTelemetryOn, code == dshot.CodeExtTelemetryOff:
		e.state.Telemetry = code == dshot.CodeExtTelemetryOn
	case code == dshot.CodeNormal, code == dshot.CodeReversed:
		e.state.Reversed = code == dshot.CodeReversed
	case code >= dshot.CodeLedOnBase && code < dshot.CodeLedOffBase:
		e.state.Leds[code-dshot.CodeLedOnBase] = true
	case code >= dshot.CodeLedOffBase && code <= dshot.CodeLedOffBase+dshot.LedMax:
		e.state.Leds[code-dshot.CodeLedOffBase] = false
	}
}
