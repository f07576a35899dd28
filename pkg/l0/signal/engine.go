package signal

import (
	"context"
	"errors"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/dshot.go/pkg/l0/dshot"
)

// EngineState is the position of the engine in its program.
type EngineState int

// Engine states.
const (
	// EngineTransmit is the entry point, ready to send a frame.
	EngineTransmit EngineState = iota
	// EngineTurnaround means the line is being switched to input.
	EngineTurnaround
	// EngineReceive means a reply is being sampled.
	EngineReceive
)

// DefaultSlack is added to the wall clock bound of a receive, covering
// scheduling and transport latency of the Line.
const DefaultSlack = 10 * time.Millisecond

// Engine drives a Line under the DShot timing contract.
// It's not safe for concurrent use, the owner serializes calls.
type Engine struct {
	Line          Line
	Rate          dshot.Rate
	Bidirectional bool
	Capture       CaptureSpec
	Slack         time.Duration

	state  EngineState
	stalls uint64
}

// NewEngine creates an Engine with the default capture spec.
func NewEngine(line Line, rate dshot.Rate, bidirectional bool) *Engine {
	return &Engine{
		Line:          line,
		Rate:          rate,
		Bidirectional: bidirectional,
		Capture:       DefaultCaptureSpec(),
		Slack:         DefaultSlack,
	}
}

// State returns the current state.
func (e *Engine) State() EngineState {
	return e.state
}

// Stalls returns the number of receives which timed out.
func (e *Engine) Stalls() uint64 {
	return e.stalls
}

// Idle is the idle level, high on bidirectional lines.
func (e *Engine) Idle() Level {
	return Level(e.Bidirectional)
}

// Setup puts the line into output mode at idle level.
func (e *Engine) Setup() error {
	e.state = EngineTransmit
	return e.Line.SetDirection(Output, e.Idle())
}

// Transmit emits a frame.
func (e *Engine) Transmit(ctx context.Context, frame dshot.Frame) error {
	if e.state != EngineTransmit {
		if err := e.resync(); err != nil {
			return err
		}
	}
	if glog.V(4) {
		glog.Infof("TX %04x", uint16(frame))
	}
	return e.Line.Emit(ctx, Encode(frame, e.Idle()))
}

// Receive samples the reply of the previous frame. A reply which doesn't
// arrive is not an error: the engine resynchronizes and reports false.
func (e *Engine) Receive(ctx context.Context) ([]uint8, bool, error) {
	if !e.Bidirectional {
		return nil, false, ErrNotBidirectional
	}
	e.state = EngineTurnaround
	if err := e.Line.SetDirection(Input, e.Idle()); err != nil {
		e.resyncAfter(err)
		return nil, false, err
	}
	e.state = EngineReceive
	bound := e.Rate.Duration(e.Capture.Ticks()) + e.Slack
	captureCtx, cancel := context.WithTimeout(ctx, bound)
	nibbles, err := e.Line.Capture(captureCtx, e.Capture)
	cancel()
	if err == nil && len(nibbles) == 0 {
		err = ErrNoResponse
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		err = ErrNoResponse
	}
	if err != nil {
		if errors.Is(err, ErrNoResponse) {
			e.stalls++
			glog.V(2).Infof("stall, resynced (%d total)", e.stalls)
			return nil, false, e.resync()
		}
		e.resyncAfter(err)
		return nil, false, err
	}
	// the capture stands even if the line fails to switch back, the next
	// Transmit reasserts the output.
	e.state = EngineTransmit
	if err := e.Line.SetDirection(Output, e.Idle()); err != nil {
		e.state = EngineTurnaround
		return nibbles, true, err
	}
	return nibbles, true, nil
}

// resyncAfter resyncs after a failed receive, which takes precedence over
// a resync failure.
func (e *Engine) resyncAfter(cause error) {
	if err := e.resync(); err != nil {
		glog.Warningf("resync after %v: %v", cause, err)
	}
}

// resync forces the engine back to its transmit entry point and reasserts
// the output direction.
func (e *Engine) resync() error {
	e.state = EngineTransmit
	return e.Line.SetDirection(Output, e.Idle())
}
