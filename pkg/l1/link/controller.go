// Package link drives one ESC: arming, command cadence and telemetry.
package link

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/dshot.go/pkg/l0/dshot"
	"github.com/robotalks/dshot.go/pkg/l0/signal"
	"github.com/robotalks/dshot.go/pkg/l1/telemetry"
)

var (
	// ErrNotArmed indicates an active command before the arm handshake.
	ErrNotArmed = errors.New("not armed")
	// ErrNotConfigured indicates the link has not been configured.
	ErrNotConfigured = errors.New("not configured")
	// ErrAlreadyConfigured is returned by a repeated Configure.
	ErrAlreadyConfigured = errors.New("already configured")
	// ErrArming indicates a command which would break the arming run.
	ErrArming = errors.New("arming in progress")
)

// stallWarnEvery rate-limits the warning of consecutive stalls.
const stallWarnEvery = 100

// Stats are the link counters.
type Stats struct {
	Frames    uint64
	Stalls    uint64
	Telemetry telemetry.Stats
}

// Controller drives a single line.
type Controller struct {
	Config   Config
	Engine   *signal.Engine
	Receiver telemetry.Receiver
	Consumer telemetry.Consumer
	// Cell, when attached, is the throttle source of Tick.
	Cell *ThrottleCell

	lock     sync.Mutex
	state    LinkState
	arming   bool
	steady   dshot.Command
	smoother Smoother
	frames   uint64
	seq      uint64
	streak   int
}

// New creates a Controller on a line.
func New(conf Config, line signal.Line) (*Controller, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		Config: conf,
		Engine: signal.NewEngine(line, conf.Rate, conf.Bidirectional),
		steady: dshot.MotorStop{},
	}
	c.smoother.Alpha = conf.Smoothing
	return c, nil
}

// Name implements Named.
func (c *Controller) Name() string {
	return c.Config.Name
}

// State returns the current state.
func (c *Controller) State() LinkState {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.state
}

// Stats returns the counters.
func (c *Controller) Stats() Stats {
	c.lock.Lock()
	defer c.lock.Unlock()
	return Stats{
		Frames:    c.frames,
		Stalls:    c.Engine.Stalls(),
		Telemetry: c.Receiver.Stats(),
	}
}

// Steady returns the command repeated by Tick.
func (c *Controller) Steady() dshot.Command {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.steady
}

// Attach makes cell the throttle source of Tick, nil detaches.
func (c *Controller) Attach(cell *ThrottleCell) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.Cell = cell
	c.smoother.Reset()
}

// Attached returns the throttle source of Tick.
func (c *Controller) Attached() *ThrottleCell {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.Cell
}

// Configure sets up the line and optionally enables extended telemetry.
// A failed Configure leaves the link Uninitialized, to be configured again.
func (c *Controller) Configure(ctx context.Context) (err error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.state != Uninitialized {
		return ErrAlreadyConfigured
	}
	c.state = Configuring
	defer func() {
		if err != nil {
			c.state = Uninitialized
		}
	}()
	if err := c.Engine.Setup(); err != nil {
		return fmt.Errorf("setup %s: %w", c.Name(), err)
	}
	if c.Config.ExtendedTelemetry {
		if _, err := c.send(ctx, dshot.ExtendedTelemetry{Enabled: true}); err != nil {
			return err
		}
	}
	return nil
}

// Arm runs the arm handshake. It may be repeated to re-arm an ESC which
// disarmed itself, active commands are rejected meanwhile.
func (c *Controller) Arm(ctx context.Context) error {
	c.lock.Lock()
	if c.state == Uninitialized {
		c.lock.Unlock()
		return ErrNotConfigured
	}
	c.state = Configuring
	c.arming = true
	c.steady = dshot.MotorStop{}
	c.smoother.Reset()
	c.lock.Unlock()
	defer func() {
		c.lock.Lock()
		c.arming = false
		c.lock.Unlock()
	}()

	glog.Infof("%s: arming, %d frames", c.Name(), c.Config.ArmFrames)
	if err := c.burst(ctx, dshot.MotorStop{}, c.Config.ArmFrames); err != nil {
		return err
	}
	if t := c.Config.ArmTrailer; t != nil && t.Frames > 0 {
		cmd, err := t.Command()
		if err != nil {
			return err
		}
		if err := c.burst(ctx, cmd, t.Frames); err != nil {
			return err
		}
	}

	c.lock.Lock()
	c.state = Idle
	c.lock.Unlock()
	glog.Infof("%s: armed", c.Name())
	return nil
}

func (c *Controller) burst(ctx context.Context, cmd dshot.Command, frames int) error {
	var ticker *time.Ticker
	if c.Config.ArmInterval > 0 {
		ticker = time.NewTicker(c.Config.ArmInterval)
		defer ticker.Stop()
	}
	for n := 0; n < frames; n++ {
		if n > 0 && ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		c.lock.Lock()
		_, err := c.send(ctx, cmd)
		c.lock.Unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

// Send transmits a command. On bidirectional links the returned report
// carries the reply, which may be absent.
func (c *Controller) Send(ctx context.Context, cmd dshot.Command) (telemetry.Report, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	switch c.state {
	case Uninitialized:
		return telemetry.Report{}, ErrNotConfigured
	case Configuring:
		switch cmd.(type) {
		case dshot.MotorStop:
		case dshot.ExtendedTelemetry:
			if c.arming {
				return telemetry.Report{}, ErrArming
			}
		default:
			return telemetry.Report{}, ErrNotArmed
		}
	}
	report, err := c.send(ctx, cmd)
	if err != nil {
		return report, err
	}
	switch cmd := cmd.(type) {
	case dshot.MotorStop:
		c.steady = cmd
		c.smoother.Reset()
	case dshot.Throttle:
		c.steady = cmd
	}
	return report, nil
}

// Throttle sends a throttle command.
func (c *Controller) Throttle(ctx context.Context, t dshot.Throttle) (telemetry.Report, error) {
	return c.Send(ctx, t)
}

// Stop sends MotorStop.
func (c *Controller) Stop(ctx context.Context) (telemetry.Report, error) {
	return c.Send(ctx, dshot.MotorStop{})
}

// Beep sends a beep command.
func (c *Controller) Beep(ctx context.Context, count uint8) (telemetry.Report, error) {
	return c.Send(ctx, dshot.Beep{Count: count})
}

// Reverse sets the spin direction.
func (c *Controller) Reverse(ctx context.Context, reversed bool) (telemetry.Report, error) {
	return c.Send(ctx, dshot.Reverse(reversed))
}

// Led switches an ESC LED.
func (c *Controller) Led(ctx context.Context, id uint8, on bool) (telemetry.Report, error) {
	return c.Send(ctx, dshot.Led{ID: id, Enabled: on})
}

// EscInfo requests ESC information.
func (c *Controller) EscInfo(ctx context.Context) (telemetry.Report, error) {
	return c.Send(ctx, dshot.EscInfo{})
}

// EnableTelemetry switches extended telemetry.
func (c *Controller) EnableTelemetry(ctx context.Context, enabled bool) (telemetry.Report, error) {
	return c.Send(ctx, dshot.ExtendedTelemetry{Enabled: enabled})
}

// Tick drives the cadence: the smoothed throttle of the attached cell, or
// the last steady command. It does nothing unless armed.
func (c *Controller) Tick(ctx context.Context) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if !c.state.Armed() {
		return nil
	}
	cmd := c.steady
	if c.Cell != nil {
		cmd = c.smoother.Next(c.Cell.Load())
	}
	_, err := c.send(ctx, cmd)
	return err
}

// Run configures and arms the link, then keeps the cadence until ctx is
// done. The final frame stops the motor.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.Configure(ctx); err != nil && err != ErrAlreadyConfigured {
		return err
	}
	if err := c.Arm(ctx); err != nil {
		return err
	}
	interval := c.Config.KeepAlive
	if interval <= 0 {
		interval = DefaultKeepAlive
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.Stop(context.Background())
			return ctx.Err()
		case <-ticker.C:
			if err := c.Tick(ctx); err != nil {
				glog.Errorf("%s: %v", c.Name(), err)
			}
		}
	}
}

// send encodes and transmits a command, then collects the reply on
// bidirectional links. The lock must be held.
func (c *Controller) send(ctx context.Context, cmd dshot.Command) (report telemetry.Report, err error) {
	code, err := dshot.Encode(cmd)
	if err != nil {
		return report, err
	}
	frame := dshot.Build(code, c.Config.Bidirectional || code.IsSpecial(), c.Config.InvertedChecksum)
	if err = c.Engine.Transmit(ctx, frame); err != nil {
		return report, fmt.Errorf("transmit %v: %w", cmd, err)
	}
	c.frames++
	if c.state.Armed() {
		if code > dshot.CodeThrottleBase {
			c.state = Streaming
		} else if code == dshot.CodeMotorStop || code == dshot.CodeThrottleBase {
			c.state = Idle
		}
	}
	if !c.Config.Bidirectional {
		report.State = c.state.String()
		return report, nil
	}

	c.seq++
	report.Motor, report.Seq = c.Name(), c.seq
	nibbles, ok, rerr := c.Engine.Receive(ctx)
	if ok {
		report.Frame, report.Present = c.Receiver.Assemble(nibbles)
	} else {
		c.Receiver.Missed()
	}
	if report.Present {
		c.streak = 0
		report.State = c.state.String()
	} else {
		c.stalled()
		report.State = Stalled.String()
	}
	if c.Consumer != nil {
		c.Consumer.ConsumeTelemetry(report)
	}
	if rerr != nil {
		return report, fmt.Errorf("receive: %w", rerr)
	}
	return report, nil
}

// stalled settles an armed link at Idle, Stalled is only reported.
func (c *Controller) stalled() {
	c.streak++
	if c.streak%stallWarnEvery == 0 {
		glog.Warningf("%s: %d consecutive frames without telemetry", c.Name(), c.streak)
	}
	if c.state.Armed() {
		c.state = Idle
	}
}
