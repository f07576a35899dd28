// Package joystick drives a motor of a remote dshotd from a gamepad.
package joystick

import (
	"context"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/dshot.go/pkg/framework"
	"github.com/robotalks/dshot.go/pkg/joystick/device"
	"github.com/robotalks/dshot.go/pkg/l0/dshot"
	"github.com/robotalks/dshot.go/pkg/l1"
	"github.com/robotalks/dshot.go/pkg/l1/comm"
	"github.com/robotalks/dshot.go/pkg/l1/msgs"
)

// RetryInterval is the delay between attempts to open the joystick.
const RetryInterval = time.Second

// Opener opens a joystick, nil without error when none is present.
type Opener func(index int) (device.Device, error)

// Controller is an L2 controller translating joystick events into
// motor commands on a connected daemon.
type Controller struct {
	Config
	Conn l1.ControllerConn
	Open Opener

	throttle int
	armed    bool
}

// NewController creates a Controller.
func NewController(conf *Config, conn l1.ControllerConn) *Controller {
	return &Controller{Config: *conf, Conn: conn, Open: openDevice(conf.DeviceIndex)}
}

func openDevice(index int) Opener {
	if index < 0 {
		return func(int) (device.Device, error) { return device.DetectAndOpen(0) }
	}
	return func(int) (device.Device, error) { return device.Open(index) }
}

// AddToLoop implements LoopAdder. The controller is also started as Runnable.
func (c *Controller) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvControl, c)
}

// Run implements Runnable. It keeps a joystick opened and forwards its
// events into the loop.
func (c *Controller) Run(ctx context.Context) error {
	loopCtl := fx.LoopCtlFrom(ctx)
	retry := time.After(0)
	var eventCh chan device.Event
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-retry:
			retry = nil
			js, err := c.Open(c.DeviceIndex)
			if err != nil || js == nil {
				if err != nil {
					glog.Warningf("open joystick: %v", err)
				}
				retry = time.After(RetryInterval)
				continue
			}
			glog.Infof("joystick %d %q opened, %d axes %d buttons",
				js.Index(), js.Name(), js.AxisCount(), js.ButtonCount())
			eventCh = make(chan device.Event, 1)
			go c.poll(ctx, js, eventCh)
		case ev, ok := <-eventCh:
			if !ok {
				glog.Warning("joystick lost")
				eventCh, retry = nil, time.After(RetryInterval)
				loopCtl.PostMessage(&eventMsg{lost: true})
			} else {
				loopCtl.PostMessage(&eventMsg{event: ev})
			}
			loopCtl.TriggerNext()
		}
	}
}

func (c *Controller) poll(ctx context.Context, js device.Device, ch chan<- device.Event) {
	defer close(ch)
	defer js.Close()
	go func() {
		<-ctx.Done()
		js.Close()
	}()
	for {
		ev, err := js.ReadEvent()
		if err != nil {
			if ctx.Err() == nil {
				glog.Warningf("joystick read: %v", err)
			}
			return
		}
		if c.Verbose {
			switch e := ev.(type) {
			case device.AxisEvent:
				glog.Infof("axis %d: %d init=%v", e.Index(), e.Value(), e.IsInit())
			case device.ButtonEvent:
				glog.Infof("button %d: %v init=%v", e.Index(), e.Pressed(), e.IsInit())
			}
		}
		select {
		case ch <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// Control implements Controller.
func (c *Controller) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		if msg, ok := mctx.CurrentMessage().(*eventMsg); ok {
			mctx.MessageTaken()
			var cmd fx.Message
			if msg.lost {
				cmd = c.stop()
			} else {
				cmd = c.translate(msg.event)
			}
			if cmd != nil {
				c.send(cc.Context(), cmd)
			}
		}
	}))
	return nil
}

// translate returns the command for the event, or nil if nothing
// should be sent.
func (c *Controller) translate(ev device.Event) fx.Message {
	switch e := ev.(type) {
	case device.AxisEvent:
		if e.Index() != c.Axis {
			return nil
		}
		t := c.Throttle(e.Value())
		if t == c.throttle || !c.armed {
			c.throttle = t
			return nil
		}
		c.throttle = t
		if t == 0 {
			return msgs.NewMotorCommand(c.Motor, dshot.MotorStop{})
		}
		return msgs.NewMotorCommand(c.Motor, dshot.ClampThrottle(t))
	case device.ButtonEvent:
		if !e.Pressed() || e.IsInit() {
			return nil
		}
		switch e.Index() {
		case c.StopButton:
			return c.stop()
		case c.ArmButton:
			if c.armed {
				return nil
			}
			c.armed = true
			return &msgs.MotorArm{Motor: c.Motor}
		}
	}
	return nil
}

func (c *Controller) stop() fx.Message {
	c.armed, c.throttle = false, 0
	return msgs.NewMotorCommand(c.Motor, dshot.MotorStop{})
}

func (c *Controller) send(ctx context.Context, cmd fx.Message) {
	future := c.Conn.DoCommand(cmd)
	go func() {
		reply, err := comm.Wait(ctx, future)
		if e, ok := reply.(*msgs.CommandErr); ok {
			err = e
		}
		if err != nil {
			glog.Warningf("%T: %v", cmd, err)
		}
	}()
}

type eventMsg struct {
	event device.Event
	lost  bool
}

func (m *eventMsg) NewMessage() fx.Message { return &eventMsg{} }
