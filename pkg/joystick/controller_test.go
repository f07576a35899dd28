package joystick

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/dshot.go/pkg/framework"
	"github.com/robotalks/dshot.go/pkg/joystick/device"
	"github.com/robotalks/dshot.go/pkg/l0/dshot"
	"github.com/robotalks/dshot.go/pkg/l1"
	"github.com/robotalks/dshot.go/pkg/l1/msgs"
)

type testConn struct {
	lock sync.Mutex
	sent []fx.Message
}

func (c *testConn) DoCommand(msg fx.Message) l1.CommandFuture {
	c.lock.Lock()
	c.sent = append(c.sent, msg)
	c.lock.Unlock()
	f := make(testFuture, 1)
	f <- l1.Result{Msg: msgs.NewCommandOK()}
	return f
}

func (c *testConn) Sent() []fx.Message {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]fx.Message(nil), c.sent...)
}

type testFuture chan l1.Result

func (f testFuture) ResultChan() <-chan l1.Result { return f }

type axis struct {
	index, value int
}

func (e axis) IsInit() bool { return false }
func (e axis) Index() int   { return e.index }
func (e axis) Value() int   { return e.value }

type button struct {
	index   int
	pressed bool
	init    bool
}

func (e button) IsInit() bool  { return e.init }
func (e button) Index() int    { return e.index }
func (e button) Pressed() bool { return e.pressed }

type testDevice struct {
	events chan device.Event
}

func (d *testDevice) Close() error     { return nil }
func (d *testDevice) Index() int       { return 0 }
func (d *testDevice) Name() string     { return "test" }
func (d *testDevice) AxisCount() int   { return 2 }
func (d *testDevice) ButtonCount() int { return 2 }

func (d *testDevice) ReadEvent() (device.Event, error) {
	ev, ok := <-d.events
	if !ok {
		return nil, io.EOF
	}
	return ev, nil
}

func TestThrottle(t *testing.T) {
	conf := &Config{Invert: true, Deadzone: 1000, MaxThrottle: 1000}
	testCases := []struct {
		val    int
		expect int
	}{
		{0, 0},
		{32767, 0},
		{-1000, 0},
		{-1001, 1},
		{-32767, 1000},
		{-32768, 1000},
	}
	for _, tc := range testCases {
		require.Equalf(t, tc.expect, conf.Throttle(tc.val), "axis %d", tc.val)
	}
	mid := conf.Throttle(-(1000 + (32767-1000)/2))
	require.InDelta(t, 500, mid, 2)

	plain := &Config{MaxThrottle: 100}
	require.Equal(t, 100, plain.Throttle(32767))
	require.Equal(t, 0, plain.Throttle(-32767))
}

func commandOf(t *testing.T, msg fx.Message) dshot.Command {
	mc, ok := msg.(*msgs.MotorCommand)
	require.Truef(t, ok, "unexpected %T", msg)
	require.Equal(t, "m1", mc.Motor)
	cmd, err := mc.Command()
	require.NoError(t, err)
	return cmd
}

func TestTranslate(t *testing.T) {
	conf := NewConfig()
	conf.Motor, conf.Invert, conf.Deadzone, conf.MaxThrottle = "m1", false, 0, 2000
	c := NewController(conf, &testConn{})

	require.Nil(t, c.translate(axis{index: conf.Axis, value: 16000}), "throttle ignored before arm")
	require.Nil(t, c.translate(button{index: conf.ArmButton, pressed: true, init: true}))
	require.Nil(t, c.translate(button{index: conf.ArmButton}))

	arm, ok := c.translate(button{index: conf.ArmButton, pressed: true}).(*msgs.MotorArm)
	require.True(t, ok)
	require.Equal(t, "m1", arm.Motor)
	require.Nil(t, c.translate(button{index: conf.ArmButton, pressed: true}), "already armed")

	require.Nil(t, c.translate(axis{index: conf.Axis, value: 16000}), "unchanged throttle")
	require.Nil(t, c.translate(axis{index: conf.Axis + 1, value: 32767}), "other axis")
	require.Equal(t, dshot.Throttle(1999), commandOf(t, c.translate(axis{index: conf.Axis, value: 32767})))
	require.Equal(t, dshot.MotorStop{}, commandOf(t, c.translate(axis{index: conf.Axis, value: 0})))

	require.Equal(t, dshot.MotorStop{}, commandOf(t, c.translate(button{index: conf.StopButton, pressed: true})))
	require.False(t, c.armed)
	require.Nil(t, c.translate(axis{index: conf.Axis, value: 32767}))
}

func TestControllerLoop(t *testing.T) {
	conf := NewConfig()
	conf.Motor, conf.Invert, conf.Deadzone, conf.MaxThrottle = "m1", false, 0, 1000
	conn := &testConn{}
	dev := &testDevice{events: make(chan device.Event)}
	opened := 0
	ctl := NewController(conf, conn)
	ctl.Open = func(int) (device.Device, error) {
		opened++
		if opened == 1 {
			return nil, errors.New("busy")
		}
		return dev, nil
	}

	loop := &fx.Loop{Interval: time.Millisecond}
	loop.Add(ctl)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	dev.events <- button{index: conf.ArmButton, pressed: true}
	dev.events <- axis{index: conf.Axis, value: 32767}
	close(dev.events)

	require.Eventually(t, func() bool { return len(conn.Sent()) >= 3 }, 5*time.Second, time.Millisecond)
	sent := conn.Sent()
	require.IsType(t, &msgs.MotorArm{}, sent[0])
	require.Equal(t, dshot.Throttle(1000), commandOf(t, sent[1]))
	require.Equal(t, dshot.MotorStop{}, commandOf(t, sent[2]), "stopped when the joystick is lost")
}
