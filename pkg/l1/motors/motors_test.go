package motors

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/dshot.go/pkg/framework"
	"github.com/robotalks/dshot.go/pkg/l0/dshot"
	"github.com/robotalks/dshot.go/pkg/l1"
	"github.com/robotalks/dshot.go/pkg/l1/link"
	"github.com/robotalks/dshot.go/pkg/l1/msgs"
	"github.com/robotalks/dshot.go/pkg/sim/esc"
)

type testCommand struct {
	msg  fx.Message
	done chan fx.Message
}

func (c *testCommand) Msg() fx.Message { return c.msg }

func (c *testCommand) Done(msg fx.Message) error {
	c.done <- msg
	return nil
}

type testRegistrar struct {
	events chan fx.Message
}

func (r *testRegistrar) SendEvent(ctx context.Context, msg fx.Message) error {
	select {
	case r.events <- msg:
	default:
	}
	return nil
}

type testEnv struct {
	t    *testing.T
	ctl  *Controller
	reg  *testRegistrar
	loop *fx.Loop
	sims map[string]*esc.ESC
}

func newTestEnv(t *testing.T, bidir bool, names ...string) *testEnv {
	env := &testEnv{
		t:    t,
		reg:  &testRegistrar{events: make(chan fx.Message, 64)},
		loop: &fx.Loop{Interval: time.Millisecond},
		sims: make(map[string]*esc.ESC),
	}
	var links []*link.Controller
	for _, name := range names {
		sim := esc.New(esc.Config{ArmFrames: 10})
		if bidir {
			sim.SetReply(make([]uint8, dshot.ReplyGroups))
		}
		lnk, err := link.New(link.Config{
			Name:             name,
			Rate:             dshot.DShot300,
			Bidirectional:    bidir,
			InvertedChecksum: bidir,
			ArmFrames:        20,
			KeepAlive:        time.Millisecond,
			Smoothing:        1,
		}, sim)
		require.NoError(t, err)
		env.sims[name] = sim
		links = append(links, lnk)
		env.loop.Add(lnk)
	}
	env.ctl = New(env.reg, links...)
	env.loop.Add(env.ctl)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go env.loop.Run(ctx)
	for _, lnk := range links {
		lnk := lnk
		require.Eventually(t, func() bool { return lnk.State() == link.Idle }, time.Second, time.Millisecond)
	}
	return env
}

func (e *testEnv) do(msg fx.Message) fx.Message {
	cmd := &testCommand{msg: msg, done: make(chan fx.Message, 1)}
	e.loop.PostMessage(&l1.CommandMsg{Command: cmd})
	e.loop.TriggerNext()
	select {
	case reply := <-cmd.done:
		return reply
	case <-time.After(2 * time.Second):
		e.t.Fatalf("%T: no reply", msg)
	}
	return nil
}

func (e *testEnv) requireErr(msg fx.Message) *msgs.CommandErr {
	reply := e.do(msg)
	cmdErr, ok := reply.(*msgs.CommandErr)
	require.Truef(e.t, ok, "expect CommandErr, got %T", reply)
	return cmdErr
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t, false, "rear", "front")
	list := env.do(&msgs.MotorStatusQuery{}).(*msgs.MotorStatusList)
	require.Len(t, list.Motors, 2)
	require.Equal(t, "front", list.Motors[0].Motor)
	require.Equal(t, "rear", list.Motors[1].Motor)
	require.Equal(t, "idle", list.Motors[0].State)
	require.Equal(t, "MotorStop", list.Motors[0].Steady)
	require.True(t, list.Motors[0].Frames >= 20)

	list = env.do(&msgs.MotorStatusQuery{Motor: "rear"}).(*msgs.MotorStatusList)
	require.Len(t, list.Motors, 1)
	require.Equal(t, msgs.ErrUnknownMotor.Error(), env.requireErr(&msgs.MotorStatusQuery{Motor: "left"}).Message)
}

func TestMotorCommand(t *testing.T) {
	env := newTestEnv(t, false, "m0")
	reply := env.do(msgs.NewMotorCommand("m0", dshot.Throttle(500))).(*msgs.CommandReply)
	require.Equal(t, "m0", reply.Motor)
	require.Equal(t, "streaming", reply.State)
	require.Nil(t, reply.Telemetry)
	require.Eventually(t, func() bool {
		return env.sims["m0"].State().Throttle == dshot.Throttle(500)
	}, time.Second, time.Millisecond)

	reply = env.do(msgs.NewMotorCommand("m0", dshot.Beep{Count: 2})).(*msgs.CommandReply)
	require.Equal(t, "streaming", reply.State)
	require.Equal(t, 1, env.sims["m0"].State().Beeps)

	reply = env.do(msgs.NewMotorCommand("m0", dshot.MotorStop{})).(*msgs.CommandReply)
	require.Equal(t, "idle", reply.State)
}

func TestMotorCommandErrors(t *testing.T) {
	env := newTestEnv(t, false, "m0")
	env.requireErr(&msgs.MotorCommand{Motor: "m1", Kind: dshot.KindStop})
	env.requireErr(&msgs.MotorCommand{Motor: "m0", Kind: dshot.KindBeep, Value: 9})
	env.requireErr(&msgs.MotorCommand{Motor: "m0", Kind: "spin"})
	env.requireErr(&msgs.MotorArm{Motor: "m1"})
	env.requireErr(&msgs.MotorSweep{Motor: "m1", Max: 100})
}

func TestTelemetryPublished(t *testing.T) {
	env := newTestEnv(t, true, "m0")
	reply := env.do(msgs.NewMotorCommand("m0", dshot.Throttle(100))).(*msgs.CommandReply)
	require.NotNil(t, reply.Telemetry)
	require.True(t, reply.Telemetry.Present)

	select {
	case msg := <-env.reg.events:
		report := msg.(*msgs.TelemetryReport)
		require.Equal(t, "m0", report.Motor)
		require.True(t, report.Seq > 0)
	case <-time.After(time.Second):
		t.Fatal("no telemetry event")
	}
}

func TestSweep(t *testing.T) {
	env := newTestEnv(t, false, "m0")
	require.IsType(t, &msgs.CommandOK{}, env.do(&msgs.MotorSweep{Motor: "m0", Min: 100, Max: 120, Step: 10, PeriodMs: 1}))
	require.True(t, env.ctl.Sweeping("m0"))
	require.Eventually(t, func() bool {
		th := env.sims["m0"].State().Throttle
		return th >= 100 && th <= 120
	}, time.Second, time.Millisecond)

	// an explicit stop ends the sweep.
	env.do(msgs.NewMotorCommand("m0", dshot.MotorStop{}))
	require.False(t, env.ctl.Sweeping("m0"))
	lnk, err := env.ctl.Link("m0")
	require.NoError(t, err)
	require.Nil(t, lnk.Attached())
	require.Eventually(t, func() bool {
		return env.sims["m0"].State().Throttle == 0
	}, time.Second, time.Millisecond)

	require.IsType(t, &msgs.CommandOK{}, env.do(&msgs.MotorSweep{Motor: "m0", Min: 50, Max: 60}))
	require.IsType(t, &msgs.CommandOK{}, env.do(&msgs.MotorSweep{Motor: "m0"}))
	require.False(t, env.ctl.Sweeping("m0"))
}

func TestArm(t *testing.T) {
	env := newTestEnv(t, false, "m0")
	env.do(msgs.NewMotorCommand("m0", dshot.Throttle(300)))
	require.IsType(t, &msgs.CommandOK{}, env.do(&msgs.MotorArm{Motor: "m0"}))
	lnk, _ := env.ctl.Link("m0")
	require.Equal(t, link.Idle, lnk.State())
	require.Equal(t, dshot.Command(dshot.MotorStop{}), lnk.Steady())
}

func TestSweepWhenArmed(t *testing.T) {
	env := newTestEnv(t, false, "m0")
	lnk, _ := env.ctl.Link("m0")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go env.ctl.SweepWhenArmed(lnk, &link.Sweep{Min: 200, Max: 200, Period: time.Millisecond}).Run(ctx)
	require.Eventually(t, func() bool {
		return env.sims["m0"].State().Throttle == dshot.Throttle(200)
	}, time.Second, time.Millisecond)
	require.True(t, env.ctl.Sweeping("m0"))
}
