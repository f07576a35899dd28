package comm_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/dshot.go/pkg/framework"
	"github.com/robotalks/dshot.go/pkg/l1"
	"github.com/robotalks/dshot.go/pkg/l1/comm"
	"github.com/robotalks/dshot.go/pkg/l1/comm/stream"
	"github.com/robotalks/dshot.go/pkg/l1/msgs"
)

// echoStatus replies MotorStatusQuery with a single status.
type echoStatus struct{}

func (c *echoStatus) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		cmdMsg, ok := mctx.CurrentMessage().(*l1.CommandMsg)
		if !ok {
			return
		}
		if q, ok := cmdMsg.Command.Msg().(*msgs.MotorStatusQuery); ok {
			mctx.MessageTaken()
			cmdMsg.Command.Done(&msgs.MotorStatusList{Motors: []*msgs.MotorStatus{{Motor: q.Motor, State: "idle"}}})
		}
	}))
	return nil
}

type testEnv struct {
	ctx    context.Context
	cancel func()
	reg    *comm.Registrar
	conn   *comm.ControllerConn
}

func newTestEnv(t *testing.T) *testEnv {
	ctlSide, connSide := net.Pipe()
	env := &testEnv{reg: &comm.Registrar{}, conn: &comm.ControllerConn{}}
	env.reg.Init(stream.New(ctlSide))
	env.conn.Init(stream.New(connSide))
	env.ctx, env.cancel = context.WithCancel(context.Background())

	ctlLoop := &fx.Loop{Interval: time.Millisecond}
	ctlLoop.Add(env.reg).AddController(fx.PrLvControl, &echoStatus{}).Add(&comm.UnsupportedCommands{})
	connLoop := &fx.Loop{Interval: time.Millisecond}
	connLoop.Add(env.conn)
	go ctlLoop.Run(env.ctx)
	go connLoop.Run(env.ctx)
	t.Cleanup(env.cancel)
	return env
}

func (e *testEnv) do(t *testing.T, msg fx.Message) (fx.Message, error) {
	ctx, cancel := context.WithTimeout(e.ctx, time.Second)
	defer cancel()
	return comm.Wait(ctx, e.conn.DoCommand(msg))
}

func TestCommandRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	reply, err := env.do(t, &msgs.MotorStatusQuery{Motor: "m0"})
	require.NoError(t, err)
	list := reply.(*msgs.MotorStatusList)
	require.Len(t, list.Motors, 1)
	require.Equal(t, "m0", list.Motors[0].Motor)
	require.Zero(t, env.conn.Pending())
}

func TestUnsupportedCommand(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.do(t, &msgs.MotorArm{Motor: "m0"})
	require.EqualError(t, err, msgs.ErrUnsupportedCommand.Error())
}

func TestEventDelivery(t *testing.T) {
	ctlSide, connSide := net.Pipe()
	reg := &comm.Registrar{}
	reg.Init(stream.New(ctlSide))
	events := make(chan fx.Message, 1)
	conn := &comm.ControllerConn{}
	conn.Init(stream.New(connSide))
	conn.OnEvent = func(msg fx.Message) { events <- msg }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	connLoop := &fx.Loop{Interval: time.Millisecond}
	connLoop.Add(conn)
	go connLoop.Run(ctx)

	require.NoError(t, reg.SendEvent(ctx, &msgs.TelemetryReport{Motor: "m0", Seq: 3}))
	select {
	case msg := <-events:
		require.Equal(t, uint64(3), msg.(*msgs.TelemetryReport).Seq)
	case <-time.After(time.Second):
		t.Fatal("event timeout")
	}
	require.ErrorIs(t, reg.SendEvent(ctx, &msgs.MotorArm{}), comm.ErrWrongKind)
}

func TestCommandExpiration(t *testing.T) {
	conn := &comm.ControllerConn{}
	conn.Init(newDiscard())
	conn.Expiration = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loop := &fx.Loop{Interval: time.Millisecond}
	loop.Add(conn)
	go loop.Run(ctx)

	waitCtx, waitCancel := context.WithTimeout(ctx, time.Second)
	defer waitCancel()
	_, err := comm.Wait(waitCtx, conn.DoCommand(&msgs.MotorStatusQuery{}))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Zero(t, conn.Pending())
}

func TestControllerConnClose(t *testing.T) {
	conn := &comm.ControllerConn{}
	conn.Init(newDiscard())
	f := conn.DoCommand(&msgs.MotorStatusQuery{})
	require.Equal(t, 1, conn.Pending())
	require.NoError(t, conn.Close())
	r := <-f.ResultChan()
	require.ErrorIs(t, r.Err, comm.ErrClosed)
	r = <-conn.DoCommand(&msgs.MotorStatusQuery{}).ResultChan()
	require.ErrorIs(t, r.Err, comm.ErrClosed)
}

func TestHubBroadcast(t *testing.T) {
	var hub comm.Hub
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loop := &fx.Loop{Interval: time.Millisecond}
	var clients []*stream.ReadWriter
	for i := 0; i < 2; i++ {
		srvSide, cliSide := net.Pipe()
		clients = append(clients, stream.New(cliSide))
		rw := stream.New(srvSide)
		loop.AddRunnable(fx.RunFunc(func(ctx context.Context) error {
			return hub.Serve(ctx, rw)
		}))
	}
	go loop.Run(ctx)
	require.Eventually(t, func() bool { return hub.Len() == 2 }, time.Second, time.Millisecond)

	go hub.SendEvent(ctx, &msgs.TelemetryReport{Motor: "m1", Present: true, Words: []uint32{1, 2, 3}})
	for _, cli := range clients {
		pkt, err := cli.ReadPacket()
		require.NoError(t, err)
		typed, err := msgs.DecodeTyped(pkt)
		require.NoError(t, err)
		require.True(t, typed.IsEvent())
		msg, err := typed.Decode()
		require.NoError(t, err)
		require.Equal(t, []uint32{1, 2, 3}, msg.(*msgs.TelemetryReport).Words)
	}
}

func TestDirectConnector(t *testing.T) {
	info := l1.ControllerInfo{Ref: l1.ControllerRef{Type: "dshot", ID: "bench"}}
	c := &comm.DirectConnector{
		Info: info,
		Dial: func(context.Context) (comm.PacketReadWriter, error) { return newDiscard(), nil },
	}
	infos, err := c.Discover(context.Background())
	require.NoError(t, err)
	require.Equal(t, []l1.ControllerInfo{info}, infos)
	_, err = c.Connect(context.Background(), l1.ControllerRef{Type: "dshot", ID: "other"})
	require.Error(t, err)
	conn, err := c.Connect(context.Background(), info.Ref)
	require.NoError(t, err)
	require.NotNil(t, conn)
}

// discard drops writes and blocks reads until closed.
type discard struct {
	done chan struct{}
}

func newDiscard() *discard {
	return &discard{done: make(chan struct{})}
}

func (d *discard) ReadPacket() ([]byte, error) {
	<-d.done
	return nil, comm.ErrClosed
}

func (d *discard) WritePacket([]byte) error { return nil }

func (d *discard) Close() error {
	select {
	case <-d.done:
	default:
		close(d.done)
	}
	return nil
}
