package bridge

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/dshot.go/pkg/l0/dshot"
	"github.com/robotalks/dshot.go/pkg/l0/signal"
	"github.com/robotalks/dshot.go/pkg/sim/esc"
)

type bridgeTestEnv struct {
	port   *Port
	esc    *esc.ESC
	cancel func()
}

func newBridgeTestEnv(t *testing.T, escConf esc.Config) *bridgeTestEnv {
	host, dev := net.Pipe()
	env := &bridgeTestEnv{
		port: NewPort(host),
		esc:  esc.New(escConf),
	}
	device := NewDevice(dev, map[uint8]signal.Line{0: env.esc})
	ctx, cancel := context.WithCancel(context.Background())
	go env.port.Run(ctx)
	go device.Run(ctx)
	env.cancel = func() {
		cancel()
		host.Close()
		dev.Close()
	}
	t.Cleanup(env.cancel)
	return env
}

func TestBridgeEngine(t *testing.T) {
	reply := make([]uint8, dshot.ReplyGroups)
	for i := range reply {
		reply[i] = 0x5
	}
	env := newBridgeTestEnv(t, esc.Config{ArmFrames: 1, Reply: reply})
	e := signal.NewEngine(env.port.Line(0), dshot.DShot300, true)
	e.Slack = time.Second
	ctx := context.Background()
	require.NoError(t, e.Setup())

	require.NoError(t, e.Transmit(ctx, dshot.Build(dshot.CodeMotorStop, true, true)))
	nibbles, ok, err := e.Receive(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, reply, nibbles)

	require.NoError(t, e.Transmit(ctx, dshot.Build(dshot.CodeThrottleBase+100, true, true)))
	state := env.esc.State()
	require.True(t, state.Armed)
	require.Equal(t, dshot.Throttle(100), state.Throttle)

	env.esc.SetReply(nil)
	_, ok, err = e.Receive(ctx)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, uint64(1), e.Stalls())
	require.Equal(t, signal.EngineTransmit, e.State())
}

func TestBridgeRemoteError(t *testing.T) {
	env := newBridgeTestEnv(t, esc.Config{})
	err := env.port.Line(7).SetDirection(signal.Output, signal.Low)
	var remoteErr *RemoteError
	require.True(t, errors.As(err, &remoteErr))
	require.Equal(t, ErrUnknownChannel.Error(), remoteErr.Message)

	// emitting while the line is an input is rejected by the ESC.
	line := env.port.Line(0)
	require.NoError(t, line.SetDirection(signal.Input, signal.Low))
	err = line.Emit(context.Background(), signal.Encode(0, signal.Low))
	require.True(t, errors.As(err, &remoteErr))
	require.Equal(t, esc.ErrWrongDirection.Error(), remoteErr.Message)
}

func TestPortRepliesBySeq(t *testing.T) {
	var buf bytes.Buffer
	p := NewPort(&buf)
	p.seq = 1
	ctx := context.Background()
	first := &request{code: CodeEmit, resultCh: make(chan result, 1)}
	second := &request{code: CodeCapture, resultCh: make(chan result, 1)}
	require.NoError(t, p.send(ctx, nil, first, nil))
	require.NoError(t, p.send(ctx, nil, second, []byte{1}))
	require.Equal(t, PacketSeq(1), first.seq)
	require.Equal(t, PacketSeq(2), second.seq)

	p.HandlePacket(&Packet{Seq: 2, Code: CodeCapture | CodeReply, Data: []byte{0xa}})
	require.Equal(t, result{data: []byte{0xa}}, <-second.resultCh)
	require.Len(t, first.resultCh, 0)
	require.Equal(t, first, p.cmdsHead)
	require.Equal(t, first, p.cmdsTail)

	p.HandlePacket(&Packet{Seq: 1, Code: CodeEmit | CodeReply})
	require.Equal(t, result{}, <-first.resultCh)
	require.Nil(t, p.cmdsHead)
	require.Nil(t, p.cmdsTail)

	p.HandlePacket(&Packet{Seq: 1, Code: CodeEmit | CodeReply})
	require.Equal(t, uint64(1), p.Unmatched())
}

func TestPortUnexpectedReply(t *testing.T) {
	var buf bytes.Buffer
	p := NewPort(&buf)
	req := &request{code: CodeEmit, resultCh: make(chan result, 1)}
	require.NoError(t, p.send(context.Background(), nil, req, nil))
	p.HandlePacket(&Packet{Seq: req.seq, Code: CodeCapture | CodeReply})
	require.Equal(t, ErrUnexpectedReply, (<-req.resultCh).err)
}

// blockedWriter never completes a write.
type blockedWriter struct {
	release chan struct{}
}

func (w *blockedWriter) Read(p []byte) (int, error) {
	<-w.release
	return 0, io.EOF
}

func (w *blockedWriter) Write(p []byte) (int, error) {
	<-w.release
	return len(p), nil
}

func TestPortWriteTimeout(t *testing.T) {
	w := &blockedWriter{release: make(chan struct{})}
	defer close(w.release)
	p := NewPort(w)
	p.Timeout = 5 * time.Millisecond
	_, err := p.Do(context.Background(), CodeDirection, []byte{0, 0, 0})
	require.Equal(t, ErrTimeout, err)
	require.Nil(t, p.cmdsHead)
	// the token is still held by the stuck write.
	_, err = p.Do(context.Background(), CodeDirection, []byte{0, 0, 0})
	require.Equal(t, ErrTimeout, err)
}

func TestPortTimeout(t *testing.T) {
	var buf bytes.Buffer
	p := NewPort(&buf)
	p.Timeout = 5 * time.Millisecond
	_, err := p.Do(context.Background(), CodeDirection, []byte{0, 0, 0})
	require.Equal(t, ErrTimeout, err)
	require.Nil(t, p.cmdsHead)
	require.Nil(t, p.cmdsTail)
	require.NotZero(t, buf.Len())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Do(ctx, CodeDirection, []byte{0, 0, 0})
	require.Equal(t, context.Canceled, err)
}

func TestPortDropped(t *testing.T) {
	host, dev := net.Pipe()
	defer host.Close()
	defer dev.Close()
	p := NewPort(host)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)
	pkt := (&Packet{Seq: 1, Code: CodeReply}).Bytes()
	pkt[len(pkt)-1] ^= 0xff
	_, err := dev.Write(pkt)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return p.Dropped() == 1 }, time.Second, time.Millisecond)
}

// heldLine holds back Emit until released, like a coprocessor with a full
// transmit buffer.
type heldLine struct {
	*esc.ESC
	entered chan struct{}
	release chan struct{}
}

func (l *heldLine) Emit(ctx context.Context, w signal.Waveform) error {
	l.entered <- struct{}{}
	select {
	case <-l.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	return l.ESC.Emit(ctx, w)
}

func TestBridgeChannelsIndependent(t *testing.T) {
	host, dev := net.Pipe()
	held := &heldLine{
		ESC:     esc.New(esc.Config{ArmFrames: 1}),
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	other := esc.New(esc.Config{ArmFrames: 1})
	port := NewPort(host)
	port.Timeout = 2 * time.Second
	device := NewDevice(dev, map[uint8]signal.Line{0: held, 1: other})
	ctx, cancel := context.WithCancel(context.Background())
	go port.Run(ctx)
	go device.Run(ctx)
	t.Cleanup(func() {
		cancel()
		host.Close()
		dev.Close()
	})

	w := signal.Encode(dshot.Build(dshot.CodeMotorStop, false, false), signal.Low)
	errCh := make(chan error, 1)
	go func() {
		errCh <- port.Line(0).Emit(ctx, w)
	}()
	<-held.entered

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, port.Line(1).Emit(ctx, w))
	}
	require.True(t, time.Since(start) < time.Second)
	state := other.State()
	require.Equal(t, uint64(5), state.Frames)
	require.True(t, state.Armed)
	select {
	case err := <-errCh:
		t.Fatalf("held emit returned early: %v", err)
	default:
	}

	close(held.release)
	require.NoError(t, <-errCh)
	require.Equal(t, uint64(1), held.State().Frames)
}
