package bridge

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/dshot.go/pkg/l0/signal"
)

// ChannelBacklog is the number of requests queued per channel.
const ChannelBacklog = 16

// Device is the coprocessor side of the bridge, serving requests on a set
// of lines. It's used to run the bridge against simulated lines. Each
// channel is served in its own goroutine, requests of a channel in order.
type Device struct {
	ReadWriter io.ReadWriter
	Lines      map[uint8]signal.Line

	parser    Parser
	writeLock sync.Mutex
}

// NewDevice creates a Device.
func NewDevice(rw io.ReadWriter, lines map[uint8]signal.Line) *Device {
	return &Device{ReadWriter: rw, Lines: lines}
}

// Run implements Runnable.
func (d *Device) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	errCh := make(chan error, 1)
	write := func(pkt *Packet) {
		d.writeLock.Lock()
		_, err := pkt.WriteTo(d.ReadWriter)
		d.writeLock.Unlock()
		if err != nil {
			select {
			case errCh <- err:
			default:
			}
			cancel()
		}
	}

	queues := make(map[uint8]chan *Packet)
	err := readPackets(ctx, d.ReadWriter, false, DefaultTimeout, &d.parser, func(pr ParseResult) {
		pkt := pr.Packet
		if pkt == nil || pkt.IsReply() {
			return
		}
		if len(pkt.Data) == 0 {
			write(pkt.Error(ErrMalformed))
			return
		}
		ch := pkt.Data[0]
		q := queues[ch]
		if q == nil {
			q = make(chan *Packet, ChannelBacklog)
			queues[ch] = q
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					select {
					case <-ctx.Done():
						return
					case req := <-q:
						write(d.serve(ctx, req))
					}
				}
			}()
		}
		select {
		case q <- pkt:
		case <-ctx.Done():
		}
	})
	select {
	case writeErr := <-errCh:
		return writeErr
	default:
	}
	return err
}

func (d *Device) serve(ctx context.Context, pkt *Packet) *Packet {
	switch pkt.Code {
	case CodeDirection:
		var req DirectionRequest
		if err := req.Decode(pkt.Data); err != nil {
			return pkt.Error(err)
		}
		l, err := d.line(req.Channel)
		if err == nil {
			err = l.SetDirection(req.Direction, req.Idle)
		}
		if err != nil {
			return pkt.Error(err)
		}
		return pkt.Reply(nil)
	case CodeEmit:
		var req EmitRequest
		if err := req.Decode(pkt.Data); err != nil {
			return pkt.Error(err)
		}
		l, err := d.line(req.Channel)
		if err == nil {
			err = l.Emit(ctx, req.Waveform)
		}
		if err != nil {
			return pkt.Error(err)
		}
		return pkt.Reply(nil)
	case CodeCapture:
		var req CaptureRequest
		if err := req.Decode(pkt.Data); err != nil {
			return pkt.Error(err)
		}
		l, err := d.line(req.Channel)
		if err != nil {
			return pkt.Error(err)
		}
		nibbles, err := l.Capture(ctx, req.Spec)
		if errors.Is(err, signal.ErrNoResponse) {
			return pkt.Reply(nil)
		}
		if err != nil {
			return pkt.Error(err)
		}
		return pkt.Reply(nibbles)
	}
	glog.V(2).Infof("bridge device: unknown code %02x", pkt.Code)
	return pkt.Error(ErrMalformed)
}

func (d *Device) line(ch uint8) (signal.Line, error) {
	if l := d.Lines[ch]; l != nil {
		return l, nil
	}
	return nil, ErrUnknownChannel
}
