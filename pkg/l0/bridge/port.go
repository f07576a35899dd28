package bridge

import (
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
)

// DefaultTimeout is the default wait for a reply.
const DefaultTimeout = 100 * time.Millisecond

// Port is the host side of the bridge.
type Port struct {
	ReadWriter io.ReadWriter
	// Timeout bounds the wait for a reply, and the gap between bytes of
	// a packet.
	Timeout time.Duration
	// ReadTimeout is set when Read of ReadWriter returns on timeout.
	ReadTimeout bool

	seq       PacketSeq
	sendToken chan struct{}
	cmdsHead  *request
	cmdsTail  *request
	cmdsLock  sync.Mutex
	parser    Parser
	dropped   uint64
	unmatched uint64
}

type request struct {
	seq      PacketSeq
	code     byte
	resultCh chan result
	next     *request
}

type result struct {
	data []byte
	err  error
}

// NewPort creates a Port.
func NewPort(rw io.ReadWriter) *Port {
	return &Port{
		ReadWriter: rw,
		Timeout:    DefaultTimeout,
		seq:        NewPacketSeq(),
		sendToken:  make(chan struct{}, 1),
	}
}

// Dropped is the number of discarded corrupted packets.
func (p *Port) Dropped() uint64 {
	return atomic.LoadUint64(&p.dropped)
}

// Unmatched is the number of replies without a pending request.
func (p *Port) Unmatched() uint64 {
	return atomic.LoadUint64(&p.unmatched)
}

// Do sends a request and waits for its reply. Timeout bounds both the
// write and the wait, requests on other channels are not held up by a
// channel whose reply is late.
func (p *Port) Do(ctx context.Context, code byte, data []byte) ([]byte, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	req := &request{code: code, resultCh: make(chan result, 1)}
	if err := p.send(ctx, timer.C, req, data); err != nil {
		return nil, err
	}
	select {
	case r := <-req.resultCh:
		return r.data, r.err
	case <-timer.C:
		p.abandon(req)
		return nil, ErrTimeout
	case <-ctx.Done():
		p.abandon(req)
		return nil, ctx.Err()
	}
}

// send queues the request and writes it. Writes are serialized, the
// writing goroutine keeps the token until the write returns.
func (p *Port) send(ctx context.Context, expired <-chan time.Time, req *request, data []byte) error {
	select {
	case p.sendToken <- struct{}{}:
	case <-expired:
		return ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
	req.seq = p.seq
	p.seq = p.seq.Next()
	p.cmdsLock.Lock()
	if p.cmdsHead == nil {
		p.cmdsHead = req
	} else {
		p.cmdsTail.next = req
	}
	p.cmdsTail = req
	p.cmdsLock.Unlock()
	pkt := &Packet{Seq: req.seq, Code: req.code, Data: data}
	if glog.V(4) {
		glog.Infof("bridge TX seq=%02x code=%02x len=%d", byte(pkt.Seq), pkt.Code, len(data))
	}
	errCh := make(chan error, 1)
	go func() {
		_, err := pkt.WriteTo(p.ReadWriter)
		<-p.sendToken
		errCh <- err
	}()
	select {
	case err := <-errCh:
		if err != nil {
			p.abandon(req)
		}
		return err
	case <-expired:
		p.abandon(req)
		return ErrTimeout
	case <-ctx.Done():
		p.abandon(req)
		return ctx.Err()
	}
}

func (p *Port) abandon(req *request) {
	p.cmdsLock.Lock()
	defer p.cmdsLock.Unlock()
	var prev *request
	for curr := p.cmdsHead; curr != nil; prev, curr = curr, curr.next {
		if curr != req {
			continue
		}
		if prev == nil {
			p.cmdsHead = curr.next
		} else {
			prev.next = curr.next
		}
		if p.cmdsTail == curr {
			p.cmdsTail = prev
		}
		curr.next = nil
		return
	}
}

// HandlePacket dispatches a reply to its request, matched by seq. Replies
// of different channels may arrive in any order.
func (p *Port) HandlePacket(pkt *Packet) {
	if !pkt.IsReply() {
		atomic.AddUint64(&p.unmatched, 1)
		return
	}
	p.cmdsLock.Lock()
	var prev, curr *request
	for curr = p.cmdsHead; curr != nil; prev, curr = curr, curr.next {
		if curr.seq != pkt.Seq {
			continue
		}
		if prev == nil {
			p.cmdsHead = curr.next
		} else {
			prev.next = curr.next
		}
		if p.cmdsTail == curr {
			p.cmdsTail = prev
		}
		curr.next = nil
		break
	}
	p.cmdsLock.Unlock()
	if curr == nil {
		atomic.AddUint64(&p.unmatched, 1)
		glog.V(2).Infof("bridge: stale reply seq=%02x", byte(pkt.Seq))
		return
	}
	switch pkt.Code {
	case CodeError:
		curr.resultCh <- result{err: &RemoteError{Message: string(pkt.Data)}}
	case curr.code | CodeReply:
		curr.resultCh <- result{data: pkt.Data}
	default:
		curr.resultCh <- result{err: ErrUnexpectedReply}
	}
}

// Run reads and dispatches replies until ctx is done or reading fails.
func (p *Port) Run(ctx context.Context) error {
	return readPackets(ctx, p.ReadWriter, p.ReadTimeout, p.Timeout, &p.parser, func(pr ParseResult) {
		if pr.Dropped {
			atomic.AddUint64(&p.dropped, 1)
			glog.V(2).Info("bridge: packet dropped")
		}
		if pr.Packet != nil {
			p.HandlePacket(pr.Packet)
		}
	})
}

// readPackets feeds the parser from r. With readTimeout, r returns on
// timeout, otherwise a reader goroutine is used.
func readPackets(ctx context.Context, r io.Reader, readTimeout bool, timeout time.Duration, parser *Parser, fn func(ParseResult)) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if readTimeout {
		buf := make([]byte, 1)
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, err := r.Read(buf)
			if err != nil && !os.IsTimeout(err) {
				return err
			}
			if n == 0 {
				fn(parser.Timeout())
				continue
			}
			fn(parser.Parse(buf[0]))
		}
	}

	byteCh, errCh := make(chan byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go readLoop(subCtx, r, byteCh, errCh)
	var gapTimer <-chan time.Time
	for {
		select {
		case b := <-byteCh:
			fn(parser.Parse(b))
			if parser.Receiving() {
				gapTimer = time.After(timeout)
			} else {
				gapTimer = nil
			}
		case <-gapTimer:
			fn(parser.Timeout())
			gapTimer = nil
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func readLoop(ctx context.Context, r io.Reader, byteCh chan byte, errCh chan error) {
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if err != nil {
			errCh <- err
			return
		}
		if n == 0 {
			continue
		}
		select {
		case byteCh <- buf[0]:
		case <-ctx.Done():
			return
		}
	}
}
