package comm

import (
	"context"
	"sync"
	"time"

	fx "github.com/robotalks/dshot.go/pkg/framework"
	"github.com/robotalks/dshot.go/pkg/l1"
	"github.com/robotalks/dshot.go/pkg/l1/msgs"
)

// DefaultCommandExpiration is how long a command waits for its reply.
// Arming a motor replies only after the whole arming burst.
const DefaultCommandExpiration = 5 * time.Second

// ControllerConn is the client side of a Pipe. Replies are matched to
// commands by sequence, commands without reply fail after Expiration.
type ControllerConn struct {
	Expiration time.Duration
	// OnEvent receives events, when nil events are posted into the loop.
	OnEvent func(fx.Message)

	pipe Pipe

	lock    sync.Mutex
	seq     uint32
	pending []*commandFuture // in expiration order
	closed  bool
}

// Init sets up the connection over rw.
func (c *ControllerConn) Init(rw PacketReadWriter) {
	c.Expiration = DefaultCommandExpiration
	c.pipe.ReadWriter = rw
	c.pipe.Handler = msgs.HandleTypedMsgFunc(c.handleTypedMsg)
}

// DoCommand implements l1.ControllerConn.
func (c *ControllerConn) DoCommand(msg fx.Message) l1.CommandFuture {
	f := &commandFuture{result: make(chan l1.Result, 1)}
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.closed {
		f.complete(l1.Result{Err: ErrClosed})
		return f
	}
	// sequence 0 is never used by commands.
	if c.seq++; c.seq == 0 {
		c.seq = 1
	}
	f.seq, f.expireAt = c.seq, time.Now().Add(c.Expiration)
	if err := c.pipe.SendCommandMsg(msg, f.seq); err != nil {
		f.complete(l1.Result{Err: err})
		return f
	}
	c.pending = append(c.pending, f)
	return f
}

// Pending returns the number of commands waiting for replies.
func (c *ControllerConn) Pending() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.pending)
}

// Close fails pending commands with ErrClosed and closes the pipe.
func (c *ControllerConn) Close() error {
	c.lock.Lock()
	c.closed = true
	pending := c.pending
	c.pending = nil
	c.lock.Unlock()
	for _, f := range pending {
		f.complete(l1.Result{Err: ErrClosed})
	}
	return c.pipe.Close()
}

// AddToLoop implements LoopAdder.
func (c *ControllerConn) AddToLoop(l *fx.Loop) {
	l.Add(&c.pipe)
	l.AddController(fx.PrLvIdle, fx.ControlFunc(c.expire))
}

func (c *ControllerConn) handleTypedMsg(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
	if typed.IsEvent() {
		if c.OnEvent != nil {
			c.OnEvent(msg)
		} else {
			loopCtl := fx.LoopCtlFrom(ctx)
			loopCtl.PostMessage(msg)
			loopCtl.TriggerNext()
		}
		return nil
	}
	if f := c.take(typed.Sequence); f != nil {
		r := l1.Result{Msg: msg}
		if e, ok := msg.(*msgs.CommandErr); ok {
			r.Err = e
		}
		f.complete(r)
	}
	return nil
}

// take removes the pending command with seq.
func (c *ControllerConn) take(seq uint32) *commandFuture {
	c.lock.Lock()
	defer c.lock.Unlock()
	for i, f := range c.pending {
		if f.seq == seq {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return f
		}
	}
	return nil
}

func (c *ControllerConn) expire(cc fx.ControlContext) error {
	now := cc.Time()
	c.lock.Lock()
	n := 0
	for n < len(c.pending) && !c.pending[n].expireAt.After(now) {
		n++
	}
	expired := c.pending[:n:n]
	c.pending = c.pending[n:]
	c.lock.Unlock()
	for _, f := range expired {
		f.complete(l1.Result{Err: context.DeadlineExceeded})
	}
	return nil
}

type commandFuture struct {
	seq      uint32
	expireAt time.Time
	result   chan l1.Result
}

func (f *commandFuture) complete(r l1.Result) {
	f.result <- r
	close(f.result)
}

// ResultChan implements l1.CommandFuture.
func (f *commandFuture) ResultChan() <-chan l1.Result {
	return f.result
}

// Wait waits for the result of a command.
func Wait(ctx context.Context, f l1.CommandFuture) (fx.Message, error) {
	select {
	case r := <-f.ResultChan():
		return r.Msg, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
