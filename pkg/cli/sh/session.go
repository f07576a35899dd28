package sh

import (
	"context"
	"io"
	"time"

	fx "github.com/robotalks/dshot.go/pkg/framework"
	"github.com/robotalks/dshot.go/pkg/l1"
	"github.com/robotalks/dshot.go/pkg/l1/comm"
	"github.com/robotalks/dshot.go/pkg/l1/msgs"
)

// EventBacklog is the number of events a Session keeps unread.
const EventBacklog = 64

// CommandTimeout bounds the wait for a reply, it outlasts the expiration
// of pending commands on the connection.
var CommandTimeout = comm.DefaultCommandExpiration + time.Second

// Session is an open connection to a daemon, with the loop processing
// its replies and events.
type Session struct {
	Ref  l1.ControllerRef
	Conn l1.ControllerConn

	loop   *fx.Loop
	cancel context.CancelFunc
	events chan fx.Message
}

// Open connects the daemon and starts the session loop.
func Open(ctx context.Context, connector l1.Connector, ref l1.ControllerRef) (*Session, error) {
	ctx, cancel := context.WithCancel(ctx)
	conn, err := connector.Connect(ctx, ref)
	if err != nil {
		cancel()
		return nil, err
	}
	s := newSession(ref, conn)
	s.cancel = cancel
	go s.loop.Run(ctx)
	return s, nil
}

func newSession(ref l1.ControllerRef, conn l1.ControllerConn) *Session {
	s := &Session{
		Ref:    ref,
		Conn:   conn,
		loop:   fx.NewLoop(),
		events: make(chan fx.Message, EventBacklog),
	}
	if adder, ok := conn.(fx.LoopAdder); ok {
		s.loop.Add(adder)
	}
	s.loop.AddController(fx.PrLvControl, fx.ControlFunc(s.collectEvents))
	return s
}

// Events delivers events from the daemon. The oldest are dropped when
// the backlog is full.
func (s *Session) Events() <-chan fx.Message {
	return s.events
}

// Do sends a command and waits for the reply within CommandTimeout.
// A CommandErr reply is returned as the error.
func (s *Session) Do(ctx context.Context, msg fx.Message) (fx.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, CommandTimeout)
	defer cancel()
	reply, err := comm.Wait(ctx, s.Conn.DoCommand(msg))
	if e, ok := reply.(*msgs.CommandErr); ok && err == nil {
		return nil, e
	}
	return reply, err
}

// Close stops the loop and closes the connection.
func (s *Session) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if closer, ok := s.Conn.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (s *Session) collectEvents(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		if msg, ok := mctx.CurrentMessage().(msgs.SerializableMessage); ok && msg.TypeID()&msgs.TypeIDMaskKind == msgs.TypeIDKindEvent {
			mctx.MessageTaken()
			s.deliver(msg)
		}
	}))
	return nil
}

func (s *Session) deliver(msg fx.Message) {
	for {
		select {
		case s.events <- msg:
			return
		default:
		}
		select {
		case <-s.events:
		default:
		}
	}
}
