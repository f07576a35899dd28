package stream

import (
	"context"
	"net"
	"net/url"

	"github.com/golang/glog"

	fx "github.com/robotalks/dshot.go/pkg/framework"
	"github.com/robotalks/dshot.go/pkg/l1/comm"
)

// Server accepts TCP connections and serves them through a Hub.
type Server struct {
	Addr string
	Hub  comm.Hub
}

// NewServer creates a server listening on addr, e.g. ":9100".
func NewServer(addr string) *Server {
	return &Server{Addr: addr}
}

// SendEvent implements l1.Registrar.
func (s *Server) SendEvent(ctx context.Context, msg fx.Message) error {
	return s.Hub.SendEvent(ctx, msg)
}

// AddToLoop implements LoopAdder.
func (s *Server) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(s)
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	glog.Infof("listening on %s", ln.Addr())
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, ln is closed then.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	return fx.RunWithContextCloser(ctx, ln, func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return err
			}
			glog.Infof("connection from %s", conn.RemoteAddr())
			go func() {
				err := s.Hub.Serve(ctx, New(conn))
				glog.Infof("connection from %s closed: %v", conn.RemoteAddr(), err)
			}()
		}
	})
}

// Dialer creates a comm.Dialer for a "tcp://host:port" URL.
func Dialer(u *url.URL) comm.Dialer {
	return func(ctx context.Context) (comm.PacketReadWriter, error) {
		var d net.Dialer
		conn, err := d.DialContext(ctx, "tcp", u.Host)
		if err != nil {
			return nil, err
		}
		return New(conn), nil
	}
}
