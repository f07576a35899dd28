package websocket

import (
	"context"
	"net/http"
	"net/url"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/dshot.go/pkg/framework"
	"github.com/robotalks/dshot.go/pkg/l1/comm"
)

// DefaultPath is where the websocket endpoint is served.
const DefaultPath = "/dshot"

// Server serves websocket clients through a Hub.
type Server struct {
	Addr string
	Path string
	Hub  comm.Hub
}

// NewServer creates a Server listening on addr.
func NewServer(addr string) *Server {
	return &Server{Addr: addr, Path: DefaultPath}
}

// SendEvent implements l1.Registrar.
func (s *Server) SendEvent(ctx context.Context, msg fx.Message) error {
	return s.Hub.SendEvent(ctx, msg)
}

// AddToLoop implements LoopAdder.
func (s *Server) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(s)
}

// Handler creates the http.Handler serving connections with ctx, which
// must carry the loop context.
func (s *Server) Handler(ctx context.Context) http.Handler {
	return websocket.Handler(func(conn *websocket.Conn) {
		glog.Infof("websocket from %s", conn.Request().RemoteAddr)
		err := s.Hub.Serve(ctx, New(conn))
		glog.Infof("websocket from %s closed: %v", conn.Request().RemoteAddr, err)
	})
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	path := s.Path
	if path == "" {
		path = DefaultPath
	}
	mux := http.NewServeMux()
	mux.Handle(path, s.Handler(ctx))
	srv := &http.Server{Addr: s.Addr, Handler: mux}
	glog.Infof("websocket listening on %s%s", s.Addr, path)
	return fx.RunWithContextCancel(ctx, func() {
		srv.Shutdown(context.Background())
		srv.Close()
	}, srv.ListenAndServe)
}

// Dialer creates a comm.Dialer for a "ws://host:port/path" URL.
func Dialer(u *url.URL) comm.Dialer {
	return func(ctx context.Context) (comm.PacketReadWriter, error) {
		origin := "http://" + u.Host + "/"
		if u.Scheme == "wss" {
			origin = "https://" + u.Host + "/"
		}
		conf, err := websocket.NewConfig(u.String(), origin)
		if err != nil {
			return nil, err
		}
		ch := make(chan dialResult, 1)
		go func() {
			conn, err := websocket.DialConfig(conf)
			ch <- dialResult{conn: conn, err: err}
		}()
		select {
		case r := <-ch:
			if r.err != nil {
				return nil, r.err
			}
			return New(r.conn), nil
		case <-ctx.Done():
			go func() {
				if r := <-ch; r.conn != nil {
					r.conn.Close()
				}
			}()
			return nil, ctx.Err()
		}
	}
}

type dialResult struct {
	conn *websocket.Conn
	err  error
}
