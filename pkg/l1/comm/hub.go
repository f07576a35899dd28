package comm

import (
	"context"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/dshot.go/pkg/framework"
)

// Hub serves multiple point-to-point connections as one l1.Registrar.
// Commands from all connections are posted into the loop, events are
// broadcast to every connection.
type Hub struct {
	lock  sync.RWMutex
	pipes map[*Pipe]struct{}
}

// Serve runs a connection until it fails or ctx is done.
// ctx must be derived from the loop context.
func (h *Hub) Serve(ctx context.Context, rw PacketReadWriter) error {
	pipe := NewPipe(rw)
	pipe.Handler = CommandPoster(pipe)
	h.lock.Lock()
	if h.pipes == nil {
		h.pipes = make(map[*Pipe]struct{})
	}
	h.pipes[pipe] = struct{}{}
	h.lock.Unlock()
	defer func() {
		h.lock.Lock()
		delete(h.pipes, pipe)
		h.lock.Unlock()
	}()
	return pipe.Run(ctx)
}

// Len returns the number of connections.
func (h *Hub) Len() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.pipes)
}

// SendEvent implements l1.Registrar.
// A connection failing to receive the event is closed.
func (h *Hub) SendEvent(ctx context.Context, msg fx.Message) error {
	typed, err := eventFrom(msg)
	if err != nil {
		return err
	}
	h.lock.RLock()
	pipes := make([]*Pipe, 0, len(h.pipes))
	for pipe := range h.pipes {
		pipes = append(pipes, pipe)
	}
	h.lock.RUnlock()
	for _, pipe := range pipes {
		if err := pipe.SendTyped(typed); err != nil {
			glog.Warningf("drop connection: %v", err)
			pipe.Close()
		}
	}
	return nil
}
