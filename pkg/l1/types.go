// Package l1 defines how a motor daemon (the L1 controller) and its remote
// clients (L2) talk to each other, independent of the transport.
package l1

import (
	"context"
	"fmt"
	"strings"

	fx "github.com/robotalks/dshot.go/pkg/framework"
)

// Registrar publishes a daemon on a transport. Received commands are
// posted into the loop as CommandMsg.
type Registrar interface {
	// SendEvent broadcasts an event message to connected clients.
	SendEvent(context.Context, fx.Message) error
}

// Command is a received command waiting for its reply.
type Command interface {
	Msg() fx.Message
	// Done sends the reply, it must be called exactly once.
	Done(fx.Message) error
}

// CommandMsg carries a Command through the loop.
type CommandMsg struct {
	Command Command
}

// NewMessage implements Message.
func (m *CommandMsg) NewMessage() fx.Message { return &CommandMsg{} }

// ControllerRef identifies a daemon.
type ControllerRef struct {
	Type string
	ID   string
}

// ParseRef parses "TYPE/ID", or a bare ID of defaultType.
func ParseRef(s, defaultType string) (ControllerRef, error) {
	ref := ControllerRef{Type: defaultType, ID: s}
	if pos := strings.IndexByte(s, '/'); pos >= 0 {
		ref.Type, ref.ID = s[:pos], s[pos+1:]
	}
	if !ref.IsValid() || strings.ContainsAny(ref.ID, "/+#") {
		return ref, fmt.Errorf("invalid controller %q", s)
	}
	return ref, nil
}

// Name is "TYPE/ID", also the topic prefix of the daemon on MQTT.
func (r ControllerRef) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid indicates both Type and ID are set.
func (r ControllerRef) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// ControllerMeta is published along with the ref for discovery.
type ControllerMeta struct {
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// ControllerInfo is a discovered daemon.
type ControllerInfo struct {
	Ref  ControllerRef
	Meta ControllerMeta
}

// Connector finds and connects daemons.
type Connector interface {
	Discover(context.Context) ([]ControllerInfo, error)
	Connect(context.Context, ControllerRef) (ControllerConn, error)
}

// ControllerConn is a client connection to a daemon. Implementations
// needing a loop to process replies also implement fx.LoopAdder.
type ControllerConn interface {
	DoCommand(fx.Message) CommandFuture
}

// Result is the reply of a command, or the error when no reply arrived.
type Result struct {
	Msg fx.Message
	Err error
}

// CommandFuture delivers exactly one Result.
type CommandFuture interface {
	ResultChan() <-chan Result
}
