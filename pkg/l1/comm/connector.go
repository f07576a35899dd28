package comm

import (
	"context"
	"fmt"

	"github.com/robotalks/dshot.go/pkg/l1"
)

// Dialer opens a point-to-point packet connection.
type Dialer func(context.Context) (PacketReadWriter, error)

// DirectConnector implements l1.Connector for a single controller reached
// by a point-to-point connection, without a registry.
type DirectConnector struct {
	Info l1.ControllerInfo
	Dial Dialer
}

// Discover implements Connector.
func (c *DirectConnector) Discover(context.Context) ([]l1.ControllerInfo, error) {
	return []l1.ControllerInfo{c.Info}, nil
}

// Connect implements Connector.
func (c *DirectConnector) Connect(ctx context.Context, ref l1.ControllerRef) (l1.ControllerConn, error) {
	if ref != c.Info.Ref {
		return nil, fmt.Errorf("unknown controller %q, only %q is reachable", ref.Name(), c.Info.Ref.Name())
	}
	rw, err := c.Dial(ctx)
	if err != nil {
		return nil, err
	}
	conn := &ControllerConn{}
	conn.Init(rw)
	return conn, nil
}
