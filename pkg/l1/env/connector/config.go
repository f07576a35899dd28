package connector

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"

	"github.com/robotalks/dshot.go/pkg/l1"
	"github.com/robotalks/dshot.go/pkg/l1/comm"
	"github.com/robotalks/dshot.go/pkg/l1/comm/mqtt"
	"github.com/robotalks/dshot.go/pkg/l1/comm/stream"
	"github.com/robotalks/dshot.go/pkg/l1/comm/websocket"
)

// Config provides common options to setup Connectors.
type Config struct {
	Ref l1.ControllerRef

	// URL specifies the registry or the daemon:
	// mqtt://host:port/topic-prefix, tcp://host:port or ws://host:port/dshot
	URL string
}

var defaultConfig = Config{
	Ref: l1.ControllerRef{Type: "dshot"},
	URL: "mqtt://localhost:1883/dshot/",
}

func init() {
	if val := os.Getenv("DSHOT_ID"); val != "" {
		defaultConfig.Ref.ID = val
	}
	if val := os.Getenv("DSHOT_URL"); val != "" {
		defaultConfig.URL = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Ref.ID, "id", defaultConfig.Ref.ID, "Daemon ID to connect.")
	flag.StringVar(&defaultConfig.URL, "url", defaultConfig.URL, "MQTT registry or daemon URL.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Target is the controller to connect: Ref, or for a point-to-point URL
// without ID, one named after the host.
func (c *Config) Target() l1.ControllerRef {
	if c.Ref.IsValid() {
		return c.Ref
	}
	if u, err := url.Parse(c.URL); err == nil && u.Scheme != "mqtt" && u.Host != "" {
		return l1.ControllerRef{Type: c.Ref.Type, ID: u.Host}
	}
	return c.Ref
}

// NewConnector creates a Connector using current config.
func (c *Config) NewConnector() (l1.Connector, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}
	switch u.Scheme {
	case "mqtt":
		return mqtt.NewConnector(c.URL)
	case "tcp":
		return &comm.DirectConnector{
			Info: l1.ControllerInfo{Ref: c.Target()},
			Dial: stream.Dialer(u),
		}, nil
	case "ws", "wss":
		return &comm.DirectConnector{
			Info: l1.ControllerInfo{Ref: c.Target()},
			Dial: websocket.Dialer(u),
		}, nil
	default:
		return nil, fmt.Errorf("unknown URL scheme: %q", u.Scheme)
	}
}

// MustNewConnector creates a Connector and fails on error.
func (c *Config) MustNewConnector() l1.Connector {
	conn, err := c.NewConnector()
	if err != nil {
		log.Fatalln(err)
	}
	return conn
}

// Connect directly connects to the daemon.
func (c *Config) Connect(ctx context.Context) (l1.ControllerConn, error) {
	ref := c.Target()
	if !ref.IsValid() {
		return nil, fmt.Errorf("daemon id must be specified")
	}
	connector, err := c.NewConnector()
	if err != nil {
		return nil, err
	}
	return connector.Connect(ctx, ref)
}

// MustConnect connects to the daemon or fails.
func (c *Config) MustConnect(ctx context.Context) l1.ControllerConn {
	conn, err := c.Connect(ctx)
	if err != nil {
		log.Fatalln(err)
	}
	return conn
}
