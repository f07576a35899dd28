package controller

import (
	"flag"
	"fmt"
	"log"
	"os"

	fx "github.com/robotalks/dshot.go/pkg/framework"
	"github.com/robotalks/dshot.go/pkg/l1"
	"github.com/robotalks/dshot.go/pkg/l1/comm"
	"github.com/robotalks/dshot.go/pkg/l1/comm/mqtt"
	"github.com/robotalks/dshot.go/pkg/l1/comm/stream"
	"github.com/robotalks/dshot.go/pkg/l1/comm/websocket"
	"github.com/robotalks/dshot.go/pkg/l1/env"
)

// ControllerType is the type of the daemon in the registry.
const ControllerType = "dshot"

// Config provides common options to setup an env for the daemon.
type Config struct {
	Info l1.ControllerInfo

	// MQTTBrokerURL specifies the MQTT broker to use.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
	// ListenAddr serves length-prefixed packets over TCP.
	ListenAddr string
	// WebSocketAddr serves packets over websocket.
	WebSocketAddr string
	// ConfigFile is the YAML file of motors, one simulated motor if empty.
	ConfigFile string
}

var defaultConfig = Config{
	Info:          l1.ControllerInfo{Ref: l1.ControllerRef{Type: ControllerType}},
	MQTTBrokerURL: "mqtt://localhost:1883/dshot/",
}

func init() {
	defaultConfig.Info.Ref.ID = env.MachineID()
	if val := os.Getenv("DSHOT_ID"); val != "" {
		defaultConfig.Info.Ref.ID = val
	}
	if val, ok := os.LookupEnv("DSHOT_MQTT_URL"); ok {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("DSHOT_LISTEN"); val != "" {
		defaultConfig.ListenAddr = val
	}
	if val := os.Getenv("DSHOT_WS_LISTEN"); val != "" {
		defaultConfig.WebSocketAddr = val
	}
	if val := os.Getenv("DSHOT_CONFIG"); val != "" {
		defaultConfig.ConfigFile = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Info.Ref.ID, "id", defaultConfig.Info.Ref.ID, "Controller ID")
	flag.StringVar(&defaultConfig.Info.Meta.Description, "desc", defaultConfig.Info.Meta.Description, "Controller description")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL, empty to disable")
	flag.StringVar(&defaultConfig.ListenAddr, "listen", defaultConfig.ListenAddr, "TCP address to serve remote control")
	flag.StringVar(&defaultConfig.WebSocketAddr, "ws", defaultConfig.WebSocketAddr, "HTTP address to serve remote control over websocket")
	flag.StringVar(&defaultConfig.ConfigFile, "config", defaultConfig.ConfigFile, "YAML file of motors")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// Env is the env for the daemon.
type Env struct {
	Config       *Config
	File         *env.File
	RegistryURLs []string
	Registrar    *comm.RegistrarMux
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// LoadFile loads the motors.
func (c *Config) LoadFile() (*env.File, error) {
	if c.ConfigFile == "" {
		return env.SingleMotor(), nil
	}
	return env.LoadFile(c.ConfigFile)
}

// NewEnv creates Env from config.
func (c *Config) NewEnv() (*Env, error) {
	if !c.Info.Ref.IsValid() {
		return nil, fmt.Errorf("controller type and id must be specified")
	}
	file, err := c.LoadFile()
	if err != nil {
		return nil, err
	}
	e := &Env{
		Config:    c,
		File:      file,
		Registrar: &comm.RegistrarMux{},
	}
	if e.Config.Info.Meta.Labels == nil {
		e.Config.Info.Meta.Labels = make(map[string]string)
	}
	e.Config.Info.Meta.Labels["motors"] = fmt.Sprintf("%d", len(file.Motors))
	e.Config.Info.Meta.Labels["backend"] = file.Backend.Kind
	if c.MQTTBrokerURL != "" {
		reg, err := mqtt.NewRegistrar(c.MQTTBrokerURL, c.Info)
		if err != nil {
			return nil, fmt.Errorf("create MQTT registrar error: %v", err)
		}
		e.Registrar.Add(reg)
		e.RegistryURLs = append(e.RegistryURLs, c.MQTTBrokerURL)
	}
	if c.ListenAddr != "" {
		e.Registrar.Add(stream.NewServer(c.ListenAddr))
		e.RegistryURLs = append(e.RegistryURLs, "tcp://"+c.ListenAddr)
	}
	if c.WebSocketAddr != "" {
		e.Registrar.Add(websocket.NewServer(c.WebSocketAddr))
		e.RegistryURLs = append(e.RegistryURLs, "ws://"+c.WebSocketAddr+websocket.DefaultPath)
	}
	if len(e.Registrar.Registrars) == 0 {
		return nil, fmt.Errorf("at least one of -mqtt, -listen or -ws is required")
	}
	return e, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	e, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return e
}

// AddToLoop adds controllers/runners to loop.
func (e *Env) AddToLoop(loop *fx.Loop) {
	loop.Add(e.Registrar)
	loop.Add(&comm.UnsupportedCommands{})
}
