package env

import (
	"fmt"
	"io/ioutil"

	"gopkg.in/yaml.v2"

	"github.com/robotalks/dshot.go/pkg/l1/link"
	"github.com/robotalks/dshot.go/pkg/sim/esc"
)

// Backend kinds.
const (
	BackendSim    = "sim"
	BackendSerial = "serial"
)

// Backend selects what drives the lines.
type Backend struct {
	// Kind is BackendSim or BackendSerial.
	Kind string `yaml:"kind"`
	// Device and Baud open the serial bridge.
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
	// Sim configures each simulated ESC.
	Sim esc.Config `yaml:"sim"`
}

// Motor is a link on a bridge channel, with an optional throttle sweep
// started once armed.
type Motor struct {
	link.Config `yaml:",inline"`
	Channel     uint8       `yaml:"channel"`
	Sweep       *link.Sweep `yaml:"sweep"`
}

// UnmarshalYAML starts from the link defaults, so a motor only lists
// what differs.
func (m *Motor) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type plain Motor
	p := plain{Config: *link.Default()}
	if err := unmarshal(&p); err != nil {
		return err
	}
	*m = Motor(p)
	return nil
}

// File is the YAML configuration of the daemon.
//
//	backend:
//	  kind: serial
//	  device: /dev/ttyACM0
//	motors:
//	- name: front
//	  channel: 0
//	  rate: 600
//	  bidirectional: true
//	  inverted-checksum: true
type File struct {
	Backend Backend `yaml:"backend"`
	Motors  []Motor `yaml:"motors"`
}

// ParseFile parses the YAML content and validates it.
func ParseFile(data []byte) (*File, error) {
	var f File
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, err
	}
	f.applyDefaults()
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// LoadFile loads the configuration from path.
func LoadFile(path string) (*File, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := ParseFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// SingleMotor is the configuration without a file: one simulated motor
// using the link flags.
func SingleMotor() *File {
	f := &File{
		Backend: Backend{Kind: BackendSim},
		Motors:  []Motor{{Config: *link.Default()}},
	}
	f.applyDefaults()
	return f
}

func (f *File) applyDefaults() {
	if f.Backend.Kind == "" {
		f.Backend.Kind = BackendSim
	}
	for i := range f.Motors {
		if f.Motors[i].Name == "" {
			f.Motors[i].Name = fmt.Sprintf("m%d", i)
		}
	}
}

// Validate checks the configuration.
func (f *File) Validate() error {
	switch f.Backend.Kind {
	case BackendSim:
	case BackendSerial:
		if f.Backend.Device == "" {
			return fmt.Errorf("serial backend requires a device")
		}
	default:
		return fmt.Errorf("unknown backend %q", f.Backend.Kind)
	}
	if len(f.Motors) == 0 {
		return fmt.Errorf("no motors")
	}
	names := make(map[string]bool)
	channels := make(map[uint8]bool)
	for i := range f.Motors {
		m := &f.Motors[i]
		if names[m.Name] {
			return fmt.Errorf("duplicated motor %q", m.Name)
		}
		names[m.Name] = true
		if f.Backend.Kind == BackendSerial {
			if channels[m.Channel] {
				return fmt.Errorf("motor %q: channel %d already used", m.Name, m.Channel)
			}
			channels[m.Channel] = true
		}
		if err := m.Config.Validate(); err != nil {
			return fmt.Errorf("motor %q: %w", m.Name, err)
		}
	}
	return nil
}
