package joystick

import (
	"flag"

	"github.com/robotalks/dshot.go/pkg/joystick/device"
	"github.com/robotalks/dshot.go/pkg/l0/dshot"
)

// Config maps joystick controls onto one motor.
type Config struct {
	DeviceIndex int
	Verbose     bool

	Motor string
	Axis  int
	// Invert treats pushing the stick forward, which reports negative
	// values on most gamepads, as positive throttle.
	Invert bool
	// Deadzone is the axis magnitude below which the motor is stopped.
	Deadzone int
	// MaxThrottle is the throttle at full deflection.
	MaxThrottle int

	ArmButton  int
	StopButton int
}

var defaultConfig = Config{
	DeviceIndex: -1,
	Motor:       "m0",
	Axis:        1,
	Invert:      true,
	Deadzone:    2000,
	MaxThrottle: dshot.ThrottleMax / 2,
	ArmButton:   0,
	StopButton:  1,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.IntVar(&defaultConfig.DeviceIndex, "device", defaultConfig.DeviceIndex, "Joystick index, -1 for auto detection.")
	flag.BoolVar(&defaultConfig.Verbose, "verbose", defaultConfig.Verbose, "Log joystick events.")
	flag.StringVar(&defaultConfig.Motor, "motor", defaultConfig.Motor, "Motor to drive.")
	flag.IntVar(&defaultConfig.Axis, "axis", defaultConfig.Axis, "Throttle axis.")
	flag.BoolVar(&defaultConfig.Invert, "invert", defaultConfig.Invert, "Invert the throttle axis.")
	flag.IntVar(&defaultConfig.Deadzone, "deadzone", defaultConfig.Deadzone, "Axis deadzone.")
	flag.IntVar(&defaultConfig.MaxThrottle, "max-throttle", defaultConfig.MaxThrottle, "Throttle at full deflection.")
	flag.IntVar(&defaultConfig.ArmButton, "arm-button", defaultConfig.ArmButton, "Button to arm the motor, -1 to disable.")
	flag.IntVar(&defaultConfig.StopButton, "stop-button", defaultConfig.StopButton, "Button to stop the motor, -1 to disable.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Throttle maps an axis position to a throttle, 0 means stop.
func (c *Config) Throttle(val int) int {
	if c.Invert {
		val = -val
	}
	if val <= c.Deadzone {
		return 0
	}
	span := device.AxisMax - c.Deadzone
	if span <= 0 {
		return c.MaxThrottle
	}
	t := 1 + (val-c.Deadzone)*(c.MaxThrottle-1)/span
	if t > c.MaxThrottle {
		t = c.MaxThrottle
	}
	return t
}
