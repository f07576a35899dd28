package link

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/robotalks/dshot.go/pkg/l0/dshot"
)

// Defaults
const (
	DefaultArmFrames   = 2000
	DefaultArmInterval = time.Millisecond
	DefaultKeepAlive   = 10 * time.Millisecond
	DefaultSmoothing   = 0.25
)

var (
	// ErrInvalidConfig indicates the configuration is rejected.
	ErrInvalidConfig = errors.New("invalid link config")
)

// Trailer is a burst of frames sent after the arming run.
type Trailer struct {
	Kind    string `yaml:"kind"`
	Value   int    `yaml:"value"`
	Enabled bool   `yaml:"enabled"`
	Frames  int    `yaml:"frames"`
}

// Command builds the trailer command.
func (t *Trailer) Command() (dshot.Command, error) {
	return dshot.ParseCommand(t.Kind, t.Value, t.Enabled)
}

// Config defines a link.
type Config struct {
	Name              string     `yaml:"name"`
	Rate              dshot.Rate `yaml:"rate"`
	Bidirectional     bool       `yaml:"bidirectional"`
	ExtendedTelemetry bool       `yaml:"extended-telemetry"`
	InvertedChecksum  bool       `yaml:"inverted-checksum"`

	ArmFrames   int           `yaml:"arm-frames"`
	ArmInterval time.Duration `yaml:"arm-interval"`
	ArmTrailer  *Trailer      `yaml:"arm-trailer"`

	// KeepAlive is the cadence of Run, it must stay below the command
	// timeout of the ESC firmware.
	KeepAlive time.Duration `yaml:"keep-alive"`
	// Smoothing is the weight of a new throttle sample.
	Smoothing float64 `yaml:"smoothing"`
}

var defaultConfig = Config{
	Rate:        dshot.DefaultRate,
	ArmFrames:   DefaultArmFrames,
	ArmInterval: DefaultArmInterval,
	KeepAlive:   DefaultKeepAlive,
	Smoothing:   DefaultSmoothing,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.Var(&defaultConfig.Rate, "rate", "DShot rate: 150, 300 or 600.")
	flag.BoolVar(&defaultConfig.Bidirectional, "bidir", defaultConfig.Bidirectional, "Bidirectional DShot with telemetry.")
	flag.BoolVar(&defaultConfig.ExtendedTelemetry, "edt", defaultConfig.ExtendedTelemetry, "Enable extended telemetry when configured.")
	flag.BoolVar(&defaultConfig.InvertedChecksum, "inverted-crc", defaultConfig.InvertedChecksum, "Complement the frame checksum, required by -bidir.")
	flag.IntVar(&defaultConfig.ArmFrames, "arm-frames", defaultConfig.ArmFrames, "Number of MotorStop frames to arm the ESC.")
	flag.DurationVar(&defaultConfig.ArmInterval, "arm-interval", defaultConfig.ArmInterval, "Interval between arming frames.")
	flag.DurationVar(&defaultConfig.KeepAlive, "keep-alive", defaultConfig.KeepAlive, "Interval of re-sending the steady command.")
	flag.Float64Var(&defaultConfig.Smoothing, "smoothing", defaultConfig.Smoothing, "Weight (0-1] of a new throttle sample.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates the default configuration.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if !c.Rate.IsValid() {
		return fmt.Errorf("%w: rate %d", ErrInvalidConfig, uint(c.Rate))
	}
	if c.Bidirectional && !c.InvertedChecksum {
		return fmt.Errorf("%w: bidirectional requires inverted checksum", ErrInvalidConfig)
	}
	if c.ArmFrames < 0 {
		return fmt.Errorf("%w: negative arm frames", ErrInvalidConfig)
	}
	if c.ArmInterval < 0 || c.KeepAlive < 0 {
		return fmt.Errorf("%w: negative interval", ErrInvalidConfig)
	}
	if c.Smoothing < 0 || c.Smoothing > 1 {
		return fmt.Errorf("%w: smoothing %v out of range", ErrInvalidConfig, c.Smoothing)
	}
	if t := c.ArmTrailer; t != nil {
		if t.Frames < 0 {
			return fmt.Errorf("%w: negative trailer frames", ErrInvalidConfig)
		}
		if _, err := t.Command(); err != nil {
			return fmt.Errorf("%w: arm trailer: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}
