package link

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/dshot.go/pkg/l0/dshot"
)

func TestConfigValidate(t *testing.T) {
	testCases := []struct {
		name  string
		setup func(*Config)
		valid bool
	}{
		{"default", func(*Config) {}, true},
		{"bidir", func(c *Config) { c.Bidirectional, c.InvertedChecksum = true, true }, true},
		{"bidir-normal-crc", func(c *Config) { c.Bidirectional = true }, false},
		{"rate", func(c *Config) { c.Rate = 1200 }, false},
		{"arm-frames", func(c *Config) { c.ArmFrames = -1 }, false},
		{"smoothing", func(c *Config) { c.Smoothing = 1.5 }, false},
		{"trailer", func(c *Config) { c.ArmTrailer = &Trailer{Kind: "reverse", Frames: 10} }, true},
		{"trailer-invalid", func(c *Config) { c.ArmTrailer = &Trailer{Kind: "beep", Value: 9, Frames: 1} }, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			conf := NewConfig()
			tc.setup(conf)
			err := conf.Validate()
			if tc.valid {
				require.NoError(t, err)
			} else {
				require.True(t, errors.Is(err, ErrInvalidConfig))
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	conf := NewConfig()
	require.Equal(t, dshot.DShot300, conf.Rate)
	require.Equal(t, DefaultArmFrames, conf.ArmFrames)
	conf.ArmFrames = 1
	require.Equal(t, DefaultArmFrames, Default().ArmFrames)
}

func TestLinkStateString(t *testing.T) {
	require.Equal(t, "idle", Idle.String())
	require.Equal(t, "stalled", Stalled.String())
	require.Equal(t, "unknown", LinkState(42).String())
	require.False(t, Configuring.Armed())
	require.True(t, Streaming.Armed())
}
