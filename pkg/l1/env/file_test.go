package env

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/dshot.go/pkg/l0/dshot"
	"github.com/robotalks/dshot.go/pkg/l1/link"
)

func TestParseFile(t *testing.T) {
	f, err := ParseFile([]byte(`
backend:
  kind: sim
  sim:
    arm-frames: 10
    timeout: 100ms
motors:
- name: front
  rate: 600
  bidirectional: true
  inverted-checksum: true
  arm-trailer:
    kind: reverse
    enabled: false
    frames: 10
- channel: 1
  keep-alive: 5ms
  sweep:
    min: 100
    max: 400
    step: 20
    period: 50ms
`))
	require.NoError(t, err)
	require.Equal(t, BackendSim, f.Backend.Kind)
	require.Equal(t, 10, f.Backend.Sim.ArmFrames)
	require.Equal(t, 100*time.Millisecond, f.Backend.Sim.Timeout)
	require.Len(t, f.Motors, 2)

	front := f.Motors[0]
	require.Equal(t, "front", front.Name)
	require.Equal(t, dshot.DShot600, front.Rate)
	require.True(t, front.Bidirectional)
	require.Equal(t, link.DefaultArmFrames, front.ArmFrames)
	require.Equal(t, &link.Trailer{Kind: dshot.KindReverse, Frames: 10}, front.ArmTrailer)
	require.Nil(t, front.Sweep)

	m1 := f.Motors[1]
	require.Equal(t, "m1", m1.Name)
	require.Equal(t, uint8(1), m1.Channel)
	require.Equal(t, dshot.DefaultRate, m1.Rate)
	require.Equal(t, 5*time.Millisecond, m1.KeepAlive)
	require.NotNil(t, m1.Sweep)
	require.Equal(t, 400, m1.Sweep.Max)
	require.Equal(t, 50*time.Millisecond, m1.Sweep.Period)
}

func TestParseFileInvalid(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
	}{
		{"no motors", "backend: {kind: sim}"},
		{"unknown backend", "backend: {kind: can}\nmotors: [{name: a}]"},
		{"serial without device", "backend: {kind: serial}\nmotors: [{name: a}]"},
		{"duplicated name", "motors: [{name: a}, {name: a}]"},
		{"duplicated channel", "backend: {kind: serial, device: /dev/null}\nmotors: [{name: a}, {name: b}]"},
		{"bidir without inverted checksum", "motors: [{name: a, bidirectional: true}]"},
		{"bad rate", "motors: [{name: a, rate: 1200}]"},
		{"unknown field", "motors: [{name: a, speed: 3}]"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseFile([]byte(tc.yaml))
			require.Error(t, err)
		})
	}
}

func TestSingleMotorSim(t *testing.T) {
	f := SingleMotor()
	require.NoError(t, f.Validate())
	hw, err := f.Open()
	require.NoError(t, err)
	defer hw.Close()
	require.Len(t, hw.Links, 1)
	require.Equal(t, "m0", hw.Links[0].Name())
	require.NotNil(t, hw.Sims["m0"])
	require.Nil(t, hw.Port)
}

func TestHardwareStopAll(t *testing.T) {
	f := SingleMotor()
	f.Motors[0].ArmFrames = 20
	f.Motors[0].KeepAlive = 2 * time.Millisecond
	hw, err := f.Open()
	require.NoError(t, err)
	require.Equal(t, 2*time.Millisecond, hw.KeepAlive())

	lnk := hw.Links[0]
	ctx := context.Background()
	require.NoError(t, lnk.Configure(ctx))
	require.NoError(t, lnk.Arm(ctx))
	_, err = lnk.Throttle(ctx, 300)
	require.NoError(t, err)
	require.Equal(t, link.Streaming, lnk.State())

	hw.StopAll()
	require.Equal(t, link.Idle, lnk.State())
	require.Zero(t, hw.Sims["m0"].State().Throttle)
}
