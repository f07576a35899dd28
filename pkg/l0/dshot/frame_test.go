package dshot

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	testCases := []struct {
		name      string
		code      CommandCode
		telemetry bool
		inverted  bool
		expect    Frame
	}{
		{"motor stop", 0, false, false, 0x0000},
		{"throttle 0", 48, false, false, 0x0606},
		{"motor stop inverted", 0, false, true, 0x000f},
		{"throttle 0 inverted", 48, false, true, 0x0609},
		{"beep with telemetry", 1, true, false, 0x0033},
		{"max", 2047, true, false, 0xffff},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			frame := Build(tc.code, tc.telemetry, tc.inverted)
			require.Equal(t, tc.expect, frame)
			require.Equal(t, tc.code, frame.Code())
			require.Equal(t, tc.telemetry, frame.Telemetry())
			require.True(t, frame.Valid(tc.inverted))
		})
	}
}

func TestBuildThrottleVector(t *testing.T) {
	code, err := Encode(Throttle(0))
	require.NoError(t, err)
	require.Equal(t, CommandCode(48), code)
	require.Equal(t, uint16(0x6), Checksum(0x60, false))
	require.Equal(t, Frame(0x606), Build(code, false, false))
}

func TestChecksumAllCodes(t *testing.T) {
	for code := CommandCode(0); code <= CodeMax; code++ {
		for _, telemetry := range []bool{false, true} {
			frame := Build(code, telemetry, false)
			payload := uint16(frame) >> 4
			crc := payload ^ (payload >> 4) ^ (payload >> 8)
			require.Equal(t, crc&0xf, frame.Checksum())
			require.False(t, frame.Valid(true))

			inverted := Build(code, telemetry, true)
			require.Equal(t, ^crc&0xf, inverted.Checksum())
			require.Equal(t, uint16(frame)>>4, uint16(inverted)>>4)
			require.True(t, inverted.Valid(true))
		}
	}
}
