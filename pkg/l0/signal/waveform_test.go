package signal

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/dshot.go/pkg/l0/dshot"
)

func TestEncodeDuration(t *testing.T) {
	for _, frame := range []dshot.Frame{0, 0xffff, 0x0606, 0x5a5a} {
		for _, idle := range []Level{Low, High} {
			w := Encode(frame, idle)
			require.Equal(t, dshot.FrameTicks, w.Ticks())
			require.Len(t, w, 2*dshot.FrameBits)
			require.Equal(t, idle, w[len(w)-1].Level)
		}
	}
}

func TestEncodeDutyCycle(t *testing.T) {
	w := Encode(0x8000, Low)
	require.Equal(t, Pulse{Level: High, Ticks: dshot.TicksActiveOne}, w[0])
	require.Equal(t, Pulse{Level: Low, Ticks: dshot.TicksPerBit - dshot.TicksActiveOne}, w[1])
	for i := 2; i < len(w); i += 2 {
		require.Equal(t, Pulse{Level: High, Ticks: dshot.TicksActiveZero}, w[i])
	}
}

func TestEncodeInverted(t *testing.T) {
	w := Encode(0x0001, High)
	require.Equal(t, Pulse{Level: Low, Ticks: dshot.TicksActiveZero}, w[0])
	last := w[len(w)-2]
	require.Equal(t, Pulse{Level: Low, Ticks: dshot.TicksActiveOne}, last)
}

func TestDecode(t *testing.T) {
	for _, inverted := range []bool{false, true} {
		idle := Level(inverted)
		for code := dshot.CommandCode(0); code <= dshot.CodeMax; code += 7 {
			frame := dshot.Build(code, code&1 != 0, inverted)
			decoded, err := Decode(Encode(frame, idle), idle)
			require.NoError(t, err)
			require.Equal(t, frame, decoded)
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	testCases := []struct {
		name string
		w    Waveform
	}{
		{"empty", nil},
		{"short", Encode(0x1234, Low)[:10]},
		{"stuck", Waveform{{Level: High, Ticks: dshot.FrameTicks}}},
		{"long", append(Encode(0x1234, Low), Pulse{Level: High, Ticks: 10})},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.w, Low)
			require.Equal(t, ErrMalformedWaveform, err)
		})
	}
}
