package dshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseRate(t *testing.T) {
	testCases := []struct {
		in     string
		expect Rate
		err    bool
	}{
		{"300", DShot300, false},
		{"dshot150", DShot150, false},
		{"DShot600", DShot600, false},
		{" dshot300 ", DShot300, false},
		{"1200", 0, true},
		{"fast", 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			r, err := ParseRate(tc.in)
			if tc.err {
				require.ErrorIs(t, err, ErrUnknownRate)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expect, r)
		})
	}
}

func TestTiming(t *testing.T) {
	require.Equal(t, uint64(12000000), DShot300.TickRate())

	timing := DShot300.Timing()
	require.Equal(t, 3333*time.Nanosecond, timing.BitPeriod)
	require.Equal(t, 2500*time.Nanosecond, timing.ActiveOne)
	require.Equal(t, 1250*time.Nanosecond, timing.ActiveZero)
	require.Equal(t, 106666*time.Nanosecond, timing.Frame)
	require.Equal(t, 26666*time.Nanosecond, timing.Guard)
	require.Equal(t, 30*time.Microsecond, timing.Window)

	require.Equal(t, 6666*time.Nanosecond, DShot150.Timing().BitPeriod)
	require.Equal(t, 1666*time.Nanosecond, DShot600.Timing().BitPeriod)
}

func TestDutyCycle(t *testing.T) {
	require.Equal(t, 3*TicksPerBit/4, TicksActiveOne)
	require.Equal(t, 3*TicksPerBit/8, TicksActiveZero)
	require.Equal(t, 8, ReplySampleTicks)
	require.Equal(t, 32, ReplySkipTicks)
}
