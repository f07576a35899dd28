package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/dshot.go/pkg/l0/dshot"
)

func sequence() []uint8 {
	nibbles := make([]uint8, dshot.ReplyGroups)
	for i := range nibbles {
		nibbles[i] = uint8(i+1) & 0xf
	}
	return nibbles
}

func TestAssemble(t *testing.T) {
	var r Receiver
	f, ok := r.Assemble(sequence())
	require.True(t, ok)
	require.Equal(t, Frame{0x00001234, 0x56789abc, 0xdef01234}, f)
	require.Equal(t, sequence(), f.Nibbles())
	require.Equal(t, "00001234 56789abc def01234", f.String())
	require.Equal(t, Stats{Received: 1}, r.Stats())
}

func TestAssembleAbsent(t *testing.T) {
	testCases := []struct {
		name    string
		nibbles []uint8
		partial bool
	}{
		{"none", nil, false},
		{"partial", sequence()[:12], true},
		{"overrun", append(sequence(), 1), true},
		{"garbage", append(sequence()[:19], 0x10), true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var r Receiver
			f, ok := r.Assemble(tc.nibbles)
			require.False(t, ok)
			require.Equal(t, Frame{}, f)
			stats := r.Stats()
			require.Equal(t, uint64(1), stats.Absent)
			require.Zero(t, stats.Received)
			if tc.partial {
				require.Equal(t, uint64(1), stats.Partial)
			} else {
				require.Zero(t, stats.Partial)
			}
		})
	}
}

func TestConsumers(t *testing.T) {
	var got []Report
	ch := make(Chan, 1)
	c := Consumers{
		ConsumerFunc(func(r Report) { got = append(got, r) }),
		ch,
	}
	c.ConsumeTelemetry(Report{Motor: "m0", Seq: 1})
	c.ConsumeTelemetry(Report{Motor: "m0", Seq: 2})
	require.Len(t, got, 2)
	require.Equal(t, uint64(1), (<-ch).Seq)
	select {
	case r := <-ch:
		t.Fatalf("unexpected report %v", r)
	default:
	}
}

func TestReportString(t *testing.T) {
	require.Equal(t, "m0 #3 stalled: no reply",
		Report{Motor: "m0", Seq: 3, State: "stalled"}.String())
	require.Equal(t, "m0 #4 streaming: 00001234 56789abc def01234",
		Report{
			Motor:   "m0",
			Seq:     4,
			Present: true,
			State:   "streaming",
			Frame:   Frame{0x1234, 0x56789abc, 0xdef01234},
		}.String())
}
