package link

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/dshot.go/pkg/l0/dshot"
)

func TestThrottleCell(t *testing.T) {
	var c ThrottleCell
	require.Equal(t, dshot.Throttle(0), c.Load())
	c.Store(100)
	c.Store(300)
	require.Equal(t, dshot.Throttle(300), c.Load())
	c.Store(5000)
	require.Equal(t, dshot.Throttle(dshot.ThrottleMax), c.Load())
	c.Store(-3)
	require.Equal(t, dshot.Throttle(0), c.Load())
}

func TestSmoother(t *testing.T) {
	s := Smoother{Alpha: 0.5}
	require.Equal(t, dshot.Throttle(100), s.Next(100))
	require.Equal(t, dshot.Throttle(150), s.Next(200))
	require.Equal(t, dshot.Throttle(175), s.Next(200))
	var last dshot.Throttle
	for i := 0; i < 20; i++ {
		last = s.Next(200)
	}
	require.Equal(t, dshot.Throttle(200), last)

	s.Reset()
	require.Equal(t, dshot.Throttle(10), s.Next(10))
}

func TestSmootherPassThrough(t *testing.T) {
	for _, alpha := range []float64{0, 1, 2} {
		s := Smoother{Alpha: alpha}
		require.Equal(t, dshot.Throttle(10), s.Next(10))
		require.Equal(t, dshot.Throttle(900), s.Next(900))
	}
}

func TestSweep(t *testing.T) {
	s := Sweep{Min: 25, Max: 28}
	var values []int
	for i := 0; i < 9; i++ {
		values = append(values, s.Next())
	}
	require.Equal(t, []int{25, 26, 27, 28, 27, 26, 25, 26, 27}, values)

	s = Sweep{Min: 0, Max: 10, Step: 4}
	values = nil
	for i := 0; i < 6; i++ {
		values = append(values, s.Next())
	}
	require.Equal(t, []int{0, 4, 8, 10, 6, 2}, values)
}
