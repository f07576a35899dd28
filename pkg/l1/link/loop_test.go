package link

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/dshot.go/pkg/framework"
	"github.com/robotalks/dshot.go/pkg/l0/dshot"
	"github.com/robotalks/dshot.go/pkg/sim/esc"
)

func TestAddToLoop(t *testing.T) {
	c, sim := newLink(t, testConfig(false), esc.Config{ArmFrames: 10})
	c.Cell = &ThrottleCell{}
	c.Cell.Store(77)
	loop := fx.NewLoop()
	loop.Interval = time.Millisecond
	loop.Add(c)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- loop.Run(ctx)
	}()
	require.Eventually(t, func() bool {
		return sim.State().Throttle == dshot.Throttle(77)
	}, time.Second, time.Millisecond)
	require.Equal(t, Streaming, c.State())
	cancel()
	require.Equal(t, context.Canceled, <-done)
}
