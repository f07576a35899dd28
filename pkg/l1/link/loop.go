package link

import (
	"context"

	fx "github.com/robotalks/dshot.go/pkg/framework"
)

// AddToLoop implements LoopAdder. Configuring and arming run in the
// background, then every loop iteration is a cadence tick.
func (c *Controller) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvOutput, fx.ControlFunc(c.control))
	l.AddRunnable(fx.NamedRun(c.Name()+"/arm", fx.RunFunc(c.prepare)))
}

func (c *Controller) prepare(ctx context.Context) error {
	if err := c.Configure(ctx); err != nil && err != ErrAlreadyConfigured {
		return err
	}
	return c.Arm(ctx)
}

func (c *Controller) control(cc fx.ControlContext) error {
	return c.Tick(cc.Context())
}
