// Package motors exposes a set of links as an L1 controller.
//
// Remote commands arrive in the loop as l1.CommandMsg. Short commands are
// answered within the iteration, arming replies when the burst completes.
// Telemetry reports of every link are published as events through the
// Registrar, outside the loop so a slow transport never delays a frame.
package motors

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/dshot.go/pkg/framework"
	"github.com/robotalks/dshot.go/pkg/l0/dshot"
	"github.com/robotalks/dshot.go/pkg/l1"
	"github.com/robotalks/dshot.go/pkg/l1/link"
	"github.com/robotalks/dshot.go/pkg/l1/msgs"
	"github.com/robotalks/dshot.go/pkg/l1/telemetry"
)

// DefaultBacklog is the number of telemetry reports buffered for publishing.
const DefaultBacklog = 256

// Controller is the L1 controller of a set of links.
type Controller struct {
	Registrar l1.Registrar

	links   map[string]*link.Controller
	names   []string
	reports chan telemetry.Report
	dropped uint64

	lock   sync.Mutex
	sweeps map[string]*sweeping
}

type sweeping struct {
	sweep  *link.Sweep
	cancel context.CancelFunc
}

// New creates a Controller. Links are hooked to publish their telemetry.
func New(reg l1.Registrar, links ...*link.Controller) *Controller {
	c := &Controller{
		Registrar: reg,
		links:     make(map[string]*link.Controller),
		reports:   make(chan telemetry.Report, DefaultBacklog),
		sweeps:    make(map[string]*sweeping),
	}
	for _, lnk := range links {
		c.links[lnk.Name()] = lnk
		c.names = append(c.names, lnk.Name())
		if lnk.Consumer != nil {
			lnk.Consumer = telemetry.Consumers{lnk.Consumer, c}
		} else {
			lnk.Consumer = c
		}
	}
	sort.Strings(c.names)
	return c
}

// Link finds a link by name.
func (c *Controller) Link(name string) (*link.Controller, error) {
	if lnk := c.links[name]; lnk != nil {
		return lnk, nil
	}
	return nil, msgs.ErrUnknownMotor
}

// Dropped returns the number of reports not published for lack of backlog.
func (c *Controller) Dropped() uint64 {
	return atomic.LoadUint64(&c.dropped)
}

// ConsumeTelemetry implements telemetry.Consumer.
func (c *Controller) ConsumeTelemetry(r telemetry.Report) {
	select {
	case c.reports <- r:
	default:
		if n := atomic.AddUint64(&c.dropped, 1); n%DefaultBacklog == 1 {
			glog.Warningf("telemetry backlog full, %d reports dropped", n)
		}
	}
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvControl, c)
}

// Run implements Runnable, it publishes telemetry.
func (c *Controller) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r := <-c.reports:
			if c.Registrar == nil {
				continue
			}
			if err := c.Registrar.SendEvent(ctx, msgs.NewTelemetryReport(r)); err != nil {
				glog.V(2).Infof("publish telemetry %s#%d: %v", r.Motor, r.Seq, err)
			}
		}
	}
}

// Control implements Controller.
func (c *Controller) Control(cc fx.ControlContext) error {
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		cmdMsg, ok := mctx.CurrentMessage().(*l1.CommandMsg)
		if !ok {
			return
		}
		var reply fx.Message
		switch m := cmdMsg.Command.Msg().(type) {
		case *msgs.MotorCommand:
			reply = c.command(cc.Context(), m)
		case *msgs.MotorStatusQuery:
			reply = c.status(m)
		case *msgs.MotorSweep:
			reply = c.sweep(cc.Context(), m)
		case *msgs.MotorArm:
			mctx.MessageTaken()
			c.arm(cc.Context(), m, cmdMsg.Command)
			return
		default:
			return
		}
		mctx.MessageTaken()
		if err := cmdMsg.Command.Done(reply); err != nil {
			glog.Warningf("reply %T: %v", reply, err)
		}
	}))
	return nil
}

func (c *Controller) command(ctx context.Context, m *msgs.MotorCommand) fx.Message {
	lnk, err := c.Link(m.Motor)
	if err != nil {
		return msgs.NewCommandErr(err)
	}
	cmd, err := m.Command()
	if err != nil {
		return msgs.NewCommandErr(err)
	}
	switch cmd.(type) {
	case dshot.MotorStop, dshot.Throttle:
		// an explicit throttle takes over from a sweep.
		c.stopSweep(m.Motor)
		lnk.Attach(nil)
	}
	report, err := lnk.Send(ctx, cmd)
	if err != nil {
		return msgs.NewCommandErr(err)
	}
	reply := &msgs.CommandReply{Motor: m.Motor, State: lnk.State().String()}
	if lnk.Config.Bidirectional {
		reply.Telemetry = msgs.NewTelemetryReport(report)
	}
	return reply
}

func (c *Controller) arm(ctx context.Context, m *msgs.MotorArm, cmd l1.Command) {
	lnk, err := c.Link(m.Motor)
	if err != nil {
		cmd.Done(msgs.NewCommandErr(err))
		return
	}
	c.stopSweep(m.Motor)
	go func() {
		var reply fx.Message = msgs.NewCommandOK()
		if err := lnk.Arm(ctx); err != nil {
			reply = msgs.NewCommandErr(err)
		}
		if err := cmd.Done(reply); err != nil {
			glog.Warningf("reply arm %s: %v", m.Motor, err)
		}
	}()
}

func (c *Controller) status(m *msgs.MotorStatusQuery) fx.Message {
	names := c.names
	if m.Motor != "" {
		if _, err := c.Link(m.Motor); err != nil {
			return msgs.NewCommandErr(err)
		}
		names = []string{m.Motor}
	}
	list := &msgs.MotorStatusList{}
	for _, name := range names {
		list.Motors = append(list.Motors, Status(c.links[name]))
	}
	return list
}

// Status summarizes a link.
func Status(lnk *link.Controller) *msgs.MotorStatus {
	stats := lnk.Stats()
	return &msgs.MotorStatus{
		Motor:    lnk.Name(),
		State:    lnk.State().String(),
		Steady:   lnk.Steady().String(),
		Frames:   stats.Frames,
		Stalls:   stats.Stalls,
		Received: stats.Telemetry.Received,
		Absent:   stats.Telemetry.Absent,
		Partial:  stats.Telemetry.Partial,
	}
}

func (c *Controller) sweep(ctx context.Context, m *msgs.MotorSweep) fx.Message {
	lnk, err := c.Link(m.Motor)
	if err != nil {
		return msgs.NewCommandErr(err)
	}
	c.stopSweep(m.Motor)
	if m.Max <= 0 {
		lnk.Attach(nil)
		return msgs.NewCommandOK()
	}
	if !lnk.State().Armed() {
		return msgs.NewCommandErr(link.ErrNotArmed)
	}
	s := &link.Sweep{
		Cell:   &link.ThrottleCell{},
		Min:    int(m.Min),
		Max:    int(m.Max),
		Step:   int(m.Step),
		Period: time.Duration(m.PeriodMs) * time.Millisecond,
	}
	c.StartSweep(ctx, lnk, s)
	return msgs.NewCommandOK()
}

// StartSweep attaches the sweep's cell to the link and runs it until
// stopped or ctx is done.
func (c *Controller) StartSweep(ctx context.Context, lnk *link.Controller, s *link.Sweep) {
	if s.Cell == nil {
		s.Cell = &link.ThrottleCell{}
	}
	c.stopSweep(lnk.Name())
	sctx, cancel := context.WithCancel(ctx)
	c.lock.Lock()
	c.sweeps[lnk.Name()] = &sweeping{sweep: s, cancel: cancel}
	c.lock.Unlock()
	lnk.Attach(s.Cell)
	go s.Run(sctx)
}

// Sweeping indicates a sweep is running on the motor.
func (c *Controller) Sweeping(name string) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.sweeps[name] != nil
}

func (c *Controller) stopSweep(name string) {
	c.lock.Lock()
	s := c.sweeps[name]
	delete(c.sweeps, name)
	c.lock.Unlock()
	if s != nil {
		s.cancel()
	}
}

// SweepWhenArmed returns a runner starting the sweep on the link once it's
// armed.
func (c *Controller) SweepWhenArmed(lnk *link.Controller, s *link.Sweep) fx.Runnable {
	return fx.NamedRun(lnk.Name()+"/sweep", fx.RunFunc(func(ctx context.Context) error {
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for !lnk.State().Armed() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
		glog.Infof("%s: sweep %d-%d", lnk.Name(), s.Min, s.Max)
		c.StartSweep(ctx, lnk, s)
		<-ctx.Done()
		return ctx.Err()
	}))
}
