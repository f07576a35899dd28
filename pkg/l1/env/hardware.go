package env

import (
	"context"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/dshot.go/pkg/framework"
	"github.com/robotalks/dshot.go/pkg/l0/bridge"
	"github.com/robotalks/dshot.go/pkg/l0/dshot"
	"github.com/robotalks/dshot.go/pkg/l0/signal"
	"github.com/robotalks/dshot.go/pkg/l1/link"
	"github.com/robotalks/dshot.go/pkg/sim/esc"
)

// Hardware is the opened backend with a link per motor.
type Hardware struct {
	Links []*link.Controller
	// Sims is keyed by motor name with the sim backend.
	Sims map[string]*esc.ESC
	// Port is the serial bridge with the serial backend.
	Port *bridge.Port
}

// Open opens the backend and creates the links.
func (f *File) Open() (*Hardware, error) {
	hw := &Hardware{}
	var lineOf func(m *Motor) signal.Line
	switch f.Backend.Kind {
	case BackendSerial:
		port, err := bridge.OpenSerial(f.Backend.Device, f.Backend.Baud)
		if err != nil {
			return nil, err
		}
		glog.Infof("bridge opened on %s", f.Backend.Device)
		hw.Port = port
		lineOf = func(m *Motor) signal.Line { return port.Line(m.Channel) }
	default:
		hw.Sims = make(map[string]*esc.ESC)
		lineOf = func(m *Motor) signal.Line {
			conf := f.Backend.Sim
			conf.Rate = m.Rate
			if m.Bidirectional && conf.Reply == nil {
				conf.Reply = make([]uint8, dshot.ReplyGroups)
			}
			sim := esc.New(conf)
			hw.Sims[m.Name] = sim
			return sim
		}
	}
	for i := range f.Motors {
		m := &f.Motors[i]
		lnk, err := link.New(m.Config, lineOf(m))
		if err != nil {
			hw.Close()
			return nil, err
		}
		hw.Links = append(hw.Links, lnk)
	}
	return hw, nil
}

// StopTimeout bounds the final MotorStop of all links.
const StopTimeout = time.Second

// AddToLoop implements LoopAdder.
func (h *Hardware) AddToLoop(l *fx.Loop) {
	l.AddRunnable(fx.NamedRun("hardware", fx.RunFunc(h.run)))
	for _, lnk := range h.Links {
		l.Add(lnk)
	}
}

// run serves the bridge and stops all motors when ctx is done, before the
// bridge stops.
func (h *Hardware) run(ctx context.Context) error {
	portCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var errCh chan error
	if h.Port != nil {
		errCh = make(chan error, 1)
		go func() {
			errCh <- h.Port.Run(portCtx)
		}()
	}
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	h.StopAll()
	return ctx.Err()
}

// StopAll sends MotorStop to every armed link.
func (h *Hardware) StopAll() {
	ctx, cancel := context.WithTimeout(context.Background(), StopTimeout)
	defer cancel()
	for _, lnk := range h.Links {
		if !lnk.State().Armed() {
			continue
		}
		if _, err := lnk.Stop(ctx); err != nil {
			glog.Errorf("%s: stop: %v", lnk.Name(), err)
		}
	}
}

// KeepAlive is the shortest cadence of all links.
func (h *Hardware) KeepAlive() time.Duration {
	var d time.Duration
	for _, lnk := range h.Links {
		if ka := lnk.Config.KeepAlive; ka > 0 && (d == 0 || ka < d) {
			d = ka
		}
	}
	if d == 0 {
		d = link.DefaultKeepAlive
	}
	return d
}

// Close implements io.Closer.
func (h *Hardware) Close() error {
	if h.Port != nil {
		return h.Port.Close()
	}
	return nil
}
