package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"

	"github.com/golang/glog"

	fx "github.com/robotalks/dshot.go/pkg/framework"
	env "github.com/robotalks/dshot.go/pkg/l1/env/controller"
	"github.com/robotalks/dshot.go/pkg/l1/link"
	"github.com/robotalks/dshot.go/pkg/l1/motors"
)

func init() {
	env.SetupFlags()
	link.SetupFlags()
}

func main() {
	flag.Parse()

	e := env.NewConfig().MustNewEnv()
	hw, err := e.File.Open()
	if err != nil {
		log.Fatalln(err)
	}
	defer hw.Close()

	ctl := motors.New(e.Registrar, hw.Links...)
	loop := fx.NewLoop()
	loop.Interval = hw.KeepAlive()
	loop.Add(e, hw, ctl)
	for i, m := range e.File.Motors {
		if m.Sweep != nil {
			loop.AddRunnable(ctl.SweepWhenArmed(hw.Links[i], m.Sweep))
		}
	}

	glog.Infof("%s: %d motors on %s, serving %v",
		e.Config.Info.Ref.Name(), len(hw.Links), e.File.Backend.Kind, e.RegistryURLs)
	if err := fx.NewRunner().HandleSignals().Go(loop).Wait(); err != nil {
		glog.Errorf("exit: %v", err)
	}
	glog.Flush()
}
