package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"

	"github.com/golang/glog"

	fx "github.com/robotalks/dshot.go/pkg/framework"
	"github.com/robotalks/dshot.go/pkg/joystick"
	"github.com/robotalks/dshot.go/pkg/l1/comm"
	connenv "github.com/robotalks/dshot.go/pkg/l1/env/connector"
)

func init() {
	connenv.SetupFlags()
	joystick.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	ctx, cancel := context.WithTimeout(context.Background(), comm.DefaultCommandExpiration)
	conn := connenv.Default().MustConnect(ctx)
	cancel()

	loop := fx.NewLoop()
	if adder, ok := conn.(fx.LoopAdder); ok {
		loop.Add(adder)
	}
	loop.Add(joystick.NewController(joystick.Default(), conn))
	if err := fx.NewRunner().HandleSignals().Go(loop).Wait(); err != nil {
		glog.Errorf("exit: %v", err)
	}
}
