// Package motor provides shell commands driving the motors of a daemon.
package motor

import (
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/dshot.go/pkg/cli/sh"
	"github.com/robotalks/dshot.go/pkg/l0/dshot"
	"github.com/robotalks/dshot.go/pkg/l1/msgs"
)

// args checks the count of arguments.
func args(c *ishell.Context, usage string, min int) bool {
	if len(c.Args) < min {
		c.Err(fmt.Errorf("usage: %s %s", c.Cmd.Name, usage))
		return false
	}
	return true
}

func intArg(c *ishell.Context, index int, name string) (int, bool) {
	val, err := strconv.Atoi(c.Args[index])
	if err != nil {
		c.Err(fmt.Errorf("invalid %s: %v", name, err))
		return 0, false
	}
	return val, true
}

func boolArg(c *ishell.Context, index int, name string) (bool, bool) {
	switch c.Args[index] {
	case "on", "true", "1", "yes":
		return true, true
	case "off", "false", "0", "no":
		return false, true
	}
	c.Err(fmt.Errorf("invalid %s: %q, expect on or off", name, c.Args[index]))
	return false, false
}

// send parses and validates the command locally before sending it.
func send(c *ishell.Context, motor, kind string, value int, enabled bool) {
	cmd, err := dshot.ParseCommand(kind, value, enabled)
	if err != nil {
		c.Err(err)
		return
	}
	sh.DoCommand(c, msgs.NewMotorCommand(motor, cmd))
}

func simpleCmd(name, kind, help string) *ishell.Cmd {
	return &ishell.Cmd{
		Name: name,
		Help: help,
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if args(c, "MOTOR", 1) {
				send(c, c.Args[0], kind, 0, false)
			}
		}),
	}
}

func switchCmd(name, kind, help string) *ishell.Cmd {
	return &ishell.Cmd{
		Name: name,
		Help: help,
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if !args(c, "MOTOR on|off", 2) {
				return
			}
			if on, ok := boolArg(c, 1, "switch"); ok {
				send(c, c.Args[0], kind, 0, on)
			}
		}),
	}
}

var (
	// StatusCmd shows the status of motors.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "[MOTOR]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			var q msgs.MotorStatusQuery
			if len(c.Args) > 0 {
				q.Motor = c.Args[0]
			}
			sh.DoCommand(c, &q)
		}),
	}

	// ArmCmd re-arms a motor.
	ArmCmd = ishell.Cmd{
		Name: "arm",
		Help: "MOTOR",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if args(c, "MOTOR", 1) {
				sh.DoCommand(c, &msgs.MotorArm{Motor: c.Args[0]})
			}
		}),
	}

	// ThrottleCmd sets the throttle.
	ThrottleCmd = ishell.Cmd{
		Name:    "throttle",
		Aliases: []string{"t"},
		Help:    "MOTOR VALUE(0-1999)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if !args(c, "MOTOR VALUE", 2) {
				return
			}
			if val, ok := intArg(c, 1, "VALUE"); ok {
				send(c, c.Args[0], dshot.KindThrottle, val, false)
			}
		}),
	}

	// BeepCmd beeps.
	BeepCmd = ishell.Cmd{
		Name: "beep",
		Help: "MOTOR [COUNT(1-5)]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if !args(c, "MOTOR [COUNT]", 1) {
				return
			}
			count := 1
			if len(c.Args) > 1 {
				var ok bool
				if count, ok = intArg(c, 1, "COUNT"); !ok {
					return
				}
			}
			send(c, c.Args[0], dshot.KindBeep, count, false)
		}),
	}

	// LedCmd switches an LED.
	LedCmd = ishell.Cmd{
		Name: "led",
		Help: "MOTOR ID(0-3) on|off",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if !args(c, "MOTOR ID on|off", 3) {
				return
			}
			id, ok := intArg(c, 1, "ID")
			if !ok {
				return
			}
			if on, ok := boolArg(c, 2, "switch"); ok {
				send(c, c.Args[0], dshot.KindLed, id, on)
			}
		}),
	}

	// SweepCmd starts or stops a throttle sweep.
	SweepCmd = ishell.Cmd{
		Name: "sweep",
		Help: "MOTOR MIN MAX [STEP] [PERIOD] | MOTOR off",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if !args(c, "MOTOR MIN MAX [STEP] [PERIOD] | MOTOR off", 2) {
				return
			}
			msg := &msgs.MotorSweep{Motor: c.Args[0]}
			if c.Args[1] == "off" {
				sh.DoCommand(c, msg)
				return
			}
			if !args(c, "MOTOR MIN MAX [STEP] [PERIOD]", 3) {
				return
			}
			min, ok := intArg(c, 1, "MIN")
			if !ok {
				return
			}
			max, ok := intArg(c, 2, "MAX")
			if !ok {
				return
			}
			msg.Min, msg.Max, msg.Step = int32(min), int32(max), 1
			if len(c.Args) > 3 {
				step, ok := intArg(c, 3, "STEP")
				if !ok {
					return
				}
				msg.Step = int32(step)
			}
			if len(c.Args) > 4 {
				period, err := time.ParseDuration(c.Args[4])
				if err != nil {
					c.Err(fmt.Errorf("invalid PERIOD: %v", err))
					return
				}
				msg.PeriodMs = uint32(period / time.Millisecond)
			}
			sh.DoCommand(c, msg)
		}),
	}

	// WatchCmd prints telemetry reports.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "[COUNT] [MOTOR]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			count := 10
			if len(c.Args) > 0 {
				var ok bool
				if count, ok = intArg(c, 0, "COUNT"); !ok {
					return
				}
			}
			var motor string
			if len(c.Args) > 1 {
				motor = c.Args[1]
			}
			events := sh.ShellFrom(c).Session.Events()
			timeout := time.After(sh.CommandTimeout)
			for n := 0; n < count; {
				select {
				case msg := <-events:
					report, ok := msg.(*msgs.TelemetryReport)
					if !ok || (motor != "" && report.Motor != motor) {
						continue
					}
					c.Println(report.Report().String())
					n++
				case <-timeout:
					c.Err(fmt.Errorf("no telemetry"))
					return
				}
			}
		}),
	}
)

func init() {
	sh.AddCmds(
		&StatusCmd,
		&ArmCmd,
		&ThrottleCmd,
		simpleCmd("stop", dshot.KindStop, "MOTOR"),
		&BeepCmd,
		simpleCmd("info", dshot.KindInfo, "MOTOR"),
		switchCmd("reverse", dshot.KindReverse, "MOTOR on|off"),
		switchCmd("telemetry", dshot.KindTelemetry, "MOTOR on|off"),
		&LedCmd,
		&SweepCmd,
		&WatchCmd,
	)
}
