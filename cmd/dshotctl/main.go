package main

import (
	"github.com/robotalks/dshot.go/pkg/cli/sh"
	env "github.com/robotalks/dshot.go/pkg/l1/env/connector"

	_ "github.com/robotalks/dshot.go/pkg/cli/cmds/motor"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
