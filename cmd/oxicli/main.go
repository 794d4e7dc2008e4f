package main

import (
	"github.com/robotalks/pulseox/pkg/cli/sh"
	env "github.com/robotalks/pulseox/pkg/remote/env/connector"

	_ "github.com/robotalks/pulseox/pkg/cli/cmds/oximeter"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
