package main

import (
	"context"
	"flag"
	"log"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/i2c"

	"github.com/robotalks/pulseox/pkg/buzzer"
	"github.com/robotalks/pulseox/pkg/console"
	"github.com/robotalks/pulseox/pkg/dashboard"
	"github.com/robotalks/pulseox/pkg/display"
	fx "github.com/robotalks/pulseox/pkg/framework"
	"github.com/robotalks/pulseox/pkg/hw"
	"github.com/robotalks/pulseox/pkg/monitor"
	"github.com/robotalks/pulseox/pkg/oximeter"
	"github.com/robotalks/pulseox/pkg/remote/env/device"
	"github.com/robotalks/pulseox/pkg/sim"
)

var simulate bool

func init() {
	device.SetupFlags()
	hw.SetupFlags()
	oximeter.SetupFlags()
	sim.SetupFlags()
	display.SetupFlags()
	buzzer.SetupFlags()
	dashboard.SetupFlags()
	console.SetupFlags()
	monitor.SetupFlags()
	flag.BoolVar(&simulate, "sim", simulate, "Use a simulated sensor instead of the MAX30100.")
}

func main() {
	flag.Parse()
	defer glog.Flush()

	con, err := console.NewConfig().NewConsole()
	if err != nil {
		log.Fatalln(err)
	}
	defer con.Close()

	var bus i2c.BusCloser
	panelConf := display.NewConfig()
	buzzerConf := buzzer.NewConfig()
	if simulate && panelConf.Disabled {
		buzzerConf.Pin = ""
	} else {
		if err := hw.Init(); err != nil {
			log.Fatalln(err)
		}
		if bus, err = hw.Default().OpenI2C(); err != nil {
			log.Fatalln(err)
		}
		defer bus.Close()
	}

	var sensor oximeter.Sensor
	if simulate {
		sensor = sim.NewConfig().NewOximeter()
	} else if sensor, err = oximeter.NewConfig().NewMAX30100(bus); err != nil {
		log.Fatalln(err)
	}
	defer sensor.Close()

	var panelBus i2c.Bus
	if bus != nil {
		panelBus = bus
	}
	panel, err := panelConf.NewPanel(panelBus)
	if err != nil {
		log.Fatalln(err)
	}

	bz, err := buzzerConf.NewBuzzer()
	if err != nil {
		log.Fatalln(err)
	}

	loop := fx.NewLoop()
	var dash monitor.Dashboard
	if dashConf := dashboard.NewConfig(); dashConf.URL == "" {
		dash = dashboard.NewOffline()
	} else {
		client, err := dashConf.NewClient()
		if err != nil {
			log.Fatalln(err)
		}
		loop.AddRunnable(client)
		dash = client
	}

	monConf := monitor.NewConfig()
	mon := monConf.Apply(monitor.New(sensor, panel, con, dash, bz))
	env := device.NewConfig().MustNewEnv()
	mon.Registrar = env.Registrar
	loop.Interval = monConf.LoopInterval
	loop.Add(env)

	runner := fx.NewRunner().HandleSignals()
	runner.Go(fx.NamedRun("monitor", fx.RunFunc(func(ctx context.Context) error {
		return mon.Run(ctx, loop)
	})))
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}
