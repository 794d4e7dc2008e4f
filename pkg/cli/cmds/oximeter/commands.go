// Package oximeter provides shell commands operating a connected
// pulse oximeter.
package oximeter

import (
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/pulseox/pkg/cli/sh"
	fx "github.com/robotalks/pulseox/pkg/framework"
	"github.com/robotalks/pulseox/pkg/remote/msgs"
)

// DefaultWatchDuration is how long watch prints events without argument.
const DefaultWatchDuration = 10 * time.Second

var (
	// StatusCmd queries the device status.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, &msgs.StatusQuery{})
		}),
	}

	// ReadingCmd prints the latest reading received.
	ReadingCmd = ishell.Cmd{
		Name:    "reading",
		Aliases: []string{"r"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			reading := sh.SessionFrom(c).LastReading()
			if reading == nil {
				c.Println("No reading yet")
				return
			}
			sh.ShellFrom(c).Print(c, reading)
		}),
	}

	// BuzzerCmd overrides the buzzer until the next report.
	BuzzerCmd = ishell.Cmd{
		Name:    "buzzer",
		Aliases: []string{"bz"},
		Help:    "on|off",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			on, err := switchArg(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, &msgs.BuzzerSet{On: on})
		}),
	}

	// SensorCmd puts the sensor into standby or wakes it up.
	SensorCmd = ishell.Cmd{
		Name:    "sensor",
		Aliases: []string{"sn"},
		Help:    "on|off",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			on, err := switchArg(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, &msgs.SensorPower{On: on})
		}),
	}

	// ResetCmd resets and initializes the sensor again.
	ResetCmd = ishell.Cmd{
		Name: "reset",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, &msgs.SensorReset{})
		}),
	}

	// SimulateCmd changes the readings of a simulated sensor.
	SimulateCmd = ishell.Cmd{
		Name:    "simulate",
		Aliases: []string{"sim"},
		Help:    "BPM [SPO2]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			msg, err := simulateArgs(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.DoCommand(c, msg)
		}),
	}

	// WatchCmd prints events as they arrive.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "[DURATION]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			duration := DefaultWatchDuration
			if len(c.Args) > 0 {
				d, err := time.ParseDuration(c.Args[0])
				if err != nil {
					c.Err(fmt.Errorf("invalid DURATION: %v", err))
					return
				}
				duration = d
			}
			s := sh.ShellFrom(c)
			events := make(chan fx.Message, 16)
			stop := s.Session.Watch(events)
			defer stop()
			timeout := time.After(duration)
			for {
				select {
				case msg := <-events:
					s.Print(c, msg)
				case <-s.Session.Done():
					c.Err(fmt.Errorf("disconnected"))
					return
				case <-timeout:
					return
				}
			}
		}),
	}
)

func switchArg(args []string) (bool, error) {
	if len(args) < 1 {
		return false, fmt.Errorf("on|off required")
	}
	switch args[0] {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	on, err := strconv.ParseBool(args[0])
	if err != nil {
		return false, fmt.Errorf("invalid switch %q, expect on or off", args[0])
	}
	return on, nil
}

func simulateArgs(args []string) (*msgs.SimulateSet, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("BPM required")
	}
	var msg msgs.SimulateSet
	val, err := strconv.ParseFloat(args[0], 32)
	if err != nil || val < 0 {
		return nil, fmt.Errorf("invalid BPM %q", args[0])
	}
	msg.Bpm = float32(val)
	if len(args) > 1 {
		val, err = strconv.ParseFloat(args[1], 32)
		if err != nil || val <= 0 || val > 100 {
			return nil, fmt.Errorf("invalid SPO2 %q", args[1])
		}
		msg.Spo2 = float32(val)
	}
	return &msg, nil
}

func init() {
	sh.AddCmds(
		&StatusCmd,
		&ReadingCmd,
		&BuzzerCmd,
		&SensorCmd,
		&ResetCmd,
		&SimulateCmd,
		&WatchCmd,
	)
}
