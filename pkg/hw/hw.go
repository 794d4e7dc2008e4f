// Package hw initializes host drivers and opens the shared I²C bus.
package hw

import (
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Config defines the host hardware.
type Config struct {
	// I2CBus is the bus name in the periph registry, empty for the first one.
	I2CBus string
}

var defaultConfig Config

func init() {
	if val := os.Getenv("PULSEOX_I2C_BUS"); val != "" {
		defaultConfig.I2CBus = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.I2CBus, "i2c", defaultConfig.I2CBus, "I2C bus name, defaults to the first one.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// Init loads host drivers, must be called before any GPIO or bus lookup.
func Init() error {
	state, err := host.Init()
	if err != nil {
		return fmt.Errorf("host init error: %v", err)
	}
	for _, drv := range state.Loaded {
		glog.V(2).Infof("driver loaded: %s", drv)
	}
	for _, failure := range state.Failed {
		glog.Warningf("driver failed: %s", failure)
	}
	return nil
}

// OpenI2C opens the configured bus.
func (c *Config) OpenI2C() (i2c.BusCloser, error) {
	bus, err := i2creg.Open(c.I2CBus)
	if err != nil {
		return nil, fmt.Errorf("open I2C bus %q error: %v", c.I2CBus, err)
	}
	glog.Infof("I2C bus: %s", bus)
	return bus, nil
}
