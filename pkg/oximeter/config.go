package oximeter

import (
	"flag"
	"os"
	"strconv"

	"periph.io/x/conn/v3/i2c"

	"github.com/robotalks/pulseox/pkg/oximeter/pulse"
)

// Config defines the sensor settings.
type Config struct {
	Address      uint
	IRCurrentMA  float64
	RedCurrentMA float64
}

var defaultConfig = Config{
	Address:      DefaultAddress,
	IRCurrentMA:  50,
	RedCurrentMA: 27.1,
}

func init() {
	if val := os.Getenv("PULSEOX_SENSOR_ADDR"); val != "" {
		if addr, err := strconv.ParseUint(val, 0, 16); err == nil {
			defaultConfig.Address = uint(addr)
		}
	}
	if val := os.Getenv("PULSEOX_IR_CURRENT"); val != "" {
		if mA, err := strconv.ParseFloat(val, 64); err == nil {
			defaultConfig.IRCurrentMA = mA
		}
	}
	if val := os.Getenv("PULSEOX_RED_CURRENT"); val != "" {
		if mA, err := strconv.ParseFloat(val, 64); err == nil {
			defaultConfig.RedCurrentMA = mA
		}
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.UintVar(&defaultConfig.Address, "sensor-addr", defaultConfig.Address, "I2C address of MAX30100")
	flag.Float64Var(&defaultConfig.IRCurrentMA, "ir-current", defaultConfig.IRCurrentMA, "IR LED current in mA")
	flag.Float64Var(&defaultConfig.RedCurrentMA, "red-current", defaultConfig.RedCurrentMA, "Red LED current in mA")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a copy of default config.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Opts converts the config into driver options.
func (c *Config) Opts() (*Opts, error) {
	opts := DefaultOpts
	var err error
	if opts.IRCurrent, err = ParseLEDCurrent(c.IRCurrentMA); err != nil {
		return nil, err
	}
	if opts.RedCurrent, err = ParseLEDCurrent(c.RedCurrentMA); err != nil {
		return nil, err
	}
	return &opts, nil
}

// NewMAX30100 creates the driver on bus with the default estimator.
func (c *Config) NewMAX30100(bus i2c.Bus) (*MAX30100, error) {
	opts, err := c.Opts()
	if err != nil {
		return nil, err
	}
	est := pulse.New(opts.SampleRate.Frequency().Period())
	return NewMAX30100(bus, uint16(c.Address), opts, est), nil
}
