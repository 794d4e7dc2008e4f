package buzzer

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// Config defines the buzzer.
type Config struct {
	// Pin is the GPIO name in the periph registry, empty for none.
	Pin       string
	Threshold float64
}

var defaultConfig = Config{
	Pin:       "GPIO17",
	Threshold: float64(DefaultThreshold),
}

func init() {
	if val, ok := os.LookupEnv("PULSEOX_BUZZER_PIN"); ok {
		defaultConfig.Pin = val
	}
	if val := os.Getenv("PULSEOX_BUZZER_THRESHOLD"); val != "" {
		if bpm, err := strconv.ParseFloat(val, 64); err == nil {
			defaultConfig.Threshold = bpm
		}
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Pin, "buzzer-pin", defaultConfig.Pin, "GPIO pin of the buzzer, empty for none.")
	flag.Float64Var(&defaultConfig.Threshold, "buzzer-threshold", defaultConfig.Threshold, "Heart rate (BPM) turning on the buzzer.")
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

// NewBuzzer looks up the pin and creates the Buzzer. Without a pin,
// levels are only recorded.
func (c *Config) NewBuzzer() (*Buzzer, error) {
	var pin gpio.PinOut
	if c.Pin == "" {
		pin = &NullPin{}
	} else if pin = gpioreg.ByName(c.Pin); pin == nil {
		return nil, fmt.Errorf("unknown GPIO pin %q", c.Pin)
	}
	b := New(pin)
	b.Threshold = float32(c.Threshold)
	return b, nil
}
