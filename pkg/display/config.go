package display

import (
	"flag"
	"os"
	"strconv"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/ssd1306"
)

// Config defines the display.
type Config struct {
	// Disabled renders to memory only.
	Disabled bool
	Width    int
	Height   int
	Rotated  bool
}

var defaultConfig = Config{
	Width:  128,
	Height: 64,
}

func init() {
	if val := os.Getenv("PULSEOX_OLED"); val != "" {
		if on, err := strconv.ParseBool(val); err == nil {
			defaultConfig.Disabled = !on
		}
	}
	if val := os.Getenv("PULSEOX_OLED_HEIGHT"); val != "" {
		if h, err := strconv.Atoi(val); err == nil {
			defaultConfig.Height = h
		}
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.BoolVar(&defaultConfig.Disabled, "no-oled", defaultConfig.Disabled, "Don't use the OLED panel.")
	flag.IntVar(&defaultConfig.Height, "oled-height", defaultConfig.Height, "OLED panel height, 32, 48 or 64.")
	flag.BoolVar(&defaultConfig.Rotated, "oled-rotated", defaultConfig.Rotated, "Rotate OLED panel 180 degrees.")
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

// NewPanel creates the configured panel, bus is only used when the
// OLED is enabled.
func (c *Config) NewPanel(bus i2c.Bus) (Panel, error) {
	if c.Disabled || bus == nil {
		return NewMemory(c.Width, c.Height), nil
	}
	opts := ssd1306.DefaultOpts
	opts.W, opts.H, opts.Rotated = c.Width, c.Height, c.Rotated
	oled, err := NewOLED(bus, &opts)
	if err != nil {
		return nil, err
	}
	return oled, nil
}
