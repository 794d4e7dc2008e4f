package console

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"go.bug.st/serial"
)

// DefaultBaudRate of the console UART.
const DefaultBaudRate = 115200

// Config defines where the console is written.
type Config struct {
	// Port mirrors the console to a UART, e.g. /dev/ttyS0.
	Port     string
	BaudRate int
	Quiet    bool
}

var defaultConfig = Config{
	BaudRate: DefaultBaudRate,
}

func init() {
	if val := os.Getenv("PULSEOX_CONSOLE_PORT"); val != "" {
		defaultConfig.Port = val
	}
	if val := os.Getenv("PULSEOX_CONSOLE_BAUD"); val != "" {
		if baud, err := strconv.Atoi(val); err == nil {
			defaultConfig.BaudRate = baud
		}
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Port, "console-port", defaultConfig.Port, "Serial port mirroring the console.")
	flag.IntVar(&defaultConfig.BaudRate, "console-baud", defaultConfig.BaudRate, "Baud rate of the console serial port.")
	flag.BoolVar(&defaultConfig.Quiet, "quiet", defaultConfig.Quiet, "Don't write the console to stdout.")
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

// NewConsole opens the configured sinks.
func (c *Config) NewConsole() (*Console, error) {
	con := New()
	if !c.Quiet {
		con.Attach(os.Stdout)
	}
	if c.Port != "" {
		port, err := serial.Open(c.Port, &serial.Mode{BaudRate: c.BaudRate})
		if err != nil {
			return nil, fmt.Errorf("open console port %s error: %v", c.Port, err)
		}
		con.Attach(port)
	}
	return con, nil
}
