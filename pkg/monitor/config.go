package monitor

import (
	"flag"
	"os"
	"time"
)

// Config defines the monitor behavior.
type Config struct {
	ReportPeriod time.Duration
	LoopInterval time.Duration
}

var defaultConfig = Config{
	ReportPeriod: DefaultReportPeriod,
	LoopInterval: 10 * time.Millisecond,
}

func init() {
	if val := os.Getenv("PULSEOX_REPORT_PERIOD"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			defaultConfig.ReportPeriod = d
		}
	}
	if val := os.Getenv("PULSEOX_LOOP_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			defaultConfig.LoopInterval = d
		}
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.DurationVar(&defaultConfig.ReportPeriod, "report-period", defaultConfig.ReportPeriod, "Interval between reports.")
	flag.DurationVar(&defaultConfig.LoopInterval, "loop-interval", defaultConfig.LoopInterval, "Sensor polling interval.")
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

// Apply sets the configured values on m.
func (c *Config) Apply(m *Monitor) *Monitor {
	if c.ReportPeriod > 0 {
		m.ReportPeriod = c.ReportPeriod
	}
	return m
}
