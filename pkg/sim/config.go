package sim

import (
	"flag"
	"os"
	"strconv"
)

// Config defines the simulated sensor.
type Config struct {
	BPM       float64
	SpO2      float64
	Jitter    float64
	FailBegin bool
}

var defaultConfig = Config{
	BPM:    72,
	SpO2:   97,
	Jitter: 2,
}

func init() {
	envFloat("PULSEOX_SIM_BPM", &defaultConfig.BPM)
	envFloat("PULSEOX_SIM_SPO2", &defaultConfig.SpO2)
	envFloat("PULSEOX_SIM_JITTER", &defaultConfig.Jitter)
	if val := os.Getenv("PULSEOX_SIM_FAIL"); val != "" {
		defaultConfig.FailBegin, _ = strconv.ParseBool(val)
	}
}

func envFloat(name string, v *float64) {
	if val := os.Getenv(name); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*v = f
		}
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.Float64Var(&defaultConfig.BPM, "sim-bpm", defaultConfig.BPM, "Simulated heart rate.")
	flag.Float64Var(&defaultConfig.SpO2, "sim-spo2", defaultConfig.SpO2, "Simulated SpO2.")
	flag.Float64Var(&defaultConfig.Jitter, "sim-jitter", defaultConfig.Jitter, "Maximum random deviation of simulated readings.")
	flag.BoolVar(&defaultConfig.FailBegin, "sim-fail", defaultConfig.FailBegin, "Simulate sensor initialization failure.")
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

// NewOximeter creates the simulated sensor.
func (c *Config) NewOximeter() *Oximeter {
	s := NewOximeter(float32(c.BPM), float32(c.SpO2))
	s.Jitter = float32(c.Jitter)
	s.FailBegin = c.FailBegin
	return s
}
