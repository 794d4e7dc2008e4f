package dashboard

import (
	"flag"
	"os"

	"github.com/robotalks/pulseox/pkg/remote/comm/mqtt"
)

// Config defines the dashboard connection.
type Config struct {
	// URL of the MQTT endpoint, empty runs offline.
	URL string
	// AuthToken authenticates the device.
	AuthToken string
}

var defaultConfig = Config{
	URL: "mqtts://blynk.cloud:8883/",
}

func init() {
	if val, ok := os.LookupEnv("PULSEOX_DASHBOARD_URL"); ok {
		defaultConfig.URL = val
	}
	if val := os.Getenv("PULSEOX_DASHBOARD_TOKEN"); val != "" {
		defaultConfig.AuthToken = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.URL, "dashboard", defaultConfig.URL, "Dashboard MQTT URL, empty to run offline.")
	flag.StringVar(&defaultConfig.AuthToken, "dashboard-token", defaultConfig.AuthToken, "Dashboard device auth token.")
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

// NewClient creates the client, it's not connected until Begin.
func (c *Config) NewClient() (*Client, error) {
	opts, topicPrefix, err := mqtt.ClientOptionsFromURL(c.URL)
	if err != nil {
		return nil, err
	}
	if c.AuthToken != "" {
		opts.SetUsername("device")
		opts.SetPassword(c.AuthToken)
	}
	return NewClient(mqtt.NewQueue(opts, topicPrefix)), nil
}
