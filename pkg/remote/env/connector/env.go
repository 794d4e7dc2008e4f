package connector

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"

	"github.com/robotalks/pulseox/pkg/remote"
	"github.com/robotalks/pulseox/pkg/remote/comm/mqtt"
	"github.com/robotalks/pulseox/pkg/remote/comm/websocket"
	"github.com/robotalks/pulseox/pkg/remote/env/device"
)

// Config provides common options to setup Connectors.
type Config struct {
	Ref remote.DeviceRef

	// RegistryURL is either an MQTT registry
	// (mqtt://host:port/topic-prefix) or a device websocket
	// endpoint (ws://host:port).
	RegistryURL string
}

var defaultConfig = Config{
	Ref:         remote.DeviceRef{Type: device.DeviceType},
	RegistryURL: "mqtt://localhost:1883/pulseox/",
}

func init() {
	if val := os.Getenv("PULSEOX_ID"); val != "" {
		defaultConfig.Ref.ID = val
	}
	if val := os.Getenv("PULSEOX_REGISTRY_URL"); val != "" {
		defaultConfig.RegistryURL = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Ref.ID, "id", defaultConfig.Ref.ID, "Device ID to connect.")
	flag.StringVar(&defaultConfig.RegistryURL, "registry", defaultConfig.RegistryURL, "Registry URL (mqtt://...) or device endpoint (ws://...).")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewConnector creates a Connector using current config.
func (c *Config) NewConnector() (remote.Connector, error) {
	parsedURL, err := url.Parse(c.RegistryURL)
	if err != nil {
		return nil, fmt.Errorf("invalid registry URL: %v", err)
	}
	switch parsedURL.Scheme {
	case "mqtt", "mqtts":
		return mqtt.NewConnector(c.RegistryURL)
	case "ws", "wss":
		return websocket.NewConnector(c.RegistryURL)
	default:
		return nil, fmt.Errorf("unknown registry URL scheme: %q", parsedURL.Scheme)
	}
}

// MustNewConnector creates a Connector and fails on error.
func (c *Config) MustNewConnector() remote.Connector {
	conn, err := c.NewConnector()
	if err != nil {
		log.Fatalln(err)
	}
	return conn
}

// Connect directly connects to the device.
func (c *Config) Connect(ctx context.Context) (remote.DeviceConn, error) {
	if !c.Ref.IsValid() {
		return nil, fmt.Errorf("device type and id must be specified")
	}
	connector, err := c.NewConnector()
	if err != nil {
		return nil, err
	}
	return connector.Connect(ctx, c.Ref)
}
