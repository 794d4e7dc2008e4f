package device

import (
	"flag"
	"fmt"
	"log"
	"os"

	fx "github.com/robotalks/pulseox/pkg/framework"
	"github.com/robotalks/pulseox/pkg/remote"
	"github.com/robotalks/pulseox/pkg/remote/comm"
	"github.com/robotalks/pulseox/pkg/remote/comm/mqtt"
	"github.com/robotalks/pulseox/pkg/remote/comm/websocket"
	"github.com/robotalks/pulseox/pkg/remote/env"
)

// Config provides common options to expose a device to remote tools.
type Config struct {
	Info remote.DeviceInfo

	// RegistryURL specifies the MQTT broker used as registry,
	// e.g. mqtt://host:port/topic-prefix. Empty disables it.
	RegistryURL string
	// ListenAddr enables the websocket endpoint, e.g. ":8080".
	ListenAddr string
}

// DeviceType is the registered type of pulse oximeter devices.
const DeviceType = "pulseox"

var defaultConfig = Config{
	Info: remote.DeviceInfo{
		Ref:  remote.DeviceRef{Type: DeviceType},
		Meta: remote.DeviceMeta{Description: "Pulse oximeter"},
	},
}

func init() {
	defaultConfig.Info.Ref.ID = env.MachineID()
	if val := os.Getenv("PULSEOX_ID"); val != "" {
		defaultConfig.Info.Ref.ID = val
	}
	if val := os.Getenv("PULSEOX_REGISTRY_URL"); val != "" {
		defaultConfig.RegistryURL = val
	}
	if val := os.Getenv("PULSEOX_LISTEN"); val != "" {
		defaultConfig.ListenAddr = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Info.Ref.ID, "id", defaultConfig.Info.Ref.ID, "Device ID, defaults to machine ID.")
	flag.StringVar(&defaultConfig.RegistryURL, "registry", defaultConfig.RegistryURL, "MQTT registry URL, e.g. mqtt://localhost:1883/pulseox/")
	flag.StringVar(&defaultConfig.ListenAddr, "listen", defaultConfig.ListenAddr, "Websocket endpoint address, e.g. :8080")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Env is the remote access environment of a device.
type Env struct {
	Config    *Config
	Registrar *comm.RegistrarMux
	Server    *websocket.Server
}

// NewEnv creates Env from config. With neither a registry nor a
// listen address, events go nowhere and commands never arrive.
func (c *Config) NewEnv() (*Env, error) {
	if !c.Info.Ref.IsValid() {
		return nil, fmt.Errorf("device type and id must be specified")
	}
	e := &Env{
		Config:    c,
		Registrar: &comm.RegistrarMux{},
	}
	if c.RegistryURL != "" {
		reg, err := mqtt.NewRegistrar(c.RegistryURL, c.Info)
		if err != nil {
			return nil, fmt.Errorf("create MQTT registrar error: %v", err)
		}
		e.Registrar.Add(reg)
	}
	if c.ListenAddr != "" {
		e.Server = websocket.NewServer(c.ListenAddr, c.Info, e.Registrar)
	}
	return e, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	e, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return e
}

// AddToLoop adds registrars and the websocket endpoint to loop.
func (e *Env) AddToLoop(loop *fx.Loop) {
	loop.Add(e.Registrar)
	if e.Server != nil {
		loop.Add(e.Server)
	}
	loop.Add(&comm.UnsupportedCommands{})
}
