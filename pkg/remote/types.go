// Package remote defines how a device is registered, discovered and
// talked to by remote tools.
package remote

import (
	"context"

	fx "github.com/robotalks/pulseox/pkg/framework"
)

// Registrar registers a device to a registry and publishes its events.
type Registrar interface {
	// SendEvent publishes an event.
	SendEvent(context.Context, fx.Message) error
}

// Command represents a received command to be processed.
type Command interface {
	Msg() fx.Message
	Done(fx.Message) error
}

// CommandMsg wraps a Command as a loop Message.
type CommandMsg struct {
	Command Command
}

// NewMessage implements Message.
func (m *CommandMsg) NewMessage() fx.Message { return &CommandMsg{} }

// DeviceRef is a reference to a device.
type DeviceRef struct {
	// Type is the device type, e.g. "pulseox".
	Type string
	// ID is unique ID of the device.
	ID string
}

// Name retrieves the name from ref.
func (r DeviceRef) Name() string {
	return r.Type + "/" + r.ID
}

// IsValid indicates DeviceRef is valid.
func (r DeviceRef) IsValid() bool {
	return r.Type != "" && r.ID != ""
}

// DeviceMeta provides metadata for a device.
type DeviceMeta struct {
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
}

// DeviceInfo provides information of a device.
type DeviceInfo struct {
	Ref  DeviceRef
	Meta DeviceMeta
}

// Connector is used by tools to connect to a device.
type Connector interface {
	// Discover enumerates registered devices.
	Discover(context.Context) ([]DeviceInfo, error)
	// Connect connects to the specified device.
	Connect(context.Context, DeviceRef) (DeviceConn, error)
}

// DeviceConn is the connection to a device.
type DeviceConn interface {
	// DoCommand executes a command.
	DoCommand(fx.Message) CommandFuture
	// Events delivers events published by the device.
	Events() <-chan fx.Message
}

// Result represents result of a command.
type Result struct {
	Msg fx.Message
	Err error
}

// CommandFuture is the future of sent command.
type CommandFuture interface {
	ResultChan() <-chan Result
}
