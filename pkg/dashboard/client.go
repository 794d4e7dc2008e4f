// Package dashboard relays readings to a cloud dashboard over MQTT and
// receives control inputs from it, using virtual pins as data channels.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/pulseox/pkg/remote/comm/mqtt"
)

// Pin is a virtual pin.
type Pin int

// Virtual pins used by the device.
const (
	V1 Pin = 1
	V2 Pin = 2
	V3 Pin = 3
)

func (p Pin) String() string {
	return "V" + strconv.Itoa(int(p))
}

// Topic prefixes for device-to-cloud and cloud-to-device datastreams.
const (
	UplinkPrefix   = "ds/"
	DownlinkPrefix = "downlink/ds/"
)

// Defaults.
const (
	DefaultRetryInterval  = 5 * time.Second
	DefaultPublishTimeout = 2 * time.Second
)

// ErrNotConnected is returned when writing before connected.
var ErrNotConnected = errors.New("dashboard not connected")

// Param is a value received on a virtual pin.
type Param string

// AsString returns the raw value.
func (p Param) AsString() string {
	return string(p)
}

// AsFloat parses the value, 0 if it's not a number.
func (p Param) AsFloat() float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(string(p)), 64)
	return v
}

// AsInt parses the value as an integer, fractions are truncated.
func (p Param) AsInt() int {
	s := strings.TrimSpace(string(p))
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return int(p.AsFloat())
}

// AsBool is true for any non-zero value.
func (p Param) AsBool() bool {
	return p.AsInt() != 0
}

// WriteHandler handles a value written to a virtual pin from the
// dashboard. It's invoked from the MQTT client goroutine.
type WriteHandler func(Pin, Param)

// Client is the dashboard device client.
type Client struct {
	Queue          *mqtt.Queue
	RetryInterval  time.Duration
	PublishTimeout time.Duration

	lock sync.Mutex
	subs map[Pin]*mqtt.Subscription
}

// NewClient creates a Client on an MQTT queue.
func NewClient(q *mqtt.Queue) *Client {
	return &Client{
		Queue:          q,
		RetryInterval:  DefaultRetryInterval,
		PublishTimeout: DefaultPublishTimeout,
		subs:           make(map[Pin]*mqtt.Subscription),
	}
}

// Begin connects to the dashboard service and blocks until connected,
// retrying on failures until ctx is done.
func (c *Client) Begin(ctx context.Context) error {
	for {
		token := c.Queue.Connect()
		for !token.WaitTimeout(100 * time.Millisecond) {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		err := token.Error()
		if err == nil {
			glog.Info("dashboard connected")
			return nil
		}
		glog.Warningf("dashboard connect error: %v", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.RetryInterval):
		}
	}
}

// Connected tells whether the client is currently connected.
func (c *Client) Connected() bool {
	return c.Queue.Client.IsConnected()
}

// VirtualWrite sends a value to a virtual pin.
func (c *Client) VirtualWrite(pin Pin, value interface{}) error {
	if !c.Connected() {
		return ErrNotConnected
	}
	token := c.Queue.Pub(UplinkPrefix+pin.String(), []byte(FormatValue(value)))
	if !token.WaitTimeout(c.PublishTimeout) {
		return fmt.Errorf("write %s timeout", pin)
	}
	return token.Error()
}

// OnWrite registers the handler for values written to pin, replacing
// the previous one.
func (c *Client) OnWrite(pin Pin, handler WriteHandler) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if sub := c.subs[pin]; sub != nil {
		sub.Close()
		delete(c.subs, pin)
	}
	if handler == nil {
		return
	}
	c.subs[pin] = c.Queue.Sub(DownlinkPrefix+pin.String(), func(topic string, payload []byte) {
		glog.V(2).Infof("dashboard %s <- %q", pin, payload)
		handler(pin, Param(payload))
	})
}

// Run implements Runnable, it disconnects when ctx is done.
func (c *Client) Run(ctx context.Context) error {
	<-ctx.Done()
	return c.Queue.Close()
}

// FormatValue encodes a value as dashboard payload.
func FormatValue(value interface{}) string {
	switch v := value.(type) {
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "1"
		}
		return "0"
	case string:
		return v
	}
	return fmt.Sprint(value)
}
