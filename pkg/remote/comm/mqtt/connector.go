package mqtt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/robotalks/pulseox/pkg/remote"
	"github.com/robotalks/pulseox/pkg/remote/comm"
)

// Connector implements remote.Connector using MQTT.
type Connector struct {
	DiscoverTimeout time.Duration

	options     *paho.ClientOptions
	topicPrefix string
}

// DefaultDiscoverTimeout defines the default timeout value of discovery.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// NewConnector creates a Connector.
func NewConnector(brokerURL string) (*Connector, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return &Connector{
		DiscoverTimeout: DefaultDiscoverTimeout,
		options:         opts,
		topicPrefix:     topicPrefix,
	}, nil
}

// ParseMeta converts a retained type/id/meta message into DeviceInfo.
// Empty payloads mean the device is gone.
func ParseMeta(topic string, payload []byte) (info remote.DeviceInfo, ok bool) {
	items := strings.Split(topic, "/")
	if len(items) != 3 || items[2] != "meta" || len(payload) == 0 {
		return
	}
	info.Ref = remote.DeviceRef{Type: items[0], ID: items[1]}
	if err := json.Unmarshal(payload, &info.Meta); err != nil {
		return info, false
	}
	return info, true
}

// Discover implements remote.Connector.
func (c *Connector) Discover(ctx context.Context) (res []remote.DeviceInfo, err error) {
	q := NewQueue(c.options, c.topicPrefix)
	token := q.Connect()
	token.Wait()
	if err = token.Error(); err != nil {
		return
	}
	defer q.Close()
	resCh := make(chan remote.DeviceInfo, 1)
	q.Sub("+/+/meta", Handler(func(topic string, payload []byte) {
		if info, ok := ParseMeta(topic, payload); ok {
			select {
			case resCh <- info:
			case <-time.After(time.Second):
			}
		}
	}))

	dur := c.DiscoverTimeout
	if dur == 0 {
		dur = DefaultDiscoverTimeout
	}
	timeout := time.After(dur)
	for {
		select {
		case info := <-resCh:
			res = append(res, info)
		case <-timeout:
			return
		case <-ctx.Done():
			err = ctx.Err()
			return
		}
	}
}

// Connect implements remote.Connector.
func (c *Connector) Connect(ctx context.Context, ref remote.DeviceRef) (remote.DeviceConn, error) {
	conn := &DeviceConn{
		Queue: NewQueue(c.options, c.topicPrefix),
	}
	conn.rw = NewPacketReadWriter(conn.Queue).ForConnector(ref)
	conn.Init(conn.rw)
	token := conn.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	return conn, nil
}

// DeviceConn implements remote.DeviceConn using MQTT.
type DeviceConn struct {
	comm.DeviceConn
	Queue *Queue

	rw *ReadWriter
}

// Run implements Runnable.
func (c *DeviceConn) Run(ctx context.Context) error {
	defer c.Queue.Close()
	go c.rw.Run(ctx)
	return c.DeviceConn.Run(ctx)
}
