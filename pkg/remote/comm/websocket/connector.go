package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/websocket"

	"github.com/robotalks/pulseox/pkg/remote"
	"github.com/robotalks/pulseox/pkg/remote/comm"
)

// Connector implements remote.Connector against a single device
// serving the websocket endpoint, e.g. ws://host:8080.
type Connector struct {
	baseURL *url.URL
}

// NewConnector creates a Connector.
func NewConnector(deviceURL string) (*Connector, error) {
	u, err := url.Parse(deviceURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("unsupported websocket scheme: %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return &Connector{baseURL: u}, nil
}

func (c *Connector) endpoint(path string, scheme string) string {
	u := *c.baseURL
	u.Path += path
	if scheme != "" {
		u.Scheme = scheme
	}
	return u.String()
}

// Discover implements remote.Connector; it reports the single device.
func (c *Connector) Discover(ctx context.Context) ([]remote.DeviceInfo, error) {
	scheme := "http"
	if c.baseURL.Scheme == "wss" {
		scheme = "https"
	}
	req, err := http.NewRequest(http.MethodGet, c.endpoint(PathMeta, scheme), nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discover: %s", resp.Status)
	}
	var payload struct {
		Type string            `json:"type"`
		ID   string            `json:"id"`
		Meta remote.DeviceMeta `json:"meta"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return []remote.DeviceInfo{{
		Ref:  remote.DeviceRef{Type: payload.Type, ID: payload.ID},
		Meta: payload.Meta,
	}}, nil
}

// Connect implements remote.Connector. The ref is informational since
// the endpoint serves exactly one device.
func (c *Connector) Connect(ctx context.Context, ref remote.DeviceRef) (remote.DeviceConn, error) {
	origin := c.endpoint("", "http")
	if c.baseURL.Scheme == "wss" {
		origin = c.endpoint("", "https")
	}
	ws, err := websocket.Dial(c.endpoint(PathPipe, ""), "", origin)
	if err != nil {
		return nil, err
	}
	ws.PayloadType = websocket.BinaryFrame
	conn := &DeviceConn{}
	conn.Init(New(ws))
	return conn, nil
}

// DeviceConn implements remote.DeviceConn over websocket.
type DeviceConn struct {
	comm.DeviceConn
}
