package dashboard

import (
	"context"
	"sync"
)

// Offline keeps the last value of each virtual pin locally, used when
// no dashboard is configured.
type Offline struct {
	lock     sync.Mutex
	values   map[Pin]string
	handlers map[Pin]WriteHandler
}

// NewOffline creates an Offline dashboard.
func NewOffline() *Offline {
	return &Offline{
		values:   make(map[Pin]string),
		handlers: make(map[Pin]WriteHandler),
	}
}

// Begin always succeeds.
func (o *Offline) Begin(ctx context.Context) error {
	return nil
}

// VirtualWrite records the value.
func (o *Offline) VirtualWrite(pin Pin, value interface{}) error {
	o.lock.Lock()
	o.values[pin] = FormatValue(value)
	o.lock.Unlock()
	return nil
}

// OnWrite registers the handler, see Inject.
func (o *Offline) OnWrite(pin Pin, handler WriteHandler) {
	o.lock.Lock()
	o.handlers[pin] = handler
	o.lock.Unlock()
}

// Value returns the last value written to pin.
func (o *Offline) Value(pin Pin) (string, bool) {
	o.lock.Lock()
	defer o.lock.Unlock()
	val, ok := o.values[pin]
	return val, ok
}

// Inject delivers a value to the handler of pin as if it's written
// from the dashboard.
func (o *Offline) Inject(pin Pin, value string) {
	o.lock.Lock()
	h := o.handlers[pin]
	o.lock.Unlock()
	if h != nil {
		h(pin, Param(value))
	}
}
