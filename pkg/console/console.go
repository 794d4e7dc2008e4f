// Package console writes the human readable status lines of the device.
package console

import (
	"io"
	"os"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/pulseox/pkg/framework"
)

// Console writes text to one or more sinks. Write errors on a sink are
// logged and never stop the other sinks.
type Console struct {
	lock    sync.Mutex
	sinks   []io.Writer
	closers []io.Closer
}

// New creates a Console on sinks.
func New(sinks ...io.Writer) *Console {
	c := &Console{}
	for _, w := range sinks {
		c.Attach(w)
	}
	return c
}

// Attach adds a sink, which is closed with the Console if it's an io.Closer.
func (c *Console) Attach(w io.Writer) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.sinks = append(c.sinks, w)
	if closer, ok := w.(io.Closer); ok && w != io.Writer(os.Stdout) && w != io.Writer(os.Stderr) {
		c.closers = append(c.closers, closer)
	}
}

// Print writes s without line ending.
func (c *Console) Print(s string) {
	c.write([]byte(s))
}

// Println writes s and a line ending.
func (c *Console) Println(s string) {
	c.write([]byte(s + "\r\n"))
}

func (c *Console) write(p []byte) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for _, w := range c.sinks {
		if _, err := w.Write(p); err != nil {
			glog.Warningf("console write error: %v", err)
		}
	}
}

// Close closes sinks opened for the Console.
func (c *Console) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	errs := &fx.AggregatedError{}
	for _, closer := range c.closers {
		errs.Add(closer.Close())
	}
	c.closers = nil
	return errs.Aggregate()
}
