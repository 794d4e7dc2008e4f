package comm

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/pulseox/pkg/framework"
	"github.com/robotalks/pulseox/pkg/remote"
	"github.com/robotalks/pulseox/pkg/remote/msgs"
)

const (
	// DefaultCommandExpiration is the default expiration expecting a result.
	DefaultCommandExpiration = 1 * time.Second
	// EventBufferSize is the number of undelivered events kept, older
	// ones are dropped first.
	EventBufferSize = 16
)

// DeviceConn is the tool side of a Pipe: it sends commands, matches
// replies by sequence and delivers events.
type DeviceConn struct {
	Expiration time.Duration

	pipe     Pipe
	seq      uint32
	commands list.List
	seqMap   map[uint32]*commandFuture
	eventCh  chan fx.Message
	lock     sync.Mutex
}

// Init initializes DeviceConn with defaults.
func (c *DeviceConn) Init(rw PacketReadWriter) {
	c.Expiration = DefaultCommandExpiration
	c.pipe.ReadWriter = rw
	c.pipe.Handler = msgs.HandleTypedMsgFunc(c.handleTypedMsg)
	c.seqMap = make(map[uint32]*commandFuture)
	c.eventCh = make(chan fx.Message, EventBufferSize)
}

// DoCommand implements remote.DeviceConn.
func (c *DeviceConn) DoCommand(msg fx.Message) remote.CommandFuture {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.seq++
	if c.seq == 0 {
		c.seq++
	}
	f := &commandFuture{
		seq:      c.seq,
		expireAt: time.Now().Add(c.Expiration),
		result:   make(chan remote.Result, 1),
	}
	if err := c.pipe.SendCommandMsg(msg, f.seq); err != nil {
		f.result <- remote.Result{Err: err}
		return f
	}
	f.elem = c.commands.PushBack(f)
	c.seqMap[f.seq] = f
	return f
}

// Events implements remote.DeviceConn.
func (c *DeviceConn) Events() <-chan fx.Message {
	return c.eventCh
}

// Run runs the pipe and expires pending commands.
func (c *DeviceConn) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		ticker := time.NewTicker(c.Expiration / 4)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				c.purgeExpired(now)
			}
		}
	}()
	return RunWithCloser(ctx, &c.pipe)
}

// Close closes the underlying pipe.
func (c *DeviceConn) Close() error {
	return c.pipe.Close()
}

func (c *DeviceConn) handleTypedMsg(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
	if typed.IsEvent() {
		c.pushEvent(msg)
		return nil
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	f := c.seqMap[typed.Sequence]
	if f == nil {
		return nil
	}
	c.commands.Remove(f.elem)
	delete(c.seqMap, typed.Sequence)
	result := remote.Result{Msg: msg}
	if cmdErr, ok := msg.(*msgs.CommandErr); ok {
		result.Err = cmdErr
	}
	f.result <- result
	close(f.result)
	return nil
}

// pushEvent is only called from the pipe reader.
func (c *DeviceConn) pushEvent(msg fx.Message) {
	for {
		select {
		case c.eventCh <- msg:
			return
		default:
		}
		select {
		case stale := <-c.eventCh:
			glog.V(2).Infof("event dropped: %T", stale)
		default:
		}
	}
}

func (c *DeviceConn) purgeExpired(now time.Time) {
	c.lock.Lock()
	defer c.lock.Unlock()
	for c.commands.Len() > 0 {
		elem := c.commands.Front()
		f := elem.Value.(*commandFuture)
		if f.expireAt.After(now) {
			break
		}
		c.commands.Remove(elem)
		delete(c.seqMap, f.seq)
		f.result <- remote.Result{Err: context.DeadlineExceeded}
		close(f.result)
	}
}

type commandFuture struct {
	seq      uint32
	expireAt time.Time
	elem     *list.Element
	result   chan remote.Result
}

func (c *commandFuture) ResultChan() <-chan remote.Result {
	return c.result
}

// RunWithCloser runs the pipe until it stops or ctx is canceled,
// closing the pipe either way.
func RunWithCloser(ctx context.Context, p *Pipe) error {
	return fx.RunWithContextCloser(ctx, p, func() error {
		return p.Run(ctx)
	})
}
