package sh

import (
	"context"
	"sync"
	"time"

	fx "github.com/robotalks/pulseox/pkg/framework"
	"github.com/robotalks/pulseox/pkg/remote"
	"github.com/robotalks/pulseox/pkg/remote/msgs"
)

// Session is an open connection to an oximeter. Events are consumed as
// soon as they arrive: the latest Status and Reading are kept and every
// event is forwarded to the watcher if one is attached.
type Session struct {
	Ref  remote.DeviceRef
	Conn remote.DeviceConn

	ctx    context.Context
	cancel func()
	done   chan struct{}

	lock     sync.Mutex
	status   *msgs.Status
	reading  *msgs.Reading
	watcher  chan<- fx.Message
	onStatus func(msgs.Status)
}

// Open connects to the device and starts consuming its events.
func Open(connector remote.Connector, ref remote.DeviceRef) (*Session, error) {
	ctx, cancel := context.WithCancel(context.Background())
	conn, err := connector.Connect(ctx, ref)
	if err != nil {
		cancel()
		return nil, err
	}
	s := newSession(ctx, cancel, ref, conn)
	loop := fx.NewLoop()
	if adder, ok := conn.(fx.LoopAdder); ok {
		loop.Add(adder)
	}
	go loop.Run(ctx)
	return s, nil
}

func newSession(ctx context.Context, cancel func(), ref remote.DeviceRef, conn remote.DeviceConn) *Session {
	s := &Session{
		Ref:    ref,
		Conn:   conn,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.consumeEvents()
	return s
}

// Close terminates the session.
func (s *Session) Close() {
	s.cancel()
	<-s.done
}

// Do sends a command and waits for the reply. A StatusReply also
// refreshes the cached status.
func (s *Session) Do(msg fx.Message) (fx.Message, error) {
	f := s.Conn.DoCommand(msg)
	select {
	case res := <-f.ResultChan():
		if res.Err != nil {
			return nil, res.Err
		}
		if reply, ok := res.Msg.(*msgs.StatusReply); ok && reply.Status != nil {
			s.updateStatus(reply.Status)
		}
		return res.Msg, nil
	case <-time.After(CommandTimeout):
		return nil, context.DeadlineExceeded
	case <-s.ctx.Done():
		return nil, s.ctx.Err()
	}
}

// Status returns the latest known status, nil before any is received.
func (s *Session) Status() *msgs.Status {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.status == nil {
		return nil
	}
	status := *s.status
	return &status
}

// LastReading returns the latest reported reading, nil if none.
func (s *Session) LastReading() *msgs.Reading {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.reading
}

// OnStatus sets the callback invoked whenever a new status is known.
func (s *Session) OnStatus(fn func(msgs.Status)) {
	s.lock.Lock()
	s.onStatus = fn
	s.lock.Unlock()
}

// Watch forwards events to ch until the returned func is called. Only
// events arriving after Watch are delivered and they are dropped when
// ch is not ready.
func (s *Session) Watch(ch chan<- fx.Message) (stop func()) {
	s.lock.Lock()
	s.watcher = ch
	s.lock.Unlock()
	return func() {
		s.lock.Lock()
		if s.watcher == ch {
			s.watcher = nil
		}
		s.lock.Unlock()
	}
}

// Done is closed when the session stops consuming events.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) consumeEvents() {
	defer close(s.done)
	events := s.Conn.Events()
	for {
		select {
		case <-s.ctx.Done():
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			s.handleEvent(msg)
		}
	}
}

func (s *Session) handleEvent(msg fx.Message) {
	switch m := msg.(type) {
	case *msgs.Status:
		s.updateStatus(m)
	case *msgs.Reading:
		s.lock.Lock()
		s.reading = m
		s.lock.Unlock()
	}
	s.lock.Lock()
	watcher := s.watcher
	s.lock.Unlock()
	if watcher != nil {
		select {
		case watcher <- msg:
		default:
		}
	}
}

func (s *Session) updateStatus(status *msgs.Status) {
	s.lock.Lock()
	copied := *status
	s.status = &copied
	fn := s.onStatus
	s.lock.Unlock()
	if fn != nil {
		fn(copied)
	}
}
