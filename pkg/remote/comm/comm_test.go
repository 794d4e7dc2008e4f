package comm

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/pulseox/pkg/framework"
	"github.com/robotalks/pulseox/pkg/remote"
	"github.com/robotalks/pulseox/pkg/remote/msgs"
)

type chanReadWriter struct {
	in   <-chan []byte
	out  chan<- []byte
	done chan struct{}
	once sync.Once
}

func newChanPair() (*chanReadWriter, *chanReadWriter) {
	a2b, b2a := make(chan []byte, 4), make(chan []byte, 4)
	return &chanReadWriter{in: b2a, out: a2b, done: make(chan struct{})},
		&chanReadWriter{in: a2b, out: b2a, done: make(chan struct{})}
}

func (c *chanReadWriter) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-c.in:
		return pkt, nil
	case <-c.done:
		return nil, io.EOF
	}
}

func (c *chanReadWriter) WritePacket(pkt []byte) error {
	select {
	case c.out <- pkt:
		return nil
	case <-c.done:
		return io.ErrClosedPipe
	}
}

func (c *chanReadWriter) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

type testEnv struct {
	t      *testing.T
	ctx    context.Context
	cancel func()
	reg    *Registrar
	conn   *DeviceConn
	loopCh chan error
}

func newTestEnv(t *testing.T) *testEnv {
	devRW, toolRW := newChanPair()
	env := &testEnv{t: t, loopCh: make(chan error, 1)}
	env.ctx, env.cancel = context.WithCancel(context.Background())

	env.reg = NewRegistrar(devRW)
	loop := fx.NewLoop()
	loop.Interval = 5 * time.Millisecond
	loop.Add(env.reg, &UnsupportedCommands{})
	loop.AddController(fx.PrLvControl, fx.ControlFunc(func(cc fx.ControlContext) error {
		cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
			if cmd, ok := mctx.CurrentMessage().(*remote.CommandMsg); ok {
				if _, ok := cmd.Command.Msg().(*msgs.StatusQuery); ok {
					mctx.MessageTaken()
					cmd.Command.Done(&msgs.StatusReply{Status: &msgs.Status{Sensor: "ok", HeartRate: 80}})
				}
			}
		}))
		return nil
	}))
	go func() { env.loopCh <- loop.Run(env.ctx) }()

	env.conn = &DeviceConn{}
	env.conn.Init(toolRW)
	go env.conn.Run(env.ctx)
	return env
}

func (e *testEnv) close() {
	e.cancel()
	select {
	case <-e.loopCh:
	case <-time.After(time.Second):
		e.t.Fatal("loop not stopped")
	}
}

func (e *testEnv) result(f remote.CommandFuture) remote.Result {
	select {
	case res := <-f.ResultChan():
		return res
	case <-time.After(time.Second):
		e.t.Fatal("command timeout")
	}
	return remote.Result{}
}

func TestCommandReply(t *testing.T) {
	env := newTestEnv(t)
	defer env.close()

	res := env.result(env.conn.DoCommand(&msgs.StatusQuery{}))
	require.NoError(t, res.Err)
	reply, ok := res.Msg.(*msgs.StatusReply)
	require.True(t, ok)
	require.Equal(t, "ok", reply.Status.Sensor)
	require.Equal(t, float32(80), reply.Status.HeartRate)
}

func TestUnsupportedCommand(t *testing.T) {
	env := newTestEnv(t)
	defer env.close()

	res := env.result(env.conn.DoCommand(&msgs.BuzzerSet{On: true}))
	require.Error(t, res.Err)
	require.Equal(t, msgs.ErrUnsupportedCommand.Error(), res.Err.Error())
}

func TestEventDelivery(t *testing.T) {
	env := newTestEnv(t)
	defer env.close()

	require.NoError(t, env.reg.SendEvent(env.ctx, &msgs.Beat{Count: 3}))
	select {
	case msg := <-env.conn.Events():
		beat, ok := msg.(*msgs.Beat)
		require.True(t, ok)
		require.Equal(t, uint64(3), beat.Count)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestEventsKeepLatest(t *testing.T) {
	_, toolRW := newChanPair()
	var conn DeviceConn
	conn.Init(toolRW)
	for n := 1; n <= EventBufferSize+4; n++ {
		typed, err := msgs.TypedFrom(&msgs.Beat{Count: uint64(n)})
		require.NoError(t, err)
		require.NoError(t, conn.handleTypedMsg(context.Background(), &msgs.Beat{Count: uint64(n)}, typed))
	}
	for n := 5; n <= EventBufferSize+4; n++ {
		msg := <-conn.Events()
		require.Equal(t, uint64(n), msg.(*msgs.Beat).Count)
	}
	select {
	case msg := <-conn.Events():
		t.Fatalf("unexpected event %v", msg)
	default:
	}
}

func TestSendWrongKind(t *testing.T) {
	p := NewPipe(nil)
	require.Error(t, p.SendEventMsg(&msgs.StatusQuery{}))
	require.Error(t, p.SendCommandMsg(&msgs.Beat{}, 1))
}

func TestCommandExpiration(t *testing.T) {
	devRW, toolRW := newChanPair()
	defer devRW.Close()
	var conn DeviceConn
	conn.Init(toolRW)
	conn.Expiration = 20 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go conn.Run(ctx)

	f := conn.DoCommand(&msgs.StatusQuery{})
	select {
	case res := <-f.ResultChan():
		require.Equal(t, context.DeadlineExceeded, res.Err)
	case <-time.After(time.Second):
		t.Fatal("command not expired")
	}
}

type recordingRegistrar struct {
	events []fx.Message
}

func (r *recordingRegistrar) SendEvent(ctx context.Context, msg fx.Message) error {
	r.events = append(r.events, msg)
	return nil
}

func TestRegistrarMux(t *testing.T) {
	var mux RegistrarMux
	a, b := &recordingRegistrar{}, &recordingRegistrar{}
	mux.Add(a, b)
	require.NoError(t, mux.SendEvent(context.Background(), &msgs.Beat{}))
	mux.Remove(a)
	require.Equal(t, 1, mux.Len())
	require.NoError(t, mux.SendEvent(context.Background(), &msgs.Beat{}))
	require.Len(t, a.events, 1)
	require.Len(t, b.events, 2)
}
