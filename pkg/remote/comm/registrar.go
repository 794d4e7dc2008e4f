package comm

import (
	"context"
	"sync"

	fx "github.com/robotalks/pulseox/pkg/framework"
	"github.com/robotalks/pulseox/pkg/remote"
	"github.com/robotalks/pulseox/pkg/remote/msgs"
)

// Registrar implements remote.Registrar on a Pipe. Received commands
// and events are posted to the loop found in the Pipe's context.
type Registrar struct {
	pipe Pipe
}

// NewRegistrar creates a Registrar over rw.
func NewRegistrar(rw PacketReadWriter) *Registrar {
	r := &Registrar{}
	r.Init(rw)
	return r
}

// Init initializes the Registrar with defaults.
func (r *Registrar) Init(rw PacketReadWriter) {
	r.pipe.ReadWriter = rw
	r.pipe.Handler = msgs.HandleTypedMsgFunc(func(ctx context.Context, msg fx.Message, typed *msgs.Typed) error {
		loopCtl := fx.LoopCtlFrom(ctx)
		if typed.IsCommand() {
			loopCtl.PostMessage(&remote.CommandMsg{Command: &command{seq: typed.Sequence, msg: msg, pipe: &r.pipe}})
		} else {
			loopCtl.PostMessage(msg)
		}
		loopCtl.TriggerNext()
		return nil
	})
}

// SendEvent implements remote.Registrar.
func (r *Registrar) SendEvent(ctx context.Context, msg fx.Message) error {
	return r.pipe.SendEventMsg(msg)
}

// Run runs the underlying pipe until it ends or ctx is canceled;
// ctx must carry a LoopControl.
func (r *Registrar) Run(ctx context.Context) error {
	return RunWithCloser(ctx, &r.pipe)
}

// Close closes the underlying pipe.
func (r *Registrar) Close() error {
	return r.pipe.Close()
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.Add(&r.pipe)
}

type command struct {
	seq  uint32
	msg  fx.Message
	pipe *Pipe
}

func (c *command) Msg() fx.Message {
	return c.msg
}

func (c *command) Done(msg fx.Message) error {
	return c.pipe.SendCommandMsg(msg, c.seq)
}

// RegistrarMux fans events out to multiple Registrars.
// Registrars may be added and removed while the loop runs.
type RegistrarMux struct {
	registrars []remote.Registrar
	lock       sync.RWMutex
}

// SendEvent implements remote.Registrar.
func (r *RegistrarMux) SendEvent(ctx context.Context, msg fx.Message) error {
	r.lock.RLock()
	regs := r.registrars
	r.lock.RUnlock()
	var errs fx.AggregatedError
	for _, reg := range regs {
		errs.Add(reg.SendEvent(ctx, msg))
	}
	return errs.Aggregate()
}

// AddToLoop implements LoopAdder.
func (r *RegistrarMux) AddToLoop(l *fx.Loop) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	for _, reg := range r.registrars {
		if adder, ok := reg.(fx.LoopAdder); ok {
			l.Add(adder)
		}
	}
}

// Add adds more registrars.
func (r *RegistrarMux) Add(regs ...remote.Registrar) {
	r.lock.Lock()
	r.registrars = append(r.registrars, regs...)
	r.lock.Unlock()
}

// Remove removes a registrar.
func (r *RegistrarMux) Remove(reg remote.Registrar) {
	r.lock.Lock()
	defer r.lock.Unlock()
	regs := make([]remote.Registrar, 0, len(r.registrars))
	for _, item := range r.registrars {
		if item != reg {
			regs = append(regs, item)
		}
	}
	r.registrars = regs
}

// Len returns the number of registrars.
func (r *RegistrarMux) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.registrars)
}

// UnsupportedCommands replies left-over commands as unsupported.
type UnsupportedCommands struct {
}

// Control implements Controller.
func (c *UnsupportedCommands) Control(cc fx.ControlContext) error {
	var errs fx.AggregatedError
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		if cmdMsg, ok := mctx.CurrentMessage().(*remote.CommandMsg); ok {
			mctx.MessageTaken()
			errs.Add(cmdMsg.Command.Done(msgs.NewCommandErr(msgs.ErrUnsupportedCommand)))
		}
	}))
	return errs.Aggregate()
}

// AddToLoop implements LoopAdder.
func (c *UnsupportedCommands) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvIdle, c)
}
