package mqtt

import (
	"context"
	"encoding/json"
	"fmt"

	fx "github.com/robotalks/pulseox/pkg/framework"
	"github.com/robotalks/pulseox/pkg/remote"
	"github.com/robotalks/pulseox/pkg/remote/comm"
)

// Registrar implements remote.Registrar using MQTT. The device
// announces itself with a retained type/id/meta message which is
// cleared by the will when the connection drops.
type Registrar struct {
	Queue *Queue
	Info  remote.DeviceInfo

	metaJSON  []byte
	registrar comm.Registrar
}

// NewRegistrar creates a Registrar.
func NewRegistrar(brokerURL string, info remote.DeviceInfo) (*Registrar, error) {
	meta, err := json.Marshal(&info.Meta)
	if err != nil {
		return nil, fmt.Errorf("encode meta: %v", err)
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+info.Ref.Name()+"/meta", nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("pulseox:" + info.Ref.Name())
	}
	r := &Registrar{
		Queue:    NewQueue(opts, topicPrefix),
		Info:     info,
		metaJSON: meta,
	}
	r.Queue.OnConnect = func(*Queue) { r.onConnected() }
	r.registrar.Init(NewPacketReadWriter(r.Queue).ForDevice(info.Ref))
	return r, nil
}

// SendEvent implements remote.Registrar.
func (r *Registrar) SendEvent(ctx context.Context, msg fx.Message) error {
	if !r.Queue.Client.IsConnected() {
		return nil
	}
	return r.registrar.SendEvent(ctx, msg)
}

// AddToLoop implements LoopAdder.
func (r *Registrar) AddToLoop(loop *fx.Loop) {
	loop.Add(&r.registrar)
	loop.AddRunnable(r)
}

// Run implements Runnable.
func (r *Registrar) Run(ctx context.Context) error {
	r.Queue.Connect()
	<-ctx.Done()
	if r.Queue.Client.IsConnected() {
		r.Queue.PubWith(r.Info.Ref.Name()+"/meta", nil, 1, true).Wait()
	}
	r.Queue.Close()
	return nil
}

func (r *Registrar) onConnected() {
	r.Queue.PubWith(r.Info.Ref.Name()+"/meta", r.metaJSON, 1, true)
}
