package websocket

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	fx "github.com/robotalks/pulseox/pkg/framework"
	"github.com/robotalks/pulseox/pkg/remote"
	"github.com/robotalks/pulseox/pkg/remote/comm"
)

// Paths served by Server.
const (
	PathPipe = "/pipe"
	PathMeta = "/meta"
)

// Server exposes a device on a websocket endpoint. Every accepted
// connection becomes a Registrar in Mux for its lifetime.
type Server struct {
	Addr string
	Info remote.DeviceInfo
	Mux  *comm.RegistrarMux

	listener net.Listener
	loopCtx  context.Context
}

// NewServer creates a Server.
func NewServer(addr string, info remote.DeviceInfo, mux *comm.RegistrarMux) *Server {
	return &Server{Addr: addr, Info: info, Mux: mux}
}

// Handler returns the http.Handler serving the endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(PathPipe, websocket.Handler(s.servePipe))
	mux.HandleFunc(PathMeta, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"type": s.Info.Ref.Type,
			"id":   s.Info.Ref.ID,
			"meta": s.Info.Meta,
		})
	})
	return mux
}

// AddToLoop implements LoopAdder.
func (s *Server) AddToLoop(l *fx.Loop) {
	l.AddRunnable(fx.NamedRun("websocket", s))
}

// Run implements Runnable; ctx must carry a LoopControl.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.listener, s.loopCtx = ln, ctx
	glog.Infof("websocket endpoint on %s", ln.Addr())
	srv := &http.Server{Handler: s.Handler()}
	return fx.RunWithContextCancel(ctx, func() { srv.Close() }, func() error {
		if err := srv.Serve(ln); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
}

func (s *Server) servePipe(conn *websocket.Conn) {
	conn.PayloadType = websocket.BinaryFrame
	reg := comm.NewRegistrar(New(conn))
	s.Mux.Add(reg)
	defer s.Mux.Remove(reg)
	glog.Infof("websocket client connected: %s", conn.Request().RemoteAddr)
	if err := reg.Run(s.loopCtx); err != nil {
		glog.V(2).Infof("websocket client closed: %v", err)
	}
}
