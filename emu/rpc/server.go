package rpc

import (
	"io"
	"net"
	"net/http"
	"net/rpc"
	"strconv"
)

// Emu is the control surface the server forwards calls to, implemented by
// the emulator loop. State transfers are requests serviced between frames,
// not immediate operations.
type Emu interface {
	Reset()
	SetPause(pause bool)
	Stop()
	SpeedUp()
	SpeedDown()
	RequestSaveState()
	RequestLoadState()
}

type emuProxy struct {
	emu Emu
}

func (ep *emuProxy) Reset(_, _ *struct{}) error             { ep.emu.Reset(); return nil }
func (ep *emuProxy) SetPause(pause bool, _ *struct{}) error { ep.emu.SetPause(pause); return nil }
func (ep *emuProxy) Stop(_ *struct{}, _ *struct{}) error    { ep.emu.Stop(); return nil }
func (ep *emuProxy) SpeedUp(_, _ *struct{}) error           { ep.emu.SpeedUp(); return nil }
func (ep *emuProxy) SpeedDown(_, _ *struct{}) error         { ep.emu.SpeedDown(); return nil }
func (ep *emuProxy) SaveState(_, _ *struct{}) error         { ep.emu.RequestSaveState(); return nil }
func (ep *emuProxy) LoadState(_, _ *struct{}) error         { ep.emu.RequestLoadState(); return nil }

func (ep *emuProxy) IsReady(_ *struct{}, reply *bool) error {
	*reply = true
	return nil
}

type Server struct {
	io.Closer
}

func NewServer(port int, emu Emu) (*Server, error) {
	proxy := &emuProxy{emu: emu}
	if err := rpc.RegisterName("emu", proxy); err != nil {
		panic("failed to register RPC server: " + err.Error())
	}
	rpc.HandleHTTP()
	l, err := net.Listen("tcp", ":"+strconv.Itoa(port))
	if err != nil {
		return nil, err
	}

	modRPC.InfoZ("rpc server listening").Int("port", port).End()
	go http.Serve(l, nil)
	return &Server{Closer: l}, nil
}
