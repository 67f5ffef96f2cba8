package server

import (
	"net"

	"github.com/keniprimo/rendezvous-relay/internal/logs"
	"github.com/keniprimo/rendezvous-relay/internal/transport"
)

// ListenTCP runs the length-prefixed TCP listener until addr fails to bind
// or the listener is closed. Each accepted connection is handed to
// HandleConnection on its own goroutine.
func (s *Server) ListenTCP(addr string, maxMsgSize uint32) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer ln.Close()
	s.Log.Info("tcp listener started", logs.F("addr", addr))

	for {
		c, err := ln.Accept()
		if err != nil {
			return err
		}
		go s.HandleConnection(transport.NewTCP(c, maxMsgSize))
	}
}
