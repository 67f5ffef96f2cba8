// Package server is the connection handler: the entry point every accepted
// connection passes through regardless of which transport admitted it —
// rate limiting, the one control-message read, and dispatch to CREATE_ROOM
// or JOIN_ROOM.
package server

import (
	"github.com/keniprimo/rendezvous-relay/internal/conn"
	"github.com/keniprimo/rendezvous-relay/internal/logs"
	"github.com/keniprimo/rendezvous-relay/internal/metrics"
	"github.com/keniprimo/rendezvous-relay/internal/protocol"
	"github.com/keniprimo/rendezvous-relay/internal/ratelimit"
	"github.com/keniprimo/rendezvous-relay/internal/room"
	"github.com/keniprimo/rendezvous-relay/internal/transport"
	"golang.org/x/time/rate"
)

// Server holds everything a connection handler needs, threaded explicitly
// rather than reached through package globals.
type Server struct {
	Registry       *room.Registry
	Limiter        *ratelimit.Limiter
	MaxMsgSize     int
	RelayRateLimit int
	Log            logs.Logger
}

// HandleConnection drives one admitted transport through admission, the
// control handshake, and dispatch. It blocks until the connection's whole
// lifecycle (CREATE: the room's lifetime; JOIN: until released) completes.
func (s *Server) HandleConnection(t transport.Transport) {
	addr := t.RemoteAddr()

	if !s.Limiter.Allow(addr) {
		transport.SendObject(t, protocol.Error(protocol.ReasonRateLimited))
		t.Close()
		metrics.RateLimited.Inc()
		return
	}
	metrics.Connections.Inc()

	c := conn.New(t, addr)

	var req protocol.Request
	if !transport.ReceiveObject(t, &req) {
		transport.SendObject(t, protocol.Error(protocol.ReasonInvalidRequest))
		c.Close()
		metrics.InvalidRequests.Inc()
		return
	}

	switch req.Type {
	case protocol.TypeCreateRoom:
		s.handleCreate(c)
	case protocol.TypeJoinRoom:
		s.handleJoin(c, req.RoomID)
	default:
		transport.SendObject(t, protocol.Error(protocol.ReasonInvalidRequest))
		c.Close()
		metrics.InvalidRequests.Inc()
	}
}

func (s *Server) handleCreate(c *conn.Connection) {
	r, err := s.Registry.Create(c)
	if err != nil {
		transport.SendObject(c.Transport, protocol.Error(protocol.ReasonTooManyRooms))
		c.Close()
		return
	}

	if !transport.SendObject(c.Transport, protocol.RoomCreated(r.ID)) {
		r.Close()
		return
	}
	s.Log.Info("room created", logs.F("room_id_prefix", r.ID[:2]))

	var limiter *rate.Limiter
	if s.RelayRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.RelayRateLimit), s.RelayRateLimit)
	}

	r.Run(s.MaxMsgSize, limiter)
	r.Close()
	s.Log.Info("room destroyed", logs.F("room_id_prefix", r.ID[:2]))
}

func (s *Server) handleJoin(c *conn.Connection, roomID string) {
	if !room.ValidID(roomID) {
		transport.SendObject(c.Transport, protocol.Error(protocol.ReasonRoomNotFound))
		c.Close()
		return
	}

	r, ok := s.Registry.Get(roomID)
	if !ok {
		transport.SendObject(c.Transport, protocol.Error(protocol.ReasonRoomNotFound))
		c.Close()
		return
	}

	if !transport.SendObject(c.Transport, protocol.RoomJoined(roomID)) {
		c.Close()
		return
	}

	if !r.Enqueue(c) {
		transport.SendObject(c.Transport, protocol.Error(protocol.ReasonRoomNotFound))
		c.Close()
		return
	}

	<-c.RelayDone()
	c.Close()
}
