// Package websocket upgrades HTTP connections to WebSocket and hands them to
// the connection handler, mirroring the length-prefixed TCP listener's role
// for the other transport.
package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/keniprimo/rendezvous-relay/internal/logs"
	"github.com/keniprimo/rendezvous-relay/internal/server"
	"github.com/keniprimo/rendezvous-relay/internal/transport"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  64 * 1024,
	WriteBufferSize: 64 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades every request it receives and hands the resulting
// connection to the room server. There is exactly one route: the relay
// protocol's CREATE_ROOM/JOIN_ROOM dispatch happens after the upgrade, not
// in the URL.
type Handler struct {
	srv        *server.Server
	maxMsgSize int64
	log        logs.Logger
}

func NewHandler(srv *server.Server, maxMsgSize int64, log logs.Logger) *Handler {
	return &Handler{srv: srv, maxMsgSize: maxMsgSize, log: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", logs.F("err", err.Error()))
		return
	}
	t := transport.NewWS(conn, h.maxMsgSize)
	h.srv.HandleConnection(t)
}
