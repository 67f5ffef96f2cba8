package transport

import (
	"net"
	"time"

	"github.com/gorilla/websocket"
)

// WriteTimeout bounds how long a send may block on back-pressure before the
// connection is considered dead.
const WriteTimeout = 30 * time.Second

// wsTransport adapts a *websocket.Conn to the Transport contract. One
// message is one frame; binary and text frames are both treated as opaque
// byte payloads (binary frames are valid UTF-8 JSON when carrying a control
// object, and arbitrary bytes when carrying relay payload).
type wsTransport struct {
	conn       *websocket.Conn
	maxMsgSize int64
}

// NewWS wraps conn, enforcing maxMsgSize on inbound frames.
func NewWS(conn *websocket.Conn, maxMsgSize int64) Transport {
	conn.SetReadLimit(maxMsgSize)
	return &wsTransport{conn: conn, maxMsgSize: maxMsgSize}
}

func (t *wsTransport) SendRaw(b []byte) bool {
	t.conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
	return t.conn.WriteMessage(websocket.BinaryMessage, b) == nil
}

func (t *wsTransport) ReceiveRaw() ([]byte, bool) {
	// Clear any read deadline before blocking; InterruptRead races this
	// only from a different goroutine, which is the documented safe pattern
	// for net.Conn. A read already failed by InterruptRead stays failed:
	// the websocket.Conn keeps returning its first read error.
	t.conn.SetReadDeadline(time.Time{})
	_, data, err := t.conn.ReadMessage()
	if err != nil {
		return nil, false
	}
	if len(data) == 0 || int64(len(data)) > t.maxMsgSize {
		return nil, false
	}
	return data, true
}

func (t *wsTransport) InterruptRead() {
	t.conn.SetReadDeadline(time.Now())
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}

func (t *wsTransport) RemoteAddr() string {
	addr := t.conn.RemoteAddr().String()
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
