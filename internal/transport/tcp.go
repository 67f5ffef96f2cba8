package transport

import (
	"encoding/binary"
	"io"
	"net"
	"time"
)

// tcpTransport adapts a net.Conn to the Transport contract using a 4-byte
// unsigned big-endian length prefix followed by that many bytes of
// payload. A length of 0 or greater than maxMsgSize is a protocol
// violation.
type tcpTransport struct {
	conn       net.Conn
	maxMsgSize uint32
}

// NewTCP wraps conn, enforcing maxMsgSize on inbound frames.
func NewTCP(conn net.Conn, maxMsgSize uint32) Transport {
	return &tcpTransport{conn: conn, maxMsgSize: maxMsgSize}
}

func (t *tcpTransport) SendRaw(b []byte) bool {
	n := uint32(len(b))
	if n == 0 || n > t.maxMsgSize {
		return false
	}
	t.conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], n)
	if _, err := t.conn.Write(hdr[:]); err != nil {
		return false
	}
	_, err := t.conn.Write(b)
	return err == nil
}

func (t *tcpTransport) ReceiveRaw() ([]byte, bool) {
	t.conn.SetReadDeadline(time.Time{})
	var hdr [4]byte
	if _, err := io.ReadFull(t.conn, hdr[:]); err != nil {
		return nil, false
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n == 0 || n > t.maxMsgSize {
		return nil, false
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(t.conn, buf); err != nil {
		return nil, false
	}
	return buf, true
}

func (t *tcpTransport) InterruptRead() {
	t.conn.SetReadDeadline(time.Now())
}

func (t *tcpTransport) Close() error {
	return t.conn.Close()
}

func (t *tcpTransport) RemoteAddr() string {
	host, _, err := net.SplitHostPort(t.conn.RemoteAddr().String())
	if err != nil {
		return t.conn.RemoteAddr().String()
	}
	return host
}
