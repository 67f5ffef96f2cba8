// Package transport provides the two interchangeable message transports
// (length-prefixed TCP, WebSocket) behind a single Transport contract. Both
// frame a stream of opaque messages; neither parses payload bytes during the
// relay phase. All I/O failures are signaled by a boolean sentinel rather
// than a propagated error, so the caller decides whether to close.
package transport

import "encoding/json"

// Transport is the thin contract every connection is driven through: object
// (JSON) and raw (opaque) send/receive, plus enough control to let the
// bidirectional relay cancel a peer's blocked read.
type Transport interface {
	// SendRaw writes one opaque frame. It blocks on transport
	// back-pressure. It returns false on any I/O error.
	SendRaw(b []byte) bool

	// ReceiveRaw reads one frame. It returns false on EOF, I/O error, or a
	// framing/size violation (0 or > max length).
	ReceiveRaw() ([]byte, bool)

	// InterruptRead unblocks a goroutine currently parked in ReceiveRaw on
	// this transport by expiring its read deadline; the interrupted
	// ReceiveRaw returns false. On the WebSocket transport the failed read
	// is permanent and later reads fail too. Safe to call concurrently with
	// a blocked ReceiveRaw; that is its purpose.
	InterruptRead()

	// Close releases the underlying connection. Idempotent.
	Close() error

	// RemoteAddr returns the peer address used for rate limiting.
	RemoteAddr() string
}

// SendObject marshals v to JSON and sends it as one frame.
func SendObject(t Transport, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		return false
	}
	return t.SendRaw(data)
}

// ReceiveObject reads one frame and unmarshals it into v.
func ReceiveObject(t Transport, v any) bool {
	data, ok := t.ReceiveRaw()
	if !ok {
		return false
	}
	return json.Unmarshal(data, v) == nil
}
