// Package conn holds the Connection type: one admitted peer, its transport,
// and the two one-shot signals that drive teardown and receiver release.
package conn

import (
	"github.com/google/uuid"
	"github.com/keniprimo/rendezvous-relay/internal/latch"
	"github.com/keniprimo/rendezvous-relay/internal/transport"
)

// Connection represents one admitted peer. It is owned initially by the
// handler; on CREATE ownership of the sender transfers to the room; on JOIN
// the connection is handed to the room's receiver queue and logically
// co-owned by the room until dequeued.
type Connection struct {
	ID         string
	Transport  transport.Transport
	RemoteAddr string

	closed    *latch.Latch
	relayDone *latch.Latch
}

// New admits a transport as a Connection with a fresh, locally generated id.
func New(t transport.Transport, remoteAddr string) *Connection {
	return &Connection{
		ID:         uuid.NewString(),
		Transport:  t,
		RemoteAddr: remoteAddr,
		closed:     latch.New(),
		relayDone:  latch.New(),
	}
}

// Close fires the closed signal and releases the transport. Irreversible
// and idempotent: only the first caller does work.
func (c *Connection) Close() {
	if c.closed.Set() {
		c.Transport.Close()
	}
}

// Closed returns the channel that closes once Close has fired.
func (c *Connection) Closed() <-chan struct{} {
	return c.closed.Done()
}

// IsClosed reports whether Close has fired, without blocking.
func (c *Connection) IsClosed() bool {
	return c.closed.IsSet()
}

// MarkRelayDone releases a connection parked on a room's receiver queue.
// Idempotent.
func (c *Connection) MarkRelayDone() {
	c.relayDone.Set()
}

// RelayDone returns the channel that closes once MarkRelayDone has fired.
func (c *Connection) RelayDone() <-chan struct{} {
	return c.relayDone.Done()
}
