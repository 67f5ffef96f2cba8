// Package room implements the room lifecycle and paired-relay state
// machine: registry allocation/lookup/eviction, the sender/receiver FIFO,
// and the idempotent closure protocol that tears down every owned
// connection without leaks or deadlocks.
package room

import (
	"sync"
	"time"

	"github.com/keniprimo/rendezvous-relay/internal/conn"
	"github.com/keniprimo/rendezvous-relay/internal/latch"
	"github.com/keniprimo/rendezvous-relay/internal/metrics"
	"github.com/keniprimo/rendezvous-relay/internal/protocol"
	"github.com/keniprimo/rendezvous-relay/internal/transport"
)

// Room is one rendezvous session: one sender, a FIFO of queued receivers,
// at most one active receiver at a time.
type Room struct {
	ID        string
	Sender    *conn.Connection
	CreatedAt time.Time

	registry *Registry

	mu     sync.Mutex
	queue  []*conn.Connection
	active *conn.Connection
	wake   chan struct{}

	reader *senderReader
	closed *latch.Latch
}

func newRoom(id string, sender *conn.Connection, registry *Registry) *Room {
	return &Room{
		ID:        id,
		Sender:    sender,
		CreatedAt: time.Now(),
		registry:  registry,
		wake:      make(chan struct{}, 1),
		reader:    newSenderReader(sender),
		closed:    latch.New(),
	}
}

// Age reports how long ago the room was created.
func (r *Room) Age() time.Duration {
	return time.Since(r.CreatedAt)
}

// IsClosed reports whether the room has been closed, without blocking.
func (r *Room) IsClosed() bool {
	return r.closed.IsSet()
}

// Enqueue appends c to the receiver queue. It reports false (and does not
// enqueue) if the room is already closed — the caller should treat that the
// same as room-not-found.
func (r *Room) Enqueue(c *conn.Connection) bool {
	r.mu.Lock()
	if r.closed.IsSet() {
		r.mu.Unlock()
		return false
	}
	r.queue = append(r.queue, c)
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
	return true
}

// nextReceiver blocks until a receiver is available or the room closes. It
// reports false once the room is closed and the queue has been drained.
func (r *Room) nextReceiver() (*conn.Connection, bool) {
	for {
		if c, ok := r.popQueued(); ok {
			return c, true
		}
		select {
		case <-r.wake:
		case <-r.closed.Done():
			if c, ok := r.popQueued(); ok {
				return c, true
			}
			return nil, false
		}
	}
}

func (r *Room) popQueued() (*conn.Connection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		return nil, false
	}
	c := r.queue[0]
	r.queue = r.queue[1:]
	return c, true
}

func (r *Room) setActive(c *conn.Connection) {
	r.mu.Lock()
	r.active = c
	r.mu.Unlock()
}

func (r *Room) clearActive() {
	r.mu.Lock()
	r.active = nil
	r.mu.Unlock()
}

// Active returns the current active receiver, or nil.
func (r *Room) Active() *conn.Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Close idempotently tears the room down: mark closed, remove from the
// registry, release the active receiver (no message to it — only queued
// receivers get one), drain the queue with sender_disconnected, and close
// the sender. Only the first caller does work; later calls are no-ops.
func (r *Room) Close() {
	if !r.closed.Set() {
		return
	}

	if r.registry != nil {
		r.registry.remove(r.ID)
	}

	r.mu.Lock()
	active := r.active
	r.active = nil
	queued := r.queue
	r.queue = nil
	r.mu.Unlock()

	if active != nil {
		active.MarkRelayDone()
		active.Close()
	}
	for _, q := range queued {
		transport.SendObject(q.Transport, protocol.Error(protocol.ReasonSenderDisconnected))
		q.MarkRelayDone()
		q.Close()
	}

	r.Sender.Close()
	metrics.RoomsDestroyed.Inc()
}
