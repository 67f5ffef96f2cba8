package room

import (
	"errors"
	"sync"
	"time"

	"github.com/keniprimo/rendezvous-relay/internal/conn"
	"github.com/keniprimo/rendezvous-relay/internal/metrics"
)

// ErrTooManyRooms is returned by Create when the registry is at capacity.
var ErrTooManyRooms = errors.New("too_many_rooms")

// ErrIDExhausted is returned by Create when genRoomID could not find a free
// id within the retry budget — astronomically unlikely at the configured
// alphabet and length, but bounded rather than looping forever.
var ErrIDExhausted = errors.New("room_id_exhausted")

// maxIDAttempts bounds retries against a collided or malformed room id.
const maxIDAttempts = 100

// Registry owns the set of live rooms, keyed by room id.
type Registry struct {
	maxRooms int
	ttl      time.Duration

	mu    sync.Mutex
	rooms map[string]*Room
}

// NewRegistry returns an empty registry admitting at most maxRooms
// concurrently live rooms, each evicted by the sweeper once ttl has elapsed
// since its creation, whether or not it is in use.
func NewRegistry(maxRooms int, ttl time.Duration) *Registry {
	return &Registry{
		maxRooms: maxRooms,
		ttl:      ttl,
		rooms:    make(map[string]*Room),
	}
}

// Create allocates a fresh room for sender, generating a free id. It fails
// with ErrTooManyRooms if the registry is at capacity, or ErrIDExhausted if
// no free id was found within the retry budget.
func (reg *Registry) Create(sender *conn.Connection) (*Room, error) {
	reg.mu.Lock()
	if len(reg.rooms) >= reg.maxRooms {
		reg.mu.Unlock()
		return nil, ErrTooManyRooms
	}
	reg.mu.Unlock()

	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := genRoomID()
		if err != nil {
			continue
		}

		reg.mu.Lock()
		if _, exists := reg.rooms[id]; exists {
			reg.mu.Unlock()
			continue
		}
		if len(reg.rooms) >= reg.maxRooms {
			reg.mu.Unlock()
			return nil, ErrTooManyRooms
		}
		r := newRoom(id, sender, reg)
		reg.rooms[id] = r
		reg.mu.Unlock()

		metrics.RoomsCreated.Inc()
		metrics.RoomsActive.Set(float64(reg.Count()))
		return r, nil
	}

	return nil, ErrIDExhausted
}

// Get returns the room for id, or false if it does not exist, is already
// closed, or has exceeded the registry's TTL.
func (reg *Registry) Get(id string) (*Room, bool) {
	reg.mu.Lock()
	r, ok := reg.rooms[id]
	reg.mu.Unlock()
	if !ok {
		return nil, false
	}
	if r.IsClosed() || r.Age() > reg.ttl {
		return nil, false
	}
	return r, true
}

// remove drops id from the registry. It is called by Room.Close and is
// idempotent.
func (reg *Registry) remove(id string) {
	reg.mu.Lock()
	delete(reg.rooms, id)
	count := len(reg.rooms)
	reg.mu.Unlock()
	metrics.RoomsActive.Set(float64(count))
}

// Count reports the number of rooms currently tracked.
func (reg *Registry) Count() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}

// SweepExpired returns (without closing) every room older than the
// registry's TTL, for the caller to close outside any lock.
func (reg *Registry) SweepExpired() []*Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var expired []*Room
	for _, r := range reg.rooms {
		if r.Age() > reg.ttl {
			expired = append(expired, r)
		}
	}
	return expired
}
