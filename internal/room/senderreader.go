package room

import "github.com/keniprimo/rendezvous-relay/internal/conn"

// senderReader owns the sender's read side for the entire life of a room.
// A sender connection outlives any single pairing — it sits idle between
// receivers and across the gaps between successive relay phases — so
// nothing else may call Transport.ReceiveRaw on it directly, or an idle
// read and an active relay's read would race for the same frames. Reads
// are instead funneled onto frames.
//
// Exactly one consumer must be draining frames at all times, or a send here
// blocks run and it stops returning to ReceiveRaw — which is the only thing
// that notices the sender disconnecting between pairings. While a pairing
// is active, relay.Run's forwardFromSender is that consumer; the controller
// runs discard as the consumer for every gap in between (including before
// the first pairing), so a frame that arrives with no receiver to deliver
// it to is simply thrown away rather than left to block the read loop.
type senderReader struct {
	frames chan []byte
	done   chan struct{}
}

func newSenderReader(c *conn.Connection) *senderReader {
	sr := &senderReader{
		frames: make(chan []byte, 1),
		done:   make(chan struct{}),
	}
	go sr.run(c)
	return sr
}

func (sr *senderReader) run(c *conn.Connection) {
	defer close(sr.done)
	for {
		data, ok := c.Transport.ReceiveRaw()
		if !ok {
			c.Close()
			return
		}
		select {
		case sr.frames <- data:
		case <-c.Closed():
			return
		}
	}
}

// discard drains and throws away frames until stop closes or the sender's
// reader exits, guaranteeing run's send never blocks for longer than it
// takes the controller to hand frames off to the next consumer.
func (sr *senderReader) discard(stop <-chan struct{}) {
	for {
		select {
		case <-sr.frames:
		case <-sr.done:
			return
		case <-stop:
			return
		}
	}
}

// startDiscard launches discard and returns a stop channel to end it and a
// done channel that closes once it has. Callers must close stop and wait on
// done before handing frames to a different consumer.
func (sr *senderReader) startDiscard() (stop, done chan struct{}) {
	stop = make(chan struct{})
	done = make(chan struct{})
	go func() {
		sr.discard(stop)
		close(done)
	}()
	return stop, done
}
