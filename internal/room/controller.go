package room

import (
	"github.com/keniprimo/rendezvous-relay/internal/metrics"
	"github.com/keniprimo/rendezvous-relay/internal/protocol"
	"github.com/keniprimo/rendezvous-relay/internal/relay"
	"github.com/keniprimo/rendezvous-relay/internal/transport"
	"golang.org/x/time/rate"
)

// Run drives a room's whole lifecycle from a freshly created room until it
// closes: it serializes receivers one at a time onto the sender, relaying
// each pairing to completion before serving the next queued receiver. It
// also watches the sender's own transport for disconnect. Run returns once
// the room is closed; it calls Close itself when the sender is gone or a
// PEER_JOINED send fails, and the caller (the sender's connection handler)
// calls r.Close() again after Run returns, which is a no-op if already done.
//
// maxMsgSize bounds relayed frame size; limiter, if non-nil, paces each
// relayed direction (nil disables pacing).
func (r *Room) Run(maxMsgSize int, limiter *rate.Limiter) {
	go r.disconnectMonitor()

	// discard is the sole consumer of the sender's frames while no receiver
	// is paired; it must be stopped and drained before a pairing starts so
	// relay.Run's forwardFromSender becomes the only other consumer.
	stop, done := r.reader.startDiscard()

	for {
		receiver, ok := r.nextReceiver()
		if !ok {
			close(stop)
			<-done
			return
		}
		if receiver.IsClosed() {
			continue
		}

		close(stop)
		<-done

		r.setActive(receiver)
		metrics.PeersJoined.Inc()

		if !transport.SendObject(r.Sender.Transport, protocol.PeerJoined(receiver.ID)) {
			r.clearActive()
			receiver.MarkRelayDone()
			receiver.Close()
			r.Close()
			return
		}

		relay.Run(r.reader.frames, r.reader.done, r.Sender, receiver, maxMsgSize, limiter)

		stop, done = r.reader.startDiscard()

		senderStillOpen := !r.Sender.IsClosed()
		if senderStillOpen {
			transport.SendObject(r.Sender.Transport, protocol.PeerDisconnected(receiver.ID))
		}

		r.clearActive()
		receiver.MarkRelayDone()
		receiver.Close()

		if !senderStillOpen {
			close(stop)
			<-done
			r.Close()
			return
		}
	}
}

// disconnectMonitor closes the room as soon as the sender's connection
// closes, whether that happens mid-relay or while idle waiting for the next
// receiver.
func (r *Room) disconnectMonitor() {
	select {
	case <-r.Sender.Closed():
		r.Close()
	case <-r.closed.Done():
	}
}
