// Package relay implements the bidirectional forwarder that copies opaque
// frames between a sender and its active receiver until either side closes
// or errs.
package relay

import (
	"context"
	"sync"

	"github.com/keniprimo/rendezvous-relay/internal/conn"
	"golang.org/x/time/rate"
)

// Run copies frames between sender and receiver in both directions until
// either side ends (clean disconnect, transport error, size violation).
//
// The sender's transport is never read here directly: a room's sender
// connection persists across the gaps between pairings, so a single
// long-lived reader (room.senderReader) owns it for the room's whole life
// and publishes frames on senderFrames; senderDone closes when that reader
// observes the sender disconnect. Run only reads the receiver's transport
// directly and writes to the sender's.
//
// Ending one direction unblocks the other: a receiver disconnect closes
// pairDone (the receiver-bound direction is waiting on it), and a
// receiver-bound send failure interrupts the receiver's blocked read so it
// notices promptly. Run blocks until both directions have returned.
//
// limiter, if non-nil, paces each direction independently: it paces the
// receiver-bound direction, and the sender-bound direction gets its own
// limiter with the same rate and burst.
func Run(senderFrames <-chan []byte, senderDone <-chan struct{}, sender, receiver *conn.Connection, maxMsgSize int, limiter *rate.Limiter) {
	toReceiver, toSender := limiter, limiter
	if limiter != nil {
		toSender = rate.NewLimiter(limiter.Limit(), limiter.Burst())
	}

	pairDone := make(chan struct{})
	var endOnce sync.Once
	endPair := func() { endOnce.Do(func() { close(pairDone) }) }

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		forwardFromSender(senderFrames, senderDone, pairDone, receiver, maxMsgSize, toReceiver)
		endPair()
		receiver.Transport.InterruptRead()
	}()
	go func() {
		defer wg.Done()
		forwardToSender(receiver, sender, maxMsgSize, toSender)
		endPair()
	}()
	wg.Wait()
}

// forwardFromSender delivers frames the room's senderReader has already
// pulled off the sender's transport to the receiver, until the pairing
// ends, the sender disconnects, or a frame violates the size bound.
func forwardFromSender(frames <-chan []byte, senderDone, pairDone <-chan struct{}, receiver *conn.Connection, maxMsgSize int, limiter *rate.Limiter) {
	for {
		select {
		case data := <-frames:
			if len(data) == 0 || len(data) > maxMsgSize {
				return
			}
			if limiter != nil {
				if err := limiter.Wait(context.Background()); err != nil {
					return
				}
			}
			if !receiver.Transport.SendRaw(data) {
				receiver.Close()
				return
			}
		case <-senderDone:
			return
		case <-pairDone:
			return
		}
	}
}

// forwardToSender reads the receiver's transport directly and writes each
// frame to the sender's. A read failure or size violation is the
// receiver's disconnect; a write failure means the sender is gone, which
// the room's senderReader will also observe on its own blocked read.
func forwardToSender(receiver, sender *conn.Connection, maxMsgSize int, limiter *rate.Limiter) {
	for {
		data, ok := receiver.Transport.ReceiveRaw()
		if !ok {
			receiver.Close()
			return
		}
		if len(data) == 0 || len(data) > maxMsgSize {
			receiver.Close()
			return
		}
		if limiter != nil {
			if err := limiter.Wait(context.Background()); err != nil {
				return
			}
		}
		if !sender.Transport.SendRaw(data) {
			sender.Close()
			return
		}
	}
}
