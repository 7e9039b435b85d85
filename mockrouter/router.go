// Package mockrouter emulates paired link hardware in-process, for
// simulation and testing. It ships two variants: a threaded, queued
// router and a single-threaded, synchronous one. Both implement
// bus.LinkIO identically from the caller's point of view.
package mockrouter

import (
	"sync"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/picolemon/picocom16-sub001/bus"
)

// Peer is the minimal surface a router needs from an Rx endpoint and its
// partner Tx endpoint to drive the receive/ACK sequence hardware would.
type Peer struct {
	Rx *bus.RxEndpoint
	Tx *bus.TxEndpoint // the endpoint whose ACK this peer's receipt completes
}

// QueuedRouter is the threaded variant (§4.7): one goroutine per
// direction, each pulling from a bounded channel — tx_out_queue carries
// outbound frame copies to the receiver, rx_ack_out_queue carries ACK
// signals back to the sender.
type QueuedRouter struct {
	id  xid.ID
	log *logrus.Entry

	txOutQueue    chan []byte
	rxAckOutQueue chan struct{}

	peer Peer

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewQueuedRouter creates a router for one link direction: frames
// submitted through it are delivered to peer.Rx on the receiving chip,
// and ACKs signalled through it advance peer.Tx, the sending endpoint.
// capacity bounds both internal queues.
func NewQueuedRouter(peer Peer, capacity int) *QueuedRouter {
	r := &QueuedRouter{
		id:            xid.New(),
		txOutQueue:    make(chan []byte, capacity),
		rxAckOutQueue: make(chan struct{}, capacity),
		peer:          peer,
		stopCh:        make(chan struct{}),
	}
	r.log = logrus.WithField("router", r.id.String())

	r.wg.Add(2)
	go r.txToRxLoop()
	go r.rxAckToTxLoop()
	return r
}

// SubmitFrame implements bus.LinkIO: copies and enqueues the outbound
// frame for the tx-to-rx goroutine.
func (r *QueuedRouter) SubmitFrame(encoded []byte) error {
	cp := make([]byte, len(encoded))
	copy(cp, encoded)
	select {
	case r.txOutQueue <- cp:
	case <-r.stopCh:
	}
	return nil
}

// SignalAck implements bus.LinkIO: enqueues an ACK-direction event.
func (r *QueuedRouter) SignalAck() {
	select {
	case r.rxAckOutQueue <- struct{}{}:
	case <-r.stopCh:
	}
}

func (r *QueuedRouter) txToRxLoop() {
	defer r.wg.Done()
	for {
		select {
		case frame := <-r.txOutQueue:
			r.log.WithField("bytes", len(frame)).Debug("router: delivering frame to peer")
			r.peer.Rx.HandleRxPacket(frame)
		case <-r.stopCh:
			return
		}
	}
}

func (r *QueuedRouter) rxAckToTxLoop() {
	defer r.wg.Done()
	for {
		select {
		case <-r.rxAckOutQueue:
			r.peer.Tx.HandleTxAck()
		case <-r.stopCh:
			return
		}
	}
}

// Close stops both router goroutines.
func (r *QueuedRouter) Close() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()
}
