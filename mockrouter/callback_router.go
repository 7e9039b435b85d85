package mockrouter

import (
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

// CallbackRouter is the single-threaded variant (§4.7, matching
// callback_bus.c): a TX write immediately runs the peer's Rx handler on
// the caller's stack, and the resulting ACK is applied inline — no
// queues, no goroutines. Observably equivalent to QueuedRouter; only
// latency and thread-interaction differ (§4.7).
type CallbackRouter struct {
	id   xid.ID
	log  *logrus.Entry
	peer Peer
}

// NewCallbackRouter creates the synchronous router variant.
func NewCallbackRouter(peer Peer) *CallbackRouter {
	r := &CallbackRouter{id: xid.New(), peer: peer}
	r.log = logrus.WithField("router", r.id.String())
	return r
}

// SubmitFrame implements bus.LinkIO: runs the peer's receive path
// synchronously on the caller's goroutine.
func (r *CallbackRouter) SubmitFrame(encoded []byte) error {
	cp := make([]byte, len(encoded))
	copy(cp, encoded)
	r.log.WithField("bytes", len(cp)).Debug("callback router: delivering frame inline")
	r.peer.Rx.HandleRxPacket(cp)
	return nil
}

// SignalAck implements bus.LinkIO: applies the ACK to the partner Tx
// endpoint inline, with no intermediate queue.
func (r *CallbackRouter) SignalAck() {
	r.peer.Tx.HandleTxAck()
}
