package topology

import (
	"github.com/picolemon/picocom16-sub001/bus"
	"github.com/picolemon/picocom16-sub001/mockrouter"
)

// RouterKind selects which of the two router variants (§4.7) a
// simulated link uses.
type RouterKind int

const (
	RouterQueued RouterKind = iota
	RouterCallback
)

// NewSimulatedLink builds one direction of a link entirely in-process:
// a Tx endpoint on the sender, an Rx endpoint on the receiver, and a
// mockrouter router (queued or callback, both a bus.LinkIO) coupling
// them, per §4.7. No Stats blocks are created here: txStats and rxStats
// are attached as given, and nil leaves that endpoint without one.
func NewSimulatedLink(
	name LinkName,
	senderName, receiverName string,
	kind RouterKind,
	queueCapacity int,
	txStats, rxStats *bus.Stats,
) *Link {
	maxSize := name.MaxPacketSize()

	tx := bus.NewTxEndpoint(senderName, nil, maxSize, txStats)
	rx := bus.NewRxEndpoint(receiverName, nil, maxSize, rxStats)

	peer := mockrouter.Peer{Rx: rx, Tx: tx}

	var io bus.LinkIO
	switch kind {
	case RouterCallback:
		io = mockrouter.NewCallbackRouter(peer)
	default:
		io = mockrouter.NewQueuedRouter(peer, queueCapacity)
	}

	return bindLinkIO(name, tx, rx, io)
}

func bindLinkIO(name LinkName, tx *bus.TxEndpoint, rx *bus.RxEndpoint, io bus.LinkIO) *Link {
	tx.SetLinkIO(io)
	rx.SetLinkIO(io)
	return NewLink(name, tx, rx, io)
}
