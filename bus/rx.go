package bus

import "sync"

// RealtimeHandler runs synchronously at frame arrival, in ISR context on
// hardware. It is expected to handle bounded-latency work in-line and
// call Endpoint.PushDefer for anything else (§4.2).
type RealtimeHandler func(rx *RxEndpoint, frame *Frame)

// MainHandler runs from the owning chip's main loop for deferred frames
// (§4.5 rx_update).
type MainHandler func(rx *RxEndpoint, frame *Frame)

// RxEndpoint owns one inbound framed link: a single receive slot, a
// realtime handler, a main handler, and the single "deferred" frame slot
// of §3.
type RxEndpoint struct {
	mu sync.Mutex

	name          string
	link          LinkIO
	bufferSize    int
	realtime      RealtimeHandler
	main          MainHandler
	ackOnceHandled bool // set while dispatch owns the ack (interlock)

	pendingBuffer *Frame // §3 Invariant R1: single-slot

	// Counters (§3 Rx endpoint state).
	Success            uint64
	InvalidHeader      uint64
	PendingNotProcessed uint64
	Defer              uint64
	Response           uint64
	Ack                uint64
	TotalRxBytes       uint64

	Stats *Stats
}

// NewRxEndpoint implements configure(link, buffer_size) (§4.2). init()'s
// allocation step is folded in here since Go has no separate
// allocate-without-construct phase; bufferSize defaults to
// BusMaxPacketDMASize when zero.
func NewRxEndpoint(name string, link LinkIO, bufferSize int, stats *Stats) *RxEndpoint {
	if bufferSize <= 0 {
		bufferSize = BusMaxPacketDMASize
	}
	return &RxEndpoint{name: name, link: link, bufferSize: bufferSize, Stats: stats}
}

// SetCallbacks registers both handlers (§4.2 set_callbacks).
func (rx *RxEndpoint) SetCallbacks(realtime RealtimeHandler, main MainHandler) {
	rx.realtime = realtime
	rx.main = main
}

// SetLinkIO (re)binds the LinkIO this endpoint signals ACKs through. See
// TxEndpoint.SetLinkIO.
func (rx *RxEndpoint) SetLinkIO(link LinkIO) {
	rx.mu.Lock()
	rx.link = link
	rx.mu.Unlock()
}

// HandleRxPacket is the realtime-context entry point: in simulation the
// mock router calls it directly; on hardware a DMA-completion interrupt
// calls the same logic (§4.2 Receive flow, steps 1-5).
func (rx *RxEndpoint) HandleRxPacket(raw []byte) {
	rx.mu.Lock()

	if rx.pendingBuffer != nil {
		// Step 1: single-slot collision — ack the incoming frame anyway
		// so the peer unblocks (R1/R2), but the already-deferred frame
		// stays parked: only the colliding frame is discarded, not the
		// one waiting for the main handler.
		rx.PendingNotProcessed++
		rx.mu.Unlock()
		rx.ackCollision()
		return
	}

	rx.TotalRxBytes += uint64(len(raw))
	if rx.Stats != nil {
		rx.Stats.AddBytes(len(raw))
	}

	frame, err := Decode(raw, rx.bufferSize)
	if err != nil {
		rx.InvalidHeader++
		if rx.Stats != nil {
			rx.Stats.AddError()
		}
		rx.mu.Unlock()
		rx.ackDeferredCmd()
		return
	}

	rx.Success++
	rx.mu.Unlock()

	// Realtime handler runs outside the lock: it may call PushDefer,
	// which re-acquires it.
	rx.ackOnceHandled = false
	if rx.realtime != nil {
		rx.realtime(rx, frame)
	}

	rx.mu.Lock()
	deferred := rx.pendingBuffer == frame
	rx.mu.Unlock()

	if !deferred {
		// Step 5: realtime handler did not defer — ack immediately.
		rx.ackDeferredCmd()
	}
	// else: ack happens in Update() once the main handler runs.
}

// PushDefer parks frame for the main context (§4.2 push_defer). Must be
// called from within the realtime handler.
func (rx *RxEndpoint) PushDefer(frame *Frame) {
	rx.mu.Lock()
	rx.pendingBuffer = frame
	rx.Defer++
	rx.mu.Unlock()
}

// Update is called from the main loop (§4.2 update / §4.5 rx_update): if
// pending_buffer is populated, it clears the slot first (blocking
// re-entry should the main handler re-trigger receive), runs the main
// handler, then acks exactly once (R2, ack-once interlock of §4.4).
func (rx *RxEndpoint) Update() {
	rx.mu.Lock()
	frame := rx.pendingBuffer
	if frame == nil {
		rx.mu.Unlock()
		return
	}
	rx.pendingBuffer = nil
	rx.ackOnceHandled = false
	rx.mu.Unlock()

	if rx.main != nil {
		rx.main(rx, frame)
	}

	rx.mu.Lock()
	alreadyAcked := rx.ackOnceHandled
	rx.mu.Unlock()

	if !alreadyAcked {
		rx.ackDeferredCmd()
	}
}

// ackDeferredCmd increments rx.Ack, clears pendingBuffer (if still set),
// and signals the partner Tx endpoint's observed-ack counter via the
// LinkIO boundary — SignalAck is a direct counter increment (callback
// router), a queued router event (queued router) or an ACK line pulse
// (hardware);
// the Rx endpoint itself never touches the partner Tx endpoint's state
// directly.
func (rx *RxEndpoint) ackDeferredCmd() {
	rx.mu.Lock()
	rx.Ack++
	rx.pendingBuffer = nil
	rx.ackOnceHandled = true
	link := rx.link
	rx.mu.Unlock()

	if link != nil {
		link.SignalAck()
	}
}

// ackCollision acks a frame that arrived while pendingBuffer was already
// occupied (R1): it unblocks the peer exactly like ackDeferredCmd, but
// must never touch pendingBuffer — that slot belongs to the frame
// already parked for the main handler, not to the one being discarded
// here.
func (rx *RxEndpoint) ackCollision() {
	rx.mu.Lock()
	rx.Ack++
	link := rx.link
	rx.mu.Unlock()

	if link != nil {
		link.SignalAck()
	}
}

// AckDeferredCmd is the exported form, for main handlers that issue their
// own RPC while a frame is deferred and must ack it themselves — the
// ack-once interlock (§4.4) ensures the dispatcher does not double-ack.
func (rx *RxEndpoint) AckDeferredCmd() { rx.ackDeferredCmd() }

// PendingBuffer reports whether a frame is currently parked for the main
// context (used by rpc.RequestBlockingEx to peek without consuming).
func (rx *RxEndpoint) PendingBuffer() *Frame {
	rx.mu.Lock()
	defer rx.mu.Unlock()
	return rx.pendingBuffer
}

// ResponseCount and DeferCount expose the Response and Defer counters.
// rpc.RequestBlockingEx reads both at the start of a blocking call (§4.6
// step 2) but does not act on the values. Nothing in this module
// increments Response.
func (rx *RxEndpoint) ResponseCount() uint64 {
	rx.mu.Lock()
	defer rx.mu.Unlock()
	return rx.Response
}

func (rx *RxEndpoint) DeferCount() uint64 {
	rx.mu.Lock()
	defer rx.mu.Unlock()
	return rx.Defer
}
