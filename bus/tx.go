package bus

import (
	"sync"
	"sync/atomic"
	"time"
)

// ProgressFunc lets a blocking wait pump other work each spin.
type ProgressFunc func()

// TxEndpoint owns one outbound framed link: the response/request queues,
// the single-in-flight ACK accounting, and the per-endpoint seqNum/rpc id
// counters of §3.
type TxEndpoint struct {
	mu sync.Mutex

	name          string
	link          LinkIO
	maxPacketSize int

	responseQueue *frameQueue
	requestQueue  *frameQueue
	requestNext   bool // the next drain turn belongs to requestQueue

	expectedAck uint64
	observedAck uint64
	lastSendAt  time.Time
	ackTimeout  time.Duration // zero disables the policy (§4.3)

	seqNum uint64 // atomic
	rpcID  uint64 // atomic, §4.6 correlation

	lastBuffer []byte

	AckHandler     func(f *Frame)
	NextAckHandler func(f *Frame)

	QueueRequestMainOverflow     uint64
	QueueRequestResponseOverflow uint64
	AckTimeoutCnt                uint64

	Stats *Stats
}

// NewTxEndpoint implements configure(link, max_packet_size)/init()
// (§4.3), allocating both queues at their default capacities
// (BusTxResponseMaxQueue/BusTxRequestMaxQueue).
func NewTxEndpoint(name string, link LinkIO, maxPacketSize int, stats *Stats) *TxEndpoint {
	return NewTxEndpointWithQueueCapacity(name, link, maxPacketSize, BusTxResponseMaxQueue, BusTxRequestMaxQueue, stats)
}

// NewTxEndpointWithQueueCapacity is the same configure(link,
// max_packet_size) step, but lets the caller override the default
// response/request queue depths — §4.3 describes the constants only as
// defaults ("default capacities from the … constants"), so per-endpoint
// overrides (smaller queues for a constrained link, larger ones for a
// bulk-transfer peer, or a deliberately small queue to exercise overflow
// behavior in a test) are a configure-time choice, not a transport-wide
// fixed value.
func NewTxEndpointWithQueueCapacity(name string, link LinkIO, maxPacketSize, responseCap, requestCap int, stats *Stats) *TxEndpoint {
	if maxPacketSize <= 0 {
		maxPacketSize = BusMaxPacketDMASize
	}
	if responseCap <= 0 {
		responseCap = BusTxResponseMaxQueue
	}
	if requestCap <= 0 {
		requestCap = BusTxRequestMaxQueue
	}
	return &TxEndpoint{
		name:          name,
		link:          link,
		maxPacketSize: maxPacketSize,
		responseQueue: newFrameQueue(responseCap),
		requestQueue:  newFrameQueue(requestCap),
		Stats:         stats,
	}
}

// SetLinkIO (re)binds the LinkIO this endpoint submits frames through.
// Exposed for topology construction, where the concrete router/hardware
// binding is only known after both endpoints of a Link exist.
func (tx *TxEndpoint) SetLinkIO(link LinkIO) {
	tx.mu.Lock()
	tx.link = link
	tx.mu.Unlock()
}

// SetAckTimeout configures the ACK-timeout policy; zero disables it
// (§4.3).
func (tx *TxEndpoint) SetAckTimeout(d time.Duration) {
	tx.mu.Lock()
	tx.ackTimeout = d
	tx.mu.Unlock()
}

func (tx *TxEndpoint) checkMaxSize(f *Frame) {
	if int(f.Sz) > tx.maxPacketSize {
		// §7: max packet size exceeded on enqueue is a fatal panic
		// (programmer error).
		panic("bus: frame exceeds endpoint max packet size")
	}
}

// QueueRequestFromMain enqueues into request_queue (§4.3). Marks the
// frame HostInQueue and clears HostQueueSent.
func (tx *TxEndpoint) QueueRequestFromMain(f *Frame) bool {
	tx.checkMaxSize(f)
	tx.mu.Lock()
	defer tx.mu.Unlock()

	f.Status = f.Status | HostInQueue
	f.Status &^= HostQueueSent
	if !tx.requestQueue.push(f) {
		tx.QueueRequestMainOverflow++
		return false
	}
	return true
}

// QueueRequestFromIRQ enqueues into response_queue (§4.3) — lets
// realtime-context replies jump ahead of main-context requests.
func (tx *TxEndpoint) QueueRequestFromIRQ(f *Frame) bool {
	tx.checkMaxSize(f)
	tx.mu.Lock()
	defer tx.mu.Unlock()

	f.Status = f.Status | HostInQueue
	f.Status &^= HostQueueSent
	if !tx.responseQueue.push(f) {
		tx.QueueRequestResponseOverflow++
		return false
	}
	return true
}

// writeAsyncLocked is the low-level single-shot write (§4.3): it requires
// the previous ACK to have arrived (it panics otherwise, it never waits),
// bumps expected_ack, records the last-write timestamp, hands bytes to
// the link. Must be called with tx.mu held.
func (tx *TxEndpoint) writeAsyncLocked(buf []byte) {
	if atomic.LoadUint64(&tx.expectedAck) != atomic.LoadUint64(&tx.observedAck) {
		// The single-in-flight invariant is enforced by update()'s
		// caller discipline; a caller that bypasses update() and races
		// this has a programming bug (§4.3).
		panic("bus: write_async called while an ACK is outstanding")
	}

	atomic.AddUint64(&tx.expectedAck, 1)
	tx.lastSendAt = time.Now()
	tx.lastBuffer = buf

	if tx.Stats != nil {
		tx.Stats.AddBytes(len(buf))
	}
	if tx.link != nil {
		_ = tx.link.SubmitFrame(buf)
	}
}

// writeCmdAsync flips status flags and calls writeAsync (§4.3).
func (tx *TxEndpoint) writeCmdAsyncLocked(f *Frame) {
	f.Status |= HostQueueSent
	f.Status &^= HostInQueue
	f.SeqNum = uint32(atomic.AddUint64(&tx.seqNum, 1))
	tx.writeAsyncLocked(f.Encode())
}

// Update drains frames in strict response/request alternation as long as
// a queue is non-empty and the endpoint is not waiting on an ACK (§4.3
// interleaved drain). Whose turn is next carries over between calls, so
// the alternation holds when each ACK arrives after Update returns.
func (tx *TxEndpoint) Update() {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.drainOneRoundLocked()
}

func (tx *TxEndpoint) drainOneRoundLocked() {
	for {
		if atomic.LoadUint64(&tx.expectedAck) != atomic.LoadUint64(&tx.observedAck) {
			return
		}
		if tx.responseQueue.empty() && tx.requestQueue.empty() {
			return
		}

		first, second := tx.responseQueue, tx.requestQueue
		if tx.requestNext {
			first, second = second, first
		}
		if f := first.pop(); f != nil {
			tx.writeCmdAsyncLocked(f)
			tx.requestNext = first == tx.responseQueue
			if atomic.LoadUint64(&tx.expectedAck) != atomic.LoadUint64(&tx.observedAck) {
				return
			}
		}
		if f := second.pop(); f != nil {
			tx.writeCmdAsyncLocked(f)
			tx.requestNext = second == tx.responseQueue
		}
	}
}

// observeAck is called by the partner Rx endpoint's ACK controller
// (§4.4) to advance observed_ack.
func (tx *TxEndpoint) observeAck() {
	atomic.AddUint64(&tx.observedAck, 1)
}

// HandleTxAck is the LinkIO-facing entry point hardware/router code calls
// when an ACK line pulse (or queued ACK event) arrives (§4.7).
func (tx *TxEndpoint) HandleTxAck() { tx.observeAck() }

// IsDone applies the ACK-timeout policy (§4.3): if a timeout is
// configured and exceeded, force-advances observed_ack to expected_ack,
// counts it, and reports done.
func (tx *TxEndpoint) IsDone() bool {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.isDoneLocked()
}

func (tx *TxEndpoint) isDoneLocked() bool {
	exp := atomic.LoadUint64(&tx.expectedAck)
	obs := atomic.LoadUint64(&tx.observedAck)
	if exp == obs {
		return true
	}
	if tx.ackTimeout > 0 && !tx.lastSendAt.IsZero() && time.Since(tx.lastSendAt) > tx.ackTimeout {
		atomic.StoreUint64(&tx.observedAck, exp)
		tx.AckTimeoutCnt++
		if tx.Stats != nil {
			tx.Stats.AddError()
		}
		return true
	}
	return false
}

// IsBusy is the complement of IsDone.
func (tx *TxEndpoint) IsBusy() bool { return !tx.IsDone() }

// Wait spins on IsDone, pumping progress (via Update and an optional
// caller-supplied callback) each iteration. With no ACK timeout
// configured and a silent peer this never returns; that is documented
// behavior, not a bug.
func (tx *TxEndpoint) Wait(progress ProgressFunc) {
	for !tx.IsDone() {
		tx.Update()
		if progress != nil {
			progress()
		}
	}
}

// Flush drains both queues to completion, blocking on ACK between each
// send (§4.3).
func (tx *TxEndpoint) Flush(progress ProgressFunc) {
	for {
		tx.mu.Lock()
		empty := tx.responseQueue.empty() && tx.requestQueue.empty()
		tx.mu.Unlock()
		if empty && tx.IsDone() {
			return
		}
		tx.FlushOne(progress)
	}
}

// FlushOne drains exactly one frame, blocking on its ACK (§4.3).
func (tx *TxEndpoint) FlushOne(progress ProgressFunc) {
	tx.Wait(progress)
	tx.Update()
	tx.Wait(progress)
}

// NextRPCID returns the next monotonic RPC correlation id for this
// endpoint.
func (tx *TxEndpoint) NextRPCID() uint32 {
	return uint32(atomic.AddUint64(&tx.rpcID, 1) - 1)
}

// SeqNum returns the most recently assigned sequence number.
func (tx *TxEndpoint) SeqNum() uint64 { return atomic.LoadUint64(&tx.seqNum) }

// ExpectedAck / ObservedAck expose the endpoint's ACK-state counters for
// tests and introspection tooling.
func (tx *TxEndpoint) ExpectedAck() uint64 { return atomic.LoadUint64(&tx.expectedAck) }
func (tx *TxEndpoint) ObservedAck() uint64 { return atomic.LoadUint64(&tx.observedAck) }

// RequestQueueLen / ResponseQueueLen report current depth, for tests and
// the describe CLI.
func (tx *TxEndpoint) RequestQueueLen() int {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.requestQueue.len()
}

func (tx *TxEndpoint) ResponseQueueLen() int {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.responseQueue.len()
}
