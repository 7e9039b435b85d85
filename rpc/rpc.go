// Package rpc builds a correlated blocking request/response (C6) on top
// of a Tx/Rx endpoint pair belonging to the same peer relationship.
package rpc

import (
	"time"

	"github.com/picolemon/picocom16-sub001/bus"
)

// ProgressFunc is called once per wait-loop iteration, letting the
// caller pump its own work while blocked.
type ProgressFunc func()

// WatchdogFunc is kicked once per wait-loop iteration, so a caller can
// feed a hardware or software watchdog while blocked on a reply.
type WatchdogFunc func()

// Stats are the RPC-layer counters referenced by §8's scenarios.
type Stats struct {
	TimeoutCount uint64
}

// RequestBlockingEx implements §4.6 exactly: drain tx to quiescence,
// snapshot rx's response/defer counters, assign a monotonic id, enqueue,
// then spin waiting for a frame whose cmd/sz/id all match, ACKing every
// frame it sees along the way (matched or not).
func RequestBlockingEx(
	tx *bus.TxEndpoint,
	rx *bus.RxEndpoint,
	req *bus.Frame,
	respSize int,
	timeout time.Duration,
	progress ProgressFunc,
	watchdog WatchdogFunc,
	stats *Stats,
) (*bus.Frame, error) {
	// Step 1: fully drain tx to start from a quiescent link.
	tx.Flush(func() {
		if progress != nil {
			progress()
		}
	})

	// Step 2: snapshot response/defer counters. The values are read and
	// discarded; nothing below depends on them, and RxEndpoint.Response
	// is never incremented in this module.
	_ = rx.ResponseCount()
	_ = rx.DeferCount()

	// Step 3: assign id, compute CRC unless NoCRC.
	req.ID = tx.NextRPCID()
	if req.Status&bus.NoCRC == 0 {
		req.CRC = bus.ComputeCRC(req.Payload)
	}

	// Step 4: enqueue on request_queue, kick the drain once.
	if !tx.QueueRequestFromMain(req) {
		return nil, bus.ErrQueueFull
	}
	tx.Update()

	deadline := time.Now().Add(timeout)
	for {
		tx.Update()
		if watchdog != nil {
			watchdog()
		}
		if progress != nil {
			progress()
		}

		if frame := rx.PendingBuffer(); frame != nil {
			// Invoke the main handler as the dispatcher would, then
			// test for a match.
			rx.Update()

			if frame.Cmd == req.Cmd && int(frame.Sz) == respSize && frame.ID == req.ID {
				return frame, nil
			}
			// Mismatched: the frame was consumed and acked by
			// rx.Update() above; keep waiting (§4.6 correlation
			// guarantee).
		}

		if timeout > 0 && time.Now().After(deadline) {
			if stats != nil {
				stats.TimeoutCount++
			}
			return nil, bus.ErrRPCTimeout
		}
	}
}
