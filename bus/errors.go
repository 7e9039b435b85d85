package bus

import "errors"

var (
	// ErrShortHeader is returned when a buffer is smaller than HeaderSize
	// or smaller than its own declared Sz.
	ErrShortHeader = errors.New("bus: short frame header")
	// ErrBadSize is returned when sz is below HeaderSize or above the
	// endpoint's configured maximum packet size (§3).
	ErrBadSize = errors.New("bus: frame size out of bounds")
	// ErrBadMagic is returned when the header's magic does not match
	// Magic.
	ErrBadMagic = errors.New("bus: invalid frame magic")
	// ErrQueueFull is returned by the RPC layer when the Tx request queue
	// is at capacity (§7 transient queue overflow). The Tx enqueue
	// operations themselves report a full queue by returning false.
	ErrQueueFull = errors.New("bus: tx queue full")
	// ErrRPCTimeout is returned by the RPC layer when no matching reply
	// arrived before the deadline (§7 RPC timeout).
	ErrRPCTimeout = errors.New("bus: rpc timed out")
)
