package bus

// LinkIO is the hardware/simulation boundary: the Tx/Rx endpoint code is
// generic over this interface and never branches on whether it is
// running against real PIO+DMA silicon or the in-process mock router.
// Implementations live in hal (tinygo, real hardware), hostlink (real
// UART via tarm/serial, for bring-up bridging) and mockrouter
// (simulation).
type LinkIO interface {
	// SubmitFrame hands encoded bytes to the physical or simulated wire.
	// It does not block on the peer's ACK; the caller (Tx endpoint) does
	// that separately via the single-in-flight rule.
	SubmitFrame(encoded []byte) error

	// SignalAck is called by the Rx side's ACK controller to pulse the
	// ACK line back to the partner Tx endpoint. On hardware this is a
	// physical line pulse counted by the partner's ISR; in simulation it
	// is a direct counter increment or a queued router event.
	SignalAck()
}
