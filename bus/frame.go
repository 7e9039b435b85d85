// Package bus implements the inter-chip link transport: framed,
// sequence-numbered, ACK-flow-controlled packets between the console's
// APP, VDP1, VDP2 and APU endpoints.
package bus

// Magic identifies a valid frame header.
const Magic uint16 = 0x4542 // "EB" — EBusMagic_Header0

// HeaderSize is the fixed on-wire header size in bytes.
const HeaderSize = 16

// Status bits.
const (
	HostInQueue   uint16 = 1 << 0
	HostQueueSent uint16 = 1 << 1
	NoCRC         uint16 = 1 << 2
)

// Packet size defaults (§6).
const (
	BusMaxPacketDMASize = 256
	AppVlnkRxBufferSize = 8192

	BusTxResponseMaxQueue = 8
	BusTxRequestMaxQueue  = 8
)

// Frame is the in-memory representation of one wire packet: the header
// fields magic/cmd/sz/seqNum/id/status/crc, plus an opaque payload. On
// the wire (Encode/Decode below) the header is little-endian and densely
// packed into HeaderSize bytes: magic at 0, cmd at 2, sz at 4, seqNum at
// 6, id at 10, status at 14. seqNum and id are not 4-byte aligned, and
// CRC is not part of the encoded header. In memory this struct is what
// callers and handlers manipulate directly.
type Frame struct {
	Magic   uint16
	Cmd     uint16
	Sz      uint16
	SeqNum  uint32
	ID      uint32
	Status  uint16
	CRC     uint16
	Payload []byte
}

// NewFrame builds a frame for cmd carrying payload, with Sz computed from
// HeaderSize+len(payload). The caller still owns the returned frame until
// it is handed to a Tx endpoint queue (§3 Lifecycle).
func NewFrame(cmd uint16, payload []byte) *Frame {
	return &Frame{
		Magic:   Magic,
		Cmd:     cmd,
		Sz:      uint16(HeaderSize + len(payload)),
		Payload: payload,
	}
}

// Encode serializes the frame to a little-endian byte slice, computing
// CRC over the payload into f.CRC unless NoCRC is set; the CRC is not
// written to the returned bytes. This is called by the Tx path
// immediately before handing bytes to a LinkIO.
func (f *Frame) Encode() []byte {
	if f.Status&NoCRC == 0 {
		f.CRC = ComputeCRC(f.Payload)
	} else {
		f.CRC = 0
	}

	buf := make([]byte, int(f.Sz))
	putU16(buf[0:], f.Magic)
	putU16(buf[2:], f.Cmd)
	putU16(buf[4:], f.Sz)
	putU32(buf[6:], f.SeqNum)
	putU32(buf[10:], f.ID)
	putU16(buf[14:], f.Status)
	copy(buf[HeaderSize:], f.Payload)
	return buf
}

// Decode parses a wire buffer into a Frame. It validates sz bounds
// against maxPacketSize per §3 ("an implementation MUST reject sz <
// header_size or sz > endpoint_max_packet_size") but does not verify CRC
// — CRC failures are non-fatal to the transport (§4.1) and are checked
// separately by VerifyCRC where a caller wants that. The returned
// frame's CRC is zero, since the encoded header does not carry one.
func Decode(raw []byte, maxPacketSize int) (*Frame, error) {
	if len(raw) < HeaderSize {
		return nil, ErrShortHeader
	}

	f := &Frame{
		Magic:  getU16(raw[0:]),
		Cmd:    getU16(raw[2:]),
		Sz:     getU16(raw[4:]),
		SeqNum: getU32(raw[6:]),
		ID:     getU32(raw[10:]),
		Status: getU16(raw[14:]),
	}

	if int(f.Sz) < HeaderSize || int(f.Sz) > maxPacketSize {
		return nil, ErrBadSize
	}
	if f.Magic != Magic {
		return nil, ErrBadMagic
	}
	if len(raw) < int(f.Sz) {
		return nil, ErrShortHeader
	}

	payload := make([]byte, int(f.Sz)-HeaderSize)
	copy(payload, raw[HeaderSize:f.Sz])
	f.Payload = payload
	return f, nil
}

func putU16(b []byte, v uint16) { b[0] = byte(v); b[1] = byte(v >> 8) }
func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
func getU16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }
func getU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
