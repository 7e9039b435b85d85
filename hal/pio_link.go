//go:build tinygo

// Package hal binds the bus.LinkIO boundary to real PIO-driven hardware.
// The PIO/DMA programs themselves are an external collaborator — this
// package only loads a minimal shift-out program and exposes
// SubmitFrame/SignalAck; it does not reimplement DMA scheduling,
// buffering, or any of the actual link-bus framing (that stays in
// package bus).
package hal

import (
	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// buildLinkProgram assembles the smallest PIO program that shifts a
// 32-bit word out one pin at a time — the 1-bit VLNK/XLNK/ALNK links of
// §6. VDBUS (8-bit) uses the same program with a wider OutDestPins
// mapping; the program itself is width-agnostic.
func buildLinkProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),          // 0: pull block
		asm.Out(rp2pio.OutDestPins, 1).Encode(), // 1: out pins, 1
		asm.Jmp(0, rp2pio.JmpAlways).Encode(),   // 2: jmp 0
		// .wrap
	}
}

// PIOLink implements bus.LinkIO over one PIO state machine, binding one
// direction of one physical link. ackPulse drives the physical ACK line
// back to the partner chip; the ISR that counts it on the partner side
// is out of scope here.
type PIOLink struct {
	pio      *rp2pio.PIO
	sm       rp2pio.StateMachine
	offset   uint8
	ackPulse func()
}

// NewPIOLink loads the link program onto state machine smNum of pioNum
// (0 or 1) and returns a bound PIOLink.
func NewPIOLink(pioNum, smNum uint8, ackPulse func()) *PIOLink {
	var pioHW *rp2pio.PIO
	if pioNum == 0 {
		pioHW = rp2pio.PIO0
	} else {
		pioHW = rp2pio.PIO1
	}

	program := buildLinkProgram()
	offset, _ := pioHW.AddProgram(program, -1)

	sm := pioHW.StateMachine(smNum)
	sm.SetEnabled(false)
	sm.Init(offset, rp2pio.StateMachineConfig{})
	sm.SetEnabled(true)

	return &PIOLink{pio: pioHW, sm: sm, offset: offset, ackPulse: ackPulse}
}

// SubmitFrame shifts encoded out through the state machine's FIFO one
// 32-bit word at a time, padding the final word with zeros.
func (l *PIOLink) SubmitFrame(encoded []byte) error {
	for i := 0; i < len(encoded); i += 4 {
		var w uint32
		for j := 0; j < 4 && i+j < len(encoded); j++ {
			w |= uint32(encoded[i+j]) << (8 * j)
		}
		l.sm.TxPut(w)
	}
	return nil
}

// SignalAck pulses the ACK line via the caller-supplied GPIO toggle.
func (l *PIOLink) SignalAck() {
	if l.ackPulse != nil {
		l.ackPulse()
	}
}
