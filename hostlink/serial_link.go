// Package hostlink bridges one leg of the console topology to a real
// UART-attached chip during hardware bring-up, framing bus.LinkIO calls
// over a plain serial port instead of a Klipper-style wire format.
package hostlink

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tarm/serial"

	"github.com/picolemon/picocom16-sub001/bus"
)

// Config is a trimmed serial.Config: only what a real link bridge
// needs.
type Config struct {
	Device      string
	Baud        int
	ReadTimeout time.Duration
}

// DefaultConfig returns sane defaults for bridging a UART-attached chip.
func DefaultConfig(device string) *Config {
	return &Config{Device: device, Baud: 1000000, ReadTimeout: 100 * time.Millisecond}
}

// SerialLink implements bus.LinkIO by framing each SubmitFrame call with
// a 4-byte length prefix over a real serial port, and reading an
// ACK-signal byte back for SignalAck's counterpart — a physical stand-in
// for the ACK line pulse §4.4 describes, used when one leg of the
// topology is real hardware and the rest is still simulated.
type SerialLink struct {
	mu   sync.Mutex
	port io.ReadWriteCloser

	onAck func() // invoked when an ACK byte is read from the wire
}

// Open opens cfg.Device and returns a bound SerialLink. Callers wire
// onAck to the partner Tx endpoint's HandleTxAck, the way the mockrouter
// variants call HandleTxAck from SignalAck.
func Open(cfg *Config, onAck func()) (*SerialLink, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("hostlink: open %s: %w", cfg.Device, err)
	}

	l := &SerialLink{port: port, onAck: onAck}
	go l.readAckLoop()
	return l, nil
}

// SubmitFrame writes a 4-byte little-endian length prefix followed by
// the encoded frame.
func (l *SerialLink) SubmitFrame(encoded []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(encoded)))
	if _, err := l.port.Write(hdr[:]); err != nil {
		return err
	}
	_, err := l.port.Write(encoded)
	return err
}

// SignalAck writes a single 0x06 (ASCII ACK) byte, the wire-level
// counterpart readAckLoop watches for on the other end.
func (l *SerialLink) SignalAck() {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.port.Write([]byte{0x06})
}

func (l *SerialLink) readAckLoop() {
	buf := make([]byte, 64)
	for {
		n, err := l.port.Read(buf)
		if err != nil {
			if err == io.EOF {
				return
			}
			time.Sleep(10 * time.Millisecond)
			continue
		}
		for i := 0; i < n; i++ {
			if buf[i] == 0x06 && l.onAck != nil {
				l.onAck()
			}
		}
	}
}

// Close closes the underlying port.
func (l *SerialLink) Close() error { return l.port.Close() }

var _ bus.LinkIO = (*SerialLink)(nil)
