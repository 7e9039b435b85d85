package mockrouter

import (
	"bytes"
	"compress/zlib"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/picolemon/picocom16-sub001/bus"
)

// TraceEntry is one captured frame crossing a router, in either
// direction. Lets a simulated session be captured once and replayed for
// regression testing without live chips.
type TraceEntry struct {
	At        time.Time `cbor:"at"`
	Direction string    `cbor:"dir"` // "submit" or "ack"
	Encoded   []byte    `cbor:"encoded,omitempty"`
}

// Tracer wraps a bus.LinkIO, recording every SubmitFrame/SignalAck call
// as a TraceEntry. It is itself a bus.LinkIO, so it composes transparently
// with either router variant.
type Tracer struct {
	inner   bus.LinkIO
	entries []TraceEntry
	now     func() time.Time
}

// NewTracer wraps inner, capturing its traffic. now defaults to
// time.Now; tests can override it for determinism.
func NewTracer(inner bus.LinkIO, now func() time.Time) *Tracer {
	if now == nil {
		now = time.Now
	}
	return &Tracer{inner: inner, now: now}
}

func (t *Tracer) SubmitFrame(encoded []byte) error {
	cp := make([]byte, len(encoded))
	copy(cp, encoded)
	t.entries = append(t.entries, TraceEntry{At: t.now(), Direction: "submit", Encoded: cp})
	return t.inner.SubmitFrame(encoded)
}

func (t *Tracer) SignalAck() {
	t.entries = append(t.entries, TraceEntry{At: t.now(), Direction: "ack"})
	t.inner.SignalAck()
}

// Entries returns the captured trace.
func (t *Tracer) Entries() []TraceEntry { return t.entries }

// Dump CBOR-encodes the trace and, when compress is true, runs it
// through the standard library's zlib writer to compact captured wire
// data for offline analysis.
func Dump(entries []TraceEntry, compress bool) ([]byte, error) {
	raw, err := cbor.Marshal(entries)
	if err != nil {
		return nil, err
	}
	if !compress {
		return raw, nil
	}

	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(raw); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Load decodes a dump produced by Dump. compressed must match the flag
// Dump was called with.
func Load(data []byte, compressed bool) ([]TraceEntry, error) {
	raw := data
	if compressed {
		r, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		out, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		raw = out
	}

	var entries []TraceEntry
	if err := cbor.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Replay feeds a captured trace's "submit" entries into rx.HandleRxPacket
// in order, for regression testing against a fresh endpoint without a
// live peer chip.
func Replay(entries []TraceEntry, rx *bus.RxEndpoint) {
	for _, e := range entries {
		if e.Direction == "submit" {
			buf := make([]byte, len(e.Encoded))
			copy(buf, e.Encoded)
			rx.HandleRxPacket(buf)
		}
	}
}
