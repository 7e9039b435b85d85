// Package topology builds the console's fixed link table: rather than
// each Rx endpoint holding a raw cyclic pointer to its partner Tx
// endpoint, a Link owns both endpoints of one direction and is the only
// place that wires a bus.LinkIO between them.
package topology

import (
	"fmt"

	"github.com/google/uuid"
	multierror "github.com/hashicorp/go-multierror"

	"github.com/picolemon/picocom16-sub001/bus"
)

// LinkName names one direction of one of the four fixed wires of §6; the
// bidirectional VLNK and ALNK wires each have two names.
type LinkName string

const (
	LinkVLNKAppToVdp1 LinkName = "VLNK:APP->VDP1"
	LinkVLNKVdp1ToApp LinkName = "VLNK:VDP1->APP"
	LinkVDBUS         LinkName = "VDBUS:VDP1->VDP2"
	LinkXLNK          LinkName = "XLNK:VDP2->VDP1"
	LinkALNKAppToApu  LinkName = "ALNK:APP->APU"
	LinkALNKApuToApp  LinkName = "ALNK:APU->APP"
)

// MaxPacketSize returns the per-endpoint packet size bound for a link
// (§6: "The APP-to-VDP1 link has a larger limit than 1-bit links because
// its receive buffer is APP_VLNK_RX_BUFFER_SZ = 8192 bytes").
func (n LinkName) MaxPacketSize() int {
	switch n {
	case LinkVLNKAppToVdp1, LinkVLNKVdp1ToApp:
		return bus.AppVlnkRxBufferSize
	default:
		return bus.BusMaxPacketDMASize
	}
}

// Link owns one direction's Tx endpoint, its peer's Rx endpoint, and the
// bus.LinkIO binding them — an explicit, independently constructed
// object in place of cyclic raw pointers between the two endpoints.
type Link struct {
	ID   uuid.UUID
	Name LinkName

	Tx   *bus.TxEndpoint
	Rx   *bus.RxEndpoint
	Link bus.LinkIO
}

// NewLink constructs a Link: a Tx endpoint on the sending chip, an Rx
// endpoint on the receiving chip, both bound to the same LinkIO
// implementation (hardware, mock, or bridge — caller's choice).
func NewLink(name LinkName, tx *bus.TxEndpoint, rx *bus.RxEndpoint, io bus.LinkIO) *Link {
	return &Link{ID: uuid.New(), Name: name, Tx: tx, Rx: rx, Link: io}
}

// Console is the full four-chip topology: every endpoint each chip owns,
// indexed by link name for lookups and iteration (dispatch loops, the
// `describe` CLI, telemetry publishing).
type Console struct {
	Links map[LinkName]*Link
}

// NewConsole assembles an empty topology; callers populate it with
// AddLink as each chip's endpoints and LinkIO bindings become available
// (either all in-process for simulation, or split across processes for
// real hardware bring-up).
func NewConsole() *Console {
	return &Console{Links: make(map[LinkName]*Link)}
}

// AddLink registers a fully constructed Link. Returns an error (to be
// aggregated by the caller, typically via multierror) if the name is
// already bound — an assembly-time programmer error, not a runtime fault.
func (c *Console) AddLink(l *Link) error {
	if _, exists := c.Links[l.Name]; exists {
		return fmt.Errorf("topology: link %s already registered", l.Name)
	}
	c.Links[l.Name] = l
	return nil
}

// AddLinks registers several links at once, aggregating every failure
// with go-multierror instead of stopping at the first bad link — lets a
// console-assembly tool report every misconfigured link in one pass.
func (c *Console) AddLinks(links ...*Link) error {
	var result error
	for _, l := range links {
		if err := c.AddLink(l); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result
}

// DispatchAll runs RxUpdate/TxUpdate once for every endpoint in the
// topology — the whole console's one main-loop tick in simulation.
func (c *Console) DispatchAll() {
	for _, l := range c.Links {
		if l.Rx != nil {
			bus.RxUpdate(l.Rx)
		}
		if l.Tx != nil {
			bus.TxUpdate(l.Tx)
		}
	}
}

// TxSnapshot is a copy of one link's Tx-endpoint bus.Snapshot, the value
// telemetry.Publisher serializes per link.
type TxSnapshot struct {
	TotalBytes uint64
	Rate       float64
	Errors     uint64
}

// Snapshots returns one stats snapshot per link whose Tx endpoint has a
// Stats block attached, keyed by link name.
func (c *Console) Snapshots() map[string]TxSnapshot {
	out := make(map[string]TxSnapshot, len(c.Links))
	for name, l := range c.Links {
		if l.Tx == nil || l.Tx.Stats == nil {
			continue
		}
		snap := l.Tx.Stats.Snapshot()
		out[string(name)] = TxSnapshot{TotalBytes: snap.TotalBytes, Rate: snap.Rate, Errors: snap.Errors}
	}
	return out
}
