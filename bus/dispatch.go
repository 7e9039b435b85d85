package bus

// RxUpdate and TxUpdate are the two calls every main loop must make on
// every endpoint it owns. They are thin, named wrappers over
// RxEndpoint.Update/TxEndpoint.Update so a chip's main loop reads as a
// flat list of dispatch calls.
func RxUpdate(rx *RxEndpoint) { rx.Update() }

func TxUpdate(tx *TxEndpoint) { tx.Update() }

// Endpoints is the set of Rx/Tx endpoints one chip owns; DispatchAll
// drains every Tx and services every Rx deferred slot once, the unit of
// work a chip's main loop performs per iteration.
type Endpoints struct {
	Rx []*RxEndpoint
	Tx []*TxEndpoint
}

func (e *Endpoints) DispatchAll() {
	for _, rx := range e.Rx {
		RxUpdate(rx)
	}
	for _, tx := range e.Tx {
		TxUpdate(tx)
	}
}
