package pl011

// Split divides an enabled peripheral into a receive half, which keeps the
// device, pins and configuration, and a transmit half holding only the
// TxRegisters view of the same device. e must not be used afterwards.
//
// The halves may be driven from different goroutines without locking: the
// Reader only pops UARTDR and the Writer only pushes it, and both merely
// read UARTFR. Any new Writer method must keep to TxRegisters, and Join
// must be revisited if the Writer ever gains state of its own.
func (e *Enabled[D, P]) Split() (*Reader[D, P], *Writer) {
	h := e.h.take()
	return &Reader[D, P]{h: h}, &Writer{tx: h.dev, stats: h.stats}
}

// Join reassembles the halves produced by Split. The Reader's device, pins,
// configuration and baud rate are used as is; the Writer's view is dropped.
// Neither half may be used afterwards.
func Join[D Device, P Pins](r *Reader[D, P], w *Writer) *Enabled[D, P] {
	h := r.h.take()
	*w = Writer{}
	return &Enabled[D, P]{h: h}
}
