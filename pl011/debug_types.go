//go:build pl011debug

package pl011

import "sync/atomic"

// Stats holds counters since the peripheral was created or last reset.
// A Reader and Writer split from one peripheral share the same Stats.
type Stats struct {
	// Lifecycle
	Enables  uint32
	Disables uint32

	// TX
	TxBytes      uint32 // bytes written to UARTDR
	TxWouldBlock uint32 // WriteRaw calls that found the FIFO full
	FlushPending uint32 // TransmitFlushed calls that found BUSY set

	// RX
	RxBytes      uint32 // bytes accepted from UARTDR
	RxWouldBlock uint32 // ReadRaw calls that found the FIFO empty

	// Per-character error flags from UARTDR
	ErrFraming uint32 // FE
	ErrParity  uint32 // PE
	ErrBreak   uint32 // BE
	ErrOverrun uint32 // OE
}

// reset zeroes each counter atomically, since a Port or split half may be
// counting at the same time.
func (s *Stats) reset() {
	for _, c := range []*uint32{
		&s.Enables, &s.Disables,
		&s.TxBytes, &s.TxWouldBlock, &s.FlushPending,
		&s.RxBytes, &s.RxWouldBlock,
		&s.ErrFraming, &s.ErrParity, &s.ErrBreak, &s.ErrOverrun,
	} {
		atomic.StoreUint32(c, 0)
	}
}

func (s *Stats) snapshot() Stats {
	return Stats{
		Enables:  atomic.LoadUint32(&s.Enables),
		Disables: atomic.LoadUint32(&s.Disables),

		TxBytes:      atomic.LoadUint32(&s.TxBytes),
		TxWouldBlock: atomic.LoadUint32(&s.TxWouldBlock),
		FlushPending: atomic.LoadUint32(&s.FlushPending),

		RxBytes:      atomic.LoadUint32(&s.RxBytes),
		RxWouldBlock: atomic.LoadUint32(&s.RxWouldBlock),

		ErrFraming: atomic.LoadUint32(&s.ErrFraming),
		ErrParity:  atomic.LoadUint32(&s.ErrParity),
		ErrBreak:   atomic.LoadUint32(&s.ErrBreak),
		ErrOverrun: atomic.LoadUint32(&s.ErrOverrun),
	}
}

// Regs is a snapshot of the configuration registers.
type Regs struct {
	FR    uint32 // Flag register
	CR    uint32 // Control
	LCRH  uint32 // Line control
	DMACR uint32
	IBRD  uint32
	FBRD  uint32
}

func regsOf(d Device) Regs {
	return Regs{
		FR:    d.Flags(),
		CR:    d.Control(),
		LCRH:  d.LineControl(),
		DMACR: d.DMAControl(),
		IBRD:  uint32(d.IntegerDivisor()),
		FBRD:  uint32(d.FractionalDivisor()),
	}
}
