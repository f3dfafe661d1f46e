//go:build pl011debug

package pl011

import "sync/atomic"

func (s *Stats) onEnable()  { atomic.AddUint32(&s.Enables, 1) }
func (s *Stats) onDisable() { atomic.AddUint32(&s.Disables, 1) }

func (s *Stats) onTx(n int) {
	if n == 0 {
		atomic.AddUint32(&s.TxWouldBlock, 1)
		return
	}
	atomic.AddUint32(&s.TxBytes, uint32(n))
}

func (s *Stats) onFlushPending() { atomic.AddUint32(&s.FlushPending, 1) }

func (s *Stats) onRx(n int) {
	if n == 0 {
		atomic.AddUint32(&s.RxWouldBlock, 1)
		return
	}
	atomic.AddUint32(&s.RxBytes, uint32(n))
}

// Called with the raw UARTDR value of a flagged character.
func (s *Stats) onLineError(dr uint32) {
	if dr&DR_FE != 0 {
		atomic.AddUint32(&s.ErrFraming, 1)
	}
	if dr&DR_PE != 0 {
		atomic.AddUint32(&s.ErrParity, 1)
	}
	if dr&DR_BE != 0 {
		atomic.AddUint32(&s.ErrBreak, 1)
	}
	if dr&DR_OE != 0 {
		atomic.AddUint32(&s.ErrOverrun, 1)
	}
}
