package pl011

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"tinygo.org/x/drivers"
)

// Flusher is implemented by types that can flush buffered output to the
// underlying device.
type Flusher interface{ Flush() error }

var (
	errWriteOnly = fmt.Errorf("pl011: port is write-only: %w", errors.ErrUnsupported)
	errReadOnly  = fmt.Errorf("pl011: port is read-only: %w", errors.ErrUnsupported)
)

// Port adapts the non-blocking FIFO primitives to io.Reader, io.Writer and
// tinygo.org/x/drivers.UART. Read blocks until at least one byte is
// available, Write until every byte is in the TX FIFO, Flush until the
// last bit is on the wire. Waiting yields to other goroutines between polls.
//
// A Port borrows the peripheral it was built from and must not be used
// after that peripheral is disabled, split, joined or freed.
type Port struct {
	rx   RxRegisters
	tx   TxRegisters
	st   *Stats
	baud uint32
}

var _ drivers.UART = (*Port)(nil)

// NewPort returns a Port over both directions of e.
func NewPort[D Device, P Pins](e *Enabled[D, P]) *Port {
	h := e.h.use()
	return &Port{rx: h.dev, tx: h.dev, st: h.stats, baud: h.baud}
}

// NewReaderPort returns a read-only Port over a split Reader.
func NewReaderPort[D Device, P Pins](r *Reader[D, P]) *Port {
	h := r.h.use()
	return &Port{rx: h.dev, st: h.stats, baud: h.baud}
}

// NewWriterPort returns a write-only Port over a split Writer. baud is only
// used to pace Flush polling; zero selects a default.
func NewWriterPort(w *Writer, baud uint32) *Port {
	return &Port{tx: w.regs(), st: w.stats, baud: baud}
}

// TryRead returns immediately with up to len(p) bytes from the RX FIFO.
// A return of 0, nil means no data now. A line error is returned as a
// *ReadError together with the bytes stored before it.
func (p *Port) TryRead(b []byte) (int, error) {
	if p.rx == nil {
		return 0, errWriteOnly
	}
	n, err := readRaw(p.rx, p.st, b)
	if errors.Is(err, ErrWouldBlock) {
		return 0, nil
	}
	return n, err
}

// ReadContext blocks until at least one byte is read, a line error is seen,
// or ctx is done.
func (p *Port) ReadContext(ctx context.Context, b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	for {
		n, err := p.TryRead(b)
		if n > 0 || err != nil {
			return n, err
		}
		if err := yield(ctx); err != nil {
			return 0, err
		}
	}
}

// Read implements io.Reader. It blocks until at least one byte is available
// and does not return io.EOF for an idle line.
func (p *Port) Read(b []byte) (int, error) {
	return p.ReadContext(context.Background(), b)
}

// ReadByte reads a single byte without blocking. It returns ErrWouldBlock
// when the RX FIFO is empty.
func (p *Port) ReadByte() (byte, error) {
	if p.rx == nil {
		return 0, errWriteOnly
	}
	return readByte(p.rx, p.st)
}

// Buffered returns a lower bound on the bytes waiting in the RX FIFO. The
// PL011 only reports empty and full, so the result is 0, 1 or FIFODepth.
func (p *Port) Buffered() int {
	if p.rx == nil {
		return 0
	}
	fr := p.rx.Flags()
	switch {
	case fr&FR_RXFE != 0:
		return 0
	case fr&FR_RXFF != 0:
		return FIFODepth
	}
	return 1
}

// TryWrite returns immediately with the number of bytes accepted by the TX
// FIFO. A return of 0 means no space now.
func (p *Port) TryWrite(b []byte) int {
	if p.tx == nil {
		return 0
	}
	rest, _ := writeRaw(p.tx, p.st, b)
	return len(b) - len(rest)
}

// WriteContext blocks until every byte of b is in the TX FIFO or ctx is
// done, and returns the number of bytes accepted.
func (p *Port) WriteContext(ctx context.Context, b []byte) (int, error) {
	if p.tx == nil {
		return 0, errReadOnly
	}
	sent := 0
	for sent < len(b) {
		if n := p.TryWrite(b[sent:]); n > 0 {
			sent += n
			continue
		}
		if err := yield(ctx); err != nil {
			return sent, err
		}
	}
	return sent, nil
}

// Write implements io.Writer. It does not wait for the line to drain; use
// Flush for on-the-wire completion.
func (p *Port) Write(b []byte) (int, error) {
	return p.WriteContext(context.Background(), b)
}

// WriteByte blocks until c is accepted by the TX FIFO.
func (p *Port) WriteByte(c byte) error {
	_, err := p.Write([]byte{c})
	return err
}

// WriteString implements io.StringWriter.
func (p *Port) WriteString(s string) (int, error) {
	return p.Write([]byte(s))
}

// Writev writes the provided buffers in sequence with the same blocking
// behaviour as Write.
func (p *Port) Writev(bufs ...[]byte) (int, error) {
	sent := 0
	for _, b := range bufs {
		n, err := p.Write(b)
		sent += n
		if err != nil {
			return sent, err
		}
	}
	return sent, nil
}

// FlushContext blocks until the transmitter is idle or ctx is done. BUSY
// raises no interrupt, so it is polled every couple of character times.
func (p *Port) FlushContext(ctx context.Context) error {
	if p.tx == nil {
		return errReadOnly
	}
	tick := p.drainTick()
	for {
		if err := transmitFlushed(p.tx, p.st); err == nil {
			return nil
		}
		t := time.NewTimer(tick)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}
}

// Flush blocks until all queued bytes have left the PL011.
func (p *Port) Flush() error {
	return p.FlushContext(context.Background())
}

// drainTick is about two 8N1 character times, with a lower bound.
func (p *Port) drainTick() time.Duration {
	if p.baud == 0 {
		return 50 * time.Microsecond
	}
	perBit := time.Second / time.Duration(p.baud)
	t := 2 * 10 * perBit
	if t < 20*time.Microsecond {
		t = 20 * time.Microsecond
	}
	return t
}

func yield(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runtime.Gosched()
	return nil
}
