package pl011

import (
	"errors"
	"strconv"
)

// ReadErrorKind is a receive line error reported by the PL011 alongside a
// character. It is comparable and implements error, so errors.Is(err, ErrParity)
// matches a *ReadError of that kind.
type ReadErrorKind string

func (k ReadErrorKind) Error() string { return "pl011: " + string(k) + " error" }

const (
	ErrFraming ReadErrorKind = "framing"
	ErrParity  ReadErrorKind = "parity"
	ErrBreak   ReadErrorKind = "break"
	ErrOverrun ReadErrorKind = "overrun"
)

// ReadError stops a read at a character that arrived with an error flag.
// The flagged character is consumed and not stored.
type ReadError struct {
	Kind ReadErrorKind
	// N is the number of good bytes stored before the flagged character.
	N int
	// Buffer is the caller's buffer up to N.
	Buffer []byte
}

func (e *ReadError) Error() string {
	return e.Kind.Error() + " after " + strconv.Itoa(e.N) + " bytes"
}

func (e *ReadError) Unwrap() error { return e.Kind }

// errorKind maps the UARTDR error flags to a kind. When several flags are
// set the framing error wins, then parity, break and overrun.
func errorKind(dr uint32) (ReadErrorKind, bool) {
	switch {
	case dr&DR_FE != 0:
		return ErrFraming, true
	case dr&DR_PE != 0:
		return ErrParity, true
	case dr&DR_BE != 0:
		return ErrBreak, true
	case dr&DR_OE != 0:
		return ErrOverrun, true
	}
	return "", false
}

// readRaw drains the RX FIFO into buf until it is empty or buf is full.
// An empty FIFO is reported as ErrWouldBlock even when buf is empty, so a
// zero-length read can poll for readability.
func readRaw(rx RxRegisters, st *Stats, buf []byte) (int, error) {
	if rx.Flags()&FR_RXFE != 0 {
		st.onRx(0)
		return 0, ErrWouldBlock
	}
	n := 0
	for n < len(buf) {
		if n > 0 && rx.Flags()&FR_RXFE != 0 {
			break
		}
		dr := rx.ReadData()
		if kind, bad := errorKind(dr); bad {
			st.onRx(n)
			st.onLineError(dr)
			return n, &ReadError{Kind: kind, N: n, Buffer: buf[:n]}
		}
		buf[n] = byte(dr & DR_DATA_Msk)
		n++
	}
	if n > 0 {
		st.onRx(n)
	}
	return n, nil
}

func readFullBlocking(rx RxRegisters, st *Stats, buf []byte) error {
	off := 0
	for off < len(buf) {
		n, err := readRaw(rx, st, buf[off:])
		off += n
		if err == nil || errors.Is(err, ErrWouldBlock) {
			continue
		}
		var re *ReadError
		if errors.As(err, &re) {
			re.N = off
			re.Buffer = buf[:off]
		}
		return err
	}
	return nil
}

// Reader is the receive half of a split peripheral. It keeps ownership of
// the device, pins and configuration; Join hands them back.
type Reader[D Device, P Pins] struct {
	h handle[D, P]
}

// ReadRaw copies bytes from the RX FIFO into buf until the FIFO is empty or
// buf is full and returns the count. An empty FIFO at the start yields
// ErrWouldBlock, also for an empty buf. A character with an error flag stops the read with a
// *ReadError carrying the count stored so far.
func (r *Reader[D, P]) ReadRaw(buf []byte) (int, error) {
	h := r.h.use()
	return readRaw(h.dev, h.stats, buf)
}

// ReadFullBlocking spins until buf is full or a line error is seen. A line
// error is returned immediately as a *ReadError whose N counts every byte
// stored by this call.
func (r *Reader[D, P]) ReadFullBlocking(buf []byte) error {
	h := r.h.use()
	return readFullBlocking(h.dev, h.stats, buf)
}

// ReadByte returns one byte, ErrWouldBlock, or the line error kind.
func (r *Reader[D, P]) ReadByte() (byte, error) {
	h := r.h.use()
	return readByte(h.dev, h.stats)
}

func readByte(rx RxRegisters, st *Stats) (byte, error) {
	var b [1]byte
	if _, err := readRaw(rx, st, b[:]); err != nil {
		var re *ReadError
		if errors.As(err, &re) {
			return 0, re.Kind
		}
		return 0, err
	}
	return b[0], nil
}

// Config returns the configuration the peripheral was enabled with.
func (r *Reader[D, P]) Config() Config { return r.h.use().cfg }

// EffectiveBaudRate returns the rate programmed at enable time.
func (r *Reader[D, P]) EffectiveBaudRate() uint32 { return r.h.use().baud }

// DebugStats returns the counters shared with the peripheral.
func (r *Reader[D, P]) DebugStats() Stats { return r.h.use().stats.snapshot() }
