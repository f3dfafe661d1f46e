package pl011

// writeRaw pushes bytes into the TX FIFO until it reports full.
func writeRaw(tx TxRegisters, st *Stats, data []byte) ([]byte, error) {
	n := 0
	for n < len(data) && tx.Flags()&FR_TXFF == 0 {
		tx.WriteData(data[n])
		n++
	}
	st.onTx(n)
	if n == 0 && len(data) > 0 {
		return data, ErrWouldBlock
	}
	return data[n:], nil
}

func writeFullBlocking(tx TxRegisters, st *Stats, data []byte) {
	for len(data) > 0 {
		rest, err := writeRaw(tx, st, data)
		if err != nil {
			continue
		}
		data = rest
	}
}

// transmitFlushed reports ErrWouldBlock while the shifter is busy. BUSY stays
// set until the last stop bit of the last character has left, which is later
// than TXFE.
func transmitFlushed(tx TxRegisters, st *Stats) error {
	if tx.Flags()&FR_BUSY != 0 {
		st.onFlushPending()
		return ErrWouldBlock
	}
	return nil
}

// Writer is the transmit half of a split peripheral. It only holds the
// TxRegisters view of the device.
type Writer struct {
	tx    TxRegisters
	stats *Stats
}

// regs returns the TX view, or panics once Join has taken the Writer.
func (w *Writer) regs() TxRegisters {
	if w.tx == nil {
		panic(errConsumed)
	}
	return w.tx
}

// WriteRaw writes as many bytes as the TX FIFO accepts and returns the
// unwritten remainder. If the FIFO was full before the first byte it returns
// data unchanged and ErrWouldBlock; a partial write is a success.
func (w *Writer) WriteRaw(data []byte) ([]byte, error) {
	return writeRaw(w.regs(), w.stats, data)
}

// WriteFullBlocking spins until every byte of data is in the TX FIFO. It
// never returns if the transmitter cannot drain (for example CTS held off).
func (w *Writer) WriteFullBlocking(data []byte) {
	writeFullBlocking(w.regs(), w.stats, data)
}

// TransmitFlushed returns nil once all queued bytes are on the wire.
func (w *Writer) TransmitFlushed() error {
	return transmitFlushed(w.regs(), w.stats)
}

// WriteByte queues one byte or returns ErrWouldBlock.
func (w *Writer) WriteByte(c byte) error {
	_, err := writeRaw(w.regs(), w.stats, []byte{c})
	return err
}

// Flush is TransmitFlushed under the name io-style callers expect.
func (w *Writer) Flush() error { return w.TransmitFlushed() }

// WriteString blocks until s is queued in the TX FIFO.
func (w *Writer) WriteString(s string) (int, error) {
	writeFullBlocking(w.regs(), w.stats, []byte(s))
	return len(s), nil
}

// DebugStats returns the counters shared with the peripheral. Empty unless
// built with the pl011debug tag.
func (w *Writer) DebugStats() Stats {
	w.regs()
	return w.stats.snapshot()
}
