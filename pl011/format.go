package pl011

// encodeFormat returns the UARTLCR_H word-length, stop-bit and parity bits
// for an already validated configuration. It does not include FEN.
func encodeFormat(db DataBits, sb StopBits, p Parity) uint32 {
	var v uint32

	switch p {
	case ParityOdd:
		v |= LCR_H_PEN
	case ParityEven:
		v |= LCR_H_PEN | LCR_H_EPS
	}

	// WLEN: 0b00 = 5 bits ... 0b11 = 8 bits.
	v |= uint32(db-DataBits5) << LCR_H_WLEN_Pos & LCR_H_WLEN_Msk

	if sb == StopBits2 {
		v |= LCR_H_STP2
	}
	return v
}
