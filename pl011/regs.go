package pl011

// PL011 register bit layout (ARM PrimeCell UART r1p5). Only the fields the
// driver touches are named.
const (
	// UARTDR
	DR_DATA_Msk = 0xFF
	DR_FE       = 1 << 8  // framing error
	DR_PE       = 1 << 9  // parity error
	DR_BE       = 1 << 10 // break error
	DR_OE       = 1 << 11 // overrun error
	DR_ERR_Msk  = DR_FE | DR_PE | DR_BE | DR_OE

	// UARTFR
	FR_CTS  = 1 << 0
	FR_BUSY = 1 << 3
	FR_RXFE = 1 << 4
	FR_TXFF = 1 << 5
	FR_RXFF = 1 << 6
	FR_TXFE = 1 << 7

	// UARTLCR_H
	LCR_H_BRK      = 1 << 0
	LCR_H_PEN      = 1 << 1
	LCR_H_EPS      = 1 << 2
	LCR_H_STP2     = 1 << 3
	LCR_H_FEN      = 1 << 4
	LCR_H_WLEN_Pos = 5
	LCR_H_WLEN_Msk = 0x3 << LCR_H_WLEN_Pos
	LCR_H_SPS      = 1 << 7

	// UARTCR
	CR_UARTEN = 1 << 0
	CR_LBE    = 1 << 7
	CR_TXE    = 1 << 8
	CR_RXE    = 1 << 9
	CR_RTSEN  = 1 << 14
	CR_CTSEN  = 1 << 15

	// UARTDMACR
	DMACR_RXDMAE = 1 << 0
	DMACR_TXDMAE = 1 << 1

	// UARTIBRD / UARTFBRD field widths.
	IBRD_Max = 0xFFFF
	FBRD_Max = 0x3F
)

// FIFODepth is the depth of each PL011 FIFO.
const FIFODepth = 32

// TxRegisters is the part of the register block the transmit path uses.
// It reads UARTFR and writes UARTDR; it never reads UARTDR.
type TxRegisters interface {
	Flags() uint32
	WriteData(b byte)
}

// RxRegisters is the part of the register block the receive path uses.
// It reads UARTFR and pops UARTDR; it never writes UARTDR.
type RxRegisters interface {
	Flags() uint32
	// ReadData pops one entry from the RX FIFO: data in bits 7:0, the
	// per-character error flags (DR_FE, DR_PE, DR_BE, DR_OE) above it.
	ReadData() uint32
}

// Device is a single PL011 register block together with its reset line.
// Implementations must treat the TxRegisters and RxRegisters subsets as
// independent: after Split they are driven from different goroutines.
type Device interface {
	TxRegisters
	RxRegisters

	LineControl() uint32
	SetLineControl(v uint32)
	Control() uint32
	SetControl(v uint32)
	IntegerDivisor() uint16
	SetIntegerDivisor(v uint16)
	FractionalDivisor() uint8
	SetFractionalDivisor(v uint8)
	DMAControl() uint32
	SetDMAControl(v uint32)

	// ResetBringDown holds the peripheral in reset.
	ResetBringDown()
	// ResetBringUp releases the reset and waits for it to complete.
	ResetBringUp()
}
