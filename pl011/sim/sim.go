// Package sim is a register-level model of a PL011 UART for host tests and
// host-side tooling. It implements pl011.Device.
//
// The model covers what the driver observes: reset values, the IBRD/FBRD
// latch on a UARTLCR_H write, 32-entry FIFOs (one entry with FEN clear), the
// TXFF/TXFE/RXFE/RXFF/BUSY flags, per-character error flags, overrun, and
// internal loopback (CR.LBE). The far end of the line is driven through
// Transmit, Complete and Receive. All methods are safe for concurrent use.
package sim

import (
	"sync"

	"github.com/jangala-dev/tinygo-pl011/pl011"
)

// Reset values from the PL011 TRM.
const (
	resetCR = pl011.CR_TXE | pl011.CR_RXE
)

// Registers is a snapshot of the configuration registers.
type Registers struct {
	LCRH  uint32
	CR    uint32
	IBRD  uint16
	FBRD  uint8
	DMACR uint32
}

// UART is one simulated PL011 instance.
type UART struct {
	mu sync.Mutex

	inReset bool
	resets  int

	regs         Registers
	latchedIBRD  uint16
	latchedFBRD  uint8
	lcrhWrites   int
	pendingOvrun bool

	tx       fifo[byte]
	rx       fifo[uint32]
	shifting bool
	wire     []byte
}

var _ pl011.Device = (*UART)(nil)

// New returns a UART in its post-reset state.
func New() *UART {
	u := &UART{
		tx: newFIFO[byte](pl011.FIFODepth),
		rx: newFIFO[uint32](pl011.FIFODepth),
	}
	u.powerOn()
	return u
}

func (u *UART) powerOn() {
	u.regs = Registers{CR: resetCR}
	u.latchedIBRD, u.latchedFBRD = 0, 0
	u.lcrhWrites = 0
	u.pendingOvrun = false
	u.tx.Clear()
	u.rx.Clear()
	u.shifting = false
}

// depth is the usable FIFO depth: with FEN clear the PL011 degrades to a
// one-character holding register.
func (u *UART) depth() int {
	if u.regs.LCRH&pl011.LCR_H_FEN == 0 {
		return 1
	}
	return pl011.FIFODepth
}

func (u *UART) enabled(dir uint32) bool {
	return u.regs.CR&pl011.CR_UARTEN != 0 && u.regs.CR&dir != 0
}

// ---------------- pl011.Device ----------------

func (u *UART) Flags() uint32 {
	u.mu.Lock()
	defer u.mu.Unlock()
	var fr uint32
	d := u.depth()
	if u.tx.Used() >= d {
		fr |= pl011.FR_TXFF
	}
	if u.tx.Used() == 0 {
		fr |= pl011.FR_TXFE
	}
	if u.rx.Used() == 0 {
		fr |= pl011.FR_RXFE
	}
	if u.rx.Used() >= d {
		fr |= pl011.FR_RXFF
	}
	if u.tx.Used() > 0 || u.shifting {
		fr |= pl011.FR_BUSY
	}
	return fr
}

// WriteData pushes into the TX FIFO. Writes to a full FIFO are lost.
func (u *UART) WriteData(b byte) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.inReset || u.tx.Used() >= u.depth() {
		return
	}
	u.tx.Put(b)
}

// ReadData pops the RX FIFO. An empty FIFO reads as zero.
func (u *UART) ReadData() uint32 {
	u.mu.Lock()
	defer u.mu.Unlock()
	v, _ := u.rx.Get()
	return v
}

func (u *UART) LineControl() uint32 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.regs.LCRH
}

// SetLineControl writes UARTLCR_H, which also latches IBRD and FBRD.
func (u *UART) SetLineControl(v uint32) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.inReset {
		return
	}
	u.regs.LCRH = v & 0xFF
	u.latchedIBRD, u.latchedFBRD = u.regs.IBRD, u.regs.FBRD
	u.lcrhWrites++
}

func (u *UART) Control() uint32 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.regs.CR
}

func (u *UART) SetControl(v uint32) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.inReset {
		return
	}
	u.regs.CR = v & 0xFFFF
}

func (u *UART) IntegerDivisor() uint16 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.regs.IBRD
}

func (u *UART) SetIntegerDivisor(v uint16) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.inReset {
		return
	}
	u.regs.IBRD = v
}

func (u *UART) FractionalDivisor() uint8 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.regs.FBRD
}

func (u *UART) SetFractionalDivisor(v uint8) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.inReset {
		return
	}
	u.regs.FBRD = v & pl011.FBRD_Max
}

func (u *UART) DMAControl() uint32 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.regs.DMACR
}

func (u *UART) SetDMAControl(v uint32) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.inReset {
		return
	}
	u.regs.DMACR = v & 0x7
}

func (u *UART) ResetBringDown() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.inReset = true
}

func (u *UART) ResetBringUp() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.inReset {
		u.powerOn()
		u.resets++
	}
	u.inReset = false
}

// ---------------- line side ----------------

// Transmit shifts up to n characters (all queued when n <= 0) out of the TX
// FIFO and returns them. Nothing moves unless UARTEN and TXE are set. The
// shifter stays BUSY after the last character until Complete. With LBE set
// the characters are also received.
func (u *UART) Transmit(n int) []byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.enabled(pl011.CR_TXE) {
		return nil
	}
	if n <= 0 || n > u.tx.Used() {
		n = u.tx.Used()
	}
	out := make([]byte, 0, n)
	for i := 0; i < n; i++ {
		b, _ := u.tx.Get()
		out = append(out, b)
	}
	if n > 0 {
		u.shifting = true
	}
	u.wire = append(u.wire, out...)
	if u.regs.CR&pl011.CR_LBE != 0 {
		for _, b := range out {
			u.receive(uint32(b))
		}
	}
	return out
}

// Complete finishes the character in the shift register, clearing BUSY
// once the TX FIFO is empty.
func (u *UART) Complete() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.shifting = false
}

// Receive delivers characters from the line. Nothing is accepted unless
// UARTEN and RXE are set.
func (u *UART) Receive(data ...byte) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, b := range data {
		u.receive(uint32(b))
	}
}

// ReceiveWithError delivers one character carrying UARTDR error flags
// (pl011.DR_FE, DR_PE, DR_BE, DR_OE).
func (u *UART) ReceiveWithError(b byte, flags uint32) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.receive(uint32(b) | flags&pl011.DR_ERR_Msk)
}

// receive stores one entry. A character arriving at a full FIFO is lost
// and the next stored character carries OE.
func (u *UART) receive(v uint32) {
	if !u.enabled(pl011.CR_RXE) {
		return
	}
	if u.rx.Used() >= u.depth() {
		u.pendingOvrun = true
		return
	}
	if u.pendingOvrun {
		v |= pl011.DR_OE
		u.pendingOvrun = false
	}
	u.rx.Put(v)
}

// ---------------- inspection ----------------

// Registers returns the configuration registers as last written.
func (u *UART) Registers() Registers {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.regs
}

// Latched returns the divisors in effect, i.e. as of the last UARTLCR_H
// write.
func (u *UART) Latched() (ibrd uint16, fbrd uint8) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.latchedIBRD, u.latchedFBRD
}

// BaudRate returns the line rate the latched divisors produce from a
// reference clock of freq Hz, or zero when no divisor is latched.
func (u *UART) BaudRate(freq uint32) uint32 {
	ibrd, fbrd := u.Latched()
	if ibrd == 0 {
		return 0
	}
	return pl011.EffectiveBaudRate(freq, ibrd, uint16(fbrd))
}

// LineControlWrites counts UARTLCR_H writes since the last reset.
func (u *UART) LineControlWrites() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.lcrhWrites
}

// Resets counts completed reset pulses.
func (u *UART) Resets() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.resets
}

// Wire returns a copy of every character transmitted so far.
func (u *UART) Wire() []byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]byte(nil), u.wire...)
}

// TxQueued returns the number of characters waiting in the TX FIFO.
func (u *UART) TxQueued() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.tx.Used()
}

// RxQueued returns the number of entries waiting in the RX FIFO.
func (u *UART) RxQueued() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.rx.Used()
}
