// pl011/device_rp2.go
//go:build rp2040 || rp2350

package pl011

import (
	"device/rp"
	"fmt"
	"machine"
)

// RP2 is one of the two PL011 instances on RP2040/RP2350, bound to its
// register block and its bit in RESETS.
type RP2 struct {
	Bus   *rp.UART0_Type
	reset uint32
	index uint8
}

var _ Device = (*RP2)(nil)

// UART instances on the RP2040/RP2350.
var (
	UART0 = &RP2{Bus: rp.UART0, reset: rp.RESETS_RESET_UART0, index: 0}
	UART1 = &RP2{Bus: rp.UART1, reset: rp.RESETS_RESET_UART1, index: 1}
)

// Index returns 0 for UART0 and 1 for UART1.
func (u *RP2) Index() uint8 { return u.index }

func (u *RP2) Flags() uint32    { return u.Bus.UARTFR.Get() }
func (u *RP2) WriteData(b byte) { u.Bus.UARTDR.Set(uint32(b)) }
func (u *RP2) ReadData() uint32 { return u.Bus.UARTDR.Get() }

func (u *RP2) LineControl() uint32     { return u.Bus.UARTLCR_H.Get() }
func (u *RP2) SetLineControl(v uint32) { u.Bus.UARTLCR_H.Set(v) }
func (u *RP2) Control() uint32         { return u.Bus.UARTCR.Get() }
func (u *RP2) SetControl(v uint32)     { u.Bus.UARTCR.Set(v) }

func (u *RP2) IntegerDivisor() uint16       { return uint16(u.Bus.UARTIBRD.Get()) }
func (u *RP2) SetIntegerDivisor(v uint16)   { u.Bus.UARTIBRD.Set(uint32(v)) }
func (u *RP2) FractionalDivisor() uint8     { return uint8(u.Bus.UARTFBRD.Get()) }
func (u *RP2) SetFractionalDivisor(v uint8) { u.Bus.UARTFBRD.Set(uint32(v)) }

func (u *RP2) DMAControl() uint32     { return u.Bus.UARTDMACR.Get() }
func (u *RP2) SetDMAControl(v uint32) { u.Bus.UARTDMACR.Set(v) }

// ResetBringDown asserts the peripheral reset.
func (u *RP2) ResetBringDown() {
	rp.RESETS.RESET.SetBits(u.reset)
}

// ResetBringUp releases the reset and waits for RESET_DONE.
func (u *RP2) ResetBringUp() {
	rp.RESETS.RESET.ClearBits(u.reset)
	for !rp.RESETS.RESET_DONE.HasBits(u.reset) {
	}
}

// PinoutFor validates machine pins for UART index. Use machine.NoPin for
// unused signals.
func PinoutFor(index uint8, tx, rx, cts, rts machine.Pin) (Pinout, error) {
	return NewPinout(index, gpioOf(tx), gpioOf(rx), gpioOf(cts), gpioOf(rts))
}

func gpioOf(p machine.Pin) GPIO {
	if p == machine.NoPin {
		return NoGPIO
	}
	return GPIO(p)
}

// Mux switches every pin in p to its UART function.
func (p Pinout) Mux() {
	for _, g := range []GPIO{p.TX, p.RX, p.CTS, p.RTS} {
		if g != NoGPIO {
			machine.Pin(g).Configure(machine.PinConfig{Mode: machine.PinUART})
		}
	}
}

// Open muxes pins, resets u and enables it with cfg, clocked from the
// peripheral clock (clk_peri runs at the CPU frequency under TinyGo).
func Open(u *RP2, pins Pinout, cfg Config) (*Enabled[*RP2, Pinout], error) {
	if pins.Index() != u.Index() {
		return nil, fmt.Errorf("%w: pinout for UART%d used with UART%d", ErrBadArgument, pins.Index(), u.Index())
	}
	pins.Mux()
	return New(u, pins).Enable(cfg, machine.CPUFrequency())
}
