//go:build rp2040 || rp2350

// fifo_check walks UART0 through reset, enable, disable and re-enable and
// prints the PL011 registers at each step, then measures how many bytes the
// TX FIFO takes in one burst.
package main

import (
	"device/rp"
	"machine"
	"time"

	"github.com/jangala-dev/tinygo-pl011/pl011"
)

type snapshot struct{ cr, lcrh, fr, ibrd, fbrd, dmacr uint32 }

func read(u *rp.UART0_Type) snapshot {
	return snapshot{
		cr:    u.UARTCR.Get(),
		lcrh:  u.UARTLCR_H.Get(),
		fr:    u.UARTFR.Get(),
		ibrd:  u.UARTIBRD.Get(),
		fbrd:  u.UARTFBRD.Get(),
		dmacr: u.UARTDMACR.Get(),
	}
}

func main() {
	time.Sleep(2 * time.Second)

	bus := pl011.UART0.Bus

	println("Before New:")
	report(read(bus))

	pins, err := pl011.PinoutFor(0, machine.GPIO0, machine.GPIO1, machine.NoPin, machine.NoPin)
	if err != nil {
		println("pinout:", err.Error())
		halt()
	}
	pins.Mux()
	d := pl011.New(pl011.UART0, pins)

	println("After New (reset pulse):")
	report(read(bus))

	e, err := d.Enable(pl011.Config115200_8N1, machine.CPUFrequency())
	if err != nil {
		println("enable:", err.Error())
		halt()
	}
	first := read(bus)
	println("After Enable:")
	report(first)
	println("effective baud =", e.EffectiveBaudRate())

	// The shifter takes one character immediately, so expect FIFODepth+1.
	burst := make([]byte, 2*pl011.FIFODepth)
	rest, _ := e.WriteRaw(burst)
	println("TX burst accepted =", len(burst)-len(rest), "bytes")
	for e.TransmitFlushed() != nil {
	}

	d = e.Disable()
	println("After Disable:")
	report(read(bus))

	e, err = d.Enable(pl011.Config115200_8N1, machine.CPUFrequency())
	if err != nil {
		println("re-enable:", err.Error())
		halt()
	}
	again := read(bus)
	println("After re-Enable:")
	report(again)

	first.fr, again.fr = 0, 0
	if first == again {
		println("[PASS] re-enable programs identical registers")
	} else {
		println("[FAIL] re-enable differs from first enable")
	}
	halt()
}

func report(s snapshot) {
	println("-----------------------------")
	println("UARTCR    = 0x" + hex32(s.cr))
	println("UARTLCR_H = 0x" + hex32(s.lcrh))
	println("UARTFR    = 0x" + hex32(s.fr))
	println("UARTIBRD  = 0x" + hex32(s.ibrd))
	println("UARTFBRD  = 0x" + hex32(s.fbrd))
	println("UARTDMACR = 0x" + hex32(s.dmacr))
	println("FIFOs enabled (FEN) =", s.lcrh&pl011.LCR_H_FEN != 0)
}

func hex32(v uint32) string {
	const hexdigits = "0123456789abcdef"
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = hexdigits[(v>>uint(28-4*i))&0xF]
	}
	return string(b[:])
}

func halt() {
	for {
		time.Sleep(time.Second)
	}
}
