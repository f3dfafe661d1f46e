//go:build (rp2040 || rp2350) && pl011debug

// pl011_diag drives UART1 in loopback (Pico: GP8 to GP9) through a few
// phases and prints the driver counters and registers after each.
package main

import (
	"crypto/sha1"
	"errors"
	"time"

	"machine"

	"github.com/jangala-dev/tinygo-pl011/pl011"
)

const baud = 115200

type enabled = pl011.Enabled[*pl011.RP2, pl011.Pinout]

func must[T any](v T, err error) T {
	if err != nil {
		println("fatal:", err.Error())
		for {
			time.Sleep(time.Hour)
		}
	}
	return v
}

func printStats(u *enabled, label string) {
	s := u.DebugStats()
	r := u.DebugRegs()
	println("==", label)
	println("Life:   enables=", s.Enables, " disables=", s.Disables)
	println("TX:     bytes=", s.TxBytes, " wouldblock=", s.TxWouldBlock, " flushpending=", s.FlushPending)
	println("RX:     bytes=", s.RxBytes, " wouldblock=", s.RxWouldBlock)
	println("Errors: OE=", s.ErrOverrun, " BE=", s.ErrBreak, " PE=", s.ErrParity, " FE=", s.ErrFraming)
	println("Regs:   FR=0x", r.FR, " CR=0x", r.CR, " LCRH=0x", r.LCRH,
		" DMACR=0x", r.DMACR, " IBRD=", r.IBRD, " FBRD=", r.FBRD)
}

func drain(u *enabled) {
	var tmp [pl011.FIFODepth]byte
	for {
		if _, err := u.ReadRaw(tmp[:]); errors.Is(err, pl011.ErrWouldBlock) {
			return
		}
	}
}

func main() {
	delay := 10
	for i := 0; i < delay; i++ {
		println("test starting in ", delay-i, " seconds")
		time.Sleep(time.Second)
	}
	println("pl011 diag (debug counters)")

	pins := must(pl011.PinoutFor(1, machine.UART1_TX_PIN, machine.UART1_RX_PIN, machine.NoPin, machine.NoPin))
	u := must(pl011.Open(pl011.UART1, pins, pl011.Config{BaudRate: baud}))

	machine.LED.Configure(machine.PinConfig{Mode: machine.PinOutput})
	drain(u)
	u.DebugReset()

	// Phase 1: 1 KiB integrity, half-duplex in chunks that fit the FIFO.
	println("\n[phase] integrity-1k")
	src := make([]byte, 1024)
	var x uint32 = 0x12345678
	for i := range src {
		x = 1664525*x + 1013904223
		src[i] = byte(x >> 24)
	}
	got := make([]byte, len(src))
	var rerr error
	for off := 0; off < len(src) && rerr == nil; off += pl011.FIFODepth {
		u.WriteFullBlocking(src[off : off+pl011.FIFODepth])
		rerr = u.ReadFullBlocking(got[off : off+pl011.FIFODepth])
	}
	switch {
	case rerr != nil:
		println(" result:", rerr.Error())
	case sha1.Sum(got) != sha1.Sum(src):
		println(" result: HASH MISMATCH")
	default:
		println(" result: OK (1 KiB)")
	}
	printStats(u, "after integrity-1k")

	// Phase 2: 8 KiB burst with reads held off, to provoke overrun.
	println("\n[phase] burst-8k (reader held off)")
	u.DebugReset()
	drain(u)
	r, w := u.Split()
	go w.WriteFullBlocking(make([]byte, 8*1024))
	time.Sleep(50 * time.Millisecond)
	var buf [pl011.FIFODepth]byte
	received, lineErrs := 0, 0
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		n, err := r.ReadRaw(buf[:])
		received += n
		var re *pl011.ReadError
		if errors.As(err, &re) {
			lineErrs++
		}
	}
	println(" result: received", received, "bytes,", lineErrs, "line errors")
	u = pl011.Join(r, w)
	printStats(u, "after burst-8k")

	// Phase 3: WouldBlock accounting on an idle line.
	println("\n[phase] idle-polls")
	u.DebugReset()
	drain(u)
	for i := 0; i < 100; i++ {
		_, _ = u.ReadRaw(buf[:])
	}
	_ = u.WriteByte('A')
	for u.TransmitFlushed() != nil {
	}
	time.Sleep(time.Millisecond)
	b, err := u.ReadByte()
	if err != nil {
		println(" result: ReadByte", err.Error())
	} else {
		println(" result: got '", string(rune(b)), "'")
	}
	printStats(u, "after idle-polls")

	println("\ndone")
}
