//go:build rp2040 || rp2350

// pl011_selftest runs driver checks on UART1 with TX looped to RX
// (Pico: GP8 to GP9).
package main

import (
	"context"
	"crypto/sha1"
	"errors"
	"time"

	"machine"

	"github.com/jangala-dev/tinygo-pl011/pl011"
)

var (
	dev        = pl011.UART1
	txPin      = machine.UART1_TX_PIN
	rxPin      = machine.UART1_RX_PIN
	baud       = uint32(921600)
	lineEnding = "\r\n"
)

type enabled = pl011.Enabled[*pl011.RP2, pl011.Pinout]

func drain(u *enabled) {
	var tmp [pl011.FIFODepth]byte
	for {
		if _, err := u.ReadRaw(tmp[:]); errors.Is(err, pl011.ErrWouldBlock) {
			return
		}
	}
}

// settle waits for the transmitter to go idle and the last character to
// arrive back.
func settle(u *enabled) {
	for u.TransmitFlushed() != nil {
	}
	time.Sleep(time.Millisecond)
}

func recvExact(ctx context.Context, p *pl011.Port, n int) ([]byte, error) {
	out := make([]byte, 0, n)
	var buf [128]byte
	for len(out) < n {
		k := n - len(out)
		if k > len(buf) {
			k = len(buf)
		}
		m, err := p.ReadContext(ctx, buf[:k])
		out = append(out, buf[:m]...)
		if err != nil {
			return out, err
		}
	}
	return out, nil
}

func ledBlink(times int, on time.Duration) {
	for i := 0; i < times; i++ {
		machine.LED.High()
		time.Sleep(on)
		machine.LED.Low()
		time.Sleep(on)
	}
}

func main() {
	// Give the monitor time to attach.
	time.Sleep(3 * time.Second)

	println("pl011 self-test starting")
	machine.LED.Configure(machine.PinConfig{Mode: machine.PinOutput})

	pins, err := pl011.PinoutFor(dev.Index(), txPin, rxPin, machine.NoPin, machine.NoPin)
	if err != nil {
		println("pinout failed:", err.Error())
		for {
			ledBlink(1, 500*time.Millisecond)
		}
	}
	cfg := pl011.Config{BaudRate: baud}
	u, err := pl011.Open(dev, pins, cfg)
	if err != nil {
		println("enable failed:", err.Error())
		for {
			ledBlink(1, 500*time.Millisecond)
		}
	}
	drain(u)

	pass, fail := 0, 0
	defer func() {
		println("")
		println("Summary")
		println("  passed =", pass)
		println("  failed =", fail)
		if fail == 0 {
			ledBlink(3, 120*time.Millisecond)
		} else {
			for {
				ledBlink(1, 600*time.Millisecond)
				time.Sleep(800 * time.Millisecond)
			}
		}
	}()

	run := func(name string, f func() string) {
		println("")
		println("[Test]", name)
		if msg := f(); msg == "" {
			println("  PASS")
			pass++
		} else {
			println("  FAIL:", msg)
			fail++
		}
	}

	run("registers: divisors, format and control after Enable", func() string {
		ibrd, fbrd, err := pl011.CalculateDividers(baud, machine.CPUFrequency())
		if err != nil {
			return err.Error()
		}
		if uint16(dev.IntegerDivisor()) != ibrd || uint16(dev.FractionalDivisor()) != fbrd {
			return "divisors differ from CalculateDividers"
		}
		if dev.LineControl()&pl011.LCR_H_FEN == 0 {
			return "FIFOs not enabled"
		}
		want := uint32(pl011.CR_UARTEN | pl011.CR_TXE | pl011.CR_RXE)
		if dev.Control()&(want|pl011.CR_CTSEN|pl011.CR_RTSEN) != want {
			return "unexpected UARTCR"
		}
		println("  effective =", u.EffectiveBaudRate(), "baud")
		return ""
	})

	run("nonblocking: ReadRaw on idle line is WouldBlock", func() string {
		drain(u)
		time.Sleep(10 * time.Millisecond)
		if _, err := u.ReadRaw(make([]byte, 4)); !errors.Is(err, pl011.ErrWouldBlock) {
			return "expected ErrWouldBlock"
		}
		return ""
	})

	run("nonblocking: WriteRaw partial progress", func() string {
		drain(u)
		src := make([]byte, 3*pl011.FIFODepth)
		rest, err := u.WriteRaw(src)
		if err != nil {
			return err.Error()
		}
		took := len(src) - len(rest)
		// At least a full FIFO; more only as characters leave meanwhile.
		if took < pl011.FIFODepth {
			return "accepted " + itoa(took) + " bytes"
		}
		settle(u)
		drain(u)
		return ""
	})

	run("sanity: short loopback (WriteFullBlocking + ReadFullBlocking)", func() string {
		drain(u)
		msg := []byte("hello, pl011" + lineEnding)
		u.WriteFullBlocking(msg)
		got := make([]byte, len(msg))
		if err := u.ReadFullBlocking(got); err != nil {
			return err.Error()
		}
		if string(got) != string(msg) {
			return "mismatch"
		}
		return ""
	})

	run("flush: TransmitFlushed reports WouldBlock while shifting", func() string {
		drain(u)
		u.WriteFullBlocking(make([]byte, 16))
		if u.TransmitFlushed() == nil {
			return "idle immediately after queuing 16 bytes"
		}
		settle(u)
		if u.TransmitFlushed() != nil {
			return "still busy after settle"
		}
		drain(u)
		return ""
	})

	run("overrun: RX FIFO overflow flags the next character", func() string {
		drain(u)
		u.WriteFullBlocking(make([]byte, pl011.FIFODepth+8))
		settle(u)
		buf := make([]byte, 2*pl011.FIFODepth)
		_, err := u.ReadRaw(buf)
		if err == nil {
			// The flagged character is the next one to arrive.
			u.WriteFullBlocking([]byte{'!'})
			settle(u)
			_, err = u.ReadRaw(buf)
		}
		if !errors.Is(err, pl011.ErrOverrun) {
			return "no overrun reported"
		}
		drain(u)
		return ""
	})

	run("binary: 4 KiB integrity through split halves (SHA-1)", func() string {
		drain(u)
		n := 4 * 1024
		src := make([]byte, n)
		var x uint32 = 0x12345678
		for i := range src {
			x = 1664525*x + 1013904223
			src[i] = byte(x >> 24)
		}
		want := sha1.Sum(src)

		r, w := u.Split()
		defer func() { u = pl011.Join(r, w) }()
		rp := pl011.NewReaderPort(r)
		wp := pl011.NewWriterPort(w, r.EffectiveBaudRate())

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		go func() { _, _ = wp.WriteContext(ctx, src) }()
		got, err := recvExact(ctx, rp, n)
		if err != nil || len(got) != n {
			return "timeout/short read"
		}
		if sha1.Sum(got) != want {
			return "hash mismatch"
		}
		return ""
	})

	run("throughput: 32 KiB (Port, split)", func() string {
		drain(u)
		n := 32 * 1024
		src := make([]byte, n)
		for i := 0; i < n; i++ {
			src[i] = byte(i * 31)
		}

		r, w := u.Split()
		defer func() { u = pl011.Join(r, w) }()
		rp := pl011.NewReaderPort(r)
		wp := pl011.NewWriterPort(w, r.EffectiveBaudRate())

		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		go func() { _, _ = wp.WriteContext(ctx, src) }()
		if _, err := recvExact(ctx, rp, n); err != nil {
			return "timeout"
		}

		elapsed := time.Since(start)
		ms := int(elapsed / time.Millisecond)
		if ms <= 0 {
			ms = 1
		}
		kbpsX100 := (n*8*100 + ms/2) / ms
		println("  speed =", formatFixed2(kbpsX100), "kbps")
		return ""
	})

	run("format: disable, re-enable 7E1, loopback", func() string {
		settle(u)
		d := u.Disable()
		if dev.Control()&pl011.CR_UARTEN != 0 {
			return "UARTEN still set after Disable"
		}
		var err error
		u, err = d.Enable(pl011.Config{BaudRate: baud, DataBits: pl011.DataBits7, Parity: pl011.ParityEven}, machine.CPUFrequency())
		if err != nil {
			return err.Error()
		}
		drain(u)
		msg := []byte("format-ok" + lineEnding)
		u.WriteFullBlocking(msg)
		got := make([]byte, len(msg))
		if err := u.ReadFullBlocking(got); err != nil {
			return err.Error()
		}
		if string(got) != string(msg) {
			return "mismatch"
		}
		return ""
	})

	println("")
	println("All tests completed")
}

// --- tiny helpers (no fmt) ---

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := false
	if n < 0 {
		neg = true
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + (n % 10))
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func twoDigits(n int) string {
	if n < 10 {
		return "0" + itoa(n)
	}
	return itoa(n)
}

func formatFixed2(x int) string {
	sign := ""
	if x < 0 {
		sign = "-"
		x = -x
	}
	whole := x / 100
	frac := x % 100
	return sign + itoa(whole) + "." + twoDigits(frac)
}
