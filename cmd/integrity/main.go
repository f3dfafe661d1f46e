// cmd/integrity/main.go
// Cross-UART integrity test for RP2040 (Pico) using the pl011 driver. Each
// UART is split so its reader and writer halves run in separate goroutines.
// Wiring:
//   U0 TX=GP0 -> U1 RX=GP5
//   U1 TX=GP4 -> U0 RX=GP1
// Flow control unused (RTS/CTS not connected).
//
// Set hostMode to run the U0 side against cmd/pl011_hostcheck instead.

//go:build rp2040 || rp2350

package main

import (
	"context"
	"errors"
	"time"

	"machine"

	"tinygo.org/x/drivers"

	"github.com/jangala-dev/tinygo-pl011/internal/pattern"
	"github.com/jangala-dev/tinygo-pl011/pl011"
)

/*** Tunables ***/
const (
	baud           = 460800
	totalBytes     = 64 * 1024 // bytes per direction
	hostMode       = false     // true: only U0, peer is a PC
	timeoutPerTest = 10 * time.Second
	warmupDelay    = 2 * time.Second

	// Receivers skip one preamble byte to avoid the first-byte artefact
	// of a line that was floating before the pins were muxed.
	preambleByte = 0x55
	guardDelay   = 2 * time.Millisecond

	sendChunk     = 192
	recvChunk     = 256
	contextRadius = 16
)

// rxLine and txLine are the drivers.UART contract plus the deadline-aware
// calls a timed run needs.
type rxLine interface {
	drivers.UART
	ReadContext(ctx context.Context, b []byte) (int, error)
}

type txLine interface {
	drivers.UART
	WriteContext(ctx context.Context, b []byte) (int, error)
	FlushContext(ctx context.Context) error
}

type half struct {
	r rxLine
	w txLine
}

func open(u *pl011.RP2, tx, rx machine.Pin) (half, error) {
	// Hold RX high before remux so the line idles high.
	rx.Configure(machine.PinConfig{Mode: machine.PinInputPullup})

	pins, err := pl011.PinoutFor(u.Index(), tx, rx, machine.NoPin, machine.NoPin)
	if err != nil {
		return half{}, err
	}
	cfg := pl011.Config115200_8N1
	cfg.BaudRate = baud
	e, err := pl011.Open(u, pins, cfg)
	if err != nil {
		return half{}, err
	}
	r, w := e.Split()
	return half{r: pl011.NewReaderPort(r), w: pl011.NewWriterPort(w, r.EffectiveBaudRate())}, nil
}

func main() {
	time.Sleep(warmupDelay)
	println("pl011 integrity test (RP2040)")
	println("baud =", baud, "  bytes/dir =", totalBytes, "  host mode =", hostMode)

	machine.LED.Configure(machine.PinConfig{Mode: machine.PinOutput})

	u0, err := open(pl011.UART0, machine.Pin(0), machine.Pin(1))
	if err != nil {
		println("UART0:", err.Error())
		fail()
	}

	var res []error
	if hostMode {
		println("U0 TX/RX = 0/1 <-> host")
		res = run(u0, u0, pattern.A, pattern.B)
	} else {
		println("U0 TX/RX = 0/1  U1 TX/RX = 4/5")
		u1, err := open(pl011.UART1, machine.Pin(4), machine.Pin(5))
		if err != nil {
			println("UART1:", err.Error())
			fail()
		}
		res = run(u0, u1, pattern.A, pattern.B)
	}

	failed := 0
	for _, err := range res {
		if err != nil {
			println("[FAIL]", err.Error())
			failed++
		}
	}
	if failed > 0 {
		fail()
	}
	println("[PASS] full-duplex integrity")
	blink(3, 120*time.Millisecond)
	for {
		time.Sleep(time.Second)
	}
}

// run sends genA from a to b and genB from b to a concurrently. With a == b
// the far end is external and a only checks what comes back.
func run(a, b half, genA, genB pattern.Gen) []error {
	drain(a.r)
	drain(b.r)

	ctx, cancel := context.WithTimeout(context.Background(), timeoutPerTest)
	defer cancel()

	errc := make(chan error, 4)
	jobs := 0
	start := func(f func() error) {
		jobs++
		go func() { errc <- f() }()
	}

	start(func() error { return recvAndCheck(ctx, a.r, genB) })
	if a != b {
		start(func() error { return recvAndCheck(ctx, b.r, genA) })
	}

	preamble := []byte{preambleByte}
	_, _ = a.w.Write(preamble)
	if a != b {
		_, _ = b.w.Write(preamble)
	}
	time.Sleep(guardDelay)

	start(func() error { return sendPattern(ctx, a.w, genA) })
	if a != b {
		start(func() error { return sendPattern(ctx, b.w, genB) })
	}

	out := make([]error, 0, jobs)
	for ; jobs > 0; jobs-- {
		out = append(out, <-errc)
	}
	return out
}

// drain discards whatever is already waiting. Read cannot block here since
// Buffered reported data.
func drain(u drivers.UART) {
	var b [pl011.FIFODepth]byte
	for u.Buffered() > 0 {
		if _, err := u.Read(b[:]); err != nil && !isLineError(err) {
			return
		}
	}
}

func isLineError(err error) bool {
	var re *pl011.ReadError
	return errors.As(err, &re)
}

func sendPattern(ctx context.Context, w txLine, gen pattern.Gen) error {
	var buf [sendChunk]byte
	for off := 0; off < totalBytes; {
		k := sendChunk
		if totalBytes-off < k {
			k = totalBytes - off
		}
		pattern.Fill(buf[:k], gen, off)
		if _, err := w.WriteContext(ctx, buf[:k]); err != nil {
			return errors.New("send timeout")
		}
		off += k
	}
	return w.FlushContext(ctx)
}

func recvAndCheck(ctx context.Context, r rxLine, gen pattern.Gen) error {
	c := pattern.NewChecker(gen, 1)
	var buf [recvChunk]byte
	for c.Offset() < totalBytes {
		k := totalBytes - c.Offset() + 1
		if k > len(buf) {
			k = len(buf)
		}
		m, err := r.ReadContext(ctx, buf[:k])
		if err != nil && !isLineError(err) {
			return errors.New("receive timeout")
		}
		if err != nil {
			// A flagged character is dropped; the stream is now short by one.
			println("line error at offset", c.Offset()+m, ":", err.Error())
		}
		off, idx, ok := c.Feed(buf[:m])
		if !ok {
			println("First mismatch at offset", off)
			start, exp := pattern.Window(gen, off, contextRadius)
			act := make([]byte, len(exp))
			for i := range act {
				if j := start + i - (off - idx); j >= 0 && j < m {
					act[i] = buf[j]
				}
			}
			println(" exp:" + pattern.Hex(exp, -1))
			println(" act:" + pattern.Hex(act, off-start))
			return errors.New("integrity mismatch")
		}
	}
	return nil
}

func blink(times int, on time.Duration) {
	for i := 0; i < times; i++ {
		machine.LED.High()
		time.Sleep(on)
		machine.LED.Low()
		time.Sleep(on)
	}
}

func fail() {
	for {
		blink(1, 600*time.Millisecond)
		time.Sleep(800 * time.Millisecond)
	}
}
