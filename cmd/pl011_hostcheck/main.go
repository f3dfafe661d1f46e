//go:build !tinygo

// pl011_hostcheck is the PC end of the integrity test. It streams pattern B
// to the device and verifies the pattern A stream coming back, both after a
// one-byte preamble.
//
//	pl011_hostcheck -link "/dev/ttyUSB0 460800 8N1" -n 65536
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jangala-dev/tinygo-pl011/hostlink"
	"github.com/jangala-dev/tinygo-pl011/internal/pattern"
)

const (
	preambleByte = 0x55
	sendChunk    = 192
	recvChunk    = 256
	radius       = 16
)

func main() {
	link := flag.String("link", "/dev/ttyUSB0 115200 8N1", "`port [baud [framing]]`")
	n := flag.Int("n", 64*1024, "bytes per direction")
	timeout := flag.Duration("timeout", 30*time.Second, "overall deadline")
	sendOnly := flag.Bool("send-only", false, "only transmit pattern B")
	recvOnly := flag.Bool("recv-only", false, "only verify pattern A")
	flag.Parse()

	l, err := hostlink.ParseLink(*link)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	port, err := hostlink.Open(l, 100*time.Millisecond)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer port.Close()

	fmt.Printf("pl011 host check on %v, %d bytes/dir\n", l, *n)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	errc := make(chan error, 2)
	jobs := 0
	if !*sendOnly {
		jobs++
		go func() { errc <- receive(ctx, port, *n) }()
	}
	if !*recvOnly {
		jobs++
		go func() { errc <- send(ctx, port, *n) }()
	}

	failed := false
	for ; jobs > 0; jobs-- {
		if err := <-errc; err != nil {
			fmt.Println("[FAIL]", err)
			failed = true
			cancel()
		}
	}
	if failed {
		os.Exit(1)
	}
	fmt.Println("[PASS]")
}

func send(ctx context.Context, w io.Writer, n int) error {
	if _, err := w.Write([]byte{preambleByte}); err != nil {
		return fmt.Errorf("send preamble: %w", err)
	}
	time.Sleep(2 * time.Millisecond)

	var buf [sendChunk]byte
	for off := 0; off < n; {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("send at %d: %w", off, err)
		}
		k := min(sendChunk, n-off)
		pattern.Fill(buf[:k], pattern.B, off)
		if _, err := w.Write(buf[:k]); err != nil {
			return fmt.Errorf("send at %d: %w", off, err)
		}
		off += k
	}
	return nil
}

// receive reads until n pattern bytes have been verified. Reads time out
// periodically so ctx is honoured.
func receive(ctx context.Context, r io.Reader, n int) error {
	c := pattern.NewChecker(pattern.A, 1)
	var buf [recvChunk]byte
	for c.Offset() < n {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("receive at %d: %w", c.Offset(), err)
		}
		m, err := r.Read(buf[:])
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("receive at %d: %w", c.Offset(), err)
		}
		if m == 0 {
			continue
		}
		off, idx, ok := c.Feed(buf[:m])
		if !ok {
			start, exp := pattern.Window(pattern.A, off, radius)
			act := make([]byte, len(exp))
			base := off - idx
			for i := range act {
				if j := start + i - base; j >= 0 && j < m {
					act[i] = buf[j]
				}
			}
			fmt.Printf("first mismatch at offset %d\n exp:%s\n act:%s\n",
				off, pattern.Hex(exp, -1), pattern.Hex(act, off-start))
			return fmt.Errorf("integrity mismatch at offset %d", off)
		}
	}
	return nil
}
