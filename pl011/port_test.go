package pl011_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"tinygo.org/x/drivers"

	"github.com/jangala-dev/tinygo-pl011/pl011"
)

var (
	_ drivers.UART    = (*pl011.Port)(nil)
	_ io.ByteReader   = (*pl011.Port)(nil)
	_ io.ByteWriter   = (*pl011.Port)(nil)
	_ io.StringWriter = (*pl011.Port)(nil)
	_ pl011.Flusher   = (*pl011.Port)(nil)
)

func TestPort_TryReadEmptyIsNotAnError(t *testing.T) {
	_, e := newEnabled(t)
	p := pl011.NewPort(e)
	n, err := p.TryRead(make([]byte, 4))
	if n != 0 || err != nil {
		t.Fatalf("n=%d err=%v; want 0, nil", n, err)
	}
}

func TestPort_ReadBlocksForData(t *testing.T) {
	u, e := newEnabled(t)
	p := pl011.NewPort(e)

	go func() {
		time.Sleep(5 * time.Millisecond)
		u.Receive('o', 'k')
	}()

	buf := make([]byte, 8)
	n, err := p.Read(buf)
	if err != nil || n == 0 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if buf[0] != 'o' {
		t.Fatalf("first byte %q", buf[0])
	}
}

func TestPort_ReadContextDeadline(t *testing.T) {
	_, e := newEnabled(t)
	p := pl011.NewPort(e)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	n, err := p.ReadContext(ctx, make([]byte, 4))
	if n != 0 || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("n=%d err=%v; want deadline", n, err)
	}
}

func TestPort_ReadReportsLineError(t *testing.T) {
	u, e := newEnabled(t)
	p := pl011.NewPort(e)
	u.Receive('a')
	u.ReceiveWithError('b', pl011.DR_BE)

	buf := make([]byte, 4)
	n, err := p.Read(buf)
	if n != 1 || !errors.Is(err, pl011.ErrBreak) {
		t.Fatalf("n=%d err=%v; want 1, break", n, err)
	}
}

func TestPort_WriteAndFlush(t *testing.T) {
	u, e := newEnabled(t)
	p := pl011.NewPort(e)
	stop := driveLine(u)
	defer stop()

	if _, err := fmt.Fprintf(p, "count=%d\r\n", 42); err != nil {
		t.Fatalf("Fprintf: %v", err)
	}
	n, err := p.Writev([]byte("a"), []byte("bc"))
	if err != nil || n != 3 {
		t.Fatalf("Writev n=%d err=%v", n, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.FlushContext(ctx); err != nil {
		t.Fatalf("FlushContext: %v", err)
	}
	if got := string(u.Wire()); got != "count=42\r\nabc" {
		t.Fatalf("wire = %q", got)
	}
}

func TestPort_FlushContextDeadline(t *testing.T) {
	u, e := newEnabled(t)
	p := pl011.NewPort(e)
	if err := p.WriteByte('x'); err != nil {
		t.Fatalf("WriteByte: %v", err)
	}
	u.Transmit(0) // shifter stays busy

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	if err := p.FlushContext(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v; want deadline", err)
	}
}

func TestPort_WriteContextStopsOnFullFIFO(t *testing.T) {
	_, e := newEnabled(t)
	p := pl011.NewPort(e)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	n, err := p.WriteContext(ctx, seq(pl011.FIFODepth+8))
	if n != pl011.FIFODepth || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("n=%d err=%v; want %d, deadline", n, err, pl011.FIFODepth)
	}
}

func TestPort_Buffered(t *testing.T) {
	u, e := newEnabled(t)
	p := pl011.NewPort(e)

	if got := p.Buffered(); got != 0 {
		t.Fatalf("empty: %d", got)
	}
	u.Receive('1', '2', '3')
	if got := p.Buffered(); got != 1 {
		t.Fatalf("partial: %d; want lower bound 1", got)
	}
	u.Receive(seq(pl011.FIFODepth)...)
	if got := p.Buffered(); got != pl011.FIFODepth {
		t.Fatalf("full: %d", got)
	}
}

func TestPort_HalvesAreOneWay(t *testing.T) {
	_, e := newEnabled(t)
	baud := e.EffectiveBaudRate()
	r, w := e.Split()
	rp := pl011.NewReaderPort(r)
	wp := pl011.NewWriterPort(w, baud)

	if _, err := rp.Write([]byte("x")); !errors.Is(err, errors.ErrUnsupported) {
		t.Fatalf("reader port Write: %v", err)
	}
	if err := rp.Flush(); !errors.Is(err, errors.ErrUnsupported) {
		t.Fatalf("reader port Flush: %v", err)
	}
	if _, err := wp.Read(make([]byte, 1)); !errors.Is(err, errors.ErrUnsupported) {
		t.Fatalf("writer port Read: %v", err)
	}
	if wp.Buffered() != 0 {
		t.Fatal("writer port reports buffered input")
	}
	if _, err := wp.Write([]byte("ok")); err != nil {
		t.Fatalf("writer port Write: %v", err)
	}
}

// roundTrip writes msg and reads it back using only the drivers.UART
// contract.
func roundTrip(u drivers.UART, msg []byte) ([]byte, error) {
	if _, err := u.Write(msg); err != nil {
		return nil, err
	}
	got := make([]byte, 0, len(msg))
	buf := make([]byte, 8)
	for len(got) < len(msg) {
		n, err := u.Read(buf[:min(len(buf), len(msg)-len(got))])
		if err != nil {
			return got, err
		}
		got = append(got, buf[:n]...)
	}
	return got, nil
}

func TestPort_ServesAsDriversUART(t *testing.T) {
	u, e := newEnabled(t)
	u.SetControl(u.Control() | pl011.CR_LBE)

	var line drivers.UART = pl011.NewPort(e)
	if n := line.Buffered(); n != 0 {
		t.Fatalf("Buffered before traffic = %d; want 0", n)
	}

	stop := driveLine(u)
	defer stop()

	msg := []byte("drivers.UART round trip")
	got, err := roundTrip(line, msg)
	if err != nil {
		t.Fatalf("roundTrip: %v", err)
	}
	if string(got) != string(msg) {
		t.Fatalf("got %q; want %q", got, msg)
	}
	if n := line.Buffered(); n != 0 {
		t.Fatalf("Buffered after drain = %d; want 0", n)
	}
}
