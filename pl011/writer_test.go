package pl011_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/jangala-dev/tinygo-pl011/pl011"
)

func seq(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*7 + 3)
	}
	return b
}

func TestWriteRaw_PartialProgressIsSuccess(t *testing.T) {
	u, e := newEnabled(t)

	// Leave 10 free slots.
	if rest, err := e.WriteRaw(seq(pl011.FIFODepth - 10)); err != nil || len(rest) != 0 {
		t.Fatalf("prefill: rest=%d err=%v", len(rest), err)
	}

	data := seq(25)
	rest, err := e.WriteRaw(data)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(rest) != 15 || !bytes.Equal(rest, data[10:]) {
		t.Fatalf("rest = %d bytes; want the last 15", len(rest))
	}
	if u.TxQueued() != pl011.FIFODepth {
		t.Fatalf("TX FIFO holds %d; want %d", u.TxQueued(), pl011.FIFODepth)
	}
}

func TestWriteRaw_FullFIFOWouldBlock(t *testing.T) {
	_, e := newEnabled(t)
	e.WriteFullBlocking(seq(pl011.FIFODepth))

	data := []byte("x")
	rest, err := e.WriteRaw(data)
	if !errors.Is(err, pl011.ErrWouldBlock) {
		t.Fatalf("err = %v; want ErrWouldBlock", err)
	}
	if len(rest) != 1 {
		t.Fatalf("rest = %q; want the whole input back", rest)
	}
	if err := e.WriteByte('y'); !errors.Is(err, pl011.ErrWouldBlock) {
		t.Fatalf("WriteByte err = %v; want ErrWouldBlock", err)
	}
}

func TestWriteRaw_Empty(t *testing.T) {
	_, e := newEnabled(t)
	rest, err := e.WriteRaw(nil)
	if err != nil || len(rest) != 0 {
		t.Fatalf("rest=%v err=%v; want empty, nil", rest, err)
	}
}

func TestWriteFullBlocking_SpinsUntilDrained(t *testing.T) {
	u, e := newEnabled(t)
	stop := driveLine(u)
	defer stop()

	data := seq(500)
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.WriteFullBlocking(data)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for WriteFullBlocking")
	}

	deadline := time.Now().Add(time.Second)
	for e.TransmitFlushed() != nil {
		if time.Now().After(deadline) {
			t.Fatal("transmitter never went idle")
		}
		time.Sleep(time.Millisecond)
	}
	if got := u.Wire(); !bytes.Equal(got, data) {
		t.Fatalf("wire carried %d bytes; want %d in order", len(got), len(data))
	}
}

func TestTransmitFlushed_WaitsForShifter(t *testing.T) {
	u, e := newEnabled(t)
	if err := e.TransmitFlushed(); err != nil {
		t.Fatalf("idle transmitter: %v", err)
	}

	if err := e.WriteByte('A'); err != nil {
		t.Fatalf("WriteByte: %v", err)
	}
	if err := e.Flush(); !errors.Is(err, pl011.ErrWouldBlock) {
		t.Fatalf("queued byte: err=%v; want ErrWouldBlock", err)
	}

	// FIFO empty but the last character is still being shifted out.
	u.Transmit(0)
	if err := e.TransmitFlushed(); !errors.Is(err, pl011.ErrWouldBlock) {
		t.Fatalf("shifting: err=%v; want ErrWouldBlock", err)
	}

	u.Complete()
	if err := e.TransmitFlushed(); err != nil {
		t.Fatalf("after completion: %v", err)
	}
	if got := string(u.Wire()); got != "A" {
		t.Fatalf("wire = %q", got)
	}
}

func TestWriteString(t *testing.T) {
	u, e := newEnabled(t)
	n, err := e.WriteString("hello\r\n")
	if err != nil || n != 7 {
		t.Fatalf("n=%d err=%v", n, err)
	}
	if got := string(u.Transmit(0)); got != "hello\r\n" {
		t.Fatalf("transmitted %q", got)
	}
}
