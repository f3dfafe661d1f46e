package pl011_test

import (
	"errors"
	"testing"
	"time"

	"github.com/jangala-dev/tinygo-pl011/pl011"
)

func TestReadRaw_EmptyWouldBlock(t *testing.T) {
	_, e := newEnabled(t)
	n, err := e.ReadRaw(make([]byte, 8))
	if n != 0 || !errors.Is(err, pl011.ErrWouldBlock) {
		t.Fatalf("n=%d err=%v; want 0, ErrWouldBlock", n, err)
	}
}

func TestReadRaw_EmptyBufferReportsReadability(t *testing.T) {
	u, e := newEnabled(t)
	if n, err := e.ReadRaw(nil); n != 0 || !errors.Is(err, pl011.ErrWouldBlock) {
		t.Fatalf("empty FIFO: n=%d err=%v; want 0, ErrWouldBlock", n, err)
	}

	u.Receive('z')
	if n, err := e.ReadRaw(nil); n != 0 || err != nil {
		t.Fatalf("data waiting: n=%d err=%v; want 0, nil", n, err)
	}
	if got := u.RxQueued(); got != 1 {
		t.Fatalf("zero-length read consumed data: %d queued; want 1", got)
	}
	if c, err := e.ReadByte(); err != nil || c != 'z' {
		t.Fatalf("ReadByte = %q, %v; want 'z'", c, err)
	}
}

func TestReadRaw_ReadsWhatIsAvailable(t *testing.T) {
	u, e := newEnabled(t)
	u.Receive([]byte("hello")...)

	buf := make([]byte, 8)
	n, err := e.ReadRaw(buf)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if n != 5 || string(buf[:n]) != "hello" {
		t.Fatalf("got n=%d data=%q; want 5, \"hello\"", n, buf[:n])
	}
	if _, err := e.ReadRaw(buf); !errors.Is(err, pl011.ErrWouldBlock) {
		t.Fatalf("expected empty after drain, got err=%v", err)
	}
}

func TestReadRaw_StopsAtBufferEnd(t *testing.T) {
	u, e := newEnabled(t)
	u.Receive([]byte("0123456789")...)

	buf := make([]byte, 4)
	var got []byte
	for _, want := range []int{4, 4, 2} {
		n, err := e.ReadRaw(buf)
		if err != nil || n != want {
			t.Fatalf("n=%d err=%v; want %d, nil", n, err, want)
		}
		got = append(got, buf[:n]...)
	}
	if string(got) != "0123456789" {
		t.Fatalf("got %q", got)
	}
}

func TestReadRaw_StopsAtFlaggedByte(t *testing.T) {
	u, e := newEnabled(t)
	u.Receive('a', 'b')
	u.ReceiveWithError('x', pl011.DR_PE)
	u.Receive('c')

	buf := make([]byte, 8)
	n, err := e.ReadRaw(buf)
	if n != 2 {
		t.Fatalf("n = %d; want 2", n)
	}
	var re *pl011.ReadError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v; want *ReadError", err)
	}
	if re.Kind != pl011.ErrParity || re.N != 2 || string(re.Buffer) != "ab" {
		t.Fatalf("ReadError = %+v", re)
	}
	if !errors.Is(err, pl011.ErrParity) {
		t.Fatal("errors.Is(err, ErrParity) = false")
	}

	// The flagged byte is gone; reading resumes after it.
	n, err = e.ReadRaw(buf)
	if err != nil || n != 1 || buf[0] != 'c' {
		t.Fatalf("resume: n=%d err=%v data=%q", n, err, buf[:n])
	}
}

func TestReadRaw_ErrorOnFirstByte(t *testing.T) {
	u, e := newEnabled(t)
	u.ReceiveWithError(0, pl011.DR_BE|pl011.DR_FE)

	n, err := e.ReadRaw(make([]byte, 4))
	if n != 0 || errors.Is(err, pl011.ErrWouldBlock) {
		t.Fatalf("n=%d err=%v; want a line error, not would-block", n, err)
	}
	if !errors.Is(err, pl011.ErrFraming) {
		t.Fatalf("err = %v; want framing to take precedence", err)
	}
}

func TestReadRaw_KindPrecedence(t *testing.T) {
	cases := []struct {
		flags uint32
		want  pl011.ReadErrorKind
	}{
		{pl011.DR_FE | pl011.DR_OE, pl011.ErrFraming},
		{pl011.DR_PE | pl011.DR_BE, pl011.ErrParity},
		{pl011.DR_BE | pl011.DR_OE, pl011.ErrBreak},
		{pl011.DR_OE, pl011.ErrOverrun},
	}
	for _, c := range cases {
		u, e := newEnabled(t)
		u.ReceiveWithError('?', c.flags)
		if _, err := e.ReadByte(); err != c.want {
			t.Fatalf("flags %#x: err=%v; want %v", c.flags, err, c.want)
		}
	}
}

func TestReadRaw_OverrunMarksNextCharacter(t *testing.T) {
	u, e := newEnabled(t)
	u.Receive(make([]byte, pl011.FIFODepth+1)...) // one more than fits

	buf := make([]byte, 64)
	if n, err := e.ReadRaw(buf); err != nil || n != pl011.FIFODepth {
		t.Fatalf("n=%d err=%v; want %d, nil", n, err, pl011.FIFODepth)
	}

	u.Receive('z')
	_, err := e.ReadRaw(buf)
	if !errors.Is(err, pl011.ErrOverrun) {
		t.Fatalf("err = %v; want overrun", err)
	}
}

func TestReadFullBlocking_AccumulatesAcrossPolls(t *testing.T) {
	u, e := newEnabled(t)
	want := []byte("HELLO!")

	go func() {
		for i := range want {
			u.Receive(want[i])
			time.Sleep(2 * time.Millisecond)
		}
	}()

	got := make([]byte, len(want))
	done := make(chan error, 1)
	go func() { done <- e.ReadFullBlocking(got) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for ReadFullBlocking")
	}
	if string(got) != string(want) {
		t.Fatalf("got %q; want %q", got, want)
	}
}

func TestReadFullBlocking_ReturnsLineErrorImmediately(t *testing.T) {
	u, e := newEnabled(t)
	u.Receive('a')
	go func() {
		time.Sleep(5 * time.Millisecond)
		u.Receive('b')
		u.ReceiveWithError('!', pl011.DR_FE)
		u.Receive('c', 'd')
	}()

	buf := make([]byte, 4)
	err := e.ReadFullBlocking(buf)
	var re *pl011.ReadError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v; want *ReadError", err)
	}
	if re.Kind != pl011.ErrFraming || re.N != 2 || string(re.Buffer) != "ab" {
		t.Fatalf("ReadError = %+v; want framing after \"ab\"", re)
	}
}

func TestReadByte(t *testing.T) {
	u, e := newEnabled(t)
	if _, err := e.ReadByte(); !errors.Is(err, pl011.ErrWouldBlock) {
		t.Fatalf("empty: err=%v", err)
	}
	u.Receive('Q')
	if b, err := e.ReadByte(); err != nil || b != 'Q' {
		t.Fatalf("got %q err=%v", b, err)
	}
}
