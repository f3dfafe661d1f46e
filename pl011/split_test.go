package pl011_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/jangala-dev/tinygo-pl011/pl011"
	"github.com/jangala-dev/tinygo-pl011/pl011/sim"
)

func TestSplitJoin_PreservesIdentity(t *testing.T) {
	u := sim.New()
	cfg := pl011.Config{BaudRate: 57600, DataBits: pl011.DataBits7, StopBits: pl011.StopBits2, Parity: pl011.ParityOdd}
	e, err := pl011.New(u, pl011.RoleTX|pl011.RoleRX).Enable(cfg, refClock)
	if err != nil {
		t.Fatalf("Enable: %v", err)
	}
	baud := e.EffectiveBaudRate()
	regs := u.Registers()

	r, w := e.Split()
	if r.Config() != cfg || r.EffectiveBaudRate() != baud {
		t.Fatalf("reader: cfg=%v baud=%d", r.Config(), r.EffectiveBaudRate())
	}

	j := pl011.Join(r, w)
	if j.Config() != cfg || j.EffectiveBaudRate() != baud {
		t.Fatalf("joined: cfg=%v baud=%d; want %v %d", j.Config(), j.EffectiveBaudRate(), cfg, baud)
	}
	if got := u.Registers(); got != regs {
		t.Fatalf("split/join touched registers: %+v -> %+v", regs, got)
	}

	dev, pins := j.Free()
	if dev != u || pins != pl011.RoleTX|pl011.RoleRX {
		t.Fatalf("Free returned %p/%v", dev, pins)
	}
}

func TestSplit_ConsumesEnabled(t *testing.T) {
	_, e := newEnabled(t)
	r, w := e.Split()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on reuse of split peripheral")
		}
	}()
	_ = pl011.Join(r, w)
	_ = e.Disable()
}

func TestSplit_HalvesRunConcurrently(t *testing.T) {
	u, e := newEnabled(t)
	u.SetControl(u.Control() | pl011.CR_LBE)
	stop := driveLine(u)
	defer stop()

	r, w := e.Split()
	want := seq(1000)

	go w.WriteFullBlocking(want)

	got := make([]byte, len(want))
	done := make(chan error, 1)
	go func() { done <- r.ReadFullBlocking(got) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("reader: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for loopback data")
	}
	if !bytes.Equal(got, want) {
		t.Fatal("loopback data mismatch")
	}
}

func TestWriter_AfterJoinIsEmpty(t *testing.T) {
	_, e := newEnabled(t)
	r, w := e.Split()
	j := pl011.Join(r, w)
	if *w != (pl011.Writer{}) {
		t.Fatal("writer half still holds the device after Join")
	}
	if err := j.WriteByte('k'); err != nil {
		t.Fatalf("joined WriteByte: %v", err)
	}
}

func TestSplit_HalvesPanicAfterJoin(t *testing.T) {
	_, e := newEnabled(t)
	r, w := e.Split()
	pl011.Join(r, w)

	mustPanicConsumed(t, "Reader.ReadRaw", func() { r.ReadRaw(make([]byte, 1)) })
	mustPanicConsumed(t, "Reader.ReadByte", func() { r.ReadByte() })
	mustPanicConsumed(t, "Writer.WriteByte", func() { w.WriteByte('x') })
	mustPanicConsumed(t, "Writer.WriteRaw", func() { w.WriteRaw([]byte("x")) })
	mustPanicConsumed(t, "NewWriterPort", func() { pl011.NewWriterPort(w, 9600) })
}
