package pl011_test

import (
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/jangala-dev/tinygo-pl011/pl011"
	"github.com/jangala-dev/tinygo-pl011/pl011/sim"
)

const refClock = 125_000_000

type enabledSim = pl011.Enabled[*sim.UART, pl011.Role]

// newEnabled returns a simulated UART enabled at 115200 8N1 with TX and RX.
func newEnabled(t *testing.T) (*sim.UART, *enabledSim) {
	t.Helper()
	u := sim.New()
	e, err := pl011.New(u, pl011.RoleTX|pl011.RoleRX).Enable(pl011.Config115200_8N1, refClock)
	if err != nil {
		t.Fatalf("Enable: %v", err)
	}
	return u, e
}

// driveLine plays the far end of the wire: it shifts out whatever is queued
// and, with loopback set, never lets the RX FIFO overflow. The returned
// function stops it.
func driveLine(u *sim.UART) func() {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			if room := pl011.FIFODepth - u.RxQueued(); room > 0 {
				u.Transmit(room)
			}
			u.Complete()
			runtime.Gosched()
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}

// mustPanicConsumed fails t unless fn panics with the consumed-handle message.
func mustPanicConsumed(t *testing.T, what string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if s, _ := r.(string); !strings.Contains(s, "consumed peripheral handle") {
			t.Fatalf("%s: recovered %v; want the consumed-handle panic", what, r)
		}
	}()
	fn()
}
