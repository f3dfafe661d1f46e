//go:build !tinygo

// pl011_divcalc prints the PL011 divisors and resulting line rate for a
// reference clock, and the register image Enable would program for a
// framing.
//
//	pl011_divcalc -freq 125000000 -framing 8N1 9600 115200 921600
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/jangala-dev/tinygo-pl011/hostlink"
	"github.com/jangala-dev/tinygo-pl011/pl011"
	"github.com/jangala-dev/tinygo-pl011/pl011/sim"
)

var defaultRates = []uint32{9600, 19200, 38400, 57600, 115200, 230400, 460800, 921600}

// clockHz is a flag.Value for a reference clock. It rejects values that do
// not fit the 32-bit frequency Enable takes instead of truncating them.
type clockHz uint32

func (c *clockHz) String() string { return strconv.FormatUint(uint64(*c), 10) }

func (c *clockHz) Set(s string) error {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return fmt.Errorf("clock must be 0..%d Hz: %w", uint32(math.MaxUint32), err)
	}
	*c = clockHz(v)
	return nil
}

func main() {
	freq := clockHz(125_000_000)
	flag.Var(&freq, "freq", "UART reference clock in Hz")
	framing := flag.String("framing", "8N1", "data bits, parity and stop bits")
	regs := flag.Bool("regs", false, "also print LCR_H, CR and DMACR")
	flag.Parse()

	db, p, sb, err := hostlink.ParseFraming(*framing)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	rates := defaultRates
	if flag.NArg() > 0 {
		rates = rates[:0:0]
		for _, a := range flag.Args() {
			v, err := strconv.ParseUint(a, 10, 32)
			if err != nil {
				fmt.Fprintf(os.Stderr, "bad baud rate %q\n", a)
				os.Exit(2)
			}
			rates = append(rates, uint32(v))
		}
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "baud\tIBRD\tFBRD\teffective\terror ppm\t")
	if *regs {
		fmt.Fprint(tw, "LCR_H\tCR\tDMACR\t")
	}
	fmt.Fprintln(tw)

	status := 0
	for _, baud := range rates {
		cfg := pl011.Config{BaudRate: baud, DataBits: db, StopBits: sb, Parity: p}
		row, err := describe(cfg, uint32(freq), *regs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%d: %v\n", baud, err)
			status = 1
			continue
		}
		fmt.Fprintln(tw, row)
	}
	tw.Flush()
	os.Exit(status)
}

// describe enables a simulated PL011 with cfg and reads back what the
// driver programmed.
func describe(cfg pl011.Config, freq uint32, regs bool) (string, error) {
	u := sim.New()
	e, err := pl011.New(u, pl011.RoleTX|pl011.RoleRX).Enable(cfg, freq)
	if err != nil {
		return "", err
	}
	ibrd, fbrd := u.Latched()
	eff := e.EffectiveBaudRate()
	ppm := (int64(eff) - int64(cfg.BaudRate)) * 1_000_000 / int64(cfg.BaudRate)

	row := fmt.Sprintf("%d\t%d\t%d\t%d\t%+d\t", cfg.BaudRate, ibrd, fbrd, eff, ppm)
	if regs {
		r := u.Registers()
		row += fmt.Sprintf("%#04x\t%#06x\t%#x\t", r.LCRH, r.CR, r.DMACR)
	}
	return row, nil
}
