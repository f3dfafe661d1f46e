//go:build !tinygo

// Package hostlink opens the PC end of a serial link to a PL011 with the
// same framing the device was enabled with.
package hostlink

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/shlex"
	"github.com/tarm/serial"

	"github.com/jangala-dev/tinygo-pl011/pl011"
)

// Link names a host serial port and the line configuration to use on it.
type Link struct {
	Port   string
	Config pl011.Config
}

func (l Link) String() string { return l.Port + " " + l.Config.String() }

// ParseLink reads a link description of the form
//
//	<port> [<baud> [<framing>]]
//
// where framing is data bits, parity letter and stop bits, e.g. "8N1" or
// "7E2". Words may be quoted as in a shell. Baud defaults to 115200 and
// framing to 8N1.
func ParseLink(s string) (Link, error) {
	words, err := shlex.Split(s)
	if err != nil {
		return Link{}, fmt.Errorf("%w: link %q: %v", pl011.ErrBadArgument, s, err)
	}
	if len(words) == 0 || len(words) > 3 {
		return Link{}, fmt.Errorf("%w: link %q: want <port> [<baud> [<framing>]]", pl011.ErrBadArgument, s)
	}

	l := Link{Port: words[0], Config: pl011.Config115200_8N1}
	if len(words) > 1 {
		baud, err := strconv.ParseUint(words[1], 10, 32)
		if err != nil || baud == 0 {
			return Link{}, fmt.Errorf("%w: baud rate %q", pl011.ErrBadArgument, words[1])
		}
		l.Config.BaudRate = uint32(baud)
	}
	if len(words) > 2 {
		db, p, sb, err := ParseFraming(words[2])
		if err != nil {
			return Link{}, err
		}
		l.Config.DataBits, l.Config.Parity, l.Config.StopBits = db, p, sb
	}
	return l, nil
}

// ParseFraming parses a three-character framing code such as "8N1".
func ParseFraming(s string) (pl011.DataBits, pl011.Parity, pl011.StopBits, error) {
	bad := fmt.Errorf("%w: framing %q", pl011.ErrBadArgument, s)
	if len(s) != 3 {
		return 0, 0, 0, bad
	}
	if s[0] < '5' || s[0] > '8' {
		return 0, 0, 0, bad
	}
	db := pl011.DataBits(s[0] - '0')

	var p pl011.Parity
	switch s[1] {
	case 'N', 'n':
		p = pl011.ParityNone
	case 'O', 'o':
		p = pl011.ParityOdd
	case 'E', 'e':
		p = pl011.ParityEven
	default:
		return 0, 0, 0, bad
	}

	var sb pl011.StopBits
	switch s[2] {
	case '1':
		sb = pl011.StopBits1
	case '2':
		sb = pl011.StopBits2
	default:
		return 0, 0, 0, bad
	}
	return db, p, sb, nil
}

// SerialConfig maps a Link to a tarm/serial configuration. A zero timeout
// makes reads block.
func SerialConfig(l Link, timeout time.Duration) *serial.Config {
	c := &serial.Config{
		Name:        l.Port,
		Baud:        int(l.Config.BaudRate),
		ReadTimeout: timeout,
		Size:        byte(l.Config.DataBits),
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
	}
	if c.Size == 0 {
		c.Size = 8
	}
	switch l.Config.Parity {
	case pl011.ParityOdd:
		c.Parity = serial.ParityOdd
	case pl011.ParityEven:
		c.Parity = serial.ParityEven
	}
	if l.Config.StopBits == pl011.StopBits2 {
		c.StopBits = serial.Stop2
	}
	return c
}

// Open opens the host side of l.
func Open(l Link, timeout time.Duration) (*serial.Port, error) {
	p, err := serial.OpenPort(SerialConfig(l, timeout))
	if err != nil {
		return nil, fmt.Errorf("hostlink: open %s: %w", l.Port, err)
	}
	return p, nil
}
