// Package pl011 drives an ARM PL011 (PrimeCell) UART through an abstract
// register block.
//
// A peripheral starts Disabled after a reset pulse, becomes Enabled once a
// baud rate and frame format have been programmed, and may be split into a
// Reader and a Writer that are driven independently. The lifecycle state is
// carried by the handle's type: only Enabled, Reader and Writer have the
// read/write methods.
//
// All FIFO operations are non-blocking polls that report ErrWouldBlock when
// no progress is possible. The *FullBlocking variants spin on those polls
// with no timeout; use Port for context-aware blocking.
package pl011

import (
	"errors"
	"fmt"
)

var (
	// ErrBadArgument reports a configuration the hardware cannot represent,
	// such as a zero baud rate or a reference frequency that overflows the
	// divider computation.
	ErrBadArgument = errors.New("pl011: bad argument")

	// ErrWouldBlock reports that no progress was possible right now.
	ErrWouldBlock = errors.New("pl011: would block")
)

// DataBits is the number of data bits per character.
type DataBits uint8

const (
	DataBits5 DataBits = 5
	DataBits6 DataBits = 6
	DataBits7 DataBits = 7
	DataBits8 DataBits = 8
)

// StopBits is the number of stop bits per character.
type StopBits uint8

const (
	StopBits1 StopBits = 1
	StopBits2 StopBits = 2
)

// Parity defines the parity setting used for UART communication.
type Parity uint8

const (
	// ParityNone disables parity generation and checking.
	ParityNone Parity = iota
	// ParityOdd sets odd parity (total number of 1 bits is odd).
	ParityOdd
	// ParityEven sets even parity (total number of 1 bits is even).
	ParityEven
)

func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "N"
	case ParityOdd:
		return "O"
	case ParityEven:
		return "E"
	}
	return "?"
}

// Config is the line configuration applied by Enable. Zero DataBits and
// StopBits select 8 and 1.
type Config struct {
	BaudRate uint32
	DataBits DataBits
	StopBits StopBits
	Parity   Parity
}

// Common configurations.
var (
	Config9600_8N1   = Config{BaudRate: 9600, DataBits: DataBits8, StopBits: StopBits1, Parity: ParityNone}
	Config19200_8N1  = Config{BaudRate: 19200, DataBits: DataBits8, StopBits: StopBits1, Parity: ParityNone}
	Config38400_8N1  = Config{BaudRate: 38400, DataBits: DataBits8, StopBits: StopBits1, Parity: ParityNone}
	Config57600_8N1  = Config{BaudRate: 57600, DataBits: DataBits8, StopBits: StopBits1, Parity: ParityNone}
	Config115200_8N1 = Config{BaudRate: 115200, DataBits: DataBits8, StopBits: StopBits1, Parity: ParityNone}
)

// String renders the configuration as "<baud> <data><parity><stop>", e.g.
// "9600 8N1".
func (c Config) String() string {
	c = c.withDefaults()
	return fmt.Sprintf("%d %d%s%d", c.BaudRate, c.DataBits, c.Parity, c.StopBits)
}

func (c Config) withDefaults() Config {
	if c.DataBits == 0 {
		c.DataBits = DataBits8
	}
	if c.StopBits == 0 {
		c.StopBits = StopBits1
	}
	return c
}

func (c Config) validate() error {
	if c.DataBits < DataBits5 || c.DataBits > DataBits8 {
		return fmt.Errorf("%w: %d data bits", ErrBadArgument, c.DataBits)
	}
	if c.StopBits != StopBits1 && c.StopBits != StopBits2 {
		return fmt.Errorf("%w: %d stop bits", ErrBadArgument, c.StopBits)
	}
	if c.Parity > ParityEven {
		return fmt.Errorf("%w: parity %d", ErrBadArgument, c.Parity)
	}
	return nil
}
