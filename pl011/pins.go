package pl011

import "fmt"

// Role is a set of UART signals physically wired to a peripheral.
type Role uint8

const (
	RoleTX Role = 1 << iota
	RoleRX
	RoleCTS
	RoleRTS
)

// Has reports whether every signal in q is present in r.
func (r Role) Has(q Role) bool { return r&q == q }

// Roles lets a bare Role act as a Pins value when no pin proof is needed
// (simulators, fixed board wiring).
func (r Role) Roles() Role { return r }

func (r Role) String() string {
	if r == 0 {
		return "none"
	}
	s := ""
	for _, n := range []struct {
		r    Role
		name string
	}{{RoleTX, "TX"}, {RoleRX, "RX"}, {RoleCTS, "CTS"}, {RoleRTS, "RTS"}} {
		if r.Has(n.r) {
			if s != "" {
				s += "|"
			}
			s += n.name
		}
	}
	return s
}

// Pins reports which UART signals a pin set carries. Enable only turns on
// the transmitter, receiver and flow-control inputs whose signal is present.
type Pins interface {
	Roles() Role
}

// GPIO is an RP2040/RP2350 bank-0 GPIO number.
type GPIO uint8

// NoGPIO marks an unused signal.
const NoGPIO GPIO = 0xFF

// uartFunc returns the UART instance and signal a GPIO carries in its UART
// function-select slot: GPIO 0-3 and 12-19 and 28-29 belong to UART0, the
// rest to UART1, and the low two bits pick TX, RX, CTS, RTS.
func uartFunc(g GPIO) (index uint8, role Role, ok bool) {
	if g > 29 {
		return 0, 0, false
	}
	index = uint8((g+4)>>3) & 1
	role = Role(1) << (g & 3)
	return index, role, true
}

// Pinout is a validated set of GPIOs for one UART instance.
type Pinout struct {
	index uint8
	roles Role

	TX, RX, CTS, RTS GPIO
}

// NewPinout checks that each used GPIO can carry its signal on UART index
// and returns the proof token. Pass NoGPIO for unused signals.
func NewPinout(index uint8, tx, rx, cts, rts GPIO) (Pinout, error) {
	p := Pinout{index: index, TX: tx, RX: rx, CTS: cts, RTS: rts}
	for _, s := range []struct {
		g    GPIO
		role Role
	}{{tx, RoleTX}, {rx, RoleRX}, {cts, RoleCTS}, {rts, RoleRTS}} {
		if s.g == NoGPIO {
			continue
		}
		idx, role, ok := uartFunc(s.g)
		if !ok || idx != index || role != s.role {
			return Pinout{}, fmt.Errorf("%w: GPIO%d cannot be UART%d %v", ErrBadArgument, s.g, index, s.role)
		}
		p.roles |= s.role
	}
	return p, nil
}

// Index returns the UART instance the pinout was validated for.
func (p Pinout) Index() uint8 { return p.index }

// Roles implements Pins.
func (p Pinout) Roles() Role { return p.roles }
