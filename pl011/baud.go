package pl011

import (
	"fmt"

	"github.com/jangala-dev/tinygo-pl011/internal/mathx"
)

// CalculateDividers returns the integer and fractional baud divisors that
// approximate baud from a reference clock of freq Hz.
//
// The PL011 divides UARTCLK by 16*(IBRD + FBRD/64). Working in 1/128ths of
// the divisor and rounding gives FBRD to the nearest 1/64. The integer part
// is clamped to [1, 65535]; at the upper clamp FBRD is forced to zero.
func CalculateDividers(baud, freq uint32) (ibrd, fbrd uint16, err error) {
	f8, ok := mathx.CheckedMul(freq, 8)
	if !ok {
		return 0, 0, fmt.Errorf("%w: reference frequency %d Hz overflows divider", ErrBadArgument, freq)
	}
	div, ok := mathx.CheckedDiv(f8, baud)
	if !ok {
		return 0, 0, fmt.Errorf("%w: zero baud rate", ErrBadArgument)
	}

	intPart := div >> 7
	fracPart := ((div & 0x7f) + 1) / 2
	if fracPart > FBRD_Max {
		// 127/128 rounds up to a whole step; FBRD is only six bits wide.
		intPart++
		fracPart = 0
	}
	switch {
	case intPart == 0:
		return 1, 0, nil
	case intPart >= IBRD_Max:
		return IBRD_Max, 0, nil
	default:
		return uint16(intPart), uint16(fracPart), nil
	}
}

// EffectiveBaudRate returns the rate produced by the given divisors from a
// reference clock of freq Hz, truncated to an integer. freq must satisfy the
// same bound CalculateDividers checks.
func EffectiveBaudRate(freq uint32, ibrd, fbrd uint16) uint32 {
	return (4 * freq) / (64*uint32(ibrd) + uint32(fbrd))
}
