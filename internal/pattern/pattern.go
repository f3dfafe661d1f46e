// Package pattern generates the deterministic byte streams used by the
// integrity tools and checks received data against them. It avoids fmt so
// it stays small on the device.
package pattern

// Gen returns the byte at stream offset i.
type Gen func(i int) byte

// A and B are the two stream patterns, one per direction.
func A(i int) byte { return byte((i*31 + 0x55) & 0xFF) }
func B(i int) byte { return byte((i*17 + 0xA6) & 0xFF) }

// Fill writes gen(off), gen(off+1), ... into dst.
func Fill(dst []byte, gen Gen, off int) {
	for j := range dst {
		dst[j] = gen(off + j)
	}
}

// Checker verifies a stream chunk by chunk.
type Checker struct {
	gen  Gen
	off  int
	skip int
}

// NewChecker returns a Checker that discards the first skip bytes (a
// preamble) before comparing against gen.
func NewChecker(gen Gen, skip int) *Checker {
	return &Checker{gen: gen, skip: skip}
}

// Offset returns the number of stream bytes verified so far.
func (c *Checker) Offset() int { return c.off }

// Feed checks p. On the first mismatch it returns the absolute stream
// offset and the index into p, and stops advancing.
func (c *Checker) Feed(p []byte) (off, idx int, ok bool) {
	i := 0
	for ; i < len(p) && c.skip > 0; i++ {
		c.skip--
	}
	for ; i < len(p); i++ {
		if p[i] != c.gen(c.off) {
			return c.off, i, false
		}
		c.off++
	}
	return c.off, len(p), true
}

// Window returns the expected bytes in [off-radius, off+radius] clipped at
// zero, and the offset of the first one.
func Window(gen Gen, off, radius int) (start int, exp []byte) {
	start = off - radius
	if start < 0 {
		start = 0
	}
	exp = make([]byte, off+radius+1-start)
	Fill(exp, gen, start)
	return start, exp
}

const hexdigits = "0123456789ABCDEF"

// Hex renders b as space-separated upper-case hex, bracketing the byte at
// pivot (pass -1 for none).
func Hex(b []byte, pivot int) string {
	out := make([]byte, 0, len(b)*4)
	for i, v := range b {
		if i == pivot {
			out = append(out, '[')
		} else {
			out = append(out, ' ')
		}
		out = append(out, hexdigits[v>>4], hexdigits[v&0xF])
		if i == pivot {
			out = append(out, ']')
		}
	}
	return string(out)
}
