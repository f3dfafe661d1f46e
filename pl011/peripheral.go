package pl011

// handle is the state shared by every lifecycle type. Transitions move it
// from one typed wrapper to the next and zero the old wrapper.
type handle[D Device, P Pins] struct {
	dev   D
	pins  P
	cfg   Config
	baud  uint32
	stats *Stats
	live  bool
}

const errConsumed = "pl011: use of a consumed peripheral handle"

func (h *handle[D, P]) take() handle[D, P] {
	t := *h.use()
	*h = handle[D, P]{}
	return t
}

// use returns h, or panics if a transition has already moved it out.
func (h *handle[D, P]) use() *handle[D, P] {
	if !h.live {
		panic(errConsumed)
	}
	return h
}

// Disabled is a peripheral that has been reset but not configured. It has
// no read or write methods.
type Disabled[D Device, P Pins] struct {
	h handle[D, P]
}

// Enabled is a configured, running peripheral.
type Enabled[D Device, P Pins] struct {
	h handle[D, P]
}

// New pulses the peripheral's reset line and returns it Disabled. The
// configuration is a placeholder until Enable and the effective baud rate
// is zero.
func New[D Device, P Pins](dev D, pins P) *Disabled[D, P] {
	dev.ResetBringDown()
	dev.ResetBringUp()
	return &Disabled[D, P]{h: handle[D, P]{
		dev:   dev,
		pins:  pins,
		cfg:   Config9600_8N1,
		stats: &Stats{},
		live:  true,
	}}
}

// Enable programs the baud divisors, frame format, control and DMA
// registers from cfg and a reference clock of freq Hz, and returns the
// Enabled peripheral. d must not be used afterwards.
//
// If cfg cannot be represented the error wraps ErrBadArgument, nothing is
// written to the device, and d remains a valid Disabled peripheral.
func (d *Disabled[D, P]) Enable(cfg Config, freq uint32) (*Enabled[D, P], error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	ibrd, fbrd, err := CalculateDividers(cfg.BaudRate, freq)
	if err != nil {
		return nil, err
	}

	h := d.h.take()
	dev := h.dev

	dev.SetIntegerDivisor(ibrd)
	dev.SetFractionalDivisor(uint8(fbrd))
	// The PL011 only latches IBRD/FBRD on a UARTLCR_H write. Write back the
	// value it already holds.
	dev.SetLineControl(dev.LineControl())

	dev.SetLineControl(LCR_H_FEN | encodeFormat(cfg.DataBits, cfg.StopBits, cfg.Parity))

	roles := h.pins.Roles()
	cr := uint32(CR_UARTEN)
	if roles.Has(RoleTX) {
		cr |= CR_TXE
	}
	if roles.Has(RoleRX) {
		cr |= CR_RXE
	}
	if roles.Has(RoleCTS) {
		cr |= CR_CTSEN
	}
	if roles.Has(RoleRTS) {
		cr |= CR_RTSEN
	}
	dev.SetControl(cr)

	// DMA requests are inert unless a DMA channel is paced by them.
	dev.SetDMAControl(DMACR_TXDMAE | DMACR_RXDMAE)

	h.cfg = cfg
	h.baud = EffectiveBaudRate(freq, ibrd, fbrd)
	h.stats.onEnable()
	return &Enabled[D, P]{h: h}, nil
}

// Free releases the device and pins. d must not be used afterwards.
func (d *Disabled[D, P]) Free() (D, P) {
	h := d.h.take()
	return h.dev, h.pins
}

// Config returns the placeholder or last enabled configuration.
func (d *Disabled[D, P]) Config() Config { return d.h.use().cfg }

// EffectiveBaudRate returns the rate from the last Enable, or zero.
func (d *Disabled[D, P]) EffectiveBaudRate() uint32 { return d.h.use().baud }

// Disable turns off the UART, transmitter, receiver and flow control in a
// single UARTCR write and returns the Disabled peripheral. e must not be
// used afterwards.
func (e *Enabled[D, P]) Disable() *Disabled[D, P] {
	h := e.h.take()
	h.dev.SetControl(h.dev.Control() &^ (CR_UARTEN | CR_TXE | CR_RXE | CR_CTSEN | CR_RTSEN))
	h.stats.onDisable()
	return &Disabled[D, P]{h: h}
}

// Free releases the device and pins without disabling the UART. e must not
// be used afterwards.
func (e *Enabled[D, P]) Free() (D, P) {
	h := e.h.take()
	return h.dev, h.pins
}

// Config returns the configuration applied by Enable.
func (e *Enabled[D, P]) Config() Config { return e.h.use().cfg }

// EffectiveBaudRate returns the rate the programmed divisors produce, which
// can differ from Config().BaudRate by the divisor quantisation.
func (e *Enabled[D, P]) EffectiveBaudRate() uint32 { return e.h.use().baud }

// WriteRaw writes as many bytes as the TX FIFO accepts and returns the
// unwritten remainder. If the FIFO was full before the first byte it returns
// data unchanged and ErrWouldBlock; a partial write is a success.
func (e *Enabled[D, P]) WriteRaw(data []byte) ([]byte, error) {
	h := e.h.use()
	return writeRaw(h.dev, h.stats, data)
}

// WriteFullBlocking spins until every byte of data is in the TX FIFO.
func (e *Enabled[D, P]) WriteFullBlocking(data []byte) {
	h := e.h.use()
	writeFullBlocking(h.dev, h.stats, data)
}

// TransmitFlushed returns nil once all queued bytes are on the wire and
// ErrWouldBlock before that.
func (e *Enabled[D, P]) TransmitFlushed() error {
	h := e.h.use()
	return transmitFlushed(h.dev, h.stats)
}

// ReadRaw copies bytes from the RX FIFO into buf until the FIFO is empty or
// buf is full. See Reader.ReadRaw.
func (e *Enabled[D, P]) ReadRaw(buf []byte) (int, error) {
	h := e.h.use()
	return readRaw(h.dev, h.stats, buf)
}

// ReadFullBlocking spins until buf is full or a line error is seen.
func (e *Enabled[D, P]) ReadFullBlocking(buf []byte) error {
	h := e.h.use()
	return readFullBlocking(h.dev, h.stats, buf)
}

// ReadByte returns one byte, ErrWouldBlock, or the line error kind.
func (e *Enabled[D, P]) ReadByte() (byte, error) {
	h := e.h.use()
	return readByte(h.dev, h.stats)
}

// WriteByte queues one byte or returns ErrWouldBlock.
func (e *Enabled[D, P]) WriteByte(c byte) error {
	h := e.h.use()
	_, err := writeRaw(h.dev, h.stats, []byte{c})
	return err
}

// Flush returns ErrWouldBlock until the transmitter is idle.
func (e *Enabled[D, P]) Flush() error { return e.TransmitFlushed() }

// WriteString blocks until s is queued in the TX FIFO.
func (e *Enabled[D, P]) WriteString(s string) (int, error) {
	h := e.h.use()
	writeFullBlocking(h.dev, h.stats, []byte(s))
	return len(s), nil
}

// DebugStats returns the counters collected with the pl011debug tag.
func (e *Enabled[D, P]) DebugStats() Stats { return e.h.use().stats.snapshot() }

// DebugReset zeroes the counters.
func (e *Enabled[D, P]) DebugReset() { e.h.use().stats.reset() }

// DebugRegs snapshots the configuration registers (pl011debug only).
func (e *Enabled[D, P]) DebugRegs() Regs { return regsOf(e.h.use().dev) }
