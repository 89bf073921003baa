// Package spi drives an SPI peripheral in synchronous, blocking mode.
//
// A Device owns one hardware instance. Begin/BeginSlave/End manage the
// peripheral lifecycle; Read, Write and Transfer exchange bytes by polling
// the status register. None of the data-path operations time out: a caller
// waiting for bytes that never arrive blocks forever. That is a property
// of the blocking design, bound it externally if it matters.
package spi

import (
	"tinygo.org/x/drivers"

	"maplebus-go/errcode"
	"maplebus-go/rcc"
)

// Role selects master or slave operation.
type Role uint8

const (
	RoleMaster Role = iota
	RoleSlave
)

// BitOrder selects the frame bit order.
type BitOrder uint8

const (
	MSBFirst BitOrder = iota
	LSBFirst
)

// Mode is the SPI clock mode: CPOL is the high bit, CPHA the low bit.
type Mode uint8

const (
	Mode0 Mode = iota
	Mode1
	Mode2
	Mode3
)

// PinConfigurator resolves a bus to its NSS/SCK/MISO/MOSI pin set and
// programs each pin's electrical mode for the given role, releasing any
// conflicting PWM mapping first.
type PinConfigurator interface {
	ConfigureSPI(bus int, role Role) error
}

// Hardware bundles the collaborators one Device is wired to.
type Hardware struct {
	Regs  RegisterBlock
	Clock rcc.ClockID
	Ctrl  rcc.Controller
	Pins  PinConfigurator
}

// Device is one SPI peripheral instance. Instances are created once at
// startup and never copied; no concurrent access to a single instance is
// supported.
type Device struct {
	bus  int
	regs RegisterBlock
	clk  rcc.ClockID
	ctrl rcc.Controller
	pins PinConfigurator
}

var _ drivers.SPI = (*Device)(nil)

// New wires a Device to hardware bus number n (1, 2, or 3 on high-density
// parts). An unknown bus number is a configuration error.
func New(n int, hw Hardware) (*Device, error) {
	if n < 1 || n > 3 {
		return nil, errcode.New(errcode.UnknownBus, "spi.New")
	}
	return &Device{bus: n, regs: hw.Regs, clk: hw.Clock, ctrl: hw.Ctrl, pins: hw.Pins}, nil
}

// Bus returns the hardware bus number.
func (d *Device) Bus() int { return d.bus }

// Enabled reports whether the peripheral is currently enabled.
func (d *Device) Enabled() bool { return d.regs.ReadCR1()&CR1SPE != 0 }

// Begin configures the peripheral as bus master and enables it: baud
// divider for the requested tier, 8-bit frames in the given bit order,
// software slave select, pins programmed through the adapter. The mode is
// validated before any hardware state is touched.
func (d *Device) Begin(freq Frequency, order BitOrder, mode Mode) error {
	if mode > Mode3 {
		return errcode.New(errcode.InvalidMode, "spi.Begin")
	}
	br, err := baudRateFor(rcc.DomainOf(d.clk), freq)
	if err != nil {
		return err
	}
	return d.enable(RoleMaster, br, order, mode)
}

// BeginDefault is Begin(Freq1_125MHz, MSBFirst, Mode0).
func (d *Device) BeginDefault() error {
	return d.Begin(Freq1_125MHz, MSBFirst, Mode0)
}

// BeginSlave configures and enables the peripheral in slave mode. No baud
// divider is programmed: timing comes from the external clock line.
func (d *Device) BeginSlave(order BitOrder, mode Mode) error {
	if mode > Mode3 {
		return errcode.New(errcode.InvalidMode, "spi.BeginSlave")
	}
	return d.enable(RoleSlave, 0, order, mode)
}

// BeginSlaveDefault is BeginSlave(MSBFirst, Mode0).
func (d *Device) BeginSlaveDefault() error {
	return d.BeginSlave(MSBFirst, Mode0)
}

func (d *Device) enable(role Role, br uint32, order BitOrder, mode Mode) error {
	d.ctrl.EnableClock(d.clk)
	d.ctrl.Reset(d.clk)
	if err := d.pins.ConfigureSPI(d.bus, role); err != nil {
		return err
	}

	cr1 := uint32(mode) & (CR1CPHA | CR1CPOL)
	cr1 |= CR1SSM // software slave management, 8-bit frames (DFF clear)
	if order == LSBFirst {
		cr1 |= CR1LSBFirst
	}
	if role == RoleMaster {
		cr1 |= CR1MSTR | CR1SSI | br<<CR1BRShift&CR1BRMask
	}
	d.regs.WriteCR1(cr1 | CR1SPE)
	return nil
}

// End gracefully disables the peripheral. The ordering is mandatory:
// drain any unread received byte, wait for the transmit buffer to empty,
// wait until the peripheral reports not-busy, then disable. Disabling
// mid-frame leaves the bus in an undefined electrical state. End is
// idempotent and never blocks on an already-disabled device.
func (d *Device) End() {
	if !d.Enabled() {
		return
	}
	for d.regs.ReadSR()&SRRXNE != 0 {
		_ = d.regs.ReadDR()
	}
	for d.regs.ReadSR()&SRTXE == 0 {
	}
	for d.regs.ReadSR()&SRBSY != 0 {
	}
	d.regs.WriteCR1(d.regs.ReadCR1() &^ CR1SPE)
}

// ReadByte blocks until one received byte is available and consumes it.
func (d *Device) ReadByte() byte {
	for d.regs.ReadSR()&SRRXNE == 0 {
	}
	return byte(d.regs.ReadDR())
}

// Read blocks until len(buf) bytes have been received.
func (d *Device) Read(buf []byte) {
	for i := range buf {
		buf[i] = d.ReadByte()
	}
}

// tx hands off as many bytes as the transmit path will take right now and
// returns how many were accepted. May accept fewer than len(data).
func (d *Device) tx(data []byte) int {
	n := 0
	for n < len(data) && d.regs.ReadSR()&SRTXE != 0 {
		d.regs.WriteDR(uint32(data[n]))
		n++
	}
	return n
}

// Write blocks until every byte has been handed to the transmit path.
func (d *Device) Write(data []byte) {
	txed := 0
	for txed < len(data) {
		txed += d.tx(data[txed:])
	}
}

// WriteByte writes a single byte.
func (d *Device) WriteByte(b byte) {
	var buf [1]byte
	buf[0] = b
	d.Write(buf[:])
}

// Transfer writes one byte and returns the byte clocked in at the same
// time. SPI shifts a byte in for every byte shifted out, so the read
// always follows the write. The error is always nil; the signature
// matches drivers.SPI.
func (d *Device) Transfer(b byte) (byte, error) {
	d.WriteByte(b)
	return d.ReadByte(), nil
}

// Tx clocks max(len(w), len(r)) full-duplex frames: w bytes are sent
// (padded with zeros past its end) and received bytes are stored into r
// (discarded past its end). Implements drivers.SPI.
func (d *Device) Tx(w, r []byte) error {
	n := len(w)
	if len(r) > n {
		n = len(r)
	}
	for i := 0; i < n; i++ {
		var out byte
		if i < len(w) {
			out = w[i]
		}
		in, _ := d.Transfer(out)
		if i < len(r) {
			r[i] = in
		}
	}
	return nil
}
