// Package at24cxx provides a driver for AT24C-series I2C EEPROMs.
// Reads are a single address-then-read transaction; writes are split on
// page boundaries and each page write is followed by acknowledge polling
// until the internal write cycle finishes.
//
// NOTE: I2C.Tx MUST perform a write followed by a repeated-start read when
// both w and r are provided, without releasing the bus.
package at24cxx

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"
)

// I2C address.
const Address = 0x50

// Errors returned by the driver.
var (
	ErrTimeout     = errors.New("at24cxx: write cycle timeout")
	ErrOutOfRange  = errors.New("at24cxx: address out of range")
	ErrEmptyBuffer = errors.New("at24cxx: empty buffer")
)

// Config describes the EEPROM geometry and write-cycle behaviour. All
// fields are optional.
type Config struct {
	// Address defaults to 0x50 if zero.
	Address uint16
	// Size is the capacity in bytes. Default 8192 (AT24C64).
	Size uint16
	// PageSize is the write page in bytes. Default 32.
	PageSize uint16
	// PollInterval is used between acknowledge-polling attempts while the
	// device finishes a write cycle. Default 1 ms.
	PollInterval time.Duration
	// WriteTimeout bounds acknowledge polling per page. Default 10 ms;
	// datasheet write cycles are 5 ms.
	WriteTimeout time.Duration
}

// Device wraps an I2C connection to an AT24Cxx device.
type Device struct {
	bus     drivers.I2C
	Address uint16

	cfg Config
	buf [34]byte // 2 address bytes + one page
}

// New creates a new AT24Cxx connection. The I2C bus must already be
// configured. This function only creates the Device object; it does not
// touch the device.
func New(bus drivers.I2C) Device {
	return Device{
		bus:     bus,
		Address: Address,
	}
}

// Configure applies optional geometry config. It may be called with no cfg.
func (d *Device) Configure(cfgs ...Config) {
	c := Config{}
	if len(cfgs) > 0 {
		c = cfgs[0]
	}
	if c.Address != 0 {
		d.Address = c.Address
	}
	if c.Size == 0 {
		c.Size = 8192
	}
	if c.PageSize == 0 {
		c.PageSize = 32
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Millisecond
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Millisecond
	}
	d.cfg = c
}

// Size returns the configured capacity in bytes.
func (d *Device) Size() uint16 {
	d.ensureConfigured()
	return d.cfg.Size
}

// ReadAt reads len(p) bytes starting at the given memory address.
func (d *Device) ReadAt(addr uint16, p []byte) error {
	d.ensureConfigured()
	if len(p) == 0 {
		return ErrEmptyBuffer
	}
	if int(addr)+len(p) > int(d.cfg.Size) {
		return ErrOutOfRange
	}
	cmd := d.buf[:2]
	cmd[0] = byte(addr >> 8)
	cmd[1] = byte(addr)
	return d.bus.Tx(d.Address, cmd, p)
}

// WriteAt writes p starting at the given memory address, splitting on
// page boundaries. The EEPROM wraps within a page if a write crosses one,
// so every chunk stays inside the page containing its first byte.
func (d *Device) WriteAt(addr uint16, p []byte) error {
	d.ensureConfigured()
	if len(p) == 0 {
		return ErrEmptyBuffer
	}
	if int(addr)+len(p) > int(d.cfg.Size) {
		return ErrOutOfRange
	}
	for len(p) > 0 {
		n := int(d.cfg.PageSize - addr%d.cfg.PageSize)
		if n > len(p) {
			n = len(p)
		}
		if err := d.writePage(addr, p[:n]); err != nil {
			return err
		}
		addr += uint16(n)
		p = p[n:]
	}
	return nil
}

func (d *Device) writePage(addr uint16, p []byte) error {
	cmd := append(d.buf[:0], byte(addr>>8), byte(addr))
	cmd = append(cmd, p...)
	if err := d.bus.Tx(d.Address, cmd, nil); err != nil {
		return err
	}
	return d.waitReady()
}

// waitReady acknowledge-polls: the device NACKs its address while the
// internal write cycle is in progress and ACKs again once done.
func (d *Device) waitReady() error {
	deadline := time.Now().Add(d.cfg.WriteTimeout)
	for {
		if err := d.bus.Tx(d.Address, nil, nil); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrTimeout
		}
		time.Sleep(d.cfg.PollInterval)
	}
}

func (d *Device) ensureConfigured() {
	if d.cfg.PageSize == 0 {
		d.Configure()
	}
}
