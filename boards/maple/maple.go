// Package maple binds the bus drivers to the Maple board: peripheral
// base addresses, the board pin map for each bus, and pin adapters that
// program the pins through a gpio.Driver.
package maple

import (
	"unsafe"

	"maplebus-go/errcode"
	"maplebus-go/gpio"
	"maplebus-go/i2c"
	"maplebus-go/rcc"
	"maplebus-go/spi"
)

// Peripheral base addresses.
const (
	spi1Base uintptr = 0x4001_3000
	spi2Base uintptr = 0x4000_3800
	i2c1Base uintptr = 0x4000_5400
	i2c2Base uintptr = 0x4000_5800
)

// spiPins is one bus's pin assignment, in board pin numbers.
type spiPins struct {
	nss  uint8
	sck  uint8
	miso uint8
	mosi uint8
}

// i2cPins is one bus's pin assignment, in board pin numbers.
type i2cPins struct {
	scl uint8
	sda uint8
}

var spiPinMap = map[int]spiPins{
	1: {nss: 10, sck: 13, miso: 12, mosi: 11},
	2: {nss: 31, sck: 32, miso: 33, mosi: 34},
}

var i2cPinMap = map[int]i2cPins{
	1: {scl: 5, sda: 9},
	2: {scl: 29, sda: 30},
}

// i2c1RemapPins is the alternate mapping for bus 1; bus 2 has none.
var i2c1RemapPins = i2cPins{scl: 14, sda: 24}

// SPI returns the bus driver for SPI bus n wired to this board.
func SPI(n int, pins gpio.Driver, ctrl rcc.Controller) (*spi.Device, error) {
	var base uintptr
	var clock rcc.ClockID
	switch n {
	case 1:
		base, clock = spi1Base, rcc.ClockSPI1
	case 2:
		base, clock = spi2Base, rcc.ClockSPI2
	default:
		return nil, errcode.New(errcode.UnknownBus, "maple.SPI")
	}
	return spi.New(n, spi.Hardware{
		Regs:  (*spi.Registers)(unsafe.Pointer(base)),
		Clock: clock,
		Ctrl:  ctrl,
		Pins:  &spiPinAdapter{pins: pins},
	})
}

// I2C returns the bus driver for I2C bus n wired to this board.
func I2C(n int, pins gpio.Driver, ctrl rcc.Controller, timer i2c.Timer) (*i2c.Device, error) {
	var base uintptr
	var clock rcc.ClockID
	switch n {
	case 1:
		base, clock = i2c1Base, rcc.ClockI2C1
	case 2:
		base, clock = i2c2Base, rcc.ClockI2C2
	default:
		return nil, errcode.New(errcode.UnknownBus, "maple.I2C")
	}
	return i2c.New(n, i2c.Hardware{
		Regs:  (*i2c.Registers)(unsafe.Pointer(base)),
		Clock: clock,
		Ctrl:  ctrl,
		Pins:  &i2cPinAdapter{pins: pins},
		Timer: timer,
	})
}

// spiPinAdapter programs the board's SPI pins for one role.
type spiPinAdapter struct {
	pins gpio.Driver
}

var _ spi.PinConfigurator = (*spiPinAdapter)(nil)

func (a *spiPinAdapter) ConfigureSPI(bus int, role spi.Role) error {
	p, ok := spiPinMap[bus]
	if !ok {
		return errcode.New(errcode.UnknownBus, "maple.ConfigureSPI")
	}
	for _, pin := range []uint8{p.nss, p.sck, p.miso, p.mosi} {
		a.pins.DisablePWM(pin)
	}
	if role == spi.RoleMaster {
		// The driver manages NSS in software, so keep it a plain output
		// and park it high (deasserted).
		if err := a.pins.SetMode(p.nss, gpio.OutputPushPull); err != nil {
			return err
		}
		a.pins.Write(p.nss, true)
		if err := a.pins.SetMode(p.sck, gpio.AltPushPull); err != nil {
			return err
		}
		if err := a.pins.SetMode(p.miso, gpio.InputFloating); err != nil {
			return err
		}
		return a.pins.SetMode(p.mosi, gpio.AltPushPull)
	}
	if err := a.pins.SetMode(p.nss, gpio.InputFloating); err != nil {
		return err
	}
	if err := a.pins.SetMode(p.sck, gpio.InputFloating); err != nil {
		return err
	}
	if err := a.pins.SetMode(p.miso, gpio.AltPushPull); err != nil {
		return err
	}
	return a.pins.SetMode(p.mosi, gpio.InputFloating)
}

// i2cPinAdapter programs and, during recovery, bit-bangs the board's I2C
// pins.
type i2cPinAdapter struct {
	pins gpio.Driver
	scl  uint8
	sda  uint8
}

var _ i2c.PinAdapter = (*i2cPinAdapter)(nil)

func (a *i2cPinAdapter) lookup(bus int, remap bool) (i2cPins, error) {
	if remap {
		if bus != 1 {
			return i2cPins{}, errcode.New(errcode.UnknownBus, "maple.i2cPins")
		}
		return i2c1RemapPins, nil
	}
	p, ok := i2cPinMap[bus]
	if !ok {
		return i2cPins{}, errcode.New(errcode.UnknownBus, "maple.i2cPins")
	}
	return p, nil
}

func (a *i2cPinAdapter) ConfigureBus(bus int, remap bool) error {
	p, err := a.lookup(bus, remap)
	if err != nil {
		return err
	}
	a.scl, a.sda = p.scl, p.sda
	a.pins.DisablePWM(p.scl)
	a.pins.DisablePWM(p.sda)
	if err := a.pins.SetMode(p.scl, gpio.AltOpenDrain); err != nil {
		return err
	}
	return a.pins.SetMode(p.sda, gpio.AltOpenDrain)
}

// ReleaseBus detaches the pins from the peripheral so SetSCL/SetSDA can
// drive them directly. Open drain keeps a slave able to stretch or hold
// the lines during recovery.
func (a *i2cPinAdapter) ReleaseBus(bus int, remap bool) error {
	p, err := a.lookup(bus, remap)
	if err != nil {
		return err
	}
	a.scl, a.sda = p.scl, p.sda
	if err := a.pins.SetMode(p.scl, gpio.OutputOpenDrain); err != nil {
		return err
	}
	if err := a.pins.SetMode(p.sda, gpio.OutputOpenDrain); err != nil {
		return err
	}
	a.pins.Write(p.scl, true)
	a.pins.Write(p.sda, true)
	return nil
}

func (a *i2cPinAdapter) SetSCL(high bool) { a.pins.Write(a.scl, high) }
func (a *i2cPinAdapter) SetSDA(high bool) { a.pins.Write(a.sda, high) }
func (a *i2cPinAdapter) ReadSCL() bool    { return a.pins.Read(a.scl) }
func (a *i2cPinAdapter) ReadSDA() bool    { return a.pins.Read(a.sda) }
