// cmd/boardtest/main.go
//
// Bench smoke test for the bus driver stack. It runs the real SPI and
// I2C engines against in-process bus models (an SPI loopback and an
// AT24C EEPROM), so the whole path from Begin/MasterEnable down to the
// register accesses can be exercised on a workstation. On hardware the
// same drivers are constructed through boards/maple instead.
package main

import (
	"fmt"

	"maplebus-go/drivers/at24cxx"
	"maplebus-go/i2c"
	"maplebus-go/rcc"
	"maplebus-go/spi"
	"maplebus-go/x/timex"
)

func main() {
	println("[boardtest] boot …")

	ok := true
	if err := spiLoopback(); err != nil {
		println("[boardtest] FAIL spi:", err.Error())
		ok = false
	}
	if err := eepromRoundTrip(); err != nil {
		println("[boardtest] FAIL i2c/eeprom:", err.Error())
		ok = false
	}
	if ok {
		println("[boardtest] PASS")
	}
}

// ---------- SPI: loopback (MOSI tied to MISO) ----------

func spiLoopback() error {
	d, err := spi.New(1, spi.Hardware{
		Regs:  &loopbackSPI{},
		Clock: rcc.ClockSPI1,
		Ctrl:  benchCtrl{},
		Pins:  benchPins{},
	})
	if err != nil {
		return err
	}
	if err := d.Begin(spi.Freq1_125MHz, spi.MSBFirst, spi.Mode0); err != nil {
		return err
	}
	defer d.End()

	for _, b := range []byte{0x00, 0xA5, 0xFF} {
		in, err := d.Transfer(b)
		if err != nil {
			return err
		}
		if in != b {
			return fmt.Errorf("loopback sent %#x got %#x", b, in)
		}
	}
	println("[boardtest] spi loopback ok")
	return nil
}

// loopbackSPI completes every frame immediately and echoes the byte.
type loopbackSPI struct {
	cr1    uint32
	rx     uint32
	rxFull bool
}

func (l *loopbackSPI) ReadCR1() uint32   { return l.cr1 }
func (l *loopbackSPI) WriteCR1(v uint32) { l.cr1 = v }

func (l *loopbackSPI) ReadSR() uint32 {
	sr := uint32(spi.SRTXE)
	if l.rxFull {
		sr |= spi.SRRXNE
	}
	return sr
}

func (l *loopbackSPI) ReadDR() uint32 {
	l.rxFull = false
	return l.rx
}

func (l *loopbackSPI) WriteDR(v uint32) {
	l.rx = v & 0xFF
	l.rxFull = true
}

// ---------- I2C: AT24C EEPROM round trip ----------

func eepromRoundTrip() error {
	mem := &eepromModel{}
	d, err := i2c.New(1, i2c.Hardware{
		Regs:  mem,
		Clock: rcc.ClockI2C1,
		Ctrl:  benchCtrl{},
		Pins:  benchBusPins{},
		Timer: timex.Wall{},
	})
	if err != nil {
		return err
	}
	if err := d.MasterEnable(0); err != nil {
		return err
	}

	rom := at24cxx.New(d)
	rom.Configure(at24cxx.Config{Size: 256, PageSize: 8})

	msg := []byte("maple bus smoke test")
	if err := rom.WriteAt(0x20, msg); err != nil {
		return err
	}
	got := make([]byte, len(msg))
	if err := rom.ReadAt(0x20, got); err != nil {
		return err
	}
	if string(got) != string(msg) {
		return fmt.Errorf("eeprom read back %q", got)
	}
	println("[boardtest] i2c eeprom round trip ok")
	return nil
}

// eepromModel emulates an AT24C behind the I2C registers: the first two
// data bytes after a write address set the memory cursor, further bytes
// store through it, and reads stream from it.
type eepromModel struct {
	cr1     uint32
	sr1     uint32
	mem     [256]byte
	cursor  int
	reading bool
	started bool
	nData   int
}

func (m *eepromModel) ReadCR1() uint32 { return m.cr1 }

func (m *eepromModel) WriteCR1(v uint32) {
	if v&i2c.CR1START != 0 {
		m.started = true
		m.sr1 |= i2c.SR1SB
		v &^= i2c.CR1START
	}
	v &^= i2c.CR1STOP
	m.cr1 = v
}

func (m *eepromModel) WriteCR2(uint32)   {}
func (m *eepromModel) WriteCCR(uint32)   {}
func (m *eepromModel) WriteTRISE(uint32) {}

func (m *eepromModel) ReadSR1() uint32   { return m.sr1 }
func (m *eepromModel) WriteSR1(v uint32) { m.sr1 = v }

func (m *eepromModel) ReadSR2() uint32 {
	if m.sr1&i2c.SR1ADDR != 0 {
		m.sr1 &^= i2c.SR1ADDR
		if m.reading {
			m.sr1 |= i2c.SR1RXNE
		} else {
			m.sr1 |= i2c.SR1TXE
		}
	}
	return 0
}

func (m *eepromModel) ReadDR() uint32 {
	b := m.mem[m.cursor%len(m.mem)]
	m.cursor++
	return uint32(b)
}

func (m *eepromModel) WriteDR(v uint32) {
	b := byte(v)
	if m.started {
		m.started = false
		m.sr1 &^= i2c.SR1SB
		m.reading = b&1 == 1
		m.nData = 0
		m.sr1 |= i2c.SR1ADDR
		return
	}
	switch m.nData {
	case 0:
		m.cursor = int(b) << 8
	case 1:
		m.cursor |= int(b)
	default:
		m.mem[m.cursor%len(m.mem)] = b
		m.cursor++
	}
	m.nData++
	m.sr1 |= i2c.SR1TXE | i2c.SR1BTF
}

// ---------- Bench stand-ins for the board boundaries ----------

type benchCtrl struct{}

func (benchCtrl) EnableClock(rcc.ClockID) {}
func (benchCtrl) Reset(rcc.ClockID)       {}

type benchPins struct{}

func (benchPins) ConfigureSPI(int, spi.Role) error { return nil }

type benchBusPins struct{}

func (benchBusPins) ConfigureBus(int, bool) error { return nil }
func (benchBusPins) ReleaseBus(int, bool) error   { return nil }
func (benchBusPins) SetSCL(bool)                  {}
func (benchBusPins) SetSDA(bool)                  {}
func (benchBusPins) ReadSCL() bool                { return true }
func (benchBusPins) ReadSDA() bool                { return true }
