package i2c

import "maplebus-go/mmio"

// Registers is the I2C peripheral register map, laid out to match the
// hardware block so the struct can overlay the peripheral's base address.
type Registers struct {
	CR1   mmio.U32 // control 1
	CR2   mmio.U32 // control 2
	OAR1  mmio.U32 // own address 1
	OAR2  mmio.U32 // own address 2
	DR    mmio.U32 // data
	SR1   mmio.U32 // status 1
	SR2   mmio.U32 // status 2
	CCR   mmio.U32 // clock control
	TRISE mmio.U32 // maximum rise time
}

// CR1 bits.
const (
	CR1PE    = 1 << 0  // peripheral enable
	CR1START = 1 << 8  // generate start condition
	CR1STOP  = 1 << 9  // generate stop condition
	CR1ACK   = 1 << 10 // acknowledge received bytes
	CR1PEC   = 1 << 12 // packet error checking transfer in progress
	CR1SWRST = 1 << 15 // software reset
)

// CR2 bits.
const (
	CR2FreqMask = 0x3F // peripheral input clock, MHz
)

// SR1 bits.
const (
	SR1SB      = 1 << 0  // start condition generated
	SR1ADDR    = 1 << 1  // address sent / matched
	SR1BTF     = 1 << 2  // byte transfer finished
	SR1ADD10   = 1 << 3  // 10-bit header sent
	SR1RXNE    = 1 << 6  // receive register not empty
	SR1TXE     = 1 << 7  // transmit register empty
	SR1BERR    = 1 << 8  // bus error
	SR1ARLO    = 1 << 9  // arbitration lost
	SR1AF      = 1 << 10 // acknowledge failure
	SR1OVR     = 1 << 11 // overrun / underrun
	SR1Timeout = 1 << 14 // SCL held low too long
)

// CCR bits.
const (
	CCRFS     = 1 << 15 // fast mode
	CCRDuty   = 1 << 14 // fast mode 16:9 duty cycle
	CCRMask   = 0x0FFF
	ccrStdMin = 4 // hardware floor for the standard mode divider
	ccrFsMin  = 1 // hardware floor for the fast mode divider
)

// RegisterBlock is the register access surface the device model drives.
// The memory-mapped implementation is *Registers; tests substitute a
// scripted model.
type RegisterBlock interface {
	ReadCR1() uint32
	WriteCR1(v uint32)
	WriteCR2(v uint32)
	ReadSR1() uint32
	WriteSR1(v uint32)
	ReadSR2() uint32
	ReadDR() uint32
	WriteDR(v uint32)
	WriteCCR(v uint32)
	WriteTRISE(v uint32)
}

var _ RegisterBlock = (*Registers)(nil)

func (r *Registers) ReadCR1() uint32     { return r.CR1.Get() }
func (r *Registers) WriteCR1(v uint32)   { r.CR1.Set(v) }
func (r *Registers) WriteCR2(v uint32)   { r.CR2.Set(v) }
func (r *Registers) ReadSR1() uint32     { return r.SR1.Get() }
func (r *Registers) WriteSR1(v uint32)   { r.SR1.Set(v) }
func (r *Registers) ReadSR2() uint32     { return r.SR2.Get() }
func (r *Registers) ReadDR() uint32      { return r.DR.Get() }
func (r *Registers) WriteDR(v uint32)    { r.DR.Set(v) }
func (r *Registers) WriteCCR(v uint32)   { r.CCR.Set(v) }
func (r *Registers) WriteTRISE(v uint32) { r.TRISE.Set(v) }
