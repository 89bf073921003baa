package spi

import "maplebus-go/mmio"

// Registers is the SPI register map, laid out to match the hardware block.
type Registers struct {
	CR1     mmio.U32 // control register 1
	CR2     mmio.U32 // control register 2
	SR      mmio.U32 // status register
	DR      mmio.U32 // data register
	CRCPR   mmio.U32 // CRC polynomial register
	RXCRCR  mmio.U32 // RX CRC register
	TXCRCR  mmio.U32 // TX CRC register
	I2SCFGR mmio.U32 // I2S configuration register
	I2SPR   mmio.U32 // I2S prescaler register
}

// CR1 bits.
const (
	CR1CPHA     = 1 << 0 // clock phase
	CR1CPOL     = 1 << 1 // clock polarity
	CR1MSTR     = 1 << 2 // master selection
	CR1SPE      = 1 << 6 // peripheral enable
	CR1LSBFirst = 1 << 7 // frame format
	CR1SSI      = 1 << 8 // internal slave select
	CR1SSM      = 1 << 9 // software slave management

	CR1BRShift = 3
	CR1BRMask  = 0x7 << CR1BRShift
)

// SR bits.
const (
	SRRXNE = 1 << 0 // receive buffer not empty
	SRTXE  = 1 << 1 // transmit buffer empty
	SRBSY  = 1 << 7 // busy flag
)

// RegisterBlock is the register-access surface the engine consumes.
// *Registers implements it over memory-mapped hardware; tests implement it
// with scripted models.
type RegisterBlock interface {
	ReadCR1() uint32
	WriteCR1(v uint32)
	ReadSR() uint32
	ReadDR() uint32
	WriteDR(v uint32)
}

var _ RegisterBlock = (*Registers)(nil)

func (r *Registers) ReadCR1() uint32   { return r.CR1.Get() }
func (r *Registers) WriteCR1(v uint32) { r.CR1.Set(v) }
func (r *Registers) ReadSR() uint32    { return r.SR.Get() }
func (r *Registers) ReadDR() uint32    { return r.DR.Get() }
func (r *Registers) WriteDR(v uint32)  { r.DR.Set(v) }
