package spi

import (
	"maplebus-go/errcode"
	"maplebus-go/rcc"
)

// Frequency is a supported SPI clock tier. The nominal rates assume the
// usual 72 MHz/36 MHz clock tree; a tier always resolves to the closest
// divider that does not exceed its nominal rate.
type Frequency uint8

const (
	Freq18MHz Frequency = iota
	Freq9MHz
	Freq4_5MHz
	Freq2_25MHz
	Freq1_125MHz
	Freq562_500kHz
	Freq281_250kHz
	Freq140_625kHz

	numFrequencies
)

// Hz returns the tier's nominal clock rate.
func (f Frequency) Hz() uint32 {
	if f >= numFrequencies {
		return 0
	}
	return rcc.APB1Hz >> (uint(f) + 1)
}

// Prescaler dividers, in CR1.BR encoding order.
const (
	baudDiv2 = iota
	baudDiv4
	baudDiv8
	baudDiv16
	baudDiv32
	baudDiv64
	baudDiv128
	baudDiv256
)

// baudRateFor derives the CR1.BR prescaler for a tier on the given clock
// domain. A bus on the fast domain needs one extra division step to hit
// the same rate, which makes the lowest tier unreachable from APB2.
func baudRateFor(dom rcc.Domain, f Frequency) (uint32, error) {
	if f >= numFrequencies {
		return 0, errcode.New(errcode.BadFrequency, "spi.baudRateFor")
	}
	if dom == rcc.APB2 {
		if f == Freq140_625kHz {
			// Would need a divide-by-512 step the hardware doesn't have.
			return 0, errcode.New(errcode.BadFrequency, "spi.baudRateFor")
		}
		return uint32(f) + 1, nil
	}
	return uint32(f), nil
}
