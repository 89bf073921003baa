// Package rcc exposes the clock-tree facts the bus drivers need: which
// clock domain drives a peripheral and how fast that domain runs. The
// clock-gating primitives themselves live behind the Controller boundary.
package rcc

// ClockID identifies one peripheral on the clock tree.
type ClockID uint8

const (
	ClockSPI1 ClockID = iota
	ClockSPI2
	ClockSPI3
	ClockI2C1
	ClockI2C2
)

// Domain is a peripheral clock domain.
type Domain uint8

const (
	APB1 Domain = iota // low-speed peripheral bus
	APB2               // high-speed peripheral bus
)

// Domain frequencies for a 72 MHz system clock.
const (
	APB1Hz = 36_000_000
	APB2Hz = 72_000_000
)

// ClockHz returns the domain's bus frequency.
func (d Domain) ClockHz() uint32 {
	if d == APB2 {
		return APB2Hz
	}
	return APB1Hz
}

// DomainOf reports which domain drives the given peripheral. SPI1 sits on
// APB2; everything else handled here is on APB1.
func DomainOf(id ClockID) Domain {
	if id == ClockSPI1 {
		return APB2
	}
	return APB1
}

// Controller gates and resets peripheral clocks. Implementations own the
// RCC register block; the drivers only ever call these two operations.
type Controller interface {
	// EnableClock turns on the peripheral's bus clock.
	EnableClock(id ClockID)
	// Reset pulses the peripheral's reset line, returning every register
	// to its power-on value.
	Reset(id ClockID)
}
