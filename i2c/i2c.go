// Package i2c implements a synchronous I2C master for the F1-series
// peripheral. Transfers poll the status registers; there is no interrupt
// or DMA path. The device drives registers through RegisterBlock and pins
// through PinAdapter, so both can be substituted in tests.
package i2c

import (
	"maplebus-go/errcode"
	"maplebus-go/rcc"
	"maplebus-go/x/mathx"
)

// State is the device lifecycle state.
type State int8

const (
	StateError    State = -1 // last transfer faulted or timed out
	StateDisabled State = 0
	StateIdle     State = 1
	StateXferDone State = 2
	StateBusy     State = 3
)

// Fault records which hardware fault flags fired during a transfer. The
// bit positions mirror SR1 so the status word can be masked in directly.
type Fault uint32

const (
	FaultBusError        Fault = SR1BERR
	FaultArbitrationLost Fault = SR1ARLO
	FaultAckFailure      Fault = SR1AF
	FaultOverrun         Fault = SR1OVR
	FaultClockTimeout    Fault = SR1Timeout
)

const faultMask = SR1BERR | SR1ARLO | SR1AF | SR1OVR | SR1Timeout

// Code maps a fault set to its most significant detail code. Acknowledge
// failure wins because it is the one a caller can usually act on (absent
// or busy slave).
func (f Fault) Code() errcode.Code {
	switch {
	case f&FaultAckFailure != 0:
		return errcode.AckFailure
	case f&FaultArbitrationLost != 0:
		return errcode.ArbitrationLost
	case f&FaultBusError != 0:
		return errcode.BusError
	case f&FaultOverrun != 0:
		return errcode.Overrun
	case f&FaultClockTimeout != 0:
		return errcode.ClockTimeout
	}
	return errcode.OK
}

// EnableFlag selects MasterEnable options.
type EnableFlag uint32

const (
	// FastMode clocks the bus at 400 kHz instead of 100 kHz.
	FastMode EnableFlag = 1 << 0
	// Duty16x9 selects the 16:9 SCL duty cycle in fast mode.
	Duty16x9 EnableFlag = 1 << 1
	// Remap uses the alternate pin mapping where the board provides one.
	Remap EnableFlag = 1 << 2
	// BusReset clocks out a stuck slave before enabling the peripheral.
	BusReset EnableFlag = 1 << 3
)

// Bus clock targets.
const (
	stdModeHz  = 100_000
	fastModeHz = 400_000
)

// Timer provides a millisecond tick counter and busy-wait delays. The
// tick counter may wrap; comparisons go through timex.After.
type Timer interface {
	Ticks() uint32
	DelayMicros(us uint32)
}

// PinAdapter configures and, during bus recovery, directly drives the
// bus pins. SetSCL/SetSDA/ReadSCL/ReadSDA are only meaningful after
// ReleaseBus has detached the pins from the peripheral.
type PinAdapter interface {
	ConfigureBus(bus int, remap bool) error
	ReleaseBus(bus int, remap bool) error
	SetSCL(high bool)
	SetSDA(high bool)
	ReadSCL() bool
	ReadSDA() bool
}

// Hardware bundles the capabilities a Device needs.
type Hardware struct {
	Regs  RegisterBlock
	Clock rcc.ClockID
	Ctrl  rcc.Controller
	Pins  PinAdapter
	Timer Timer
}

// Device is one I2C peripheral.
type Device struct {
	bus    int
	regs   RegisterBlock
	clock  rcc.ClockID
	ctrl   rcc.Controller
	pins   PinAdapter
	timer  Timer
	state  State
	faults Fault
}

// New returns the device model for bus n (1 or 2).
func New(n int, hw Hardware) (*Device, error) {
	if n < 1 || n > 2 {
		return nil, errcode.New(errcode.UnknownBus, "i2c.New")
	}
	return &Device{
		bus:   n,
		regs:  hw.Regs,
		clock: hw.Clock,
		ctrl:  hw.Ctrl,
		pins:  hw.Pins,
		timer: hw.Timer,
	}, nil
}

// Bus returns the bus number.
func (d *Device) Bus() int { return d.bus }

// State returns the lifecycle state.
func (d *Device) State() State { return d.state }

// Faults returns the fault flags latched by the last transfer.
func (d *Device) Faults() Fault { return d.faults }

// Init gates the peripheral clock and pulses its reset line, returning
// every register to its power-on value. The device is left disabled with
// no latched faults.
func (d *Device) Init() {
	d.ctrl.EnableClock(d.clock)
	d.ctrl.Reset(d.clock)
	d.state = StateDisabled
	d.faults = 0
}

// MasterEnable resets the peripheral, configures the pins, programs the
// bus timing for the selected speed, and enables the peripheral in
// master mode. With BusReset set it first clocks the bus free of any
// slave stuck mid-byte.
func (d *Device) MasterEnable(flags EnableFlag) error {
	remap := flags&Remap != 0
	if flags&BusReset != 0 {
		if err := d.BusReset(remap); err != nil {
			return err
		}
	}
	d.Init()
	if err := d.pins.ConfigureBus(d.bus, remap); err != nil {
		return err
	}
	t := clockParams(rcc.DomainOf(d.clock).ClockHz(), flags&FastMode != 0, flags&Duty16x9 != 0)
	d.regs.WriteCR2(t.freqMHz & CR2FreqMask)
	d.regs.WriteCCR(t.ccr)
	d.regs.WriteTRISE(t.trise)
	d.regs.WriteCR1(CR1PE)
	d.state = StateIdle
	return nil
}

// Disable turns the peripheral off. Any in-flight transfer is abandoned.
func (d *Device) Disable() {
	d.regs.WriteCR1(d.regs.ReadCR1() &^ CR1PE)
	d.state = StateDisabled
}

type timing struct {
	freqMHz uint32
	ccr     uint32
	trise   uint32
}

// clockParams derives the CR2 frequency field, the CCR divider, and the
// TRISE limit from the peripheral clock. Standard mode rise time is
// 1000 ns, fast mode 300 ns.
func clockParams(pclkHz uint32, fast, duty bool) timing {
	mhz := pclkHz / 1_000_000
	t := timing{freqMHz: mhz}
	if !fast {
		t.ccr = mathx.Clamp(pclkHz/(2*stdModeHz), uint32(ccrStdMin), uint32(CCRMask))
		t.trise = mhz + 1
		return t
	}
	var div uint32
	if duty {
		div = pclkHz / (25 * fastModeHz)
	} else {
		div = pclkHz / (3 * fastModeHz)
	}
	t.ccr = mathx.Clamp(div, uint32(ccrFsMin), uint32(CCRMask)) | CCRFS
	if duty {
		t.ccr |= CCRDuty
	}
	t.trise = mhz*300/1000 + 1
	return t
}

// Recovery loop bounds. A healthy slave releases SDA within nine clock
// pulses; the extra headroom covers clock stretching.
const (
	resetStepMicros  = 10
	maxResetClocks   = 32
	maxStretchChecks = 1000
)

// BusReset bit-bangs the bus back to idle: release both lines, pulse SCL
// until the slave lets go of SDA, then issue a manual start and stop so
// every slave's bus logic returns to the address phase. The pins are left
// detached from the peripheral; call MasterEnable (or ConfigureBus)
// afterwards.
func (d *Device) BusReset(remap bool) error {
	if err := d.pins.ReleaseBus(d.bus, remap); err != nil {
		return err
	}
	d.pins.SetSCL(true)
	d.pins.SetSDA(true)
	d.timer.DelayMicros(resetStepMicros)

	for clocks := 0; !d.pins.ReadSDA(); clocks++ {
		if clocks >= maxResetClocks {
			return errcode.New(errcode.BusError, "i2c.BusReset")
		}
		if err := d.waitSCLHigh(); err != nil {
			return err
		}
		d.pins.SetSCL(false)
		d.timer.DelayMicros(resetStepMicros)
		d.pins.SetSCL(true)
		d.timer.DelayMicros(resetStepMicros)
	}

	// Start then stop: SDA falls while SCL is high, then rises again.
	d.pins.SetSDA(false)
	d.timer.DelayMicros(resetStepMicros)
	d.pins.SetSCL(false)
	d.timer.DelayMicros(resetStepMicros)
	d.pins.SetSCL(true)
	d.timer.DelayMicros(resetStepMicros)
	d.pins.SetSDA(true)
	d.timer.DelayMicros(resetStepMicros)
	return nil
}

// waitSCLHigh waits out slave clock stretching, bounded so a shorted SCL
// cannot hang the caller.
func (d *Device) waitSCLHigh() error {
	for i := 0; i < maxStretchChecks; i++ {
		if d.pins.ReadSCL() {
			return nil
		}
		d.timer.DelayMicros(resetStepMicros)
	}
	return errcode.New(errcode.BusError, "i2c.BusReset")
}
