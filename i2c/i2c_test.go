package i2c

import (
	"errors"
	"reflect"
	"testing"

	"maplebus-go/errcode"
	"maplebus-go/rcc"
)

type fakeCtrl struct{ ops []string }

func (c *fakeCtrl) EnableClock(id rcc.ClockID) { c.ops = append(c.ops, "clk") }
func (c *fakeCtrl) Reset(id rcc.ClockID)       { c.ops = append(c.ops, "rst") }

func TestNewRejectsUnknownBus(t *testing.T) {
	for _, n := range []int{0, 3, -1} {
		if _, err := New(n, Hardware{}); !errors.Is(err, errcode.UnknownBus) {
			t.Fatalf("New(%d): want unknown_bus, got %v", n, err)
		}
	}
}

func TestClockParams(t *testing.T) {
	// The peripheral clock for both buses is the 36 MHz APB1 domain.
	const pclk = 36_000_000

	std := clockParams(pclk, false, false)
	if std.freqMHz != 36 {
		t.Fatalf("freq = %d MHz", std.freqMHz)
	}
	if std.ccr != 180 { // 36 MHz / (2 * 100 kHz)
		t.Fatalf("standard ccr = %d, want 180", std.ccr)
	}
	if std.trise != 37 { // 1000 ns rise time: MHz + 1
		t.Fatalf("standard trise = %d, want 37", std.trise)
	}

	fast := clockParams(pclk, true, false)
	if fast.ccr != 30|CCRFS { // 36 MHz / (3 * 400 kHz), fast bit set
		t.Fatalf("fast ccr = %#x, want %#x", fast.ccr, 30|CCRFS)
	}
	if fast.trise != 11 { // 300 ns rise time: MHz*300/1000 + 1
		t.Fatalf("fast trise = %d, want 11", fast.trise)
	}

	duty := clockParams(pclk, true, true)
	if duty.ccr != 3|CCRFS|CCRDuty { // 36 MHz / (25 * 400 kHz)
		t.Fatalf("duty ccr = %#x, want %#x", duty.ccr, 3|CCRFS|CCRDuty)
	}
}

func TestClockParamsClampsDividerFloors(t *testing.T) {
	std := clockParams(600_000, false, false)
	if std.ccr != ccrStdMin {
		t.Fatalf("standard ccr = %d, want floor %d", std.ccr, ccrStdMin)
	}
	fast := clockParams(1_000_000, true, false)
	if fast.ccr&CCRMask != ccrFsMin {
		t.Fatalf("fast ccr = %#x, want floor %d", fast.ccr&CCRMask, ccrFsMin)
	}
}

func TestMasterEnableProgramsTiming(t *testing.T) {
	m := &busModel{}
	pins := &fakeBusPins{}
	ctrl := &fakeCtrl{}
	d, err := New(1, Hardware{Regs: m, Clock: rcc.ClockI2C1, Ctrl: ctrl, Pins: pins, Timer: &fakeTimer{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := d.MasterEnable(0); err != nil {
		t.Fatalf("MasterEnable: %v", err)
	}
	if d.State() != StateIdle {
		t.Fatalf("state = %d, want %d", d.State(), StateIdle)
	}
	if m.cr2 != 36 {
		t.Fatalf("CR2 = %d, want 36", m.cr2)
	}
	if m.ccr != 180 || m.trise != 37 {
		t.Fatalf("CCR = %d TRISE = %d", m.ccr, m.trise)
	}
	if m.cr1&CR1PE == 0 {
		t.Fatal("peripheral not enabled")
	}
	if len(ctrl.ops) != 2 || ctrl.ops[0] != "clk" || ctrl.ops[1] != "rst" {
		t.Fatalf("clock ops: %v", ctrl.ops)
	}
	if len(pins.configured) != 1 || pins.configured[0] != "cfg 1 remap=false" {
		t.Fatalf("pin configuration: %v", pins.configured)
	}
}

func TestMasterEnableFastModeTiming(t *testing.T) {
	m := &busModel{}
	d, err := New(2, Hardware{Regs: m, Clock: rcc.ClockI2C2, Ctrl: &fakeCtrl{}, Pins: &fakeBusPins{}, Timer: &fakeTimer{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.MasterEnable(FastMode | Duty16x9); err != nil {
		t.Fatalf("MasterEnable: %v", err)
	}
	if m.ccr != 3|CCRFS|CCRDuty {
		t.Fatalf("CCR = %#x", m.ccr)
	}
	if m.trise != 11 {
		t.Fatalf("TRISE = %d", m.trise)
	}
}

func TestMasterEnableRemapReachesPins(t *testing.T) {
	m := &busModel{}
	pins := &fakeBusPins{}
	d, err := New(1, Hardware{Regs: m, Clock: rcc.ClockI2C1, Ctrl: &fakeCtrl{}, Pins: pins, Timer: &fakeTimer{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.MasterEnable(Remap); err != nil {
		t.Fatalf("MasterEnable: %v", err)
	}
	if len(pins.configured) != 1 || pins.configured[0] != "cfg 1 remap=true" {
		t.Fatalf("pin configuration: %v", pins.configured)
	}
}

func TestDisable(t *testing.T) {
	m := &busModel{}
	d := newEnabledDevice(t, m)

	d.Disable()
	if d.State() != StateDisabled {
		t.Fatalf("state = %d", d.State())
	}
	if m.cr1&CR1PE != 0 {
		t.Fatal("peripheral still enabled")
	}
	if err := d.MasterXfer([]Message{{Addr: 0x42}}, 0); !errors.Is(err, errcode.NotEnabled) {
		t.Fatalf("want not_enabled, got %v", err)
	}
}

func TestBusResetClocksOutStuckSlave(t *testing.T) {
	m := &busModel{}
	pins := &fakeBusPins{stuckReads: 3}
	d, err := New(1, Hardware{Regs: m, Clock: rcc.ClockI2C1, Ctrl: &fakeCtrl{}, Pins: pins, Timer: &fakeTimer{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := d.MasterEnable(BusReset); err != nil {
		t.Fatalf("MasterEnable: %v", err)
	}
	want := []string{
		"release", "scl=true", "sda=true",
		"scl=false", "scl=true",
		"scl=false", "scl=true",
		"scl=false", "scl=true",
		"sda=false", "scl=false", "scl=true", "sda=true",
	}
	if !reflect.DeepEqual(pins.log, want) {
		t.Fatalf("pin choreography\n got %v\nwant %v", pins.log, want)
	}
	if d.State() != StateIdle {
		t.Fatalf("state = %d", d.State())
	}
}

func TestBusResetGivesUpOnShortedSDA(t *testing.T) {
	pins := &fakeBusPins{stuckReads: 1 << 20}
	d, err := New(1, Hardware{Regs: &busModel{}, Clock: rcc.ClockI2C1, Ctrl: &fakeCtrl{}, Pins: pins, Timer: &fakeTimer{}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	err = d.MasterEnable(BusReset)
	if !errors.Is(err, errcode.BusError) {
		t.Fatalf("want bus_error, got %v", err)
	}
	if d.State() != StateDisabled {
		t.Fatalf("state = %d, device must stay disabled", d.State())
	}
}
