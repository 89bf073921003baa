package maple

import (
	"errors"
	"fmt"
	"testing"

	"maplebus-go/errcode"
	"maplebus-go/gpio"
	"maplebus-go/spi"
)

type fakeGPIO struct {
	log   []string
	modes map[uint8]gpio.Mode
}

func newFakeGPIO() *fakeGPIO {
	return &fakeGPIO{modes: make(map[uint8]gpio.Mode)}
}

func (g *fakeGPIO) SetMode(pin uint8, m gpio.Mode) error {
	g.modes[pin] = m
	g.log = append(g.log, fmt.Sprintf("mode %d=%d", pin, m))
	return nil
}

func (g *fakeGPIO) Write(pin uint8, high bool) {
	g.log = append(g.log, fmt.Sprintf("write %d=%v", pin, high))
}

func (g *fakeGPIO) Read(pin uint8) bool { return true }

func (g *fakeGPIO) DisablePWM(pin uint8) {
	g.log = append(g.log, fmt.Sprintf("pwm-off %d", pin))
}

func TestSPIMasterPinModes(t *testing.T) {
	g := newFakeGPIO()
	a := &spiPinAdapter{pins: g}

	if err := a.ConfigureSPI(1, spi.RoleMaster); err != nil {
		t.Fatalf("ConfigureSPI: %v", err)
	}
	want := map[uint8]gpio.Mode{
		10: gpio.OutputPushPull, // NSS
		13: gpio.AltPushPull,    // SCK
		12: gpio.InputFloating,  // MISO
		11: gpio.AltPushPull,    // MOSI
	}
	for pin, mode := range want {
		if g.modes[pin] != mode {
			t.Fatalf("pin %d mode = %d, want %d", pin, g.modes[pin], mode)
		}
	}
	// PWM must be released before any mode is programmed.
	if g.log[0] != "pwm-off 10" {
		t.Fatalf("log starts with %q", g.log[0])
	}
	// NSS parks deasserted.
	found := false
	for _, e := range g.log {
		if e == "write 10=true" {
			found = true
		}
	}
	if !found {
		t.Fatalf("NSS never driven high: %v", g.log)
	}
}

func TestSPISlavePinModes(t *testing.T) {
	g := newFakeGPIO()
	a := &spiPinAdapter{pins: g}

	if err := a.ConfigureSPI(2, spi.RoleSlave); err != nil {
		t.Fatalf("ConfigureSPI: %v", err)
	}
	want := map[uint8]gpio.Mode{
		31: gpio.InputFloating, // NSS
		32: gpio.InputFloating, // SCK
		33: gpio.AltPushPull,   // MISO drives back to the master
		34: gpio.InputFloating, // MOSI
	}
	for pin, mode := range want {
		if g.modes[pin] != mode {
			t.Fatalf("pin %d mode = %d, want %d", pin, g.modes[pin], mode)
		}
	}
}

func TestSPIUnknownBus(t *testing.T) {
	a := &spiPinAdapter{pins: newFakeGPIO()}
	if err := a.ConfigureSPI(3, spi.RoleMaster); !errors.Is(err, errcode.UnknownBus) {
		t.Fatalf("want unknown_bus, got %v", err)
	}
	if _, err := SPI(5, newFakeGPIO(), nil); !errors.Is(err, errcode.UnknownBus) {
		t.Fatalf("want unknown_bus, got %v", err)
	}
}

func TestI2CPinModes(t *testing.T) {
	g := newFakeGPIO()
	a := &i2cPinAdapter{pins: g}

	if err := a.ConfigureBus(1, false); err != nil {
		t.Fatalf("ConfigureBus: %v", err)
	}
	if g.modes[5] != gpio.AltOpenDrain || g.modes[9] != gpio.AltOpenDrain {
		t.Fatalf("pin modes: %v", g.modes)
	}
}

func TestI2CRemapPinModes(t *testing.T) {
	g := newFakeGPIO()
	a := &i2cPinAdapter{pins: g}

	if err := a.ConfigureBus(1, true); err != nil {
		t.Fatalf("ConfigureBus: %v", err)
	}
	if g.modes[14] != gpio.AltOpenDrain || g.modes[24] != gpio.AltOpenDrain {
		t.Fatalf("pin modes: %v", g.modes)
	}
	// Only bus 1 has an alternate mapping.
	if err := a.ConfigureBus(2, true); !errors.Is(err, errcode.UnknownBus) {
		t.Fatalf("want unknown_bus, got %v", err)
	}
}

func TestI2CReleaseBusPreparesBitBang(t *testing.T) {
	g := newFakeGPIO()
	a := &i2cPinAdapter{pins: g}

	if err := a.ReleaseBus(2, false); err != nil {
		t.Fatalf("ReleaseBus: %v", err)
	}
	if g.modes[29] != gpio.OutputOpenDrain || g.modes[30] != gpio.OutputOpenDrain {
		t.Fatalf("pin modes: %v", g.modes)
	}
	// Both lines released high, then bit-bang ops hit the right pins.
	a.SetSCL(false)
	a.SetSDA(false)
	tail := g.log[len(g.log)-4:]
	want := []string{"write 29=true", "write 30=true", "write 29=false", "write 30=false"}
	for i, e := range want {
		if tail[i] != e {
			t.Fatalf("log tail = %v, want %v", tail, want)
		}
	}
}
