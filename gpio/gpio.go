// Package gpio declares the pin-control boundary the bus drivers consume.
// The register-level pin driver lives elsewhere; this package only fixes
// the vocabulary the pin adapters speak.
package gpio

// Mode is an electrical pin configuration.
type Mode uint8

const (
	InputFloating Mode = iota
	InputPullUp
	OutputPushPull
	OutputOpenDrain
	AltPushPull  // alternate function, push-pull (SPI master lines)
	AltOpenDrain // alternate function, open drain (I2C lines)
)

// Driver programs and drives individual pins by board pin number.
type Driver interface {
	// SetMode programs the pin's electrical mode.
	SetMode(pin uint8, m Mode) error
	// Write drives an output pin high or low.
	Write(pin uint8, high bool)
	// Read samples the pin.
	Read(pin uint8) bool
	// DisablePWM releases any timer/PWM mapping still claiming the pin.
	// Must be called before handing a pin to a bus peripheral.
	DisablePWM(pin uint8)
}
