// Package timex provides the wall-clock tick source consumed by the bus
// drivers. Timeout logic takes the source as a capability so it can run
// against a scripted clock in tests.
package timex

import "time"

// Wall is the real time source: millisecond ticks, sleeping delays.
type Wall struct{}

// epoch anchors Ticks to the process start so the counter follows the
// runtime's monotonic clock rather than adjustable wall time.
var epoch = time.Now()

// Ticks returns a monotonic millisecond counter.
func (Wall) Ticks() uint32 {
	return uint32(time.Since(epoch).Milliseconds())
}

// DelayMicros blocks for at least us microseconds.
func (Wall) DelayMicros(us uint32) {
	time.Sleep(time.Duration(us) * time.Microsecond)
}

// After reports whether tick a is at or past tick b, tolerating counter
// wraparound (the counter is 32-bit and wraps every ~49 days).
func After(a, b uint32) bool {
	return int32(a-b) >= 0
}
