package types

import "time"

// Clock abstracts wall-clock reads so staleness arithmetic can be tested
// without sleeping.
//
// Implementations must be safe for concurrent use; the emitter and checker
// read the clock from separate goroutines.
type Clock interface {
	// Now returns the current wall-clock time.
	Now() time.Time
}

// SystemClock is a Clock backed by time.Now.
type SystemClock struct{}

// Compile-time assertion that SystemClock implements Clock.
var _ Clock = SystemClock{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}
