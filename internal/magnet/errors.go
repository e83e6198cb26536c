// internal/magnet/errors.go
package magnet

import (
	"errors"
	"fmt"
	"time"
)

// ErrInterlocked is returned when a ramp is requested while the safety
// gate forbids starting one. The reference hardware driver silently did
// nothing in this case; here the caller always hears about it.
var ErrInterlocked = errors.New("magnet: interlock forbids starting a ramp")

// ErrRampTimeout is returned when a blocking ramp does not leave the
// ramping condition within the configured bound.
var ErrRampTimeout = errors.New("magnet: ramp did not finish within timeout")

// RangeError reports a requested field or ramp rate outside the
// configured rating. Rejected values never reach the hardware.
type RangeError struct {
	Kind  string // "field" or "ramp rate"
	Value float64
	Limit float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("magnet: %s %g outside rating ±%g", e.Kind, e.Value, e.Limit)
}

// HeaterTimeoutError reports that a persistent-switch thermal transition
// did not confirm within the bounded wait. Heater state is unspecified
// afterwards; re-read it before retrying.
type HeaterTimeoutError struct {
	Enable bool
	Waited time.Duration
}

func (e *HeaterTimeoutError) Error() string {
	dir := "cooling"
	if e.Enable {
		dir = "heating"
	}
	return fmt.Sprintf("magnet: switch %s did not finish within %s", dir, e.Waited)
}

// RampEndError reports a blocking ramp that left the ramping condition
// into something other than holding (quench mid-ramp, manual interrupt).
// The hardware may still be in a valid state; the final observed state is
// carried for the caller to decide.
type RampEndError struct {
	State RampState
}

func (e *RampEndError) Error() string {
	return fmt.Sprintf("magnet: ramp ended abnormally in state %q", e.State)
}
