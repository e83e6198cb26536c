// internal/magnet/state.go
package magnet

import (
	"fmt"
	"strconv"
	"strings"
)

// RampState is the supply condition reported by STATE?.
// Codes are protocol-locked and MUST NOT be renumbered.
type RampState int

const (
	StateRamping        RampState = 1
	StateHolding        RampState = 2
	StatePaused         RampState = 3
	StateManualUp       RampState = 4
	StateManualDown     RampState = 5
	StateZeroingCurrent RampState = 6
	StateQuenchDetected RampState = 7
	StateAtZeroCurrent  RampState = 8
	StateHeatingSwitch  RampState = 9
	StateCoolingSwitch  RampState = 10
)

var stateNames = map[RampState]string{
	StateRamping:        "ramping",
	StateHolding:        "holding",
	StatePaused:         "paused",
	StateManualUp:       "manual up",
	StateManualDown:     "manual down",
	StateZeroingCurrent: "zeroing current",
	StateQuenchDetected: "quench detected",
	StateAtZeroCurrent:  "at zero current",
	StateHeatingSwitch:  "heating switch",
	StateCoolingSwitch:  "cooling switch",
}

func (s RampState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown state %d", int(s))
}

// decodeState parses a STATE? reply.
func decodeState(reply string) (RampState, error) {
	n, err := strconv.Atoi(strings.TrimSpace(reply))
	if err != nil {
		return 0, fmt.Errorf("magnet: bad STATE? reply %q: %w", reply, err)
	}
	s := RampState(n)
	if _, ok := stateNames[s]; !ok {
		return 0, fmt.Errorf("magnet: STATE? code %d out of range", n)
	}
	return s, nil
}

// decodeFlag parses a 0/1 reply (QU?, PERS?, PS?).
func decodeFlag(reply string) (bool, error) {
	switch strings.TrimSpace(reply) {
	case "0":
		return false, nil
	case "1":
		return true, nil
	}
	return false, fmt.Errorf("magnet: bad flag reply %q", reply)
}

// SafetyStatus is one fresh snapshot of the four interlock-relevant facts.
// It is read live for every decision and never retained across calls.
type SafetyStatus struct {
	Quenched       bool
	PersistentMode bool
	HeaterEnabled  bool
	State          RampState
}
