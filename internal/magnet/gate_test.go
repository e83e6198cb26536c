// internal/magnet/gate_test.go
package magnet

import "testing"

func TestCanStartRamping_QuenchAlwaysBlocks(t *testing.T) {
	for _, state := range []RampState{
		StateRamping, StateHolding, StatePaused, StateManualUp,
		StateManualDown, StateZeroingCurrent, StateQuenchDetected,
		StateAtZeroCurrent, StateHeatingSwitch, StateCoolingSwitch,
	} {
		s := SafetyStatus{Quenched: true, HeaterEnabled: true, State: state}
		if CanStartRamping(s, true) {
			t.Fatalf("quenched magnet allowed to ramp in state %q", state)
		}
		if CanStartRamping(s, false) {
			t.Fatalf("quenched magnet without switch allowed to ramp in state %q", state)
		}
	}
}

func TestCanStartRamping_PersistentModeBlocks(t *testing.T) {
	s := SafetyStatus{PersistentMode: true, State: StateHolding}

	if CanStartRamping(s, true) {
		t.Fatalf("persistent-mode magnet allowed to ramp")
	}

	// Without a switch there is no persistent mode to respect.
	if !CanStartRamping(s, false) {
		t.Fatalf("switchless magnet blocked by persistent-mode flag")
	}
}

func TestCanStartRamping_WhileRamping(t *testing.T) {
	s := SafetyStatus{State: StateRamping}

	if !CanStartRamping(s, false) {
		t.Fatalf("switchless ramping magnet blocked")
	}
	if CanStartRamping(s, true) {
		t.Fatalf("ramping with cold switch allowed")
	}

	s.HeaterEnabled = true
	if !CanStartRamping(s, true) {
		t.Fatalf("ramping with warm switch blocked")
	}
}

func TestCanStartRamping_RestingStates(t *testing.T) {
	for _, state := range []RampState{StateHolding, StatePaused, StateAtZeroCurrent} {
		if !CanStartRamping(SafetyStatus{State: state}, true) {
			t.Fatalf("resting state %q blocked", state)
		}
	}
}

func TestCanStartRamping_TransitionalStatesBlock(t *testing.T) {
	for _, state := range []RampState{
		StateManualUp, StateManualDown, StateZeroingCurrent,
		StateQuenchDetected, StateHeatingSwitch, StateCoolingSwitch,
	} {
		if CanStartRamping(SafetyStatus{State: state}, true) {
			t.Fatalf("state %q allowed to ramp", state)
		}
		if CanStartRamping(SafetyStatus{State: state}, false) {
			t.Fatalf("state %q allowed to ramp without switch", state)
		}
	}
}
