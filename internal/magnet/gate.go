// internal/magnet/gate.go
package magnet

// CanStartRamping decides whether a ramp may be started given one fresh
// status snapshot. Pure function. No IO. No side effects.
//
// Rule order matters; the first matching rule wins.
func CanStartRamping(s SafetyStatus, switchPresent bool) bool {
	// A quenched magnet is never ramped.
	if s.Quenched {
		return false
	}

	// In persistent mode the magnet is decoupled from the supply;
	// ramping the supply would not move the magnet current.
	if switchPresent && s.PersistentMode {
		return false
	}

	switch s.State {
	case StateRamping:
		// Already ramping is fine only while the switch is conducting.
		if !switchPresent {
			return true
		}
		return s.HeaterEnabled

	case StateHolding, StatePaused, StateAtZeroCurrent:
		return true
	}

	// Manual modes, zeroing, quench recovery, and switch thermal
	// transitions all forbid a new ramp.
	return false
}
