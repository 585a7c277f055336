// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package rotator

// Verdict is the outcome of comparing the OS configuration with the
// applied state.
type Verdict int

const (
	// VerdictOwned means the configuration is what this process wrote,
	// or nothing has been written yet.
	VerdictOwned Verdict = iota

	// VerdictOverwritten means an external actor changed the configuration.
	VerdictOverwritten

	// VerdictCleared means the configuration is back to automatic (DHCP).
	VerdictCleared
)

func (v Verdict) String() string {
	switch v {
	case VerdictOwned:
		return "owned"
	case VerdictOverwritten:
		return "overwritten"
	case VerdictCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Compare classifies current against what was last applied.
//
// Nothing applied yet always yields [VerdictOwned]. An empty current
// configuration yields [VerdictCleared]; while paused that is the
// conservative signal that an external actor has let go.
func Compare(applied AppliedState, current ServerPair) Verdict {
	if applied.IsEmpty() {
		return VerdictOwned
	}
	if current.IsEmpty() {
		return VerdictCleared
	}
	if current.Equal(applied.Pair) {
		return VerdictOwned
	}
	return VerdictOverwritten
}

// nextState applies the rotation state machine to a verdict.
// It returns the new state and whether a write may happen this cycle.
//
// While active, any divergence from the applied pair pauses, including a
// reset to DHCP. While paused, only an empty or reconciled configuration
// resumes.
func nextState(state State, v Verdict) (State, bool) {
	if state == StatePaused {
		if v == VerdictOverwritten {
			return StatePaused, false
		}
		return StateActive, true
	}
	if v == VerdictOwned {
		return StateActive, true
	}
	return StatePaused, false
}
