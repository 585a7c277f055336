// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package rotator

import "time"

// State is the rotation state of the engine.
//
//	Active -> Paused   external overwrite detected
//	Paused -> Active   configuration empty or reconciled
type State int

const (
	// StateActive means the engine owns the DNS configuration and rotates.
	StateActive State = iota

	// StatePaused means an external actor changed the configuration;
	// the engine only observes.
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// AppliedState is what this process believes it last wrote to the OS.
type AppliedState struct {
	Pair      ServerPair
	Interface string
	AppliedAt time.Time
}

// IsEmpty reports whether nothing has been applied yet.
func (a AppliedState) IsEmpty() bool {
	return a.Pair.IsEmpty()
}

// Action is what a cycle ended up doing.
type Action string

const (
	ActionRotated Action = "rotated"
	ActionPaused  Action = "paused"
	ActionSkipped Action = "skipped"
	ActionFailed  Action = "failed"
)

// CycleResult summarizes one rotation cycle.
type CycleResult struct {
	// Interface is the service the cycle operated on, if resolved.
	Interface string

	// State is the rotation state at the end of the cycle.
	State State

	// Action is what the cycle did.
	Action Action

	// Resumed is true when the cycle moved from Paused back to Active.
	Resumed bool

	// Pair is the pair written when Action is [ActionRotated], or the
	// detected foreign configuration when Action is [ActionPaused].
	Pair ServerPair

	// Err is the per-cycle error, if any. It never includes overwrites,
	// which are state transitions.
	Err error
}
