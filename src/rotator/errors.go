// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package rotator

import "errors"

// Sentinel errors for the rotator package.
var (
	// ErrAlreadyRunning is returned by [AcquireLock] when the lock file
	// names a process that is still alive.
	ErrAlreadyRunning = errors.New("rotator: another instance is already running")

	// ErrInterfaceDetection is returned when no network service could be
	// determined for the current cycle.
	ErrInterfaceDetection = errors.New("rotator: unable to determine network service")

	// ErrNoHealthyServers is returned when no candidate pair passed
	// validation, even after the forced retry pass.
	ErrNoHealthyServers = errors.New("rotator: no healthy DNS servers")

	// ErrApplyCommand is returned when the OS adapter fails to write the
	// DNS configuration.
	ErrApplyCommand = errors.New("rotator: failed to apply DNS configuration")

	// ErrNoCandidates is returned when the configuration has no candidate pairs.
	ErrNoCandidates = errors.New("rotator: no candidate DNS servers configured")

	// ErrInvalidPair is returned when a server pair contains an invalid address.
	ErrInvalidPair = errors.New("rotator: invalid DNS server pair")

	// ErrInvalidResponse is returned when a probe reply does not match the
	// outstanding query or is not flagged as a response.
	ErrInvalidResponse = errors.New("rotator: invalid DNS response")

	// ErrProbeTimeout is returned when a probe exceeded its timeout.
	ErrProbeTimeout = errors.New("rotator: DNS probe timed out")

	// ErrInternalPanic is returned when a panic was recovered inside a cycle.
	ErrInternalPanic = errors.New("rotator: internal panic recovered")

	// ErrStopped is returned when a cycle was interrupted by a stop request.
	ErrStopped = errors.New("rotator: stopped")
)
