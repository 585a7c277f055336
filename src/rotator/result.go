// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package rotator

import "time"

// ProbeStatus is the outcome of probing one resolver address.
type ProbeStatus struct {
	// Online indicates whether the address answered with a valid reply.
	Online bool

	// Latency is the round-trip time. Only meaningful when Online is true.
	Latency time.Duration

	// Error is non-nil if the probe failed.
	Error error
}

// HealthStatus is the diagnostic view of one candidate pair,
// as produced by [Validator.Status].
type HealthStatus struct {
	Pair      ServerPair
	Primary   ProbeStatus
	Secondary ProbeStatus
	CheckedAt time.Time
}

// Healthy applies the same policy as rotation: the primary decides.
func (s HealthStatus) Healthy() bool {
	return s.Primary.Online
}
