// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package rotator

import (
	"fmt"
	"time"
)

// Default configuration values.
const (
	DefaultInterval             = 300 * time.Second
	MinInterval                 = 180 * time.Second
	MaxInterval                 = 24 * time.Hour
	DefaultHealthTTL            = 1800 * time.Second
	DefaultProbeTimeout         = time.Second
	DefaultProbeDomain          = "google.com"
	DefaultFallbackInterface    = "Wi-Fi"
	DefaultMaxInterfaceFailures = 5

	// AutoInterface is the sentinel that enables interface detection.
	AutoInterface = "auto"

	defaultEDNS0Size = 1232 // Recommended size to prevent IP fragmentation
	defaultProbePort = "53"
)

// Config is the resolved configuration consumed by the engine.
// It is built once at startup; the engine never re-reads it.
type Config struct {
	// Interval between rotation cycles. Clamped to [MinInterval, MaxInterval].
	Interval time.Duration

	// Interface is an operator override for the network service.
	// Empty or [AutoInterface] enables detection.
	Interface string

	// FallbackInterface is used when detection finds nothing.
	// Empty disables the fallback.
	FallbackInterface string

	// HealthTTL bounds how long a validation result may be reused.
	HealthTTL time.Duration

	// Candidates are the pairs rotation chooses from, in config order.
	Candidates []ServerPair

	// ProbeDomain is the name resolved by health probes.
	ProbeDomain string

	// ProbeTimeout bounds each probe.
	ProbeTimeout time.Duration

	// MaxInterfaceFailures is how many consecutive cycles may fail
	// interface detection before the loop gives up.
	MaxInterfaceFailures int
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	candidates := make([]ServerPair, len(DefaultCandidates))
	copy(candidates, DefaultCandidates)
	return Config{
		Interval:             DefaultInterval,
		Interface:            AutoInterface,
		FallbackInterface:    DefaultFallbackInterface,
		HealthTTL:            DefaultHealthTTL,
		Candidates:           candidates,
		ProbeDomain:          DefaultProbeDomain,
		ProbeTimeout:         DefaultProbeTimeout,
		MaxInterfaceFailures: DefaultMaxInterfaceFailures,
	}
}

// Validate checks the fields that cannot be defaulted.
func (c Config) Validate() error {
	if len(c.Candidates) == 0 {
		return ErrNoCandidates
	}
	for i, p := range c.Candidates {
		if !p.Primary.IsValid() || !p.Secondary.IsValid() {
			return fmt.Errorf("%w: candidate %d (%s)", ErrInvalidPair, i, p)
		}
	}
	if c.ProbeDomain != "" && !validProbeDomain(c.ProbeDomain) {
		return fmt.Errorf("rotator: invalid probe domain %q", c.ProbeDomain)
	}
	if c.Interval < 0 || c.HealthTTL < 0 || c.ProbeTimeout < 0 {
		return fmt.Errorf("rotator: durations must not be negative")
	}
	return nil
}

// AutoDetect reports whether the interface should be detected.
func (c Config) AutoDetect() bool {
	return c.Interface == "" || c.Interface == AutoInterface
}

// withDefaults fills zero values. Interval clamping is left to the engine
// so that it can log the adjustment.
func (c Config) withDefaults() Config {
	if c.Interval == 0 {
		c.Interval = DefaultInterval
	}
	if c.HealthTTL == 0 {
		c.HealthTTL = DefaultHealthTTL
	}
	if c.ProbeDomain == "" {
		c.ProbeDomain = DefaultProbeDomain
	}
	if c.ProbeTimeout == 0 {
		c.ProbeTimeout = DefaultProbeTimeout
	}
	if c.MaxInterfaceFailures <= 0 {
		c.MaxInterfaceFailures = DefaultMaxInterfaceFailures
	}
	return c
}
