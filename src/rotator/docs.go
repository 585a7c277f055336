// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package rotator implements the core of a DNS rotation daemon: it
// periodically replaces the resolver pair configured on the host's
// active network service with a randomly chosen, recently validated
// public resolver pair.
//
// It never touches the OS directly. All reads and writes go through an
// [OSAdapter]; the macOS implementation lives in package netconf.
//
// # Cycle
//
// Each call to [Engine.RunCycle] does the following:
//
//  1. Resolve the authoritative network service ([InterfaceResolver]).
//  2. Read the service's current DNS servers.
//  3. Compare them with what this process last wrote ([Compare]).
//  4. When nothing foreign is detected, refresh the health cache,
//     pick a pair other than the current one and write it.
//
// [Engine.Run] repeats cycles until it is stopped, sleeping for the
// configured interval (at least [MinInterval]) between them.
//
// # VPN Safety
//
// VPN clients usually rewrite DNS settings when they connect. When the
// OS configuration no longer matches the applied pair, the engine enters
// [StatePaused] and stops writing. It resumes once the configuration is
// empty (automatic) again, or matches the applied pair again.
//
// # Health Checks
//
// A pair is eligible when its primary address answered a real DNS query
// for [DefaultProbeDomain] within the probe timeout, with a matching
// transaction ID and the response flag set. Results are cached for the
// health TTL (default 30 minutes):
//
//	v := rotator.NewValidator(rotator.DefaultConfig())
//	healthy, err := v.EnsureFresh(ctx, rotator.DefaultCandidates)
//
// # Single Instance
//
// [AcquireLock] writes a pid file and refuses to start while another
// live process holds it:
//
//	lock, err := rotator.AcquireLock("/var/run/dnsrotate.pid")
//	if errors.Is(err, rotator.ErrAlreadyRunning) {
//	    // another daemon is active
//	}
//	defer lock.Release()
//
// # Errors
//
// Sentinel errors for use with [errors.Is]:
//
//	var (
//	    ErrAlreadyRunning     // Lock held by a live process
//	    ErrInterfaceDetection // No network service for this cycle
//	    ErrNoHealthyServers   // No candidate passed validation
//	    ErrApplyCommand       // The OS rejected the write
//	    ErrNoCandidates       // Empty candidate list
//	    ErrInvalidPair        // Malformed address
//	    ErrInvalidResponse    // Probe reply did not match the query
//	    ErrProbeTimeout       // Probe exceeded its timeout
//	    ErrInternalPanic      // A cycle panicked and was recovered
//	    ErrStopped            // Interrupted by a stop request
//	)
package rotator
