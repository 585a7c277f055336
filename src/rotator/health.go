// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package rotator

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"time"

	"github.com/lmittmann/tint"
)

// Validator tests candidate pairs and keeps a time-bounded record of
// which ones answered correctly.
//
// A pair is healthy when its primary address answers the probe. The
// secondary is the OS-level fallback and is not validated for rotation.
type Validator struct {
	prober  Prober
	timeout time.Duration
	cache   *healthCache
	intn    func(n int) int
	log     *slog.Logger
}

// NewValidator builds a [Validator] from the engine options.
// Most callers get one through [New]; it is exported for diagnostics
// such as examples/status.
func NewValidator(cfg Config, opts ...Option) *Validator {
	o := buildOptions(cfg, opts)
	return o.validator()
}

// EnsureFresh returns the healthy subset of pairs, validating every pair
// whose cached result is missing or older than the health TTL.
//
// If that yields no healthy pair, all pairs are validated again once
// before [ErrNoHealthyServers] is returned.
func (v *Validator) EnsureFresh(ctx context.Context, pairs []ServerPair) ([]ServerPair, error) {
	if len(pairs) == 0 {
		return nil, ErrNoCandidates
	}

	healthy, checked, err := v.validate(ctx, pairs, false)
	if err != nil {
		return nil, err
	}
	if checked > 0 {
		v.log.Info("health check complete",
			"healthy", len(healthy), "checked", checked, "candidates", len(pairs))
	}
	if len(healthy) > 0 {
		return healthy, nil
	}

	v.log.Warn("no healthy DNS servers, forcing re-validation", "candidates", len(pairs))
	healthy, _, err = v.validate(ctx, pairs, true)
	if err != nil {
		return nil, err
	}
	if len(healthy) == 0 {
		return nil, ErrNoHealthyServers
	}
	v.log.Info("forced re-validation recovered servers", "healthy", len(healthy))
	return healthy, nil
}

// validate walks pairs in order. Fresh cache entries are reused unless
// force is set. It returns the healthy pairs and how many were probed.
func (v *Validator) validate(ctx context.Context, pairs []ServerPair, force bool) ([]ServerPair, int, error) {
	var (
		healthy []ServerPair
		checked int
	)
	for _, pair := range pairs {
		if !force {
			if entry, ok := v.cache.Get(pair); ok {
				if entry.Healthy {
					healthy = append(healthy, pair)
				}
				continue
			}
		}

		if err := ctx.Err(); err != nil {
			return nil, checked, fmt.Errorf("%w: %v", ErrStopped, err)
		}

		ok := v.check(ctx, pair)
		v.cache.Set(pair, ok)
		checked++
		if ok {
			healthy = append(healthy, pair)
		}
	}
	return healthy, checked, nil
}

func (v *Validator) check(ctx context.Context, pair ServerPair) bool {
	st := v.probe(ctx, pair.Primary)
	if st.Online {
		v.log.Debug("server healthy", "pair", pair.String(), "latency", st.Latency)
		return true
	}
	v.log.Debug("server failed", "pair", pair.String(), tint.Err(st.Error))
	return false
}

func (v *Validator) probe(ctx context.Context, addr netip.Addr) ProbeStatus {
	pctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	rtt, err := v.prober.Probe(pctx, addr)
	if err != nil {
		return ProbeStatus{Error: err}
	}
	return ProbeStatus{Online: true, Latency: rtt}
}

// Pick returns a uniformly random pair from healthy, skipping exclude
// when another option exists.
func (v *Validator) Pick(healthy []ServerPair, exclude ServerPair) (ServerPair, error) {
	if len(healthy) == 0 {
		return ServerPair{}, ErrNoHealthyServers
	}

	candidates := make([]ServerPair, 0, len(healthy))
	for _, p := range healthy {
		if !exclude.IsEmpty() && p.Equal(exclude) {
			continue
		}
		candidates = append(candidates, p)
	}
	if len(candidates) == 0 {
		// Only the current pair is healthy.
		return healthy[0], nil
	}

	return candidates[v.intn(len(candidates))], nil
}

// Status probes both addresses of every pair and reports latency.
// It refreshes the rotation cache with the primary's result.
func (v *Validator) Status(ctx context.Context, pairs []ServerPair) ([]HealthStatus, error) {
	if len(pairs) == 0 {
		return nil, ErrNoCandidates
	}

	statuses := make([]HealthStatus, 0, len(pairs))
	for _, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return statuses, fmt.Errorf("%w: %v", ErrStopped, err)
		}
		st := HealthStatus{
			Pair:      pair,
			Primary:   v.probe(ctx, pair.Primary),
			Secondary: v.probe(ctx, pair.Secondary),
		}
		st.CheckedAt = v.cache.Set(pair, st.Primary.Online).CheckedAt
		statuses = append(statuses, st)
	}
	return statuses, nil
}

// Entries returns a snapshot of the health cache.
func (v *Validator) Entries() []HealthCacheEntry {
	return v.cache.Snapshot()
}

// FlushCache drops every cached validation result.
func (v *Validator) FlushCache() {
	v.cache.Flush()
}
