// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package rotator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/tevino/abool"
)

// Engine runs rotation cycles. It owns all mutable rotation state:
// the health cache, the applied state and the rotation state.
//
// An Engine is not safe for concurrent use, except for [Engine.Stop].
type Engine struct {
	cfg       Config
	adapter   OSAdapter
	resolver  *InterfaceResolver
	validator *Validator
	tunnels   TunnelDetector
	now       func() time.Time
	after     func(time.Duration) <-chan time.Time
	log       *slog.Logger

	state         State
	applied       AppliedState
	ifaceFailures int

	stopping   *abool.AtomicBool
	stopCtx    context.Context
	stopCancel context.CancelFunc
}

// New creates an [Engine] that reads and writes DNS configuration
// through adapter.
//
//	e, err := rotator.New(cfg, netconf.New(),
//	    rotator.WithLogger(logger),
//	)
func New(cfg Config, adapter OSAdapter, opts ...Option) (*Engine, error) {
	if adapter == nil {
		return nil, errors.New("rotator: nil OS adapter")
	}

	o := buildOptions(cfg, opts)
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	o.cfg.Interval = clampInterval(o.cfg.Interval, o.logger)

	stopCtx, stopCancel := context.WithCancel(context.Background())
	e := &Engine{
		cfg:        o.cfg,
		adapter:    adapter,
		validator:  o.validator(),
		tunnels:    o.tunnels,
		now:        o.now,
		after:      o.after,
		log:        o.logger,
		state:      StateActive,
		stopping:   abool.New(),
		stopCtx:    stopCtx,
		stopCancel: stopCancel,
	}
	override := ""
	if !o.cfg.AutoDetect() {
		override = o.cfg.Interface
	}
	e.resolver = NewInterfaceResolver(adapter, o.route, override, o.cfg.FallbackInterface,
		o.logger.With("component", "interface"))
	return e, nil
}

// clampInterval bounds d to [MinInterval, MaxInterval], warning when it
// had to adjust. Shorter intervals reconfigure the resolver faster than
// caches and configuration daemons settle.
func clampInterval(d time.Duration, log *slog.Logger) time.Duration {
	switch {
	case d < MinInterval:
		log.Warn("rotation interval too short, using minimum",
			"requested", d, "minimum", MinInterval)
		return MinInterval
	case d > MaxInterval:
		log.Warn("rotation interval too long, using maximum",
			"requested", d, "maximum", MaxInterval)
		return MaxInterval
	}
	return d
}

// Interval returns the effective cycle interval.
func (e *Engine) Interval() time.Duration { return e.cfg.Interval }

// State returns the current rotation state.
func (e *Engine) State() State { return e.state }

// Applied returns what this engine last wrote.
func (e *Engine) Applied() AppliedState { return e.applied }

// Validator returns the engine's health validator.
func (e *Engine) Validator() *Validator { return e.validator }

// Candidates returns a copy of the configured candidate pairs.
func (e *Engine) Candidates() []ServerPair {
	out := make([]ServerPair, len(e.cfg.Candidates))
	copy(out, e.cfg.Candidates)
	return out
}

// Stop requests a cooperative shutdown. The current cycle stops at its
// next sub-operation boundary and [Engine.Run] returns. Stop may be
// called from any goroutine, e.g. a signal handler.
func (e *Engine) Stop() {
	if e.stopping.SetToIf(false, true) {
		e.log.Info("shutdown requested")
	}
	e.stopCancel()
}

// Stopped reports whether [Engine.Stop] has been called.
func (e *Engine) Stopped() bool {
	return e.stopping.IsSet()
}

func (e *Engine) interrupted(ctx context.Context) bool {
	return e.stopping.IsSet() || ctx.Err() != nil
}

// Run executes cycles until ctx is cancelled, [Engine.Stop] is called,
// or interface detection keeps failing. The first cycle runs
// immediately. Per-cycle failures are logged and never end the loop.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info("starting DNS rotation", "interval", e.cfg.Interval, "candidates", len(e.cfg.Candidates))
	defer e.log.Info("DNS rotation stopped")

	for {
		res := e.RunCycle(ctx)
		if errors.Is(res.Err, ErrStopped) {
			return nil
		}
		if errors.Is(res.Err, ErrInterfaceDetection) && e.ifaceFailures > e.cfg.MaxInterfaceFailures {
			return fmt.Errorf("%w: failed %d consecutive cycles", res.Err, e.ifaceFailures)
		}
		if !e.sleep(ctx) {
			return nil
		}
	}
}

// sleep waits one interval. It returns false when interrupted.
func (e *Engine) sleep(ctx context.Context) bool {
	if e.interrupted(ctx) {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case <-e.stopCtx.Done():
		return false
	case <-e.after(e.cfg.Interval):
		return true
	}
}

// RunCycle performs exactly one rotation cycle.
func (e *Engine) RunCycle(ctx context.Context) (res CycleResult) {
	defer func() {
		if r := recover(); r != nil {
			res = CycleResult{
				Interface: res.Interface,
				State:     e.state,
				Action:    ActionFailed,
				Err:       fmt.Errorf("%w: %v", ErrInternalPanic, r),
			}
			e.log.Error("rotation cycle panicked", tint.Err(res.Err))
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(e.stopCtx, cancel)
	defer stop()

	if e.interrupted(ctx) {
		return e.stopped("")
	}

	iface, err := e.resolver.Resolve(ctx)
	if err != nil {
		if e.interrupted(ctx) {
			return e.stopped("")
		}
		e.ifaceFailures++
		e.log.Error("network service detection failed, skipping cycle",
			"consecutive", e.ifaceFailures, tint.Err(err))
		return CycleResult{State: e.state, Action: ActionSkipped, Err: err}
	}
	e.ifaceFailures = 0

	if !e.applied.IsEmpty() && e.applied.Interface != iface {
		e.log.Info("network service changed, forgetting applied configuration",
			"from", e.applied.Interface, "to", iface)
		e.applied = AppliedState{}
	}

	if e.interrupted(ctx) {
		return e.stopped(iface)
	}

	verdict := VerdictOwned
	current, err := e.adapter.GetDNS(ctx, iface)
	switch {
	case err != nil && e.interrupted(ctx):
		return e.stopped(iface)
	case err != nil && e.state == StatePaused:
		e.log.Warn("could not read current DNS configuration, staying paused",
			"service", iface, tint.Err(err))
		return CycleResult{Interface: iface, State: e.state, Action: ActionPaused, Err: err}
	case err != nil:
		e.log.Warn("could not read current DNS configuration, skipping overwrite check",
			"service", iface, tint.Err(err))
	default:
		verdict = Compare(e.applied, current)
	}

	prev := e.state
	next, mayWrite := nextState(prev, verdict)
	e.state = next

	if !mayWrite {
		if prev == StateActive {
			e.logOverwrite(ctx, iface, current)
		} else {
			e.log.Debug("rotation paused", "service", iface, "current", current.String())
		}
		return CycleResult{Interface: iface, State: e.state, Action: ActionPaused, Pair: current}
	}

	resumed := prev == StatePaused
	if resumed {
		e.log.Info("DNS configuration is stable again, resuming rotation",
			"service", iface, "current", current.String())
	}

	if e.interrupted(ctx) {
		return e.stopped(iface)
	}

	res = e.rotate(ctx, iface)
	res.Resumed = resumed
	return res
}

func (e *Engine) rotate(ctx context.Context, iface string) CycleResult {
	healthy, err := e.validator.EnsureFresh(ctx, e.cfg.Candidates)
	if e.interrupted(ctx) {
		return e.stopped(iface)
	}
	if err != nil {
		e.log.Error("no DNS server available this cycle, keeping current configuration",
			"service", iface, tint.Err(err))
		return CycleResult{Interface: iface, State: e.state, Action: ActionSkipped, Err: err}
	}

	pair, err := e.validator.Pick(healthy, e.applied.Pair)
	if err != nil {
		return CycleResult{Interface: iface, State: e.state, Action: ActionSkipped, Err: err}
	}

	if e.interrupted(ctx) {
		return e.stopped(iface)
	}

	if err := e.adapter.SetDNS(ctx, iface, pair); err != nil {
		err = fmt.Errorf("%w: %s: %v", ErrApplyCommand, iface, err)
		e.log.Error("changing DNS failed, keeping previous state", "service", iface, tint.Err(err))
		return CycleResult{Interface: iface, State: e.state, Action: ActionFailed, Err: err}
	}

	previous := e.applied.Pair
	e.record(iface, pair)
	e.log.Info("DNS changed", "service", iface, "servers", pair.String(), "previous", previous.String())
	return CycleResult{Interface: iface, State: e.state, Action: ActionRotated, Pair: pair}
}

func (e *Engine) logOverwrite(ctx context.Context, iface string, current ServerPair) {
	attrs := []any{
		"service", iface,
		"expected", e.applied.Pair.String(),
		"current", current.String(),
	}

	var tunnels []string
	if e.tunnels != nil {
		names, err := e.tunnels.ActiveTunnels(ctx)
		if err != nil {
			e.log.Debug("tunnel detection failed", tint.Err(err))
		}
		tunnels = names
	}

	if len(tunnels) > 0 {
		attrs = append(attrs, "tunnels", strings.Join(tunnels, ", "))
		e.log.Warn("VPN detected with DNS overwrite, pausing rotation", attrs...)
		return
	}
	e.log.Warn("DNS was overwritten by an external process, pausing rotation", attrs...)
}

func (e *Engine) stopped(iface string) CycleResult {
	return CycleResult{Interface: iface, State: e.state, Action: ActionSkipped, Err: ErrStopped}
}

func (e *Engine) record(iface string, pair ServerPair) {
	e.applied = AppliedState{Pair: pair, Interface: iface, AppliedAt: e.now()}
}

// Current reads the DNS configuration of the resolved service without
// changing anything.
func (e *Engine) Current(ctx context.Context) (string, ServerPair, error) {
	iface, err := e.resolver.Resolve(ctx)
	if err != nil {
		return "", ServerPair{}, err
	}
	pair, err := e.adapter.GetDNS(ctx, iface)
	if err != nil {
		return iface, ServerPair{}, fmt.Errorf("rotator: read DNS of %s: %w", iface, err)
	}
	return iface, pair, nil
}

// Apply writes pair unconditionally, bypassing health checks and the
// state machine, and records it as the applied state.
func (e *Engine) Apply(ctx context.Context, pair ServerPair) (string, error) {
	if !pair.Primary.IsValid() || !pair.Secondary.IsValid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidPair, pair)
	}
	iface, err := e.resolver.Resolve(ctx)
	if err != nil {
		return "", err
	}
	if err := e.adapter.SetDNS(ctx, iface, pair); err != nil {
		return iface, fmt.Errorf("%w: %s: %v", ErrApplyCommand, iface, err)
	}
	e.record(iface, pair)
	e.state = StateActive
	e.log.Info("DNS changed", "service", iface, "servers", pair.String())
	return iface, nil
}

// Reset restores automatic (DHCP) configuration. It targets the service
// last written to when there is one, so it does not depend on detection
// during shutdown.
func (e *Engine) Reset(ctx context.Context) (string, error) {
	iface := e.applied.Interface
	if iface == "" {
		var err error
		if iface, err = e.resolver.Resolve(ctx); err != nil {
			return "", err
		}
	}
	if err := e.adapter.SetDNS(ctx, iface, ServerPair{}); err != nil {
		return iface, fmt.Errorf("%w: %s: %v", ErrApplyCommand, iface, err)
	}
	e.applied = AppliedState{}
	e.state = StateActive
	e.log.Info("DNS reset to automatic configuration", "service", iface)
	return iface, nil
}
