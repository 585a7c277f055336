// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/H0llyW00dzZ/dns-rotator/src/config"
	"github.com/H0llyW00dzZ/dns-rotator/src/logging"
	"github.com/H0llyW00dzZ/dns-rotator/src/netconf"
	"github.com/H0llyW00dzZ/dns-rotator/src/report"
	"github.com/H0llyW00dzZ/dns-rotator/src/rotator"
)

// restoreTimeout bounds the DHCP restore during shutdown, which runs
// after the main context is already cancelled.
const restoreTimeout = 15 * time.Second

type flags struct {
	once, get, set, reset, check bool

	interval      int
	intervalSet   bool
	iface         string
	report        string
	config        string
	lockFile      string
	logLevel      string
	logFile       string
	restoreOnExit bool
	useSudo       bool
}

type mode int

const (
	modeRun mode = iota
	modeOnce
	modeGet
	modeSet
	modeReset
	modeCheck
)

func (f *flags) mode() mode {
	switch {
	case f.once:
		return modeOnce
	case f.get:
		return modeGet
	case f.set:
		return modeSet
	case f.reset:
		return modeReset
	case f.check:
		return modeCheck
	default:
		return modeRun
	}
}

// mutating reports whether the mode writes network configuration and
// therefore needs the single-instance lock.
func (m mode) mutating() bool {
	return m != modeGet && m != modeCheck
}

func (f *flags) validate(args []string) error {
	var selected []string
	for _, m := range []struct {
		name string
		on   bool
	}{
		{"--once", f.once}, {"--get", f.get}, {"--set", f.set},
		{"--reset", f.reset}, {"--check", f.check},
	} {
		if m.on {
			selected = append(selected, m.name)
		}
	}
	if len(selected) > 1 {
		return usagef("only one of --once, --get, --set, --reset, --check may be given (got %s)",
			strings.Join(selected, ", "))
	}

	switch {
	case f.set && len(args) != 2:
		return usagef("--set needs exactly two addresses: PRIMARY SECONDARY")
	case !f.set && len(args) > 0:
		return usagef("unexpected arguments: %s", strings.Join(args, " "))
	case f.intervalSet && f.interval <= 0:
		return usagef("--interval must be a positive number of seconds")
	case f.report != "" && !f.check:
		return usagef("--report requires --check")
	}

	if f.set {
		if _, err := rotator.ParsePair(args[0], args[1], ""); err != nil {
			return usageError{err: err}
		}
	}
	if f.logLevel != "" {
		if _, err := logging.ParseLevel(f.logLevel); err != nil {
			return usageError{err: err}
		}
	}
	return nil
}

// osAdapter is everything the binary needs from the platform.
type osAdapter interface {
	rotator.OSAdapter
	rotator.RouteProber
	rotator.TunnelDetector
}

// notifyContext and newAdapter are replaced in tests.
var notifyContext = signal.NotifyContext

var newAdapter = func(useSudo bool) osAdapter {
	return netconf.New(netconf.WithSudo(useSudo))
}

// app holds what must be cleaned up on exit.
type app struct {
	log      *slog.Logger
	closeLog func() error
	lock     *rotator.Lock
	engine   *rotator.Engine
	restore  bool
}

func runApp(cmd *cobra.Command, f *flags, args []string) (err error) {
	settings, err := loadSettings(cmd, f)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(settings.LogLevel)
	if err != nil {
		return usageError{err: err}
	}
	log, closeLog, err := logging.Open(settings.LogFile, level)
	if err != nil {
		return err
	}

	a := &app{log: log, closeLog: closeLog}
	defer func() {
		if cerr := a.close(); cerr != nil {
			err = multierror.Append(err, cerr)
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", rotator.ErrInternalPanic, r)
			a.log.Error("unexpected panic, shutting down", tint.Err(err))
		}
	}()

	if settings.Source != "" {
		log.Debug("loaded configuration", "path", settings.Source)
	}

	// Installed before the lock so that a signal during startup still
	// runs the cleanup above.
	ctx, cancel := notifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	m := f.mode()
	if m.mutating() {
		if a.lock, err = rotator.AcquireLock(settings.LockFile); err != nil {
			return err
		}
		log.Debug("acquired lock", "path", a.lock.Path, "pid", a.lock.PID)
	}

	adapter := newAdapter(settings.UseSudo)
	a.engine, err = rotator.New(settings.Rotator, adapter,
		rotator.WithLogger(log),
		rotator.WithRouteProber(adapter),
		rotator.WithTunnelDetector(adapter),
	)
	if err != nil {
		return err
	}

	stopOnSignal := context.AfterFunc(ctx, a.engine.Stop)
	defer stopOnSignal()
	if ctx.Err() != nil {
		log.Info("interrupted during startup")
		return nil
	}

	out := cmd.OutOrStdout()
	switch m {
	case modeGet:
		iface, pair, err := a.engine.Current(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %s\n", iface, describe(pair))
		return nil

	case modeSet:
		pair, _ := rotator.ParsePair(args[0], args[1], "")
		iface, err := a.engine.Apply(ctx, pair)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %s\n", iface, describe(pair))
		return nil

	case modeReset:
		iface, err := a.engine.Reset(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: %s\n", iface, describe(rotator.ServerPair{}))
		return nil

	case modeCheck:
		return runCheck(ctx, a, f.report, out)

	case modeOnce:
		a.restore = settings.RestoreOnExit
		res := a.engine.RunCycle(ctx)
		if res.Err != nil && !errors.Is(res.Err, rotator.ErrStopped) {
			return res.Err
		}
		return nil

	default:
		a.restore = settings.RestoreOnExit
		return a.engine.Run(ctx)
	}
}

func runCheck(ctx context.Context, a *app, xlsx string, out io.Writer) error {
	start := time.Now()
	statuses, err := a.engine.Validator().Status(ctx, a.engine.Candidates())
	if err != nil {
		return err
	}

	healthy := 0
	for _, s := range statuses {
		if s.Healthy() {
			healthy++
		}
	}
	a.log.Info("health check complete", "healthy", healthy, "candidates", len(statuses), logging.Since(start))

	if err := report.WriteTable(out, statuses); err != nil {
		return err
	}
	if xlsx != "" {
		if err := report.WriteXLSX(xlsx, statuses); err != nil {
			return err
		}
		a.log.Info("wrote health report", "path", xlsx)
	}
	if healthy == 0 {
		return rotator.ErrNoHealthyServers
	}
	return nil
}

// close restores DNS if requested, then releases the lock and the log
// file. Every step runs even if an earlier one failed.
func (a *app) close() error {
	var result *multierror.Error

	// Never restore over a configuration another program owns.
	if a.restore && a.engine != nil &&
		!a.engine.Applied().IsEmpty() && a.engine.State() == rotator.StateActive {
		ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
		if _, err := a.engine.Reset(ctx); err != nil {
			result = multierror.Append(result, fmt.Errorf("restore DNS: %w", err))
		}
		cancel()
	}

	if err := a.lock.Release(); err != nil {
		result = multierror.Append(result, err)
	}
	if a.closeLog != nil {
		if err := a.closeLog(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close log: %w", err))
		}
	}
	return result.ErrorOrNil()
}

// loadSettings reads the configuration file and applies flag overrides.
func loadSettings(cmd *cobra.Command, f *flags) (config.Settings, error) {
	var (
		settings config.Settings
		err      error
	)
	if f.config != "" {
		settings, err = config.Load(f.config)
	} else {
		settings, err = config.Discover()
	}
	if err != nil {
		return config.Settings{}, err
	}

	fs := cmd.Flags()
	if fs.Changed("interval") {
		settings.Rotator.Interval = time.Duration(f.interval) * time.Second
	}
	if fs.Changed("interface") {
		settings.Rotator.Interface = f.iface
	}
	if fs.Changed("lock-file") {
		settings.LockFile = f.lockFile
	}
	if fs.Changed("log-level") {
		settings.LogLevel = f.logLevel
	}
	if fs.Changed("log-file") {
		settings.LogFile = f.logFile
	}
	if fs.Changed("restore-on-exit") {
		settings.RestoreOnExit = f.restoreOnExit
	}
	if fs.Changed("use-sudo") {
		settings.UseSudo = f.useSudo
	}
	return settings, nil
}

func describe(pair rotator.ServerPair) string {
	if pair.IsEmpty() {
		return "automatic (DHCP)"
	}
	return pair.String()
}
