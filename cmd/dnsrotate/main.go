// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Command dnsrotate periodically rotates the DNS servers of the active
// macOS network service among a list of healthy public resolvers, and
// pauses while another program (typically a VPN client) owns the
// configuration.
//
// Usage:
//
//	dnsrotate                     run continuously
//	dnsrotate --once              run a single cycle
//	dnsrotate --get               print the current DNS servers
//	dnsrotate --set 1.1.1.1 1.0.0.1
//	dnsrotate --reset             restore automatic (DHCP) DNS
//	dnsrotate --check --report health.xlsx
//
// Exit codes: 0 success, 1 operational failure, 2 usage error.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// usageError marks errors caused by the command line rather than by
// the system.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{err: fmt.Errorf(format, args...)}
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the command line and maps the outcome to an exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return exitOK
	}
	fmt.Fprintf(stderr, "dnsrotate: %v\n", err)
	return exitCode(err)
}

func exitCode(err error) int {
	var uerr usageError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &uerr):
		return exitUsage
	default:
		return exitError
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:           "dnsrotate [--set PRIMARY SECONDARY]",
		Short:         "rotate macOS DNS servers among healthy public resolvers",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			f.intervalSet = cmd.Flags().Changed("interval")
			return f.validate(args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd, f, args)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})

	fs := cmd.Flags()
	fs.BoolVar(&f.once, "once", false, "run a single rotation cycle and exit")
	fs.IntVar(&f.interval, "interval", 0, "seconds between rotations (minimum 180)")
	fs.StringVar(&f.iface, "interface", "", `network service to manage, or "auto"`)
	fs.BoolVar(&f.get, "get", false, "print the current DNS servers and exit")
	fs.BoolVar(&f.set, "set", false, "set PRIMARY SECONDARY and exit")
	fs.BoolVar(&f.reset, "reset", false, "restore automatic (DHCP) DNS and exit")
	fs.BoolVar(&f.check, "check", false, "probe every candidate and print a health table")
	fs.StringVar(&f.report, "report", "", "with --check, also write the table to an .xlsx file")
	fs.StringVar(&f.config, "config", "", "configuration file (default: search standard locations)")
	fs.StringVar(&f.lockFile, "lock-file", "", "pid lock file path")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&f.logFile, "log-file", "", "append logs to this file instead of stdout")
	fs.BoolVar(&f.restoreOnExit, "restore-on-exit", false, "restore automatic DNS when the daemon exits")
	fs.BoolVar(&f.useSudo, "use-sudo", false, "run networksetup through sudo -n")

	// Let cobra ignore if we are running from a GUI launcher.
	cobra.MousetrapHelpText = ""
	return cmd
}
