// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package netconf reads and writes macOS DNS settings through the
// networksetup command line tool.
//
// [NetworkSetup] implements [rotator.OSAdapter], [rotator.RouteProber]
// and [rotator.TunnelDetector].
package netconf

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/H0llyW00dzZ/dns-rotator/src/rotator"
)

// Default configuration values.
const (
	DefaultBinary         = "/usr/sbin/networksetup"
	DefaultCommandTimeout = 10 * time.Second
)

var (
	_ rotator.OSAdapter      = (*NetworkSetup)(nil)
	_ rotator.RouteProber    = (*NetworkSetup)(nil)
	_ rotator.TunnelDetector = (*NetworkSetup)(nil)
)

// Runner executes an external command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(string(out))
		}
		if ctx.Err() != nil {
			return out, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), ctx.Err())
		}
		return out, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, msg)
	}
	return out, nil
}

// NetworkSetup talks to networksetup.
type NetworkSetup struct {
	runner  Runner
	binary  string
	sudo    bool
	timeout time.Duration
	links   func(ctx context.Context) ([]link, error)
}

// Option is a functional option for configuring [NetworkSetup].
type Option func(*NetworkSetup)

// WithRunner replaces the command runner, e.g. with a fake in tests.
func WithRunner(r Runner) Option {
	return func(n *NetworkSetup) {
		if r != nil {
			n.runner = r
		}
	}
}

// WithSudo runs networksetup through non-interactive sudo, for setups
// where the daemon is not started as root.
func WithSudo(enabled bool) Option {
	return func(n *NetworkSetup) {
		n.sudo = enabled
	}
}

// WithCommandTimeout bounds every networksetup invocation.
// The default is 10 seconds.
func WithCommandTimeout(d time.Duration) Option {
	return func(n *NetworkSetup) {
		if d > 0 {
			n.timeout = d
		}
	}
}

// WithBinary overrides the networksetup path.
func WithBinary(path string) Option {
	return func(n *NetworkSetup) {
		if path != "" {
			n.binary = path
		}
	}
}

// New creates a [NetworkSetup] adapter.
func New(opts ...Option) *NetworkSetup {
	n := &NetworkSetup{
		runner:  execRunner{},
		binary:  DefaultBinary,
		timeout: DefaultCommandTimeout,
		links:   systemLinks,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *NetworkSetup) run(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	name := n.binary
	if n.sudo {
		args = append([]string{"-n", n.binary}, args...)
		name = "sudo"
	}
	return n.runner.Run(ctx, name, args...)
}

// GetDNS implements [rotator.OSAdapter].
func (n *NetworkSetup) GetDNS(ctx context.Context, service string) (rotator.ServerPair, error) {
	out, err := n.run(ctx, "-getdnsservers", service)
	if err != nil {
		return rotator.ServerPair{}, err
	}
	return parseDNSServers(out), nil
}

// SetDNS implements [rotator.OSAdapter]. The zero pair restores
// automatic configuration.
func (n *NetworkSetup) SetDNS(ctx context.Context, service string, pair rotator.ServerPair) error {
	args := []string{"-setdnsservers", service}
	if pair.IsEmpty() {
		args = append(args, "Empty")
	} else {
		args = append(args, pair.Primary.String(), pair.Secondary.String())
	}
	_, err := n.run(ctx, args...)
	return err
}

// ListServices implements [rotator.OSAdapter]. Services are returned in
// the user's priority order; Active is derived from link state.
func (n *NetworkSetup) ListServices(ctx context.Context) ([]rotator.Service, error) {
	out, err := n.run(ctx, "-listnetworkserviceorder")
	if err != nil {
		return nil, err
	}
	services := parseServiceOrder(out)

	links, err := n.links(ctx)
	if err != nil {
		// Without link state, enabled services are the best guess.
		for i := range services {
			services[i].Active = services[i].Enabled
		}
		return services, nil
	}

	up := make(map[string]bool, len(links))
	for _, l := range links {
		up[l.name] = l.connected()
	}
	for i, s := range services {
		services[i].Active = s.Enabled && s.Device != "" && up[s.Device]
	}
	return services, nil
}

// DefaultDevice implements [rotator.RouteProber].
func (n *NetworkSetup) DefaultDevice(ctx context.Context) (string, error) {
	return defaultRouteDevice()
}
