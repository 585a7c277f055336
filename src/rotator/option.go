// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package rotator

import (
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/miekg/dns"
)

// Option is a functional option for configuring an [Engine] or [Validator].
type Option func(*options)

type options struct {
	cfg       Config
	logger    *slog.Logger
	now       func() time.Time
	after     func(time.Duration) <-chan time.Time
	intn      func(n int) int
	prober    Prober
	dnsClient *dns.Client
	probePort string
	edns0Size uint16
	route     RouteProber
	tunnels   TunnelDetector
}

// WithLogger sets the structured logger. The default is [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock replaces the wall clock used for cache ages and
// applied-state timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithRand replaces the random source used by pair selection.
// intn must return a value in [0, n).
func WithRand(intn func(n int) int) Option {
	return func(o *options) {
		if intn != nil {
			o.intn = intn
		}
	}
}

// WithProber replaces the health probe, e.g. with a fake in tests.
// When set, [WithDNSClient], [WithProbePort] and [WithEDNS0Size] have
// no effect.
func WithProber(p Prober) Option {
	return func(o *options) {
		if p != nil {
			o.prober = p
		}
	}
}

// WithDNSClient sets a custom [dns.Client] for health probes.
// The client's own Timeout applies in addition to the probe timeout.
//
// Passing nil is a no-op and the default UDP client will be used.
func WithDNSClient(client *dns.Client) Option {
	return func(o *options) {
		if client != nil {
			o.dnsClient = client
		}
	}
}

// WithProbePort sets the port probes are sent to. The default is 53.
func WithProbePort(port string) Option {
	return func(o *options) {
		if port != "" {
			o.probePort = port
		}
	}
}

// WithEDNS0Size sets the EDNS0 UDP buffer size advertised by probes.
// The default is 1232 bytes.
//
// See: https://dnsflagday.net/2020/
func WithEDNS0Size(size uint16) Option {
	return func(o *options) {
		if size > 0 {
			o.edns0Size = size
		}
	}
}

// WithRouteProber enables the default-route step of interface detection.
func WithRouteProber(r RouteProber) Option {
	return func(o *options) {
		o.route = r
	}
}

// WithTunnelDetector names active VPN interfaces in overwrite warnings.
func WithTunnelDetector(t TunnelDetector) Option {
	return func(o *options) {
		o.tunnels = t
	}
}

func buildOptions(cfg Config, opts []Option) *options {
	o := &options{
		cfg:       cfg.withDefaults(),
		logger:    slog.Default(),
		now:       time.Now,
		after:     time.After,
		intn:      rand.IntN,
		probePort: defaultProbePort,
		edns0Size: defaultEDNS0Size,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.prober == nil {
		client := o.dnsClient
		if client == nil {
			client = &dns.Client{
				Timeout: o.cfg.ProbeTimeout,
				Net:     "udp",
			}
		}
		o.prober = newDNSProber(client, o.cfg.ProbeDomain, o.probePort, o.edns0Size)
	}
	return o
}

func (o *options) validator() *Validator {
	return &Validator{
		prober:  o.prober,
		timeout: o.cfg.ProbeTimeout,
		cache:   newHealthCache(o.cfg.HealthTTL, o.now),
		intn:    o.intn,
		log:     o.logger.With("component", "health"),
	}
}
