// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package rotator

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/netip"
	"sync"
	"time"

	"github.com/lmittmann/tint"
)

var (
	cloudflare = MustParsePair("1.1.1.1", "1.0.0.1", "Cloudflare")
	google     = MustParsePair("8.8.8.8", "8.8.4.4", "Google")
	quad9      = MustParsePair("9.9.9.9", "149.112.112.112", "Quad9")
)

var errFake = errors.New("fake failure")

// fakeClock is a manually advanced clock.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// setCall records one SetDNS invocation.
type setCall struct {
	Service string
	Pair    ServerPair
}

// fakeAdapter is an in-memory OSAdapter. SetDNS updates what GetDNS
// returns, as the real OS would.
type fakeAdapter struct {
	mu       sync.Mutex
	services []Service
	current  map[string]ServerPair
	sets     []setCall

	listErr  error
	getErr   error
	setErr   error
	getPanic bool
}

func newFakeAdapter(services ...Service) *fakeAdapter {
	if len(services) == 0 {
		services = []Service{{Name: "Wi-Fi", Device: "en0", Enabled: true, Active: true}}
	}
	return &fakeAdapter{services: services, current: make(map[string]ServerPair)}
}

func (f *fakeAdapter) GetDNS(_ context.Context, service string) (ServerPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getPanic {
		panic("getdns exploded")
	}
	if f.getErr != nil {
		return ServerPair{}, f.getErr
	}
	return f.current[service], nil
}

func (f *fakeAdapter) SetDNS(_ context.Context, service string, pair ServerPair) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.sets = append(f.sets, setCall{Service: service, Pair: pair})
	f.current[service] = pair
	return nil
}

func (f *fakeAdapter) ListServices(context.Context) ([]Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]Service, len(f.services))
	copy(out, f.services)
	return out, nil
}

// overwrite simulates an external actor such as a VPN client.
func (f *fakeAdapter) overwrite(service string, pair ServerPair) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current[service] = pair
}

func (f *fakeAdapter) setCalls() []setCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]setCall, len(f.sets))
	copy(out, f.sets)
	return out
}

// fakeProber answers from a table of per-address failures. Addresses not
// in the table are healthy.
type fakeProber struct {
	mu    sync.Mutex
	fail  map[netip.Addr]error
	calls map[netip.Addr]int

	// failFirst makes the first n probes of every address fail.
	failFirst int

	// hook runs before every probe.
	hook func(addr netip.Addr)
}

func newFakeProber() *fakeProber {
	return &fakeProber{
		fail:  make(map[netip.Addr]error),
		calls: make(map[netip.Addr]int),
	}
}

func (p *fakeProber) Probe(ctx context.Context, addr netip.Addr) (time.Duration, error) {
	if p.hook != nil {
		p.hook(addr)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[addr]++
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if p.calls[addr] <= p.failFirst {
		return 0, ErrProbeTimeout
	}
	if err, ok := p.fail[addr]; ok {
		return 0, err
	}
	return 5 * time.Millisecond, nil
}

func (p *fakeProber) setFail(addr netip.Addr, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		delete(p.fail, addr)
		return
	}
	p.fail[addr] = err
}

func (p *fakeProber) callCount(addr netip.Addr) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[addr]
}

func (p *fakeProber) totalCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		n += c
	}
	return n
}

type fakeRoute struct {
	device string
	err    error
}

func (r fakeRoute) DefaultDevice(context.Context) (string, error) { return r.device, r.err }

type fakeTunnels []string

func (t fakeTunnels) ActiveTunnels(context.Context) ([]string, error) { return t, nil }

// captureLogger returns a logger writing plain text into a buffer.
func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(tint.NewHandler(&buf, &tint.Options{Level: slog.LevelDebug, NoColor: true})), &buf
}

// firstIndex is a deterministic random source.
func firstIndex(int) int { return 0 }
