// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package rotator

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"strconv"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startTestDNSServer starts a UDP DNS server on localhost and returns
// its address and a cleanup function.
func startTestDNSServer(t *testing.T, handler dns.HandlerFunc) (netip.AddrPort, func()) {
	t.Helper()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err, "failed to listen")

	server := &dns.Server{
		PacketConn: pc,
		Handler:    handler,
	}

	started := make(chan struct{})
	go func() {
		server.NotifyStartedFunc = func() { close(started) }
		if err := server.ActivateAndServe(); err != nil {
			// Server shutdown is expected after started.
			select {
			case <-started:
			default:
				t.Logf("DNS server error: %v", err)
			}
		}
	}()

	<-started
	addr, err := netip.ParseAddrPort(pc.LocalAddr().String())
	require.NoError(t, err)

	return addr, func() {
		_ = server.Shutdown()
	}
}

func answerA(w dns.ResponseWriter, r *dns.Msg) {
	m := new(dns.Msg)
	m.SetReply(r)
	m.Answer = append(m.Answer, &dns.A{
		Hdr: dns.RR_Header{
			Name:   r.Question[0].Name,
			Rrtype: dns.TypeA,
			Class:  dns.ClassINET,
			Ttl:    60,
		},
		A: net.ParseIP("93.184.216.34"),
	})
	_ = w.WriteMsg(m)
}

func newTestProber(addr netip.AddrPort, timeout time.Duration) Prober {
	cfg := Config{ProbeDomain: "example.com", ProbeTimeout: timeout}
	o := buildOptions(cfg, []Option{
		WithProbePort(strconv.Itoa(int(addr.Port()))),
	})
	return o.prober
}

func TestDNSProber(t *testing.T) {
	t.Run("valid reply", func(t *testing.T) {
		var gotQuestion dns.Question
		var gotEDNS bool
		addr, cleanup := startTestDNSServer(t, func(w dns.ResponseWriter, r *dns.Msg) {
			gotQuestion = r.Question[0]
			gotEDNS = r.IsEdns0() != nil
			answerA(w, r)
		})
		defer cleanup()

		rtt, err := newTestProber(addr, time.Second).Probe(context.Background(), addr.Addr())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, rtt, time.Duration(0))
		assert.Equal(t, "example.com.", gotQuestion.Name)
		assert.Equal(t, dns.TypeA, gotQuestion.Qtype)
		assert.True(t, gotEDNS, "probe should advertise EDNS0")
	})

	t.Run("nxdomain is still an answer", func(t *testing.T) {
		addr, cleanup := startTestDNSServer(t, func(w dns.ResponseWriter, r *dns.Msg) {
			m := new(dns.Msg)
			m.SetRcode(r, dns.RcodeNameError)
			_ = w.WriteMsg(m)
		})
		defer cleanup()

		_, err := newTestProber(addr, time.Second).Probe(context.Background(), addr.Addr())
		assert.NoError(t, err)
	})

	t.Run("echoed query is rejected", func(t *testing.T) {
		addr, cleanup := startTestDNSServer(t, func(w dns.ResponseWriter, r *dns.Msg) {
			// Same transaction ID but no QR flag.
			_ = w.WriteMsg(r)
		})
		defer cleanup()

		_, err := newTestProber(addr, time.Second).Probe(context.Background(), addr.Addr())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidResponse), "got %v", err)
	})

	t.Run("spoofed transaction id is rejected", func(t *testing.T) {
		addr, cleanup := startTestDNSServer(t, func(w dns.ResponseWriter, r *dns.Msg) {
			m := new(dns.Msg)
			m.SetReply(r)
			m.Id = r.Id + 1
			_ = w.WriteMsg(m)
		})
		defer cleanup()

		// Depending on the client, a mismatched reply is either reported
		// or ignored until the deadline. Both must fail the probe.
		_, err := newTestProber(addr, 300*time.Millisecond).Probe(context.Background(), addr.Addr())
		assert.Error(t, err)
	})

	t.Run("silent server times out", func(t *testing.T) {
		addr, cleanup := startTestDNSServer(t, func(w dns.ResponseWriter, r *dns.Msg) {
			// Never reply.
		})
		defer cleanup()

		start := time.Now()
		_, err := newTestProber(addr, 200*time.Millisecond).Probe(context.Background(), addr.Addr())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrProbeTimeout), "got %v", err)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("context cancellation returns promptly", func(t *testing.T) {
		addr, cleanup := startTestDNSServer(t, func(w dns.ResponseWriter, r *dns.Msg) {})
		defer cleanup()

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err := newTestProber(addr, 10*time.Second).Probe(ctx, addr.Addr())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrProbeTimeout), "got %v", err)
		assert.Less(t, time.Since(start), 2*time.Second)
	})
}

func TestValidateReply(t *testing.T) {
	query := new(dns.Msg)
	query.SetQuestion("example.com.", dns.TypeA)

	t.Run("nil", func(t *testing.T) {
		assert.Error(t, validateReply(query, nil))
	})

	t.Run("matching reply", func(t *testing.T) {
		reply := new(dns.Msg)
		reply.SetReply(query)
		assert.NoError(t, validateReply(query, reply))
	})

	t.Run("wrong id", func(t *testing.T) {
		reply := new(dns.Msg)
		reply.SetReply(query)
		reply.Id = query.Id + 1
		assert.Error(t, validateReply(query, reply))
	})

	t.Run("not a response", func(t *testing.T) {
		reply := query.Copy()
		assert.Error(t, validateReply(query, reply))
	})
}

func TestValidProbeDomain(t *testing.T) {
	tests := []struct {
		domain string
		want   bool
	}{
		{"google.com", true},
		{"example.com.", true},
		{"a.b.c.example", true},
		{"  google.com  ", true},
		{"localhost", false},
		{"", false},
		{"bad..name", false},
	}

	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			assert.Equal(t, tt.want, validProbeDomain(tt.domain))
		})
	}
}

func TestProbeOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		p, ok := buildOptions(Config{}, nil).prober.(*dnsProber)
		require.True(t, ok)
		assert.Equal(t, defaultProbePort, p.port)
		assert.Equal(t, uint16(defaultEDNS0Size), p.edns0Size)
		assert.Equal(t, "google.com.", p.domain)
	})

	t.Run("custom port and buffer", func(t *testing.T) {
		p, ok := buildOptions(Config{}, []Option{
			WithProbePort("5353"),
			WithEDNS0Size(512),
		}).prober.(*dnsProber)
		require.True(t, ok)
		assert.Equal(t, "5353", p.port)
		assert.Equal(t, uint16(512), p.edns0Size)
	})

	t.Run("empty port keeps default", func(t *testing.T) {
		p, ok := buildOptions(Config{}, []Option{WithProbePort("")}).prober.(*dnsProber)
		require.True(t, ok)
		assert.Equal(t, defaultProbePort, p.port)
	})
}
