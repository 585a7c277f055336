// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package rotator

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// Prober sends a single health query to one resolver address.
type Prober interface {
	Probe(ctx context.Context, addr netip.Addr) (time.Duration, error)
}

// dnsProber is the default [Prober]. It resolves an A record for a
// well-known domain and accepts only a reply that echoes the query's
// transaction ID and carries the QR flag.
type dnsProber struct {
	client    *dns.Client
	domain    string
	port      string
	edns0Size uint16
}

func newDNSProber(client *dns.Client, domain, port string, edns0Size uint16) *dnsProber {
	return &dnsProber{
		client:    client,
		domain:    dns.Fqdn(domain),
		port:      port,
		edns0Size: edns0Size,
	}
}

// Probe implements [Prober].
func (p *dnsProber) Probe(ctx context.Context, addr netip.Addr) (time.Duration, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(p.domain, dns.TypeA)
	msg.RecursionDesired = true
	if p.edns0Size > 0 {
		msg.SetEdns0(p.edns0Size, false)
	}

	server := net.JoinHostPort(addr.String(), p.port)

	// Run the exchange in a goroutine so a cancelled context returns
	// immediately instead of waiting out the read deadline.
	type exchangeResult struct {
		resp *dns.Msg
		rtt  time.Duration
		err  error
	}
	ch := make(chan exchangeResult, 1)

	go func() {
		resp, rtt, err := p.client.ExchangeContext(ctx, msg, server)
		ch <- exchangeResult{resp: resp, rtt: rtt, err: err}
	}()

	var res exchangeResult
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%w: %s: %v", ErrProbeTimeout, server, ctx.Err())
	case res = <-ch:
	}

	if res.err != nil {
		if errors.Is(res.err, dns.ErrId) {
			return 0, fmt.Errorf("%w: %s: transaction id mismatch", ErrInvalidResponse, server)
		}
		var netErr net.Error
		if errors.As(res.err, &netErr) && netErr.Timeout() {
			return 0, fmt.Errorf("%w: %s", ErrProbeTimeout, server)
		}
		return 0, fmt.Errorf("rotator: probe %s: %w", server, res.err)
	}

	if err := validateReply(msg, res.resp); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidResponse, server, err)
	}

	return res.rtt, nil
}

// validateReply rejects replies that do not answer the outstanding query.
func validateReply(query, reply *dns.Msg) error {
	switch {
	case reply == nil:
		return errors.New("empty reply")
	case reply.Id != query.Id:
		return fmt.Errorf("transaction id %d, want %d", reply.Id, query.Id)
	case !reply.Response:
		return errors.New("reply is not flagged as a response")
	}
	return nil
}

// validProbeDomain reports whether domain can be used as the probe target:
// a syntactically valid name with at least two labels.
func validProbeDomain(domain string) bool {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return false
	}
	if _, ok := dns.IsDomainName(domain); !ok {
		return false
	}
	return dns.CountLabel(dns.Fqdn(domain)) >= 2
}
