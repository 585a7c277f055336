// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package rotator

import (
	"fmt"
	"net/netip"
	"strings"
)

// ServerPair is a primary/secondary resolver combination applied together
// to a network service. Its identity is the (Primary, Secondary) tuple;
// Label is informational only.
//
// The zero ServerPair means "no servers set", i.e. automatic (DHCP)
// configuration.
type ServerPair struct {
	Primary   netip.Addr
	Secondary netip.Addr
	Label     string
}

// ParsePair parses two textual addresses into a [ServerPair].
func ParsePair(primary, secondary, label string) (ServerPair, error) {
	p, err := netip.ParseAddr(strings.TrimSpace(primary))
	if err != nil {
		return ServerPair{}, fmt.Errorf("%w: primary %q", ErrInvalidPair, primary)
	}
	s, err := netip.ParseAddr(strings.TrimSpace(secondary))
	if err != nil {
		return ServerPair{}, fmt.Errorf("%w: secondary %q", ErrInvalidPair, secondary)
	}
	return ServerPair{Primary: p.Unmap(), Secondary: s.Unmap(), Label: label}, nil
}

// MustParsePair is like [ParsePair] but panics on error.
// It is meant for static tables.
func MustParsePair(primary, secondary, label string) ServerPair {
	pair, err := ParsePair(primary, secondary, label)
	if err != nil {
		panic(err)
	}
	return pair
}

// IsEmpty reports whether the pair carries no addresses.
func (p ServerPair) IsEmpty() bool {
	return !p.Primary.IsValid() && !p.Secondary.IsValid()
}

// Equal reports whether both pairs name the same servers in the same order.
// Labels are ignored.
func (p ServerPair) Equal(o ServerPair) bool {
	return p.Primary == o.Primary && p.Secondary == o.Secondary
}

// Key returns the identity of the pair, suitable as a map key.
func (p ServerPair) Key() string {
	return p.Primary.String() + "," + p.Secondary.String()
}

// String renders the pair for logs, e.g. "1.1.1.1, 1.0.0.1 (Cloudflare)".
func (p ServerPair) String() string {
	if p.IsEmpty() {
		return "empty"
	}
	s := p.Primary.String() + ", " + p.Secondary.String()
	if p.Label != "" {
		s += " (" + p.Label + ")"
	}
	return s
}
