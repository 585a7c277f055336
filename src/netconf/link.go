// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netconf

import (
	"context"
	"net/netip"
	"slices"
	"strings"

	psnet "github.com/shirou/gopsutil/net"
)

// tunnelPrefixes are interface name prefixes used by VPN clients.
var tunnelPrefixes = []string{"utun", "ppp", "tun", "tap", "ipsec", "wg"}

// link is the part of an OS interface this package cares about.
type link struct {
	name  string
	up    bool
	addrs []string
}

// connected reports whether the link is up and has a routable address.
// IPv6 link-local addresses are present on idle interfaces too, so they
// do not count.
func (l link) connected() bool {
	if !l.up {
		return false
	}
	for _, a := range l.addrs {
		prefix, err := netip.ParsePrefix(a)
		if err != nil {
			continue
		}
		addr := prefix.Addr()
		if addr.IsLoopback() || addr.IsLinkLocalUnicast() {
			continue
		}
		return true
	}
	return false
}

func (l link) tunnel() bool {
	for _, p := range tunnelPrefixes {
		if strings.HasPrefix(l.name, p) {
			return true
		}
	}
	return false
}

func systemLinks(ctx context.Context) ([]link, error) {
	stats, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	links := make([]link, 0, len(stats))
	for _, st := range stats {
		l := link{
			name: st.Name,
			up:   slices.Contains(st.Flags, "up"),
		}
		for _, a := range st.Addrs {
			l.addrs = append(l.addrs, a.Addr)
		}
		links = append(links, l)
	}
	return links, nil
}

// ActiveTunnels implements [rotator.TunnelDetector]. A tunnel counts as
// active when it is up and carries a routable address, which filters
// out the idle utun devices macOS creates for system services.
func (n *NetworkSetup) ActiveTunnels(ctx context.Context) ([]string, error) {
	links, err := n.links(ctx)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, l := range links {
		if l.tunnel() && l.connected() {
			names = append(names, l.name)
		}
	}
	return names, nil
}
