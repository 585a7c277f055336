// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package netconf

import (
	"bufio"
	"bytes"
	"net/netip"
	"regexp"
	"strings"

	"github.com/H0llyW00dzZ/dns-rotator/src/rotator"
)

var (
	// "(1) Wi-Fi" or "(*) Bluetooth PAN" for a disabled service.
	serviceLine = regexp.MustCompile(`^\((\d+|\*)\)\s+(.+)$`)
	// "(Hardware Port: Wi-Fi, Device: en0)"
	portLine = regexp.MustCompile(`^\(Hardware Port:\s*(.*),\s*Device:\s*(.*)\)$`)
)

// parseServiceOrder parses networksetup -listnetworkserviceorder.
func parseServiceOrder(out []byte) []rotator.Service {
	var (
		services []rotator.Service
		current  = -1
	)
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if m := serviceLine.FindStringSubmatch(line); m != nil {
			services = append(services, rotator.Service{
				Name:    strings.TrimSpace(m[2]),
				Enabled: m[1] != "*",
			})
			current = len(services) - 1
			continue
		}
		if m := portLine.FindStringSubmatch(line); m != nil && current >= 0 {
			services[current].Device = strings.TrimSpace(m[2])
			current = -1
		}
	}
	return services
}

// parseDNSServers parses networksetup -getdnsservers. Lines that are not
// addresses, such as "There aren't any DNS Servers set on Wi-Fi.", are
// ignored. A single address is used as both primary and secondary.
func parseDNSServers(out []byte) rotator.ServerPair {
	var addrs []netip.Addr
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		addr, err := netip.ParseAddr(strings.TrimSpace(sc.Text()))
		if err != nil {
			continue
		}
		addrs = append(addrs, addr.Unmap())
	}
	switch len(addrs) {
	case 0:
		return rotator.ServerPair{}
	case 1:
		return rotator.ServerPair{Primary: addrs[0], Secondary: addrs[0]}
	default:
		return rotator.ServerPair{Primary: addrs[0], Secondary: addrs[1]}
	}
}
