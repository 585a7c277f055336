// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

//go:build darwin || dragonfly || freebsd || netbsd || openbsd

package netconf

import (
	"fmt"
	"net"
	"syscall"

	"golang.org/x/net/route"
)

// defaultRouteDevice returns the device carrying the IPv4 default route,
// taken from the first default route in the table that is up and has a
// gateway.
func defaultRouteDevice() (string, error) {
	rib, err := route.FetchRIB(syscall.AF_INET, route.RIBTypeRoute, 0)
	if err != nil {
		return "", fmt.Errorf("netconf: fetch routing table: %w", err)
	}
	msgs, err := route.ParseRIB(route.RIBTypeRoute, rib)
	if err != nil {
		return "", fmt.Errorf("netconf: parse routing table: %w", err)
	}

	for _, m := range msgs {
		rm, ok := m.(*route.RouteMessage)
		if !ok || !isDefaultRoute(rm) {
			continue
		}
		ifi, err := net.InterfaceByIndex(rm.Index)
		if err != nil {
			continue
		}
		return ifi.Name, nil
	}
	return "", errNoDefaultRoute
}

func isDefaultRoute(rm *route.RouteMessage) bool {
	const want = syscall.RTF_UP | syscall.RTF_GATEWAY
	if rm.Flags&want != want || len(rm.Addrs) <= syscall.RTAX_DST {
		return false
	}
	dst, ok := rm.Addrs[syscall.RTAX_DST].(*route.Inet4Addr)
	if !ok || dst.IP != [4]byte{} {
		return false
	}
	if len(rm.Addrs) > syscall.RTAX_NETMASK {
		if mask, ok := rm.Addrs[syscall.RTAX_NETMASK].(*route.Inet4Addr); ok && mask.IP != [4]byte{} {
			return false
		}
	}
	return true
}
