// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package rotator

import "context"

// Service describes one network service as reported by the OS, in the
// user-defined priority order.
type Service struct {
	// Name is the service name, e.g. "Wi-Fi".
	Name string

	// Device is the underlying hardware device, e.g. "en0".
	// It may be empty when the OS does not report one.
	Device string

	// Enabled reports whether the service is enabled in the OS settings.
	Enabled bool

	// Active reports whether the underlying device is up and carries
	// an address.
	Active bool
}

// OSAdapter is the only code path allowed to read or write the OS DNS
// configuration. Implementations must bound every call with a timeout.
type OSAdapter interface {
	// GetDNS returns the servers currently configured on the service.
	// An empty pair means automatic (DHCP) configuration.
	GetDNS(ctx context.Context, service string) (ServerPair, error)

	// SetDNS writes the pair to the service. Passing the zero pair
	// restores automatic (DHCP) configuration.
	SetDNS(ctx context.Context, service string, pair ServerPair) error

	// ListServices returns the network services in priority order.
	ListServices(ctx context.Context) ([]Service, error)
}

// RouteProber maps the default route to a network service.
type RouteProber interface {
	// DefaultDevice returns the device carrying the default route.
	DefaultDevice(ctx context.Context) (string, error)
}

// TunnelDetector reports VPN-like interfaces that are currently up.
// It is only used to enrich overwrite warnings.
type TunnelDetector interface {
	ActiveTunnels(ctx context.Context) ([]string, error)
}
