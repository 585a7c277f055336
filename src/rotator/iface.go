// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package rotator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lmittmann/tint"
)

// InterfaceResolver picks the network service that is authoritative for
// traffic. Detection order: service priority list, default route,
// configured fallback. An override skips detection.
type InterfaceResolver struct {
	adapter  OSAdapter
	route    RouteProber
	override string
	fallback string
	log      *slog.Logger
}

// NewInterfaceResolver creates a resolver. Pass an empty override to
// enable detection (see [Config.AutoDetect]); route may be nil.
func NewInterfaceResolver(adapter OSAdapter, route RouteProber, override, fallback string, log *slog.Logger) *InterfaceResolver {
	if log == nil {
		log = slog.Default()
	}
	return &InterfaceResolver{
		adapter:  adapter,
		route:    route,
		override: override,
		fallback: fallback,
		log:      log,
	}
}

// Resolve returns the service name to operate on.
func (r *InterfaceResolver) Resolve(ctx context.Context) (string, error) {
	services, listErr := r.adapter.ListServices(ctx)

	if r.override != "" {
		return r.checkOverride(services, listErr)
	}

	if listErr != nil {
		r.log.Debug("listing network services failed", tint.Err(listErr))
	} else if name, ok := r.byPriority(services); ok {
		return name, nil
	}

	if name, ok := r.byRoute(ctx, services); ok {
		return name, nil
	}

	if r.fallback == "" {
		return "", fmt.Errorf("%w: no active service and no fallback configured", ErrInterfaceDetection)
	}
	r.log.Warn("could not auto-detect network service, using fallback; set an interface to override",
		"service", r.fallback)
	return r.fallback, nil
}

func (r *InterfaceResolver) checkOverride(services []Service, listErr error) (string, error) {
	if listErr != nil {
		return "", fmt.Errorf("%w: verify %q: %v", ErrInterfaceDetection, r.override, listErr)
	}
	for _, s := range services {
		if s.Name == r.override {
			return r.override, nil
		}
	}
	return "", fmt.Errorf("%w: service %q does not exist", ErrInterfaceDetection, r.override)
}

func (r *InterfaceResolver) byPriority(services []Service) (string, bool) {
	var up []string
	for _, s := range services {
		if s.Enabled && s.Active {
			up = append(up, s.Name)
		}
	}
	switch len(up) {
	case 0:
		return "", false
	case 1:
		r.log.Info("detected active network service", "service", up[0])
	default:
		r.log.Warn("multiple active network services, using highest priority; set an interface to override",
			"active", strings.Join(up, ", "), "chosen", up[0])
	}
	return up[0], true
}

func (r *InterfaceResolver) byRoute(ctx context.Context, services []Service) (string, bool) {
	if r.route == nil {
		return "", false
	}
	device, err := r.route.DefaultDevice(ctx)
	if err != nil || device == "" {
		r.log.Debug("default route lookup failed", tint.Err(err))
		return "", false
	}
	for _, s := range services {
		if s.Device == device {
			r.log.Info("detected network service via default route", "service", s.Name, "device", device)
			return s.Name, true
		}
	}
	r.log.Debug("default route device has no network service", "device", device)
	return "", false
}
