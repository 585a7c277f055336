// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package rotator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	wifi     = Service{Name: "Wi-Fi", Device: "en0", Enabled: true, Active: true}
	ethernet = Service{Name: "USB 10/100/1000 LAN", Device: "en7", Enabled: true, Active: true}
	idle     = Service{Name: "Thunderbolt Bridge", Device: "bridge0", Enabled: true}
	disabled = Service{Name: "Bluetooth PAN", Device: "en5", Active: true}
)

func TestResolveOverride(t *testing.T) {
	t.Run("existing service", func(t *testing.T) {
		adapter := newFakeAdapter(wifi, idle)
		r := NewInterfaceResolver(adapter, nil, "Thunderbolt Bridge", "Wi-Fi", nil)

		got, err := r.Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Thunderbolt Bridge", got, "an override skips detection, even for an idle service")
	})

	t.Run("unknown service", func(t *testing.T) {
		adapter := newFakeAdapter(wifi)
		r := NewInterfaceResolver(adapter, nil, "Ethernet", "Wi-Fi", nil)

		_, err := r.Resolve(context.Background())
		assert.True(t, errors.Is(err, ErrInterfaceDetection), "got %v", err)
	})

	t.Run("cannot verify", func(t *testing.T) {
		adapter := newFakeAdapter(wifi)
		adapter.listErr = errFake
		r := NewInterfaceResolver(adapter, nil, "Wi-Fi", "Wi-Fi", nil)

		_, err := r.Resolve(context.Background())
		assert.True(t, errors.Is(err, ErrInterfaceDetection), "got %v", err)
	})

	t.Run("empty means detect", func(t *testing.T) {
		adapter := newFakeAdapter(idle, wifi)
		r := NewInterfaceResolver(adapter, nil, "", "", nil)

		got, err := r.Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Wi-Fi", got)
	})
}

func TestResolveByPriority(t *testing.T) {
	t.Run("single active service", func(t *testing.T) {
		logger, buf := captureLogger()
		adapter := newFakeAdapter(idle, disabled, wifi)
		r := NewInterfaceResolver(adapter, nil, "", "", logger)

		got, err := r.Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Wi-Fi", got)
		assert.NotContains(t, buf.String(), "multiple active")
	})

	t.Run("multiple active services use the highest priority", func(t *testing.T) {
		logger, buf := captureLogger()
		adapter := newFakeAdapter(ethernet, wifi)
		r := NewInterfaceResolver(adapter, nil, "", "", logger)

		got, err := r.Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, ethernet.Name, got)
		assert.Contains(t, buf.String(), "multiple active network services")
		assert.Contains(t, buf.String(), "Wi-Fi")
	})
}

func TestResolveByRoute(t *testing.T) {
	adapter := newFakeAdapter(idle, Service{Name: "Ethernet", Device: "en1", Enabled: true})
	r := NewInterfaceResolver(adapter, fakeRoute{device: "en1"}, "", "Wi-Fi", nil)

	got, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ethernet", got)
}

func TestResolveFallback(t *testing.T) {
	t.Run("nothing detected", func(t *testing.T) {
		logger, buf := captureLogger()
		adapter := newFakeAdapter(idle)
		r := NewInterfaceResolver(adapter, fakeRoute{err: errFake}, "", "Wi-Fi", logger)

		got, err := r.Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Wi-Fi", got)
		assert.Contains(t, buf.String(), "using fallback")
	})

	t.Run("route device without a service", func(t *testing.T) {
		adapter := newFakeAdapter(idle)
		r := NewInterfaceResolver(adapter, fakeRoute{device: "utun4"}, "", "Wi-Fi", nil)

		got, err := r.Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Wi-Fi", got)
	})

	t.Run("listing fails", func(t *testing.T) {
		adapter := newFakeAdapter(wifi)
		adapter.listErr = errFake
		r := NewInterfaceResolver(adapter, fakeRoute{device: "en0"}, "", "Wi-Fi", nil)

		got, err := r.Resolve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Wi-Fi", got)
	})

	t.Run("no fallback configured", func(t *testing.T) {
		adapter := newFakeAdapter(idle)
		r := NewInterfaceResolver(adapter, nil, "", "", nil)

		_, err := r.Resolve(context.Background())
		assert.True(t, errors.Is(err, ErrInterfaceDetection), "got %v", err)
	})
}
