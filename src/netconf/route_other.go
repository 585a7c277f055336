// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

//go:build !(darwin || dragonfly || freebsd || netbsd || openbsd)

package netconf

import (
	"errors"
	"fmt"
)

func defaultRouteDevice() (string, error) {
	return "", fmt.Errorf("%w: %w", errNoDefaultRoute, errors.ErrUnsupported)
}
