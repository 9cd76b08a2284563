// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pinmux

import (
	"errors"
)

var (
	// ErrHardware is wrapped by every failure to bind, release, read or
	// drive a pin.
	ErrHardware = errors.New("pinmux: hardware error")
	// ErrUnsupported is returned for operations the board cannot serve, like
	// analog input on Side B or an analog write without a DAC.
	ErrUnsupported = errors.New("pinmux: unsupported")

	errInvalidLayout = errors.New("pinmux: invalid layout")
)
