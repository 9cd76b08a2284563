// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package remoteio turns a single board computer into a remote I/O expander
// driven over a serial link.
//
// The host sends one byte requests, some followed by a payload, and the
// board answers each one before reading the next. Two 8 bit digital ports
// and up to eight analog channels are exposed; the pins of side A double as
// analog inputs, so the pinmux package switches them between digital and
// analog use on demand.
//
// The packages are layered as follows:
//
//	protocol    wire format of requests and responses
//	pinmux      exclusive digital/analog ownership of the pins
//	board       periph.io host pins and iioadc channels behind pinmux
//	mcp472x     I²C DAC used for the analog outputs
//	nrzled      single wire RGB status LED, screen1d draws it on a terminal
//	seriallink  the serial port
//	expander    the request loop tying it all together
//	config      YAML configuration of the above
//
// The executable is cmd/remoteio.
package remoteio
