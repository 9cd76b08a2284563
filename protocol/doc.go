// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package protocol implements the binary request/response protocol spoken
// between a host and a remote I/O expansion board over a serial link.
//
// A frame is one instruction byte followed by a fixed size payload. Multi
// byte integers are little-endian. The device answers every frame with
// exactly one response; the exchange is strictly half-duplex.
//
// # Wire format
//
//	Request                      Response
//	[TEST, v]                    [OK, v]
//	[ANALOG_WRITE_0|1, lo, hi]   [OK]
//	[ANALOG_READ, ch]            [lo, hi]
//	[DIGITAL_WRITE_0|1, b]       [OK]
//	[DIGITAL_READ_0|1]           [b]
//	anything else                [ERROR]
//
// Value responses carry no status prefix; the host tells them apart by the
// request it sent.
package protocol
