// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pinmux owns the two pin groups of a remote I/O board and switches
// each of them between mutually exclusive hardware roles.
//
// Side A has seven pins, the first six of which double as ADC channels. Side
// B has eight digital-only pins. A side is either unconfigured, bound as
// digital input/output, or (Side A only) bound as analog input. The hardware
// allows a single peripheral function per pin, so entering a mode always
// releases every pin held by the previous mode before binding them again.
//
// Manager is not safe for concurrent use; it is meant to be owned by a
// single dispatch loop.
package pinmux
