// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package protocol

import (
	"errors"
)

var (
	// ErrRead is wrapped by every error caused by the link failing to
	// supply the bytes of a frame.
	ErrRead = errors.New("protocol: read error")
	// ErrWrite is wrapped by every error caused by the link failing to
	// accept or flush a response.
	ErrWrite = errors.New("protocol: write error")

	errUnknownResponse = errors.New("protocol: unknown response type")
)
