// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package protocol

import (
	"encoding/binary"
	"fmt"
)

// Response is sent back for every frame. The concrete types are OK, Error,
// TestEcho, AnalogValue and DigitalValue.
type Response interface {
	fmt.Stringer
	// Bytes returns the response as it appears on the wire.
	Bytes() []byte

	response()
}

// OK acknowledges a write.
type OK struct{}

// Error rejects a frame that was unknown, malformed or could not be served.
type Error struct{}

// TestEcho answers InitTest.
type TestEcho struct {
	Value byte
}

// AnalogValue answers AnalogRead with a raw sample.
type AnalogValue struct {
	Value uint16
}

// DigitalValue answers DigitalRead with the packed pin levels.
type DigitalValue struct {
	Value byte
}

func (OK) Bytes() []byte             { return []byte{StatusOK} }
func (Error) Bytes() []byte          { return []byte{StatusError} }
func (r TestEcho) Bytes() []byte     { return []byte{StatusOK, r.Value} }
func (r DigitalValue) Bytes() []byte { return []byte{r.Value} }

func (r AnalogValue) Bytes() []byte {
	return binary.LittleEndian.AppendUint16(nil, r.Value)
}

func (OK) String() string             { return "OK" }
func (Error) String() string          { return "Error" }
func (r TestEcho) String() string     { return fmt.Sprintf("TestEcho(0x%02X)", r.Value) }
func (r AnalogValue) String() string  { return fmt.Sprintf("AnalogValue(%d)", r.Value) }
func (r DigitalValue) String() string { return fmt.Sprintf("DigitalValue(0x%02X)", r.Value) }

func (OK) response()           {}
func (Error) response()        {}
func (TestEcho) response()     {}
func (AnalogValue) response()  {}
func (DigitalValue) response() {}
