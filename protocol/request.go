// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package protocol

import (
	"fmt"
)

// DigitalPort selects the physical pin group a digital request targets.
type DigitalPort uint8

const (
	SideA DigitalPort = iota
	SideB
)

func (p DigitalPort) String() string {
	switch p {
	case SideA:
		return "SideA"
	case SideB:
		return "SideB"
	}
	return fmt.Sprintf("DigitalPort(%d)", uint8(p))
}

// AnalogOutPort selects one of the two analog outputs.
type AnalogOutPort uint8

const (
	AnalogOut1 AnalogOutPort = iota
	AnalogOut2
)

func (p AnalogOutPort) String() string {
	return fmt.Sprintf("AnalogOut%d", uint8(p)+1)
}

// AnalogPort is a logical analog input channel in the range [0, 7].
type AnalogPort uint8

// AnalogChannels is the size of the logical analog input address space.
const AnalogChannels = 8

func (p AnalogPort) String() string {
	return fmt.Sprintf("A%d", uint8(p))
}

// Request is one decoded frame. The concrete types are InitTest,
// AnalogWrite, AnalogRead, DigitalWrite and DigitalRead.
type Request interface {
	fmt.Stringer
	// Bytes returns the frame as sent by a host.
	Bytes() []byte

	request()
}

// InitTest asks the device to echo Value.
type InitTest struct {
	Value byte
}

// AnalogWrite sets an analog output.
type AnalogWrite struct {
	Port  AnalogOutPort
	Value uint16
}

// AnalogRead samples an analog input channel.
type AnalogRead struct {
	Port AnalogPort
}

// DigitalWrite drives every pin of a group, bit i to member i.
type DigitalWrite struct {
	Port  DigitalPort
	Value byte
}

// DigitalRead samples every pin of a group.
type DigitalRead struct {
	Port DigitalPort
}

func (r InitTest) Bytes() []byte { return []byte{byte(Test), r.Value} }

func (r AnalogWrite) Bytes() []byte {
	i := AnalogWrite0
	if r.Port == AnalogOut2 {
		i = AnalogWrite1
	}
	return []byte{byte(i), byte(r.Value), byte(r.Value >> 8)}
}

func (r AnalogRead) Bytes() []byte { return []byte{byte(AnalogReadChan), byte(r.Port)} }

func (r DigitalWrite) Bytes() []byte {
	i := DigitalWrite0
	if r.Port == SideB {
		i = DigitalWrite1
	}
	return []byte{byte(i), r.Value}
}

func (r DigitalRead) Bytes() []byte {
	i := DigitalRead0
	if r.Port == SideB {
		i = DigitalRead1
	}
	return []byte{byte(i)}
}

func (r InitTest) String() string {
	return fmt.Sprintf("InitTest(0x%02X)", r.Value)
}

func (r AnalogWrite) String() string {
	return fmt.Sprintf("AnalogWrite(%s, %d)", r.Port, r.Value)
}

func (r AnalogRead) String() string {
	return fmt.Sprintf("AnalogRead(%s)", r.Port)
}

func (r DigitalWrite) String() string {
	return fmt.Sprintf("DigitalWrite(%s, 0x%02X)", r.Port, r.Value)
}

func (r DigitalRead) String() string {
	return fmt.Sprintf("DigitalRead(%s)", r.Port)
}

func (InitTest) request()     {}
func (AnalogWrite) request()  {}
func (AnalogRead) request()   {}
func (DigitalWrite) request() {}
func (DigitalRead) request()  {}
