// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package protocol

import (
	"fmt"
)

// Instruction is the first byte of every request frame.
type Instruction uint8

// Instructions known to the protocol. Only a subset is served by the device;
// the rest are reserved and decode as an unknown request.
const (
	Discard        Instruction = 0x00
	Test           Instruction = 0x01 // echo value
	Info           Instruction = 0x02
	IntTest        Instruction = 0x03
	SelfTest       Instruction = 0x04
	DigitalWrite0  Instruction = 0x05 // value
	DigitalWrite1  Instruction = 0x06 // value
	DigitalRead0   Instruction = 0x07 //
	DigitalRead1   Instruction = 0x08 //
	ReadDIPSwitch  Instruction = 0x09
	AnalogWrite0   Instruction = 0x0A // LSB	MSB
	AnalogWrite1   Instruction = 0x0B // LSB	MSB
	AnalogReadChan Instruction = 0x0C // channel (0-7)
	ADCDACStroke   Instruction = 0x0D
	PWMSetFreq     Instruction = 0x0E
	PWMSetValue    Instruction = 0x0F
)

// Status bytes sent by the device.
const (
	StatusOK    byte = 0xFF
	StatusError byte = 0xFE
)

// MaxDataSize is the largest payload the firmware reserves buffers for.
const MaxDataSize = 64

var instructionToStringMap = map[Instruction]string{
	Discard:        "Discard",
	Test:           "Test",
	Info:           "Info",
	IntTest:        "IntTest",
	SelfTest:       "SelfTest",
	DigitalWrite0:  "DigitalWrite0",
	DigitalWrite1:  "DigitalWrite1",
	DigitalRead0:   "DigitalRead0",
	DigitalRead1:   "DigitalRead1",
	ReadDIPSwitch:  "ReadDIPSwitch",
	AnalogWrite0:   "AnalogWrite0",
	AnalogWrite1:   "AnalogWrite1",
	AnalogReadChan: "AnalogRead",
	ADCDACStroke:   "ADCDACStroke",
	PWMSetFreq:     "PWMSetFreq",
	PWMSetValue:    "PWMSetValue",
}

func (i Instruction) String() string {
	if v, ok := instructionToStringMap[i]; ok {
		return v
	}
	return fmt.Sprintf("Unknown(0x%02X)", uint8(i))
}

// payloadSize returns the number of payload bytes following i, and whether i
// is served by the device at all.
func (i Instruction) payloadSize() (int, bool) {
	switch i {
	case Test, DigitalWrite0, DigitalWrite1, AnalogReadChan:
		return 1, true
	case AnalogWrite0, AnalogWrite1:
		return 2, true
	case DigitalRead0, DigitalRead1:
		return 0, true
	}
	return 0, false
}
