// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package protocol

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/golang/glog"
)

// Decode reads exactly one frame from r.
//
// It returns a nil Request and a nil error when the instruction is not served
// by the device or when an analog channel is outside [0, 7]; the payload of a
// served instruction is always consumed first so the stream stays aligned.
// Any failure of r to supply the bytes is returned wrapped in ErrRead.
func Decode(r io.Reader) (Request, error) {
	var head [1]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return nil, fmt.Errorf("%w: instruction: %w", ErrRead, err)
	}
	instr := Instruction(head[0])
	if glog.V(2) {
		glog.Infof("protocol: instruction %s (0x%02X)", instr, head[0])
	}

	n, ok := instr.payloadSize()
	if !ok {
		glog.Warningf("protocol: received unknown instruction: 0x%02X", head[0])
		return nil, nil
	}
	var payload [2]byte
	if _, err := io.ReadFull(r, payload[:n]); err != nil {
		return nil, fmt.Errorf("%w: %s payload: %w", ErrRead, instr, err)
	}

	switch instr {
	case Test:
		return InitTest{Value: payload[0]}, nil
	case AnalogWrite0, AnalogWrite1:
		port := AnalogOut1
		if instr == AnalogWrite1 {
			port = AnalogOut2
		}
		return AnalogWrite{Port: port, Value: binary.LittleEndian.Uint16(payload[:])}, nil
	case AnalogReadChan:
		if payload[0] >= AnalogChannels {
			glog.Warningf("protocol: analog channel %d out of range", payload[0])
			return nil, nil
		}
		return AnalogRead{Port: AnalogPort(payload[0])}, nil
	case DigitalWrite0, DigitalWrite1:
		port := SideA
		if instr == DigitalWrite1 {
			port = SideB
		}
		return DigitalWrite{Port: port, Value: payload[0]}, nil
	case DigitalRead0:
		return DigitalRead{Port: SideA}, nil
	case DigitalRead1:
		return DigitalRead{Port: SideB}, nil
	}
	return nil, nil
}

type flusher interface {
	Flush()
}

type flusherErr interface {
	Flush() error
}

// Encode writes resp to w and flushes w when it supports it, so the bytes
// are on the wire before the caller goes back to waiting for a frame.
//
// Failures are returned wrapped in ErrWrite.
func Encode(w io.Writer, resp Response) error {
	if resp == nil {
		return errUnknownResponse
	}
	if _, err := w.Write(resp.Bytes()); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, resp, err)
	}
	if f, ok := w.(flusher); ok {
		f.Flush()
	} else if f, ok := w.(flusherErr); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("%w: flush: %w", ErrWrite, err)
		}
	}
	return nil
}
