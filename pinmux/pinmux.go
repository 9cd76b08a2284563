// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pinmux

import (
	"fmt"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
)

// Side identifies one of the two independent pin groups.
type Side uint8

const (
	SideA Side = iota
	SideB
)

func (s Side) String() string {
	switch s {
	case SideA:
		return "SideA"
	case SideB:
		return "SideB"
	}
	return fmt.Sprintf("Side(%d)", uint8(s))
}

// Mode is the exclusive role a side is currently bound to.
type Mode uint8

const (
	Unconfigured Mode = iota
	Digital
	Analog
)

func (m Mode) String() string {
	switch m {
	case Unconfigured:
		return "Unconfigured"
	case Digital:
		return "Digital"
	case Analog:
		return "Analog"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// Pin counts of the board.
const (
	SideAPins = 7
	SideBPins = 8
	// ADCChannels is the number of analog channels wired to Side A. Logical
	// channels above it read as 0.
	ADCChannels = 6
	// DACChannels is the number of analog outputs.
	DACChannels = 2
)

// Provider binds physical pins to a peripheral function.
//
// A pin returned by Provider is owned by the caller until its Halt method is
// called, which gives the pin back. Binding a pin that is still held in
// another role must fail.
type Provider interface {
	// Digital binds the pin as a digital input/output whose level can be
	// both driven and read back.
	Digital(name string) (gpio.PinIO, error)
	// Analog binds the pin as an ADC channel.
	Analog(name string) (analog.PinADC, error)
}

// Layout maps each group member to the name of its physical pin.
type Layout struct {
	SideA [SideAPins]string
	SideB [SideBPins]string
	// Analog[i] is the ADC channel sharing the physical pin SideA[i].
	Analog [ADCChannels]string
}

func (l *Layout) validate() error {
	check := func(group string, names []string) error {
		for i, n := range names {
			if n == "" {
				return fmt.Errorf("%w: %s member %d has no pin", errInvalidLayout, group, i)
			}
		}
		return nil
	}
	if err := check("side A", l.SideA[:]); err != nil {
		return err
	}
	if err := check("side B", l.SideB[:]); err != nil {
		return err
	}
	return check("analog", l.Analog[:])
}

// Opts holds the configuration of a Manager.
type Opts struct {
	Layout Layout
	// DAC lists the analog outputs addressed by AnalogWrite. Entries may be
	// nil when the board has no converter fitted.
	DAC [DACChannels]analog.PinDAC

	_ struct{}
}
