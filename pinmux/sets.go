// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pinmux

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
)

// state is the variant held by a side. Exactly one is live per side.
type state interface {
	mode() Mode
	// release gives every bound pin back to the provider.
	release() error
}

type unconfigured struct{}

func (unconfigured) mode() Mode     { return Unconfigured }
func (unconfigured) release() error { return nil }

// DigitalSet is a side bound as digital input/output. Member i of the group
// maps to bit i of the values read and written.
type DigitalSet struct {
	pins []gpio.PinIO
}

func bindDigital(p Provider, names []string) (*DigitalSet, error) {
	s := &DigitalSet{pins: make([]gpio.PinIO, 0, len(names))}
	for _, name := range names {
		pin, err := p.Digital(name)
		if err != nil {
			// Give back what was bound so far; the bind error is the one
			// worth reporting.
			_ = s.release()
			return nil, fmt.Errorf("%w: bind %s as digital: %w", ErrHardware, name, err)
		}
		s.pins = append(s.pins, pin)
	}
	return s, nil
}

// Len returns the number of pins in the set.
func (s *DigitalSet) Len() int {
	return len(s.pins)
}

// Read samples every pin and packs the levels, member 0 in bit 0.
func (s *DigitalSet) Read() byte {
	var v byte
	for i, p := range s.pins {
		if p.Read() == gpio.High {
			v |= 1 << i
		}
	}
	return v
}

// Write drives member i High when bit i of v is set, Low otherwise. Bits
// beyond the set size are ignored.
func (s *DigitalSet) Write(v byte) error {
	for i, p := range s.pins {
		l := gpio.Level(v&(1<<i) != 0)
		if err := p.Out(l); err != nil {
			return fmt.Errorf("%w: drive %s %s: %w", ErrHardware, p, l, err)
		}
	}
	return nil
}

func (s *DigitalSet) mode() Mode { return Digital }

func (s *DigitalSet) release() error {
	return haltAll(s.pins)
}

// AnalogSet is Side A bound as ADC inputs.
type AnalogSet struct {
	channels []analog.PinADC
}

func bindAnalog(p Provider, names []string) (*AnalogSet, error) {
	s := &AnalogSet{channels: make([]analog.PinADC, 0, len(names))}
	for _, name := range names {
		ch, err := p.Analog(name)
		if err != nil {
			_ = s.release()
			return nil, fmt.Errorf("%w: bind %s as analog: %w", ErrHardware, name, err)
		}
		s.channels = append(s.channels, ch)
	}
	return s, nil
}

// Len returns the number of bound ADC channels.
func (s *AnalogSet) Len() int {
	return len(s.channels)
}

// Read returns the raw sample of channel ch, clamped to the 16 bit range of
// the wire protocol. Channels at or beyond Len read as 0.
func (s *AnalogSet) Read(ch int) (uint16, error) {
	if ch < 0 || ch >= len(s.channels) {
		return 0, nil
	}
	sample, err := s.channels[ch].Read()
	if err != nil {
		return 0, fmt.Errorf("%w: sample %s: %w", ErrHardware, s.channels[ch], err)
	}
	switch {
	case sample.Raw < 0:
		return 0, nil
	case sample.Raw > 0xFFFF:
		return 0xFFFF, nil
	}
	return uint16(sample.Raw), nil
}

func (s *AnalogSet) mode() Mode { return Analog }

func (s *AnalogSet) release() error {
	return haltAll(s.channels)
}

// haltAll halts every resource, even after a failure, and reports all
// failures.
func haltAll[R conn.Resource](resources []R) error {
	var errs []error
	for _, r := range resources {
		if err := r.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", r, err))
		}
	}
	if len(errs) != 0 {
		return fmt.Errorf("%w: %w", ErrHardware, errors.Join(errs...))
	}
	return nil
}
