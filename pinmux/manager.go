// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pinmux

import (
	"errors"
	"fmt"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/analog"
)

// group tracks the live state of one side.
type group struct {
	side  Side
	state state
}

// transitionTo replaces the current state with the one returned by bind. The
// previous state is always released first, so a side never holds two roles,
// and is left Unconfigured when either step fails.
func (g *group) transitionTo(to Mode, bind func() (state, error)) error {
	from := g.state.mode()
	err := g.state.release()
	g.state = unconfigured{}
	if err != nil {
		return fmt.Errorf("%s: leave %s: %w", g.side, from, err)
	}
	s, err := bind()
	if err != nil {
		return fmt.Errorf("%s: enter %s: %w", g.side, to, err)
	}
	g.state = s
	if glog.V(1) {
		glog.Infof("pinmux: %s %s -> %s", g.side, from, to)
	}
	return nil
}

// Manager owns both sides of the board and the analog outputs.
type Manager struct {
	p      Provider
	layout Layout
	dac    [DACChannels]analog.PinDAC
	sides  [2]group
}

// New returns a Manager binding pins through p. Both sides start
// Unconfigured; nothing is bound until the first request needs it.
func New(p Provider, opts *Opts) (*Manager, error) {
	if err := opts.Layout.validate(); err != nil {
		return nil, err
	}
	m := &Manager{p: p, layout: opts.Layout, dac: opts.DAC}
	for i := range m.sides {
		m.sides[i] = group{side: Side(i), state: unconfigured{}}
	}
	return m, nil
}

func (m *Manager) lookup(side Side) (*group, error) {
	if int(side) >= len(m.sides) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, side)
	}
	return &m.sides[side], nil
}

// Mode returns the role side is currently bound to.
func (m *Manager) Mode(side Side) Mode {
	g, err := m.lookup(side)
	if err != nil {
		return Unconfigured
	}
	return g.state.mode()
}

// EnsureDigital returns the digital set of side, binding it if the side is
// in any other mode.
func (m *Manager) EnsureDigital(side Side) (*DigitalSet, error) {
	g, err := m.lookup(side)
	if err != nil {
		return nil, err
	}
	if s, ok := g.state.(*DigitalSet); ok {
		return s, nil
	}
	names := m.layout.SideA[:]
	if side == SideB {
		names = m.layout.SideB[:]
	}
	err = g.transitionTo(Digital, func() (state, error) {
		return bindDigital(m.p, names)
	})
	if err != nil {
		return nil, err
	}
	return g.state.(*DigitalSet), nil
}

// EnsureAnalog returns the ADC set of side, binding it if the side is in any
// other mode. Only Side A has analog inputs.
func (m *Manager) EnsureAnalog(side Side) (*AnalogSet, error) {
	g, err := m.lookup(side)
	if err != nil {
		return nil, err
	}
	if side != SideA {
		return nil, fmt.Errorf("%w: no analog inputs on %s", ErrUnsupported, side)
	}
	if s, ok := g.state.(*AnalogSet); ok {
		return s, nil
	}
	err = g.transitionTo(Analog, func() (state, error) {
		return bindAnalog(m.p, m.layout.Analog[:])
	})
	if err != nil {
		return nil, err
	}
	return g.state.(*AnalogSet), nil
}

// DigitalRead returns the levels of side packed in a byte. Side A fills bits
// 0 to 6, Side B bits 0 to 7.
func (m *Manager) DigitalRead(side Side) (byte, error) {
	s, err := m.EnsureDigital(side)
	if err != nil {
		return 0, err
	}
	return s.Read(), nil
}

// DigitalWrite drives the pins of side from the bits of v.
func (m *Manager) DigitalWrite(side Side, v byte) error {
	s, err := m.EnsureDigital(side)
	if err != nil {
		return err
	}
	return s.Write(v)
}

// AnalogRead samples a logical analog channel in [0, 7].
//
// Channels 6 and 7 exist in the protocol address space but are not wired;
// they read as 0 and leave the mode of Side A untouched. This differs on
// purpose from a read of channels 0 to 5: polling an unwired channel does
// not release a Side A bound as digital.
func (m *Manager) AnalogRead(channel int) (uint16, error) {
	if channel < 0 {
		return 0, fmt.Errorf("%w: analog channel %d", ErrUnsupported, channel)
	}
	if channel >= ADCChannels {
		return 0, nil
	}
	s, err := m.EnsureAnalog(SideA)
	if err != nil {
		return 0, err
	}
	return s.Read(channel)
}

// AnalogWrite sets analog output port to value. The value is clamped to the
// range of the converter.
func (m *Manager) AnalogWrite(port int, value uint16) error {
	if port < 0 || port >= len(m.dac) || m.dac[port] == nil {
		return fmt.Errorf("%w: no analog output %d", ErrUnsupported, port)
	}
	dac := m.dac[port]
	_, hi := dac.Range()
	v := int32(value)
	if v > hi.Raw {
		v = hi.Raw
	}
	if err := dac.Out(v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrHardware, dac, err)
	}
	return nil
}

// Halt releases every pin held by both sides.
func (m *Manager) Halt() error {
	var errs []error
	for i := range m.sides {
		g := &m.sides[i]
		if err := g.state.release(); err != nil {
			errs = append(errs, err)
		}
		g.state = unconfigured{}
	}
	return errors.Join(errs...)
}

func (m *Manager) String() string {
	return fmt.Sprintf("pinmux{%s: %s, %s: %s}",
		SideA, m.sides[SideA].state.mode(), SideB, m.sides[SideB].state.mode())
}
