// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package board binds the pins of the host running the expander.
//
// Digital pins are looked up in the periph GPIO registry and analog inputs
// are read from Linux IIO. A physical pin is held by a single role at a
// time; an ADC channel multiplexed on a GPIO is the same physical pin.
package board

import (
	"errors"
	"fmt"
	"sync"

	"github.com/GermanBionicSystems/remoteio/iioadc"
	"github.com/GermanBionicSystems/remoteio/pinmux"
	"github.com/golang/glog"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// ErrPinInUse is returned when binding a pin held in another role.
var ErrPinInUse = errors.New("board: pin in use")

// Init loads the periph host drivers. It is safe to call multiple times.
func Init() error {
	state, err := host.Init()
	if err != nil {
		return fmt.Errorf("board: %w", err)
	}
	if glog.V(1) {
		for _, d := range state.Loaded {
			glog.Infof("board: loaded driver %s", d)
		}
	}
	for _, f := range state.Failed {
		glog.Warningf("board: driver %s failed: %v", f.D, f.Err)
	}
	return nil
}

// Shares returns the ADC channel to GPIO pairs of l.
func Shares(l *pinmux.Layout) map[string]string {
	m := make(map[string]string, len(l.Analog))
	for i, name := range l.Analog {
		m[name] = l.SideA[i]
	}
	return m
}

// Opts holds the configuration of a Provider.
type Opts struct {
	// Shares maps an ADC channel name to the GPIO it is multiplexed with.
	Shares map[string]string
	ADC    iioadc.Opts

	_ struct{}
}

// Provider implements pinmux.Provider on the host.
type Provider struct {
	shares map[string]string
	adc    iioadc.Opts
	byName func(string) gpio.PinIO

	mu   sync.Mutex
	held map[string]pinmux.Mode
}

// New returns a Provider. Init must have succeeded first.
func New(opts *Opts) *Provider {
	return &Provider{
		shares: opts.Shares,
		adc:    opts.ADC,
		byName: gpioreg.ByName,
		held:   map[string]pinmux.Mode{},
	}
}

func (p *Provider) String() string {
	return "board"
}

// Digital implements pinmux.Provider.
//
// The pin starts as an input with its pull unchanged, so nothing is driven
// until the first write.
func (p *Provider) Digital(name string) (gpio.PinIO, error) {
	pin := p.byName(name)
	if pin == nil {
		return nil, fmt.Errorf("board: unknown gpio %q", name)
	}
	if err := p.claim(name, pinmux.Digital); err != nil {
		return nil, err
	}
	if err := pin.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		p.unclaim(name)
		return nil, fmt.Errorf("board: %s: %w", pin, err)
	}
	return &heldPin{PinIO: pin, release: func() { p.unclaim(name) }}, nil
}

// Analog implements pinmux.Provider.
func (p *Provider) Analog(name string) (analog.PinADC, error) {
	physical := name
	if g, ok := p.shares[name]; ok {
		physical = g
	}
	if err := p.claim(physical, pinmux.Analog); err != nil {
		return nil, err
	}
	ch, err := iioadc.Open(name, &p.adc)
	if err != nil {
		p.unclaim(physical)
		return nil, err
	}
	return &heldADC{PinADC: ch, release: func() { p.unclaim(physical) }}, nil
}

func (p *Provider) claim(name string, role pinmux.Mode) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if r, ok := p.held[name]; ok {
		return fmt.Errorf("%w: %s held as %s", ErrPinInUse, name, r)
	}
	p.held[name] = role
	return nil
}

func (p *Provider) unclaim(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.held, name)
}

// heldPin gives the pin back to its Provider on Halt, as a floating input.
type heldPin struct {
	gpio.PinIO
	once    sync.Once
	release func()
}

// Halt stops driving the pin before releasing it, so that it is not an
// output while bound as an ADC input. Only the first call has an effect.
func (h *heldPin) Halt() error {
	var err error
	h.once.Do(func() {
		defer h.release()
		if err = h.PinIO.In(gpio.Float, gpio.NoEdge); err != nil {
			err = fmt.Errorf("board: %s: %w", h.PinIO, err)
		}
		if herr := h.PinIO.Halt(); err == nil && herr != nil {
			err = fmt.Errorf("board: %s: %w", h.PinIO, herr)
		}
	})
	return err
}

type heldADC struct {
	analog.PinADC
	once    sync.Once
	release func()
}

func (h *heldADC) Halt() error {
	err := h.PinADC.Halt()
	h.once.Do(h.release)
	return err
}

var _ pinmux.Provider = &Provider{}
