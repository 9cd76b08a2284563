// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package pinmuxtest is meant to be used to test code using a
// pinmux.Provider with fake pins.
//
// The fake enforces the same rule as the hardware: a physical pin can be
// held in a single role at a time. Pin levels and ADC samples live on the
// physical pin, so they survive releasing and binding it again, which makes
// a digital write readable back as a loopback.
package pinmuxtest

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/pin"
)

// ErrPinInUse is returned when binding a pin that is still held.
var ErrPinInUse = errors.New("pinmuxtest: pin in use")

// Role is what a fake pin is currently bound as.
type Role string

const (
	Free      Role = ""
	DigitalIO Role = "digital"
	AnalogIn  Role = "analog"
)

// ADCMax is the full scale raw value of the fake ADC channels.
const ADCMax = 1<<12 - 1

// Provider implements pinmux.Provider.
//
// Modify its exported members to simulate hardware faults. Grab the Mutex
// before accessing them while a test is running.
type Provider struct {
	sync.Mutex

	// Samples holds the raw ADC value of a pin.
	Samples map[string]int32
	// BindErr makes binding the named pin fail.
	BindErr map[string]error
	// OutErr makes driving the named pin fail.
	OutErr map[string]error
	// ReadErr makes sampling the named pin fail.
	ReadErr map[string]error

	// Counters of successful binds and releases.
	DigitalBinds int
	AnalogBinds  int
	Releases     int

	pins    map[string]*gpiotest.Pin
	roles   map[string]Role
	outputs map[string]bool
}

// NewProvider returns a Provider with every pin free and Low.
func NewProvider() *Provider {
	return &Provider{
		Samples: map[string]int32{},
		BindErr: map[string]error{},
		OutErr:  map[string]error{},
		ReadErr: map[string]error{},
		pins:    map[string]*gpiotest.Pin{},
		roles:   map[string]Role{},
		outputs: map[string]bool{},
	}
}

// Role returns the role the named pin is bound as.
func (p *Provider) Role(name string) Role {
	p.Lock()
	defer p.Unlock()
	return p.roles[name]
}

// Held returns the number of pins currently bound in any role.
func (p *Provider) Held() int {
	p.Lock()
	defer p.Unlock()
	n := 0
	for _, r := range p.roles {
		if r != Free {
			n++
		}
	}
	return n
}

// Output reports whether the named physical pin is driven as an output.
func (p *Provider) Output(name string) bool {
	p.Lock()
	defer p.Unlock()
	return p.outputs[name]
}

// Level returns the level of the named physical pin.
func (p *Provider) Level(name string) gpio.Level {
	return p.physical(name).Read()
}

// SetLevel forces the level of the named physical pin, as an external
// source driving it would.
func (p *Provider) SetLevel(name string, l gpio.Level) {
	_ = p.physical(name).Out(l)
}

func (p *Provider) physical(name string) *gpiotest.Pin {
	p.Lock()
	defer p.Unlock()
	g, ok := p.pins[name]
	if !ok {
		g = &gpiotest.Pin{N: name, Num: len(p.pins)}
		p.pins[name] = g
	}
	return g
}

func (p *Provider) bind(name string, role Role) error {
	p.Lock()
	defer p.Unlock()
	if err := p.BindErr[name]; err != nil {
		return err
	}
	if r := p.roles[name]; r != Free {
		return fmt.Errorf("%w: %s held as %s", ErrPinInUse, name, r)
	}
	p.roles[name] = role
	if role == DigitalIO {
		p.DigitalBinds++
	} else {
		p.AnalogBinds++
	}
	return nil
}

func (p *Provider) release(name string, role Role) error {
	p.Lock()
	defer p.Unlock()
	if p.roles[name] != role {
		return fmt.Errorf("pinmuxtest: %s released as %s while held as %q", name, role, p.roles[name])
	}
	p.roles[name] = Free
	p.Releases++
	return nil
}

func (p *Provider) setOutput(name string, out bool) {
	p.Lock()
	defer p.Unlock()
	p.outputs[name] = out
}

// Digital implements pinmux.Provider.
func (p *Provider) Digital(name string) (gpio.PinIO, error) {
	g := p.physical(name)
	if err := p.bind(name, DigitalIO); err != nil {
		return nil, err
	}
	return &digitalPin{Pin: g, p: p}, nil
}

// Analog implements pinmux.Provider.
func (p *Provider) Analog(name string) (analog.PinADC, error) {
	g := p.physical(name)
	if err := p.bind(name, AnalogIn); err != nil {
		return nil, err
	}
	return &adcPin{pin: g, p: p}, nil
}

// digitalPin is one binding of a physical pin as digital input/output.
type digitalPin struct {
	*gpiotest.Pin
	p        *Provider
	released bool
}

func (d *digitalPin) Out(l gpio.Level) error {
	d.p.Lock()
	err := d.p.OutErr[d.N]
	d.p.Unlock()
	if err != nil {
		return err
	}
	if d.released {
		return fmt.Errorf("pinmuxtest: %s driven after release", d.N)
	}
	if err := d.Pin.Out(l); err != nil {
		return err
	}
	d.p.setOutput(d.N, true)
	return nil
}

func (d *digitalPin) In(pull gpio.Pull, edge gpio.Edge) error {
	if d.released {
		return fmt.Errorf("pinmuxtest: %s configured after release", d.N)
	}
	if err := d.Pin.In(pull, edge); err != nil {
		return err
	}
	d.p.setOutput(d.N, false)
	return nil
}

// Halt leaves the pin a floating input, keeping its last level.
func (d *digitalPin) Halt() error {
	if d.released {
		return nil
	}
	if err := d.In(gpio.Float, gpio.NoEdge); err != nil {
		return err
	}
	d.released = true
	return d.p.release(d.N, DigitalIO)
}

// adcPin is one binding of a physical pin as an ADC channel.
type adcPin struct {
	pin      *gpiotest.Pin
	p        *Provider
	released bool
}

func (a *adcPin) String() string   { return a.pin.N + "(ADC)" }
func (a *adcPin) Name() string     { return a.pin.N }
func (a *adcPin) Number() int      { return a.pin.Num }
func (a *adcPin) Function() string { return string(a.Func()) }
func (a *adcPin) Func() pin.Func   { return analog.ADC }

func (a *adcPin) Halt() error {
	if a.released {
		return nil
	}
	a.released = true
	return a.p.release(a.pin.N, AnalogIn)
}

func (a *adcPin) Range() (analog.Sample, analog.Sample) {
	return analog.Sample{}, analog.Sample{V: 3300 * physic.MilliVolt, Raw: ADCMax}
}

func (a *adcPin) Read() (analog.Sample, error) {
	a.p.Lock()
	defer a.p.Unlock()
	if a.released {
		return analog.Sample{}, fmt.Errorf("pinmuxtest: %s sampled after release", a.pin.N)
	}
	if err := a.p.ReadErr[a.pin.N]; err != nil {
		return analog.Sample{}, err
	}
	return analog.Sample{Raw: a.p.Samples[a.pin.N]}, nil
}

// DAC implements analog.PinDAC and records every value written to it.
type DAC struct {
	// These should be immutable.
	N   string
	Max int32

	// Grab the Mutex before accessing the following members.
	sync.Mutex
	Values []int32
	Err    error
}

func (d *DAC) String() string   { return d.N + "(DAC)" }
func (d *DAC) Halt() error      { return nil }
func (d *DAC) Name() string     { return d.N }
func (d *DAC) Number() int      { return -1 }
func (d *DAC) Function() string { return string(analog.DAC) }

func (d *DAC) Range() (analog.Sample, analog.Sample) {
	return analog.Sample{}, analog.Sample{Raw: d.Max}
}

func (d *DAC) Out(v int32) error {
	d.Lock()
	defer d.Unlock()
	if d.Err != nil {
		return d.Err
	}
	d.Values = append(d.Values, v)
	return nil
}

// Last returns the last value written, or -1 when nothing was.
func (d *DAC) Last() int32 {
	d.Lock()
	defer d.Unlock()
	if len(d.Values) == 0 {
		return -1
	}
	return d.Values[len(d.Values)-1]
}

var _ analog.PinADC = &adcPin{}
var _ analog.PinDAC = &DAC{}
var _ gpio.PinIO = &digitalPin{}
