// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package mcp472x drives the Microchip MCP472x series of 12 bit digital to
// analog converters that back the analog outputs of the board. The MCP4725
// has a single output referenced to VCC. The MCP4728 has 4 outputs and an
// optional precision internal reference.
//
// Each output is exposed as an analog.PinDAC taking raw counts.
//
// # Datasheets
//
// # MCP4725
//
// https://ww1.microchip.com/downloads/en/devicedoc/22039d.pdf
//
// # MCP4728
//
// https://www.digikey.com/htmldatasheets/production/623709/0/0/1/mcp4728.html
package mcp472x

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// Variant represents the model of the device.
type Variant string

const (
	MCP4725 Variant = "MCP4725"
	MCP4728 Variant = "MCP4728"

	// DefaultAddress is the default I²C address (0x60) for MCP472x devices.
	DefaultAddress i2c.Addr = 0x60
	// InternalRef is the precision reference of the MCP4728.
	InternalRef physic.ElectricPotential = 2048 * physic.MilliVolt
	// MaxCount is the full scale raw value of an output.
	MaxCount = 1<<12 - 1

	busyFlag       byte = 0x80
	cmdInternalRef byte = 0x80
	cmdMultiWrite  byte = 0x40
	dacMask        byte = 0x03
	pdMask         byte = 0x03
)

var (
	errBusy           = errors.New("mcp472x: device busy")
	errInvalidChannel = errors.New("mcp472x: invalid channel")
	errInvalidVariant = errors.New("mcp472x: invalid variant")
)

// PDMode is the power down mode of an output.
type PDMode byte

const (
	PDModeNormal PDMode = iota
	// The remaining values specify the resistance tying the output pin to
	// ground.
	PDMode1K
	PDMode100K
	PDMode500K
)

// Opts holds the configuration of a Dev.
type Opts struct {
	Variant Variant
	// Addr defaults to DefaultAddress.
	Addr i2c.Addr
	// VRef is the reference voltage, VCC unless InternalRef is set.
	VRef physic.ElectricPotential
	// InternalRef selects the 2.048V reference of the MCP4728.
	InternalRef bool

	_ struct{}
}

// Dev represents an MCP472x D/A converter.
type Dev struct {
	mu          sync.Mutex
	d           i2c.Dev
	variant     Variant
	vRef        physic.ElectricPotential
	internalRef bool
	channels    []Channel
}

// New returns a Dev on bus. Nothing is sent until an output is written.
func New(bus i2c.Bus, opts *Opts) (*Dev, error) {
	n := 0
	switch opts.Variant {
	case MCP4725:
		n = 1
		if opts.InternalRef {
			return nil, fmt.Errorf("%w: %s has no internal reference", errInvalidVariant, opts.Variant)
		}
	case MCP4728:
		n = 4
	default:
		return nil, fmt.Errorf("%w: %q", errInvalidVariant, opts.Variant)
	}
	addr := opts.Addr
	if addr == 0 {
		addr = DefaultAddress
	}
	vRef := opts.VRef
	if opts.InternalRef {
		vRef = InternalRef
	}
	d := &Dev{
		d:           i2c.Dev{Bus: bus, Addr: uint16(addr)},
		variant:     opts.Variant,
		vRef:        vRef,
		internalRef: opts.InternalRef,
		channels:    make([]Channel, n),
	}
	for i := range d.channels {
		d.channels[i] = Channel{d: d, ch: i}
	}
	return d, nil
}

// Channels returns the number of outputs of the device.
func (d *Dev) Channels() int {
	return len(d.channels)
}

// Channel returns output ch as an analog.PinDAC.
func (d *Dev) Channel(ch int) (*Channel, error) {
	if ch < 0 || ch >= len(d.channels) {
		return nil, fmt.Errorf("%w: %d on %s", errInvalidChannel, ch, d.variant)
	}
	return &d.channels[ch], nil
}

// Write sets output ch to count, clamped to MaxCount, in the given power
// down mode. The output updates as soon as the transfer completes.
func (d *Dev) Write(ch int, count uint16, pd PDMode) error {
	if ch < 0 || ch >= len(d.channels) {
		return fmt.Errorf("%w: %d on %s", errInvalidChannel, ch, d.variant)
	}
	if count > MaxCount {
		count = MaxCount
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.d.Tx(d.writeBytes(ch, count, pd), nil); err != nil {
		return fmt.Errorf("mcp472x: %w", err)
	}
	return nil
}

// writeBytes returns the fast write frame of the MCP4725 or the multi write
// frame of the MCP4728 addressing a single channel.
func (d *Dev) writeBytes(ch int, count uint16, pd PDMode) []byte {
	if d.variant == MCP4725 {
		return []byte{byte(pd&PDMode(pdMask))<<4 | byte(count>>8), byte(count)}
	}
	b := byte(count>>8) | byte(pd&PDMode(pdMask))<<5
	if d.internalRef {
		b |= cmdInternalRef
	}
	return []byte{cmdMultiWrite | (byte(ch)&dacMask)<<1, b, byte(count)}
}

// Read returns the count currently output by every channel. If the device
// signals it is busy with an EEPROM write, it retries up to 9 times.
func (d *Dev) Read() ([]uint16, error) {
	stride := 5
	if d.variant == MCP4728 {
		stride = 6
	}
	r := make([]byte, stride*len(d.channels))
	d.mu.Lock()
	defer d.mu.Unlock()
	for range 10 {
		if err := d.d.Tx(nil, r); err != nil {
			return nil, fmt.Errorf("mcp472x: %w", err)
		}
		if counts, ok := d.decode(r, stride); ok {
			return counts, nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return nil, errBusy
}

func (d *Dev) decode(r []byte, stride int) ([]uint16, bool) {
	counts := make([]uint16, len(d.channels))
	for i := range counts {
		b := r[i*stride:]
		if b[0]&busyFlag == 0 {
			return nil, false
		}
		if d.variant == MCP4725 {
			counts[i] = uint16(b[1])<<4 | uint16(b[2]>>4)
		} else {
			counts[i] = uint16(b[1]&0x0F)<<8 | uint16(b[2])
		}
	}
	return counts, true
}

// Halt implements conn.Resource.
//
// It drives every output to 0 and ties it to ground through 500kΩ.
func (d *Dev) Halt() error {
	var errs []error
	for i := range d.channels {
		if err := d.Write(i, 0, PDMode500K); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// String returns the variant name.
func (d *Dev) String() string {
	return string(d.variant)
}

// Channel is one output of a Dev.
type Channel struct {
	d  *Dev
	ch int
}

func (c *Channel) String() string {
	return fmt.Sprintf("%s_%c", c.d.variant, 'A'+c.ch)
}

// Halt implements conn.Resource.
//
// It has no effect; the output keeps its value.
func (c *Channel) Halt() error {
	return nil
}

// Name implements pin.Pin.
func (c *Channel) Name() string {
	return c.String()
}

// Number implements pin.Pin.
func (c *Channel) Number() int {
	return c.ch
}

// Function implements pin.Pin.
func (c *Channel) Function() string {
	return string(analog.DAC)
}

// Range implements analog.PinDAC.
func (c *Channel) Range() (analog.Sample, analog.Sample) {
	return analog.Sample{}, analog.Sample{V: c.d.vRef, Raw: MaxCount}
}

// Out implements analog.PinDAC.
//
// v is a raw count in [0, MaxCount].
func (c *Channel) Out(v int32) error {
	if v < 0 {
		v = 0
	}
	if v > MaxCount {
		v = MaxCount
	}
	return c.d.Write(c.ch, uint16(v), PDModeNormal)
}

var _ analog.PinDAC = &Channel{}
