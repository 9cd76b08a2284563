// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package iioadc exposes the voltage channels of a Linux Industrial I/O ADC
// as analog.PinADC.
//
// A channel is named "<device>/<channel>", for example "iio:device0/3" for
// /sys/bus/iio/devices/iio:device0/in_voltage3_raw.
package iioadc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/physic"
)

// DefaultRoot is where the kernel lists IIO devices.
const DefaultRoot = "/sys/bus/iio/devices"

var errInvalidName = errors.New("iioadc: invalid channel name")

// Opts holds the configuration of a Channel.
type Opts struct {
	// Root defaults to DefaultRoot.
	Root string
	// Bits is the resolution of the converter. Defaults to 12.
	Bits int

	_ struct{}
}

// Channel is one voltage input of an IIO device.
type Channel struct {
	name  string
	num   int
	raw   string
	max   int32
	scale float64
}

// Open returns the channel called name. The raw attribute must exist; the
// scale attribute is optional.
func Open(name string, opts *Opts) (*Channel, error) {
	dev, ch, ok := strings.Cut(name, "/")
	num, err := strconv.Atoi(ch)
	if !ok || dev == "" || err != nil || num < 0 {
		return nil, fmt.Errorf("%w: %q", errInvalidName, name)
	}
	root := opts.Root
	if root == "" {
		root = DefaultRoot
	}
	bits := opts.Bits
	if bits <= 0 || bits > 30 {
		bits = 12
	}
	c := &Channel{
		name: name,
		num:  num,
		raw:  filepath.Join(root, dev, fmt.Sprintf("in_voltage%d_raw", num)),
		max:  1<<bits - 1,
	}
	if _, err := os.Stat(c.raw); err != nil {
		return nil, fmt.Errorf("iioadc: %w", err)
	}
	// Per channel scale wins over the device wide one.
	for _, f := range []string{fmt.Sprintf("in_voltage%d_scale", num), "in_voltage_scale"} {
		if s, err := readFloat(filepath.Join(root, dev, f)); err == nil {
			c.scale = s
			break
		}
	}
	return c, nil
}

func (c *Channel) String() string {
	return c.name
}

// Halt implements conn.Resource.
//
// It has no effect.
func (c *Channel) Halt() error {
	return nil
}

// Name implements pin.Pin.
func (c *Channel) Name() string {
	return c.name
}

// Number implements pin.Pin.
func (c *Channel) Number() int {
	return c.num
}

// Function implements pin.Pin.
func (c *Channel) Function() string {
	return string(analog.ADC)
}

// Range implements analog.PinADC.
func (c *Channel) Range() (analog.Sample, analog.Sample) {
	return analog.Sample{}, analog.Sample{V: c.volts(c.max), Raw: c.max}
}

// Read implements analog.PinADC.
//
// V is left at 0 when the device publishes no scale.
func (c *Channel) Read() (analog.Sample, error) {
	b, err := os.ReadFile(c.raw)
	if err != nil {
		return analog.Sample{}, fmt.Errorf("iioadc: %w", err)
	}
	raw, err := strconv.ParseInt(strings.TrimSpace(string(b)), 10, 32)
	if err != nil {
		return analog.Sample{}, fmt.Errorf("iioadc: %s: %w", c.name, err)
	}
	return analog.Sample{V: c.volts(int32(raw)), Raw: int32(raw)}, nil
}

// volts converts raw using the IIO scale, which is in millivolts per LSB.
func (c *Channel) volts(raw int32) physic.ElectricPotential {
	return physic.ElectricPotential(float64(raw) * c.scale * float64(physic.MilliVolt))
}

func readFloat(path string) (float64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
}

var _ analog.PinADC = &Channel{}
