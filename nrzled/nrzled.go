// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package nrzled drives a single NRZ encoded RGB LED like the WS2812B
// (Neopixel).
//
// A color is sent as 24 bits, most significant bit first. Each bit is a pair
// of pulses: the line is held high then low, and the ratio between both
// durations tells a 1 from a 0. The pulses are expressed in ticks of the
// counter clock of a Transmitter, so the same encoding serves a dedicated
// remote control peripheral, an SPI port or a console emulator.
//
// Datasheet
//
// https://cdn-shop.adafruit.com/datasheets/WS2812B.pdf
package nrzled

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/physic"
)

// Bit timings of the LED.
const (
	T1H = 700 * time.Nanosecond
	T1L = 600 * time.Nanosecond
	T0H = 350 * time.Nanosecond
	T0L = 800 * time.Nanosecond
)

// Bits is the number of pulse pairs in one color frame.
const Bits = 24

// MaxTicks is the longest pulse a 15 bit pulse counter can hold.
const MaxTicks = 1<<15 - 1

var (
	// ErrPulseRange is returned when a bit timing does not fit the counter
	// at the transmitter clock rate.
	ErrPulseRange = errors.New("nrzled: pulse out of counter range")

	errSignalLength = errors.New("nrzled: signal is not one color frame")
)

// PulsePair is one encoded bit: High ticks with the line high, followed by
// Low ticks with the line low.
type PulsePair struct {
	High uint16
	Low  uint16
}

func (p PulsePair) String() string {
	return fmt.Sprintf("%d/%d", p.High, p.Low)
}

// Transmitter emits pulse trains on the LED data line.
type Transmitter interface {
	// CounterClock returns the tick rate Start expects pulses in.
	CounterClock() (physic.Frequency, error)
	// Start emits the whole signal. It may return before the signal is fully
	// shifted out.
	Start(signal []PulsePair) error
}

// Ticks converts d into counter ticks at clk, truncating.
func Ticks(d time.Duration, clk physic.Frequency) (uint16, error) {
	if clk <= 0 {
		return 0, fmt.Errorf("%w: counter clock %s", ErrPulseRange, clk)
	}
	hz := uint64(clk / physic.Hertz)
	t := uint64(d.Nanoseconds()) * hz / uint64(time.Second)
	if t == 0 || t > MaxTicks {
		return 0, fmt.Errorf("%w: %s at %s is %d ticks", ErrPulseRange, d, clk, t)
	}
	return uint16(t), nil
}

// Encode returns the 24 pulse pairs sending the low 24 bits of color, most
// significant bit first, at counter clock clk.
func Encode(color uint32, clk physic.Frequency) ([]PulsePair, error) {
	var one, zero PulsePair
	var err error
	for _, p := range []struct {
		dst *uint16
		d   time.Duration
	}{{&one.High, T1H}, {&one.Low, T1L}, {&zero.High, T0H}, {&zero.Low, T0L}} {
		if *p.dst, err = Ticks(p.d, clk); err != nil {
			return nil, err
		}
	}
	signal := make([]PulsePair, Bits)
	for i := range signal {
		if color&(1<<(Bits-1-i)) != 0 {
			signal[i] = one
		} else {
			signal[i] = zero
		}
	}
	return signal, nil
}

// Decode returns the color carried by signal. A pair with a longer high
// than low pulse is a 1.
func Decode(signal []PulsePair) (uint32, error) {
	if len(signal) != Bits {
		return 0, fmt.Errorf("%w: %d pairs", errSignalLength, len(signal))
	}
	var c uint32
	for _, p := range signal {
		c <<= 1
		if p.High > p.Low {
			c |= 1
		}
	}
	return c, nil
}

// Dev is a single LED.
type Dev struct {
	t Transmitter

	mu    sync.Mutex
	color RGB
}

// New returns a Dev sending colors through t. The LED state is unknown until
// the first SetColor.
func New(t Transmitter) *Dev {
	return &Dev{t: t}
}

func (d *Dev) String() string {
	return fmt.Sprintf("nrzled{%s}", d.t)
}

// SetColor sends c to the LED.
//
// The counter clock is queried on every call since it can change with the
// transmitter configuration. Concurrent calls never interleave their pulses.
func (d *Dev) SetColor(c RGB) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	clk, err := d.t.CounterClock()
	if err != nil {
		return fmt.Errorf("nrzled: counter clock: %w", err)
	}
	signal, err := Encode(c.Pack(), clk)
	if err != nil {
		return err
	}
	if err := d.t.Start(signal); err != nil {
		return fmt.Errorf("nrzled: start %s: %w", c, err)
	}
	d.color = c
	return nil
}

// Color returns the last color successfully sent.
func (d *Dev) Color() RGB {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.color
}

// Halt implements conn.Resource.
//
// It turns the LED off.
func (d *Dev) Halt() error {
	return d.SetColor(RGB{})
}
