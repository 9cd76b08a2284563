// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package screen1d implements an nrzled.Transmitter that outputs to terminal
// (stdout) using ANSI color codes.
//
// Useful while the board has no status LED fitted, or when running the
// expander against simulated pins.
package screen1d

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	"github.com/GermanBionicSystems/remoteio/nrzled"
	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/physic"
)

// Opts represents the options available for this display.
type Opts struct {
	// Clock is the emulated counter clock. Defaults to 80MHz.
	Clock   physic.Frequency
	Palette *ansi256.Palette
	// W defaults to a colorable stdout.
	W io.Writer

	_ struct{}
}

// Dev is a single LED emulator that outputs to the console.
type Dev struct {
	w       io.Writer
	clk     physic.Frequency
	palette ansi256.Palette

	last nrzled.RGB
	buf  bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	w := opts.W
	if w == nil {
		w = colorable.NewColorableStdout()
	}
	clk := opts.Clock
	if clk == 0 {
		clk = 80 * physic.MegaHertz
	}
	return &Dev{w: w, clk: clk, palette: *p}
}

func (d *Dev) String() string {
	return "Screen1D"
}

// Halt implements conn.Resource.
//
// It clears the display so it is not corrupted.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

// CounterClock implements nrzled.Transmitter.
func (d *Dev) CounterClock() (physic.Frequency, error) {
	return d.clk, nil
}

// Start implements nrzled.Transmitter.
//
// The signal is decoded back to a color the same way the LED would latch
// it, then drawn as a single block.
func (d *Dev) Start(signal []nrzled.PulsePair) error {
	v, err := nrzled.Decode(signal)
	if err != nil {
		return fmt.Errorf("screen1d: %w", err)
	}
	d.last = nrzled.Unpack(v)
	return d.refresh()
}

// Color returns the last color drawn.
func (d *Dev) Color() nrzled.RGB {
	return d.last
}

func (d *Dev) refresh() error {
	d.buf.Reset()
	_, _ = d.buf.WriteString("\r\033[0m")
	c := color.NRGBA{d.last.R, d.last.G, d.last.B, 255}
	_, _ = io.WriteString(&d.buf, d.palette.Block(c))
	_, _ = fmt.Fprintf(&d.buf, "\033[0m %s ", d.last)
	_, err := d.buf.WriteTo(d.w)
	return err
}

var _ nrzled.Transmitter = &Dev{}
var _ fmt.Stringer = &Dev{}
