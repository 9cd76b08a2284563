// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package nrzled

import (
	"errors"
	"fmt"
	"image/color"
	"math"
)

// ErrHSVRange is returned by FromHSV for a component out of range.
var ErrHSVRange = errors.New("nrzled: hsv out of range")

// RGB is a 24 bit color.
type RGB struct {
	R, G, B uint8
}

// Colors used by the board to report its state.
var (
	Off    = RGB{}
	Yellow = RGB{64, 64, 0}
	Green  = RGB{0, 64, 0}
	Blue   = RGB{0, 0, 128}
	Red    = RGB{64, 0, 0}
)

// Pack returns the color as (R<<16)|(G<<8)|B, the bit order sent on the
// wire.
func (c RGB) Pack() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// Unpack is the inverse of RGB.Pack. Bits above 23 are ignored.
func Unpack(v uint32) RGB {
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}
}

// RGBA implements color.Color.
func (c RGB) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{c.R, c.G, c.B, 255}.RGBA()
}

func (c RGB) String() string {
	return fmt.Sprintf("#%06X", c.Pack())
}

// FromHSV converts a hue in degrees [0, 360], a saturation and a value in
// percent [0, 100] to RGB.
func FromHSV(h, s, v uint32) (RGB, error) {
	if h > 360 || s > 100 || v > 100 {
		return RGB{}, fmt.Errorf("%w: h=%d s=%d v=%d", ErrHSVRange, h, s, v)
	}
	sf := float64(s) / 100
	vf := float64(v) / 100
	c := sf * vf
	x := c * (1 - math.Abs(math.Mod(float64(h)/60, 2)-1))
	m := vf - c
	var r, g, b float64
	switch {
	case h < 60:
		r, g = c, x
	case h < 120:
		r, g = x, c
	case h < 180:
		g, b = c, x
	case h < 240:
		g, b = x, c
	case h < 300:
		r, b = x, c
	default:
		r, b = c, x
	}
	return RGB{
		R: uint8((r + m) * 255),
		G: uint8((g + m) * 255),
		B: uint8((b + m) * 255),
	}, nil
}

var _ color.Color = RGB{}
