// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package nrzled

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// ResetTime is how long the data line is held low after a frame so the LED
// latches it.
const ResetTime = 80 * time.Microsecond

// SPI is a Transmitter using the MOSI line of an SPI port as the LED data
// line. One SPI clock period is one tick.
type SPI struct {
	c   spi.Conn
	clk physic.Frequency
	buf []byte
}

// NewSPI returns a Transmitter on p clocked at f.
//
// The usual choice is a few MHz: at 6.4MHz a tick is 156ns, which keeps
// every bit timing within the LED tolerance.
func NewSPI(p spi.Port, f physic.Frequency) (*SPI, error) {
	c, err := p.Connect(f, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	if _, err := Ticks(T0H, f); err != nil {
		return nil, err
	}
	return &SPI{c: c, clk: f}, nil
}

func (s *SPI) String() string {
	return fmt.Sprintf("SPI(%s)", s.c)
}

// CounterClock implements Transmitter.
func (s *SPI) CounterClock() (physic.Frequency, error) {
	return s.clk, nil
}

// Start implements Transmitter.
//
// The signal is rendered as a bit stream, each high tick a 1 bit and each
// low tick a 0 bit, followed by ResetTime of 0 bits.
func (s *SPI) Start(signal []PulsePair) error {
	reset, err := resetBits(s.clk)
	if err != nil {
		return err
	}
	s.buf = render(s.buf[:0], signal, reset)
	return s.c.Tx(s.buf, nil)
}

func resetBits(clk physic.Frequency) (int, error) {
	hz := uint64(clk / physic.Hertz)
	n := uint64(ResetTime.Nanoseconds()) * hz / uint64(time.Second)
	if n == 0 {
		return 0, fmt.Errorf("%w: reset at %s", ErrPulseRange, clk)
	}
	return int(n), nil
}

// render appends the bit stream of signal to buf, most significant bit
// first, padded with at least trailer 0 bits up to a byte boundary.
func render(buf []byte, signal []PulsePair, trailer int) []byte {
	var cur byte
	n := 0
	put := func(bit bool, count int) {
		for ; count > 0; count-- {
			cur <<= 1
			if bit {
				cur |= 1
			}
			if n++; n == 8 {
				buf = append(buf, cur)
				cur, n = 0, 0
			}
		}
	}
	for _, p := range signal {
		put(true, int(p.High))
		put(false, int(p.Low))
	}
	put(false, trailer)
	if n != 0 {
		put(false, 8-n)
	}
	return buf
}

var _ Transmitter = &SPI{}
