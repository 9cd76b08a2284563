// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package mcp472x

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
)

func TestNew(t *testing.T) {
	if _, err := New(nil, &Opts{Variant: "MCP4726"}); !errors.Is(err, errInvalidVariant) {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := New(nil, &Opts{Variant: MCP4725, InternalRef: true}); !errors.Is(err, errInvalidVariant) {
		t.Fatalf("unexpected error: %v", err)
	}
	d, err := New(nil, &Opts{Variant: MCP4728, InternalRef: true})
	if err != nil {
		t.Fatal(err)
	}
	if d.Channels() != 4 || d.String() != "MCP4728" {
		t.Fatal(d.Channels(), d)
	}
	if d.d.Addr != uint16(DefaultAddress) {
		t.Fatalf("%#x", d.d.Addr)
	}
	c, err := d.Channel(3)
	if err != nil {
		t.Fatal(err)
	}
	if c.String() != "MCP4728_D" || c.Number() != 3 || c.Function() != "DAC" {
		t.Fatal(c, c.Number(), c.Function())
	}
	lo, hi := c.Range()
	if lo.Raw != 0 || hi.Raw != MaxCount || hi.V != InternalRef {
		t.Fatal(lo, hi)
	}
	if _, err := d.Channel(4); !errors.Is(err, errInvalidChannel) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWriteBytes(t *testing.T) {
	d4725, err := New(nil, &Opts{Variant: MCP4725, VRef: 3300 * physic.MilliVolt})
	if err != nil {
		t.Fatal(err)
	}
	d4728, err := New(nil, &Opts{Variant: MCP4728, InternalRef: true})
	if err != nil {
		t.Fatal(err)
	}
	d4728vcc, err := New(nil, &Opts{Variant: MCP4728, VRef: 5 * physic.Volt})
	if err != nil {
		t.Fatal(err)
	}
	data := []struct {
		d     *Dev
		ch    int
		count uint16
		pd    PDMode
		want  []byte
	}{
		{d4725, 0, 0x800, PDModeNormal, []byte{0x08, 0x00}},
		{d4725, 0, 0xFFF, PDModeNormal, []byte{0x0F, 0xFF}},
		{d4725, 0, 0, PDMode500K, []byte{0x30, 0x00}},
		{d4728, 0, 0, PDMode1K, []byte{0x40, 0xA0, 0x00}},
		{d4728, 1, 0x800, PDMode500K, []byte{0x42, 0xE8, 0x00}},
		{d4728, 2, 0x400, PDModeNormal, []byte{0x44, 0x84, 0x00}},
		{d4728vcc, 3, 0x040, PDMode100K, []byte{0x46, 0x40, 0x40}},
	}
	for i, line := range data {
		got := line.d.writeBytes(line.ch, line.count, line.pd)
		if string(got) != string(line.want) {
			t.Fatalf("#%d: % X, want % X", i, got, line.want)
		}
	}
}

func TestChannelOut(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x60, W: []byte{0x42, 0x81, 0x23}},
			// Clamped to full scale.
			{Addr: 0x60, W: []byte{0x42, 0x8F, 0xFF}},
			{Addr: 0x60, W: []byte{0x40, 0x80, 0x00}},
		},
		DontPanic: true,
	}
	d, err := New(bus, &Opts{Variant: MCP4728, InternalRef: true})
	if err != nil {
		t.Fatal(err)
	}
	b, err := d.Channel(1)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Out(0x123); err != nil {
		t.Fatal(err)
	}
	if err := b.Out(70000); err != nil {
		t.Fatal(err)
	}
	a, _ := d.Channel(0)
	if err := a.Out(-3); err != nil {
		t.Fatal(err)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestWrite_busError(t *testing.T) {
	bus := &i2ctest.Playback{DontPanic: true}
	d, err := New(bus, &Opts{Variant: MCP4725, Addr: 0x62, VRef: 3300 * physic.MilliVolt})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Write(0, 1, PDModeNormal); err == nil {
		t.Fatal("expected error")
	}
	if err := d.Write(1, 1, PDModeNormal); !errors.Is(err, errInvalidChannel) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRead4725(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x62, R: []byte{0xC0, 0xAB, 0xC0, 0x0F, 0xFF}},
		},
		DontPanic: true,
	}
	d, err := New(bus, &Opts{Variant: MCP4725, Addr: 0x62, VRef: 3300 * physic.MilliVolt})
	if err != nil {
		t.Fatal(err)
	}
	counts, err := d.Read()
	if err != nil {
		t.Fatal(err)
	}
	if len(counts) != 1 || counts[0] != 0xABC {
		t.Fatalf("%#x", counts)
	}
}

func TestRead4728(t *testing.T) {
	r := []byte{
		0xC0, 0x81, 0x23, 0xC8, 0x00, 0x00,
		0xD0, 0x8F, 0xFF, 0xD8, 0x00, 0x00,
		0xE0, 0x00, 0x00, 0xE8, 0x00, 0x00,
		0xF0, 0x0A, 0xBC, 0xF8, 0x00, 0x00,
	}
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			// Busy on the first attempt.
			{Addr: 0x60, R: append([]byte{0x40}, r[1:]...)},
			{Addr: 0x60, R: r},
		},
		DontPanic: true,
	}
	d, err := New(bus, &Opts{Variant: MCP4728, InternalRef: true})
	if err != nil {
		t.Fatal(err)
	}
	counts, err := d.Read()
	if err != nil {
		t.Fatal(err)
	}
	want := []uint16{0x123, 0xFFF, 0, 0xABC}
	for i := range want {
		if counts[i] != want[i] {
			t.Fatalf("channel %d: %#x, want %#x", i, counts[i], want[i])
		}
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestHalt(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x60, W: []byte{0x40, 0x60, 0x00}},
			{Addr: 0x60, W: []byte{0x42, 0x60, 0x00}},
			{Addr: 0x60, W: []byte{0x44, 0x60, 0x00}},
			{Addr: 0x60, W: []byte{0x46, 0x60, 0x00}},
		},
		DontPanic: true,
	}
	d, err := New(bus, &Opts{Variant: MCP4728, VRef: 3300 * physic.MilliVolt})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if err := bus.Close(); err != nil {
		t.Fatal(err)
	}
}
