// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package nrzled

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spitest"
)

func TestTicks(t *testing.T) {
	data := []struct {
		d    time.Duration
		clk  physic.Frequency
		want uint16
	}{
		{T1H, 80 * physic.MegaHertz, 56},
		{T1L, 80 * physic.MegaHertz, 48},
		{T0H, 80 * physic.MegaHertz, 28},
		{T0L, 80 * physic.MegaHertz, 64},
		{T0H, 10 * physic.MegaHertz, 3},
		{T1L, 6400 * physic.KiloHertz, 3},
		{800 * time.Nanosecond, 40 * physic.GigaHertz, MaxTicks - 767},
	}
	for i, line := range data {
		got, err := Ticks(line.d, line.clk)
		if err != nil {
			t.Fatalf("#%d: %v", i, err)
		}
		if got != line.want {
			t.Fatalf("#%d: %s at %s = %d, want %d", i, line.d, line.clk, got, line.want)
		}
	}
}

func TestTicks_outOfRange(t *testing.T) {
	data := []struct {
		d   time.Duration
		clk physic.Frequency
	}{
		{T0H, 0},
		{T0H, -physic.Hertz},
		{T0H, physic.MegaHertz},
		{T0L, 50 * physic.GigaHertz},
	}
	for i, line := range data {
		if _, err := Ticks(line.d, line.clk); !errors.Is(err, ErrPulseRange) {
			t.Fatalf("#%d: unexpected error: %v", i, err)
		}
	}
}

func TestEncode(t *testing.T) {
	signal, err := Encode(0x010204, 80*physic.MegaHertz)
	if err != nil {
		t.Fatal(err)
	}
	if len(signal) != Bits {
		t.Fatal(len(signal))
	}
	one := PulsePair{56, 48}
	zero := PulsePair{28, 64}
	for i, p := range signal {
		want := zero
		// Bits 7, 14 and 21 from the start are the set bits of 0x010204.
		if i == 7 || i == 14 || i == 21 {
			want = one
		}
		if p != want {
			t.Fatalf("pair %d: %s, want %s", i, p, want)
		}
	}
}

func TestEncode_ignoresHighByte(t *testing.T) {
	a, err := Encode(0xFF00FF00, 10*physic.MegaHertz)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Encode(0x0000FF00, 10*physic.MegaHertz)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("pair %d: %s != %s", i, a[i], b[i])
		}
	}
}

func TestEncode_clockTooSlow(t *testing.T) {
	if _, err := Encode(0, 2*physic.MegaHertz); !errors.Is(err, ErrPulseRange) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDecode(t *testing.T) {
	for _, c := range []uint32{0, 0xFFFFFF, 0x010204, 0x800001, 0x00FF00, 0x123456} {
		signal, err := Encode(c, 6400*physic.KiloHertz)
		if err != nil {
			t.Fatal(err)
		}
		got, err := Decode(signal)
		if err != nil {
			t.Fatal(err)
		}
		if got != c {
			t.Fatalf("%#06x decoded as %#06x", c, got)
		}
	}
	if _, err := Decode(make([]PulsePair, 23)); !errors.Is(err, errSignalLength) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRGB(t *testing.T) {
	c := RGB{1, 2, 4}
	if v := c.Pack(); v != 0x010204 {
		t.Fatalf("%#x", v)
	}
	if u := Unpack(0xFF010204); u != c {
		t.Fatal(u)
	}
	if s := c.String(); s != "#010204" {
		t.Fatal(s)
	}
	r, g, b, a := Red.RGBA()
	if r != 64*0x101 || g != 0 || b != 0 || a != 0xFFFF {
		t.Fatal(r, g, b, a)
	}
}

func TestFromHSV(t *testing.T) {
	data := []struct {
		h, s, v uint32
		want    RGB
	}{
		{0, 100, 100, RGB{255, 0, 0}},
		{60, 100, 100, RGB{255, 255, 0}},
		{120, 100, 100, RGB{0, 255, 0}},
		{180, 100, 100, RGB{0, 255, 255}},
		{240, 100, 100, RGB{0, 0, 255}},
		{300, 100, 100, RGB{255, 0, 255}},
		{360, 100, 100, RGB{255, 0, 0}},
		{30, 100, 50, RGB{127, 63, 0}},
		{0, 0, 100, RGB{255, 255, 255}},
		{200, 50, 0, RGB{}},
	}
	for i, line := range data {
		got, err := FromHSV(line.h, line.s, line.v)
		if err != nil {
			t.Fatalf("#%d: %v", i, err)
		}
		if got != line.want {
			t.Fatalf("#%d: hsv(%d, %d, %d) = %v, want %v", i, line.h, line.s, line.v, got, line.want)
		}
	}
	for _, hsv := range [][3]uint32{{361, 0, 0}, {0, 101, 0}, {0, 0, 101}} {
		if _, err := FromHSV(hsv[0], hsv[1], hsv[2]); !errors.Is(err, ErrHSVRange) {
			t.Fatalf("%v: unexpected error: %v", hsv, err)
		}
	}
}

func TestDev_SetColor(t *testing.T) {
	f := &fakeTransmitter{clk: 80 * physic.MegaHertz}
	d := New(f)
	for _, c := range []RGB{Yellow, Green, Blue, Red} {
		if err := d.SetColor(c); err != nil {
			t.Fatal(err)
		}
	}
	if len(f.frames) != 4 {
		t.Fatal(len(f.frames))
	}
	if f.clockQueries != 4 {
		t.Fatalf("counter clock queried %d times", f.clockQueries)
	}
	for i, want := range []RGB{Yellow, Green, Blue, Red} {
		got, err := Decode(f.frames[i])
		if err != nil {
			t.Fatal(err)
		}
		if got != want.Pack() {
			t.Fatalf("frame %d: %#06x, want %s", i, got, want)
		}
	}
	if d.Color() != Red {
		t.Fatal(d.Color())
	}
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if d.Color() != Off {
		t.Fatal(d.Color())
	}
}

func TestDev_SetColor_errors(t *testing.T) {
	f := &fakeTransmitter{clk: 80 * physic.MegaHertz}
	d := New(f)
	if err := d.SetColor(Green); err != nil {
		t.Fatal(err)
	}

	f.clkErr = errors.New("rmt not ready")
	if err := d.SetColor(Red); !errors.Is(err, f.clkErr) {
		t.Fatalf("unexpected error: %v", err)
	}
	f.clkErr = nil

	f.clk = physic.MegaHertz
	if err := d.SetColor(Red); !errors.Is(err, ErrPulseRange) {
		t.Fatalf("unexpected error: %v", err)
	}
	f.clk = 80 * physic.MegaHertz

	f.startErr = errors.New("channel busy")
	if err := d.SetColor(Red); !errors.Is(err, f.startErr) {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Color() != Green {
		t.Fatalf("color changed on failure: %s", d.Color())
	}
	if len(f.frames) != 1 {
		t.Fatal(len(f.frames))
	}
}

func TestDev_SetColor_concurrent(t *testing.T) {
	f := &fakeTransmitter{clk: 10 * physic.MegaHertz, slow: true}
	d := New(f)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := d.SetColor(Unpack(uint32(i))); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()
	if f.overlaps.Load() != 0 {
		t.Fatal("transmissions interleaved")
	}
	if len(f.frames) != 8 {
		t.Fatal(len(f.frames))
	}
}

func TestSPI(t *testing.T) {
	r := &spitest.Record{}
	s, err := NewSPI(r, 10*physic.MegaHertz)
	if err != nil {
		t.Fatal(err)
	}
	if err := New(s).SetColor(RGB{1, 2, 4}); err != nil {
		t.Fatal(err)
	}
	if len(r.Ops) != 1 {
		t.Fatal(len(r.Ops))
	}
	want, err := Encode(0x010204, 10*physic.MegaHertz)
	if err != nil {
		t.Fatal(err)
	}
	runs := bitRuns(r.Ops[0].W)
	// Alternating high and low runs; the last low run includes the reset.
	if len(runs) != 2*Bits {
		t.Fatalf("%d runs", len(runs))
	}
	for i, p := range want {
		if runs[2*i] != int(p.High) {
			t.Fatalf("pair %d: high %d, want %d", i, runs[2*i], p.High)
		}
		if i == Bits-1 {
			// 80µs at 10MHz.
			if runs[2*i+1] < int(p.Low)+800 {
				t.Fatalf("reset too short: %d", runs[2*i+1])
			}
			break
		}
		if runs[2*i+1] != int(p.Low) {
			t.Fatalf("pair %d: low %d, want %d", i, runs[2*i+1], p.Low)
		}
	}
}

func TestNewSPI_tooSlow(t *testing.T) {
	if _, err := NewSPI(&spitest.Record{}, physic.MegaHertz); !errors.Is(err, ErrPulseRange) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRender(t *testing.T) {
	got := render(nil, []PulsePair{{3, 2}, {1, 1}}, 4)
	// 111 00 1 0 0000 then padded to 16 bits.
	want := []byte{0xE4, 0x00}
	if string(got) != string(want) {
		t.Fatalf("% X", got)
	}
}

// bitRuns returns the lengths of the alternating runs of 1 and 0 bits in b,
// starting with a run of 1.
func bitRuns(b []byte) []int {
	var runs []int
	cur := true
	n := 0
	for _, v := range b {
		for i := 7; i >= 0; i-- {
			bit := v&(1<<i) != 0
			if bit != cur {
				runs = append(runs, n)
				cur, n = bit, 0
			}
			n++
		}
	}
	return append(runs, n)
}

type fakeTransmitter struct {
	clk      physic.Frequency
	clkErr   error
	startErr error
	slow     bool

	clockQueries int
	frames       [][]PulsePair
	busy         atomic.Int32
	overlaps     atomic.Int32
}

func (f *fakeTransmitter) String() string {
	return "fake"
}

func (f *fakeTransmitter) CounterClock() (physic.Frequency, error) {
	f.clockQueries++
	return f.clk, f.clkErr
}

func (f *fakeTransmitter) Start(signal []PulsePair) error {
	if f.busy.Add(1) != 1 {
		f.overlaps.Add(1)
	}
	defer f.busy.Add(-1)
	if f.startErr != nil {
		return f.startErr
	}
	if f.slow {
		time.Sleep(time.Millisecond)
	}
	f.frames = append(f.frames, append([]PulsePair(nil), signal...))
	return nil
}
