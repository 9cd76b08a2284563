// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// remoteio serves the remote I/O protocol on a serial port, turning the
// board it runs on into an I/O expander for the host at the other end.
//
// With -sim, the pins and the analog outputs are simulated in memory and the
// status LED is drawn on the terminal, so the protocol can be exercised over
// a pseudo terminal without any hardware.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/GermanBionicSystems/remoteio/board"
	"github.com/GermanBionicSystems/remoteio/config"
	"github.com/GermanBionicSystems/remoteio/expander"
	"github.com/GermanBionicSystems/remoteio/iioadc"
	"github.com/GermanBionicSystems/remoteio/mcp472x"
	"github.com/GermanBionicSystems/remoteio/nrzled"
	"github.com/GermanBionicSystems/remoteio/pinmux"
	"github.com/GermanBionicSystems/remoteio/pinmux/pinmuxtest"
	"github.com/GermanBionicSystems/remoteio/screen1d"
	"github.com/GermanBionicSystems/remoteio/seriallink"
	"github.com/golang/glog"
	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
)

// hardware is everything opened at startup, released in reverse order.
type hardware struct {
	pins    *pinmux.Manager
	led     *nrzled.Dev
	closers []io.Closer
}

func (h *hardware) close() {
	if h.pins != nil {
		if err := h.pins.Halt(); err != nil {
			glog.Warningf("remoteio: %v", err)
		}
	}
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i].Close(); err != nil {
			glog.Warningf("remoteio: %v", err)
		}
	}
}

type haltCloser struct {
	halt func() error
}

func (h haltCloser) Close() error {
	return h.halt()
}

func openLED(cfg *config.Config, sim bool, h *hardware) error {
	backend := cfg.LED.Backend
	if sim && backend == config.LEDSPI {
		// The simulated board has no SPI port; only the console can show it.
		backend = config.LEDConsole
	}
	var t nrzled.Transmitter
	switch backend {
	case config.LEDNone:
		return nil
	case config.LEDConsole:
		s := screen1d.New(&screen1d.Opts{})
		h.closers = append(h.closers, haltCloser{s.Halt})
		t = s
	case config.LEDSPI:
		p, err := spireg.Open(cfg.LED.SPIPort)
		if err != nil {
			return err
		}
		h.closers = append(h.closers, p)
		s, err := nrzled.NewSPI(p, physic.Frequency(cfg.LED.SPIHz)*physic.Hertz)
		if err != nil {
			return err
		}
		t = s
	}
	h.led = nrzled.New(t)
	return nil
}

func openDAC(cfg *config.Config, sim bool, h *hardware) ([pinmux.DACChannels]analog.PinDAC, error) {
	var out [pinmux.DACChannels]analog.PinDAC
	if sim {
		// Both outputs exist on the simulated board, configured or not.
		for i := range out {
			out[i] = &pinmuxtest.DAC{N: fmt.Sprintf("SIM_DAC%d", i), Max: mcp472x.MaxCount}
		}
		return out, nil
	}
	if cfg.DAC == nil {
		return out, nil
	}
	bus, err := i2creg.Open(cfg.DAC.Bus)
	if err != nil {
		return out, err
	}
	h.closers = append(h.closers, bus)
	d, err := mcp472x.New(bus, &mcp472x.Opts{
		Variant:     mcp472x.Variant(cfg.DAC.Variant),
		Addr:        i2c.Addr(cfg.DAC.Address),
		VRef:        physic.ElectricPotential(cfg.DAC.VRefMV) * physic.MilliVolt,
		InternalRef: cfg.DAC.InternalRef,
	})
	if err != nil {
		return out, err
	}
	h.closers = append(h.closers, haltCloser{d.Halt})
	for i := range out {
		if i >= d.Channels() {
			break
		}
		c, err := d.Channel(i)
		if err != nil {
			return out, err
		}
		out[i] = c
	}
	return out, nil
}

func openPins(cfg *config.Config, sim bool, h *hardware) error {
	layout, err := cfg.Layout()
	if err != nil {
		return err
	}
	var p pinmux.Provider
	if sim {
		p = pinmuxtest.NewProvider()
	} else {
		if err := board.Init(); err != nil {
			return err
		}
		p = board.New(&board.Opts{
			Shares: board.Shares(&layout),
			ADC:    iioadc.Opts{Root: cfg.ADC.Root, Bits: cfg.ADC.Bits},
		})
	}
	dac, err := openDAC(cfg, sim, h)
	if err != nil {
		return err
	}
	h.pins, err = pinmux.New(p, &pinmux.Opts{Layout: layout, DAC: dac})
	return err
}

func mainImpl() error {
	configPath := flag.String("config", "", "YAML configuration file; defaults are used when empty")
	device := flag.String("device", "", "serial port, overrides the configuration")
	sim := flag.Bool("sim", false, "simulate the pins and draw the status LED on the terminal")
	flag.Parse()
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return err
		}
	}
	if *device != "" {
		cfg.Device = *device
	}
	h := &hardware{}
	defer h.close()
	if *sim {
		glog.Info("remoteio: simulating pins")
	}
	if err := openLED(cfg, *sim, h); err != nil {
		return err
	}
	var led expander.Indicator
	if h.led != nil {
		led = h.led
		if err := h.led.SetColor(expander.Init.Color()); err != nil {
			glog.Warningf("remoteio: status led: %v", err)
		}
	}
	if err := openPins(cfg, *sim, h); err != nil {
		showFault(h.led)
		return err
	}
	link, err := seriallink.Open(cfg.Device)
	if err != nil {
		showFault(h.led)
		return err
	}

	var stopping atomic.Bool
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		glog.Info("remoteio: stop requested")
		stopping.Store(true)
		// Unblocks the pending read.
		_ = link.Close()
	}()

	loop := expander.New(link, h.pins, &expander.Opts{LED: led})
	err = loop.Run()
	if stopping.Load() {
		if h.led != nil {
			_ = h.led.Halt()
		}
		return nil
	}
	_ = link.Close()
	return err
}

// showFault leaves the LED red for whoever looks at the board.
func showFault(led *nrzled.Dev) {
	if led != nil {
		_ = led.SetColor(expander.Failed.Color())
	}
}

func main() {
	defer glog.Flush()
	if err := mainImpl(); err != nil {
		glog.Flush()
		fmt.Fprintf(os.Stderr, "remoteio: %s.\n", err)
		os.Exit(1)
	}
}
