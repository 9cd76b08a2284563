// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package config loads the board description of the expander from a YAML
// file.
//
// Every field is optional; the defaults describe a Raspberry Pi carrier
// board. Unknown fields are rejected.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/GermanBionicSystems/remoteio/pinmux"
	"github.com/golang/glog"
	"gopkg.in/yaml.v2"
)

// LED backends.
const (
	LEDSPI     = "spi"
	LEDConsole = "console"
	LEDNone    = "none"
)

var errInvalid = errors.New("config: invalid")

// DAC describes the optional analog output converter.
type DAC struct {
	// Bus is the I²C bus name; empty opens the first one.
	Bus         string `yaml:"bus"`
	Address     uint16 `yaml:"address"`
	Variant     string `yaml:"variant"`
	VRefMV      int    `yaml:"vref_mv"`
	InternalRef bool   `yaml:"internal_ref"`
}

// ADC describes the Linux IIO analog inputs.
type ADC struct {
	Root string `yaml:"root"`
	Bits int    `yaml:"bits"`
}

// LED describes the status LED.
type LED struct {
	Backend string `yaml:"backend"`
	// SPIPort is the SPI port name; empty opens the first one.
	SPIPort string `yaml:"spi_port"`
	SPIHz   int64  `yaml:"spi_hz"`
}

// Config is the content of the configuration file.
type Config struct {
	// Device is the serial port the host is connected to.
	Device string   `yaml:"device"`
	SideA  []string `yaml:"side_a"`
	SideB  []string `yaml:"side_b"`
	// Analog[i] is the IIO channel sharing the pin SideA[i].
	Analog []string `yaml:"analog"`
	ADC    ADC      `yaml:"adc"`
	// DAC is nil when the board has no analog outputs.
	DAC *DAC `yaml:"dac"`
	LED LED  `yaml:"led"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Device: "/dev/serial0",
		SideA:  []string{"GPIO4", "GPIO5", "GPIO6", "GPIO12", "GPIO13", "GPIO16", "GPIO19"},
		SideB:  []string{"GPIO17", "GPIO18", "GPIO22", "GPIO23", "GPIO24", "GPIO25", "GPIO26", "GPIO27"},
		Analog: []string{
			"iio:device0/0", "iio:device0/1", "iio:device0/2",
			"iio:device0/3", "iio:device0/4", "iio:device0/5",
		},
		ADC: ADC{Bits: 12},
		LED: LED{Backend: LEDSPI, SPIHz: 6400000},
	}
}

// Load reads the file at path over the defaults.
func Load(path string) (*Config, error) {
	glog.Infof("config: loading %s", path)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: could not open config file: %w", err)
	}
	return Parse(b)
}

// Parse decodes b over the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.UnmarshalStrict(b, c); err != nil {
		return nil, fmt.Errorf("config: could not parse config file: %w", err)
	}
	if c.DAC != nil {
		if c.DAC.Variant == "" {
			c.DAC.Variant = "MCP4728"
		}
		if c.DAC.Address == 0 {
			c.DAC.Address = 0x60
		}
		if c.DAC.VRefMV == 0 {
			c.DAC.VRefMV = 3300
		}
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.Device == "" {
		return fmt.Errorf("%w: device is empty", errInvalid)
	}
	if _, err := c.Layout(); err != nil {
		return err
	}
	switch c.LED.Backend {
	case LEDSPI:
		if c.LED.SPIHz <= 0 {
			return fmt.Errorf("%w: led.spi_hz must be positive", errInvalid)
		}
	case LEDConsole, LEDNone:
	default:
		return fmt.Errorf("%w: led.backend %q", errInvalid, c.LED.Backend)
	}
	if c.DAC != nil {
		switch c.DAC.Variant {
		case "MCP4725", "MCP4728":
		default:
			return fmt.Errorf("%w: dac.variant %q", errInvalid, c.DAC.Variant)
		}
		if c.DAC.Address > 0x7F {
			return fmt.Errorf("%w: dac.address %#x", errInvalid, c.DAC.Address)
		}
	}
	return nil
}

// Layout returns the pin layout of the board.
func (c *Config) Layout() (pinmux.Layout, error) {
	var l pinmux.Layout
	for _, g := range []struct {
		key string
		dst []string
		src []string
	}{
		{"side_a", l.SideA[:], c.SideA},
		{"side_b", l.SideB[:], c.SideB},
		{"analog", l.Analog[:], c.Analog},
	} {
		if len(g.src) != len(g.dst) {
			return l, fmt.Errorf("%w: %s lists %d pins, want %d", errInvalid, g.key, len(g.src), len(g.dst))
		}
		copy(g.dst, g.src)
	}
	return l, nil
}
