// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package seriallink opens the UART the host talks to the expander on.
//
// The line settings are fixed: 57600 baud, 8 data bits, no parity, 1 stop
// bit, no flow control. Reads block until at least one byte arrives or the
// link is closed.
package seriallink

import (
	"errors"
	"fmt"
	"io"

	"github.com/golang/glog"
	"go.bug.st/serial"
)

// Line settings.
const (
	Baud     = 57600
	DataBits = 8
	Parity   = serial.NoParity
	StopBits = serial.OneStopBit
)

// ErrClosed is returned by Read and Write once the link is closed.
var ErrClosed = errors.New("seriallink: closed")

// Mode returns the port configuration.
func Mode() *serial.Mode {
	return &serial.Mode{
		BaudRate: Baud,
		DataBits: DataBits,
		Parity:   Parity,
		StopBits: StopBits,
	}
}

// port is the subset of serial.Port used by Link.
type port interface {
	io.ReadWriteCloser
	Drain() error
}

// Link is an open serial link.
type Link struct {
	port port
	name string
}

// Open opens device with the fixed line settings. No read timeout is set.
func Open(device string) (*Link, error) {
	p, err := serial.Open(device, Mode())
	if err != nil {
		return nil, fmt.Errorf("seriallink: open %s: %w", device, err)
	}
	glog.Infof("seriallink: %s open at %d 8N1", device, Baud)
	return &Link{port: p, name: device}, nil
}

func (l *Link) String() string {
	return l.name
}

// Read implements io.Reader.
//
// A Read pending when the link is closed returns an error wrapping
// ErrClosed.
func (l *Link) Read(b []byte) (int, error) {
	n, err := l.port.Read(b)
	if n > 0 && glog.V(3) {
		glog.Infof("seriallink: rx % X", b[:n])
	}
	return n, wrap(err)
}

// Write implements io.Writer.
func (l *Link) Write(b []byte) (int, error) {
	if glog.V(3) {
		glog.Infof("seriallink: tx % X", b)
	}
	n, err := l.port.Write(b)
	return n, wrap(err)
}

// Flush returns once every written byte left the UART.
func (l *Link) Flush() error {
	if err := l.port.Drain(); err != nil {
		return fmt.Errorf("seriallink: drain %s: %w", l.name, wrap(err))
	}
	return nil
}

// Close implements io.Closer. It unblocks a pending Read.
func (l *Link) Close() error {
	return l.port.Close()
}

// wrap tags the error of a closed port with ErrClosed.
func wrap(err error) error {
	if err == nil {
		return nil
	}
	var ptr *serial.PortError
	var val serial.PortError
	switch {
	case errors.As(err, &ptr) && ptr.Code() == serial.PortClosed:
	case errors.As(err, &val) && val.Code() == serial.PortClosed:
	default:
		return err
	}
	return fmt.Errorf("%w: %w", ErrClosed, err)
}
