// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package expander serves the remote I/O protocol on a serial link.
//
// A Loop reads one request at a time, performs it on the pins and answers
// before reading the next one. The status LED shows the phase of the loop:
// green while waiting for a request, blue while processing it and red once
// the link failed.
//
// Requests that cannot be served, because they are unknown or because the
// hardware refused them, are answered with an error status and the loop
// goes on. A failure to read from or write to the link ends the loop.
package expander

import (
	"errors"
	"fmt"
	"io"

	"github.com/GermanBionicSystems/remoteio/nrzled"
	"github.com/GermanBionicSystems/remoteio/pinmux"
	"github.com/GermanBionicSystems/remoteio/protocol"
	"github.com/golang/glog"
)

// State is the phase of a Loop.
type State uint8

const (
	Init State = iota
	AwaitRequest
	Processing
	Failed
)

func (s State) String() string {
	switch s {
	case Init:
		return "Init"
	case AwaitRequest:
		return "AwaitRequest"
	case Processing:
		return "Processing"
	case Failed:
		return "Failed"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Color returns the status LED color shown in state s.
func (s State) Color() nrzled.RGB {
	switch s {
	case AwaitRequest:
		return nrzled.Green
	case Processing:
		return nrzled.Blue
	case Failed:
		return nrzled.Red
	}
	return nrzled.Yellow
}

// Pins is the hardware the requests act on. It is implemented by
// *pinmux.Manager.
type Pins interface {
	DigitalRead(side pinmux.Side) (byte, error)
	DigitalWrite(side pinmux.Side, v byte) error
	AnalogRead(channel int) (uint16, error)
	AnalogWrite(port int, v uint16) error
}

// Indicator shows the state of the loop. It is implemented by *nrzled.Dev.
type Indicator interface {
	SetColor(c nrzled.RGB) error
}

// Stats counts the requests served by a Loop.
type Stats struct {
	// Handled requests were answered with a result.
	Handled uint64
	// Rejected requests were unknown or malformed.
	Rejected uint64
	// Failed requests were refused by the hardware.
	Failed uint64
}

func (s Stats) String() string {
	return fmt.Sprintf("handled=%d rejected=%d failed=%d", s.Handled, s.Rejected, s.Failed)
}

// Opts holds the configuration of a Loop.
type Opts struct {
	// LED is optional.
	LED Indicator

	_ struct{}
}

// Loop owns the link and the pins for its lifetime.
type Loop struct {
	link  io.ReadWriter
	pins  Pins
	led   Indicator
	state State
	stats Stats

	ledFailed bool
}

// New returns a Loop serving requests read from link. If link implements
// Flush() or Flush() error, it is flushed after every response.
func New(link io.ReadWriter, pins Pins, opts *Opts) *Loop {
	return &Loop{link: link, pins: pins, led: opts.LED}
}

func (l *Loop) String() string {
	return fmt.Sprintf("expander{%s, %s}", l.state, l.stats)
}

// State returns the current phase of the loop.
func (l *Loop) State() State {
	return l.state
}

// Stats returns the request counters.
func (l *Loop) Stats() Stats {
	return l.stats
}

// Run serves requests until the link fails, and returns that failure.
//
// The error wraps protocol.ErrRead or protocol.ErrWrite. Closing the link
// is the way to stop a running Loop.
func (l *Loop) Run() error {
	if l.state == Failed {
		return errors.New("expander: loop already failed")
	}
	l.enter(AwaitRequest)
	for {
		if err := l.Step(); err != nil {
			glog.Infof("expander: stopped: %s", l.stats)
			return err
		}
	}
}

// Step serves a single request. It returns an error only when the link
// failed, after which the Loop is Failed.
func (l *Loop) Step() error {
	req, err := protocol.Decode(l.link)
	l.enter(Processing)
	if err != nil {
		// The link is most likely gone; try to tell the host anyway.
		if werr := protocol.Encode(l.link, protocol.Error{}); werr != nil && glog.V(1) {
			glog.Infof("expander: could not report read failure: %v", werr)
		}
		return l.fail(err)
	}
	resp := l.handle(req)
	if glog.V(2) {
		glog.Infof("expander: %v -> %s", req, resp)
	}
	if err := protocol.Encode(l.link, resp); err != nil {
		return l.fail(err)
	}
	l.enter(AwaitRequest)
	return nil
}

// handle performs req and returns the response to send. Hardware errors
// only fail the request at hand.
func (l *Loop) handle(req protocol.Request) protocol.Response {
	var resp protocol.Response
	var err error
	switch r := req.(type) {
	case protocol.InitTest:
		resp = protocol.TestEcho{Value: r.Value}
	case protocol.AnalogRead:
		var v uint16
		if v, err = l.pins.AnalogRead(int(r.Port)); err == nil {
			resp = protocol.AnalogValue{Value: v}
		}
	case protocol.AnalogWrite:
		if err = l.pins.AnalogWrite(int(r.Port), r.Value); err == nil {
			resp = protocol.OK{}
		}
	case protocol.DigitalRead:
		var v byte
		if v, err = l.pins.DigitalRead(side(r.Port)); err == nil {
			resp = protocol.DigitalValue{Value: v}
		}
	case protocol.DigitalWrite:
		if err = l.pins.DigitalWrite(side(r.Port), r.Value); err == nil {
			resp = protocol.OK{}
		}
	default:
		l.stats.Rejected++
		return protocol.Error{}
	}
	if err != nil {
		l.stats.Failed++
		glog.Warningf("expander: %s: %v", req, err)
		return protocol.Error{}
	}
	l.stats.Handled++
	return resp
}

func (l *Loop) fail(err error) error {
	l.enter(Failed)
	glog.Errorf("expander: %v", err)
	return fmt.Errorf("expander: %w", err)
}

// enter switches to s and shows it on the LED. The LED is only an
// indicator; failing to drive it never stops the loop.
func (l *Loop) enter(s State) {
	l.state = s
	if l.led == nil {
		return
	}
	if err := l.led.SetColor(s.Color()); err != nil {
		if !l.ledFailed {
			glog.Warningf("expander: status led: %v", err)
		}
		l.ledFailed = true
		return
	}
	l.ledFailed = false
}

func side(p protocol.DigitalPort) pinmux.Side {
	if p == protocol.SideB {
		return pinmux.SideB
	}
	return pinmux.SideA
}

var _ Pins = &pinmux.Manager{}
var _ Indicator = &nrzled.Dev{}
