// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package seriallink

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.bug.st/serial"
)

func TestMode(t *testing.T) {
	m := Mode()
	if m.BaudRate != 57600 || m.DataBits != 8 {
		t.Fatal(m)
	}
	if m.Parity != serial.NoParity || m.StopBits != serial.OneStopBit {
		t.Fatal(m)
	}
	if m.InitialStatusBits != nil {
		t.Fatal(m)
	}
}

func TestOpen_missing(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "ttyNone")); err == nil {
		t.Fatal("expected error")
	}
}

func TestLink(t *testing.T) {
	port := newLoopback()
	port.in.WriteString("\x01\x2A")
	l := &Link{port: port, name: "loop"}
	b := make([]byte, 2)
	if _, err := io.ReadFull(l, b); err != nil {
		t.Fatal(err)
	}
	if string(b) != "\x01\x2A" {
		t.Fatalf("% X", b)
	}
	if _, err := l.Write([]byte{0xFF, 0x2A}); err != nil {
		t.Fatal(err)
	}
	if port.drains != 0 {
		t.Fatal(port.drains)
	}
	if err := l.Flush(); err != nil {
		t.Fatal(err)
	}
	if port.drains != 1 {
		t.Fatalf("Drain() called %d times, want 1", port.drains)
	}
	if port.out.String() != "\xFF\x2A" {
		t.Fatalf("% X", port.out.Bytes())
	}
	if l.String() != "loop" {
		t.Fatal(l.String())
	}
}

func TestFlush_error(t *testing.T) {
	port := newLoopback()
	broken := errors.New("tcdrain: input/output error")
	port.drainErr = broken
	l := &Link{port: port, name: "loop"}
	if err := l.Flush(); !errors.Is(err, broken) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClose_unblocksRead(t *testing.T) {
	port := newLoopback()
	l := &Link{port: port, name: "loop"}
	done := make(chan error)
	go func() {
		_, err := l.Read(make([]byte, 1))
		done <- err
	}()
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Read() still blocked after Close()")
	}
}

// loopback serves reads from in, blocking when it is empty until Close.
type loopback struct {
	mu       sync.Mutex
	in, out  bytes.Buffer
	drains   int
	drainErr error
	closed   chan struct{}
}

func newLoopback() *loopback {
	return &loopback{closed: make(chan struct{})}
}

func (l *loopback) Read(b []byte) (int, error) {
	l.mu.Lock()
	if l.in.Len() != 0 {
		defer l.mu.Unlock()
		return l.in.Read(b)
	}
	l.mu.Unlock()
	<-l.closed
	return 0, errors.New("loopback: closed")
}

func (l *loopback) Write(b []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out.Write(b)
}

func (l *loopback) Drain() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.drains++
	return l.drainErr
}

func (l *loopback) Close() error {
	close(l.closed)
	return nil
}
