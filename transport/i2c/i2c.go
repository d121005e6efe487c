// go-serialmsg
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-serialmsg.
//
// go-serialmsg is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-serialmsg is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-serialmsg; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

// Package i2c provides a byte transport to a peer microcontroller on an
// I2C bus.
//
// The host is the bus controller, so the peer cannot signal "no data".
// Peers are expected to answer reads with the flag byte 0x7E while they
// have nothing to send; the frame assembler skips it as idle fill.
package i2c

import (
	"fmt"
	"sync"
	"time"

	serialmsg "github.com/ZaparooProject/go-serialmsg"
	"github.com/ZaparooProject/go-serialmsg/internal/frame"
	"github.com/ZaparooProject/go-serialmsg/internal/transport"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

const (
	// DefaultAddress is the 7-bit peer address
	DefaultAddress = 0x42

	// maxChunk keeps writes within small peer receive buffers
	maxChunk = 32

	// Max clock frequency (400 kHz).
	maxClockFreq = 400 * physic.KiloHertz

	defaultTimeout = 50 * time.Millisecond
	readyTimeout   = 500 * time.Millisecond
)

// Transport implements serialmsg.Transport over an I2C device
type Transport struct {
	dev     *i2c.Dev
	bus     i2c.BusCloser
	busName string
	timeout time.Duration
	mu      sync.Mutex
	buf     [1]byte
}

// New opens busName and talks to the peer at addr. The peer must answer
// a read within a short grace period.
func New(busName string, addr uint16) (*Transport, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %s: %w", busName, err)
	}

	_ = bus.SetSpeed(maxClockFreq) // Ignore error, continue with default speed

	t := &Transport{
		dev:     &i2c.Dev{Addr: addr, Bus: bus},
		bus:     bus,
		busName: busName,
		timeout: defaultTimeout,
	}

	if err := t.waitReady(); err != nil {
		_ = bus.Close()
		return nil, err
	}
	return t, nil
}

// waitReady polls the peer until a read succeeds
func (t *Transport) waitReady() error {
	_, err := transport.TimeoutRetry(readyTimeout, func() (struct{}, bool, error) {
		if err := t.dev.Tx(nil, t.buf[:]); err != nil {
			return struct{}{}, true, nil
		}
		return struct{}{}, false, nil
	})
	if err != nil {
		return fmt.Errorf("I2C peer at 0x%02X on %s not responding: %w", t.dev.Addr, t.busName, err)
	}
	return nil
}

// PollByte reads one byte from the peer. Idle peers answer with the flag
// byte, so every successful read reports a byte.
func (t *Transport) PollByte() (byte, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.dev == nil {
		return 0, false, serialmsg.NewTransportError("PollByte", t.busName,
			serialmsg.ErrTransportClosed, serialmsg.ErrorTypePermanent)
	}

	if err := t.dev.Tx(nil, t.buf[:]); err != nil {
		return 0, false, serialmsg.NewReadError("PollByte", t.busName, err)
	}
	return t.buf[0], true, nil
}

// Write sends p to the peer in chunks of at most 32 bytes
func (t *Transport) Write(p []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.dev == nil {
		return serialmsg.NewTransportError("Write", t.busName,
			serialmsg.ErrTransportClosed, serialmsg.ErrorTypePermanent)
	}

	for _, chunk := range splitChunks(p, maxChunk) {
		if err := t.dev.Tx(chunk, nil); err != nil {
			return serialmsg.NewWriteError("Write", t.busName, err)
		}
	}
	return nil
}

// splitChunks splits p without copying. Chunks never end on an escape
// byte so the peer can unescape each chunk as it arrives.
func splitChunks(p []byte, size int) [][]byte {
	var chunks [][]byte
	for len(p) > 0 {
		n := size
		if n > len(p) {
			n = len(p)
		}
		if n > 1 && n < len(p) && p[n-1] == frame.Escape {
			n--
		}
		chunks = append(chunks, p[:n])
		p = p[n:]
	}
	return chunks
}

// SetTimeout records the read timeout. I2C reads complete in one bus
// transaction, so it only documents the expected poll cadence.
func (t *Transport) SetTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", serialmsg.ErrInvalidParameter)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeout = timeout
	return nil
}

// Timeout returns the read timeout
func (t *Transport) Timeout() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timeout
}

// Close releases the bus
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.dev = nil
	if t.bus == nil {
		return nil
	}
	err := t.bus.Close()
	t.bus = nil
	if err != nil {
		return fmt.Errorf("failed to close I2C bus %s: %w", t.busName, err)
	}
	return nil
}

// IsConnected returns true if the transport is connected
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dev != nil
}

// Type returns the transport type
func (*Transport) Type() serialmsg.TransportType {
	return serialmsg.TransportI2C
}

// Ensure Transport implements serialmsg.Transport
var _ serialmsg.Transport = (*Transport)(nil)
