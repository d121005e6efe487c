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

// Package uart provides the serial port transport
package uart

import (
	"errors"
	"fmt"
	"sync"
	"time"

	serialmsg "github.com/ZaparooProject/go-serialmsg"
	"github.com/ZaparooProject/go-serialmsg/internal/transport"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate matches the usual microcontroller default
	DefaultBaudRate = 9600

	// DefaultPollTimeout is how long a single byte read may block
	DefaultPollTimeout = 100 * time.Millisecond

	openRetries    = 3
	openRetryDelay = 200 * time.Millisecond
)

// Option configures a UART transport
type Option func(*serial.Mode, *Transport)

// WithBaudRate sets the line speed
func WithBaudRate(baud int) Option {
	return func(mode *serial.Mode, _ *Transport) {
		mode.BaudRate = baud
	}
}

// WithParity sets the parity mode
func WithParity(parity serial.Parity) Option {
	return func(mode *serial.Mode, _ *Transport) {
		mode.Parity = parity
	}
}

// WithStopBits sets the number of stop bits
func WithStopBits(bits serial.StopBits) Option {
	return func(mode *serial.Mode, _ *Transport) {
		mode.StopBits = bits
	}
}

// WithPollTimeout sets how long a single byte read may block
func WithPollTimeout(timeout time.Duration) Option {
	return func(_ *serial.Mode, t *Transport) {
		t.timeout = timeout
	}
}

// Transport implements serialmsg.Transport over a serial port
type Transport struct {
	port     serial.Port
	portName string
	timeout  time.Duration
	mu       sync.Mutex
	buf      [1]byte
}

// New opens portName with 8N1 framing at DefaultBaudRate unless
// overridden. Busy ports are retried a few times before giving up.
func New(portName string, opts ...Option) (*Transport, error) {
	mode := &serial.Mode{
		BaudRate: DefaultBaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	t := &Transport{
		portName: portName,
		timeout:  DefaultPollTimeout,
	}
	for _, opt := range opts {
		opt(mode, t)
	}

	port, err := transport.WithRetry(transport.RetryConfig{
		Description: "open",
		Port:        portName,
		MaxRetries:  openRetries,
		RetryDelay:  openRetryDelay,
	}, func() (serial.Port, bool, error) {
		p, openErr := serial.Open(portName, mode)
		if openErr == nil {
			return p, false, nil
		}
		if isPortBusy(openErr) {
			return nil, true, nil
		}
		return nil, false, openErr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}

	if err := port.SetReadTimeout(t.timeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	t.port = port
	return t, nil
}

func isPortBusy(err error) bool {
	var portErr *serial.PortError
	return errors.As(err, &portErr) && portErr.Code() == serial.PortBusy
}

// PollByte reads one byte, waiting at most the poll timeout
func (t *Transport) PollByte() (byte, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return 0, false, serialmsg.NewTransportError("PollByte", t.portName,
			serialmsg.ErrTransportClosed, serialmsg.ErrorTypePermanent)
	}

	n, err := t.port.Read(t.buf[:])
	if err != nil {
		return 0, false, serialmsg.NewReadError("PollByte", t.portName, err)
	}
	if n == 0 {
		// read timeout expired
		return 0, false, nil
	}
	return t.buf[0], true, nil
}

// Write writes all of p and waits for it to leave the output buffer
func (t *Transport) Write(p []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return serialmsg.NewTransportError("Write", t.portName,
			serialmsg.ErrTransportClosed, serialmsg.ErrorTypePermanent)
	}

	for written := 0; written < len(p); {
		n, err := t.port.Write(p[written:])
		if err != nil {
			return serialmsg.NewWriteError("Write", t.portName, err)
		}
		written += n
	}

	if err := t.port.Drain(); err != nil {
		return serialmsg.NewWriteError("Drain", t.portName, err)
	}
	return nil
}

// SetTimeout sets how long a single byte read may block
func (t *Transport) SetTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", serialmsg.ErrInvalidParameter)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port != nil {
		if err := t.port.SetReadTimeout(timeout); err != nil {
			return fmt.Errorf("failed to set read timeout: %w", err)
		}
	}
	t.timeout = timeout
	return nil
}

// Timeout returns the per-byte read timeout
func (t *Transport) Timeout() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timeout
}

// Close closes the serial port
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	if err != nil {
		return fmt.Errorf("failed to close serial port %s: %w", t.portName, err)
	}
	return nil
}

// IsConnected returns true if the port is open
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port != nil
}

// Type returns the transport type
func (*Transport) Type() serialmsg.TransportType {
	return serialmsg.TransportUART
}

// PortName returns the device path
func (t *Transport) PortName() string {
	return t.portName
}

// Ensure Transport implements serialmsg.Transport
var _ serialmsg.Transport = (*Transport)(nil)
