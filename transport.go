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

package serialmsg

import (
	"context"
	"fmt"
	"time"
)

// Transport is the byte stream a Messenger frames messages over.
// This can be implemented by UART, I2C or network stream backends.
type Transport interface {
	// PollByte reads a single byte. ok is false when no byte arrived within
	// the transport's read timeout; that is not an error.
	PollByte() (b byte, ok bool, err error)

	// Write hands all of p to the transport
	Write(p []byte) error

	// Close closes the transport connection
	Close() error

	// SetTimeout sets the per-call read polling timeout
	SetTimeout(timeout time.Duration) error

	// Timeout returns the per-call read polling timeout
	Timeout() time.Duration

	// IsConnected returns true if the transport is connected
	IsConnected() bool

	// Type returns the transport type
	Type() TransportType
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportUART represents UART/serial transport.
	TransportUART TransportType = "uart"
	// TransportI2C represents I2C bus transport.
	TransportI2C TransportType = "i2c"
	// TransportStream represents a network or pipe byte stream.
	TransportStream TransportType = "stream"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)

// TransportWithRetry wraps a Transport with write retry capabilities.
// Reads are never retried: the frame assembler already polls.
type TransportWithRetry struct {
	transport Transport
	config    *RetryConfig
}

// NewTransportWithRetry creates a new transport wrapper with retry logic
func NewTransportWithRetry(transport Transport, config *RetryConfig) *TransportWithRetry {
	if config == nil {
		config = DefaultRetryConfig()
	}
	return &TransportWithRetry{
		transport: transport,
		config:    config,
	}
}

// PollByte reads a single byte from the underlying transport
func (t *TransportWithRetry) PollByte() (byte, bool, error) {
	return t.transport.PollByte()
}

// Write writes p, retrying retryable failures
func (t *TransportWithRetry) Write(p []byte) error {
	return t.WriteContext(context.Background(), p)
}

// WriteContext writes p, retrying retryable failures until ctx is done
func (t *TransportWithRetry) WriteContext(ctx context.Context, p []byte) error {
	return RetryWithConfig(ctx, t.config, func() error {
		return wrapTransportError("Write", ErrTransportWrite, t.transport.Write(p))
	})
}

// Close closes the transport connection
func (t *TransportWithRetry) Close() error {
	if err := t.transport.Close(); err != nil {
		return fmt.Errorf("failed to close underlying transport: %w", err)
	}
	return nil
}

// SetTimeout sets the read timeout for the transport
func (t *TransportWithRetry) SetTimeout(timeout time.Duration) error {
	if err := t.transport.SetTimeout(timeout); err != nil {
		return fmt.Errorf("failed to set timeout on underlying transport: %w", err)
	}
	return nil
}

// Timeout returns the read timeout of the underlying transport
func (t *TransportWithRetry) Timeout() time.Duration {
	return t.transport.Timeout()
}

// IsConnected returns true if the transport is connected
func (t *TransportWithRetry) IsConnected() bool {
	return t.transport.IsConnected()
}

// Type returns the transport type
func (t *TransportWithRetry) Type() TransportType {
	return t.transport.Type()
}

// SetRetryConfig updates the retry configuration
func (t *TransportWithRetry) SetRetryConfig(config *RetryConfig) {
	t.config = config
}

// Unwrap returns the wrapped transport
func (t *TransportWithRetry) Unwrap() Transport {
	return t.transport
}
