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

// Package stream adapts deadline-capable byte streams, such as TCP
// serial servers (ser2net, ESP-Link) or pipes, to serialmsg.Transport.
package stream

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	serialmsg "github.com/ZaparooProject/go-serialmsg"
)

// DefaultPollTimeout is how long a single byte read may block
const DefaultPollTimeout = 50 * time.Millisecond

// Conn is the subset of net.Conn the transport needs
type Conn interface {
	io.ReadWriteCloser
	SetReadDeadline(t time.Time) error
}

// Transport implements serialmsg.Transport over a Conn
type Transport struct {
	conn    Conn
	name    string
	timeout time.Duration
	mu      sync.Mutex
	buf     [1]byte
}

// New wraps conn. name identifies the peer in errors.
func New(conn Conn, name string) *Transport {
	return &Transport{
		conn:    conn,
		name:    name,
		timeout: DefaultPollTimeout,
	}
}

// Dial connects to a TCP serial server
func Dial(address string, dialTimeout time.Duration) (*Transport, error) {
	conn, err := net.DialTimeout("tcp", address, dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", address, err)
	}
	return New(conn, address), nil
}

// PollByte reads one byte, waiting at most the poll timeout
func (t *Transport) PollByte() (byte, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return 0, false, closedError("PollByte", t.name)
	}

	if err := t.conn.SetReadDeadline(time.Now().Add(t.timeout)); err != nil {
		return 0, false, serialmsg.NewReadError("SetReadDeadline", t.name, err)
	}

	n, err := t.conn.Read(t.buf[:])
	if n == 1 {
		return t.buf[0], true, nil
	}
	switch {
	case err == nil:
		return 0, false, nil
	case isTimeout(err):
		return 0, false, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrClosedPipe), errors.Is(err, net.ErrClosed):
		return 0, false, serialmsg.NewTransportError("PollByte", t.name,
			fmt.Errorf("%w: %w", serialmsg.ErrTransportClosed, err), serialmsg.ErrorTypePermanent)
	default:
		return 0, false, serialmsg.NewReadError("PollByte", t.name, err)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Write writes all of p
func (t *Transport) Write(p []byte) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return closedError("Write", t.name)
	}

	for written := 0; written < len(p); {
		n, err := conn.Write(p[written:])
		if err != nil {
			if errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed) {
				return serialmsg.NewTransportError("Write", t.name,
					fmt.Errorf("%w: %w", serialmsg.ErrTransportClosed, err), serialmsg.ErrorTypePermanent)
			}
			return serialmsg.NewWriteError("Write", t.name, err)
		}
		written += n
	}
	return nil
}

func closedError(op, name string) error {
	return serialmsg.NewTransportError(op, name, serialmsg.ErrTransportClosed, serialmsg.ErrorTypePermanent)
}

// SetTimeout sets how long a single byte read may block
func (t *Transport) SetTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", serialmsg.ErrInvalidParameter)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeout = timeout
	return nil
}

// Timeout returns the per-byte read timeout
func (t *Transport) Timeout() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timeout
}

// Close closes the connection
func (t *Transport) Close() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()

	if conn == nil {
		return nil
	}
	if err := conn.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", t.name, err)
	}
	return nil
}

// IsConnected returns true until Close is called
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

// Type returns the transport type
func (*Transport) Type() serialmsg.TransportType {
	return serialmsg.TransportStream
}

// Ensure Transport implements serialmsg.Transport
var _ serialmsg.Transport = (*Transport)(nil)
