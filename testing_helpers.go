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
	"sync"
	"time"
)

// VirtualClock is a manually advanced Clock for deterministic tests
type VirtualClock struct {
	now time.Time
	mu  sync.Mutex
}

// NewVirtualClock creates a clock starting at a fixed instant
func NewVirtualClock() *VirtualClock {
	return &VirtualClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the current virtual time
func (c *VirtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *VirtualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// MockTransport is an in-memory Transport for testing.
//
// Bytes queued with Feed are returned by PollByte one at a time. When the
// queue is empty PollByte reports no byte and advances the virtual clock
// by the read timeout, the way a real port would block for that long.
type MockTransport struct {
	clock      *VirtualClock
	readErr    error
	writeErr   error
	rx         []byte
	written    []byte
	timeout    time.Duration
	writeFails int
	writeCalls int
	emptyPolls int
	mu         sync.Mutex
	loopback   bool
	closed     bool
}

// NewMockTransport creates a mock transport with its own virtual clock
func NewMockTransport() *MockTransport {
	return &MockTransport{
		clock:   NewVirtualClock(),
		timeout: 10 * time.Millisecond,
	}
}

// NewLoopbackTransport creates a mock transport whose writes become
// readable, like a serial port with TX wired to RX
func NewLoopbackTransport() *MockTransport {
	m := NewMockTransport()
	m.loopback = true
	return m
}

// Clock returns the virtual clock advanced by empty polls
func (m *MockTransport) Clock() *VirtualClock {
	return m.clock
}

// Feed queues bytes for PollByte
func (m *MockTransport) Feed(data ...byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rx = append(m.rx, data...)
}

// Pending returns the bytes not read yet
func (m *MockTransport) Pending() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.rx...)
}

// Written returns everything written so far
func (m *MockTransport) Written() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.written...)
}

// WriteCalls returns the number of Write calls, failed ones included
func (m *MockTransport) WriteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeCalls
}

// EmptyPolls returns how many PollByte calls found nothing to read
func (m *MockTransport) EmptyPolls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.emptyPolls
}

// SetReadError makes every following PollByte fail with err
func (m *MockTransport) SetReadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readErr = err
}

// SetWriteError makes the next times Write calls fail with err.
// times < 0 fails every call.
func (m *MockTransport) SetWriteError(err error, times int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
	m.writeFails = times
}

// PollByte returns the next queued byte
func (m *MockTransport) PollByte() (byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, false, ErrTransportClosed
	}
	if m.readErr != nil {
		return 0, false, m.readErr
	}
	if len(m.rx) == 0 {
		m.emptyPolls++
		m.clock.Advance(m.timeout)
		return 0, false, nil
	}

	b := m.rx[0]
	m.rx = m.rx[1:]
	return b, true, nil
}

// Write records p and, in loopback mode, queues it for reading
func (m *MockTransport) Write(p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.writeCalls++
	if m.closed {
		return ErrTransportClosed
	}
	if m.writeErr != nil && m.writeFails != 0 {
		if m.writeFails > 0 {
			m.writeFails--
		}
		return m.writeErr
	}

	m.written = append(m.written, p...)
	if m.loopback {
		m.rx = append(m.rx, p...)
	}
	return nil
}

// Close marks the transport closed
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// SetTimeout sets how far an empty poll advances the clock
func (m *MockTransport) SetTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return ErrInvalidParameter
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return nil
}

// Timeout returns the simulated read timeout
func (m *MockTransport) Timeout() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timeout
}

// IsConnected returns true until Close is called
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Type returns TransportMock
func (*MockTransport) Type() TransportType {
	return TransportMock
}

var _ Transport = (*MockTransport)(nil)
