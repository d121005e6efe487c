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
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ZaparooProject/go-serialmsg/internal/frame"
	"github.com/rs/zerolog"
)

// Messenger frames values over a Transport.
//
// Read and Write are serialized by an internal mutex, so a Messenger may
// be shared between goroutines. The transport is borrowed: it is only
// closed when Close is called.
type Messenger struct {
	transport Transport
	logger    zerolog.Logger
	config    Config

	mu            sync.Mutex
	lastRead      []byte
	lastWritten   []byte
	crcApproved   bool
	framesRead    uint64
	framesWritten uint64
}

// New creates a Messenger on transport with the given options
func New(transport Transport, opts ...Option) (*Messenger, error) {
	if transport == nil {
		return nil, ErrNilTransport
	}

	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return nil, err
		}
	}

	return &Messenger{
		transport: transport,
		config:    config,
		logger:    config.Logger.With().Str("transport", string(transport.Type())).Logger(),
	}, nil
}

// Config returns the messenger configuration
func (m *Messenger) Config() Config {
	config := m.config
	if config.RetryConfig != nil {
		rc := *config.RetryConfig
		config.RetryConfig = &rc
	}
	return config
}

// Transport returns the underlying transport
func (m *Messenger) Transport() Transport {
	return m.transport
}

// Write serializes v, frames it and writes the frame to the transport.
// A []byte value is framed as-is without serialization.
func (m *Messenger) Write(v any) error {
	return m.WriteContext(context.Background(), v)
}

// WriteContext is Write with a context bounding write retries
func (m *Messenger) WriteContext(ctx context.Context, v any) error {
	raw, err := frame.Pack(v, m.config.Serializer)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.writeFrame(ctx, raw); err != nil {
		m.logger.Debug().Err(err).Int("bytes", len(raw)).Msg("frame write failed")
		return err
	}

	m.lastWritten = raw
	m.framesWritten++
	m.logger.Debug().Int("bytes", len(raw)).Msg("frame written")
	return nil
}

func (m *Messenger) writeFrame(ctx context.Context, raw []byte) error {
	if m.config.RetryConfig == nil {
		return wrapTransportError("Write", ErrTransportWrite, m.transport.Write(raw))
	}
	return NewTransportWithRetry(m.transport, m.config.RetryConfig).WriteContext(ctx, raw)
}

// Read reads one frame using the default timeout
func (m *Messenger) Read() (*Result, error) {
	return m.ReadContext(context.Background(), m.config.Timeout)
}

// ReadTimeout reads one frame, giving up after timeout
func (m *Messenger) ReadTimeout(timeout time.Duration) (*Result, error) {
	return m.ReadContext(context.Background(), timeout)
}

// ReadContext reads one frame, giving up after timeout or when ctx is done.
//
// Frames with a bad checksum do not produce an error: the Result carries
// OutcomeRejected (or OutcomeUnverified when the checksum policy is
// disabled). ErrTimeout means nothing complete arrived at all.
func (m *Messenger) ReadContext(ctx context.Context, timeout time.Duration) (*Result, error) {
	if timeout <= 0 {
		return nil, fmt.Errorf("%w: timeout must be positive, got %v", ErrInvalidParameter, timeout)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	deadline := m.config.Clock.Now().Add(timeout)
	raw, err := frame.Assemble(ctx, m.transport, m.config.Clock, deadline, m.config.MaxFrameSize)
	if err != nil {
		return nil, m.classifyReadError(err)
	}

	m.lastRead = raw
	m.crcApproved = false
	m.framesRead++

	if len(raw) < frame.MinFrameLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooShort, len(raw))
	}

	payload, received, err := frame.Decode(raw, m.config.Serializer)
	if err != nil {
		m.logger.Debug().Err(err).Int("bytes", len(raw)).Msg("malformed frame")
		return nil, err
	}

	result := &Result{
		serializer:       m.config.Serializer,
		Frame:            raw,
		Payload:          payload,
		ReceivedChecksum: received,
		ComputedChecksum: frame.CalculateChecksum(payload),
		Outcome:          OutcomeAccepted,
	}
	m.crcApproved = result.ChecksumOK()

	if !m.crcApproved {
		event := m.logger.Debug().
			Uint32("received", result.ReceivedChecksum).
			Uint32("computed", result.ComputedChecksum)
		if m.config.RequireChecksumMatch {
			result.Outcome = OutcomeRejected
			result.Payload = nil
			event.Msg("checksum mismatch, frame dropped")
		} else {
			result.Outcome = OutcomeUnverified
			event.Msg("checksum mismatch, frame kept")
		}
		return result, nil
	}

	m.logger.Debug().Int("bytes", len(raw)).Int("payload", len(payload)).Msg("frame read")
	return result, nil
}

// ReadValue reads one frame and decodes its payload into v. v is left
// untouched unless the outcome is OutcomeAccepted or OutcomeUnverified.
// The outcome is OutcomeNone whenever err is non-nil, including when the
// payload does not decode into v.
func (m *Messenger) ReadValue(v any) (Outcome, error) {
	result, err := m.Read()
	if err != nil {
		return OutcomeNone, err
	}
	if result.Outcome == OutcomeRejected {
		return result.Outcome, nil
	}
	if err := result.Decode(v); err != nil {
		return OutcomeNone, err
	}
	return result.Outcome, nil
}

func (m *Messenger) classifyReadError(err error) error {
	switch {
	case errors.Is(err, ErrTimeout),
		errors.Is(err, ErrFrameTooLarge),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return wrapTransportError("Read", ErrTransportRead, err)
	}
}

// CRCApproved reports whether the most recently assembled frame carried a
// matching checksum
func (m *Messenger) CRCApproved() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.crcApproved
}

// LastFrameRead returns a copy of the most recently assembled raw frame
func (m *Messenger) LastFrameRead() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.lastRead...)
}

// LastFrameWritten returns a copy of the most recently written raw frame
func (m *Messenger) LastFrameWritten() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.lastWritten...)
}

// Stats returns the number of frames read and written so far
func (m *Messenger) Stats() (framesRead, framesWritten uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.framesRead, m.framesWritten
}

// Close closes the underlying transport
func (m *Messenger) Close() error {
	if err := m.transport.Close(); err != nil {
		return fmt.Errorf("failed to close transport: %w", err)
	}
	return nil
}
