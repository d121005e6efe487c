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
	"errors"
	"fmt"

	"github.com/ZaparooProject/go-serialmsg/internal/frame"
)

// Framing errors
var (
	// ErrTimeout means no complete frame arrived before the deadline
	ErrTimeout = frame.ErrTimeout
	// ErrFrameTooShort means an assembled frame had fewer than 3 bytes
	ErrFrameTooShort = frame.ErrFrameTooShort
	// ErrFrameTooLarge means a frame grew past the configured limit
	ErrFrameTooLarge = frame.ErrFrameTooLarge
	// ErrMalformedEscape means an escape byte had no byte after it
	ErrMalformedEscape = frame.ErrMalformedEscape
	// ErrDeserialization means the frame body is not a payload/checksum pair
	ErrDeserialization = frame.ErrDeserialization
	// ErrChecksumMismatch means the embedded checksum did not match the payload
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// Transport errors
var (
	ErrTransportRead    = errors.New("transport read failed")
	ErrTransportWrite   = errors.New("transport write failed")
	ErrTransportTimeout = errors.New("transport timeout")
	ErrTransportClosed  = errors.New("transport closed")
)

// Parameter errors
var (
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrNilTransport     = errors.New("transport is nil")
)

// ErrorType classifies an error for retry decisions
type ErrorType int

const (
	// ErrorTypePermanent errors will not go away on retry
	ErrorTypePermanent ErrorType = iota
	// ErrorTypeTransient errors may succeed on retry
	ErrorTypeTransient
	// ErrorTypeTimeout errors are timeouts
	ErrorTypeTimeout
)

// String returns the error type name
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeTimeout:
		return "timeout"
	default:
		return "permanent"
	}
}

// TransportError describes a failure of the underlying byte transport
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s on %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a TransportError; transient and timeout
// errors are marked retryable.
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       err,
		Type:      errType,
		Retryable: errType == ErrorTypeTransient || errType == ErrorTypeTimeout,
	}
}

// NewTimeoutError creates a retryable transport timeout error
func NewTimeoutError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportTimeout, ErrorTypeTimeout)
}

// NewReadError wraps a transport read failure
func NewReadError(op, port string, err error) *TransportError {
	return NewTransportError(op, port, fmt.Errorf("%w: %w", ErrTransportRead, err), ErrorTypeTransient)
}

// NewWriteError wraps a transport write failure
func NewWriteError(op, port string, err error) *TransportError {
	return NewTransportError(op, port, fmt.Errorf("%w: %w", ErrTransportWrite, err), ErrorTypeTransient)
}

// wrapTransportError returns nil and *TransportError values unchanged.
// Other errors are wrapped with sentinel and keep the type GetErrorType
// gives them, so errors a transport did not classify are permanent.
func wrapTransportError(op string, sentinel, err error) error {
	if err == nil {
		return nil
	}
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return NewTransportError(op, "", fmt.Errorf("%w: %w", sentinel, err), GetErrorType(err))
}

// IsRetryable reports whether an operation that failed with err may be retried
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}

	switch {
	case errors.Is(err, ErrTransportTimeout),
		errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite):
		return true
	default:
		return false
	}
}

// GetErrorType returns the ErrorType of err
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Type
	}

	switch {
	case errors.Is(err, ErrTransportTimeout), errors.Is(err, ErrTimeout):
		return ErrorTypeTimeout
	case errors.Is(err, ErrTransportRead), errors.Is(err, ErrTransportWrite):
		return ErrorTypeTransient
	default:
		return ErrorTypePermanent
	}
}
